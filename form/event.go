package form

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// EventType identifies a document event delivered to a Binding.
type EventType int

const (
	EventBlur EventType = iota
	EventKeyup
	EventInput
	EventChange
	EventPickerSelected
	EventSubmit
)

var eventNames = map[EventType]string{
	EventBlur:           "blur",
	EventKeyup:          "keyup",
	EventInput:          "input",
	EventChange:         "change",
	EventPickerSelected: "picker-selected",
	EventSubmit:         "submit",
}

func (e EventType) String() string {
	if name, ok := eventNames[e]; ok {
		return name
	}
	return fmt.Sprintf("EventType(%d)", int(e))
}

// ParseEventType maps a DOM event name such as "keyup" to its EventType.
func ParseEventType(s string) (EventType, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for t, name := range eventNames {
		if name == s {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown event %q", s)
}

// Event is a single document event. Field is ignored for EventSubmit.
type Event struct {
	Type  EventType
	Field string
}

// Dispatch routes the event to the matching Binding method. Unknown event
// types are logged and dropped.
func (b *Binding) Dispatch(ctx context.Context, e Event) {
	switch e.Type {
	case EventBlur:
		b.Blur(ctx, e.Field)
	case EventKeyup:
		b.Keyup(ctx, e.Field)
	case EventInput:
		b.Input(ctx, e.Field)
	case EventChange:
		b.Change(ctx, e.Field)
	case EventPickerSelected:
		b.PickerSelected(ctx, e.Field)
	case EventSubmit:
		b.Submit(ctx)
	default:
		b.logger.Debug("dropping unknown event", zap.Stringer("event", e.Type), zap.String("field", e.Field))
	}
}
