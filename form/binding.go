package form

import (
	"context"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/dlclark/regexp2"
	"github.com/looplab/fsm"
	"go.uber.org/zap"

	"github.com/kdsmith18542/fieldguard/observability"
)

// Validator owns the rule and sanitizer registries. Register custom rules
// first, then Attach it to forms.
type Validator struct {
	registry  *Registry
	logger    *zap.Logger
	observer  observability.Observer
	scheduler Scheduler
	debounce  time.Duration
}

// New returns a Validator with the built-in rules and sanitizers.
func New(opts ...Option) *Validator {
	v := &Validator{
		registry:  NewRegistry(),
		logger:    zap.NewNop(),
		scheduler: realScheduler{},
		debounce:  DefaultDebounce,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Registry exposes the validator's registry.
func (v *Validator) Registry() *Registry {
	return v.registry
}

// RegisterRule adds a rule with its default message.
func (v *Validator) RegisterRule(name string, rule Rule, message string) {
	v.registry.Register(name, rule, message)
}

// RegisterFunc adds a functional rule with its default message.
func (v *Validator) RegisterFunc(name string, fn RuleFunc, message string) {
	v.registry.Register(name, fn, message)
}

// RegisterPattern compiles expr and adds it as a full-match rule.
//
// Example:
//
//	err := v.RegisterPattern("postcode", `^\d{6}$`, "Enter a 6 digit postcode")
func (v *Validator) RegisterPattern(name, expr, message string, opts ...regexp2.RegexOptions) error {
	p, err := NewPattern(expr, opts...)
	if err != nil {
		return err
	}
	v.registry.Register(name, p, message)
	return nil
}

// RegisterSanitizer adds a live sanitizer for fields that list name among
// their rules.
func (v *Validator) RegisterSanitizer(name string, s Sanitizer) {
	v.registry.RegisterSanitizer(name, s)
}

// Attach binds the validator to a form. The binding works on a snapshot of
// the registry, so later registrations do not affect it.
func (v *Validator) Attach(f Form, cfg Config) *Binding {
	obs := v.observer
	if obs == nil {
		obs = observability.GetObserver()
	}
	if cfg.Rules == nil {
		cfg.Rules = make(map[string][]string)
	}
	return &Binding{
		form:      f,
		cfg:       cfg,
		registry:  v.registry.Clone(),
		logger:    v.logger.With(zap.String("form", cfg.Name)),
		observer:  obs,
		scheduler: v.scheduler,
		debounce:  v.debounce,
		states:    make(map[string]*fieldState),
	}
}

// Binding is a validator attached to one form. Its methods correspond to the
// document events that drive validation and are safe for concurrent use.
type Binding struct {
	mu sync.Mutex

	form      Form
	cfg       Config
	registry  *Registry
	logger    *zap.Logger
	observer  observability.Observer
	scheduler Scheduler
	debounce  time.Duration

	states map[string]*fieldState
	closed bool
}

// fieldState is the transient state kept per field name.
type fieldState struct {
	machine *fsm.FSM
	valid   bool
	checked bool
	timer   Timer
	gen     uint64
}

func (b *Binding) state(name string) *fieldState {
	if st, ok := b.states[name]; ok {
		return st
	}
	logger := b.logger.With(zap.String("field", name))
	st := &fieldState{
		machine: fsm.NewFSM(
			StateUntouched,
			fsm.Events{
				{Name: eventTouch, Src: []string{StateUntouched}, Dst: StateTouched},
				{Name: eventReset, Src: []string{StateTouched}, Dst: StateUntouched},
			},
			fsm.Callbacks{
				"enter_state": func(_ context.Context, e *fsm.Event) {
					logger.Debug("field state changed", zap.String("from", e.Src), zap.String("to", e.Dst))
				},
			},
		),
	}
	b.states[name] = st
	return st
}

func (b *Binding) transition(ctx context.Context, st *fieldState, event string) {
	if !st.machine.Can(event) {
		return
	}
	if err := st.machine.Event(ctx, event); err != nil {
		b.logger.Warn("field state transition failed", zap.String("event", event), zap.Error(err))
	}
}

func (b *Binding) stopTimer(st *fieldState) {
	st.gen++
	if st.timer != nil {
		st.timer.Stop()
		st.timer = nil
	}
}

// Blur marks the field touched and validates it immediately.
func (b *Binding) Blur(ctx context.Context, name string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	f, ok := b.form.Field(name)
	if !ok {
		return
	}
	st := b.state(name)
	b.stopTimer(st)
	b.transition(ctx, st, eventTouch)
	b.form.RemoveAnnotation(name)
	b.validate(ctx, f)
}

// Keyup handles a keystroke. An untouched field is validated once the
// debounce period passes without further keystrokes; a touched field is
// validated immediately.
func (b *Binding) Keyup(ctx context.Context, name string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if f, ok := b.form.Field(name); ok {
		b.keystroke(ctx, f)
	}
}

// Input handles a value change while typing by running the field's live
// sanitizer. It never validates; the keyup that follows every keystroke
// does.
func (b *Binding) Input(ctx context.Context, name string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if f, ok := b.form.Field(name); ok {
		b.sanitize(ctx, f)
	}
}

func (b *Binding) keystroke(ctx context.Context, f Field) {
	name := f.Name()
	st := b.state(name)
	b.stopTimer(st)

	if st.machine.Is(StateTouched) {
		b.form.RemoveAnnotation(name)
		b.validate(ctx, f)
		return
	}

	gen := st.gen
	ctx = context.WithoutCancel(ctx)
	st.timer = b.scheduler.AfterFunc(b.debounce, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if b.closed || st.gen != gen {
			return
		}
		st.timer = nil
		field, ok := b.form.Field(name)
		if !ok {
			return
		}
		b.form.RemoveAnnotation(name)
		b.validate(ctx, field)
	})
}

// Change handles a committed value change, as sent by select elements.
func (b *Binding) Change(ctx context.Context, name string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	f, ok := b.form.Field(name)
	if !ok {
		return
	}
	b.stopTimer(b.state(name))
	b.form.RemoveAnnotation(name)
	b.validate(ctx, f)
}

// PickerSelected handles a date picker choosing a value for the named field.
// The field is revalidated and the picker closed.
func (b *Binding) PickerSelected(ctx context.Context, name string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	f, ok := b.form.Field(name)
	if !ok {
		return
	}
	b.stopTimer(b.state(name))
	b.form.RemoveAnnotation(name)
	b.validate(ctx, f)
	if closer, ok := b.form.(PickerCloser); ok {
		closer.ClosePicker(name)
	}
}

// Submit validates every field. All annotations are removed first. If every
// field passes, the success callback runs once with the field values. It
// reports whether the form was valid.
func (b *Binding) Submit(ctx context.Context) bool {
	b.mu.Lock()
	start := time.Now()

	for _, st := range b.states {
		b.stopTimer(st)
	}
	b.form.RemoveAnnotations()

	invalid := 0
	for _, f := range b.form.Fields() {
		if !b.validate(ctx, f) {
			invalid++
		}
	}
	values := b.values()
	success := b.cfg.Success
	b.observer.OnSubmit(ctx, b.cfg.Name, invalid, time.Since(start))
	b.logger.Debug("form submitted", zap.Int("invalid", invalid))
	b.mu.Unlock()

	if invalid > 0 {
		return false
	}
	if success != nil {
		success(ctx, values)
	}
	return true
}

// Validate runs the field's rules without clearing its annotation first.
// Unknown fields are valid.
func (b *Binding) Validate(ctx context.Context, name string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	f, ok := b.form.Field(name)
	if !ok {
		return true
	}
	return b.validate(ctx, f)
}

// Sanitize runs the field's live sanitizer. It reports whether the field has
// one.
func (b *Binding) Sanitize(ctx context.Context, name string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	f, ok := b.form.Field(name)
	if !ok {
		return false
	}
	return b.sanitize(ctx, f)
}

// sanitize applies the first sanitizer named in the field's rule list.
func (b *Binding) sanitize(ctx context.Context, f Field) bool {
	name := f.Name()
	for _, t := range b.cfg.Tokens(name) {
		s, ok := b.registry.Sanitizer(t.Name)
		if !ok {
			continue
		}
		raw := f.Value()
		value, cursor := s(raw, f.Cursor())
		if value != raw {
			f.SetValue(value)
			f.SetCursor(cursor)
			if removed := utf8.RuneCountInString(raw) - utf8.RuneCountInString(value); removed > 0 {
				b.observer.OnFieldSanitized(ctx, b.cfg.Name, name, removed)
			}
			b.logger.Debug("field sanitized", zap.String("field", name), zap.String("sanitizer", t.Name))
		}
		return true
	}
	return false
}

// validate evaluates the field's rules and updates its annotation. The
// caller holds b.mu.
func (b *Binding) validate(ctx context.Context, f Field) bool {
	start := time.Now()
	name := f.Name()
	value := strings.TrimSpace(f.Value())
	tokens := b.cfg.Tokens(name)
	valid := true

	switch {
	case len(tokens) == 0:
	case hasToken(tokens, RuleRequired) && value == "":
		valid = false
		b.fail(ctx, name, RuleRequired)
	case value != "":
		in := Input{Field: f, Form: b.form}
		for _, t := range tokens {
			if t.Name == RuleRequired {
				continue
			}
			rule, ok := b.registry.Rule(t.Name)
			if !ok {
				b.logger.Debug("ignoring unregistered rule", zap.String("field", name), zap.String("rule", t.Name))
				continue
			}
			if !rule.Check(value, in, t.Param) {
				valid = false
				b.fail(ctx, name, t.Name)
			}
		}
	}

	st := b.state(name)
	st.valid = valid
	st.checked = true
	b.observer.OnFieldValidated(ctx, b.cfg.Name, name, valid, time.Since(start))
	return valid
}

func (b *Binding) fail(ctx context.Context, field, rule string) {
	b.form.Annotate(field, b.message(field, rule))
	b.observer.OnRuleFailed(ctx, b.cfg.Name, field, rule)
}

// message resolves the text shown for a failing rule: field configuration
// first, then the rule's registered default.
func (b *Binding) message(field, rule string) string {
	if msg, ok := b.cfg.Message(field, rule); ok {
		return msg
	}
	if msg, ok := b.registry.Message(rule); ok && msg != "" {
		return msg
	}
	if rule == RuleRequired {
		return ErrFieldRequired
	}
	return ErrInvalidValue
}

func hasToken(tokens []Token, name string) bool {
	for _, t := range tokens {
		if t.Name == name {
			return true
		}
	}
	return false
}

// Values returns every field's trimmed value keyed by name.
func (b *Binding) Values() map[string]string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.values()
}

func (b *Binding) values() map[string]string {
	values := make(map[string]string)
	for _, f := range b.form.Fields() {
		values[f.Name()] = strings.TrimSpace(f.Value())
	}
	return values
}

// Valid reports the result of the field's most recent validation. A field
// that was never validated is reported as valid.
func (b *Binding) Valid(name string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	st, ok := b.states[name]
	return !ok || !st.checked || st.valid
}

// Touched reports whether the field has lost focus at least once since the
// binding was attached or reset.
func (b *Binding) Touched(name string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	st, ok := b.states[name]
	return ok && st.machine.Is(StateTouched)
}

// Reset cancels pending validations, returns every field to untouched and
// removes all annotations.
func (b *Binding) Reset(ctx context.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, st := range b.states {
		b.stopTimer(st)
		b.transition(ctx, st, eventReset)
		st.checked = false
	}
	b.form.RemoveAnnotations()
}

// Reconfigure swaps in new rules and messages. A config without a success
// callback or name keeps the current ones.
func (b *Binding) Reconfigure(cfg Config) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if cfg.Success == nil {
		cfg.Success = b.cfg.Success
	}
	if cfg.Name == "" {
		cfg.Name = b.cfg.Name
	}
	if cfg.Rules == nil {
		cfg.Rules = make(map[string][]string)
	}
	b.cfg = cfg
}

// Close cancels pending validations. Events after Close still work but
// scheduled debounces never fire.
func (b *Binding) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, st := range b.states {
		b.stopTimer(st)
	}
	b.closed = true
}
