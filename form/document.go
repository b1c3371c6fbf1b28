package form

// Kind distinguishes the element types a Binding validates.
type Kind int

const (
	// KindInput is an <input> element.
	KindInput Kind = iota
	// KindSelect is a <select> element.
	KindSelect
)

func (k Kind) String() string {
	switch k {
	case KindSelect:
		return "select"
	default:
		return "input"
	}
}

// Field is a single form control as seen by the validator.
//
// Cursor positions are measured in characters (runes), not bytes.
type Field interface {
	Name() string
	ID() string
	Kind() Kind
	Value() string
	SetValue(value string)
	// Cursor returns the caret offset inside the value.
	Cursor() int
	// SetCursor collapses the selection to the given offset. Implementations
	// clamp it to the value length.
	SetCursor(pos int)
}

// Form is the document a Binding is attached to. It owns the fields and the
// error annotations that follow them.
//
// A form holds at most one annotation per field. Annotate on a field that
// already has one must update the text in place.
type Form interface {
	Fields() []Field
	Field(name string) (Field, bool)
	FieldByID(id string) (Field, bool)

	Annotation(name string) (string, bool)
	Annotate(name, message string)
	RemoveAnnotation(name string)
	RemoveAnnotations()
}

// PickerCloser is implemented by forms that host a date picker widget.
type PickerCloser interface {
	ClosePicker(name string)
}

// Input is the handle functional rules receive for the field being validated.
type Input struct {
	Field Field
	Form  Form
}

// Lookup finds a sibling field by id, falling back to its name.
func (in Input) Lookup(ref string) (Field, bool) {
	if in.Form == nil || ref == "" {
		return nil, false
	}
	if f, ok := in.Form.FieldByID(ref); ok {
		return f, true
	}
	return in.Form.Field(ref)
}

// Clear empties the field under validation.
func (in Input) Clear() {
	if in.Field != nil {
		in.Field.SetValue("")
	}
}
