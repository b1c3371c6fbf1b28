package form

import (
	"sync"
	"unicode/utf8"
)

// MemoryForm is a Form held entirely in memory. It backs the CLI when no
// HTML page is given and is convenient in tests.
type MemoryForm struct {
	mu          sync.Mutex
	fields      []*MemoryField
	annotations map[string]string
	pickers     map[string]int
}

// NewMemoryForm returns a form with the given fields in document order.
func NewMemoryForm(fields ...*MemoryField) *MemoryForm {
	return &MemoryForm{
		fields:      fields,
		annotations: make(map[string]string),
		pickers:     make(map[string]int),
	}
}

// Add appends a field.
func (m *MemoryForm) Add(f *MemoryField) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fields = append(m.fields, f)
}

func (m *MemoryForm) Fields() []Field {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Field, len(m.fields))
	for i, f := range m.fields {
		out[i] = f
	}
	return out
}

func (m *MemoryForm) Field(name string) (Field, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, f := range m.fields {
		if f.name == name {
			return f, true
		}
	}
	return nil, false
}

func (m *MemoryForm) FieldByID(id string) (Field, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, f := range m.fields {
		if f.id != "" && f.id == id {
			return f, true
		}
	}
	return nil, false
}

func (m *MemoryForm) Annotation(name string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg, ok := m.annotations[name]
	return msg, ok
}

func (m *MemoryForm) Annotate(name, message string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.annotations[name] = message
}

func (m *MemoryForm) RemoveAnnotation(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.annotations, name)
}

func (m *MemoryForm) RemoveAnnotations() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.annotations = make(map[string]string)
}

// Annotations returns a copy of the current annotations keyed by field name.
func (m *MemoryForm) Annotations() map[string]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]string, len(m.annotations))
	for k, v := range m.annotations {
		out[k] = v
	}
	return out
}

// ClosePicker implements PickerCloser by counting closes per field.
func (m *MemoryForm) ClosePicker(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pickers[name]++
}

// PickerCloses returns how many times the picker for name was closed.
func (m *MemoryForm) PickerCloses(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pickers[name]
}

// MemoryField is a Field held in memory.
type MemoryField struct {
	mu     sync.Mutex
	name   string
	id     string
	kind   Kind
	value  string
	cursor int
}

// NewInput returns an input field whose id equals its name and whose cursor
// sits at the end of value.
func NewInput(name, value string) *MemoryField {
	return &MemoryField{name: name, id: name, kind: KindInput, value: value, cursor: utf8.RuneCountInString(value)}
}

// NewSelect returns a select field with the given selected value.
func NewSelect(name, value string) *MemoryField {
	return &MemoryField{name: name, id: name, kind: KindSelect, value: value}
}

// WithID sets the element id and returns the field.
func (f *MemoryField) WithID(id string) *MemoryField {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.id = id
	return f
}

func (f *MemoryField) Name() string { return f.name }

func (f *MemoryField) ID() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.id
}

func (f *MemoryField) Kind() Kind { return f.kind }

func (f *MemoryField) Value() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.value
}

// SetValue replaces the value. Like a browser, it moves the cursor to the end.
func (f *MemoryField) SetValue(value string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.value = value
	f.cursor = utf8.RuneCountInString(value)
}

func (f *MemoryField) Cursor() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cursor
}

func (f *MemoryField) SetCursor(pos int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cursor = clampCursor(pos, f.value)
}

// Type simulates typing s at the cursor.
func (f *MemoryField) Type(s string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	runes := []rune(f.value)
	pos := clampCursor(f.cursor, f.value)
	inserted := []rune(s)
	out := make([]rune, 0, len(runes)+len(inserted))
	out = append(out, runes[:pos]...)
	out = append(out, inserted...)
	out = append(out, runes[pos:]...)
	f.value = string(out)
	f.cursor = pos + len(inserted)
}

func clampCursor(pos int, value string) int {
	return max(0, min(pos, utf8.RuneCountInString(value)))
}
