// Package htmlform adapts a parsed HTML document to form.Form so a Binding
// can validate it and write error annotations back into the markup.
//
// Fields are <input> and <select> elements with a name attribute. An error
// annotation is a <div class="error-message"> placed directly after its
// field.
//
// Example:
//
//	doc, err := htmlform.Parse(r)
//	if err != nil {
//	    return err
//	}
//	f, err := doc.Form("signup")
//	if err != nil {
//	    return err
//	}
//	b := form.New().Attach(f, cfg)
//	b.Submit(ctx)
//	_ = doc.Render(w)
package htmlform

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/kdsmith18542/fieldguard/form"
)

// ErrorClass is the class attribute of annotation elements.
const ErrorClass = "error-message"

// ErrFormNotFound is returned when no <form> matches the requested reference.
var ErrFormNotFound = errors.New("htmlform: form not found")

// Non-data input types
var skippedInputTypes = map[string]bool{
	"submit": true,
	"button": true,
	"reset":  true,
	"image":  true,
}

// Document is a parsed HTML page.
type Document struct {
	mu   sync.Mutex
	root *html.Node
}

// Parse reads an HTML document.
func Parse(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return &Document{root: root}, nil
}

// Form returns the <form> whose id or name equals ref. An empty ref selects
// the first form in the document.
func (d *Document) Form(ref string) (*Form, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	var found *html.Node
	walk(d.root, func(n *html.Node) bool {
		if found != nil {
			return false
		}
		if n.Type == html.ElementNode && n.DataAtom == atom.Form {
			if ref == "" || attr(n, "id") == ref || attr(n, "name") == ref {
				found = n
				return false
			}
		}
		return true
	})
	if found == nil {
		if ref == "" {
			return nil, ErrFormNotFound
		}
		return nil, fmt.Errorf("%w: %q", ErrFormNotFound, ref)
	}
	return &Form{doc: d, node: found, cursors: make(map[*html.Node]int)}, nil
}

// Render writes the document, including any annotations, to w.
func (d *Document) Render(w io.Writer) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return html.Render(w, d.root)
}

// Form is one <form> element of a Document. It implements form.Form.
type Form struct {
	doc     *Document
	node    *html.Node
	cursors map[*html.Node]int
}

var _ form.Form = (*Form)(nil)

// Fields returns the form's inputs and selects in document order.
func (f *Form) Fields() []form.Field {
	f.doc.mu.Lock()
	defer f.doc.mu.Unlock()

	var fields []form.Field
	for _, n := range f.controls() {
		fields = append(fields, &Field{form: f, node: n})
	}
	return fields
}

func (f *Form) Field(name string) (form.Field, bool) {
	f.doc.mu.Lock()
	defer f.doc.mu.Unlock()
	if n := f.control(func(n *html.Node) bool { return attr(n, "name") == name }); n != nil {
		return &Field{form: f, node: n}, true
	}
	return nil, false
}

func (f *Form) FieldByID(id string) (form.Field, bool) {
	f.doc.mu.Lock()
	defer f.doc.mu.Unlock()
	if id == "" {
		return nil, false
	}
	if n := f.control(func(n *html.Node) bool { return attr(n, "id") == id }); n != nil {
		return &Field{form: f, node: n}, true
	}
	return nil, false
}

func (f *Form) Annotation(name string) (string, bool) {
	f.doc.mu.Lock()
	defer f.doc.mu.Unlock()
	if ann := f.annotationFor(name); ann != nil {
		return textContent(ann), true
	}
	return "", false
}

// Annotate sets the error text after the named field, reusing an existing
// annotation element.
func (f *Form) Annotate(name, message string) {
	f.doc.mu.Lock()
	defer f.doc.mu.Unlock()

	field := f.control(func(n *html.Node) bool { return attr(n, "name") == name })
	if field == nil {
		return
	}
	if ann := nextElement(field); ann != nil && isAnnotation(ann) {
		for c := ann.FirstChild; c != nil; c = ann.FirstChild {
			ann.RemoveChild(c)
		}
		ann.AppendChild(&html.Node{Type: html.TextNode, Data: message})
		return
	}

	ann := &html.Node{
		Type:     html.ElementNode,
		Data:     "div",
		DataAtom: atom.Div,
		Attr:     []html.Attribute{{Key: "class", Val: ErrorClass}},
	}
	ann.AppendChild(&html.Node{Type: html.TextNode, Data: message})
	field.Parent.InsertBefore(ann, field.NextSibling)
}

func (f *Form) RemoveAnnotation(name string) {
	f.doc.mu.Lock()
	defer f.doc.mu.Unlock()
	if ann := f.annotationFor(name); ann != nil {
		ann.Parent.RemoveChild(ann)
	}
}

// RemoveAnnotations removes every error-message element inside the form.
func (f *Form) RemoveAnnotations() {
	f.doc.mu.Lock()
	defer f.doc.mu.Unlock()

	var found []*html.Node
	walk(f.node, func(n *html.Node) bool {
		if isAnnotation(n) {
			found = append(found, n)
			return false
		}
		return true
	})
	for _, n := range found {
		n.Parent.RemoveChild(n)
	}
}

func (f *Form) annotationFor(name string) *html.Node {
	field := f.control(func(n *html.Node) bool { return attr(n, "name") == name })
	if field == nil {
		return nil
	}
	if ann := nextElement(field); ann != nil && isAnnotation(ann) {
		return ann
	}
	return nil
}

func (f *Form) controls() []*html.Node {
	var out []*html.Node
	walk(f.node, func(n *html.Node) bool {
		if isControl(n) {
			out = append(out, n)
			return false
		}
		return true
	})
	return out
}

func (f *Form) control(match func(*html.Node) bool) *html.Node {
	for _, n := range f.controls() {
		if match(n) {
			return n
		}
	}
	return nil
}

// Field is an <input> or <select> element. It implements form.Field.
type Field struct {
	form *Form
	node *html.Node
}

func (fd *Field) Name() string {
	fd.form.doc.mu.Lock()
	defer fd.form.doc.mu.Unlock()
	return attr(fd.node, "name")
}

func (fd *Field) ID() string {
	fd.form.doc.mu.Lock()
	defer fd.form.doc.mu.Unlock()
	return attr(fd.node, "id")
}

func (fd *Field) Kind() form.Kind {
	if fd.node.DataAtom == atom.Select {
		return form.KindSelect
	}
	return form.KindInput
}

func (fd *Field) Value() string {
	fd.form.doc.mu.Lock()
	defer fd.form.doc.mu.Unlock()
	return fd.value()
}

func (fd *Field) value() string {
	if fd.node.DataAtom == atom.Select {
		return selectValue(fd.node)
	}
	switch strings.ToLower(attr(fd.node, "type")) {
	case "checkbox", "radio":
		if !hasAttr(fd.node, "checked") {
			return ""
		}
	}
	return attr(fd.node, "value")
}

func (fd *Field) SetValue(value string) {
	fd.form.doc.mu.Lock()
	defer fd.form.doc.mu.Unlock()

	if fd.node.DataAtom == atom.Select {
		for _, opt := range options(fd.node) {
			removeAttr(opt, "selected")
			if optionValue(opt) == value {
				setAttr(opt, "selected", "")
			}
		}
	} else {
		setAttr(fd.node, "value", value)
	}
	fd.form.cursors[fd.node] = utf8.RuneCountInString(value)
}

// Cursor returns the last cursor position set on this field, or the end of
// the value.
func (fd *Field) Cursor() int {
	fd.form.doc.mu.Lock()
	defer fd.form.doc.mu.Unlock()
	if pos, ok := fd.form.cursors[fd.node]; ok {
		return min(pos, utf8.RuneCountInString(fd.value()))
	}
	return utf8.RuneCountInString(fd.value())
}

func (fd *Field) SetCursor(pos int) {
	fd.form.doc.mu.Lock()
	defer fd.form.doc.mu.Unlock()
	fd.form.cursors[fd.node] = max(0, min(pos, utf8.RuneCountInString(fd.value())))
}

func walk(n *html.Node, visit func(*html.Node) bool) {
	if !visit(n) {
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, visit)
	}
}

func isControl(n *html.Node) bool {
	if n.Type != html.ElementNode || attr(n, "name") == "" {
		return false
	}
	switch n.DataAtom {
	case atom.Select:
		return true
	case atom.Input:
		return !skippedInputTypes[strings.ToLower(attr(n, "type"))]
	}
	return false
}

func isAnnotation(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == ErrorClass {
			return true
		}
	}
	return false
}

// nextElement returns the next sibling element, skipping whitespace text.
func nextElement(n *html.Node) *html.Node {
	for s := n.NextSibling; s != nil; s = s.NextSibling {
		switch s.Type {
		case html.ElementNode:
			return s
		case html.TextNode:
			if strings.TrimSpace(s.Data) != "" {
				return nil
			}
		case html.CommentNode:
		default:
			return nil
		}
	}
	return nil
}

func textContent(n *html.Node) string {
	var b strings.Builder
	walk(n, func(c *html.Node) bool {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
		return true
	})
	return b.String()
}

func options(sel *html.Node) []*html.Node {
	var out []*html.Node
	walk(sel, func(n *html.Node) bool {
		if n.Type == html.ElementNode && n.DataAtom == atom.Option {
			out = append(out, n)
			return false
		}
		return true
	})
	return out
}

func optionValue(opt *html.Node) string {
	if hasAttr(opt, "value") {
		return attr(opt, "value")
	}
	return strings.TrimSpace(textContent(opt))
}

// selectValue mirrors browser behavior: the selected option, else the first.
func selectValue(sel *html.Node) string {
	opts := options(sel)
	for _, opt := range opts {
		if hasAttr(opt, "selected") {
			return optionValue(opt)
		}
	}
	if len(opts) > 0 {
		return optionValue(opts[0])
	}
	return ""
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasAttr(n *html.Node, key string) bool {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return true
		}
	}
	return false
}

func setAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

func removeAttr(n *html.Node, key string) {
	out := n.Attr[:0]
	for _, a := range n.Attr {
		if a.Namespace != "" || a.Key != key {
			out = append(out, a)
		}
	}
	n.Attr = out
}
