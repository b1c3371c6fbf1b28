// Package form provides live validation and sanitization for HTML form fields.
//
// Features:
//   - Rule tokens per field (required, validEmail, greaterThan[startDate], ...)
//   - JS-compatible pattern rules and functional rules with parameters
//   - Live sanitization that strips disallowed characters and keeps the cursor in place
//   - Debounced validation for untouched fields, immediate validation once touched
//   - One inline error annotation per field
//   - Observability hooks for tracing and metrics
//
// Example:
//
//	v := form.New()
//	v.RegisterFunc("notAdmin", func(value string, in form.Input, _ string) bool {
//	    return value != "admin"
//	}, "This username is reserved")
//
//	b := v.Attach(doc, form.Config{
//	    Rules: map[string][]string{
//	        "name":     {"required", "validName"},
//	        "username": {"required", "notAdmin"},
//	        "toDate":   {"greaterThan[fromDate]"},
//	    },
//	    Messages: map[string]map[string]string{
//	        "name": {"required": "Please enter your name"},
//	    },
//	    Success: func(ctx context.Context, values map[string]string) {
//	        // submit values
//	    },
//	})
//
//	b.Input(ctx, "name")  // on every keystroke
//	b.Blur(ctx, "name")   // when the field loses focus
//	b.Submit(ctx)         // on form submission
package form

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/dlclark/regexp2"
)

// Rule checks a trimmed, non-empty field value.
type Rule interface {
	Check(value string, in Input, param string) bool
}

// RuleFunc is a functional rule. param is the text inside the token's
// brackets, e.g. "startDate" for greaterThan[startDate].
//
// Example:
//
//	v.RegisterFunc("notFoo", func(value string, in form.Input, param string) bool {
//	    return value != "foo"
//	}, "Value cannot be 'foo'")
type RuleFunc func(value string, in Input, param string) bool

// Check implements Rule.
func (f RuleFunc) Check(value string, in Input, param string) bool {
	return f(value, in, param)
}

// Pattern is a rule satisfied when the whole value matches a regular
// expression. Expressions use ECMAScript syntax, so lookaheads and
// backreferences behave as they do in the browser.
type Pattern struct {
	expr string
	re   *regexp2.Regexp
}

// NewPattern compiles expr as a full-match pattern. opts may add
// regexp2.IgnoreCase or regexp2.Multiline.
func NewPattern(expr string, opts ...regexp2.RegexOptions) (*Pattern, error) {
	opt := regexp2.RegexOptions(regexp2.ECMAScript)
	for _, o := range opts {
		opt |= o
	}
	re, err := regexp2.Compile(`^(?:`+expr+`)$`, opt)
	if err != nil {
		return nil, fmt.Errorf("compile pattern %q: %w", expr, err)
	}
	return &Pattern{expr: expr, re: re}, nil
}

// MustPattern is like NewPattern but panics if expr does not compile.
func MustPattern(expr string, opts ...regexp2.RegexOptions) *Pattern {
	p, err := NewPattern(expr, opts...)
	if err != nil {
		panic(err)
	}
	return p
}

// String returns the source expression.
func (p *Pattern) String() string {
	return p.expr
}

// Check implements Rule. A match error (timeout) counts as a failure.
func (p *Pattern) Check(value string, _ Input, _ string) bool {
	ok, err := p.re.MatchString(value)
	return err == nil && ok
}

// Sanitizer rewrites a field value as the user types. It receives the raw
// value and the cursor offset and returns the new value and cursor offset.
type Sanitizer func(value string, cursor int) (string, int)

// Token is one parsed entry of a field's rule list.
type Token struct {
	Name  string
	Param string
}

// ParseToken splits "name[param]" into its parts. A bare name has no param.
func ParseToken(raw string) Token {
	raw = strings.TrimSpace(raw)
	name, rest, found := strings.Cut(raw, "[")
	if !found {
		return Token{Name: raw}
	}
	return Token{Name: name, Param: strings.TrimSuffix(rest, "]")}
}

func (t Token) String() string {
	if t.Param == "" {
		return t.Name
	}
	return t.Name + "[" + t.Param + "]"
}

// Registry holds named rules, sanitizers and their default messages.
type Registry struct {
	mu         sync.RWMutex
	rules      map[string]Rule
	sanitizers map[string]Sanitizer
	messages   map[string]string
}

// NewRegistry returns a registry populated with the built-in rules and
// sanitizers.
func NewRegistry() *Registry {
	r := &Registry{
		rules:      make(map[string]Rule),
		sanitizers: make(map[string]Sanitizer),
		messages:   make(map[string]string),
	}
	for name, rule := range builtinRules() {
		r.rules[name] = rule
	}
	for name, s := range builtinSanitizers {
		r.sanitizers[name] = s
	}
	for name, msg := range builtinMessages {
		r.messages[name] = msg
	}
	return r
}

// Register adds or replaces a rule and its default message. An empty message
// keeps any existing default.
func (r *Registry) Register(name string, rule Rule, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rules[name] = rule
	if message != "" {
		r.messages[name] = message
	}
}

// RegisterSanitizer adds or replaces the live sanitizer for a rule name.
func (r *Registry) RegisterSanitizer(name string, s Sanitizer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sanitizers[name] = s
}

// Rule returns the rule registered under name.
func (r *Registry) Rule(name string) (Rule, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rule, ok := r.rules[name]
	return rule, ok
}

// Sanitizer returns the sanitizer registered under name.
func (r *Registry) Sanitizer(name string) (Sanitizer, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sanitizers[name]
	return s, ok
}

// Message returns the default message for a rule.
func (r *Registry) Message(name string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	msg, ok := r.messages[name]
	return msg, ok
}

// RuleNames returns the registered rule names in sorted order.
func (r *Registry) RuleNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedKeys(r.rules)
}

// SanitizerNames returns the registered sanitizer names in sorted order.
func (r *Registry) SanitizerNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedKeys(r.sanitizers)
}

// Clone returns an independent copy of the registry.
func (r *Registry) Clone() *Registry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c := &Registry{
		rules:      make(map[string]Rule, len(r.rules)),
		sanitizers: make(map[string]Sanitizer, len(r.sanitizers)),
		messages:   make(map[string]string, len(r.messages)),
	}
	for k, v := range r.rules {
		c.rules[k] = v
	}
	for k, v := range r.sanitizers {
		c.sanitizers[k] = v
	}
	for k, v := range r.messages {
		c.messages[k] = v
	}
	return c
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
