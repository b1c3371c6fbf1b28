package form

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func check(t *testing.T, rule string, value string, in Input, param string) bool {
	t.Helper()
	r, ok := NewRegistry().Rule(rule)
	require.True(t, ok, "rule %s not registered", rule)
	return r.Check(value, in, param)
}

func TestParseToken(t *testing.T) {
	tests := []struct {
		raw  string
		want Token
	}{
		{"required", Token{Name: "required"}},
		{"greaterThan[startDate]", Token{Name: "greaterThan", Param: "startDate"}},
		{" lessThan[to] ", Token{Name: "lessThan", Param: "to"}},
		{"custom[]", Token{Name: "custom"}},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got := ParseToken(tt.raw)
			assert.Equal(t, tt.want, got)
		})
	}
	assert.Equal(t, "greaterThan[from]", Token{Name: "greaterThan", Param: "from"}.String())
}

func TestPatternRules(t *testing.T) {
	tests := []struct {
		rule  string
		value string
		want  bool
	}{
		{RuleAlphabeticWithSpace, "John Doe", true},
		{RuleAlphabeticWithSpace, "John3", false},
		{RuleValidEmail, "user.name+tag@example.co", true},
		{RuleValidEmail, "USER@EXAMPLE.COM", true},
		{RuleValidEmail, "user@example", false},
		{RuleValidEmail, "user example@x.com", false},
		{RuleAllowedCharacters, `Hello, world! (ok) [yes] {1} \ / | ~ ` + "`", true},
		{RuleAllowedCharacters, "héllo", false},
		{RuleValidName, "Mary Ann", true},
		{RuleValidName, "Mary ", true},
		{RuleValidName, "Mary  Ann", false},
		{RuleValidName, " Mary", false},
		{RuleValidName, "Mary\u00a0Ann", true},
		{RuleValidName, "Mary\u3000", true},
		{RuleAlphabeticWithSpace, "John\u2009Doe\tSmith", true},
		{RuleAllowedCharacters, "a\u00a0b\u202fc", true},
		{RuleValidMobile, "9876543210", true},
		{RuleValidMobile, "0876543210", false},
		{RuleValidMobile, "9999999999", false},
		{RuleValidMobile, "987654321", false},
		{RuleValidMobile, "98765432101", false},
	}
	for _, tt := range tests {
		t.Run(tt.rule+"/"+tt.value, func(t *testing.T) {
			assert.Equal(t, tt.want, check(t, tt.rule, tt.value, Input{}, ""))
		})
	}
}

func TestPattern_FullMatch(t *testing.T) {
	p, err := NewPattern(`\d{3}`)
	require.NoError(t, err)
	assert.True(t, p.Check("123", Input{}, ""))
	assert.False(t, p.Check("1234", Input{}, ""))
	assert.False(t, p.Check("a123", Input{}, ""))
	assert.Equal(t, `\d{3}`, p.String())

	_, err = NewPattern(`(`)
	assert.Error(t, err)
}

func TestValidAmount(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{"100.50", true},
		{"100", true},
		{"0.01", true},
		{".5", true},
		{"1,000.25", true},
		{"12.345", false},
		{"0", false},
		{"0.00", false},
		{"abc", false},
		{".", false},
		{"1234567890123456", false},
		{"999999999999999", true},
		{"999999999999999.99", false},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			assert.Equal(t, tt.want, check(t, RuleValidAmount, tt.value, Input{}, ""))
		})
	}
}

func dateForm(from, to string) (*MemoryForm, *MemoryField, *MemoryField) {
	fromField := NewInput("fromDate", from)
	toField := NewInput("toDate", to)
	return NewMemoryForm(fromField, toField), fromField, toField
}

func TestGreaterThan(t *testing.T) {
	t.Run("passes when on or after", func(t *testing.T) {
		f, _, to := dateForm("2024-01-10", "2024-01-10")
		assert.True(t, check(t, RuleGreaterThan, to.Value(), Input{Field: to, Form: f}, "fromDate"))
		assert.Equal(t, "2024-01-10", to.Value())
	})

	t.Run("fails and clears when before", func(t *testing.T) {
		f, _, to := dateForm("2024-01-10", "2024-01-09")
		assert.False(t, check(t, RuleGreaterThan, to.Value(), Input{Field: to, Form: f}, "fromDate"))
		assert.Empty(t, to.Value())
	})

	t.Run("passes when reference empty", func(t *testing.T) {
		f, _, to := dateForm("", "2024-01-09")
		assert.True(t, check(t, RuleGreaterThan, to.Value(), Input{Field: to, Form: f}, "fromDate"))
	})

	t.Run("passes when reference missing", func(t *testing.T) {
		f, _, to := dateForm("2024-01-10", "2024-01-09")
		assert.True(t, check(t, RuleGreaterThan, to.Value(), Input{Field: to, Form: f}, "nope"))
	})

	t.Run("accepts slash dates", func(t *testing.T) {
		f, _, to := dateForm("01/10/2024", "02/01/2024")
		assert.True(t, check(t, RuleGreaterThan, to.Value(), Input{Field: to, Form: f}, "fromDate"))
	})

	t.Run("fails on unparseable date", func(t *testing.T) {
		f, _, to := dateForm("2024-01-10", "not a date")
		assert.False(t, check(t, RuleGreaterThan, to.Value(), Input{Field: to, Form: f}, "fromDate"))
		assert.Empty(t, to.Value())
	})
}

func TestLessThan(t *testing.T) {
	t.Run("passes when on or before", func(t *testing.T) {
		f, from, _ := dateForm("2024-01-01", "2024-01-31")
		assert.True(t, check(t, RuleLessThan, from.Value(), Input{Field: from, Form: f}, "toDate"))
	})

	t.Run("fails and clears when from is after to", func(t *testing.T) {
		f, from, to := dateForm("2024-02-01", "2024-01-31")
		assert.False(t, check(t, RuleLessThan, from.Value(), Input{Field: from, Form: f}, "toDate"))
		assert.Empty(t, from.Value())
		assert.Equal(t, "2024-01-31", to.Value())
	})

	t.Run("passes when reference empty", func(t *testing.T) {
		f, from, _ := dateForm("2024-02-01", "  ")
		assert.True(t, check(t, RuleLessThan, from.Value(), Input{Field: from, Form: f}, "toDate"))
	})

	t.Run("reference by id", func(t *testing.T) {
		from := NewInput("from", "2024-03-01")
		to := NewInput("to", "2024-01-01").WithID("endDate")
		f := NewMemoryForm(from, to)
		assert.False(t, check(t, RuleLessThan, from.Value(), Input{Field: from, Form: f}, "endDate"))
	})
}

func TestRegistry_CloneIsIndependent(t *testing.T) {
	r := NewRegistry()
	c := r.Clone()
	r.Register("extra", RuleFunc(func(string, Input, string) bool { return true }), "msg")

	_, ok := c.Rule("extra")
	assert.False(t, ok)
	_, ok = r.Rule("extra")
	assert.True(t, ok)

	msg, ok := r.Message("extra")
	assert.True(t, ok)
	assert.Equal(t, "msg", msg)
}

func TestRegistry_Names(t *testing.T) {
	r := NewRegistry()
	names := r.RuleNames()
	assert.Contains(t, names, RuleValidAmount)
	assert.NotContains(t, names, RuleRequired)
	assert.True(t, strings.Compare(names[0], names[len(names)-1]) < 0)
	assert.Contains(t, r.SanitizerNames(), RuleValidName)
}
