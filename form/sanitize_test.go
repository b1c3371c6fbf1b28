package form

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sanitizer(t *testing.T, name string) Sanitizer {
	t.Helper()
	s, ok := NewRegistry().Sanitizer(name)
	require.True(t, ok, "sanitizer %s not registered", name)
	return s
}

func TestSanitizers(t *testing.T) {
	tests := []struct {
		name       string
		rule       string
		value      string
		cursor     int
		wantValue  string
		wantCursor int
	}{
		{"name strips digits", RuleValidName, "Jo3hn", 3, "John", 2},
		{"name collapses spaces", RuleValidName, "John   Doe", 10, "John Doe", 8},
		{"name cursor clamps at zero", RuleValidName, "123John", 1, "John", 0},
		{"name untouched", RuleValidName, "Mary Ann", 4, "Mary Ann", 4},
		{"name keeps no-break space", RuleValidName, "John\u00a0Doe", 8, "John\u00a0Doe", 8},
		{"name collapses unicode spaces", RuleValidName, "John\u00a0\u2003Doe", 9, "John Doe", 8},
		{"email strips no-break space", RuleValidEmail, "a\u00a0b@c.co", 8, "ab@c.co", 7},
		{"email strips whitespace", RuleValidEmail, "a b@c.co ", 9, "ab@c.co", 7},
		{"email keeps cursor", RuleValidEmail, "ab @c.co", 2, "ab@c.co", 2},
		{"mobile strips non digits", RuleValidMobile, "98-76 54", 8, "987654", 6},
		{"amount strips letters", RuleValidAmount, "12a.5", 5, "12.5", 4},
		{"amount drops all dots when repeated", RuleValidAmount, "1.2.3", 5, "123", 3},
		{"alphabetic strips symbols", RuleAlphabeticWithSpace, "Hi! there", 9, "Hi there", 8},
		{"allowed strips unicode", RuleAllowedCharacters, "café ok", 7, "caf ok", 6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			value, cursor := sanitizer(t, tt.rule)(tt.value, tt.cursor)
			assert.Equal(t, tt.wantValue, value)
			assert.Equal(t, tt.wantCursor, cursor)
		})
	}
}

func TestSanitizers_MaxLength(t *testing.T) {
	tests := []struct {
		rule  string
		char  string
		limit int
	}{
		{RuleValidEmail, "a", MaxEmailLength},
		{RuleAlphabeticWithSpace, "a", MaxAlphabeticWithSpaceLen},
		{RuleValidName, "a", MaxNameLength},
		{RuleAllowedCharacters, "a", MaxAllowedCharactersLength},
		{RuleValidMobile, "9", MaxMobileLength},
	}
	for _, tt := range tests {
		t.Run(tt.rule, func(t *testing.T) {
			long := strings.Repeat(tt.char, tt.limit+5)
			value, cursor := sanitizer(t, tt.rule)(long, len(long))
			assert.Len(t, value, tt.limit)
			assert.Equal(t, tt.limit, cursor)
		})
	}
}

func TestSanitizers_Idempotent(t *testing.T) {
	inputs := []string{
		"  John   99  Doe!! ",
		"a b\tc@d.e\n",
		"1.2.3abc",
		"..5",
		"+91 98765-43210",
		"héllo <b>wörld</b>  ",
		strings.Repeat("xy ", 400),
	}
	for _, name := range NewRegistry().SanitizerNames() {
		s := sanitizer(t, name)
		for _, in := range inputs {
			once, c1 := s(in, len([]rune(in)))
			twice, _ := s(once, c1)
			assert.Equal(t, once, twice, "%s not idempotent for %q", name, in)
		}
	}
}
