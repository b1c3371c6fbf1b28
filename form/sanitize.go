package form

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// spaceClass is patternSpace in RE2 syntax.
const spaceClass = `\t\n\v\f\r \x{00A0}\x{1680}\x{2000}-\x{200A}\x{2028}\x{2029}\x{202F}\x{205F}\x{3000}\x{FEFF}`

// Pre-compiled regular expressions for the live sanitizers
var (
	nonLetterSpaceRegex   = regexp.MustCompile(`[^A-Za-z` + spaceClass + `]+`)
	repeatedSpaceRegex    = regexp.MustCompile(`[` + spaceClass + `]{2,}`)
	whitespaceRegex       = regexp.MustCompile(`[` + spaceClass + `]`)
	nonDigitRegex         = regexp.MustCompile(`\D`)
	disallowedSymbolRegex = regexp.MustCompile("[^A-Za-z0-9!@#$%^&*()_\\-=+{}\\[\\]:;\"'<>,.?/\\\\|~`" + spaceClass + "]+")
)

// builtinSanitizers are keyed by the rule name they accompany.
var builtinSanitizers = map[string]Sanitizer{
	RuleValidName: repositioning(func(value string) string {
		value = nonLetterSpaceRegex.ReplaceAllString(value, "")
		value = repeatedSpaceRegex.ReplaceAllString(value, " ")
		return truncate(value, MaxNameLength)
	}),
	RuleAlphabeticWithSpace: repositioning(func(value string) string {
		value = nonLetterSpaceRegex.ReplaceAllString(value, "")
		value = repeatedSpaceRegex.ReplaceAllString(value, " ")
		return truncate(value, MaxAlphabeticWithSpaceLen)
	}),
	RuleAllowedCharacters: repositioning(func(value string) string {
		value = disallowedSymbolRegex.ReplaceAllString(value, "")
		return truncate(value, MaxAllowedCharactersLength)
	}),
	RuleValidMobile: repositioning(func(value string) string {
		value = nonDigitRegex.ReplaceAllString(value, "")
		return truncate(value, MaxMobileLength)
	}),
	RuleValidAmount: repositioning(sanitizeAmount),
	RuleValidEmail:  sanitizeEmail,
}

// repositioning wraps a value transform into a Sanitizer that moves the
// cursor back by the number of characters removed.
func repositioning(transform func(string) string) Sanitizer {
	return func(value string, cursor int) (string, int) {
		sanitized := transform(value)
		shift := utf8.RuneCountInString(value) - utf8.RuneCountInString(sanitized)
		return sanitized, max(0, cursor-shift)
	}
}

// sanitizeEmail drops whitespace and truncates. The cursor is only clamped.
func sanitizeEmail(value string, cursor int) (string, int) {
	sanitized := truncate(whitespaceRegex.ReplaceAllString(value, ""), MaxEmailLength)
	return sanitized, min(cursor, utf8.RuneCountInString(sanitized))
}

// sanitizeAmount keeps digits and dots. If more than one dot is left, every
// dot is removed.
func sanitizeAmount(value string) string {
	value = nonAmountRegex.ReplaceAllString(value, "")
	if strings.Count(value, ".") > 1 {
		value = strings.ReplaceAll(value, ".", "")
	}
	return value
}

// truncate cuts s to at most n characters.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}
