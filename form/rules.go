package form

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/dlclark/regexp2"
)

// patternSpace is the body of a character class matching the whitespace
// browsers accept for \s, including no-break and other Unicode spaces.
// regexp2 reads \uXXXX escapes.
const patternSpace = `\t\n\v\f\r \u00A0\u1680\u2000-\u200A\u2028\u2029\u202F\u205F\u3000\uFEFF`

// Built-in pattern sources
const (
	alphabeticWithSpaceExpr = `^[A-Za-z` + patternSpace + `]+$`
	validEmailExpr          = `^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`
	allowedCharactersExpr   = "^[A-Za-z0-9!@#$%^&*()_\\-=+{}\\[\\]:;\"'<>,.?\\/\\\\|~`" + patternSpace + "]+$"
	validNameExpr           = `^[A-Za-z]+(?:[` + patternSpace + `][A-Za-z]+){0,29}[` + patternSpace + `]?$`
	validMobileExpr         = `^(?!0)(?!(\d)\1+$)\d{10}$`
)

var nonAmountRegex = regexp.MustCompile(`[^0-9.]`)

// Built-in rules fall back to ErrInvalidValue unless a field configures a
// message.
var builtinMessages = map[string]string{
	RuleRequired: ErrFieldRequired,
}

func builtinRules() map[string]Rule {
	return map[string]Rule{
		RuleAlphabeticWithSpace: MustPattern(alphabeticWithSpaceExpr),
		RuleValidEmail:          MustPattern(validEmailExpr, regexp2.IgnoreCase),
		RuleAllowedCharacters:   MustPattern(allowedCharactersExpr),
		RuleValidName:           MustPattern(validNameExpr),
		RuleValidMobile:         MustPattern(validMobileExpr),
		RuleGreaterThan:         RuleFunc(greaterThan),
		RuleLessThan:            RuleFunc(lessThan),
		RuleValidAmount:         RuleFunc(validAmount),
	}
}

// greaterThan passes when the value is on or after the date in the field
// referenced by param. A failing value is cleared.
func greaterThan(value string, in Input, param string) bool {
	return compareDates(value, in, param, func(this, other time.Time) bool {
		return !this.Before(other)
	})
}

// lessThan passes when the value is on or before the date in the field
// referenced by param. A failing value is cleared.
func lessThan(value string, in Input, param string) bool {
	return compareDates(value, in, param, func(this, other time.Time) bool {
		return !this.After(other)
	})
}

func compareDates(value string, in Input, param string, ok func(this, other time.Time) bool) bool {
	ref, found := in.Lookup(param)
	if !found {
		return true
	}
	other := strings.TrimSpace(ref.Value())
	if value == "" || other == "" {
		return true
	}
	thisDate, err1 := parseDate(value)
	otherDate, err2 := parseDate(other)
	// Unparseable dates never compare true.
	if err1 == nil && err2 == nil && ok(thisDate, otherDate) {
		return true
	}
	in.Clear()
	return false
}

func parseDate(s string) (time.Time, error) {
	return dateparse.ParseIn(s, time.UTC)
}

// validAmount accepts a positive decimal amount with at most 15 integer
// digits and 2 decimal digits.
func validAmount(value string, _ Input, _ string) bool {
	sanitized := nonAmountRegex.ReplaceAllString(value, "")

	parts := strings.Split(sanitized, ".")
	integerPart := parts[0]
	decimalPart := ""
	if len(parts) > 1 {
		decimalPart = parts[1]
	}

	if len(integerPart) > maxAmountIntegerDigits {
		return false
	}

	number := integerPart
	if decimalPart != "" {
		number += "." + decimalPart
	}
	amount, err := strconv.ParseFloat(number, 64)
	if err != nil || math.IsNaN(amount) {
		return false
	}
	if amount <= 0 {
		return false
	}
	if len(decimalPart) > maxAmountDecimalDigits {
		return false
	}
	return amount <= maxAmount
}
