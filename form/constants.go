package form

import "time"

// Fallback validation messages
const (
	ErrFieldRequired = "This field is required."
	ErrInvalidValue  = "Invalid value"
)

// Built-in rule names
const (
	RuleRequired            = "required"
	RuleAlphabeticWithSpace = "alphabeticWithSpace"
	RuleValidEmail          = "validEmail"
	RuleAllowedCharacters   = "allowedCharacters"
	RuleValidName           = "validName"
	RuleValidMobile         = "validMobile"
	RuleGreaterThan         = "greaterThan"
	RuleLessThan            = "lessThan"
	RuleValidAmount         = "validAmount"
)

// Maximum lengths enforced by the built-in sanitizers, in characters.
const (
	MaxEmailLength             = 30
	MaxAlphabeticWithSpaceLen  = 50
	MaxNameLength              = 60
	MaxAllowedCharactersLength = 1000
	MaxMobileLength            = 10
)

// Amount limits
const (
	maxAmountIntegerDigits = 15
	maxAmountDecimalDigits = 2
	maxAmount              = 999999999999999
)

// DefaultDebounce is how long an untouched field waits after the last
// keystroke before it is validated.
const DefaultDebounce = 300 * time.Millisecond

// Field states
const (
	StateUntouched = "untouched"
	StateTouched   = "touched"
)

const (
	eventTouch = "touch"
	eventReset = "reset"
)
