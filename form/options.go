package form

import (
	"time"

	"go.uber.org/zap"
)

// Option configures a Validator.
type Option func(*Validator)

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *zap.Logger) Option {
	return func(v *Validator) {
		if logger != nil {
			v.logger = logger
		}
	}
}

// WithScheduler replaces the timer source used for debouncing.
func WithScheduler(s Scheduler) Option {
	return func(v *Validator) {
		if s != nil {
			v.scheduler = s
		}
	}
}

// WithDebounce sets the quiet period before an untouched field is validated.
func WithDebounce(d time.Duration) Option {
	return func(v *Validator) {
		if d >= 0 {
			v.debounce = d
		}
	}
}

// WithRegistry starts the validator from an existing registry instead of
// the built-in one. The registry is copied.
func WithRegistry(r *Registry) Option {
	return func(v *Validator) {
		if r != nil {
			v.registry = r.Clone()
		}
	}
}
