package form

import (
	"github.com/kdsmith18542/fieldguard/observability"
)

// WithObserver sets the observer that receives validation events. Without it
// the global observability.GetObserver() is used at attach time.
func WithObserver(obs observability.Observer) Option {
	return func(v *Validator) {
		v.observer = obs
	}
}

// EnableObservability routes validation events to the global observer and,
// in addition, to the validator's logger. Pass it after WithLogger.
func EnableObservability() Option {
	return func(v *Validator) {
		v.observer = observability.Multi(
			observability.GetObserver(),
			observability.NewLogObserver(v.logger),
		)
	}
}
