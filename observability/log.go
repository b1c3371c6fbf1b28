package observability

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// LogObserver writes validation events to a zap logger. Rule failures and
// submits are logged at debug level, sanitizer rewrites too.
type LogObserver struct {
	logger *zap.Logger
}

// NewLogObserver returns an observer that logs to logger.
func NewLogObserver(logger *zap.Logger) *LogObserver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogObserver{logger: logger.Named("validation")}
}

func (o *LogObserver) OnFieldValidated(_ context.Context, formName, field string, valid bool, duration time.Duration) {
	o.logger.Debug("field validated",
		zap.String("form", formName),
		zap.String("field", field),
		zap.Bool("valid", valid),
		zap.Duration("duration", duration),
	)
}

func (o *LogObserver) OnRuleFailed(_ context.Context, formName, field, rule string) {
	o.logger.Debug("rule failed",
		zap.String("form", formName),
		zap.String("field", field),
		zap.String("rule", rule),
	)
}

func (o *LogObserver) OnFieldSanitized(_ context.Context, formName, field string, removed int) {
	o.logger.Debug("field sanitized",
		zap.String("form", formName),
		zap.String("field", field),
		zap.Int("removed", removed),
	)
}

func (o *LogObserver) OnSubmit(_ context.Context, formName string, invalidFields int, duration time.Duration) {
	o.logger.Info("form submitted",
		zap.String("form", formName),
		zap.Int("invalid_fields", invalidFields),
		zap.Duration("duration", duration),
	)
}
