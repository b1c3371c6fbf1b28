package observability

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	namespace = "fieldguard"
	subsystem = "form"
)

// PrometheusObserver exports validation events as Prometheus metrics.
type PrometheusObserver struct {
	validations    *prometheus.CounterVec
	ruleFailures   *prometheus.CounterVec
	sanitizedChars *prometheus.CounterVec
	submits        *prometheus.CounterVec
	submitDuration *prometheus.HistogramVec
}

// NewPrometheusObserver creates the collectors and registers them with reg.
func NewPrometheusObserver(reg prometheus.Registerer) *PrometheusObserver {
	o := &PrometheusObserver{
		validations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "field_validations_total",
				Help:      "Total number of field validations by outcome",
			},
			[]string{"form", "field", "valid"},
		),
		ruleFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "rule_failures_total",
				Help:      "Total number of failed rule evaluations",
			},
			[]string{"form", "rule"},
		),
		sanitizedChars: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "sanitized_chars_total",
				Help:      "Total number of characters removed by live sanitizers",
			},
			[]string{"form", "field"},
		),
		submits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "submits_total",
				Help:      "Total number of form submissions by outcome",
			},
			[]string{"form", "valid"},
		),
		submitDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "submit_duration_seconds",
				Help:      "Duration of submit validation in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
			},
			[]string{"form"},
		),
	}
	reg.MustRegister(o.validations, o.ruleFailures, o.sanitizedChars, o.submits, o.submitDuration)
	return o
}

func (o *PrometheusObserver) OnFieldValidated(_ context.Context, formName, field string, valid bool, _ time.Duration) {
	o.validations.WithLabelValues(formName, field, strconv.FormatBool(valid)).Inc()
}

func (o *PrometheusObserver) OnRuleFailed(_ context.Context, formName, _, rule string) {
	o.ruleFailures.WithLabelValues(formName, rule).Inc()
}

func (o *PrometheusObserver) OnFieldSanitized(_ context.Context, formName, field string, removed int) {
	o.sanitizedChars.WithLabelValues(formName, field).Add(float64(removed))
}

func (o *PrometheusObserver) OnSubmit(_ context.Context, formName string, invalidFields int, duration time.Duration) {
	o.submits.WithLabelValues(formName, strconv.FormatBool(invalidFields == 0)).Inc()
	o.submitDuration.WithLabelValues(formName).Observe(duration.Seconds())
}
