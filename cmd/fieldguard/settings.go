package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kdsmith18542/fieldguard/logger"
	"github.com/kdsmith18542/fieldguard/observability"
)

// Settings holds process configuration read from the environment.
type Settings struct {
	LogLevel    string        `env:"FIELDGUARD_LOG_LEVEL" envDefault:"INFO"`
	LogFormat   string        `env:"FIELDGUARD_LOG_FORMAT" envDefault:"CONSOLE"`
	Debounce    time.Duration `env:"FIELDGUARD_DEBOUNCE" envDefault:"300ms"`
	Tracing     bool          `env:"FIELDGUARD_TRACING" envDefault:"false"`
	Metrics     string        `env:"FIELDGUARD_METRICS"` // "", "otel" or "prometheus"
	MetricsAddr string        `env:"FIELDGUARD_METRICS_ADDR" envDefault:":9464"`
}

const (
	metricsOTel       = "otel"
	metricsPrometheus = "prometheus"
)

// loadSettings reads an optional .env file and then the environment.
func loadSettings() (Settings, error) {
	// The .env file is optional.
	_ = godotenv.Load()

	var s Settings
	if err := env.Parse(&s); err != nil {
		return Settings{}, fmt.Errorf("parse environment: %w", err)
	}
	return s, nil
}

// Logger builds the process logger.
func (s Settings) Logger() *zap.Logger {
	return logger.New(s.LogLevel, logger.ParseFormat(s.LogFormat))
}

// InitObservability installs the global observer. OpenTelemetry is enabled
// by tracing or the otel metrics backend. With the prometheus backend the
// returned registry holds the validation collectors; otherwise it is nil.
func (s Settings) InitObservability() (*prometheus.Registry, error) {
	backend := strings.ToLower(strings.TrimSpace(s.Metrics))
	switch backend {
	case "", metricsOTel, metricsPrometheus:
	default:
		return nil, fmt.Errorf("unknown FIELDGUARD_METRICS %q, want %s or %s", s.Metrics, metricsOTel, metricsPrometheus)
	}

	err := observability.Init(observability.Config{
		ServiceName:    "fieldguard",
		ServiceVersion: version,
		Environment:    "cli",
		EnableTracing:  s.Tracing,
		EnableMetrics:  s.Tracing || backend == metricsOTel,
	})
	if err != nil {
		return nil, err
	}
	if backend != metricsPrometheus {
		return nil, nil
	}

	reg := prometheus.NewRegistry()
	prom := observability.NewPrometheusObserver(reg)
	if s.Tracing {
		observability.SetObserver(observability.Multi(observability.GetObserver(), prom))
	} else {
		observability.SetObserver(prom)
	}
	return reg, nil
}

const version = "0.1.0"
