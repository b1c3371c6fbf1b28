// Package main provides the fieldguard CLI for checking form definitions
// against HTML pages.
//
// Usage:
//
//	fieldguard <command> [options]
//
// Commands:
//
//	check     Submit a form definition against field values or an HTML page
//	sanitize  Run a live sanitizer on a value
//	rules     List registered rules and sanitizers
//	watch     Re-run check whenever the form definition changes
//
// Examples:
//
//	fieldguard check --config signup.toml --html signup.html --set email=a@b.co
//	fieldguard sanitize validName "John  99 Doe" --cursor 8
//
// Environment:
//
//	FIELDGUARD_LOG_LEVEL   DEBUG, INFO, WARN or ERROR (default INFO)
//	FIELDGUARD_LOG_FORMAT  CONSOLE or JSON (default CONSOLE)
//	FIELDGUARD_DEBOUNCE    debounce for untouched fields (default 300ms)
//	FIELDGUARD_TRACING     enable OpenTelemetry tracing and metrics
//	FIELDGUARD_METRICS     metrics backend: otel or prometheus (default none)
//	FIELDGUARD_METRICS_ADDR  address watch serves /metrics on (default :9464)
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	settings, err := loadSettings()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	rootCmd := NewRootCmd(settings)
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errInvalidForm) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

// NewRootCmd assembles the command tree.
func NewRootCmd(s Settings) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "fieldguard",
		Short:         "fieldguard - live form validation rules, checked from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(CheckCmd(s))
	rootCmd.AddCommand(SanitizeCmd())
	rootCmd.AddCommand(RulesCmd())
	rootCmd.AddCommand(WatchCmd(s))
	return rootCmd
}
