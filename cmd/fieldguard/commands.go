package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kdsmith18542/fieldguard/form"
)

func SanitizeCmd() *cobra.Command {
	var cursor int
	cmd := &cobra.Command{
		Use:   "sanitize RULE VALUE",
		Short: "Run a live sanitizer on a value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, ok := form.NewRegistry().Sanitizer(args[0])
			if !ok {
				return fmt.Errorf("no sanitizer registered for %q", args[0])
			}
			if cursor < 0 {
				cursor = len([]rune(args[1]))
			}
			value, pos := s(args[1], cursor)
			fmt.Fprintf(cmd.OutOrStdout(), "value:  %q\ncursor: %d\n", value, pos)
			return nil
		},
	}
	cmd.Flags().IntVar(&cursor, "cursor", -1, "Cursor offset before sanitizing (default: end of value)")
	return cmd
}

func RulesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rules",
		Short: "List registered rules and sanitizers",
		Run: func(cmd *cobra.Command, args []string) {
			reg := form.NewRegistry()
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Rules:")
			fmt.Fprintf(out, "  %s\n", form.RuleRequired)
			for _, name := range reg.RuleNames() {
				fmt.Fprintf(out, "  %s\n", name)
			}
			fmt.Fprintln(out, "Sanitizers:")
			for _, name := range reg.SanitizerNames() {
				fmt.Fprintf(out, "  %s\n", name)
			}
		},
	}
}

func WatchCmd(s Settings) *cobra.Command {
	var opts checkOptions
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-run check whenever the form definition changes",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := s.Logger()
			defer func() { _ = log.Sync() }()
			reg, err := s.InitObservability()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if reg != nil {
				serveMetrics(ctx, s.MetricsAddr, reg, log)
			}

			out := cmd.OutOrStdout()
			run := func() {
				ok, err := runCheck(ctx, opts, s, log, out)
				switch {
				case err != nil:
					log.Error("check failed", zap.Error(err))
				case !ok:
					log.Info("form is invalid")
				}
			}
			run()

			err = form.WatchConfig(ctx, opts.ConfigPath, log, func(*form.Config) {
				fmt.Fprintln(out, "--- config changed")
				run()
			})
			if err != nil {
				return err
			}
			<-ctx.Done()
			return nil
		},
	}
	addCheckFlags(cmd, &opts)
	return cmd
}

// serveMetrics exposes reg on addr under /metrics until ctx is done.
func serveMetrics(ctx context.Context, addr string, reg *prometheus.Registry, log *zap.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		log.Info("serving metrics", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server failed", zap.Error(err))
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
}
