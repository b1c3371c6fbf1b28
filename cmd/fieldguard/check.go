package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kdsmith18542/fieldguard/form"
	"github.com/kdsmith18542/fieldguard/htmlform"
)

var errInvalidForm = errors.New("form is invalid")

// checkOptions are the inputs of a single check run.
type checkOptions struct {
	ConfigPath string
	HTMLPath   string
	FormRef    string
	Set        []string
	OutPath    string
}

func CheckCmd(s Settings) *cobra.Command {
	var opts checkOptions
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Submit a form definition against field values or an HTML page",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := s.Logger()
			defer func() { _ = log.Sync() }()
			reg, err := s.InitObservability()
			if err != nil {
				return err
			}

			ok, err := runCheck(cmd.Context(), opts, s, log, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			if reg != nil {
				if err := writeMetrics(reg, cmd.ErrOrStderr()); err != nil {
					return err
				}
			}
			if !ok {
				return errInvalidForm
			}
			return nil
		},
	}
	addCheckFlags(cmd, &opts)
	return cmd
}

func addCheckFlags(cmd *cobra.Command, opts *checkOptions) {
	cmd.Flags().StringVar(&opts.ConfigPath, "config", "", "Form definition (.toml, .yaml, .yml or .json)")
	cmd.Flags().StringVar(&opts.HTMLPath, "html", "", "HTML page containing the form")
	cmd.Flags().StringVar(&opts.FormRef, "form", "", "Form id or name inside the page (default: first form)")
	cmd.Flags().StringArrayVar(&opts.Set, "set", nil, "Field value as name=value (repeatable)")
	cmd.Flags().StringVar(&opts.OutPath, "out", "", "Write the annotated HTML here (- for stdout)")
	_ = cmd.MarkFlagRequired("config")
}

// runCheck loads the definition, fills the form and submits it. It reports
// whether the form was valid.
func runCheck(ctx context.Context, opts checkOptions, s Settings, log *zap.Logger, out io.Writer) (bool, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := form.LoadConfig(opts.ConfigPath)
	if err != nil {
		return false, err
	}
	values, err := parseAssignments(opts.Set)
	if err != nil {
		return false, err
	}

	var (
		target form.Form
		doc    *htmlform.Document
	)
	if opts.HTMLPath != "" {
		doc, target, err = loadHTMLForm(opts.HTMLPath, opts.FormRef)
		if err != nil {
			return false, err
		}
		for name, value := range values {
			f, ok := target.Field(name)
			if !ok {
				return false, fmt.Errorf("field %q not found in %s", name, opts.HTMLPath)
			}
			f.SetValue(value)
		}
	} else {
		target = memoryFormFor(cfg, values)
	}

	v := form.New(
		form.WithLogger(log),
		form.WithDebounce(s.Debounce),
		form.EnableObservability(),
	)
	cfg.Success = func(context.Context, map[string]string) {
		fmt.Fprintln(out, "form is valid")
	}
	b := v.Attach(target, *cfg)
	defer b.Close()

	ok := b.Submit(ctx)
	if !ok {
		for _, f := range target.Fields() {
			if msg, has := target.Annotation(f.Name()); has {
				fmt.Fprintf(out, "%s: %s\n", f.Name(), msg)
			}
		}
	}

	if doc != nil && opts.OutPath != "" {
		if err := writeHTML(doc, opts.OutPath, out); err != nil {
			return ok, err
		}
	}
	return ok, nil
}

func loadHTMLForm(path, ref string) (*htmlform.Document, form.Form, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open html: %w", err)
	}
	defer f.Close()

	doc, err := htmlform.Parse(f)
	if err != nil {
		return nil, nil, err
	}
	target, err := doc.Form(ref)
	if err != nil {
		return nil, nil, err
	}
	return doc, target, nil
}

// memoryFormFor builds a form holding every configured field plus any
// extra assigned ones, in name order.
func memoryFormFor(cfg *form.Config, values map[string]string) *form.MemoryForm {
	names := make(map[string]bool)
	for name := range cfg.Rules {
		names[name] = true
	}
	for name := range values {
		names[name] = true
	}
	sorted := make([]string, 0, len(names))
	for name := range names {
		sorted = append(sorted, name)
	}
	sort.Strings(sorted)

	m := form.NewMemoryForm()
	for _, name := range sorted {
		m.Add(form.NewInput(name, values[name]))
	}
	return m
}

func parseAssignments(pairs []string) (map[string]string, error) {
	values := make(map[string]string, len(pairs))
	for _, p := range pairs {
		name, value, ok := strings.Cut(p, "=")
		if !ok || strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("invalid --set %q, want name=value", p)
		}
		values[strings.TrimSpace(name)] = value
	}
	return values, nil
}

func writeHTML(doc *htmlform.Document, path string, stdout io.Writer) error {
	if path == "-" {
		return doc.Render(stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := doc.Render(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("render html: %w", err)
	}
	return f.Close()
}

// writeMetrics dumps the gathered collectors in the Prometheus text format.
func writeMetrics(g prometheus.Gatherer, w io.Writer) error {
	families, err := g.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return fmt.Errorf("encode metrics: %w", err)
		}
	}
	return nil
}
