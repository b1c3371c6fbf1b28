package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kdsmith18542/fieldguard/observability"
)

const signupConfig = `
name = "signup"

[rules]
name   = ["required", "validName"]
email  = ["required", "validEmail"]
mobile = ["validMobile"]

[messages.email]
validEmail = "Enter a valid email"
`

const signupPage = `<html><body>
<form id="signup">
  <input name="name" value="Ada">
  <input name="email" value="nope">
  <input name="mobile" value="">
</form>
</body></html>`

var testSettings = Settings{LogLevel: "ERROR", LogFormat: "CONSOLE", Debounce: 300 * time.Millisecond}

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestParseAssignments(t *testing.T) {
	values, err := parseAssignments([]string{"name=Ada", " email =a=b", "empty="})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"name": "Ada", "email": "a=b", "empty": ""}, values)

	_, err = parseAssignments([]string{"novalue"})
	assert.Error(t, err)
	_, err = parseAssignments([]string{"=x"})
	assert.Error(t, err)
}

func TestRunCheck_MemoryForm(t *testing.T) {
	cfgPath := writeTemp(t, "signup.toml", signupConfig)
	ctx := context.Background()

	var out bytes.Buffer
	ok, err := runCheck(ctx, checkOptions{
		ConfigPath: cfgPath,
		Set:        []string{"name=Ada Lovelace", "email=ada@example.org"},
	}, testSettings, zap.NewNop(), &out)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "form is valid\n", out.String())

	out.Reset()
	ok, err = runCheck(ctx, checkOptions{
		ConfigPath: cfgPath,
		Set:        []string{"email=bad", "mobile=123"},
	}, testSettings, zap.NewNop(), &out)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, "email: Enter a valid email\nmobile: Invalid value\nname: This field is required.\n", out.String())
}

func TestRunCheck_HTML(t *testing.T) {
	cfgPath := writeTemp(t, "signup.yaml", `
name: signup
rules:
  name: [required, validName]
  email: [required, validEmail]
`)
	htmlPath := writeTemp(t, "signup.html", signupPage)
	outPath := filepath.Join(t.TempDir(), "annotated.html")

	var out bytes.Buffer
	ok, err := runCheck(context.Background(), checkOptions{
		ConfigPath: cfgPath,
		HTMLPath:   htmlPath,
		FormRef:    "signup",
		OutPath:    outPath,
	}, testSettings, zap.NewNop(), &out)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, "email: Invalid value\n", out.String())

	rendered, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Contains(t, string(rendered), `<div class="error-message">Invalid value</div>`)

	_, err = runCheck(context.Background(), checkOptions{
		ConfigPath: cfgPath,
		HTMLPath:   htmlPath,
		Set:        []string{"missing=x"},
	}, testSettings, zap.NewNop(), &out)
	assert.ErrorContains(t, err, `field "missing" not found`)
}

func TestRunCheck_BadConfig(t *testing.T) {
	_, err := runCheck(context.Background(), checkOptions{
		ConfigPath: filepath.Join(t.TempDir(), "nope.toml"),
	}, testSettings, zap.NewNop(), &bytes.Buffer{})
	assert.Error(t, err)
}

func TestSanitizeCmd(t *testing.T) {
	var out bytes.Buffer
	cmd := NewRootCmd(testSettings)
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"sanitize", "validName", "Jo3hn", "--cursor", "3"})
	require.NoError(t, cmd.Execute())
	assert.Equal(t, "value:  \"John\"\ncursor: 2\n", out.String())

	cmd = NewRootCmd(testSettings)
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"sanitize", "noSuchRule", "x"})
	assert.Error(t, cmd.Execute())
}

func TestRulesCmd(t *testing.T) {
	var out bytes.Buffer
	cmd := NewRootCmd(testSettings)
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"rules"})
	require.NoError(t, cmd.Execute())

	listing := out.String()
	assert.True(t, strings.HasPrefix(listing, "Rules:\n  required\n"))
	assert.Contains(t, listing, "  greaterThan\n")
	assert.Contains(t, listing, "Sanitizers:\n")
}

func TestCheckCmd_InvalidForm(t *testing.T) {
	cfgPath := writeTemp(t, "signup.toml", signupConfig)
	var out bytes.Buffer
	cmd := NewRootCmd(testSettings)
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"check", "--config", cfgPath, "--set", "name=Ada"})
	err := cmd.Execute()
	assert.ErrorIs(t, err, errInvalidForm)
	assert.Contains(t, out.String(), "email: This field is required.")
}

func TestInitObservability_Prometheus(t *testing.T) {
	defer observability.SetObserver(nil)

	s := testSettings
	s.Metrics = "Prometheus"
	reg, err := s.InitObservability()
	require.NoError(t, err)
	require.NotNil(t, reg)
	_, ok := observability.GetObserver().(*observability.PrometheusObserver)
	assert.True(t, ok)

	s.Metrics = ""
	reg, err = s.InitObservability()
	require.NoError(t, err)
	assert.Nil(t, reg)

	s.Metrics = "statsd"
	_, err = s.InitObservability()
	assert.ErrorContains(t, err, "unknown FIELDGUARD_METRICS")
}

func TestCheckCmd_PrometheusMetrics(t *testing.T) {
	defer observability.SetObserver(nil)

	cfgPath := writeTemp(t, "signup.toml", signupConfig)
	s := testSettings
	s.Metrics = "prometheus"

	var out, errOut bytes.Buffer
	cmd := NewRootCmd(s)
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs([]string{"check", "--config", cfgPath, "--set", "name=Ada", "--set", "email=ada@example.org"})
	require.NoError(t, cmd.Execute())

	assert.Equal(t, "form is valid\n", out.String())
	metrics := errOut.String()
	assert.Contains(t, metrics, `fieldguard_form_submits_total{form="signup",valid="true"} 1`)
	assert.Contains(t, metrics, `fieldguard_form_field_validations_total{field="email",form="signup",valid="true"} 1`)
}
