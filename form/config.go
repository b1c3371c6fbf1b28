package form

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// ErrUnsupportedFormat is returned for config files whose extension is not
// .toml, .yaml, .yml or .json.
var ErrUnsupportedFormat = errors.New("form: unsupported config format")

// SuccessFunc is called once a submitted form passes validation. values maps
// every field name to its trimmed value.
type SuccessFunc func(ctx context.Context, values map[string]string)

// Config describes one form attachment.
//
// Example (TOML):
//
//	name = "signup"
//
//	[rules]
//	name     = ["required", "validName"]
//	toDate   = ["required", "greaterThan[fromDate]"]
//
//	[messages.name]
//	required  = "Please enter your name"
//	validName = "Letters and single spaces only"
type Config struct {
	// Name identifies the form in logs and metrics.
	Name string `toml:"name" yaml:"name" json:"name"`
	// Rules maps a field name to its ordered rule tokens.
	Rules map[string][]string `toml:"rules" yaml:"rules" json:"rules"`
	// Messages maps a field name to per-rule error messages.
	Messages map[string]map[string]string `toml:"messages" yaml:"messages" json:"messages"`
	// Success is invoked after a valid submit.
	Success SuccessFunc `toml:"-" yaml:"-" json:"-"`
}

// Tokens returns the parsed rule tokens for a field.
func (c Config) Tokens(field string) []Token {
	raw := c.Rules[field]
	tokens := make([]Token, 0, len(raw))
	for _, r := range raw {
		if t := ParseToken(r); t.Name != "" {
			tokens = append(tokens, t)
		}
	}
	return tokens
}

// Message returns the configured message for a field and rule.
func (c Config) Message(field, rule string) (string, bool) {
	msg, ok := c.Messages[field][rule]
	return msg, ok && msg != ""
}

// LoadConfig reads a form definition from a TOML, YAML or JSON file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	return ParseConfig(data, filepath.Ext(path))
}

// ParseConfig decodes a form definition. ext selects the format and may be
// given with or without the leading dot.
func ParseConfig(data []byte, ext string) (*Config, error) {
	var cfg Config
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "toml":
		if _, err := toml.NewDecoder(bytes.NewReader(data)).Decode(&cfg); err != nil {
			return nil, fmt.Errorf("decode toml config: %w", err)
		}
	case "yaml", "yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("decode yaml config: %w", err)
		}
	case "json":
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("decode json config: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	if cfg.Rules == nil {
		cfg.Rules = make(map[string][]string)
	}
	if cfg.Messages == nil {
		cfg.Messages = make(map[string]map[string]string)
	}
	return &cfg, nil
}
