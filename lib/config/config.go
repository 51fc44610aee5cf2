// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// Format selects how command results are printed.
type Format string

const (
	// FormatJSON prints results as indented JSON.
	FormatJSON Format = "json"
	// FormatRaw prints results with their default Go text form.
	FormatRaw Format = "raw"
	// FormatYAML prints results as YAML.
	FormatYAML Format = "yaml"
	// FormatCBOR prints the CBOR encoding of results in diagnostic
	// notation.
	FormatCBOR Format = "cbor"
)

// ColorMode controls terminal styling of help, faults, and results.
type ColorMode string

const (
	ColorAuto   ColorMode = "auto"
	ColorAlways ColorMode = "always"
	ColorNever  ColorMode = "never"
)

// Config is the configuration of one cliche program.
type Config struct {
	Output  OutputConfig  `yaml:"output" json:"output"`
	Logging LoggingConfig `yaml:"logging" json:"logging"`

	// Defaults maps command names to parameter names to default values.
	// Both levels accept the command-line spelling (add-item) or the
	// native one (add_item).
	Defaults map[string]map[string]any `yaml:"defaults" json:"defaults"`

	// Path is the file the configuration was read from, empty for
	// [Default].
	Path string `yaml:"-" json:"-"`
}

// OutputConfig configures result rendering.
type OutputConfig struct {
	Format Format    `yaml:"format" json:"format"`
	Indent int       `yaml:"indent" json:"indent"`
	Color  ColorMode `yaml:"color" json:"color"`
}

// LoggingConfig configures the program's slog logger.
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
}

// Default returns the configuration used when no file is named.
func Default() *Config {
	return &Config{
		Output: OutputConfig{
			Format: FormatJSON,
			Indent: 4,
			Color:  ColorAuto,
		},
		Logging: LoggingConfig{
			Level: "warn",
		},
	}
}

// EnvVar returns the environment variable that names the configuration
// file of the program app: "cliche-demo" reads CLICHE_DEMO_CONFIG.
func EnvVar(app string) string {
	name := strings.ToUpper(strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		default:
			return '_'
		}
	}, filepath.Base(app)))
	return name + "_CONFIG"
}

// Load reads the file named by the environment variable envVar. When
// the variable is unset or empty, Load returns [Default].
func Load(envVar string) (*Config, error) {
	path := os.Getenv(envVar)
	if path == "" {
		return Default(), nil
	}
	cfg, err := LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", envVar, err)
	}
	return cfg, nil
}

// LoadFile reads and validates the configuration file at path. Keys the
// file omits keep their [Default] values.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonc":
		err = json.Unmarshal(jsonc.ToJSON(data), cfg)
	default:
		err = yaml.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	cfg.Path = path
	cfg.normalizeDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// normalizeDefaults rekeys Defaults by native names.
func (c *Config) normalizeDefaults() {
	if c.Defaults == nil {
		return
	}
	normalized := make(map[string]map[string]any, len(c.Defaults))
	for command, parameters := range c.Defaults {
		values := make(map[string]any, len(parameters))
		for parameter, value := range parameters {
			values[native(parameter)] = value
		}
		normalized[native(command)] = values
	}
	c.Defaults = normalized
}

func native(name string) string {
	return strings.ReplaceAll(name, "-", "_")
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	switch c.Output.Format {
	case FormatJSON, FormatRaw, FormatYAML, FormatCBOR:
	default:
		errs = append(errs, fmt.Errorf("output.format must be one of: json, raw, yaml, cbor (got %q)", c.Output.Format))
	}
	switch c.Output.Color {
	case ColorAuto, ColorAlways, ColorNever:
	default:
		errs = append(errs, fmt.Errorf("output.color must be one of: auto, always, never (got %q)", c.Output.Color))
	}
	if c.Output.Indent < 0 || c.Output.Indent > 16 {
		errs = append(errs, fmt.Errorf("output.indent must be between 0 and 16 (got %d)", c.Output.Indent))
	}
	if _, err := c.LogLevel(); err != nil {
		errs = append(errs, err)
	}
	for command, parameters := range c.Defaults {
		for parameter, value := range parameters {
			if _, err := render(value); err != nil {
				errs = append(errs, fmt.Errorf("defaults.%s.%s: %w", command, parameter, err))
			}
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// LogLevel parses logging.level.
func (c *Config) LogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Logging.Level)); err != nil {
		return 0, fmt.Errorf("logging.level: %w", err)
	}
	return level, nil
}

// Colorize reports whether output to a writer should be styled.
// terminal says whether the writer is a terminal.
func (o OutputConfig) Colorize(terminal bool) bool {
	switch o.Color {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	default:
		return terminal
	}
}

// Default returns the configured default for a command parameter in
// the text form a flag accepts: strings as is (after variable
// expansion), lists as JSON arrays, other scalars in their JSON form.
// command and parameter may use either spelling.
func (c *Config) Default(command, parameter string) (string, bool) {
	parameters, ok := c.Defaults[native(command)]
	if !ok {
		return "", false
	}
	value, ok := parameters[native(parameter)]
	if !ok || value == nil {
		return "", false
	}
	text, err := render(value)
	if err != nil {
		return "", false
	}
	return text, true
}

func render(value any) (string, error) {
	switch value := value.(type) {
	case string:
		return expandVars(value), nil
	case time.Time:
		return value.Format(time.RFC3339Nano), nil
	case []any:
		elements := make([]any, len(value))
		for i, element := range value {
			if text, ok := element.(string); ok {
				element = expandVars(text)
			}
			elements[i] = element
		}
		data, err := json.Marshal(elements)
		if err != nil {
			return "", err
		}
		return string(data), nil
	case map[string]any:
		return "", errors.New("mappings cannot be flag defaults")
	default:
		data, err := json.Marshal(value)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// expandVars expands ${VAR} and ${VAR:-default} patterns.
func expandVars(s string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if value := os.Getenv(parts[1]); value != "" {
			return value
		}
		return parts[2]
	})
}
