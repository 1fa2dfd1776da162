// Package config loads lsbsteg settings from a YAML file.
//
// The file is named by the --config flag or, failing that, the
// LSBSTEG_CONFIG environment variable. There is no automatic discovery;
// without either, Default() is used. Command-line flags override file values.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/tuomass/lsbsteg-go/internal/imgutil"
	"github.com/tuomass/lsbsteg-go/internal/logging"
	"github.com/tuomass/lsbsteg-go/pkg/lsbsteg"
)

// EnvVar names the environment variable holding the config file path.
const EnvVar = "LSBSTEG_CONFIG"

var (
	// ErrInvalidConfig indicates a config value failed validation
	ErrInvalidConfig = errors.New("invalid config")
)

// Config is the complete lsbsteg configuration.
type Config struct {
	// Bit is the number of low bits used per channel byte (1, 2, 4 or 8).
	// Default: 1
	Bit int `yaml:"bit"`

	// OutputFormat is the container written by hide: ppm, png or bmp.
	// Empty keeps the output path's extension or the input format.
	OutputFormat string `yaml:"output_format"`

	// Log configures diagnostics.
	Log LogConfig `yaml:"log"`
}

// LogConfig configures logging.
type LogConfig struct {
	// Backend is zap or logrus. Default: zap
	Backend string `yaml:"backend"`

	// Level is debug, info, warn or error. Default: info
	Level string `yaml:"level"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Bit: 1,
		Log: LogConfig{
			Backend: logging.BackendZap,
			Level:   "info",
		},
	}
}

// Load reads the file at path over the defaults. An empty path falls back
// to $LSBSTEG_CONFIG, and to Default() when that is unset too.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(EnvVar)
	}
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks every field.
func (c *Config) Validate() error {
	if err := lsbsteg.ValidateBitWidth(c.Bit); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	switch imgutil.NormalizeFormat(c.OutputFormat) {
	case "", imgutil.FormatPPM, imgutil.FormatPNG, imgutil.FormatBMP:
	default:
		return fmt.Errorf("%w: output_format %q must be ppm, png or bmp", ErrInvalidConfig, c.OutputFormat)
	}

	switch c.Log.Backend {
	case "", logging.BackendZap, logging.BackendLogrus:
	default:
		return fmt.Errorf("%w: log.backend %q must be zap or logrus", ErrInvalidConfig, c.Log.Backend)
	}

	switch c.Log.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: log.level %q", ErrInvalidConfig, c.Log.Level)
	}
	return nil
}
