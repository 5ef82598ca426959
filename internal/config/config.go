package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/KaramelBytes/statloom/internal/optim"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Global configuration structure.
type Global struct {
	Seed            uint64  `mapstructure:"seed" yaml:"seed"`
	Resamples       int     `mapstructure:"resamples" yaml:"resamples"`
	ConfidenceLevel float64 `mapstructure:"confidence_level" yaml:"confidence_level"`
	Alpha           float64 `mapstructure:"alpha" yaml:"alpha"`
	Workers         int     `mapstructure:"workers" yaml:"workers"`

	// Minimizer used by fit and lrt
	Optimizer     string `mapstructure:"optimizer" yaml:"optimizer"`
	MaxIterations int    `mapstructure:"max_iterations" yaml:"max_iterations"`

	LogLevel     string `mapstructure:"log_level" yaml:"log_level"`
	OutputFormat string `mapstructure:"output_format" yaml:"output_format"`
}

// Keys lists the settable keys in display order.
var Keys = []string{
	"seed", "resamples", "confidence_level", "alpha", "workers",
	"optimizer", "max_iterations", "log_level", "output_format",
}

// Default returns the built-in settings.
func Default() *Global {
	return &Global{
		Seed:            42,
		Resamples:       1000,
		ConfidenceLevel: 0.95,
		Alpha:           0.05,
		Workers:         1,
		Optimizer:       "nelder-mead",
		MaxIterations:   optim.DefaultMaxIterations,
		LogLevel:        "warn",
		OutputFormat:    "markdown",
	}
}

// Dir returns ~/.statloom.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".statloom"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.statloom/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		dir, err := Dir()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: flags (cfgFile) > env > config file > defaults.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("STATLOOM")
	v.AutomaticEnv()

	d := Default()
	v.SetDefault("seed", d.Seed)
	v.SetDefault("resamples", d.Resamples)
	v.SetDefault("confidence_level", d.ConfidenceLevel)
	v.SetDefault("alpha", d.Alpha)
	v.SetDefault("workers", d.Workers)
	v.SetDefault("optimizer", d.Optimizer)
	v.SetDefault("max_iterations", d.MaxIterations)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("output_format", d.OutputFormat)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		dir, err := Dir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks ranges and enumerations.
func (c *Global) Validate() error {
	if c.Resamples <= 0 {
		return fmt.Errorf("resamples must be positive, got %d", c.Resamples)
	}
	if !(c.ConfidenceLevel > 0 && c.ConfidenceLevel < 1) {
		return fmt.Errorf("confidence_level must be in (0,1), got %g", c.ConfidenceLevel)
	}
	if !(c.Alpha > 0 && c.Alpha < 1) {
		return fmt.Errorf("alpha must be in (0,1), got %g", c.Alpha)
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	if c.MaxIterations < 0 {
		return fmt.Errorf("max_iterations must not be negative, got %d", c.MaxIterations)
	}
	if _, err := optim.New(c.Optimizer, c.MaxIterations); err != nil {
		return err
	}
	switch c.OutputFormat {
	case "markdown", "json":
	default:
		return fmt.Errorf("output_format must be markdown or json, got %q", c.OutputFormat)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level must be debug, info, warn or error, got %q", c.LogLevel)
	}
	return nil
}

// Set parses and assigns one key. The configuration is left unchanged when
// the new value is invalid.
func (c *Global) Set(key, val string) error {
	val = strings.TrimSpace(val)
	n := *c
	switch key {
	case "seed":
		u, err := strconv.ParseUint(val, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid uint for seed: %w", err)
		}
		n.Seed = u
	case "resamples", "workers", "max_iterations":
		i, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("invalid int for %s: %w", key, err)
		}
		switch key {
		case "resamples":
			n.Resamples = i
		case "workers":
			n.Workers = i
		default:
			n.MaxIterations = i
		}
	case "confidence_level", "alpha":
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return fmt.Errorf("invalid float for %s: %w", key, err)
		}
		if key == "alpha" {
			n.Alpha = f
		} else {
			n.ConfidenceLevel = f
		}
	case "optimizer":
		n.Optimizer = strings.ToLower(val)
	case "log_level":
		n.LogLevel = strings.ToLower(val)
	case "output_format":
		n.OutputFormat = strings.ToLower(val)
	default:
		return fmt.Errorf("unknown key: %s", key)
	}
	if err := n.Validate(); err != nil {
		return err
	}
	*c = n
	return nil
}

// Get formats one key for display.
func (c *Global) Get(key string) (string, error) {
	switch key {
	case "seed":
		return strconv.FormatUint(c.Seed, 10), nil
	case "resamples":
		return strconv.Itoa(c.Resamples), nil
	case "confidence_level":
		return strconv.FormatFloat(c.ConfidenceLevel, 'g', -1, 64), nil
	case "alpha":
		return strconv.FormatFloat(c.Alpha, 'g', -1, 64), nil
	case "workers":
		return strconv.Itoa(c.Workers), nil
	case "optimizer":
		return c.Optimizer, nil
	case "max_iterations":
		return strconv.Itoa(c.MaxIterations), nil
	case "log_level":
		return c.LogLevel, nil
	case "output_format":
		return c.OutputFormat, nil
	default:
		return "", fmt.Errorf("unknown key: %s", key)
	}
}
