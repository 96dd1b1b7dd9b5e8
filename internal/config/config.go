package config

import (
	"fmt"
	"os"
	"strconv"

	"menuopt/internal/engine"
	"menuopt/internal/loader"
	"menuopt/internal/logger"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Data struct {
		File     string         `yaml:"file"`
		Sheet    string         `yaml:"sheet"`
		SkipRows int            `yaml:"skip_rows"`
		Columns  loader.Columns `yaml:"columns"`
	} `yaml:"data"`

	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`

	MetricsConfig struct {
		Enabled bool   `yaml:"enabled"`
		Port    int    `yaml:"port"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`

	Auth struct {
		JWTSecret string `yaml:"jwt_secret"`
	} `yaml:"auth"`

	Export struct {
		Dir string `yaml:"dir"`
	} `yaml:"export"`

	CurrencySymbol string        `yaml:"currency_symbol"`
	Log            logger.Config `yaml:"log"`
}

// Default returns the configuration used when no file overrides it
func Default() *Config {
	cfg := &Config{}
	opts := loader.DefaultOptions()
	cfg.Data.File = "data/Restaurant_Google sheet001.xlsx"
	cfg.Data.Sheet = opts.Sheet
	cfg.Data.SkipRows = opts.SkipRows
	cfg.Data.Columns = opts.Columns
	cfg.Server.Port = 8080
	cfg.MetricsConfig.Enabled = true
	cfg.MetricsConfig.Port = 9090
	cfg.MetricsConfig.Path = "/metrics"
	cfg.Export.Dir = "exports"
	cfg.CurrencySymbol = "₹"
	cfg.Log = logger.DefaultConfig()
	return cfg
}

// Load reads a YAML file on top of the defaults and applies environment
// overrides. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := GetEnv("MENUOPT_DATA_FILE", ""); v != "" {
		c.Data.File = v
	}
	if v := GetEnv("MENUOPT_PORT", ""); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid MENUOPT_PORT %q: %w", v, err)
		}
		c.Server.Port = port
	}
	if v := GetEnv("MENUOPT_JWT_SECRET", ""); v != "" {
		c.Auth.JWTSecret = v
	}
	if v := GetEnv("MENUOPT_LOG_LEVEL", ""); v != "" {
		c.Log.Level = logger.LogLevel(v)
	}
	return nil
}

// Validate checks the configuration for values the server cannot run with
func (c *Config) Validate() error {
	if c.Data.File == "" {
		return fmt.Errorf("data.file is required")
	}
	if c.Data.SkipRows < 0 {
		return fmt.Errorf("data.skip_rows must not be negative, got %d", c.Data.SkipRows)
	}
	if err := validatePort("server.port", c.Server.Port); err != nil {
		return err
	}
	if c.MetricsConfig.Enabled {
		if err := validatePort("metrics.port", c.MetricsConfig.Port); err != nil {
			return err
		}
		if c.MetricsConfig.Port == c.Server.Port {
			return fmt.Errorf("metrics.port must differ from server.port (%d)", c.Server.Port)
		}
	}
	if !c.Log.Level.Valid() {
		return fmt.Errorf("unknown log level %q", c.Log.Level)
	}
	return nil
}

// LoaderOptions converts the data section into loader options
func (c *Config) LoaderOptions() loader.Options {
	return loader.Options{
		Sheet:    c.Data.Sheet,
		SkipRows: c.Data.SkipRows,
		Columns:  c.Data.Columns,
	}
}

// EngineOptions converts the configuration into engine options
func (c *Config) EngineOptions() []engine.Option {
	if c.CurrencySymbol == "" {
		return nil
	}
	return []engine.Option{engine.WithCurrencySymbol(c.CurrencySymbol)}
}

// GetEnv returns the environment value for key, or fallback when unset
func GetEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

func validatePort(name string, port int) error {
	if port < 1 || port > 65535 {
		return fmt.Errorf("%s %d is out of range: must be between 1 and 65535", name, port)
	}
	return nil
}
