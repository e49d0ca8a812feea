// Package config loads qres settings.
//
// Settings come from, in increasing precedence: built-in defaults, a YAML
// config file (qres.yaml in the working directory unless a path is given),
// QRES_-prefixed environment variables, and command-line flags that were
// explicitly set.
//
//	database: blog.db
//	schema_dir: ./schema
//	format: json
//	max_concurrency: 8
//	verbose: true
package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Defaults.
const (
	DefaultDatabase       = "qres.db"
	DefaultSchemaDir      = "schema"
	DefaultFormat         = "text"
	DefaultMaxConcurrency = 4
)

// Formats lists the supported output formats.
var Formats = []string{"text", "json"}

// Config holds the resolved settings.
type Config struct {
	Database       string `mapstructure:"database"`
	SchemaDir      string `mapstructure:"schema_dir"`
	Format         string `mapstructure:"format"`
	MaxConcurrency int    `mapstructure:"max_concurrency"`
	Verbose        bool   `mapstructure:"verbose"`

	// File is the config file that was read, empty when none was found.
	File string `mapstructure:"-"`
}

// flagNames maps config keys to the command-line flags that override them.
var flagNames = map[string]string{
	"database":        "database",
	"schema_dir":      "schema",
	"format":          "format",
	"max_concurrency": "max-concurrency",
	"verbose":         "verbose",
}

// Load resolves the settings. path names a config file that must exist; when
// empty, qres.yaml is read from the working directory if present. flags may be
// nil; flags it lacks are skipped.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	v.SetDefault("database", DefaultDatabase)
	v.SetDefault("schema_dir", DefaultSchemaDir)
	v.SetDefault("format", DefaultFormat)
	v.SetDefault("max_concurrency", DefaultMaxConcurrency)
	v.SetDefault("verbose", false)

	v.SetEnvPrefix("QRES")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for key, name := range flagNames {
			f := flags.Lookup(name)
			if f == nil {
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("bind flag --%s: %w", name, err)
			}
		}
	}

	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("qres")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.File = v.ConfigFileUsed()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the settings for values no command can use.
func (c *Config) Validate() error {
	if !slices.Contains(Formats, c.Format) {
		return fmt.Errorf("invalid format %q: must be one of %v", c.Format, Formats)
	}
	if c.MaxConcurrency < 1 {
		return fmt.Errorf("max_concurrency must be at least 1, got %d", c.MaxConcurrency)
	}
	if c.Database == "" {
		return fmt.Errorf("database is required")
	}
	return nil
}
