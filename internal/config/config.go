package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Version is the current vigil release.
const Version = "0.3.0"

// EnvPrefix prefixes every environment variable vigil reads (VIGIL_LOG_LEVEL, ...).
const EnvPrefix = "VIGIL"

// Keys shared by flags, env vars and defaults. Env vars use the upper-cased
// key with dashes turned into underscores.
const (
	KeyLogLevel    = "log-level"
	KeyLogFormat   = "log-format"
	KeyLogFile     = "log-file"
	KeyPretty      = "pretty"
	KeyMetricsFile = "metrics-file"
)

// Config holds the ambient settings of a vigil run. Detection thresholds and
// playbooks travel with the input documents, not here.
type Config struct {
	Log     LogConfig
	Output  OutputConfig
	Metrics MetricsConfig
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string // "debug", "info", "warn", "error"
	Format string // "text" or "json"
	File   string // empty = stderr
}

// OutputConfig holds output settings.
type OutputConfig struct {
	Pretty bool // indent JSON written to stdout
}

// MetricsConfig holds metrics export settings.
type MetricsConfig struct {
	TextfilePath string // empty = disabled
}

// Load resolves configuration from flags (when fs is non-nil and the flag was
// set), then VIGIL_* environment variables, then defaults.
func Load(fs *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "text")
	v.SetDefault(KeyLogFile, "")
	v.SetDefault(KeyPretty, false)
	v.SetDefault(KeyMetricsFile, "")

	if fs != nil {
		for _, key := range []string{KeyLogLevel, KeyLogFormat, KeyLogFile, KeyPretty, KeyMetricsFile} {
			if f := fs.Lookup(key); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return Config{}, fmt.Errorf("config: bind flag %s: %w", key, err)
				}
			}
		}
	}

	return Config{
		Log: LogConfig{
			Level:  v.GetString(KeyLogLevel),
			Format: v.GetString(KeyLogFormat),
			File:   v.GetString(KeyLogFile),
		},
		Output: OutputConfig{
			Pretty: v.GetBool(KeyPretty),
		},
		Metrics: MetricsConfig{
			TextfilePath: v.GetString(KeyMetricsFile),
		},
	}, nil
}

// Validate checks the configuration for invalid values. All problems are
// reported together.
func (c Config) Validate() error {
	var errs []error

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Errorf("log level must be debug, info, warn or error, got %q", c.Log.Level))
	}

	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log format must be text or json, got %q", c.Log.Format))
	}

	return errors.Join(errs...)
}
