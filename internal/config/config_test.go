package config

import (
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"VIGIL_LOG_LEVEL", "VIGIL_LOG_FORMAT", "VIGIL_LOG_FILE",
		"VIGIL_PRETTY", "VIGIL_METRICS_FILE",
	} {
		t.Setenv(key, "")
	}
}

func testFlags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String(KeyLogLevel, "info", "")
	fs.String(KeyLogFormat, "text", "")
	fs.String(KeyLogFile, "", "")
	fs.Bool(KeyPretty, false, "")
	fs.String(KeyMetricsFile, "", "")
	return fs
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(nil)
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Empty(t, cfg.Log.File)
	assert.False(t, cfg.Output.Pretty)
	assert.Empty(t, cfg.Metrics.TextfilePath)
	require.NoError(t, cfg.Validate())
}

func TestLoad_Env(t *testing.T) {
	clearEnv(t)
	t.Setenv("VIGIL_LOG_LEVEL", "debug")
	t.Setenv("VIGIL_LOG_FORMAT", "json")
	t.Setenv("VIGIL_LOG_FILE", "/var/log/vigil.log")
	t.Setenv("VIGIL_PRETTY", "true")
	t.Setenv("VIGIL_METRICS_FILE", "/var/lib/node_exporter/vigil.prom")

	cfg, err := Load(testFlags())
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "/var/log/vigil.log", cfg.Log.File)
	assert.True(t, cfg.Output.Pretty)
	assert.Equal(t, "/var/lib/node_exporter/vigil.prom", cfg.Metrics.TextfilePath)
}

func TestLoad_FlagsOverrideEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("VIGIL_LOG_LEVEL", "debug")
	t.Setenv("VIGIL_PRETTY", "true")

	fs := testFlags()
	require.NoError(t, fs.Parse([]string{"--log-level=error", "--pretty=false"}))

	cfg, err := Load(fs)
	require.NoError(t, err)
	assert.Equal(t, "error", cfg.Log.Level)
	assert.False(t, cfg.Output.Pretty)
}

func TestLoad_UnsetFlagsFallThroughToEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("VIGIL_LOG_FORMAT", "json")

	fs := testFlags()
	require.NoError(t, fs.Parse([]string{"--log-level=warn"}))

	cfg, err := Load(fs)
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

// --- Validation tests ---

func TestValidate_BadLevel(t *testing.T) {
	cfg := Config{Log: LogConfig{Level: "verbose", Format: "text"}}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "log level")
}

func TestValidate_BadFormat(t *testing.T) {
	cfg := Config{Log: LogConfig{Level: "info", Format: "logfmt"}}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "log format")
}

func TestValidate_MultipleErrors(t *testing.T) {
	cfg := Config{Log: LogConfig{Level: "loud", Format: "xml"}}
	err := cfg.Validate()
	require.Error(t, err)
	for _, want := range []string{"log level", "log format"} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestValidate_LevelCaseInsensitive(t *testing.T) {
	cfg := Config{Log: LogConfig{Level: "WARN", Format: "text"}}
	assert.NoError(t, cfg.Validate())
}

func TestVersion_IsSet(t *testing.T) {
	assert.NotEmpty(t, Version)
}
