package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testProgramID = "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA"

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"CONFIG_FILE", "SOLANA_RPC_URL", "SOLANA_NETWORK", "PROGRAM_ID", "PROGRAM_ACCOUNT_SIZE",
		"PIPELINE_BATCH_SIZE", "PIPELINE_FETCH_REFERENCES", "PIPELINE_STRICT_DECODE",
		"RATE_LIMIT_MAX_RETRIES", "RATE_LIMIT_BASE_DELAY_MS", "RATE_LIMIT_MAX_DELAY_MS",
		"EXPORT_PREFIX", "OTEL_TRACING_ENABLED", "OTEL_EXPORTER_OTLP_ENDPOINT", "LOG_LEVEL", "LOG_FORMAT",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("PROGRAM_ID", testProgramID)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://api.devnet.solana.com", cfg.Solana.RPCURL)
	assert.Equal(t, "devnet", cfg.Solana.Network)
	assert.Equal(t, "finalized", cfg.Solana.LocateCommitment)
	assert.Equal(t, "confirmed", cfg.Solana.FetchCommitment)
	assert.Equal(t, 72, cfg.Program.AccountSize)
	assert.Equal(t, testProgramID, cfg.ProgramKey().String())
	assert.Equal(t, 100, cfg.Pipeline.BatchSize)
	assert.True(t, cfg.Pipeline.FetchReferences)
	assert.False(t, cfg.Pipeline.StrictDecode)
	assert.Equal(t, 5, cfg.RateLimit.MaxRetries)
	assert.Equal(t, 2, cfg.RateLimit.OtherMaxRetries)
	assert.Equal(t, time.Second, cfg.RateLimit.BaseDelay())
	assert.Equal(t, 30*time.Second, cfg.RateLimit.MaxDelay())
	assert.Equal(t, time.Second, cfg.RateLimit.MaxJitter())
	assert.Equal(t, 2*time.Second, cfg.RateLimit.BatchDelay())
	assert.Equal(t, 100*time.Millisecond, cfg.RateLimit.RequestDelay())
	assert.Equal(t, "./output", cfg.Export.Dir)
	assert.Equal(t, "time_stamped_accounts", cfg.ExportPrefix())
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PROGRAM_ID", testProgramID)
	t.Setenv("PIPELINE_BATCH_SIZE", "50")
	t.Setenv("PIPELINE_FETCH_REFERENCES", "false")
	t.Setenv("RATE_LIMIT_BASE_DELAY_MS", "250")
	t.Setenv("LOG_LEVEL", "DEBUG")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 50, cfg.Pipeline.BatchSize)
	assert.False(t, cfg.Pipeline.FetchReferences)
	assert.Equal(t, 250*time.Millisecond, cfg.RateLimit.BaseDelay())
	assert.Equal(t, "application_accounts", cfg.ExportPrefix())
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_PlaceholderProgramIDRejected(t *testing.T) {
	clearEnv(t)

	_, err := Load()
	require.Error(t, err)

	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "PROGRAM_ID", cfgErr.Field)
}

func TestLoad_InvalidProgramIDRejected(t *testing.T) {
	clearEnv(t)
	t.Setenv("PROGRAM_ID", "not-base58-0OIl")

	_, err := Load()

	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "PROGRAM_ID", cfgErr.Field)
	assert.Contains(t, cfgErr.Error(), "base-58")
}

func TestLoad_ValidationFailures(t *testing.T) {
	testCases := []struct {
		name  string
		key   string
		value string
		field string
	}{
		{name: "batch size zero", key: "PIPELINE_BATCH_SIZE", value: "0", field: "Config.Pipeline.BatchSize"},
		{name: "batch size above limit", key: "PIPELINE_BATCH_SIZE", value: "101", field: "Config.Pipeline.BatchSize"},
		{name: "max delay below base", key: "RATE_LIMIT_MAX_DELAY_MS", value: "10", field: "Config.RateLimit.MaxDelayMs"},
		{name: "unknown log level", key: "LOG_LEVEL", value: "verbose", field: "Config.Log.Level"},
		{name: "tracing without endpoint", key: "OTEL_TRACING_ENABLED", value: "true", field: "Config.Tracing.Endpoint"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("PROGRAM_ID", testProgramID)
			t.Setenv(tc.key, tc.value)

			_, err := Load()

			var cfgErr *ConfigError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tc.field, cfgErr.Field)
		})
	}
}

func TestLoad_YAMLOverlayBelowEnv(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "exporter.yaml")
	body := []byte(`
program:
  id: ` + testProgramID + `
pipeline:
  batch_size: 25
  strict_decode: true
export:
  dir: /tmp/exports
  prefix: nightly
`)
	require.NoError(t, os.WriteFile(path, body, 0o600))
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("PIPELINE_BATCH_SIZE", "40")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 40, cfg.Pipeline.BatchSize)
	assert.True(t, cfg.Pipeline.StrictDecode)
	assert.Equal(t, "/tmp/exports", cfg.Export.Dir)
	assert.Equal(t, "nightly", cfg.ExportPrefix())
	assert.Equal(t, 5, cfg.RateLimit.MaxRetries)
}

func TestLoad_YAMLUnknownFieldRejected(t *testing.T) {
	clearEnv(t)
	t.Setenv("PROGRAM_ID", testProgramID)

	path := filepath.Join(t.TempDir(), "exporter.yaml")
	require.NoError(t, os.WriteFile(path, []byte("pipeline:\n  workers: 4\n"), 0o600))
	t.Setenv("CONFIG_FILE", path)

	_, err := Load()

	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "CONFIG_FILE", cfgErr.Field)
}

func TestLoad_MissingConfigFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("PROGRAM_ID", testProgramID)
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))

	_, err := Load()

	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
