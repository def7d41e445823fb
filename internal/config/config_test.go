package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "philosophy.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
paths:
  responses_dir: out/responses
  puzzle_dir: fixtures/puzzles
defaults:
  timeout_seconds: 120
  workers: 8
  stream: false
store:
  backend: postgres
  postgres:
    dsn: postgres://localhost/puzzles?sslmode=disable
    table: runs
api_key_env:
  anthropic: MY_ANTHROPIC_KEY
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "out/responses", cfg.Paths.ResponsesDir)
	assert.Equal(t, "fixtures/puzzles", cfg.Paths.PuzzleDir)
	// Untouched fields keep their defaults.
	assert.Equal(t, "system_prompt.md", cfg.Paths.SystemPromptPath)
	assert.Equal(t, 120, cfg.Defaults.TimeoutSeconds)
	assert.Equal(t, 8, cfg.Defaults.Workers)
	assert.False(t, cfg.Defaults.Stream)
	assert.Equal(t, BackendPostgres, cfg.Store.Backend)
	assert.Equal(t, "MY_ANTHROPIC_KEY", cfg.KeyEnv["anthropic"])
}

func TestLoad_MissingDefaultFileFallsBack(t *testing.T) {
	oldWD, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(oldWD) })

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_MissingExplicitFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "store: [unclosed")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "defaults are valid",
			mutate: func(*Config) {},
		},
		{
			name:    "unknown backend",
			mutate:  func(c *Config) { c.Store.Backend = "dynamo" },
			wantErr: "store.backend",
		},
		{
			name:    "postgres requires dsn",
			mutate:  func(c *Config) { c.Store.Backend = BackendPostgres },
			wantErr: "store.postgres.dsn",
		},
		{
			name:    "redis requires addr",
			mutate:  func(c *Config) { c.Store.Backend = BackendRedis },
			wantErr: "store.redis.addr",
		},
		{
			name:    "s3 requires bucket",
			mutate:  func(c *Config) { c.Store.Backend = BackendS3 },
			wantErr: "store.s3.bucket",
		},
		{
			name:    "negative timeout",
			mutate:  func(c *Config) { c.Defaults.TimeoutSeconds = -1 },
			wantErr: "timeout_seconds",
		},
		{
			name:    "empty key env name",
			mutate:  func(c *Config) { c.KeyEnv = map[string]string{"grok": ""} },
			wantErr: "api_key_env",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestAPIKey_ResolvesThroughEnv(t *testing.T) {
	cfg := Default()
	cfg.KeyEnv = map[string]string{"anthropic": "TEST_ANTHROPIC_KEY"}

	t.Setenv("TEST_ANTHROPIC_KEY", "sk-test")
	assert.Equal(t, "sk-test", cfg.APIKey("anthropic"))
	assert.Empty(t, cfg.APIKey("gemini"))
}
