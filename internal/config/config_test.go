package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 120*time.Second, cfg.Timeout)
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.Equal(t, 256, cfg.Dim)
	assert.Equal(t, 1, cfg.Concurrency)
	assert.Equal(t, "out", cfg.OutputDir)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bench.yaml")
	content := []byte("url: https://api.example.com/an1\nexpected_mode: active\nmax_requests: 5\ntimeout: 10s\n")
	require.NoError(t, os.WriteFile(path, content, 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://api.example.com/an1", cfg.URL)
	assert.Equal(t, "active", cfg.ExpectedMode)
	assert.Equal(t, 5, cfg.MaxRequests)
	assert.Equal(t, 10*time.Second, cfg.Timeout)
	// Untouched keys keep their defaults.
	assert.Equal(t, 3, cfg.MaxRetries)
}

func TestLoadMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bench.yaml")
	require.NoError(t, os.WriteFile(path, []byte("url: [unclosed"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("AN1_API_URL", "https://env.example.com/an1")
	t.Setenv("AN1_API_KEY", "sk-test")
	t.Setenv("AN1_EXPECTED_MODE", "active")
	t.Setenv("AN1_NUM_REQUESTS", "7")
	t.Setenv("AN1_TIMEOUT_SECONDS", "30")

	cfg := DefaultConfig()
	cfg.ApplyEnv()

	assert.Equal(t, "https://env.example.com/an1", cfg.URL)
	assert.Equal(t, "sk-test", cfg.APIKey)
	assert.Equal(t, "active", cfg.ExpectedMode)
	assert.Equal(t, 7, cfg.MaxRequests)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
}

func TestApplyEnvBenchURLFallback(t *testing.T) {
	t.Setenv("AN1_API_URL", "")
	t.Setenv("AN1_BENCH_URL", "https://bench.example.com/an1")

	cfg := DefaultConfig()
	cfg.ApplyEnv()

	assert.Equal(t, "https://bench.example.com/an1", cfg.URL)
}

func TestValidateRequiresURL(t *testing.T) {
	cfg := DefaultConfig()
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "endpoint URL is required")

	cfg.URL = "https://api.example.com/an1"
	assert.NoError(t, cfg.Validate())
}

func TestValidateRejectsBadValues(t *testing.T) {
	base := DefaultConfig()
	base.URL = "https://api.example.com/an1"

	cfg := *base
	cfg.Dim = 0
	assert.Error(t, cfg.Validate())

	cfg = *base
	cfg.Timeout = 0
	assert.Error(t, cfg.Validate())

	cfg = *base
	cfg.MaxRetries = -1
	assert.Error(t, cfg.Validate())

	cfg = *base
	cfg.Concurrency = 0
	assert.Error(t, cfg.Validate())
}

func TestLabel(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "run", cfg.Label())

	cfg.ExpectedMode = "active"
	assert.Equal(t, "active", cfg.Label())
}
