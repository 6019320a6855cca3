package engine

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daryltucker/an1-bench/internal/config"
	"github.com/daryltucker/an1-bench/internal/model"
)

func testConfig(url string) *config.Config {
	cfg := config.DefaultConfig()
	cfg.URL = url
	cfg.Timeout = 2 * time.Second
	cfg.BackoffBase = time.Millisecond
	cfg.BackoffCap = 5 * time.Millisecond
	cfg.Dim = 8
	return cfg
}

func testInput() (model.Input, []float64) {
	return model.Input{ID: "s1", Text: "hello"}, make([]float64, 8)
}

func TestExecuteSuccess(t *testing.T) {
	var gotAuth, gotContentType string
	var gotPayload inferRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotContentType = r.Header.Get("Content-Type")
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&gotPayload))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"ok": true,
			"mode": "active",
			"latency_ms": 41.5,
			"reference_baseline_cost_usd": 0.004,
			"an1_cost_usd": 0.001,
			"savings_usd": 0.003
		}`))
	}))
	defer server.Close()

	cfg := testConfig(server.URL)
	cfg.APIKey = "sk-test"
	c := NewClient(cfg)

	in, z := testInput()
	out := c.Execute(context.Background(), in, z)

	assert.Equal(t, "Bearer sk-test", gotAuth)
	assert.Equal(t, "application/json", gotContentType)
	assert.Equal(t, "infer_z", gotPayload.Mode)
	assert.Len(t, gotPayload.Z, 8)

	assert.True(t, out.OK)
	assert.Equal(t, "s1", out.InputID)
	assert.Equal(t, http.StatusOK, out.StatusCode)
	require.NotNil(t, out.APILatencyMS)
	assert.Equal(t, 41.5, *out.APILatencyMS)
	require.NotNil(t, out.BaselineCostUSD)
	assert.Equal(t, 0.004, *out.BaselineCostUSD)
	assert.Equal(t, "active", out.Mode)
	assert.Empty(t, out.Error)
	assert.Greater(t, out.ClientElapsedMS, 0.0)
}

func TestExecuteRetryCeilingOn503(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	c := NewClient(testConfig(server.URL))
	in, z := testInput()
	out := c.Execute(context.Background(), in, z)

	// 1 initial attempt + 3 retries, then terminal failure.
	assert.Equal(t, int32(4), attempts.Load())
	assert.False(t, out.OK)
	assert.Equal(t, http.StatusServiceUnavailable, out.StatusCode)
	assert.Contains(t, out.Error, "transient status")
}

func TestExecuteRetriesRateLimitThenSucceeds(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"ok": true, "mode": "active"}`))
	}))
	defer server.Close()

	c := NewClient(testConfig(server.URL))
	in, z := testInput()
	out := c.Execute(context.Background(), in, z)

	assert.Equal(t, int32(2), attempts.Load())
	assert.True(t, out.OK)
	assert.Empty(t, out.Error)
}

func TestExecuteTerminalOnOtherStatus(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error": "malformed payload"}`))
	}))
	defer server.Close()

	c := NewClient(testConfig(server.URL))
	in, z := testInput()
	out := c.Execute(context.Background(), in, z)

	// 4xx other than 429 is never retried.
	assert.Equal(t, int32(1), attempts.Load())
	assert.False(t, out.OK)
	assert.Equal(t, http.StatusBadRequest, out.StatusCode)
	assert.Contains(t, out.Error, "server error")
}

func TestExecuteTerminalOnMalformedBody(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.Write([]byte(`not json {{{`))
	}))
	defer server.Close()

	c := NewClient(testConfig(server.URL))
	in, z := testInput()
	out := c.Execute(context.Background(), in, z)

	assert.Equal(t, int32(1), attempts.Load())
	assert.False(t, out.OK)
	assert.Equal(t, http.StatusOK, out.StatusCode)
	assert.Contains(t, out.Error, "invalid JSON response")
}

func TestExecuteEmptyBodyIsSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	c := NewClient(testConfig(server.URL))
	in, z := testInput()
	out := c.Execute(context.Background(), in, z)

	assert.True(t, out.OK)
	assert.Nil(t, out.APILatencyMS)
	assert.Equal(t, "unknown", out.Mode)
}

func TestExecuteRetriesTimeout(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	cfg := testConfig(server.URL)
	cfg.Timeout = 20 * time.Millisecond
	c := NewClient(cfg)

	in, z := testInput()
	out := c.Execute(context.Background(), in, z)

	assert.Equal(t, int32(4), attempts.Load())
	assert.False(t, out.OK)
	assert.Zero(t, out.StatusCode)
	assert.Contains(t, out.Error, "timeout")
}

func TestExecuteRetriesConnectionError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // refuse every connection

	c := NewClient(testConfig(server.URL))
	in, z := testInput()
	out := c.Execute(context.Background(), in, z)

	assert.False(t, out.OK)
	assert.Zero(t, out.StatusCode)
	assert.Contains(t, out.Error, "connection error")
}

func TestExecuteModeMismatchIsWarningOnly(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ok": true, "mode": "baseline_only"}`))
	}))
	defer server.Close()

	cfg := testConfig(server.URL)
	cfg.ExpectedMode = "active"
	c := NewClient(cfg)

	in, z := testInput()
	out := c.Execute(context.Background(), in, z)

	// The mismatch is surfaced as a warning; the outcome stays successful.
	assert.True(t, out.OK)
	assert.Equal(t, "baseline_only", out.Mode)
	assert.Empty(t, out.Error)
}

func TestExecuteElapsedIsFinalAttemptOnly(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) == 1 {
			time.Sleep(250 * time.Millisecond)
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"ok": true}`))
	}))
	defer server.Close()

	c := NewClient(testConfig(server.URL))
	in, z := testInput()
	out := c.Execute(context.Background(), in, z)

	require.Equal(t, int32(2), attempts.Load())
	assert.True(t, out.OK)
	// The slow first attempt must not leak into the recorded elapsed time.
	assert.Less(t, out.ClientElapsedMS, 200.0)
}

func TestBackoffGrowthAndCap(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.BackoffBase = time.Second
	cfg.BackoffCap = 5 * time.Second
	c := &Client{cfg: cfg}

	assert.Equal(t, 1*time.Second, c.backoff(1))
	assert.Equal(t, 2*time.Second, c.backoff(2))
	assert.Equal(t, 4*time.Second, c.backoff(3))
	assert.Equal(t, 5*time.Second, c.backoff(4)) // capped
	assert.Equal(t, 5*time.Second, c.backoff(10))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short"))

	long := make([]byte, 300)
	for i := range long {
		long[i] = 'x'
	}
	got := truncate(string(long))
	assert.Len(t, got, maxErrorLen)
	assert.Equal(t, "...", got[len(got)-3:])
}
