/*
PURPOSE:
  Executes one logical request against the AN1 endpoint, hiding transient
  failure behind a bounded retry policy. Exactly one Outcome per call.

REQUIREMENTS:
  User-specified:
  - POST {"mode":"infer_z","z":[...]} with bearer auth.
  - Retry 429/503/timeout/connection errors with exponential backoff,
    up to 3 retries beyond the first attempt.
  - Any other status, or a malformed 2xx body, is terminal. No retry.

  Implementation-discovered:
  - Elapsed time is measured per attempt; the Outcome keeps the final
    attempt's figure only, never the sum across retries.
  - A mode mismatch against the configured expected mode is a warning,
    never a failure.

ARCHITECTURE INTEGRATION:
  - Called by: internal/engine/runner.go, internal/cli/probe.go
  - Uses: internal/config, internal/model, internal/output

ERROR HANDLING:
  - Execute never returns an error. Every failure path lands in the
    Outcome's Error field; the run loop keeps going regardless.

IMPLEMENTATION RULES:
  - The retry loop is an explicit attempt state machine:
    Pending -> Attempting -> {Success, RetryScheduled, Failed},
    with RetryScheduled re-entering Attempting after the backoff wait.
  - Per-attempt timeout via context; exceeding it is a retryable timeout,
    not a run abort.

USAGE:
  c := engine.NewClient(cfg)
  out := c.Execute(ctx, input, z)

RELATED FILES:
  - internal/engine/runner.go
  - internal/config/config.go

MAINTENANCE:
  - Update the classification table if the AN1 API grows new transient
    status codes.
*/

package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/daryltucker/an1-bench/internal/config"
	"github.com/daryltucker/an1-bench/internal/model"
	"github.com/daryltucker/an1-bench/internal/output"
)

// modeInferZ is the request mode for derived-vector inference.
const modeInferZ = "infer_z"

// maxResponseSize bounds how much of a response body is read (1 MiB).
const maxResponseSize = 1 << 20

// maxErrorLen bounds the human-readable error string recorded per input.
const maxErrorLen = 100

// attemptState drives the retry cycle for one logical request.
type attemptState int

const (
	statePending attemptState = iota
	stateAttempting
	stateRetryScheduled
	stateSuccess
	stateFailed
)

// inferRequest is the outbound payload.
type inferRequest struct {
	Mode string    `json:"mode"`
	Z    []float64 `json:"z"`
}

// inferResponse holds the consumed subset of the AN1 response. Everything
// besides OK is optional; absence must not crash parsing.
type inferResponse struct {
	OK              bool     `json:"ok"`
	Mode            string   `json:"mode"`
	LatencyMS       *float64 `json:"latency_ms"`
	BaselineCostUSD *float64 `json:"reference_baseline_cost_usd"`
	AN1CostUSD      *float64 `json:"an1_cost_usd"`
	SavingsUSD      *float64 `json:"savings_usd"`
}

// Client performs infer_z requests against the configured endpoint.
type Client struct {
	cfg  *config.Config
	http *http.Client
}

// NewClient creates a Client. The http.Client carries no overall timeout;
// each attempt is bounded by its own context instead.
func NewClient(cfg *config.Config) *Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.MaxIdleConnsPerHost = 4

	return &Client{
		cfg:  cfg,
		http: &http.Client{Transport: transport},
	}
}

// Execute performs the full retried exchange for one input and returns its
// Outcome. The attempt counter is monotonic; attempt k's backoff wait is
// base * 2^(k-1), capped at the configured ceiling.
func (c *Client) Execute(ctx context.Context, in model.Input, z []float64) model.Outcome {
	body, err := json.Marshal(inferRequest{Mode: modeInferZ, Z: z})
	if err != nil {
		return model.Outcome{InputID: in.ID, Error: truncate(fmt.Sprintf("encode payload: %v", err))}
	}

	var out model.Outcome
	var retryable bool
	state := statePending
	attempt := 0

	for {
		switch state {
		case statePending:
			state = stateAttempting

		case stateAttempting:
			attempt++
			out, retryable = c.attempt(ctx, in, body)
			switch {
			case out.OK:
				state = stateSuccess
			case retryable && attempt <= c.cfg.MaxRetries:
				state = stateRetryScheduled
			default:
				state = stateFailed
			}

		case stateRetryScheduled:
			wait := c.backoff(attempt)
			output.Logger.Warn("Transient failure, retry scheduled",
				"input", in.ID, "attempt", attempt, "wait", wait, "error", out.Error)
			select {
			case <-ctx.Done():
				out.OK = false
				out.Error = truncate(fmt.Sprintf("run cancelled: %v", ctx.Err()))
				state = stateFailed
			case <-time.After(wait):
				state = stateAttempting
			}

		case stateSuccess, stateFailed:
			return out
		}
	}
}

// attempt performs a single HTTP exchange. The bool reports whether the
// failure (if any) is transient and worth retrying.
func (c *Client) attempt(ctx context.Context, in model.Input, body []byte) (model.Outcome, bool) {
	out := model.Outcome{InputID: in.ID}

	actx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	start := time.Now()

	req, err := http.NewRequestWithContext(actx, http.MethodPost, c.cfg.URL, bytes.NewReader(body))
	if err != nil {
		out.ClientElapsedMS = elapsedMS(start)
		out.Error = truncate(fmt.Sprintf("build request: %v", err))
		return out, false
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		out.ClientElapsedMS = elapsedMS(start)
		if isTimeout(err) {
			out.Error = truncate(fmt.Sprintf("timeout after %s", c.cfg.Timeout))
		} else {
			out.Error = truncate(fmt.Sprintf("connection error: %v", err))
		}
		return out, true
	}
	defer resp.Body.Close()

	raw, readErr := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	out.ClientElapsedMS = elapsedMS(start)
	out.StatusCode = resp.StatusCode

	if readErr != nil {
		// The connection died or timed out mid-body.
		out.Error = truncate(fmt.Sprintf("read response: %v", readErr))
		return out, true
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests,
		resp.StatusCode == http.StatusServiceUnavailable:
		out.Error = truncate(fmt.Sprintf("transient status: %s", resp.Status))
		return out, true

	case resp.StatusCode < 200 || resp.StatusCode > 299:
		out.Error = truncate(fmt.Sprintf("server error (%s): %s", resp.Status, bytes.TrimSpace(raw)))
		return out, false
	}

	var data inferResponse
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, &data); err != nil {
			out.Error = truncate(fmt.Sprintf("invalid JSON response: %v", err))
			return out, false
		}
	}

	out.OK = true
	out.APILatencyMS = data.LatencyMS
	out.BaselineCostUSD = data.BaselineCostUSD
	out.AN1CostUSD = data.AN1CostUSD
	out.SavingsUSD = data.SavingsUSD

	// Mode fallback chain mirrors the response-or-config precedence.
	switch {
	case data.Mode != "":
		out.Mode = data.Mode
	case c.cfg.ExpectedMode != "":
		out.Mode = c.cfg.ExpectedMode
	default:
		out.Mode = "unknown"
	}

	if c.cfg.ExpectedMode != "" && data.Mode != "" && data.Mode != c.cfg.ExpectedMode {
		output.Logger.Warn("Mode mismatch",
			"input", in.ID, "expected", c.cfg.ExpectedMode, "got", data.Mode)
	}

	return out, false
}

// backoff computes the wait before re-attempting after failed attempt k.
func (c *Client) backoff(k int) time.Duration {
	wait := c.cfg.BackoffBase
	for i := 1; i < k; i++ {
		wait *= 2
		if wait >= c.cfg.BackoffCap {
			return c.cfg.BackoffCap
		}
	}
	if c.cfg.BackoffCap > 0 && wait > c.cfg.BackoffCap {
		return c.cfg.BackoffCap
	}
	return wait
}

// isTimeout classifies an attempt-level error as a timeout.
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

func elapsedMS(start time.Time) float64 {
	return float64(time.Since(start)) / float64(time.Millisecond)
}

// truncate keeps recorded error strings readable in CSV cells.
func truncate(s string) string {
	if len(s) <= maxErrorLen {
		return s
	}
	return s[:maxErrorLen-3] + "..."
}
