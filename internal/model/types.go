/*
PURPOSE:
  Defines the core data structures used throughout an1-bench.
  These models represent benchmark inputs, per-request outcomes, and the run summary.

REQUIREMENTS:
  User-specified:
  - Record HTTP status, wall-clock and API-reported latency, and cost figures.
  - Distinguish "absent" from "zero" for API-reported numbers.

  Implementation-discovered:
  - Need JSON tags matching the AN1 response schema and output artifacts.
  - Pointer fields model nullable columns; omitempty keeps JSONL rows compact.

ARCHITECTURE INTEGRATION:
  - Used by: internal/engine, internal/metrics, internal/output
  - Shared across boundaries.

ERROR HANDLING:
  - None (pure data structs).

IMPLEMENTATION RULES:
  - Keep structs simple and public.
  - An Outcome is created once per input and never mutated afterward.

USAGE:
  out := model.Outcome{InputID: "s1", OK: true}

RELATED FILES:
  - internal/output/csv.go
  - internal/output/json.go

MAINTENANCE:
  - Update CSV/JSON writers when adding new metrics to capture.
*/

package model

// Input is a single benchmark input record. Inputs are loaded once, in order,
// and are read-only for the duration of a run.
type Input struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// Outcome is the final result of one input's request, condensed to the last
// attempt's observable data. Retries are invisible here except through the
// final attempt's own timing.
type Outcome struct {
	InputID         string   `json:"input_id"`
	OK              bool     `json:"ok"`
	StatusCode      int      `json:"status_code,omitempty"` // 0 means no HTTP response was received
	APILatencyMS    *float64 `json:"api_latency_ms,omitempty"`
	ClientElapsedMS float64  `json:"client_elapsed_ms"`
	Mode            string   `json:"mode,omitempty"`
	BaselineCostUSD *float64 `json:"reference_baseline_cost_usd,omitempty"`
	AN1CostUSD      *float64 `json:"an1_cost_usd,omitempty"`
	SavingsUSD      *float64 `json:"savings_usd,omitempty"`
	Error           string   `json:"error,omitempty"`
}

// Summary aggregates all outcomes of a run. Latency statistics and cost totals
// are nil when no record carried the corresponding value.
type Summary struct {
	RunID                string   `json:"run_id"`
	Label                string   `json:"label"`
	TotalRequests        int      `json:"total_requests"`
	OKRequests           int      `json:"ok_requests"`
	ClientLatencyMean    *float64 `json:"client_latency_mean"`
	ClientLatencyP50     *float64 `json:"client_latency_p50"`
	ClientLatencyP95     *float64 `json:"client_latency_p95"`
	APILatencyMean       *float64 `json:"api_latency_mean"`
	APILatencyP50        *float64 `json:"api_latency_p50"`
	APILatencyP95        *float64 `json:"api_latency_p95"`
	TotalBaselineCostUSD *float64 `json:"total_reference_baseline_cost_usd"`
	TotalAN1CostUSD      *float64 `json:"total_an1_cost_usd"`
	TotalSavingsUSD      *float64 `json:"total_savings_usd"`
	SavingsPercentage    float64  `json:"savings_percentage"`
}
