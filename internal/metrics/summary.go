/*
PURPOSE:
  Reduces the ordered outcome list into the run summary: counts, latency
  distribution statistics, cost totals, and the savings percentage.

REQUIREMENTS:
  User-specified:
  - mean/p50/p95 computed independently for client elapsed time and
    API-reported latency, over present values only.
  - A field with zero samples reports nil, never 0 and never an error.
  - savings_percentage is 0 when the baseline total is 0 (no division fault).

  Implementation-discovered:
  - Statistics cover successful records; failed rows contribute only to
    the request counts.
  - When the API omits savings_usd, the percentage falls back to
    (baseline - an1) / baseline over the totals.

ARCHITECTURE INTEGRATION:
  - Called by: internal/cli/run.go
  - Consumes: []model.Outcome; produces model.Summary

ERROR HANDLING:
  - None. An all-failure (or empty) run yields a well-formed summary with
    zero counts and nil statistics.

IMPLEMENTATION RULES:
  - Percentile is nearest-rank, floor form: sorted[min(int(n*p), n-1)].
    Applied identically to p50 and p95.

USAGE:
  summary := metrics.Summarize(outcomes)

RELATED FILES:
  - internal/model/types.go
  - internal/output/summary.go
*/

package metrics

import (
	"sort"

	"github.com/daryltucker/an1-bench/internal/model"
)

// Summarize computes the run summary over the complete outcome list.
func Summarize(outcomes []model.Outcome) model.Summary {
	s := model.Summary{TotalRequests: len(outcomes)}

	var client, api, baseline, an1, savings []float64

	for _, out := range outcomes {
		if !out.OK {
			continue
		}
		s.OKRequests++

		client = append(client, out.ClientElapsedMS)
		if out.APILatencyMS != nil {
			api = append(api, *out.APILatencyMS)
		}
		if out.BaselineCostUSD != nil {
			baseline = append(baseline, *out.BaselineCostUSD)
		}
		if out.AN1CostUSD != nil {
			an1 = append(an1, *out.AN1CostUSD)
		}
		if out.SavingsUSD != nil {
			savings = append(savings, *out.SavingsUSD)
		}
	}

	s.ClientLatencyMean = mean(client)
	s.ClientLatencyP50 = percentile(client, 0.50)
	s.ClientLatencyP95 = percentile(client, 0.95)

	s.APILatencyMean = mean(api)
	s.APILatencyP50 = percentile(api, 0.50)
	s.APILatencyP95 = percentile(api, 0.95)

	s.TotalBaselineCostUSD = sum(baseline)
	s.TotalAN1CostUSD = sum(an1)
	s.TotalSavingsUSD = sum(savings)

	s.SavingsPercentage = savingsPercentage(s.TotalBaselineCostUSD, s.TotalAN1CostUSD, s.TotalSavingsUSD)

	return s
}

// savingsPercentage is 100 * savings / baseline over the run totals, with a
// fallback through the AN1 cost total when no record reported savings_usd.
// A zero or absent baseline yields exactly 0.
func savingsPercentage(baseline, an1, savings *float64) float64 {
	if baseline == nil || *baseline <= 0 {
		return 0
	}
	if savings != nil {
		return 100 * *savings / *baseline
	}
	if an1 != nil {
		return 100 * (*baseline - *an1) / *baseline
	}
	return 0
}

func mean(values []float64) *float64 {
	if len(values) == 0 {
		return nil
	}
	var total float64
	for _, v := range values {
		total += v
	}
	m := total / float64(len(values))
	return &m
}

// percentile is nearest-rank (floor form) over the sorted values. The input
// slice is not modified.
func percentile(values []float64, p float64) *float64 {
	if len(values) == 0 {
		return nil
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	idx := int(float64(len(sorted)) * p)
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	v := sorted[idx]
	return &v
}

func sum(values []float64) *float64 {
	if len(values) == 0 {
		return nil
	}
	var total float64
	for _, v := range values {
		total += v
	}
	return &total
}
