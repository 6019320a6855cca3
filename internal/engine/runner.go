/*
PURPOSE:
  High-level runner that drives the benchmark: derives a z vector per input,
  executes the retried request, and collects one Outcome per input in order.

REQUIREMENTS:
  User-specified:
  - A failure on input i must never prevent processing of input i+1.
  - Output order is input order (load-bearing for cross-run diffing).
  - Optional truncation to a configured maximum request count.

  Implementation-discovered:
  - All vectors are derived up front so a dimension-invariant violation
    aborts before any request is sent and before any artifact is written.
  - Optional bounded worker pool; outcomes are index-stamped so completion
    order never leaks into the record list.

ARCHITECTURE INTEGRATION:
  - Called by: internal/cli/run.go
  - Uses: internal/engine/client.go, internal/zvec, internal/config

ERROR HANDLING:
  - Run returns an error only for fatal classes (vector invariant,
    cancelled context on the limiter). Request failures are data.

IMPLEMENTATION RULES:
  - Aggregation happens only after every input's outcome exists; the
    runner returns the complete ordered list, nothing partial.

USAGE:
  r := engine.NewRunner(cfg)
  outcomes, err := r.Run(ctx, inputs)

RELATED FILES:
  - internal/engine/client.go
  - internal/metrics/summary.go

MAINTENANCE:
  - Update iteration logic if per-input scheduling policies are added.
*/

package engine

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/time/rate"

	"github.com/daryltucker/an1-bench/internal/config"
	"github.com/daryltucker/an1-bench/internal/model"
	"github.com/daryltucker/an1-bench/internal/output"
	"github.com/daryltucker/an1-bench/internal/zvec"
)

// Deriver converts input text into a z vector. Satisfied by zvec.Deriver;
// tests substitute corrupted implementations.
type Deriver interface {
	Derive(text string) ([]float64, error)
}

// Runner executes the full input sequence against the endpoint.
type Runner struct {
	cfg     *config.Config
	client  *Client
	deriver Deriver
	limiter *rate.Limiter
}

// NewRunner creates a Runner wired to the real deriver and client.
func NewRunner(cfg *config.Config) *Runner {
	r := &Runner{
		cfg:     cfg,
		client:  NewClient(cfg),
		deriver: zvec.New(cfg.Dim),
	}
	if cfg.RateLimit > 0 {
		r.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), 1)
	}
	return r
}

// Run processes the inputs in order and returns one Outcome per input,
// in input order, regardless of individual failures.
func (r *Runner) Run(ctx context.Context, inputs []model.Input) ([]model.Outcome, error) {
	if r.cfg.MaxRequests > 0 && r.cfg.MaxRequests < len(inputs) {
		output.Logger.Info("Truncating input set", "total", len(inputs), "limit", r.cfg.MaxRequests)
		inputs = inputs[:r.cfg.MaxRequests]
	}

	// Derive everything first: a wrong-length vector is a defect, and the
	// run must abort before a single malformed payload goes out.
	vectors := make([][]float64, len(inputs))
	for i, in := range inputs {
		z, err := r.deriver.Derive(in.Text)
		if err != nil {
			return nil, fmt.Errorf("derive vector for input %s: %w", in.ID, err)
		}
		if len(z) != r.cfg.Dim {
			return nil, fmt.Errorf("derive vector for input %s: %w: got %d, want %d",
				in.ID, zvec.ErrDimension, len(z), r.cfg.Dim)
		}
		vectors[i] = z
	}

	if r.cfg.Concurrency > 1 {
		return r.runPool(ctx, inputs, vectors)
	}
	return r.runSequential(ctx, inputs, vectors)
}

func (r *Runner) runSequential(ctx context.Context, inputs []model.Input, vectors [][]float64) ([]model.Outcome, error) {
	outcomes := make([]model.Outcome, 0, len(inputs))

	for i, in := range inputs {
		if err := r.wait(ctx); err != nil {
			return nil, err
		}

		out := r.client.Execute(ctx, in, vectors[i])
		outcomes = append(outcomes, out)

		if out.OK {
			output.Logger.Info("Request complete",
				"input", in.ID, "status", out.StatusCode, "elapsed_ms", fmt.Sprintf("%.2f", out.ClientElapsedMS))
		} else {
			output.Logger.Error("Request failed",
				"input", in.ID, "status", out.StatusCode, "error", out.Error)
		}
	}

	return outcomes, nil
}

// runPool fans inputs out to a bounded worker pool. Each outcome is placed
// at its input's index, so the returned order is input order even when
// completion order differs.
func (r *Runner) runPool(ctx context.Context, inputs []model.Input, vectors [][]float64) ([]model.Outcome, error) {
	outcomes := make([]model.Outcome, len(inputs))
	sem := make(chan struct{}, r.cfg.Concurrency)
	var wg sync.WaitGroup

	for i := range inputs {
		if err := r.wait(ctx); err != nil {
			wg.Wait()
			return nil, err
		}

		wg.Add(1)
		sem <- struct{}{}
		go func(idx int) {
			defer wg.Done()
			defer func() { <-sem }()

			out := r.client.Execute(ctx, inputs[idx], vectors[idx])
			outcomes[idx] = out

			if out.OK {
				output.Logger.Info("Request complete",
					"input", inputs[idx].ID, "status", out.StatusCode, "elapsed_ms", fmt.Sprintf("%.2f", out.ClientElapsedMS))
			} else {
				output.Logger.Error("Request failed",
					"input", inputs[idx].ID, "status", out.StatusCode, "error", out.Error)
			}
		}(i)
	}

	wg.Wait()
	return outcomes, nil
}

// wait applies the optional client-side request rate limit.
func (r *Runner) wait(ctx context.Context) error {
	if r.limiter == nil {
		return nil
	}
	if err := r.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter interrupted: %w", err)
	}
	return nil
}
