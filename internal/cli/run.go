/*
PURPOSE:
  Defines the 'run' subcommand.
  Executes the full benchmark: load inputs, run the loop, aggregate, persist.

REQUIREMENTS:
  User-specified:
  - Config resolution order: file < AN1_* environment < flags.
  - Both artifacts are written at the end of a completed run; fatal
    configuration or invariant errors write nothing and exit non-zero.

  Implementation-discovered:
  - Artifacts are labeled by the expected mode (or "run") and stamped
    with a per-run uuid so repeated runs stay attributable.

ARCHITECTURE INTEGRATION:
  - Calls: internal/input, internal/engine, internal/metrics, internal/output
  - Uses: internal/config

ERROR HANDLING:
  - Returns error if config validation, input loading, the run loop, or
    artifact writing fails.

IMPLEMENTATION RULES:
  - Setup flags in init().
  - Logic: Load Config -> Env -> Flag overrides -> Validate -> Run ->
    Summarize -> Persist.

USAGE:
  an1-bench run --url https://api.example.com/an1 --limit 10

RELATED FILES:
  - internal/cli/root.go
  - internal/engine/runner.go

MAINTENANCE:
  - Update when adding new CLI overrides.
*/

package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/daryltucker/an1-bench/internal/config"
	"github.com/daryltucker/an1-bench/internal/engine"
	"github.com/daryltucker/an1-bench/internal/input"
	"github.com/daryltucker/an1-bench/internal/metrics"
	"github.com/daryltucker/an1-bench/internal/model"
	"github.com/daryltucker/an1-bench/internal/output"
)

var (
	urlOverride     string
	dataOverride    string
	outputOverride  string
	limitOverride   int
	timeoutOverride int
	modeOverride    string
	concurrencyFlag int
	rateLimitFlag   float64
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the benchmark against the configured endpoint",
	Long: `Executes the full benchmark against the AN1 endpoint:
1. Derivation: every input text is converted to a deterministic 256-float z vector.
2. Execution: one infer_z request per input, in input order, with bounded
   retry/backoff for transient failures (429, 503, timeouts, connection errors).
3. Aggregation: latency percentiles, cost totals and the savings percentage are
   computed over the collected outcomes.

Per-request rows go to results_<label>.csv (and .jsonl); the aggregate goes to
summary_<label>.json. The label is the expected mode, or "run" when unset.`,
	Example: `  # Run with the endpoint from AN1_API_URL (or .env)
  an1-bench run

  # Dry subset: first 10 inputs only
  an1-bench run --url https://api.example.com/an1 --limit 10

  # Label artifacts and warn on mode drift
  an1-bench run --expected-mode active

  # Four requests in flight, capped at 2 requests/second
  an1-bench run --concurrency 4 --rate-limit 2`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := resolveConfig(cmd)
		if err != nil {
			return err
		}

		runID := uuid.NewString()
		output.Logger.Info("Starting benchmark",
			"run_id", runID, "url", cfg.URL, "label", cfg.Label(), "timeout", cfg.Timeout)

		inputs, err := input.Load(cfg.DataFile)
		if err != nil {
			return err
		}
		output.Logger.Info("Loaded inputs", "file", cfg.DataFile, "count", len(inputs))

		start := time.Now()
		runner := engine.NewRunner(cfg)
		outcomes, err := runner.Run(cmd.Context(), inputs)
		if err != nil {
			return err
		}

		summary := metrics.Summarize(outcomes)
		summary.RunID = runID
		summary.Label = cfg.Label()

		if err := persist(cfg, outcomes, summary); err != nil {
			return err
		}

		logSummary(summary, time.Since(start))
		return nil
	},
}

// resolveConfig layers the config file, AN1_* environment and flag overrides,
// then validates the result. Nothing else in the process reads ambient state.
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnv()

	if urlOverride != "" {
		cfg.URL = urlOverride
	}
	if dataOverride != "" {
		cfg.DataFile = dataOverride
	}
	if outputOverride != "" {
		cfg.OutputDir = outputOverride
	}
	if cmd.Flags().Changed("limit") {
		cfg.MaxRequests = limitOverride
	}
	if cmd.Flags().Changed("timeout") {
		cfg.Timeout = time.Duration(timeoutOverride) * time.Second
	}
	if modeOverride != "" {
		cfg.ExpectedMode = modeOverride
	}
	if cmd.Flags().Changed("concurrency") {
		cfg.Concurrency = concurrencyFlag
	}
	if cmd.Flags().Changed("rate-limit") {
		cfg.RateLimit = rateLimitFlag
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// persist writes the per-request rows and the summary document.
func persist(cfg *config.Config, outcomes []model.Outcome, summary model.Summary) error {
	if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory %s: %w", cfg.OutputDir, err)
	}
	paths := output.PathsFor(cfg.OutputDir, cfg.Label())

	csvWriter, err := output.NewCSVWriter(paths.CSV)
	if err != nil {
		return fmt.Errorf("failed to init CSV writer at %s: %w", paths.CSV, err)
	}
	defer csvWriter.Close()

	jsonlWriter, err := output.NewJSONLWriter(paths.JSONL)
	if err != nil {
		return fmt.Errorf("failed to init JSONL writer at %s: %w", paths.JSONL, err)
	}
	defer jsonlWriter.Close()

	for _, out := range outcomes {
		if err := csvWriter.Write(out); err != nil {
			return fmt.Errorf("failed to write result to CSV: %w", err)
		}
		if err := jsonlWriter.Write(out); err != nil {
			return fmt.Errorf("failed to write result to JSONL: %w", err)
		}
	}

	if err := output.WriteSummary(paths.Summary, summary); err != nil {
		return err
	}

	output.Logger.Info("Results written", "csv", paths.CSV, "jsonl", paths.JSONL, "summary", paths.Summary)
	return nil
}

func logSummary(s model.Summary, elapsed time.Duration) {
	output.Logger.Info("Benchmark complete",
		"run_id", s.RunID,
		"elapsed", elapsed.Round(time.Millisecond),
		"total", s.TotalRequests,
		"ok", s.OKRequests,
	)
	if s.ClientLatencyMean != nil {
		output.Logger.Info("Wall-clock latency",
			"mean_ms", fmt.Sprintf("%.2f", *s.ClientLatencyMean),
			"p50_ms", fmtPtr(s.ClientLatencyP50),
			"p95_ms", fmtPtr(s.ClientLatencyP95),
		)
	}
	if s.APILatencyMean != nil {
		output.Logger.Info("API-reported latency",
			"mean_ms", fmt.Sprintf("%.2f", *s.APILatencyMean),
			"p50_ms", fmtPtr(s.APILatencyP50),
			"p95_ms", fmtPtr(s.APILatencyP95),
		)
	}
	if s.TotalBaselineCostUSD != nil {
		output.Logger.Info("Cost",
			"baseline_usd", fmt.Sprintf("%.6f", *s.TotalBaselineCostUSD),
			"an1_usd", fmtPtr6(s.TotalAN1CostUSD),
			"savings_usd", fmtPtr6(s.TotalSavingsUSD),
			"savings_pct", fmt.Sprintf("%.1f", s.SavingsPercentage),
		)
	}
}

func fmtPtr(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", *v)
}

func fmtPtr6(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.6f", *v)
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&urlOverride, "url", "", "AN1 endpoint URL (overrides config and AN1_API_URL)")
	runCmd.Flags().StringVar(&dataOverride, "data", "", "Path to the input dataset JSON")
	runCmd.Flags().StringVarP(&outputOverride, "output-dir", "o", "", "Output directory for results")
	runCmd.Flags().IntVar(&limitOverride, "limit", 0, "Maximum number of requests (0 = full input set)")
	runCmd.Flags().IntVar(&timeoutOverride, "timeout", 0, "Per-attempt timeout in seconds")
	runCmd.Flags().StringVar(&modeOverride, "expected-mode", "", "Expected response mode (labels artifacts; mismatch is a warning)")
	runCmd.Flags().IntVar(&concurrencyFlag, "concurrency", 1, "Number of requests in flight (1 = strictly sequential)")
	runCmd.Flags().Float64Var(&rateLimitFlag, "rate-limit", 0, "Client-side request rate limit in requests/second (0 = unlimited)")
}
