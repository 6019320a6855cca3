/*
PURPOSE:
  Defines the root Cobra command for the an1-bench CLI.
  Handles global flags, .env loading, and logger initialization.

REQUIREMENTS:
  User-specified:
  - Provide a CLI interface.
  - Support global flags like --config and --debug.

  Implementation-discovered:
  - Needs to expose an Execute() function for main.go.
  - .env is loaded before any command runs so AN1_* variables are visible.

ARCHITECTURE INTEGRATION:
  - Called by: cmd/an1-bench/main.go
  - Calls: Child commands (run, probe, derive)

ERROR HANDLING:
  - Returns error to main.go for exit code handling.

IMPLEMENTATION RULES:
  - Use `PersistentFlags()` for flags available to all subcommands.
  - Keep Run logic in subcommands.

USAGE:
  Called by main.go.

RELATED FILES:
  - cmd/an1-bench/main.go

MAINTENANCE:
  - Update when adding new global configuration options.
*/

package cli

import (
	"log/slog"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/daryltucker/an1-bench/internal/output"
)

var (
	// cfgFile stores the path to the config file (if specified via flag)
	cfgFile string
	isDebug bool

	rootCmd = &cobra.Command{
		Use:   "an1-bench",
		Short: "Benchmarking harness for the AN1 inference API",
		Long: `Issues a fixed sequence of infer_z requests against an AN1 endpoint and
produces reproducible latency and cost measurements. Use 'run --help' for options.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			_ = godotenv.Load()

			level := slog.LevelInfo
			if isDebug {
				level = slog.LevelDebug
			}
			output.Init(level)
		},
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./an1_bench.yaml)")
	rootCmd.PersistentFlags().BoolVar(&isDebug, "debug", false, "enable debug logging")
}
