/*
PURPOSE:
  Defines the 'probe' subcommand.
  Sends a single infer_z request to validate connectivity and credentials
  before committing to a full run.

ARCHITECTURE INTEGRATION:
  - Calls: internal/engine.NewClient().Execute()
  - Uses: internal/config, internal/zvec

ERROR HANDLING:
  - Prints the classified outcome; exits non-zero when the probe fails.

USAGE:
  an1-bench probe --url https://api.example.com/an1

RELATED FILES:
  - internal/engine/client.go
*/

package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/daryltucker/an1-bench/internal/engine"
	"github.com/daryltucker/an1-bench/internal/model"
	"github.com/daryltucker/an1-bench/internal/output"
	"github.com/daryltucker/an1-bench/internal/zvec"
)

// probeText is a fixed input so probe outcomes are comparable across runs.
const probeText = "an1-bench connectivity probe"

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Send a single request to validate endpoint and credentials",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := resolveConfig(cmd)
		if err != nil {
			return err
		}

		z, err := zvec.New(cfg.Dim).Derive(probeText)
		if err != nil {
			return err
		}

		output.Logger.Info("Probing endpoint", "url", cfg.URL)
		client := engine.NewClient(cfg)
		out := client.Execute(cmd.Context(), model.Input{ID: "probe", Text: probeText}, z)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(out); err != nil {
			return err
		}

		if !out.OK {
			return fmt.Errorf("probe failed: %s", out.Error)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(probeCmd)

	probeCmd.Flags().StringVar(&urlOverride, "url", "", "AN1 endpoint URL (overrides config and AN1_API_URL)")
	probeCmd.Flags().IntVar(&timeoutOverride, "timeout", 0, "Per-attempt timeout in seconds")
	probeCmd.Flags().StringVar(&modeOverride, "expected-mode", "", "Expected response mode (mismatch is a warning)")
}
