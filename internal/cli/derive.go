package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/daryltucker/an1-bench/internal/zvec"
)

var (
	deriveDim  int
	deriveHead int
)

var deriveCmd = &cobra.Command{
	Use:   "derive <text>",
	Short: "Print the deterministic z vector derived from a text",
	Long: `Derives the z vector for the given text and prints it to stdout.
The same text always yields the same vector on any machine, so the output can
be diffed across hosts to verify reproducibility.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		z, err := zvec.New(deriveDim).Derive(args[0])
		if err != nil {
			return err
		}

		if deriveHead > 0 && deriveHead < len(z) {
			z = z[:deriveHead]
		}

		values := make([]string, len(z))
		for i, v := range z {
			values[i] = fmt.Sprintf("%.17g", v)
		}
		fmt.Printf("[%s]\n", strings.Join(values, ", "))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(deriveCmd)

	deriveCmd.Flags().IntVar(&deriveDim, "dim", zvec.DefaultDim, "Vector dimension")
	deriveCmd.Flags().IntVar(&deriveHead, "head", 0, "Print only the first N values (0 = all)")
}
