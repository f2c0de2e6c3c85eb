package cmd

import (
	"github.com/abfolio/abfolio/core"
	"github.com/abfolio/abfolio/internal/contract"
	"github.com/spf13/cobra"
)

// verdictCmd computes the outcome of a single experiment.
var verdictCmd = &cobra.Command{
	Use:   "verdict <experiment-id>",
	Short: "Show the verdict and health checks for one experiment.",
	Long: `Fetch a single experiment and compute its outcome in detail.

Shows:
- The verdict (won, lost or inconclusive) from the platform result
- Primary-metric lift with significance and direction
- Sample ratio mismatch (SRM) check with the observed p-value
- Guardrail regressions on non-control variations
- Total user exposure and the stated hypothesis

Examples:
  # Inspect one experiment
  abfolio verdict exp_a1b2c3

  # Machine-readable output for scripts
  abfolio verdict exp_a1b2c3 --output json`,
	Args:    cobra.ExactArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, args []string) {
		if err := core.ExecuteVerdict(rootCtx, cfg, args[0], cacheManager); err != nil {
			contract.LogFatal("Cannot compute verdict", err)
		}
	},
}
