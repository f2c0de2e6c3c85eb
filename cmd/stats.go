package cmd

import (
	"github.com/abfolio/abfolio/core"
	"github.com/abfolio/abfolio/internal/contract"
	"github.com/spf13/cobra"
)

// statsCmd performs portfolio-wide outcome analysis.
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show aggregated outcomes for all ended experiments.",
	Long: `Fetch every ended experiment and aggregate it into portfolio statistics.

Computes a verdict for each experiment and rolls the portfolio up, helping you:
- See how many experiments won, lost or ended inconclusive
- Track the win rate across projects, tags and months
- Spot unhealthy experiments (SRM failures, guardrail regressions)
- Rank the biggest winners and losers by primary-metric lift
- Measure total user exposure and typical experiment duration

Draft and running experiments are counted but excluded from aggregation.

Examples:
  # Analyze the whole portfolio
  abfolio stats

  # Restrict to one project
  abfolio stats --project growth

  # Only experiments carrying a tag
  abfolio stats --tag q3-roadmap

  # Export cards to CSV for tracking
  abfolio stats --output csv --output-file portfolio.csv

  # Export cards to Parquet for DuckDB/pandas
  abfolio stats --output parquet --output-file portfolio.parquet`,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteStats(rootCtx, cfg, cacheManager); err != nil {
			contract.LogFatal("Cannot run stats analysis", err)
		}
	},
}
