package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/abfolio/abfolio/internal/contract"
	"github.com/abfolio/abfolio/internal/parquet"
	"github.com/abfolio/abfolio/schema"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// WriteStatsReport outputs the portfolio report, dispatching based on the output format configured.
func WriteStatsReport(report *schema.StatsReport, cfg *contract.Config, duration time.Duration) error {
	// Create formatters using helper
	fmtFloat, fmtRate := createFormatters(cfg.Precision)

	// Dispatcher: Handle different output formats
	switch cfg.Output {
	case schema.JSONOut:
		if err := writeStatsJSONResults(report, cfg); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writeStatsCSVResults(report, cfg, fmtFloat); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	case schema.ParquetOut:
		if err := writeStatsParquetResults(report, cfg); err != nil {
			return fmt.Errorf("error writing Parquet output: %w", err)
		}
	default:
		// Default to human-readable report
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeStatsText(report, cfg, fmtFloat, fmtRate, duration, w)
		}, "Wrote report")
	}
	return nil
}

// writeStatsJSONResults handles opening the file and calling the JSON writer.
func writeStatsJSONResults(report *schema.StatsReport, cfg *contract.Config) error {
	return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
		return writeJSON(w, report)
	}, "Wrote JSON")
}

// writeStatsCSVResults handles opening the file and calling the CSV writer.
func writeStatsCSVResults(report *schema.StatsReport, cfg *contract.Config, fmtFloat func(float64) string) error {
	return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
		header := []string{
			"rank",
			"id",
			"name",
			"project",
			"type",
			"verdict",
			"primary_metric",
			"lift",
			"lift_formatted",
			"significant",
			"srm_passing",
			"guardrails_regressed",
			"total_users",
			"duration_days",
			"date_start",
			"date_end",
		}
		return writeCSVWithHeader(w, header, func(csvWriter *csv.Writer) error {
			return writeCSVRowsForCards(csvWriter, report.Stats.Experiments, cfg, fmtFloat)
		})
	}, "Wrote CSV")
}

// writeStatsParquetResults converts the experiment cards and writes them as Parquet.
func writeStatsParquetResults(report *schema.StatsReport, cfg *contract.Config) error {
	if cfg.OutputFile == "" {
		return fmt.Errorf("parquet output requires --output-file since the format is binary")
	}
	rows := parquet.ConvertExperimentCards(report.Stats.Experiments)
	if err := parquet.WriteExperimentsParquet(rows, cfg.OutputFile); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "💾 Wrote Parquet to %s\n", cfg.OutputFile)
	return nil
}

// writeCSVRowsForCards writes one CSV row per experiment card.
func writeCSVRowsForCards(w *csv.Writer, cards []schema.ExperimentCard, cfg *contract.Config, fmtFloat func(float64) string) error {
	limit := min(cfg.ResultLimit, len(cards))
	for i, card := range cards[:limit] {
		metricName := ""
		lift := ""
		significant := "false"
		if card.PrimaryMetric != nil {
			metricName = card.PrimaryMetric.Name
			lift = fmtFloat(card.PrimaryMetric.Lift * 100)
			significant = strconv.FormatBool(card.PrimaryMetric.Significant)
		}
		durationDays := ""
		if card.DurationDays != nil {
			durationDays = strconv.Itoa(*card.DurationDays)
		}
		rec := []string{
			strconv.Itoa(i + 1),
			card.ID,
			card.Name,
			card.Project,
			string(card.Type),
			contract.GetPlainVerdictLabel(card.Verdict),
			metricName,
			lift,
			card.LiftFormatted,
			significant,
			strconv.FormatBool(card.SRMPassing),
			strconv.FormatBool(card.GuardrailsRegressed),
			strconv.Itoa(card.TotalUsers),
			durationDays,
			card.DateStart,
			card.DateEnd,
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	return nil
}

// writeStatsText generates and writes the human-readable report.
func writeStatsText(report *schema.StatsReport, cfg *contract.Config, fmtFloat func(float64) string, fmtRate func(*float64) string, duration time.Duration, writer io.Writer) error {
	stats := report.Stats

	// 1. Portfolio summary
	if _, err := fmt.Fprintf(writer, "Experiment Portfolio (%d ended)\n", stats.Total); err != nil {
		return err
	}
	fmt.Fprintf(writer, "  Verdicts: %d won / %d lost / %d inconclusive (win rate: %s)\n",
		stats.ByVerdict.Won, stats.ByVerdict.Lost, stats.ByVerdict.Inconclusive, fmtRate(stats.WinRate))
	fmt.Fprintf(writer, "  Users: %d total across %d experiments with results", stats.TotalUsers, stats.ExperimentsWithResults)
	if stats.AvgUsersPerExperiment != nil {
		fmt.Fprintf(writer, " (avg %d/experiment)", *stats.AvgUsersPerExperiment)
	}
	fmt.Fprintln(writer)
	if stats.AvgDurationDays != nil {
		fmt.Fprintf(writer, "  Duration: avg %s days", fmtFloat(*stats.AvgDurationDays))
		if stats.MedianDurationDays != nil {
			fmt.Fprintf(writer, ", median %s days", fmtFloat(*stats.MedianDurationDays))
		}
		fmt.Fprintln(writer)
	}
	if stats.AvgLiftWinners != nil {
		fmt.Fprintf(writer, "  Winner lift: avg %s, median %s\n",
			fmtRate(stats.AvgLiftWinners), fmtRate(stats.MedianLiftWinners))
	}
	fmt.Fprintf(writer, "  Health: %d SRM failures (%s), %d guardrail regressions (%s)\n",
		stats.SRMFailures, fmtRate(stats.SRMFailureRate),
		stats.GuardrailRegressions, fmtRate(stats.GuardrailRegressionRate))
	fmt.Fprintf(writer, "  Types: %d standard, %d bandit\n", stats.ByType.Standard, stats.ByType.Bandit)
	fmt.Fprintln(writer)

	// 2. Experiment table
	if err := writeCardTable(stats.Experiments, cfg, writer); err != nil {
		return err
	}

	// 3. Breakdowns
	writeBuckets(writer, "By project", stats.ByProject, fmtRate)
	writeBuckets(writer, "By tag", stats.ByTag, fmtRate)
	writeMonthSection(writer, stats.ByMonth)

	// 4. Top movers
	writeMoverSection(writer, "Top winners", stats.TopWinners)
	writeMoverSection(writer, "Top losers", stats.TopLosers)

	// 5. SRM issues
	if len(stats.SRMIssues) > 0 {
		fmt.Fprintln(writer, "SRM issues:")
		for _, issue := range stats.SRMIssues {
			if issue.SRMPValue != nil {
				fmt.Fprintf(writer, "  %s (%s): p=%.4f\n", issue.Name, issue.ID, *issue.SRMPValue)
			} else {
				fmt.Fprintf(writer, "  %s (%s)\n", issue.Name, issue.ID)
			}
		}
		fmt.Fprintln(writer)
	}

	// 6. Fetch summary footer
	fmt.Fprintf(writer, "Fetched %d experiments (%d draft and %d running excluded)\n",
		report.Fetch.TotalFetched, report.Fetch.ExcludedDraft, report.Fetch.ExcludedRunning)
	if _, err := fmt.Fprintf(writer, "Analysis completed in %v. Cache backend: %s\n", duration, cfg.CacheBackend); err != nil {
		return err
	}
	return nil
}

// writeCardTable renders the per-experiment table, capped at the result limit.
func writeCardTable(cards []schema.ExperimentCard, cfg *contract.Config, writer io.Writer) error {
	table := tablewriter.NewWriter(writer)

	// 1. Define Headers
	headers := []string{"Rank", "Name", "Verdict", "Lift", "Users", "Days", "Health"}
	table.Header(headers)

	// 2. Configure Separators/Borders to match a minimal look
	table.Configure(func(tcfg *tablewriter.Config) {
		tcfg.Row.Alignment.Global = tw.AlignRight
	})

	// 3. Populate Rows
	limit := min(cfg.ResultLimit, len(cards))
	nameWidth := getMaxTableNameWidth(cfg)
	var data [][]string
	for i, card := range cards[:limit] {
		verdict := contract.GetPlainVerdictLabel(card.Verdict)
		if cfg.UseColors {
			verdict = contract.GetColorVerdictLabel(card.Verdict)
		}
		days := "N/A"
		if card.DurationDays != nil {
			days = strconv.Itoa(*card.DurationDays)
		}
		row := []string{
			strconv.Itoa(i + 1),                         // Rank
			contract.TruncateName(card.Name, nameWidth), // Name
			verdict,                          // Verdict
			card.LiftFormatted,               // Lift
			strconv.Itoa(card.TotalUsers),    // Users
			days,                             // Days
			contract.GetHealthLabel(card.SRMPassing, card.GuardrailsRegressed, cfg.UseColors), // Health
		}
		data = append(data, row)
	}

	// 4. Render the table
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(writer, "Showing %d of %d ended experiments\n\n", limit, len(cards)); err != nil {
		return err
	}
	return nil
}

// writeBuckets renders a project or tag breakdown with stable key order.
func writeBuckets(w io.Writer, title string, buckets map[string]*schema.BucketStats, fmtRate func(*float64) string) {
	if len(buckets) == 0 {
		return
	}
	fmt.Fprintf(w, "%s:\n", title)
	keys := make([]string, 0, len(buckets))
	for key := range buckets {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		b := buckets[key]
		fmt.Fprintf(w, "  %s: %d experiments, %d won, %d lost (win rate: %s)\n",
			key, b.Count, b.Won, b.Lost, fmtRate(b.WinRate))
	}
	fmt.Fprintln(w)
}

// writeMonthSection renders the per-month breakdown in chronological order.
func writeMonthSection(w io.Writer, months map[string]*schema.MonthStats) {
	if len(months) == 0 {
		return
	}
	fmt.Fprintln(w, "By month:")
	keys := make([]string, 0, len(months))
	for key := range months {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		m := months[key]
		fmt.Fprintf(w, "  %s: %d ended, %d won, %d lost\n", key, m.Ended, m.Won, m.Lost)
	}
	fmt.Fprintln(w)
}

// writeMoverSection renders a top winners or losers list.
func writeMoverSection(w io.Writer, title string, movers []schema.TopMover) {
	if len(movers) == 0 {
		return
	}
	fmt.Fprintf(w, "%s:\n", title)
	for i, mover := range movers {
		fmt.Fprintf(w, "  %d. %s: %s on %s\n", i+1, mover.Name, mover.LiftFormatted, mover.Metric)
	}
	fmt.Fprintln(w)
}
