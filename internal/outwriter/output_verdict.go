package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/abfolio/abfolio/internal/contract"
	"github.com/abfolio/abfolio/schema"
)

// verdictView is the JSON projection of a single-experiment verdict.
type verdictView struct {
	ID      string               `json:"id"`
	Name    string               `json:"name"`
	Status  string               `json:"status"`
	Result  schema.VerdictResult `json:"result"`
	Project string               `json:"project,omitempty"`
}

// WriteVerdictResult outputs a single experiment verdict, dispatching based on
// the output format configured. Parquet is not offered here; a single row has
// no batch to amortize the format over, so it falls back to JSON.
func WriteVerdictResult(exp schema.Experiment, result schema.VerdictResult, cfg *contract.Config) error {
	switch cfg.Output {
	case schema.JSONOut, schema.ParquetOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, verdictView{
				ID:      exp.ID,
				Name:    exp.Name,
				Status:  string(exp.Status),
				Result:  result,
				Project: exp.Project,
			})
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			header := []string{
				"id", "name", "verdict", "primary_metric", "lift", "lift_formatted",
				"significant", "direction", "srm_passing", "guardrails_regressed", "total_users",
			}
			return writeCSVWithHeader(w, header, func(csvWriter *csv.Writer) error {
				return writeVerdictCSVRow(csvWriter, exp, result)
			})
		}, "Wrote CSV")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeVerdictText(w, exp, result, cfg)
		}, "Wrote verdict")
	}
}

// writeVerdictCSVRow writes the single verdict row.
func writeVerdictCSVRow(w *csv.Writer, exp schema.Experiment, result schema.VerdictResult) error {
	metricName := ""
	lift := ""
	liftFormatted := "N/A"
	significant := "false"
	direction := ""
	if result.PrimaryMetric != nil {
		metricName = result.PrimaryMetric.Name
		lift = strconv.FormatFloat(result.PrimaryMetric.Lift, 'f', -1, 64)
		liftFormatted = fmt.Sprintf("%+.1f%%", result.PrimaryMetric.Lift*100)
		significant = strconv.FormatBool(result.PrimaryMetric.Significant)
		direction = string(result.PrimaryMetric.Direction)
	}
	return w.Write([]string{
		exp.ID,
		exp.Name,
		contract.GetPlainVerdictLabel(result.Verdict),
		metricName,
		lift,
		liftFormatted,
		significant,
		direction,
		strconv.FormatBool(result.SRMPassing),
		strconv.FormatBool(result.GuardrailsRegressed),
		strconv.Itoa(result.TotalUsers),
	})
}

// writeVerdictText renders the human-readable verdict block.
func writeVerdictText(w io.Writer, exp schema.Experiment, result schema.VerdictResult, cfg *contract.Config) error {
	verdict := contract.GetPlainVerdictLabel(result.Verdict)
	if cfg.UseColors {
		verdict = contract.GetColorVerdictLabel(result.Verdict)
	}

	if _, err := fmt.Fprintf(w, "%s (%s)\n", exp.Name, exp.ID); err != nil {
		return err
	}
	fmt.Fprintf(w, "  Verdict: %s\n", verdict)
	if result.PrimaryMetric != nil {
		pm := result.PrimaryMetric
		fmt.Fprintf(w, "  Primary metric: %s\n", pm.Name)
		fmt.Fprintf(w, "  Lift: %+.1f%% (%s, significant: %t)\n", pm.Lift*100, pm.Direction, pm.Significant)
	} else {
		fmt.Fprintln(w, "  Primary metric: no analyzable goal metric")
	}
	fmt.Fprintf(w, "  Health: %s\n", contract.GetHealthLabel(result.SRMPassing, result.GuardrailsRegressed, cfg.UseColors))
	if result.SRMPValue != nil {
		fmt.Fprintf(w, "  SRM p-value: %.4f\n", *result.SRMPValue)
	}
	fmt.Fprintf(w, "  Total users: %d\n", result.TotalUsers)
	if exp.Hypothesis != "" {
		fmt.Fprintf(w, "  Hypothesis: %s\n", exp.Hypothesis)
	}
	_, err := fmt.Fprintln(w)
	return err
}
