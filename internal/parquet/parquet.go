// Package parquet provides data structures and functions for exporting
// experiment analytics to Parquet files using github.com/parquet-go/parquet-go.
package parquet

import (
	"fmt"
	"os"
	"time"

	"github.com/abfolio/abfolio/internal/contract"
	"github.com/abfolio/abfolio/schema"
	"github.com/parquet-go/parquet-go"
)

// ExperimentRow is the flattened Parquet projection of one experiment card.
type ExperimentRow struct {
	// ID is the platform identifier of the experiment
	ID string `parquet:"id,snappy"`

	// Name is the human-readable experiment name
	Name string `parquet:"name,snappy"`

	// Project is the project bucket; empty when unassigned
	Project string `parquet:"project,optional,snappy"`

	// Type is the allocation type (standard or multi-armed-bandit)
	Type string `parquet:"type,snappy"`

	// Verdict is the recorded outcome (won, lost, inconclusive)
	Verdict string `parquet:"verdict,snappy"`

	// PrimaryMetric is the goal metric name the lift was computed on (nullable)
	PrimaryMetric *string `parquet:"primary_metric,optional,snappy"`

	// Lift is the fractional lift on the primary metric (nullable)
	Lift *float64 `parquet:"lift,optional,snappy"`

	// LiftFormatted is the display rendering of the lift, e.g. "+15.0%"
	LiftFormatted string `parquet:"lift_formatted,snappy"`

	// Significant reports whether the lift cleared the significance bar
	Significant bool `parquet:"significant,snappy"`

	// SRMPassing reports whether the sample-ratio check passed
	SRMPassing bool `parquet:"srm_passing,snappy"`

	// GuardrailsRegressed reports whether any guardrail metric regressed
	GuardrailsRegressed bool `parquet:"guardrails_regressed,snappy"`

	// TotalUsers is the number of users in the latest result snapshot
	TotalUsers int64 `parquet:"total_users,snappy"`

	// DurationDays is the whole-day experiment duration (nullable)
	DurationDays *int32 `parquet:"duration_days,optional,snappy"`

	// DateStart is the raw start date string from the platform (nullable)
	DateStart *string `parquet:"date_start,optional,snappy"`

	// DateEnd is the raw end date string from the platform (nullable)
	DateEnd *string `parquet:"date_end,optional,snappy"`
}

// RunRow represents a single recorded aggregation run.
// This struct maps to the abfolio_runs database table.
type RunRow struct {
	// RunID is the unique identifier for this aggregation run
	RunID int64 `parquet:"run_id,snappy"`

	// StartTime is when the aggregation began
	StartTime time.Time `parquet:"start_time,snappy"`

	// EndTime is when the aggregation completed (nullable)
	EndTime *time.Time `parquet:"end_time,optional,snappy"`

	// TotalExperiments is the number of ended experiments aggregated
	TotalExperiments int32 `parquet:"total_experiments,snappy"`

	// ConfigParams contains the JSON-encoded run parameters (nullable)
	ConfigParams *string `parquet:"config_params,optional,snappy"`
}

// WriteExperimentsParquet writes a slice of ExperimentRow structs to a Parquet file.
func WriteExperimentsParquet(data []ExperimentRow, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	// The schema is automatically derived from the ExperimentRow struct tags
	writer := parquet.NewGenericWriter[ExperimentRow](file)
	defer func() { _ = writer.Close() }()

	if _, err := writer.Write(data); err != nil {
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}

	return nil
}

// WriteRunsParquet writes a slice of RunRow structs to a Parquet file.
func WriteRunsParquet(data []RunRow, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	// The schema is automatically derived from the RunRow struct tags
	writer := parquet.NewGenericWriter[RunRow](file)
	defer func() { _ = writer.Close() }()

	if _, err := writer.Write(data); err != nil {
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}

	return nil
}

// ConvertExperimentCards converts schema.ExperimentCard to ExperimentRow for Parquet export.
func ConvertExperimentCards(cards []schema.ExperimentCard) []ExperimentRow {
	result := make([]ExperimentRow, len(cards))
	for i, card := range cards {
		row := ExperimentRow{
			ID:                  card.ID,
			Name:                card.Name,
			Type:                string(card.Type),
			Verdict:             contract.GetPlainVerdictLabel(card.Verdict),
			LiftFormatted:       card.LiftFormatted,
			SRMPassing:          card.SRMPassing,
			GuardrailsRegressed: card.GuardrailsRegressed,
			TotalUsers:          int64(card.TotalUsers),
		}
		if card.Project != "" {
			row.Project = card.Project
		}
		if card.PrimaryMetric != nil {
			name := card.PrimaryMetric.Name
			lift := card.PrimaryMetric.Lift
			row.PrimaryMetric = &name
			row.Lift = &lift
			row.Significant = card.PrimaryMetric.Significant
		}
		if card.DurationDays != nil {
			days := int32(*card.DurationDays)
			row.DurationDays = &days
		}
		if card.DateStart != "" {
			start := card.DateStart
			row.DateStart = &start
		}
		if card.DateEnd != "" {
			end := card.DateEnd
			row.DateEnd = &end
		}
		result[i] = row
	}
	return result
}

// ConvertRunRecords converts schema.RunRecord to RunRow for Parquet export.
func ConvertRunRecords(records []schema.RunRecord) []RunRow {
	result := make([]RunRow, len(records))
	for i, record := range records {
		row := RunRow{
			RunID:            record.RunID,
			StartTime:        record.StartTime,
			EndTime:          record.EndTime,
			TotalExperiments: int32(record.TotalExperiments),
		}
		if record.ConfigParams != "" {
			params := record.ConfigParams
			row.ConfigParams = &params
		}
		result[i] = row
	}
	return result
}
