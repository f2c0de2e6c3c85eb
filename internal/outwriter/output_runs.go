package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/abfolio/abfolio/internal/contract"
	"github.com/abfolio/abfolio/internal/parquet"
	"github.com/abfolio/abfolio/schema"
)

// WriteRunRecords outputs recorded aggregation runs, dispatching on the
// configured output format.
func WriteRunRecords(runs []schema.RunRecord, cfg *contract.Config) error {
	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, runs)
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			header := []string{"run_id", "start_time", "end_time", "total_experiments", "config_params"}
			return writeCSVWithHeader(w, header, func(csvWriter *csv.Writer) error {
				return writeRunCSVRows(csvWriter, runs)
			})
		}, "Wrote CSV")
	case schema.ParquetOut:
		if cfg.OutputFile == "" {
			return fmt.Errorf("parquet output requires --output-file since the format is binary")
		}
		return parquet.WriteRunsParquet(parquet.ConvertRunRecords(runs), cfg.OutputFile)
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeRunText(w, runs)
		}, "Wrote runs")
	}
}

// writeRunCSVRows writes one CSV row per run record.
func writeRunCSVRows(w *csv.Writer, runs []schema.RunRecord) error {
	for _, run := range runs {
		endTime := ""
		if run.EndTime != nil {
			endTime = run.EndTime.Format(time.RFC3339)
		}
		rec := []string{
			strconv.FormatInt(run.RunID, 10),
			run.StartTime.Format(time.RFC3339),
			endTime,
			strconv.Itoa(run.TotalExperiments),
			run.ConfigParams,
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	return nil
}

// writeRunText renders the human-readable run listing.
func writeRunText(w io.Writer, runs []schema.RunRecord) error {
	if len(runs) == 0 {
		_, err := fmt.Fprintln(w, "No recorded runs.")
		return err
	}
	for _, run := range runs {
		status := "in progress"
		if run.EndTime != nil {
			status = fmt.Sprintf("finished %s", run.EndTime.Format(time.RFC3339))
		}
		if _, err := fmt.Fprintf(w, "Run %d: started %s, %s, %d experiments\n",
			run.RunID, run.StartTime.Format(time.RFC3339), status, run.TotalExperiments); err != nil {
			return err
		}
	}
	return nil
}

// WriteCacheStatus renders the cache store status block.
func WriteCacheStatus(status schema.CacheStatus, cfg *contract.Config) error {
	if cfg.Output == schema.JSONOut {
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, status)
		}, "Wrote JSON")
	}
	return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
		fmt.Fprintf(w, "Backend: %s\n", status.Backend)
		fmt.Fprintf(w, "Connected: %t\n", status.Connected)
		fmt.Fprintf(w, "Total entries: %d\n", status.TotalEntries)
		if !status.LastEntryTime.IsZero() {
			fmt.Fprintf(w, "Last entry: %s\n", status.LastEntryTime.Format(time.RFC3339))
		}
		if !status.OldestEntryTime.IsZero() {
			fmt.Fprintf(w, "Oldest entry: %s\n", status.OldestEntryTime.Format(time.RFC3339))
		}
		if status.TableSizeBytes > 0 {
			fmt.Fprintf(w, "Table size: %d bytes\n", status.TableSizeBytes)
		}
		return nil
	}, "Wrote status")
}
