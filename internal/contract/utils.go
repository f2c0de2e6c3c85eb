package contract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/abfolio/abfolio/schema"
	"github.com/fatih/color"
)

// Color variables for console output.
var (
	WonColor       = color.New(color.FgGreen, color.Bold) // a recorded win
	LostColor      = color.New(color.FgRed, color.Bold)   // a recorded loss
	FlatColor      = color.New(color.FgYellow)            // inconclusive outcome
	UnhealthyColor = color.New(color.FgMagenta)           // SRM or guardrail issue
)

// GetPlainVerdictLabel returns the plain text label for a verdict. This is the
// core logic used for CSV, JSON, and table printing.
func GetPlainVerdictLabel(v schema.Verdict) string {
	switch v {
	case schema.WonVerdict:
		return "Won"
	case schema.LostVerdict:
		return "Lost"
	default:
		return "Inconclusive"
	}
}

// GetColorVerdictLabel returns a colored verdict label for console output.
func GetColorVerdictLabel(v schema.Verdict) string {
	text := GetPlainVerdictLabel(v)
	switch v {
	case schema.WonVerdict:
		return WonColor.Sprint(text)
	case schema.LostVerdict:
		return LostColor.Sprint(text)
	default:
		return FlatColor.Sprint(text)
	}
}

// GetHealthLabel renders the health column for a card: SRM failures dominate
// guardrail regressions, and a healthy experiment shows "OK".
func GetHealthLabel(srmPassing, guardrailsRegressed, useColors bool) string {
	var text string
	switch {
	case !srmPassing:
		text = "SRM"
	case guardrailsRegressed:
		text = "Guardrail"
	default:
		return "OK"
	}
	if useColors {
		return UnhealthyColor.Sprint(text)
	}
	return text
}

// SelectOutputFile returns the appropriate file handle for output based on the
// provided file path. An empty path selects os.Stdout.
func SelectOutputFile(filePath string) (*os.File, error) {
	if filePath == "" {
		return os.Stdout, nil
	}
	return os.Create(filePath)
}

// LogFatal logs an error and exits the program.
func LogFatal(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Fatal %s: %v\n", msg, err)
	os.Exit(1)
}

// LogWarn logs a warning message to stderr.
func LogWarn(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Warn %s: %v\n", msg, err)
}

// GetCacheDBFilePath returns the path to the SQLite DB file for metric cache storage.
func GetCacheDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".abfolio_cache.db"
	}
	return filepath.Join(homeDir, ".abfolio_cache.db")
}

// GetRunsDBFilePath returns the path to the SQLite DB file for run-history storage.
func GetRunsDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".abfolio_runs.db"
	}
	return filepath.Join(homeDir, ".abfolio_runs.db")
}

// TruncateName truncates an experiment name to a maximum width with ellipsis
// suffix. Requires maxWidth > 3 so there is room for the ellipsis plus content.
func TruncateName(name string, maxWidth int) string {
	runes := []rune(name)
	if len(runes) > maxWidth && maxWidth > 3 {
		return string(runes[:maxWidth-3]) + "..."
	}
	return name
}

// ParseBoolString parses a string value into a boolean.
// Accepts "yes", "no", "true", "false", "1", "0" (case-insensitive).
// Returns an error for invalid values.
func ParseBoolString(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes", "true", "1":
		return true, nil
	case "no", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean string: %s (expected yes/no/true/false/1/0)", s)
	}
}
