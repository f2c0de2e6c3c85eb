package schema

import "strings"

// Custom string types for type safety.
type (
	// Verdict represents the recorded outcome of an experiment.
	Verdict string

	// ExperimentStatus represents the lifecycle state of an experiment.
	ExperimentStatus string

	// ExperimentType represents how an experiment allocates traffic.
	ExperimentType string

	// MetricType represents the statistical family of a metric.
	MetricType string

	// LiftDirection represents the direction of a significant lift.
	LiftDirection string

	// OutputMode represents the format of the output.
	OutputMode string

	// DatabaseBackend represents the database backend for caching.
	DatabaseBackend string
)

// All verdicts supported.
const (
	WonVerdict          Verdict = "won"
	LostVerdict         Verdict = "lost"
	InconclusiveVerdict Verdict = "inconclusive"
)

// All experiment lifecycle statuses supported.
const (
	DraftStatus   ExperimentStatus = "draft"
	RunningStatus ExperimentStatus = "running"
	StoppedStatus ExperimentStatus = "stopped"
)

// All experiment types supported.
const (
	StandardType ExperimentType = "standard"
	BanditType   ExperimentType = "multi-armed-bandit"
)

// All metric types supported.
const (
	BinomialMetric MetricType = "binomial"
	CountMetric    MetricType = "count"
	DurationMetric MetricType = "duration"
	RevenueMetric  MetricType = "revenue"
)

// All lift directions supported.
const (
	WinningDirection LiftDirection = "winning"
	LosingDirection  LiftDirection = "losing"
	FlatDirection    LiftDirection = "flat"
)

// All output modes supported.
const (
	TextOut    OutputMode = "text" // default
	CSVOut     OutputMode = "csv"
	JSONOut    OutputMode = "json"
	ParquetOut OutputMode = "parquet"
)

// All cache backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite" // default
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	NoneBackend       DatabaseBackend = "none"
)

// NoProjectKey is the sentinel bucket for experiments without a project.
const NoProjectKey = "No Project"

// FactMetricPrefix marks metric IDs resolved via the fact-metric catalog.
const FactMetricPrefix = "fact__"

// ValidOutputModes lists all valid output modes.
var ValidOutputModes = map[OutputMode]struct{}{
	TextOut:    {},
	CSVOut:     {},
	JSONOut:    {},
	ParquetOut: {},
}

// ValidCacheBackends lists all valid cache backends.
var ValidCacheBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	NoneBackend:       {},
}

// ParseVerdict normalizes a free-text result summary status into a Verdict.
// The comparison is case-insensitive and exact: anything that is not "won" or
// "lost" (including empty, "dnf" and "inconclusive") maps to the inconclusive
// fallback. The verdict reflects the decision recorded on the platform, not a
// recomputation from the statistical results.
func ParseVerdict(summaryStatus string) Verdict {
	switch strings.ToLower(strings.TrimSpace(summaryStatus)) {
	case "won":
		return WonVerdict
	case "lost":
		return LostVerdict
	default:
		return InconclusiveVerdict
	}
}

// ParseExperimentStatus normalizes a lifecycle status string. Unrecognized
// values map to draft so they are never mistaken for finished experiments.
func ParseExperimentStatus(s string) ExperimentStatus {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(RunningStatus):
		return RunningStatus
	case string(StoppedStatus):
		return StoppedStatus
	default:
		return DraftStatus
	}
}

// ParseExperimentType normalizes an experiment type string. Anything that is
// not a bandit counts as a standard experiment.
func ParseExperimentType(s string) ExperimentType {
	if strings.ToLower(strings.TrimSpace(s)) == string(BanditType) {
		return BanditType
	}
	return StandardType
}

// IsFactMetricID reports whether a metric ID belongs to the fact-metric catalog.
func IsFactMetricID(id string) bool {
	return strings.HasPrefix(id, FactMetricPrefix)
}
