package schema

import "time"

// PrimaryMetricResult is the lift computed for an experiment's primary goal
// metric. Lift is fractional (0.2 means +20%).
type PrimaryMetricResult struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Lift        float64       `json:"lift"`
	Significant bool          `json:"significant"`
	Direction   LiftDirection `json:"direction"`
}

// VerdictResult is the per-experiment outcome computed by the verdict engine.
type VerdictResult struct {
	Verdict             Verdict              `json:"verdict"`
	PrimaryMetric       *PrimaryMetricResult `json:"primaryMetric,omitempty"`
	GuardrailsRegressed bool                 `json:"guardrailsRegressed"`
	SRMPassing          bool                 `json:"srmPassing"`
	SRMPValue           *float64             `json:"srmPValue,omitempty"`
	TotalUsers          int                  `json:"totalUsers"`
}

// ExperimentCard is the display-oriented projection of one experiment plus its
// verdict result. Cards live only for the duration of a single aggregation.
type ExperimentCard struct {
	ID                  string               `json:"id"`
	Name                string               `json:"name"`
	Project             string               `json:"project"`
	Tags                []string             `json:"tags"`
	Owner               string               `json:"owner"`
	Hypothesis          string               `json:"hypothesis"`
	Type                ExperimentType       `json:"type"`
	Verdict             Verdict              `json:"verdict"`
	PrimaryMetric       *PrimaryMetricResult `json:"primaryMetric,omitempty"`
	LiftFormatted       string               `json:"liftFormatted"`
	GuardrailsRegressed bool                 `json:"guardrailsRegressed"`
	SRMPassing          bool                 `json:"srmPassing"`
	SRMPValue           *float64             `json:"srmPValue,omitempty"`
	TotalUsers          int                  `json:"totalUsers"`
	DateStart           string               `json:"dateStart,omitempty"`
	DateEnd             string               `json:"dateEnd,omitempty"`

	// DurationDays is nil when either date fails to parse. Negative values are
	// kept for display but excluded from the duration statistics sample.
	DurationDays *int `json:"durationDays,omitempty"`
}

// VerdictCounts tallies experiments by verdict.
type VerdictCounts struct {
	Won          int `json:"won"`
	Lost         int `json:"lost"`
	Inconclusive int `json:"inconclusive"`
}

// TypeCounts tallies experiments by allocation type.
type TypeCounts struct {
	Standard int `json:"standard"`
	Bandit   int `json:"bandit"`
}

// BucketStats is the per-project and per-tag breakdown entry.
type BucketStats struct {
	Count        int      `json:"count"`
	Won          int      `json:"won"`
	Lost         int      `json:"lost"`
	Inconclusive int      `json:"inconclusive"`
	WinRate      *float64 `json:"winRate,omitempty"`
}

// MonthStats is the per-year-month breakdown entry, keyed by the experiment
// end date as YYYY-MM. Inconclusive is not tracked per month.
type MonthStats struct {
	Ended int `json:"ended"`
	Won   int `json:"won"`
	Lost  int `json:"lost"`
}

// SRMIssue identifies an experiment that failed the sample-ratio check.
type SRMIssue struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	SRMPValue *float64 `json:"srmPValue,omitempty"`
}

// TopMover is a top-5 winner or loser projection.
type TopMover struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Lift          float64 `json:"lift"`
	LiftFormatted string  `json:"liftFormatted"`
	Metric        string  `json:"metric"`
	Hypothesis    string  `json:"hypothesis"`
}

// ExperimentStats is the portfolio-level aggregate over one set of ended
// experiments. It is created fresh per aggregation call and is always either
// complete or absent; there is no partial-result mode.
type ExperimentStats struct {
	Total     int           `json:"total"`
	ByVerdict VerdictCounts `json:"byVerdict"`
	WinRate   *float64      `json:"winRate,omitempty"`

	TotalUsers             int  `json:"totalUsers"`
	ExperimentsWithResults int  `json:"experimentsWithResults"`
	AvgUsersPerExperiment  *int `json:"avgUsersPerExperiment,omitempty"`

	AvgDurationDays    *float64 `json:"avgDurationDays,omitempty"`
	MedianDurationDays *float64 `json:"medianDurationDays,omitempty"`

	AvgLiftWinners    *float64 `json:"avgLiftWinners,omitempty"`
	MedianLiftWinners *float64 `json:"medianLiftWinners,omitempty"`

	SRMFailures             int        `json:"srmFailures"`
	SRMFailureRate          *float64   `json:"srmFailureRate,omitempty"`
	SRMIssues               []SRMIssue `json:"srmIssues"`
	GuardrailRegressions    int        `json:"guardrailRegressions"`
	GuardrailRegressionRate *float64   `json:"guardrailRegressionRate,omitempty"`

	ByProject map[string]*BucketStats `json:"byProject"`
	ByTag     map[string]*BucketStats `json:"byTag"`
	ByMonth   map[string]*MonthStats  `json:"byMonth"`
	ByType    TypeCounts              `json:"byType"`

	TopWinners []TopMover `json:"topWinners"`
	TopLosers  []TopMover `json:"topLosers"`

	Experiments []ExperimentCard `json:"experiments"`
}

// FetchSummary is the caller-attached metadata assembled by the thin wrapper
// around the aggregator: how many experiments the platform returned and how
// many were excluded as not yet finished.
type FetchSummary struct {
	TotalFetched    int `json:"totalFetched"`
	ExcludedDraft   int `json:"excludedDraft"`
	ExcludedRunning int `json:"excludedRunning"`
}

// StatsReport bundles the aggregate with its fetch metadata for output.
type StatsReport struct {
	Fetch FetchSummary     `json:"fetch"`
	Stats *ExperimentStats `json:"stats"`
}

// CacheStatus contains status information about a cache store.
type CacheStatus struct {
	Backend         string    `json:"backend"`
	Connected       bool      `json:"connected"`
	TotalEntries    int64     `json:"totalEntries"`
	LastEntryTime   time.Time `json:"lastEntryTime,omitzero"`
	OldestEntryTime time.Time `json:"oldestEntryTime,omitzero"`
	TableSizeBytes  int64     `json:"tableSizeBytes"`
}

// RunRecord describes one recorded aggregation run.
type RunRecord struct {
	RunID            int64      `json:"runId"`
	StartTime        time.Time  `json:"startTime"`
	EndTime          *time.Time `json:"endTime,omitempty"`
	TotalExperiments int        `json:"totalExperiments"`
	ConfigParams     string     `json:"configParams,omitempty"`
}
