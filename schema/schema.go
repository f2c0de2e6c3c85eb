// Package schema has configs, models and constants for all parts of abfolio.
package schema

// Experiment is one A/B test record as retrieved from the platform API.
// Fields mirror the upstream JSON; optional sub-blocks are pointers so a
// missing block is distinguishable from a zero value.
type Experiment struct {
	ID            string             `json:"id"`
	Name          string             `json:"name"`
	TrackingKey   string             `json:"trackingKey"`
	Status        ExperimentStatus   `json:"status"`
	Type          ExperimentType     `json:"type"`
	Project       string             `json:"project"`
	Tags          []string           `json:"tags"`
	Owner         string             `json:"owner"`
	Hypothesis    string             `json:"hypothesis"`
	ResultSummary ResultSummary      `json:"resultSummary"`
	Settings      ExperimentSettings `json:"settings"`
	Result        *ExperimentResult  `json:"result,omitempty"`
}

// ResultSummary carries the platform-recorded outcome for an experiment.
// Status is free text and is normalized via ParseVerdict.
type ResultSummary struct {
	Status string `json:"status"`
}

// ExperimentSettings holds the metric configuration of an experiment.
// Goals are ordered; the first goal is the primary metric.
type ExperimentSettings struct {
	Goals      []MetricRef `json:"goals"`
	Guardrails []MetricRef `json:"guardrails"`
}

// MetricRef references a metric by ID within experiment settings.
type MetricRef struct {
	MetricID string `json:"metricId"`
}

// ExperimentResult is the optional result block of a stopped experiment.
// Results models repeated re-analysis; only Results[0] (the latest) matters.
type ExperimentResult struct {
	DateStart string           `json:"dateStart"`
	DateEnd   string           `json:"dateEnd"`
	Results   []ResultSnapshot `json:"results"`
}

// Latest returns the most recent analysis snapshot, or nil when the result
// block has no snapshots.
func (r *ExperimentResult) Latest() *ResultSnapshot {
	if r == nil || len(r.Results) == 0 {
		return nil
	}
	return &r.Results[0]
}

// ResultSnapshot is a single analysis pass over an experiment's traffic.
type ResultSnapshot struct {
	Checks     ResultChecks   `json:"checks"`
	TotalUsers int            `json:"totalUsers"`
	Metrics    []MetricResult `json:"metrics"`
}

// ResultChecks holds health-check outputs attached to a snapshot.
type ResultChecks struct {
	// SRM is the sample-ratio-mismatch p-value; nil when the check did not run.
	SRM *float64 `json:"srm"`
}

// MetricResult holds per-variation analyses for one metric in a snapshot.
type MetricResult struct {
	MetricID   string            `json:"metricId"`
	Variations []VariationResult `json:"variations"`
}

// VariationResult holds the analyses for one variation of a metric.
// Variation index 0 is the control.
type VariationResult struct {
	VariationID string              `json:"variationId"`
	Users       int                 `json:"users"`
	Analyses    []VariationAnalysis `json:"analyses"`
}

// FirstAnalysis returns the first analysis of the variation, or nil.
func (v *VariationResult) FirstAnalysis() *VariationAnalysis {
	if len(v.Analyses) == 0 {
		return nil
	}
	return &v.Analyses[0]
}

// VariationAnalysis is one pre-computed statistical analysis supplied by the
// upstream platform. Bounds and probabilities are optional in the wire format.
type VariationAnalysis struct {
	CILow               *float64 `json:"ciLow"`
	CIHigh              *float64 `json:"ciHigh"`
	PercentChange       float64  `json:"percentChange"`
	ChanceToBeatControl *float64 `json:"chanceToBeatControl"`
	Mean                *float64 `json:"mean"`
}

// MetricInfo is the normalized internal shape for metric metadata, regardless
// of which upstream catalog it came from. Inverse means lower is better.
type MetricInfo struct {
	ID      string     `json:"id"`
	Name    string     `json:"name"`
	Inverse bool       `json:"inverse"`
	Type    MetricType `json:"type"`
}

// FactMetricInfo normalizes a fact-metric ID into MetricInfo. Fact metrics are
// always treated as non-inverse count metrics; this is a fixed simplification,
// not a lookup failure.
func FactMetricInfo(id, name string) MetricInfo {
	return MetricInfo{ID: id, Name: name, Inverse: false, Type: CountMetric}
}
