package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseVerdict(t *testing.T) {
	tests := []struct {
		name   string
		status string
		want   Verdict
	}{
		{name: "won lowercase", status: "won", want: WonVerdict},
		{name: "won uppercase", status: "WON", want: WonVerdict},
		{name: "won mixed case with spaces", status: "  Won ", want: WonVerdict},
		{name: "lost", status: "lost", want: LostVerdict},
		{name: "lost uppercase", status: "Lost", want: LostVerdict},
		{name: "empty falls back", status: "", want: InconclusiveVerdict},
		{name: "dnf falls back", status: "dnf", want: InconclusiveVerdict},
		{name: "inconclusive falls back", status: "inconclusive", want: InconclusiveVerdict},
		{name: "substring does not match", status: "wonderful", want: InconclusiveVerdict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseVerdict(tt.status))
		})
	}
}

func TestParseExperimentStatus(t *testing.T) {
	assert.Equal(t, StoppedStatus, ParseExperimentStatus("stopped"))
	assert.Equal(t, StoppedStatus, ParseExperimentStatus("Stopped"))
	assert.Equal(t, RunningStatus, ParseExperimentStatus("running"))
	// Unknown statuses never count as finished.
	assert.Equal(t, DraftStatus, ParseExperimentStatus("archived"))
	assert.Equal(t, DraftStatus, ParseExperimentStatus(""))
}

func TestParseExperimentType(t *testing.T) {
	assert.Equal(t, BanditType, ParseExperimentType("multi-armed-bandit"))
	assert.Equal(t, StandardType, ParseExperimentType("standard"))
	assert.Equal(t, StandardType, ParseExperimentType(""))
	assert.Equal(t, StandardType, ParseExperimentType("holdout"))
}

func TestIsFactMetricID(t *testing.T) {
	assert.True(t, IsFactMetricID("fact__revenue"))
	assert.False(t, IsFactMetricID("revenue"))
	assert.False(t, IsFactMetricID("FACT__revenue"), "prefix check is case-sensitive")
}

func TestFactMetricInfo(t *testing.T) {
	info := FactMetricInfo("fact__orders", "Orders")
	assert.Equal(t, "fact__orders", info.ID)
	assert.Equal(t, "Orders", info.Name)
	assert.False(t, info.Inverse, "fact metrics are always non-inverse")
	assert.Equal(t, CountMetric, info.Type)
}

func TestExperimentResultLatest(t *testing.T) {
	var nilResult *ExperimentResult
	assert.Nil(t, nilResult.Latest())
	assert.Nil(t, (&ExperimentResult{}).Latest())

	result := &ExperimentResult{Results: []ResultSnapshot{
		{TotalUsers: 100},
		{TotalUsers: 50},
	}}
	snap := result.Latest()
	assert.NotNil(t, snap)
	assert.Equal(t, 100, snap.TotalUsers, "Results[0] is the latest snapshot")
}

func TestVariationResultFirstAnalysis(t *testing.T) {
	assert.Nil(t, (&VariationResult{}).FirstAnalysis())

	v := &VariationResult{Analyses: []VariationAnalysis{{PercentChange: 0.1}, {PercentChange: 0.9}}}
	a := v.FirstAnalysis()
	assert.NotNil(t, a)
	assert.Equal(t, 0.1, a.PercentChange)
}
