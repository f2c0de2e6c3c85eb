package core

import (
	"context"
	"testing"

	"github.com/abfolio/abfolio/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// endedExperiment builds a stopped experiment with one goal metric and a
// single treatment analysis.
func endedExperiment(id, project, summary string, lift float64, ctbc, srm *float64, users int) schema.Experiment {
	return schema.Experiment{
		ID:            id,
		Name:          "Experiment " + id,
		Status:        schema.StoppedStatus,
		Project:       project,
		ResultSummary: schema.ResultSummary{Status: summary},
		Settings:      schema.ExperimentSettings{Goals: []schema.MetricRef{{MetricID: "m1"}}},
		Result: &schema.ExperimentResult{
			DateStart: "2025-05-01",
			DateEnd:   "2025-05-15",
			Results: []schema.ResultSnapshot{{
				Checks:     schema.ResultChecks{SRM: srm},
				TotalUsers: users,
				Metrics: []schema.MetricResult{{
					MetricID: "m1",
					Variations: []schema.VariationResult{
						variationWith(schema.VariationAnalysis{}),
						variationWith(schema.VariationAnalysis{PercentChange: lift, ChanceToBeatControl: ctbc}),
					},
				}},
			}},
		},
	}
}

func TestCollectMetricIDs(t *testing.T) {
	experiments := []schema.Experiment{
		{Settings: schema.ExperimentSettings{
			Goals:      []schema.MetricRef{{MetricID: "m2"}, {MetricID: "m1"}},
			Guardrails: []schema.MetricRef{{MetricID: "guard"}},
		}},
		{Settings: schema.ExperimentSettings{
			Goals:      []schema.MetricRef{{MetricID: "m1"}},
			Guardrails: []schema.MetricRef{{MetricID: "guard"}},
		}},
	}
	assert.Equal(t, []string{"guard", "m1", "m2"}, CollectMetricIDs(experiments))
	assert.Empty(t, CollectMetricIDs(nil))
}

func TestAggregate(t *testing.T) {
	experiments := []schema.Experiment{
		endedExperiment("exp_1", "growth", "won", 0.15, floatPtr(0.99), floatPtr(0.8), 10000),
		endedExperiment("exp_2", "", "lost", -0.08, floatPtr(0.01), floatPtr(0.0005), 5000),
		{
			ID:            "exp_3",
			Name:          "Experiment exp_3",
			Status:        schema.StoppedStatus,
			Project:       "growth",
			Tags:          []string{"q3"},
			ResultSummary: schema.ResultSummary{Status: "dnf"},
		},
	}
	experiments[0].Tags = []string{"q3"}

	resolver := NewMetricResolver(newFakeCatalog(), NewMetricCache())
	var steps []int
	stats, err := Aggregate(context.Background(), experiments, resolver, func(step int, _ string) {
		steps = append(steps, step)
	})
	require.NoError(t, err)

	assert.Equal(t, []int{1, 2, 3}, steps)
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 1, stats.ByVerdict.Won)
	assert.Equal(t, 1, stats.ByVerdict.Lost)
	assert.Equal(t, 1, stats.ByVerdict.Inconclusive)
	assert.Equal(t, stats.Total, stats.ByVerdict.Won+stats.ByVerdict.Lost+stats.ByVerdict.Inconclusive)

	require.NotNil(t, stats.WinRate)
	assert.InDelta(t, 1.0/3.0, *stats.WinRate, 1e-9)

	assert.Equal(t, 15000, stats.TotalUsers)
	assert.Equal(t, 2, stats.ExperimentsWithResults)
	require.NotNil(t, stats.AvgUsersPerExperiment)
	assert.Equal(t, 7500, *stats.AvgUsersPerExperiment)

	require.NotNil(t, stats.AvgDurationDays)
	assert.Equal(t, 14.0, *stats.AvgDurationDays)
	require.NotNil(t, stats.MedianDurationDays)
	assert.Equal(t, 14.0, *stats.MedianDurationDays)

	// Health checks only cover experiments with analyzable traffic.
	assert.Equal(t, 1, stats.SRMFailures)
	require.Len(t, stats.SRMIssues, 1)
	assert.Equal(t, "exp_2", stats.SRMIssues[0].ID)
	require.NotNil(t, stats.SRMFailureRate)
	assert.Equal(t, 0.5, *stats.SRMFailureRate)

	// Breakdowns.
	require.Contains(t, stats.ByProject, "growth")
	assert.Equal(t, 2, stats.ByProject["growth"].Count)
	require.NotNil(t, stats.ByProject["growth"].WinRate)
	assert.Equal(t, 0.5, *stats.ByProject["growth"].WinRate)
	require.Contains(t, stats.ByProject, schema.NoProjectKey)
	assert.Equal(t, 1, stats.ByProject[schema.NoProjectKey].Lost)

	require.Contains(t, stats.ByTag, "q3")
	assert.Equal(t, 2, stats.ByTag["q3"].Count)

	require.Contains(t, stats.ByMonth, "2025-05")
	assert.Equal(t, 2, stats.ByMonth["2025-05"].Ended)
	assert.Equal(t, 1, stats.ByMonth["2025-05"].Won)

	assert.Equal(t, 3, stats.ByType.Standard)
	assert.Equal(t, 0, stats.ByType.Bandit)

	// Movers and winner lifts.
	require.Len(t, stats.TopWinners, 1)
	assert.Equal(t, "exp_1", stats.TopWinners[0].ID)
	assert.Equal(t, "+15.0%", stats.TopWinners[0].LiftFormatted)
	require.Len(t, stats.TopLosers, 1)
	assert.Equal(t, "exp_2", stats.TopLosers[0].ID)
	require.NotNil(t, stats.AvgLiftWinners)
	assert.Equal(t, 0.15, *stats.AvgLiftWinners)

	// Cards.
	require.Len(t, stats.Experiments, 3)
	assert.Equal(t, "+15.0%", stats.Experiments[0].LiftFormatted)
	assert.Equal(t, "N/A", stats.Experiments[2].LiftFormatted)
	require.NotNil(t, stats.Experiments[0].DurationDays)
	assert.Equal(t, 14, *stats.Experiments[0].DurationDays)
	assert.Nil(t, stats.Experiments[2].DurationDays)
}

func TestAggregateEmpty(t *testing.T) {
	resolver := NewMetricResolver(newFakeCatalog(), NewMetricCache())
	stats, err := Aggregate(context.Background(), nil, resolver, nil)
	require.NoError(t, err)

	assert.Equal(t, 0, stats.Total)
	assert.Nil(t, stats.WinRate)
	assert.Nil(t, stats.AvgDurationDays)
	assert.Nil(t, stats.AvgUsersPerExperiment)
	assert.Empty(t, stats.Experiments)
	assert.Empty(t, stats.TopWinners)
}

func TestAggregateFailsWhenResolverFails(t *testing.T) {
	catalog := newFakeCatalog()
	catalog.failIDs["m1"] = true
	resolver := NewMetricResolver(catalog, NewMetricCache())

	experiments := []schema.Experiment{
		endedExperiment("exp_1", "", "won", 0.1, floatPtr(0.99), nil, 100),
	}
	_, err := Aggregate(context.Background(), experiments, resolver, nil)
	assert.Error(t, err)
}

func TestAggregateBanditType(t *testing.T) {
	exp := endedExperiment("exp_b", "", "won", 0.1, floatPtr(0.99), nil, 100)
	exp.Type = schema.BanditType

	resolver := NewMetricResolver(newFakeCatalog(), NewMetricCache())
	stats, err := Aggregate(context.Background(), []schema.Experiment{exp}, resolver, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.ByType.Bandit)
	assert.Equal(t, 0, stats.ByType.Standard)
}
