package core

import (
	"context"
	"fmt"
	"testing"

	"github.com/abfolio/abfolio/internal/contract"
	"github.com/abfolio/abfolio/internal/iocache"
	"github.com/abfolio/abfolio/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// fakeSource serves a fixed experiment list.
type fakeSource struct {
	experiments []schema.Experiment
	listErr     error
}

var _ contract.ExperimentSource = &fakeSource{} // Compile-time check

func (f *fakeSource) ListExperiments(_ context.Context) ([]schema.Experiment, error) {
	return f.experiments, f.listErr
}

func (f *fakeSource) GetExperiment(_ context.Context, id string) (schema.Experiment, error) {
	for _, exp := range f.experiments {
		if exp.ID == id {
			return exp, nil
		}
	}
	return schema.Experiment{}, fmt.Errorf("experiment %s not found", id)
}

func testResolver() *MetricResolver {
	return NewMetricResolver(newFakeCatalog(), NewMetricCache())
}

func TestGetExperimentStatsResults(t *testing.T) {
	draft := schema.Experiment{ID: "exp_d", Status: schema.DraftStatus}
	running := schema.Experiment{ID: "exp_r", Status: schema.RunningStatus}
	stopped := endedExperiment("exp_s", "growth", "won", 0.2, floatPtr(0.99), nil, 1000)
	source := &fakeSource{experiments: []schema.Experiment{draft, running, stopped}}

	cfg := &contract.Config{PlatformURL: "https://growthbook.example.com", ResultLimit: 25}
	ctx := WithSuppressProgress(context.Background())

	report, err := GetExperimentStatsResults(ctx, cfg, source, testResolver(), nil)
	require.NoError(t, err)

	assert.Equal(t, 3, report.Fetch.TotalFetched)
	assert.Equal(t, 1, report.Fetch.ExcludedDraft)
	assert.Equal(t, 1, report.Fetch.ExcludedRunning)
	require.NotNil(t, report.Stats)
	assert.Equal(t, 1, report.Stats.Total)
	assert.Equal(t, 1, report.Stats.ByVerdict.Won)
}

func TestGetExperimentStatsResultsFilters(t *testing.T) {
	growth := endedExperiment("exp_1", "growth", "won", 0.2, floatPtr(0.99), nil, 1000)
	checkout := endedExperiment("exp_2", "checkout", "lost", -0.1, floatPtr(0.01), nil, 1000)
	tagged := endedExperiment("exp_3", "growth", "won", 0.1, floatPtr(0.99), nil, 1000)
	tagged.Tags = []string{"q3"}
	source := &fakeSource{experiments: []schema.Experiment{growth, checkout, tagged}}
	ctx := WithSuppressProgress(context.Background())

	t.Run("by project", func(t *testing.T) {
		cfg := &contract.Config{Project: "growth"}
		report, err := GetExperimentStatsResults(ctx, cfg, source, testResolver(), nil)
		require.NoError(t, err)
		assert.Equal(t, 2, report.Stats.Total)
		// TotalFetched counts the raw fetch, before filtering.
		assert.Equal(t, 3, report.Fetch.TotalFetched)
	})

	t.Run("by tag", func(t *testing.T) {
		cfg := &contract.Config{Tag: "q3"}
		report, err := GetExperimentStatsResults(ctx, cfg, source, testResolver(), nil)
		require.NoError(t, err)
		assert.Equal(t, 1, report.Stats.Total)
		assert.Equal(t, "exp_3", report.Stats.Experiments[0].ID)
	})

	t.Run("by project and tag", func(t *testing.T) {
		cfg := &contract.Config{Project: "checkout", Tag: "q3"}
		report, err := GetExperimentStatsResults(ctx, cfg, source, testResolver(), nil)
		require.NoError(t, err)
		assert.Equal(t, 0, report.Stats.Total)
	})
}

func TestGetExperimentStatsResultsListError(t *testing.T) {
	source := &fakeSource{listErr: fmt.Errorf("connection refused")}
	cfg := &contract.Config{}
	_, err := GetExperimentStatsResults(WithSuppressProgress(context.Background()), cfg, source, testResolver(), nil)
	assert.ErrorContains(t, err, "failed to list experiments")
}

func TestGetExperimentStatsResultsTracksRuns(t *testing.T) {
	stopped := endedExperiment("exp_s", "", "won", 0.2, floatPtr(0.99), nil, 1000)
	source := &fakeSource{experiments: []schema.Experiment{stopped}}

	runStore := &iocache.MockRunStore{}
	runStore.On("BeginRun", mock.Anything, mock.Anything).Return(int64(123), nil)
	runStore.On("EndRun", int64(123), mock.Anything, 1).Return(nil)

	mgr := &iocache.MockCacheManager{}
	mgr.On("GetRunStore").Return(runStore)

	cfg := &contract.Config{PlatformURL: "https://growthbook.example.com"}
	_, err := GetExperimentStatsResults(WithSuppressProgress(context.Background()), cfg, source, testResolver(), mgr)
	require.NoError(t, err)

	runStore.AssertExpectations(t)
}

func TestGetExperimentVerdictResult(t *testing.T) {
	stopped := endedExperiment("exp_s", "growth", "won", 0.2, floatPtr(0.99), nil, 1000)
	source := &fakeSource{experiments: []schema.Experiment{stopped}}
	ctx := WithSuppressProgress(context.Background())

	result, exp, err := GetExperimentVerdictResult(ctx, source, testResolver(), "exp_s")
	require.NoError(t, err)
	assert.Equal(t, "exp_s", exp.ID)
	assert.Equal(t, schema.WonVerdict, result.Verdict)
	require.NotNil(t, result.PrimaryMetric)
	assert.Equal(t, 0.2, result.PrimaryMetric.Lift)
}

func TestGetExperimentVerdictResultNotFound(t *testing.T) {
	source := &fakeSource{}
	_, _, err := GetExperimentVerdictResult(WithSuppressProgress(context.Background()), source, testResolver(), "exp_missing")
	assert.ErrorContains(t, err, "failed to fetch experiment exp_missing")
}

func TestGetExperimentVerdictResultDegradedResolution(t *testing.T) {
	stopped := endedExperiment("exp_s", "", "won", 0.2, floatPtr(0.99), nil, 1000)
	source := &fakeSource{experiments: []schema.Experiment{stopped}}

	// Catalog fully down: the verdict still computes with default metadata.
	catalog := newFakeCatalog()
	catalog.failIDs["m1"] = true
	resolver := NewMetricResolver(catalog, NewMetricCache())

	result, _, err := GetExperimentVerdictResult(WithSuppressProgress(context.Background()), source, resolver, "exp_s")
	require.NoError(t, err)
	assert.Equal(t, schema.WonVerdict, result.Verdict)
	require.NotNil(t, result.PrimaryMetric)
	assert.Equal(t, "m1", result.PrimaryMetric.Name, "name falls back to the ID")
}
