// Package core has core logic for experiment verdicts, metric resolution and
// portfolio aggregation.
package core

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/abfolio/abfolio/internal/contract"
	"github.com/abfolio/abfolio/internal/outwriter"
	"github.com/abfolio/abfolio/internal/platform"
	"github.com/abfolio/abfolio/schema"
)

// contextKey is a private type for context values set by this package.
type contextKey string

const suppressProgressKey contextKey = "suppressProgress"

// WithSuppressProgress marks the context so progress notifications are not
// written to stderr. Used by the MCP server to keep stdio clean.
func WithSuppressProgress(ctx context.Context) context.Context {
	return context.WithValue(ctx, suppressProgressKey, true)
}

func shouldSuppressProgress(ctx context.Context) bool {
	suppress, ok := ctx.Value(suppressProgressKey).(bool)
	return ok && suppress
}

// sharedMetricCache is the process-wide metric metadata cache used by the
// executors, so repeated invocations within one process (CLI phases, MCP tool
// calls) reuse resolved metadata within the TTL.
var sharedMetricCache = NewMetricCache()

// SharedMetricCache exposes the process-wide cache for wiring and resets.
func SharedMetricCache() *MetricCache {
	return sharedMetricCache
}

// GetExperimentStatsResults fetches all experiments from the source, restricts
// them to stopped ones, aggregates those into portfolio statistics and returns
// the report with fetch metadata attached. Draft and running experiments are
// counted but excluded from aggregation.
func GetExperimentStatsResults(
	ctx context.Context,
	cfg *contract.Config,
	source contract.ExperimentSource,
	resolver *MetricResolver,
	mgr contract.CacheManager,
) (*schema.StatsReport, error) {
	var runID int64
	var runStore contract.RunStore
	if mgr != nil {
		runStore = mgr.GetRunStore()
	}
	if runStore != nil {
		var err error
		runID, err = runStore.BeginRun(time.Now(), map[string]any{
			"platform_url": cfg.PlatformURL,
			"project":      cfg.Project,
			"tag":          cfg.Tag,
		})
		if err != nil {
			contract.LogWarn("Run tracking initialization failed", err)
		}
	}

	experiments, err := source.ListExperiments(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list experiments: %w", err)
	}

	report := &schema.StatsReport{}
	report.Fetch.TotalFetched = len(experiments)

	var ended []schema.Experiment
	for _, exp := range experiments {
		if !matchesFilters(&exp, cfg) {
			continue
		}
		switch schema.ParseExperimentStatus(string(exp.Status)) {
		case schema.StoppedStatus:
			ended = append(ended, exp)
		case schema.RunningStatus:
			report.Fetch.ExcludedRunning++
		default:
			report.Fetch.ExcludedDraft++
		}
	}

	stats, err := Aggregate(ctx, ended, resolver, progressReporter(ctx))
	if err != nil {
		return nil, err
	}
	report.Stats = stats

	if runStore != nil && runID > 0 {
		if err := runStore.EndRun(runID, time.Now(), stats.Total); err != nil {
			contract.LogWarn("Failed to finalize run tracking", err)
		}
	}

	return report, nil
}

// matchesFilters applies the optional project/tag wrapper filters.
func matchesFilters(exp *schema.Experiment, cfg *contract.Config) bool {
	if cfg.Project != "" && exp.Project != cfg.Project {
		return false
	}
	if cfg.Tag != "" {
		found := false
		for _, tag := range exp.Tags {
			if tag == cfg.Tag {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// progressReporter returns a stderr progress sink, or nil when suppressed.
func progressReporter(ctx context.Context) contract.ProgressFunc {
	if shouldSuppressProgress(ctx) {
		return nil
	}
	return func(step int, message string) {
		_, _ = fmt.Fprintf(os.Stderr, "[%d/3] %s\n", step, message)
	}
}

// ExecuteStats runs the portfolio analysis and writes results using the
// configured output format. It serves as the main entry point for the 'stats'
// command.
func ExecuteStats(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error {
	start := time.Now()
	client := platform.NewClient(cfg)
	resolver := newManagedResolver(client, mgr)

	report, err := GetExperimentStatsResults(ctx, cfg, client, resolver, mgr)
	if err != nil {
		return err
	}
	duration := time.Since(start)
	return outwriter.WriteStatsReport(report, cfg, duration)
}

// ExecuteVerdict computes and writes the verdict for a single experiment.
// It serves as the main entry point for the 'verdict' command.
func ExecuteVerdict(ctx context.Context, cfg *contract.Config, experimentID string, mgr contract.CacheManager) error {
	client := platform.NewClient(cfg)
	resolver := newManagedResolver(client, mgr)

	result, exp, err := GetExperimentVerdictResult(ctx, client, resolver, experimentID)
	if err != nil {
		return err
	}
	return outwriter.WriteVerdictResult(exp, result, cfg)
}

// GetExperimentVerdictResult fetches one experiment, resolves its metric
// metadata and computes its verdict result.
func GetExperimentVerdictResult(
	ctx context.Context,
	source contract.ExperimentSource,
	resolver *MetricResolver,
	experimentID string,
) (schema.VerdictResult, schema.Experiment, error) {
	exp, err := source.GetExperiment(ctx, experimentID)
	if err != nil {
		return schema.VerdictResult{}, schema.Experiment{}, fmt.Errorf("failed to fetch experiment %s: %w", experimentID, err)
	}

	lookup, err := resolver.Resolve(ctx, CollectMetricIDs([]schema.Experiment{exp}))
	if err != nil {
		// A fully failed resolution still allows a degraded verdict; metric
		// metadata defaults to non-inverse.
		contract.LogWarn("Metric resolution failed, using defaults", err)
		lookup = map[string]schema.MetricInfo{}
	}
	return ComputeVerdict(&exp, lookup), exp, nil
}

// newManagedResolver wires the shared metric cache, its optional durable
// store, and the platform catalog into a resolver.
func newManagedResolver(catalog contract.MetricCatalog, mgr contract.CacheManager) *MetricResolver {
	cache := sharedMetricCache
	if mgr != nil {
		if store := mgr.GetMetricStore(); store != nil {
			cache = cache.WithStore(store)
		}
	}
	return NewMetricResolver(catalog, cache)
}
