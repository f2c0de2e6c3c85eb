// Package contract provides interfaces and shared utilities for abfolio's
// internal architecture.
package contract

import (
	"context"
	"time"

	"github.com/abfolio/abfolio/schema"
)

// MetricCatalog defines the upstream metric-metadata lookups. The platform
// exposes two distinct collections: legacy metrics and fact metrics.
// This allows the resolver to be tested without a real platform API.
type MetricCatalog interface {
	// GetMetric fetches metadata for a legacy metric by ID.
	GetMetric(ctx context.Context, id string) (schema.MetricInfo, error)

	// GetFactMetric fetches metadata for a fact metric by ID.
	GetFactMetric(ctx context.Context, id string) (schema.MetricInfo, error)
}

// ExperimentSource defines the upstream experiment listing.
type ExperimentSource interface {
	// ListExperiments fetches all experiment records, following pagination.
	ListExperiments(ctx context.Context) ([]schema.Experiment, error)

	// GetExperiment fetches a single experiment record by ID.
	GetExperiment(ctx context.Context, id string) (schema.Experiment, error)
}

// CacheManager defines the interface for managing cache stores.
// This allows the cache layer to be mocked for testing.
type CacheManager interface {
	GetMetricStore() CacheStore
	GetRunStore() RunStore
}

// CacheStore defines the interface for durable metric-metadata storage.
// This allows mocking the store for testing.
type CacheStore interface {
	Get(key string) ([]byte, int, int64, error)
	Set(key string, value []byte, version int, timestamp int64) error
	GetStatus() (schema.CacheStatus, error)
	Close() error
}

// RunStore defines the interface for tracking aggregation runs.
type RunStore interface {
	// BeginRun creates a new aggregation run and returns its unique ID
	BeginRun(startTime time.Time, configParams map[string]any) (int64, error)

	// EndRun updates the run with completion data
	EndRun(runID int64, endTime time.Time, totalExperiments int) error

	// ListRuns returns the most recent runs, newest first
	ListRuns(limit int) ([]schema.RunRecord, error)

	// Close closes the underlying connection
	Close() error
}

// ProgressFunc receives advisory phase notifications from the aggregator.
// Notifications are not checkpoints; an aggregation always runs to completion.
type ProgressFunc func(step int, message string)
