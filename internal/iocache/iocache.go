// Package iocache is for durable storage behind the in-memory caches: metric
// metadata that survives across processes, and aggregation run history.
package iocache

import (
	"sync"

	"github.com/abfolio/abfolio/internal/contract"
)

// CacheStoreManager manages the metric cache store and the run-history store.
type CacheStoreManager struct {
	sync.RWMutex // Protects the store pointers during initialization
	metrics      contract.CacheStore
	runs         contract.RunStore
}

var _ contract.CacheManager = &CacheStoreManager{} // Compile-time check

// GetMetricStore returns the metric metadata CacheStore.
func (mgr *CacheStoreManager) GetMetricStore() contract.CacheStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.metrics
}

// GetRunStore returns the run-history RunStore.
func (mgr *CacheStoreManager) GetRunStore() contract.RunStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.runs
}
