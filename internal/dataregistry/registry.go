// Package dataregistry provides a read-only view of which instruments
// have backtestable data available over a given range. It exists purely
// as a dependency boundary for the Verification Engine and Walk-Forward
// Executor: this workspace never acquires market data itself (a
// Non-goal), it only answers "do we have it".
package dataregistry

import "sync"

// Registry answers data-availability queries. The zero value is an empty
// registry that reports nothing available, matching a bootstrap workspace
// that hasn't been told about any data sources yet.
type Registry struct {
	mu        sync.RWMutex
	available map[string]bool
}

// New creates a registry pre-populated with the given instrument symbols,
// each considered available for any range. A real deployment would back
// this with a manifest file or a call into a data vendor's catalog API;
// neither is implemented here since market-data acquisition is explicitly
// out of scope.
func New(instruments []string) *Registry {
	r := &Registry{available: make(map[string]bool, len(instruments))}
	for _, inst := range instruments {
		r.available[inst] = true
	}
	return r
}

// Available reports whether instrument has usable data over [from, to].
// Range bounds are accepted for interface symmetry with a real vendor
// catalog but unused by this static-manifest implementation.
func (r *Registry) Available(instrument string, from, to string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.available[instrument]
}

// Register marks an instrument as available, used by operators seeding
// the workspace's known universe.
func (r *Registry) Register(instrument string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.available[instrument] = true
}
