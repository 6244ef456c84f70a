package sources

import (
	"context"
	"sync"

	"threat-monitor/internal/models"
)

// Adapter fetches raw observations for one source type. Implementations are
// stateless with respect to rules; they only see the source descriptor.
type Adapter interface {
	Fetch(ctx context.Context, src models.MonitoringSource) ([]models.Record, error)
}

// AdapterFunc adapts a plain function to the Adapter interface.
type AdapterFunc func(ctx context.Context, src models.MonitoringSource) ([]models.Record, error)

func (f AdapterFunc) Fetch(ctx context.Context, src models.MonitoringSource) ([]models.Record, error) {
	return f(ctx, src)
}

// Registry maps source types to their adapters. Source types without an
// adapter are accepted but never produce records.
type Registry struct {
	mu       sync.RWMutex
	adapters map[models.SourceType]Adapter
}

// NewRegistry creates an empty adapter registry.
func NewRegistry() *Registry {
	return &Registry{adapters: make(map[models.SourceType]Adapter)}
}

// Register wires an adapter for a source type, replacing any previous one.
func (r *Registry) Register(t models.SourceType, a Adapter) {
	r.mu.Lock()
	r.adapters[t] = a
	r.mu.Unlock()
}

// Lookup returns the adapter for a source type.
func (r *Registry) Lookup(t models.SourceType) (Adapter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.adapters[t]
	return a, ok
}
