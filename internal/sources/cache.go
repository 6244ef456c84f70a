package sources

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"threat-monitor/internal/models"
)

// CachedAdapter wraps an adapter with a TTL cache keyed by source id,
// honoring each source's advisory refresh interval: inside the window the
// previous fetch result is reused instead of hitting the feed again.
// Errors are never cached, so the next cycle naturally re-attempts.
type CachedAdapter struct {
	inner Adapter
	cache *gocache.Cache
}

// NewCachedAdapter wraps inner with per-source result caching.
func NewCachedAdapter(inner Adapter) *CachedAdapter {
	return &CachedAdapter{
		inner: inner,
		cache: gocache.New(gocache.NoExpiration, 10*time.Minute),
	}
}

func (a *CachedAdapter) Fetch(ctx context.Context, src models.MonitoringSource) ([]models.Record, error) {
	ttl := time.Duration(src.RefreshIntervalMinutes) * time.Minute
	if ttl <= 0 {
		return a.inner.Fetch(ctx, src)
	}

	if cached, ok := a.cache.Get(src.ID); ok {
		return cached.([]models.Record), nil
	}

	records, err := a.inner.Fetch(ctx, src)
	if err != nil {
		return nil, err
	}
	a.cache.Set(src.ID, records, ttl)
	return records, nil
}
