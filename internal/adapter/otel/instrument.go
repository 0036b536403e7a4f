package otel

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/openshelf/openshelf/internal/port/audit"
	"github.com/openshelf/openshelf/internal/port/cache"
)

// InstrumentedCache wraps a cache with hit/miss counters.
type InstrumentedCache struct {
	inner cache.Cache
	m     *Metrics
}

// InstrumentCache decorates the given cache with hit/miss metrics.
func InstrumentCache(inner cache.Cache, m *Metrics) *InstrumentedCache {
	return &InstrumentedCache{inner: inner, m: m}
}

func (c *InstrumentedCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, ok, err := c.inner.Get(ctx, key)
	if ok {
		c.m.TenantCacheHits.Add(ctx, 1)
	} else {
		c.m.TenantCacheMiss.Add(ctx, 1)
	}
	return data, ok, err
}

func (c *InstrumentedCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.inner.Set(ctx, key, value, ttl)
}

func (c *InstrumentedCache) Delete(ctx context.Context, key string) error {
	return c.inner.Delete(ctx, key)
}

// InstrumentedSink wraps an audit sink and counts license rejections.
type InstrumentedSink struct {
	inner audit.Sink
	m     *Metrics
}

// InstrumentSink decorates the given audit sink with metrics.
func InstrumentSink(inner audit.Sink, m *Metrics) *InstrumentedSink {
	return &InstrumentedSink{inner: inner, m: m}
}

func (s *InstrumentedSink) Record(ctx context.Context, ev audit.Event) {
	if ev.Action == "license.rejected" {
		s.m.LicenseRejected.Add(ctx, 1,
			metric.WithAttributes(attribute.String("reason", ev.Reason)))
	}
	s.inner.Record(ctx, ev)
}
