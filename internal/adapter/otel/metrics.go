package otel

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "openshelf"

// Metrics holds all OpenShelf metric instruments.
type Metrics struct {
	PolicyDecisions metric.Int64Counter
	TenantCacheHits metric.Int64Counter
	TenantCacheMiss metric.Int64Counter
	LicenseRejected metric.Int64Counter
	ResolveDuration metric.Float64Histogram
}

// NewMetrics creates all metric instruments.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)
	m := &Metrics{}
	var err error

	m.PolicyDecisions, err = meter.Int64Counter("openshelf.policy.decisions",
		metric.WithDescription("Access policy decisions by outcome"))
	if err != nil {
		return nil, err
	}

	m.TenantCacheHits, err = meter.Int64Counter("openshelf.tenant_cache.hits",
		metric.WithDescription("Tenant directory cache hits"))
	if err != nil {
		return nil, err
	}

	m.TenantCacheMiss, err = meter.Int64Counter("openshelf.tenant_cache.misses",
		metric.WithDescription("Tenant directory cache misses"))
	if err != nil {
		return nil, err
	}

	m.LicenseRejected, err = meter.Int64Counter("openshelf.license.rejected",
		metric.WithDescription("License validation failures"))
	if err != nil {
		return nil, err
	}

	m.ResolveDuration, err = meter.Float64Histogram("openshelf.tenant_resolve.duration_seconds",
		metric.WithDescription("Tenant resolution duration in seconds"))
	if err != nil {
		return nil, err
	}

	return m, nil
}
