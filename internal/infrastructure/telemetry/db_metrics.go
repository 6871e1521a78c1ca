package telemetry

import (
	"context"
	"database/sql"

	"go.opentelemetry.io/otel/metric"
)

// DBPoolMetrics observes connection pool statistics of a *sql.DB on every
// metrics collection.
type DBPoolMetrics struct {
	registration metric.Registration
}

// RegisterDBPoolMetrics registers observable pool gauges for sqlDB. The
// system attribute distinguishes postgresql, mysql and sqlite pools.
func RegisterDBPoolMetrics(meter metric.Meter, sqlDB *sql.DB, system string) (*DBPoolMetrics, error) {
	connections, err := meter.Int64ObservableGauge("db_pool_connections",
		metric.WithDescription("Number of connections in the pool by state"),
		metric.WithUnit("{connection}"))
	if err != nil {
		return nil, err
	}
	maxOpen, err := meter.Int64ObservableGauge("db_pool_connections_max",
		metric.WithDescription("Maximum number of open connections"),
		metric.WithUnit("{connection}"))
	if err != nil {
		return nil, err
	}
	waits, err := meter.Int64ObservableCounter("db_pool_wait_total",
		metric.WithDescription("Connections waited for because the pool was exhausted"),
		metric.WithUnit("{wait}"))
	if err != nil {
		return nil, err
	}

	sys := AttrDBSystem.String(system)
	reg, err := meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		stats := sqlDB.Stats()
		o.ObserveInt64(connections, int64(stats.InUse), metric.WithAttributes(sys, AttrDBState.String("in_use")))
		o.ObserveInt64(connections, int64(stats.Idle), metric.WithAttributes(sys, AttrDBState.String("idle")))
		o.ObserveInt64(maxOpen, int64(stats.MaxOpenConnections), metric.WithAttributes(sys))
		o.ObserveInt64(waits, stats.WaitCount, metric.WithAttributes(sys))
		return nil
	}, connections, maxOpen, waits)
	if err != nil {
		return nil, err
	}
	return &DBPoolMetrics{registration: reg}, nil
}

// Unregister stops observing the pool.
func (m *DBPoolMetrics) Unregister() error {
	return m.registration.Unregister()
}
