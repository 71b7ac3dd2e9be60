package pool

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/esroyo/generic-pool/internal/observability"
)

const instrumentationName = "github.com/esroyo/generic-pool/pkg/pool"

// gaugeFuncs decouples the otel callback registration from the generic pool
// type; each func reads the corresponding pool gauge under the pool lock.
type gaugeFuncs struct {
	size      func() int
	available func() int
	borrowed  func() int
	pending   func() int
}

// poolMetrics publishes pool activity on the global meter provider. When
// instrument creation fails the pool logs once and runs without telemetry;
// metric trouble never breaks pooling.
type poolMetrics struct {
	attrs        metric.MeasurementOption
	created      metric.Int64Counter
	createFails  metric.Int64Counter
	destroyed    metric.Int64Counter
	destroyFails metric.Int64Counter
	timeouts     metric.Int64Counter
	evicted      metric.Int64Counter
	registration metric.Registration
}

func newPoolMetrics(name string, gauges gaugeFuncs) *poolMetrics {
	meter := otel.Meter(instrumentationName)
	m := new(poolMetrics)
	m.attrs = metric.WithAttributes(attribute.String("pool.name", name))

	var err error
	if m.created, err = meter.Int64Counter("pool.resources.created",
		metric.WithDescription("Resources successfully created by the factory")); err != nil {
		m.disabled(err)
		return m
	}
	if m.createFails, err = meter.Int64Counter("pool.resources.create_failures",
		metric.WithDescription("Factory create rejections")); err != nil {
		m.disabled(err)
		return m
	}
	if m.destroyed, err = meter.Int64Counter("pool.resources.destroyed",
		metric.WithDescription("Resources destroyed by the pool")); err != nil {
		m.disabled(err)
		return m
	}
	if m.destroyFails, err = meter.Int64Counter("pool.resources.destroy_failures",
		metric.WithDescription("Factory destroy rejections and destroy timeouts")); err != nil {
		m.disabled(err)
		return m
	}
	if m.timeouts, err = meter.Int64Counter("pool.acquire.timeouts",
		metric.WithDescription("Waiters that expired before a resource arrived")); err != nil {
		m.disabled(err)
		return m
	}
	if m.evicted, err = meter.Int64Counter("pool.resources.evicted",
		metric.WithDescription("Resources destroyed by the idle eviction sweep")); err != nil {
		m.disabled(err)
		return m
	}

	size, err := meter.Int64ObservableGauge("pool.size",
		metric.WithDescription("Total resources, including in-flight creations"))
	if err != nil {
		m.disabled(err)
		return m
	}
	available, err := meter.Int64ObservableGauge("pool.available",
		metric.WithDescription("Idle resources ready for dispatch"))
	if err != nil {
		m.disabled(err)
		return m
	}
	borrowed, err := meter.Int64ObservableGauge("pool.borrowed",
		metric.WithDescription("Resources currently on loan"))
	if err != nil {
		m.disabled(err)
		return m
	}
	pending, err := meter.Int64ObservableGauge("pool.pending",
		metric.WithDescription("Waiters queued for a resource"))
	if err != nil {
		m.disabled(err)
		return m
	}

	m.registration, err = meter.RegisterCallback(
		func(_ context.Context, o metric.Observer) error {
			o.ObserveInt64(size, int64(gauges.size()), m.attrs)
			o.ObserveInt64(available, int64(gauges.available()), m.attrs)
			o.ObserveInt64(borrowed, int64(gauges.borrowed()), m.attrs)
			o.ObserveInt64(pending, int64(gauges.pending()), m.attrs)
			return nil
		},
		size, available, borrowed, pending,
	)
	if err != nil {
		m.disabled(err)
	}
	return m
}

func (m *poolMetrics) disabled(err error) {
	observability.Log().Error("pool: metrics disabled",
		observability.F("error", err))
	m.created = nil
	m.createFails = nil
	m.destroyed = nil
	m.destroyFails = nil
	m.timeouts = nil
	m.evicted = nil
	m.registration = nil
}

func (m *poolMetrics) add(c metric.Int64Counter) {
	if m == nil || c == nil {
		return
	}
	c.Add(context.Background(), 1, m.attrs)
}

func (m *poolMetrics) incCreated()        { m.add(m.created) }
func (m *poolMetrics) incCreateFailure()  { m.add(m.createFails) }
func (m *poolMetrics) incDestroyed()      { m.add(m.destroyed) }
func (m *poolMetrics) incDestroyFailure() { m.add(m.destroyFails) }
func (m *poolMetrics) incAcquireTimeout() { m.add(m.timeouts) }
func (m *poolMetrics) incEvicted()        { m.add(m.evicted) }

// unregister detaches the gauge callback; called when the pool drains.
func (m *poolMetrics) unregister() {
	if m == nil || m.registration == nil {
		return
	}
	_ = m.registration.Unregister()
	m.registration = nil
}
