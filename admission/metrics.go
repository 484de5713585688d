package admission

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/aquafarm-pro/tenantcore/quota"
)

// Metrics OpenTelemetry counters for admission decisions.
// Registration is optional; unregistered metrics are no-ops, so the engine
// works without an otel pipeline. Attributes carry the endpoint class only
// (tenant ids are unbounded cardinality).
type Metrics struct {
	mu         sync.RWMutex
	registered bool

	allowedTotal  metric.Int64Counter
	deniedTotal   metric.Int64Counter
	failOpenTotal metric.Int64Counter
}

// NewMetrics creates an unregistered metrics holder
func NewMetrics() *Metrics {
	return &Metrics{}
}

// Register creates the instruments against the given meter
func (m *Metrics) Register(meter metric.Meter) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.registered {
		return nil
	}

	var err error
	m.allowedTotal, err = meter.Int64Counter(
		"admission_allowed_total",
		metric.WithDescription("Total admitted requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return err
	}

	m.deniedTotal, err = meter.Int64Counter(
		"admission_denied_total",
		metric.WithDescription("Total denied requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return err
	}

	m.failOpenTotal, err = meter.Int64Counter(
		"admission_fail_open_total",
		metric.WithDescription("Requests admitted because the counter store was unavailable"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return err
	}

	m.registered = true
	return nil
}

// RecordAllowed counts one admitted request
func (m *Metrics) RecordAllowed(ctx context.Context, class quota.EndpointClass) {
	m.record(ctx, func() metric.Int64Counter { return m.allowedTotal }, class)
}

// RecordDenied counts one denied request
func (m *Metrics) RecordDenied(ctx context.Context, class quota.EndpointClass) {
	m.record(ctx, func() metric.Int64Counter { return m.deniedTotal }, class)
}

// RecordFailOpen counts one fail-open admit
func (m *Metrics) RecordFailOpen(ctx context.Context, class quota.EndpointClass) {
	m.record(ctx, func() metric.Int64Counter { return m.failOpenTotal }, class)
}

func (m *Metrics) record(ctx context.Context, counter func() metric.Int64Counter, class quota.EndpointClass) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.registered {
		return
	}
	counter().Add(ctx, 1, metric.WithAttributes(attribute.String("class", string(class))))
}
