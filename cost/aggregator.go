package cost

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/aquafarm-pro/tenantcore/events"
	"github.com/aquafarm-pro/tenantcore/logger"
	"github.com/aquafarm-pro/tenantcore/usage"
)

// Breakdown per-resource cost projection over a period. Always recomputed
// from persisted samples, never stored.
type Breakdown struct {
	TenantID    string                         `json:"tenant_id"`
	PeriodStart time.Time                      `json:"period_start"`
	PeriodEnd   time.Time                      `json:"period_end"`
	TotalCost   float64                        `json:"total_cost"`
	PerResource map[usage.ResourceType]float64 `json:"per_resource"`
	Currency    string                         `json:"currency"`
}

// Aggregator prices samples, persists them and serves cost projections.
// Persistence never blocks sampling: a failed append is retried once and
// then the batch is dropped with an audit event.
type Aggregator struct {
	store     HistoryStore
	rates     *RateTable
	retention time.Duration
	log       logger.Logger
	bus       events.Publisher
}

// NewAggregator creates a cost aggregator
// retention bounds History lookback (0 means unbounded); bus may be nil;
// log may be nil (discards)
func NewAggregator(store HistoryStore, rates *RateTable, retention time.Duration, log logger.Logger, bus events.Publisher) (*Aggregator, error) {
	if store == nil {
		return nil, fmt.Errorf("store cannot be nil")
	}
	if rates == nil {
		return nil, fmt.Errorf("rate table cannot be nil")
	}
	if log == nil {
		log = logger.NewNop()
	}

	return &Aggregator{
		store:     store,
		rates:     rates,
		retention: retention,
		log:       log,
		bus:       bus,
	}, nil
}

// CostOf prices one sample: usage times the resource rate. An unpriced
// resource costs zero and is logged as a configuration gap.
func (a *Aggregator) CostOf(ctx context.Context, sample usage.Sample) float64 {
	rate, ok := a.rates.Rate(sample.Resource)
	if !ok {
		a.log.WarnCtx(ctx, "no rate configured for resource, costing zero",
			zap.String("resource", string(sample.Resource)))
		return 0
	}
	return sample.Usage * rate
}

// Persist appends a batch of samples to the history store. On failure it
// retries exactly once, then drops the batch.
func (a *Aggregator) Persist(ctx context.Context, samples []usage.Sample) error {
	if len(samples) == 0 {
		return nil
	}

	records := make([]UsageRecord, 0, len(samples))
	for _, sample := range samples {
		records = append(records, recordFromSample(sample))
	}
	tenantID := records[0].TenantID

	err := a.store.Append(ctx, records)
	if err != nil {
		a.log.WarnCtx(ctx, "usage batch append failed, retrying once",
			zap.String("tenant_id", tenantID),
			zap.Int("samples", len(records)),
			zap.Error(err))
		err = a.store.Append(ctx, records)
	}
	if err != nil {
		a.log.WarnCtx(ctx, "usage batch dropped after retry",
			zap.String("tenant_id", tenantID),
			zap.Int("samples", len(records)),
			zap.Error(err))
		if a.bus != nil {
			a.bus.Publish(events.PersistDropped{
				BaseEvent: events.NewBaseEvent(events.NamePersistDropped),
				TenantID:  tenantID,
				Samples:   len(records),
				Error:     err.Error(),
			})
		}
		return fmt.Errorf("persist usage batch for %s: %w", tenantID, err)
	}

	if a.bus != nil {
		a.bus.Publish(events.UsagePersisted{
			BaseEvent: events.NewBaseEvent(events.NameUsagePersisted),
			TenantID:  tenantID,
			Samples:   len(records),
		})
	}
	return nil
}

// Breakdown sums a tenant's persisted samples over [start, end) into
// per-resource costs. The total always equals the sum of the parts.
func (a *Aggregator) Breakdown(ctx context.Context, tenantID string, start, end time.Time) (Breakdown, error) {
	records, err := a.store.ListRange(ctx, tenantID, start, end)
	if err != nil {
		return Breakdown{}, fmt.Errorf("breakdown for %s: %w", tenantID, err)
	}

	perResource := make(map[usage.ResourceType]float64)
	total := 0.0
	for _, record := range records {
		cost := a.CostOf(ctx, record.Sample())
		perResource[usage.ResourceType(record.Resource)] += cost
		total += cost
	}

	return Breakdown{
		TenantID:    tenantID,
		PeriodStart: start,
		PeriodEnd:   end,
		TotalCost:   total,
		PerResource: perResource,
		Currency:    a.rates.Currency(),
	}, nil
}

// History returns a tenant's persisted samples since the given time,
// newest first. The lookback is clamped to the retention window.
func (a *Aggregator) History(ctx context.Context, tenantID string, since time.Time) ([]usage.Sample, error) {
	if a.retention > 0 {
		oldest := time.Now().UTC().Add(-a.retention)
		if since.Before(oldest) {
			since = oldest
		}
	}

	records, err := a.store.ListSince(ctx, tenantID, since)
	if err != nil {
		return nil, fmt.Errorf("history for %s: %w", tenantID, err)
	}

	out := make([]usage.Sample, 0, len(records))
	for _, record := range records {
		out = append(out, record.Sample())
	}
	return out, nil
}

// PurgeBefore deletes persisted samples older than cutoff
func (a *Aggregator) PurgeBefore(ctx context.Context, cutoff time.Time) error {
	if err := a.store.PurgeBefore(ctx, cutoff); err != nil {
		return fmt.Errorf("purge history: %w", err)
	}
	return nil
}

// interface guards
var (
	_ usage.Recorder = (*Aggregator)(nil)
	_ usage.Purger   = (*Aggregator)(nil)
)
