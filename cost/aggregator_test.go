package cost

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aquafarm-pro/tenantcore/events"
	"github.com/aquafarm-pro/tenantcore/logger"
	"github.com/aquafarm-pro/tenantcore/usage"
)

// recordingPublisher collects published events for assertions
type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(event events.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *recordingPublisher) byName(name string) []events.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []events.Event
	for _, e := range p.events {
		if e.Name() == name {
			out = append(out, e)
		}
	}
	return out
}

// flakyStore fails Append a configured number of times
type flakyStore struct {
	HistoryStore
	mu        sync.Mutex
	failures  int
	attempts  int
	persisted int
}

func (s *flakyStore) Append(ctx context.Context, records []UsageRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempts++
	if s.attempts <= s.failures {
		return errors.New("database down")
	}
	s.persisted += len(records)
	return nil
}

func sample(tenantID string, resource usage.ResourceType, value float64, at time.Time) usage.Sample {
	return usage.Sample{
		ID:        uuid.NewString(),
		TenantID:  tenantID,
		Resource:  resource,
		Usage:     value,
		Limit:     100,
		Unit:      "GB",
		SampledAt: at,
	}
}

func newTestAggregator(t *testing.T, store HistoryStore, retention time.Duration, bus events.Publisher) *Aggregator {
	t.Helper()
	agg, err := NewAggregator(store, NewRateTable(Config{}), retention, logger.NewTestLogger(), bus)
	require.NoError(t, err)
	return agg
}

func TestRateTable_DefaultsAndOverrides(t *testing.T) {
	table := NewRateTable(Config{})
	for resource, expected := range map[usage.ResourceType]float64{
		usage.ResourceCPU:      0.05,
		usage.ResourceMemory:   0.01,
		usage.ResourceStorage:  0.10,
		usage.ResourceNetwork:  0.02,
		usage.ResourceDatabase: 0.03,
		usage.ResourceCache:    0.01,
	} {
		rate, ok := table.Rate(resource)
		require.True(t, ok, string(resource))
		assert.Equal(t, expected, rate, string(resource))
	}
	assert.Equal(t, "USD", table.Currency())

	_, ok := table.Rate(usage.ResourceType("gpu"))
	assert.False(t, ok)

	overridden := NewRateTable(Config{
		Rates:    map[string]float64{"cpu": 0.08, "gpu": 1.5},
		Currency: "EUR",
	})
	rate, ok := overridden.Rate(usage.ResourceCPU)
	require.True(t, ok)
	assert.Equal(t, 0.08, rate)
	rate, ok = overridden.Rate(usage.ResourceType("gpu"))
	require.True(t, ok)
	assert.Equal(t, 1.5, rate)
	assert.Equal(t, "EUR", overridden.Currency())
}

func TestAggregator_CostOf(t *testing.T) {
	agg := newTestAggregator(t, setupStore(t), 0, nil)
	ctx := context.Background()

	s := sample("tenant_a", usage.ResourceCPU, 40, time.Now())
	assert.InDelta(t, 2.0, agg.CostOf(ctx, s), 1e-9) // 40 × 0.05

	unknown := sample("tenant_a", usage.ResourceType("gpu"), 40, time.Now())
	assert.Equal(t, 0.0, agg.CostOf(ctx, unknown))
}

func TestAggregator_PersistAndHistory(t *testing.T) {
	pub := &recordingPublisher{}
	agg := newTestAggregator(t, setupStore(t), 0, pub)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	batch := []usage.Sample{
		sample("tenant_a", usage.ResourceCPU, 30, now.Add(-time.Hour)),
		sample("tenant_a", usage.ResourceMemory, 4, now),
	}
	require.NoError(t, agg.Persist(ctx, batch))

	history, err := agg.History(ctx, "tenant_a", now.Add(-24*time.Hour))
	require.NoError(t, err)
	require.Len(t, history, 2)
	// newest first; round-trip preserves the sample
	assert.Equal(t, usage.ResourceMemory, history[0].Resource)
	assert.Equal(t, batch[1].ID, history[0].ID)
	assert.Equal(t, 4.0, history[0].Usage)

	persisted := pub.byName(events.NameUsagePersisted)
	require.Len(t, persisted, 1)
	assert.Equal(t, 2, persisted[0].(events.UsagePersisted).Samples)
}

func TestAggregator_PersistRetriesOnce(t *testing.T) {
	store := &flakyStore{failures: 1}
	pub := &recordingPublisher{}
	agg := newTestAggregator(t, store, 0, pub)

	err := agg.Persist(context.Background(), []usage.Sample{
		sample("tenant_a", usage.ResourceCPU, 30, time.Now()),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, store.attempts)
	assert.Equal(t, 1, store.persisted)
	assert.Empty(t, pub.byName(events.NamePersistDropped))
}

func TestAggregator_PersistDropsAfterSecondFailure(t *testing.T) {
	store := &flakyStore{failures: 2}
	pub := &recordingPublisher{}
	agg := newTestAggregator(t, store, 0, pub)

	err := agg.Persist(context.Background(), []usage.Sample{
		sample("tenant_a", usage.ResourceCPU, 30, time.Now()),
		sample("tenant_a", usage.ResourceMemory, 4, time.Now()),
	})
	require.Error(t, err)
	assert.Equal(t, 2, store.attempts, "exactly one retry")

	dropped := pub.byName(events.NamePersistDropped)
	require.Len(t, dropped, 1)
	event := dropped[0].(events.PersistDropped)
	assert.Equal(t, "tenant_a", event.TenantID)
	assert.Equal(t, 2, event.Samples)
}

func TestAggregator_PersistEmptyBatch(t *testing.T) {
	store := &flakyStore{failures: 99}
	agg := newTestAggregator(t, store, 0, nil)

	assert.NoError(t, agg.Persist(context.Background(), nil))
	assert.Equal(t, 0, store.attempts)
}

func TestAggregator_BreakdownIsAdditive(t *testing.T) {
	agg := newTestAggregator(t, setupStore(t), 0, nil)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	require.NoError(t, agg.Persist(ctx, []usage.Sample{
		sample("tenant_a", usage.ResourceCPU, 40, now.Add(-2*time.Hour)),     // 2.00
		sample("tenant_a", usage.ResourceCPU, 60, now.Add(-time.Hour)),       // 3.00
		sample("tenant_a", usage.ResourceDatabase, 500, now.Add(-time.Hour)), // 15.00
		sample("tenant_b", usage.ResourceCPU, 100, now.Add(-time.Hour)),      // other tenant
	}))

	breakdown, err := agg.Breakdown(ctx, "tenant_a", now.Add(-24*time.Hour), now)
	require.NoError(t, err)

	assert.Equal(t, "tenant_a", breakdown.TenantID)
	assert.Equal(t, "USD", breakdown.Currency)
	assert.InDelta(t, 5.0, breakdown.PerResource[usage.ResourceCPU], 1e-9)
	assert.InDelta(t, 15.0, breakdown.PerResource[usage.ResourceDatabase], 1e-9)

	sum := 0.0
	for _, cost := range breakdown.PerResource {
		sum += cost
	}
	assert.InDelta(t, sum, breakdown.TotalCost, 1e-9)
	assert.InDelta(t, 20.0, breakdown.TotalCost, 1e-9)
}

func TestAggregator_BreakdownEmptyPeriod(t *testing.T) {
	agg := newTestAggregator(t, setupStore(t), 0, nil)

	breakdown, err := agg.Breakdown(context.Background(), "tenant_a",
		time.Now().Add(-time.Hour), time.Now())
	require.NoError(t, err)
	assert.Equal(t, 0.0, breakdown.TotalCost)
	assert.Empty(t, breakdown.PerResource)
}

func TestAggregator_HistoryClampedToRetention(t *testing.T) {
	store := setupStore(t)
	agg := newTestAggregator(t, store, 24*time.Hour, nil)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	require.NoError(t, store.Append(ctx, []UsageRecord{
		record("tenant_a", "cpu", 1, now.Add(-48*time.Hour)),
		record("tenant_a", "cpu", 2, now.Add(-time.Hour)),
	}))

	// asking for a week only reaches back one retention period
	history, err := agg.History(ctx, "tenant_a", now.Add(-7*24*time.Hour))
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, 2.0, history[0].Usage)
}

func TestAggregator_PurgeBefore(t *testing.T) {
	store := setupStore(t)
	agg := newTestAggregator(t, store, 0, nil)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	require.NoError(t, store.Append(ctx, []UsageRecord{
		record("tenant_a", "cpu", 1, now.Add(-48*time.Hour)),
		record("tenant_a", "cpu", 2, now),
	}))

	require.NoError(t, agg.PurgeBefore(ctx, now.Add(-24*time.Hour)))

	history, err := agg.History(ctx, "tenant_a", now.Add(-72*time.Hour))
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, 2.0, history[0].Usage)
}

func TestNewAggregator_Validation(t *testing.T) {
	_, err := NewAggregator(nil, NewRateTable(Config{}), 0, nil, nil)
	assert.Error(t, err)

	_, err = NewAggregator(setupStore(t), nil, 0, nil, nil)
	assert.Error(t, err)
}
