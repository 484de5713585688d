package admission

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aquafarm-pro/tenantcore/events"
	"github.com/aquafarm-pro/tenantcore/logger"
	"github.com/aquafarm-pro/tenantcore/quota"
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

// failingStore always reports the backend as unreachable
type failingStore struct{}

func (failingStore) CheckAndIncr(context.Context, string, time.Duration) (int64, time.Duration, error) {
	return 0, 0, ErrStoreUnavailable
}
func (failingStore) Peek(context.Context, string) (int64, time.Duration, error) {
	return 0, 0, ErrStoreUnavailable
}
func (failingStore) Reset(context.Context, ...string) error    { return ErrStoreUnavailable }
func (failingStore) ResetPrefix(context.Context, string) error { return ErrStoreUnavailable }
func (failingStore) Close() error                              { return nil }

// failingResolver always fails tier resolution
type failingResolver struct{}

func (failingResolver) Resolve(context.Context, string) (quota.Tier, error) {
	return "", errors.New("tier service down")
}

func newTestEngine(t *testing.T, cfg Config, store Store) (*Engine, *logger.TestLogger, *recordingPublisher) {
	t.Helper()
	catalog, err := quota.NewCatalog(quota.DefaultConfig(), nil)
	require.NoError(t, err)
	if store == nil {
		ms := NewMemoryStore()
		t.Cleanup(func() { _ = ms.Close() })
		store = ms
	}
	log := logger.NewTestLogger()
	pub := &recordingPublisher{}
	engine, err := NewEngine(catalog, store, cfg, log, pub, nil)
	require.NoError(t, err)
	return engine, log, pub
}

func TestEngine_AuthWindowSequence(t *testing.T) {
	engine, _, pub := newTestEngine(t, Config{StoreType: "memory"}, nil)
	ctx := context.Background()

	// auth allows 10 per 5 minutes
	for i := 1; i <= 10; i++ {
		result := engine.Admit(ctx, "tenant_a", quota.ClassAuth, "")
		require.True(t, result.Allowed, "call %d", i)
		assert.Equal(t, int64(10), result.Limit)
		assert.Equal(t, int64(10-i), result.Remaining)
		assert.Empty(t, result.Reason)
		assert.Greater(t, result.ResetSeconds(), int64(0))
		assert.LessOrEqual(t, result.ResetSeconds(), int64(300))
	}

	result := engine.Admit(ctx, "tenant_a", quota.ClassAuth, "")
	assert.False(t, result.Allowed)
	assert.Equal(t, ReasonLimitExceeded, result.Reason)
	assert.Equal(t, int64(0), result.Remaining)
	assert.Equal(t, int64(10), result.Limit)

	denied := pub.byName(events.NameAdmissionDenied)
	require.Len(t, denied, 1)
	event := denied[0].(events.AdmissionDenied)
	assert.Equal(t, "tenant_a", event.TenantID)
	assert.Equal(t, "auth", event.Class)
	assert.Equal(t, int64(11), event.Count)
	assert.Equal(t, int64(10), event.Limit)
}

func TestEngine_TenantsAreIsolated(t *testing.T) {
	engine, _, _ := newTestEngine(t, Config{StoreType: "memory"}, nil)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		require.True(t, engine.Admit(ctx, "tenant_a", quota.ClassAuth, "").Allowed)
	}
	assert.False(t, engine.Admit(ctx, "tenant_a", quota.ClassAuth, "").Allowed)

	// another tenant still has a fresh window
	result := engine.Admit(ctx, "tenant_b", quota.ClassAuth, "")
	assert.True(t, result.Allowed)
	assert.Equal(t, int64(9), result.Remaining)
}

func TestEngine_TierRaisesLimit(t *testing.T) {
	engine, _, _ := newTestEngine(t, Config{StoreType: "memory"}, nil)
	ctx := context.Background()

	standard := engine.Admit(ctx, "tenant_a", quota.ClassAPI, "")
	assert.Equal(t, int64(1000), standard.Limit)

	premium := engine.Admit(ctx, "premium_tenant_a", quota.ClassAPI, "")
	assert.Equal(t, int64(5000), premium.Limit)

	enterprise := engine.Admit(ctx, "enterprise_tenant_a", quota.ClassAPI, "")
	assert.Equal(t, int64(20000), enterprise.Limit)

	// classes without a tier override fall back to defaults
	premiumAuth := engine.Admit(ctx, "premium_tenant_a", quota.ClassAuth, "")
	assert.Equal(t, int64(10), premiumAuth.Limit)
}

func TestEngine_PerUserAccounting(t *testing.T) {
	cfg := Config{StoreType: "memory", PerUserClasses: []string{"inference"}}
	engine, _, _ := newTestEngine(t, cfg, nil)
	ctx := context.Background()

	a := engine.Admit(ctx, "tenant_a", quota.ClassInference, "user_1")
	b := engine.Admit(ctx, "tenant_a", quota.ClassInference, "user_2")
	assert.Equal(t, int64(99), a.Remaining)
	assert.Equal(t, int64(99), b.Remaining, "distinct users get distinct counters")

	// a class without per-user accounting shares one tenant counter
	first := engine.Admit(ctx, "tenant_a", quota.ClassAPI, "user_1")
	second := engine.Admit(ctx, "tenant_a", quota.ClassAPI, "user_2")
	assert.Equal(t, first.Remaining-1, second.Remaining)
}

func TestEngine_FailOpenOnStoreError(t *testing.T) {
	engine, log, pub := newTestEngine(t, Config{StoreType: "memory"}, failingStore{})
	ctx := context.Background()

	result := engine.Admit(ctx, "tenant_a", quota.ClassAPI, "")
	assert.True(t, result.Allowed)
	assert.Equal(t, ReasonStoreUnavailable, result.Reason)
	assert.True(t, result.Degraded())
	assert.Equal(t, int64(1000), result.Limit)

	assert.True(t, log.HasLog("WARN", "counter store unavailable"))
	require.Len(t, pub.byName(events.NameStoreFailOpen), 1)
}

func TestEngine_FailOpenOnResolverError(t *testing.T) {
	catalog, err := quota.NewCatalog(quota.DefaultConfig(), failingResolver{})
	require.NoError(t, err)
	store := NewMemoryStore()
	defer func() { _ = store.Close() }()
	log := logger.NewTestLogger()
	pub := &recordingPublisher{}
	engine, err := NewEngine(catalog, store, Config{StoreType: "memory"}, log, pub, nil)
	require.NoError(t, err)

	result := engine.Admit(context.Background(), "tenant_a", quota.ClassAPI, "")
	assert.True(t, result.Allowed)
	assert.Equal(t, ReasonTierUnresolved, result.Reason)
	assert.True(t, result.Degraded())
	assert.True(t, log.HasLog("WARN", "tier resolution failed"))
	require.Len(t, pub.byName(events.NameStoreFailOpen), 1)

	// a failed resolution consumed no quota
	count, _, err := store.Peek(context.Background(), BuildKey("tenant_a", "api", ""))
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestEngine_UnknownClassIsUnlimited(t *testing.T) {
	engine, log, _ := newTestEngine(t, Config{StoreType: "memory"}, nil)

	result := engine.Admit(context.Background(), "tenant_a", quota.EndpointClass("batch"), "")
	assert.True(t, result.Allowed)
	assert.Equal(t, ReasonNoRule, result.Reason)
	assert.Equal(t, int64(0), result.Limit)
	assert.True(t, log.HasLog("WARN", "no quota rule"))
}

func TestEngine_SnapshotDoesNotMutate(t *testing.T) {
	engine, _, _ := newTestEngine(t, Config{StoreType: "memory"}, nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.True(t, engine.Admit(ctx, "tenant_a", quota.ClassAuth, "").Allowed)
	}

	first, err := engine.Snapshot(ctx, "tenant_a")
	require.NoError(t, err)
	second, err := engine.Snapshot(ctx, "tenant_a")
	require.NoError(t, err)
	assert.Equal(t, first, second)

	// ordered by canonical class order; all configured classes present
	require.Len(t, first, len(quota.Classes()))
	for i, class := range quota.Classes() {
		assert.Equal(t, class, first[i].Class)
	}

	var auth Usage
	for _, u := range first {
		if u.Class == quota.ClassAuth {
			auth = u
		}
	}
	assert.Equal(t, int64(3), auth.Count)
	assert.Equal(t, int64(10), auth.Limit)
	assert.InDelta(t, 30.0, auth.Percent, 0.001)

	// idle classes report zero
	assert.Equal(t, int64(0), first[0].Count)
}

func TestEngine_SnapshotIncludesTierOnlyClass(t *testing.T) {
	qcfg := quota.DefaultConfig()
	qcfg.Tiers[string(quota.TierPremium)]["batch"] = quota.RuleConfig{MaxCount: 25, Window: time.Hour}
	catalog, err := quota.NewCatalog(qcfg, nil)
	require.NoError(t, err)

	ms := NewMemoryStore()
	t.Cleanup(func() { _ = ms.Close() })
	engine, err := NewEngine(catalog, ms, Config{StoreType: "memory"}, logger.NewTestLogger(), nil, nil)
	require.NoError(t, err)

	ctx := context.Background()

	snap, err := engine.Snapshot(ctx, "premium_bob")
	require.NoError(t, err)
	require.Len(t, snap, len(quota.Classes())+1)

	// extra classes follow the canonical ones
	last := snap[len(snap)-1]
	assert.Equal(t, quota.EndpointClass("batch"), last.Class)
	assert.Equal(t, int64(25), last.Limit)

	std, err := engine.Snapshot(ctx, "tenant_123")
	require.NoError(t, err)
	assert.Len(t, std, len(quota.Classes()))
}

func TestEngine_SnapshotStoreError(t *testing.T) {
	engine, _, _ := newTestEngine(t, Config{StoreType: "memory"}, failingStore{})

	_, err := engine.Snapshot(context.Background(), "tenant_a")
	assert.ErrorIs(t, err, ErrStoreUnavailable)
}

func TestEngine_ResetClass(t *testing.T) {
	engine, _, pub := newTestEngine(t, Config{StoreType: "memory"}, nil)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		require.True(t, engine.Admit(ctx, "tenant_a", quota.ClassAuth, "").Allowed)
	}
	require.True(t, engine.Admit(ctx, "tenant_a", quota.ClassAPI, "").Allowed)
	assert.False(t, engine.Admit(ctx, "tenant_a", quota.ClassAuth, "").Allowed)

	require.NoError(t, engine.Reset(ctx, "tenant_a", quota.ClassAuth))

	after := engine.Admit(ctx, "tenant_a", quota.ClassAuth, "")
	assert.True(t, after.Allowed)
	assert.Equal(t, int64(9), after.Remaining)

	// other classes keep their counts
	api := engine.Admit(ctx, "tenant_a", quota.ClassAPI, "")
	assert.Equal(t, int64(998), api.Remaining)

	require.Len(t, pub.byName(events.NameLimitsReset), 1)
}

func TestEngine_ResetTenant(t *testing.T) {
	engine, _, _ := newTestEngine(t, Config{StoreType: "memory"}, nil)
	ctx := context.Background()

	engine.Admit(ctx, "tenant_a", quota.ClassAuth, "")
	engine.Admit(ctx, "tenant_a", quota.ClassAPI, "")

	require.NoError(t, engine.Reset(ctx, "tenant_a", ""))

	snapshot, err := engine.Snapshot(ctx, "tenant_a")
	require.NoError(t, err)
	for _, u := range snapshot {
		assert.Equal(t, int64(0), u.Count, string(u.Class))
	}
}

func TestEngine_ResetStoreError(t *testing.T) {
	engine, _, _ := newTestEngine(t, Config{StoreType: "memory"}, failingStore{})

	err := engine.Reset(context.Background(), "tenant_a", "")
	assert.ErrorIs(t, err, ErrStoreUnavailable)
}

func TestEngine_ConcurrentAdmissionsNeverOverAdmit(t *testing.T) {
	engine, _, _ := newTestEngine(t, Config{StoreType: "memory"}, nil)
	ctx := context.Background()

	const callers = 30 // auth quota is 10
	var wg sync.WaitGroup
	var mu sync.Mutex
	allowed := 0

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if engine.Admit(ctx, "tenant_a", quota.ClassAuth, "").Allowed {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, allowed)
}

func TestEngine_InvalidConfig(t *testing.T) {
	catalog, err := quota.NewCatalog(quota.DefaultConfig(), nil)
	require.NoError(t, err)
	store := NewMemoryStore()
	defer func() { _ = store.Close() }()

	_, err = NewEngine(catalog, store, Config{StoreType: "etcd"}, nil, nil, nil)
	assert.Error(t, err)

	_, err = NewEngine(nil, store, Config{}, nil, nil, nil)
	assert.Error(t, err)

	_, err = NewEngine(catalog, nil, Config{}, nil, nil, nil)
	assert.Error(t, err)
}

func TestResult_ResetSeconds(t *testing.T) {
	assert.Equal(t, int64(0), Result{}.ResetSeconds())
	assert.Equal(t, int64(1), Result{ResetAfter: 200 * time.Millisecond}.ResetSeconds())
	assert.Equal(t, int64(300), Result{ResetAfter: 5 * time.Minute}.ResetSeconds())
}
