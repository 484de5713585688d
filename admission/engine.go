package admission

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/aquafarm-pro/tenantcore/events"
	"github.com/aquafarm-pro/tenantcore/logger"
	"github.com/aquafarm-pro/tenantcore/quota"
)

// Engine the rate limit engine: resolves the effective quota, performs one
// atomic check-and-increment against the shared counter store and returns
// the admit/deny decision with header metadata.
//
// Failure policy is fail-open: an unreachable counter store admits the
// request with a reason flag instead of taking the platform down. No
// internal retries; each call is a single logical check.
type Engine struct {
	catalog *quota.Catalog
	store   Store
	config  Config
	log     logger.Logger
	bus     events.Publisher
	metrics *Metrics
}

// NewEngine creates a rate limit engine
// bus and metrics may be nil; log may be nil (discards)
func NewEngine(catalog *quota.Catalog, store Store, cfg Config, log logger.Logger, bus events.Publisher, metrics *Metrics) (*Engine, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid admission config: %w", err)
	}
	if catalog == nil {
		return nil, fmt.Errorf("catalog cannot be nil")
	}
	if store == nil {
		return nil, fmt.Errorf("store cannot be nil")
	}
	if log == nil {
		log = logger.NewNop()
	}

	return &Engine{
		catalog: catalog,
		store:   store,
		config:  cfg,
		log:     log,
		bus:     bus,
		metrics: metrics,
	}, nil
}

// Admit performs one admission check for (tenant, class, optional user).
// userID participates in the counter key only for classes configured with
// per-user accounting.
func (e *Engine) Admit(ctx context.Context, tenantID string, class quota.EndpointClass, userID string) Result {
	rule, ok, err := e.catalog.Resolve(ctx, tenantID, class)
	if err != nil {
		e.log.WarnCtx(ctx, "tier resolution failed, admitting without enforcement",
			zap.String("tenant_id", tenantID),
			zap.String("class", string(class)),
			zap.Error(err))
		e.recordFailOpen(ctx, tenantID, class, err)
		return Result{Allowed: true, Reason: ReasonTierUnresolved}
	}
	if !ok {
		e.log.WarnCtx(ctx, "no quota rule for endpoint class, treating as unlimited",
			zap.String("tenant_id", tenantID),
			zap.String("class", string(class)))
		if e.metrics != nil {
			e.metrics.RecordAllowed(ctx, class)
		}
		return Result{Allowed: true, Reason: ReasonNoRule}
	}

	key := e.buildKey(tenantID, class, userID)

	storeCtx, cancel := context.WithTimeout(ctx, e.config.StoreTimeout)
	defer cancel()

	count, ttl, err := e.store.CheckAndIncr(storeCtx, key, rule.Window)
	if err != nil {
		e.log.WarnCtx(ctx, "counter store unavailable, admitting without enforcement",
			zap.String("tenant_id", tenantID),
			zap.String("class", string(class)),
			zap.Error(err))
		e.recordFailOpen(ctx, tenantID, class, err)
		return Result{
			Allowed: true,
			Limit:   rule.MaxCount,
			Reason:  ReasonStoreUnavailable,
		}
	}

	remaining := rule.MaxCount - count
	if remaining < 0 {
		remaining = 0
	}

	result := Result{
		Allowed:    count <= rule.MaxCount,
		Limit:      rule.MaxCount,
		Remaining:  remaining,
		ResetAfter: ttl,
	}

	if result.Allowed {
		if e.metrics != nil {
			e.metrics.RecordAllowed(ctx, class)
		}
		return result
	}

	result.Reason = ReasonLimitExceeded
	e.log.InfoCtx(ctx, "admission denied",
		zap.String("tenant_id", tenantID),
		zap.String("class", string(class)),
		zap.Int64("count", count),
		zap.Int64("limit", rule.MaxCount),
		zap.Int64("reset_seconds", result.ResetSeconds()))
	if e.metrics != nil {
		e.metrics.RecordDenied(ctx, class)
	}
	if e.bus != nil {
		e.bus.Publish(events.AdmissionDenied{
			BaseEvent:  events.NewBaseEvent(events.NameAdmissionDenied),
			TenantID:   tenantID,
			Class:      string(class),
			UserID:     userID,
			Count:      count,
			Limit:      rule.MaxCount,
			ResetAfter: result.ResetSeconds(),
		})
	}

	return result
}

// Reset clears counters for a tenant: one class (including per-user
// sub-keys) when class is non-empty, otherwise the whole tenant.
// Operator surface, not the hot path.
func (e *Engine) Reset(ctx context.Context, tenantID string, class quota.EndpointClass) error {
	storeCtx, cancel := context.WithTimeout(ctx, e.config.StoreTimeout)
	defer cancel()

	var err error
	if class != "" {
		err = e.store.ResetPrefix(storeCtx, ClassPrefix(tenantID, string(class)))
	} else {
		err = e.store.ResetPrefix(storeCtx, TenantPrefix(tenantID))
	}
	if err != nil {
		return fmt.Errorf("reset limits for %s failed: %w", tenantID, err)
	}

	e.log.InfoCtx(ctx, "limits reset",
		zap.String("tenant_id", tenantID),
		zap.String("class", string(class)))
	if e.bus != nil {
		e.bus.Publish(events.LimitsReset{
			BaseEvent: events.NewBaseEvent(events.NameLimitsReset),
			TenantID:  tenantID,
			Class:     string(class),
		})
	}
	return nil
}

// Snapshot reports current count, limit and utilization per endpoint class
// without mutating any counter (read-only Peek).
func (e *Engine) Snapshot(ctx context.Context, tenantID string) ([]Usage, error) {
	rules, err := e.catalog.ResolveAll(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("snapshot for %s failed: %w", tenantID, err)
	}

	storeCtx, cancel := context.WithTimeout(ctx, e.config.StoreTimeout)
	defer cancel()

	out := make([]Usage, 0, len(rules))
	for _, class := range snapshotOrder(rules) {
		rule := rules[class]

		count, _, err := e.store.Peek(storeCtx, BuildKey(tenantID, string(class), ""))
		if err != nil {
			return nil, fmt.Errorf("snapshot for %s failed: %w", tenantID, err)
		}

		out = append(out, Usage{
			Class:   class,
			Count:   count,
			Limit:   rule.MaxCount,
			Window:  rule.Window,
			Percent: float64(count) / float64(rule.MaxCount) * 100,
		})
	}
	return out, nil
}

// snapshotOrder lists the rule classes canonically: the builtin classes in
// their fixed order first, then any extra configured classes sorted by name
func snapshotOrder(rules map[quota.EndpointClass]quota.Rule) []quota.EndpointClass {
	out := make([]quota.EndpointClass, 0, len(rules))
	seen := make(map[quota.EndpointClass]struct{}, len(rules))
	for _, class := range quota.Classes() {
		if _, ok := rules[class]; ok {
			out = append(out, class)
			seen[class] = struct{}{}
		}
	}

	extra := make([]quota.EndpointClass, 0, len(rules)-len(out))
	for class := range rules {
		if _, ok := seen[class]; !ok {
			extra = append(extra, class)
		}
	}
	sort.Slice(extra, func(i, j int) bool { return extra[i] < extra[j] })
	return append(out, extra...)
}

// Close releases the underlying store
func (e *Engine) Close() error {
	return e.store.Close()
}

func (e *Engine) buildKey(tenantID string, class quota.EndpointClass, userID string) string {
	if !e.config.perUser(class) {
		userID = ""
	}
	return BuildKey(tenantID, string(class), userID)
}

func (e *Engine) recordFailOpen(ctx context.Context, tenantID string, class quota.EndpointClass, cause error) {
	if e.metrics != nil {
		e.metrics.RecordFailOpen(ctx, class)
	}
	if e.bus != nil {
		e.bus.Publish(events.StoreFailOpen{
			BaseEvent: events.NewBaseEvent(events.NameStoreFailOpen),
			TenantID:  tenantID,
			Class:     string(class),
			Error:     cause.Error(),
		})
	}
}

// interface guards
var (
	_ Store = (*RedisStore)(nil)
	_ Store = (*MemoryStore)(nil)
)
