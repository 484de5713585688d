package usage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/aquafarm-pro/tenantcore/logger"
)

// TenantLister enumerates the tenants to sample. Backed by the platform's
// tenant registry in production and by fixtures in tests.
type TenantLister interface {
	ListTenantIDs(ctx context.Context) ([]string, error)
}

// StaticTenantLister fixed tenant set
type StaticTenantLister []string

func (l StaticTenantLister) ListTenantIDs(ctx context.Context) ([]string, error) {
	return l, nil
}

// Recorder receives the sampled batches. Implemented by the cost
// aggregator.
type Recorder interface {
	Persist(ctx context.Context, samples []Sample) error
}

// Purger enforces retention on persisted samples
type Purger interface {
	PurgeBefore(ctx context.Context, cutoff time.Time) error
}

// Runner drives periodic sampling passes: enumerate tenants, sample each on
// a worker pool, hand the batch to the recorder, then purge rows past
// retention. Per-tenant failures are contained; a pass always visits every
// tenant it can.
type Runner struct {
	sampler  *Sampler
	tenants  TenantLister
	recorder Recorder
	purger   Purger
	config   Config
	log      logger.Logger

	scheduler gocron.Scheduler
	pool      *ants.Pool
}

// NewRunner creates a sampling runner
// purger may be nil (no retention enforcement); log may be nil (discards)
func NewRunner(sampler *Sampler, tenants TenantLister, recorder Recorder, purger Purger, cfg Config, log logger.Logger) (*Runner, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid usage config: %w", err)
	}
	if sampler == nil {
		return nil, fmt.Errorf("sampler cannot be nil")
	}
	if tenants == nil {
		return nil, fmt.Errorf("tenant lister cannot be nil")
	}
	if recorder == nil {
		return nil, fmt.Errorf("recorder cannot be nil")
	}
	if log == nil {
		log = logger.NewNop()
	}

	pool, err := ants.NewPool(cfg.Workers)
	if err != nil {
		return nil, fmt.Errorf("create worker pool: %w", err)
	}

	return &Runner{
		sampler:  sampler,
		tenants:  tenants,
		recorder: recorder,
		purger:   purger,
		config:   cfg,
		log:      log,
		pool:     pool,
	}, nil
}

// Start schedules periodic passes until Stop is called
func (r *Runner) Start(ctx context.Context) error {
	if r.scheduler != nil {
		return fmt.Errorf("runner already started")
	}

	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("create scheduler: %w", err)
	}

	_, err = scheduler.NewJob(
		gocron.DurationJob(r.config.Interval),
		gocron.NewTask(func() {
			if err := r.RunOnce(ctx); err != nil {
				r.log.ErrorCtx(ctx, "sampling pass failed", zap.Error(err))
			}
		}),
	)
	if err != nil {
		return fmt.Errorf("schedule sampling job: %w", err)
	}

	r.scheduler = scheduler
	scheduler.Start()
	r.log.InfoCtx(ctx, "usage sampling started",
		zap.Duration("interval", r.config.Interval),
		zap.Int("workers", r.config.Workers))
	return nil
}

// RunOnce executes one full sampling pass
func (r *Runner) RunOnce(ctx context.Context) error {
	started := time.Now()

	tenantIDs, err := r.tenants.ListTenantIDs(ctx)
	if err != nil {
		return fmt.Errorf("list tenants: %w", err)
	}

	var wg sync.WaitGroup
	for _, tenantID := range tenantIDs {
		tenantID := tenantID
		wg.Add(1)
		if err := r.pool.Submit(func() {
			defer wg.Done()
			r.sampleTenant(ctx, tenantID)
		}); err != nil {
			wg.Done()
			r.log.WarnCtx(ctx, "worker pool rejected tenant sampling",
				zap.String("tenant_id", tenantID),
				zap.Error(err))
		}
	}
	wg.Wait()

	if r.purger != nil && r.config.Retention > 0 {
		cutoff := time.Now().UTC().Add(-r.config.Retention)
		if err := r.purger.PurgeBefore(ctx, cutoff); err != nil {
			r.log.WarnCtx(ctx, "retention purge failed",
				zap.Time("cutoff", cutoff),
				zap.Error(err))
		}
	}

	r.log.DebugCtx(ctx, "sampling pass finished",
		zap.Int("tenants", len(tenantIDs)),
		zap.Duration("elapsed", time.Since(started)))
	return nil
}

// sampleTenant samples one tenant and records the batch
func (r *Runner) sampleTenant(ctx context.Context, tenantID string) {
	samples := r.sampler.Sample(ctx, tenantID)
	if err := r.recorder.Persist(ctx, samples); err != nil {
		r.log.WarnCtx(ctx, "usage batch not recorded",
			zap.String("tenant_id", tenantID),
			zap.Error(err))
	}
}

// Stop halts scheduling and releases the worker pool
func (r *Runner) Stop() error {
	if r.scheduler != nil {
		if err := r.scheduler.Shutdown(); err != nil {
			return fmt.Errorf("shutdown scheduler: %w", err)
		}
		r.scheduler = nil
	}
	r.pool.Release()
	return nil
}
