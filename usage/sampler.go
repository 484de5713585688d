package usage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/aquafarm-pro/tenantcore/events"
	"github.com/aquafarm-pro/tenantcore/logger"
)

// Sampler takes one usage sample per resource for a tenant. Collectors run
// concurrently; a failing or slow collector degrades to a zero-usage sample
// without affecting the others, so one broken probe never blinds the whole
// cost series.
type Sampler struct {
	collectors []Collector
	rates      RateProvider
	config     Config
	log        logger.Logger
	bus        events.Publisher
}

// NewSampler creates a sampler
// collectors nil uses DefaultCollectors; rates and bus may be nil; log may
// be nil (discards)
func NewSampler(collectors []Collector, rates RateProvider, cfg Config, log logger.Logger, bus events.Publisher) (*Sampler, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid usage config: %w", err)
	}
	if collectors == nil {
		collectors = DefaultCollectors(nil)
	}
	if len(collectors) == 0 {
		return nil, fmt.Errorf("at least one collector is required")
	}
	if log == nil {
		log = logger.NewNop()
	}

	return &Sampler{
		collectors: collectors,
		rates:      rates,
		config:     cfg,
		log:        log,
		bus:        bus,
	}, nil
}

// Sample measures every resource for one tenant. The result has exactly one
// entry per collector, in collector order, degraded entries included.
func (s *Sampler) Sample(ctx context.Context, tenantID string) []Sample {
	now := time.Now().UTC()
	out := make([]Sample, len(s.collectors))

	g, gctx := errgroup.WithContext(ctx)
	for i, collector := range s.collectors {
		i, collector := i, collector
		g.Go(func() error {
			collectCtx, cancel := context.WithTimeout(gctx, s.config.CollectTimeout)
			defer cancel()

			value, err := collector.Collect(collectCtx, tenantID)
			if err != nil {
				s.degrade(ctx, tenantID, collector.Resource(), err)
			}
			out[i] = s.build(tenantID, collector, value, now, err != nil)
			return nil
		})
	}
	_ = g.Wait()

	return out
}

// build assembles one immutable sample; degraded samples carry zero usage
func (s *Sampler) build(tenantID string, collector Collector, value float64, at time.Time, degraded bool) Sample {
	if degraded {
		value = 0
	}

	var rate float64
	if s.rates != nil {
		rate, _ = s.rates.Rate(collector.Resource())
	}

	return Sample{
		ID:          uuid.NewString(),
		TenantID:    tenantID,
		Resource:    collector.Resource(),
		Usage:       value,
		Limit:       collector.Limit(),
		Unit:        collector.Unit(),
		SampledAt:   at,
		CostPerUnit: rate,
		Degraded:    degraded,
	}
}

func (s *Sampler) degrade(ctx context.Context, tenantID string, resource ResourceType, cause error) {
	s.log.WarnCtx(ctx, "resource collection failed, recording degraded sample",
		zap.String("tenant_id", tenantID),
		zap.String("resource", string(resource)),
		zap.Error(cause))
	if s.bus != nil {
		s.bus.Publish(events.SampleDegraded{
			BaseEvent: events.NewBaseEvent(events.NameSampleDegraded),
			TenantID:  tenantID,
			Resource:  string(resource),
			Error:     cause.Error(),
		})
	}
}
