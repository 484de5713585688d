// Package app wires the admission and cost accounting components into a
// runnable service.
package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/samber/do/v2"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/aquafarm-pro/tenantcore/admin"
	"github.com/aquafarm-pro/tenantcore/admission"
	"github.com/aquafarm-pro/tenantcore/cost"
	"github.com/aquafarm-pro/tenantcore/database"
	"github.com/aquafarm-pro/tenantcore/events"
	"github.com/aquafarm-pro/tenantcore/health"
	"github.com/aquafarm-pro/tenantcore/logger"
	"github.com/aquafarm-pro/tenantcore/middleware"
	"github.com/aquafarm-pro/tenantcore/quota"
	"github.com/aquafarm-pro/tenantcore/redis"
	"github.com/aquafarm-pro/tenantcore/usage"
)

// App the assembled service: one injector owning every component plus the
// HTTP server in front of them
type App struct {
	config   Config
	injector *do.RootScope
	server   *http.Server
	log      *logger.CtxZapLogger
}

// New builds the application container from configuration
func New(cfg Config) (*App, error) {
	cfg.Server.ApplyDefaults()

	injector := do.New()
	registerProviders(injector, cfg)

	logManager, err := do.Invoke[*logger.Manager](injector)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	return &App{
		config:   cfg,
		injector: injector,
		log:      logManager.GetLogger("app"),
	}, nil
}

// registerProviders declares every component; construction is lazy and
// dependency-ordered by the injector
func registerProviders(injector do.Injector, cfg Config) {
	do.Provide(injector, func(i do.Injector) (*logger.Manager, error) {
		return logger.NewManager(cfg.Logger), nil
	})

	do.Provide(injector, func(i do.Injector) (*redis.Manager, error) {
		logManager := do.MustInvoke[*logger.Manager](i)
		return redis.NewManager(cfg.Redis, logManager.GetLogger("redis"))
	})

	do.Provide(injector, func(i do.Injector) (*database.Manager, error) {
		logManager := do.MustInvoke[*logger.Manager](i)
		return database.NewManager(cfg.Database, logManager.GetLogger("database"))
	})

	do.Provide(injector, func(i do.Injector) (*quota.Catalog, error) {
		return quota.NewCatalog(cfg.Quota, nil)
	})

	do.Provide(injector, func(i do.Injector) (*events.Bus, error) {
		logManager := do.MustInvoke[*logger.Manager](i)

		var opts []events.BusOption
		if cfg.Kafka.Enabled {
			publisher, err := events.NewSyncKafkaPublisher(cfg.Kafka, logManager.GetLogger("kafka"))
			if err != nil {
				return nil, err
			}
			opts = append(opts, events.WithKafka(publisher, cfg.Kafka.Topic))
		}
		return events.NewBus(cfg.Admission.EventBuffer, opts...), nil
	})

	do.Provide(injector, func(i do.Injector) (admission.Store, error) {
		if cfg.Admission.StoreType == string(admission.StoreTypeMemory) {
			return admission.NewMemoryStore(), nil
		}
		redisManager := do.MustInvoke[*redis.Manager](i)
		return admission.NewRedisStore(redisManager.Client(), cfg.Admission.KeyPrefix), nil
	})

	do.Provide(injector, func(i do.Injector) (*admission.Metrics, error) {
		metrics := admission.NewMetrics()
		if err := metrics.Register(otel.Meter("tenantcore")); err != nil {
			return nil, fmt.Errorf("register admission metrics: %w", err)
		}
		return metrics, nil
	})

	do.Provide(injector, func(i do.Injector) (*admission.Engine, error) {
		logManager := do.MustInvoke[*logger.Manager](i)
		return admission.NewEngine(
			do.MustInvoke[*quota.Catalog](i),
			do.MustInvoke[admission.Store](i),
			cfg.Admission,
			logManager.GetLogger("admission"),
			do.MustInvoke[*events.Bus](i),
			do.MustInvoke[*admission.Metrics](i),
		)
	})

	do.Provide(injector, func(i do.Injector) (*cost.RateTable, error) {
		return cost.NewRateTable(cfg.Cost), nil
	})

	do.Provide(injector, func(i do.Injector) (*cost.GormHistoryStore, error) {
		dbManager := do.MustInvoke[*database.Manager](i)
		store, err := cost.NewGormHistoryStore(dbManager.DB())
		if err != nil {
			return nil, err
		}
		if err := store.Migrate(); err != nil {
			return nil, err
		}
		return store, nil
	})

	do.Provide(injector, func(i do.Injector) (*cost.Aggregator, error) {
		logManager := do.MustInvoke[*logger.Manager](i)
		return cost.NewAggregator(
			do.MustInvoke[*cost.GormHistoryStore](i),
			do.MustInvoke[*cost.RateTable](i),
			cfg.Usage.Retention,
			logManager.GetLogger("cost"),
			do.MustInvoke[*events.Bus](i),
		)
	})

	do.Provide(injector, func(i do.Injector) (*usage.Sampler, error) {
		logManager := do.MustInvoke[*logger.Manager](i)
		return usage.NewSampler(
			nil,
			do.MustInvoke[*cost.RateTable](i),
			cfg.Usage,
			logManager.GetLogger("usage"),
			do.MustInvoke[*events.Bus](i),
		)
	})
}

// Injector the application container, for cmd-level wiring
func (a *App) Injector() *do.RootScope {
	return a.injector
}

// Config the loaded configuration
func (a *App) Config() Config {
	return a.config
}

// Engine resolves the rate limit engine
func (a *App) Engine() (*admission.Engine, error) {
	return do.Invoke[*admission.Engine](a.injector)
}

// Aggregator resolves the cost aggregator
func (a *App) Aggregator() (*cost.Aggregator, error) {
	return do.Invoke[*cost.Aggregator](a.injector)
}

// Sampler resolves the usage sampler
func (a *App) Sampler() (*usage.Sampler, error) {
	return do.Invoke[*usage.Sampler](a.injector)
}

// NewRunner builds the periodic sampling runner over a tenant lister
func (a *App) NewRunner(tenants usage.TenantLister) (*usage.Runner, error) {
	sampler, err := a.Sampler()
	if err != nil {
		return nil, err
	}
	aggregator, err := a.Aggregator()
	if err != nil {
		return nil, err
	}
	logManager := do.MustInvoke[*logger.Manager](a.injector)
	return usage.NewRunner(sampler, tenants, aggregator, aggregator, a.config.Usage,
		logManager.GetLogger("usage"))
}

// Router builds the HTTP router: admission middleware in front of the API
// surface, admin endpoints behind /admin
func (a *App) Router() (*gin.Engine, error) {
	engine, err := a.Engine()
	if err != nil {
		return nil, err
	}
	aggregator, err := a.Aggregator()
	if err != nil {
		return nil, err
	}

	gin.SetMode(a.config.Server.Mode)
	router := gin.New()
	router.Use(middleware.Recovery(a.log))
	router.Use(middleware.Identity())
	router.Use(middleware.AdmissionWithConfig(middleware.AdmissionConfig{
		Engine:    engine,
		SkipPaths: []string{"/health"},
	}))

	checker := health.NewAggregator(5 * time.Second)
	if a.config.Admission.StoreType != string(admission.StoreTypeMemory) {
		redisManager, err := do.Invoke[*redis.Manager](a.injector)
		if err != nil {
			return nil, err
		}
		checker.Register("redis", redisManager.Ping)
	}
	dbManager, err := do.Invoke[*database.Manager](a.injector)
	if err != nil {
		return nil, err
	}
	checker.Register("database", dbManager.Ping)

	router.GET("/health", func(c *gin.Context) {
		report := checker.Check(c.Request.Context())
		status := http.StatusOK
		if !report.IsHealthy() {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, report)
	})

	admin.NewHandler(engine, aggregator).Register(router.Group("/admin"))
	return router, nil
}

// Serve runs the HTTP server until the context is cancelled
func (a *App) Serve(ctx context.Context) error {
	router, err := a.Router()
	if err != nil {
		return err
	}

	a.server = &http.Server{
		Addr:              a.config.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.InfoCtx(ctx, "http server listening", zap.String("addr", a.config.Server.Addr))
		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
		return nil
	}
}

// Close shuts the container down
func (a *App) Close() error {
	if bus, err := do.Invoke[*events.Bus](a.injector); err == nil {
		bus.Close()
	}
	if engine, err := do.Invoke[*admission.Engine](a.injector); err == nil {
		_ = engine.Close()
	}
	if dbManager, err := do.Invoke[*database.Manager](a.injector); err == nil {
		_ = dbManager.Close()
	}
	if redisManager, err := do.Invoke[*redis.Manager](a.injector); err == nil {
		_ = redisManager.Close()
	}
	if logManager, err := do.Invoke[*logger.Manager](a.injector); err == nil {
		_ = logManager.Close()
	}
	return a.injector.Shutdown()
}
