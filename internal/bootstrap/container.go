package bootstrap

import (
	"context"
	"sync"
	"time"

	chclient "volguard/internal/adapters/clickhouse"
	"volguard/internal/adapters/config"
	pgclient "volguard/internal/adapters/postgres"
	redisclient "volguard/internal/adapters/redis"
	"volguard/internal/adapters/exchanges"
	"volguard/internal/adapters/kafka"
	"volguard/internal/api"
	"volguard/internal/api/health"
	"volguard/internal/domain/alert"
	"volguard/internal/domain/deviation"
	"volguard/internal/domain/risk"
	"volguard/internal/events"
	chrepo "volguard/internal/repository/clickhouse"
	alertsservice "volguard/internal/services/alerts"
	deviationservice "volguard/internal/services/deviation"
	quotesservice "volguard/internal/services/quotes"
	reportservice "volguard/internal/services/report"
	riskservice "volguard/internal/services/risk"
	"volguard/internal/workers"
	"volguard/pkg/errors"
	"volguard/pkg/logger"
)

// Version is reported by the service info and health endpoints
const Version = "1.0.0"

// Container holds all application dependencies and their lifecycle.
// Components are organized in initialization order.
type Container struct {
	// Core configuration & logging
	Config       *config.Config
	Log          *logger.Logger
	ErrorTracker errors.Tracker

	// Infrastructure layer (data stores)
	PG    *pgclient.Client
	CH    *chclient.Client
	Redis *redisclient.Client

	// Repositories
	Repos *Repositories

	// External adapters
	KafkaProducer *kafka.Producer
	Exchanges     exchanges.Registry
	Publisher     events.Publisher

	// Services
	Services *Services

	// Application layer
	HTTPServer    *api.Server
	HealthHandler *health.Handler

	// Background processing
	Scheduler *workers.Scheduler

	// Lifecycle management
	WG      *sync.WaitGroup
	Context context.Context
	Cancel  context.CancelFunc
}

// Repositories groups all domain repositories
type Repositories struct {
	Quotes     *chrepo.QuoteRepository
	Snapshots  risk.Repository
	Deviations deviation.Repository
	Alerts     alert.Repository
}

// Services groups all domain services
type Services struct {
	Quotes     *quotesservice.Service
	Risk       *riskservice.Service
	Deviations *deviationservice.Service
	Reports    *reportservice.Service
	Gate       *alertsservice.Gate
}

// NewContainer creates a new dependency container
func NewContainer() *Container {
	ctx, cancel := context.WithCancel(context.Background())

	return &Container{
		Repos:    &Repositories{},
		Services: &Services{},
		WG:       &sync.WaitGroup{},
		Context:  ctx,
		Cancel:   cancel,
	}
}

// MustInit initializes all components in the correct order.
// Panics on any initialization error (fail-fast at startup).
func (c *Container) MustInit() {
	c.MustInitConfig()
	c.MustInitInfrastructure()
	c.MustInitRepositories()
	c.MustInitAdapters()
	c.MustInitServices()
	c.MustInitApplication()
	c.MustInitBackground()
}

// Start starts all background components
func (c *Container) Start() error {
	c.Log.Info("Starting all systems...")

	// Batch writer behind the quote firehose
	c.Repos.Quotes.Start(c.Context)

	if err := c.Scheduler.Start(c.Context); err != nil {
		return errors.Wrap(err, "failed to start workers")
	}

	c.WG.Add(1)
	go func() {
		defer c.WG.Done()
		if err := c.HTTPServer.Start(); err != nil {
			c.Log.Errorf("HTTP server failed: %v", err)
			c.Cancel()
		}
	}()

	c.Log.Info("All systems operational")
	return nil
}

// Shutdown gracefully stops all components in reverse dependency order
func (c *Container) Shutdown() {
	c.Log.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if c.HTTPServer != nil {
		if err := c.HTTPServer.Shutdown(shutdownCtx); err != nil {
			c.Log.Errorf("HTTP server shutdown failed: %v", err)
		}
	}

	if c.Scheduler != nil {
		if err := c.Scheduler.Stop(); err != nil {
			c.Log.Errorf("Worker shutdown failed: %v", err)
		}
	}

	// Flush any buffered quote rows before closing stores
	if c.Repos.Quotes != nil {
		if err := c.Repos.Quotes.Stop(shutdownCtx); err != nil {
			c.Log.Errorf("Quote batch writer shutdown failed: %v", err)
		}
	}

	c.Cancel()
	c.WG.Wait()

	if c.KafkaProducer != nil {
		if err := c.KafkaProducer.Close(); err != nil {
			c.Log.Errorf("Kafka producer close failed: %v", err)
		}
	}

	if c.PG != nil {
		if err := c.PG.Close(); err != nil {
			c.Log.Errorf("Postgres close failed: %v", err)
		}
	}
	if c.CH != nil {
		if err := c.CH.Close(); err != nil {
			c.Log.Errorf("ClickHouse close failed: %v", err)
		}
	}
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			c.Log.Errorf("Redis close failed: %v", err)
		}
	}

	if c.ErrorTracker != nil {
		if err := c.ErrorTracker.Flush(shutdownCtx); err != nil {
			c.Log.Errorf("Error tracker flush failed: %v", err)
		}
	}

	_ = logger.Sync()
	c.Log.Info("Shutdown complete")
}
