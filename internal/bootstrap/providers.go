package bootstrap

import (
	"net/http"
	"time"

	chclient "volguard/internal/adapters/clickhouse"
	"volguard/internal/adapters/config"
	errnoop "volguard/internal/adapters/errors/noop"
	"volguard/internal/adapters/errors/sentry"
	"volguard/internal/adapters/exchanges"
	"volguard/internal/adapters/exchanges/binance"
	"volguard/internal/adapters/exchanges/deribit"
	"volguard/internal/adapters/exchanges/okx"
	"volguard/internal/adapters/exchanges/ratelimit"
	"volguard/internal/adapters/kafka"
	pgclient "volguard/internal/adapters/postgres"
	redisclient "volguard/internal/adapters/redis"
	"volguard/internal/api"
	"volguard/internal/api/health"
	"volguard/internal/events"
	"volguard/internal/locks"
	"volguard/internal/metrics"
	chrepo "volguard/internal/repository/clickhouse"
	pgrepo "volguard/internal/repository/postgres"
	redisrepo "volguard/internal/repository/redis"
	alertsservice "volguard/internal/services/alerts"
	deviationservice "volguard/internal/services/deviation"
	quotesservice "volguard/internal/services/quotes"
	reportservice "volguard/internal/services/report"
	riskservice "volguard/internal/services/risk"
	"volguard/internal/workers"
	"volguard/internal/workers/analytics"
	"volguard/internal/workers/marketdata"
	"volguard/pkg/blackscholes"
	"volguard/pkg/errors"
	"volguard/pkg/logger"
)

// ========================================
// Phase 1: Configuration & logging
// ========================================

// MustInitConfig loads configuration and initializes logger
func (c *Container) MustInitConfig() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}
	c.Config = cfg

	if err := logger.Init(cfg.App.LogLevel, cfg.App.Env); err != nil {
		panic("failed to init logger: " + err.Error())
	}

	c.Log = logger.Get()
	c.Log.Infof("Starting %s in %s mode", cfg.App.Name, cfg.App.Env)

	c.ErrorTracker = provideErrorTracker(cfg, c.Log)
	logger.SetErrorTracker(c.ErrorTracker)

	metrics.Init()
}

// ========================================
// Phase 2: Infrastructure layer
// ========================================

// MustInitInfrastructure initializes data stores (Postgres, ClickHouse, Redis)
func (c *Container) MustInitInfrastructure() {
	var err error

	c.Log.Info("Connecting to PostgreSQL...")
	c.PG, err = pgclient.NewClient(c.Config.Postgres)
	if err != nil {
		c.Log.Fatalf("failed to connect postgres: %v", err)
	}

	c.Log.Info("Connecting to ClickHouse...")
	c.CH, err = chclient.NewClient(c.Config.ClickHouse)
	if err != nil {
		c.Log.Fatalf("failed to connect clickhouse: %v", err)
	}

	c.Log.Info("Connecting to Redis...")
	c.Redis, err = redisclient.NewClient(c.Config.Redis)
	if err != nil {
		c.Log.Fatalf("failed to connect redis: %v", err)
	}

	c.Log.Info("Data stores connected")
}

// ========================================
// Phase 3: Repositories
// ========================================

// MustInitRepositories wires repositories over the data stores
func (c *Container) MustInitRepositories() {
	c.Repos.Quotes = chrepo.NewQuoteRepository(c.CH.Conn())
	c.Repos.Snapshots = pgrepo.NewSnapshotRepository(c.PG.DB())
	c.Repos.Deviations = pgrepo.NewDeviationRepository(c.PG.DB())
	c.Repos.Alerts = pgrepo.NewAlertRepository(c.PG.DB())
}

// ========================================
// Phase 4: External adapters
// ========================================

// MustInitAdapters wires the Kafka producer and exchange clients
func (c *Container) MustInitAdapters() {
	if c.Config.Kafka.Enabled {
		c.KafkaProducer = provideKafkaProducer(c.Config, c.Log)
		c.Publisher = events.NewKafkaPublisher(c.KafkaProducer)
	} else {
		c.Log.Info("Kafka disabled, events will be dropped")
		c.Publisher = events.NoopPublisher{}
	}

	httpClient := &http.Client{Timeout: c.Config.MarketData.RequestTimeout}

	builders := map[string]exchanges.Builder{
		"deribit": func(hc *http.Client, limiter *ratelimit.Limiter) exchanges.Source {
			return deribit.NewClient(deribit.Config{HTTPClient: hc, Limiter: limiter})
		},
		"okx": func(hc *http.Client, limiter *ratelimit.Limiter) exchanges.Source {
			return okx.NewClient(okx.Config{HTTPClient: hc, Limiter: limiter})
		},
		"binance": func(hc *http.Client, limiter *ratelimit.Limiter) exchanges.Source {
			return binance.NewClient(binance.Config{HTTPClient: hc, Limiter: limiter})
		},
	}

	registry, err := exchanges.NewRegistry(
		c.Config.Monitor.Exchanges,
		builders,
		httpClient,
		c.Config.MarketData.RequestsPerSecond,
	)
	if err != nil {
		c.Log.Fatalf("failed to build exchange registry: %v", err)
	}
	c.Exchanges = registry

	c.Log.Infow("Exchange clients configured", "exchanges", registry.List())
}

// ========================================
// Phase 5: Services
// ========================================

// MustInitServices wires the domain services
func (c *Container) MustInitServices() {
	pricer := blackscholes.NewDefaultPricer()
	normalizer := exchanges.NewNormalizer(pricer)
	keyLocks := locks.NewKeyLock()
	repos := pgrepo.Repos{}

	c.Services.Quotes = quotesservice.NewService(c.Exchanges, normalizer, c.Repos.Quotes)

	c.Services.Risk = riskservice.NewService(
		riskservice.NewCalculator(),
		c.Repos.Quotes,
		c.Repos.Snapshots,
		c.PG,
		repos,
		c.Publisher,
		keyLocks,
	)

	detector := deviationservice.NewDetector(
		c.Config.Monitor.StrikeRangePercent,
		c.Config.Monitor.NewContractVolumeChange,
	)
	c.Services.Deviations = deviationservice.NewService(
		detector,
		c.Repos.Quotes,
		c.Repos.Deviations,
		c.PG,
		repos,
		c.Publisher,
		keyLocks,
	)

	cache := redisrepo.NewReportCache(c.Redis.Client(), c.Config.Monitor.ReportCacheTTL)
	c.Services.Reports = reportservice.NewService(
		reportservice.NewAggregator(),
		c.Repos.Deviations,
		c.Repos.Snapshots,
		cache,
		c.Config.Monitor.Exchanges,
	)

	c.Services.Gate = alertsservice.NewGate(c.Repos.Alerts, c.Log)
}

// ========================================
// Phase 6: Application layer
// ========================================

// MustInitApplication wires the HTTP API
func (c *Container) MustInitApplication() {
	c.HealthHandler = health.New(
		c.Log,
		c.PG.DB(),
		c.CH.Conn(),
		c.Redis.Client(),
		c.Config.App.Name,
		Version,
	)

	handler := api.NewHandler(
		c.Services.Risk,
		c.Services.Deviations,
		c.Services.Reports,
		c.Services.Gate,
		c.Repos.Alerts,
	)

	c.HTTPServer = api.NewServer(api.ServerConfig{
		Port:        c.Config.HTTP.Port,
		ServiceName: c.Config.App.Name,
		Version:     Version,
	}, handler, c.HealthHandler, c.Log)
}

// ========================================
// Phase 7: Background processing
// ========================================

// MustInitBackground registers all background workers
func (c *Container) MustInitBackground() {
	c.Scheduler = workers.NewScheduler()

	symbols := c.Config.Monitor.TrackedSymbols
	wcfg := c.Config.Workers

	c.Scheduler.RegisterWorker(marketdata.NewQuoteFetcher(
		c.Services.Quotes, symbols, wcfg.QuoteFetchInterval, true,
	))
	c.Scheduler.RegisterWorker(analytics.NewRiskWorker(
		c.Services.Risk, symbols, wcfg.RiskComputeInterval, wcfg.ComputeMaxConcurrency, true,
	))
	c.Scheduler.RegisterWorker(analytics.NewDeviationWorker(
		c.Services.Deviations, symbols, wcfg.DeviationComputeInterval, wcfg.ComputeMaxConcurrency, true,
	))
	c.Scheduler.RegisterWorker(analytics.NewCleanupWorker(
		c.Repos.Quotes,
		c.Repos.Snapshots,
		c.Repos.Deviations,
		time.Duration(c.Config.Monitor.DataRetentionDays)*24*time.Hour,
		wcfg.CleanupInterval,
		true,
	))
}

func provideErrorTracker(cfg *config.Config, log *logger.Logger) errors.Tracker {
	if !cfg.ErrorTracking.Enabled || cfg.ErrorTracking.SentryDSN == "" {
		log.Info("Error tracking disabled")
		return errnoop.New()
	}

	tracker, err := sentry.New(cfg.ErrorTracking.SentryDSN, cfg.ErrorTracking.Environment)
	if err != nil {
		log.Warnf("Failed to initialize Sentry: %v", err)
		return errnoop.New()
	}

	log.Info("Error tracking initialized (Sentry)")
	return tracker
}

func provideKafkaProducer(cfg *config.Config, log *logger.Logger) *kafka.Producer {
	if len(cfg.Kafka.Brokers) == 0 {
		log.Warn("Kafka brokers not configured, using default localhost:9092")
		cfg.Kafka.Brokers = []string{"localhost:9092"}
	}

	producer := kafka.NewProducer(kafka.ProducerConfig{
		Brokers: cfg.Kafka.Brokers,
	})
	log.Info("Kafka producer initialized")
	return producer
}
