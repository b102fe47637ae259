package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker/v2"

	"github.com/utafrali/storefront/internal/auth"
	rediscache "github.com/utafrali/storefront/internal/cache/redis"
	"github.com/utafrali/storefront/internal/config"
	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/event"
	handler "github.com/utafrali/storefront/internal/handler/http"
	"github.com/utafrali/storefront/internal/recommend"
	"github.com/utafrali/storefront/internal/service"
	"github.com/utafrali/storefront/internal/session"
	"github.com/utafrali/storefront/pkg/database"
	"github.com/utafrali/storefront/pkg/health"
	"github.com/utafrali/storefront/pkg/httpclient"
	pkgkafka "github.com/utafrali/storefront/pkg/kafka"
	"github.com/utafrali/storefront/pkg/middleware"
	"github.com/utafrali/storefront/pkg/tracing"
)

// App wires together all dependencies and runs the storefront service.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	rdb            *redis.Client
	producer       *pkgkafka.Producer
	httpServer     *http.Server
	tracerShutdown tracing.ShutdownFunc
	stopBackground context.CancelFunc
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize OpenTelemetry tracing.
	tracerShutdown, err := tracing.InitTracer(ctx, tracing.Config{
		ServiceName:    "storefront",
		ServiceVersion: "0.1.0",
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTelEndpoint,
		SampleRate:     cfg.OTelSampleRate,
		Enabled:        cfg.OTelEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	healthHandler := health.NewHandler()

	// Sessions and the catalog cache live in Redis when it is enabled;
	// otherwise sessions are kept in memory and the catalog is not cached.
	var (
		rdb          *redis.Client
		sessionStore session.Store = session.NewMemoryStore()
		catalogCache service.CatalogCache
	)
	if cfg.RedisEnabled {
		rdb, err = database.NewRedisClient(ctx, database.RedisConfig{
			Host:          cfg.RedisHost,
			Port:          cfg.RedisPort,
			Password:      cfg.RedisPassword,
			DB:            cfg.RedisDB,
			SlowThreshold: 100 * time.Millisecond,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		logger.Info("connected to Redis",
			slog.String("host", cfg.RedisHost),
			slog.Int("db", cfg.RedisDB),
		)
		sessionStore = session.NewRedisStore(rdb)
		if cfg.CatalogCacheTTL > 0 {
			catalogCache = rediscache.NewCatalogCache(rdb, cfg.CatalogCacheTTL)
		}
		healthHandler.RegisterCritical("redis", func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		})
	} else {
		logger.Warn("redis disabled, using in-memory sessions without catalog cache")
	}

	// Activity events are published only when brokers are configured.
	var (
		producer  *pkgkafka.Producer
		publisher event.Publisher
	)
	if len(cfg.KafkaBrokers) > 0 {
		producer = pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
		publisher = producer
		logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))
		healthHandler.RegisterNonCritical("kafka", func(ctx context.Context) error {
			return producer.Ping(ctx)
		})
	}
	eventProducer := event.NewProducer(publisher, cfg.EventsTopicPrefix, logger)

	// Backend clients, one circuit breaker per collaborator.
	recommendCB := newBackendClient(cfg, "recommend-api", logger)
	authCB := newBackendClient(cfg, "auth-api", logger)
	healthHandler.RegisterNonCritical("recommend-api", breakerCheck(recommendCB))
	healthHandler.RegisterNonCritical("auth-api", breakerCheck(authCB))

	backend := recommend.NewClient(recommendCB, cfg.RecommendAPIURL, logger)
	authClient := auth.NewClient(authCB, cfg.AuthAPIURL, logger)

	sessions := session.NewManager(sessionStore, session.NewTokenVerifier(cfg.JWTSecret), cfg.SessionTTL, logger)

	h, err := handler.NewStorefrontHandler(handler.Deps{
		Backend:        backend,
		Events:         eventProducer,
		Catalog:        service.NewCatalogAggregator(backend, catalogCache, logger),
		Preferences:    service.NewPreferenceResolver(backend, logger),
		Items:          service.NewItemViewer(backend, eventProducer, logger),
		Auth:           authClient,
		Sessions:       sessions,
		Filters:        domain.NewCatalog(cfg.Brands, cfg.Colors),
		MaxUploadBytes: cfg.MaxUploadBytes,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("create handler: %w", err)
	}

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowedOrigins = cfg.CORSAllowedOrigins
	corsCfg.Environment = cfg.Environment

	bgCtx, stopBackground := context.WithCancel(context.Background())
	router := handler.NewRouter(bgCtx, h, sessions, healthHandler, handler.RouterConfig{
		CORS:            corsCfg,
		CatalogCacheTTL: cfg.CatalogCacheTTL,
		RateLimitRPS:    cfg.RateLimitRPS,
		RateLimitBurst:  cfg.RateLimitBurst,
		MetricsCIDRs:    cfg.MetricsAllowedCIDRs,
		PprofCIDRs:      cfg.PprofAllowedCIDRs,
	}, logger)

	// The write timeout leaves room for a full backend round trip plus an
	// image upload.
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      cfg.BackendTimeout + 15*time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &App{
		cfg:            cfg,
		logger:         logger,
		rdb:            rdb,
		producer:       producer,
		httpServer:     httpServer,
		tracerShutdown: tracerShutdown,
		stopBackground: stopBackground,
	}, nil
}

func newBackendClient(cfg *config.Config, name string, logger *slog.Logger) *httpclient.CircuitBreakerClient {
	base := httpclient.New(httpclient.Config{
		Timeout:         cfg.BackendTimeout,
		MaxRetries:      cfg.BackendMaxRetries,
		RetryWaitMin:    500 * time.Millisecond,
		RetryWaitMax:    5 * time.Second,
		MaxConnsPerHost: 100,
	})
	cb := httpclient.NewCircuitBreakerClient(base, httpclient.DefaultCircuitBreakerConfig(name), logger)
	logger.Info("circuit breaker initialized", slog.String("name", name))
	return cb
}

// breakerCheck reports a backend as unhealthy while its breaker is open.
func breakerCheck(cb *httpclient.CircuitBreakerClient) health.Checker {
	return func(context.Context) error {
		if cb.State() == gobreaker.StateOpen {
			return fmt.Errorf("%s: circuit breaker open", cb.Name())
		}
		return nil
	}
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		a.stopBackground()
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components in order: HTTP server, tracer,
// Kafka producer, Redis client.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	httpCtx, httpCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer httpCancel()
	if err := a.httpServer.Shutdown(httpCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}
	a.stopBackground()

	// Flush spans after the drain so in-flight request spans are captured.
	tracerCtx, tracerCancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer tracerCancel()
	if err := a.tracerShutdown(tracerCtx); err != nil {
		a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	if a.rdb != nil {
		if err := a.rdb.Close(); err != nil {
			a.logger.Error("redis close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}
