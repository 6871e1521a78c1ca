package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/thehub/backend/internal/application/billing"
	"github.com/thehub/backend/internal/domain/shared"
	"github.com/thehub/backend/internal/domain/shared/valueobject"
	"github.com/thehub/backend/internal/infrastructure/auth"
	"github.com/thehub/backend/internal/infrastructure/cache"
	"github.com/thehub/backend/internal/infrastructure/config"
	"github.com/thehub/backend/internal/infrastructure/event"
	"github.com/thehub/backend/internal/infrastructure/logger"
	"github.com/thehub/backend/internal/infrastructure/persistence"
	"github.com/thehub/backend/internal/infrastructure/scheduler"
	"github.com/thehub/backend/internal/infrastructure/storage"
	"github.com/thehub/backend/internal/infrastructure/telemetry"
	"github.com/thehub/backend/internal/interfaces/http/handler"
	"github.com/thehub/backend/internal/interfaces/http/middleware"
	"github.com/thehub/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
)

const version = "1.0.0"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	ctx := context.Background()

	// OTLP log shipping wraps the base logger so every component below is bridged
	logProvider, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           cfg.Telemetry.Enabled && cfg.Telemetry.LogsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize log exporter", zap.Error(err))
	}
	log = logProvider.Bridge(log, logger.ParseLevel(cfg.Log.Level))

	log.Info("Starting Hub backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}

	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.MetricsInterval,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}

	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:         cfg.Telemetry.ProfilingEnabled,
		ServerAddress:   cfg.Telemetry.ProfilingServerAddress,
		ApplicationName: cfg.Telemetry.ServiceName,
		MutexProfiling:  true,
	}, log)
	if err != nil {
		log.Fatal("Failed to start profiler", zap.Error(err))
	}
	if profiler.IsEnabled() {
		if err := tracerProvider.EnableSpanProfiles(); err != nil {
			log.Warn("Span profiles unavailable", zap.Error(err))
		}
	}

	// Database
	gormLog := logger.NewGormLogger(log.Named("gorm"), logger.MapGormLogLevel(cfg.Log.Level),
		logger.WithSlowThreshold(cfg.Telemetry.DBSlowQueryThresh),
		logger.WithFullSQL(cfg.Telemetry.DBLogFullSQL),
	)
	db, err := persistence.NewDatabase(&cfg.Database, persistence.WithLogger(gormLog))
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Failed to close database", zap.Error(err))
		}
	}()
	log.Info("Database connected", zap.String("driver", db.Driver))
	if err := db.EnsureSchema(); err != nil {
		log.Fatal("Failed to prepare database schema", zap.Error(err))
	}

	dbSystem := telemetry.DBSystemForDriver(db.Driver)
	if cfg.Telemetry.DBTraceEnabled {
		plugin := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
			Enabled:         true,
			LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
			SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
			DBSystem:        dbSystem,
		}, log)
		if err := plugin.RegisterOtelGorm(db.DB); err != nil {
			log.Fatal("Failed to register database tracing", zap.Error(err))
		}
	}
	if meterProvider.IsEnabled() {
		sqlDB, err := db.DB.DB()
		if err != nil {
			log.Fatal("Failed to get sql.DB", zap.Error(err))
		}
		poolMetrics, err := telemetry.RegisterDBPoolMetrics(meterProvider.Meter("hub/db"), sqlDB, dbSystem)
		if err != nil {
			log.Warn("Database pool metrics unavailable", zap.Error(err))
		} else {
			defer func() { _ = poolMetrics.Unregister() }()
		}
	}

	// Entity locks
	locker, closeLocker, err := cache.NewLocker(cfg.Billing, cfg.Redis, log)
	if err != nil {
		log.Fatal("Failed to initialize entity locks", zap.Error(err))
	}
	defer func() {
		if err := closeLocker(); err != nil {
			log.Error("Failed to close lock backend", zap.Error(err))
		}
	}()

	// Application services
	clock := shared.SystemClock{}
	scope := persistence.NewGormTransactionScope(db.DB)

	tableService := billing.NewTableService(scope, locker, clock, log.Named("tables"))
	sessionService := billing.NewSessionService(scope, locker, clock, log.Named("sessions"))
	memberService := billing.NewMemberService(scope, clock, log.Named("members"))
	walletService := billing.NewWalletService(scope, locker, clock, valueobject.Currency(cfg.Billing.Currency), log.Named("wallets"))
	affiliateService := billing.NewAffiliateService(scope, clock, log.Named("affiliates"))

	// Domain events
	eventBus := event.NewInMemoryEventBus(log.Named("events"))
	billingMetrics, err := telemetry.NewBillingMetrics(telemetry.BillingMetricsConfig{
		Meter:  meterProvider.Meter("hub/billing"),
		Logger: log,
	})
	if err != nil {
		log.Fatal("Failed to initialize billing metrics", zap.Error(err))
	}
	eventBus.Subscribe(billingMetrics)
	eventBus.Subscribe(event.NewAuditLogHandler(log.Named("audit")))
	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}

	tableService.SetEventPublisher(eventBus)
	sessionService.SetEventPublisher(eventBus)
	memberService.SetEventPublisher(eventBus)
	walletService.SetEventPublisher(eventBus)
	affiliateService.SetEventPublisher(eventBus)

	// Background jobs
	var jobs *scheduler.Scheduler
	if cfg.Scheduler.Enabled {
		jobs = scheduler.New(scheduler.Config{JobTimeout: cfg.Scheduler.JobTimeout}, log.Named("scheduler"))

		if cfg.Storage.Enabled {
			archive, err := storage.NewS3Archive(&cfg.Storage, storage.WithLogger(log.Named("archive")))
			if err != nil {
				log.Fatal("Failed to initialize session archive", zap.Error(err))
			}
			if err := archive.EnsureBucket(ctx); err != nil {
				log.Fatal("Failed to prepare archive bucket", zap.Error(err))
			}
			archiver := billing.NewArchiveService(scope, archive, clock, cfg.Scheduler.ArchiveBatchSize, log.Named("archive"))
			if err := jobs.Register(cfg.Scheduler.ArchiveSchedule,
				scheduler.NewArchiveJob(archiver, cfg.Scheduler.ArchiveRetention, log.Named("archive_job"))); err != nil {
				log.Fatal("Failed to register archive job", zap.Error(err))
			}
		}

		if err := jobs.Register(cfg.Scheduler.OccupancySchedule,
			scheduler.NewOccupancyJob(sessionService, billingMetrics)); err != nil {
			log.Fatal("Failed to register occupancy job", zap.Error(err))
		}

		if err := jobs.Start(ctx); err != nil {
			log.Fatal("Failed to start scheduler", zap.Error(err))
		}
	}

	// HTTP
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		log.Fatal("Invalid trusted proxies", zap.Error(err))
	}

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	if len(cfg.HTTP.CORSAllowMethods) > 0 {
		corsCfg.AllowMethods = cfg.HTTP.CORSAllowMethods
	}
	if len(cfg.HTTP.CORSAllowHeaders) > 0 {
		corsCfg.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	}
	securityCfg := middleware.DefaultSecurityConfig()
	securityCfg.HSTSEnabled = cfg.App.Env == "production"

	engine.Use(
		middleware.RequestID(),
		logger.GinMiddleware(log),
		logger.Recovery(log),
		middleware.CORSWithConfig(corsCfg),
		middleware.SecureWithConfig(securityCfg),
		middleware.BodyLimit(cfg.HTTP.MaxBodySize),
		middleware.TracingWithConfig(middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     cfg.Telemetry.Enabled,
		}),
		middleware.SpanErrorMarker(),
		middleware.HTTPMetrics(middleware.HTTPMetricsConfig{
			MeterProvider: meterProvider,
			Logger:        log,
		}),
		middleware.ProfilingWithConfig(middleware.ProfilingConfig{
			Enabled:   profiler.IsEnabled(),
			SkipPaths: []string{"/health", "/api/v1/health"},
		}),
	)

	jwtService := auth.NewJWTService(cfg.JWT)
	jwtCfg := middleware.DefaultJWTConfig(jwtService)
	jwtCfg.Logger = log
	authenticate := middleware.JWTAuthMiddlewareWithConfig(jwtCfg)
	injectAttributes := middleware.TracingAttributeInjector()

	systemHandler := handler.NewSystemHandler(cfg.App.Name, version)
	systemHandler.AddCheck("database", func(context.Context) error { return db.Ping() })
	systemHandler.SetSessionCounter(sessionService)

	router.RegisterAPI(engine, router.Handlers{
		System:     systemHandler,
		Tables:     handler.NewTableHandler(tableService),
		Sessions:   handler.NewSessionHandler(sessionService),
		Members:    handler.NewMemberHandler(memberService, walletService),
		Affiliates: handler.NewAffiliateHandler(affiliateService),
	}, router.Guards{
		Authenticate: func(c *gin.Context) {
			authenticate(c)
			if c.IsAborted() {
				return
			}
			injectAttributes(c)
		},
		RequireAdmin: middleware.RequireAdmin(jwtService),
	})

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if jobs != nil {
		if err := jobs.Stop(shutdownCtx); err != nil {
			log.Error("Failed to stop scheduler", zap.Error(err))
		}
	}
	if err := eventBus.Stop(shutdownCtx); err != nil {
		log.Error("Failed to stop event bus", zap.Error(err))
	}
	if err := profiler.Stop(); err != nil {
		log.Error("Failed to stop profiler", zap.Error(err))
	}
	if err := meterProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Failed to shutdown meter provider", zap.Error(err))
	}
	if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Failed to shutdown tracer provider", zap.Error(err))
	}
	if err := logProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Failed to shutdown log provider", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
