package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	catalogapp "github.com/pharmabill/backend/internal/application/catalog"
	reportapp "github.com/pharmabill/backend/internal/application/report"
	salesapp "github.com/pharmabill/backend/internal/application/sales"
	tenantapp "github.com/pharmabill/backend/internal/application/tenant"
	"github.com/pharmabill/backend/internal/domain/sales"
	"github.com/pharmabill/backend/internal/infrastructure/auth"
	"github.com/pharmabill/backend/internal/infrastructure/cache"
	"github.com/pharmabill/backend/internal/infrastructure/config"
	"github.com/pharmabill/backend/internal/infrastructure/event"
	"github.com/pharmabill/backend/internal/infrastructure/logger"
	"github.com/pharmabill/backend/internal/infrastructure/persistence"
	"github.com/pharmabill/backend/internal/infrastructure/telemetry"
	"github.com/pharmabill/backend/internal/interfaces/http/handler"
	"github.com/pharmabill/backend/internal/interfaces/http/middleware"
	"github.com/pharmabill/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

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

	log.Info("Starting pharmacy billing backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("version", cfg.App.Version),
		zap.String("port", cfg.App.Port),
		zap.String("db_driver", cfg.Database.Driver),
	)

	ctx := context.Background()

	// Telemetry
	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    cfg.App.Version,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	if cfg.Profiling.Enabled && cfg.Profiling.SpanProfiles {
		tracerProvider.EnableSpanProfiles()
	}

	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.MetricsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.MetricsExportInterval,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    cfg.App.Version,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}

	loggerProvider, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           cfg.Telemetry.LogsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    cfg.App.Version,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize logger provider", zap.Error(err))
	}
	// From here on warnings and errors are also exported over OTLP
	log = loggerProvider.Bridge(log, cfg.Telemetry.ServiceName, zapcore.WarnLevel)

	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:           cfg.Profiling.Enabled,
		ServerAddress:     cfg.Profiling.ServerAddress,
		ApplicationName:   cfg.Telemetry.ServiceName,
		BasicAuthUser:     cfg.Profiling.BasicAuthUser,
		BasicAuthPassword: cfg.Profiling.BasicAuthPassword,
		ProfileTypes:      cfg.Profiling.ProfileTypes,
	}, log)
	if err != nil {
		log.Fatal("Failed to start profiler", zap.Error(err))
	}

	// Database
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.GormLevel), cfg.Telemetry.DBSlowQueryThresh)
	db, err := persistence.NewDatabase(&cfg.Database, persistence.WithLogger(gormLog))
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	if err := telemetry.RegisterDBTracing(db.DB, telemetry.DBTracingConfig{
		Enabled:         cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		DBSystem:        db.Driver,
		LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
		SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
	}, log); err != nil {
		log.Fatal("Failed to register database tracing", zap.Error(err))
	}
	if db.Driver == "sqlite" {
		// PostgreSQL schemas are owned by cmd/migrate
		if err := persistence.AutoMigrate(db.DB); err != nil {
			log.Fatal("Failed to migrate sqlite schema", zap.Error(err))
		}
	}
	log.Info("Database connected", zap.String("driver", db.Driver))

	idempotencyStore, err := cache.NewIdempotencyStoreFactory(cfg.Redis,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(cfg.App.Env != "production"),
	).CreateStore()
	if err != nil {
		log.Fatal("Failed to create idempotency store", zap.Error(err))
	}

	// Repositories and services
	medicineRepo := persistence.NewGormMedicineRepository(db.DB)
	saleRepo := persistence.NewGormSaleRepository(db.DB)
	reportRepo := persistence.NewGormReportRepository(db.DB)
	tenantRepo := persistence.NewGormTenantRepository(db.DB)

	billingMetrics, err := telemetry.NewBillingMetrics(meterProvider.Meter("pharmabill/billing"))
	if err != nil {
		log.Fatal("Failed to create billing metrics", zap.Error(err))
	}

	eventBus := event.NewInMemoryEventBus(log)
	eventBus.Subscribe(catalogapp.NewLowStockAlertHandler(log).WithMetrics(billingMetrics), sales.EventTypeSaleCompleted)

	coordinator := salesapp.NewCoordinator(
		persistence.NewGormTransactionScope(db.DB),
		salesapp.CoordinatorConfig{
			MaxRetries:   cfg.Billing.MaxRetries,
			RetryBackoff: cfg.Billing.RetryBackoff,
		},
		log,
	)
	coordinator.SetEventPublisher(eventBus)
	coordinator.SetBillingMetrics(billingMetrics)

	medicineService := catalogapp.NewMedicineService(medicineRepo)
	saleQueries := salesapp.NewQueryService(saleRepo)
	reportService := reportapp.NewReportService(reportRepo, medicineRepo)
	reportService.SetStoreRepository(tenantRepo)
	storeService := tenantapp.NewStoreService(tenantRepo)

	// HTTP
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		log.Fatal("Invalid trusted proxies", zap.Error(err))
	}

	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	if len(cfg.HTTP.CORSAllowMethods) > 0 {
		corsConfig.AllowMethods = cfg.HTTP.CORSAllowMethods
	}
	if len(cfg.HTTP.CORSAllowHeaders) > 0 {
		corsConfig.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	}

	engine.Use(
		logger.Recovery(log),
		middleware.RequestID(),
		logger.GinMiddleware(log),
		middleware.CORSWithConfig(corsConfig),
		middleware.Secure(),
		middleware.BodyLimit(cfg.HTTP.MaxBodySize),
		middleware.TracingWithConfig(middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     cfg.Telemetry.Enabled,
		}),
		middleware.SpanErrorMarker(),
		middleware.HTTPMetrics(meterProvider.Meter("pharmabill/http"), log),
	)

	jwtConfig := middleware.DefaultJWTConfig(auth.NewJWTService(cfg.JWT))
	jwtConfig.Logger = log

	systemHandler := handler.NewSystemHandler(cfg.App.Name, cfg.App.Version, db)
	router.RegisterHealthRoutes(engine, systemHandler)

	idempotency := middleware.Idempotency(middleware.IdempotencyConfig{
		Store:       idempotencyStore,
		ResultTTL:   cfg.Billing.IdempotencyTTL,
		InFlightTTL: cfg.Billing.InFlightTTL,
		Logger:      log,
	})

	r := router.NewRouter(engine, router.WithGroupMiddleware(
		middleware.JWTAuthMiddlewareWithConfig(jwtConfig),
		middleware.RequireTenant(),
		middleware.TracingAttributeInjector(),
		middleware.Profiling(profiler.IsEnabled()),
	))
	r.Register(router.Routes(router.Handlers{
		Bill:     handler.NewBillHandler(coordinator, saleQueries),
		Medicine: handler.NewMedicineHandler(medicineService),
		Report:   handler.NewReportHandler(reportService),
		Store:    handler.NewStoreHandler(storeService),
		System:   systemHandler,
	}, idempotency)...)
	r.Setup()

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
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	// Flush telemetry after in-flight requests have finished
	if err := profiler.Stop(); err != nil {
		log.Error("Error stopping profiler", zap.Error(err))
	}
	flush := func(name string, fn func(context.Context) error) {
		if err := fn(shutdownCtx); err != nil {
			log.Error("Error shutting down "+name, zap.Error(err))
		}
	}
	flush("meter provider", meterProvider.Shutdown)
	flush("tracer provider", tracerProvider.Shutdown)
	flush("logger provider", loggerProvider.Shutdown)

	if closer, ok := idempotencyStore.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			log.Error("Error closing idempotency store", zap.Error(err))
		}
	}
	if err := db.Close(); err != nil {
		log.Error("Error closing database", zap.Error(err))
	}

	log.Info("Server exited", zap.Duration("shutdown_budget", cfg.HTTP.ShutdownTimeout), zap.Time("at", time.Now().UTC()))
}
