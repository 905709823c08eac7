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
	appbilling "github.com/hostel/backend/internal/application/billing"
	"github.com/hostel/backend/internal/domain/billing"
	"github.com/hostel/backend/internal/infrastructure/auth"
	"github.com/hostel/backend/internal/infrastructure/cache"
	"github.com/hostel/backend/internal/infrastructure/config"
	"github.com/hostel/backend/internal/infrastructure/event"
	"github.com/hostel/backend/internal/infrastructure/logger"
	"github.com/hostel/backend/internal/infrastructure/migration"
	"github.com/hostel/backend/internal/infrastructure/notification"
	"github.com/hostel/backend/internal/infrastructure/numbering"
	"github.com/hostel/backend/internal/infrastructure/persistence"
	"github.com/hostel/backend/internal/infrastructure/printing"
	"github.com/hostel/backend/internal/infrastructure/scheduler"
	"github.com/hostel/backend/internal/infrastructure/storage"
	"github.com/hostel/backend/internal/infrastructure/telemetry"
	"github.com/hostel/backend/internal/interfaces/http/handler"
	"github.com/hostel/backend/internal/interfaces/http/middleware"
	"github.com/hostel/backend/internal/interfaces/http/router"
	"github.com/hostel/backend/migrations"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/text/language"

	_ "github.com/hostel/backend/docs"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Version is overwritten at build time with -ldflags "-X main.Version=..."
var Version = "dev"

//	@title			Hostel Billing API
//	@version		1.0
//	@description	Invoice ledger, receipts, refunds and payment reminders for hostel tenants.

//	@contact.name	Hostel Platform Team
//	@contact.email	platform@hostel.example.com

//	@license.name	Apache 2.0
//	@license.url	http://www.apache.org/licenses/LICENSE-2.0.html

//	@host		localhost:8080
//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	logCfg := logger.ConfigForEnvironment(cfg.App.Env, cfg.Log.Level, cfg.Log.Output)
	if cfg.Log.Format != "" {
		logCfg.Format = cfg.Log.Format
	}
	bootLog, err := logger.New(logCfg)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	ctx := context.Background()

	// Telemetry providers are no-ops unless telemetry is enabled
	serviceName := cfg.Telemetry.ServiceName
	if serviceName == "" {
		serviceName = cfg.App.Name
	}
	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       serviceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, bootLog)
	if err != nil {
		bootLog.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.MetricsInterval,
		ServiceName:       serviceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, bootLog)
	if err != nil {
		bootLog.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	logProvider, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           cfg.Telemetry.Enabled && cfg.Telemetry.LogExportEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       serviceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, bootLog)
	if err != nil {
		bootLog.Fatal("Failed to initialize log provider", zap.Error(err))
	}

	var extraCores []zapcore.Core
	if logProvider.IsEnabled() {
		extraCores = append(extraCores, logProvider.Core(logger.ParseLevel(cfg.Log.Level)))
	}
	log, err := logger.New(logCfg, extraCores...)
	if err != nil {
		bootLog.Fatal("Failed to initialize logger", zap.Error(err))
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting hostel billing",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", Version),
	)

	// Create GORM logger backed by zap
	gormLevel := cfg.Database.LogLevel
	if gormLevel == "" {
		gormLevel = cfg.Log.Level
	}
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(gormLevel), cfg.Telemetry.DBSlowQueryThresh)

	if cfg.Database.AutoMigrate {
		if err := migration.ApplyEmbedded(cfg.Database.DSN(), migrations.FS, log.Named("migrate")); err != nil {
			log.Fatal("Failed to apply schema migrations", zap.Error(err))
		}
	}

	db, err := persistence.NewDatabase(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	if err := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
		Enabled:         cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		LogFullSQL:      cfg.Telemetry.DBLogFullSQL && !cfg.IsProduction(),
		SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
	}, log).Register(db.DB); err != nil {
		log.Fatal("Failed to register database tracing", zap.Error(err))
	}
	dbMetrics, err := telemetry.RegisterDBMetrics(db.DB, meterProvider, cfg.Telemetry.DBSlowQueryThresh, log)
	if err != nil {
		log.Fatal("Failed to register database metrics", zap.Error(err))
	}
	if dbMetrics != nil {
		defer dbMetrics.Stop()
	}

	billingMetrics, err := telemetry.NewBillingMetrics(meterProvider.Meter("hostel-billing"))
	if err != nil {
		log.Fatal("Failed to create billing metrics", zap.Error(err))
	}

	// Initialize repositories
	invoiceRepo := persistence.NewGormInvoiceRepository(db.DB)
	transactionRepo := persistence.NewGormBillingTransactionRepository(db.DB)
	receiptRepo := persistence.NewGormReceiptRepository(db.DB)
	refundRepo := persistence.NewGormRefundRequestRepository(db.DB)
	reminderRepo := persistence.NewGormPaymentReminderRepository(db.DB)
	reminderConfigRepo := persistence.NewGormReminderConfigRepository(db.DB)
	reminderTemplateRepo := persistence.NewGormReminderTemplateRepository(db.DB)
	billingScope := persistence.NewGormBillingTransactionScope(db.DB)
	minter := numbering.NewMinter()

	locker, err := cache.OpenLocker(cfg.Redis, cache.LockerOptions{
		TTL:          cfg.Reminder.LockTTL,
		RequireRedis: cfg.IsProduction(),
		Logger:       log,
	})
	if err != nil {
		log.Fatal("Failed to create invoice locker", zap.Error(err))
	}
	defer func() {
		_ = locker.Close()
	}()

	sink, err := notification.NewSinkFromConfig(cfg.Notification, log)
	if err != nil {
		log.Fatal("Failed to configure notifications", zap.Error(err))
	}

	artifacts, err := storage.NewArtifactStore(ctx, cfg.Receipt, log.Named("artifacts"))
	if err != nil {
		log.Fatal("Failed to open receipt artifact store", zap.Error(err))
	}

	locale, err := language.Parse(cfg.Billing.Locale)
	if err != nil {
		log.Warn("Unknown billing locale, using English", zap.String("locale", cfg.Billing.Locale))
		locale = language.English
	}

	pdf, err := printing.NewChromedpRenderer(&printing.ChromedpConfig{
		DefaultTimeout: cfg.Receipt.RenderTimeout,
		ExecPath:       cfg.Receipt.ChromePath,
		NoSandbox:      true,
		MaxTabs:        cfg.Receipt.MaxTabs,
		Logger:         log.Named("chromedp"),
	})
	if err != nil {
		log.Fatal("Failed to create PDF renderer", zap.Error(err))
	}
	defer func() {
		_ = pdf.Close()
	}()
	paper, _ := printing.PaperSizeByName(cfg.Receipt.Paper)
	receiptRenderer := printing.NewReceiptArtifactRenderer(pdf, artifacts, printing.ReceiptRendererConfig{
		HostelName:  cfg.Billing.HostelName,
		HostelPhone: cfg.Billing.HostelPhone,
		HostelEmail: cfg.Billing.HostelEmail,
		Locale:      locale,
		Location:    time.UTC,
		Paper:       paper,
		Logger:      log.Named("receipts"),
	})

	// Event journal and bus
	eventSerializer := event.NewEventSerializer()
	event.RegisterBillingEvents(eventSerializer)
	journal := event.NewEventJournal(db.DB, eventSerializer, log)
	eventBus := event.NewInMemoryEventBus(log)
	eventBus.Subscribe(journal)
	cancellation := appbilling.NewReminderCancellationHandler(reminderRepo, log)
	eventBus.Subscribe(cancellation, cancellation.EventTypes()...)
	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		_ = eventBus.Stop(context.Background())
	}()

	// Initialize services
	ledgerService := appbilling.NewLedgerService(invoiceRepo, transactionRepo, receiptRepo, billingScope, minter, log)
	ledgerService.SetReceiptRenderer(receiptRenderer)
	ledgerService.SetNotificationSink(sink)
	ledgerService.SetEventPublisher(eventBus)
	ledgerService.SetBillingMetrics(billingMetrics)
	ledgerService.SetRenderTimeout(cfg.Receipt.RenderTimeout)

	refundService := appbilling.NewRefundService(refundRepo, transactionRepo, ledgerService, billingScope, minter, log)

	reminderService := appbilling.NewReminderService(
		invoiceRepo,
		reminderRepo,
		reminderConfigRepo,
		reminderTemplateRepo,
		billingScope,
		minter,
		sink,
		locker,
		billing.NewTemplateRenderer(locale),
		log,
	)
	reminderService.SetHostelDefaults(appbilling.HostelDefaults{
		Name:               cfg.Billing.HostelName,
		Phone:              cfg.Billing.HostelPhone,
		Email:              cfg.Billing.HostelEmail,
		PaymentLinkBaseURL: cfg.Billing.PaymentLinkBaseURL,
	})
	reminderService.SetEventPublisher(eventBus)
	reminderService.SetBillingMetrics(billingMetrics)
	reminderService.SetSinkTimeout(cfg.Notification.Timeout)
	reminderService.SetFailureBackoff(cfg.Reminder.FailureBackoff)

	settingsService := appbilling.NewReminderSettingsService(reminderConfigRepo, reminderTemplateRepo, log)

	// Reminder scheduler
	pool, err := scheduler.NewWorkerPool(scheduler.PoolConfig{
		Workers:    cfg.Reminder.Workers,
		QueueSize:  cfg.Reminder.QueueSize,
		JobTimeout: cfg.Reminder.JobTimeout,
	}, scheduler.NewReminderJobExecutor(reminderService, log), log.Named("reminders"))
	if err != nil {
		log.Fatal("Failed to create reminder worker pool", zap.Error(err))
	}
	var trigger *scheduler.CronTrigger
	if cfg.Reminder.Enabled {
		triggerCfg := scheduler.DefaultCronTriggerConfig()
		if cfg.Reminder.HourlySchedule != "" {
			triggerCfg.HourlySchedule = cfg.Reminder.HourlySchedule
		}
		if cfg.Reminder.DailySchedule != "" {
			triggerCfg.DailySchedule = cfg.Reminder.DailySchedule
		}
		triggerCfg.BatchSize = cfg.Reminder.BatchSize

		trigger, err = scheduler.NewCronTrigger(triggerCfg, reminderService, pool, billingMetrics, log.Named("reminders"))
		if err != nil {
			log.Fatal("Failed to create reminder cron trigger", zap.Error(err))
		}
		if err := pool.Start(ctx); err != nil {
			log.Fatal("Failed to start reminder worker pool", zap.Error(err))
		}
		if err := trigger.Start(ctx); err != nil {
			log.Fatal("Failed to start reminder cron trigger", zap.Error(err))
		}
	} else {
		log.Info("Reminder scheduler disabled")
	}

	// Initialize handlers
	invoiceHandler := handler.NewInvoiceHandler(ledgerService, journal)
	receiptHandler := handler.NewReceiptHandler(ledgerService, artifacts)
	refundHandler := handler.NewRefundHandler(refundService)
	reminderHandler := handler.NewReminderHandler(reminderService, settingsService, cfg.Reminder.BatchSize)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	if err := middleware.SetupValidator(); err != nil {
		log.Fatal("Failed to register validators", zap.Error(err))
	}

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		log.Fatal("Invalid trusted proxies", zap.Error(err))
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(middleware.Tracing())
	engine.Use(middleware.SpanErrorMarker())
	engine.Use(middleware.HTTPMetrics(middleware.HTTPMetricsConfig{
		MeterProvider: meterProvider,
		Enabled:       meterProvider.IsEnabled(),
	}))
	engine.Use(logger.GinMiddleware(log, "/health"))
	engine.Use(middleware.Secure())
	engine.Use(middleware.CORS(cfg.HTTP.CORSOrigins))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodyBytes))
	if cfg.HTTP.RateLimit > 0 {
		engine.Use(middleware.RateLimit(middleware.NewRateLimiter(cfg.HTTP.RateLimit, cfg.HTTP.RateBurst)))
	}

	engine.GET("/health", healthHandler(db))

	jwtConfig := middleware.DefaultJWTConfig(auth.NewJWTService(cfg.JWT))
	jwtConfig.Logger = log
	jwtMiddleware := middleware.JWTAuthMiddlewareWithConfig(jwtConfig)

	engine.GET("/swagger/*any",
		middleware.SwaggerProtection(middleware.SwaggerConfig{
			Enabled:     cfg.HTTP.SwaggerEnabled,
			RequireAuth: cfg.IsProduction(),
			AllowedIPs:  cfg.HTTP.SwaggerAllowedIPs,
		}, jwtMiddleware),
		ginSwagger.WrapHandler(swaggerFiles.Handler),
	)

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Use(jwtMiddleware, middleware.TracingAttributeInjector())

	guard := func(permission string) gin.HandlerFunc {
		return middleware.RequirePermissionWithConfig(permission, middleware.PermissionConfig{Logger: log})
	}
	billingRoutes := router.BillingRoutes(router.BillingHandlers{
		Invoices:  invoiceHandler,
		Receipts:  receiptHandler,
		Refunds:   refundHandler,
		Reminders: reminderHandler,
	}, guard)
	r.Register(billingRoutes)
	log.Debug("Billing routes registered", zap.Strings("routes", billingRoutes.Describe()))

	systemHandler := handler.NewSystemHandler(Version,
		handler.WithReminderScheduler(cfg.Reminder.Enabled),
		handler.WithPoolStats(func() (handler.DatabasePoolInfo, error) {
			stats, err := db.Stats()
			if err != nil {
				return handler.DatabasePoolInfo{}, err
			}
			return handler.DatabasePoolInfo{
				MaxOpen: stats.MaxOpenConnections,
				Open:    stats.OpenConnections,
				InUse:   stats.InUse,
				Idle:    stats.Idle,
				Waits:   stats.WaitCount,
			}, nil
		}),
	)
	systemRoutes := router.NewDomainGroup("system", "/system")
	systemRoutes.GET("/info", systemHandler.GetSystemInfo)
	systemRoutes.GET("/ping", systemHandler.Ping)
	r.Register(systemRoutes)

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

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownTimeout := cfg.HTTP.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 30 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if trigger != nil {
		if err := trigger.Stop(shutdownCtx); err != nil {
			log.Warn("Reminder cron trigger did not stop cleanly", zap.Error(err))
		}
		if err := pool.Stop(shutdownCtx); err != nil {
			log.Warn("Reminder worker pool did not drain", zap.Error(err))
		}
	}
	for name, shutdown := range map[string]func(context.Context) error{
		"tracer": tracerProvider.Shutdown,
		"meter":  meterProvider.Shutdown,
		"logs":   logProvider.Shutdown,
	} {
		if err := shutdown(shutdownCtx); err != nil {
			log.Warn("Telemetry provider shutdown failed", zap.String("provider", name), zap.Error(err))
		}
	}

	log.Info("Server exited gracefully")
}

// healthHandler reports database reachability
func healthHandler(db *persistence.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := db.Ping(c.Request.Context()); err != nil {
			logger.L(c.Request.Context()).Warn("Health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"time":     time.Now().Format(time.RFC3339),
				"database": "error",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": "ok",
		})
	}
}
