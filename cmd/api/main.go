package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"doctrack/docs"
	"doctrack/internal/ai"
	"doctrack/internal/config"
	"doctrack/internal/database"
	"doctrack/internal/database/migration"
	handlers "doctrack/internal/http/handler"
	"doctrack/internal/http/middleware"
	"doctrack/internal/logger"
	"doctrack/internal/notify"
	tracing "doctrack/internal/otel"
	"doctrack/internal/realtime"
	"doctrack/internal/repository/postgres"
	"doctrack/internal/service"
	"doctrack/internal/storage"
)

const shutdownTimeout = 10 * time.Second

// @title doctrack API
// @version 1.0
// @description Tracks expiring documents, schedules renewal reminders and proxies AI renewal advice.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// Load configuration from CONFIG_FILE and environment variables (.env auto-loaded if present)
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config_load_failed", "error", err)
		os.Exit(1)
	}

	log := logger.New(os.Stdout, cfg.Logging, cfg.Location())
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("server_exit", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.AppConfig, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Init(ctx, "doctrack", logger.Component(log, "otel"))
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			log.Warn("tracing_shutdown_failed", "error", err)
		}
	}()

	// PostgreSQL connection (pooled via database/sql, traced via otelsql)
	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := migration.Run(ctx, db, log, cfg.Database.Host); err != nil {
			return err
		}
	}

	// S3-compatible object storage for document images
	objStore, err := storage.NewMinIO(ctx, cfg.MinIO)
	if err != nil {
		return fmt.Errorf("init object storage: %w", err)
	}

	// The realtime feed is optional: without Redis, mutations still succeed and /feed answers 503.
	var (
		events realtime.Publisher = realtime.Discard{}
		feed   realtime.Subscriber
	)
	if rdb, err := realtime.NewRedisClient(ctx, cfg.Redis); err != nil {
		log.Warn("realtime_feed_disabled", "component", "realtime", "error", err)
	} else {
		defer rdb.Close()
		f := realtime.NewRedisFeed(rdb, log)
		events, feed = f, f
	}

	rabbit, err := notify.DialRabbit(cfg.RabbitMQ.URL, log)
	if err != nil {
		return fmt.Errorf("connect rabbitmq: %w", err)
	}
	defer rabbit.Close()

	advisor, err := ai.NewClient(cfg.AI, log)
	if err != nil {
		return fmt.Errorf("init ai client: %w", err)
	}

	// Repositories and services
	docRepo := postgres.NewDocumentPostgres(db)
	reminderRepo := postgres.NewReminderPostgres(db)
	historyRepo := postgres.NewHistoryPostgres(db)
	profileRepo := postgres.NewProfilePostgres(db)
	orgRepo := postgres.NewOrganizationPostgres(db)
	auditRepo := postgres.NewAuditPostgres(db)

	now := time.Now
	docSvc := service.NewDocumentService(service.DocumentDeps{
		Documents:     docRepo,
		Reminders:     reminderRepo,
		History:       historyRepo,
		Organizations: orgRepo,
		Audit:         auditRepo,
		Store:         objStore,
		Events:        events,
		Now:           now,
		Log:           log,
	})
	profileSvc := service.NewProfileService(profileRepo, auditRepo, now, log)
	orgSvc := service.NewOrganizationService(orgRepo, auditRepo, now, log)
	auditSvc := service.NewAuditService(auditRepo, now, log)
	advisorySvc := service.NewAdvisoryService(advisor, docSvc, profileRepo, cfg.AI.MaxScanBytes(), now, log)
	dispatcher := notify.NewDispatcher(profileRepo, reminderRepo, rabbit, cfg.RabbitMQ.NotificationQueue, log)
	reminderJob := service.NewReminderJob(reminderRepo, rabbit, service.ReminderJobConfig{
		Queue:      cfg.RabbitMQ.EmailQueue,
		From:       cfg.Jobs.EmailFrom,
		AppBaseURL: cfg.Jobs.AppBaseURL,
	}, now, log)

	if cfg.Auth.JWTSecret == "" {
		log.Warn("auth_not_configured", "detail", "AUTH_JWT_SECRET is empty; authenticated routes will reject every request")
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
		BodyLimit:    cfg.BodyLimitBytes(),
	})

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	promMiddleware, err := middleware.NewPrometheusMiddleware(reg)
	if err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}

	// Register global middleware
	app.Use(otelfiber.Middleware(otelfiber.WithNext(func(c *fiber.Ctx) bool {
		return c.Path() == "/metrics" || c.Path() == "/healthz"
	})))
	app.Use(middleware.RequestID())
	app.Use(middleware.Logger(log))
	app.Use(promMiddleware.Handler())

	// Swagger UI with dynamic host and scheme
	app.Get("/swagger/*", func(c *fiber.Ctx) error {
		scheme := c.Protocol()
		if proto := c.Get("X-Forwarded-Proto"); proto != "" {
			scheme = strings.Split(proto, ",")[0]
		}

		docs.SwaggerInfo.Host = c.Get("Host")
		docs.SwaggerInfo.Schemes = []string{scheme}

		return swagger.HandlerDefault(c)
	})

	handlers.RegisterRoutes(app, handlers.Deps{
		DB:            db,
		Documents:     docSvc,
		Profiles:      profileSvc,
		Organizations: orgSvc,
		Audit:         auditSvc,
		Advisory:      advisorySvc,
		Feed:          feed,
		Notifications: dispatcher,
		ReminderJob:   reminderJob,
		Metrics:       reg,
		JWTSecret:     cfg.Auth.JWTSecret,
		JobToken:      cfg.Auth.JobToken,
		Now:           now,
	})

	addr := ":" + cfg.Port

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("server_listening", "addr", addr, "app_host", cfg.AppHost)
		if err := app.Listen(addr); err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("server_shutdown", "timeout", shutdownTimeout.String())
		return app.ShutdownWithTimeout(shutdownTimeout)
	})
	return g.Wait()
}
