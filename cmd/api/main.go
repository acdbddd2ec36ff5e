package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/helpdesk360/internal/api/http"
	"github.com/spec-kit/helpdesk360/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk360/internal/config"
	"github.com/spec-kit/helpdesk360/internal/events"
	"github.com/spec-kit/helpdesk360/internal/observability"
	"github.com/spec-kit/helpdesk360/internal/persistence"
	"github.com/spec-kit/helpdesk360/internal/repository"
	"github.com/spec-kit/helpdesk360/internal/service"
	"github.com/spec-kit/helpdesk360/internal/worker"
)

const (
	shutdownTimeout   = 10 * time.Second
	rateLimitKeyspace = "helpdesk360:ratelimit:"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck
	logger = logger.With(zap.String("service", cfg.App.Name), zap.String("env", cfg.App.Env))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()
	pool := pg.Pool

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pool, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	var redisPinger handlers.Pinger
	if redis != nil {
		redisPinger = redis
	}
	var limiterStorage fiber.Storage
	if redis.Reachable() {
		limiterStorage = persistence.NewLimiterStorage(redis.Client, rateLimitKeyspace)
	} else {
		logger.Warn("rate limit counters kept in memory")
	}

	var publisher service.EventPublisher
	if cfg.Kafka.Enabled() {
		kafkaPublisher := events.NewKafkaPublisher(events.NewKafkaWriter(cfg.Kafka))
		forwarder := worker.NewEventForwarder(kafkaPublisher, cfg.Kafka.QueueSize, logger)
		forwarder.Start()
		defer func() {
			stopCtx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
			defer stop()
			if err := forwarder.Stop(stopCtx); err != nil {
				logger.Warn("draining request events", zap.Error(err), zap.Int("pending", forwarder.Pending()))
			}
			if err := kafkaPublisher.Close(); err != nil {
				logger.Warn("closing kafka publisher", zap.Error(err))
			}
		}()
		publisher = forwarder
		logger.Info("forwarding request events to kafka",
			zap.Strings("brokers", cfg.Kafka.Brokers),
			zap.String("topic", cfg.Kafka.Topic))
	}

	requestRepo := repository.NewRequestRepository(pool)
	departmentRepo := repository.NewDepartmentRepository(pool)

	dispatcher := events.NewInMemoryDispatcher(logger)
	service.NewNotificationService(dispatcher, publisher, logger).RegisterHandlers()

	reportService := service.NewReportService(cfg.Report, service.ReportDependencies{
		Store:       requestRepo,
		Departments: departmentRepo,
		Logger:      logger,
	})
	requestService := service.NewRequestService(service.RequestDependencies{
		RequestRepo:    requestRepo,
		DepartmentRepo: departmentRepo,
		Dispatcher:     dispatcher,
		Logger:         logger,
	})
	departmentService := service.NewDepartmentService(departmentRepo, logger)

	metrics := observability.NewMetrics()
	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		DisableStartupMessage: true,
	})
	httptransport.RegisterMiddlewares(app, httptransport.MiddlewareConfig{
		Logger:         logger,
		Metrics:        metrics,
		Timeout:        cfg.App.RequestTimeout(),
		HTTP:           cfg.HTTP,
		LimiterStorage: limiterStorage,
	})
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:      handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redisPinger, metrics),
		Reports:     handlers.NewReportsHandler(reportService, nil),
		Requests:    handlers.NewRequestsHandler(requestService),
		Departments: handlers.NewDepartmentsHandler(departmentService),
	})

	go func() {
		logger.Info("http server listening", zap.String("addr", cfg.App.Addr()))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
