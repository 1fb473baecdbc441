package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"go.uber.org/zap"

	"github.com/serviceai/sms-dispatch/internal/config"
	"github.com/serviceai/sms-dispatch/internal/handler"
	"github.com/serviceai/sms-dispatch/internal/infra/postgresql"
	"github.com/serviceai/sms-dispatch/internal/infra/postgresql/migrations"
	infraredis "github.com/serviceai/sms-dispatch/internal/infra/redis"
	"github.com/serviceai/sms-dispatch/internal/observability"
	"github.com/serviceai/sms-dispatch/internal/provider"
	"github.com/serviceai/sms-dispatch/internal/queue"
	"github.com/serviceai/sms-dispatch/internal/repository"
	"github.com/serviceai/sms-dispatch/internal/service"
	"github.com/serviceai/sms-dispatch/internal/transport"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger("sms-dispatch-api", cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	db, err := postgresql.NewPostgres(cfg.DatabaseDSN)
	if err != nil {
		logger.Fatal("postgres initialization failed", zap.Error(err))
	}

	if err := migrations.Migrate(db); err != nil {
		logger.Fatal("database migrations failed", zap.Error(err))
	}

	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("postgres underlying db init failed", zap.Error(err))
	}
	defer sqlDB.Close()

	rdb, err := infraredis.NewRedis(cfg.RedisURL)
	if err != nil {
		logger.Fatal("redis initialization failed", zap.Error(err))
	}
	defer rdb.Close()

	rabbit, err := queue.NewRabbitMQ(cfg.RabbitMQURL)
	if err != nil {
		logger.Fatal("rabbitmq initialization failed", zap.Error(err))
	}
	defer rabbit.Close()

	templateCache, err := infraredis.NewRedisCache(rdb, time.Duration(cfg.TemplateCacheTTL)*time.Second)
	if err != nil {
		logger.Fatal("template cache initialization failed", zap.Error(err))
	}

	limiter, err := infraredis.NewRedisRateLimiter(rdb, cfg.RateLimitPerSec)
	if err != nil {
		logger.Fatal("rate limiter initialization failed", zap.Error(err))
	}

	templateService, err := service.NewTemplateService(
		repository.NewGormTemplateRepo(db),
		templateCache,
		cfg.DefaultLanguage,
		logger,
	)
	if err != nil {
		logger.Fatal("template service initialization failed", zap.Error(err))
	}

	providers := buildProviders(cfg)

	deliveryService, err := service.NewDeliveryService(
		templateService,
		repository.NewGormCustomerRepo(db),
		repository.NewGormEmergencyContactRepo(db),
		repository.NewGormDeliveryRepo(db),
		providers,
		limiter,
		queue.NewRabbitMQPublisher(rabbit),
		logger,
	)
	if err != nil {
		logger.Fatal("delivery service initialization failed", zap.Error(err))
	}

	metrics := observability.NewMetrics()
	deliveryService.SetMetrics(metrics)

	app := fiber.New(fiber.Config{
		AppName:      "sms-dispatch-api",
		ErrorHandler: transport.ErrorHandler(logger),
	})
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(metrics.HTTPMiddleware())

	handler.RegisterHealthRoutes(app, sqlDB, rdb, providers)
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))

	if err := handler.RegisterMessageRoutes(app, deliveryService); err != nil {
		logger.Fatal("message routes registration failed", zap.Error(err))
	}
	if err := handler.RegisterTemplateRoutes(app, templateService); err != nil {
		logger.Fatal("template routes registration failed", zap.Error(err))
	}

	go func() {
		logger.Info("sms-dispatch api started", zap.Int("port", cfg.APIPort))
		if err := app.Listen(fmt.Sprintf(":%d", cfg.APIPort)); err != nil {
			logger.Fatal("api server stopped", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down api")
	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		logger.Error("api shutdown error", zap.Error(err))
	}
}

func buildProviders(cfg *config.Config) []provider.SMSProvider {
	twilio := provider.NewTwilioProvider(cfg.TwilioCredentials())
	vonage := provider.NewVonageProvider(cfg.VonageCredentials())

	if cfg.PrimaryProvider == provider.NameVonage {
		return []provider.SMSProvider{vonage, twilio}
	}
	return []provider.SMSProvider{twilio, vonage}
}
