package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/serviceai/sms-dispatch/internal/config"
	"github.com/serviceai/sms-dispatch/internal/infra/postgresql"
	"github.com/serviceai/sms-dispatch/internal/infra/postgresql/migrations"
	infraredis "github.com/serviceai/sms-dispatch/internal/infra/redis"
	"github.com/serviceai/sms-dispatch/internal/observability"
	"github.com/serviceai/sms-dispatch/internal/provider"
	"github.com/serviceai/sms-dispatch/internal/queue"
	"github.com/serviceai/sms-dispatch/internal/repository"
	"github.com/serviceai/sms-dispatch/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger("sms-dispatch-worker", cfg.LogLevel)
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

	deliveryService, err := service.NewDeliveryService(
		templateService,
		repository.NewGormCustomerRepo(db),
		repository.NewGormEmergencyContactRepo(db),
		repository.NewGormDeliveryRepo(db),
		buildProviders(cfg),
		limiter,
		queue.NewRabbitMQPublisher(rabbit),
		logger,
	)
	if err != nil {
		logger.Fatal("delivery service initialization failed", zap.Error(err))
	}

	metrics := observability.NewMetrics()
	deliveryService.SetMetrics(metrics)

	consumer := queue.NewRabbitMQConsumer(rabbit, cfg.WorkerConcurrency, logger)
	defer consumer.Close()

	worker, err := service.NewEventWorker(deliveryService, consumer, cfg.WorkerConcurrency, logger)
	if err != nil {
		logger.Fatal("event worker initialization failed", zap.Error(err))
	}
	worker.SetMetrics(metrics)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("sms-dispatch worker started", zap.Int("concurrency", cfg.WorkerConcurrency))
	if err := worker.Start(ctx); err != nil && ctx.Err() == nil {
		logger.Fatal("event worker stopped", zap.Error(err))
	}

	logger.Info("worker shut down")
}

func buildProviders(cfg *config.Config) []provider.SMSProvider {
	twilio := provider.NewTwilioProvider(cfg.TwilioCredentials())
	vonage := provider.NewVonageProvider(cfg.VonageCredentials())

	if cfg.PrimaryProvider == provider.NameVonage {
		return []provider.SMSProvider{vonage, twilio}
	}
	return []provider.SMSProvider{twilio, vonage}
}
