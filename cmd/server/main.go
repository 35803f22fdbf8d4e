package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"b2b-commerce/config"
	"b2b-commerce/internal/api"
	"b2b-commerce/internal/auth"
	"b2b-commerce/internal/broker"
	"b2b-commerce/internal/redisclient"
	"b2b-commerce/internal/service"
	"b2b-commerce/internal/store"
	"b2b-commerce/internal/store/memstore"
	"b2b-commerce/internal/store/migrations"
	"b2b-commerce/internal/util"
	"b2b-commerce/internal/worker"

	"github.com/gin-gonic/gin"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
)

const serviceName = "b2b-commerce"

// backend is a store the server can also ping and close
type backend interface {
	service.Store
	api.Pinger
	Close() error
}

func main() {

	cfg := config.Load()

	if err := util.InitLogger(cfg.Server.Env, cfg.Server.LogLevel); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting b2b commerce service")

	initTracer := util.InitNoopTracer
	if cfg.Observ.TracingEnabled {
		initTracer = func(name string) (*sdktrace.TracerProvider, error) {
			return util.InitTracer(name, cfg.Observ.JaegerEndpoint)
		}
	}
	tp, err := initTracer(serviceName)
	if err != nil {
		logger.Fatal("Failed to initialize tracer", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			logger.Error("Error shutting down tracer", zap.Error(err))
		}
	}()

	db, err := openStore(cfg.Database, logger)
	if err != nil {
		logger.Fatal("Failed to open store", zap.Error(err))
	}
	defer db.Close()

	var (
		revoker service.TokenRevoker  = service.NoopRevoker{}
		cache   service.CategoryCache = service.NoopCache{}
	)
	if cfg.Redis.Enabled {
		redisClient, err := redisclient.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			logger.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer redisClient.Close()
		revoker, cache = redisClient, redisClient
		logger.Info("Redis connected", zap.String("addr", cfg.Redis.Addr))
	} else {
		logger.Warn("Redis disabled: refresh tokens cannot be revoked and categories are not cached")
	}

	var publisher service.EventPublisher = broker.NoopPublisher{}
	if cfg.Kafka.Enabled {
		producer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicEvents)
		defer producer.Close()
		publisher = broker.NewEventPublisher(producer)
		logger.Info("Kafka producer initialized", zap.Strings("brokers", cfg.Kafka.Brokers))
	}

	tokens := auth.NewJWTService(cfg.Auth)
	services := api.Services{
		Identity:    service.NewIdentityService(db, tokens, auth.NewPasswordHasher(cfg.Auth.BcryptCost), revoker),
		Catalog:     service.NewCatalogService(db, publisher, cache, cfg.Redis.CategoryCacheTTL),
		Connections: service.NewConnectionService(db, publisher),
		Carts:       service.NewCartService(db),
		Orders:      service.NewOrderService(db, publisher, cfg.Business.LegacyClearCartOnOrderList),
		Activity:    service.NewActivityService(db, cfg.Business.ActivityPageSize),
	}
	if cfg.Business.LegacyClearCartOnOrderList {
		logger.Warn("Legacy mode: listing orders clears the shop's cart")
	}

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	var activityWorker *worker.ActivityWorker
	if cfg.Kafka.Enabled {
		consumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicEvents, cfg.Kafka.ConsumerGroup)
		activityWorker = worker.NewActivityWorker(consumer, services.Activity)
		go func() {
			if err := activityWorker.Start(workerCtx); err != nil {
				logger.Error("Activity worker error", zap.Error(err))
			}
		}()
	}

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	handler := api.NewHandler(services, db)
	handler.SetupRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.Info("Starting HTTP server", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	workerCancel()
	if activityWorker != nil {
		if err := activityWorker.Stop(); err != nil {
			logger.Error("Failed to stop activity worker", zap.Error(err))
		}
	}

	logger.Info("Server exited")
}

// openStore connects the configured driver, migrating Postgres first when asked
func openStore(cfg config.DatabaseConfig, logger *zap.Logger) (backend, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		logger.Warn("Using in-memory store: data is lost on restart")
		return memstore.New(), nil
	case config.DriverPostgres:
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}

	if cfg.AutoMigrate {
		m, err := migrations.New(cfg.URL, logger)
		if err != nil {
			return nil, err
		}
		upErr := m.Up()
		if err := m.Close(); err != nil {
			logger.Warn("Failed to close migrator", zap.Error(err))
		}
		if upErr != nil {
			return nil, upErr
		}
	}

	db, err := store.NewStore(cfg.URL, store.Options{
		MaxOpenConns: cfg.MaxOpenConns,
		MaxIdleConns: cfg.MaxIdleConns,
	})
	if err != nil {
		return nil, err
	}
	logger.Info("Database connected")
	return db, nil
}
