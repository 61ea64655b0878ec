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

	"order-agent/config"
	"order-agent/internal/api"
	"order-agent/internal/broker"
	"order-agent/internal/catalog"
	"order-agent/internal/redisclient"
	"order-agent/internal/service"
	"order-agent/internal/store"
	"order-agent/internal/util"
	"order-agent/internal/whatsapp"
	"order-agent/internal/worker"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {

	cfg := config.Load()

	if err := util.InitLogger(cfg.Server.Env, "order-agent", cfg.Server.LogLevel); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting order agent",
		zap.String("env", cfg.Server.Env),
		zap.String("port", cfg.Server.Port))

	tp, err := util.InitTracer("order-agent", cfg.Observ.JaegerEndpoint)
	if err != nil {
		logger.Fatal("Failed to initialize tracer", zap.Error(err))
	}
	if tp != nil {
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tp.Shutdown(ctx); err != nil {
				logger.Error("Error shutting down tracer", zap.Error(err))
			}
		}()
	}

	products, err := catalog.Load(cfg.Business.CatalogPath)
	if err != nil {
		logger.Fatal("Failed to load catalog", zap.String("path", cfg.Business.CatalogPath), zap.Error(err))
	}
	index := catalog.NewIndex(products)
	for entry := range index.Entries() {
		logger.Debug("Catalog entry indexed",
			zap.String("product_id", entry.ID),
			zap.Int("keywords", len(entry.Keywords)))
	}
	logger.Info("Catalog loaded", zap.Int("products", index.Len()))

	var (
		sessions   service.SessionStore
		dedup      api.MessageDeduplicator
		repo       service.OrderRepository
		publisher  service.OrderPublisher
		readyCheck = map[string]api.ReadinessCheck{}
	)

	if cfg.Redis.Enabled {
		redisClient, err := redisclient.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.SessionTTL)
		if err != nil {
			logger.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer redisClient.Close()
		sessions, dedup = redisClient, redisClient
		readyCheck["redis"] = redisClient.Ping
		logger.Info("Redis connected", zap.Duration("session_ttl", cfg.Redis.SessionTTL))
	} else {
		logger.Warn("Redis disabled, sessions are not persisted")
	}

	if cfg.Database.Enabled {
		db, err := store.NewStore(cfg.Database.URL)
		if err != nil {
			logger.Fatal("Failed to connect to database", zap.Error(err))
		}
		defer db.Close()
		if err := db.EnsureSchema(context.Background()); err != nil {
			logger.Fatal("Failed to prepare database", zap.Error(err))
		}
		repo = db
		readyCheck["postgres"] = db.Ping
		logger.Info("Database connected")
	}

	if cfg.Kafka.Enabled {
		producer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicOrder)
		defer producer.Close()
		publisher = broker.NewEventPublisher(producer)
		logger.Info("Kafka producer initialized", zap.String("topic", cfg.Kafka.TopicOrder))
	}

	orderService := service.NewOrderService(repo, publisher)

	var answers service.AnswerGenerator
	if cfg.OpenAI.APIKey != "" {
		answers = service.NewOpenAIAnswerGenerator(cfg.OpenAI.APIKey, cfg.OpenAI.Model, cfg.OpenAI.BaseURL)
	} else {
		logger.Warn("OPENAI_API_KEY not set, product questions get the fallback answer")
	}

	dispatcher := whatsapp.NewClient(whatsapp.Config{
		Token:         cfg.WhatsApp.Token,
		PhoneNumberID: cfg.WhatsApp.PhoneNumberID,
		APIVersion:    cfg.WhatsApp.APIVersion,
		BaseURL:       cfg.WhatsApp.BaseURL,
	})

	machine := service.NewMachine(index, cfg.Business.StoreName, cfg.Business.OperatorPhone)
	engine := service.NewEngine(machine, sessions, dispatcher, answers, orderService)

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	var archiveWorker *worker.OrderArchiveWorker
	if cfg.Kafka.Enabled && repo != nil {
		consumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicOrder, cfg.Kafka.ConsumerGroup)
		archiveWorker = worker.NewOrderArchiveWorker(consumer, orderService)
		go func() {
			if err := archiveWorker.Start(workerCtx); err != nil && workerCtx.Err() == nil {
				logger.Error("Order archive worker error", zap.Error(err))
			}
		}()
	}

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	handler := api.NewHandler(engine, orderService, cfg.WhatsApp.VerifyToken)
	if dedup != nil {
		handler.WithDeduplicator(dedup)
	}
	for name, check := range readyCheck {
		handler.AddReadinessCheck(name, check)
	}
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

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	workerCancel()
	if archiveWorker != nil {
		if err := archiveWorker.Stop(); err != nil {
			logger.Error("Error stopping archive worker", zap.Error(err))
		}
	}

	logger.Info("Server exited")
}
