package main

import (
	"civicdesk/backend/internal/analysis"
	"civicdesk/backend/internal/api"
	"civicdesk/backend/internal/api/handler"
	"civicdesk/backend/internal/assignment"
	"civicdesk/backend/internal/auth"
	"civicdesk/backend/internal/complaint"
	"civicdesk/backend/internal/config"
	"civicdesk/backend/internal/dashboard"
	"civicdesk/backend/internal/export"
	"civicdesk/backend/internal/livehub"
	"civicdesk/backend/internal/localization"
	"civicdesk/backend/internal/logger"
	"civicdesk/backend/internal/metrics"
	"civicdesk/backend/internal/queue"
	"civicdesk/backend/internal/storage"
	"civicdesk/backend/internal/telegram"
	"civicdesk/backend/internal/worker"
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load(os.Getenv("CIVICDESK_CONFIG"))
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zl, err := logger.New(cfg.Logging.Level, cfg.IsProduction())
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zl.Sync()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, zl); err != nil {
		zl.Fatal("Server stopped with error", zap.Error(err))
	}
	zl.Info("Server stopped")
}

func run(ctx context.Context, cfg *config.Config, zl *zap.Logger) error {
	zl.Info("Starting CivicDesk backend", zap.String("environment", cfg.Environment))

	// 1. Ініціалізація залежностей
	db, err := storage.OpenPostgres(cfg.Database.URL, !cfg.IsProduction())
	if err != nil {
		return err
	}
	if err := storage.Migrate(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	rdb, err := storage.OpenRedis(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return err
	}
	defer rdb.Close()
	zl.Info("Database and Redis connections established, migrations complete")

	store := storage.NewStorageService(db, rdb, cfg.Redis.ChangeChannel)
	collector := metrics.NewCollector()

	// 2. Live hub: Redis change channel -> WebSocket clients
	hub := livehub.NewManagerService(zl.Named("livehub"))
	hub.OnClientCount = collector.SetWebSocketClients
	go hub.Run(ctx)
	go hub.Listen(ctx, store)

	// 3. Services
	events, closeQueue := setupQueue(ctx, cfg, store, zl)
	defer closeQueue()

	complaints := complaint.NewService(store, zl.Named("complaint"))
	complaints.Changes = store
	complaints.Events = events
	if exporter := setupExporter(cfg, zl); exporter != nil {
		complaints.Exporter = exporter
	}

	assignments := assignment.NewService(store, zl.Named("assignment"))
	assignments.Changes = store
	assignments.Events = events

	h := &handler.Handler{
		Auth:        auth.NewService(store, cfg.Auth.JWTSecret, time.Duration(cfg.Auth.TokenTTLHours)*time.Hour, cfg.Auth.Issuer),
		Users:       store,
		Complaints:  complaints,
		Assignments: assignments,
		Dashboard:   dashboard.NewService(store, complaints, analysis.NewVaderScorer(), cfg.Heatmap.Resolution),
		Hub:         hub,
		Metrics:     collector,
		Upgrader:    handler.NewUpgrader(cfg.Server.AllowOrigins),
		Logger:      zl.Named("http"),
	}

	// 4. Запуск HTTP-сервера
	server := &http.Server{
		Addr:           fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:        api.NewRouter(h, cfg.Server.AllowOrigins),
		ReadTimeout:    time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout:   time.Duration(cfg.Server.WriteTimeout) * time.Second,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}

	errCh := make(chan error, 1)
	go func() {
		zl.Info("HTTP server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	// WebSocket connections are hijacked and closed by the hub, not by Shutdown.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// setupQueue connects the event publisher and, when a bot token is set, the
// notification worker. Without RABBITMQ_URL events are dropped.
func setupQueue(ctx context.Context, cfg *config.Config, store *storage.Service, zl *zap.Logger) (*queue.Publisher, func()) {
	if cfg.RabbitMQ.URL == "" {
		zl.Warn("RABBITMQ_URL not set, complaint events are not queued")
		return nil, func() {}
	}

	publisher, err := queue.NewRabbitPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Queue)
	if err != nil {
		zl.Error("RabbitMQ unavailable, complaint events are not queued", zap.Error(err))
		return nil, func() {}
	}
	closers := []func(){publisher.Close}
	closeAll := func() {
		for _, c := range closers {
			c()
		}
	}

	if cfg.Telegram.BotToken == "" {
		zl.Warn("TELEGRAM_BOT_TOKEN not set, notifications are disabled")
		return publisher, closeAll
	}

	localizer, err := localization.NewLocalizer(cfg.Telegram.LocalesPath)
	if err != nil {
		zl.Error("Failed to load translations", zap.Error(err))
		return publisher, closeAll
	}
	bot, err := telegram.NewBotService(cfg.Telegram.BotToken, localizer, cfg.Telegram.Language, zl.Named("telegram"))
	if err != nil {
		zl.Error("Telegram bot unavailable", zap.Error(err))
		return publisher, closeAll
	}
	consumer, err := queue.NewRabbitConsumer(cfg.RabbitMQ.URL, cfg.RabbitMQ.Queue, zl.Named("queue"))
	if err != nil {
		zl.Error("RabbitMQ consumer unavailable", zap.Error(err))
		return publisher, closeAll
	}
	closers = append(closers, consumer.Close)

	notifications := worker.NewNotificationConsumer(consumer, store, bot.Notifier(cfg.Telegram.AdminChatID), zl.Named("worker"))
	go bot.Run(ctx)
	go func() {
		if err := notifications.Start(ctx); err != nil {
			zl.Error("Notification consumer stopped", zap.Error(err))
		}
	}()
	return publisher, closeAll
}

func setupExporter(cfg *config.Config, zl *zap.Logger) *export.CSVExporter {
	if cfg.MinIO.Endpoint == "" {
		zl.Warn("MINIO_ENDPOINT not set, exports are disabled")
		return nil
	}
	client, err := export.NewMinioClient(cfg.MinIO.Endpoint, cfg.MinIO.AccessKey, cfg.MinIO.SecretKey, cfg.MinIO.UseSSL)
	if err != nil {
		zl.Error("MinIO unavailable, exports are disabled", zap.Error(err))
		return nil
	}
	return export.NewCSVExporter(client, cfg.MinIO.Bucket)
}
