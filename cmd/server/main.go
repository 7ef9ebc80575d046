package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"vibely/internal/auth"
	"vibely/internal/config"
	"vibely/internal/database"
	"vibely/internal/handlers"
	"vibely/internal/services"
	"vibely/internal/storage"
	"vibely/internal/websocket"
	"vibely/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Invalid configuration: %v", err)
	}
	logger.SetLevel(logger.ParseLevel(cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize database
	db, err := openDatabase(ctx, cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Optional avatar storage
	var objects storage.ObjectStore
	if cfg.MinIO.Endpoint != "" {
		store, err := storage.NewMinIOStore(ctx, storage.MinIOConfig{
			Endpoint:  cfg.MinIO.Endpoint,
			AccessKey: cfg.MinIO.AccessKey,
			SecretKey: cfg.MinIO.SecretKey,
			Bucket:    cfg.MinIO.Bucket,
			UseSSL:    cfg.MinIO.UseSSL,
			PublicURL: cfg.MinIO.PublicURL,
		})
		if err != nil {
			logger.Fatal("Failed to connect to object storage: %v", err)
		}
		objects = store
	} else {
		logger.Info("MINIO_ENDPOINT not set, avatar uploads disabled")
	}

	// Realtime fan-out: Redis when configured, in process otherwise
	var broker websocket.Broker
	if cfg.Redis.URL != "" {
		redisBroker, err := websocket.NewRedisBroker(ctx, cfg.Redis.URL)
		if err != nil {
			logger.Fatal("Failed to connect to redis: %v", err)
		}
		broker = redisBroker
	}
	hubManager, err := websocket.NewManager(ctx, broker)
	if err != nil {
		logger.Fatal("Failed to start realtime hub: %v", err)
	}
	defer hubManager.Close()

	// Initialize services
	authService := auth.NewService(db, cfg.JWT)
	userService := services.NewUserService(db, objects)
	eventService := services.NewEventService(db)
	chatroomService := services.NewChatroomService(db)
	notificationService := services.NewNotificationService(db)

	// Setup routes
	routes := &handlers.Routes{
		Auth:          handlers.NewAuthHandlers(authService),
		Users:         handlers.NewUserHandlers(userService),
		Events:        handlers.NewEventHandlers(eventService),
		Chatrooms:     handlers.NewChatroomHandlers(chatroomService, hubManager),
		Notifications: handlers.NewNotificationHandlers(notificationService),
		WebSocket:     handlers.NewWebSocketHandlers(authService, chatroomService, hubManager, cfg.Server.CORSOrigin),
	}
	mux := http.NewServeMux()
	routes.Register(mux, authService)

	// Create server
	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      handlers.CORSMiddleware(cfg.Server.CORSOrigin)(mux),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server
	logger.Info("Server started on http://localhost%s", cfg.Server.Port)
	logger.Info("WebSocket endpoint: ws://localhost%s/ws", cfg.Server.Port)
	printAPIEndpoints()

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server error: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	<-ctx.Done()
	logger.Info("Server shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Shutdown error: %v", err)
	}
}

func openDatabase(ctx context.Context, cfg config.DatabaseConfig) (database.Database, error) {
	switch cfg.Driver {
	case "sqlite":
		return database.NewSQLiteDB(cfg.URL)
	default:
		return database.NewPostgresDB(ctx, cfg.URL)
	}
}

func printAPIEndpoints() {
	logger.Info("API endpoints:")
	for _, endpoint := range handlers.Endpoints() {
		logger.Info("   %s", endpoint)
	}
}
