package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SherClockHolmes/webpush-go"

	"github.com/jp310194/wwfc-webapp/config"
	"github.com/jp310194/wwfc-webapp/internal/api"
	"github.com/jp310194/wwfc-webapp/internal/auth"
	"github.com/jp310194/wwfc-webapp/internal/db"
	"github.com/jp310194/wwfc-webapp/internal/push"
	"github.com/jp310194/wwfc-webapp/internal/store"
)

func main() {
	// Setup logger
	logger := log.New(os.Stdout, "wwfc-backend ", log.LstdFlags)

	// Load configuration
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml" // Default path for local development
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Fatalf("failed to load configuration from %s: %v", configPath, err)
	}
	logger.Printf("configuration loaded successfully from %s", configPath)

	if cfg.Push.Subject == "" || cfg.Push.PublicKey == "" || cfg.Push.PrivateKey == "" {
		logger.Printf("VAPID identity is not fully configured; broadcast requests will be rejected until subject and keys are set")
	}

	if cfg.Auth.JWTSecret == "" {
		logger.Fatalf("auth.jwt_secret must be configured")
	}

	webpushOptions := webpush.Options{
		VAPIDPublicKey:  cfg.Push.PublicKey,
		VAPIDPrivateKey: cfg.Push.PrivateKey,
		Subscriber:      cfg.Push.Subject,
		TTL:             cfg.Push.TTL,
	}

	// Initialize database
	gormDB, err := db.Init(&cfg.Database)
	if err != nil {
		logger.Fatalf("failed to initialize database: %v", err)
	}
	logger.Println("database initialized successfully")

	appStore := store.NewGormStore(gormDB)
	logger.Println("data store initialized")

	gate := auth.NewGate(auth.NewJWTResolver(cfg.Auth.JWTSecret), appStore)

	dispatcher := push.NewDispatcher(appStore, gate, &webpushOptions, push.Config{
		DefaultTitle: cfg.Push.DefaultTitle,
		SendTimeout:  cfg.Push.SendTimeout,
		PoolSize:     cfg.WorkerPool.Size,
	})

	// Prune subscriptions the push service reports gone.
	dispatcher.OnPermanentFailure(func(ctx context.Context, endpoint string) {
		if err := appStore.DeleteSubscription(ctx, endpoint); err != nil {
			logger.Printf("failed to delete expired subscription %s: %v", endpoint, err)
		}
	})

	// Initialize router
	router := api.NewRouter(appStore, gate, dispatcher, &webpushOptions, &cfg.Server)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	// Start the server in a goroutine
	go func() {
		logger.Printf("HTTP server starting on port %d", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("HTTP server ListenAndServe: %v", err)
		}
	}()

	// Setup signal handling for graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	// Block until a signal is received.
	<-stop
	logger.Println("Shutdown signal received, stopping services...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatalf("HTTP server Shutdown: %v", err)
	}

	logger.Println("Server gracefully stopped")
}
