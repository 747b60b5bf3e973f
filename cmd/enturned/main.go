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
	"golang.org/x/sync/errgroup"

	"enturne-backend/config"
	"enturne-backend/internal/api"
	"enturne-backend/internal/db"
	"enturne-backend/internal/notification"
	"enturne-backend/internal/scale"
	"enturne-backend/internal/store"
	"enturne-backend/internal/weighbridge"
)

func main() {
	logger := log.New(os.Stdout, "enturned ", log.LstdFlags)

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml" // Default path for local development
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Fatalf("failed to load configuration from %s: %v", configPath, err)
	}
	logger.Printf("configuration loaded successfully from %s", configPath)

	if cfg.Push.PublicKey == "" || cfg.Push.PrivateKey == "" {
		logger.Println("VAPID keys are not configured; push notifications are disabled")
	}
	webpushOptions := webpush.Options{
		VAPIDPublicKey:  cfg.Push.PublicKey,
		VAPIDPrivateKey: cfg.Push.PrivateKey,
		Subscriber:      cfg.Push.Subject,
		TTL:             cfg.Push.TTL,
	}

	gormDB, err := db.Init(&cfg.Database)
	if err != nil {
		logger.Fatalf("failed to initialize database: %v", err)
	}
	logger.Printf("database initialized successfully (%s)", cfg.Database.Driver)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	appStore := store.NewGormStore(gormDB)

	monitor := scale.NewMonitor(cfg.Scale.EventLogSize)
	weighbridgeSvc := weighbridge.NewService(&cfg.Scale, appStore, monitor, nil)

	workerPool := notification.NewWorkerPool(cfg.WorkerPool.Size, appStore, &webpushOptions)
	var notifier api.Notifier = workerPool
	if cfg.Push.PublicKey == "" || cfg.Push.PrivateKey == "" {
		notifier = nil
	}

	handler := api.NewHandler(appStore, weighbridgeSvc, notifier, &webpushOptions, api.Options{
		PageSize: cfg.Query.PageSize,
		Location: cfg.Location,
	})
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: api.NewRouter(&cfg.Server, handler),
	}

	g, gctx := errgroup.WithContext(ctx)

	workerPool.Start(gctx)

	g.Go(func() error {
		weighbridgeSvc.Run(gctx)
		return nil
	})

	g.Go(func() error {
		logger.Printf("HTTP server starting on port %d", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server ListenAndServe: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Println("Shutdown signal received, stopping services...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Fatalf("server stopped with error: %v", err)
	}
	logger.Println("Server gracefully stopped")
}
