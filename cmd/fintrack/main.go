package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"fintrack/internal/auth"
	"fintrack/internal/backend"
	"fintrack/internal/config"
	"fintrack/internal/feed"
	apphttp "fintrack/internal/http"
	"fintrack/internal/log"
	"fintrack/internal/store"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	logger := log.New(log.DefaultConfig())
	log.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Invalid configuration", log.FieldError, err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	be, err := backend.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize backend",
			log.FieldBackend, cfg.DataBackend,
			log.FieldError, err)
		os.Exit(1)
	}
	defer be.Close()

	hub := store.NewHub(be, logger)

	// The AMQP change feed is optional; without it, live queries still
	// fire within this process.
	var notifier store.ChangeNotifier
	var feedClient *feed.Client
	if cfg.AMQPURL != "" {
		feedClient, err = feed.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to connect to change feed", log.FieldError, err)
			os.Exit(1)
		}
		defer feedClient.Close()
		notifier = feedClient
		logger.Info("Change feed connected", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	}

	adapter := store.NewAdapter(be, hub, notifier, logger)
	authSvc := auth.NewService(be, cfg.SessionTTL, cfg.BcryptCost, logger)

	srv := apphttp.NewServer(":"+cfg.Port, be, adapter, authSvc, logger)
	srv.ReadTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB
	// No WriteTimeout: the snapshot stream holds its response open.

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting fintrack server",
			"port", cfg.Port,
			log.FieldBackend, cfg.DataBackend,
			log.FieldOperation, log.OpStartup)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if feedClient != nil {
		g.Go(func() error {
			err := feedClient.Consume(ctx, func(msg *feed.ChangeMessage) error {
				hub.Invalidate(msg.UID)
				return nil
			})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}

	g.Go(func() error {
		<-ctx.Done()
		logger.Info("Shutdown signal received", log.FieldOperation, log.OpShutdown)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
