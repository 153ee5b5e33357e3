package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/hongminglow/finance-api/internal/config"
	"github.com/hongminglow/finance-api/internal/logging"
	"github.com/hongminglow/finance-api/internal/server"
	"github.com/hongminglow/finance-api/internal/storage"
	"github.com/hongminglow/finance-api/internal/storage/memory"
	postgres "github.com/hongminglow/finance-api/internal/storage/postgres"
)

const shutdownGrace = 15 * time.Second

func main() {
	if err := run(); err != nil {
		logrus.WithError(err).Fatal("finance API stopped")
	}
}

func run() error {
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logging.New(cfg.LogLevel, cfg.LogFormat)
	if envErr != nil {
		log.Info("no .env file found; relying on existing environment")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}
	defer postgres.CloseShared()

	srv := server.New(cfg, store, log)
	log.WithFields(logrus.Fields{
		"addr":    cfg.HTTPAddress(),
		"storage": cfg.StorageBackend,
	}).Info("finance API listening")

	if err := serve(ctx, srv, shutdownGrace); err != nil {
		return err
	}
	log.Info("finance API stopped")
	return nil
}

type httpServer interface {
	Start() error
	Shutdown(ctx context.Context) error
}

// serve runs srv until ctx is done or the listener fails, then shuts it down
// within grace.
func serve(ctx context.Context, srv httpServer, grace time.Duration) error {
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	return nil
}

func openStore(ctx context.Context, cfg config.Config) (storage.Store, error) {
	if cfg.StorageBackend == config.BackendMemory {
		return memory.New(), nil
	}
	return postgres.Shared(ctx, cfg.DatabaseURL, postgres.Options{Migrate: cfg.RunMigrations})
}
