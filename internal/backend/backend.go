// Package backend selects and constructs the persistence backend from
// configuration.
package backend

import (
	"context"
	"fmt"

	"fintrack/internal/auth"
	"fintrack/internal/config"
	"fintrack/internal/log"
	"fintrack/internal/storage"
	"fintrack/internal/store"
)

// Backend is the unified persistence surface: transaction documents
// plus user accounts.
type Backend interface {
	store.Repository
	auth.UserRepository
	Close() error
}

// Type represents the configured backend kind.
type Type string

const (
	Memory   Type = "memory"
	SQLite   Type = "sqlite"
	Postgres Type = "postgres"
)

// String implements fmt.Stringer.
func (t Type) String() string {
	return string(t)
}

// IsValid returns true if the backend type is supported.
func (t Type) IsValid() bool {
	switch t {
	case Memory, SQLite, Postgres:
		return true
	default:
		return false
	}
}

// New constructs the backend named by the configuration.
func New(ctx context.Context, cfg *config.Config, logger *log.Logger) (Backend, error) {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentBackend)

	t := Type(cfg.DataBackend)
	if !t.IsValid() {
		return nil, fmt.Errorf("invalid backend type: %s", cfg.DataBackend)
	}

	switch t {
	case SQLite:
		repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("initialize sqlite backend: %w", err)
		}
		logger.Info("Initialized SQLite backend", "db_path", cfg.SQLiteDBPath)
		return repo, nil

	case Postgres:
		repo, err := storage.NewPostgresRepository(ctx, cfg.PostgresURL)
		if err != nil {
			return nil, fmt.Errorf("initialize postgres backend: %w", err)
		}
		logger.Info("Initialized Postgres backend")
		return repo, nil

	default:
		logger.Info("Initialized memory backend")
		return storage.NewMemoryRepository(), nil
	}
}
