// Package cli provides common CLI initialization utilities shared by
// cmd/finanze and cmd/finanze-worker.
package cli

import (
	"context"
	"os"

	"github.com/joho/godotenv"

	"finanze/internal/config"
	"finanze/internal/core"
	"finanze/internal/kvstore"
	applog "finanze/internal/log"
	"finanze/internal/store"
)

// SetupLogger initializes structured logging with default settings.
// Returns the configured logger and sets it as the default logger.
func SetupLogger() *applog.Logger {
	logger := applog.New(applog.DefaultConfig())
	applog.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig(logger *applog.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", applog.FieldError, err)
		os.Exit(1)
	}
	return cfg
}

// OpenKV opens the configured key-value backend.
// Returns the store or exits the process on failure.
func OpenKV(logger *applog.Logger, cfg *config.Config) store.KV {
	switch cfg.KVBackend {
	case "memory":
		logger.Warn("Using in-memory persistence, data is lost on exit")
		return kvstore.NewMemory()
	default:
		kv, err := kvstore.OpenSQLite(cfg.SQLiteDBPath)
		if err != nil {
			logger.Error("Failed to open SQLite store", applog.FieldError, err, "path", cfg.SQLiteDBPath)
			os.Exit(1)
		}
		return kv
	}
}

// OpenStore rehydrates the transaction store from the key-value backend.
// Returns the store or exits the process on failure.
func OpenStore(ctx context.Context, logger *applog.Logger, cfg *config.Config, kv store.KV) *store.Store {
	st, err := store.Open(ctx, kv, store.Options{
		Categories: core.NewCategorySet(cfg.Categories),
	})
	if err != nil {
		logger.Error("Failed to open transaction store", applog.FieldError, err)
		os.Exit(1)
	}
	return st
}
