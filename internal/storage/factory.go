package storage

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/axlesim/axle/internal/config"
	"github.com/axlesim/axle/internal/logging"
	"github.com/axlesim/axle/internal/session"
	gormstorage "github.com/axlesim/axle/internal/storage/gorm"
	"github.com/axlesim/axle/internal/storage/memory"
	sqlitestorage "github.com/axlesim/axle/internal/storage/sqlite"
)

// Dependencies holds the shared services a backend may need.
type Dependencies struct {
	// DB is the open database handle for the postgres backend. The caller
	// owns the connection; the sqlite and memory backends ignore it.
	DB             *gorm.DB
	LogManager     *logging.SlogManager
	SessionContext *session.Context
}

// NewBackend creates a storage backend based on configuration
func NewBackend(cfg config.StorageConfig, deps Dependencies) (Backend, error) {
	switch cfg.Type {
	case "postgres":
		if deps.DB == nil {
			return nil, fmt.Errorf("postgres backend requires an open database handle")
		}
		return gormstorage.New(gormstorage.Dependencies{
			DB:             deps.DB,
			LogManager:     deps.LogManager,
			SessionContext: deps.SessionContext,
		}), nil
	case "sqlite":
		return sqlitestorage.New(sqlitestorage.Config{
			DumpPath:     cfg.SQLite.Path,
			DumpInterval: cfg.SQLite.DumpInterval,
		}, deps.LogManager, deps.SessionContext)
	case "memory":
		return memory.New(cfg.Memory), nil
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}
