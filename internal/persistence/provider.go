// Package persistence opens the database pool backing the Task API store.
package persistence

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kandev/kanboard/internal/common/config"
	"github.com/kandev/kanboard/internal/common/logger"
	"github.com/kandev/kanboard/internal/db"
)

// Provide opens the configured database. It returns a nil pool for the
// memory driver, in which case the caller uses the in-memory repository.
func Provide(cfg *config.Config, log *logger.Logger) (*db.Pool, func() error, error) {
	driver := strings.ToLower(cfg.Database.Driver)

	switch driver {
	case "sqlite":
		pool, err := db.OpenSQLitePool(cfg.Database.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open sqlite database: %w", err)
		}
		if log != nil {
			log.Info("Database initialized", zap.String("db_path", cfg.Database.Path), zap.String("db_driver", driver))
		}
		cleanup := func() error {
			// refresh query planner statistics before closing
			_, _ = pool.Writer().Exec("PRAGMA optimize")
			return pool.Close()
		}
		return pool, cleanup, nil
	case "postgres":
		pool, err := db.OpenPostgresPool(cfg.Database.DSN(), cfg.Database.MaxConns, cfg.Database.MinConns)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open postgres database: %w", err)
		}
		if log != nil {
			log.Info("Database initialized",
				zap.String("db_host", cfg.Database.Host),
				zap.String("db_name", cfg.Database.DBName),
				zap.String("db_driver", driver))
		}
		return pool, pool.Close, nil
	case "memory":
		if log != nil {
			log.Info("Using in-memory task store")
		}
		return nil, func() error { return nil }, nil
	default:
		return nil, nil, fmt.Errorf("unsupported database driver: %s", driver)
	}
}
