package main

import (
	"context"
	"fmt"

	"github.com/kandev/kanboard/internal/common/config"
	"github.com/kandev/kanboard/internal/common/logger"
	"github.com/kandev/kanboard/internal/persistence"
	"github.com/kandev/kanboard/internal/task/repository"
	"github.com/kandev/kanboard/internal/task/repository/sqlite"
	"github.com/kandev/kanboard/internal/task/seed"
)

// provideStorage opens the configured task store and seeds it when empty.
func provideStorage(ctx context.Context, cfg *config.Config, log *logger.Logger) (repository.Repository, func() error, error) {
	pool, closePool, err := persistence.Provide(cfg, log)
	if err != nil {
		return nil, nil, err
	}

	repo, closeRepo, err := repository.Provide(pool, sqlite.Factory)
	if err != nil {
		_ = closePool()
		return nil, nil, fmt.Errorf("failed to initialize task repository: %w", err)
	}

	cleanup := func() error {
		if err := closeRepo(); err != nil {
			_ = closePool()
			return err
		}
		return closePool()
	}

	fixture, err := seed.Load(cfg.Seed.Path)
	if err != nil {
		_ = cleanup()
		return nil, nil, err
	}
	if _, err := seed.Apply(ctx, repo, fixture, log); err != nil {
		_ = cleanup()
		return nil, nil, err
	}

	return repo, cleanup, nil
}
