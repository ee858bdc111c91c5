package repository

import (
	"github.com/kandev/kanboard/internal/db"
)

// SQLFactory builds the SQL-backed repository for an open pool. It is set by
// the sqlite package to keep this package free of a driver import cycle.
type SQLFactory func(pool *db.Pool) (Repository, error)

// Provide returns the SQL repository for pool, or the in-memory repository
// when pool is nil.
func Provide(pool *db.Pool, factory SQLFactory) (Repository, func() error, error) {
	if pool == nil {
		repo := NewMemoryRepository()
		return repo, repo.Close, nil
	}
	repo, err := factory(pool)
	if err != nil {
		return nil, nil, err
	}
	return repo, repo.Close, nil
}
