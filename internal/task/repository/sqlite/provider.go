package sqlite

import (
	"github.com/kandev/kanboard/internal/db"
	"github.com/kandev/kanboard/internal/task/repository"
)

// Factory opens the SQL repository on the pool's writer and reader.
func Factory(pool *db.Pool) (repository.Repository, error) {
	return NewWithDB(pool.Writer(), pool.Reader())
}
