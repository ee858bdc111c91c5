package sqlite

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kandev/kanboard/internal/db"
	"github.com/kandev/kanboard/internal/task/models"
	"github.com/kandev/kanboard/internal/task/repository"
)

func newTestRepository(t *testing.T) *Repository {
	t.Helper()
	pool, err := db.OpenSQLitePool(filepath.Join(t.TempDir(), "tasks.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = pool.Close() })

	repo, err := NewWithDB(pool.Writer(), pool.Reader())
	require.NoError(t, err)
	return repo
}

func TestRepository_CreateAndGet(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	task := &models.Task{Title: "Sample task 1", Description: "First task", Column: models.ColumnBacklog}
	require.NoError(t, repo.CreateTask(ctx, task))
	assert.Equal(t, "1", task.ID)

	got, err := repo.GetTask(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, "Sample task 1", got.Title)
	assert.Equal(t, models.ColumnBacklog, got.Column)
	assert.False(t, got.CreatedAt.IsZero())

	_, err = repo.GetTask(ctx, "missing")
	assert.True(t, errors.Is(err, repository.ErrTaskNotFound))
}

func TestRepository_CreateDuplicateAndNonNumeric(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	require.NoError(t, repo.CreateTask(ctx, &models.Task{ID: "5", Title: "five", Column: models.ColumnBacklog}))
	err := repo.CreateTask(ctx, &models.Task{ID: "5", Title: "again", Column: models.ColumnBacklog})
	assert.True(t, errors.Is(err, repository.ErrTaskExists))

	// non-numeric ids sort after existing ones
	require.NoError(t, repo.CreateTask(ctx, &models.Task{ID: "abc", Title: "letters", Column: models.ColumnBacklog}))
	next := &models.Task{Title: "auto", Column: models.ColumnBacklog}
	require.NoError(t, repo.CreateTask(ctx, next))
	assert.Equal(t, "7", next.ID)

	tasks, _, err := repo.ListTasks(ctx, models.ListFilter{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, []string{"5", "abc", "7"}, taskIDs(tasks))
}

func TestRepository_UpdateDelete(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	task := &models.Task{Title: "move me", Column: models.ColumnBacklog}
	require.NoError(t, repo.CreateTask(ctx, task))

	task.Column = models.ColumnDone
	require.NoError(t, repo.UpdateTask(ctx, task))
	got, err := repo.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ColumnDone, got.Column)

	require.NoError(t, repo.DeleteTask(ctx, task.ID))
	assert.True(t, errors.Is(repo.DeleteTask(ctx, task.ID), repository.ErrTaskNotFound))
	assert.True(t, errors.Is(repo.UpdateTask(ctx, task), repository.ErrTaskNotFound))
}

func TestRepository_ListPaginationAndSearch(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	for i := 1; i <= 25; i++ {
		require.NoError(t, repo.CreateTask(ctx, &models.Task{
			Title:  fmt.Sprintf("task %d", i),
			Column: models.ColumnInProgress,
		}))
	}
	require.NoError(t, repo.CreateTask(ctx, &models.Task{Title: "100% done", Column: models.ColumnDone}))

	var sizes []int
	for page := 1; page <= 3; page++ {
		tasks, total, err := repo.ListTasks(ctx, models.ListFilter{Column: models.ColumnInProgress, Page: page, Limit: 10})
		require.NoError(t, err)
		assert.Equal(t, 25, total)
		sizes = append(sizes, len(tasks))
	}
	assert.Equal(t, []int{10, 10, 5}, sizes)

	tasks, total, err := repo.ListTasks(ctx, models.ListFilter{Query: "TASK 2", Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 7, total) // 2, 20..25
	assert.Equal(t, "task 2", tasks[0].Title)

	// wildcard characters in the query are literal
	tasks, total, err = repo.ListTasks(ctx, models.ListFilter{Query: "0%", Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, "100% done", tasks[0].Title)

	count, err := repo.CountTasks(ctx)
	require.NoError(t, err)
	assert.Equal(t, 26, count)
}

func TestFactory(t *testing.T) {
	pool, err := db.OpenSQLitePool(filepath.Join(t.TempDir(), "factory.db"))
	require.NoError(t, err)
	defer func() { _ = pool.Close() }()

	repo, cleanup, err := repository.Provide(pool, Factory)
	require.NoError(t, err)
	assert.IsType(t, &Repository{}, repo)
	assert.NoError(t, cleanup())
}

func taskIDs(tasks []*models.Task) []string {
	out := make([]string, len(tasks))
	for i, task := range tasks {
		out[i] = task.ID
	}
	return out
}
