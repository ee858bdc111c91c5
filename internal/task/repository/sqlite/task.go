package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kandev/kanboard/internal/db/dialect"
	"github.com/kandev/kanboard/internal/task/models"
	"github.com/kandev/kanboard/internal/task/repository"
	"github.com/kandev/kanboard/internal/tracing"
)

const taskColumns = `id, title, description, column_id, created_at, updated_at`

var _ repository.Repository = (*Repository)(nil)

// CreateTask creates a new task, assigning the next sequence id when none is set
func (r *Repository) CreateTask(ctx context.Context, task *models.Task) (err error) {
	ctx, span := tracing.TraceStoreQuery(ctx, "CreateTask")
	defer func() { tracing.EndWithError(span, err) }()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var next int64
	if err = tx.GetContext(ctx, &next, `SELECT COALESCE(MAX(sort_key), 0) + 1 FROM tasks`); err != nil {
		return err
	}
	if task.ID == "" {
		task.ID = strconv.FormatInt(next, 10)
	}

	var exists int
	if err = tx.GetContext(ctx, &exists, tx.Rebind(`SELECT COUNT(*) FROM tasks WHERE id = ?`), task.ID); err != nil {
		return err
	}
	if exists > 0 {
		err = fmt.Errorf("%w: %s", repository.ErrTaskExists, task.ID)
		return err
	}

	sortKey, ok := task.NumericID()
	if !ok {
		sortKey = next
	}

	now := time.Now().UTC()
	task.CreatedAt = now
	task.UpdatedAt = now

	if _, err = tx.ExecContext(ctx, tx.Rebind(`
		INSERT INTO tasks (id, title, description, column_id, sort_key, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`), task.ID, task.Title, task.Description, task.Column, sortKey, task.CreatedAt, task.UpdatedAt); err != nil {
		return err
	}

	return tx.Commit()
}

// GetTask retrieves a task by ID
func (r *Repository) GetTask(ctx context.Context, id string) (*models.Task, error) {
	task := &models.Task{}
	err := r.ro.GetContext(ctx, task, r.ro.Rebind(`SELECT `+taskColumns+` FROM tasks WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", repository.ErrTaskNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return task, nil
}

// UpdateTask updates the mutable fields of an existing task
func (r *Repository) UpdateTask(ctx context.Context, task *models.Task) (err error) {
	ctx, span := tracing.TraceStoreQuery(ctx, "UpdateTask")
	defer func() { tracing.EndWithError(span, err) }()

	task.UpdatedAt = time.Now().UTC()

	result, err := r.db.ExecContext(ctx, r.db.Rebind(`
		UPDATE tasks SET title = ?, description = ?, column_id = ?, updated_at = ?
		WHERE id = ?
	`), task.Title, task.Description, task.Column, task.UpdatedAt, task.ID)
	if err != nil {
		return err
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("%w: %s", repository.ErrTaskNotFound, task.ID)
	}
	return nil
}

// DeleteTask deletes a task by ID
func (r *Repository) DeleteTask(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM tasks WHERE id = ?`), id)
	if err != nil {
		return err
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("%w: %s", repository.ErrTaskNotFound, id)
	}
	return nil
}

// ListTasks returns a page of tasks with the total match count.
// A non-empty query matches title or description case-insensitively.
func (r *Repository) ListTasks(ctx context.Context, filter models.ListFilter) (tasks []*models.Task, total int, err error) {
	ctx, span := tracing.TraceStoreQuery(ctx, "ListTasks")
	defer func() { tracing.EndWithError(span, err) }()

	where, args := r.listWhere(filter)

	if err = r.ro.GetContext(ctx, &total, r.ro.Rebind(`SELECT COUNT(*) FROM tasks`+where), args...); err != nil {
		return nil, 0, err
	}

	order := "ASC"
	if filter.Descending {
		order = "DESC"
	}
	query := `SELECT ` + taskColumns + ` FROM tasks` + where +
		fmt.Sprintf(` ORDER BY sort_key %s, id %s`, order, order)
	pageArgs := args
	if filter.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		pageArgs = append(pageArgs, filter.Limit, filter.Offset())
	}

	tasks = []*models.Task{}
	if err = r.ro.SelectContext(ctx, &tasks, r.ro.Rebind(query), pageArgs...); err != nil {
		return nil, 0, err
	}
	return tasks, total, nil
}

func (r *Repository) listWhere(filter models.ListFilter) (string, []interface{}) {
	var conds []string
	var args []interface{}

	if filter.Column != "" {
		conds = append(conds, "column_id = ?")
		args = append(args, filter.Column)
	}
	if q := strings.TrimSpace(filter.Query); q != "" {
		like := dialect.Like(r.ro.DriverName())
		pattern := dialect.ContainsPattern(q)
		conds = append(conds, fmt.Sprintf(`(title %s ? ESCAPE '\' OR description %s ? ESCAPE '\')`, like, like))
		args = append(args, pattern, pattern)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// CountTasks returns the number of stored tasks
func (r *Repository) CountTasks(ctx context.Context) (int, error) {
	var count int
	if err := r.ro.GetContext(ctx, &count, `SELECT COUNT(*) FROM tasks`); err != nil {
		return 0, err
	}
	return count, nil
}
