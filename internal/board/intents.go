package board

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	apperrors "github.com/kandev/kanboard/internal/common/errors"
	"github.com/kandev/kanboard/internal/board/pagecache"
	"github.com/kandev/kanboard/internal/events"
	"github.com/kandev/kanboard/internal/task/models"
	"github.com/kandev/kanboard/internal/tracing"
)

// CreateTask creates a task in column (backlog when empty). Nothing is added
// to the cache optimistically; every column is invalidated once the
// repository call returns, whether it succeeded or not.
func (c *Coordinator) CreateTask(ctx context.Context, title, description string, column models.ColumnID) (task *models.Task, err error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, apperrors.ValidationError("title", "must not be empty")
	}
	if column == "" {
		column = models.ColumnBacklog
	}
	if !c.hasColumn(column) {
		return nil, apperrors.ValidationError("column", "unknown column '"+column.String()+"'")
	}

	ctx, span := tracing.TraceBoardIntent(ctx, "create", "", column.String())
	defer func() { tracing.EndWithError(span, err) }()

	req := models.CreateTaskRequest{
		ID:          c.newTaskID(),
		Title:       title,
		Description: description,
		Column:      column,
	}

	task, err = c.repo.Create(ctx, req)
	c.invalidateAll(ctx, "create")
	if err != nil {
		err = asFetchError("create", err)
		c.setLastError(err)
		return nil, err
	}

	c.logger.WithTaskID(task.ID).Info("task created", zap.String("column", task.Column.String()))
	c.publish(ctx, events.BoardTaskCreated, taskEventData(task))
	return task, nil
}

// newTaskID returns the client-side id for a new task, or "" when the
// repository assigns it.
func (c *Coordinator) newTaskID() string {
	switch c.idStrategy {
	case IDUUID:
		return uuid.New().String()
	case IDMaxLoaded:
		return strconv.FormatInt(c.maxLoadedID()+1, 10)
	default:
		return ""
	}
}

// maxLoadedID is the highest numeric id among the tasks loaded for the
// current query, or 0.
func (c *Coordinator) maxLoadedID() int64 {
	c.mu.Lock()
	q := c.cacheQuery()
	c.mu.Unlock()

	var highest int64
	for _, col := range c.columnIDs() {
		for _, task := range c.cache.Tasks(col, q) {
			if n, ok := task.NumericID(); ok && n > highest {
				highest = n
			}
		}
	}
	return highest
}

// UpdateTask sends patch to the repository and invalidates every column.
func (c *Coordinator) UpdateTask(ctx context.Context, id string, patch models.TaskPatch) (task *models.Task, err error) {
	if patch.Title != nil {
		trimmed := strings.TrimSpace(*patch.Title)
		if trimmed == "" {
			return nil, apperrors.ValidationError("title", "must not be empty")
		}
		patch.Title = &trimmed
	}
	if patch.Column != nil && !c.hasColumn(*patch.Column) {
		return nil, apperrors.ValidationError("column", "unknown column '"+patch.Column.String()+"'")
	}

	ctx, span := tracing.TraceBoardIntent(ctx, "update", id, "")
	defer func() { tracing.EndWithError(span, err) }()

	task, err = c.repo.Update(ctx, id, patch)
	c.invalidateAll(ctx, "update")
	if err != nil {
		err = asFetchError("update", err)
		c.setLastError(err)
		return nil, err
	}

	c.publish(ctx, events.BoardTaskUpdated, taskEventData(task))
	return task, nil
}

// DeleteTask marks id as deleting, waits the delete delay and then deletes
// it. The mark is cleared and every column invalidated afterwards, whether
// the delete succeeded or not. Cancelling ctx during the delay aborts the
// delete.
func (c *Coordinator) DeleteTask(ctx context.Context, id string) (err error) {
	ctx, span := tracing.TraceBoardIntent(ctx, "delete", id, "")
	defer func() { tracing.EndWithError(span, err) }()

	c.mu.Lock()
	c.deleting[id] = struct{}{}
	c.mu.Unlock()

	unmark := func() {
		c.mu.Lock()
		delete(c.deleting, id)
		c.mu.Unlock()
	}

	if c.deleteDelay > 0 {
		timer := time.NewTimer(c.deleteDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			unmark()
			return ctx.Err()
		case <-timer.C:
		}
	}

	err = c.repo.Delete(ctx, id)
	unmark()
	c.invalidateAll(ctx, "delete")
	if err != nil {
		err = asFetchError("delete", err)
		c.setLastError(err)
		return err
	}

	c.logger.WithTaskID(id).Info("task deleted")
	c.publish(ctx, events.BoardTaskDeleted, map[string]interface{}{"task_id": id})
	return nil
}

// MoveTask moves a loaded task to position destIndex of destColumn. The
// caches are updated before the repository patch is sent; if the patch
// fails both affected entries are restored and a MOVE_FAILED error returned.
// A destination column with no loaded page is left untouched and picks the
// task up from the repository on its first load. Moving a task that is not
// loaded, or onto its current position, does nothing.
func (c *Coordinator) MoveTask(ctx context.Context, id string, destColumn models.ColumnID, destIndex int) (err error) {
	if !c.hasColumn(destColumn) {
		return apperrors.ValidationError("column", "unknown column '"+destColumn.String()+"'")
	}

	c.mu.Lock()
	q := c.cacheQuery()
	src, srcIndex, task, found := c.locate(id, q)
	if !found || (src == destColumn && srcIndex == destIndex) {
		c.mu.Unlock()
		return nil
	}

	destLoaded := src == destColumn || c.cache.Loaded(destColumn, q)
	srcSnap := c.cache.Snapshot(src, q)
	var destSnap pagecache.Snapshot
	if destLoaded {
		destSnap = c.cache.Snapshot(destColumn, q)
	}

	srcTasks := c.cache.Tasks(src, q)
	remaining := make([]models.Task, 0, len(srcTasks))
	remaining = append(remaining, srcTasks[:srcIndex]...)
	remaining = append(remaining, srcTasks[srcIndex+1:]...)
	c.cache.SetTasks(src, q, remaining)

	idx := 0
	if destLoaded {
		destTasks := remaining
		if src != destColumn {
			destTasks = c.cache.Tasks(destColumn, q)
		}
		idx = clamp(destIndex, 0, len(destTasks))
		task.Column = destColumn
		moved := make([]models.Task, 0, len(destTasks)+1)
		moved = append(moved, destTasks[:idx]...)
		moved = append(moved, task)
		moved = append(moved, destTasks[idx:]...)
		c.cache.SetTasks(destColumn, q, moved)
	}
	c.mu.Unlock()

	ctx, span := tracing.TraceBoardIntent(ctx, "move", id, destColumn.String())
	defer func() { tracing.EndWithError(span, err) }()

	moveData := map[string]interface{}{
		"task_id":     id,
		"from_column": src.String(),
		"to_column":   destColumn.String(),
		"index":       idx,
	}
	c.publish(ctx, events.BoardTaskMoved, moveData)

	if _, err = c.repo.Update(ctx, id, models.TaskPatch{Column: models.ColumnPtr(destColumn)}); err != nil {
		moveErr := apperrors.MoveFailed(id, asFetchError("update", err))

		c.mu.Lock()
		if destLoaded {
			c.cache.Restore(destSnap)
		}
		c.cache.Restore(srcSnap)
		c.lastErr = moveErr
		c.mu.Unlock()

		c.logger.WithTaskID(id).Warn("move reverted",
			zap.String("from_column", src.String()),
			zap.String("to_column", destColumn.String()),
			zap.Error(err))
		c.publish(ctx, events.BoardMoveReverted, moveData)
		return moveErr
	}
	return nil
}

// locate finds a loaded task. Caller must hold mu.
func (c *Coordinator) locate(id, q string) (models.ColumnID, int, models.Task, bool) {
	for _, col := range c.columnIDs() {
		for i, task := range c.cache.Tasks(col, q) {
			if task.ID == id {
				return col, i, task, true
			}
		}
	}
	return "", 0, models.Task{}, false
}

func asFetchError(op string, err error) error {
	if apperrors.IsFetch(err) {
		return err
	}
	return apperrors.FetchFailed(op, err)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
