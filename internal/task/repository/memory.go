package repository

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/kandev/kanboard/internal/task/models"
)

type memoryEntry struct {
	task    models.Task
	sortKey int64
}

// MemoryRepository provides in-memory task storage operations
type MemoryRepository struct {
	tasks   map[string]*memoryEntry
	nextKey int64
	mu      sync.RWMutex
}

// Ensure MemoryRepository implements Repository interface
var _ Repository = (*MemoryRepository)(nil)

// NewMemoryRepository creates a new in-memory task repository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		tasks:   make(map[string]*memoryEntry),
		nextKey: 1,
	}
}

// Close is a no-op for in-memory repository
func (r *MemoryRepository) Close() error {
	return nil
}

// CreateTask creates a new task
func (r *MemoryRepository) CreateTask(ctx context.Context, task *models.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if task.ID == "" {
		task.ID = strconv.FormatInt(r.nextKey, 10)
	}
	if _, ok := r.tasks[task.ID]; ok {
		return fmt.Errorf("%w: %s", ErrTaskExists, task.ID)
	}

	key, ok := task.NumericID()
	if !ok {
		key = r.nextKey
	}
	if key >= r.nextKey {
		r.nextKey = key + 1
	}

	now := time.Now().UTC()
	task.CreatedAt = now
	task.UpdatedAt = now

	r.tasks[task.ID] = &memoryEntry{task: *task, sortKey: key}
	return nil
}

// GetTask retrieves a task by ID
func (r *MemoryRepository) GetTask(ctx context.Context, id string) (*models.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.tasks[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}
	task := entry.task
	return &task, nil
}

// UpdateTask updates an existing task
func (r *MemoryRepository) UpdateTask(ctx context.Context, task *models.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.tasks[task.ID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrTaskNotFound, task.ID)
	}
	task.CreatedAt = entry.task.CreatedAt
	task.UpdatedAt = time.Now().UTC()
	entry.task = *task
	return nil
}

// DeleteTask deletes a task by ID
func (r *MemoryRepository) DeleteTask(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tasks[id]; !ok {
		return fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}
	delete(r.tasks, id)
	return nil
}

// ListTasks returns a page of tasks matching the column and query filters
func (r *MemoryRepository) ListTasks(ctx context.Context, filter models.ListFilter) ([]*models.Task, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	query := strings.ToLower(strings.TrimSpace(filter.Query))
	matched := make([]*memoryEntry, 0, len(r.tasks))
	for _, entry := range r.tasks {
		if filter.Column != "" && entry.task.Column != filter.Column {
			continue
		}
		if query != "" &&
			!strings.Contains(strings.ToLower(entry.task.Title), query) &&
			!strings.Contains(strings.ToLower(entry.task.Description), query) {
			continue
		}
		matched = append(matched, entry)
	}

	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if filter.Descending {
			a, b = b, a
		}
		if a.sortKey != b.sortKey {
			return a.sortKey < b.sortKey
		}
		return a.task.ID < b.task.ID
	})

	total := len(matched)
	start := filter.Offset()
	if start > total {
		start = total
	}
	end := total
	if filter.Limit > 0 && start+filter.Limit < total {
		end = start + filter.Limit
	}

	page := make([]*models.Task, 0, end-start)
	for _, entry := range matched[start:end] {
		task := entry.task
		page = append(page, &task)
	}
	return page, total, nil
}

// CountTasks returns the number of stored tasks
func (r *MemoryRepository) CountTasks(ctx context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tasks), nil
}
