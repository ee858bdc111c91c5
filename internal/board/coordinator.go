// Package board owns the client-side state of a kanban board: the per-column
// page caches, optimistic updates and the read model handed to presentation.
package board

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kandev/kanboard/internal/board/pagecache"
	"github.com/kandev/kanboard/internal/common/logger"
	"github.com/kandev/kanboard/internal/events/bus"
	"github.com/kandev/kanboard/internal/task/models"
)

// TaskRepository is the remote task store the board talks to.
type TaskRepository interface {
	// List returns one page of tasks ordered ascending by id.
	List(ctx context.Context, filter models.ListFilter) ([]models.Task, error)
	Create(ctx context.Context, req models.CreateTaskRequest) (*models.Task, error)
	Update(ctx context.Context, id string, patch models.TaskPatch) (*models.Task, error)
	Delete(ctx context.Context, id string) error
}

// IDStrategy decides who assigns the id of a new task.
type IDStrategy string

const (
	// IDServer leaves id assignment to the repository.
	IDServer IDStrategy = "server"
	// IDMaxLoaded uses the highest numeric id loaded on the board plus one.
	IDMaxLoaded IDStrategy = "max_loaded"
	// IDUUID generates a random UUID on the client.
	IDUUID IDStrategy = "uuid"
)

const (
	DefaultPageSize    = 10
	DefaultDeleteDelay = 300 * time.Millisecond
)

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithPageSize sets the number of tasks per fetched page.
func WithPageSize(n int) Option {
	return func(c *Coordinator) {
		if n > 0 {
			c.pageSize = n
		}
	}
}

// WithDeleteDelay sets how long a task stays in the deleting state before
// the repository delete is issued.
func WithDeleteDelay(d time.Duration) Option {
	return func(c *Coordinator) {
		if d >= 0 {
			c.deleteDelay = d
		}
	}
}

// WithIDStrategy sets the id policy for created tasks.
func WithIDStrategy(s IDStrategy) Option {
	return func(c *Coordinator) { c.idStrategy = s }
}

// WithLogger sets the logger.
func WithLogger(log *logger.Logger) Option {
	return func(c *Coordinator) { c.logger = log }
}

// WithEventBus publishes board.* events on b.
func WithEventBus(b bus.EventBus) Option {
	return func(c *Coordinator) { c.eventBus = b }
}

// WithColumns replaces the default board columns.
func WithColumns(cols []models.Column) Option {
	return func(c *Coordinator) {
		if len(cols) > 0 {
			c.columns = append([]models.Column(nil), cols...)
		}
	}
}

// WithAutoRefresh controls whether invalidation immediately reloads the
// first page of every column. Enabled by default.
func WithAutoRefresh(enabled bool) Option {
	return func(c *Coordinator) { c.autoRefresh = enabled }
}

// Coordinator is safe for concurrent use. Repository calls never run while
// mu is held, and optimistic cache writes are applied before the matching
// repository call is issued.
type Coordinator struct {
	repo        TaskRepository
	cache       *pagecache.Cache
	logger      *logger.Logger
	eventBus    bus.EventBus
	columns     []models.Column
	pageSize    int
	deleteDelay time.Duration
	idStrategy  IDStrategy
	autoRefresh bool

	mu           sync.Mutex
	query        string
	generation   uint64
	loading      map[models.ColumnID]int
	fetchingMore map[models.ColumnID]int
	deleting     map[string]struct{}
	lastErr      error
}

// NewCoordinator creates a board coordinator backed by repo.
func NewCoordinator(repo TaskRepository, opts ...Option) *Coordinator {
	c := &Coordinator{
		repo:         repo,
		columns:      models.DefaultColumns(),
		pageSize:     DefaultPageSize,
		deleteDelay:  DefaultDeleteDelay,
		idStrategy:   IDServer,
		autoRefresh:  true,
		loading:      make(map[models.ColumnID]int),
		fetchingMore: make(map[models.ColumnID]int),
		deleting:     make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = logger.Default()
	}
	c.logger = c.logger.WithFields(zap.String("component", "board"))
	c.cache = pagecache.New(repo, c.pageSize, c.logger)
	return c
}

// Cache exposes the underlying page cache.
func (c *Coordinator) Cache() *pagecache.Cache {
	return c.cache
}

// Columns returns the board columns in render order.
func (c *Coordinator) Columns() []models.Column {
	return append([]models.Column(nil), c.columns...)
}

func (c *Coordinator) columnIDs() []models.ColumnID {
	ids := make([]models.ColumnID, len(c.columns))
	for i, col := range c.columns {
		ids[i] = col.ID
	}
	return ids
}

func (c *Coordinator) hasColumn(id models.ColumnID) bool {
	for _, col := range c.columns {
		if col.ID == id {
			return true
		}
	}
	return false
}

func (c *Coordinator) setLastError(err error) {
	c.mu.Lock()
	c.lastErr = err
	c.mu.Unlock()
}
