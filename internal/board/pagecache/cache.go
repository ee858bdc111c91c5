// Package pagecache caches paginated task lists per board column and search
// query. Pages are appended in order; the cache never reorders them.
package pagecache

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	apperrors "github.com/kandev/kanboard/internal/common/errors"
	"github.com/kandev/kanboard/internal/common/logger"
	"github.com/kandev/kanboard/internal/task/models"
)

// Lister fetches one page of tasks ordered ascending by id.
type Lister interface {
	List(ctx context.Context, filter models.ListFilter) ([]models.Task, error)
}

// Page is one fetched page after de-duplication.
type Page []models.Task

// Key identifies a cache entry.
type Key struct {
	Column models.ColumnID
	Query  string
}

func (k Key) flightKey() string {
	return string(k.Column) + "\x00" + k.Query
}

type page struct {
	tasks []models.Task
}

type entry struct {
	pages []page
	// exhausted is set once the repository returned a short page. It is
	// judged on the raw page size, before duplicates are dropped.
	exhausted bool
}

func (e *entry) contains(id string) bool {
	for _, p := range e.pages {
		for _, t := range p.tasks {
			if t.ID == id {
				return true
			}
		}
	}
	return false
}

// Cache holds the loaded pages of every (column, query) pair.
type Cache struct {
	lister   Lister
	pageSize int
	logger   *logger.Logger
	flight   singleflight.Group

	mu      sync.RWMutex
	entries map[Key]*entry
}

// New creates a cache that fetches pages of pageSize tasks from lister.
func New(lister Lister, pageSize int, log *logger.Logger) *Cache {
	if pageSize <= 0 {
		pageSize = 10
	}
	if log == nil {
		log = logger.Default()
	}
	return &Cache{
		lister:   lister,
		pageSize: pageSize,
		logger:   log.WithFields(zap.String("component", "page-cache")),
		entries:  make(map[Key]*entry),
	}
}

// PageSize returns the configured page size.
func (c *Cache) PageSize() int {
	return c.pageSize
}

// Tasks returns the loaded tasks of a column in page order. With a non-empty
// query the entry holds matches from every column and only those belonging
// to column are returned.
func (c *Cache) Tasks(column models.ColumnID, query string) []models.Task {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[Key{column, query}]
	if !ok {
		return []models.Task{}
	}
	out := make([]models.Task, 0, len(e.pages)*c.pageSize)
	for _, p := range e.pages {
		for _, t := range p.tasks {
			if query != "" && t.Column != column {
				continue
			}
			out = append(out, t)
		}
	}
	return out
}

// HasMore reports whether the repository may hold further pages for the
// key. A key that has never been loaded has more.
func (c *Cache) HasMore(column models.ColumnID, query string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[Key{column, query}]
	if !ok {
		return true
	}
	return !e.exhausted
}

// Loaded reports whether at least one page is cached for the key.
func (c *Cache) Loaded(column models.ColumnID, query string) bool {
	return c.PageCount(column, query) > 0
}

// PageCount returns the number of loaded pages for the key.
func (c *Cache) PageCount(column models.ColumnID, query string) int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if e, ok := c.entries[Key{column, query}]; ok {
		return len(e.pages)
	}
	return 0
}

// LoadNextPage fetches page PageCount+1 and appends it. Without a query the
// fetch is filtered by column; with a query it is filtered only by text.
// Tasks already cached under the key are dropped from the appended page.
// On failure the cache is unchanged and a FETCH_FAILED error is returned.
//
// Concurrent calls for the same key share one fetch. If the entry is
// invalidated or replaced while the fetch is in flight the result is
// returned but not cached.
func (c *Cache) LoadNextPage(ctx context.Context, column models.ColumnID, query string) (Page, error) {
	key := Key{column, query}
	v, err, _ := c.flight.Do(key.flightKey(), func() (interface{}, error) {
		return c.loadNextPage(ctx, key)
	})
	if err != nil {
		return nil, err
	}
	return v.(Page), nil
}

func (c *Cache) loadNextPage(ctx context.Context, key Key) (Page, error) {
	c.mu.Lock()
	e, ok := c.entries[key]
	if !ok {
		e = &entry{}
		c.entries[key] = e
	}
	loaded := len(e.pages)
	c.mu.Unlock()

	filter := models.ListFilter{
		Query: key.Query,
		Page:  loaded + 1,
		Limit: c.pageSize,
	}
	if key.Query == "" {
		filter.Column = key.Column
	}

	tasks, err := c.lister.List(ctx, filter)
	if err != nil {
		c.mu.Lock()
		// drop the placeholder so a failed first load leaves no entry behind
		if cur, ok := c.entries[key]; ok && cur == e && len(e.pages) == 0 {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		if apperrors.IsFetch(err) {
			return nil, err
		}
		return nil, apperrors.FetchFailed("list", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	fresh := make(Page, 0, len(tasks))
	for _, t := range tasks {
		if e.contains(t.ID) || containsID(fresh, t.ID) {
			continue
		}
		fresh = append(fresh, t)
	}

	if cur, ok := c.entries[key]; !ok || cur != e || len(e.pages) != loaded {
		c.logger.Debug("discarding page fetched for a stale entry",
			zap.String("column", key.Column.String()),
			zap.Int("page", filter.Page))
		return fresh, nil
	}

	e.pages = append(e.pages, page{tasks: fresh})
	e.exhausted = len(tasks) < c.pageSize
	return fresh, nil
}

// SetTasks replaces the loaded set of a key, re-chunking tasks into pages of
// PageSize. The entry keeps at least one, possibly empty, page and keeps its
// HasMore state; a key that was not loaded before counts as fully loaded.
func (c *Cache) SetTasks(column models.ColumnID, query string, tasks []models.Task) {
	key := Key{column, query}
	c.mu.Lock()
	defer c.mu.Unlock()

	exhausted := true
	if old, ok := c.entries[key]; ok {
		exhausted = old.exhausted
	}
	c.entries[key] = &entry{pages: c.chunk(tasks), exhausted: exhausted}
	c.forget(key)
}

// forget detaches in-flight loads of key so that later loads start a fetch
// for the new entry instead of joining one whose result will be discarded.
// Caller must hold mu.
func (c *Cache) forget(key Key) {
	c.flight.Forget(key.flightKey())
}

func (c *Cache) chunk(tasks []models.Task) []page {
	if len(tasks) == 0 {
		return []page{{tasks: []models.Task{}}}
	}
	pages := make([]page, 0, (len(tasks)+c.pageSize-1)/c.pageSize)
	for start := 0; start < len(tasks); start += c.pageSize {
		end := start + c.pageSize
		if end > len(tasks) {
			end = len(tasks)
		}
		chunk := make([]models.Task, end-start)
		copy(chunk, tasks[start:end])
		pages = append(pages, page{tasks: chunk})
	}
	return pages
}

// Invalidate drops every entry of column across all queries.
func (c *Cache) Invalidate(column models.ColumnID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key := range c.entries {
		if key.Column == column {
			delete(c.entries, key)
			c.forget(key)
		}
	}
}

// InvalidateAll drops every entry.
func (c *Cache) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key := range c.entries {
		c.forget(key)
	}
	c.entries = make(map[Key]*entry)
}

// Snapshot is a copy of one entry, used to undo optimistic writes.
type Snapshot struct {
	key       Key
	present   bool
	pages     []page
	exhausted bool
}

// Snapshot copies the entry of a key.
func (c *Cache) Snapshot(column models.ColumnID, query string) Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	key := Key{column, query}
	snap := Snapshot{key: key}
	e, ok := c.entries[key]
	if !ok {
		return snap
	}
	snap.present = true
	snap.pages = copyPages(e.pages)
	snap.exhausted = e.exhausted
	return snap
}

// Restore puts a snapshotted entry back, removing the entry if the key was
// absent when the snapshot was taken.
func (c *Cache) Restore(snap Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.forget(snap.key)
	if !snap.present {
		delete(c.entries, snap.key)
		return
	}
	c.entries[snap.key] = &entry{pages: copyPages(snap.pages), exhausted: snap.exhausted}
}

func copyPages(src []page) []page {
	out := make([]page, len(src))
	for i, p := range src {
		tasks := make([]models.Task, len(p.tasks))
		copy(tasks, p.tasks)
		out[i] = page{tasks: tasks}
	}
	return out
}

func containsID(tasks []models.Task, id string) bool {
	for _, t := range tasks {
		if t.ID == id {
			return true
		}
	}
	return false
}
