package board

import (
	"sort"

	"github.com/kandev/kanboard/internal/board/search"
	"github.com/kandev/kanboard/internal/task/models"
)

// ColumnView is the read model of one column.
type ColumnView struct {
	Column         models.Column
	Tasks          []models.Task
	IsLoading      bool
	IsFetchingMore bool
	HasMore        bool
}

// BoardView is an immutable copy of the board state.
type BoardView struct {
	Columns       []ColumnView
	SearchQuery   string
	SearchResults search.Results
	// Deleting lists ids waiting for their delete to be issued, sorted.
	Deleting  []string
	LastError error
}

// Column returns the view of column id.
func (v BoardView) Column(id models.ColumnID) (ColumnView, bool) {
	for _, col := range v.Columns {
		if col.Column.ID == id {
			return col, true
		}
	}
	return ColumnView{}, false
}

// Snapshot returns the current read model. With an active search query each
// column shows only its matching tasks.
func (c *Coordinator) Snapshot() BoardView {
	c.mu.Lock()
	defer c.mu.Unlock()

	q := c.cacheQuery()
	view := BoardView{
		Columns:     make([]ColumnView, 0, len(c.columns)),
		SearchQuery: c.query,
		Deleting:    make([]string, 0, len(c.deleting)),
		LastError:   c.lastErr,
	}

	loaded := make(map[models.ColumnID][]models.Task, len(c.columns))
	for _, col := range c.columns {
		tasks := c.cache.Tasks(col.ID, q)
		loaded[col.ID] = tasks
		view.Columns = append(view.Columns, ColumnView{
			Column:         col,
			Tasks:          search.Filter(tasks, q),
			IsLoading:      c.loading[col.ID] > 0,
			IsFetchingMore: c.fetchingMore[col.ID] > 0,
			HasMore:        c.cache.HasMore(col.ID, q),
		})
	}
	view.SearchResults = search.Compute(q, loaded, c.columnIDs())

	for id := range c.deleting {
		view.Deleting = append(view.Deleting, id)
	}
	sort.Strings(view.Deleting)
	return view
}

// Deleting reports whether id is waiting for its delete to be issued.
func (c *Coordinator) Deleting(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.deleting[id]
	return ok
}

// SearchResults returns the match counts of the current query.
func (c *Coordinator) SearchResults() search.Results {
	return c.Snapshot().SearchResults
}

// JumpToFirstMatch returns the first rendered card matching the current
// search query.
func (c *Coordinator) JumpToFirstMatch(cards []search.Card) (string, bool) {
	c.mu.Lock()
	q := c.query
	c.mu.Unlock()
	return search.FirstMatch(cards, q)
}

// ClearError resets the last recorded error.
func (c *Coordinator) ClearError() {
	c.setLastError(nil)
}
