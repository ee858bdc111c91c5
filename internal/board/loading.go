package board

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kandev/kanboard/internal/board/search"
	apperrors "github.com/kandev/kanboard/internal/common/errors"
	"github.com/kandev/kanboard/internal/events"
	"github.com/kandev/kanboard/internal/task/models"
	"github.com/kandev/kanboard/internal/tracing"
)

// cacheQuery returns the cache key and server filter for the current query.
// Caller must hold mu.
func (c *Coordinator) cacheQuery() string {
	return search.Normalize(c.query)
}

// LoadMore fetches the next page of column for the current search query.
// It is a no-op when the column has no more pages.
func (c *Coordinator) LoadMore(ctx context.Context, column models.ColumnID) error {
	if !c.hasColumn(column) {
		return apperrors.ValidationError("column", "unknown column '"+column.String()+"'")
	}
	c.mu.Lock()
	q := c.cacheQuery()
	gen := c.generation
	c.mu.Unlock()

	return c.loadPage(ctx, column, q, gen)
}

func (c *Coordinator) loadPage(ctx context.Context, column models.ColumnID, q string, gen uint64) (err error) {
	ctx, span := tracing.TraceBoardIntent(ctx, "load_more", "", column.String())
	defer func() { tracing.EndWithError(span, err) }()

	c.mu.Lock()
	if !c.cache.HasMore(column, q) {
		c.mu.Unlock()
		return nil
	}
	first := !c.cache.Loaded(column, q)
	if first {
		c.loading[column]++
	} else {
		c.fetchingMore[column]++
	}
	c.mu.Unlock()

	_, err = c.cache.LoadNextPage(ctx, column, q)

	c.mu.Lock()
	defer c.mu.Unlock()
	if first {
		c.loading[column]--
	} else {
		c.fetchingMore[column]--
	}
	if err != nil {
		// results of a superseded query are dropped silently
		if gen != c.generation {
			return nil
		}
		c.lastErr = err
		c.logger.WithColumn(column.String()).Warn("failed to load page", zap.Error(err))
		return err
	}
	return nil
}

// Refresh loads the first page of every column that has nothing loaded for
// the current query. Columns are fetched concurrently; the first error is
// returned after all fetches finish.
func (c *Coordinator) Refresh(ctx context.Context) error {
	c.mu.Lock()
	q := c.cacheQuery()
	gen := c.generation
	c.mu.Unlock()

	return c.refresh(ctx, q, gen)
}

func (c *Coordinator) refresh(ctx context.Context, q string, gen uint64) error {
	var g errgroup.Group
	for _, col := range c.columnIDs() {
		if c.cache.Loaded(col, q) {
			continue
		}
		col := col
		g.Go(func() error {
			return c.loadPage(ctx, col, q, gen)
		})
	}
	return g.Wait()
}

// SetSearchQuery changes the active search and loads the first page of every
// column for it. Fetches still running for an older query do not affect the
// read model when they finish.
func (c *Coordinator) SetSearchQuery(ctx context.Context, text string) error {
	c.mu.Lock()
	c.query = text
	c.generation++
	gen := c.generation
	q := c.cacheQuery()
	c.mu.Unlock()

	c.logger.Debug("search query changed", zap.String("query", q))
	return c.refresh(ctx, q, gen)
}

// invalidateAll drops every column cache and, with auto refresh, reloads the
// first page of each column. Refresh failures are recorded in the read model
// but not returned.
func (c *Coordinator) invalidateAll(ctx context.Context, reason string) {
	c.cache.InvalidateAll()
	c.publish(ctx, events.BoardInvalidated, map[string]interface{}{"reason": reason})

	if !c.autoRefresh {
		return
	}
	if err := c.Refresh(ctx); err != nil {
		c.logger.Debug("refresh after invalidation failed", zap.String("reason", reason), zap.Error(err))
	}
}
