package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kandev/kanboard/internal/common/config"
	"github.com/kandev/kanboard/internal/common/httpmw"
	"github.com/kandev/kanboard/internal/common/logger"
	"github.com/kandev/kanboard/internal/task/models"
	taskservice "github.com/kandev/kanboard/internal/task/service"
)

func TestProvideStorageSeedsSQLite(t *testing.T) {
	cfg := &config.Config{Database: config.DatabaseConfig{
		Driver: "sqlite",
		Path:   filepath.Join(t.TempDir(), "kanboard.db"),
	}}

	repo, cleanup, err := provideStorage(context.Background(), cfg, logger.Nop())
	require.NoError(t, err)
	defer func() { _ = cleanup() }()

	count, err := repo.CountTasks(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestRouterServesSeededTasks(t *testing.T) {
	cfg := &config.Config{Database: config.DatabaseConfig{Driver: "memory"}}
	repo, cleanup, err := provideStorage(context.Background(), cfg, logger.Nop())
	require.NoError(t, err)
	defer func() { _ = cleanup() }()

	router := newRouter(taskservice.NewService(repo, nil, logger.Nop()), logger.Nop())

	req := httptest.NewRequest(http.MethodGet, "/tasks?_page=1&_limit=10&_sort=id&_order=asc&column=backlog", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(httpmw.RequestIDHeader))
	assert.Equal(t, "1", w.Header().Get("X-Total-Count"))

	var tasks []models.Task
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tasks))
	require.Len(t, tasks, 1)
	assert.Equal(t, "Sample task 1", tasks[0].Title)
}
