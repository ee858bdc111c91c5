package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/kandev/kanboard/internal/common/errors"
	"github.com/kandev/kanboard/internal/common/logger"
	"github.com/kandev/kanboard/internal/events"
	"github.com/kandev/kanboard/internal/events/bus"
	"github.com/kandev/kanboard/internal/task/models"
	"github.com/kandev/kanboard/internal/task/repository"
)

// MockEventBus implements bus.EventBus for testing
type MockEventBus struct {
	mu              sync.Mutex
	publishedEvents []*bus.Event
	closed          bool
}

func NewMockEventBus() *MockEventBus {
	return &MockEventBus{
		publishedEvents: make([]*bus.Event, 0),
	}
}

func (m *MockEventBus) Publish(ctx context.Context, subject string, event *bus.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.publishedEvents = append(m.publishedEvents, event)
	return nil
}

func (m *MockEventBus) Subscribe(subject string, handler bus.EventHandler) (bus.Subscription, error) {
	return nil, nil
}

func (m *MockEventBus) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
}

func (m *MockEventBus) IsConnected() bool {
	return !m.closed
}

func (m *MockEventBus) GetPublishedEvents() []*bus.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.publishedEvents
}

func createTestService(t *testing.T) (*Service, *MockEventBus, *repository.MemoryRepository) {
	t.Helper()
	repo := repository.NewMemoryRepository()
	eventBus := NewMockEventBus()
	log, _ := logger.NewLogger(logger.LoggingConfig{Level: "error", Format: "json", OutputPath: "stdout"})
	svc := NewService(repo, eventBus, log)
	return svc, eventBus, repo
}

func TestService_CreateTask(t *testing.T) {
	svc, eventBus, _ := createTestService(t)
	ctx := context.Background()

	task, err := svc.CreateTask(ctx, &models.CreateTaskRequest{
		Title:       "  Sample task 1 ",
		Description: "First task",
		Column:      models.ColumnBacklog,
	})
	require.NoError(t, err)
	assert.Equal(t, "1", task.ID)
	assert.Equal(t, "Sample task 1", task.Title)

	published := eventBus.GetPublishedEvents()
	require.Len(t, published, 1)
	assert.Equal(t, events.TaskCreated, published[0].Type)
	assert.Equal(t, "1", published[0].Data["task_id"])
	assert.Equal(t, "backlog", published[0].Data["column"])
}

func TestService_CreateTaskValidation(t *testing.T) {
	svc, eventBus, _ := createTestService(t)
	ctx := context.Background()

	_, err := svc.CreateTask(ctx, &models.CreateTaskRequest{Title: "   ", Column: models.ColumnBacklog})
	assert.True(t, apperrors.IsValidation(err))

	_, err = svc.CreateTask(ctx, &models.CreateTaskRequest{Title: "ok", Column: "archive"})
	assert.True(t, apperrors.IsValidation(err))

	assert.Empty(t, eventBus.GetPublishedEvents())
}

func TestService_CreateTaskConflict(t *testing.T) {
	svc, _, _ := createTestService(t)
	ctx := context.Background()

	_, err := svc.CreateTask(ctx, &models.CreateTaskRequest{ID: "3", Title: "a", Column: models.ColumnDone})
	require.NoError(t, err)
	_, err = svc.CreateTask(ctx, &models.CreateTaskRequest{ID: "3", Title: "b", Column: models.ColumnDone})
	assert.True(t, apperrors.IsConflict(err))
}

func TestService_UpdateTask(t *testing.T) {
	svc, eventBus, repo := createTestService(t)
	ctx := context.Background()

	task, err := svc.CreateTask(ctx, &models.CreateTaskRequest{Title: "a", Description: "keep", Column: models.ColumnBacklog})
	require.NoError(t, err)

	updated, err := svc.UpdateTask(ctx, task.ID, models.TaskPatch{Column: models.ColumnPtr(models.ColumnInProgress)})
	require.NoError(t, err)
	assert.Equal(t, models.ColumnInProgress, updated.Column)
	assert.Equal(t, "keep", updated.Description)

	stored, _ := repo.GetTask(ctx, task.ID)
	assert.Equal(t, models.ColumnInProgress, stored.Column)

	_, err = svc.UpdateTask(ctx, task.ID, models.TaskPatch{Title: models.StringPtr("")})
	assert.True(t, apperrors.IsValidation(err))

	_, err = svc.UpdateTask(ctx, "missing", models.TaskPatch{Title: models.StringPtr("x")})
	assert.True(t, apperrors.IsNotFound(err))

	published := eventBus.GetPublishedEvents()
	require.Len(t, published, 2)
	assert.Equal(t, events.TaskUpdated, published[1].Type)
}

func TestService_ReplaceTask(t *testing.T) {
	svc, _, _ := createTestService(t)
	ctx := context.Background()

	task, err := svc.CreateTask(ctx, &models.CreateTaskRequest{Title: "a", Description: "old", Column: models.ColumnBacklog})
	require.NoError(t, err)

	replaced, err := svc.ReplaceTask(ctx, task.ID, &models.CreateTaskRequest{Title: "b", Column: models.ColumnDone})
	require.NoError(t, err)
	assert.Equal(t, "b", replaced.Title)
	assert.Empty(t, replaced.Description)
	assert.Equal(t, models.ColumnDone, replaced.Column)
}

func TestService_DeleteTask(t *testing.T) {
	svc, eventBus, _ := createTestService(t)
	ctx := context.Background()

	task, err := svc.CreateTask(ctx, &models.CreateTaskRequest{Title: "a", Column: models.ColumnBacklog})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteTask(ctx, task.ID))
	assert.True(t, apperrors.IsNotFound(svc.DeleteTask(ctx, task.ID)))

	published := eventBus.GetPublishedEvents()
	require.Len(t, published, 2)
	assert.Equal(t, events.TaskDeleted, published[1].Type)
}

func TestService_ListTasksDefaults(t *testing.T) {
	svc, _, _ := createTestService(t)
	ctx := context.Background()

	for i := 0; i < 12; i++ {
		_, err := svc.CreateTask(ctx, &models.CreateTaskRequest{Title: "t", Column: models.ColumnReview})
		require.NoError(t, err)
	}

	tasks, total, err := svc.ListTasks(ctx, models.ListFilter{})
	require.NoError(t, err)
	assert.Equal(t, 12, total)
	assert.Len(t, tasks, DefaultPageLimit)

	tasks, _, err = svc.ListTasks(ctx, models.ListFilter{Page: 2, Limit: 1000})
	require.NoError(t, err)
	assert.Empty(t, tasks)

	_, _, err = svc.ListTasks(ctx, models.ListFilter{Column: "archive"})
	assert.True(t, apperrors.IsValidation(err))
}

func TestService_NilEventBus(t *testing.T) {
	svc := NewService(repository.NewMemoryRepository(), nil, logger.Nop())
	_, err := svc.CreateTask(context.Background(), &models.CreateTaskRequest{Title: "a", Column: models.ColumnDone})
	assert.NoError(t, err)
	assert.Len(t, svc.Columns(), 4)
}
