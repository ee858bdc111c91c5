// Package service provides the business logic of the Task API.
package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	apperrors "github.com/kandev/kanboard/internal/common/errors"
	"github.com/kandev/kanboard/internal/common/logger"
	"github.com/kandev/kanboard/internal/events"
	"github.com/kandev/kanboard/internal/events/bus"
	"github.com/kandev/kanboard/internal/task/models"
	"github.com/kandev/kanboard/internal/task/repository"
)

const (
	DefaultPageLimit = 10
	MaxPageLimit     = 100
)

// Service provides task business logic
type Service struct {
	repo     repository.Repository
	eventBus bus.EventBus
	logger   *logger.Logger
}

// NewService creates a new task service. eventBus may be nil.
func NewService(repo repository.Repository, eventBus bus.EventBus, log *logger.Logger) *Service {
	return &Service{
		repo:     repo,
		eventBus: eventBus,
		logger:   log,
	}
}

// CreateTask validates and stores a new task
func (s *Service) CreateTask(ctx context.Context, req *models.CreateTaskRequest) (*models.Task, error) {
	task := &models.Task{
		ID:          strings.TrimSpace(req.ID),
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		Column:      req.Column,
	}
	if err := validateTask(task); err != nil {
		return nil, err
	}

	if err := s.repo.CreateTask(ctx, task); err != nil {
		if errors.Is(err, repository.ErrTaskExists) {
			return nil, apperrors.Conflict("task with id '" + task.ID + "' already exists")
		}
		s.logger.Error("failed to create task", zap.Error(err))
		return nil, apperrors.InternalError("failed to create task", err)
	}

	s.publishTaskEvent(ctx, events.TaskCreated, task)
	s.logger.WithContext(ctx).Info("task created",
		zap.String("task_id", task.ID),
		zap.String("column", task.Column.String()))

	return task, nil
}

// GetTask retrieves a task by ID
func (s *Service) GetTask(ctx context.Context, id string) (*models.Task, error) {
	task, err := s.repo.GetTask(ctx, id)
	if err != nil {
		return nil, s.mapRepoError(err, id)
	}
	return task, nil
}

// UpdateTask applies a partial update to a task
func (s *Service) UpdateTask(ctx context.Context, id string, patch models.TaskPatch) (*models.Task, error) {
	task, err := s.repo.GetTask(ctx, id)
	if err != nil {
		return nil, s.mapRepoError(err, id)
	}

	if patch.Title != nil {
		trimmed := strings.TrimSpace(*patch.Title)
		patch.Title = &trimmed
	}
	oldColumn := task.Column
	patch.Apply(task)
	if err := validateTask(task); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateTask(ctx, task); err != nil {
		return nil, s.mapRepoError(err, id)
	}

	s.publishTaskEvent(ctx, events.TaskUpdated, task)
	fields := []zap.Field{zap.String("task_id", task.ID)}
	if oldColumn != task.Column {
		fields = append(fields,
			zap.String("from_column", oldColumn.String()),
			zap.String("to_column", task.Column.String()))
	}
	s.logger.WithContext(ctx).Info("task updated", fields...)

	return task, nil
}

// ReplaceTask overwrites title, description and column of a task
func (s *Service) ReplaceTask(ctx context.Context, id string, req *models.CreateTaskRequest) (*models.Task, error) {
	return s.UpdateTask(ctx, id, models.TaskPatch{
		Title:       &req.Title,
		Description: &req.Description,
		Column:      &req.Column,
	})
}

// DeleteTask deletes a task by ID
func (s *Service) DeleteTask(ctx context.Context, id string) error {
	task, err := s.repo.GetTask(ctx, id)
	if err != nil {
		return s.mapRepoError(err, id)
	}
	if err := s.repo.DeleteTask(ctx, id); err != nil {
		return s.mapRepoError(err, id)
	}

	s.publishTaskEvent(ctx, events.TaskDeleted, task)
	s.logger.WithContext(ctx).Info("task deleted", zap.String("task_id", id))
	return nil
}

// ListTasks returns one page of tasks and the total number of matches.
// Page defaults to 1 and Limit to DefaultPageLimit, capped at MaxPageLimit.
func (s *Service) ListTasks(ctx context.Context, filter models.ListFilter) ([]*models.Task, int, error) {
	if filter.Column != "" && !filter.Column.Valid() {
		return nil, 0, apperrors.ValidationError("column", "unknown column '"+filter.Column.String()+"'")
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = DefaultPageLimit
	}
	if filter.Limit > MaxPageLimit {
		filter.Limit = MaxPageLimit
	}

	tasks, total, err := s.repo.ListTasks(ctx, filter)
	if err != nil {
		s.logger.Error("failed to list tasks", zap.Error(err))
		return nil, 0, apperrors.InternalError("failed to list tasks", err)
	}
	return tasks, total, nil
}

// Columns returns the fixed board columns.
func (s *Service) Columns() []models.Column {
	return models.DefaultColumns()
}

// CountTasks returns the number of stored tasks.
func (s *Service) CountTasks(ctx context.Context) (int, error) {
	count, err := s.repo.CountTasks(ctx)
	if err != nil {
		return 0, apperrors.InternalError("failed to count tasks", err)
	}
	return count, nil
}

func validateTask(task *models.Task) error {
	if task.Title == "" {
		return apperrors.ValidationError("title", "must not be empty")
	}
	if !task.Column.Valid() {
		return apperrors.ValidationError("column", "unknown column '"+task.Column.String()+"'")
	}
	return nil
}

func (s *Service) mapRepoError(err error, id string) error {
	if errors.Is(err, repository.ErrTaskNotFound) {
		return apperrors.NotFound("task", id)
	}
	s.logger.Error("task store failure", zap.String("task_id", id), zap.Error(err))
	return apperrors.InternalError("task store failure", err)
}
