// Package repository provides the task store behind the Task API.
package repository

import (
	"context"
	"errors"

	"github.com/kandev/kanboard/internal/task/models"
)

var (
	// ErrTaskNotFound is returned when no task has the requested id.
	ErrTaskNotFound = errors.New("task not found")
	// ErrTaskExists is returned when a create names an id already in use.
	ErrTaskExists = errors.New("task already exists")
)

// Repository defines the interface for task storage operations.
//
// Tasks are ordered by their sort key, which is the numeric value of the id
// when the id is an integer and the next free sequence value otherwise. Ties
// are broken by id.
type Repository interface {
	// CreateTask stores a new task. An empty ID is replaced with the next
	// sequence value rendered as a decimal string.
	CreateTask(ctx context.Context, task *models.Task) error
	GetTask(ctx context.Context, id string) (*models.Task, error)
	UpdateTask(ctx context.Context, task *models.Task) error
	DeleteTask(ctx context.Context, id string) error
	// ListTasks returns one page of tasks matching the filter together with
	// the total number of matches across all pages.
	ListTasks(ctx context.Context, filter models.ListFilter) ([]*models.Task, int, error)
	CountTasks(ctx context.Context) (int, error)
	Close() error
}
