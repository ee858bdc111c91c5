// Package api provides the json-server compatible HTTP handlers of the Task API.
package api

import "github.com/kandev/kanboard/internal/task/models"

// TotalCountHeader carries the number of tasks matching a list query.
const TotalCountHeader = "X-Total-Count"

// ListTasksQuery holds the query parameters of GET /tasks
type ListTasksQuery struct {
	Page   int    `form:"_page"`
	Limit  int    `form:"_limit"`
	Sort   string `form:"_sort"`
	Order  string `form:"_order"`
	Query  string `form:"q"`
	Column string `form:"column"`
}

// CreateTaskRequest for creating or replacing a task
type CreateTaskRequest struct {
	ID          string `json:"id"`
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	Column      string `json:"column" binding:"required"`
}

// UpdateTaskRequest for patching a task
type UpdateTaskRequest struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Column      *string `json:"column,omitempty"`
}

func (r *CreateTaskRequest) toModel() *models.CreateTaskRequest {
	return &models.CreateTaskRequest{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		Column:      models.ColumnID(r.Column),
	}
}

func (r *UpdateTaskRequest) toPatch() models.TaskPatch {
	patch := models.TaskPatch{Title: r.Title, Description: r.Description}
	if r.Column != nil {
		patch.Column = models.ColumnPtr(models.ColumnID(*r.Column))
	}
	return patch
}
