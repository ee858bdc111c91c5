// Package models defines the task board domain types shared by the Task API
// server and the board client.
package models

import (
	"strconv"
	"strings"
	"time"
)

// ColumnID identifies one of the fixed board columns.
type ColumnID string

const (
	ColumnBacklog    ColumnID = "backlog"
	ColumnInProgress ColumnID = "in_progress"
	ColumnReview     ColumnID = "review"
	ColumnDone       ColumnID = "done"
)

// Column is static board configuration and never changes at runtime.
type Column struct {
	ID    ColumnID `json:"id" yaml:"id"`
	Title string   `json:"title" yaml:"title"`
}

var defaultColumns = []Column{
	{ID: ColumnBacklog, Title: "Backlog"},
	{ID: ColumnInProgress, Title: "In Progress"},
	{ID: ColumnReview, Title: "Review"},
	{ID: ColumnDone, Title: "Done"},
}

// DefaultColumns returns the board columns in render order.
func DefaultColumns() []Column {
	out := make([]Column, len(defaultColumns))
	copy(out, defaultColumns)
	return out
}

// ColumnIDs returns the ids of the default columns in render order.
func ColumnIDs() []ColumnID {
	ids := make([]ColumnID, len(defaultColumns))
	for i, c := range defaultColumns {
		ids[i] = c.ID
	}
	return ids
}

// Valid reports whether id names one of the board columns.
func (id ColumnID) Valid() bool {
	for _, c := range defaultColumns {
		if c.ID == id {
			return true
		}
	}
	return false
}

func (id ColumnID) String() string {
	return string(id)
}

// Task is a card on the board.
type Task struct {
	ID          string    `json:"id" yaml:"id" db:"id"`
	Title       string    `json:"title" yaml:"title" db:"title"`
	Description string    `json:"description" yaml:"description" db:"description"`
	Column      ColumnID  `json:"column" yaml:"column" db:"column_id"`
	CreatedAt   time.Time `json:"created_at,omitempty" yaml:"-" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at,omitempty" yaml:"-" db:"updated_at"`
}

// NumericID returns the id as an integer when it is one.
func (t *Task) NumericID() (int64, bool) {
	n, err := strconv.ParseInt(strings.TrimSpace(t.ID), 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// TaskPatch is a partial task update. Nil fields are left unchanged.
type TaskPatch struct {
	Title       *string   `json:"title,omitempty"`
	Description *string   `json:"description,omitempty"`
	Column      *ColumnID `json:"column,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p TaskPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Column == nil
}

// Apply copies the set fields of the patch onto t.
func (p TaskPatch) Apply(t *Task) {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Column != nil {
		t.Column = *p.Column
	}
}

// CreateTaskRequest carries the fields of a new task. ID is optional; when
// empty the store assigns one.
type CreateTaskRequest struct {
	ID          string   `json:"id,omitempty"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Column      ColumnID `json:"column"`
}

// ListFilter selects one page of tasks. Page is 1-based.
type ListFilter struct {
	Column ColumnID
	Query  string
	Page   int
	Limit  int
	// Descending reverses the id order.
	Descending bool
}

// Offset returns the row offset of the requested page.
func (f ListFilter) Offset() int {
	if f.Page <= 1 {
		return 0
	}
	return (f.Page - 1) * f.Limit
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string {
	return &s
}

// ColumnPtr returns a pointer to c.
func ColumnPtr(c ColumnID) *ColumnID {
	return &c
}
