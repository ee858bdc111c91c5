// Package events provides event types and utilities for the kanboard event system.
package events

// Event types published by the Task API service.
const (
	TaskCreated = "task.created"
	TaskUpdated = "task.updated"
	TaskDeleted = "task.deleted"
)

// Event types published by the board coordinator.
const (
	BoardTaskCreated  = "board.task_created"
	BoardTaskUpdated  = "board.task_updated"
	BoardTaskDeleted  = "board.task_deleted"
	BoardTaskMoved    = "board.task_moved"
	BoardMoveReverted = "board.move_reverted"
	BoardInvalidated  = "board.invalidated"
)

// BoardSubjects matches every board coordinator event.
const BoardSubjects = "board.>"
