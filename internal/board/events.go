package board

import (
	"context"

	"go.uber.org/zap"

	"github.com/kandev/kanboard/internal/events/bus"
	"github.com/kandev/kanboard/internal/task/models"
)

func (c *Coordinator) publish(ctx context.Context, eventType string, data map[string]interface{}) {
	if c.eventBus == nil {
		return
	}
	event := bus.NewEvent(eventType, "board", data)
	if err := c.eventBus.Publish(ctx, eventType, event); err != nil {
		c.logger.Warn("failed to publish board event",
			zap.String("event_type", eventType),
			zap.Error(err))
	}
}

func taskEventData(task *models.Task) map[string]interface{} {
	return map[string]interface{}{
		"task_id": task.ID,
		"title":   task.Title,
		"column":  task.Column.String(),
	}
}
