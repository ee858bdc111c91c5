package api

import (
	"github.com/gin-gonic/gin"

	"github.com/kandev/kanboard/internal/common/logger"
	"github.com/kandev/kanboard/internal/task/service"
)

// SetupRoutes configures the task API routes
func SetupRoutes(router gin.IRouter, svc *service.Service, log *logger.Logger) {
	handler := NewHandler(svc, log)

	tasks := router.Group("/tasks")
	{
		tasks.GET("", handler.ListTasks)
		tasks.POST("", handler.CreateTask)
		tasks.GET("/:taskId", handler.GetTask)
		tasks.PATCH("/:taskId", handler.PatchTask)
		tasks.PUT("/:taskId", handler.ReplaceTask)
		tasks.DELETE("/:taskId", handler.DeleteTask)
	}

	router.GET("/columns", handler.ListColumns)
	router.GET("/health", handler.Health)
}
