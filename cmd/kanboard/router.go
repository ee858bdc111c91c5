package main

import (
	"github.com/gin-gonic/gin"

	"github.com/kandev/kanboard/internal/common/httpmw"
	"github.com/kandev/kanboard/internal/common/logger"
	taskapi "github.com/kandev/kanboard/internal/task/api"
	taskservice "github.com/kandev/kanboard/internal/task/service"
)

func newRouter(svc *taskservice.Service, log *logger.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(httpmw.RequestID())
	router.Use(httpmw.OtelTracing(serviceName))
	router.Use(httpmw.RequestLogger(log, serviceName))

	taskapi.SetupRoutes(router, svc, log)
	return router
}
