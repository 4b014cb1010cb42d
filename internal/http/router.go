package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/awatson1978/personal-health-record-sub000/internal/auth"
	"github.com/awatson1978/personal-health-record-sub000/internal/config"
)

// NewRouter creates and configures the HTTP router with all endpoints.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	if cfg.AuthMiddleware != nil {
		router.Use(cfg.AuthMiddleware.Handler())
	} else {
		router.Use(auth.NewMiddleware(nil, config.AuthModeNone, 0).Handler())
	}

	// Health endpoints
	health := NewHealthController(cfg.Database, cfg.Version)
	if cfg.Redis != nil {
		health.SetRedis(cfg.Redis)
	}
	router.GET("/health", health.Status)
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})

	api := router.Group("/api")

	// Import job endpoints
	imports := NewImportsController(cfg.Jobs, cfg.Queue, cfg.Stopper, cfg.UploadDir, cfg.MaxUploadBytes)
	if cfg.Progress != nil {
		imports.SetProgressStore(cfg.Progress)
	}
	api.POST("/imports", imports.Upload)
	api.GET("/imports", imports.List)
	api.GET("/imports/:id", imports.Get)
	api.GET("/imports/:id/progress", imports.Progress)
	api.POST("/imports/:id/cancel", imports.Cancel)

	// Archive inspection
	if cfg.Scanner != nil {
		archives := NewArchivesController(cfg.Scanner, cfg.MaxUploadBytes)
		api.POST("/archives/scan", archives.Scan)
	}

	// Record browsing
	if cfg.Resources != nil {
		records := NewRecordsController(cfg.Resources)
		api.GET("/records/summary", records.Summary)
		api.GET("/records/:type", records.List)
	}

	// Task management endpoints
	if cfg.TaskClient != nil {
		tasksController := NewTasksController(cfg.TaskClient, cfg.StaleAfter)
		api.GET("/tasks/types", tasksController.ListTaskTypes)
		api.GET("/tasks/:id", tasksController.GetTaskStatus)
		api.POST("/tasks/:type/run", tasksController.RunTask)
	}

	return router
}
