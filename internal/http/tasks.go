package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mikestefanello/backlite"
)

// TaskClient is the part of the task queue the tasks controller uses.
type TaskClient interface {
	Status(ctx context.Context, taskID string) (backlite.TaskStatus, error)
	EnqueueSweep(staleAfter time.Duration) error
}

// TasksController handles task queue management endpoints.
type TasksController struct {
	client     TaskClient
	staleAfter time.Duration
}

// NewTasksController creates a new TasksController.
func NewTasksController(client TaskClient, staleAfter time.Duration) *TasksController {
	return &TasksController{client: client, staleAfter: staleAfter}
}

// TaskTypeInfo describes an available task type.
type TaskTypeInfo struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	Manual      bool   `json:"manual"`
}

// ListTaskTypes handles GET /api/tasks/types
func (tc *TasksController) ListTaskTypes(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"task_types": []TaskTypeInfo{
			{
				Type:        "run_import",
				Description: "Import an uploaded archive (queued by POST /api/imports)",
			},
			{
				Type:        "sweep_stale_jobs",
				Description: "Fail import jobs that stopped reporting progress",
				Manual:      true,
			},
		},
	})
}

// GetTaskStatus handles GET /api/tasks/:id
func (tc *TasksController) GetTaskStatus(c *gin.Context) {
	taskID := c.Param("id")

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	status, err := tc.client.Status(ctx, taskID)
	if err != nil {
		respondInternalError(c, err, "task status")
		return
	}
	if status == backlite.TaskStatusNotFound {
		respondNotFound(c, "task")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":     taskID,
		"status": taskStatusToString(status),
	})
}

// RunTask handles POST /api/tasks/:type/run
func (tc *TasksController) RunTask(c *gin.Context) {
	taskType := c.Param("type")
	if taskType != "sweep_stale_jobs" {
		respondBadRequest(c, "task type cannot be run manually: "+taskType)
		return
	}

	if err := tc.client.EnqueueSweep(tc.staleAfter); err != nil {
		respondInternalError(c, err, "enqueue sweep")
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"type":    taskType,
		"message": "task enqueued",
	})
}

func taskStatusToString(status backlite.TaskStatus) string {
	switch status {
	case backlite.TaskStatusPending:
		return "pending"
	case backlite.TaskStatusRunning:
		return "running"
	case backlite.TaskStatusSuccess:
		return "success"
	case backlite.TaskStatusFailure:
		return "failure"
	case backlite.TaskStatusNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}
