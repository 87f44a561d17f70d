package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/eknihy-sync/internal/tasks"
)

// TasksController handles task queue management endpoints.
type TasksController struct {
	client TaskQueue
}

// NewTasksController creates a new TasksController.
func NewTasksController(client TaskQueue) *TasksController {
	return &TasksController{client: client}
}

// TaskTypeInfo describes an available task type.
type TaskTypeInfo struct {
	Type        string `json:"type"`
	Description string `json:"description"`
}

var taskTypes = []TaskTypeInfo{
	{Type: "sync_catalog", Description: "Incremental catalog sync from the OAI-PMH source"},
	{Type: "enrich_author_photos", Description: "Attach Wikipedia portraits to all authors without a photo"},
	{Type: "enrich_author_photo", Description: "Attach a Wikipedia portrait to one author"},
	{Type: "cleanup_history", Description: "Delete old audit events and harvest snapshots"},
}

// ListTaskTypes handles GET /api/tasks/types
func (tc *TasksController) ListTaskTypes(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"task_types": taskTypes,
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

	c.JSON(http.StatusOK, gin.H{
		"id":     taskID,
		"status": taskStatusToString(status),
	})
}

// RunTaskRequest is the request body for running a task.
type RunTaskRequest struct {
	// DocumentID and Name are required for enrich_author_photo
	DocumentID string `json:"document_id,omitempty"`
	Name       string `json:"name,omitempty"`
	Slug       string `json:"slug,omitempty"`

	Start         int  `json:"start,omitempty"`
	DryRun        bool `json:"dry_run,omitempty"`
	RetentionDays int  `json:"retention_days,omitempty"`
}

// RunTask handles POST /api/tasks/:type/run
func (tc *TasksController) RunTask(c *gin.Context) {
	taskType := c.Param("type")

	var req RunTaskRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBadRequest(c, "invalid request body")
			return
		}
	}

	var task backlite.Task
	switch taskType {
	case "sync_catalog":
		task = tasks.SyncCatalogTask{DryRun: req.DryRun, Trigger: "api"}

	case "enrich_author_photos":
		task = tasks.EnrichAuthorPhotosTask{Start: req.Start, DryRun: req.DryRun}

	case "enrich_author_photo":
		if req.DocumentID == "" || req.Name == "" {
			respondBadRequest(c, "document_id and name are required for enrich_author_photo task")
			return
		}
		task = tasks.EnrichAuthorPhotoTask{DocumentID: req.DocumentID, Name: req.Name, Slug: req.Slug}

	case "cleanup_history":
		task = tasks.CleanupHistoryTask{RetentionDays: req.RetentionDays}

	default:
		respondBadRequest(c, fmt.Sprintf("unknown task type: %s", taskType))
		return
	}

	id, err := tc.client.Enqueue(task)
	if err != nil {
		respondInternalError(c, err, "enqueue "+taskType)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"success": true,
		"task_id": id,
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
