package http

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/mikestefanello/backlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/eknihy-sync/internal/tasks"
)

type stubQueue struct {
	enqueued []backlite.Task
	status   backlite.TaskStatus
	err      error
}

func (q *stubQueue) Enqueue(task backlite.Task) (string, error) {
	if q.err != nil {
		return "", q.err
	}
	q.enqueued = append(q.enqueued, task)
	return "task-1", nil
}

func (q *stubQueue) Status(context.Context, string) (backlite.TaskStatus, error) {
	return q.status, q.err
}

func tasksRouter(queue TaskQueue) *gin.Engine {
	gin.SetMode(gin.TestMode)
	controller := NewTasksController(queue)
	router := gin.New()
	router.GET("/api/tasks/types", controller.ListTaskTypes)
	router.GET("/api/tasks/:id", controller.GetTaskStatus)
	router.POST("/api/tasks/:type/run", controller.RunTask)
	return router
}

func TestTasksController_RunTask(t *testing.T) {
	tests := []struct {
		name     string
		taskType string
		body     string
		want     backlite.Task
	}{
		{"sync catalog", "sync_catalog", `{"dry_run":true}`, tasks.SyncCatalogTask{DryRun: true, Trigger: "api"}},
		{"all author photos", "enrich_author_photos", `{"start":20}`, tasks.EnrichAuthorPhotosTask{Start: 20}},
		{"one author photo", "enrich_author_photo", `{"document_id":"abc","name":"Hašek, Jaroslav"}`, tasks.EnrichAuthorPhotoTask{DocumentID: "abc", Name: "Hašek, Jaroslav"}},
		{"cleanup", "cleanup_history", ``, tasks.CleanupHistoryTask{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			queue := &stubQueue{}
			var body []byte
			if tt.body != "" {
				body = []byte(tt.body)
			}

			w := serve(tasksRouter(queue), "POST", "/api/tasks/"+tt.taskType+"/run", body)

			require.Equal(t, http.StatusAccepted, w.Code)
			require.Len(t, queue.enqueued, 1)
			assert.Equal(t, tt.want, queue.enqueued[0])
		})
	}
}

func TestTasksController_RunTask_Validation(t *testing.T) {
	queue := &stubQueue{}
	router := tasksRouter(queue)

	w := serve(router, "POST", "/api/tasks/enrich_author_photo/run", []byte(`{"name":"x"}`))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = serve(router, "POST", "/api/tasks/enrich_book/run", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "unknown task type")

	assert.Empty(t, queue.enqueued)
}

func TestTasksController_RunTask_EnqueueError(t *testing.T) {
	w := serve(tasksRouter(&stubQueue{err: errors.New("locked")}), "POST", "/api/tasks/sync_catalog/run", nil)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestTasksController_GetTaskStatus(t *testing.T) {
	w := serve(tasksRouter(&stubQueue{status: backlite.TaskStatusSuccess}), "GET", "/api/tasks/task-1", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"success"`)
}

func TestTasksController_ListTaskTypes(t *testing.T) {
	w := serve(tasksRouter(&stubQueue{}), "GET", "/api/tasks/types", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "sync_catalog")
	assert.Contains(t, w.Body.String(), "enrich_author_photo")
}
