package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/eknihy-sync/internal/entities"
	"github.com/mrlokans/eknihy-sync/internal/services"
)

type stubState struct {
	state *entities.SyncState
	err   error
}

func (s stubState) Load(context.Context) (*entities.SyncState, error) { return s.state, s.err }

type stubProgress struct {
	runs []entities.SyncProgress
}

func (s stubProgress) ListAll() ([]entities.SyncProgress, error) { return s.runs, nil }

type stubScheduler struct {
	running  bool
	syncing  bool
	queued   bool
	next     *time.Time
	taskID   string
	err      error
	requests []services.RunRequest
}

func (s *stubScheduler) RunNow(req services.RunRequest) (string, error) {
	s.requests = append(s.requests, req)
	return s.taskID, s.err
}
func (s *stubScheduler) IsRunning() bool            { return s.running }
func (s *stubScheduler) IsSyncing() bool            { return s.syncing }
func (s *stubScheduler) Queued() bool               { return s.queued }
func (s *stubScheduler) Schedule() string           { return "0 3 * * *" }
func (s *stubScheduler) GetNextRunTime() *time.Time { return s.next }

func serve(router *gin.Engine, method, path string, body []byte) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(method, path, bytes.NewReader(body))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	router.ServeHTTP(w, req)
	return w
}

func syncRouter(state StateReader, progress ProgressLister, scheduler SyncTrigger) *gin.Engine {
	gin.SetMode(gin.TestMode)
	controller := NewSyncController(state, progress, scheduler)
	router := gin.New()
	router.GET("/api/sync/status", controller.Status)
	router.POST("/api/sync/run", controller.Run)
	return router
}

func TestSyncController_Status(t *testing.T) {
	next := time.Date(2026, 10, 17, 3, 0, 0, 0, time.UTC)
	state := &entities.SyncState{LastSyncDate: "2026-10-15", LastRun: "2026-10-15T03:00:12", LastNewCount: 12, TotalRuns: 40}
	progress := stubProgress{runs: []entities.SyncProgress{{SyncType: entities.SyncTypeCatalog, Status: entities.SyncStatusCompleted, Succeeded: 12}}}
	scheduler := &stubScheduler{running: true, next: &next}

	w := serve(syncRouter(stubState{state: state}, progress, scheduler), "GET", "/api/sync/status", nil)

	require.Equal(t, http.StatusOK, w.Code)
	var resp SyncStatusResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	require.NotNil(t, resp.State)
	assert.Equal(t, "2026-10-15", resp.State.LastSyncDate)
	assert.Equal(t, 40, resp.State.TotalRuns)
	require.Len(t, resp.Runs, 1)
	assert.Equal(t, entities.SyncTypeCatalog, resp.Runs[0].SyncType)
	require.NotNil(t, resp.Scheduler)
	assert.True(t, resp.Scheduler.Running)
	assert.Equal(t, "0 3 * * *", resp.Scheduler.Schedule)
	assert.True(t, next.Equal(*resp.Scheduler.NextRun))
}

func TestSyncController_Status_NoStateYet(t *testing.T) {
	w := serve(syncRouter(stubState{}, nil, nil), "GET", "/api/sync/status", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"state":null`)
	assert.Contains(t, w.Body.String(), `"runs":[]`)
}

func TestSyncController_Status_StateError(t *testing.T) {
	w := serve(syncRouter(stubState{err: errors.New("disk I/O error")}, nil, nil), "GET", "/api/sync/status", nil)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "disk I/O")
}

func TestSyncController_Run_Queued(t *testing.T) {
	scheduler := &stubScheduler{taskID: "task-7"}

	w := serve(syncRouter(nil, nil, scheduler), "POST", "/api/sync/run", []byte(`{"from":"2026-10-01","dry_run":true}`))

	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Contains(t, w.Body.String(), "task-7")
	assert.Equal(t, []services.RunRequest{{From: "2026-10-01", DryRun: true}}, scheduler.requests)
}

func TestSyncController_Run_StartedWithoutBody(t *testing.T) {
	scheduler := &stubScheduler{}

	w := serve(syncRouter(nil, nil, scheduler), "POST", "/api/sync/run", nil)

	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Contains(t, w.Body.String(), "sync started")
	assert.Equal(t, []services.RunRequest{{}}, scheduler.requests)
}

func TestSyncController_Run_InvalidFrom(t *testing.T) {
	scheduler := &stubScheduler{}

	w := serve(syncRouter(nil, nil, scheduler), "POST", "/api/sync/run", []byte(`{"from":"01.10.2026"}`))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, scheduler.requests)
}

func TestSyncController_Run_AlreadyRunning(t *testing.T) {
	w := serve(syncRouter(nil, nil, &stubScheduler{err: services.ErrSyncInProgress}), "POST", "/api/sync/run", nil)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "sync_in_progress")
}
