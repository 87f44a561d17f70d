package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/eknihy-sync/internal/entities"
	"github.com/mrlokans/eknihy-sync/internal/services"
)

// SyncController exposes the catalog sync state and a manual trigger.
type SyncController struct {
	state     StateReader
	progress  ProgressLister
	scheduler SyncTrigger
}

func NewSyncController(state StateReader, progress ProgressLister, scheduler SyncTrigger) *SyncController {
	return &SyncController{state: state, progress: progress, scheduler: scheduler}
}

// SchedulerStatus describes the cron side of serve mode.
type SchedulerStatus struct {
	Running  bool       `json:"running"`
	Syncing  bool       `json:"syncing"`
	Queued   bool       `json:"queued"`
	Schedule string     `json:"schedule,omitempty"`
	NextRun  *time.Time `json:"next_run,omitempty"`
}

// SyncStatusResponse is returned by GET /api/sync/status.
type SyncStatusResponse struct {
	State     *entities.SyncState     `json:"state"`
	Runs      []entities.SyncProgress `json:"runs"`
	Scheduler *SchedulerStatus        `json:"scheduler,omitempty"`
}

// Status handles GET /api/sync/status
func (sc *SyncController) Status(c *gin.Context) {
	resp := SyncStatusResponse{Runs: []entities.SyncProgress{}}

	if sc.state != nil {
		state, err := sc.state.Load(c.Request.Context())
		if err != nil {
			respondInternalError(c, err, "load sync state")
			return
		}
		resp.State = state
	}

	if sc.progress != nil {
		runs, err := sc.progress.ListAll()
		if err != nil {
			respondInternalError(c, err, "list sync progress")
			return
		}
		resp.Runs = runs
	}

	if sc.scheduler != nil {
		resp.Scheduler = &SchedulerStatus{
			Running:  sc.scheduler.IsRunning(),
			Syncing:  sc.scheduler.IsSyncing(),
			Queued:   sc.scheduler.Queued(),
			Schedule: sc.scheduler.Schedule(),
			NextRun:  sc.scheduler.GetNextRunTime(),
		}
	}

	c.JSON(http.StatusOK, resp)
}

// RunSyncRequest is the optional body of POST /api/sync/run.
type RunSyncRequest struct {
	From   string `json:"from,omitempty"`
	DryRun bool   `json:"dry_run,omitempty"`
}

// Run handles POST /api/sync/run
func (sc *SyncController) Run(c *gin.Context) {
	var req RunSyncRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBadRequest(c, "invalid request body")
			return
		}
	}
	if req.From != "" {
		if _, err := time.Parse("2006-01-02", req.From); err != nil {
			respondBadRequest(c, "from must be YYYY-MM-DD")
			return
		}
	}

	taskID, err := sc.scheduler.RunNow(services.RunRequest{From: req.From, DryRun: req.DryRun})
	if errors.Is(err, services.ErrSyncInProgress) {
		respondError(c, http.StatusConflict, "a sync is already running", "sync_in_progress")
		return
	}
	if err != nil {
		respondInternalError(c, err, "trigger sync")
		return
	}

	if taskID != "" {
		respondAccepted(c, "sync queued", gin.H{"task_id": taskID})
		return
	}
	respondAccepted(c, "sync started", nil)
}
