package services

import (
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/mrlokans/eknihy-sync/internal/entities"
	"github.com/mrlokans/eknihy-sync/internal/metrics"
)

// runRecorder ties one job run to its progress row, audit event and metrics.
// Progress and audit are optional; their failures are logged and never
// fail the run.
type runRecorder struct {
	id        string
	syncType  entities.SyncType
	eventType entities.AuditEventType
	action    string
	progress  ProgressTracker
	audit     RunLogger
	started   time.Time
}

func startRun(syncType entities.SyncType, eventType entities.AuditEventType, action string, progress ProgressTracker, audit RunLogger) *runRecorder {
	r := &runRecorder{
		id:        uuid.NewString(),
		syncType:  syncType,
		eventType: eventType,
		action:    action,
		progress:  progress,
		audit:     audit,
		started:   time.Now(),
	}
	if r.progress != nil {
		if err := r.progress.StartSync(r.id, 0); err != nil {
			log.Printf("Run %s: failed to record start: %v", r.id, err)
		}
	}
	return r
}

func (r *runRecorder) setTotal(total int) {
	if r.progress == nil {
		return
	}
	if err := r.progress.SetTotal(total); err != nil {
		log.Printf("Run %s: failed to record total: %v", r.id, err)
	}
}

func (r *runRecorder) update(processed, succeeded, failed, skipped int, current string) {
	if r.progress == nil {
		return
	}
	if err := r.progress.UpdateProgress(processed, succeeded, failed, skipped, current); err != nil {
		log.Printf("Run %s: failed to record progress: %v", r.id, err)
	}
}

func (r *runRecorder) entity(action, entityType, entityID, description string) {
	if r.audit != nil {
		r.audit.LogEntity(r.id, r.eventType, action, entityType, entityID, description)
	}
}

// finish closes the run and returns err unchanged.
func (r *runRecorder) finish(description string, counts map[string]any, err error) error {
	status := "success"
	errMsg := ""
	if err != nil {
		status = "failed"
		errMsg = err.Error()
	}

	if r.progress != nil {
		if e := r.progress.CompleteSync(err == nil, errMsg); e != nil {
			log.Printf("Run %s: failed to record completion: %v", r.id, e)
		}
	}
	if r.audit != nil {
		r.audit.LogRun(r.id, r.eventType, r.action, description, counts, err)
	}

	metrics.RunsTotal.WithLabelValues(string(r.syncType), status).Inc()
	metrics.RunDuration.WithLabelValues(string(r.syncType)).Observe(time.Since(r.started).Seconds())
	if err == nil {
		metrics.LastSuccessTimestamp.WithLabelValues(string(r.syncType)).SetToCurrentTime()
	}
	return err
}
