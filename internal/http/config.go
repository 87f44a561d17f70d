package http

import (
	"context"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/eknihy-sync/internal/entities"
	"github.com/mrlokans/eknihy-sync/internal/services"
)

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping() error
}

// StateReader loads the stored sync watermark.
type StateReader interface {
	Load(ctx context.Context) (*entities.SyncState, error)
}

// ProgressLister lists the latest run of every job kind.
type ProgressLister interface {
	ListAll() ([]entities.SyncProgress, error)
}

// SyncTrigger starts catalog syncs and reports the schedule.
type SyncTrigger interface {
	RunNow(req services.RunRequest) (string, error)
	IsRunning() bool
	IsSyncing() bool
	Queued() bool
	Schedule() string
	GetNextRunTime() *time.Time
}

// TaskQueue is the subset of the task client the API needs.
type TaskQueue interface {
	Enqueue(task backlite.Task) (string, error)
	Status(ctx context.Context, taskID string) (backlite.TaskStatus, error)
}

// AuditReader pages through audit events.
type AuditReader interface {
	GetEvents(limit, offset int) ([]entities.AuditEvent, int64, error)
	GetEventsByType(eventType entities.AuditEventType, limit, offset int) ([]entities.AuditEvent, int64, error)
	GetRunEvents(runID string) ([]entities.AuditEvent, error)
}

// RouterConfig contains the dependencies of the HTTP router. Optional
// dependencies left nil disable their routes.
type RouterConfig struct {
	Database Pinger
	Version  string

	State     StateReader
	Progress  ProgressLister
	Scheduler SyncTrigger

	// Task queue client (optional)
	TaskClient TaskQueue

	AuditService AuditReader
}
