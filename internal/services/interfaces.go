package services

import (
	"context"

	"github.com/mrlokans/eknihy-sync/internal/entities"
	"github.com/mrlokans/eknihy-sync/internal/importers"
	"github.com/mrlokans/eknihy-sync/internal/marc"
	"github.com/mrlokans/eknihy-sync/internal/oaipmh"
)

// StateStore persists the sync watermark between runs.
// Load returns nil, nil when nothing has been saved yet.
type StateStore interface {
	Load(ctx context.Context) (*entities.SyncState, error)
	Save(ctx context.Context, state *entities.SyncState) error
}

// Backend is the content store plus the checks a run does before writing.
type Backend interface {
	importers.Backend
	Ping(ctx context.Context) error
	HasToken() bool
}

// Harvester fetches and parses records from the source repository.
type Harvester interface {
	Harvest(ctx context.Context, opts oaipmh.Options) (*oaipmh.Result, error)
}

// RecordFetcher loads a single source record by identifier.
type RecordFetcher interface {
	GetRecord(ctx context.Context, identifier, metadataPrefix string) (marc.Raw, error)
}

// ProgressTracker records the progress of the current run.
// Use this interface for database/sync.Repository.
type ProgressTracker interface {
	StartSync(runID string, totalItems int) error
	SetTotal(totalItems int) error
	UpdateProgress(processed, succeeded, failed, skipped int, currentItem string) error
	CompleteSync(succeeded bool, errorMsg string) error
}

// RunLogger writes audit events for runs and single changes.
type RunLogger interface {
	LogRun(runID string, eventType entities.AuditEventType, action, description string, counts map[string]any, err error)
	LogEntity(runID string, eventType entities.AuditEventType, action, entityType, entityID, description string)
}

// SnapshotWriter stores a JSON copy of harvested data.
type SnapshotWriter interface {
	Enabled() bool
	SaveJSON(name string, data any) (string, error)
}
