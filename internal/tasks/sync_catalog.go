package tasks

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/eknihy-sync/internal/services"
)

// CatalogRunner runs one incremental catalog sync.
type CatalogRunner interface {
	Run(ctx context.Context, req services.RunRequest) (*services.RunReport, error)
}

// SyncCatalogTask queues one incremental sync.
type SyncCatalogTask struct {
	From    string `json:"from,omitempty"`
	DryRun  bool   `json:"dry_run,omitempty"`
	Trigger string `json:"trigger,omitempty"` // "api", "schedule"
}

// Config returns the queue configuration. A failed sync is not retried by
// the queue: the watermark stays put and the next run covers the window.
func (t SyncCatalogTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "sync_catalog",
		MaxAttempts: 1,
		Backoff:     5 * time.Minute,
		Timeout:     2 * time.Hour,
		Retention: &backlite.Retention{
			Duration:   7 * 24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// SyncCatalogProcessor creates the processor for SyncCatalogTask. A run
// that finds another one in progress is logged and dropped.
func SyncCatalogProcessor(runner CatalogRunner) backlite.QueueProcessor[SyncCatalogTask] {
	return func(ctx context.Context, task SyncCatalogTask) error {
		if runner == nil {
			return fmt.Errorf("catalog sync not configured")
		}

		report, err := runner.Run(ctx, services.RunRequest{From: task.From, DryRun: task.DryRun})
		if errors.Is(err, services.ErrSyncInProgress) {
			log.Printf("[TASK] Catalog sync (%s) skipped: already running", task.Trigger)
			return nil
		}
		if err != nil {
			return fmt.Errorf("catalog sync: %w", err)
		}

		log.Printf("[TASK] Catalog sync complete: %d created, %d skipped, %d failed since %s",
			report.Summary.Created, report.Summary.Skipped, report.Summary.Failed, report.From)
		return nil
	}
}

func NewSyncCatalogQueue(runner CatalogRunner) backlite.Queue {
	return backlite.NewQueue(SyncCatalogProcessor(runner))
}
