package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"
)

const defaultHistoryRetentionDays = 90

// AuditEventCleaner deletes audit events older than a retention period.
type AuditEventCleaner interface {
	DeleteOldEvents(retention time.Duration) (int64, error)
}

// SnapshotPruner deletes harvest snapshots older than a retention period.
type SnapshotPruner interface {
	PruneOlderThan(age time.Duration) (int, error)
}

// CleanupHistoryTask drops old audit events and harvest snapshots.
type CleanupHistoryTask struct {
	RetentionDays int `json:"retention_days"`
}

func (t CleanupHistoryTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "cleanup_history",
		MaxAttempts: 3,
		Backoff:     5 * time.Minute,
		Timeout:     2 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// CleanupHistoryProcessor creates the processor for CleanupHistoryTask.
// pruner may be nil when snapshots are disabled.
func CleanupHistoryProcessor(cleaner AuditEventCleaner, pruner SnapshotPruner) backlite.QueueProcessor[CleanupHistoryTask] {
	return func(ctx context.Context, task CleanupHistoryTask) error {
		if cleaner == nil {
			return fmt.Errorf("audit event cleaner not configured")
		}

		days := task.RetentionDays
		if days <= 0 {
			days = defaultHistoryRetentionDays
		}
		retention := time.Duration(days) * 24 * time.Hour

		deleted, err := cleaner.DeleteOldEvents(retention)
		if err != nil {
			return fmt.Errorf("cleanup audit events: %w", err)
		}

		pruned := 0
		if pruner != nil {
			pruned, err = pruner.PruneOlderThan(retention)
			if err != nil {
				return fmt.Errorf("prune snapshots: %w", err)
			}
		}

		log.Printf("[TASK] Cleaned up %d audit events and %d snapshots older than %d days", deleted, pruned, days)
		return nil
	}
}

func NewCleanupHistoryQueue(cleaner AuditEventCleaner, pruner SnapshotPruner) backlite.Queue {
	return backlite.NewQueue(CleanupHistoryProcessor(cleaner, pruner))
}
