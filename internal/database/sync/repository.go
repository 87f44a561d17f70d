// Package sync provides database operations for run progress tracking.
//
// There is one progress row per job type; each new run resets it. The
// repository implements services.ProgressTracker.
//
// # Usage
//
//	repo := sync.NewRepository(db, entities.SyncTypeCatalog)
//	err := repo.StartSync(runID, 0)
package sync

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/eknihy-sync/internal/entities"
)

// A running row not touched for this long belongs to a dead process.
const staleAfter = 10 * time.Minute

// Repository handles sync progress rows for one job type.
type Repository struct {
	db       *gorm.DB
	syncType entities.SyncType
}

// NewRepository creates a progress repository for a job type.
func NewRepository(db *gorm.DB, syncType entities.SyncType) *Repository {
	return &Repository{db: db, syncType: syncType}
}

// SyncType returns the job type this repository tracks.
func (r *Repository) SyncType() entities.SyncType {
	return r.syncType
}

// GetSyncProgress retrieves the progress row for the configured job type.
func (r *Repository) GetSyncProgress() (*entities.SyncProgress, error) {
	var progress entities.SyncProgress
	err := r.db.Where("sync_type = ?", r.syncType).First(&progress).Error
	if err != nil {
		return nil, err
	}
	return &progress, nil
}

// ListAll returns the latest progress row of every job type.
func (r *Repository) ListAll() ([]entities.SyncProgress, error) {
	var rows []entities.SyncProgress
	err := r.db.Order("sync_type").Find(&rows).Error
	return rows, err
}

// StartSync creates or resets the progress row for a new run.
func (r *Repository) StartSync(runID string, totalItems int) error {
	var progress entities.SyncProgress
	result := r.db.Where("sync_type = ?", r.syncType).First(&progress)

	now := time.Now()
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		progress = entities.SyncProgress{
			SyncType:   r.syncType,
			RunID:      runID,
			Status:     entities.SyncStatusRunning,
			TotalItems: totalItems,
			StartedAt:  now,
			UpdatedAt:  now,
		}
		return r.db.Create(&progress).Error
	} else if result.Error != nil {
		return result.Error
	}

	progress.RunID = runID
	progress.Status = entities.SyncStatusRunning
	progress.TotalItems = totalItems
	progress.Processed = 0
	progress.Succeeded = 0
	progress.Failed = 0
	progress.Skipped = 0
	progress.CurrentItem = ""
	progress.Error = ""
	progress.StartedAt = now
	progress.UpdatedAt = now
	progress.CompletedAt = nil

	return r.db.Save(&progress).Error
}

// SetTotal records the item count once it is known, e.g. after harvesting.
func (r *Repository) SetTotal(totalItems int) error {
	return r.db.Model(&entities.SyncProgress{}).
		Where("sync_type = ?", r.syncType).
		Updates(map[string]any{
			"total_items": totalItems,
			"updated_at":  time.Now(),
		}).Error
}

// UpdateProgress updates the counters of an ongoing run.
func (r *Repository) UpdateProgress(processed, succeeded, failed, skipped int, currentItem string) error {
	return r.db.Model(&entities.SyncProgress{}).
		Where("sync_type = ?", r.syncType).
		Updates(map[string]any{
			"processed":    processed,
			"succeeded":    succeeded,
			"failed":       failed,
			"skipped":      skipped,
			"current_item": currentItem,
			"updated_at":   time.Now(),
		}).Error
}

// CompleteSync marks the run as completed or failed.
func (r *Repository) CompleteSync(succeeded bool, errorMsg string) error {
	now := time.Now()
	status := entities.SyncStatusCompleted
	if !succeeded {
		status = entities.SyncStatusFailed
	}

	updates := map[string]any{
		"status":       status,
		"current_item": "",
		"updated_at":   now,
		"completed_at": now,
	}
	if errorMsg != "" {
		updates["error"] = errorMsg
	}
	return r.db.Model(&entities.SyncProgress{}).
		Where("sync_type = ?", r.syncType).
		Updates(updates).Error
}

// IsSyncRunning reports whether a run is in progress. A stale running row
// is closed as failed and reported as not running.
func (r *Repository) IsSyncRunning() (bool, error) {
	var progress entities.SyncProgress
	err := r.db.Where("sync_type = ? AND status = ?", r.syncType, entities.SyncStatusRunning).First(&progress).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if progress.UpdatedAt.Before(time.Now().Add(-staleAfter)) {
		_ = r.CompleteSync(false, "sync was interrupted")
		return false, nil
	}

	return true, nil
}
