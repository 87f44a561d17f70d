// Package syncstate stores the incremental sync watermark in the service
// database, one row per feed.
package syncstate

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mrlokans/eknihy-sync/internal/entities"
)

type Repository struct {
	db      *gorm.DB
	feedKey string
}

// NewRepository creates a repository for one feed. An empty key selects
// entities.DefaultFeedKey.
func NewRepository(db *gorm.DB, feedKey string) *Repository {
	if feedKey == "" {
		feedKey = entities.DefaultFeedKey
	}
	return &Repository{db: db, feedKey: feedKey}
}

// Load returns the stored state, or nil when no run has completed yet.
func (r *Repository) Load(ctx context.Context) (*entities.SyncState, error) {
	var state entities.SyncState
	err := r.db.WithContext(ctx).Where("feed_key = ?", r.feedKey).First(&state).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &state, nil
}

// Save replaces the feed's row in a single transaction.
func (r *Repository) Save(ctx context.Context, state *entities.SyncState) error {
	row := *state
	row.ID = 0
	row.FeedKey = r.feedKey

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "feed_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"last_sync_date", "last_run", "last_new_count", "total_runs", "updated_at"}),
		}).Create(&row).Error
	})
}
