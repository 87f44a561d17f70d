package entities

import "time"

// DefaultFeedKey identifies the only feed the service currently follows.
const DefaultFeedKey = "mlp:ebook"

// SyncState is the watermark and run statistics kept between sync runs.
// JSON tags keep the file layout of the original state file.
type SyncState struct {
	ID           uint      `gorm:"primaryKey" json:"-"`
	FeedKey      string    `gorm:"uniqueIndex;size:100" json:"-"`
	LastSyncDate string    `gorm:"size:10" json:"last_sync_date"` // YYYY-MM-DD
	LastRun      string    `gorm:"size:32" json:"last_run"`
	LastNewCount int       `json:"last_new_count"`
	TotalRuns    int       `json:"total_runs"`
	UpdatedAt    time.Time `json:"-"`
}

func (SyncState) TableName() string {
	return "sync_state"
}

// LastRunLayout is the timestamp format stored in LastRun.
const LastRunLayout = "2006-01-02 15:04:05"

// WatermarkLayout is the date format of LastSyncDate and of the OAI "from" argument.
const WatermarkLayout = "2006-01-02"
