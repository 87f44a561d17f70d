package entities

import "time"

type AuditEventType string

const (
	AuditEventSync     AuditEventType = "sync"
	AuditEventImport   AuditEventType = "import"
	AuditEventRepair   AuditEventType = "repair"
	AuditEventEnrich   AuditEventType = "enrich"
	AuditEventSchedule AuditEventType = "schedule"
)

type AuditStatus string

const (
	AuditStatusSuccess AuditStatus = "success"
	AuditStatusFailed  AuditStatus = "failed"
)

type AuditEvent struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	RunID       string         `gorm:"index;size:36" json:"run_id,omitempty"`
	EventType   AuditEventType `gorm:"index;size:50" json:"event_type"`
	Action      string         `gorm:"size:100" json:"action"`      // e.g., "catalog_sync", "fix_authors"
	Description string         `gorm:"size:500" json:"description"` // Human-readable summary
	EntityType  string         `gorm:"size:50" json:"entity_type"`  // "book", "author", ...
	EntityID    string         `gorm:"size:64" json:"entity_id,omitempty"`
	Metadata    string         `gorm:"type:text" json:"metadata,omitempty"` // JSON for extra data
	Status      AuditStatus    `gorm:"size:20" json:"status"`
	ErrorMsg    string         `gorm:"size:500" json:"error_msg,omitempty"`
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`
}

func (AuditEvent) TableName() string {
	return "audit_events"
}
