package audit

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/mrlokans/eknihy-sync/internal/database/audit"
	"github.com/mrlokans/eknihy-sync/internal/entities"
)

// Service provides high-level audit logging functionality.
type Service struct {
	repo    *audit.Repository
	pending sync.WaitGroup
}

// NewService creates a new audit service.
func NewService(repo *audit.Repository) *Service {
	return &Service{repo: repo}
}

// Log records a generic audit event.
func (s *Service) Log(event *entities.AuditEvent) error {
	return s.repo.LogEvent(event)
}

// LogAsync records an audit event in the background (non-blocking).
func (s *Service) LogAsync(event *entities.AuditEvent) {
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		if err := s.repo.LogEvent(event); err != nil {
			log.Printf("Failed to log audit event: %v", err)
		}
	}()
}

// Flush waits for background writes. CLI commands call it before exiting.
func (s *Service) Flush() {
	s.pending.Wait()
}

// LogRun records the outcome of one job run with its counters.
func (s *Service) LogRun(runID string, eventType entities.AuditEventType, action, description string, counts map[string]any, err error) {
	event := &entities.AuditEvent{
		RunID:       runID,
		EventType:   eventType,
		Action:      action,
		Description: truncate(description, 500),
		EntityType:  "book",
		Status:      entities.AuditStatusSuccess,
	}

	if len(counts) > 0 {
		if mdBytes, e := json.Marshal(counts); e == nil {
			event.Metadata = string(mdBytes)
		}
	}

	if err != nil {
		event.Status = entities.AuditStatusFailed
		event.ErrorMsg = truncate(err.Error(), 500)
	}

	s.LogAsync(event)
}

// LogEntity records a single change made in the content backend, e.g. an
// author attached to a book.
func (s *Service) LogEntity(runID string, eventType entities.AuditEventType, action, entityType, entityID, description string) {
	s.LogAsync(&entities.AuditEvent{
		RunID:       runID,
		EventType:   eventType,
		Action:      action,
		Description: truncate(description, 500),
		EntityType:  entityType,
		EntityID:    entityID,
		Status:      entities.AuditStatusSuccess,
	})
}

// LogSchedule records a scheduler state change.
func (s *Service) LogSchedule(action, description string) {
	s.LogAsync(&entities.AuditEvent{
		EventType:   entities.AuditEventSchedule,
		Action:      action,
		Description: description,
		Status:      entities.AuditStatusSuccess,
	})
}

// GetEvents retrieves paginated audit events.
func (s *Service) GetEvents(limit, offset int) ([]entities.AuditEvent, int64, error) {
	return s.repo.GetEvents(limit, offset)
}

// GetEventsByType retrieves audit events filtered by type.
func (s *Service) GetEventsByType(eventType entities.AuditEventType, limit, offset int) ([]entities.AuditEvent, int64, error) {
	return s.repo.GetEventsByType(eventType, limit, offset)
}

// GetRunEvents retrieves the events of one run.
func (s *Service) GetRunEvents(runID string) ([]entities.AuditEvent, error) {
	return s.repo.GetEventsByRun(runID)
}

// DeleteOldEvents removes events older than the specified duration.
func (s *Service) DeleteOldEvents(retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention)
	return s.repo.DeleteOldEvents(cutoff)
}

// truncate shortens a string to max length.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
