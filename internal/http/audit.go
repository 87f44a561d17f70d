package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/eknihy-sync/internal/entities"
)

type AuditController struct {
	auditService AuditReader
}

func NewAuditController(auditService AuditReader) *AuditController {
	return &AuditController{
		auditService: auditService,
	}
}

// GetAuditEvents returns paginated audit events as JSON
// GET /api/audit
func (ac *AuditController) GetAuditEvents(c *gin.Context) {
	page := queryInt(c, "page", 1)
	limit := queryInt(c, "limit", 25)

	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 25
	}

	eventType := c.Query("type")
	offset := (page - 1) * limit

	var events []entities.AuditEvent
	var total int64
	var err error

	if eventType != "" {
		events, total, err = ac.auditService.GetEventsByType(entities.AuditEventType(eventType), limit, offset)
	} else {
		events, total, err = ac.auditService.GetEvents(limit, offset)
	}

	if err != nil {
		respondInternalError(c, err, "load audit events")
		return
	}

	totalPages := (int(total) + limit - 1) / limit
	if totalPages < 1 {
		totalPages = 1
	}

	c.JSON(http.StatusOK, gin.H{
		"events":       events,
		"page":         page,
		"limit":        limit,
		"total_pages":  totalPages,
		"total_events": total,
	})
}

// GetRunEvents returns every event of one run
// GET /api/audit/runs/:id
func (ac *AuditController) GetRunEvents(c *gin.Context) {
	events, err := ac.auditService.GetRunEvents(c.Param("id"))
	if err != nil {
		respondInternalError(c, err, "load run events")
		return
	}
	c.JSON(http.StatusOK, gin.H{"run_id": c.Param("id"), "events": events})
}
