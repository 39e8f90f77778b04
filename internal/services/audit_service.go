package services

import (
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/securedesk/visitor-backend/internal/models"
	"github.com/securedesk/visitor-backend/internal/utils"
)

// AuditStore persists audit trail entries
type AuditStore interface {
	Insert(entry *models.AuditLog) error
	ListByVisitor(visitorID uuid.UUID, limit int) ([]models.AuditLog, error)
}

// AuditService records who did what to which visitor. Writes happen in a
// goroutine so a slow audit insert never delays the request that caused it.
type AuditService struct {
	store   AuditStore
	logger  *logrus.Logger
	enabled bool
}

// NewAuditService creates a new audit service
func NewAuditService(store AuditStore, logger *logrus.Logger, enabled bool) *AuditService {
	return &AuditService{
		store:   store,
		logger:  logger,
		enabled: enabled,
	}
}

// AuditEvent describes a single auditable action
type AuditEvent struct {
	ActorID   *uuid.UUID
	VisitorID *uuid.UUID
	Action    models.AuditAction
	Detail    string
	IPAddress string
	UserAgent string
}

// Record writes an audit entry asynchronously. The browser and OS columns
// are parsed from the raw user agent at write time.
func (s *AuditService) Record(event AuditEvent) {
	if !s.enabled {
		return
	}

	device := utils.ParseUserAgent(event.UserAgent)
	entry := &models.AuditLog{
		ActorID:   event.ActorID,
		VisitorID: event.VisitorID,
		Action:    event.Action,
		Detail:    event.Detail,
		IPAddress: event.IPAddress,
		UserAgent: event.UserAgent,
		Browser:   device.Browser,
		OS:        device.OS,
	}

	go func() {
		if err := s.store.Insert(entry); err != nil {
			s.logger.WithError(err).WithFields(logrus.Fields{
				"action":     entry.Action,
				"visitor_id": entry.VisitorID,
			}).Error("Failed to write audit log entry")
		}
	}()
}

// Trail returns the audit history for a visitor, newest first
func (s *AuditService) Trail(visitorID uuid.UUID, limit int) ([]models.AuditLog, error) {
	return s.store.ListByVisitor(visitorID, limit)
}
