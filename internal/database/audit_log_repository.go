package database

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/securedesk/visitor-backend/internal/models"
)

// AuditLogRepository handles audit_logs database operations
type AuditLogRepository struct {
	db DB
}

// NewAuditLogRepository creates a new audit log repository
func NewAuditLogRepository(db DB) *AuditLogRepository {
	return &AuditLogRepository{db: db}
}

// Insert writes an audit log entry
func (r *AuditLogRepository) Insert(entry *models.AuditLog) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO audit_logs (
			id, actor_id, visitor_id, action, detail,
			ip_address, user_agent, browser, os, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.db.Exec(
		query,
		entry.ID,
		entry.ActorID,
		entry.VisitorID,
		entry.Action,
		entry.Detail,
		entry.IPAddress,
		entry.UserAgent,
		entry.Browser,
		entry.OS,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert audit log: %w", err)
	}

	return nil
}

// ListByVisitor returns the audit trail for a visitor, newest first
func (r *AuditLogRepository) ListByVisitor(visitorID uuid.UUID, limit int) ([]models.AuditLog, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	query := `
		SELECT id, actor_id, visitor_id, action, detail,
			ip_address, user_agent, browser, os, created_at
		FROM audit_logs
		WHERE visitor_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	entries := []models.AuditLog{}
	if err := r.db.Select(&entries, query, visitorID, limit); err != nil {
		return nil, fmt.Errorf("failed to list audit logs: %w", err)
	}

	return entries, nil
}
