package models

import (
	"time"

	"github.com/google/uuid"
)

// AuditAction identifies what happened
type AuditAction string

const (
	AuditLogin           AuditAction = "login"
	AuditVisitorCreated  AuditAction = "visitor_created"
	AuditVisitorApproved AuditAction = "visitor_approved"
	AuditVisitorRejected AuditAction = "visitor_rejected"
	AuditCheckIn         AuditAction = "check_in"
	AuditCheckOut        AuditAction = "check_out"
)

// AuditLog records who did what to which visitor (audit_logs table).
// Browser and OS are parsed from the raw user agent at write time.
type AuditLog struct {
	ID        uuid.UUID   `json:"id" db:"id"`
	ActorID   *uuid.UUID  `json:"actor_id,omitempty" db:"actor_id"`
	VisitorID *uuid.UUID  `json:"visitor_id,omitempty" db:"visitor_id"`
	Action    AuditAction `json:"action" db:"action"`
	Detail    string      `json:"detail" db:"detail"`
	IPAddress string      `json:"ip_address" db:"ip_address"`
	UserAgent string      `json:"user_agent" db:"user_agent"`
	Browser   string      `json:"browser" db:"browser"`
	OS        string      `json:"os" db:"os"`
	CreatedAt time.Time   `json:"created_at" db:"created_at"`
}
