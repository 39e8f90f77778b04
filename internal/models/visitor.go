package models

import (
	"time"

	"github.com/google/uuid"
)

// VisitorStatus represents the lifecycle state of a visitor.
// Matches PostgreSQL ENUM: visitor_status
type VisitorStatus string

const (
	StatusPendingApproval VisitorStatus = "pending_approval" // Awaiting host/admin decision
	StatusApproved        VisitorStatus = "approved"         // Cleared for check-in
	StatusRejected        VisitorStatus = "rejected"         // Terminal
	StatusCheckedIn       VisitorStatus = "checked_in"       // On premises
	StatusCheckedOut      VisitorStatus = "checked_out"      // Terminal
)

// IsTerminal reports whether no further transition is allowed from s.
func (s VisitorStatus) IsTerminal() bool {
	return s == StatusRejected || s == StatusCheckedOut
}

// Visitor represents a visit record (visitors table)
type Visitor struct {
	ID       uuid.UUID `json:"id" db:"id"`
	FullName string    `json:"full_name" db:"full_name"`
	Email    string    `json:"email" db:"email"`
	Phone    string    `json:"phone" db:"phone"`
	Company  string    `json:"company" db:"company"`
	Purpose  string    `json:"purpose" db:"purpose"`
	HostID   string    `json:"host_id" db:"host_id"`
	PhotoURL *string   `json:"photo_url,omitempty" db:"photo_url"`

	Status VisitorStatus `json:"status" db:"status"`

	// Pre-approval window; both set iff PreApproved, immutable after creation
	PreApproved         bool       `json:"pre_approved" db:"pre_approved"`
	ApprovalWindowStart *time.Time `json:"approval_window_start,omitempty" db:"approval_window_start"`
	ApprovalWindowEnd   *time.Time `json:"approval_window_end,omitempty" db:"approval_window_end"`

	BadgeID      *string    `json:"badge_id,omitempty" db:"badge_id"`
	CheckInTime  *time.Time `json:"check_in_time,omitempty" db:"check_in_time"`
	CheckOutTime *time.Time `json:"check_out_time,omitempty" db:"check_out_time"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// WindowContains reports whether t falls inside the pre-approval window.
// Always false for visitors that are not pre-approved.
func (v *Visitor) WindowContains(t time.Time) bool {
	if !v.PreApproved || v.ApprovalWindowStart == nil || v.ApprovalWindowEnd == nil {
		return false
	}
	return !t.Before(*v.ApprovalWindowStart) && !t.After(*v.ApprovalWindowEnd)
}

// CreateVisitorRequest is the request body for registering a visitor.
// The pre-approval endpoint reuses it with PreApproved forced true.
type CreateVisitorRequest struct {
	FullName string  `json:"full_name" binding:"required"`
	Email    string  `json:"email"`
	Phone    string  `json:"phone"`
	Company  string  `json:"company"`
	Purpose  string  `json:"purpose"`
	HostID   string  `json:"host_id"`
	PhotoURL *string `json:"photo_url,omitempty"`

	PreApproved         bool       `json:"pre_approved"`
	ApprovalWindowStart *time.Time `json:"approval_window_start,omitempty"`
	ApprovalWindowEnd   *time.Time `json:"approval_window_end,omitempty"`
}

// VisitorResponse wraps a visitor plus the check-in token the badge QR encodes
type VisitorResponse struct {
	Visitor *Visitor `json:"visitor"`
	QRCode  string   `json:"qr_code,omitempty"`
}

// VisitorListFilter holds query parameters for GET /visitors
type VisitorListFilter struct {
	Status string // empty = all
	Search string // matches full_name, email, company
	Page   int
	Limit  int
}

// VisitorListResponse is the paginated list payload
type VisitorListResponse struct {
	Visitors []Visitor `json:"visitors"`
	Total    int64     `json:"total"`
	Page     int       `json:"page"`
	Limit    int       `json:"limit"`
}

// DashboardStats holds the aggregate counts for the dashboard
type DashboardStats struct {
	TotalVisitors int64 `json:"total_visitors" db:"total_visitors"`
	TodayVisitors int64 `json:"today_visitors" db:"today_visitors"`
	CheckedIn     int64 `json:"checked_in" db:"checked_in"`
	Pending       int64 `json:"pending" db:"pending"`
}
