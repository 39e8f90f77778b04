package database

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/securedesk/visitor-backend/internal/models"
)

// VisitorRepository handles visitor database operations
type VisitorRepository struct {
	db DB
}

// NewVisitorRepository creates a new visitor repository
func NewVisitorRepository(db DB) *VisitorRepository {
	return &VisitorRepository{db: db}
}

const visitorColumns = `id, full_name, email, phone, company, purpose, host_id, photo_url,
	status, pre_approved, approval_window_start, approval_window_end,
	badge_id, check_in_time, check_out_time, created_at, updated_at`

// scanVisitor scans a visitor row in visitorColumns order
func scanVisitor(row interface{ Scan(...interface{}) error }) (*models.Visitor, error) {
	var v models.Visitor
	err := row.Scan(
		&v.ID, &v.FullName, &v.Email, &v.Phone, &v.Company, &v.Purpose, &v.HostID, &v.PhotoURL,
		&v.Status, &v.PreApproved, &v.ApprovalWindowStart, &v.ApprovalWindowEnd,
		&v.BadgeID, &v.CheckInTime, &v.CheckOutTime, &v.CreatedAt, &v.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// Create inserts a new visitor record
func (r *VisitorRepository) Create(v *models.Visitor) error {
	query := `
		INSERT INTO visitors (
			id, full_name, email, phone, company, purpose, host_id, photo_url,
			status, pre_approved, approval_window_start, approval_window_end,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9::visitor_status, $10, $11, $12, $13, $14)
	`

	_, err := r.db.Exec(
		query,
		v.ID, v.FullName, v.Email, v.Phone, v.Company, v.Purpose, v.HostID, v.PhotoURL,
		v.Status, v.PreApproved, v.ApprovalWindowStart, v.ApprovalWindowEnd,
		v.CreatedAt, v.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create visitor: %w", err)
	}

	return nil
}

// GetByID fetches a single visitor
func (r *VisitorRepository) GetByID(id uuid.UUID) (*models.Visitor, error) {
	query := `SELECT ` + visitorColumns + ` FROM visitors WHERE id = $1`

	v, err := scanVisitor(r.db.QueryRow(query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, &models.NotFoundError{Resource: "visitor", ID: id.String()}
		}
		return nil, fmt.Errorf("failed to fetch visitor: %w", err)
	}

	return v, nil
}

// TransitionStatus performs a compare-and-swap status update. It reports
// whether this caller won the transition: zero rows affected means the
// visitor was not in the expected state (or does not exist), and the caller
// must re-fetch to find out which.
func (r *VisitorRepository) TransitionStatus(id uuid.UUID, from, to models.VisitorStatus) (bool, error) {
	query := `
		UPDATE visitors
		SET status = $1::visitor_status, updated_at = $2
		WHERE id = $3 AND status = $4::visitor_status
	`

	result, err := r.db.Exec(query, to, time.Now(), id, from)
	if err != nil {
		return false, fmt.Errorf("failed to transition visitor status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read transition result: %w", err)
	}

	return rows == 1, nil
}

// MarkCheckedIn atomically moves an approved visitor to checked_in, stamping
// the check-in time and assigning a badge unless one is already on record.
func (r *VisitorRepository) MarkCheckedIn(id uuid.UUID, checkInTime time.Time, badgeID string) (bool, error) {
	query := `
		UPDATE visitors
		SET status = 'checked_in'::visitor_status,
			check_in_time = $1,
			badge_id = COALESCE(badge_id, $2),
			updated_at = $3
		WHERE id = $4 AND status = 'approved'::visitor_status
	`

	result, err := r.db.Exec(query, checkInTime, badgeID, time.Now(), id)
	if err != nil {
		return false, fmt.Errorf("failed to check in visitor: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read check-in result: %w", err)
	}

	return rows == 1, nil
}

// MarkCheckedOut atomically moves a checked_in visitor to checked_out
func (r *VisitorRepository) MarkCheckedOut(id uuid.UUID, checkOutTime time.Time) (bool, error) {
	query := `
		UPDATE visitors
		SET status = 'checked_out'::visitor_status,
			check_out_time = $1,
			updated_at = $2
		WHERE id = $3 AND status = 'checked_in'::visitor_status
	`

	result, err := r.db.Exec(query, checkOutTime, time.Now(), id)
	if err != nil {
		return false, fmt.Errorf("failed to check out visitor: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read check-out result: %w", err)
	}

	return rows == 1, nil
}

// List returns visitors matching the filter, scoped to a host when hostID is
// non-empty (hosts only see their own visitors).
func (r *VisitorRepository) List(filter models.VisitorListFilter, hostID string) ([]models.Visitor, int64, error) {
	conditions := []string{}
	args := []interface{}{}
	argPos := 1

	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d::visitor_status", argPos))
		args = append(args, filter.Status)
		argPos++
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf(
			"(full_name ILIKE $%d OR email ILIKE $%d OR company ILIKE $%d)", argPos, argPos, argPos))
		args = append(args, "%"+filter.Search+"%")
		argPos++
	}
	if hostID != "" {
		conditions = append(conditions, fmt.Sprintf("host_id = $%d", argPos))
		args = append(args, hostID)
		argPos++
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int64
	countQuery := `SELECT COUNT(*) FROM visitors` + where
	if err := r.db.QueryRow(countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count visitors: %w", err)
	}

	limit := filter.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * limit

	listQuery := `SELECT ` + visitorColumns + ` FROM visitors` + where +
		fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", argPos, argPos+1)
	args = append(args, limit, offset)

	rows, err := r.db.Query(listQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list visitors: %w", err)
	}
	defer rows.Close()

	visitors := []models.Visitor{}
	for rows.Next() {
		v, err := scanVisitor(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan visitor row: %w", err)
		}
		visitors = append(visitors, *v)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to read visitor rows: %w", err)
	}

	return visitors, total, nil
}

// Stats computes the dashboard aggregates in a single pass. The today range
// is [dayStart, dayEnd) against check_in_time. hostID scopes the counts for
// host users; empty means unscoped.
func (r *VisitorRepository) Stats(hostID string, dayStart, dayEnd time.Time) (*models.DashboardStats, error) {
	query := `
		SELECT
			COUNT(*) AS total_visitors,
			COUNT(*) FILTER (WHERE check_in_time >= $1 AND check_in_time < $2) AS today_visitors,
			COUNT(*) FILTER (WHERE status = 'checked_in') AS checked_in,
			COUNT(*) FILTER (WHERE status = 'pending_approval') AS pending
		FROM visitors
	`
	args := []interface{}{dayStart, dayEnd}

	if hostID != "" {
		query += ` WHERE host_id = $3`
		args = append(args, hostID)
	}

	var stats models.DashboardStats
	err := r.db.QueryRow(query, args...).Scan(
		&stats.TotalVisitors, &stats.TodayVisitors, &stats.CheckedIn, &stats.Pending,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to compute dashboard stats: %w", err)
	}

	return &stats, nil
}
