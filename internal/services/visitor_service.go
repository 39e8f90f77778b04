package services

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/securedesk/visitor-backend/internal/models"
	"github.com/securedesk/visitor-backend/pkg/validator"
)

// VisitorStore is the persistence surface the lifecycle engine needs. The
// compare-and-swap methods report whether the caller won the transition so
// concurrent requests on the same visitor serialize without row locks.
type VisitorStore interface {
	Create(v *models.Visitor) error
	GetByID(id uuid.UUID) (*models.Visitor, error)
	TransitionStatus(id uuid.UUID, from, to models.VisitorStatus) (bool, error)
	MarkCheckedIn(id uuid.UUID, checkInTime time.Time, badgeID string) (bool, error)
	MarkCheckedOut(id uuid.UUID, checkOutTime time.Time) (bool, error)
	List(filter models.VisitorListFilter, hostID string) ([]models.Visitor, int64, error)
	Stats(hostID string, dayStart, dayEnd time.Time) (*models.DashboardStats, error)
}

// VisitorService drives the visitor lifecycle: registration, approval
// decisions, and badge check-in/check-out.
type VisitorService struct {
	store       VisitorStore
	notifier    *NotificationService
	logger      *logrus.Logger
	emails      *validator.EmailValidator
	badgePrefix string
	now         func() time.Time
}

// NewVisitorService creates a new visitor service
func NewVisitorService(store VisitorStore, notifier *NotificationService, logger *logrus.Logger, badgePrefix string) *VisitorService {
	return &VisitorService{
		store:       store,
		notifier:    notifier,
		logger:      logger,
		emails:      validator.NewEmailValidator(),
		badgePrefix: badgePrefix,
		now:         time.Now,
	}
}

// Register creates a walk-in visitor awaiting a host decision
func (s *VisitorService) Register(req *models.CreateVisitorRequest) (*models.Visitor, error) {
	if strings.TrimSpace(req.HostID) == "" {
		return nil, &models.ValidationError{Field: "host_id", Message: "host is required"}
	}
	if req.ApprovalWindowStart != nil || req.ApprovalWindowEnd != nil {
		return nil, &models.ValidationError{Field: "approval_window_start", Message: "approval window is only valid for pre-approved visitors"}
	}

	v, err := s.buildVisitor(req, false)
	if err != nil {
		return nil, err
	}
	v.Status = models.StatusPendingApproval

	if err := s.store.Create(v); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"visitor_id": v.ID,
		"host_id":    v.HostID,
	}).Info("Visitor registered, awaiting approval")

	s.notifier.HostHasPendingVisitor(v)

	return v, nil
}

// PreApprove creates a visitor that is already cleared for check-in within
// an authorization window. The visitor receives the check-in QR link by
// email, so an address is mandatory here.
func (s *VisitorService) PreApprove(req *models.CreateVisitorRequest) (*models.Visitor, error) {
	if strings.TrimSpace(req.Email) == "" {
		return nil, &models.ValidationError{Field: "email", Message: "email is required for pre-approved visitors"}
	}
	if req.ApprovalWindowStart == nil || req.ApprovalWindowEnd == nil {
		return nil, &models.ValidationError{Field: "approval_window_start", Message: "approval window start and end are required"}
	}
	if !req.ApprovalWindowStart.Before(*req.ApprovalWindowEnd) {
		return nil, &models.ValidationError{Field: "approval_window_end", Message: "window end must be after window start"}
	}
	if req.ApprovalWindowStart.Before(s.now()) {
		return nil, &models.ValidationError{Field: "approval_window_start", Message: "window start must be in the future"}
	}

	v, err := s.buildVisitor(req, true)
	if err != nil {
		return nil, err
	}
	v.Status = models.StatusApproved
	v.ApprovalWindowStart = req.ApprovalWindowStart
	v.ApprovalWindowEnd = req.ApprovalWindowEnd

	if err := s.store.Create(v); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"visitor_id":   v.ID,
		"window_start": v.ApprovalWindowStart,
		"window_end":   v.ApprovalWindowEnd,
	}).Info("Pre-approved visitor created")

	s.notifier.VisitorApproved(v)

	return v, nil
}

func (s *VisitorService) buildVisitor(req *models.CreateVisitorRequest, preApproved bool) (*models.Visitor, error) {
	if strings.TrimSpace(req.FullName) == "" {
		return nil, &models.ValidationError{Field: "full_name", Message: "full name is required"}
	}
	if strings.TrimSpace(req.Purpose) == "" {
		return nil, &models.ValidationError{Field: "purpose", Message: "purpose of visit is required"}
	}

	email := ""
	if req.Email != "" {
		sanitized, err := s.emails.Validate(req.Email)
		if err != nil {
			return nil, &models.ValidationError{Field: "email", Message: err.Error()}
		}
		email = sanitized
	}

	created := s.now()
	return &models.Visitor{
		ID:          uuid.New(),
		FullName:    strings.TrimSpace(req.FullName),
		Email:       email,
		Phone:       strings.TrimSpace(req.Phone),
		Company:     strings.TrimSpace(req.Company),
		Purpose:     strings.TrimSpace(req.Purpose),
		HostID:      strings.TrimSpace(req.HostID),
		PhotoURL:    req.PhotoURL,
		PreApproved: preApproved,
		CreatedAt:   created,
		UpdatedAt:   created,
	}, nil
}

// Approve moves a pending visitor to approved. Concurrent decisions on the
// same visitor are serialized by the store: the loser gets an
// InvalidStateError naming the state the winner left behind.
func (s *VisitorService) Approve(id uuid.UUID) (*models.Visitor, error) {
	won, err := s.store.TransitionStatus(id, models.StatusPendingApproval, models.StatusApproved)
	if err != nil {
		return nil, err
	}
	if !won {
		return nil, s.transitionConflict(id, "approve")
	}

	v, err := s.store.GetByID(id)
	if err != nil {
		return nil, err
	}

	s.logger.WithField("visitor_id", id).Info("Visitor approved")
	s.notifier.VisitorApproved(v)

	return v, nil
}

// Reject moves a pending visitor to the terminal rejected state
func (s *VisitorService) Reject(id uuid.UUID) (*models.Visitor, error) {
	won, err := s.store.TransitionStatus(id, models.StatusPendingApproval, models.StatusRejected)
	if err != nil {
		return nil, err
	}
	if !won {
		return nil, s.transitionConflict(id, "reject")
	}

	v, err := s.store.GetByID(id)
	if err != nil {
		return nil, err
	}

	s.logger.WithField("visitor_id", id).Info("Visitor rejected")
	s.notifier.VisitorRejected(v)

	return v, nil
}

// CheckIn moves an approved visitor to checked_in, assigning a badge and
// stamping the arrival time. Pre-approved visitors must arrive inside their
// authorization window; outside it the status is left untouched and a
// WindowExpiredError is returned so the kiosk can explain the timing.
func (s *VisitorService) CheckIn(id uuid.UUID) (*models.Visitor, error) {
	current, err := s.store.GetByID(id)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if current.Status == models.StatusApproved && current.PreApproved && !current.WindowContains(now) {
		return nil, &models.WindowExpiredError{
			Start: *current.ApprovalWindowStart,
			End:   *current.ApprovalWindowEnd,
			Now:   now,
		}
	}

	won, err := s.store.MarkCheckedIn(id, now, s.generateBadgeID())
	if err != nil {
		return nil, err
	}
	if !won {
		return nil, s.transitionConflict(id, "check in")
	}

	v, err := s.store.GetByID(id)
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"visitor_id": v.ID,
		"badge_id":   v.BadgeID,
	}).Info("Visitor checked in")
	s.notifier.VisitorArrived(v)

	return v, nil
}

// CheckOut moves a checked_in visitor to the terminal checked_out state
func (s *VisitorService) CheckOut(id uuid.UUID) (*models.Visitor, error) {
	won, err := s.store.MarkCheckedOut(id, s.now())
	if err != nil {
		return nil, err
	}
	if !won {
		return nil, s.transitionConflict(id, "check out")
	}

	v, err := s.store.GetByID(id)
	if err != nil {
		return nil, err
	}

	s.logger.WithField("visitor_id", id).Info("Visitor checked out")

	return v, nil
}

// Get fetches a single visitor
func (s *VisitorService) Get(id uuid.UUID) (*models.Visitor, error) {
	return s.store.GetByID(id)
}

// List returns visitors visible to the requesting user. Hosts only see
// visitors assigned to them; admin and security see everything.
func (s *VisitorService) List(filter models.VisitorListFilter, user *models.User) (*models.VisitorListResponse, error) {
	hostID := ""
	if user != nil && !user.CanViewAllVisitors() {
		hostID = user.ID.String()
	}

	visitors, total, err := s.store.List(filter, hostID)
	if err != nil {
		return nil, err
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	limit := filter.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	return &models.VisitorListResponse{
		Visitors: visitors,
		Total:    total,
		Page:     page,
		Limit:    limit,
	}, nil
}

// transitionConflict turns a lost compare-and-swap into the right error: the
// visitor either no longer exists or sits in a state that forbids the
// attempted transition.
func (s *VisitorService) transitionConflict(id uuid.UUID, attempted string) error {
	v, err := s.store.GetByID(id)
	if err != nil {
		return err
	}
	return &models.InvalidStateError{Current: v.Status, Attempted: attempted}
}

// generateBadgeID produces a short printable badge identifier, e.g. VIS-3FA29C01
func (s *VisitorService) generateBadgeID() string {
	raw := strings.ReplaceAll(uuid.New().String(), "-", "")
	return s.badgePrefix + "-" + strings.ToUpper(raw[:8])
}
