package services

import (
	"time"

	"github.com/securedesk/visitor-backend/internal/models"
)

// DashboardService computes the front-desk dashboard aggregates
type DashboardService struct {
	store VisitorStore
	now   func() time.Time
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(store VisitorStore) *DashboardService {
	return &DashboardService{store: store, now: time.Now}
}

// Stats returns the aggregate counts visible to the requesting user. The
// "today" bucket is the server's local calendar day.
func (s *DashboardService) Stats(user *models.User) (*models.DashboardStats, error) {
	hostID := ""
	if user != nil && !user.CanViewAllVisitors() {
		hostID = user.ID.String()
	}

	now := s.now()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	dayEnd := dayStart.Add(24 * time.Hour)

	return s.store.Stats(hostID, dayStart, dayEnd)
}
