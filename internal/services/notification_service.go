package services

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/securedesk/visitor-backend/internal/models"
	"github.com/securedesk/visitor-backend/pkg/mailer"
	"github.com/securedesk/visitor-backend/pkg/qrtoken"
)

// NotificationService sends lifecycle emails. Every send runs in its own
// goroutine: notification failures are logged, never surfaced to the request
// that triggered them, and never roll back a state transition.
type NotificationService struct {
	mailer    mailer.Mailer
	logger    *logrus.Logger
	publicURL string
}

// NewNotificationService creates a new notification service. publicURL is
// the externally reachable base URL embedded in check-in links.
func NewNotificationService(m mailer.Mailer, logger *logrus.Logger, publicURL string) *NotificationService {
	return &NotificationService{
		mailer:    m,
		logger:    logger,
		publicURL: publicURL,
	}
}

// VisitorApproved emails the visitor their check-in QR link
func (s *NotificationService) VisitorApproved(v *models.Visitor) {
	if v.Email == "" {
		return
	}

	link := qrtoken.EncodeURL(s.publicURL, v.ID.String())
	msg := mailer.Message{
		To:      v.Email,
		Subject: "Your visit is approved",
		Body: fmt.Sprintf(
			"Hello %s,\n\nYour visit has been approved. Present this link as a QR code at the front desk to check in:\n\n%s\n",
			v.FullName, link,
		),
	}
	if v.PreApproved && v.ApprovalWindowStart != nil && v.ApprovalWindowEnd != nil {
		msg.Body += fmt.Sprintf(
			"\nYour check-in window is %s to %s.\n",
			v.ApprovalWindowStart.Format("Mon, 02 Jan 2006 15:04"),
			v.ApprovalWindowEnd.Format("Mon, 02 Jan 2006 15:04"),
		)
	}

	s.dispatch(v, "approval", msg)
}

// VisitorRejected emails the visitor that the visit was declined
func (s *NotificationService) VisitorRejected(v *models.Visitor) {
	if v.Email == "" {
		return
	}

	s.dispatch(v, "rejection", mailer.Message{
		To:      v.Email,
		Subject: "Your visit request was declined",
		Body: fmt.Sprintf(
			"Hello %s,\n\nUnfortunately your visit request could not be approved. Please contact your host for details.\n",
			v.FullName,
		),
	})
}

// HostHasPendingVisitor tells the host a walk-in is waiting for a decision.
// Host accounts use their email address as the notification target.
func (s *NotificationService) HostHasPendingVisitor(v *models.Visitor) {
	// TODO: resolve host_id to the host's email once directory sync lands;
	// until then the dashboard pending count is the host's signal.
	s.logger.WithFields(logrus.Fields{
		"visitor_id": v.ID,
		"host_id":    v.HostID,
	}).Info("Visitor pending host decision")
}

// VisitorArrived confirms a completed check-in to the visitor
func (s *NotificationService) VisitorArrived(v *models.Visitor) {
	if v.Email == "" {
		return
	}

	badge := ""
	if v.BadgeID != nil {
		badge = *v.BadgeID
	}

	s.dispatch(v, "arrival", mailer.Message{
		To:      v.Email,
		Subject: "Checked in",
		Body: fmt.Sprintf(
			"Hello %s,\n\nYou are checked in. Your badge is %s. Please wear it visibly and return it when leaving.\n",
			v.FullName, badge,
		),
	})
}

func (s *NotificationService) dispatch(v *models.Visitor, kind string, msg mailer.Message) {
	go func() {
		if err := s.mailer.Send(msg); err != nil {
			s.logger.WithError(err).WithFields(logrus.Fields{
				"visitor_id": v.ID,
				"kind":       kind,
			}).Error("Failed to send notification email")
			return
		}
		s.logger.WithFields(logrus.Fields{
			"visitor_id": v.ID,
			"kind":       kind,
		}).Info("Notification email sent")
	}()
}
