package scanner

import (
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/securedesk/visitor-backend/internal/models"
	"github.com/securedesk/visitor-backend/pkg/qrtoken"
)

// State is the lifecycle state of a scan session
type State string

const (
	StateIdle     State = "idle"
	StateScanning State = "scanning"
	StateSuccess  State = "success"
	StateError    State = "error"
)

// Reason explains why a session ended in StateError
type Reason string

const (
	ReasonNone              Reason = ""
	ReasonInvalidQRFormat   Reason = "invalid_qr_format"
	ReasonNotEligible       Reason = "not_eligible"
	ReasonWindowExpired     Reason = "window_expired"
	ReasonNetworkError      Reason = "network_error"
	ReasonDeviceUnavailable Reason = "device_unavailable"
)

// Result is the terminal outcome of a scan session
type Result struct {
	State   State
	Reason  Reason
	Message string
	Visitor *models.Visitor
}

// CheckInCaller submits a check-in for a decoded visitor id
type CheckInCaller interface {
	CheckIn(visitorID string) (*models.Visitor, error)
}

// Session serializes camera decodes onto at most one check-in call. Camera
// hardware fires the decode callback repeatedly for the same physical code;
// the first decode claims the session and every later one is dropped, even
// while the check-in request is still in flight. Once the session completes
// (success or error) it stays completed until Reset.
type Session struct {
	device CaptureDevice
	client CheckInCaller
	logger *logrus.Logger

	mu         sync.Mutex
	generation int
	active     bool
	consumed   bool
	result     Result
}

// NewSession creates a session in the idle state
func NewSession(device CaptureDevice, client CheckInCaller, logger *logrus.Logger) *Session {
	return &Session{
		device: device,
		client: client,
		logger: logger,
		result: Result{State: StateIdle},
	}
}

// Start opens the capture device and begins accepting decodes. Calling
// Start on an already running session is a no-op.
func (s *Session) Start() error {
	s.mu.Lock()
	if s.active {
		s.mu.Unlock()
		return nil
	}
	s.generation++
	gen := s.generation
	s.active = true
	s.consumed = false
	s.result = Result{State: StateIdle}
	s.mu.Unlock()

	if err := s.device.Open(s.HandleDecode); err != nil {
		s.mu.Lock()
		if gen == s.generation {
			s.active = false
			s.result = Result{
				State:   StateError,
				Reason:  ReasonDeviceUnavailable,
				Message: err.Error(),
			}
		}
		s.mu.Unlock()
		return err
	}

	// Only now is the camera actually delivering frames. A decode that
	// raced Open and already finished the session must not be overwritten.
	s.mu.Lock()
	if gen == s.generation && s.active {
		s.result = Result{State: StateScanning}
	}
	s.mu.Unlock()

	return nil
}

// HandleDecode is the camera callback. The first decode of a session claims
// it before any blocking work starts; duplicates and late decodes return
// immediately.
func (s *Session) HandleDecode(payload string) {
	s.mu.Lock()
	if !s.active || s.consumed {
		s.mu.Unlock()
		return
	}
	s.consumed = true
	gen := s.generation
	s.mu.Unlock()

	visitorID, err := qrtoken.Decode(payload)
	if err != nil {
		s.logger.WithError(err).Warn("Scanned payload is not a check-in token")
		s.complete(gen, Result{
			State:   StateError,
			Reason:  ReasonInvalidQRFormat,
			Message: err.Error(),
		})
		return
	}

	visitor, err := s.client.CheckIn(visitorID)
	if err != nil {
		s.logger.WithError(err).WithField("visitor_id", visitorID).Warn("Check-in call failed")
		s.complete(gen, Result{
			State:   StateError,
			Reason:  classify(err),
			Message: err.Error(),
		})
		return
	}

	// The backend accepted the call but the visitor must actually be on
	// premises now; anything else is not a completed check-in.
	if visitor == nil || visitor.Status != models.StatusCheckedIn {
		status := "unknown"
		if visitor != nil {
			status = string(visitor.Status)
		}
		s.logger.WithField("visitor_id", visitorID).WithField("status", status).
			Warn("Check-in response did not leave visitor checked in")
		s.complete(gen, Result{
			State:   StateError,
			Reason:  ReasonNotEligible,
			Message: fmt.Sprintf("check-in left visitor in status %q", status),
			Visitor: visitor,
		})
		return
	}

	s.complete(gen, Result{State: StateSuccess, Visitor: visitor})
}

// complete records the outcome unless the session was stopped or reset
// while the check-in call was in flight. A stale completion belongs to a
// dead session and must not touch the current one.
func (s *Session) complete(gen int, result Result) {
	s.mu.Lock()
	if gen != s.generation || !s.active {
		s.mu.Unlock()
		s.logger.Debug("Dropping stale scan completion")
		return
	}
	s.active = false
	s.result = result
	s.mu.Unlock()

	if err := s.device.Close(); err != nil {
		s.logger.WithError(err).Warn("Failed to close capture device")
	}
}

// Stop ends the session and releases the camera. Safe to call repeatedly
// and from any state; an in-flight check-in keeps running but its outcome
// is discarded.
func (s *Session) Stop() {
	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		return
	}
	s.active = false
	s.generation++
	s.result = Result{State: StateIdle}
	s.mu.Unlock()

	if err := s.device.Close(); err != nil {
		s.logger.WithError(err).Warn("Failed to close capture device")
	}
}

// Reset stops the current session and starts a fresh one
func (s *Session) Reset() error {
	s.Stop()
	return s.Start()
}

// Result returns the session's current outcome
func (s *Session) Result() Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result
}

// classify maps a check-in call failure onto the operator-facing reason
func classify(err error) Reason {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case http.StatusUnprocessableEntity:
			return ReasonWindowExpired
		case http.StatusNotFound, http.StatusConflict, http.StatusBadRequest:
			return ReasonNotEligible
		}
		return ReasonNotEligible
	}
	return ReasonNetworkError
}
