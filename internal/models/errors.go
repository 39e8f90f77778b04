package models

import (
	"errors"
	"fmt"
	"time"
)

// ValidationError reports malformed or incomplete input at creation time.
// Never retried automatically.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NotFoundError reports that the referenced visitor does not exist.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// InvalidStateError reports a transition attempted from a state that forbids
// it. Always names the current state and the attempted transition.
type InvalidStateError struct {
	Current   VisitorStatus
	Attempted string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("cannot %s visitor in state %q", e.Attempted, e.Current)
}

// WindowExpiredError reports a pre-approval check-in attempted outside the
// authorized window. Distinct from InvalidStateError so the operator message
// can explain timing rather than workflow order.
type WindowExpiredError struct {
	Start time.Time
	End   time.Time
	Now   time.Time
}

func (e *WindowExpiredError) Error() string {
	if e.Now.Before(e.Start) {
		return fmt.Sprintf("pre-approval window has not started (opens %s)", e.Start.Format(time.RFC3339))
	}
	return fmt.Sprintf("pre-approval window expired at %s", e.End.Format(time.RFC3339))
}

// Error kind helpers used by handlers and the scan client to map errors onto
// HTTP statuses and operator-facing reasons without string matching.

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func IsNotFound(err error) bool {
	var nfe *NotFoundError
	return errors.As(err, &nfe)
}

func IsInvalidState(err error) bool {
	var ise *InvalidStateError
	return errors.As(err, &ise)
}

func IsWindowExpired(err error) bool {
	var wee *WindowExpiredError
	return errors.As(err, &wee)
}
