// Package scanner drives the kiosk camera scan session: one QR decode per
// session is acted on, everything else is dropped until the operator resets.
package scanner

import "fmt"

// CaptureDevice is a QR-decoding camera. Open starts delivering decoded
// payloads to the callback from the device's own goroutine; Close stops
// delivery synchronously, so no callback arrives after Close returns.
type CaptureDevice interface {
	Open(onDecode func(payload string)) error
	Close() error
}

// DeviceUnavailableError reports that the capture device could not be
// opened (missing camera, permission denied, already in use).
type DeviceUnavailableError struct {
	Name string
	Err  error
}

func (e *DeviceUnavailableError) Error() string {
	return fmt.Sprintf("capture device %q unavailable: %v", e.Name, e.Err)
}

func (e *DeviceUnavailableError) Unwrap() error {
	return e.Err
}
