// Package qrtoken encodes visitor identifiers into the string embedded in
// check-in QR codes and recovers them from scanned payloads.
//
// The token is a path-like segment of the form /visitors/{id}/check-in.
// Scanned payloads may carry a full URL around it (approval emails embed the
// token in a link), so Decode accepts any string containing the segment.
package qrtoken

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrMalformedToken is returned when a scanned payload does not contain a
// valid check-in token.
var ErrMalformedToken = errors.New("malformed check-in token")

const checkInSuffix = "/check-in"

// tokenPattern matches /visitors/{id}/check-in where {id} contains no slash
var tokenPattern = regexp.MustCompile(`/visitors/([^/]+)/check-in`)

// Encode produces the check-in token for a visitor id.
func Encode(visitorID string) string {
	return "/visitors/" + visitorID + checkInSuffix
}

// EncodeURL produces a full check-in URL by joining the token onto a base
// (e.g. for approval emails). A trailing slash on base is tolerated.
func EncodeURL(base, visitorID string) string {
	return strings.TrimRight(base, "/") + Encode(visitorID)
}

// Decode recovers the visitor id embedded in a scanned payload. It fails
// with ErrMalformedToken when the marker is absent or the id segment is
// empty.
func Decode(payload string) (string, error) {
	m := tokenPattern.FindStringSubmatch(payload)
	if m == nil {
		return "", fmt.Errorf("%w: missing /visitors/{id}/check-in segment", ErrMalformedToken)
	}
	id := m[1]
	if strings.TrimSpace(id) == "" {
		return "", fmt.Errorf("%w: empty visitor id", ErrMalformedToken)
	}
	return id, nil
}
