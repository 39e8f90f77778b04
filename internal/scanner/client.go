package scanner

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/securedesk/visitor-backend/internal/models"
)

// TransportError reports that the backend could not be reached at all.
// Retryable: the scan session surfaces it as a network problem, not a
// rejection of the visitor.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("check-in request failed: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// APIError carries a rejection from the backend, with the JSON error code
// the handlers emit.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("check-in rejected (%d %s): %s", e.StatusCode, e.Code, e.Message)
}

// Client calls the visitor backend's check-in endpoint on behalf of the
// kiosk.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient creates a check-in client. token is the kiosk's access token.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// CheckIn submits a check-in for the scanned visitor and returns the
// updated record.
func (c *Client) CheckIn(visitorID string) (*models.Visitor, error) {
	url := c.baseURL + "/api/v1/visitors/" + visitorID + "/check-in"

	req, err := http.NewRequest(http.MethodPut, url, bytes.NewReader(nil))
	if err != nil {
		return nil, fmt.Errorf("failed to build check-in request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Err: err}
	}

	if resp.StatusCode == http.StatusOK {
		var result models.VisitorResponse
		if err := json.Unmarshal(body, &result); err != nil {
			return nil, &TransportError{Err: fmt.Errorf("malformed response: %w", err)}
		}
		return result.Visitor, nil
	}

	apiErr := &APIError{StatusCode: resp.StatusCode}
	var errBody struct {
		Message string `json:"message"`
		Code    string `json:"code"`
	}
	if err := json.Unmarshal(body, &errBody); err == nil {
		apiErr.Code = errBody.Code
		apiErr.Message = errBody.Message
	} else {
		apiErr.Message = string(body)
	}

	return nil, apiErr
}
