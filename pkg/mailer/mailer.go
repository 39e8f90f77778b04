// Package mailer delivers transactional email through an HTTP gateway.
// Delivery is fire-and-forget with respect to the caller's business
// transaction: failures are reported as errors but callers are expected to
// log and move on, never roll back a state transition.
package mailer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// Message is a single outbound email
type Message struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Mailer sends transactional email
type Mailer interface {
	Send(msg Message) error
}

// Config holds configuration for the HTTP email gateway
type Config struct {
	APIURL string
	APIKey string
	From   string
}

// HTTPGateway implements Mailer against a JSON transactional-email API
type HTTPGateway struct {
	apiURL string
	apiKey string
	from   string
	client *http.Client
}

// NewHTTPGateway creates a new HTTP email gateway client
func NewHTTPGateway(config Config) *HTTPGateway {
	return &HTTPGateway{
		apiURL: config.APIURL,
		apiKey: config.APIKey,
		from:   config.From,
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

type sendRequest struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

type sendResponse struct {
	Status    string `json:"status"`
	MessageID string `json:"message_id"`
	ErrCode   string `json:"err_code,omitempty"`
	Comment   string `json:"comment,omitempty"`
}

// Send posts the message to the gateway and checks the response status
func (g *HTTPGateway) Send(msg Message) error {
	payload, err := json.Marshal(sendRequest{
		From:    g.from,
		To:      msg.To,
		Subject: msg.Subject,
		Body:    msg.Body,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal email request: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, g.apiURL+"/messages", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build email request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("email gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read email gateway response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("email gateway returned HTTP %d: %s", resp.StatusCode, string(body))
	}

	var result sendResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return fmt.Errorf("failed to parse email gateway response: %w", err)
	}

	if result.Status != "success" {
		return fmt.Errorf("email gateway rejected message: %s (%s)", result.Comment, result.ErrCode)
	}

	return nil
}

// DevMailer logs messages instead of sending them. Used when MAIL_MODE=dev
// so local environments never need gateway credentials.
type DevMailer struct {
	logger *logrus.Logger
}

// NewDevMailer creates a mailer that only logs
func NewDevMailer(logger *logrus.Logger) *DevMailer {
	return &DevMailer{logger: logger}
}

// Send logs the message and always succeeds
func (m *DevMailer) Send(msg Message) error {
	m.logger.WithFields(logrus.Fields{
		"to":      msg.To,
		"subject": msg.Subject,
	}).Info("Dev mailer: email suppressed")
	return nil
}
