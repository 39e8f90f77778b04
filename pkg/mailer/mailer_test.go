package mailer

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPGateway_Send(t *testing.T) {
	var received sendRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/messages", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))

		json.NewEncoder(w).Encode(sendResponse{Status: "success", MessageID: "m-1"})
	}))
	defer server.Close()

	gw := NewHTTPGateway(Config{APIURL: server.URL, APIKey: "test-key", From: "frontdesk@example.com"})

	err := gw.Send(Message{
		To:      "jane@example.com",
		Subject: "Your visit is approved",
		Body:    "See attached QR code.",
	})
	require.NoError(t, err)

	assert.Equal(t, "frontdesk@example.com", received.From)
	assert.Equal(t, "jane@example.com", received.To)
	assert.Equal(t, "Your visit is approved", received.Subject)
}

func TestHTTPGateway_Send_GatewayError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(sendResponse{Status: "error", ErrCode: "E102", Comment: "invalid recipient"})
	}))
	defer server.Close()

	gw := NewHTTPGateway(Config{APIURL: server.URL, APIKey: "test-key", From: "frontdesk@example.com"})

	err := gw.Send(Message{To: "bad", Subject: "x", Body: "y"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid recipient")
}

func TestHTTPGateway_Send_HTTPFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer server.Close()

	gw := NewHTTPGateway(Config{APIURL: server.URL, APIKey: "test-key", From: "frontdesk@example.com"})

	err := gw.Send(Message{To: "jane@example.com", Subject: "x", Body: "y"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}
