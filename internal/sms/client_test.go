package sms

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"revenue_backend/platform/config"
	"revenue_backend/platform/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClientWithoutGateway(t *testing.T) {
	client := NewClient(&config.Config{}, logger.Discard())
	assert.Nil(t, client)
	assert.NoError(t, client.SendMessage(context.Background(), "+31612345678", "hi"))
}

func TestSendMessage(t *testing.T) {
	var got messageRequest
	var path, auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		auth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	client := NewClient(&config.Config{
		SMSGatewayURL: srv.URL + "/",
		SMSGatewayKey: "user:pass",
		SMSSenderID:   "Revenue",
	}, logger.Discard())

	require.NoError(t, client.SendMessage(context.Background(), "06 12345678", "Quick question"))
	assert.Equal(t, "/messages", path)
	assert.Equal(t, "Basic dXNlcjpwYXNz", auth)
	assert.Equal(t, "+31612345678", got.To)
	assert.Equal(t, "Revenue", got.From)
	assert.Equal(t, "Quick question", got.Body)
}

func TestSendMessageGatewayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid destination", http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	client := NewClient(&config.Config{SMSGatewayURL: srv.URL}, logger.Discard())
	err := client.SendMessage(context.Background(), "+31612345678", "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "422")
	assert.Contains(t, err.Error(), "invalid destination")
}
