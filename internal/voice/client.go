// Package voice places outbound calls through an HTTP voice gateway.
package voice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"revenue_backend/platform/config"
	"revenue_backend/platform/logger"
	"revenue_backend/platform/phone"
)

// Call statuses reported by the gateway.
const (
	StatusAnswered  = "answered"
	StatusNoAnswer  = "no_answer"
	StatusVoicemail = "voicemail"
)

type Client struct {
	baseURL  string
	apiKey   string
	callerID string
	http     *http.Client
	log      *logger.Logger
}

type callRequest struct {
	To     string `json:"to"`
	From   string `json:"from,omitempty"`
	Script string `json:"script"`
}

type callResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// NewClient returns nil when no gateway is configured.
func NewClient(cfg config.VoiceConfig, log *logger.Logger) *Client {
	if cfg.GetVoiceGatewayURL() == "" {
		return nil
	}

	return &Client{
		baseURL:  strings.TrimRight(cfg.GetVoiceGatewayURL(), "/"),
		apiKey:   cfg.GetVoiceGatewayKey(),
		callerID: cfg.GetVoiceCallerID(),
		http:     &http.Client{Timeout: 30 * time.Second},
		log:      log,
	}
}

// PlaceCall dials phoneNumber, plays script and returns the call status.
func (c *Client) PlaceCall(ctx context.Context, phoneNumber, script string) (string, error) {
	if c == nil {
		return "", fmt.Errorf("voice gateway not configured")
	}

	normalized := phone.NormalizeE164(phoneNumber)
	body, err := json.Marshal(callRequest{To: normalized, From: c.callerID, Script: script})
	if err != nil {
		return "", fmt.Errorf("marshal voice payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/calls", bytes.NewBuffer(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("voice request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= http.StatusBadRequest {
		data, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("voice gateway returned %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	var out callResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode voice response: %w", err)
	}

	switch out.Status {
	case StatusAnswered, StatusNoAnswer, StatusVoicemail:
	default:
		return "", fmt.Errorf("voice gateway returned unknown status %q", out.Status)
	}

	c.log.Debug("voice call placed", "phone", normalized, "call_id", out.ID, "status", out.Status)
	return out.Status, nil
}
