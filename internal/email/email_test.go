package email

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"revenue_backend/platform/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderCycleReport(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	subject, content, err := renderCycleReport(CycleReport{
		CycleNumber:      12,
		Trigger:          "scheduler",
		StartedAt:        start,
		EndedAt:          start.Add(2500 * time.Millisecond),
		Leads:            100,
		DealsClosed:      3,
		RevenueThisCycle: 8491,
		TotalRevenue:     1234567,
		StageErrors:      []string{"voice: provider <down>"},
	})
	require.NoError(t, err)

	assert.Equal(t, "Revenue cycle #12: 3 deals, $8,491", subject)
	assert.Contains(t, content, "$1,234,567")
	assert.Contains(t, content, "2.5s")
	assert.Contains(t, content, "provider &lt;down&gt;")
}

func TestRenderOutreachEscapesInput(t *testing.T) {
	content, err := renderOutreach("<b>Ava</b>", "Hello", "We can help")
	require.NoError(t, err)
	assert.Contains(t, content, "&lt;b&gt;Ava&lt;/b&gt;")
	assert.Contains(t, content, "We can help")
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "$0", formatAmount(0))
	assert.Equal(t, "$997", formatAmount(997))
	assert.Equal(t, "$10,994", formatAmount(10994))
	assert.Equal(t, "-$1,000", formatAmount(-1000))
}

func TestBrevoSenderPostsPayload(t *testing.T) {
	var got brevoEmailRequest
	var apiKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		apiKey = r.Header.Get("api-key")
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	sender := NewBrevoSender("key-123", "desk@example.com", "Revenue Desk")
	sender.endpoint = srv.URL

	err := sender.SendOutreachEmail(context.Background(), "ava@example.com", "Ava", "Quick idea", "Let's talk")
	require.NoError(t, err)

	assert.Equal(t, "key-123", apiKey)
	assert.Equal(t, "Quick idea", got.Subject)
	assert.Equal(t, "desk@example.com", got.Sender.Email)
	require.Len(t, got.To, 1)
	assert.Equal(t, "ava@example.com", got.To[0].Email)
	assert.True(t, strings.Contains(got.HTMLContent, "Let&#39;s talk"))
}

func TestBrevoSenderReportsFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	sender := NewBrevoSender("key", "desk@example.com", "Desk")
	sender.endpoint = srv.URL

	err := sender.SendCycleReport(context.Background(), "ops@example.com", CycleReport{CycleNumber: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestNewSenderSelection(t *testing.T) {
	s, err := NewSender(&config.Config{})
	require.NoError(t, err)
	assert.IsType(t, NoopSender{}, s)

	s, err = NewSender(&config.Config{EmailFromAddress: "a@b.c", BrevoAPIKey: "k"})
	require.NoError(t, err)
	assert.IsType(t, &BrevoSender{}, s)

	s, err = NewSender(&config.Config{EmailFromAddress: "a@b.c", SMTPHost: "smtp.example.com", SMTPPort: 587})
	require.NoError(t, err)
	assert.IsType(t, &SMTPSender{}, s)
}
