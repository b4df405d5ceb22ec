package email

import (
	"context"
	"time"

	"revenue_backend/platform/config"
)

// CycleReport is the data rendered into a cycle report e-mail.
type CycleReport struct {
	CycleNumber      uint64
	Trigger          string
	StartedAt        time.Time
	EndedAt          time.Time
	Leads            int
	EmailsSent       int
	SMSSent          int
	CallsMade        int
	DealsClosed      int
	RevenueThisCycle int64
	TotalRevenue     int64
	StageErrors      []string
}

type Sender interface {
	SendOutreachEmail(ctx context.Context, toEmail, leadName, subject, message string) error
	SendCycleReport(ctx context.Context, toEmail string, report CycleReport) error
}

type NoopSender struct{}

func (NoopSender) SendOutreachEmail(ctx context.Context, toEmail, leadName, subject, message string) error {
	return nil
}

func (NoopSender) SendCycleReport(ctx context.Context, toEmail string, report CycleReport) error {
	return nil
}

// NewSender picks Brevo when an API key is configured, SMTP when a host is,
// and a no-op sender otherwise.
func NewSender(cfg config.EmailConfig) (Sender, error) {
	if !cfg.GetEmailEnabled() {
		return NoopSender{}, nil
	}
	if cfg.GetBrevoAPIKey() != "" {
		return NewBrevoSender(cfg.GetBrevoAPIKey(), cfg.GetEmailFromAddress(), cfg.GetEmailFromName()), nil
	}
	return NewSMTPSender(
		cfg.GetSMTPHost(),
		cfg.GetSMTPPort(),
		cfg.GetSMTPUsername(),
		cfg.GetSMTPPassword(),
		cfg.GetEmailFromAddress(),
		cfg.GetEmailFromName(),
	), nil
}
