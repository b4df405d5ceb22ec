// Package adapters binds the outbound gateway clients to the channel
// Deliverer contract used by the revenue pipeline.
package adapters

import (
	"context"
	"fmt"

	"revenue_backend/internal/revenue/channel"
	"revenue_backend/internal/revenue/domain"
	"revenue_backend/platform/phone"
)

// EmailSender is the slice of the email package the email channel needs.
type EmailSender interface {
	SendOutreachEmail(ctx context.Context, toEmail, leadName, subject, message string) error
}

// SMSSender is the slice of the sms client the sms channel needs.
type SMSSender interface {
	SendMessage(ctx context.Context, phoneNumber string, message string) error
}

// CallPlacer is the slice of the voice client the voice channel needs.
type CallPlacer interface {
	PlaceCall(ctx context.Context, phoneNumber, script string) (string, error)
}

type emailDeliverer struct{ sender EmailSender }

// NewEmailDeliverer sends outreach e-mails through sender.
func NewEmailDeliverer(sender EmailSender) channel.Deliverer {
	return emailDeliverer{sender: sender}
}

func (d emailDeliverer) Deliver(ctx context.Context, lead *domain.Lead, payload channel.Payload) (domain.Outcome, error) {
	if lead.Email == "" {
		return domain.OutcomeFailed, nil
	}
	if err := d.sender.SendOutreachEmail(ctx, lead.Email, lead.Name, payload.Subject, payload.Body); err != nil {
		return "", err
	}
	return domain.OutcomeSent, nil
}

type smsDeliverer struct{ sender SMSSender }

// NewSMSDeliverer sends text messages through sender.
func NewSMSDeliverer(sender SMSSender) channel.Deliverer {
	return smsDeliverer{sender: sender}
}

func (d smsDeliverer) Deliver(ctx context.Context, lead *domain.Lead, payload channel.Payload) (domain.Outcome, error) {
	if !phone.IsDialable(lead.Phone) {
		return domain.OutcomeFailed, nil
	}
	if err := d.sender.SendMessage(ctx, lead.Phone, payload.Body); err != nil {
		return "", err
	}
	return domain.OutcomeSent, nil
}

type voiceDeliverer struct{ placer CallPlacer }

// NewVoiceDeliverer places calls through placer and maps the gateway status
// onto voice outcomes.
func NewVoiceDeliverer(placer CallPlacer) channel.Deliverer {
	return voiceDeliverer{placer: placer}
}

func (d voiceDeliverer) Deliver(ctx context.Context, lead *domain.Lead, payload channel.Payload) (domain.Outcome, error) {
	if !phone.IsDialable(lead.Phone) {
		return domain.OutcomeFailed, nil
	}
	status, err := d.placer.PlaceCall(ctx, lead.Phone, payload.Body)
	if err != nil {
		return "", err
	}
	switch domain.Outcome(status) {
	case domain.OutcomeAnswered, domain.OutcomeNoAnswer, domain.OutcomeVoicemail:
		return domain.Outcome(status), nil
	default:
		return "", fmt.Errorf("unexpected call status %q", status)
	}
}
