// Package channel provides the uniform outreach adapters used by the revenue
// pipeline. Adapters encode every predictable failure in the returned
// StageResult and never touch engine counters.
package channel

import (
	"context"
	"errors"
	"time"

	"revenue_backend/internal/revenue/domain"
	"revenue_backend/platform/logger"

	"golang.org/x/time/rate"
)

// Payload is the message an adapter delivers to a lead.
type Payload struct {
	Subject string
	Body    string
}

// Adapter is the uniform send operation shared by email, sms and voice.
type Adapter interface {
	Channel() domain.Channel
	Enabled() bool
	Send(ctx context.Context, lead *domain.Lead, payload Payload) domain.StageResult
}

// Deliverer performs the external call for one channel and reports the
// outcome tag. Returning an error means the attempt failed.
type Deliverer interface {
	Deliver(ctx context.Context, lead *domain.Lead, payload Payload) (domain.Outcome, error)
}

// DelivererFunc adapts a function to Deliverer.
type DelivererFunc func(ctx context.Context, lead *domain.Lead, payload Payload) (domain.Outcome, error)

// Deliver calls f.
func (f DelivererFunc) Deliver(ctx context.Context, lead *domain.Lead, payload Payload) (domain.Outcome, error) {
	return f(ctx, lead, payload)
}

// Config describes one adapter.
type Config struct {
	Channel domain.Channel
	Enabled bool
	// Timeout bounds every Send, including rate limiter waits.
	Timeout time.Duration
	// RatePerSec limits sends on this channel. Zero disables limiting.
	RatePerSec float64
}

// Gateway is the Adapter implementation. It owns the enable flag, the per-call
// timeout and the optional send limiter, and delegates the external call to a
// Deliverer.
type Gateway struct {
	cfg       Config
	stage     domain.StageName
	deliverer Deliverer
	limiter   *rate.Limiter
	log       *logger.Logger
}

// NewGateway creates an adapter for cfg.Channel.
func NewGateway(cfg Config, deliverer Deliverer, log *logger.Logger) *Gateway {
	g := &Gateway{
		cfg:       cfg,
		stage:     stageFor(cfg.Channel),
		deliverer: deliverer,
		log:       log,
	}
	if cfg.RatePerSec > 0 {
		g.limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSec), 1)
	}
	return g
}

// Channel returns the channel this adapter serves.
func (g *Gateway) Channel() domain.Channel { return g.cfg.Channel }

// Enabled reports whether Send may make external calls.
func (g *Gateway) Enabled() bool { return g.cfg.Enabled && g.deliverer != nil }

// Send delivers payload to lead. It never panics for predictable failures:
// disabled, failed and timed-out attempts come back as unsuccessful results.
func (g *Gateway) Send(ctx context.Context, lead *domain.Lead, payload Payload) domain.StageResult {
	result := domain.StageResult{
		Stage:   g.stage,
		LeadID:  lead.ID,
		Channel: g.cfg.Channel,
	}

	if !g.Enabled() {
		result.Outcome = domain.OutcomeDisabled
		return result
	}

	if g.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.cfg.Timeout)
		defer cancel()
	}

	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			result.Outcome = domain.OutcomeTimeout
			g.log.ChannelFailure(string(g.cfg.Channel), lead.ID, string(result.Outcome), err)
			return result
		}
	}

	outcome, err := g.deliverer.Deliver(ctx, lead, payload)
	if err != nil {
		result.Outcome = domain.OutcomeFailed
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			result.Outcome = domain.OutcomeTimeout
		}
		g.log.ChannelFailure(string(g.cfg.Channel), lead.ID, string(result.Outcome), err)
		return result
	}

	result.Outcome = outcome
	result.Success = outcome == SuccessOutcome(g.cfg.Channel)
	if !result.Success {
		g.log.ChannelFailure(string(g.cfg.Channel), lead.ID, string(outcome), nil)
	}
	return result
}

// SuccessOutcome is the only outcome that counts as success on ch.
func SuccessOutcome(ch domain.Channel) domain.Outcome {
	if ch == domain.ChannelVoice {
		return domain.OutcomeAnswered
	}
	return domain.OutcomeSent
}

func stageFor(ch domain.Channel) domain.StageName {
	switch ch {
	case domain.ChannelEmail:
		return domain.StageEmail
	case domain.ChannelSMS:
		return domain.StageSMS
	case domain.ChannelVoice:
		return domain.StageVoice
	default:
		return domain.StageName(ch)
	}
}

var _ Adapter = (*Gateway)(nil)
