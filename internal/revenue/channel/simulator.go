package channel

import (
	"context"
	"time"

	"revenue_backend/internal/revenue/domain"
)

// Random is the subset of the pipeline's seeded source the simulator needs.
type Random interface {
	Float64() float64
}

// outcomeWeight pairs an outcome with its probability mass.
type outcomeWeight struct {
	outcome domain.Outcome
	weight  float64
}

var liveDistributions = map[domain.Channel][]outcomeWeight{
	domain.ChannelEmail: {
		{domain.OutcomeSent, 0.95},
		{domain.OutcomeFailed, 0.05},
	},
	domain.ChannelSMS: {
		{domain.OutcomeSent, 0.90},
		{domain.OutcomeFailed, 0.10},
	},
	domain.ChannelVoice: {
		{domain.OutcomeAnswered, 0.30},
		{domain.OutcomeNoAnswer, 0.45},
		{domain.OutcomeVoicemail, 0.25},
	},
}

// Simulator is a Deliverer that makes no external call. In deterministic
// mode it always succeeds; otherwise it draws from a per-channel outcome
// distribution.
type Simulator struct {
	channel       domain.Channel
	rnd           Random
	latency       time.Duration
	deterministic bool
}

// NewSimulator creates a simulated deliverer for ch.
func NewSimulator(ch domain.Channel, rnd Random, latency time.Duration, deterministic bool) *Simulator {
	return &Simulator{
		channel:       ch,
		rnd:           rnd,
		latency:       latency,
		deterministic: deterministic,
	}
}

// Deliver waits for the simulated latency, honoring ctx, and returns an outcome.
func (s *Simulator) Deliver(ctx context.Context, _ *domain.Lead, _ Payload) (domain.Outcome, error) {
	if s.latency > 0 {
		timer := time.NewTimer(s.latency)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-timer.C:
		}
	}

	if s.deterministic {
		return SuccessOutcome(s.channel), nil
	}

	dist := liveDistributions[s.channel]
	draw := s.rnd.Float64()
	for _, w := range dist {
		if draw < w.weight {
			return w.outcome, nil
		}
		draw -= w.weight
	}
	return dist[len(dist)-1].outcome, nil
}

var _ Deliverer = (*Simulator)(nil)
