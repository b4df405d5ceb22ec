package pipeline

import (
	"context"
	"fmt"

	"revenue_backend/internal/revenue/channel"
	"revenue_backend/internal/revenue/domain"
)

// Predicate selects the leads a stage processes.
type Predicate func(lead *domain.Lead) bool

// HandleFunc processes one lead and produces its result. A returned error
// aborts the stage and everything after it.
type HandleFunc func(ctx context.Context, lead *domain.Lead) (domain.StageResult, error)

// Stage describes one step after lead generation.
type Stage struct {
	Name    domain.StageName
	Filter  Predicate
	Adapter channel.Adapter
	Handle  HandleFunc
}

// Thresholds are the stage filter and close settings.
type Thresholds struct {
	SMS                 int
	Voice               int
	Close               int
	MaxCloseProbability float64
	VoiceAnswerBonus    int
}

func scoreAtLeast(threshold int) Predicate {
	return func(lead *domain.Lead) bool { return lead.Score >= threshold }
}

func emailStage(adapter channel.Adapter) Stage {
	return Stage{
		Name:    domain.StageEmail,
		Adapter: adapter,
		Handle: func(ctx context.Context, lead *domain.Lead) (domain.StageResult, error) {
			res := adapter.Send(ctx, lead, channel.Payload{
				Subject: fmt.Sprintf("%s, a quick idea for your pipeline", firstName(lead.Name)),
				Body:    "We help teams like yours recover revenue that slips through follow-up gaps.",
			})
			if res.Success {
				lead.Status = domain.LeadStatusContacted
				lead.Touch(domain.ChannelEmail)
			}
			return res, nil
		},
	}
}

func smsStage(adapter channel.Adapter, t Thresholds) Stage {
	return Stage{
		Name:    domain.StageSMS,
		Filter:  scoreAtLeast(t.SMS),
		Adapter: adapter,
		Handle: func(ctx context.Context, lead *domain.Lead) (domain.StageResult, error) {
			res := adapter.Send(ctx, lead, channel.Payload{
				Body: fmt.Sprintf("Hi %s, following up on our email. Reply YES for a 10 minute call.", firstName(lead.Name)),
			})
			if res.Success {
				lead.Touch(domain.ChannelSMS)
			}
			return res, nil
		},
	}
}

func voiceStage(adapter channel.Adapter, t Thresholds) Stage {
	return Stage{
		Name:    domain.StageVoice,
		Filter:  scoreAtLeast(t.Voice),
		Adapter: adapter,
		Handle: func(ctx context.Context, lead *domain.Lead) (domain.StageResult, error) {
			res := adapter.Send(ctx, lead, channel.Payload{
				Body: "qualification-call",
			})
			if res.Success {
				lead.Status = domain.LeadStatusQualified
				lead.RaiseScore(t.VoiceAnswerBonus)
				lead.Touch(domain.ChannelVoice)
			}
			return res, nil
		},
	}
}

func closeStage(rnd Random, t Thresholds) Stage {
	return Stage{
		Name:   domain.StageClose,
		Filter: scoreAtLeast(t.Close),
		Handle: func(_ context.Context, lead *domain.Lead) (domain.StageResult, error) {
			p := float64(lead.Score) / 100
			if p > t.MaxCloseProbability {
				p = t.MaxCloseProbability
			}

			res := domain.StageResult{Stage: domain.StageClose, LeadID: lead.ID}
			if rnd.Float64() < p {
				res.Success = true
				res.Outcome = domain.OutcomeClosedWon
				res.Amount = lead.EstimatedValue
				lead.Status = domain.LeadStatusClosedWon
				return res, nil
			}
			res.Outcome = domain.OutcomeFollowUp
			lead.Status = domain.LeadStatusFollowUp
			return res, nil
		},
	}
}

func firstName(name string) string {
	for i, r := range name {
		if r == ' ' {
			return name[:i]
		}
	}
	if name == "" {
		return "there"
	}
	return name
}
