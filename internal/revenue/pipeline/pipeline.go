// Package pipeline runs one revenue cycle: generate, email, sms, voice and
// close, strictly in that order. Every stage is an error barrier; a failure
// inside a stage is recorded and later stages are skipped, but the partial
// results survive.
package pipeline

import (
	"context"
	"fmt"

	"revenue_backend/internal/revenue/channel"
	"revenue_backend/internal/revenue/domain"
)

// Generator produces the lead batch for a cycle.
type Generator interface {
	Generate(n int) ([]*domain.Lead, error)
}

// Adapters groups the channel adapters the pipeline delegates to.
type Adapters struct {
	Email channel.Adapter
	SMS   channel.Adapter
	Voice channel.Adapter
}

// Run is everything one pipeline invocation produced.
type Run struct {
	Leads   []*domain.Lead
	Results []domain.StageResult
	Totals  []domain.StageTotals
	Errors  []domain.StageError
}

// Tally aggregates the run's results.
func (r *Run) Tally() domain.Tally {
	return domain.TallyResults(r.Results)
}

// Pipeline is an ordered list of stage descriptors behind a lead generator.
type Pipeline struct {
	source Generator
	stages []Stage
}

// New builds the standard five stage pipeline.
func New(source Generator, adapters Adapters, rnd Random, thresholds Thresholds) *Pipeline {
	return NewWithStages(source,
		emailStage(adapters.Email),
		smsStage(adapters.SMS, thresholds),
		voiceStage(adapters.Voice, thresholds),
		closeStage(rnd, thresholds),
	)
}

// NewWithStages builds a pipeline from explicit stage descriptors.
func NewWithStages(source Generator, stages ...Stage) *Pipeline {
	return &Pipeline{source: source, stages: stages}
}

// Stages returns the stage names in execution order, generate first.
func (p *Pipeline) Stages() []domain.StageName {
	names := []domain.StageName{domain.StageGenerate}
	for _, s := range p.stages {
		names = append(names, s.Name)
	}
	return names
}

// Run executes every stage over a fresh batch of n leads. It never panics.
func (p *Pipeline) Run(ctx context.Context, n int) *Run {
	run := &Run{}

	generate := domain.StageTotals{Stage: domain.StageGenerate}
	err := barrier(func() error {
		leads, err := p.source.Generate(n)
		if err != nil {
			return err
		}
		for _, lead := range leads {
			run.Leads = append(run.Leads, lead)
			run.Results = append(run.Results, domain.StageResult{
				Stage:   domain.StageGenerate,
				LeadID:  lead.ID,
				Success: true,
				Outcome: domain.OutcomeAccepted,
			})
			generate.Attempted++
			generate.Succeeded++
		}
		return nil
	})
	run.Totals = append(run.Totals, generate)
	if err != nil {
		run.Errors = append(run.Errors, domain.StageError{Stage: domain.StageGenerate, Message: err.Error()})
		return run
	}

	for _, stage := range p.stages {
		totals := domain.StageTotals{Stage: stage.Name}
		err := barrier(func() error {
			for _, lead := range run.Leads {
				if stage.Filter != nil && !stage.Filter(lead) {
					continue
				}
				res, err := stage.Handle(ctx, lead)
				if err != nil {
					return err
				}
				totals.Attempted++
				if res.Success {
					totals.Succeeded++
				}
				run.Results = append(run.Results, res)
			}
			return nil
		})
		run.Totals = append(run.Totals, totals)
		if err != nil {
			run.Errors = append(run.Errors, domain.StageError{Stage: stage.Name, Message: err.Error()})
			break
		}
	}

	return run
}

func barrier(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn()
}
