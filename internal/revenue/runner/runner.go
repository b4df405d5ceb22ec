// Package runner executes revenue cycles. It owns the in-flight guard, the
// engine's running flag and the seal step that publishes counters.
package runner

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"revenue_backend/internal/events"
	"revenue_backend/internal/revenue/domain"
	"revenue_backend/internal/revenue/ledger"
	"revenue_backend/internal/revenue/pipeline"
	"revenue_backend/platform/apperr"
	"revenue_backend/platform/logger"
)

var (
	// ErrAlreadyInFlight rejects a trigger while another cycle is executing.
	ErrAlreadyInFlight = apperr.Conflict("already_in_flight")
	// ErrEngineStopped rejects a trigger while the engine is stopped.
	ErrEngineStopped = apperr.Unavailable("engine_stopped")
)

// DefaultLeadCount asks the runner to use its configured batch size.
const DefaultLeadCount = -1

// Executor runs the stage pipeline for one cycle.
type Executor interface {
	Run(ctx context.Context, n int) *pipeline.Run
}

// Observer receives cycle lifecycle notifications, typically metrics.
type Observer interface {
	CycleStarted()
	CycleSealed(summary domain.CycleSummary, results []domain.StageResult)
}

// Enqueuer accepts sealed summaries for durable write-behind.
type Enqueuer interface {
	Enqueue(summary domain.CycleSummary) bool
}

// Runner executes at most one cycle at a time.
type Runner struct {
	exec         Executor
	store        *ledger.Store
	log          *logger.Logger
	bus          events.Bus
	observer     Observer
	writeBehind  Enqueuer
	defaultLeads int
	baseCtx      context.Context
	now          func() time.Time

	state   atomic.Int32
	running atomic.Bool
	wg      sync.WaitGroup
}

// Option customises a Runner.
type Option func(*Runner)

// WithEventBus publishes CycleSealed, DealClosed and EngineStateChanged.
func WithEventBus(bus events.Bus) Option {
	return func(r *Runner) { r.bus = bus }
}

// WithObserver attaches a metrics observer.
func WithObserver(o Observer) Option {
	return func(r *Runner) { r.observer = o }
}

// WithWriteBehind forwards sealed summaries to durable sinks.
func WithWriteBehind(e Enqueuer) Option {
	return func(r *Runner) { r.writeBehind = e }
}

// WithBaseContext sets the context asynchronous cycles run under.
func WithBaseContext(ctx context.Context) Option {
	return func(r *Runner) { r.baseCtx = ctx }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) { r.now = now }
}

// New creates a running engine.
func New(exec Executor, store *ledger.Store, log *logger.Logger, defaultLeads int, opts ...Option) *Runner {
	r := &Runner{
		exec:         exec,
		store:        store,
		log:          log,
		defaultLeads: defaultLeads,
		baseCtx:      context.Background(),
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.running.Store(true)
	return r
}

// State returns the current state machine position.
func (r *Runner) State() domain.CycleState {
	return domain.CycleState(r.state.Load())
}

// InFlight is true from guard acquisition until the seal completed.
func (r *Runner) InFlight() bool {
	return r.State() != domain.CycleIdle
}

// Running reports whether the engine accepts triggers.
func (r *Runner) Running() bool {
	return r.running.Load()
}

// DefaultLeads is the configured batch size.
func (r *Runner) DefaultLeads() int {
	return r.defaultLeads
}

// Halt stops accepting triggers. A cycle in flight still completes and seals.
// It reports whether the state changed.
func (r *Runner) Halt() bool {
	if !r.running.CompareAndSwap(true, false) {
		return false
	}
	r.publish(events.EngineStateChanged{BaseEvent: events.NewBaseEvent(), Running: false})
	return true
}

// Resume accepts triggers again. It reports whether the state changed.
func (r *Runner) Resume() bool {
	if !r.running.CompareAndSwap(false, true) {
		return false
	}
	r.publish(events.EngineStateChanged{BaseEvent: events.NewBaseEvent(), Running: true})
	return true
}

// RunOne executes a cycle synchronously and returns its sealed summary.
func (r *Runner) RunOne(ctx context.Context, leadCount int, trigger domain.Trigger) (domain.CycleSummary, error) {
	if err := r.acquire(); err != nil {
		return domain.CycleSummary{}, err
	}
	return r.execute(ctx, leadCount, trigger)
}

// Trigger acquires the guard synchronously and runs the cycle in the
// background under the runner's base context. It returns the number the
// cycle will be sealed with.
func (r *Runner) Trigger(leadCount int, trigger domain.Trigger) (uint64, error) {
	if err := r.acquire(); err != nil {
		return 0, err
	}
	number := r.store.NextCycleNumber()

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		if _, err := r.execute(r.baseCtx, leadCount, trigger); err != nil {
			r.log.Error("background cycle failed", "cycle", number, "trigger", trigger, "error", err)
		}
	}()
	return number, nil
}

// Wait blocks until every background cycle has sealed.
func (r *Runner) Wait() {
	r.wg.Wait()
}

func (r *Runner) acquire() error {
	if !r.running.Load() {
		return ErrEngineStopped
	}
	if !r.state.CompareAndSwap(int32(domain.CycleIdle), int32(domain.CycleRunning)) {
		return ErrAlreadyInFlight
	}
	// Halt may have raced with the guard acquisition.
	if !r.running.Load() {
		r.state.Store(int32(domain.CycleIdle))
		return ErrEngineStopped
	}
	return nil
}

// execute runs and seals one cycle. A panic escaping the executor is sealed
// as a stage error like any other fault; the recover below only covers the
// seal and its hooks, and releases the guard without a summary.
func (r *Runner) execute(ctx context.Context, leadCount int, trigger domain.Trigger) (summary domain.CycleSummary, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = apperr.Wrap(apperr.KindInternal, "cycle aborted", fmt.Errorf("panic: %v", rec))
		}
		r.state.Store(int32(domain.CycleIdle))
	}()

	if leadCount < 0 {
		leadCount = r.defaultLeads
	}

	number := r.store.NextCycleNumber()
	ctx = context.WithValue(ctx, logger.CycleKey, number)
	if r.observer != nil {
		r.observer.CycleStarted()
	}

	started := r.now()
	run := r.runPipeline(ctx, leadCount)
	r.state.Store(int32(domain.CycleSealing))
	ended := r.now()

	tally := run.Tally()
	summary = r.store.Seal(domain.CycleSummary{
		Trigger:          trigger,
		StartedAt:        started.UTC(),
		EndedAt:          ended.UTC(),
		DurationMs:       ended.Sub(started).Milliseconds(),
		Stages:           run.Totals,
		Leads:            tally.Leads,
		EmailsSent:       tally.EmailsSent,
		SMSSent:          tally.SMSSent,
		CallsMade:        tally.CallsMade,
		VoiceAnswered:    tally.VoiceAnswered,
		DealsClosed:      tally.DealsClosed,
		RevenueThisCycle: tally.Revenue,
		Errors:           run.Errors,
	}, run.Leads)

	r.afterSeal(ctx, summary, run)
	return summary, nil
}

func (r *Runner) runPipeline(ctx context.Context, leadCount int) (run *pipeline.Run) {
	defer func() {
		if rec := recover(); rec != nil {
			r.log.WithContext(ctx).Error("pipeline panicked", "panic", rec)
			run = &pipeline.Run{Errors: []domain.StageError{{
				Stage:   domain.StageGenerate,
				Message: fmt.Sprintf("panic: %v", rec),
			}}}
		}
	}()
	if run = r.exec.Run(ctx, leadCount); run == nil {
		run = &pipeline.Run{}
	}
	return run
}

func (r *Runner) afterSeal(ctx context.Context, summary domain.CycleSummary, run *pipeline.Run) {
	r.log.WithContext(ctx).CycleSealed(summary.CycleNumber, string(summary.Trigger), summary.Leads,
		summary.DealsClosed, summary.RevenueThisCycle, time.Duration(summary.DurationMs)*time.Millisecond, len(summary.Errors))

	if r.observer != nil {
		r.observer.CycleSealed(summary, run.Results)
	}
	if r.writeBehind != nil {
		r.writeBehind.Enqueue(summary)
	}
	if r.bus == nil {
		return
	}

	failures := make([]events.StageFailure, 0, len(summary.Errors))
	for _, e := range summary.Errors {
		failures = append(failures, events.StageFailure{Stage: string(e.Stage), Message: e.Message})
	}
	r.bus.Publish(ctx, events.CycleSealed{
		BaseEvent:        events.NewBaseEvent(),
		CycleNumber:      summary.CycleNumber,
		Trigger:          string(summary.Trigger),
		StartedAt:        summary.StartedAt,
		EndedAt:          summary.EndedAt,
		Leads:            summary.Leads,
		EmailsSent:       summary.EmailsSent,
		SMSSent:          summary.SMSSent,
		CallsMade:        summary.CallsMade,
		DealsClosed:      summary.DealsClosed,
		RevenueThisCycle: summary.RevenueThisCycle,
		TotalRevenue:     summary.TotalRevenue,
		StageErrors:      failures,
	})

	for _, lead := range run.Leads {
		if lead.Status != domain.LeadStatusClosedWon {
			continue
		}
		r.bus.Publish(ctx, events.DealClosed{
			BaseEvent:   events.NewBaseEvent(),
			CycleNumber: summary.CycleNumber,
			LeadID:      lead.ID,
			LeadName:    lead.Name,
			LeadEmail:   lead.Email,
			Amount:      lead.EstimatedValue,
		})
	}
}

func (r *Runner) publish(event events.Event) {
	if r.bus != nil {
		r.bus.Publish(r.baseCtx, event)
	}
}
