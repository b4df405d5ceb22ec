// Package scheduling fires revenue cycles on a fixed interval.
package scheduling

import (
	"context"
	"errors"
	"sync"
	"time"

	"revenue_backend/internal/revenue/domain"
	"revenue_backend/internal/revenue/runner"
	"revenue_backend/platform/logger"
)

// Triggerer starts a cycle without waiting for it.
type Triggerer interface {
	Trigger(leadCount int, trigger domain.Trigger) (uint64, error)
}

// SkipObserver is told about ticks that did not start a cycle.
type SkipObserver interface {
	CycleSkipped(trigger domain.Trigger, reason string)
}

// Scheduler owns the single background ticker. Ticks that land while a cycle
// is in flight are dropped, never queued.
type Scheduler struct {
	runner   Triggerer
	interval time.Duration
	log      *logger.Logger
	observer SkipObserver

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a stopped scheduler.
func New(r Triggerer, interval time.Duration, log *logger.Logger, observer SkipObserver) *Scheduler {
	return &Scheduler{
		runner:   r,
		interval: interval,
		log:      log,
		observer: observer,
	}
}

// Start launches the ticker loop. When fireNow is set one cycle is triggered
// immediately, before the first interval elapses. It reports false when the
// loop was already running.
func (s *Scheduler) Start(ctx context.Context, fireNow bool, trigger domain.Trigger) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return false
	}

	loopCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})

	if fireNow {
		s.fire(trigger)
	}
	go s.loop(loopCtx, s.done)

	s.log.Info("revenue scheduler started", "interval", s.interval.String())
	return true
}

// Stop ends the ticker loop and waits for it to exit. An in-flight cycle is
// not interrupted. It reports false when the loop was not running.
func (s *Scheduler) Stop() bool {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if cancel == nil {
		return false
	}
	cancel()
	<-done
	s.log.Info("revenue scheduler stopped")
	return true
}

// Active reports whether the ticker loop is running.
func (s *Scheduler) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancel != nil
}

func (s *Scheduler) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if ctx.Err() != nil {
				return
			}
			s.fire(domain.TriggerScheduler)
		}
	}
}

func (s *Scheduler) fire(trigger domain.Trigger) {
	_, err := s.runner.Trigger(runner.DefaultLeadCount, trigger)
	if err == nil {
		return
	}

	reason := err.Error()
	switch {
	case errors.Is(err, runner.ErrAlreadyInFlight):
		reason = "in_flight"
	case errors.Is(err, runner.ErrEngineStopped):
		reason = "stopped"
	}
	s.log.CycleSkipped(string(trigger), reason)
	if s.observer != nil {
		s.observer.CycleSkipped(trigger, reason)
	}
}
