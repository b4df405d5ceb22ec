// Package service implements the revenue engine's control operations on top
// of the runner, the scheduler and the ledger.
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"revenue_backend/internal/revenue/domain"
	"revenue_backend/internal/revenue/ledger"
	"revenue_backend/internal/revenue/ports"
	"revenue_backend/internal/revenue/runner"
	"revenue_backend/internal/revenue/scheduling"
	"revenue_backend/internal/revenue/transport"
	"revenue_backend/platform/apperr"
)

type Service struct {
	// lifecycleMu orders Stop and Start so the run flag and the scheduler
	// loop always agree.
	lifecycleMu sync.Mutex

	runner    *runner.Runner
	scheduler *scheduling.Scheduler
	store     *ledger.Store
	cfg       transport.EngineConfig
	credits   ports.CreditReader
	baseCtx   context.Context
	recentCap int
	now       func() time.Time
}

// Option customises a Service.
type Option func(*Service)

// WithCredits exposes the minted credit counter in stats.
func WithCredits(c ports.CreditReader) Option {
	return func(s *Service) { s.credits = c }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New creates the control service. baseCtx bounds the scheduler loop started
// by Start.
func New(baseCtx context.Context, r *runner.Runner, sched *scheduling.Scheduler, store *ledger.Store, cfg transport.EngineConfig, recentCap int, opts ...Option) *Service {
	s := &Service{
		runner:    r,
		scheduler: sched,
		store:     store,
		cfg:       cfg,
		baseCtx:   baseCtx,
		recentCap: recentCap,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Health() transport.HealthResponse {
	snap := s.store.Snapshot()
	now := s.now().UTC()
	return transport.HealthResponse{
		Status:          s.status(),
		UptimeSeconds:   uptime(snap.StartedAt, now),
		CyclesCompleted: snap.CyclesCompleted,
		InFlight:        s.runner.InFlight(),
		Timestamp:       now,
	}
}

func (s *Service) Stats() transport.StatsResponse {
	snap := s.store.Snapshot()
	now := s.now().UTC()

	resp := transport.StatsResponse{
		Status:          s.status(),
		UptimeSeconds:   uptime(snap.StartedAt, now),
		TotalRevenue:    snap.RevenueTotal,
		LeadsGenerated:  snap.LeadsGenerated,
		EmailsSent:      snap.EmailsSent,
		SMSSent:         snap.SMSSent,
		CallsMade:       snap.CallsMade,
		DealsClosed:     snap.DealsClosed,
		CyclesCompleted: snap.CyclesCompleted,
		ConversionRate:  float64(snap.DealsClosed) / float64(max(1, snap.LeadsGenerated)),
		AverageDealSize: float64(snap.RevenueTotal) / float64(max(1, snap.DealsClosed)),
		StartedAt:       snap.StartedAt,
		InFlight:        s.runner.InFlight(),
		Config:          s.cfg,
		Timestamp:       now,
	}
	if snap.LastCycle != nil {
		last := snap.LastCycle.Clone()
		resp.LastCycle = &last
	}
	if s.credits != nil {
		minted := s.credits.MintedAt(now)
		resp.CreditsMinted = &minted
	}
	return resp
}

func (s *Service) Cycles() transport.CyclesResponse {
	snap := s.store.Snapshot()
	cycles := make([]domain.CycleSummary, 0, len(snap.History))
	for _, c := range snap.History {
		cycles = append(cycles, c.Clone())
	}
	return transport.CyclesResponse{
		Cycles:          cycles,
		Capacity:        s.store.HistoryCapacity(),
		CyclesCompleted: snap.CyclesCompleted,
		Timestamp:       s.now().UTC(),
	}
}

func (s *Service) RecentLeads() transport.RecentLeadsResponse {
	snap := s.store.Snapshot()
	leads := make([]domain.Lead, 0, len(snap.RecentLeads))
	for _, l := range snap.RecentLeads {
		leads = append(leads, l.Clone())
	}
	return transport.RecentLeadsResponse{
		Leads:     leads,
		Capacity:  s.recentCap,
		Timestamp: s.now().UTC(),
	}
}

// RunCycle starts a manual cycle. With Wait set it blocks until the cycle
// sealed and returns its summary; the cycle keeps running if ctx is
// cancelled meanwhile.
func (s *Service) RunCycle(ctx context.Context, req transport.RunCycleRequest) (transport.RunCycleResponse, error) {
	leadCount := s.cfg.LeadsPerCycle
	if req.LeadCount != nil {
		leadCount = *req.LeadCount
		if leadCount < 1 || leadCount > s.cfg.MaxLeadsPerCycle {
			return transport.RunCycleResponse{}, apperr.Validation(
				fmt.Sprintf("lead_count must be between 1 and %d", s.cfg.MaxLeadsPerCycle))
		}
	}

	if req.Wait {
		summary, err := s.runner.RunOne(context.WithoutCancel(ctx), leadCount, domain.TriggerManual)
		if err != nil {
			return transport.RunCycleResponse{}, err
		}
		return transport.RunCycleResponse{
			Status:      "completed",
			CycleNumber: summary.CycleNumber,
			LeadCount:   leadCount,
			Summary:     &summary,
			Timestamp:   s.now().UTC(),
		}, nil
	}

	number, err := s.runner.Trigger(leadCount, domain.TriggerManual)
	if err != nil {
		return transport.RunCycleResponse{}, err
	}
	return transport.RunCycleResponse{
		Status:      string(domain.OutcomeAccepted),
		CycleNumber: number,
		LeadCount:   leadCount,
		Timestamp:   s.now().UTC(),
	}, nil
}

// Stop halts the engine and its scheduler. A cycle in flight still seals.
func (s *Service) Stop() transport.StatsResponse {
	s.lifecycleMu.Lock()
	defer s.lifecycleMu.Unlock()
	s.runner.Halt()
	s.scheduler.Stop()
	return s.Stats()
}

// Start resumes the engine and restarts the scheduler, firing one cycle
// immediately. Starting a running engine changes nothing.
func (s *Service) Start() transport.StatsResponse {
	s.lifecycleMu.Lock()
	defer s.lifecycleMu.Unlock()
	s.runner.Resume()
	s.scheduler.Start(s.baseCtx, true, domain.TriggerStartup)
	return s.Stats()
}

// Boot starts the scheduler at process start.
func (s *Service) Boot(runOnStartup bool) {
	s.lifecycleMu.Lock()
	defer s.lifecycleMu.Unlock()
	s.scheduler.Start(s.baseCtx, runOnStartup, domain.TriggerStartup)
}

// Shutdown stops the scheduler and waits for background cycles to seal.
func (s *Service) Shutdown() {
	s.lifecycleMu.Lock()
	s.scheduler.Stop()
	s.lifecycleMu.Unlock()
	s.runner.Wait()
}

func (s *Service) status() string {
	if s.runner.Running() {
		return transport.StatusRunning
	}
	return transport.StatusStopped
}

func uptime(startedAt, now time.Time) int64 {
	d := now.Sub(startedAt)
	if d < 0 {
		return 0
	}
	return int64(d / time.Second)
}
