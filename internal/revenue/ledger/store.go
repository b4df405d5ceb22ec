// Package ledger holds the engine's process-wide counters and the bounded
// history of recent cycles. State is published as one immutable snapshot per
// seal so readers never block on a running cycle and never see half a seal.
package ledger

import (
	"sync"
	"sync/atomic"
	"time"

	"revenue_backend/internal/revenue/domain"
)

// Counters are the monotonic engine aggregates.
type Counters struct {
	LeadsGenerated  int64
	EmailsSent      int64
	SMSSent         int64
	CallsMade       int64
	DealsClosed     int64
	RevenueTotal    int64
	CyclesCompleted uint64
	StartedAt       time.Time
}

// Snapshot is one consistent view of the ledger. Every slice in it is owned
// by the snapshot and must not be modified.
type Snapshot struct {
	Counters
	LastCycle   *domain.CycleSummary
	History     []domain.CycleSummary
	RecentLeads []domain.Lead
}

// Store is the single writer of engine counters.
type Store struct {
	mu              sync.Mutex
	current         atomic.Pointer[Snapshot]
	historyCapacity int
	recentCapacity  int
}

// NewStore creates an empty ledger.
func NewStore(historyCapacity, recentCapacity int, startedAt time.Time) *Store {
	if historyCapacity < 1 {
		historyCapacity = 1
	}
	if recentCapacity < 0 {
		recentCapacity = 0
	}
	s := &Store{historyCapacity: historyCapacity, recentCapacity: recentCapacity}
	s.current.Store(&Snapshot{Counters: Counters{StartedAt: startedAt.UTC()}})
	return s
}

// Snapshot returns the latest published state without blocking.
func (s *Store) Snapshot() *Snapshot {
	return s.current.Load()
}

// HistoryCapacity returns the size of the cycle ring.
func (s *Store) HistoryCapacity() int {
	return s.historyCapacity
}

// NextCycleNumber is the number the next sealed cycle will receive.
func (s *Store) NextCycleNumber() uint64 {
	return s.Snapshot().CyclesCompleted + 1
}

// Seal folds one finished cycle into the counters and publishes the result
// in a single step. It fills CycleNumber and TotalRevenue and returns the
// summary as recorded.
func (s *Store) Seal(summary domain.CycleSummary, leads []*domain.Lead) domain.CycleSummary {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.current.Load()
	next := &Snapshot{Counters: prev.Counters}

	next.CyclesCompleted++
	next.LeadsGenerated += int64(summary.Leads)
	next.EmailsSent += int64(summary.EmailsSent)
	next.SMSSent += int64(summary.SMSSent)
	next.CallsMade += int64(summary.CallsMade)
	next.DealsClosed += int64(summary.DealsClosed)
	next.RevenueTotal += summary.RevenueThisCycle

	recorded := summary.Clone()
	recorded.CycleNumber = next.CyclesCompleted
	recorded.TotalRevenue = next.RevenueTotal

	last := recorded.Clone()
	next.LastCycle = &last
	next.History = appendBounded(prev.History, s.historyCapacity, recorded)

	if s.recentCapacity > 0 && len(leads) > 0 {
		tail := leads
		if len(tail) > s.recentCapacity {
			tail = tail[len(tail)-s.recentCapacity:]
		}
		copies := make([]domain.Lead, len(tail))
		for i, lead := range tail {
			copies[i] = lead.Clone()
		}
		next.RecentLeads = appendBounded(prev.RecentLeads, s.recentCapacity, copies...)
	} else {
		next.RecentLeads = prev.RecentLeads
	}

	s.current.Store(next)
	return recorded.Clone()
}
