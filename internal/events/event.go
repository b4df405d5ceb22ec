// Package events defines the revenue engine's domain events on top of the
// platform bus.
package events

import (
	"time"

	"revenue_backend/platform/events"
	"revenue_backend/platform/logger"
)

type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
	InMemoryBus = events.InMemoryBus
)

var NewBaseEvent = events.NewBaseEvent

// NewInMemoryBus creates the process-local bus.
func NewInMemoryBus(log *logger.Logger) *InMemoryBus {
	return events.NewInMemoryBus(log)
}

// =============================================================================
// Revenue Engine Events
// =============================================================================

// StageFailure mirrors a stage error recorded in a cycle summary.
type StageFailure struct {
	Stage   string `json:"stage"`
	Message string `json:"message"`
}

// CycleSealed is published after a cycle's counters became visible.
type CycleSealed struct {
	BaseEvent
	CycleNumber      uint64         `json:"cycleNumber"`
	Trigger          string         `json:"trigger"`
	StartedAt        time.Time      `json:"startedAt"`
	EndedAt          time.Time      `json:"endedAt"`
	Leads            int            `json:"leads"`
	EmailsSent       int            `json:"emailsSent"`
	SMSSent          int            `json:"smsSent"`
	CallsMade        int            `json:"callsMade"`
	DealsClosed      int            `json:"dealsClosed"`
	RevenueThisCycle int64          `json:"revenueThisCycle"`
	TotalRevenue     int64          `json:"totalRevenue"`
	StageErrors      []StageFailure `json:"stageErrors,omitempty"`
}

func (e CycleSealed) EventName() string { return "revenue.cycle.sealed" }

// CycleSkipped is published when a trigger was dropped.
type CycleSkipped struct {
	BaseEvent
	Trigger string `json:"trigger"`
	Reason  string `json:"reason"`
}

func (e CycleSkipped) EventName() string { return "revenue.cycle.skipped" }

// DealClosed is published for every lead that reached closed_won.
type DealClosed struct {
	BaseEvent
	CycleNumber uint64 `json:"cycleNumber"`
	LeadID      string `json:"leadId"`
	LeadName    string `json:"leadName"`
	LeadEmail   string `json:"leadEmail"`
	Amount      int64  `json:"amount"`
}

func (e DealClosed) EventName() string { return "revenue.deal.closed" }

// EngineStateChanged is published when the engine is started or stopped.
type EngineStateChanged struct {
	BaseEvent
	Running bool `json:"running"`
}

func (e EngineStateChanged) EventName() string { return "revenue.engine.state_changed" }
