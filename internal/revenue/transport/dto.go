package transport

import (
	"time"

	"revenue_backend/internal/revenue/domain"
)

// Engine status values.
const (
	StatusRunning = "running"
	StatusStopped = "stopped"
)

// RunCycleRequest is the body of POST /cycle/run. Absent fields use the
// configured defaults. Force is accepted for compatibility and never bypasses
// overlap protection.
type RunCycleRequest struct {
	LeadCount *int `json:"lead_count,omitempty" validate:"omitempty,gt=0"`
	Force     bool `json:"force,omitempty"`
	Wait      bool `json:"wait,omitempty"`
}

// HealthResponse is returned by GET / and GET /health.
type HealthResponse struct {
	Status          string    `json:"status"`
	UptimeSeconds   int64     `json:"uptime_seconds"`
	CyclesCompleted uint64    `json:"cycles_completed"`
	InFlight        bool      `json:"in_flight"`
	Timestamp       time.Time `json:"timestamp"`
}

// Thresholds echoes the stage filters.
type Thresholds struct {
	SMS   int `json:"sms"`
	Voice int `json:"voice"`
	Close int `json:"close"`
}

// ChannelFlags reports which channels may send.
type ChannelFlags struct {
	Email bool `json:"email"`
	SMS   bool `json:"sms"`
	Voice bool `json:"voice"`
}

// Framework echoes the descriptive model record.
type Framework struct {
	Alpha           float64 `json:"alpha"`
	ComplexityLabel string  `json:"complexity_label,omitempty"`
}

// EngineConfig is the subset of configuration safe to expose.
type EngineConfig struct {
	Mode                 string       `json:"mode"`
	CycleIntervalSeconds float64      `json:"cycle_interval_seconds"`
	LeadsPerCycle        int          `json:"leads_per_cycle"`
	MaxLeadsPerCycle     int          `json:"max_leads_per_cycle"`
	RunOnStartup         bool         `json:"run_on_startup"`
	Thresholds           Thresholds   `json:"thresholds"`
	MaxCloseProbability  float64      `json:"max_close_probability"`
	VoiceAnswerBonus     int          `json:"voice_answer_bonus"`
	PriceLadder          []int64      `json:"price_ladder"`
	CycleHistory         int          `json:"cycle_history"`
	Channels             ChannelFlags `json:"channels"`
	SimulateChannels     bool         `json:"simulate_channels"`
	ChannelTimeoutMs     int64        `json:"channel_timeout_ms"`
	Framework            Framework    `json:"framework"`
}

// StatsResponse is the full engine snapshot.
type StatsResponse struct {
	Status          string               `json:"status"`
	UptimeSeconds   int64                `json:"uptime_seconds"`
	TotalRevenue    int64                `json:"total_revenue"`
	LeadsGenerated  int64                `json:"leads_generated"`
	EmailsSent      int64                `json:"emails_sent"`
	SMSSent         int64                `json:"sms_sent"`
	CallsMade       int64                `json:"calls_made"`
	DealsClosed     int64                `json:"deals_closed"`
	CyclesCompleted uint64               `json:"cycles_completed"`
	ConversionRate  float64              `json:"conversion_rate"`
	AverageDealSize float64              `json:"average_deal_size"`
	LastCycle       *domain.CycleSummary `json:"last_cycle"`
	StartedAt       time.Time            `json:"started_at"`
	InFlight        bool                 `json:"in_flight"`
	Config          EngineConfig         `json:"config"`
	CreditsMinted   *int64               `json:"credits_minted,omitempty"`
	Timestamp       time.Time            `json:"timestamp"`
}

// CyclesResponse lists the recorded cycle history, oldest first.
type CyclesResponse struct {
	Cycles          []domain.CycleSummary `json:"cycles"`
	Capacity        int                   `json:"capacity"`
	CyclesCompleted uint64                `json:"cycles_completed"`
	Timestamp       time.Time             `json:"timestamp"`
}

// RunCycleResponse acknowledges a manual trigger.
type RunCycleResponse struct {
	Status      string               `json:"status"`
	CycleNumber uint64               `json:"cycle_number"`
	LeadCount   int                  `json:"lead_count"`
	Summary     *domain.CycleSummary `json:"summary,omitempty"`
	Timestamp   time.Time            `json:"timestamp"`
}

// RecentLeadsResponse is the bounded window of recently processed leads.
type RecentLeadsResponse struct {
	Leads     []domain.Lead `json:"leads"`
	Capacity  int           `json:"capacity"`
	Timestamp time.Time     `json:"timestamp"`
}
