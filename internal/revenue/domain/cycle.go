package domain

import "time"

// CycleState is the runner's position in its state machine.
type CycleState int32

const (
	CycleIdle CycleState = iota
	CycleRunning
	CycleSealing
)

func (s CycleState) String() string {
	switch s {
	case CycleIdle:
		return "idle"
	case CycleRunning:
		return "running"
	case CycleSealing:
		return "sealing"
	default:
		return "unknown"
	}
}

// Trigger names what started a cycle.
type Trigger string

const (
	TriggerStartup   Trigger = "startup"
	TriggerScheduler Trigger = "scheduler"
	TriggerManual    Trigger = "manual"
)

// CycleSummary is the immutable record produced when a cycle is sealed.
type CycleSummary struct {
	CycleNumber      uint64        `json:"cycle_number"`
	Trigger          Trigger       `json:"trigger"`
	StartedAt        time.Time     `json:"started_at"`
	EndedAt          time.Time     `json:"ended_at"`
	DurationMs       int64         `json:"duration_ms"`
	Stages           []StageTotals `json:"stages"`
	Leads            int           `json:"leads"`
	EmailsSent       int           `json:"emails_sent"`
	SMSSent          int           `json:"sms_sent"`
	CallsMade        int           `json:"calls_made"`
	VoiceAnswered    int           `json:"voice_answered"`
	DealsClosed      int           `json:"deals_closed"`
	RevenueThisCycle int64         `json:"revenue_this_cycle"`
	TotalRevenue     int64         `json:"total_revenue"`
	Errors           []StageError  `json:"errors,omitempty"`
}

// Clone returns a deep copy so callers cannot alias ledger state.
func (s CycleSummary) Clone() CycleSummary {
	cp := s
	cp.Stages = append([]StageTotals(nil), s.Stages...)
	if s.Errors != nil {
		cp.Errors = append([]StageError(nil), s.Errors...)
	}
	return cp
}

// Tally aggregates stage results into the per-cycle counters.
type Tally struct {
	Leads         int
	EmailsSent    int
	SMSSent       int
	CallsMade     int
	VoiceAnswered int
	DealsClosed   int
	Revenue       int64
}

// TallyResults counts successful sends, placed calls and closed deals.
func TallyResults(results []StageResult) Tally {
	var t Tally
	for _, r := range results {
		switch r.Stage {
		case StageGenerate:
			if r.Success {
				t.Leads++
			}
		case StageEmail:
			if r.Success {
				t.EmailsSent++
			}
		case StageSMS:
			if r.Success {
				t.SMSSent++
			}
		case StageVoice:
			if r.Outcome.CallPlaced() {
				t.CallsMade++
			}
			if r.Success {
				t.VoiceAnswered++
			}
		case StageClose:
			if r.Success {
				t.DealsClosed++
				t.Revenue += r.Amount
			}
		}
	}
	return t
}
