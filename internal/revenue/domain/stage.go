package domain

// StageName identifies one step of the revenue pipeline.
type StageName string

const (
	StageGenerate StageName = "generate"
	StageEmail    StageName = "email"
	StageSMS      StageName = "sms"
	StageVoice    StageName = "voice"
	StageClose    StageName = "close"
)

// Stages lists the pipeline in execution order.
var Stages = []StageName{StageGenerate, StageEmail, StageSMS, StageVoice, StageClose}

// Outcome is the stage-defined tag attached to a StageResult.
type Outcome string

const (
	OutcomeAccepted Outcome = "accepted"

	OutcomeSent     Outcome = "sent"
	OutcomeFailed   Outcome = "failed"
	OutcomeTimeout  Outcome = "timeout"
	OutcomeDisabled Outcome = "disabled"

	OutcomeAnswered  Outcome = "answered"
	OutcomeNoAnswer  Outcome = "no_answer"
	OutcomeVoicemail Outcome = "voicemail"

	OutcomeClosedWon Outcome = "closed_won"
	OutcomeFollowUp  Outcome = "follow_up"
)

// CallPlaced reports whether a voice outcome means the call actually went out.
func (o Outcome) CallPlaced() bool {
	return o == OutcomeAnswered || o == OutcomeNoAnswer || o == OutcomeVoicemail
}

// StageResult is the per-lead record a stage produces. It is never modified
// after creation.
type StageResult struct {
	Stage   StageName `json:"stage"`
	LeadID  string    `json:"lead_id"`
	Success bool      `json:"success"`
	Channel Channel   `json:"channel,omitempty"`
	Outcome Outcome   `json:"outcome"`
	Amount  int64     `json:"amount,omitempty"`
}

// StageTotals counts the leads a stage attempted and how many succeeded.
type StageTotals struct {
	Stage     StageName `json:"stage"`
	Attempted int       `json:"attempted"`
	Succeeded int       `json:"succeeded"`
}

// StageError records an unexpected failure caught at a stage boundary.
type StageError struct {
	Stage   StageName `json:"stage"`
	Message string    `json:"message"`
}
