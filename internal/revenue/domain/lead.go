package domain

// LeadStatus is the funnel position of a lead within one cycle.
type LeadStatus string

const (
	LeadStatusNew       LeadStatus = "new"
	LeadStatusContacted LeadStatus = "contacted"
	LeadStatusQualified LeadStatus = "qualified"
	LeadStatusClosedWon LeadStatus = "closed_won"
	LeadStatusFollowUp  LeadStatus = "follow_up"
)

// Channel identifies an outreach channel.
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
	ChannelVoice Channel = "voice"
)

// Channels lists every outreach channel in funnel order.
var Channels = []Channel{ChannelEmail, ChannelSMS, ChannelVoice}

const (
	MinScore = 1
	MaxScore = 100
)

// Lead is a synthetic prospect. It lives for one cycle and is only mutated by
// the stage currently handling it.
type Lead struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	Email          string     `json:"email"`
	Phone          string     `json:"phone"`
	Score          int        `json:"score"`
	EstimatedValue int64      `json:"estimated_value"`
	Status         LeadStatus `json:"status"`
	History        []Channel  `json:"history"`
}

// Touch records a successful contact on the given channel.
func (l *Lead) Touch(ch Channel) {
	l.History = append(l.History, ch)
}

// RaiseScore adds bonus to the score, capped at MaxScore.
func (l *Lead) RaiseScore(bonus int) {
	l.Score += bonus
	if l.Score > MaxScore {
		l.Score = MaxScore
	}
}

// Clone returns a copy that shares no memory with l.
func (l *Lead) Clone() Lead {
	cp := *l
	cp.History = append([]Channel(nil), l.History...)
	return cp
}
