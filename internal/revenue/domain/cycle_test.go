package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTallyCountsPlacedCallsSeparatelyFromAnswered(t *testing.T) {
	results := []StageResult{
		{Stage: StageGenerate, LeadID: "a", Success: true, Outcome: OutcomeAccepted},
		{Stage: StageGenerate, LeadID: "b", Success: true, Outcome: OutcomeAccepted},
		{Stage: StageEmail, LeadID: "a", Success: true, Channel: ChannelEmail, Outcome: OutcomeSent},
		{Stage: StageEmail, LeadID: "b", Channel: ChannelEmail, Outcome: OutcomeTimeout},
		{Stage: StageSMS, LeadID: "a", Channel: ChannelSMS, Outcome: OutcomeDisabled},
		{Stage: StageVoice, LeadID: "a", Success: true, Channel: ChannelVoice, Outcome: OutcomeAnswered},
		{Stage: StageVoice, LeadID: "b", Channel: ChannelVoice, Outcome: OutcomeVoicemail},
		{Stage: StageVoice, LeadID: "c", Channel: ChannelVoice, Outcome: OutcomeFailed},
		{Stage: StageClose, LeadID: "a", Success: true, Outcome: OutcomeClosedWon, Amount: 997},
		{Stage: StageClose, LeadID: "b", Outcome: OutcomeFollowUp},
	}

	got := TallyResults(results)
	assert.Equal(t, Tally{
		Leads:         2,
		EmailsSent:    1,
		SMSSent:       0,
		CallsMade:     2,
		VoiceAnswered: 1,
		DealsClosed:   1,
		Revenue:       997,
	}, got)
}

func TestRaiseScoreCapsAtMaximum(t *testing.T) {
	lead := &Lead{Score: 90}
	lead.RaiseScore(20)
	assert.Equal(t, MaxScore, lead.Score)
}

func TestCloneDoesNotShareHistory(t *testing.T) {
	lead := &Lead{ID: "x", History: []Channel{ChannelEmail}}
	cp := lead.Clone()
	lead.Touch(ChannelSMS)
	assert.Equal(t, []Channel{ChannelEmail}, cp.History)
}
