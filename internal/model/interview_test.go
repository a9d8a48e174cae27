package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInterviewTerminal(t *testing.T) {
	assert.False(t, InterviewTerminal(InterviewStatusInProgress))
	assert.False(t, InterviewTerminal(InterviewStatusConverting))
	assert.True(t, InterviewTerminal(InterviewStatusCompleted))
	assert.True(t, InterviewTerminal(InterviewStatusCancelled))
}

func TestValidSpeaker(t *testing.T) {
	assert.True(t, ValidSpeaker(SpeakerUser))
	assert.True(t, ValidSpeaker(SpeakerAI))
	assert.False(t, ValidSpeaker("robot"))
	assert.False(t, ValidSpeaker(""))
}

func TestDreamAnalysisRoundTrip(t *testing.T) {
	dream := &Dream{}
	assert.Nil(t, dream.Analysis())

	require.NoError(t, dream.SetAnalysis(&DreamAnalysis{
		Keywords:       []string{"飞行"},
		Clarity:        4,
		Vividness:      2,
		Interpretation: "渴望改变。",
	}))

	got := dream.Analysis()
	require.NotNil(t, got)
	assert.Equal(t, []string{"飞行"}, got.Keywords)
	assert.Equal(t, 4, got.Clarity)
	assert.Equal(t, "渴望改变。", got.Interpretation)
}
