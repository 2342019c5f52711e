package handlers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/balalek/partygame-server/internal/engineerr"
	"github.com/balalek/partygame-server/internal/model"
)

func newOpenAnswerSession() *model.Session {
	s := model.NewSession()
	s.Players["alice"] = &model.Player{Name: "alice"}
	s.Players["bob"] = &model.Player{Name: "bob"}
	s.Questions = []*model.Question{{
		Type:           model.TypeOpenAnswer,
		OpenAnswerText: "Prague",
		LengthMS:       10000,
	}}
	s.CurrentIndex = 0
	s.QuestionStartMS = 1000
	InitOpenAnswer(s)
	return s
}

func TestSubmitOpenAnswer_CorrectCaseInsensitiveAwardsPoints(t *testing.T) {
	s := newOpenAnswerSession()
	var out Outbox

	require.NoError(t, SubmitOpenAnswer(s, &out, "alice", " prague ", 1000))
	assert.Greater(t, s.Players["alice"].Score, 0)
	assert.True(t, s.OpenAnswer.CorrectPlayers["alice"])
}

func TestSubmitOpenAnswer_WrongGivesFeedbackNoPoints(t *testing.T) {
	s := newOpenAnswerSession()
	var out Outbox

	require.NoError(t, SubmitOpenAnswer(s, &out, "alice", "Brno", 1000))
	assert.Equal(t, 0, s.Players["alice"].Score)
	assert.False(t, s.OpenAnswer.CorrectPlayers["alice"])
}

func TestSubmitOpenAnswer_AlreadyAnsweredRejected(t *testing.T) {
	s := newOpenAnswerSession()
	var out Outbox
	require.NoError(t, SubmitOpenAnswer(s, &out, "alice", "Prague", 1000))

	err := SubmitOpenAnswer(s, &out, "alice", "Prague", 2000)
	assert.ErrorIs(t, err, engineerr.ErrAlreadyAnswered)
}

func TestSubmitOpenAnswer_AllCorrectFiresCompletion(t *testing.T) {
	s := newOpenAnswerSession()
	var out Outbox
	require.NoError(t, SubmitOpenAnswer(s, &out, "alice", "Prague", 1000))
	require.NoError(t, SubmitOpenAnswer(s, &out, "bob", "Prague", 1000))

	assert.True(t, s.AllAnswersReceivedFired)
}

func TestSubmitOpenAnswer_NoActiveQuestionRejected(t *testing.T) {
	s := newOpenAnswerSession()
	s.CurrentIndex = 5
	var out Outbox

	err := SubmitOpenAnswer(s, &out, "alice", "Prague", 1000)
	assert.ErrorIs(t, err, engineerr.ErrNoActiveQuestion)
}

func TestRevealOpenAnswerLetter_RevealsUpToHalfNonSpaceLength(t *testing.T) {
	s := newOpenAnswerSession() // "Prague" -> 6 non-space chars, cap 3
	var out Outbox
	for i := 0; i < 5; i++ {
		RevealOpenAnswerLetter(s, &out)
	}
	assert.LessOrEqual(t, len(s.OpenAnswer.RevealedPositions), 3)
}

func TestMaskText_PreservesSpacesAndRevealed(t *testing.T) {
	revealed := map[int]bool{0: true}
	masked := maskText("ab cd", revealed)
	assert.Equal(t, "a_ __", masked)
}

func TestOpenAnswerTimeUp_SortsCorrectFirstBySimilarity(t *testing.T) {
	s := newOpenAnswerSession()
	var out Outbox
	require.NoError(t, SubmitOpenAnswer(s, &out, "bob", "Pragu", 1000)) // close but wrong
	OpenAnswerTimeUp(s, &out)

	require.True(t, s.AllAnswersReceivedFired)
	require.Len(t, s.OpenAnswer.Attempts, 1)
	assert.False(t, s.OpenAnswer.Attempts[0].IsCorrect)
}
