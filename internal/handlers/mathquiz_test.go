package handlers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/balalek/partygame-server/internal/model"
)

func newMathQuizSession() *model.Session {
	s := model.NewSession()
	s.Players["alice"] = &model.Player{Name: "alice"}
	s.Players["bob"] = &model.Player{Name: "bob"}
	s.Questions = []*model.Question{{
		Type: model.TypeMathQuiz,
		Sequences: []model.MathSequence{
			{Equation: "2+2", Answer: 4, LengthMS: 10000},
			{Equation: "3+3", Answer: 6, LengthMS: 10000},
		},
	}}
	s.CurrentIndex = 0
	s.MathQuiz = model.NewMathQuizState(1000)
	return s
}

func TestSubmitMathAnswer_CorrectAwardsPointsAndComma(t *testing.T) {
	s := newMathQuizSession()
	var out Outbox

	require.NoError(t, SubmitMathAnswer(s, &out, "alice", "4,0", 1000))
	assert.Equal(t, 75, s.Players["alice"].Score)
	assert.False(t, s.MathQuiz.EliminatedPlayers["alice"])
}

func TestSubmitMathAnswer_WrongEliminatesPlayer(t *testing.T) {
	s := newMathQuizSession()
	var out Outbox

	require.NoError(t, SubmitMathAnswer(s, &out, "bob", "999", 1000))
	assert.True(t, s.MathQuiz.EliminatedPlayers["bob"])
	assert.Equal(t, 0, s.Players["bob"].Score)
}

func TestSubmitMathAnswer_UnparsableTextTreatedAsWrong(t *testing.T) {
	s := newMathQuizSession()
	var out Outbox

	require.NoError(t, SubmitMathAnswer(s, &out, "alice", "not a number", 1000))
	assert.True(t, s.MathQuiz.EliminatedPlayers["alice"])
}

func TestSubmitMathAnswer_AllEliminatedFreeForAllFiresCompletion(t *testing.T) {
	s := newMathQuizSession()
	var out Outbox

	require.NoError(t, SubmitMathAnswer(s, &out, "alice", "0", 1000))
	require.NoError(t, SubmitMathAnswer(s, &out, "bob", "0", 1000))

	assert.True(t, s.AllAnswersReceivedFired)
}

func TestMathSequenceCompleted_EliminatesNonAnswerersAndAdvances(t *testing.T) {
	s := newMathQuizSession()
	var out Outbox
	require.NoError(t, SubmitMathAnswer(s, &out, "alice", "4", 1000)) // bob never answers sequence 0

	require.NoError(t, MathSequenceCompleted(s, &out, 0, 1))

	assert.True(t, s.MathQuiz.EliminatedPlayers["bob"])
	assert.Equal(t, 1, s.MathQuiz.CurrentSequence)
}

func TestMathSequenceCompleted_PastLastSequenceFiresCompletion(t *testing.T) {
	s := newMathQuizSession()
	var out Outbox

	require.NoError(t, MathSequenceCompleted(s, &out, 1, 2))
	assert.True(t, s.AllAnswersReceivedFired)
}

func newTeamMathQuizSession() *model.Session {
	s := newMathQuizSession()
	s.IsTeamMode = true
	s.BlueTeam = []string{"alice"}
	s.RedTeam = []string{"bob"}
	return s
}

func TestSubmitMathAnswer_TeamMode_OneTeamScoredOtherEliminatedRequestsFastForward(t *testing.T) {
	s := newTeamMathQuizSession()
	var out Outbox

	require.NoError(t, SubmitMathAnswer(s, &out, "bob", "999", 1000)) // red eliminated
	require.NoError(t, SubmitMathAnswer(s, &out, "alice", "4", 1000)) // blue scores

	assert.True(t, out.FastForwardRequested)
	assert.Equal(t, mathQuizFastForwardGrace, out.FastForwardRemaining)
	assert.False(t, s.AllAnswersReceivedFired) // blue's sequence win alone doesn't end the quiz
}

func TestSubmitMathAnswer_TeamMode_BothTeamsEliminatedFiresCompletionWithoutFastForward(t *testing.T) {
	s := newTeamMathQuizSession()
	var out Outbox

	require.NoError(t, SubmitMathAnswer(s, &out, "bob", "999", 1000))
	require.NoError(t, SubmitMathAnswer(s, &out, "alice", "999", 1000))

	assert.True(t, s.AllAnswersReceivedFired)
	assert.False(t, out.FastForwardRequested)
}
