package handlers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/balalek/partygame-server/internal/engineerr"
	"github.com/balalek/partygame-server/internal/model"
)

func newGuessNumberSession() *model.Session {
	s := model.NewSession()
	s.Players["alice"] = &model.Player{Name: "alice"}
	s.Players["bob"] = &model.Player{Name: "bob"}
	s.Questions = []*model.Question{{
		Type:         model.TypeGuessANumber,
		NumberAnswer: 100,
		LengthMS:     10000,
	}}
	s.CurrentIndex = 0
	InitGuessNumber(s)
	return s
}

func TestSubmitNumberGuess_FreeForAll_AllInFiresCompletion(t *testing.T) {
	s := newGuessNumberSession()
	var out Outbox

	require.NoError(t, SubmitNumberGuess(s, &out, "alice", 100))
	require.NoError(t, SubmitNumberGuess(s, &out, "bob", 50))

	assert.True(t, s.AllAnswersReceivedFired)
	assert.Greater(t, s.Players["alice"].Score, s.Players["bob"].Score)
}

func TestSubmitNumberGuess_FreeForAll_DuplicateRejected(t *testing.T) {
	s := newGuessNumberSession()
	var out Outbox
	require.NoError(t, SubmitNumberGuess(s, &out, "alice", 100))

	err := SubmitNumberGuess(s, &out, "alice", 90)
	assert.ErrorIs(t, err, engineerr.ErrAlreadyAnswered)
}

func newTeamGuessNumberSession() *model.Session {
	s := newGuessNumberSession()
	s.IsTeamMode = true
	s.BlueTeam = []string{"alice"}
	s.RedTeam = []string{"bob"}
	s.HasBlueCaptain = true
	s.BlueCaptainIndex = 0
	s.HasRedCaptain = true
	s.RedCaptainIndex = 0
	s.ActiveTeam = model.TeamBlue
	return s
}

func TestSubmitCaptainChoice_ExactMatchEndsInPhaseOne(t *testing.T) {
	s := newTeamGuessNumberSession()
	var out Outbox

	require.NoError(t, SubmitCaptainChoice(s, &out, "alice", model.TeamBlue, 100))

	assert.Equal(t, model.GuessNumberPhaseDone, s.GuessNumber.Phase)
	assert.Equal(t, model.PointsForCorrectAnswerGuessNumberFirstPhase, s.TeamScores[model.TeamBlue])
	assert.True(t, s.AllAnswersReceivedFired)
}

func TestSubmitCaptainChoice_WrongTeamRejected(t *testing.T) {
	s := newTeamGuessNumberSession()
	var out Outbox

	err := SubmitCaptainChoice(s, &out, "bob", model.TeamRed, 100)
	assert.ErrorIs(t, err, engineerr.ErrWrongTurn)
}

func TestSubmitCaptainChoice_InexactMovesToVotePhase(t *testing.T) {
	s := newTeamGuessNumberSession()
	var out Outbox

	require.NoError(t, SubmitCaptainChoice(s, &out, "alice", model.TeamBlue, 80))

	assert.Equal(t, model.GuessNumberPhaseVote, s.GuessNumber.Phase)
	assert.Equal(t, model.TeamRed, s.ActiveTeam)
}

func TestSubmitMoreLessVote_MajorityCorrectAwardsFirstTeam(t *testing.T) {
	s := newTeamGuessNumberSession()
	s.RedTeam = []string{"bob"}
	var out Outbox
	require.NoError(t, SubmitCaptainChoice(s, &out, "alice", model.TeamBlue, 80)) // actual direction: more

	require.NoError(t, SubmitMoreLessVote(s, &out, "bob", model.TeamRed, model.VoteMore))

	assert.Equal(t, model.GuessNumberPhaseDone, s.GuessNumber.Phase)
	assert.Equal(t, model.PointsForCorrectAnswerGuessNumber, s.TeamScores[model.TeamBlue])
}

func TestSubmitMoreLessVote_WrongVoteAwardsGuessingTeam(t *testing.T) {
	s := newTeamGuessNumberSession()
	s.RedTeam = []string{"bob"}
	var out Outbox
	require.NoError(t, SubmitCaptainChoice(s, &out, "alice", model.TeamBlue, 80)) // actual direction: more

	require.NoError(t, SubmitMoreLessVote(s, &out, "bob", model.TeamRed, model.VoteLess))

	assert.Equal(t, model.PointsForCorrectAnswerGuessNumber, s.TeamScores[model.TeamRed])
}

func TestGuessNumberTimeUp_TeamMode_PhaseGuessUsesMean(t *testing.T) {
	s := newTeamGuessNumberSession()
	var out Outbox
	s.GuessNumber.TeamGuesses["alice"] = 100

	GuessNumberTimeUp(s, &out)

	assert.Equal(t, model.GuessNumberPhaseDone, s.GuessNumber.Phase)
	assert.True(t, s.AllAnswersReceivedFired)
}

func TestMeanOf_EmptyIsZero(t *testing.T) {
	assert.Equal(t, 0.0, meanOf(nil))
}

func TestAbsFloat(t *testing.T) {
	assert.Equal(t, 5.0, absFloat(-5))
	assert.Equal(t, 5.0, absFloat(5))
}
