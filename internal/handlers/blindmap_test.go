package handlers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/balalek/partygame-server/internal/engineerr"
	"github.com/balalek/partygame-server/internal/model"
)

func newBlindMapSession() *model.Session {
	s := model.NewSession()
	s.Players["alice"] = &model.Player{Name: "alice"}
	s.Players["bob"] = &model.Player{Name: "bob"}
	s.Questions = []*model.Question{{
		Type:         model.TypeBlindMap,
		CityName:     "Brno",
		Anagram:      "rbno",
		LocationX:    0.5,
		LocationY:    0.5,
		RadiusPreset: model.RadiusEasy,
	}}
	s.CurrentIndex = 0
	InitBlindMap(s)
	return s
}

func TestSubmitBlindMapAnagram_WrongAnswerGivesFeedback(t *testing.T) {
	s := newBlindMapSession()
	var out Outbox

	require.NoError(t, SubmitBlindMapAnagram(s, &out, "alice", "Prague"))
	assert.Empty(t, s.BlindMap.SolveOrder)
}

func TestSubmitBlindMapAnagram_FreeForAll_AllSolvedTransitions(t *testing.T) {
	s := newBlindMapSession()
	var out Outbox

	require.NoError(t, SubmitBlindMapAnagram(s, &out, "alice", "Brno"))
	require.NoError(t, SubmitBlindMapAnagram(s, &out, "bob", "Brno"))

	assert.Equal(t, model.BlindMapPhaseLocate, s.BlindMap.Phase)
	assert.Equal(t, []string{"alice", "bob"}, s.BlindMap.SolveOrder)
}

func TestSubmitBlindMapLocation_FreeForAll_ExactLocationAwardsBonus(t *testing.T) {
	s := newBlindMapSession()
	var out Outbox
	require.NoError(t, SubmitBlindMapAnagram(s, &out, "alice", "Brno"))
	require.NoError(t, SubmitBlindMapAnagram(s, &out, "bob", "Brno"))

	require.NoError(t, SubmitBlindMapLocation(s, &out, "alice", 0.5, 0.5))
	require.NoError(t, SubmitBlindMapLocation(s, &out, "bob", 0.9, 0.9))

	assert.True(t, s.AllAnswersReceivedFired)
	assert.Greater(t, s.Players["alice"].Score, s.Players["bob"].Score)
}

func TestSubmitBlindMapLocation_WrongPhaseRejected(t *testing.T) {
	s := newBlindMapSession()
	var out Outbox

	err := SubmitBlindMapLocation(s, &out, "alice", 0.5, 0.5)
	assert.ErrorIs(t, err, engineerr.ErrWrongTurn)
}

func newTeamBlindMapSession() *model.Session {
	s := newBlindMapSession()
	s.IsTeamMode = true
	s.BlueTeam = []string{"alice"}
	s.RedTeam = []string{"bob"}
	s.HasBlueCaptain = true
	s.HasRedCaptain = true
	return s
}

func TestSubmitBlindMapAnagram_TeamMode_FirstSolverBecomesActive(t *testing.T) {
	s := newTeamBlindMapSession()
	var out Outbox

	require.NoError(t, SubmitBlindMapAnagram(s, &out, "alice", "Brno"))

	assert.Equal(t, model.TeamBlue, s.BlindMap.ActiveTeam)
	assert.Equal(t, model.BlindMapPhaseLocate, s.BlindMap.Phase)
}

func TestSubmitBlindMapLocation_TeamMode_NonCaptainIgnored(t *testing.T) {
	s := newTeamBlindMapSession()
	s.BlueTeam = []string{"alice", "carol"}
	s.Players["carol"] = &model.Player{Name: "carol"}
	var out Outbox
	require.NoError(t, SubmitBlindMapAnagram(s, &out, "alice", "Brno"))

	err := SubmitBlindMapLocation(s, &out, "carol", 0.5, 0.5)
	require.NoError(t, err)
	assert.Equal(t, model.BlindMapPhaseLocate, s.BlindMap.Phase) // unresolved still
}

func TestSubmitBlindMapLocation_TeamMode_CaptainExactWins(t *testing.T) {
	s := newTeamBlindMapSession()
	var out Outbox
	require.NoError(t, SubmitBlindMapAnagram(s, &out, "alice", "Brno"))

	require.NoError(t, SubmitBlindMapLocation(s, &out, "alice", 0.5, 0.5))

	assert.Equal(t, model.BlindMapTeamModePoints, s.TeamScores[model.TeamBlue])
	assert.True(t, s.AllAnswersReceivedFired)
}

func TestSubmitBlindMapLocation_TeamMode_MissMovesToSecondTeam(t *testing.T) {
	s := newTeamBlindMapSession()
	var out Outbox
	require.NoError(t, SubmitBlindMapAnagram(s, &out, "alice", "Brno"))

	require.NoError(t, SubmitBlindMapLocation(s, &out, "alice", 0.99, 0.99))

	assert.Equal(t, model.BlindMapPhaseSecondTeam, s.BlindMap.Phase)
	assert.Equal(t, model.TeamRed, s.BlindMap.ActiveTeam)
}

func TestRequestNextClue_RevealsInOrderSkippingEmpty(t *testing.T) {
	s := newBlindMapSession()
	s.CurrentQuestion().Clue1 = ""
	s.CurrentQuestion().Clue2 = "near a river"
	var out Outbox

	RequestNextClue(s, &out)
	assert.Equal(t, 2, s.BlindMap.CluesRevealed)
}

func TestBlindMapTimeUp_AnagramPhase_FFA_TransitionsToLocateInstead(t *testing.T) {
	s := newBlindMapSession()
	var out Outbox
	require.NoError(t, SubmitBlindMapAnagram(s, &out, "alice", "Brno")) // bob never solves it

	BlindMapTimeUp(s, &out)

	assert.Equal(t, model.BlindMapPhaseLocate, s.BlindMap.Phase)
	assert.False(t, s.AllAnswersReceivedFired) // question isn't over yet, locate still to come

	// bob, who never solved the anagram, can still submit a location guess.
	require.NoError(t, SubmitBlindMapLocation(s, &out, "bob", 0.5, 0.5))
}

func TestBlindMapTimeUp_AnagramPhase_TeamMode_EndsQuestion(t *testing.T) {
	s := newTeamBlindMapSession()
	var out Outbox

	BlindMapTimeUp(s, &out)

	assert.True(t, s.AllAnswersReceivedFired)
	assert.Equal(t, model.BlindMapPhaseAnagram, s.BlindMap.Phase)
}
