package handlers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/balalek/partygame-server/internal/engineerr"
	"github.com/balalek/partygame-server/internal/model"
)

func newDrawingSession() *model.Session {
	s := model.NewSession()
	s.Players["alice"] = &model.Player{Name: "alice"}
	s.Players["bob"] = &model.Player{Name: "bob"}
	s.Players["carol"] = &model.Player{Name: "carol"}
	s.Questions = []*model.Question{{
		Type:          model.TypeDrawing,
		DrawingPlayer: "alice",
		WordChoices:   []string{"cat", "dog", "fish"},
		LengthMS:      10000,
	}}
	s.CurrentIndex = 0
	s.QuestionStartMS = 1000
	InitDrawing(s)
	return s
}

func TestSelectDrawingWord_NotDrawerRejected(t *testing.T) {
	s := newDrawingSession()
	var out Outbox

	err := SelectDrawingWord(s, &out, "bob", "cat", false)
	assert.ErrorIs(t, err, engineerr.ErrWrongTurn)
}

func TestSelectDrawingWord_NotAChoiceRejected(t *testing.T) {
	s := newDrawingSession()
	var out Outbox

	err := SelectDrawingWord(s, &out, "alice", "elephant", false)
	assert.ErrorIs(t, err, engineerr.ErrInvalidArgs)
}

func TestSelectDrawingWord_ValidChoiceSetsSelectedWord(t *testing.T) {
	s := newDrawingSession()
	var out Outbox

	require.NoError(t, SelectDrawingWord(s, &out, "alice", "cat", false))
	assert.Equal(t, "cat", s.CurrentQuestion().SelectedWord)
}

func TestDrawingUpdate_OnlyDrawerAccepted(t *testing.T) {
	s := newDrawingSession()
	var out Outbox
	require.NoError(t, SelectDrawingWord(s, &out, "alice", "cat", false))

	err := DrawingUpdate(s, &out, "bob", map[string]any{"x": 1}, "draw")
	assert.ErrorIs(t, err, engineerr.ErrWrongTurn)

	assert.NoError(t, DrawingUpdate(s, &out, "alice", map[string]any{"x": 1}, "draw"))
}

func TestSubmitDrawingAnswer_DrawerCannotGuess(t *testing.T) {
	s := newDrawingSession()
	var out Outbox
	require.NoError(t, SelectDrawingWord(s, &out, "alice", "cat", false))

	err := SubmitDrawingAnswer(s, &out, "alice", "cat", 1000)
	assert.ErrorIs(t, err, engineerr.ErrWrongTurn)
}

func TestSubmitDrawingAnswer_CorrectAwardsGuesserAndDrawerShare(t *testing.T) {
	s := newDrawingSession()
	var out Outbox
	require.NoError(t, SelectDrawingWord(s, &out, "alice", "cat", false))

	require.NoError(t, SubmitDrawingAnswer(s, &out, "bob", "cat", 1000))

	assert.Greater(t, s.Players["bob"].Score, 0)
	assert.Greater(t, s.Players["alice"].Score, 0) // drawer share
}

func TestSubmitDrawingAnswer_AllGuessersDoneFiresCompletion(t *testing.T) {
	s := newDrawingSession()
	var out Outbox
	require.NoError(t, SelectDrawingWord(s, &out, "alice", "cat", false))

	require.NoError(t, SubmitDrawingAnswer(s, &out, "bob", "cat", 1000))
	require.NoError(t, SubmitDrawingAnswer(s, &out, "carol", "cat", 1000))

	assert.True(t, s.AllAnswersReceivedFired)
}

func TestSubmitDrawingAnswer_AlreadyGuessedRejected(t *testing.T) {
	s := newDrawingSession()
	var out Outbox
	require.NoError(t, SelectDrawingWord(s, &out, "alice", "cat", false))
	require.NoError(t, SubmitDrawingAnswer(s, &out, "bob", "cat", 1000))

	err := SubmitDrawingAnswer(s, &out, "bob", "cat", 2000)
	assert.ErrorIs(t, err, engineerr.ErrAlreadyAnswered)
}

func TestSubmitDrawingAnswer_TeamMode_WrongTeamGuessRejectedSilently(t *testing.T) {
	s := newDrawingSession()
	s.IsTeamMode = true
	s.BlueTeam = []string{"alice", "bob"}
	s.RedTeam = []string{"carol"}
	s.CurrentQuestion().DrawingTeam = model.TeamBlue
	var out Outbox
	require.NoError(t, SelectDrawingWord(s, &out, "alice", "cat", false))

	require.NoError(t, SubmitDrawingAnswer(s, &out, "carol", "cat", 1000))
	assert.Equal(t, 0, s.TeamScores[model.TeamBlue])
}

func TestMaskDrawingWord_HidesUnrevealed(t *testing.T) {
	assert.Equal(t, "___", maskDrawingWord("cat", nil))
	assert.Equal(t, "c__", maskDrawingWord("cat", map[int]bool{0: true}))
}

func TestDrawingTimeUp_FiresCompletionOnce(t *testing.T) {
	s := newDrawingSession()
	var out Outbox
	DrawingTimeUp(s, &out)
	assert.True(t, s.AllAnswersReceivedFired)

	before := len(out.sends)
	DrawingTimeUp(s, &out)
	assert.Equal(t, before, len(out.sends)) // second call is a no-op
}
