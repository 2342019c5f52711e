package model

import "testing"

func TestTeam_Opponent(t *testing.T) {
	if TeamBlue.Opponent() != TeamRed {
		t.Error("blue's opponent should be red")
	}
	if TeamRed.Opponent() != TeamBlue {
		t.Error("red's opponent should be blue")
	}
	if TeamNone.Opponent() != TeamNone {
		t.Error("no team's opponent should be no team")
	}
}

func TestNewSession_StartsEmpty(t *testing.T) {
	s := NewSession()
	if len(s.Players) != 0 {
		t.Error("fresh session should have no players")
	}
	if s.IsQuizActive || s.IsGameRunning {
		t.Error("fresh session should not be active or running")
	}
}

func TestAdvanceTo_ClearsPerQuestionStateButKeepsPlayers(t *testing.T) {
	s := NewSession()
	s.Players["alice"] = &Player{Name: "alice", Score: 10}
	s.OpenAnswer = &OpenAnswerState{}
	s.AnswersReceived = 3

	s.AdvanceTo(1)

	if s.CurrentIndex != 1 {
		t.Errorf("CurrentIndex = %d, want 1", s.CurrentIndex)
	}
	if s.OpenAnswer != nil {
		t.Error("per-question sub-state should be cleared on advance")
	}
	if s.AnswersReceived != 0 {
		t.Error("answer bookkeeping should reset on advance")
	}
	if _, ok := s.Players["alice"]; !ok {
		t.Error("players should survive a question advance")
	}
}

func TestCurrentQuestion_NilWhenOutOfRange(t *testing.T) {
	s := NewSession()
	if s.CurrentQuestion() != nil {
		t.Error("no questions loaded should yield a nil current question")
	}
	s.Questions = []*Question{{Type: TypeABCD}}
	s.CurrentIndex = 5
	if s.CurrentQuestion() != nil {
		t.Error("out-of-range index should yield a nil current question")
	}
}

func TestTeamOf(t *testing.T) {
	s := NewSession()
	s.BlueTeam = []string{"alice"}
	s.RedTeam = []string{"bob"}

	if s.TeamOf("alice") != TeamBlue {
		t.Error("alice should be on blue team")
	}
	if s.TeamOf("bob") != TeamRed {
		t.Error("bob should be on red team")
	}
	if s.TeamOf("carol") != TeamNone {
		t.Error("carol is on no team")
	}
}

func TestCaptainOf_ReturnsFalseWhenUnassigned(t *testing.T) {
	s := NewSession()
	s.BlueTeam = []string{"alice"}

	if _, ok := s.CaptainOf(TeamBlue); ok {
		t.Error("no captain assigned yet, should return false")
	}
	s.HasBlueCaptain = true
	s.BlueCaptainIndex = 0
	name, ok := s.CaptainOf(TeamBlue)
	if !ok || name != "alice" {
		t.Errorf("CaptainOf(blue) = %q, %v, want alice, true", name, ok)
	}
}

func TestAddScore_IgnoresNonPositiveDelta(t *testing.T) {
	s := NewSession()
	s.Players["alice"] = &Player{Name: "alice"}

	s.AddScore("alice", -10)
	if s.Players["alice"].Score != 0 {
		t.Error("negative delta should be a no-op")
	}
	s.AddScore("alice", 50)
	if s.Players["alice"].Score != 50 {
		t.Errorf("score = %d, want 50", s.Players["alice"].Score)
	}
}

func TestAddTeamScore_IgnoresTeamNone(t *testing.T) {
	s := NewSession()
	s.AddTeamScore(TeamNone, 100)
	if s.TeamScores[TeamBlue] != 0 || s.TeamScores[TeamRed] != 0 {
		t.Error("TeamNone should never accumulate score")
	}
}

func TestClampElapsed(t *testing.T) {
	if got := ClampElapsed(-1, 1000); got != 0 {
		t.Errorf("negative elapsed should clamp to 0, got %d", got)
	}
	if got := ClampElapsed(5000, 1000); got != 1000 {
		t.Errorf("over-length elapsed should clamp to lengthMS, got %d", got)
	}
	if got := ClampElapsed(500, 1000); got != 500 {
		t.Errorf("in-range elapsed should pass through, got %d", got)
	}
}
