package handlers

import (
	"github.com/balalek/partygame-server/internal/bus"
	"github.com/balalek/partygame-server/internal/engineerr"
	"github.com/balalek/partygame-server/internal/model"
	"github.com/balalek/partygame-server/internal/scoring"
)

// SubmitAnswer implements ABCD/TRUE_FALSE submit_answer (spec §4.4).
func SubmitAnswer(s *model.Session, out *Outbox, name string, answerIndex int, clientTS int64) error {
	q := s.CurrentQuestion()
	if q == nil || (q.Type != model.TypeABCD && q.Type != model.TypeTrueFalse) {
		return engineerr.ErrNoActiveQuestion
	}
	if s.AllAnswersReceivedFired {
		return engineerr.ErrAlreadyAnswered
	}
	if answerIndex < 0 || answerIndex >= len(q.Options) {
		return engineerr.ErrInvalidArgs
	}

	correct := answerIndex == q.Answer
	elapsed := model.ClampElapsed(clientTS-s.QuestionStartMS, q.LengthMS)
	points := 0
	if correct {
		points = model.PointsForCorrectAnswer + scoring.SpeedBonus(model.PointsForCorrectAnswer, elapsed, q.LengthMS)
	}

	team := s.TeamOf(name)
	if s.IsTeamMode {
		s.AddTeamScore(team, points)
		correctnessMsg := bus.Message{Type: "answer_correctness", Data: map[string]any{
			"correct":        correct,
			"points_earned":  points,
			"is_team_score":  true,
		}}
		for _, member := range s.TeamMembers(team) {
			out.To(bus.PlayerRoom(member), correctnessMsg)
		}
	} else {
		s.AddScore(name, points)
		out.To(bus.PlayerRoom(name), bus.Message{Type: "answer_correctness", Data: map[string]any{
			"correct":       correct,
			"points_earned": points,
			"is_team_score": false,
		}})
	}

	s.AnswersReceived++
	s.AnswerCounts[answerIndex]++
	out.ToAll(bus.Message{Type: "answer_submitted", Data: map[string]any{
		"answers_received": s.AnswersReceived,
		"answer_counts":     s.AnswerCounts,
	}})

	if s.AnswersReceived >= requiredCompletions(s) {
		fireABCDCompletion(s, out)
	}
	return nil
}

// ABCDTimeUp implements §4.4's time_up: same completion payload regardless
// of partial answers.
func ABCDTimeUp(s *model.Session, out *Outbox) {
	if !s.AllAnswersReceivedFired {
		fireABCDCompletion(s, out)
	}
}

func fireABCDCompletion(s *model.Session, out *Outbox) {
	if s.AllAnswersReceivedFired {
		return
	}
	s.AllAnswersReceivedFired = true
	q := s.CurrentQuestion()
	out.ToAll(bus.Message{Type: "all_answers_received", Data: map[string]any{
		"correct_answer": q.Answer,
		"answer_counts":  s.AnswerCounts,
		"scores":         scoreSnapshot(s),
	}})
}

// scoreSnapshot builds the per-player-or-team score map included on
// completion events, shared by every type handler's completion payload.
func scoreSnapshot(s *model.Session) map[string]any {
	if s.IsTeamMode {
		return map[string]any{
			"blue": s.TeamScores[model.TeamBlue],
			"red":  s.TeamScores[model.TeamRed],
		}
	}
	out := make(map[string]any, len(s.Players))
	for name, p := range s.Players {
		out[name] = p.Score
	}
	return out
}
