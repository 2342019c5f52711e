package handlers

import (
	"strconv"
	"strings"
	"time"

	"github.com/balalek/partygame-server/internal/bus"
	"github.com/balalek/partygame-server/internal/engineerr"
	"github.com/balalek/partygame-server/internal/model"
	"github.com/balalek/partygame-server/internal/scoring"
)

const mathAnswerEpsilon = 1e-3

// mathQuizFastForwardGrace is how much of the sequence timer is left to run
// once one team has scored and the other is fully eliminated: there's
// nothing left to wait for, so the round wraps up shortly instead of
// burning out its full length (grounded on the original's
// fast_forward_timer emission, a fixed 3-second remainder).
const mathQuizFastForwardGrace = 3 * time.Second

// InitMathQuiz prepares sub-state for a freshly-current MATH_QUIZ question.
func InitMathQuiz(s *model.Session) {
	if s.CurrentQuestion().Type == model.TypeMathQuiz {
		s.MathQuiz = model.NewMathQuizState(model.NowMS())
	}
}

// SubmitMathAnswer implements §4.7 submit_math_answer.
func SubmitMathAnswer(s *model.Session, out *Outbox, name, text string, clientTS int64) error {
	q := s.CurrentQuestion()
	if q == nil || q.Type != model.TypeMathQuiz {
		return engineerr.ErrNoActiveQuestion
	}
	mq := s.MathQuiz
	if mq.EliminatedPlayers[name] {
		return engineerr.ErrAlreadyAnswered
	}
	seq := mq.CurrentSequence
	if mq.PlayerAnswers[seq][name] {
		out.To(bus.PlayerRoom(name), bus.Message{Type: "math_feedback", Data: map[string]any{
			"feedback": "already_answered",
		}})
		return nil
	}

	value, ok := parseMathAnswer(text)
	sequence := q.Sequences[seq]
	correct := ok && absFloat(value-sequence.Answer) < mathAnswerEpsilon

	mq.PlayerAnswers[seq][name] = true

	if correct {
		mq.CorrectAnswers[seq][name] = value
		elapsed := model.ClampElapsed(clientTS-mq.SequenceStartMS[seq], sequence.LengthMS)
		points := scoring.MathQuizPoints(elapsed, sequence.LengthMS)
		team := s.TeamOf(name)
		if s.IsTeamMode {
			if !mq.TeamsScored[seq][team] {
				mq.TeamsScored[seq][team] = true
				s.AddTeamScore(team, points)
			}
		} else {
			s.AddScore(name, points)
			mq.GamePoints[name] += points
		}
		out.To(bus.PlayerRoom(name), bus.Message{Type: "math_feedback", Data: map[string]any{
			"correct": true, "points_earned": points,
		}})
	} else {
		mq.EliminatedPlayers[name] = true
		out.To(bus.PlayerRoom(name), bus.Message{Type: "math_feedback", Data: map[string]any{
			"correct": false,
		}})
	}

	out.ToAll(bus.Message{Type: "math_quiz_update", Data: buildMathQuizUpdate(s, mq, seq)})
	checkMathQuizAutoCompletion(s, out)
	return nil
}

func parseMathAnswer(text string) (float64, bool) {
	normalized := strings.ReplaceAll(strings.TrimSpace(text), ",", ".")
	v, err := strconv.ParseFloat(normalized, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// buildMathQuizUpdate reports, per player, whether they've answered this
// sequence and whether they're eliminated. A teammate's correct answer
// marks the whole team as having answered for that sequence (spec §4.7).
func buildMathQuizUpdate(s *model.Session, mq *model.MathQuizState, seq int) map[string]any {
	out := make(map[string]any, len(s.Players))
	for name := range s.Players {
		hasAnswered := mq.PlayerAnswers[seq][name]
		if s.IsTeamMode && !hasAnswered {
			if mq.TeamsScored[seq][s.TeamOf(name)] {
				hasAnswered = true
			}
		}
		out[name] = map[string]any{
			"hasAnswered": hasAnswered,
			"isEliminated": mq.EliminatedPlayers[name],
		}
	}
	return out
}

func checkMathQuizAutoCompletion(s *model.Session, out *Outbox) {
	mq := s.MathQuiz
	seq := mq.CurrentSequence

	if !s.IsTeamMode {
		allEliminated := true
		for name := range s.Players {
			if !mq.EliminatedPlayers[name] {
				allEliminated = false
				break
			}
		}
		if allEliminated {
			fireMathQuizCompletion(s, out)
		}
		return
	}

	blueEliminated := teamFullyEliminated(s, mq, model.TeamBlue)
	redEliminated := teamFullyEliminated(s, mq, model.TeamRed)
	blueScored := mq.TeamsScored[seq][model.TeamBlue]
	redScored := mq.TeamsScored[seq][model.TeamRed]

	switch {
	case blueEliminated && redEliminated:
		fireMathQuizCompletion(s, out)
	case blueScored && redEliminated:
		out.ToAll(bus.Message{Type: "fast_forward_timer", Data: nil})
		out.RequestFastForward(mathQuizFastForwardGrace)
	case redScored && blueEliminated:
		out.ToAll(bus.Message{Type: "fast_forward_timer", Data: nil})
		out.RequestFastForward(mathQuizFastForwardGrace)
	}
}

func teamFullyEliminated(s *model.Session, mq *model.MathQuizState, t model.Team) bool {
	members := s.TeamMembers(t)
	if len(members) == 0 {
		return false
	}
	for _, name := range members {
		if !mq.EliminatedPlayers[name] {
			return false
		}
	}
	return true
}

// MathSequenceCompleted implements §4.7 math_sequence_completed.
func MathSequenceCompleted(s *model.Session, out *Outbox, current, next int) error {
	q := s.CurrentQuestion()
	if q == nil || q.Type != model.TypeMathQuiz {
		return engineerr.ErrNoActiveQuestion
	}
	mq := s.MathQuiz

	if s.IsTeamMode {
		for _, t := range []model.Team{model.TeamBlue, model.TeamRed} {
			if !mq.TeamsScored[current][t] {
				for _, name := range s.TeamMembers(t) {
					mq.EliminatedPlayers[name] = true
				}
			}
		}
	} else {
		for name := range s.Players {
			if !mq.PlayerAnswers[current][name] {
				mq.EliminatedPlayers[name] = true
			}
		}
	}

	if next >= len(q.Sequences) {
		fireMathQuizCompletion(s, out)
		return nil
	}

	mq.CurrentSequence = next
	mq.SequenceStartMS[next] = model.NowMS()
	mq.PlayerAnswers[next] = make(map[string]bool)
	mq.TeamsScored[next] = make(map[model.Team]bool)
	mq.CorrectAnswers[next] = make(map[string]float64)
	out.ToAll(bus.Message{Type: "math_sequence_change", Data: map[string]any{
		"current_sequence": next,
	}})
	return nil
}

// MathQuizTimeUp ends the quiz with current stats (spec §4.7).
func MathQuizTimeUp(s *model.Session, out *Outbox) {
	fireMathQuizCompletion(s, out)
}

func fireMathQuizCompletion(s *model.Session, out *Outbox) {
	if s.AllAnswersReceivedFired {
		return
	}
	s.AllAnswersReceivedFired = true
	q := s.CurrentQuestion()
	mq := s.MathQuiz
	out.ToAll(bus.Message{Type: "all_answers_received", Data: map[string]any{
		"sequences":          q.Sequences,
		"correct_answers":    mq.CorrectAnswers,
		"eliminated_players": keysOf(mq.EliminatedPlayers),
		"game_points":        mq.GamePoints,
		"scores":             scoreSnapshot(s),
	}})
}

func keysOf(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
