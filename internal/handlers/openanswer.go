package handlers

import (
	"math/rand"
	"sort"
	"strings"
	"unicode"

	"github.com/balalek/partygame-server/internal/bus"
	"github.com/balalek/partygame-server/internal/engineerr"
	"github.com/balalek/partygame-server/internal/model"
	"github.com/balalek/partygame-server/internal/scoring"
)

// InitOpenAnswer prepares sub-state for a freshly-current OPEN_ANSWER
// question.
func InitOpenAnswer(s *model.Session) {
	if s.CurrentQuestion().Type == model.TypeOpenAnswer {
		s.OpenAnswer = model.NewOpenAnswerState()
	}
}

// SubmitOpenAnswer implements §4.5 submit_open_answer.
func SubmitOpenAnswer(s *model.Session, out *Outbox, name, text string, clientTS int64) error {
	q := s.CurrentQuestion()
	if q == nil || q.Type != model.TypeOpenAnswer {
		return engineerr.ErrNoActiveQuestion
	}
	oa := s.OpenAnswer
	if oa.CorrectPlayers[name] {
		return engineerr.ErrAlreadyAnswered
	}

	match := strings.EqualFold(strings.TrimSpace(text), strings.TrimSpace(q.OpenAnswerText))
	team := s.TeamOf(name)

	if match {
		oa.CorrectPlayers[name] = true
		elapsed := model.ClampElapsed(clientTS-s.QuestionStartMS, q.LengthMS)
		points := model.PointsForCorrectAnswer + scoring.SpeedBonus(model.PointsForCorrectAnswer, elapsed, q.LengthMS)
		oa.Attempts = append(oa.Attempts, model.OpenAnswerAttempt{PlayerName: name, Text: text, IsCorrect: true, PointsEarned: points})

		if s.IsTeamMode {
			if !oa.CorrectTeams[team] {
				oa.CorrectTeams[team] = true
				s.AddTeamScore(team, points)
			}
			msg := bus.Message{Type: "answer_correctness", Data: map[string]any{"correct": true, "points_earned": points, "is_team_score": true}}
			for _, member := range s.TeamMembers(team) {
				out.To(bus.PlayerRoom(member), msg)
			}
		} else {
			s.AddScore(name, points)
			out.To(bus.PlayerRoom(name), bus.Message{Type: "answer_correctness", Data: map[string]any{"correct": true, "points_earned": points, "is_team_score": false}})
		}

		out.ToAll(bus.Message{Type: "open_answer_submitted", Data: map[string]any{
			"correct_count": len(oa.CorrectPlayers),
		}})
	} else {
		sim := scoring.Similarity(strings.ToLower(text), strings.ToLower(q.OpenAnswerText))
		feedback := scoring.Classify(text, q.OpenAnswerText)
		oa.Attempts = append(oa.Attempts, model.OpenAnswerAttempt{PlayerName: name, Text: text, IsCorrect: false, Similarity: sim})
		out.To(bus.PlayerRoom(name), bus.Message{Type: "open_answer_feedback", Data: map[string]any{
			"feedback": string(feedback),
		}})
	}

	if openAnswerComplete(s, oa) {
		fireOpenAnswerCompletion(s, out)
	}
	return nil
}

func openAnswerComplete(s *model.Session, oa *model.OpenAnswerState) bool {
	if s.IsTeamMode {
		return oa.CorrectTeams[model.TeamBlue] && oa.CorrectTeams[model.TeamRed]
	}
	return len(oa.CorrectPlayers) >= len(s.Players)
}

// RevealOpenAnswerLetter implements §4.5 reveal_open_answer_letter: reveal
// one not-yet-revealed non-space position, capped at half the non-space
// length (spec §8 round-trip: the revealed set only grows).
func RevealOpenAnswerLetter(s *model.Session, out *Outbox) {
	q := s.CurrentQuestion()
	if q == nil || q.Type != model.TypeOpenAnswer {
		return
	}
	oa := s.OpenAnswer
	text := q.OpenAnswerText
	revealCap := nonSpaceCount(text) / 2

	if len(oa.RevealedPositions) >= revealCap {
		return
	}
	candidates := make([]int, 0, len(text))
	for i, r := range text {
		if unicode.IsSpace(r) || oa.RevealedPositions[i] {
			continue
		}
		candidates = append(candidates, i)
	}
	if len(candidates) == 0 {
		return
	}
	pick := candidates[rand.Intn(len(candidates))]
	oa.RevealedPositions[pick] = true

	out.ToAll(bus.Message{Type: "open_answer_letter_revealed", Data: map[string]any{
		"mask": maskText(text, oa.RevealedPositions),
	}})
}

func nonSpaceCount(text string) int {
	n := 0
	for _, r := range text {
		if !unicode.IsSpace(r) {
			n++
		}
	}
	return n
}

func maskText(text string, revealed map[int]bool) string {
	var b strings.Builder
	for i, r := range text {
		switch {
		case unicode.IsSpace(r):
			b.WriteRune(r)
		case revealed[i]:
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}

// OpenAnswerTimeUp implements §4.5 time_up: emit results with current stats.
func OpenAnswerTimeUp(s *model.Session, out *Outbox) {
	fireOpenAnswerCompletion(s, out)
}

func fireOpenAnswerCompletion(s *model.Session, out *Outbox) {
	if s.AllAnswersReceivedFired {
		return
	}
	s.AllAnswersReceivedFired = true
	oa := s.OpenAnswer
	sorted := append([]model.OpenAnswerAttempt(nil), oa.Attempts...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].IsCorrect != sorted[j].IsCorrect {
			return sorted[i].IsCorrect
		}
		return sorted[i].Similarity < sorted[j].Similarity
	})
	out.ToAll(bus.Message{Type: "all_answers_received", Data: map[string]any{
		"attempts": sorted,
		"scores":   scoreSnapshot(s),
	}})
}
