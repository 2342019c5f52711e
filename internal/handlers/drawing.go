package handlers

import (
	"strings"
	"unicode"

	"github.com/balalek/partygame-server/internal/bus"
	"github.com/balalek/partygame-server/internal/engineerr"
	"github.com/balalek/partygame-server/internal/model"
	"github.com/balalek/partygame-server/internal/scoring"
)

// InitDrawing prepares sub-state for a freshly-current DRAWING question.
func InitDrawing(s *model.Session) {
	if s.CurrentQuestion().Type == model.TypeDrawing {
		s.Drawing = model.NewDrawingState()
	}
}

// SelectDrawingWord implements §4.9 select_drawing_word.
func SelectDrawingWord(s *model.Session, out *Outbox, name, word string, isLate bool) error {
	q := s.CurrentQuestion()
	if q == nil || q.Type != model.TypeDrawing {
		return engineerr.ErrNoActiveQuestion
	}
	if q.DrawingPlayer != name {
		return engineerr.ErrWrongTurn
	}
	found := false
	for _, choice := range q.WordChoices {
		if choice == word {
			found = true
			break
		}
	}
	if !found {
		return engineerr.ErrInvalidArgs
	}

	q.SelectedWord = word
	q.IsLateSelection = isLate
	s.Drawing = model.NewDrawingState()

	out.To(bus.PlayerRoom(name), bus.Message{Type: "word_selected", Data: map[string]any{
		"word": word,
	}})
	out.ToAll(bus.Message{Type: "word_selected", Data: map[string]any{
		"masked": maskDrawingWord(word, nil),
	}})
	return nil
}

func maskDrawingWord(word string, revealed map[int]bool) string {
	var b strings.Builder
	for i, r := range word {
		switch {
		case unicode.IsSpace(r):
			b.WriteRune(r)
		case revealed != nil && revealed[i]:
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}

// DrawingUpdate implements §4.9 drawing_update: accepted only from the
// current drawer, rebroadcast for the main display to render.
func DrawingUpdate(s *model.Session, out *Outbox, name string, drawingData any, action string) error {
	q := s.CurrentQuestion()
	if q == nil || q.Type != model.TypeDrawing || q.DrawingPlayer != name {
		return engineerr.ErrWrongTurn
	}
	out.To(bus.MainDisplayRoom, bus.Message{Type: "drawing_update_broadcast", Data: map[string]any{
		"drawing_data": drawingData,
		"action":       action,
	}})
	return nil
}

// RevealDrawingLetter mirrors §4.5's reveal cap/logic for the drawn word.
func RevealDrawingLetter(s *model.Session, out *Outbox) {
	q := s.CurrentQuestion()
	if q == nil || q.Type != model.TypeDrawing || q.SelectedWord == "" {
		return
	}
	d := s.Drawing
	capN := nonSpaceCount(q.SelectedWord) / 2
	if len(d.RevealedPositions) >= capN {
		return
	}
	candidates := make([]int, 0, len(q.SelectedWord))
	for i, r := range q.SelectedWord {
		if !unicode.IsSpace(r) && !d.RevealedPositions[i] {
			candidates = append(candidates, i)
		}
	}
	if len(candidates) == 0 {
		return
	}
	pick := candidates[0]
	d.RevealedPositions[pick] = true
	out.ToAll(bus.Message{Type: "drawing_letter_revealed", Data: map[string]any{
		"mask": maskDrawingWord(q.SelectedWord, d.RevealedPositions),
	}})
}

// SubmitDrawingAnswer implements §4.9 submit_drawing_answer.
func SubmitDrawingAnswer(s *model.Session, out *Outbox, name, text string, clientTS int64) error {
	q := s.CurrentQuestion()
	if q == nil || q.Type != model.TypeDrawing {
		return engineerr.ErrNoActiveQuestion
	}
	if name == q.DrawingPlayer {
		return engineerr.ErrWrongTurn
	}
	d := s.Drawing
	if d.CorrectGuessers[name] {
		return engineerr.ErrAlreadyAnswered
	}

	if s.IsTeamMode && s.TeamOf(name) != q.DrawingTeam {
		out.To(bus.PlayerRoom(name), bus.Message{Type: "drawing_answer_feedback", Data: map[string]any{
			"feedback": "wrong_team",
		}})
		return nil
	}

	correct := strings.EqualFold(strings.TrimSpace(text), strings.TrimSpace(q.SelectedWord))
	if !correct {
		sim := scoring.Similarity(strings.ToLower(text), strings.ToLower(q.SelectedWord))
		d.Attempts = append(d.Attempts, model.DrawingGuess{PlayerName: name, IsCorrect: false, Similarity: sim})
		out.To(bus.PlayerRoom(name), bus.Message{Type: "drawing_answer_feedback", Data: map[string]any{
			"feedback": string(scoring.Classify(text, q.SelectedWord)),
		}})
		return nil
	}

	d.CorrectGuessers[name] = true
	elapsed := model.ClampElapsed(clientTS-s.QuestionStartMS, q.LengthMS)
	points := model.PointsForCorrectAnswer + scoring.SpeedBonus(model.PointsForCorrectAnswer, elapsed, q.LengthMS)
	d.Attempts = append(d.Attempts, model.DrawingGuess{PlayerName: name, IsCorrect: true, PointsEarned: points})

	if s.IsTeamMode {
		s.AddTeamScore(q.DrawingTeam, points)
	} else {
		s.AddScore(name, points)
	}

	totalGuessers := totalGuessersFor(s, q)
	drawerShare := 0
	if totalGuessers > 0 {
		drawerShare = model.PointsForCorrectAnswer / totalGuessers
		if q.IsLateSelection {
			drawerShare /= 2
		}
	}
	if !s.IsTeamMode {
		s.AddScore(q.DrawingPlayer, drawerShare)
		d.DrawerPointsEarned += drawerShare
	}

	out.ToAll(bus.Message{Type: "drawing_answer_submitted", Data: map[string]any{
		"player_name":   name,
		"points_earned": points,
		"correct_count": len(d.CorrectGuessers),
	}})

	if drawingComplete(s, q, d) {
		fireDrawingCompletion(s, out, q, d)
	}
	return nil
}

func totalGuessersFor(s *model.Session, q *model.Question) int {
	if s.IsTeamMode {
		return len(s.TeamMembers(q.DrawingTeam)) - 1
	}
	return len(s.Players) - 1
}

func drawingComplete(s *model.Session, q *model.Question, d *model.DrawingState) bool {
	if s.IsTeamMode {
		return len(d.CorrectGuessers) > 0
	}
	return len(d.CorrectGuessers) >= totalGuessersFor(s, q)
}

func fireDrawingCompletion(s *model.Session, out *Outbox, q *model.Question, d *model.DrawingState) {
	if s.AllAnswersReceivedFired {
		return
	}
	s.AllAnswersReceivedFired = true

	bonus := 50
	if q.IsLateSelection {
		bonus = 25
	}
	cumulativeScore := s.TeamScores[q.DrawingTeam]
	if !s.IsTeamMode {
		s.AddScore(q.DrawingPlayer, bonus)
		d.DrawerPointsEarned += bonus
		cumulativeScore = s.Players[q.DrawingPlayer].Score
	}

	sorted := append([]model.DrawingGuess(nil), d.Attempts...)
	sortAttempts(sorted)

	out.ToAll(bus.Message{Type: "all_answers_received", Data: map[string]any{
		"attempts": sorted,
		"drawer_stats": map[string]any{
			"pointsEarned":      d.DrawerPointsEarned,
			"totalPoints":       cumulativeScore,
			"correct_count":     len(d.CorrectGuessers),
			"total_guessers":    totalGuessersFor(s, q),
			"is_late_selection": q.IsLateSelection,
		},
		"scores": scoreSnapshot(s),
	}})
}

func sortAttempts(attempts []model.DrawingGuess) {
	// Correct attempts first, then incorrect ascending by similarity.
	for i := 1; i < len(attempts); i++ {
		for j := i; j > 0 && lessAttempt(attempts[j], attempts[j-1]); j-- {
			attempts[j], attempts[j-1] = attempts[j-1], attempts[j]
		}
	}
}

func lessAttempt(a, b model.DrawingGuess) bool {
	if a.IsCorrect != b.IsCorrect {
		return a.IsCorrect
	}
	return a.Similarity < b.Similarity
}

// DrawingTimeUp implements §4.9 time_up: emit results with current stats.
func DrawingTimeUp(s *model.Session, out *Outbox) {
	q := s.CurrentQuestion()
	if q == nil || q.Type != model.TypeDrawing {
		return
	}
	fireDrawingCompletion(s, out, q, s.Drawing)
}
