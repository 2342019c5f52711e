package handlers

import (
	"sort"

	"github.com/balalek/partygame-server/internal/bus"
	"github.com/balalek/partygame-server/internal/engineerr"
	"github.com/balalek/partygame-server/internal/model"
	"github.com/balalek/partygame-server/internal/scoring"
)

const guessNumberEpsilon = 1e-4

// InitGuessNumber prepares sub-state for a freshly-current GUESS_A_NUMBER
// question.
func InitGuessNumber(s *model.Session) {
	if s.CurrentQuestion().Type == model.TypeGuessANumber {
		s.GuessNumber = model.NewGuessNumberState()
	}
}

// SubmitNumberGuess implements §4.6's free-for-all guess collection and
// team-mode Phase 1 guess collection.
func SubmitNumberGuess(s *model.Session, out *Outbox, name string, value float64) error {
	q := s.CurrentQuestion()
	if q == nil || q.Type != model.TypeGuessANumber {
		return engineerr.ErrNoActiveQuestion
	}
	gn := s.GuessNumber

	if !s.IsTeamMode {
		if _, done := gn.Guesses[name]; done {
			return engineerr.ErrAlreadyAnswered
		}
		gn.Guesses[name] = value
		out.ToAll(bus.Message{Type: "guess_submitted", Data: map[string]any{
			"submitted_count": len(gn.Guesses),
		}})
		if len(gn.Guesses) >= len(s.Players) {
			finishFreeForAllGuess(s, out)
		}
		return nil
	}

	if gn.Phase != model.GuessNumberPhaseGuess {
		return engineerr.ErrWrongTurn
	}
	team := s.TeamOf(name)
	if team != s.ActiveTeam {
		return engineerr.ErrWrongTurn
	}
	gn.TeamGuesses[name] = value
	out.ToAll(bus.Message{Type: "team_guess_submitted", Data: map[string]any{
		"submitted_count": len(gn.TeamGuesses),
	}})
	return nil
}

// SubmitCaptainChoice implements §4.6 Phase 1's captain final-answer pick.
func SubmitCaptainChoice(s *model.Session, out *Outbox, name string, team model.Team, finalAnswer float64) error {
	q := s.CurrentQuestion()
	if q == nil || q.Type != model.TypeGuessANumber {
		return engineerr.ErrNoActiveQuestion
	}
	gn := s.GuessNumber
	if gn.Phase != model.GuessNumberPhaseGuess || team != s.ActiveTeam {
		return engineerr.ErrWrongTurn
	}
	captain, ok := s.CaptainOf(team)
	if !ok || captain != name {
		return engineerr.ErrWrongTurn
	}
	gn.CaptainFinal = &finalAnswer
	resolvePhaseOne(s, out, finalAnswer)
	return nil
}

func resolvePhaseOne(s *model.Session, out *Outbox, finalAnswer float64) {
	q := s.CurrentQuestion()
	gn := s.GuessNumber

	if absFloat(finalAnswer-q.NumberAnswer) <= guessNumberEpsilon {
		gn.Phase = model.GuessNumberPhaseDone
		s.AddTeamScore(s.ActiveTeam, model.PointsForCorrectAnswerGuessNumberFirstPhase)
		fireGuessNumberCompletion(s, out, s.ActiveTeam, model.PointsForCorrectAnswerGuessNumberFirstPhase)
		return
	}

	gn.Phase = model.GuessNumberPhaseVote
	s.ActiveTeam = s.ActiveTeam.Opponent()
	out.ToAll(bus.Message{Type: "phase_transition", Data: map[string]any{
		"phase":       "vote",
		"active_team": string(s.ActiveTeam),
		"first_answer": finalAnswer,
	}})
}

// SubmitMoreLessVote implements §4.6 Phase 2 voting, including re-votes.
func SubmitMoreLessVote(s *model.Session, out *Outbox, name string, team model.Team, vote model.MoreLessVote) error {
	q := s.CurrentQuestion()
	if q == nil || q.Type != model.TypeGuessANumber {
		return engineerr.ErrNoActiveQuestion
	}
	gn := s.GuessNumber
	if gn.Phase != model.GuessNumberPhaseVote || team != s.ActiveTeam {
		return engineerr.ErrWrongTurn
	}
	gn.Votes[name] = vote
	out.ToAll(bus.Message{Type: "second_team_vote", Data: map[string]any{
		"voted_count": len(gn.Votes),
	}})

	members := s.TeamMembers(team)
	if len(gn.Votes) >= len(members) {
		resolvePhaseTwo(s, out)
	}
	return nil
}

func resolvePhaseTwo(s *model.Session, out *Outbox) {
	q := s.CurrentQuestion()
	gn := s.GuessNumber

	more, less := 0, 0
	for _, v := range gn.Votes {
		if v == model.VoteMore {
			more++
		} else {
			less++
		}
	}

	firstTeam := s.ActiveTeam.Opponent()
	firstAnswer := *gn.CaptainFinal

	var direction model.MoreLessVote
	switch {
	case more > less:
		direction = model.VoteMore
	case less > more:
		direction = model.VoteLess
	default:
		// Tie: captain's own vote breaks it; absent that, spec §9 says
		// award the first team (encoded as the opposite-of-correct
		// direction, undefined when firstAnswer == q.NumberAnswer, which
		// the Phase-1 exact-match fast path normally prevents reaching).
		if captain, ok := s.CaptainOf(s.ActiveTeam); ok {
			if v, voted := gn.Votes[captain]; voted {
				direction = v
				break
			}
		}
		if firstAnswer > q.NumberAnswer {
			direction = model.VoteMore
		} else {
			direction = model.VoteLess
		}
	}

	actualDirection := model.VoteMore
	if firstAnswer > q.NumberAnswer {
		actualDirection = model.VoteLess
	}

	gn.Phase = model.GuessNumberPhaseDone
	winner := s.ActiveTeam
	if direction == actualDirection {
		winner = firstTeam
	}
	s.AddTeamScore(winner, model.PointsForCorrectAnswerGuessNumber)
	fireGuessNumberCompletion(s, out, winner, model.PointsForCorrectAnswerGuessNumber)
}

func finishFreeForAllGuess(s *model.Session, out *Outbox) {
	if s.AllAnswersReceivedFired {
		return
	}
	s.AllAnswersReceivedFired = true
	q := s.CurrentQuestion()
	gn := s.GuessNumber

	type ranked struct {
		name  string
		guess float64
		diff  float64
	}
	var rows []ranked
	for name, g := range gn.Guesses {
		rows = append(rows, ranked{name, g, absFloat(g - q.NumberAnswer)})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].diff < rows[j].diff })

	n := len(s.Players)
	results := make(map[string]any, n)
	for i, r := range rows {
		placementPts := scoring.Placement(i+1, n)
		accuracyPts := scoring.AccuracyBonus(r.guess, q.NumberAnswer)
		total := placementPts + accuracyPts
		s.AddScore(r.name, total)
		results[r.name] = map[string]any{
			"placement":     i + 1,
			"points_earned": total,
			"guess":         r.guess,
		}
		out.To(bus.PlayerRoom(r.name), bus.Message{Type: "answer_correctness", Data: results[r.name]})
	}
	for name := range s.Players {
		if _, answered := gn.Guesses[name]; !answered {
			out.To(bus.PlayerRoom(name), bus.Message{Type: "answer_correctness", Data: map[string]any{
				"placement":     n + 1,
				"points_earned": 0,
				"too_late":      true,
			}})
		}
	}

	out.ToAll(bus.Message{Type: "all_answers_received", Data: map[string]any{
		"correct_answer": q.NumberAnswer,
		"scores":         scoreSnapshot(s),
	}})
}

func fireGuessNumberCompletion(s *model.Session, out *Outbox, winner model.Team, points int) {
	if s.AllAnswersReceivedFired {
		return
	}
	s.AllAnswersReceivedFired = true
	q := s.CurrentQuestion()
	out.ToAll(bus.Message{Type: "all_answers_received", Data: map[string]any{
		"correct_answer": q.NumberAnswer,
		"winning_team":   string(winner),
		"points_earned":  points,
		"scores":         scoreSnapshot(s),
	}})
}

// GuessNumberTimeUp implements §4.6: free-for-all resolves with whatever
// guesses came in; team-mode Phase 1 time-up uses the arithmetic mean of
// submitted guesses as the team's final answer (including the exact-match
// fast path).
func GuessNumberTimeUp(s *model.Session, out *Outbox) {
	if !s.IsTeamMode {
		finishFreeForAllGuess(s, out)
		return
	}
	gn := s.GuessNumber
	if gn.Phase == model.GuessNumberPhaseGuess {
		mean := meanOf(gn.TeamGuesses)
		resolvePhaseOne(s, out, mean)
	} else if gn.Phase == model.GuessNumberPhaseVote {
		resolvePhaseTwo(s, out)
	}
}

func meanOf(m map[string]float64) float64 {
	if len(m) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range m {
		sum += v
	}
	return sum / float64(len(m))
}

func absFloat(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
