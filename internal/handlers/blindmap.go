package handlers

import (
	"strings"

	"github.com/balalek/partygame-server/internal/bus"
	"github.com/balalek/partygame-server/internal/engineerr"
	"github.com/balalek/partygame-server/internal/model"
	"github.com/balalek/partygame-server/internal/scoring"
)

// InitBlindMap prepares sub-state for a freshly-current BLIND_MAP question.
func InitBlindMap(s *model.Session) {
	if s.CurrentQuestion().Type == model.TypeBlindMap {
		s.BlindMap = model.NewBlindMapState()
	}
}

// SubmitBlindMapAnagram implements §4.10 Phase 1 (anagram -> city name).
func SubmitBlindMapAnagram(s *model.Session, out *Outbox, name, answer string) error {
	q := s.CurrentQuestion()
	if q == nil || q.Type != model.TypeBlindMap {
		return engineerr.ErrNoActiveQuestion
	}
	bm := s.BlindMap
	if bm.Phase != model.BlindMapPhaseAnagram {
		return engineerr.ErrWrongTurn
	}
	if !strings.EqualFold(strings.TrimSpace(answer), strings.TrimSpace(q.CityName)) {
		out.To(bus.PlayerRoom(name), bus.Message{Type: "blind_map_feedback", Data: map[string]any{"correct": false}})
		return nil
	}

	out.To(bus.PlayerRoom(name), bus.Message{Type: "blind_map_feedback", Data: map[string]any{"correct": true}})
	out.ToAll(bus.Message{Type: "blind_map_anagram_solved", Data: map[string]any{"player_name": name}})

	if !s.IsTeamMode {
		bm.SolveOrder = append(bm.SolveOrder, name)
		if len(bm.SolveOrder) >= len(s.Players) {
			transitionToLocate(s, out)
		}
		return nil
	}

	team := s.TeamOf(name)
	if bm.FirstSolverTeam == model.TeamNone {
		bm.FirstSolverTeam = team
		bm.ActiveTeam = team
		transitionToLocate(s, out)
	}
	return nil
}

func transitionToLocate(s *model.Session, out *Outbox) {
	bm := s.BlindMap
	bm.Phase = model.BlindMapPhaseLocate
	data := map[string]any{"phase": "locate"}
	if s.IsTeamMode {
		if captain, ok := s.CaptainOf(bm.ActiveTeam); ok {
			data["captain"] = captain
		}
		data["active_team"] = string(bm.ActiveTeam)
	}
	out.ToAll(bus.Message{Type: "blind_map_phase_transition", Data: data})
}

// transitionToPhase2FFA moves free-for-all players into the Locate phase
// when the anagram timer runs out before everyone solved it: players who
// never solved the anagram still get to place a guess, they just missed
// out on the anagram placement bonus (spec §4.10 anagram-phase time_up,
// free-for-all).
func transitionToPhase2FFA(s *model.Session, out *Outbox) {
	bm := s.BlindMap
	if bm.Phase != model.BlindMapPhaseAnagram {
		return
	}
	bm.Phase = model.BlindMapPhaseLocate
	out.ToAll(bus.Message{Type: "blind_map_phase_transition", Data: map[string]any{
		"phase":       "locate",
		"solve_order": bm.SolveOrder,
	}})
}

// CaptainLocationPreview implements §4.10 captain_location_preview.
func CaptainLocationPreview(s *model.Session, out *Outbox, team model.Team, x, y float64) {
	out.ToAll(bus.Message{Type: "captain_preview_update", Data: map[string]any{
		"team": string(team), "x": x, "y": y,
	}})
}

// RequestNextClue implements §4.10 request_next_clue.
func RequestNextClue(s *model.Session, out *Outbox) {
	q := s.CurrentQuestion()
	if q == nil || q.Type != model.TypeBlindMap {
		return
	}
	bm := s.BlindMap
	clues := []string{q.Clue1, q.Clue2, q.Clue3}
	for bm.CluesRevealed < len(clues) {
		clue := clues[bm.CluesRevealed]
		bm.CluesRevealed++
		if clue != "" {
			out.ToAll(bus.Message{Type: "blind_map_clue_revealed", Data: map[string]any{
				"clue_index": bm.CluesRevealed - 1,
				"clue":       clue,
			}})
			return
		}
	}
}

// SubmitBlindMapLocation implements §4.10 Phase 2/3 submit_blind_map_location.
func SubmitBlindMapLocation(s *model.Session, out *Outbox, name string, x, y float64) error {
	q := s.CurrentQuestion()
	if q == nil || q.Type != model.TypeBlindMap {
		return engineerr.ErrNoActiveQuestion
	}
	bm := s.BlindMap
	if bm.Phase != model.BlindMapPhaseLocate && bm.Phase != model.BlindMapPhaseSecondTeam {
		return engineerr.ErrWrongTurn
	}

	if !s.IsTeamMode {
		if _, done := bm.Locations[name]; done {
			return engineerr.ErrAlreadyAnswered
		}
		bm.Locations[name] = model.BlindMapLocation{PlayerName: name, X: x, Y: y}
		out.ToAll(bus.Message{Type: "blind_map_location_submitted", Data: map[string]any{"player_name": name}})
		if len(bm.Locations) >= len(s.Players) {
			finishFreeForAllLocate(s, out, q)
		}
		return nil
	}

	team := s.TeamOf(name)
	if team != bm.ActiveTeam {
		return engineerr.ErrWrongTurn
	}
	captain, _ := s.CaptainOf(team)
	if name != captain {
		// Non-captain placements are informational only; the captain's is binding.
		return nil
	}
	loc := model.BlindMapLocation{PlayerName: name, X: x, Y: y}
	bm.CaptainLocation[team] = &loc
	resolveTeamLocate(s, out, q)
	return nil
}

func finishFreeForAllLocate(s *model.Session, out *Outbox, q *model.Question) {
	if s.AllAnswersReceivedFired {
		return
	}
	s.AllAnswersReceivedFired = true
	bm := s.BlindMap
	n := len(s.Players)

	for i, name := range bm.SolveOrder {
		anagramPts := scoring.AnagramPoints(i+1, n)
		total := anagramPts
		if loc, ok := bm.Locations[name]; ok {
			dist := scoring.Distance2D(loc.X, loc.Y, q.LocationX, q.LocationY)
			if scoring.WithinExactRadius(dist, q.RadiusPreset.ExactRadius()) {
				total += 100
			}
		}
		s.AddScore(name, total)
	}
	out.ToAll(bus.Message{Type: "all_answers_received", Data: map[string]any{
		"solve_order": bm.SolveOrder,
		"scores":      scoreSnapshot(s),
	}})
}

func resolveTeamLocate(s *model.Session, out *Outbox, q *model.Question) {
	bm := s.BlindMap
	loc := bm.CaptainLocation[bm.ActiveTeam]
	dist := scoring.Distance2D(loc.X, loc.Y, q.LocationX, q.LocationY)

	if scoring.WithinExactRadius(dist, q.RadiusPreset.ExactRadius()) {
		s.AddTeamScore(bm.ActiveTeam, model.BlindMapTeamModePoints)
		fireBlindMapTeamCompletion(s, out, map[string]any{
			"winning_team": string(bm.ActiveTeam),
		})
		return
	}

	bm.TeamsAttempted[bm.ActiveTeam] = true
	other := bm.ActiveTeam.Opponent()
	if !bm.TeamsAttempted[other] {
		bm.Phase = model.BlindMapPhaseSecondTeam
		bm.ActiveTeam = other
		out.ToAll(bus.Message{Type: "blind_map_phase_transition", Data: map[string]any{
			"phase": "second_team", "active_team": string(other),
		}})
		return
	}

	resolveBothMissed(s, out, q)
}

func resolveBothMissed(s *model.Session, out *Outbox, q *model.Question) {
	bm := s.BlindMap
	blueLoc, hasBlue := bm.CaptainLocation[model.TeamBlue]
	redLoc, hasRed := bm.CaptainLocation[model.TeamRed]

	if !hasBlue && !hasRed {
		fireBlindMapTeamCompletion(s, out, map[string]any{"nobody_got_it": true})
		return
	}
	if hasBlue != hasRed {
		winner := model.TeamBlue
		if hasRed {
			winner = model.TeamRed
		}
		s.AddTeamScore(winner, model.MapPhasePoints)
		fireBlindMapTeamCompletion(s, out, map[string]any{"closer_team": string(winner)})
		return
	}

	blueDist := scoring.Distance2D(blueLoc.X, blueLoc.Y, q.LocationX, q.LocationY)
	redDist := scoring.Distance2D(redLoc.X, redLoc.Y, q.LocationX, q.LocationY)
	winner := model.TeamBlue
	if redDist < blueDist {
		winner = model.TeamRed
	}
	s.AddTeamScore(winner, model.MapPhasePoints)
	fireBlindMapTeamCompletion(s, out, map[string]any{"closer_team": string(winner)})
}

func fireBlindMapTeamCompletion(s *model.Session, out *Outbox, extra map[string]any) {
	if s.AllAnswersReceivedFired {
		return
	}
	s.AllAnswersReceivedFired = true
	data := map[string]any{"scores": scoreSnapshot(s)}
	for k, v := range extra {
		data[k] = v
	}
	out.ToAll(bus.Message{Type: "all_answers_received", Data: data})
}

// BlindMapTimeUp implements §4.10 time_up per-phase semantics.
func BlindMapTimeUp(s *model.Session, out *Outbox) {
	q := s.CurrentQuestion()
	if q == nil || q.Type != model.TypeBlindMap {
		return
	}
	bm := s.BlindMap
	switch bm.Phase {
	case model.BlindMapPhaseAnagram:
		if !s.IsTeamMode {
			transitionToPhase2FFA(s, out)
			return
		}
		if s.AllAnswersReceivedFired {
			return
		}
		s.AllAnswersReceivedFired = true
		out.ToAll(bus.Message{Type: "all_answers_received", Data: map[string]any{
			"solve_order": bm.SolveOrder,
			"scores":      scoreSnapshot(s),
		}})
	case model.BlindMapPhaseLocate:
		if !s.IsTeamMode {
			finishFreeForAllLocate(s, out, q)
			return
		}
		bm.TeamsAttempted[bm.ActiveTeam] = true
		other := bm.ActiveTeam.Opponent()
		if !bm.TeamsAttempted[other] {
			bm.Phase = model.BlindMapPhaseSecondTeam
			bm.ActiveTeam = other
			out.ToAll(bus.Message{Type: "blind_map_phase_transition", Data: map[string]any{
				"phase": "second_team", "active_team": string(other),
			}})
			return
		}
		resolveBothMissed(s, out, q)
	case model.BlindMapPhaseSecondTeam:
		resolveBothMissed(s, out, q)
	}
}
