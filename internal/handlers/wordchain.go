package handlers

import (
	"math/rand"

	"github.com/balalek/partygame-server/internal/bus"
	"github.com/balalek/partygame-server/internal/dictionary"
	"github.com/balalek/partygame-server/internal/engineerr"
	"github.com/balalek/partygame-server/internal/model"
	"github.com/balalek/partygame-server/internal/scoring"
)

// WordChain bundles the dictionary dependency the handler needs; wired
// once at startup and closed over by the dispatcher's TypeHooks (spec §9:
// the dictionary is read-only after startup).
type WordChain struct {
	Dict *dictionary.Dictionary
}

// Init prepares sub-state for a freshly-current WORD_CHAIN question. The
// flow controller already seeds PlayerOrder/TeamOrder/CurrentPlayer at
// start_game and preserves them across consecutive word-chain questions,
// so Init only sets the current letter from the question's first word.
func (w *WordChain) Init(s *model.Session) {
	q := s.CurrentQuestion()
	if q.Type != model.TypeWordChain {
		return
	}
	if s.WordChain == nil {
		s.WordChain = model.NewWordChainState()
	}
	s.WordChain.CurrentLetter = q.FirstLetter
	s.WordChain.UsedWords = map[string]bool{dictionary.FoldWord(q.FirstWord): true}
	s.WordChain.Chain = []model.WordChainEntry{{Word: q.FirstWord}}
}

// SubmitWord implements §4.8 submit_word_chain_word.
func (w *WordChain) SubmitWord(s *model.Session, out *Outbox, name, word string) error {
	q := s.CurrentQuestion()
	if q == nil || q.Type != model.TypeWordChain {
		return engineerr.ErrNoActiveQuestion
	}
	wc := s.WordChain
	if wc.CurrentPlayer != name {
		return engineerr.ErrWrongTurn
	}
	if wc.EliminatedPlayers[name] {
		return engineerr.ErrWrongTurn
	}
	if len([]rune(word)) < 3 {
		out.To(bus.PlayerRoom(name), feedbackMsg("too_short"))
		return nil
	}
	folded := dictionary.FoldWord(word)
	firstLetter := dictionary.FoldLetter([]rune(folded)[0])
	wanted := dictionary.FoldLetter([]rune(wc.CurrentLetter)[0])
	if firstLetter != wanted {
		out.To(bus.PlayerRoom(name), feedbackMsg("wrong_letter"))
		return nil
	}
	if wc.UsedWords[folded] {
		out.To(bus.PlayerRoom(name), feedbackMsg("used"))
		return nil
	}
	if !w.Dict.Lookup(word) {
		out.To(bus.PlayerRoom(name), feedbackMsg("not_a_word"))
		return nil
	}

	team := s.TeamOf(name)
	if !s.IsTeamMode {
		points := scoring.WordLetterPoints(word)
		s.AddScore(name, points)
		wc.GamePoints[name] += points
	}

	wc.UsedWords[folded] = true
	wc.Chain = append(wc.Chain, model.WordChainEntry{Word: word, Player: name, Team: team})
	wc.CurrentLetter = nextLetter(word)

	advanceWordChainTurn(s, wc, name)

	out.ToAll(bus.Message{Type: "word_chain_update", Data: map[string]any{
		"chain":          wc.Chain,
		"current_player": wc.CurrentPlayer,
		"current_letter": wc.CurrentLetter,
		"previous":       wc.PreviousPlayers,
		"next":           wc.NextPlayers,
	}})
	return nil
}

func feedbackMsg(reason string) bus.Message {
	return bus.Message{Type: "word_chain_feedback", Data: map[string]any{"reason": reason}}
}

// nextLetter derives the next required letter from the submitted word's
// folded last character, replacing it with a uniformly random valid letter
// if it falls in the INVALID set (spec §4.8).
func nextLetter(word string) string {
	runes := []rune(word)
	last := dictionary.FoldLetter(runes[len(runes)-1])
	if dictionary.InvalidEndingLetters[last] {
		pool := dictionary.ValidRandomLetters()
		last = pool[rand.Intn(len(pool))]
	}
	return string(last)
}

func advanceWordChainTurn(s *model.Session, wc *model.WordChainState, submitter string) {
	if s.IsTeamMode {
		advanceWordChainTeamTurn(s, wc)
		return
	}
	advanceWordChainFFATurn(s, wc, submitter)
}

// advanceWordChainFFATurn rotates to the next un-eliminated player in
// PlayerOrder, wrapping from the submitter's original index (spec §4.8).
func advanceWordChainFFATurn(s *model.Session, wc *model.WordChainState, submitter string) {
	n := len(wc.PlayerOrder)
	if n == 0 {
		return
	}
	start := indexOfName(wc.PlayerOrder, submitter)
	for i := 1; i <= n; i++ {
		candidate := wc.PlayerOrder[(start+i)%n]
		if !wc.EliminatedPlayers[candidate] {
			wc.CurrentPlayer = candidate
			break
		}
	}
	updateLookahead(s, wc)
}

// advanceWordChainTeamTurn always alternates teams, advancing each team's
// rotating index independently (spec §4.8).
func advanceWordChainTeamTurn(s *model.Session, wc *model.WordChainState) {
	if len(wc.TeamOrder) == 0 {
		return
	}
	currentTeam := s.TeamOf(wc.CurrentPlayer)
	nextTeam := currentTeam.Opponent()
	roster := s.TeamMembers(nextTeam)
	if len(roster) == 0 {
		return
	}
	idx := wc.TeamIndexes[nextTeam]
	wc.CurrentPlayer = roster[idx%len(roster)]
	wc.TeamIndexes[nextTeam] = idx + 1
	updateLookahead(s, wc)
}

// updateLookahead refreshes both the last-up-to-2 and next-up-to-2 player
// lists shown by the word_chain_update lookahead display (spec §4.8).
func updateLookahead(s *model.Session, wc *model.WordChainState) {
	if len(wc.PreviousPlayers) >= 2 {
		wc.PreviousPlayers = wc.PreviousPlayers[len(wc.PreviousPlayers)-1:]
	}
	wc.PreviousPlayers = append(wc.PreviousPlayers, wc.CurrentPlayer)
	wc.NextPlayers = nextPlayersLookahead(s, wc)
}

func nextPlayersLookahead(s *model.Session, wc *model.WordChainState) []string {
	if s.IsTeamMode {
		return nextTeamPlayers(s, wc)
	}
	return nextFFAPlayers(wc)
}

// nextFFAPlayers walks PlayerOrder forward from CurrentPlayer, skipping
// eliminated players, collecting up to 2 upcoming turns.
func nextFFAPlayers(wc *model.WordChainState) []string {
	n := len(wc.PlayerOrder)
	if n == 0 {
		return nil
	}
	start := indexOfName(wc.PlayerOrder, wc.CurrentPlayer)
	var next []string
	for i := 1; i <= n && len(next) < 2; i++ {
		candidate := wc.PlayerOrder[(start+i)%n]
		if !wc.EliminatedPlayers[candidate] {
			next = append(next, candidate)
		}
	}
	return next
}

// nextTeamPlayers simulates the alternating-team rotation two turns ahead
// without mutating TeamIndexes, since this is display-only lookahead.
func nextTeamPlayers(s *model.Session, wc *model.WordChainState) []string {
	if len(wc.TeamOrder) == 0 {
		return nil
	}
	idx := make(map[model.Team]int, len(wc.TeamIndexes))
	for t, i := range wc.TeamIndexes {
		idx[t] = i
	}
	team := s.TeamOf(wc.CurrentPlayer)
	var next []string
	for len(next) < 2 {
		team = team.Opponent()
		roster := s.TeamMembers(team)
		if len(roster) == 0 {
			break
		}
		next = append(next, roster[idx[team]%len(roster)])
		idx[team]++
	}
	return next
}

func indexOfName(names []string, name string) int {
	for i, n := range names {
		if n == name {
			return i
		}
	}
	return 0
}

// Timeout implements free-for-all word_chain_timeout: eliminate the
// player; end the round if 0-1 active players remain (spec §4.8).
func (w *WordChain) Timeout(s *model.Session, out *Outbox, player string) {
	wc := s.WordChain
	wc.EliminatedPlayers[player] = true

	active := 0
	var survivor string
	for _, name := range wc.PlayerOrder {
		if !wc.EliminatedPlayers[name] {
			active++
			survivor = name
		}
	}
	if active <= 1 {
		if active == 1 {
			s.AddScore(survivor, model.PointsForSurvivingBomb)
		}
		fireWordChainCompletion(s, out, map[string]any{"survivor": survivor})
		return
	}
	advanceWordChainFFATurn(s, wc, player)
	out.ToAll(bus.Message{Type: "word_chain_update", Data: map[string]any{
		"current_player": wc.CurrentPlayer,
		"eliminated":      player,
	}})
}

// TimeUp implements team-mode word-chain time_up: the active player's
// bomb explodes; the other team wins (spec §4.8).
func (w *WordChain) TimeUp(s *model.Session, out *Outbox) {
	if !s.IsTeamMode {
		return
	}
	wc := s.WordChain
	explodedTeam := s.TeamOf(wc.CurrentPlayer)
	winningTeam := explodedTeam.Opponent()
	s.AddTeamScore(winningTeam, model.PointsForSurvivingBomb)
	fireWordChainCompletion(s, out, map[string]any{
		"exploded_team":   string(explodedTeam),
		"winning_team":    string(winningTeam),
		"exploded_player": wc.CurrentPlayer,
	})
}

func fireWordChainCompletion(s *model.Session, out *Outbox, extra map[string]any) {
	if s.AllAnswersReceivedFired {
		return
	}
	s.AllAnswersReceivedFired = true
	wc := s.WordChain
	data := map[string]any{
		"chain":       wc.Chain,
		"game_points": wc.GamePoints,
		"scores":      scoreSnapshot(s),
	}
	for k, v := range extra {
		data[k] = v
	}
	out.ToAll(bus.Message{Type: "all_answers_received", Data: data})
}
