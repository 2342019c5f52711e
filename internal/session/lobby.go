// Package session wires the process-wide model.Session to the bus and
// implements the Lobby and Flow controllers (spec §4.2, §4.3). Grounded
// on the teacher's HandlePlayerReady/StartGame/ResetRoomToLobby in
// internal/game/lobby.go: same lock-snapshot-unlock-then-broadcast shape,
// generalized from skribblr's ready-check gate into the spec's explicit
// join/rename/leave/reset contracts (this engine has no "ready" concept;
// the host starts the game directly).
package session

import (
	"sort"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/balalek/partygame-server/internal/bus"
	"github.com/balalek/partygame-server/internal/engineerr"
	"github.com/balalek/partygame-server/internal/model"
)

// Engine owns the single model.Session plus everything needed to mutate
// and broadcast from it. All exported methods are called only from the
// dispatcher goroutine (spec §5) — Engine itself holds no lock around
// Session; the dispatcher's single-goroutine discipline is the only
// synchronization.
type Engine struct {
	mu      sync.Mutex // guards Session only against the read-only getters used by httpapi health checks
	Session *model.Session
	Bus     *bus.Bus
	Log     *logrus.Logger
}

// New returns an Engine around a freshly reset Session.
func New(b *bus.Bus, log *logrus.Logger) *Engine {
	return &Engine{
		Session: model.NewSession(),
		Bus:     b,
		Log:     log,
	}
}

// ActivateQuiz opens the lobby for joins (spec §4.2). Idempotent.
func (e *Engine) ActivateQuiz() {
	e.mu.Lock()
	e.Session.IsQuizActive = true
	e.mu.Unlock()
}

// Join adds a new player to the session (spec §4.2 join contract).
func (e *Engine) Join(name, color string) error {
	e.mu.Lock()
	s := e.Session

	if !s.IsQuizActive {
		e.mu.Unlock()
		return engineerr.ErrLobbyClosed
	}
	if s.IsGameRunning {
		e.mu.Unlock()
		return engineerr.ErrGameInProgress
	}
	if len(s.Players) >= model.MaxPlayers {
		e.mu.Unlock()
		return engineerr.ErrFull
	}
	if _, exists := s.Players[name]; exists {
		e.mu.Unlock()
		return engineerr.ErrNameTaken
	}
	for _, p := range s.Players {
		if p.Color == color {
			e.mu.Unlock()
			return engineerr.ErrColorTaken
		}
	}

	s.Players[name] = &model.Player{Name: name, Color: color, Score: 0}
	available := e.availableColorsLocked()
	playerJoined := bus.Message{Type: "player_joined", Data: map[string]any{
		"player_name": name,
		"color":       color,
	}}
	colorsUpdated := bus.Message{Type: "colors_updated", Data: map[string]any{
		"available_colors": available,
	}}
	e.mu.Unlock()

	e.Bus.Broadcast(playerJoined)
	e.Bus.Broadcast(colorsUpdated)
	return nil
}

// Rename reassigns a player's name, preserving score and color (spec
// §4.2). It only mutates Session and broadcasts; moving the caller's
// private bus room (Leave(old)+Join(new)) is the dispatcher's job since
// it alone holds the connection the rename applies to.
func (e *Engine) Rename(oldName, newName string) error {
	if len(newName) < 3 || len(newName) > 16 {
		return engineerr.ErrInvalidLength
	}

	e.mu.Lock()
	s := e.Session

	p, ok := s.Players[oldName]
	if !ok {
		e.mu.Unlock()
		return engineerr.ErrNotFound
	}
	if _, taken := s.Players[newName]; taken {
		e.mu.Unlock()
		return engineerr.ErrNameTaken
	}

	delete(s.Players, oldName)
	p.Name = newName
	s.Players[newName] = p
	renameTeamRoster(s.BlueTeam, oldName, newName)
	renameTeamRoster(s.RedTeam, oldName, newName)

	msg := bus.Message{Type: "player_name_changed", Data: map[string]any{
		"old_name": oldName,
		"new_name": newName,
	}}
	e.mu.Unlock()

	e.Bus.Broadcast(msg)
	return nil
}

func renameTeamRoster(roster []string, oldName, newName string) {
	for i, n := range roster {
		if n == oldName {
			roster[i] = newName
			return
		}
	}
}

// PlayerLeaving removes a departing player and frees their color (spec §4.2).
func (e *Engine) PlayerLeaving(name string) {
	e.mu.Lock()
	s := e.Session
	if _, ok := s.Players[name]; !ok {
		e.mu.Unlock()
		return
	}
	delete(s.Players, name)
	removeFromRoster(&s.BlueTeam, name)
	removeFromRoster(&s.RedTeam, name)
	available := e.availableColorsLocked()

	left := bus.Message{Type: "player_left", Data: map[string]any{"player_name": name}}
	colors := bus.Message{Type: "colors_updated", Data: map[string]any{"available_colors": available}}
	e.mu.Unlock()

	e.Bus.LeaveAll(name)
	e.Bus.Broadcast(left)
	e.Bus.Broadcast(colors)
}

func removeFromRoster(roster *[]string, name string) {
	out := (*roster)[:0]
	for _, n := range *roster {
		if n != name {
			out = append(out, n)
		}
	}
	*roster = out
}

// Reset wipes the session back to initial values (spec §4.2).
func (e *Engine) Reset() {
	e.mu.Lock()
	e.Session.Reset()
	e.mu.Unlock()

	e.Bus.Broadcast(bus.Message{Type: "game_reset", Data: map[string]any{
		"available_colors": model.ColorPalette,
	}})
}

// availableColorsLocked must be called with e.mu held.
func (e *Engine) availableColorsLocked() []string {
	used := make(map[string]bool, len(e.Session.Players))
	for _, p := range e.Session.Players {
		used[p.Color] = true
	}
	out := make([]string, 0, len(model.ColorPalette))
	for _, c := range model.ColorPalette {
		if !used[c] {
			out = append(out, c)
		}
	}
	return out
}

// sortedPlayerNames is a small helper used by flow.go's final-score
// emission for deterministic placement ordering.
func sortedPlayerNames(s *model.Session) []string {
	names := s.PlayerNames()
	sort.Slice(names, func(i, j int) bool {
		return s.Players[names[i]].Score > s.Players[names[j]].Score
	})
	return names
}
