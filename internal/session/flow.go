package session

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/balalek/partygame-server/internal/bus"
	"github.com/balalek/partygame-server/internal/clock"
	"github.com/balalek/partygame-server/internal/engineerr"
	"github.com/balalek/partygame-server/internal/handlers"
	"github.com/balalek/partygame-server/internal/loader"
	"github.com/balalek/partygame-server/internal/model"
	"github.com/balalek/partygame-server/internal/quizstore"
	"github.com/balalek/partygame-server/internal/wordprovider"
)

// Flow holds the timer and collaborators the Flow controller (spec §4.3)
// needs beyond the Engine's Session/Bus: the quiz source and word
// provider consumed once at start_game, and the single primary-question
// timer (spec §8 invariant 7: at most one armed at any moment).
type Flow struct {
	*Engine

	Store quizstore.Store
	Words wordprovider.Provider
	Timer *clock.Scheduler
	Post  func(fn func()) // posts onto the dispatcher's single event queue
	Hooks *handlers.Hooks
}

// NewFlow wires a Flow controller around an existing Engine.
func NewFlow(e *Engine, store quizstore.Store, words wordprovider.Provider, post func(fn func())) *Flow {
	return &Flow{
		Engine: e,
		Store:  store,
		Words:  words,
		Timer:  clock.New(),
		Post:   post,
	}
}

// StartGame loads the quiz, arms the game, and emits the per-audience
// game-started events (spec §4.3 start_game).
func (f *Flow) StartGame(ctx context.Context, quizID string, isTeamMode bool) error {
	f.mu.Lock()
	s := f.Session
	if s.IsGameRunning {
		f.mu.Unlock()
		return engineerr.ErrGameInProgress
	}
	if len(s.Players) < 2 {
		f.mu.Unlock()
		return engineerr.ErrInvalidArgs
	}
	roster := f.buildRosterLocked(isTeamMode)
	f.mu.Unlock()

	quiz, err := f.Store.GetQuiz(ctx, quizID)
	if err != nil {
		return fmt.Errorf("flow: load quiz: %w", engineerr.ErrUpstreamUnavailable)
	}
	questions, err := loader.Load(ctx, quiz, roster, f.Words)
	if err != nil {
		return fmt.Errorf("flow: expand quiz: %w", err)
	}

	f.mu.Lock()
	s.IsTeamMode = isTeamMode
	s.IsQuizActive = false
	s.IsGameRunning = true
	s.Questions = questions
	s.CurrentIndex = 0
	if isTeamMode {
		s.BlueTeam, s.RedTeam = roster.BlueTeam, roster.RedTeam
		assignCaptains(s)
	}
	if questions[0].Type == model.TypeWordChain {
		s.WordChain = model.NewWordChainState()
		seedWordChainOrder(s, roster)
	}

	preview := model.PreviewTime
	if questions[0].Type == model.TypeDrawing {
		preview = model.PreviewTimeDrawing
	}
	s.QuestionStartMS = model.NowMS() + model.StartGameTime.Milliseconds() + preview.Milliseconds()

	if f.Hooks != nil {
		f.Hooks.Initialize(s)
	}

	perPlayerMsgs := f.gameStartedMobileMessagesLocked(s)
	mainMsg := bus.Message{Type: "game_started", Data: map[string]any{
		"is_team_mode":      isTeamMode,
		"question_start_ms": s.QuestionStartMS,
	}}
	var remoteMsg *bus.Message
	if s.IsRemote {
		m := bus.Message{Type: "game_started_remote", Data: mainMsg.Data}
		remoteMsg = &m
	}
	f.mu.Unlock()

	f.Bus.Send(bus.MainDisplayRoom, mainMsg)
	if remoteMsg != nil {
		f.Bus.Broadcast(*remoteMsg)
	}
	for room, msg := range perPlayerMsgs {
		f.Bus.Send(room, msg)
	}

	f.armQuestionTimer(questions[0].LengthMS)
	return nil
}

func (f *Flow) buildRosterLocked(isTeamMode bool) loader.Roster {
	s := f.Session
	r := loader.Roster{IsTeamMode: isTeamMode}
	if isTeamMode {
		r.BlueTeam, r.RedTeam = splitTeams(s.PlayerNames())
	} else {
		r.Players = s.PlayerNames()
	}
	return r
}

func splitTeams(names []string) (blue, red []string) {
	for i, n := range names {
		if i%2 == 0 {
			blue = append(blue, n)
		} else {
			red = append(red, n)
		}
	}
	return blue, red
}

func assignCaptains(s *model.Session) {
	if len(s.BlueTeam) > 0 {
		s.BlueCaptainIndex = 0
		s.HasBlueCaptain = true
	}
	if len(s.RedTeam) > 0 {
		s.RedCaptainIndex = 0
		s.HasRedCaptain = true
	}
}

func seedWordChainOrder(s *model.Session, roster loader.Roster) {
	wc := s.WordChain
	if roster.IsTeamMode {
		wc.TeamOrder = []model.Team{model.TeamBlue, model.TeamRed}
		// Shared bomb round length picked once per session, uniform in
		// [120, 240] seconds (spec §4.8).
		wc.BombLengthMS = int64(120+rand.Intn(121)) * 1000
		if len(roster.BlueTeam) > 0 {
			wc.CurrentPlayer = roster.BlueTeam[0]
		}
	} else {
		wc.PlayerOrder = append([]string(nil), roster.Players...)
		if len(wc.PlayerOrder) > 0 {
			wc.CurrentPlayer = wc.PlayerOrder[0]
		}
	}
}

func (f *Flow) gameStartedMobileMessagesLocked(s *model.Session) map[string]bus.Message {
	out := make(map[string]bus.Message, len(s.Players))
	firstQ := s.Questions[0]
	for name := range s.Players {
		team := s.TeamOf(name)
		isCaptain := false
		if captain, ok := s.CaptainOf(team); ok && captain == name {
			isCaptain = true
		}
		role := "player"
		if isCaptain {
			role = "captain"
		}
		isDrawer := firstQ.Type == model.TypeDrawing && firstQ.DrawingPlayer == name
		out[bus.PlayerRoom(name)] = bus.Message{Type: "game_started_mobile", Data: map[string]any{
			"team":       string(team),
			"role":       role,
			"is_drawer":  isDrawer,
			"quiz_phase": 1,
		}}
	}
	return out
}

// NextQuestion advances to the next question, resetting per-question
// state and initializing the new question's type-specific sub-state
// (spec §4.3 next_question).
func (f *Flow) NextQuestion() error {
	f.mu.Lock()
	s := f.Session
	next := s.CurrentIndex + 1
	if next >= len(s.Questions) {
		f.mu.Unlock()
		return engineerr.ErrNoMoreQuestions
	}

	prevType := s.CurrentQuestion().Type
	prevWordChain := s.WordChain

	s.AdvanceTo(next)
	q := s.CurrentQuestion()

	if q.Type == model.TypeWordChain && prevType == model.TypeWordChain && prevWordChain != nil {
		// Consecutive word-chain questions preserve turn order (spec §3).
		preserved := model.NewWordChainState()
		preserved.PlayerOrder = prevWordChain.PlayerOrder
		preserved.TeamOrder = prevWordChain.TeamOrder
		preserved.TeamIndexes = prevWordChain.TeamIndexes
		preserved.CurrentPlayer = prevWordChain.CurrentPlayer
		preserved.BombLengthMS = prevWordChain.BombLengthMS
		s.WordChain = preserved
	}

	if s.IsTeamMode && q.Type == model.TypeGuessANumber {
		s.ActiveTeam = s.ActiveTeam.Opponent()
		if s.ActiveTeam == model.TeamNone {
			s.ActiveTeam = model.TeamBlue
		}
	}
	if q.Type == model.TypeDrawing {
		s.ActiveTeam = s.TeamOf(q.DrawingPlayer)
	}

	preview := model.PreviewTime
	if q.Type == model.TypeDrawing {
		preview = model.PreviewTimeDrawing
	}
	s.QuestionStartMS = model.NowMS() + preview.Milliseconds()

	if f.Hooks != nil {
		f.Hooks.Initialize(s)
	}

	msg := bus.Message{Type: "next_question", Data: map[string]any{
		"index":             s.CurrentIndex,
		"type":              string(q.Type),
		"category":          q.Category,
		"question_start_ms": s.QuestionStartMS,
	}}
	length := q.LengthMS
	f.mu.Unlock()

	f.Bus.Broadcast(msg)
	f.armQuestionTimer(length)
	return nil
}

// TimeUp is posted by the armed timer and dispatches to the current
// type's time-up handler (spec §4.3 time_up).
func (f *Flow) TimeUp() {
	f.mu.Lock()
	s := f.Session
	hooks := f.Hooks
	f.mu.Unlock()

	if hooks == nil {
		return
	}
	var out handlers.Outbox
	hooks.TimeUp(s, &out)
	out.Flush(f.Bus)
}

// ShowFinalScore emits the end-of-game per-player summary (spec §4.3
// show_final_score): team score + team name in team mode, or placement +
// individual score in free-for-all.
func (f *Flow) ShowFinalScore() {
	f.mu.Lock()
	s := f.Session
	var msgs map[string]bus.Message
	if s.IsTeamMode {
		msgs = f.teamFinalScoreMessagesLocked(s)
	} else {
		msgs = f.ffaFinalScoreMessagesLocked(s)
	}
	f.mu.Unlock()

	for room, msg := range msgs {
		f.Bus.Send(room, msg)
	}
	f.Bus.Broadcast(bus.Message{Type: "navigate_to_final_score", Data: nil})
}

func (f *Flow) teamFinalScoreMessagesLocked(s *model.Session) map[string]bus.Message {
	out := make(map[string]bus.Message, len(s.Players))
	for name := range s.Players {
		team := s.TeamOf(name)
		out[bus.PlayerRoom(name)] = bus.Message{Type: "final_score", Data: map[string]any{
			"team":        string(team),
			"team_score":  s.TeamScores[team],
			"player_name": name,
		}}
	}
	return out
}

func (f *Flow) ffaFinalScoreMessagesLocked(s *model.Session) map[string]bus.Message {
	ranked := sortedPlayerNames(s)
	out := make(map[string]bus.Message, len(ranked))
	for i, name := range ranked {
		out[bus.PlayerRoom(name)] = bus.Message{Type: "final_score", Data: map[string]any{
			"placement":   i + 1,
			"score":       s.Players[name].Score,
			"player_name": name,
		}}
	}
	return out
}

// armQuestionTimer cancels any previous timer and arms a fresh one for
// lengthMS, posting TimeUp onto the dispatcher queue when it fires (spec
// §5: advancing or early completion must cancel before arming anew).
func (f *Flow) armQuestionTimer(lengthMS int64) {
	if lengthMS <= 0 {
		return
	}
	f.Timer.Arm(time.Duration(lengthMS)*time.Millisecond, f.Post, f.TimeUp)
}
