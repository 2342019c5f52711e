// Package dispatcher is the single serialization point for game-state
// mutation (spec §4.11, §5): every inbound client event lands on one
// goroutine's channel, is routed to the Lobby controller, Flow controller,
// or the matching per-type handler, and any panic a handler raises is
// recovered and logged rather than crashing the process (spec §7: "internal
// invariants violated by a handler: log and ignore; never crash the
// dispatcher").
//
// Grounded on the teacher's internal/server.Hub run loop (a single
// for-select over register/unregister/broadcast channels): this generalizes
// that shape to a single inbound `events` channel carrying a closed event
// type instead of three separate channels, since spec §6 names two dozen
// distinct inbound events that all share one ordering domain.
package dispatcher

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/balalek/partygame-server/internal/bus"
	"github.com/balalek/partygame-server/internal/handlers"
	"github.com/balalek/partygame-server/internal/model"
	"github.com/balalek/partygame-server/internal/session"
)

// Event is one inbound message plus the connection it arrived on. Conn is
// nil for synthetic events the dispatcher posts to itself (time_up and
// friends), which never need a reply target.
type Event struct {
	Conn *bus.Conn
	Type string
	Data map[string]any
}

// Dispatcher owns the single inbound queue and the collaborators events are
// routed to. Run must be called from exactly one goroutine.
type Dispatcher struct {
	Lobby *session.Engine
	Flow  *session.Flow
	Bus   *bus.Bus
	Log   *logrus.Logger

	events chan Event
}

// New returns a Dispatcher with a buffered inbound queue. Flow.Post should
// be set to d.Post so timers re-enter the same queue (spec §5's "suspension
// points: only between events").
func New(lobby *session.Engine, flow *session.Flow, b *bus.Bus, log *logrus.Logger) *Dispatcher {
	return &Dispatcher{
		Lobby:  lobby,
		Flow:   flow,
		Bus:    b,
		Log:    log,
		events: make(chan Event, 256),
	}
}

// Post enqueues fn to run on the dispatcher goroutine. Used as the
// clock.Scheduler's post callback so timer fires are serialized with every
// other event (spec §5's single inbound queue).
func (d *Dispatcher) Post(fn func()) {
	d.events <- Event{Type: "__func", Data: map[string]any{"fn": fn}}
}

// Submit enqueues a client event. Never blocks the caller's read loop for
// long: the channel is buffered and the dispatcher drains it continuously.
func (d *Dispatcher) Submit(e Event) {
	d.events <- e
}

// Run drains the event queue until ctx is cancelled. Each event is handled
// inside a recover()-guarded call so a handler bug degrades to a logged,
// ignored event rather than taking down the process.
func (d *Dispatcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case e := <-d.events:
			d.handleSafely(e)
		}
	}
}

func (d *Dispatcher) handleSafely(e Event) {
	defer func() {
		if r := recover(); r != nil {
			d.Log.WithField("event", e.Type).WithField("panic", r).Error("dispatcher: recovered panic handling event")
		}
	}()
	d.handle(e)
}

func (d *Dispatcher) handle(e Event) {
	if e.Type == "__func" {
		if fn, ok := e.Data["fn"].(func()); ok {
			fn()
		}
		return
	}

	log := d.Log.WithField("event", e.Type)

	switch e.Type {
	case "join_room":
		d.onJoinRoom(e)
	case "player_name_changed":
		d.onPlayerNameChanged(e)
	case "player_leaving":
		d.onPlayerLeaving(e)
	case "remote_display_connected":
		d.Lobby.Session.IsRemote = true
		d.Bus.Broadcast(bus.Message{Type: "remote_display_connected", Data: nil})
	case "is_remote_connected":
		d.Bus.Send(roomOf(e.Conn), bus.Message{Type: "is_remote_connected", Data: map[string]any{
			"connected": d.Lobby.Session.IsRemote,
		}})

	case "submit_answer":
		d.withOutbox(func(out *handlers.Outbox) error {
			return handlers.SubmitAnswer(d.session(), out, str(e.Data, "player_name"), intOf(e.Data, "answer"), int64Of(e.Data, "answer_time"))
		}, log)

	case "submit_open_answer":
		d.withOutbox(func(out *handlers.Outbox) error {
			return handlers.SubmitOpenAnswer(d.session(), out, str(e.Data, "player_name"), str(e.Data, "answer"), int64Of(e.Data, "answer_time"))
		}, log)
	case "reveal_open_answer_letter":
		d.withOutbox(func(out *handlers.Outbox) error {
			handlers.RevealOpenAnswerLetter(d.session(), out)
			return nil
		}, log)

	case "submit_number_guess":
		d.withOutbox(func(out *handlers.Outbox) error {
			return handlers.SubmitNumberGuess(d.session(), out, str(e.Data, "player_name"), floatOf(e.Data, "value"))
		}, log)
	case "submit_captain_choice":
		d.withOutbox(func(out *handlers.Outbox) error {
			return handlers.SubmitCaptainChoice(d.session(), out, str(e.Data, "player_name"), model.Team(str(e.Data, "team")), floatOf(e.Data, "final_answer"))
		}, log)
	case "submit_more_less_vote":
		d.withOutbox(func(out *handlers.Outbox) error {
			return handlers.SubmitMoreLessVote(d.session(), out, str(e.Data, "player_name"), model.Team(str(e.Data, "team")), model.MoreLessVote(str(e.Data, "vote")))
		}, log)

	case "submit_math_answer":
		d.withOutbox(func(out *handlers.Outbox) error {
			return handlers.SubmitMathAnswer(d.session(), out, str(e.Data, "player_name"), str(e.Data, "answer"), int64Of(e.Data, "answer_time"))
		}, log)
	case "math_sequence_completed":
		d.withOutbox(func(out *handlers.Outbox) error {
			return handlers.MathSequenceCompleted(d.session(), out, intOf(e.Data, "current_index"), intOf(e.Data, "next_index"))
		}, log)

	case "submit_word_chain_word":
		d.withOutbox(func(out *handlers.Outbox) error {
			return d.Flow.Hooks.WordChain.SubmitWord(d.session(), out, str(e.Data, "player_name"), str(e.Data, "word"))
		}, log)
	case "word_chain_timeout":
		d.withOutbox(func(out *handlers.Outbox) error {
			d.Flow.Hooks.WordChain.Timeout(d.session(), out, str(e.Data, "player"))
			return nil
		}, log)
	case "start_word_chain":
		d.withOutbox(func(out *handlers.Outbox) error {
			d.Flow.Hooks.WordChain.Init(d.session())
			return nil
		}, log)

	case "select_drawing_word":
		d.withOutbox(func(out *handlers.Outbox) error {
			return handlers.SelectDrawingWord(d.session(), out, str(e.Data, "player_name"), str(e.Data, "selected_word"), boolOf(e.Data, "is_late_selection"))
		}, log)
	case "drawing_update":
		d.withOutbox(func(out *handlers.Outbox) error {
			return handlers.DrawingUpdate(d.session(), out, str(e.Data, "player_name"), e.Data["drawingData"], str(e.Data, "action"))
		}, log)
	case "submit_drawing_answer":
		d.withOutbox(func(out *handlers.Outbox) error {
			return handlers.SubmitDrawingAnswer(d.session(), out, str(e.Data, "player_name"), str(e.Data, "answer"), int64Of(e.Data, "answer_time"))
		}, log)
	case "reveal_drawing_letter":
		d.withOutbox(func(out *handlers.Outbox) error {
			handlers.RevealDrawingLetter(d.session(), out)
			return nil
		}, log)
	case "get_current_drawing_word":
		d.onGetCurrentDrawingWord(e)

	case "submit_blind_map_anagram":
		d.withOutbox(func(out *handlers.Outbox) error {
			return handlers.SubmitBlindMapAnagram(d.session(), out, str(e.Data, "player_name"), str(e.Data, "answer"))
		}, log)
	case "submit_blind_map_location":
		d.withOutbox(func(out *handlers.Outbox) error {
			return handlers.SubmitBlindMapLocation(d.session(), out, str(e.Data, "player_name"), floatOf(e.Data, "x"), floatOf(e.Data, "y"))
		}, log)
	case "captain_location_preview":
		d.withOutbox(func(out *handlers.Outbox) error {
			handlers.CaptainLocationPreview(d.session(), out, model.Team(str(e.Data, "team")), floatOf(e.Data, "x"), floatOf(e.Data, "y"))
			return nil
		}, log)
	case "request_next_clue":
		d.withOutbox(func(out *handlers.Outbox) error {
			handlers.RequestNextClue(d.session(), out)
			return nil
		}, log)

	case "time_up":
		d.Flow.TimeUp()
	case "show_final_score":
		d.Flow.ShowFinalScore()

	default:
		log.Debug("dispatcher: unrecognized event, ignoring")
	}
}

// withOutbox runs fn, which mutates the session and fills out, then flushes
// the outbox to the bus. A returned per-event error (WrongTurn,
// AlreadyAnswered, ...) is spec §7's "never abort the question" case: it is
// logged at Debug and otherwise swallowed, since every handler already
// reports user-facing feedback itself via a targeted event before returning
// an error, or returns a bare validation error with nothing left to tell
// the caller.
func (d *Dispatcher) withOutbox(fn func(out *handlers.Outbox) error, log *logrus.Entry) {
	var out handlers.Outbox
	if err := fn(&out); err != nil {
		log.WithError(err).Debug("dispatcher: handler returned protocol error")
	}
	out.Flush(d.Bus)
	if out.FastForwardRequested {
		d.Flow.Timer.FastForward(out.FastForwardRemaining, d.Flow.Post, d.Flow.TimeUp)
	}
}

func (d *Dispatcher) session() *model.Session {
	return d.Lobby.Session
}

// onJoinRoom implements spec §4.2 join plus the bus-room membership that
// Engine.Join intentionally leaves to the dispatcher, since only the
// dispatcher holds the real *bus.Conn (spec §4.1). The connection's ID is
// the player's name, so PlayerLeaving's Bus.LeaveAll(name) removes it from
// every room without a separate name->connID table.
func (d *Dispatcher) onJoinRoom(e Event) {
	name := str(e.Data, "player_name")
	color := str(e.Data, "color")
	if err := d.Lobby.Join(name, color); err != nil {
		if e.Conn != nil {
			d.Bus.SendToConn(e.Conn, bus.Message{Type: "error", Data: map[string]any{"message": err.Error()}})
		}
		return
	}
	if e.Conn != nil {
		d.Bus.Join(bus.RoomAll, e.Conn)
		d.Bus.Join(bus.PlayerRoom(name), e.Conn)
	}
}

// onPlayerNameChanged moves the caller's private room membership alongside
// Engine.Rename's session mutation (spec §4.2): Leave(old)+Join(new)
// preserves the connection's routing under its new name.
func (d *Dispatcher) onPlayerNameChanged(e Event) {
	oldName := str(e.Data, "old_name")
	newName := str(e.Data, "new_name")
	if err := d.Lobby.Rename(oldName, newName); err != nil {
		if e.Conn != nil {
			d.Bus.SendToConn(e.Conn, bus.Message{Type: "error", Data: map[string]any{"message": err.Error()}})
		}
		return
	}
	if e.Conn != nil {
		d.Bus.Leave(bus.PlayerRoom(oldName), e.Conn.ID)
		d.Bus.Join(bus.PlayerRoom(newName), e.Conn)
	}
}

func (d *Dispatcher) onPlayerLeaving(e Event) {
	d.Lobby.PlayerLeaving(str(e.Data, "player_name"))
}

// onGetCurrentDrawingWord replies privately to the requesting connection
// with the word the current drawer is drawing, if any (spec §4.9's
// reconnect-recovery query).
func (d *Dispatcher) onGetCurrentDrawingWord(e Event) {
	if e.Conn == nil {
		return
	}
	q := d.session().CurrentQuestion()
	word := ""
	if q != nil && q.Type == model.TypeDrawing {
		word = q.SelectedWord
	}
	d.Bus.SendToConn(e.Conn, bus.Message{Type: "drawing_word_response", Data: map[string]any{"word": word}})
}

func roomOf(c *bus.Conn) string {
	if c == nil {
		return bus.RoomAll
	}
	return bus.PlayerRoom(c.ID)
}

func str(m map[string]any, key string) string {
	v, _ := m[key].(string)
	return v
}

func boolOf(m map[string]any, key string) bool {
	v, _ := m[key].(bool)
	return v
}

func intOf(m map[string]any, key string) int {
	switch v := m[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	default:
		return 0
	}
}

func int64Of(m map[string]any, key string) int64 {
	switch v := m[key].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	default:
		return 0
	}
}

func floatOf(m map[string]any, key string) float64 {
	switch v := m[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	default:
		return 0
	}
}
