// Package handlers implements the eight per-question-type state machines
// (spec §4.4-§4.10): the dispatcher's delegate for validate/on_submit/
// on_time_up/initialize per question type (spec §9 design note). Every
// handler operates directly on the model.Session passed in by the
// dispatcher, which alone guarantees single-goroutine mutation (spec §5).
//
// Grounded on the teacher's internal/game/guess.go and score.go: the
// lock-snapshot-unlock-then-broadcast shape is already established at the
// session/dispatcher layer, so handlers here are pure state-mutation plus
// message construction; the caller does the actual Bus.Send/Broadcast.
package handlers

import (
	"time"

	"github.com/balalek/partygame-server/internal/bus"
	"github.com/balalek/partygame-server/internal/model"
)

// Outbox collects messages a handler wants sent; the dispatcher flushes it
// after the handler returns, keeping all Bus I/O outside of any lock the
// caller might hold.
type Outbox struct {
	sends []outboxEntry

	// FastForward, when FastForwardRequested is set, asks the dispatcher to
	// reschedule the live question timer to this shorter remainder instead
	// of letting it run to the question's full length (spec §5's
	// fast_forward_timer: "reschedules the current timer to a shorter
	// remainder rather than cancelling it"). Handlers never touch the timer
	// directly; only the dispatcher holds it.
	FastForwardRequested bool
	FastForwardRemaining time.Duration
}

// RequestFastForward asks the dispatcher to shorten the live question timer
// to remaining once this outbox is flushed.
func (o *Outbox) RequestFastForward(remaining time.Duration) {
	o.FastForwardRequested = true
	o.FastForwardRemaining = remaining
}

type outboxEntry struct {
	room string
	msg  bus.Message
}

// To queues a message for a single room (player, team, or main display).
func (o *Outbox) To(room string, msg bus.Message) {
	o.sends = append(o.sends, outboxEntry{room: room, msg: msg})
}

// ToAll queues a message for every connection.
func (o *Outbox) ToAll(msg bus.Message) {
	o.sends = append(o.sends, outboxEntry{room: bus.RoomAll, msg: msg})
}

// Flush sends every queued message, in order, via b.
func (o *Outbox) Flush(b *bus.Bus) {
	for _, e := range o.sends {
		b.Send(e.room, e.msg)
	}
}

// completionCount returns how many distinct "completion units" have
// answered: in team mode that's 1 per team with at least one answer; in
// free-for-all it's the count of individual answers (spec §4.4's
// completion rule, reused by OPEN_ANSWER/DRAWING).
func requiredCompletions(s *model.Session) int {
	if s.IsTeamMode {
		return 2
	}
	return len(s.Players)
}
