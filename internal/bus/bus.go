// Package bus is the transport-agnostic room registry and message bus
// (spec §4.1): membership of named channels and targeted fan-out. Grounded
// on the teacher's room.Players map plus SafeBroadcastToRoom/
// SafeBroadcastToRoomExcept in internal/game/draw.go, generalized from a
// single-room-per-game shape into named rooms (per-player rooms, the
// implicit "all" room, and the main-display room) so the dispatcher can
// target any audience spec §6 calls for.
package bus

import (
	"encoding/json"
	"sync"

	"github.com/sirupsen/logrus"
)

// RoomAll is the implicit room every connection is a member of.
const RoomAll = "*all*"

// PlayerRoom returns the private room name for a player, used for
// single-player targeted sends (answer_correctness, word_chain_feedback,
// etc).
func PlayerRoom(name string) string {
	return "player:" + name
}

// TeamRoom returns the room name that fans out to every member of a team.
func TeamRoom(team string) string {
	return "team:" + team
}

// MainDisplayRoom is the room the shared screen (and, if connected, the
// remote display) listens on.
const MainDisplayRoom = "main-display"

// Bus is the room registry and message fan-out primitive. All methods are
// safe for concurrent use; Send/Broadcast never block the caller on a slow
// client because delivery goes through each Conn's own buffered pump.
type Bus struct {
	mu    sync.RWMutex
	rooms map[string]map[string]*Conn // room -> connID -> conn
	log   *logrus.Logger
}

// New returns an empty bus.
func New(log *logrus.Logger) *Bus {
	return &Bus{
		rooms: make(map[string]map[string]*Conn),
		log:   log,
	}
}

// Join adds a connection to a room, creating the room if necessary.
func (b *Bus) Join(room string, conn *Conn) {
	b.mu.Lock()
	defer b.mu.Unlock()
	members, ok := b.rooms[room]
	if !ok {
		members = make(map[string]*Conn)
		b.rooms[room] = members
	}
	members[conn.ID] = conn
}

// Leave removes a connection from a room. A rename is `Leave(old, id)`
// followed by `Join(new, conn)`, which preserves private routing (spec
// §4.1).
func (b *Bus) Leave(room string, connID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if members, ok := b.rooms[room]; ok {
		delete(members, connID)
		if len(members) == 0 {
			delete(b.rooms, room)
		}
	}
}

// LeaveAll removes a connection from every room it belongs to. Used on
// disconnect.
func (b *Bus) LeaveAll(connID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for room, members := range b.rooms {
		if _, ok := members[connID]; ok {
			delete(members, connID)
			if len(members) == 0 {
				delete(b.rooms, room)
			}
		}
	}
}

// Send marshals msg once and fans it out to every member of room.
func (b *Bus) Send(room string, msg Message) {
	payload, err := json.Marshal(msg)
	if err != nil {
		b.log.WithError(err).WithField("type", msg.Type).Error("marshal failed")
		return
	}
	b.fanOut(room, payload, "")
}

// SendExcept is Send but skips one connection (e.g. broadcasting a guess to
// everyone but the drawer).
func (b *Bus) SendExcept(room string, msg Message, exceptConnID string) {
	payload, err := json.Marshal(msg)
	if err != nil {
		b.log.WithError(err).WithField("type", msg.Type).Error("marshal failed")
		return
	}
	b.fanOut(room, payload, exceptConnID)
}

// Broadcast sends to every connected client, regardless of room membership.
func (b *Bus) Broadcast(msg Message) {
	b.Send(RoomAll, msg)
}

// SendToConn delivers a pre-built message to exactly one connection, by ID,
// regardless of room membership. Used when a handler already holds the
// Conn (e.g. private word-choice delivery to a drawer).
func (b *Bus) SendToConn(conn *Conn, msg Message) {
	payload, err := json.Marshal(msg)
	if err != nil {
		b.log.WithError(err).WithField("type", msg.Type).Error("marshal failed")
		return
	}
	conn.Enqueue(payload)
}

func (b *Bus) fanOut(room string, payload []byte, exceptConnID string) {
	b.mu.RLock()
	members := b.rooms[room]
	snapshot := make([]*Conn, 0, len(members))
	for id, conn := range members {
		if id == exceptConnID {
			continue
		}
		snapshot = append(snapshot, conn)
	}
	b.mu.RUnlock()

	for _, conn := range snapshot {
		conn.Enqueue(payload)
	}
}

// RoomSize returns the number of connections currently in a room.
func (b *Bus) RoomSize(room string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.rooms[room])
}
