// Package httpapi is the minimal HTTP surface needed to actually boot the
// engine (spec.md §1 marks quiz authoring, media upload, and the frontend
// bundle out of scope; this package is only the websocket upgrade, a health
// probe, and a quiz-start trigger).
//
// Grounded on the teacher's internal/server.Server.RegisterRoutes and
// internal/websocket.HandleWebSocket: same gorilla/mux router plus CORS
// middleware shape, and the same upgrade-then-read-loop connection handling,
// generalized from skribblr's per-room roomId path param to this engine's
// single global session (spec §2: one Session per process).
package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/balalek/partygame-server/internal/bus"
	"github.com/balalek/partygame-server/internal/dispatcher"
	"github.com/balalek/partygame-server/internal/quizstore"
	"github.com/balalek/partygame-server/internal/session"
)

// Server wires the router and its collaborators.
type Server struct {
	Lobby      *session.Engine
	Flow       *session.Flow
	Dispatcher *dispatcher.Dispatcher
	Bus        *bus.Bus
	Store      quizstore.Store
	Log        *logrus.Logger

	upgrader websocket.Upgrader
}

// New returns a Server ready to have its routes registered.
func New(lobby *session.Engine, flow *session.Flow, d *dispatcher.Dispatcher, b *bus.Bus, store quizstore.Store, log *logrus.Logger) *Server {
	return &Server{
		Lobby:      lobby,
		Flow:       flow,
		Dispatcher: d,
		Bus:        b,
		Store:      store,
		Log:        log,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// RegisterRoutes builds the router (spec's "Components added beyond
// spec.md's core: internal/httpapi").
func (s *Server) RegisterRoutes() http.Handler {
	r := mux.NewRouter()
	r.Use(s.corsMiddleware)

	r.HandleFunc("/healthz", s.healthHandler).Methods(http.MethodGet)
	r.HandleFunc("/ws", s.handleWebSocket)
	r.HandleFunc("/quizzes/{id}/start", s.startGameHandler).Methods(http.MethodPost)

	return r
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	stats := s.Store.Health(r.Context())
	w.Header().Set("Content-Type", "application/json")
	if stats["status"] != "up" {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	_ = json.NewEncoder(w).Encode(stats)
}

type startGameRequest struct {
	IsTeamMode bool `json:"is_team_mode"`
}

// startGameHandler triggers start_game directly rather than going through
// the event queue, matching spec §6's note that lobby/start-game errors
// "surface as HTTP-style result codes to the initiating caller" rather than
// a targeted feedback event.
func (s *Server) startGameHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	quizID := vars["id"]

	var req startGameRequest
	_ = json.NewDecoder(r.Body).Decode(&req)

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	if err := s.Flow.StartGame(ctx, quizID, req.IsTeamMode); err != nil {
		s.Log.WithError(err).Warn("httpapi: start game failed")
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// handleWebSocket upgrades the connection, waits for the client's first
// frame (expected to be join_room, spec §6), and then reads every
// subsequent frame onto the dispatcher's single queue (spec §5). The
// connection's bus.Conn ID is the player's name once joined, so
// session.Engine.PlayerLeaving's Bus.LeaveAll(name) removes every room
// membership without a separate name->connID table.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	socket, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.Log.WithError(err).Warn("httpapi: websocket upgrade failed")
		return
	}

	requestID := uuid.NewString()
	log := s.Log.WithField("conn_id", requestID)

	_, raw, err := socket.ReadMessage()
	if err != nil {
		log.WithError(err).Debug("httpapi: connection closed before join")
		_ = socket.Close()
		return
	}
	var first wireMessage
	if err := json.Unmarshal(raw, &first); err != nil || first.Type != "join_room" {
		log.Warn("httpapi: first frame was not join_room, closing")
		_ = socket.Close()
		return
	}
	playerName, _ := first.Data["player_name"].(string)
	if playerName == "" {
		log.Warn("httpapi: join_room missing player_name, closing")
		_ = socket.Close()
		return
	}

	conn := bus.NewConn(playerName, socket, s.Log)
	s.Dispatcher.Submit(dispatcher.Event{Conn: conn, Type: "join_room", Data: first.Data})

	s.readLoop(conn, log)
}

type wireMessage struct {
	Type string         `json:"type"`
	Data map[string]any `json:"data"`
}

func (s *Server) readLoop(conn *bus.Conn, log *logrus.Entry) {
	defer conn.Close()
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			log.WithError(err).Debug("httpapi: read loop ended")
			s.Dispatcher.Submit(dispatcher.Event{Type: "player_leaving", Data: map[string]any{"player_name": conn.ID}})
			return
		}
		var msg wireMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			log.WithError(err).Debug("httpapi: malformed frame, ignoring")
			continue
		}
		s.Dispatcher.Submit(dispatcher.Event{Conn: conn, Type: msg.Type, Data: msg.Data})
	}
}
