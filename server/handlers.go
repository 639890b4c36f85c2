// File: server/handlers.go
package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/arenapong/server/bollywood"
	"github.com/arenapong/server/game"
)

// HandleGetRooms serves the public lobby listing by asking the
// RoomManagerActor for its current room table.
func (s *Server) HandleGetRooms() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if s.log != nil {
					s.log.Errorw("panic in rooms handler", "recover", rec, "stack", string(debug.Stack()))
				}
				http.Error(w, "internal server error", http.StatusInternalServerError)
			}
		}()

		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if s.engine == nil || s.roomManagerPID == nil {
			http.Error(w, "server not ready", http.StatusInternalServerError)
			return
		}

		reply, err := s.engine.Ask(s.roomManagerPID, game.ListRoomsRequest{}, 2*time.Second)
		if err != nil {
			if errors.Is(err, bollywood.ErrTimeout) {
				http.Error(w, "timeout querying lobby", http.StatusGatewayTimeout)
			} else {
				http.Error(w, "error querying lobby", http.StatusInternalServerError)
			}
			return
		}

		listing, ok := reply.(game.ListRoomsMessage)
		if !ok {
			http.Error(w, "unexpected lobby reply", http.StatusInternalServerError)
			return
		}

		body, err := json.Marshal(listing)
		if err != nil {
			http.Error(w, "error encoding lobby", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(body)
	}
}

// HandleHealthCheck is a liveness probe with no dependency on the engine.
func HandleHealthCheck() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}
}
