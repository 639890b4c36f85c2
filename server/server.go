// File: server/server.go
package server

import (
	"github.com/arenapong/server/bollywood"
	"github.com/arenapong/server/utils"
	"go.uber.org/zap"
)

// Server holds everything the HTTP/WebSocket handlers need: the actor
// engine, the lobby's RoomManagerActor, config, and a logger.
type Server struct {
	engine         *bollywood.Engine
	roomManagerPID *bollywood.PID
	cfg            utils.Config
	log            *zap.SugaredLogger
}

// New creates a Server bound to an already-running engine and lobby actor.
func New(engine *bollywood.Engine, roomManagerPID *bollywood.PID, cfg utils.Config, log *zap.SugaredLogger) *Server {
	return &Server{
		engine:         engine,
		roomManagerPID: roomManagerPID,
		cfg:            cfg,
		log:            log,
	}
}

func (s *Server) GetEngine() *bollywood.Engine        { return s.engine }
func (s *Server) GetRoomManagerPID() *bollywood.PID   { return s.roomManagerPID }
