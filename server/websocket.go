// File: server/websocket.go
package server

import (
	"net"
	"net/http"
	"runtime/debug"

	"github.com/arenapong/server/bollywood"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// HandleSubscribe upgrades the request to a WebSocket and hands the
// connection off to a fresh ConnectionHandlerActor for its whole life.
func (s *Server) HandleSubscribe() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			if s.log != nil {
				s.log.Warnw("websocket upgrade failed", "error", err, "remote", r.RemoteAddr)
			}
			return
		}

		ip := clientIP(r)
		done := make(chan struct{})

		defer func() {
			if rec := recover(); rec != nil {
				if s.log != nil {
					s.log.Errorw("panic accepting connection", "ip", ip, "recover", rec, "stack", string(debug.Stack()))
				}
				_ = conn.Close()
				select {
				case <-done:
				default:
					close(done)
				}
			}
		}()

		if s.engine == nil || s.roomManagerPID == nil {
			_ = conn.Close()
			close(done)
			return
		}

		args := ConnectionHandlerArgs{
			Conn:           conn,
			IP:             ip,
			Engine:         s.engine,
			RoomManagerPID: s.roomManagerPID,
			Log:            s.log,
			Done:           done,
		}
		handlerPID := s.engine.Spawn(bollywood.NewProps(NewConnectionHandlerProducer(args)))
		if handlerPID == nil {
			_ = conn.Close()
			close(done)
			return
		}

		<-done
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
