// File: test/helpers_test.go
package test

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/arenapong/server/bollywood"
	"github.com/arenapong/server/game"
	"github.com/arenapong/server/server"
	"github.com/arenapong/server/utils"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

// e2eHarness wires up a full engine + lobby + HTTP server, the way
// main.go does, so tests can dial real WebSocket connections against it.
type e2eHarness struct {
	Engine *bollywood.Engine
	Server *httptest.Server
	WsURL  string
	Cfg    utils.Config
}

func setupE2E(t *testing.T, cfg utils.Config) *e2eHarness {
	t.Helper()

	engine := bollywood.NewEngine()
	managerPID := engine.Spawn(bollywood.NewProps(game.NewRoomManagerProducer(engine, cfg, nil)))
	require.NotNil(t, managerPID, "room manager PID should not be nil")
	time.Sleep(20 * time.Millisecond)

	srv := server.New(engine, managerPID, cfg, nil)
	ts := httptest.NewServer(srv.HandleSubscribe())
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http")

	return &e2eHarness{Engine: engine, Server: ts, WsURL: wsURL, Cfg: cfg}
}

func (h *e2eHarness) teardown() {
	h.Server.Close()
	h.Engine.Shutdown(2 * time.Second)
}

func dialClient(t *testing.T, h *e2eHarness) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(h.WsURL, nil)
	require.NoError(t, err)
	return conn
}

func readEnvelope(t *testing.T, conn *websocket.Conn, timeout time.Duration) game.Envelope {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(timeout))
	var env game.Envelope
	require.NoError(t, conn.ReadJSON(&env))
	return env
}

// readEnvelopeOfType drains messages until one matching msgType arrives,
// or the deadline expires, so tests aren't broken by interleaved chatter
// (e.g. Join broadcasts arriving before the reply a test cares about).
func readEnvelopeOfType(t *testing.T, conn *websocket.Conn, msgType string, timeout time.Duration) game.Envelope {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		env := readEnvelope(t, conn, time.Until(deadline))
		if env.Type == msgType {
			return env
		}
	}
	t.Fatalf("did not observe envelope of type %q within %v", msgType, timeout)
	return game.Envelope{}
}

func handshake(t *testing.T, conn *websocket.Conn, name string) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(game.NewEnvelope(game.TypeSetName, game.SetNamePayload{
		Version: utils.ProtocolVersion,
		Name:    name,
	})))
	ack := readEnvelopeOfType(t, conn, game.TypeAck, 2*time.Second)
	require.Equal(t, game.TypeAck, ack.Type)
}
