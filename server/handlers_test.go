// File: server/handlers_test.go
package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/arenapong/server/bollywood"
	"github.com/arenapong/server/game"
	"github.com/arenapong/server/utils"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestServer(t *testing.T) (*Server, *bollywood.Engine) {
	cfg := utils.FastGameConfig()
	engine := bollywood.NewEngine()
	managerPID := engine.Spawn(bollywood.NewProps(game.NewRoomManagerProducer(engine, cfg, nil)))
	require.NotNil(t, managerPID)
	srv := New(engine, managerPID, cfg, nil)
	time.Sleep(20 * time.Millisecond)
	return srv, engine
}

func dialLobby(t *testing.T, srv *Server) (*websocket.Conn, *httptest.Server) {
	t.Helper()
	ts := httptest.NewServer(srv.HandleSubscribe())
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	return conn, ts
}

func readEnvelope(t *testing.T, conn *websocket.Conn) game.Envelope {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var env game.Envelope
	require.NoError(t, conn.ReadJSON(&env))
	return env
}

func TestHandshakeThenCreateRoom(t *testing.T) {
	srv, engine := setupTestServer(t)
	defer engine.Shutdown(2 * time.Second)

	conn, ts := dialLobby(t, srv)
	defer ts.Close()
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(game.NewEnvelope(game.TypeSetName, game.SetNamePayload{Version: utils.ProtocolVersion, Name: "alice"})))
	ack := readEnvelope(t, conn)
	assert.Equal(t, game.TypeAck, ack.Type)

	require.NoError(t, conn.WriteJSON(game.NewEnvelope(game.TypeCreate, nil)))
	created := readEnvelope(t, conn)
	assert.Equal(t, game.TypeCreatedRoom, created.Type)
}

func TestHandshakeRejectsStaleVersion(t *testing.T) {
	srv, engine := setupTestServer(t)
	defer engine.Shutdown(2 * time.Second)

	conn, ts := dialLobby(t, srv)
	defer ts.Close()
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(game.NewEnvelope(game.TypeSetName, game.SetNamePayload{Version: utils.ProtocolVersion - 1, Name: "bob"})))
	env := readEnvelope(t, conn)
	assert.Equal(t, game.TypeOutdated, env.Type)
}

func TestHandleGetRoomsReturnsLobbyListing(t *testing.T) {
	srv, engine := setupTestServer(t)
	defer engine.Shutdown(2 * time.Second)

	req := httptest.NewRequest(http.MethodGet, "/rooms/", nil)
	rr := httptest.NewRecorder()
	srv.HandleGetRooms().ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.Contains(t, rr.Body.String(), `"rooms"`)
}

func TestHandleHealthCheck(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/health-check/", nil)
	rr := httptest.NewRecorder()
	HandleHealthCheck().ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
}
