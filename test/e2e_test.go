// File: test/e2e_test.go
package test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/arenapong/server/game"
	"github.com/arenapong/server/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestFullRoomLifecycle drives two clients through the complete lobby
// protocol: handshake, room creation, join-by-code, match start, and the
// first authoritative sync tick.
func TestFullRoomLifecycle(t *testing.T) {
	h := setupE2E(t, utils.FastGameConfig())
	defer h.teardown()

	host := dialClient(t, h)
	defer host.Close()
	guest := dialClient(t, h)
	defer guest.Close()

	handshake(t, host, "host")
	handshake(t, guest, "guest")

	require.NoError(t, host.WriteJSON(game.NewEnvelope(game.TypeCreate, nil)))
	created := readEnvelopeOfType(t, host, game.TypeCreatedRoom, 2*time.Second)
	var code string
	require.NoError(t, json.Unmarshal(created.Data, &code))
	assert.NotEmpty(t, code)

	require.NoError(t, guest.WriteJSON(game.NewEnvelope(game.TypeJoinRoom, game.JoinRoomPayload{RoomCode: code})))
	joinedEnv := readEnvelopeOfType(t, guest, game.TypeJoinedRoom, 2*time.Second)
	var joined game.JoinedRoom
	require.NoError(t, json.Unmarshal(joinedEnv.Data, &joined))
	assert.Equal(t, game.ClientID(0), joined.HostID)
	assert.NotEqual(t, joined.HostID, joined.ClientID)

	joinBroadcast := readEnvelopeOfType(t, host, game.TypeJoin, 2*time.Second)
	var join game.Join
	require.NoError(t, json.Unmarshal(joinBroadcast.Data, &join))
	assert.Equal(t, "guest", join.Name)

	require.NoError(t, host.WriteJSON(game.NewEnvelope(game.TypeClientStart, nil)))

	startEnv := readEnvelopeOfType(t, host, game.TypeStart, 2*time.Second)
	var start game.StartMessage
	require.NoError(t, json.Unmarshal(startEnv.Data, &start))
	assert.NotEmpty(t, start.Balls)

	guestStart := readEnvelopeOfType(t, guest, game.TypeStart, 2*time.Second)
	assert.Equal(t, game.TypeStart, guestStart.Type)

	syncEnv := readEnvelopeOfType(t, host, game.TypeSync, 2*time.Second)
	var sync game.SyncMessage
	require.NoError(t, json.Unmarshal(syncEnv.Data, &sync))
}

// TestJoinRoomUnknownCode verifies a bad room code is rejected instead of
// silently hanging the joining client.
func TestJoinRoomUnknownCode(t *testing.T) {
	h := setupE2E(t, utils.FastGameConfig())
	defer h.teardown()

	conn := dialClient(t, h)
	defer conn.Close()

	handshake(t, conn, "solo")
	require.NoError(t, conn.WriteJSON(game.NewEnvelope(game.TypeJoinRoom, game.JoinRoomPayload{RoomCode: "NOPE0000"})))
	env := readEnvelopeOfType(t, conn, game.TypeJoinRoomError, 2*time.Second)
	assert.Equal(t, game.TypeJoinRoomError, env.Type)
}

// TestStaleProtocolVersionRejected verifies the handshake refuses clients
// advertising a different wire protocol version.
func TestStaleProtocolVersionRejected(t *testing.T) {
	h := setupE2E(t, utils.FastGameConfig())
	defer h.teardown()

	conn := dialClient(t, h)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(game.NewEnvelope(game.TypeSetName, game.SetNamePayload{
		Version: utils.ProtocolVersion + 1,
		Name:    "future-client",
	})))
	env := readEnvelopeOfType(t, conn, game.TypeOutdated, 2*time.Second)
	var reason game.OutdatedReason
	require.NoError(t, json.Unmarshal(env.Data, &reason))
	assert.Equal(t, game.OutdatedServer, reason)
}

// TestUpdateSettingsBeforeMatchStart verifies the host can change room
// settings and every member observes the authoritative echo.
func TestUpdateSettingsBeforeMatchStart(t *testing.T) {
	h := setupE2E(t, utils.FastGameConfig())
	defer h.teardown()

	host := dialClient(t, h)
	defer host.Close()
	handshake(t, host, "host")

	require.NoError(t, host.WriteJSON(game.NewEnvelope(game.TypeCreate, nil)))
	readEnvelopeOfType(t, host, game.TypeCreatedRoom, 2*time.Second)

	newSettings := game.UpdateSettings{Balls: 4, PowerUps: false, MatchTime: utils.MatchLong, SpinTowardCenter: true}
	require.NoError(t, host.WriteJSON(game.NewEnvelope(game.TypeUpdateSettings, newSettings)))

	echoEnv := readEnvelopeOfType(t, host, game.TypeUpdateSettings, 2*time.Second)
	var echoed game.UpdateSettings
	require.NoError(t, json.Unmarshal(echoEnv.Data, &echoed))
	assert.Equal(t, newSettings, echoed)
}

// TestHostAddsAndRemovesBot verifies that a bot added by the host shows
// up as a regular Join broadcast named "Bot", and that removing it by id
// produces a Leave broadcast for that id.
func TestHostAddsAndRemovesBot(t *testing.T) {
	h := setupE2E(t, utils.FastGameConfig())
	defer h.teardown()

	host := dialClient(t, h)
	defer host.Close()
	guest := dialClient(t, h)
	defer guest.Close()

	handshake(t, host, "host")
	handshake(t, guest, "guest")

	require.NoError(t, host.WriteJSON(game.NewEnvelope(game.TypeCreate, nil)))
	readEnvelopeOfType(t, host, game.TypeCreatedRoom, 2*time.Second)

	// guest has not joined the room, so its addBot is ignored.
	require.NoError(t, guest.WriteJSON(game.NewEnvelope(game.TypeAddBot, nil)))

	require.NoError(t, host.WriteJSON(game.NewEnvelope(game.TypeAddBot, nil)))
	joinEnv := readEnvelopeOfType(t, host, game.TypeJoin, 2*time.Second)
	var join game.Join
	require.NoError(t, json.Unmarshal(joinEnv.Data, &join))
	assert.Equal(t, "Bot", join.Name)

	require.NoError(t, host.WriteJSON(game.NewEnvelope(game.TypeRemoveBot, game.RemoveBotPayload{BotID: join.ClientID})))
	leaveEnv := readEnvelopeOfType(t, host, game.TypeLeave, 2*time.Second)
	var leave game.Leave
	require.NoError(t, json.Unmarshal(leaveEnv.Data, &leave))
	assert.Equal(t, join.ClientID, leave.LeftClientID)
}
