// File: game/room_manager_test.go
package game

import (
	"testing"
	"time"

	"github.com/arenapong/server/bollywood"
	"github.com/arenapong/server/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeistelCodeRoundTrips(t *testing.T) {
	seed := uint64(12345)
	for _, nr := range []uint64{0, 1, 2, 100, 999999} {
		id := feistelCrypt(seed, nr)
		code := codeToString(id)
		assert.Len(t, code, codeLength)
		decoded, ok := stringToCode(code)
		require.True(t, ok)
		assert.Equal(t, id, decoded)
	}
}

func TestFeistelCodesDontCollideAcrossSmallCounters(t *testing.T) {
	seed := uint64(42)
	seen := make(map[string]bool)
	for nr := uint64(0); nr < 500; nr++ {
		code := codeToString(feistelCrypt(seed, nr))
		assert.False(t, seen[code], "code %q collided for counter %d", code, nr)
		seen[code] = true
	}
}

func setupRoomManagerTest(t *testing.T) (*bollywood.Engine, *bollywood.PID) {
	engine := bollywood.NewEngine()
	cfg := utils.FastGameConfig()
	managerPID := engine.Spawn(bollywood.NewProps(NewRoomManagerProducer(engine, cfg, nil)))
	require.NotNil(t, managerPID)
	time.Sleep(20 * time.Millisecond)
	return engine, managerPID
}

func TestRoomManagerStartsEmpty(t *testing.T) {
	engine, managerPID := setupRoomManagerTest(t)
	defer engine.Shutdown(1 * time.Second)

	reply, err := engine.Ask(managerPID, ListRoomsRequest{}, time.Second)
	require.NoError(t, err)
	listing, ok := reply.(ListRoomsMessage)
	require.True(t, ok)
	assert.Empty(t, listing.Rooms)
}

func TestRoomManagerCreatesAndListsRoom(t *testing.T) {
	engine, managerPID := setupRoomManagerTest(t)
	defer engine.Shutdown(1 * time.Second)

	reply, err := engine.Ask(managerPID, CreateRoomRequest{IP: "1.2.3.4", Name: "alice"}, time.Second)
	require.NoError(t, err)
	created, ok := reply.(CreateRoomResponse)
	require.True(t, ok)
	assert.Len(t, created.Code, codeLength)
	assert.NotNil(t, created.PID)

	listReply, err := engine.Ask(managerPID, ListRoomsRequest{}, time.Second)
	require.NoError(t, err)
	listing := listReply.(ListRoomsMessage)
	require.Len(t, listing.Rooms, 1)
	assert.Equal(t, created.Code, listing.Rooms[0].Code)
}

func TestRoomManagerJoinUnknownCodeFails(t *testing.T) {
	engine, managerPID := setupRoomManagerTest(t)
	defer engine.Shutdown(1 * time.Second)

	reply, err := engine.Ask(managerPID, JoinRoomRequest{Code: "NOSUCHROOM"}, time.Second)
	require.NoError(t, err)
	_, isErr := reply.(error)
	assert.True(t, isErr)
}

func TestRoomManagerEnforcesPerIPLimit(t *testing.T) {
	engine, managerPID := setupRoomManagerTest(t)
	defer engine.Shutdown(1 * time.Second)

	cfg := utils.FastGameConfig()
	for i := 0; i < cfg.MaxRoomsPerIP; i++ {
		reply, err := engine.Ask(managerPID, CreateRoomRequest{IP: "9.9.9.9", Name: "p"}, time.Second)
		require.NoError(t, err)
		_, ok := reply.(CreateRoomResponse)
		require.True(t, ok)
	}

	reply, err := engine.Ask(managerPID, CreateRoomRequest{IP: "9.9.9.9", Name: "p"}, time.Second)
	require.NoError(t, err)
	_, isErr := reply.(error)
	assert.True(t, isErr, "room creation beyond the per-IP limit should fail")
}
