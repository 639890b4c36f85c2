// File: test/stress_test.go
package test

import (
	"encoding/json"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/arenapong/server/game"
	"github.com/arenapong/server/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	stressTestClientCount = 200                // concurrent clients, each creating its own room
	stressTestDuration    = 5 * time.Second     // how long clients keep sending paddle updates
	stressConnectStagger  = 2 * time.Millisecond
)

// clientWorker dials the lobby, handshakes, creates its own room, and
// then streams random paddle moves until stopCh closes.
func clientWorker(t *testing.T, wg *sync.WaitGroup, h *e2eHarness, stopCh <-chan struct{}, connected *int64, mu *sync.Mutex) {
	defer wg.Done()

	conn := dialClient(t, h)
	defer conn.Close()

	if err := conn.WriteJSON(game.NewEnvelope(game.TypeSetName, game.SetNamePayload{
		Version: utils.ProtocolVersion,
		Name:    "stress client",
	})); err != nil {
		return
	}
	if err := conn.SetReadDeadline(time.Now().Add(5 * time.Second)); err != nil {
		return
	}
	var ack game.Envelope
	if err := conn.ReadJSON(&ack); err != nil || ack.Type != game.TypeAck {
		return
	}

	if err := conn.WriteJSON(game.NewEnvelope(game.TypeCreate, nil)); err != nil {
		return
	}
	var created game.Envelope
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&created); err != nil || created.Type != game.TypeCreatedRoom {
		return
	}

	mu.Lock()
	*connected++
	mu.Unlock()

	randGen := rand.New(rand.NewSource(int64(len(created.Data))))
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	seq := game.SeqNr(0)
	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			seq++
			move := game.ClientMoveUpdate{Delta: randGen.Float32()*2 - 1, SeqNr: seq}
			if err := conn.WriteJSON(game.NewEnvelope(game.TypeMove, move)); err != nil {
				return
			}
			_ = conn.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
			var env game.Envelope
			_ = conn.ReadJSON(&env) // drain broadcasts; ignore timeouts
		}
	}
}

// TestStressManyConcurrentRooms hammers the lobby with many simultaneous
// connections, each minting its own room, to exercise the room manager's
// Feistel code allocator and per-room actor spawn path under contention.
func TestStressManyConcurrentRooms(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping stress test in short mode")
	}

	cfg := utils.FastGameConfig()
	cfg.MaxRooms = stressTestClientCount
	cfg.MaxRoomsPerIP = stressTestClientCount
	h := setupE2E(t, cfg)
	defer h.teardown()

	var wg sync.WaitGroup
	stopCh := make(chan struct{})
	var connected int64
	var mu sync.Mutex

	for i := 0; i < stressTestClientCount; i++ {
		wg.Add(1)
		go clientWorker(t, &wg, h, stopCh, &connected, &mu)
		time.Sleep(stressConnectStagger)
	}

	time.Sleep(stressTestDuration)
	close(stopCh)

	waitDone := make(chan struct{})
	go func() {
		wg.Wait()
		close(waitDone)
	}()

	select {
	case <-waitDone:
	case <-time.After(20 * time.Second):
		t.Fatal("timed out waiting for stress clients to finish")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.GreaterOrEqual(t, connected, int64(stressTestClientCount*8/10),
		"expected at least 80%% of stress clients to create a room successfully")

	conn := dialClient(t, h)
	defer conn.Close()
	require.NoError(t, conn.WriteJSON(game.NewEnvelope(game.TypeSetName, game.SetNamePayload{
		Version: utils.ProtocolVersion,
		Name:    "listing client",
	})))
	readEnvelopeOfType(t, conn, game.TypeAck, 2*time.Second)

	require.NoError(t, conn.WriteJSON(game.NewEnvelope(game.TypeListReq, nil)))
	listEnv := readEnvelopeOfType(t, conn, game.TypeListRooms, 2*time.Second)
	var listing game.ListRoomsMessage
	require.NoError(t, json.Unmarshal(listEnv.Data, &listing))
	assert.NotEmpty(t, listing.Rooms)
}
