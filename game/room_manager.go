// File: game/room_manager.go
package game

import (
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/arenapong/server/bollywood"
	"github.com/arenapong/server/utils"
	"go.uber.org/zap"
)

// Room codes are generated with a small Feistel cipher over a 40-bit
// counter, rather than handed out sequentially, so a client can't guess
// a neighboring room's code just by incrementing one it was given.
const (
	feistelBitCount  = 40
	feistelHalfMask  = (uint64(1) << (feistelBitCount / 2)) - 1
	feistelRounds    = 10
	codeAlphabet     = "T48W1GVJF37AYEB256IPMS90ZDHRKLXQ"
	codeLength       = feistelBitCount / 5
)

func feistelRound(nr, round uint64) uint64 {
	return (((nr ^ (65521 + round*3)) + 11) << 1) & feistelHalfMask
}

func feistelCrypt(seed, nr uint64) uint64 {
	nr ^= seed
	left := nr >> (feistelBitCount / 2)
	right := nr & feistelHalfMask
	for i := uint64(0); i < feistelRounds; i++ {
		left ^= feistelRound(right, i)
		left, right = right, left
	}
	return left | (right << (feistelBitCount / 2))
}

func codeToString(nr uint64) string {
	b := make([]byte, codeLength)
	for i := 0; i < codeLength; i++ {
		b[i] = codeAlphabet[nr&0x1F]
		nr >>= 5
	}
	return string(b)
}

func stringToCode(s string) (uint64, bool) {
	var nr uint64
	for i, c := range s {
		idx := -1
		for j := 0; j < len(codeAlphabet); j++ {
			if codeAlphabet[j] == byte(c) {
				idx = j
				break
			}
		}
		if idx < 0 {
			return 0, false
		}
		nr |= uint64(idx) << uint(5*i)
	}
	return nr, true
}

// RoomInfo tracks one live room's actor address and lobby-visible state.
type RoomInfo struct {
	PID       *bollywood.PID
	Shared    *SharedRoomData
	IsPlaying bool
}

// RoomManagerActor is the process-wide lobby: it mints room codes,
// tracks which ones are live, enforces a per-IP room creation limit, and
// answers the public room listing.
type RoomManagerActor struct {
	engine  *bollywood.Engine
	cfg     utils.Config
	log     *zap.SugaredLogger
	selfPID *bollywood.PID

	mu           sync.RWMutex
	rooms        map[string]*RoomInfo
	ipCounts     map[string]int
	nextCounter  uint64
	feistelSeed  uint64
}

// NewRoomManagerProducer creates a producer for the RoomManagerActor.
func NewRoomManagerProducer(engine *bollywood.Engine, cfg utils.Config, log *zap.SugaredLogger) bollywood.Producer {
	return func() bollywood.Actor {
		return &RoomManagerActor{
			engine:      engine,
			cfg:         cfg,
			log:         log,
			rooms:       make(map[string]*RoomInfo),
			ipCounts:    make(map[string]int),
			feistelSeed: uint64(time.Now().Unix()),
		}
	}
}

// Receive handles messages for the RoomManagerActor.
func (a *RoomManagerActor) Receive(ctx bollywood.Context) {
	defer func() {
		if rec := recover(); rec != nil {
			if a.log != nil {
				a.log.Errorw("panic in room manager actor", "recover", rec, "stack", string(debug.Stack()))
			}
			if ctx.RequestID() != "" {
				ctx.Reply(fmt.Errorf("room manager panicked: %v", rec))
			}
		}
	}()

	if a.selfPID == nil {
		a.selfPID = ctx.Self()
	}

	switch msg := ctx.Message().(type) {
	case bollywood.Started:
		if a.log != nil {
			a.log.Infow("room manager started")
		}

	case CreateRoomRequest:
		a.handleCreateRoom(ctx, msg)

	case JoinRoomRequest:
		a.handleJoinRoom(ctx, msg)

	case RoomEmptyNotify:
		a.handleRoomEmpty(msg.Code)

	case RoomStateChanged:
		a.handleRoomStateChanged(msg)

	case ListRoomsRequest:
		a.handleListRooms(ctx)

	case bollywood.Stopping:
		a.mu.Lock()
		pids := make([]*bollywood.PID, 0, len(a.rooms))
		for _, info := range a.rooms {
			if info.PID != nil {
				pids = append(pids, info.PID)
			}
		}
		a.rooms = make(map[string]*RoomInfo)
		a.mu.Unlock()
		for _, pid := range pids {
			a.engine.Stop(pid)
		}

	case bollywood.Stopped:

	default:
		if ctx.RequestID() != "" {
			ctx.Reply(fmt.Errorf("room manager: unknown message type %T", msg))
		}
	}
}

func (a *RoomManagerActor) handleCreateRoom(ctx bollywood.Context, req CreateRoomRequest) {
	a.mu.Lock()
	if len(a.rooms) >= a.cfg.MaxRooms {
		a.mu.Unlock()
		ctx.Reply(fmt.Errorf("room manager: at capacity (%d rooms)", a.cfg.MaxRooms))
		return
	}
	if a.ipCounts[req.IP] >= a.cfg.MaxRoomsPerIP {
		a.mu.Unlock()
		ctx.Reply(fmt.Errorf("room manager: too many rooms from this address"))
		return
	}

	id := feistelCrypt(a.feistelSeed, a.nextCounter)
	a.nextCounter++
	code := codeToString(id)
	a.ipCounts[req.IP]++
	a.mu.Unlock()

	shared := NewSharedRoomData(a.cfg)
	roomPID := a.engine.Spawn(bollywood.NewProps(NewRoomProducer(code, a.selfPID, a.cfg, shared, a.log)))
	if roomPID == nil {
		a.mu.Lock()
		a.ipCounts[req.IP]--
		a.mu.Unlock()
		ctx.Reply(fmt.Errorf("room manager: failed to spawn room"))
		return
	}

	a.mu.Lock()
	a.rooms[code] = &RoomInfo{PID: roomPID, Shared: shared}
	a.mu.Unlock()

	ctx.Reply(CreateRoomResponse{Code: code, PID: roomPID})
}

func (a *RoomManagerActor) handleJoinRoom(ctx bollywood.Context, req JoinRoomRequest) {
	a.mu.RLock()
	info, ok := a.rooms[req.Code]
	a.mu.RUnlock()
	if !ok {
		ctx.Reply(fmt.Errorf("room manager: no such room %q", req.Code))
		return
	}
	ctx.Reply(info.PID)
}

func (a *RoomManagerActor) handleRoomEmpty(code string) {
	a.mu.Lock()
	delete(a.rooms, code)
	a.mu.Unlock()
}

func (a *RoomManagerActor) handleRoomStateChanged(msg RoomStateChanged) {
	a.mu.Lock()
	if info, ok := a.rooms[msg.Code]; ok {
		info.IsPlaying = msg.IsPlaying
	}
	a.mu.Unlock()
}

func (a *RoomManagerActor) handleListRooms(ctx bollywood.Context) {
	a.mu.RLock()
	entries := make([]RoomListEntry, 0, len(a.rooms))
	playing := 0
	for code, info := range a.rooms {
		entries = append(entries, RoomListEntry{Code: code, PlayerCount: info.Shared.PlayerCount()})
		if info.IsPlaying {
			playing++
		}
	}
	a.mu.RUnlock()

	ctx.Reply(ListRoomsMessage{PlayingCount: playing, Rooms: entries})
}
