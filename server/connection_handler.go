// File: server/connection_handler.go
package server

import (
	"encoding/json"
	"errors"
	"runtime/debug"
	"sync"
	"time"

	"github.com/arenapong/server/bollywood"
	"github.com/arenapong/server/game"
	"github.com/arenapong/server/utils"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

var errReadLoopExited = errors.New("read loop exited")

const askTimeout = 2 * time.Second

// moveRateLimit bounds how many paddle updates one connection may push
// per second, well above the 20 TPS a well-behaved client ever needs to
// send, but low enough to blunt a flooding client.
const moveRateLimit = 60

// moveRateBurst allows a short burst (e.g. after a reconnect) before the
// steady-state rate kicks in.
const moveRateBurst = 30

// internalEnvelope wraps a client-sent Envelope as it travels from the
// readLoop goroutine back into the actor's own mailbox.
type internalEnvelope struct {
	env game.Envelope
}

// ConnectionHandlerActor owns one client socket end to end: the lobby
// handshake, room creation/join, and relaying gameplay packets to and
// from the room it ends up in.
type ConnectionHandlerActor struct {
	conn           *websocket.Conn
	ip             string
	engine         *bollywood.Engine
	roomManagerPID *bollywood.PID
	log            *zap.SugaredLogger

	selfPID *bollywood.PID
	client  *game.Client

	// connID correlates every log line this connection produces, since
	// a websocket connection carries no request ID of its own the way
	// chi's middleware stamps one onto HTTP requests.
	connID string

	name     string
	roomPID  *bollywood.PID
	clientID game.ClientID
	joined   bool

	moveLimiter *rate.Limiter

	stopReadLoop   chan struct{}
	readLoopExited chan struct{}
	done           chan struct{}
	closeOnce      sync.Once
}

// ConnectionHandlerArgs holds the arguments needed to spawn one
// ConnectionHandlerActor.
type ConnectionHandlerArgs struct {
	Conn           *websocket.Conn
	IP             string
	Engine         *bollywood.Engine
	RoomManagerPID *bollywood.PID
	Log            *zap.SugaredLogger
	Done           chan struct{}
}

// NewConnectionHandlerProducer creates a producer for ConnectionHandlerActor.
func NewConnectionHandlerProducer(args ConnectionHandlerArgs) bollywood.Producer {
	return func() bollywood.Actor {
		return &ConnectionHandlerActor{
			conn:           args.Conn,
			ip:             args.IP,
			engine:         args.Engine,
			roomManagerPID: args.RoomManagerPID,
			log:            args.Log,
			client:         game.NewClient(args.Conn, args.IP),
			connID:         uuid.NewString(),
			moveLimiter:    rate.NewLimiter(rate.Limit(moveRateLimit), moveRateBurst),
			stopReadLoop:   make(chan struct{}),
			readLoopExited: make(chan struct{}),
			done:           args.Done,
		}
	}
}

// Receive handles messages for the ConnectionHandlerActor.
func (a *ConnectionHandlerActor) Receive(ctx bollywood.Context) {
	defer func() {
		if rec := recover(); rec != nil {
			if a.log != nil {
				a.log.Errorw("panic in connection handler", "ip", a.ip, "connID", a.connID, "recover", rec, "stack", string(debug.Stack()))
			}
			a.cleanup(fmt2Err(rec))
		}
	}()

	if a.selfPID == nil {
		a.selfPID = ctx.Self()
	}

	switch msg := ctx.Message().(type) {
	case bollywood.Started:
		go a.readLoop()

	case internalEnvelope:
		a.handleEnvelope(msg.env)

	case error:
		a.cleanup(msg)

	case bollywood.Stopping:
		a.signalAndWaitForReadLoop()
		a.performCleanupActions()

	case bollywood.Stopped:
		a.closeOnce.Do(func() {
			if a.done != nil {
				close(a.done)
			}
		})
	}
}

func fmt2Err(rec interface{}) error {
	if err, ok := rec.(error); ok {
		return err
	}
	return errors.New("connection handler panic")
}

func (a *ConnectionHandlerActor) handleEnvelope(env game.Envelope) {
	switch env.Type {
	case game.TypeSetName:
		a.handleSetName(env)
	case game.TypeCreate:
		a.handleCreateRoom()
	case game.TypeJoinRoom:
		a.handleJoinRoom(env)
	case game.TypeListReq:
		a.handleListRooms()
	case game.TypeMove:
		a.handleMove(env)
	case game.TypeClientStart:
		a.handleStart()
	case game.TypeUpdateSettings:
		a.handleUpdateSettings(env)
	case game.TypeAddBot:
		a.handleAddBot()
	case game.TypeRemoveBot:
		a.handleRemoveBot(env)
	case game.TypeClientLeave:
		a.cleanup(nil)
	}
}

func (a *ConnectionHandlerActor) handleSetName(env game.Envelope) {
	var payload game.SetNamePayload
	if err := json.Unmarshal(env.Data, &payload); err != nil {
		return
	}
	if payload.Version != utils.ProtocolVersion {
		reason := game.OutdatedClient
		if payload.Version > utils.ProtocolVersion {
			reason = game.OutdatedServer
		}
		_ = a.client.Send(game.NewEnvelope(game.TypeOutdated, reason))
		return
	}
	if !game.ValidName(payload.Name) {
		_ = a.client.Send(game.NewEnvelope(game.TypeNameError, "name must be 1-20 characters of [0-9A-Za-z ]"))
		return
	}
	a.name = payload.Name
	_ = a.client.Send(game.NewEnvelope(game.TypeAck, nil))
}

func (a *ConnectionHandlerActor) handleCreateRoom() {
	if a.name == "" || a.joined {
		return
	}
	reply, err := a.engine.Ask(a.roomManagerPID, game.CreateRoomRequest{IP: a.ip, Name: a.name}, askTimeout)
	if err != nil {
		_ = a.client.Send(game.NewEnvelope(game.TypeTooManyRooms, nil))
		return
	}
	switch v := reply.(type) {
	case game.CreateRoomResponse:
		a.roomPID = v.PID
		_ = a.client.Send(game.NewEnvelope(game.TypeCreatedRoom, v.Code))
		a.joinRoom(v.PID)
	case error:
		_ = a.client.Send(game.NewEnvelope(game.TypeTooManyRooms, v.Error()))
	}
}

func (a *ConnectionHandlerActor) handleJoinRoom(env game.Envelope) {
	if a.name == "" || a.joined {
		return
	}
	var payload game.JoinRoomPayload
	if err := json.Unmarshal(env.Data, &payload); err != nil {
		return
	}
	reply, err := a.engine.Ask(a.roomManagerPID, game.JoinRoomRequest{Code: payload.RoomCode}, askTimeout)
	if err != nil {
		_ = a.client.Send(game.NewEnvelope(game.TypeJoinRoomError, "timeout"))
		return
	}
	switch v := reply.(type) {
	case *bollywood.PID:
		a.joinRoom(v)
	case error:
		_ = a.client.Send(game.NewEnvelope(game.TypeJoinRoomError, v.Error()))
	}
}

func (a *ConnectionHandlerActor) joinRoom(roomPID *bollywood.PID) {
	reply, err := a.engine.Ask(roomPID, game.JoinPlayer{Client: a.client, Name: a.name}, askTimeout)
	if err != nil {
		_ = a.client.Send(game.NewEnvelope(game.TypeJoinRoomError, "room unreachable"))
		return
	}
	joined, ok := reply.(game.JoinedData)
	if !ok {
		_ = a.client.Send(game.NewEnvelope(game.TypeJoinRoomError, "unexpected reply"))
		return
	}
	a.roomPID = roomPID
	a.clientID = joined.ClientID
	a.joined = true
}

func (a *ConnectionHandlerActor) handleListRooms() {
	reply, err := a.engine.Ask(a.roomManagerPID, game.ListRoomsRequest{}, askTimeout)
	if err != nil {
		return
	}
	if listing, ok := reply.(game.ListRoomsMessage); ok {
		_ = a.client.Send(game.NewEnvelope(game.TypeListRooms, listing))
	}
}

func (a *ConnectionHandlerActor) handleMove(env game.Envelope) {
	if !a.joined {
		return
	}
	if !a.moveLimiter.Allow() {
		if a.log != nil {
			a.log.Debugw("dropping move over rate limit", "connID", a.connID, "clientID", a.clientID)
		}
		return
	}
	var update game.ClientMoveUpdate
	if err := json.Unmarshal(env.Data, &update); err != nil {
		return
	}
	a.engine.Send(a.roomPID, game.MovePlayerMsg{ClientID: a.clientID, Update: update}, a.selfPID)
}

func (a *ConnectionHandlerActor) handleStart() {
	if !a.joined {
		return
	}
	a.engine.Send(a.roomPID, game.StartRoomMsg{ClientID: a.clientID}, a.selfPID)
}

func (a *ConnectionHandlerActor) handleUpdateSettings(env game.Envelope) {
	if !a.joined {
		return
	}
	var settings game.UpdateSettings
	if err := json.Unmarshal(env.Data, &settings); err != nil {
		return
	}
	a.engine.Send(a.roomPID, game.UpdateSettingsMsg{ClientID: a.clientID, Settings: settings}, a.selfPID)
}

func (a *ConnectionHandlerActor) handleAddBot() {
	if !a.joined {
		return
	}
	reply, err := a.engine.Ask(a.roomPID, game.AddBotMsg{ClientID: a.clientID}, askTimeout)
	if err != nil {
		_ = a.client.Send(game.NewEnvelope(game.TypeBotError, "room unreachable"))
		return
	}
	switch v := reply.(type) {
	case game.JoinedData:
	case error:
		_ = a.client.Send(game.NewEnvelope(game.TypeBotError, v.Error()))
	}
}

func (a *ConnectionHandlerActor) handleRemoveBot(env game.Envelope) {
	if !a.joined {
		return
	}
	var payload game.RemoveBotPayload
	if err := json.Unmarshal(env.Data, &payload); err != nil {
		return
	}
	a.engine.Send(a.roomPID, game.RemoveBotMsg{ClientID: a.clientID, BotID: payload.BotID}, a.selfPID)
}

// readLoop pumps envelopes off the socket and feeds them back into this
// actor's own mailbox, since gorilla/websocket only allows one reader.
func (a *ConnectionHandlerActor) readLoop() {
	defer func() {
		if rec := recover(); rec != nil {
			if a.log != nil {
				a.log.Errorw("panic in connection read loop", "ip", a.ip, "connID", a.connID, "recover", rec, "stack", string(debug.Stack()))
			}
		}
		close(a.readLoopExited)
		a.engine.Send(a.selfPID, errReadLoopExited, nil)
	}()

	for {
		select {
		case <-a.stopReadLoop:
			return
		default:
		}

		_ = a.conn.SetReadDeadline(time.Now().Add(90 * time.Second))
		var env game.Envelope
		if err := a.conn.ReadJSON(&env); err != nil {
			return
		}
		a.engine.Send(a.selfPID, internalEnvelope{env: env}, nil)
	}
}

func (a *ConnectionHandlerActor) signalAndWaitForReadLoop() {
	select {
	case <-a.stopReadLoop:
		return
	default:
		close(a.stopReadLoop)
	}
	_ = a.conn.Close()
	select {
	case <-a.readLoopExited:
	case <-time.After(2 * time.Second):
	}
}

func (a *ConnectionHandlerActor) cleanup(reason error) {
	_ = reason
	a.signalAndWaitForReadLoop()
	a.performCleanupActions()
	a.engine.Stop(a.selfPID)
}

func (a *ConnectionHandlerActor) performCleanupActions() {
	if a.joined && a.roomPID != nil {
		a.engine.Send(a.roomPID, game.RemovePlayer{ClientID: a.clientID}, a.selfPID)
		a.joined = false
	}
	_ = a.conn.Close()
}
