// File: game/broadcaster_actor.go
package game

import (
	"runtime/debug"
	"sync"

	"github.com/arenapong/server/bollywood"
	"go.uber.org/zap"
)

// BroadcasterActor is the single writer for every client socket in one
// room. gorilla/websocket forbids concurrent writers on the same
// connection, and the Room actor needs to fan a sync packet out to every
// client every tick while individual lobby replies go to one client at a
// time — routing both through one actor keeps every write serialized.
type BroadcasterActor struct {
	clients map[ClientID]*Client
	mu      sync.RWMutex
	selfPID *bollywood.PID
	roomPID *bollywood.PID
	log     *zap.SugaredLogger
}

// NewBroadcasterProducer creates a producer for a room's BroadcasterActor.
func NewBroadcasterProducer(roomPID *bollywood.PID) bollywood.Producer {
	return func() bollywood.Actor {
		return &BroadcasterActor{
			clients: make(map[ClientID]*Client),
			roomPID: roomPID,
		}
	}
}

// Receive handles messages for the BroadcasterActor.
func (a *BroadcasterActor) Receive(ctx bollywood.Context) {
	defer func() {
		if rec := recover(); rec != nil {
			if a.log != nil {
				a.log.Errorw("panic in broadcaster actor", "recover", rec, "stack", string(debug.Stack()))
			}
		}
	}()

	if a.selfPID == nil {
		a.selfPID = ctx.Self()
	}

	switch msg := ctx.Message().(type) {
	case AddClient:
		a.addClient(msg.ClientID, msg.Client)
	case RemoveClient:
		a.removeClient(msg.ClientID)
	case SendToOne:
		a.sendToOne(ctx, msg.ClientID, msg.Envelope)
	case BroadcastEnvelope:
		a.broadcast(ctx, msg.Envelope, 0, false)
	case BroadcastExcept:
		a.broadcast(ctx, msg.Envelope, msg.Except, true)
	case bollywood.Stopping, bollywood.Stopped:
		a.closeAll()
	}
}

func (a *BroadcasterActor) addClient(id ClientID, c *Client) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.clients[id] = c
}

func (a *BroadcasterActor) removeClient(id ClientID) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.clients, id)
}

func (a *BroadcasterActor) sendToOne(ctx bollywood.Context, id ClientID, env Envelope) {
	a.mu.RLock()
	client, ok := a.clients[id]
	a.mu.RUnlock()
	if !ok {
		return
	}
	if err := client.Send(env); err != nil {
		a.dropAndNotify(ctx, id, client)
	}
}

func (a *BroadcasterActor) broadcast(ctx bollywood.Context, env Envelope, exceptID ClientID, hasExcept bool) {
	a.mu.RLock()
	snapshot := make(map[ClientID]*Client, len(a.clients))
	for id, c := range a.clients {
		snapshot[id] = c
	}
	a.mu.RUnlock()

	for id, client := range snapshot {
		if hasExcept && id == exceptID {
			continue
		}
		if err := client.Send(env); err != nil {
			a.dropAndNotify(ctx, id, client)
		}
	}
}

func (a *BroadcasterActor) dropAndNotify(ctx bollywood.Context, id ClientID, client *Client) {
	a.mu.Lock()
	if a.clients[id] == client {
		delete(a.clients, id)
	}
	a.mu.Unlock()
	_ = client.Conn.Close()
	if a.roomPID != nil {
		ctx.Engine().Send(a.roomPID, RemovePlayer{ClientID: id}, a.selfPID)
	}
}

func (a *BroadcasterActor) closeAll() {
	a.mu.Lock()
	defer a.mu.Unlock()
	for id, c := range a.clients {
		_ = c.Conn.Close()
		delete(a.clients, id)
	}
}
