// File: game/messages.go
package game

import "github.com/arenapong/server/bollywood"

// roomTick is sent by a RoomActor to itself on every simulation tick.
type roomTick struct {
	deadlineNanos int64
}

// JoinPlayer asks a RoomActor to admit a new connection. Reply is
// JoinedData.
type JoinPlayer struct {
	Client *Client
	Name   string
}

// JoinedData is the reply to JoinPlayer.
type JoinedData struct {
	ClientID ClientID
}

// RemovePlayer asks a RoomActor to drop a connection, e.g. on socket
// close. Reply is struct{}.
type RemovePlayer struct {
	ClientID ClientID
}

// MovePlayerMsg forwards a client's paddle delta into the room.
type MovePlayerMsg struct {
	ClientID ClientID
	Update   ClientMoveUpdate
}

// StartRoomMsg asks the room host to kick the match off.
type StartRoomMsg struct {
	ClientID ClientID
}

// UpdateSettingsMsg asks the room host to change the room configuration.
type UpdateSettingsMsg struct {
	ClientID ClientID
	Settings UpdateSettings
}

// AddBotMsg asks the room host to add one AI-controlled paddle. Reply is
// JoinedData or error.
type AddBotMsg struct {
	ClientID ClientID
}

// RemoveBotMsg asks the room host to drop a previously added bot.
type RemoveBotMsg struct {
	ClientID ClientID
	BotID    ClientID
}

// RoomEmptyNotify tells the RoomManagerActor that a room has no players
// left and can be forgotten.
type RoomEmptyNotify struct {
	Code string
}

// RoomStateChanged tells the RoomManagerActor a room started or stopped
// a match, for the lobby's "playing" counter.
type RoomStateChanged struct {
	Code     string
	IsPlaying bool
}

// AddClient registers a raw connection under its room-assigned id with a
// BroadcasterActor.
type AddClient struct {
	ClientID ClientID
	Client   *Client
}

// RemoveClient unregisters a connection from a BroadcasterActor.
type RemoveClient struct {
	ClientID ClientID
}

// SendToOne asks a BroadcasterActor to write an envelope to exactly one
// client.
type SendToOne struct {
	ClientID ClientID
	Envelope Envelope
}

// BroadcastEnvelope asks a BroadcasterActor to fan an envelope out to
// every registered client.
type BroadcastEnvelope struct {
	Envelope Envelope
}

// BroadcastExcept is like BroadcastEnvelope but skips one client.
type BroadcastExcept struct {
	Envelope Envelope
	Except   ClientID
}

// CreateRoomRequest asks the RoomManagerActor to spin up a fresh room.
// Reply is CreateRoomResponse or error.
type CreateRoomRequest struct {
	IP   string
	Name string
}

// CreateRoomResponse carries the freshly minted room's public code and
// actor address.
type CreateRoomResponse struct {
	Code string
	PID  *bollywood.PID
}

// JoinRoomRequest asks the RoomManagerActor for the actor behind a room
// code. Reply is *bollywood.PID or error.
type JoinRoomRequest struct {
	Code string
}

// ListRoomsRequest asks the RoomManagerActor for the lobby listing.
// Reply is ListRoomsMessage.
type ListRoomsRequest struct{}
