// File: game/protocol.go
package game

import (
	"encoding/json"

	"github.com/arenapong/server/geometry"
	"github.com/arenapong/server/utils"
)

// ClientID identifies a player connection within a room.
type ClientID = uint32

// SeqNr is the monotonically increasing sequence number carried on every
// client move update, used to drop out-of-order or duplicate packets.
type SeqNr = uint32

// Envelope is the outer shape of every message exchanged over the socket:
// a type tag plus an arbitrary JSON payload, so clients can decode just
// the tag before deciding how to unmarshal Data.
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// NewEnvelope marshals payload and wraps it with its type tag.
func NewEnvelope(msgType string, payload interface{}) Envelope {
	raw, err := json.Marshal(payload)
	if err != nil {
		raw = json.RawMessage("null")
	}
	return Envelope{Type: msgType, Data: raw}
}

// Message type tags, client <-> server.
const (
	TypeAck            = "ack"
	TypeNameError      = "nameError"
	TypeOutdated       = "outdated"
	TypeTooManyRooms   = "tooManyRooms"
	TypeCreatedRoom    = "createdRoom"
	TypeJoinRoomError  = "joinRoomError"
	TypeJoinedRoom     = "joinedRoom"
	TypeListRooms      = "listRooms"
	TypeJoin           = "join"
	TypeLeave          = "leave"
	TypeStart          = "start"
	TypeSync           = "sync"
	TypeUpdateSettings = "updateSettings"
	TypeResetRoom      = "resetRoom"

	TypeSetName  = "setName"
	TypeCreate   = "createRoom"
	TypeJoinRoom = "joinRoom"
	TypeListReq  = "listRooms"
	TypeMove     = "move"
	TypeClientLeave = "leave"
	TypeClientStart = "start"
	TypeAddBot      = "addBot"
	TypeRemoveBot   = "removeBot"
	TypeBotError    = "botError"
)

// OutdatedReason tells the client why the handshake was refused.
type OutdatedReason string

const (
	OutdatedClient OutdatedReason = "client"
	OutdatedServer OutdatedReason = "server"
)

// BallData is the wire shape of a ball's instantaneous state.
type BallData struct {
	Pos  geometry.Vector `json:"pos"`
	Dir  geometry.Vector `json:"dir"`
	Spin float32         `json:"spin"`
}

// HitPair packs the team that last hit a ball and the team charged with
// losing it, nibble-packed the way the simulation stores it internally.
type HitPair uint8

// NewHitPair packs a hit team and a receiving team into one byte.
func NewHitPair(hitTeam, receivingTeam uint8) HitPair {
	return HitPair((hitTeam << 4) | (receivingTeam & 0x0F))
}

// NoHitPair is the packed sentinel meaning "nobody hit it yet".
func NoHitPair() HitPair {
	return NewHitPair(utils.NoTeam, utils.NoTeam)
}

func (h HitPair) HitTeam() uint8      { return uint8(h) >> 4 }
func (h HitPair) ReceivingTeam() uint8 { return uint8(h) & 0x0F }

// ClientSync reports one player's authoritative paddle position.
type ClientSync struct {
	ClientID ClientID `json:"clientId"`
	Pos      float32  `json:"pos"`
	SeqNr    SeqNr    `json:"seqNr"`
}

// BallSync reports one ball's authoritative state plus what happened to
// it this tick (bounced, respawned, or nothing).
type BallSync struct {
	IndexRallyPacked uint8    `json:"indexRallyPacked"`
	HitPair          HitPair  `json:"hitPair"`
	Flags            uint8    `json:"flags"`
	Characteristics  BallData `json:"characteristics"`
}

// Ball tick flags carried in BallSync.Flags.
const (
	BallFlagNone    uint8 = 0
	BallFlagBounce  uint8 = 1
	BallFlagRespawn uint8 = 2
)

// NewBallSync packs a ball's index, rally count, last hit pair and
// characteristics into a wire-ready BallSync.
func NewBallSync(index uint8, flags uint8, rally uint8, hitPair HitPair, data BallData) BallSync {
	return BallSync{
		IndexRallyPacked: (index << 4) | (rally & 0x0F),
		HitPair:          hitPair,
		Flags:            flags,
		Characteristics:  data,
	}
}

// RebalanceTeam describes a team's new paddle-sector geometry after a
// player joins, leaves, or a GrowOwnTeam power-up resizes it.
type RebalanceTeam struct {
	MinPos float32 `json:"minPos"`
	MaxPos float32 `json:"maxPos"`
	WAngle float32 `json:"wAngle"`
}

// PowerUpPacket reports a power-up lifecycle event: spawn, pickup effect,
// or wearing off.
type PowerUpPacket struct {
	Kind          string         `json:"kind"` // none|spawn|resize|bonus|splitRgb|rotateField|slowDown
	PowerUp       *PowerUp       `json:"powerUp,omitempty"`
	Team          uint8          `json:"team,omitempty"`
	Rebalance     *RebalanceTeam `json:"rebalance,omitempty"`
	SlowdownRatio float32        `json:"slowdownRatio,omitempty"`
}

// NonePowerUpPacket is the steady-state "nothing happening" packet.
func NonePowerUpPacket() PowerUpPacket { return PowerUpPacket{Kind: "none"} }

// SyncMessage is broadcast every tick once a match is running.
type SyncMessage struct {
	FrameNr     float32       `json:"frameNr"`
	ClientSyncs []ClientSync  `json:"clientSyncs"`
	BallSyncs   []BallSync    `json:"ballSyncs"`
	PowerUp     PowerUpPacket `json:"powerUp"`
}

// StartState is one player's starting paddle geometry, sent once when a
// match begins.
type StartState struct {
	ClientID ClientID `json:"clientId"`
	TeamNr   uint8    `json:"teamNr"`
	Pos      float32  `json:"pos"`
	WAngle   float32  `json:"wAngle"`
}

// StartMessage kicks a match off with every player's starting geometry
// and every ball's initial throw.
type StartMessage struct {
	TeamCount        uint8      `json:"teamCount"`
	SpinTowardCenter bool       `json:"spinTowardCenter"`
	MatchTime        float64    `json:"matchTime"`
	States           []StartState `json:"states"`
	Balls            []BallData `json:"balls"`
}

// Join announces a newly joined player to the room.
type Join struct {
	ClientID ClientID `json:"clientId"`
	Name     string   `json:"name"`
}

// Leave announces a departing player, the new host (if migrated), and
// any rebalance that followed.
type Leave struct {
	LeftClientID ClientID       `json:"leftClientId"`
	NewHostID    ClientID       `json:"newHostId"`
	Rebalance    *RebalanceTeam `json:"rebalance,omitempty"`
}

// UpdateSettings is both the client's requested room configuration and
// the server's authoritative echo of it.
type UpdateSettings struct {
	Balls            uint8         `json:"balls"`
	PowerUps         bool          `json:"powerUps"`
	MatchTime        utils.MatchTime `json:"matchTime"`
	SpinTowardCenter bool          `json:"spinTowardCenter"`
}

// JoinedRoom is replied to the joining client with everyone already in
// the room plus the room's current settings.
type JoinedRoom struct {
	ClientID      ClientID        `json:"clientId"`
	HostID        ClientID        `json:"hostId"`
	AlreadyJoined []Join          `json:"alreadyJoined"`
	Settings      UpdateSettings  `json:"settings"`
}

// RoomListEntry is one row of the lobby room list.
type RoomListEntry struct {
	Code        string `json:"code"`
	PlayerCount uint32 `json:"playerCount"`
}

// ListRoomsMessage answers a ListRooms lobby request.
type ListRoomsMessage struct {
	PlayingCount int             `json:"playingCount"`
	Rooms        []RoomListEntry `json:"rooms"`
}

// --- Client -> server payloads ---

// ClientMoveUpdate is a paddle movement delta queued for next tick.
type ClientMoveUpdate struct {
	Delta   float32 `json:"delta"`
	SeqNr   SeqNr   `json:"seqNr"`
	BallHit uint8   `json:"ballHit"`
	Spin    float32 `json:"spin"`
}

// SetNamePayload is the handshake payload naming the client.
type SetNamePayload struct {
	Version uint32 `json:"version"`
	Name    string `json:"name"`
}

// maxNameLen is the longest display name the handshake accepts.
const maxNameLen = 20

// ValidName reports whether name is 1-20 characters of [0-9A-Za-z ],
// the handshake's display-name charset.
func ValidName(name string) bool {
	if len(name) == 0 || len(name) > maxNameLen {
		return false
	}
	for _, r := range name {
		switch {
		case r >= '0' && r <= '9':
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r == ' ':
		default:
			return false
		}
	}
	return true
}

// JoinRoomPayload names the room code to join.
type JoinRoomPayload struct {
	RoomCode string `json:"roomCode"`
}

// RemoveBotPayload names which bot the host wants to drop.
type RemoveBotPayload struct {
	BotID ClientID `json:"botId"`
}
