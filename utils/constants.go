// File: utils/constants.go
package utils

import "time"

// MaxTeams is the hard cap on simultaneous teams in a room.
const MaxTeams = 5

// MaxPlayersPerRoom bounds a room's player count (clients plus bots) when
// the host adds a bot: addBot is refused once the room holds this many.
// Joins by clients are not checked against it.
const MaxPlayersPerRoom = 40

// TicksPerSecond is the fixed simulation rate every room runs at.
const TicksPerSecond = 20

// TickTime is the wall-clock period between simulation ticks.
const TickTime = time.Second / TicksPerSecond

// TicksPerFrame expresses a tick in terms of the 60Hz reference frame rate
// the physics constants (spin, acceleration) were tuned against.
const TicksPerFrame = 60 / TicksPerSecond

// ProtocolVersion is bumped whenever the wire protocol changes shape.
// Clients advertising a different version are rejected at handshake.
const ProtocolVersion = 9

// MovementHistoryCap is the size of a ball's rewind ring buffer, i.e. how
// many ticks of lag compensation late collisions can reach back over.
const MovementHistoryCap = 6

// MaxQueuedMovesPerPlayer bounds how many ClientMove updates a player may
// apply within one tick; further moves in that tick are dropped.
const MaxQueuedMovesPerPlayer = 4

// MaxMovePerTick is the reference per-tick move count; the per-tick move
// cap MaxQueuedMovesPerPlayer is this plus two. No code reads it directly.
const MaxMovePerTick = 2

// MaxBotsPerRoom bounds how many AI-controlled paddles a host may add to
// fill out a room.
const MaxBotsPerRoom = 10

// NoTeam is the sentinel team id meaning "unassigned" / "no team".
const NoTeam uint8 = 0x0F

// MaxRallies caps the rally counter carried on a ball's last bounce.
const MaxRallies uint8 = 5

const (
	// WaitBeforeMatchStart is the countdown between the Start broadcast and
	// the simulation actually stepping balls and power-ups.
	WaitBeforeMatchStart = 3 * time.Second
	// WaitBeforeRoomReset is how long a finished match lingers before the
	// room returns to its lobby (waiting-room) state.
	WaitBeforeRoomReset = 5 * time.Second
)

// MatchTime enumerates the selectable match durations.
type MatchTime uint8

const (
	MatchShort MatchTime = iota
	MatchLong
)

func (m MatchTime) Seconds() float64 {
	switch m {
	case MatchLong:
		return 5 * 60.0
	default:
		return 2.5 * 60.0
	}
}

func (m MatchTime) String() string {
	switch m {
	case MatchLong:
		return "long"
	default:
		return "short"
	}
}

// PowerUpEffectType enumerates the kinds of power-up a ball can pick up.
type PowerUpEffectType int

const (
	PowerUpGrowOwnTeam PowerUpEffectType = iota
	PowerUpBonusPoints
	PowerUpSplitRGB
	PowerUpRotateField
	PowerUpSlowDown
	NumPowerUpEffectTypes
)

func (t PowerUpEffectType) String() string {
	switch t {
	case PowerUpGrowOwnTeam:
		return "GrowOwnTeam"
	case PowerUpBonusPoints:
		return "BonusPoints"
	case PowerUpSplitRGB:
		return "SplitRGB"
	case PowerUpRotateField:
		return "RotateField"
	case PowerUpSlowDown:
		return "SlowDown"
	default:
		return "Unknown"
	}
}
