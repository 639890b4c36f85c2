// File: utils/config.go
package utils

import "time"

// Config holds every tunable parameter of the arena simulation. A room's
// SharedRoomData starts from a Config and exposes the subset of it players
// may change between matches.
type Config struct {
	// Timing
	TickTime          time.Duration `json:"tickTime"`
	WaitBeforeStart   time.Duration `json:"waitBeforeStart"`
	WaitBeforeReset   time.Duration `json:"waitBeforeReset"`
	DefaultMatchTime  MatchTime     `json:"defaultMatchTime"`

	// Field geometry
	FieldWidth   float32 `json:"fieldWidth"`
	FieldHeight  float32 `json:"fieldHeight"`
	CircleRadius float32 `json:"circleRadius"`

	// Ball
	DefaultBallSpeed float32 `json:"defaultBallSpeed"`
	BallRadius       float32 `json:"ballRadius"`
	SpinMax          float32 `json:"spinMax"`
	DefaultBallCount uint8   `json:"defaultBallCount"`
	MinBallCount     uint8   `json:"minBallCount"`
	MaxBallCount     uint8   `json:"maxBallCount"`
	OutsideMargin    float32 `json:"outsideMargin"` // not read by the simulation; the outside-the-arena threshold is fixed in game/ball.go

	// Player / paddle
	PlayerPadding        float32 `json:"playerPadding"`
	MaxMovePerServerTick uint32  `json:"maxMovePerServerTick"`
	MaxMoveQueue         int     `json:"maxMoveQueue"`

	// Power-ups
	PowerUpsEnabledByDefault bool          `json:"powerUpsEnabledByDefault"`
	PowerUpSize              float32       `json:"powerUpSize"`
	PowerUpSpawnDelay        time.Duration `json:"powerUpSpawnDelay"`
	PowerUpDuration          time.Duration `json:"powerUpDuration"`
	PowerUpResizeFactor      float32       `json:"powerUpResizeFactor"`
	PowerUpSlowdownFactor    float32       `json:"powerUpSlowdownFactor"`

	// Rooms / lobby
	MaxPlayersPerRoom      int `json:"maxPlayersPerRoom"`
	MaxRooms               int `json:"maxRooms"`
	MaxRoomsPerIP          int `json:"maxRoomsPerIP"`
}

// DefaultConfig returns the parameters the original arena shipped with.
func DefaultConfig() Config {
	return Config{
		TickTime:         TickTime,
		WaitBeforeStart:  WaitBeforeMatchStart,
		WaitBeforeReset:  WaitBeforeRoomReset,
		DefaultMatchTime: MatchShort,

		FieldWidth:   800.0,
		FieldHeight:  800.0,
		CircleRadius: 300.0,

		DefaultBallSpeed: 4.0,
		BallRadius:       8.0,
		SpinMax:          0.05,
		DefaultBallCount: 2,
		MinBallCount:     1,
		MaxBallCount:     8,
		OutsideMargin:    125.0,

		PlayerPadding:        4.0,
		MaxMovePerServerTick: 2,
		MaxMoveQueue:         4,

		PowerUpsEnabledByDefault: true,
		PowerUpSize:              24.0, // 16 + BallRadius padding
		PowerUpSpawnDelay:        15 * time.Second,
		PowerUpDuration:          10 * time.Second,
		PowerUpResizeFactor:      1.75,
		PowerUpSlowdownFactor:    0.125,

		MaxPlayersPerRoom: MaxPlayersPerRoom,
		MaxRooms:          75,
		MaxRoomsPerIP:     12,
	}
}

// FastGameConfig shortens the tick period and the pre-match and post-match
// waits, and relaxes the room caps, for integration tests. The match
// length is not shortened (DefaultMatchTime stays MatchShort, 150 s), and
// the room's power-up timers do not read PowerUpSpawnDelay or
// PowerUpDuration.
func FastGameConfig() Config {
	cfg := DefaultConfig()

	cfg.TickTime = 5 * time.Millisecond
	cfg.WaitBeforeStart = 30 * time.Millisecond
	cfg.WaitBeforeReset = 30 * time.Millisecond
	cfg.DefaultMatchTime = MatchShort

	cfg.PowerUpSpawnDelay = 100 * time.Millisecond
	cfg.PowerUpDuration = 100 * time.Millisecond

	cfg.MaxRooms = 200
	cfg.MaxRoomsPerIP = 100

	return cfg
}
