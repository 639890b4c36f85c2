// File: game/shared_room_data.go
package game

import (
	"math"
	"sync/atomic"

	"github.com/arenapong/server/utils"
)

// SharedRoomData holds the subset of a room's configuration that other
// actors (the room manager, the lobby listing) read without going
// through the room's own actor mailbox. Every field is a lock-free
// atomic so reads never block the simulation tick.
type SharedRoomData struct {
	nrTeams          atomic.Uint32
	nrBalls          atomic.Uint32
	spinTowardCenter atomic.Bool
	powerUps         atomic.Bool
	matchTime        atomic.Uint32 // utils.MatchTime
	playerCount      atomic.Uint32
}

// NewSharedRoomData seeds shared data from a Config's defaults.
func NewSharedRoomData(cfg utils.Config) *SharedRoomData {
	d := &SharedRoomData{}
	d.nrTeams.Store(2)
	d.nrBalls.Store(uint32(cfg.DefaultBallCount))
	d.spinTowardCenter.Store(false)
	d.powerUps.Store(cfg.PowerUpsEnabledByDefault)
	d.matchTime.Store(uint32(cfg.DefaultMatchTime))
	return d
}

func (d *SharedRoomData) NrTeams() uint32    { return d.nrTeams.Load() }
func (d *SharedRoomData) NrBalls() uint32    { return d.nrBalls.Load() }
func (d *SharedRoomData) PlayerCount() uint32 { return d.playerCount.Load() }
func (d *SharedRoomData) PowerUps() bool      { return d.powerUps.Load() }
func (d *SharedRoomData) SpinTowardCenter() bool {
	return d.spinTowardCenter.Load()
}
func (d *SharedRoomData) MatchTime() utils.MatchTime {
	return utils.MatchTime(d.matchTime.Load())
}

// MatchTimeSeconds is the configured match duration, in seconds.
func (d *SharedRoomData) MatchTimeSeconds() float64 {
	return d.MatchTime().Seconds()
}

// UpdatePlayerCount records the room's current player count for the
// lobby listing.
func (d *SharedRoomData) UpdatePlayerCount(count uint32) {
	d.playerCount.Store(count)
}

// NrThrowSectors is how many angular sectors balls are fairly thrown
// across: one per team.
func (d *SharedRoomData) NrThrowSectors() uint32 {
	return d.NrTeams()
}

// TeamAngle is the angular width of one team's slice of the circle.
func (d *SharedRoomData) TeamAngle() float32 {
	return float32(2.0 * math.Pi / float64(d.NrTeams()))
}

// Start derives the team count from playerCount (4, 2 or 3 teams when
// that split divides the lobby evenly, otherwise 5) and locks in the
// settings for the match about to begin.
func (d *SharedRoomData) Start(playerCount uint32) {
	var teams uint32
	switch {
	case playerCount > 4 && playerCount%4 == 0:
		teams = 4
	case playerCount == 2 || playerCount == 4:
		teams = 2
	case playerCount%3 == 0:
		teams = 3
	default:
		teams = 5
	}
	if teams > utils.MaxTeams {
		teams = utils.MaxTeams
	}
	d.nrTeams.Store(teams)
}

// UpdateSettings validates and applies a room host's configuration
// change. Returns false (leaving state unchanged) if balls is out of
// the allowed [1,8] range.
func (d *SharedRoomData) UpdateSettings(update UpdateSettings) bool {
	if update.Balls < 1 || update.Balls > 8 {
		return false
	}
	d.nrBalls.Store(uint32(update.Balls))
	d.powerUps.Store(update.PowerUps)
	d.matchTime.Store(uint32(update.MatchTime))
	d.spinTowardCenter.Store(update.SpinTowardCenter)
	return true
}

// Settings snapshots the current configuration for broadcast to clients.
func (d *SharedRoomData) Settings() UpdateSettings {
	return UpdateSettings{
		Balls:            uint8(d.NrBalls()),
		PowerUps:         d.PowerUps(),
		MatchTime:        d.MatchTime(),
		SpinTowardCenter: d.SpinTowardCenter(),
	}
}
