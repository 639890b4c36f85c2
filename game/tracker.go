// File: game/tracker.go
package game

import (
	"math"
	"math/rand"

	"github.com/arenapong/server/geometry"
	"github.com/arenapong/server/utils"
)

// Tracker owns every source of randomness and fairness bookkeeping a room
// needs: where the next power-up spawns, which type it is, and which
// sector the next thrown ball starts in so no team is favored.
type Tracker struct {
	nextBallThrown uint32
	rng            *rand.Rand
	fieldWidth     float32
	fieldHeight    float32
	circleRadius   float32
}

// NewTracker seeds a deterministic tracker for one room's lifetime.
func NewTracker(seed int64, fieldWidth, fieldHeight, circleRadius float32) *Tracker {
	return &Tracker{
		rng:          rand.New(rand.NewSource(seed)),
		fieldWidth:   fieldWidth,
		fieldHeight:  fieldHeight,
		circleRadius: circleRadius,
	}
}

// Reset clears the fairness counter between matches. The RNG is left
// running so results keep varying across the room's lifetime.
func (t *Tracker) Reset() {
	t.nextBallThrown = 0
}

// NextPowerUpLocation returns a random point on an annulus inset from the
// field's boundary, with angle and radius each drawn uniformly (so points
// are denser toward the inner edge).
func (t *Tracker) NextPowerUpLocation() geometry.Vector {
	angle := t.rng.Float64() * 2.0 * math.Pi
	si, co := math.Sincos(angle)
	radius := 50.0 + t.rng.Float64()*float64(t.circleRadius-100.0)
	return geometry.Vector{
		X: float32(co*radius) + t.fieldWidth/2.0,
		Y: float32(si*radius) + t.fieldHeight/2.0,
	}
}

// NextPowerUpType returns a uniformly random power-up effect.
func (t *Tracker) NextPowerUpType() utils.PowerUpEffectType {
	return utils.PowerUpEffectType(t.rng.Intn(int(utils.NumPowerUpEffectTypes)))
}

// NextBallCharacteristics returns the spawn position (field center) and
// throw angle for the next ball, round-robining through nrSectors so
// balls are thrown fairly around the field.
func (t *Tracker) NextBallCharacteristics(nrSectors uint32) (geometry.Vector, float32) {
	sector := t.nextBallThrown
	t.nextBallThrown++
	pos := geometry.Vector{X: t.fieldWidth / 2.0, Y: t.fieldHeight / 2.0}
	return pos, t.sectorToAngle(sector, nrSectors)
}

func (t *Tracker) sectorToAngle(sector, nrSectors uint32) float32 {
	if nrSectors == 0 {
		nrSectors = 1
	}
	return (float32(sector)+0.5)/float32(nrSectors)*2.0*math.Pi
}
