// File: game/powerup.go
package game

import (
	"github.com/arenapong/server/geometry"
	"github.com/arenapong/server/utils"
)

// powerUpPadding extends the power-up's pickup radius by a ball radius
// since a line segment collision check otherwise has zero width.
const powerUpPadding = float32(8.0) // BallRadius, see Config.BallRadius

// powerUpSize is the effective pickup radius of a spawned power-up.
const powerUpSize = 16.0 + powerUpPadding

// PowerUp is a pickup floating at a fixed point on the field; balls that
// cross it trigger its effect for the team that last touched the ball.
type PowerUp struct {
	Pos    geometry.Vector        `json:"pos"`
	Effect utils.PowerUpEffectType `json:"effect"`
}

// NewPowerUp places a power-up of the given effect at pos.
func NewPowerUp(pos geometry.Vector, effect utils.PowerUpEffectType) PowerUp {
	return PowerUp{Pos: pos, Effect: effect}
}

// Collides tests whether the segment p1->p2 (a ball's motion this tick)
// crosses the power-up's pickup circle.
func (p PowerUp) Collides(p1, p2 geometry.Vector) bool {
	d := p2.Sub(p1)
	f := p1.Sub(p.Pos)
	a := d.Dot(d)
	b := 2.0 * f.Dot(d)
	c := f.Dot(f) - powerUpSize*powerUpSize

	discriminant := b*b - 4.0*a*c
	if discriminant < 0 {
		return false
	}
	sq := sqrtf32(discriminant)
	a2 := 2.0 * a
	t1 := -b - sq
	t2 := -b + sq
	return (t1 >= 0 && t1 <= a2) || (t2 >= 0 && t2 <= a2)
}

// PowerUpEffect is the resolved effect of a ball picking up a power-up:
// what it does, and which team gets credit for it.
type PowerUpEffect struct {
	EffectType     utils.PowerUpEffectType
	ActivatingTeam uint8
}
