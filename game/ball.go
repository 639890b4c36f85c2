// File: game/ball.go
package game

import (
	"math"

	"github.com/arenapong/server/geometry"
	"github.com/arenapong/server/utils"
)

// ballRadiusAngle is the fixed angular margin (radians) the ball, bot and
// paddle-bounds code add around a paddle's span. Its value is atan(0.032)
// (8/250), a little wider than atan(BallRadius / CircleRadius) ≈ 0.0267
// at the default field; RoomActor.ballRadiusAngleFor computes the latter
// but nothing calls it.
const ballRadiusAngle = 0.031989083

// BallTickResult reports what happened to a ball during one simulation
// step.
type BallTickResult int

const (
	// BallNone: nothing of note happened.
	BallNone BallTickResult = iota
	// BallOutside: the ball left the playing circle.
	BallOutside
	// BallBounce: the ball bounced off a paddle.
	BallBounce
)

// RoomDataForBall is the slice of room state a ball needs to simulate
// one tick, passed in explicitly so Ball stays free of any room
// dependency.
type RoomDataForBall struct {
	Delta            float32
	TeamCount        uint32
	PowerUp          *PowerUp
	SpinTowardCenter bool
	FieldWidth       float32
	FieldHeight      float32
}

// BallHistoryData is one entry of a ball's movement ring buffer: enough
// state to answer "what was true at tick N" for lag compensation.
type BallHistoryData struct {
	Base                  BallData
	IgnorePlayerCollision bool
	HitPair               HitPair
	Rally                 uint8
}

// Ball is a ring-buffered physics body bouncing inside the circular
// field. Keeping a short history of past states lets late-arriving
// paddle hits retroactively resolve against where the ball actually was.
type Ball struct {
	moves *geometry.CircularBuffer[BallHistoryData]
}

// NewBall spawns a ball at pos moving in direction angle at the default
// speed.
func NewBall(pos geometry.Vector, angle float32) *Ball {
	initial := BallHistoryData{
		Base: BallData{
			Pos:  pos,
			Dir:  geometry.FromAngle(angle).Scale(defaultBallSpeed),
			Spin: 0,
		},
		IgnorePlayerCollision: false,
		HitPair:               NoHitPair(),
		Rally:                 0,
	}
	return &Ball{moves: geometry.NewCircularBuffer(utils.MovementHistoryCap, initial)}
}

// defaultBallSpeed mirrors the original's DEFAULT_BALL_SPEED; balls
// never change overall speed, only direction and spin.
const defaultBallSpeed = 4.0

// LastRally is the rally counter carried on the ball's most recent
// state.
func (b *Ball) LastRally() uint8 { return b.moves.Last().Rally }

// LastHitPair is the hit/receiving team pair from the ball's most
// recent state.
func (b *Ball) LastHitPair() HitPair { return b.moves.Last().HitPair }

// LastHitTeam is the team that most recently touched the ball.
func (b *Ball) LastHitTeam() uint8 { return b.moves.Last().HitPair.HitTeam() }

// Characteristics returns the ball's current authoritative position,
// direction and spin.
func (b *Ball) Characteristics() BallData { return b.moves.Last().Base }

// ResetCharacteristics respawns the ball at pos moving at angle,
// clearing spin.
func (b *Ball) ResetCharacteristics(pos geometry.Vector, angle float32) {
	last := b.moves.Last()
	last.Base.Pos = pos
	last.Base.Dir = geometry.FromAngle(angle).Scale(defaultBallSpeed)
	last.Base.Spin = 0
	b.moves.Set(b.moves.Cap()-1, last)
}

// ResetOtherFieldsForRespawn clears collision/rally bookkeeping after a
// respawn.
func (b *Ball) ResetOtherFieldsForRespawn() {
	last := b.moves.Last()
	last.IgnorePlayerCollision = false
	last.HitPair = NoHitPair()
	last.Rally = 0
	b.moves.Set(b.moves.Cap()-1, last)
}

// RewindAndApply discards the last `amount` pushed history entries and
// replaces what would have been pushed next with rewritten.
func (b *Ball) RewindAndApply(amount int, rewritten BallHistoryData) {
	b.moves.Rewind(amount)
	b.moves.Push(rewritten)
}

// HasCollision reports whether the history entry at time_index already
// carries an acknowledged paddle collision.
func (b *Ball) HasCollision(timeIndex int) bool {
	return b.moves.At(timeIndex).IgnorePlayerCollision
}

// calculateDirectionModification nudges dir by the spin-induced
// perpendicular component, scaled by delta (expressed in 60Hz frames).
func calculateDirectionModification(dir geometry.Vector, spin, delta float32) geometry.Vector {
	const acc = 0.25
	return dir.Sub(dir.Perp().Scale(spin * acc * delta))
}

// collideSegment intersects the ball's motion segment (pos -> new)
// against a paddle edge (p3 -> p4), returning the collision point and
// edge if they cross.
func collideSegment(pos, new_, p3, p4 geometry.Vector, spin float32) (geometry.Vector, geometry.Vector, geometry.Vector, float32, bool) {
	denom := (p4.Y-p3.Y)*(new_.X-pos.X) - (p4.X-p3.X)*(new_.Y-pos.Y)
	if denom == 0 {
		return geometry.Zero, geometry.Zero, geometry.Zero, 0, false
	}
	ua := ((p4.X-p3.X)*(pos.Y-p3.Y) - (p4.Y-p3.Y)*(pos.X-p3.X)) / denom
	if ua < 0 || ua > 1 {
		return geometry.Zero, geometry.Zero, geometry.Zero, 0, false
	}
	ub := ((new_.X-pos.X)*(pos.Y-p3.Y) - (new_.Y-pos.Y)*(pos.X-p3.X)) / denom
	if ub < 0 || ub > 1 {
		return geometry.Zero, geometry.Zero, geometry.Zero, 0, false
	}
	collisionPt := pos.Add(new_.Sub(pos).Scale(ua))
	return collisionPt, p3, p4, spin, true
}

// TickNoUpdate computes what tick would do without mutating the ball,
// reading history entry timeIndex as the starting state. It's shared by
// the normal per-tick simulation and the late-collision replay, which
// needs to try a historical state without committing to it.
func (b *Ball) TickNoUpdate(roomData RoomDataForBall, players []*Player, timeIndex int) (BallTickResult, *PowerUpEffect, BallHistoryData) {
	last := b.moves.At(timeIndex)

	spin := last.Base.Spin
	if roomData.SpinTowardCenter {
		moveDir := last.Base.Dir
		center := geometry.Vector{X: roomData.FieldWidth / 2.0, Y: roomData.FieldHeight / 2.0}
		centerDir := center.Sub(last.Base.Pos)
		cross := moveDir.Cross(centerDir.NormalizedSafe())
		scaledCross := cross * 0.01
		spin = clampf32(last.Base.Spin+scaledCross, -0.05, 0.05)
	}

	newDir := calculateDirectionModification(last.Base.Dir, spin, roomData.Delta)
	newPos := last.Base.Pos.Add(newDir.Scale(roomData.Delta))
	center := geometry.Vector{X: roomData.FieldWidth / 2.0, Y: roomData.FieldHeight / 2.0}
	newH := newPos.Sub(center)

	var hitPt geometry.Vector
	var edgeP3, edgeP4 geometry.Vector
	var hitSpin float32
	var hitTeam uint8
	found := false

	if !last.IgnorePlayerCollision {
		angle := newH.AnglePositive()
		for _, p := range players {
			lo, hi := p.PastPosBounds()
			if lo > angle+ballRadiusAngle || hi < angle-ballRadiusAngle {
				continue
			}
			bb := p.Bounds()
			if pt, p3, p4, spin2, ok := collideSegment(last.Base.Pos, newPos, bb.TL, bb.TR, p.Spin()); ok {
				hitPt, edgeP3, edgeP4, hitSpin, hitTeam, found = pt, p3, p4, spin2, p.TeamNr(), true
				break
			}
		}
	}

	var powerUpEffect *PowerUpEffect
	if last.HitPair.HitTeam() != utils.NoTeam && roomData.PowerUp != nil {
		if roomData.PowerUp.Collides(last.Base.Pos, newPos) {
			powerUpEffect = &PowerUpEffect{
				EffectType:     roomData.PowerUp.Effect,
				ActivatingTeam: last.HitPair.HitTeam(),
			}
		}
	}

	cleanHistory := func() BallHistoryData {
		return BallHistoryData{
			Base:                  BallData{Pos: newPos, Dir: newDir, Spin: last.Base.Spin},
			IgnorePlayerCollision: false,
			HitPair:               last.HitPair,
			Rally:                 last.Rally,
		}
	}

	if found {
		n := edgeP4.Sub(edgeP3).Perp().Normalized()
		dot := 2.0 * n.Dot(newDir)

		if dot <= 0 {
			reflectedDir := newDir.Sub(n.Scale(dot))
			newSpin := clampf32(last.Base.Spin*0.5+hitSpin, -spinMax, spinMax)
			rally := last.Rally + 1
			if rally > utils.MaxRallies {
				rally = utils.MaxRallies
			}
			return BallBounce, powerUpEffect, BallHistoryData{
				Base:                  BallData{Pos: hitPt, Dir: reflectedDir, Spin: newSpin},
				IgnorePlayerCollision: true,
				HitPair:               NewHitPair(hitTeam, utils.NoTeam),
				Rally:                 rally,
			}
		}
		return BallNone, powerUpEffect, cleanHistory()
	}

	history := cleanHistory()
	threshold := roomOutsideThreshold
	if newH.LenSqr() > threshold*threshold {
		if last.HitPair.ReceivingTeam() == utils.NoTeam {
			teamAngle := float32(2.0 * math.Pi / float64(roomData.TeamCount))
			angle := newH.Angle() + float32(2.0*math.Pi)
			team := uint32(angle/teamAngle) % roomData.TeamCount
			history.HitPair = NewHitPair(history.HitPair.HitTeam(), uint8(team))
		}
		return BallOutside, powerUpEffect, history
	}
	return BallNone, powerUpEffect, history
}

// spinMax bounds how hard a paddle hit or the center-seeking pull can
// spin a ball.
const spinMax = 0.05

// roomOutsideThreshold defaults to the original field's CircleRadius + 125.
// It is package-wide: SetOutsideThreshold changes it for every room.
var roomOutsideThreshold float32 = 300.0 + 125.0

// SetOutsideThreshold configures the "ball left the arena" distance for
// non-default field geometries.
func SetOutsideThreshold(v float32) { roomOutsideThreshold = v }

// Tick advances the ball one step, committing the result to history.
func (b *Ball) Tick(roomData RoomDataForBall, players []*Player, timeIndex int) (BallTickResult, *PowerUpEffect) {
	result, effect, history := b.TickNoUpdate(roomData, players, timeIndex)
	if result == BallBounce {
		lastIdx := b.moves.Cap() - 1
		last := b.moves.At(lastIdx)
		last.IgnorePlayerCollision = true
		b.moves.Set(lastIdx, last)
	}
	b.moves.Push(history)
	return result, effect
}
