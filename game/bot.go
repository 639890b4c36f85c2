// File: game/bot.go
package game

import (
	"math"
	"sort"

	"github.com/arenapong/server/geometry"
	"github.com/arenapong/server/utils"
)

// BallMask is a bitvector marking which balls a tick's bot moves have
// already accounted for, so two bots filling neighboring paddles don't
// both aim at the same ball.
type BallMask uint32

func (m BallMask) Contains(bit int) bool { return m&(1<<uint(bit)) != 0 }

// Bot drives one AI-controlled paddle. It has no real connection: the
// room calls CalculateMove directly in place of reading a client
// packet.
type Bot struct {
	id           ClientID
	seqNr        SeqNr
	previousSpin float32
}

// NewBot creates a bot bound to a particular (virtual) client id.
func NewBot(id ClientID) *Bot {
	return &Bot{id: id}
}

func (b *Bot) ID() ClientID { return b.id }

// BotTickResult is a bot's decision for one tick: the move to queue and
// which balls it claims responsibility for.
type BotTickResult struct {
	BallMask   BallMask
	MoveUpdate ClientMoveUpdate
}

type ballDestination struct {
	index    int
	ball     *Ball
	radius   float32
	angle    float32
}

// CalculateMove picks the best paddle position to cover as many
// reachable, not-yet-claimed balls as possible, then steers toward it.
func (b *Bot) CalculateMove(player *Player, balls []*Ball, mask BallMask, fieldWidth, fieldHeight, circleRadius float32, ticksPerSecond int) BotTickResult {
	seqNr := b.seqNr
	b.seqNr += uint32(utils.TicksPerFrame)

	playerStartPos := player.CurrentPos()
	center := geometry.Vector{X: fieldWidth / 2.0, Y: fieldHeight / 2.0}

	destinations := make([]ballDestination, 0, len(balls))
	for index, ball := range balls {
		if mask.Contains(index) {
			continue
		}
		c := ball.Characteristics()
		positionDirection := c.Pos.Sub(center)
		normalized := positionDirection.NormalizedSafe()
		nextDir := calculateDirectionModification(normalized, c.Spin, 1.0/float32(ticksPerSecond))
		r := positionDirection.Len()

		if r >= circleRadius+24.0 {
			continue
		}

		projected := normalized.Scale(circleRadius)
		projectedAngle := projected.AnglePositive()
		if player.MinPos() > projectedAngle+ballRadiusAngle || player.MaxPos()+player.WAngle() < projectedAngle-ballRadiusAngle {
			continue
		}

		destinations = append(destinations, ballDestination{
			index:  index,
			ball:   ball,
			radius: r,
			angle:  nextDir.AnglePositive(),
		})
	}

	sort.Slice(destinations, func(i, j int) bool { return destinations[i].angle < destinations[j].angle })

	bestScore := float32(0.0)
	bestPos := playerStartPos
	var bestMask BallMask

	const baseWeight = 4.0
	invMaxRadius := 1.0 / circleRadius

	for startIndex := range destinations {
		ballPosition := destinations[startIndex].angle
		endPosition := ballPosition + player.WAngle()

		score := float32(0.0)
		var newMask BallMask
		for _, d := range destinations[startIndex:] {
			if d.angle > geometry.NormalizeAngle(endPosition) {
				break
			}
			ballBaseScore := 0.25 + float32(d.ball.LastRally())
			score += ballBaseScore*baseWeight + d.radius*invMaxRadius
			newMask |= 1 << uint(d.index)
		}

		if score > bestScore {
			bestScore = score
			bestPos = ballPosition
			bestMask = newMask
		}
	}

	const margin = float32(3.0 / 180.0 * math.Pi)
	action := bestPos - margin - playerStartPos

	const spinAlpha = 1.0 / 4.0
	const spinDecay = 0.8
	b.previousSpin *= spinDecay * spinDecay * spinDecay
	spin := b.previousSpin*(1.0-spinAlpha) + spinAlpha*action*2.0
	b.previousSpin = spin

	return BotTickResult{
		BallMask: bestMask,
		MoveUpdate: ClientMoveUpdate{
			Delta:   action,
			SeqNr:   seqNr,
			BallHit: utils.NoTeam,
			Spin:    spin,
		},
	}
}
