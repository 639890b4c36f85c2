// File: game/player.go
package game

import (
	"github.com/arenapong/server/geometry"
	"github.com/arenapong/server/utils"
	"github.com/gorilla/websocket"
)

// playerWPadding is added to a paddle's geometric bounds as clearance
// for the ball radius plus a little extra margin.
const playerWPadding = 4.0

// BallHit records where (in circle-angle terms) and which ball a player
// claims to have struck this tick, for late-arriving move packets.
type BallHit struct {
	Pos    float32
	BallID uint8
}

// PlayerBB is a paddle's current collidable edge: only the outward-
// facing top edge is ever used, since the paddle has no meaningful
// thickness in this simulation.
type PlayerBB struct {
	TL geometry.Vector
	TR geometry.Vector
}

// Client wraps one player's live socket connection.
type Client struct {
	Conn *websocket.Conn
	IP   string
}

// NewClient wraps a connection for a given remote IP.
func NewClient(conn *websocket.Conn, ip string) *Client {
	return &Client{Conn: conn, IP: ip}
}

// Send marshals an envelope and writes it to the client's socket.
func (c *Client) Send(env Envelope) error {
	return c.Conn.WriteJSON(env)
}

// Player is one connected participant's paddle state: position along
// the circle, team assignment, and the bookkeeping needed to replay a
// move that arrived late.
type Player struct {
	pos        float32
	ballHit    *BallHit
	moveCount  uint8
	spin       float32
	minPos     float32
	maxPos     float32
	wAngle     float32
	moveSeqNr  SeqNr
	client     *Client
	teamNr     uint8
	bounds     PlayerBB
	name       string
	circleRadius float32
	fieldWidth   float32
	fieldHeight  float32
}

// NewPlayer creates a player on the given team, connected via client.
func NewPlayer(client *Client, name string, teamNr uint8, circleRadius, fieldWidth, fieldHeight float32) *Player {
	return &Player{
		client:       client,
		name:         name,
		teamNr:       teamNr,
		circleRadius: circleRadius,
		fieldWidth:   fieldWidth,
		fieldHeight:  fieldHeight,
	}
}

// Reset clears per-match bookkeeping ahead of a new game.
func (p *Player) Reset() {
	p.moveSeqNr = 0
	p.moveCount = 0
	p.spin = 0
	p.ballHit = nil
}

func (p *Player) HasMoved() bool       { return p.moveCount > 0 }
func (p *Player) MoveSeqNr() SeqNr     { return p.moveSeqNr }
func (p *Player) Name() string         { return p.name }
func (p *Player) TeamNr() uint8        { return p.teamNr }
func (p *Player) SetTeamNr(team uint8) { p.teamNr = team }
func (p *Player) MinPos() float32      { return p.minPos }
func (p *Player) MaxPos() float32      { return p.maxPos }
func (p *Player) CurrentPos() float32  { return p.pos }
func (p *Player) Spin() float32        { return p.spin }
func (p *Player) WAngle() float32      { return p.wAngle }
func (p *Player) Client() *Client      { return p.client }

// PastPosBounds is the angular span a paddle occupies for collision
// purposes: the position it should be checked against (the claimed
// ball-hit position if one is pending, else its live position) and that
// position plus its angular width.
func (p *Player) PastPosBounds() (float32, float32) {
	pos := p.CollisionPos()
	return pos, pos + p.wAngle
}

// Setup places a player within its team's arc for a new match: teamAngle
// is the angular width of one team's slice, nrTeams/maxInTeam/
// playerNrInTeam determine where within that slice this paddle sits.
func (p *Player) Setup(teamAngle float32, nrTeams uint32, maxInTeam, playerNrInTeam uint8) {
	p.setupMinMaxAngle(teamAngle, nrTeams, maxInTeam, 1.0)

	myPartSize := teamAngle / float32(maxInTeam)
	pos := p.minPos + float32(playerNrInTeam)*myPartSize + (myPartSize-p.wAngle)*0.5
	p.pos = pos
	p.recalcBounds()
}

func (p *Player) setupMinMaxAngle(teamAngle float32, nrTeams uint32, maxInTeam uint8, extraFactor float32) {
	playerWidth := (240.0 * extraFactor) / float32(nrTeams) / float32(maxInTeam)
	p.wAngle = atanf32(playerWidth / p.circleRadius)
	p.minPos = teamAngle * float32(p.teamNr)
	p.maxPos = p.minPos + teamAngle - p.wAngle
}

// ResetSetupForFairness re-derives a team's paddle geometry (e.g. after
// a player leaves or a GrowOwnTeam power-up resizes the team), keeping
// the paddle's center roughly where it was.
func (p *Player) ResetSetupForFairness(teamAngle float32, nrTeams uint32, maxInTeam uint8, extraFactor float32) {
	oldWAngle := p.wAngle
	p.setupMinMaxAngle(teamAngle, nrTeams, maxInTeam, extraFactor)
	diffWAngle := (p.wAngle - oldWAngle) * 0.5
	p.pos = clampf32(p.pos-diffWAngle, p.minPos, p.maxPos)
	p.recalcBounds()
}

func (p *Player) recalcBounds() {
	pos, hipos := p.PastPosBounds()

	factorLeft := p.circleRadius - (10.0-3.0+playerWPadding+ballRadius)/2.0
	si1, co1 := sinCosf32(pos - ballRadiusAngle)
	si2, co2 := sinCosf32(hipos + ballRadiusAngle)
	tlx := co2*factorLeft + p.fieldWidth/2.0
	trx := co1*factorLeft + p.fieldWidth/2.0
	p.bounds = PlayerBB{
		TL: geometry.Vector{X: tlx, Y: si2*factorLeft + p.fieldHeight/2.0},
		TR: geometry.Vector{X: trx, Y: si1*factorLeft + p.fieldHeight/2.0},
	}
}

// ballRadius mirrors the original's BALL_RADIUS, used only for the
// paddle bounds clearance calculation above.
const ballRadius = 8.0

// QueueMove applies a client's requested paddle delta, clamped to the
// team's current speed and the paddle's own travel range. Out-of-order
// or overflowing moves are dropped.
func (p *Player) QueueMove(update ClientMoveUpdate, teamData TeamData) {
	if p.moveCount == utils.MaxQueuedMovesPerPlayer {
		return
	}
	if update.SeqNr <= p.moveSeqNr {
		return
	}

	delta := clampf32(update.Delta, -teamData.MaxMoveFactor(), teamData.MaxMoveFactor())
	p.pos = clampf32(p.pos+delta, p.minPos, p.maxPos)
	p.spin = clampf32(update.Spin, -spinMax*2.0, spinMax*2.0)

	p.moveSeqNr = update.SeqNr
	if update.BallHit != utils.NoTeam {
		p.ballHit = &BallHit{Pos: p.pos, BallID: update.BallHit}
	}
	p.moveCount++
}

// GetBallHit returns the pending late-collision claim for this tick, if any.
func (p *Player) GetBallHit() *BallHit { return p.ballHit }

// ResetBallHit clears the pending late-collision claim after it's been
// resolved.
func (p *Player) ResetBallHit() { p.ballHit = nil }

// CollisionPos is the position collisions should be checked against:
// the claimed ball-hit position if the player reported one this tick,
// else the paddle's live position.
func (p *Player) CollisionPos() float32 {
	if p.ballHit != nil {
		return p.ballHit.Pos
	}
	return p.pos
}

// Bounds returns the paddle's current collidable edge.
func (p *Player) Bounds() PlayerBB { return p.bounds }

// Tick finalizes this tick's accumulated moves, returning a ClientSync
// to broadcast if the paddle actually moved.
func (p *Player) Tick(id ClientID) *ClientSync {
	hasMoved := p.HasMoved()
	if hasMoved {
		p.recalcBounds()
		p.moveCount = 0
	}

	if !hasMoved {
		p.spin = 0
		return nil
	}
	return &ClientSync{ClientID: id, Pos: p.CurrentPos(), SeqNr: p.MoveSeqNr()}
}
