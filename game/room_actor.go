// File: game/room_actor.go
package game

import (
	"errors"
	"math"
	"runtime/debug"
	"time"

	"github.com/arenapong/server/bollywood"
	"github.com/arenapong/server/geometry"
	"github.com/arenapong/server/utils"
	"go.uber.org/zap"
)

var (
	errNotHost             = errors.New("room: only the host may do that")
	errMatchAlreadyStarted = errors.New("room: match already started")
	errBotRosterFull       = errors.New("room: bot roster is full")
	errRoomFull            = errors.New("room: room is full")
)

// RoomActor owns everything about one match: every connected player,
// every ball, the power-up lifecycle, and the fixed-rate tick loop that
// drives them. Unlike per-entity actors, a single actor ticking a plain
// struct keeps the physics deterministic and sidesteps a swarm of
// cross-actor messages every frame.
type RoomActor struct {
	code        string
	selfPID     *bollywood.PID
	engine      *bollywood.Engine
	managerPID  *bollywood.PID
	broadcaster *bollywood.PID
	cfg         utils.Config
	log         *zap.SugaredLogger

	players      map[ClientID]*Player
	playerOrder  []ClientID
	bots         map[ClientID]*Bot
	teamData     [utils.MaxTeams]TeamData
	balls        []*Ball
	powerUp      powerUpState
	hostClientID ClientID
	nextClientID ClientID
	isStarted    bool
	pendingEndMatch bool

	start         time.Time
	lastTick      time.Time
	frameTimer    uint32
	secondsPassed float32

	shared  *SharedRoomData
	tracker *Tracker

	stopTick chan struct{}
}

// NewRoomProducer builds a Props that spawns a RoomActor for the given
// room code and manager.
func NewRoomProducer(code string, managerPID *bollywood.PID, cfg utils.Config, shared *SharedRoomData, log *zap.SugaredLogger) bollywood.Producer {
	return func() bollywood.Actor {
		r := &RoomActor{
			code:       code,
			managerPID: managerPID,
			cfg:        cfg,
			log:        log,
			players:    make(map[ClientID]*Player),
			bots:       make(map[ClientID]*Bot),
			powerUp:    doNothingState(),
			shared:     shared,
			tracker:    NewTracker(int64(hashCode(code)), cfg.FieldWidth, cfg.FieldHeight, cfg.CircleRadius),
		}
		r.resetTeamData()
		return r
	}
}

// resetTeamData restores every team to full speed, undoing any SlowDown
// power-up still in effect from a prior match.
func (r *RoomActor) resetTeamData() {
	for i := range r.teamData {
		r.teamData[i] = NewTeamData()
	}
}

func hashCode(s string) uint64 {
	var h uint64 = 14695981039346656037
	for i := 0; i < len(s); i++ {
		h ^= uint64(s[i])
		h *= 1099511628211
	}
	return h
}

func (r *RoomActor) teamAngle() float32 { return float32(2.0 * math.Pi / float64(r.shared.NrTeams())) }

// Receive handles every message a RoomActor can get.
func (r *RoomActor) Receive(ctx bollywood.Context) {
	defer func() {
		if rec := recover(); rec != nil {
			if r.log != nil {
				r.log.Errorw("panic in room actor", "room", r.code, "recover", rec, "stack", string(debug.Stack()))
			}
		}
	}()

	if r.selfPID == nil {
		r.selfPID = ctx.Self()
	}

	switch msg := ctx.Message().(type) {
	case bollywood.Started:
		r.onStarted(ctx)
	case roomTick:
		r.tick(msg)
	case JoinPlayer:
		r.handleJoinPlayer(ctx, msg)
	case RemovePlayer:
		r.handleRemovePlayer(ctx, msg.ClientID)
	case MovePlayerMsg:
		r.handleMovePlayer(msg)
	case StartRoomMsg:
		r.handleStartRoom(ctx, msg.ClientID)
	case UpdateSettingsMsg:
		r.handleUpdateSettings(ctx, msg)
	case AddBotMsg:
		r.handleAddBot(ctx, msg)
	case RemoveBotMsg:
		r.handleRemoveBot(ctx, msg)
	case bollywood.Stopping:
		r.onStopping()
	case bollywood.Stopped:
	default:
		_ = msg
	}
}

func (r *RoomActor) onStarted(ctx bollywood.Context) {
	r.engine = ctx.Engine()
	r.broadcaster = r.engine.Spawn(bollywood.NewProps(NewBroadcasterProducer(r.selfPID)))
	r.start = time.Now()
	r.lastTick = r.start
	r.stopTick = make(chan struct{})

	engine := r.engine
	self := r.selfPID
	go func() {
		ticker := time.NewTicker(r.cfg.TickTime)
		defer ticker.Stop()
		for {
			select {
			case now := <-ticker.C:
				engine.Send(self, roomTick{deadlineNanos: now.UnixNano()}, self)
			case <-r.stopTick:
				return
			}
		}
	}()
}

func (r *RoomActor) onStopping() {
	if r.stopTick != nil {
		close(r.stopTick)
	}
}

// --- lobby protocol ---

func (r *RoomActor) playerCount() int { return len(r.players) }

func (r *RoomActor) leastPopulatedTeam() uint8 {
	teams := r.shared.NrTeams()
	var counts [utils.MaxTeams]int
	for _, p := range r.players {
		counts[p.TeamNr()]++
	}
	best := uint8(0)
	bestCount := counts[0]
	for i := 1; i < int(teams); i++ {
		if counts[i] < bestCount {
			bestCount = counts[i]
			best = uint8(i)
		}
	}
	return best
}

func (r *RoomActor) broadcastVia(ctx bollywood.Context, env Envelope) {
	ctx.Engine().Send(r.broadcaster, BroadcastEnvelope{Envelope: env}, r.selfPID)
}

func (r *RoomActor) broadcastExceptVia(ctx bollywood.Context, env Envelope, except ClientID) {
	ctx.Engine().Send(r.broadcaster, BroadcastExcept{Envelope: env, Except: except}, r.selfPID)
}

// engineSend fans a message out via the stored engine reference, for use
// from tick() which runs outside any Context (it's invoked directly from
// Receive's roomTick case, so it does have one, but keeping a small
// engine-bound helper avoids threading ctx through the whole tick path).
func (r *RoomActor) engineSend(msg interface{}) {
	if r.engine != nil && r.broadcaster != nil {
		r.engine.Send(r.broadcaster, msg, r.selfPID)
	}
}

func (r *RoomActor) engineSend2Manager(msg interface{}) {
	if r.engine != nil && r.managerPID != nil {
		r.engine.Send(r.managerPID, msg, r.selfPID)
	}
}

func (r *RoomActor) handleJoinPlayer(ctx bollywood.Context, msg JoinPlayer) {
	id := r.nextClientID
	r.nextClientID++

	if id > 0 {
		alreadyJoined := make([]Join, 0, len(r.players))
		for _, pid := range r.playerOrder {
			p := r.players[pid]
			alreadyJoined = append(alreadyJoined, Join{ClientID: pid, Name: p.Name()})
		}
		_ = msg.Client.Send(NewEnvelope(TypeJoinedRoom, JoinedRoom{
			ClientID:      id,
			HostID:        r.hostClientID,
			AlreadyJoined: alreadyJoined,
			Settings:      r.shared.Settings(),
		}))
	} else {
		r.hostClientID = id
	}

	player := NewPlayer(msg.Client, msg.Name, r.leastPopulatedTeam(), r.cfg.CircleRadius, r.cfg.FieldWidth, r.cfg.FieldHeight)

	ctx.Engine().Send(r.broadcaster, AddClient{ClientID: id, Client: msg.Client}, r.selfPID)
	r.broadcastExceptVia(ctx, NewEnvelope(TypeJoin, Join{ClientID: id, Name: player.Name()}), id)

	r.players[id] = player
	r.playerOrder = append(r.playerOrder, id)
	r.shared.UpdatePlayerCount(uint32(len(r.players)))

	ctx.Reply(JoinedData{ClientID: id})
}

func (r *RoomActor) handleRemovePlayer(ctx bollywood.Context, id ClientID) {
	player, ok := r.players[id]
	if !ok {
		ctx.Reply(struct{}{})
		return
	}
	delete(r.players, id)
	for i, pid := range r.playerOrder {
		if pid == id {
			r.playerOrder = append(r.playerOrder[:i], r.playerOrder[i+1:]...)
			break
		}
	}
	r.shared.UpdatePlayerCount(uint32(len(r.players)))

	if r.hostClientID == id && len(r.playerOrder) > 0 {
		r.hostClientID = r.playerOrder[0]
	}

	var rebalance *RebalanceTeam
	if r.isStarted {
		rebalance = r.rebalanceTeam(player.TeamNr())
	}

	ctx.Engine().Send(r.broadcaster, RemoveClient{ClientID: id}, r.selfPID)
	r.broadcastVia(ctx, NewEnvelope(TypeLeave, Leave{
		LeftClientID: id,
		NewHostID:    r.hostClientID,
		Rebalance:    rebalance,
	}))

	ctx.Reply(struct{}{})

	if len(r.players) == 0 {
		ctx.Engine().Send(r.managerPID, RoomEmptyNotify{Code: r.code}, r.selfPID)
	}
}

func (r *RoomActor) handleMovePlayer(msg MovePlayerMsg) {
	if !r.isStarted {
		return
	}
	player, ok := r.players[msg.ClientID]
	if !ok {
		return
	}
	player.QueueMove(msg.Update, r.teamData[player.TeamNr()])
}

func (r *RoomActor) handleStartRoom(ctx bollywood.Context, sender ClientID) {
	if r.isStarted || sender != r.hostClientID || r.playerCount() <= 1 {
		return
	}
	ctx.Engine().Send(r.managerPID, RoomStateChanged{Code: r.code, IsPlaying: true}, r.selfPID)
	r.startMatch(ctx)
}

func (r *RoomActor) handleUpdateSettings(ctx bollywood.Context, msg UpdateSettingsMsg) {
	if r.isStarted || msg.ClientID != r.hostClientID {
		return
	}
	if !r.shared.UpdateSettings(msg.Settings) {
		return
	}
	r.broadcastVia(ctx, NewEnvelope(TypeUpdateSettings, msg.Settings))
}

func (r *RoomActor) handleAddBot(ctx bollywood.Context, msg AddBotMsg) {
	if msg.ClientID != r.hostClientID {
		ctx.Reply(errNotHost)
		return
	}
	if r.isStarted {
		ctx.Reply(errMatchAlreadyStarted)
		return
	}
	if len(r.bots) >= utils.MaxBotsPerRoom {
		ctx.Reply(errBotRosterFull)
		return
	}
	if r.playerCount() >= utils.MaxPlayersPerRoom {
		ctx.Reply(errRoomFull)
		return
	}

	id := r.nextClientID
	r.nextClientID++

	bot := NewBot(id)
	name := "Bot"
	player := NewPlayer(nil, name, r.leastPopulatedTeam(), r.cfg.CircleRadius, r.cfg.FieldWidth, r.cfg.FieldHeight)

	r.bots[id] = bot
	r.players[id] = player
	r.playerOrder = append(r.playerOrder, id)
	r.shared.UpdatePlayerCount(uint32(len(r.players)))

	r.broadcastVia(ctx, NewEnvelope(TypeJoin, Join{ClientID: id, Name: player.Name()}))
	ctx.Reply(JoinedData{ClientID: id})
}

func (r *RoomActor) handleRemoveBot(ctx bollywood.Context, msg RemoveBotMsg) {
	if msg.ClientID != r.hostClientID {
		return
	}
	bot, ok := r.bots[msg.BotID]
	if !ok {
		return
	}
	player := r.players[bot.ID()]
	delete(r.bots, msg.BotID)
	delete(r.players, msg.BotID)
	for i, pid := range r.playerOrder {
		if pid == msg.BotID {
			r.playerOrder = append(r.playerOrder[:i], r.playerOrder[i+1:]...)
			break
		}
	}
	r.shared.UpdatePlayerCount(uint32(len(r.players)))

	var rebalance *RebalanceTeam
	if r.isStarted && player != nil {
		rebalance = r.rebalanceTeam(player.TeamNr())
	}

	r.broadcastVia(ctx, NewEnvelope(TypeLeave, Leave{
		LeftClientID: msg.BotID,
		NewHostID:    r.hostClientID,
		Rebalance:    rebalance,
	}))

	if len(r.players) == 0 {
		ctx.Engine().Send(r.managerPID, RoomEmptyNotify{Code: r.code}, r.selfPID)
	}
}

// runBots steps every bot's AI policy once per tick, queuing its move
// like a human paddle update but at the default team speed, so a SlowDown
// power-up does not slow bots. Bots on the same team share a
// ball-claim bitmask so they spread out instead of all converging on
// whichever ball is nearest to the team as a whole.
func (r *RoomActor) runBots() {
	if len(r.bots) == 0 {
		return
	}
	var teamMasks [utils.MaxTeams]BallMask
	for _, id := range r.playerOrder {
		bot, isBot := r.bots[id]
		if !isBot {
			continue
		}
		player := r.players[id]
		mask := teamMasks[player.TeamNr()]
		result := bot.CalculateMove(player, r.balls, mask, r.cfg.FieldWidth, r.cfg.FieldHeight, r.cfg.CircleRadius, utils.TicksPerSecond)
		teamMasks[player.TeamNr()] |= result.BallMask
		player.QueueMove(result.MoveUpdate, NewTeamData())
	}
}

// --- match lifecycle ---

func (r *RoomActor) resetRoom() {
	r.isStarted = false
	r.balls = nil
	r.tracker.Reset()
	r.secondsPassed = 0
	r.resetTeamData()
}

func (r *RoomActor) resizeTeamMembers(teamNr uint8, extraFactor float32) *RebalanceTeam {
	teamAngle := r.teamAngle()

	maxInTeam := uint8(0)
	for _, p := range r.players {
		if p.TeamNr() == teamNr {
			maxInTeam++
		}
	}

	var data *RebalanceTeam
	if maxInTeam > 0 {
		for _, p := range r.players {
			if p.TeamNr() != teamNr {
				continue
			}
			p.ResetSetupForFairness(teamAngle, r.shared.NrTeams(), maxInTeam, extraFactor)
			if data == nil {
				data = &RebalanceTeam{MinPos: p.MinPos(), MaxPos: p.MaxPos(), WAngle: p.WAngle()}
			}
		}
	}
	return data
}

func (r *RoomActor) rebalanceTeam(teamNr uint8) *RebalanceTeam {
	return r.resizeTeamMembers(teamNr, 1.0)
}

func (r *RoomActor) startMatch(ctx bollywood.Context) {
	r.resetTeamData()
	r.shared.Start(uint32(r.playerCount()))
	nrTeams := r.shared.NrTeams()

	if r.shared.PowerUps() {
		r.powerUp = defaultSpawnWaitState()
	} else {
		r.powerUp = doNothingState()
	}

	next := uint8(0)
	for _, id := range r.playerOrder {
		r.players[id].SetTeamNr(next)
		next++
		if uint32(next) >= nrTeams {
			next = 0
		}
	}

	teamAngle := r.teamAngle()
	var teamPopulation [utils.MaxTeams]uint8
	for _, p := range r.players {
		teamPopulation[p.TeamNr()]++
	}
	var distribution [utils.MaxTeams]uint8
	for _, id := range r.playerOrder {
		p := r.players[id]
		p.Reset()
		teamNr := p.TeamNr()
		p.Setup(teamAngle, nrTeams, teamPopulation[teamNr], distribution[teamNr])
		distribution[teamNr]++
	}

	nBalls := r.shared.NrBalls()
	balls := make([]*Ball, 0, nBalls)
	if nBalls == 1 {
		pos, angle := r.tracker.NextBallCharacteristics(r.shared.NrThrowSectors())
		balls = append(balls, NewBall(pos, angle))
	} else {
		angleStep := float32(2.0*math.Pi) / float32(nBalls)
		rr := r.cfg.BallRadius / sinf32(angleStep*0.5)
		for i := uint32(0); i < nBalls; i++ {
			pos, throwAngle := r.tracker.NextBallCharacteristics(r.shared.NrThrowSectors())
			offAngle := angleStep * float32(i)
			offset := fromAngleScale(offAngle, rr)
			balls = append(balls, NewBall(pos.Add(offset), throwAngle))
		}
	}

	startStates := make([]StartState, 0, len(r.players))
	for _, id := range r.playerOrder {
		p := r.players[id]
		startStates = append(startStates, StartState{ClientID: id, TeamNr: p.TeamNr(), Pos: p.CurrentPos(), WAngle: p.WAngle()})
	}

	ballData := make([]BallData, 0, len(balls))
	for _, b := range balls {
		ballData = append(ballData, b.Characteristics())
	}

	r.broadcastVia(ctx, NewEnvelope(TypeStart, StartMessage{
		TeamCount:        uint8(nrTeams),
		SpinTowardCenter: r.shared.SpinTowardCenter(),
		MatchTime:        r.shared.MatchTimeSeconds(),
		States:           startStates,
		Balls:            ballData,
	}))

	r.balls = balls
	r.start = time.Now()
	r.lastTick = r.start
	r.isStarted = true
}

func (r *RoomActor) endMatch() {
	r.resetRoom()
	r.engineSend(BroadcastEnvelope{Envelope: NewEnvelope(TypeResetRoom, struct{}{})})
	r.engineSend2Manager(RoomStateChanged{Code: r.code, IsPlaying: false})
}

func (r *RoomActor) handlePowerUp(effect PowerUpEffect) PowerUpPacket {
	r.powerUp = waitUntilOverState(effect)

	switch effect.EffectType {
	case utils.PowerUpGrowOwnTeam:
		if data := r.resizeTeamMembers(effect.ActivatingTeam, r.cfg.PowerUpResizeFactor); data != nil {
			return PowerUpPacket{Kind: "resize", Team: effect.ActivatingTeam, Rebalance: data}
		}
		return NonePowerUpPacket()
	case utils.PowerUpBonusPoints:
		return PowerUpPacket{Kind: "bonus", Team: effect.ActivatingTeam}
	case utils.PowerUpSplitRGB:
		return PowerUpPacket{Kind: "splitRgb", Team: effect.ActivatingTeam}
	case utils.PowerUpRotateField:
		return PowerUpPacket{Kind: "rotateField", Team: effect.ActivatingTeam}
	case utils.PowerUpSlowDown:
		for i := range r.teamData {
			if uint8(i) == effect.ActivatingTeam {
				continue
			}
			r.teamData[i].SetSpeed(r.cfg.PowerUpSlowdownFactor)
		}
		return PowerUpPacket{Kind: "slowDown", Team: effect.ActivatingTeam, SlowdownRatio: r.cfg.PowerUpSlowdownFactor}
	default:
		return NonePowerUpPacket()
	}
}

func (r *RoomActor) powerUpStateMachine(delta float32) PowerUpPacket {
	switch r.powerUp.kind {
	case puWaitUntilSpawn:
		remaining := r.powerUp.timer - delta
		if remaining <= 0 {
			pos := r.tracker.NextPowerUpLocation()
			kind := r.tracker.NextPowerUpType()
			pu := NewPowerUp(pos, kind)
			r.powerUp = powerUpState{kind: puSpawned, spawned: pu}
			return PowerUpPacket{Kind: "spawn", PowerUp: &pu}
		}
		r.powerUp.timer = remaining
		return NonePowerUpPacket()

	case puWaitUntilItIsOver:
		remaining := r.powerUp.timer - delta
		if remaining <= 0 {
			effect := r.powerUp.effect
			var packet PowerUpPacket
			switch effect.EffectType {
			case utils.PowerUpGrowOwnTeam:
				if data := r.rebalanceTeam(effect.ActivatingTeam); data != nil {
					packet = PowerUpPacket{Kind: "resize", Team: effect.ActivatingTeam, Rebalance: data}
				} else {
					packet = NonePowerUpPacket()
				}
			case utils.PowerUpBonusPoints:
				packet = NonePowerUpPacket()
			case utils.PowerUpSplitRGB:
				packet = PowerUpPacket{Kind: "splitRgb", Team: effect.ActivatingTeam}
			case utils.PowerUpRotateField:
				packet = PowerUpPacket{Kind: "rotateField", Team: effect.ActivatingTeam}
			case utils.PowerUpSlowDown:
				for i := range r.teamData {
					if uint8(i) == effect.ActivatingTeam {
						continue
					}
					r.teamData[i].SetSpeed(1.0)
				}
				packet = PowerUpPacket{Kind: "slowDown", Team: effect.ActivatingTeam, SlowdownRatio: 1.0}
			default:
				packet = NonePowerUpPacket()
			}
			r.powerUp = defaultSpawnWaitState()
			return packet
		}
		r.powerUp.timer = remaining
		return NonePowerUpPacket()

	default:
		return NonePowerUpPacket()
	}
}

// --- late collision resolution ---

// ballRadiusAngleFor computes the angular half-width of a ball at this
// room's configured circle radius.
func (r *RoomActor) ballRadiusAngleFor() float32 {
	return atanf32(r.cfg.BallRadius / r.cfg.CircleRadius)
}

func (r *RoomActor) roomDataForBall(delta float32, powerUp *PowerUp) RoomDataForBall {
	return RoomDataForBall{
		Delta:            delta,
		TeamCount:        r.shared.NrTeams(),
		PowerUp:          powerUp,
		SpinTowardCenter: r.shared.SpinTowardCenter(),
		FieldWidth:       r.cfg.FieldWidth,
		FieldHeight:      r.cfg.FieldHeight,
	}
}

func (r *RoomActor) allPlayers() []*Player {
	out := make([]*Player, 0, len(r.players))
	for _, id := range r.playerOrder {
		out = append(out, r.players[id])
	}
	return out
}

// collide retroactively replays a ball against one player's claimed hit
// position, and if it would have bounced, rewrites history and fast
// forwards the ball back to the present.
func (r *RoomActor) collide(playerID ClientID, ballID int) bool {
	player, ok := r.players[playerID]
	if !ok {
		return false
	}
	if ballID < 0 || ballID >= len(r.balls) {
		return false
	}

	historyCap := utils.MovementHistoryCap
	frameTime := int64(r.frameTimer)
	moveSeq := int64(player.MoveSeqNr())
	offset64 := frameTime - (moveSeq + int64(utils.TicksPerFrame) - 1)
	if offset64 < 0 {
		return false
	}
	offset := int(offset64 / int64(utils.TicksPerFrame))
	if offset >= historyCap {
		return false
	}

	index := historyCap - 1 - offset
	ball := r.balls[ballID]
	roomData := r.roomDataForBall(float32(utils.TicksPerFrame), nil)

	single := []*Player{player}
	start := index - 1
	if start < 0 {
		start = 0
	}
	for i := index; i >= start; i-- {
		if ball.HasCollision(i) {
			break
		}
		result, _, rewritten := ball.TickNoUpdate(roomData, single, i)
		if result == BallBounce {
			ball.RewindAndApply(offset, rewritten)
			for step := 0; step < offset; step++ {
				ball.Tick(roomData, r.allPlayers(), historyCap-1)
			}
			return true
		}
	}
	return false
}

// --- tick ---

func (r *RoomActor) tick(msg roomTick) {
	deadline := time.Unix(0, msg.deadlineNanos)
	var delta float32
	if deadline.Before(r.lastTick) {
		delta = 0
	} else {
		delta = float32(deadline.Sub(r.lastTick).Seconds())
		r.lastTick = deadline
	}

	if !r.isStarted {
		return
	}

	r.secondsPassed += delta
	frameNr := float32(time.Since(r.start).Seconds()) * 60.0

	r.runBots()

	type lateHit struct {
		id     ClientID
		ballID uint8
	}
	var late []lateHit
	var clientSyncs []ClientSync
	for _, id := range r.playerOrder {
		p := r.players[id]
		if sync := p.Tick(id); sync != nil {
			clientSyncs = append(clientSyncs, *sync)
		}
		if hit := p.GetBallHit(); hit != nil {
			late = append(late, lateHit{id: id, ballID: hit.BallID})
		}
	}

	var ballSyncs []BallSync
	for _, h := range late {
		if r.collide(h.id, int(h.ballID)) {
			ball := r.balls[h.ballID]
			ballSyncs = append(ballSyncs, NewBallSync(h.ballID, BallFlagBounce, ball.LastRally(), ball.LastHitPair(), ball.Characteristics()))
		}
	}
	for _, id := range r.playerOrder {
		r.players[id].ResetBallHit()
	}

	powerUpPacket := NonePowerUpPacket()
	matchTime := r.shared.MatchTimeSeconds()
	waitBeforeStart := float32(r.cfg.WaitBeforeStart.Seconds())
	if r.secondsPassed >= waitBeforeStart {
		endTime := waitBeforeStart + float32(matchTime)

		if r.secondsPassed < endTime {
			powerUpPacket = r.powerUpStateMachine(delta)

			var activePowerUp *PowerUp
			if r.powerUp.kind == puSpawned {
				pu := r.powerUp.spawned
				activePowerUp = &pu
			}

			tickDelta := delta * 60.0
			roomData := r.roomDataForBall(tickDelta, activePowerUp)

			for i, ball := range r.balls {
				result, effect := ball.Tick(roomData, r.allPlayers(), utils.MovementHistoryCap-1)
				switch result {
				case BallOutside:
					pos, angle := r.tracker.NextBallCharacteristics(r.shared.NrThrowSectors())
					ball.ResetCharacteristics(pos, angle)
					ballSyncs = append(ballSyncs, NewBallSync(uint8(i), BallFlagRespawn, ball.LastRally(), ball.LastHitPair(), ball.Characteristics()))
					ball.ResetOtherFieldsForRespawn()
				case BallBounce:
					ballSyncs = append(ballSyncs, NewBallSync(uint8(i), BallFlagBounce, ball.LastRally(), ball.LastHitPair(), ball.Characteristics()))
				default:
					ballSyncs = append(ballSyncs, NewBallSync(uint8(i), BallFlagNone, ball.LastRally(), ball.LastHitPair(), ball.Characteristics()))
				}
				if effect != nil {
					powerUpPacket = r.handlePowerUp(*effect)
				}
			}
		} else if r.secondsPassed > endTime+float32(r.cfg.WaitBeforeReset.Seconds()) {
			r.pendingEndMatch = true
		}
	}

	sync := SyncMessage{FrameNr: frameNr, ClientSyncs: clientSyncs, BallSyncs: ballSyncs, PowerUp: powerUpPacket}
	if r.broadcaster != nil {
		r.engineSend(BroadcastEnvelope{Envelope: NewEnvelope(TypeSync, sync)})
	}

	r.frameTimer += uint32(utils.TicksPerFrame)

	if r.pendingEndMatch {
		r.pendingEndMatch = false
		r.endMatch()
	}
}

func fromAngleScale(angle, scale float32) geometry.Vector {
	return geometry.FromAngle(angle).Scale(scale)
}

func sinf32(x float32) float32 {
	s, _ := sinCosf32(x)
	return s
}
