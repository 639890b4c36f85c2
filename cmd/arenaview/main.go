// File: cmd/arenaview/main.go
//
// arenaview is a terminal spectator: it dials a running server, creates
// or joins a room, and redraws an ASCII snapshot of the arena on every
// sync tick. It is a debug/ops tool, not part of the game client.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"

	"github.com/arenapong/server/game"
	"github.com/arenapong/server/render"
	"github.com/arenapong/server/utils"
	"github.com/gorilla/websocket"
	"github.com/lguibr/asciiring/helpers"
)

func main() {
	addr := flag.String("addr", "ws://localhost:8080/subscribe", "lobby websocket URL")
	name := flag.String("name", "spectator", "handshake display name")
	code := flag.String("join", "", "room code to join; creates a new room if empty")
	resolution := flag.Int("resolution", 48, "ASCII grid resolution")
	flag.Parse()

	conn, _, err := websocket.DefaultDialer.Dial(*addr, nil)
	if err != nil {
		log.Fatalf("dial %s: %v", *addr, err)
	}
	defer conn.Close()

	if err := conn.WriteJSON(game.NewEnvelope(game.TypeSetName, game.SetNamePayload{
		Version: utils.ProtocolVersion,
		Name:    *name,
	})); err != nil {
		log.Fatalf("handshake: %v", err)
	}
	if env := mustRead(conn); env.Type != game.TypeAck {
		log.Fatalf("handshake rejected: %s", env.Type)
	}

	if *code == "" {
		if err := conn.WriteJSON(game.NewEnvelope(game.TypeCreate, nil)); err != nil {
			log.Fatalf("create room: %v", err)
		}
		env := mustRead(conn)
		var roomCode string
		_ = json.Unmarshal(env.Data, &roomCode)
		fmt.Printf("created room %s\n", roomCode)
	} else {
		if err := conn.WriteJSON(game.NewEnvelope(game.TypeJoinRoom, game.JoinRoomPayload{RoomCode: *code})); err != nil {
			log.Fatalf("join room: %v", err)
		}
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)

	cfg := utils.DefaultConfig()
	paddles := map[game.ClientID]render.PaddleArc{}

	go func() {
		<-stop
		_ = conn.Close()
		os.Exit(0)
	}()

	for {
		env := mustRead(conn)
		switch env.Type {
		case game.TypeStart:
			var start game.StartMessage
			if err := json.Unmarshal(env.Data, &start); err != nil {
				continue
			}
			for _, state := range start.States {
				paddles[state.ClientID] = render.PaddleArc{
					Team:      state.TeamNr,
					HalfWidth: state.WAngle / 2,
				}
			}
		case game.TypeSync:
			var sync game.SyncMessage
			if err := json.Unmarshal(env.Data, &sync); err != nil {
				continue
			}
			drawFrame(cfg, sync, paddles, *resolution)
		case game.TypeJoinedRoom, game.TypeJoin, game.TypeLeave, game.TypeResetRoom:
			// lobby chatter while spectating; nothing to draw yet.
		}
	}
}

func mustRead(conn *websocket.Conn) game.Envelope {
	var env game.Envelope
	if err := conn.ReadJSON(&env); err != nil {
		log.Fatalf("read: %v", err)
	}
	return env
}

func drawFrame(cfg utils.Config, sync game.SyncMessage, paddles map[game.ClientID]render.PaddleArc, resolution int) {
	dots := make([]render.Dot, 0, len(sync.BallSyncs))
	for _, bs := range sync.BallSyncs {
		dots = append(dots, render.Dot{
			X: bs.Characteristics.Pos.X - cfg.FieldWidth/2,
			Y: bs.Characteristics.Pos.Y - cfg.FieldHeight/2,
			R: 255, G: 255, B: 255,
		})
	}

	arcs := make([]render.PaddleArc, 0, len(sync.ClientSyncs))
	for _, cs := range sync.ClientSyncs {
		arc, ok := paddles[cs.ClientID]
		if !ok {
			continue
		}
		arc.AngleCenter = cs.Pos + arc.HalfWidth
		arcs = append(arcs, arc)
	}

	helpers.ClearScreen()
	fmt.Print(render.RenderField(cfg.CircleRadius, dots, arcs, resolution))
}
