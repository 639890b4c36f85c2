// File: main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/arenapong/server/bollywood"
	"github.com/arenapong/server/game"
	"github.com/arenapong/server/server"
	"github.com/arenapong/server/utils"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const defaultPort = "8080"

func main() {
	_ = godotenv.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()
	log := logger.Sugar()

	cfg := utils.DefaultConfig()
	log.Infow("configuration loaded", "fieldWidth", cfg.FieldWidth, "circleRadius", cfg.CircleRadius, "tickTime", cfg.TickTime)

	engine := bollywood.NewEngine()
	log.Info("actor engine created")

	roomManagerProps := bollywood.NewProps(game.NewRoomManagerProducer(engine, cfg, log))
	roomManagerPID := engine.Spawn(roomManagerProps)
	if roomManagerPID == nil {
		log.Fatal("failed to spawn room manager actor")
	}
	log.Infow("room manager spawned", "pid", roomManagerPID.String())

	srv := server.New(engine, roomManagerPID, cfg, log)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)

	router.Get("/", server.HandleHealthCheck())
	router.Get("/health-check/", server.HandleHealthCheck())
	router.Get("/rooms/", srv.HandleGetRooms())
	router.Get("/subscribe", srv.HandleSubscribe())
	router.Handle("/metrics", promhttp.Handler())

	port := os.Getenv("PORT")
	if port == "" {
		port = defaultPort
	}
	listenAddr := ":" + port

	httpServer := &http.Server{
		Addr:         listenAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // websocket connections stay open indefinitely
	}

	go func() {
		log.Infow("server starting", "addr", listenAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Errorw("server stopped unexpectedly", "error", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = httpServer.Shutdown(shutdownCtx)

	engine.Shutdown(5 * time.Second)
	log.Info("engine shutdown complete")
}
