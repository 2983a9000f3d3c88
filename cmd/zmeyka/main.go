package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/EGORIUMAS/ZmeykaOnline/internal/client"
	"github.com/EGORIUMAS/ZmeykaOnline/internal/config"
	"github.com/EGORIUMAS/ZmeykaOnline/internal/controls"
	"github.com/EGORIUMAS/ZmeykaOnline/internal/httpapi"
	"github.com/EGORIUMAS/ZmeykaOnline/internal/render"
	"github.com/EGORIUMAS/ZmeykaOnline/internal/room"
	"github.com/EGORIUMAS/ZmeykaOnline/internal/storage"
	"github.com/EGORIUMAS/ZmeykaOnline/internal/transport"
)

func main() {
	nickname := flag.String("name", "", "player nickname (defaults to the saved one)")
	roomCode := flag.String("room", "", "room code to join (empty generates a new one)")
	localCount := flag.Int("players", 1, "local players on this keyboard (1-4)")
	flag.Parse()

	if err := run(*nickname, *roomCode, *localCount); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run is the composition root: every component is built here and handed its
// collaborators explicitly. Nothing reaches for a global.
func run(nickname, roomCode string, localCount int) error {
	_ = godotenv.Load()
	cfg := config.Load()

	log, err := zap.NewDevelopment()
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer log.Sync()

	sessionID := uuid.NewString()
	log = log.With(zap.String("session", sessionID))

	store, err := storage.Open(cfg.DataPath, log.Named("storage"))
	if err != nil {
		return err
	}

	if nickname == "" {
		nickname = store.LoadPlayerSettings().Nickname
	}
	if localCount < 1 {
		localCount = 1
	}
	if localCount > config.MaxLocalPlayers {
		localCount = config.MaxLocalPlayers
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tp := transport.NewSession(cfg.ServerURL, cfg.ReconnectDelay, cfg.ReconnectAttempts, log.Named("transport"))
	session := room.NewSession(ctx, tp, store, cfg.JoinTimeout, log.Named("room"))

	scene := render.NewScene()
	ui := newConsoleUI(log.Named("ui"))
	gameClient := client.New(tp, session, scene, store, ui, cfg.DeviceType, log.Named("client"))
	go gameClient.Run()

	keyboard := controls.NewKeyboard(gameClient)
	renderer := render.NewRenderer(scene, &lobbyControls{client: gameClient, keyboard: keyboard, ctx: ctx}, log.Named("render"))

	g, gctx := errgroup.WithContext(ctx)

	debugSrv := &http.Server{
		Addr:    cfg.DebugAddr,
		Handler: httpapi.SetupRoutes(sessionID, tp, session),
	}
	g.Go(func() error {
		log.Info("debug endpoint listening", zap.String("addr", cfg.DebugAddr))
		if err := debugSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer shutdownCancel()
		return debugSrv.Shutdown(shutdownCtx)
	})

	// Connect and join off the render thread; the window comes up while the
	// handshake runs.
	go func() {
		if err := gameClient.Connect(ctx); err != nil {
			log.Error("connect failed", zap.Error(err))
			ui.ShowError("Could not reach the server. Check your connection.")
			return
		}
		code, err := gameClient.JoinRoom(ctx, nickname, roomCode, localCount)
		if err != nil {
			log.Error("join failed", zap.Error(err))
			return
		}
		log.Info("joined room", zap.String("room", code))
	}()

	// Ebiten owns the main thread until the window closes.
	runErr := renderer.Run()

	gameClient.Disconnect()
	cancel()
	if err := g.Wait(); err != nil {
		log.Warn("shutdown", zap.Error(err))
	}
	return runErr
}
