package main

import (
	"context"
	"sort"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"go.uber.org/zap"

	"github.com/EGORIUMAS/ZmeykaOnline/internal/client"
	"github.com/EGORIUMAS/ZmeykaOnline/internal/controls"
	"github.com/EGORIUMAS/ZmeykaOnline/internal/protocol"
)

// consoleUI is the minimal user-facing surface: lobby and round updates go
// to the terminal. It stands in for a real menu layer, which is outside the
// client core.
type consoleUI struct {
	log *zap.Logger
}

func newConsoleUI(log *zap.Logger) *consoleUI {
	return &consoleUI{log: log}
}

func (u *consoleUI) ShowLobby(roomCode string, isHost bool) {
	if isHost {
		u.log.Info("lobby ready, press space to start the round", zap.String("room", roomCode))
		return
	}
	u.log.Info("lobby ready, waiting for the host", zap.String("room", roomCode))
}

func (u *consoleUI) UpdatePlayerList(players []protocol.Member) {
	names := make([]string, 0, len(players))
	for _, p := range players {
		names = append(names, p.Nickname)
	}
	u.log.Info("players in room", zap.Strings("players", names))
}

func (u *consoleUI) UpdateHostStatus(isHost bool) {
	if isHost {
		u.log.Info("you are now the host")
	}
}

func (u *consoleUI) HideLobby() {}

func (u *consoleUI) ShowGame() {
	u.log.Info("round starting")
}

func (u *consoleUI) UpdateScores(players []protocol.PlayerState) {
	// Scores repeat on every snapshot; the terminal only needs the final
	// ones, which arrive via ShowGameOver.
}

func (u *consoleUI) ShowGameOver(scores map[string]protocol.ScoreEntry, winners []protocol.Winner) {
	type line struct {
		nickname string
		score    int
	}
	lines := make([]line, 0, len(scores))
	for _, s := range scores {
		lines = append(lines, line{nickname: s.Nickname, score: s.Score})
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].score > lines[j].score })

	for _, l := range lines {
		u.log.Info("final score", zap.String("player", l.nickname), zap.Int("score", l.score))
	}
	for _, w := range winners {
		u.log.Info("winner", zap.String("player", w.Nickname))
	}
}

func (u *consoleUI) ShowError(message string) {
	u.log.Warn(message)
}

func (u *consoleUI) ShowStrokeWarning(playerID string, duration time.Duration) {
	u.log.Warn("snake having a stroke, controls unresponsive",
		zap.String("player", playerID),
		zap.Duration("for", duration))
}

func (u *consoleUI) HideStrokeWarning(playerID string) {
	u.log.Info("stroke over", zap.String("player", playerID))
}

// lobbyControls layers the one lobby action (space starts the round) over
// the in-game keyboard adapter.
type lobbyControls struct {
	client   *client.Client
	keyboard *controls.Keyboard
	ctx      context.Context
}

func (l *lobbyControls) Poll() {
	if !l.client.IsRunning() && inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		go l.client.StartRound(l.ctx)
		return
	}
	l.keyboard.Poll()
}
