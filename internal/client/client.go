package client

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/EGORIUMAS/ZmeykaOnline/internal/protocol"
	"github.com/EGORIUMAS/ZmeykaOnline/internal/render"
	"github.com/EGORIUMAS/ZmeykaOnline/internal/room"
	"github.com/EGORIUMAS/ZmeykaOnline/internal/storage"
)

// UI is the surface the client talks to. The real implementation lives with
// the application shell; tests use a recording fake.
type UI interface {
	ShowLobby(roomCode string, isHost bool)
	UpdatePlayerList(players []protocol.Member)
	UpdateHostStatus(isHost bool)
	HideLobby()
	ShowGame()
	UpdateScores(players []protocol.PlayerState)
	ShowGameOver(scores map[string]protocol.ScoreEntry, winners []protocol.Winner)
	ShowError(message string)
	ShowStrokeWarning(playerID string, duration time.Duration)
	HideStrokeWarning(playerID string)
}

// Connector is the dial/teardown half of the transport session.
type Connector interface {
	Dial(ctx context.Context) error
	Close()
}

// Preferences is the slice of storage the facade needs.
type Preferences interface {
	SavePlayerSettings(p storage.PlayerSettings)
	LoadPlayerSettings() storage.PlayerSettings
	Wins() map[string]int
}

// Client is the one component the outside world (UI, controls) talks to. It
// forwards snapshots and eat events into the renderer, membership and round
// events into the UI, and input intents down to the room session.
type Client struct {
	conn       Connector
	session    *room.Session
	scene      *render.Scene
	prefs      Preferences
	ui         UI
	deviceType string
	log        *zap.Logger

	mu        sync.Mutex
	myPlayers []protocol.LocalPlayer
}

func New(conn Connector, session *room.Session, scene *render.Scene, prefs Preferences, ui UI, deviceType string, log *zap.Logger) *Client {
	return &Client{
		conn:       conn,
		session:    session,
		scene:      scene,
		prefs:      prefs,
		ui:         ui,
		deviceType: deviceType,
		log:        log,
	}
}

// Connect establishes the server connection. Idempotent via the transport.
func (c *Client) Connect(ctx context.Context) error {
	return c.conn.Dial(ctx)
}

// Disconnect leaves the room and tears the connection down.
func (c *Client) Disconnect() {
	c.session.Leave()
	c.conn.Close()
}

// JoinRoom persists the player's settings and joins (or creates) a room.
// Errors also reach the UI so the join screen can show them.
func (c *Client) JoinRoom(ctx context.Context, nickname, roomCode string, localCount int) (string, error) {
	settings := c.prefs.LoadPlayerSettings()
	settings.Nickname = nickname
	settings.Room = roomCode
	c.prefs.SavePlayerSettings(settings)

	code, err := c.session.CreateRoom(ctx, roomCode, nickname, c.deviceType, localCount)
	if err != nil {
		c.showJoinError(err)
		return "", err
	}
	return code, nil
}

func (c *Client) showJoinError(err error) {
	var rejected *room.JoinRejectedError
	switch {
	case errors.As(err, &rejected):
		c.ui.ShowError(rejected.Reason)
	case errors.Is(err, room.ErrJoinTimeout):
		c.ui.ShowError("Could not join the room")
	case errors.Is(err, room.ErrNotConnected):
		c.ui.ShowError("Not connected to server")
	default:
		c.ui.ShowError("Could not join the room")
	}
}

// StartRound forwards the host's start request. A non-host gets a message,
// not a crash, and local state stays put either way.
func (c *Client) StartRound(ctx context.Context) {
	if err := c.session.StartRound(ctx); err != nil {
		c.ui.ShowError(err.Error())
	}
}

// ChangeDirection is the controls entry point: local player index in, wire
// intent out. Out-of-range indexes and disconnected states are silently
// ignored: input loss is expected, never fatal.
func (c *Client) ChangeDirection(localIndex int, dir protocol.Vec) {
	c.mu.Lock()
	var playerID string
	if localIndex >= 0 && localIndex < len(c.myPlayers) {
		playerID = c.myPlayers[localIndex].ID
	}
	c.mu.Unlock()

	if playerID == "" {
		return
	}
	c.session.SendDirection(playerID, dir)
}

// IsRunning reports whether the render loop is live, which is also the gate
// for input sampling.
func (c *Client) IsRunning() bool { return c.scene.IsRunning() }

// HumanCount is the number of locally controlled players.
func (c *Client) HumanCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.myPlayers)
}

// PlayerControl names the control scheme for local player i.
func (c *Client) PlayerControl(i int) string {
	schemes := [...]string{"keyboard1", "keyboard2", "keyboard3", "keyboard4"}
	if i >= 0 && i < len(schemes) {
		return schemes[i]
	}
	return schemes[0]
}

// Wins exposes the persisted win tally for the scoreboard.
func (c *Client) Wins() map[string]int { return c.prefs.Wins() }

// Run fans room events out to the renderer and the UI until the event
// channel closes. Call it from its own goroutine; every handler is
// non-blocking so the session's event pump is never held up.
func (c *Client) Run() {
	for evt := range c.session.Events() {
		c.handle(evt)
	}
	c.log.Info("room session closed")
}

func (c *Client) handle(evt room.Event) {
	switch evt := evt.(type) {
	case room.Joined:
		c.mu.Lock()
		c.myPlayers = evt.MyPlayers
		c.mu.Unlock()
		c.ui.ShowLobby(evt.Room, evt.IsHost)

	case room.JoinFailed:
		c.ui.ShowError(evt.Reason)

	case room.PlayersChanged:
		c.scene.UpdateFieldSize(len(evt.Players))
		c.ui.UpdatePlayerList(evt.Players)
		c.ui.UpdateHostStatus(evt.IsHost)

	case room.RoundStarting:
		c.ui.HideLobby()
		c.ui.ShowGame()
		c.scene.Start()

	case room.RoundStarted:
		c.log.Debug("round running")

	case room.SnapshotReceived:
		c.scene.UpdateState(evt.State)
		c.ui.UpdateScores(evt.State.Players)

	case room.RoundEnded:
		c.scene.Stop()
		c.ui.ShowGameOver(evt.Scores, evt.Winners)

	case room.FoodEaten:
		c.scene.SpawnBurst(evt.Pos.X, evt.Pos.Y, evt.Color)

	case room.StrokeStarted:
		c.ui.ShowStrokeWarning(evt.PlayerID, evt.Duration)

	case room.StrokeEnded:
		c.ui.HideStrokeWarning(evt.PlayerID)

	case room.ServerErrored:
		c.ui.ShowError(evt.Message)
	}
}
