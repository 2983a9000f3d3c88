package room

import (
	"time"

	"github.com/EGORIUMAS/ZmeykaOnline/internal/protocol"
)

// Event is the closed set of domain events the session raises. The facade
// fans them out to the renderer, the UI and storage.
type Event interface{ isRoomEvent() }

type Joined struct {
	Room      string
	MyPlayers []protocol.LocalPlayer
	IsHost    bool
}

type JoinFailed struct {
	Reason string
}

type PlayersChanged struct {
	Players []protocol.Member
	IsHost  bool
}

type RoundStarting struct{}

type RoundStarted struct{}

type SnapshotReceived struct {
	State *protocol.State
}

type RoundEnded struct {
	Scores  map[string]protocol.ScoreEntry
	Winners []protocol.Winner
	Wins    map[string]int
}

type FoodEaten struct {
	PlayerID string
	Pos      protocol.Vec
	Color    string
}

type StrokeStarted struct {
	PlayerID string
	Duration time.Duration
}

type StrokeEnded struct {
	PlayerID string
}

type ServerErrored struct {
	Message string
}

func (Joined) isRoomEvent()           {}
func (JoinFailed) isRoomEvent()       {}
func (PlayersChanged) isRoomEvent()   {}
func (RoundStarting) isRoomEvent()    {}
func (RoundStarted) isRoomEvent()     {}
func (SnapshotReceived) isRoomEvent() {}
func (RoundEnded) isRoomEvent()       {}
func (FoodEaten) isRoomEvent()        {}
func (StrokeStarted) isRoomEvent()    {}
func (StrokeEnded) isRoomEvent()      {}
func (ServerErrored) isRoomEvent()    {}
