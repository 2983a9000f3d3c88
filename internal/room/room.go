package room

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/EGORIUMAS/ZmeykaOnline/internal/protocol"
)

var ErrNotConnected = errors.New("not connected to server")
var ErrNotInRoom = errors.New("not in a room")
var ErrNotHost = errors.New("only the room creator can start the round")
var ErrJoinTimeout = errors.New("no join confirmation from server")

// JoinRejectedError carries the server-supplied reason from a join_failed.
type JoinRejectedError struct {
	Reason string
}

func (e *JoinRejectedError) Error() string {
	return fmt.Sprintf("join rejected: %s", e.Reason)
}

// Transport is the channel the session speaks through. *transport.Session
// satisfies it; tests substitute a fake.
type Transport interface {
	Send(ctx context.Context, msg protocol.Outbound) error
	Events() <-chan protocol.Inbound
	Connected() bool
	ID() string
}

// WinRecorder accumulates the local win tally across rounds.
type WinRecorder interface {
	AddWin(nickname string)
	MergeWins(server map[string]int)
}

const sendTimeout = 3 * time.Second

// Session translates wire events into room state and exposes the room
// lifecycle operations. All state is owned by a single goroutine; external
// calls are messages into its inbox, so no field ever needs a lock.
type Session struct {
	inbox    chan msg
	events   chan Event
	tp       Transport
	wins     WinRecorder
	joinWait time.Duration
	log      *zap.Logger

	// Everything below is touched only from loop().
	code      string
	members   []protocol.Member
	myPlayers []protocol.LocalPlayer
	isHost    bool
	inRoom    bool

	pendingJoin *joinWaiter
	joinGen     int
}

type joinWaiter struct {
	reply chan joinResult
}

type joinResult struct {
	code string
	err  error
}

// View is a race-free copy of the session state, for tests and the debug
// endpoint.
type View struct {
	Code      string
	InRoom    bool
	IsHost    bool
	Members   []protocol.Member
	MyPlayers []protocol.LocalPlayer
}

// --- inbox messages ---

type msg interface{ isRoomMsg() }

type createRoomMsg struct {
	code       string
	nickname   string
	deviceType string
	localCount int
	reply      chan joinResult
}

type startRoundMsg struct {
	reply chan error
}

type sendDirectionMsg struct {
	playerID string
	dir      protocol.Vec
}

type leaveMsg struct{}

type joinTimeoutMsg struct {
	gen int
}

type getViewMsg struct {
	reply chan View
}

func (createRoomMsg) isRoomMsg()    {}
func (startRoundMsg) isRoomMsg()    {}
func (sendDirectionMsg) isRoomMsg() {}
func (leaveMsg) isRoomMsg()         {}
func (joinTimeoutMsg) isRoomMsg()   {}
func (getViewMsg) isRoomMsg()       {}

func NewSession(ctx context.Context, tp Transport, wins WinRecorder, joinWait time.Duration, log *zap.Logger) *Session {
	s := &Session{
		inbox:    make(chan msg, 64),
		events:   make(chan Event, 64),
		tp:       tp,
		wins:     wins,
		joinWait: joinWait,
		log:      log,
	}
	go s.loop(ctx)
	return s
}

// Events delivers domain events in the order the underlying wire events
// arrived. The channel closes when the session's context is cancelled.
func (s *Session) Events() <-chan Event { return s.events }

// CreateRoom joins (or creates) a room and resolves once the server's joined
// event lands, or fails after the join window expires. Correlation is by
// timeout, not request id: a stray joined for another cause would resolve
// this call. The server does not echo request ids, so there is nothing
// better to correlate on.
func (s *Session) CreateRoom(ctx context.Context, code, nickname, deviceType string, localCount int) (string, error) {
	reply := make(chan joinResult, 1)
	select {
	case s.inbox <- createRoomMsg{code: code, nickname: nickname, deviceType: deviceType, localCount: localCount, reply: reply}:
	case <-ctx.Done():
		return "", ctx.Err()
	}

	select {
	case res := <-reply:
		return res.code, res.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// StartRound asks the server to start. Only the host may; the local state is
// not touched; the round_starting broadcast drives the transition.
func (s *Session) StartRound(ctx context.Context) error {
	reply := make(chan error, 1)
	select {
	case s.inbox <- startRoundMsg{reply: reply}:
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SendDirection forwards one direction intent. Silently dropped when there
// is no connection or no room: losing input during a disconnect is expected
// and must never crash the input path.
func (s *Session) SendDirection(playerID string, dir protocol.Vec) {
	select {
	case s.inbox <- sendDirectionMsg{playerID: playerID, dir: dir}:
	default:
		// Inbox full means we are already drowning in input; drop.
	}
}

// Leave forgets the current room. The connection itself is untouched.
func (s *Session) Leave() {
	s.inbox <- leaveMsg{}
}

// CurrentView snapshots the session state.
func (s *Session) CurrentView() View {
	reply := make(chan View, 1)
	s.inbox <- getViewMsg{reply: reply}
	return <-reply
}

func (s *Session) loop(ctx context.Context) {
	defer close(s.events)
	for {
		select {
		case <-ctx.Done():
			return

		case m := <-s.inbox:
			s.handleMsg(ctx, m)

		case evt, ok := <-s.tp.Events():
			if !ok {
				// Transport closed for good; room state dies with it.
				s.reset()
				return
			}
			s.handleInbound(ctx, evt)
		}
	}
}

func (s *Session) handleMsg(ctx context.Context, m msg) {
	switch m := m.(type) {
	case createRoomMsg:
		s.handleCreateRoom(ctx, m)

	case startRoundMsg:
		m.reply <- s.handleStartRound(ctx)

	case sendDirectionMsg:
		if !s.tp.Connected() || !s.inRoom {
			return
		}
		sctx, cancel := context.WithTimeout(ctx, sendTimeout)
		err := s.tp.Send(sctx, protocol.InputDir{Room: s.code, PlayerID: m.playerID, Dir: m.dir})
		cancel()
		if err != nil {
			s.log.Debug("direction dropped", zap.Error(err))
		}

	case leaveMsg:
		s.reset()

	case joinTimeoutMsg:
		// Stale fires carry an old generation; ignore them.
		if m.gen == s.joinGen && s.pendingJoin != nil {
			s.pendingJoin.reply <- joinResult{err: ErrJoinTimeout}
			s.pendingJoin = nil
		}

	case getViewMsg:
		m.reply <- View{
			Code:      s.code,
			InRoom:    s.inRoom,
			IsHost:    s.isHost,
			Members:   append([]protocol.Member(nil), s.members...),
			MyPlayers: append([]protocol.LocalPlayer(nil), s.myPlayers...),
		}
	}
}

func (s *Session) handleCreateRoom(ctx context.Context, m createRoomMsg) {
	if !s.tp.Connected() {
		m.reply <- joinResult{err: ErrNotConnected}
		return
	}

	code := strings.ToUpper(strings.TrimSpace(m.code))
	if code == "" {
		var err error
		code, err = GenerateCode()
		if err != nil {
			m.reply <- joinResult{err: fmt.Errorf("generate room code: %w", err)}
			return
		}
	}

	sctx, cancel := context.WithTimeout(ctx, sendTimeout)
	err := s.tp.Send(sctx, protocol.CreateRoom{
		Room:       code,
		Nickname:   m.nickname,
		DeviceType: m.deviceType,
		LocalCount: m.localCount,
	})
	cancel()
	if err != nil {
		m.reply <- joinResult{err: fmt.Errorf("send create_room: %w", err)}
		return
	}

	// Best-effort correlation: resolve on the next joined, give up after the
	// join window.
	if s.pendingJoin != nil {
		s.pendingJoin.reply <- joinResult{err: ErrJoinTimeout}
	}
	s.pendingJoin = &joinWaiter{reply: m.reply}
	s.joinGen++
	gen := s.joinGen
	time.AfterFunc(s.joinWait, func() {
		select {
		case s.inbox <- joinTimeoutMsg{gen: gen}:
		case <-ctx.Done():
		}
	})
}

func (s *Session) handleStartRound(ctx context.Context) error {
	if !s.tp.Connected() {
		return ErrNotConnected
	}
	if !s.inRoom {
		return ErrNotInRoom
	}
	if !s.isHost {
		return ErrNotHost
	}

	sctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()
	return s.tp.Send(sctx, protocol.StartRound{Room: s.code})
}

func (s *Session) handleInbound(ctx context.Context, evt protocol.Inbound) {
	switch evt := evt.(type) {
	case *protocol.Welcome:
		s.log.Info("session id assigned", zap.String("sid", evt.SID))

	case *protocol.Joined:
		s.code = strings.ToUpper(evt.Room)
		s.myPlayers = evt.Players
		s.isHost = evt.IsHost
		s.inRoom = true
		if s.pendingJoin != nil {
			s.pendingJoin.reply <- joinResult{code: s.code}
			s.pendingJoin = nil
		}
		s.emit(ctx, Joined{Room: s.code, MyPlayers: evt.Players, IsHost: evt.IsHost})

	case *protocol.JoinFailed:
		if s.pendingJoin != nil {
			s.pendingJoin.reply <- joinResult{err: &JoinRejectedError{Reason: evt.Reason}}
			s.pendingJoin = nil
		}
		s.emit(ctx, JoinFailed{Reason: evt.Reason})

	case *protocol.PlayersUpdate:
		if !s.inRoom {
			return
		}
		s.members = evt.Players
		// Host status is derived on every update, never asserted locally, so
		// a stale flag cannot survive a membership change.
		s.isHost = evt.HostSID != "" && evt.HostSID == s.tp.ID()
		s.emit(ctx, PlayersChanged{Players: evt.Players, IsHost: s.isHost})

	case *protocol.RoundStarting:
		s.emit(ctx, RoundStarting{})

	case *protocol.RoundStarted:
		s.log.Info("round started", zap.String("room", s.code))
		s.emit(ctx, RoundStarted{})

	case *protocol.State:
		s.emit(ctx, SnapshotReceived{State: evt})

	case *protocol.RoundEnd:
		if s.wins != nil {
			for _, w := range evt.Winners {
				s.wins.AddWin(w.Nickname)
			}
			if evt.Wins != nil {
				s.wins.MergeWins(evt.Wins)
			}
		}
		s.emit(ctx, RoundEnded{Scores: evt.Scores, Winners: evt.Winners, Wins: evt.Wins})

	case *protocol.Ate:
		s.emit(ctx, FoodEaten{PlayerID: evt.PlayerID, Pos: evt.Pos, Color: evt.Color})

	case *protocol.StrokeStart:
		s.emit(ctx, StrokeStarted{PlayerID: evt.PlayerID, Duration: time.Duration(evt.Duration * float64(time.Second))})

	case *protocol.StrokeEnd:
		s.emit(ctx, StrokeEnded{PlayerID: evt.PlayerID})

	case *protocol.ServerError:
		s.emit(ctx, ServerErrored{Message: evt.Message})
	}
}

func (s *Session) emit(ctx context.Context, e Event) {
	select {
	case s.events <- e:
	case <-ctx.Done():
	}
}

func (s *Session) reset() {
	s.code = ""
	s.members = nil
	s.myPlayers = nil
	s.isHost = false
	s.inRoom = false
}

// GenerateCode returns a fresh 6-character room code over the base-36
// uppercase alphabet.
func GenerateCode() (string, error) {
	const charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	code := make([]byte, 6)
	for i := 0; i < 6; i++ {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		code[i] = charset[num.Int64()]
	}
	return string(code), nil
}
