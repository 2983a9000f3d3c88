package transport

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/coder/websocket"
	"go.uber.org/zap"

	"github.com/EGORIUMAS/ZmeykaOnline/internal/protocol"
)

var ErrNotConnected = errors.New("not connected to server")
var ErrSessionClosed = errors.New("session closed")

// Session owns one logical connection to the game server. It dials on
// demand, pumps inbound frames into Events() in arrival order, and retries
// the dial a bounded number of times after a post-connect drop. Once the
// retry budget is spent the session stays disconnected until the next
// explicit Dial.
type Session struct {
	url               string
	reconnectDelay    time.Duration
	reconnectAttempts int
	log               *zap.Logger

	events chan protocol.Inbound

	mu        sync.Mutex
	conn      *websocket.Conn
	connected bool
	closed    bool
	sid       string
	pumpStop  context.CancelFunc
	pumpDone  sync.WaitGroup
}

func NewSession(url string, reconnectDelay time.Duration, reconnectAttempts int, log *zap.Logger) *Session {
	return &Session{
		url:               url,
		reconnectDelay:    reconnectDelay,
		reconnectAttempts: reconnectAttempts,
		log:               log,
		events:            make(chan protocol.Inbound, 64),
	}
}

// Events delivers decoded server events, one per frame, never reordered.
// The channel is closed only by Close.
func (s *Session) Events() <-chan protocol.Inbound { return s.events }

// Connected reports whether a live channel exists right now. A false answer
// may be transient: the pump might still be inside its reconnect window.
func (s *Session) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

// ID returns the server-assigned connection id from the welcome event, or
// "" before one arrives.
func (s *Session) ID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sid
}

// Dial opens the connection. Idempotent: a second Dial while connected
// returns nil without re-dialing. The first dial error is returned to the
// caller exactly once; errors after that point are handled by the internal
// reconnect loop and never surface here.
func (s *Session) Dial(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	if s.connected {
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	conn, err := s.dial(ctx)
	if err != nil {
		return fmt.Errorf("dial %s: %w", s.url, err)
	}

	pumpCtx, cancel := context.WithCancel(context.Background())

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		cancel()
		conn.Close(websocket.StatusNormalClosure, "closed during dial")
		return ErrSessionClosed
	}
	if s.pumpStop != nil {
		s.pumpStop()
	}
	s.conn = conn
	s.connected = true
	s.pumpStop = cancel
	s.mu.Unlock()

	s.log.Info("connected", zap.String("url", s.url))
	s.pumpDone.Add(1)
	go func() {
		defer s.pumpDone.Done()
		s.pump(pumpCtx, conn)
	}()
	return nil
}

func (s *Session) dial(ctx context.Context) (*websocket.Conn, error) {
	conn, _, err := websocket.Dial(ctx, s.url, nil)
	if err != nil {
		return nil, err
	}
	// State frames for crowded rooms are large.
	conn.SetReadLimit(1 << 20)
	return conn, nil
}

// Send serializes one outbound message onto the wire. Callers that can
// tolerate input loss (direction changes) are expected to drop the error.
func (s *Session) Send(ctx context.Context, msg protocol.Outbound) error {
	s.mu.Lock()
	conn, ok := s.conn, s.connected
	s.mu.Unlock()
	if !ok {
		return ErrNotConnected
	}

	frame, err := protocol.Encode(msg)
	if err != nil {
		return fmt.Errorf("encode %s: %w", msg.EventName(), err)
	}
	return conn.Write(ctx, websocket.MessageText, frame)
}

// Close tears the session down for good. No reconnection follows.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.connected = false
	conn := s.conn
	s.conn = nil
	if s.pumpStop != nil {
		s.pumpStop()
		s.pumpStop = nil
	}
	s.mu.Unlock()

	if conn != nil {
		conn.Close(websocket.StatusNormalClosure, "bye")
	}
	// The pump must be out before the events channel can close under it.
	s.pumpDone.Wait()
	close(s.events)
}

// pump reads frames until the connection drops, then runs the bounded
// reconnect loop. It exits when the session is closed or the retry budget
// is exhausted.
func (s *Session) pump(ctx context.Context, conn *websocket.Conn) {
	for {
		err := s.readLoop(ctx, conn)
		if ctx.Err() != nil {
			return
		}

		s.mu.Lock()
		s.connected = false
		s.conn = nil
		closed := s.closed
		s.mu.Unlock()
		if closed {
			return
		}

		switch websocket.CloseStatus(err) {
		case websocket.StatusNormalClosure, websocket.StatusGoingAway:
			s.log.Info("server closed connection")
		default:
			s.log.Warn("connection dropped", zap.Error(err))
		}

		conn = s.redial(ctx)
		if conn == nil {
			return
		}
	}
}

func (s *Session) readLoop(ctx context.Context, conn *websocket.Conn) error {
	for {
		_, frame, err := conn.Read(ctx)
		if err != nil {
			return err
		}

		evt, err := protocol.Decode(frame)
		if err != nil {
			// A frame we cannot decode is not fatal to the stream.
			s.log.Warn("dropping frame", zap.Error(err))
			continue
		}

		if w, ok := evt.(*protocol.Welcome); ok {
			s.mu.Lock()
			s.sid = w.SID
			s.mu.Unlock()
		}

		select {
		case s.events <- evt:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (s *Session) redial(ctx context.Context) *websocket.Conn {
	for attempt := 1; attempt <= s.reconnectAttempts; attempt++ {
		select {
		case <-time.After(s.reconnectDelay):
		case <-ctx.Done():
			return nil
		}

		conn, err := s.dial(ctx)
		if err != nil {
			s.log.Warn("reconnect failed",
				zap.Int("attempt", attempt),
				zap.Int("max", s.reconnectAttempts),
				zap.Error(err))
			continue
		}

		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			conn.Close(websocket.StatusNormalClosure, "closed during reconnect")
			return nil
		}
		s.conn = conn
		s.connected = true
		s.mu.Unlock()

		s.log.Info("reconnected", zap.Int("attempt", attempt))
		return conn
	}

	s.log.Error("reconnect attempts exhausted, staying disconnected")
	return nil
}
