package transport

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"go.uber.org/zap"

	"github.com/EGORIUMAS/ZmeykaOnline/internal/protocol"
)

// testServer accepts one websocket client and runs script against it.
func testServer(t *testing.T, script func(ctx context.Context, conn *websocket.Conn)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")
		script(r.Context(), conn)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func send(ctx context.Context, conn *websocket.Conn, frame string) {
	_ = conn.Write(ctx, websocket.MessageText, []byte(frame))
}

func newTestSession(t *testing.T, url string) *Session {
	t.Helper()
	s := NewSession(url, 10*time.Millisecond, 2, zap.NewNop())
	t.Cleanup(s.Close)
	return s
}

func recvInbound(t *testing.T, ch <-chan protocol.Inbound, within time.Duration) protocol.Inbound {
	t.Helper()
	select {
	case evt, ok := <-ch:
		if !ok {
			t.Fatalf("events channel closed unexpectedly")
		}
		return evt
	case <-time.After(within):
		t.Fatalf("timed out waiting for inbound event")
		return nil // unreachable
	}
}

func TestDial_DeliversEventsInArrivalOrder(t *testing.T) {
	srv := testServer(t, func(ctx context.Context, conn *websocket.Conn) {
		send(ctx, conn, `{"event":"welcome","data":{"sid":"sid-42"}}`)
		send(ctx, conn, `{"event":"round_starting","data":{}}`)
		send(ctx, conn, `{"event":"ate","data":{"player_id":"p1","pos":{"x":1,"y":2},"color":"#FF6B35"}}`)
		time.Sleep(time.Second)
	})

	s := newTestSession(t, wsURL(srv))
	if err := s.Dial(context.Background()); err != nil {
		t.Fatalf("Dial: %v", err)
	}
	if !s.Connected() {
		t.Fatalf("Connected() = false after successful dial")
	}

	if _, ok := recvInbound(t, s.Events(), time.Second).(*protocol.Welcome); !ok {
		t.Fatalf("first event should be the welcome")
	}
	if _, ok := recvInbound(t, s.Events(), time.Second).(*protocol.RoundStarting); !ok {
		t.Fatalf("second event should be round_starting")
	}
	ate, ok := recvInbound(t, s.Events(), time.Second).(*protocol.Ate)
	if !ok || ate.Pos != (protocol.Vec{X: 1, Y: 2}) {
		t.Fatalf("third event should be the ate, got %#v", ate)
	}

	// The welcome frame is also where our connection id comes from.
	if s.ID() != "sid-42" {
		t.Fatalf("ID() = %q, want sid-42", s.ID())
	}
}

func TestDial_Idempotent(t *testing.T) {
	dials := make(chan struct{}, 4)
	srv := testServer(t, func(ctx context.Context, conn *websocket.Conn) {
		dials <- struct{}{}
		time.Sleep(time.Second)
	})

	s := newTestSession(t, wsURL(srv))
	if err := s.Dial(context.Background()); err != nil {
		t.Fatalf("first Dial: %v", err)
	}
	if err := s.Dial(context.Background()); err != nil {
		t.Fatalf("second Dial: %v", err)
	}

	<-dials
	select {
	case <-dials:
		t.Fatalf("second Dial re-dialed despite live connection")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestDial_ErrorSurfacesOnce(t *testing.T) {
	// A server that is not there: the dial error goes to the caller, no
	// internal retrying on an initial failure.
	s := newTestSession(t, "ws://127.0.0.1:1/ws")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.Dial(ctx); err == nil {
		t.Fatalf("Dial against a dead address should fail")
	}
	if s.Connected() {
		t.Fatalf("Connected() = true after failed dial")
	}
}

func TestSend_BeforeDial(t *testing.T) {
	s := newTestSession(t, "ws://127.0.0.1:1/ws")

	err := s.Send(context.Background(), protocol.InputDir{Room: "AB12CD", PlayerID: "p", Dir: protocol.Vec{X: 1}})
	if !errors.Is(err, ErrNotConnected) {
		t.Fatalf("want ErrNotConnected, got %v", err)
	}
}

func TestSend_ReachesTheServer(t *testing.T) {
	frames := make(chan []byte, 1)
	srv := testServer(t, func(ctx context.Context, conn *websocket.Conn) {
		_, frame, err := conn.Read(ctx)
		if err == nil {
			frames <- frame
		}
	})

	s := newTestSession(t, wsURL(srv))
	if err := s.Dial(context.Background()); err != nil {
		t.Fatalf("Dial: %v", err)
	}
	if err := s.Send(context.Background(), protocol.StartRound{Room: "AB12CD"}); err != nil {
		t.Fatalf("Send: %v", err)
	}

	select {
	case frame := <-frames:
		if string(frame) != `{"event":"start_round","data":{"room":"AB12CD"}}` {
			t.Fatalf("wire frame = %s", frame)
		}
	case <-time.After(time.Second):
		t.Fatalf("server never saw the frame")
	}
}

func TestUndecodableFrame_DoesNotKillTheStream(t *testing.T) {
	srv := testServer(t, func(ctx context.Context, conn *websocket.Conn) {
		send(ctx, conn, `{"event":"no_such_event","data":{}}`)
		send(ctx, conn, `{"event":"round_starting","data":{}}`)
		time.Sleep(time.Second)
	})

	s := newTestSession(t, wsURL(srv))
	if err := s.Dial(context.Background()); err != nil {
		t.Fatalf("Dial: %v", err)
	}

	// The unknown frame is dropped; the next one still arrives.
	if _, ok := recvInbound(t, s.Events(), time.Second).(*protocol.RoundStarting); !ok {
		t.Fatalf("stream did not survive an undecodable frame")
	}
}

func TestClose_StopsEventDelivery(t *testing.T) {
	srv := testServer(t, func(ctx context.Context, conn *websocket.Conn) {
		time.Sleep(time.Second)
	})

	s := NewSession(wsURL(srv), 10*time.Millisecond, 2, zap.NewNop())
	if err := s.Dial(context.Background()); err != nil {
		t.Fatalf("Dial: %v", err)
	}

	s.Close()
	if s.Connected() {
		t.Fatalf("Connected() = true after Close")
	}

	// Events() closes, so a Close'd session cannot wedge consumers.
	select {
	case _, ok := <-s.Events():
		if ok {
			t.Fatalf("got an event after Close")
		}
	case <-time.After(time.Second):
		t.Fatalf("events channel never closed")
	}

	// Closing twice is harmless.
	s.Close()
}

func TestDroppedConnection_Reconnects(t *testing.T) {
	accepts := make(chan struct{}, 4)
	first := true
	srv := testServer(t, func(ctx context.Context, conn *websocket.Conn) {
		accepts <- struct{}{}
		if first {
			first = false
			// Kill the first connection immediately to trigger the
			// reconnect path.
			conn.Close(websocket.StatusInternalError, "drop")
			return
		}
		send(ctx, conn, `{"event":"welcome","data":{"sid":"sid-2"}}`)
		time.Sleep(time.Second)
	})

	s := newTestSession(t, wsURL(srv))
	if err := s.Dial(context.Background()); err != nil {
		t.Fatalf("Dial: %v", err)
	}

	<-accepts // first, dropped
	select {
	case <-accepts: // reconnect happened
	case <-time.After(2 * time.Second):
		t.Fatalf("no reconnect attempt after drop")
	}

	// The stream keeps flowing on the new connection.
	if w, ok := recvInbound(t, s.Events(), 2*time.Second).(*protocol.Welcome); !ok || w.SID != "sid-2" {
		t.Fatalf("welcome from reconnected channel not delivered")
	}
}
