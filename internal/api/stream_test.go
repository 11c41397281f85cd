package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"stopwatch/backend/internal/session"
)

func dialStream(t *testing.T, ts testServer) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(ts.router)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/stream"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", url, err)
	}
	if resp.StatusCode != http.StatusSwitchingProtocols {
		t.Fatalf("expected 101 got %d", resp.StatusCode)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) session.Event {
	t.Helper()
	if err := conn.SetReadDeadline(time.Now().Add(2 * time.Second)); err != nil {
		t.Fatalf("set deadline: %v", err)
	}
	var event session.Event
	if err := conn.ReadJSON(&event); err != nil {
		t.Fatalf("read event: %v", err)
	}
	return event
}

func waitForClients(t *testing.T, ts testServer, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for ts.server.notifier.Clients() != n {
		if time.Now().After(deadline) {
			t.Fatalf("expected %d stream clients got %d", n, ts.server.notifier.Clients())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestStreamSendsSnapshotWithoutHistory(t *testing.T) {
	ts := newTestServer(t)
	conn := dialStream(t, ts)

	event := readEvent(t, conn)
	if event.Type != session.EventState || event.State == nil {
		t.Fatalf("expected initial state event got %+v", event)
	}
	if event.State.Running || event.State.SessionID != ts.server.Session().ID() {
		t.Fatalf("unexpected initial snapshot %+v", event.State)
	}
}

func TestStreamReplaysLatestState(t *testing.T) {
	ts := newTestServer(t)
	if rec := ts.do(t, http.MethodPost, "/api/start", nil); rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	ts.clock.Advance(1500 * time.Millisecond)

	conn := dialStream(t, ts)
	event := readEvent(t, conn)
	if event.Type != session.EventState || event.Command != session.CommandStart {
		t.Fatalf("expected replayed start state got %+v", event)
	}
	if event.State == nil || !event.State.Running {
		t.Fatalf("expected running snapshot got %+v", event.State)
	}
}

func TestStreamBroadcastsCommandEvents(t *testing.T) {
	ts := newTestServer(t)
	ts.do(t, http.MethodPost, "/api/start", nil)

	conn := dialStream(t, ts)
	if replay := readEvent(t, conn); replay.Command != session.CommandStart {
		t.Fatalf("expected replayed start got %+v", replay)
	}
	waitForClients(t, ts, 1)

	ts.clock.Advance(3723450 * time.Millisecond)
	if rec := ts.do(t, http.MethodPost, "/api/pause", nil); rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}

	sound := readEvent(t, conn)
	if sound.Type != session.EventSound || sound.Sound != session.SoundClick || sound.Command != session.CommandPause {
		t.Fatalf("expected pause click got %+v", sound)
	}
	state := readEvent(t, conn)
	if state.Type != session.EventState || state.Command != session.CommandPause {
		t.Fatalf("expected pause state got %+v", state)
	}
	if state.State == nil || state.State.Running || state.ElapsedMs != 3723450 {
		t.Fatalf("unexpected paused snapshot %+v", state.State)
	}
	if state.State.Display.Hours != "1" || state.State.Display.Hundredths != "45" {
		t.Fatalf("unexpected display %+v", state.State.Display)
	}
}

func TestStreamClientDroppedOnDisconnect(t *testing.T) {
	ts := newTestServer(t)
	conn := dialStream(t, ts)
	readEvent(t, conn)
	waitForClients(t, ts, 1)

	_ = conn.Close()
	waitForClients(t, ts, 0)
}
