package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"stopwatch/backend/internal/prefs"
	"stopwatch/backend/internal/util"
)

type testServer struct {
	server *Server
	router *gin.Engine
	clock  *util.ManualClock
}

func newTestServer(t *testing.T) testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	manager, err := prefs.Load(prefs.NewMemoryStore())
	if err != nil {
		t.Fatalf("load prefs: %v", err)
	}
	clock := util.NewManualClock(time.Date(2024, time.June, 1, 8, 0, 0, 0, time.UTC))
	server, err := NewServer(Config{Preferences: manager, Clock: clock, TickInterval: -1})
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	t.Cleanup(server.Close)
	router, err := server.Router()
	if err != nil {
		t.Fatalf("router: %v", err)
	}
	return testServer{server: server, router: router, clock: clock}
}

func (ts testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestStartPauseResume(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/start", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	ts.clock.Advance(3723450 * time.Millisecond)

	resp := decode[CommandResponse](t, ts.do(t, http.MethodPost, "/api/pause", nil))
	if !resp.Applied || resp.State.Running {
		t.Fatalf("expected applied pause got %+v", resp)
	}
	if resp.State.Display.Hours != "1" || resp.State.Display.Minutes != "02" ||
		resp.State.Display.Seconds != "03" || resp.State.Display.Hundredths != "45" {
		t.Fatalf("unexpected display %+v", resp.State.Display)
	}

	again := decode[CommandResponse](t, ts.do(t, http.MethodPost, "/api/pause", nil))
	if again.Applied {
		t.Fatalf("expected second pause to be a no-op")
	}

	ts.clock.Advance(time.Hour)
	ts.do(t, http.MethodPost, "/api/toggle", nil)
	ts.clock.Advance(550 * time.Millisecond)
	state := decode[CommandResponse](t, ts.do(t, http.MethodPost, "/api/toggle", nil)).State
	if state.ElapsedMs != 3724000 {
		t.Fatalf("expected 3724000 got %d", state.ElapsedMs)
	}
}

func TestLapLifecycle(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/laps", nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 while stopped got %d", rec.Code)
	}

	ts.do(t, http.MethodPost, "/api/start", nil)
	for _, step := range []time.Duration{100, 150, 230} {
		ts.clock.Advance(step * time.Millisecond)
		if rec := ts.do(t, http.MethodPost, "/api/laps", nil); rec.Code != http.StatusCreated {
			t.Fatalf("expected 201 got %d", rec.Code)
		}
	}

	list := decode[LapsResponse](t, ts.do(t, http.MethodGet, "/api/laps", nil))
	if list.Total != 3 {
		t.Fatalf("expected 3 laps got %d", list.Total)
	}
	if list.Fastest == nil || *list.Fastest != 2 {
		t.Fatalf("expected lap 2 fastest got %v", list.Fastest)
	}
	if list.Slowest == nil || *list.Slowest != 3 {
		t.Fatalf("expected lap 3 slowest got %v", list.Slowest)
	}

	rec = ts.do(t, http.MethodGet, "/api/laps/export.csv", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Disposition"); !strings.Contains(got, "stopwatch_laps.csv") {
		t.Fatalf("expected download filename got %q", got)
	}
	expected := "Lap Number,Lap Time,Difference\n" +
		"1,00:00:00.10,\n" +
		"2,00:00:00.25,+00:00:00.15\n" +
		"3,00:00:00.48,+00:00:00.23\n"
	if rec.Body.String() != expected {
		t.Fatalf("expected %q got %q", expected, rec.Body.String())
	}

	ts.do(t, http.MethodDelete, "/api/laps", nil)
	if rec := ts.do(t, http.MethodGet, "/api/laps/export.csv", nil); rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204 after clear got %d", rec.Code)
	}
	lap := decode[LapResponse](t, ts.do(t, http.MethodPost, "/api/laps", nil))
	if lap.Lap.Number != 1 {
		t.Fatalf("expected numbering to restart got %d", lap.Lap.Number)
	}
}

func TestResetFromRunning(t *testing.T) {
	ts := newTestServer(t)
	ts.do(t, http.MethodPost, "/api/start", nil)
	ts.clock.Advance(time.Minute)

	resp := decode[CommandResponse](t, ts.do(t, http.MethodPost, "/api/reset", nil))
	if resp.State.Running || resp.State.ElapsedMs != 0 {
		t.Fatalf("expected zeroed stopwatch got %+v", resp.State)
	}
}

func TestKeys(t *testing.T) {
	ts := newTestServer(t)

	resp := decode[CommandResponse](t, ts.do(t, http.MethodPost, "/api/keys", KeyRequest{Key: " "}))
	if resp.Command != "start" || !resp.State.Running {
		t.Fatalf("expected space to start got %+v", resp)
	}
	ts.clock.Advance(time.Second)
	ts.do(t, http.MethodPost, "/api/keys", KeyRequest{Key: "l"})

	rec := ts.do(t, http.MethodPost, "/api/keys", KeyRequest{Key: "E"})
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Fatalf("expected csv export got %q", ct)
	}

	if rec := ts.do(t, http.MethodPost, "/api/keys", KeyRequest{}); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty key got %d", rec.Code)
	}

	ignored := decode[CommandResponse](t, ts.do(t, http.MethodPost, "/api/keys", KeyRequest{Key: "z"}))
	if ignored.Applied || ignored.Command != "" {
		t.Fatalf("expected unknown key to be ignored got %+v", ignored)
	}
}

func TestPreferences(t *testing.T) {
	ts := newTestServer(t)

	got := decode[PreferencesResponse](t, ts.do(t, http.MethodGet, "/api/preferences", nil))
	if !got.Sound || got.Theme != prefs.DefaultTheme || got.ThemeClass != "green-theme" {
		t.Fatalf("expected defaults got %+v", got)
	}

	sound := false
	theme := "light"
	updated := decode[PreferencesResponse](t, ts.do(t, http.MethodPut, "/api/preferences", PreferencesRequest{Sound: &sound, Theme: &theme}))
	if updated.Sound || updated.Theme != "light" || updated.ThemeClass != "" {
		t.Fatalf("expected updated preferences got %+v", updated)
	}

	bad := "neon"
	if rec := ts.do(t, http.MethodPut, "/api/preferences", PreferencesRequest{Theme: &bad}); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown theme got %d", rec.Code)
	}
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, http.MethodGet, "/api/healthz", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	body := decode[map[string]any](t, rec)
	if body["session"] != ts.server.Session().ID() {
		t.Fatalf("expected session id in health payload got %v", body["session"])
	}
}
