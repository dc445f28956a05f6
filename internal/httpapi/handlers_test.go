package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DoyleJ11/val-draft-backend/internal/engine"
	"github.com/DoyleJ11/val-draft-backend/internal/hub"
	"github.com/DoyleJ11/val-draft-backend/internal/lobby"
	"github.com/DoyleJ11/val-draft-backend/internal/seats"
	"github.com/DoyleJ11/val-draft-backend/internal/timer"
	"github.com/DoyleJ11/val-draft-backend/pkg/types"
)

type fixture struct {
	handler http.Handler
	lobby   *lobby.Lobby
	clock   *timer.Timer
	seats   *seats.Manager
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	clock := timer.New(30, time.Hour, nil)
	lb := lobby.NewLobby(ctx, engine.NewEmptyState(), clock, nil)
	clock.Subscribe(lb.NotifyTimer)
	h := hub.NewHub(ctx, lb, clock, nil, 16)
	sm := seats.NewManager()

	return &fixture{
		handler: SetupRoutes(Deps{Lobby: lb, Hub: h, Seats: sm}),
		lobby:   lb,
		clock:   clock,
		seats:   sm,
	}
}

func (f *fixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func TestHealthz(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestPostCommand(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantError  string
	}{
		{name: "bad json", body: "{", wantStatus: http.StatusBadRequest, wantError: "bad json"},
		{name: "unknown", body: `{"type":"Explode"}`, wantStatus: http.StatusBadRequest, wantError: "unknown command type"},
		{name: "rejected before start", body: `{"type":"SelectAsset","asset":"ascent"}`, wantStatus: http.StatusOK, wantError: engine.MsgEventNotStarted},
		{name: "start", body: `{"type":"StartEvent"}`, wantStatus: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(t, http.MethodPost, "/admin/commands", tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code)
			res := decode[commandResponse](t, rec)
			assert.Equal(t, tt.wantError, res.Error)
		})
	}

	v, err := f.lobby.Current(context.Background())
	require.NoError(t, err)
	assert.True(t, v.State.EventStarted)
}

func TestPostSelect_GatedByTimer(t *testing.T) {
	f := newFixture(t)
	f.do(t, http.MethodPost, "/admin/commands", `{"type":"StartEvent"}`)

	rec := f.do(t, http.MethodPost, "/admin/select", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodPost, "/admin/select", `{"asset":"ascent"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, engine.MsgStartTimerFirst, decode[commandResponse](t, rec).Error)

	rec = f.do(t, http.MethodPost, "/admin/timer/start", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[commandResponse](t, rec).Error)

	rec = f.do(t, http.MethodPost, "/admin/select", `{"asset":"ascent"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[commandResponse](t, rec).Error)

	v, err := f.lobby.Current(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ascent", v.State.PendingSelection)
}

func TestPostTimer(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/admin/timer/rewind", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(t, http.MethodPost, "/admin/timer/start", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, engine.MsgEventNotStarted, decode[commandResponse](t, rec).Error)

	f.do(t, http.MethodPost, "/admin/commands", `{"type":"StartEvent"}`)
	rec = f.do(t, http.MethodPost, "/admin/timer/reset", `{"seconds":12}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 12, f.clock.Snapshot().Seconds)
}

func TestGetSnapshot(t *testing.T) {
	f := newFixture(t)
	f.do(t, http.MethodPost, "/admin/commands", `{"type":"StartEvent"}`)

	assert.Eventually(t, func() bool {
		rec := f.do(t, http.MethodGet, "/snapshot", "")
		if rec.Code != http.StatusOK {
			return false
		}
		return decode[types.Frame](t, rec).Tournament.EventStarted
	}, time.Second, 5*time.Millisecond)

	rec := f.do(t, http.MethodGet, "/snapshot", "")
	frame := decode[types.Frame](t, rec)
	assert.Equal(t, "StateSnapshot", frame.Type)
	assert.Equal(t, 1, frame.Tournament.ActionNumber)
	assert.NotNil(t, frame.Tournament.MapsBanned)
	assert.Empty(t, frame.Tournament.MapsBanned)

	rec = f.do(t, http.MethodGet, "/snapshot/player", "")
	require.Equal(t, http.StatusOK, rec.Code)
	view := decode[types.PlayerView](t, rec)
	assert.Equal(t, "MAP_BAN", view.Phase)
	require.NotNil(t, view.CurrentAction)
	assert.Equal(t, "BAN", *view.CurrentAction)
	assert.Len(t, view.AvailableOptions, len(engine.Maps))
}

func TestGetSeats_Empty(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/seats", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestGetSeat(t *testing.T) {
	f := newFixture(t)
	_, err := f.seats.Add("alice", "client-1")
	require.NoError(t, err)

	tests := []struct {
		path       string
		wantStatus int
		wantName   string
	}{
		{path: "/seats/P1", wantStatus: http.StatusOK, wantName: "alice"},
		{path: "/seats/P2", wantStatus: http.StatusNotFound},
		{path: "/seats/P3", wantStatus: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := f.do(t, http.MethodGet, tt.path, "")
			require.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantName != "" {
				got := decode[seatResponse](t, rec)
				assert.Equal(t, "P1", got.Player)
				assert.Equal(t, tt.wantName, got.Name)
			}
		})
	}
}
