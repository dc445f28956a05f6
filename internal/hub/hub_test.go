package hub

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DoyleJ11/val-draft-backend/internal/engine"
	"github.com/DoyleJ11/val-draft-backend/internal/lobby"
	"github.com/DoyleJ11/val-draft-backend/internal/timer"
)

func recvUpdate(t *testing.T, ch <-chan Update, within time.Duration) Update {
	t.Helper()
	select {
	case u, ok := <-ch:
		if !ok {
			t.Fatalf("subscriber outbox closed unexpectedly")
		}
		return u
	case <-time.After(within):
		t.Fatalf("timed out waiting for update")
		return Update{}
	}
}

// recvUntil skips updates until match accepts one.
func recvUntil(t *testing.T, ch <-chan Update, match func(Update) bool) Update {
	t.Helper()
	deadline := time.After(time.Second)
	for {
		select {
		case u, ok := <-ch:
			require.True(t, ok, "subscriber outbox closed unexpectedly")
			if match(u) {
				return u
			}
		case <-deadline:
			t.Fatalf("timed out waiting for matching update")
			return Update{}
		}
	}
}

func newHub(t *testing.T) (*Hub, *lobby.Lobby, *timer.Timer) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	clock := timer.New(30, time.Hour, nil)
	lb := lobby.NewLobby(ctx, engine.NewEmptyState(), clock, nil)
	clock.Subscribe(lb.NotifyTimer)
	h := NewHub(ctx, lb, clock, nil, 16)
	return h, lb, clock
}

func TestHub_Subscribe_ReceivesLatestThenChanges(t *testing.T) {
	h, lb, _ := newHub(t)

	out := make(chan Update, 16)
	h.Inbox() <- Subscribe{ClientID: "overlay", Outbox: out}
	first := recvUpdate(t, out, 200*time.Millisecond)
	assert.Equal(t, FrameStateSnapshot, first.Frame.Type)
	assert.False(t, first.Frame.Tournament.EventStarted)

	_, err := lb.Submit(context.Background(), engine.Command{Type: engine.CmdStartEvent})
	require.NoError(t, err)

	started := recvUntil(t, out, func(u Update) bool { return u.Frame.Tournament.EventStarted })
	assert.Equal(t, 1, started.Frame.Version)
	require.NotNil(t, started.Frame.Tournament.CurrentPlayer)
	assert.Equal(t, "P1", *started.Frame.Tournament.CurrentPlayer)
	assert.Equal(t, "MAP_BAN", started.Player.Phase)
}

func TestHub_TimerChange_ReEmits(t *testing.T) {
	h, _, clock := newHub(t)

	out := make(chan Update, 16)
	h.Inbox() <- Subscribe{ClientID: "overlay", Outbox: out}
	_ = recvUpdate(t, out, 200*time.Millisecond)

	clock.Reset(7)

	u := recvUntil(t, out, func(u Update) bool { return u.Frame.Timer.Seconds == 7 })
	assert.Equal(t, "ready", u.Frame.Timer.Status)
	assert.Equal(t, 7, u.Player.Timer.Remaining)
}

func TestHub_Refresh_ReEmitsCurrentVersion(t *testing.T) {
	h, lb, _ := newHub(t)
	_, err := lb.Submit(context.Background(), engine.Command{Type: engine.CmdSetPlayerName, Player: engine.PlayerTwo, Name: "Fnatic"})
	require.NoError(t, err)

	out := make(chan Update, 16)
	h.Inbox() <- Subscribe{ClientID: "admin", Outbox: out}
	_ = recvUpdate(t, out, 200*time.Millisecond)

	h.Inbox() <- Refresh{}
	u := recvUntil(t, out, func(u Update) bool { return u.Frame.Tournament.TeamNames.P2 == "Fnatic" })
	assert.Equal(t, 1, u.Frame.Version)
}

func TestHub_Snapshot_BeforeStart(t *testing.T) {
	h, _, _ := newHub(t)

	u, err := h.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, u.Frame.Tournament.ActionNumber)
	assert.Nil(t, u.Frame.Tournament.CurrentPlayer)
	assert.Empty(t, u.Player.AvailableOptions)
}

func TestHub_DropSlowSubscriber(t *testing.T) {
	h, _, clock := newHub(t)

	slow := make(chan Update, 1)
	fast := make(chan Update, 16)
	h.Inbox() <- Subscribe{ClientID: "slow", Outbox: slow}
	h.Inbox() <- Subscribe{ClientID: "fast", Outbox: fast}

	clock.Reset(9)
	recvUntil(t, fast, func(u Update) bool { return u.Frame.Timer.Seconds == 9 })

	_, ok := <-slow
	assert.True(t, ok, "buffered update is still delivered")
	_, ok = <-slow
	assert.False(t, ok, "expected slow subscriber to be dropped")
}

func TestHub_Unsubscribe_ClosesOutbox(t *testing.T) {
	h, _, _ := newHub(t)

	out := make(chan Update, 4)
	h.Inbox() <- Subscribe{ClientID: "c", Outbox: out}
	_ = recvUpdate(t, out, 200*time.Millisecond)

	h.Inbox() <- Unsubscribe{ClientID: "c"}
	select {
	case _, ok := <-out:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("outbox not closed")
	}
}

func TestHub_LobbyShutdown_StopsHub(t *testing.T) {
	h, lb, _ := newHub(t)
	lb.Inbox() <- lobby.Shutdown{}

	select {
	case <-h.Done():
	case <-time.After(time.Second):
		t.Fatal("hub still running after lobby shutdown")
	}
}

func TestProject_NullsAndEmptyLists(t *testing.T) {
	raw, err := json.Marshal(Project(engine.NewEmptyState()))
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(raw, &got))

	for _, key := range []string{"currentPlayer", "phaseAdvancePending", "deciderMap", "pendingSelection", "lastError"} {
		v, ok := got[key]
		assert.True(t, ok, "missing key %s", key)
		assert.Nil(t, v, key)
	}
	for _, key := range []string{"mapsBanned", "mapsPicked", "agentsBanned", "revealedActions", "actionHistory"} {
		assert.Equal(t, []any{}, got[key], key)
	}
	assert.Equal(t, "MAP_PHASE", got["currentPhase"])
	assert.Equal(t, float64(1), got["actionNumber"])
	assert.Equal(t, "P1", got["firstPlayer"])
	assert.Equal(t, map[string]any{"P1": "Team 1", "P2": "Team 2"}, got["teamNames"])
	assert.Equal(t, map[string]any{"P1": nil, "P2": nil}, got["agentPicks"])
}

func TestProject_CopiesState(t *testing.T) {
	s := engine.SelectAsset(engine.StartEvent(engine.NewEmptyState()), "ascent")
	snap := Project(s)

	snap.MapsBanned[0].Name = "changed"
	snap.ActionHistory[0].Selection = "changed"

	assert.Equal(t, "ascent", s.MapsBanned[0].Name)
	assert.Equal(t, "ascent", s.ActionHistory[0].Selection)
	assert.Equal(t, []int{1}, snap.RevealedActions)
}

func TestPlayerView(t *testing.T) {
	clk := timer.Snapshot{Status: timer.StatusRunning, Seconds: 12}

	s := engine.StartEvent(engine.NewEmptyState())
	for _, sel := range []string{"ascent", "bind", "breeze", "abyss", "corrode", "fracture", "haven", "icebox"} {
		s = engine.AutoAdvanceTurn(engine.SelectAsset(s, sel))
	}

	v := PlayerView(s, clk)
	assert.Equal(t, "DECIDER", v.Phase)
	require.NotNil(t, v.CurrentAction)
	assert.Equal(t, "DECIDER", *v.CurrentAction)
	assert.Equal(t, 9, v.TurnNumber)
	assert.Equal(t, []string{"haven", "icebox"}, v.AvailableOptions)
	assert.Equal(t, "running", v.Timer.Status)
	assert.Equal(t, 12, v.Timer.Remaining)
	require.Len(t, v.History, 8)
	assert.Equal(t, "BAN", v.History[0].Action)
	assert.Equal(t, "PICK", v.History[7].Action)

	s = engine.AdvancePhase(engine.AutoAdvanceTurn(engine.SelectAsset(s, "haven")))
	v = PlayerView(s, clk)
	assert.Equal(t, "AGENT_BAN", v.Phase)
	assert.Equal(t, "BAN", *v.CurrentAction)
	assert.Len(t, v.AvailableOptions, len(engine.Agents))
	assert.Equal(t, "haven", *v.Maps.Decider)

	s.CurrentPhase = engine.PhaseConclusion
	s.CurrentPlayer = ""
	v = PlayerView(s, clk)
	assert.Equal(t, "CONCLUSION", v.Phase)
	assert.Nil(t, v.CurrentAction)
	assert.Nil(t, v.CurrentTurn)
	assert.Empty(t, v.AvailableOptions)
}

func TestHub_IgnoresOutOfOrderTimerChange(t *testing.T) {
	h, _, clock := newHub(t)

	out := make(chan Update, 16)
	h.Inbox() <- Subscribe{ClientID: "overlay", Outbox: out}
	_ = recvUpdate(t, out, 200*time.Millisecond)

	clock.Reset(7)
	_ = recvUntil(t, out, func(u Update) bool { return u.Frame.Timer.Seconds == 7 })
	current := clock.Snapshot()
	require.Positive(t, current.Seq)

	// A finished tick computed before the reset but delivered after it.
	h.Inbox() <- TimerChanged{Timer: timer.Snapshot{Status: timer.StatusFinished, Seq: current.Seq - 1}}

	u, err := h.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ready", u.Frame.Timer.Status)
	assert.Equal(t, 7, u.Frame.Timer.Seconds)
}
