package lobby

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/DoyleJ11/val-draft-backend/internal/engine"
	"github.com/DoyleJ11/val-draft-backend/internal/timer"
)

var ErrClosed = errors.New("lobby closed")

const MsgTurnMoved = "The turn has moved on. Try again."

// Clock is the countdown the lobby gates selections on.
type Clock interface {
	Snapshot() timer.Snapshot
	Start() (timer.Snapshot, error)
	Pause() (timer.Snapshot, error)
	Reset(seconds int) timer.Snapshot
}

type Msg interface{ isLobbyMsg() }

// FromAdmin applies an engine command as is, without timer gating.
type FromAdmin struct {
	Cmd   engine.Command
	Reply chan Result // optional, buffered
}

func (FromAdmin) isLobbyMsg() {}

// Attempt is a gated selection: committed now if the timer has finished,
// otherwise held as the pending selection until it does.
type Attempt struct {
	Asset     string
	ForAction int // when set, must still be the current action
	Reply     chan Result
}

func (Attempt) isLobbyMsg() {}

type TimerOp string

const (
	TimerStart TimerOp = "start"
	TimerPause TimerOp = "pause"
	TimerReset TimerOp = "reset"
)

type TimerControl struct {
	Op      TimerOp
	Seconds int // reset only; <= 0 means the clock default
	Reply   chan Result
}

func (TimerControl) isLobbyMsg() {}

// TimerChanged carries a clock notification into the loop.
type TimerChanged struct {
	Timer timer.Snapshot
}

func (TimerChanged) isLobbyMsg() {}

type Join struct {
	ClientID string
	Outbox   chan Snapshot // where this client wants to receive snapshots
}

func (Join) isLobbyMsg() {}

type Leave struct{ ClientID string }

func (Leave) isLobbyMsg() {}

type Shutdown struct{}

func (Shutdown) isLobbyMsg() {}

type GetState struct {
	Reply chan View
}

func (GetState) isLobbyMsg() {}

type Snapshot struct {
	Version int
	State   engine.State
}

type View struct {
	Version    int
	NumClients int
	State      engine.State
	Timer      timer.Snapshot
}

// Result answers FromAdmin, Attempt and TimerControl. Rejections show up in
// State.LastError; Err is only set for commands the engine does not know.
type Result struct {
	Version int
	State   engine.State
	Err     error
}

type taskKind int

const (
	taskCommitPending taskKind = iota
	taskAutoAdvance
)

type task struct {
	kind      taskKind
	forAction int
	gen       int
}

type Lobby struct {
	inbox   chan Msg
	state   engine.State
	version int
	clients map[string]chan Snapshot
	clock   Clock
	logger  *zap.Logger
	ctx     context.Context
	cancel  context.CancelFunc

	// tasks run after the message that queued them, before the next one.
	tasks []task
	// advanceGen invalidates every auto-advance queued before it changed.
	advanceGen int
	// advancedFor is the action the last auto-advance ran for.
	advancedFor int
}

func NewLobby(parent context.Context, initial engine.State, clock Clock, logger *zap.Logger) *Lobby {
	ctx, cancel := context.WithCancel(parent)
	if logger == nil {
		logger = zap.NewNop()
	}

	l := &Lobby{
		inbox:   make(chan Msg, 64),
		state:   initial,
		clients: make(map[string]chan Snapshot),
		clock:   clock,
		logger:  logger,
		ctx:     ctx,
		cancel:  cancel,
	}

	go l.loop()
	return l
}

// Expose the inbox so the hub and transports can send messages.
func (l *Lobby) Inbox() chan<- Msg { return l.inbox }

// Done is closed once the lobby has shut down.
func (l *Lobby) Done() <-chan struct{} { return l.ctx.Done() }

// NotifyTimer forwards a clock change into the loop. It never blocks, so it
// is safe to call from a clock subscriber while the loop itself is driving
// the clock.
func (l *Lobby) NotifyTimer(s timer.Snapshot) {
	msg := TimerChanged{Timer: s}
	select {
	case l.inbox <- msg:
	default:
		go func() {
			select {
			case l.inbox <- msg:
			case <-l.ctx.Done():
			}
		}()
	}
}

func (l *Lobby) loop() {
	for {
		select {
		case <-l.ctx.Done():
			l.shutdown()
			return

		case m := <-l.inbox:
			switch msg := m.(type) {
			case Join:
				// Register client + send current snapshot immediately
				l.clients[msg.ClientID] = msg.Outbox
				select {
				case msg.Outbox <- Snapshot{Version: l.version, State: l.state}:
				default:
					close(msg.Outbox)
					delete(l.clients, msg.ClientID)
				}

			case Leave:
				delete(l.clients, msg.ClientID)

			case FromAdmin:
				err := l.handleAdmin(msg.Cmd)
				l.runTasks()
				reply(msg.Reply, Result{Version: l.version, State: l.state, Err: err})

			case Attempt:
				l.handleAttempt(msg.Asset, msg.ForAction)
				l.runTasks()
				reply(msg.Reply, Result{Version: l.version, State: l.state})

			case TimerControl:
				l.handleTimerControl(msg.Op, msg.Seconds)
				l.runTasks()
				reply(msg.Reply, Result{Version: l.version, State: l.state})

			case TimerChanged:
				if msg.Timer.Status == timer.StatusFinished {
					l.enqueue(task{kind: taskCommitPending})
				}
				l.runTasks()

			case GetState:
				msg.Reply <- View{
					Version:    l.version,
					NumClients: len(l.clients),
					State:      l.state,
					Timer:      l.clock.Snapshot(),
				}

			case Shutdown:
				l.shutdown()
				return
			}
		}
	}
}

func (l *Lobby) handleAdmin(cmd engine.Command) error {
	next, err := engine.Apply(l.state, cmd)
	if err != nil {
		l.logger.Warn("admin command rejected", zap.String("type", string(cmd.Type)), zap.Error(err))
		return err
	}
	l.commit(next)

	switch cmd.Type {
	case engine.CmdStartEvent, engine.CmdResetTournament, engine.CmdAdvancePhase,
		engine.CmdResetTurn, engine.CmdAutoAdvance:
		// A new or replayed turn gets a fresh countdown.
		l.advanceGen++
		l.clock.Reset(0)
	}
	if !l.state.RevealedActions.Has(l.advancedFor) {
		l.advancedFor = 0
	}
	return nil
}

func (l *Lobby) handleAttempt(asset string, forAction int) {
	s := l.state
	if forAction != 0 && forAction != s.ActionNumber {
		l.reject(MsgTurnMoved)
		return
	}
	if s.PhaseAdvancePending != "" {
		l.reject(engine.MsgPhaseAdvance)
		return
	}
	if !s.EventStarted {
		l.reject(engine.MsgEventNotStarted)
		return
	}

	clk := l.clock.Snapshot()
	if clk.Status == timer.StatusReady {
		l.reject(engine.MsgStartTimerFirst)
		return
	}
	if ok, reason := engine.CanAttemptSelection(s); !ok {
		l.reject(reason)
		return
	}
	if ok, reason := engine.CanSelectAsset(s, asset); !ok {
		l.reject(reason)
		return
	}

	if clk.Status == timer.StatusFinished {
		l.commit(engine.SelectAsset(s, asset))
		l.scheduleAdvance()
		return
	}
	l.logger.Debug("selection pending", zap.String("asset", asset), zap.Int("action", s.ActionNumber))
	l.commit(engine.SetPendingSelection(s, asset))
}

func (l *Lobby) handleTimerControl(op TimerOp, seconds int) {
	if !l.state.EventStarted {
		l.reject(engine.MsgEventNotStarted)
		return
	}

	var err error
	switch op {
	case TimerStart:
		_, err = l.clock.Start()
	case TimerPause:
		_, err = l.clock.Pause()
	case TimerReset:
		l.clock.Reset(seconds)
	default:
		l.reject("Unknown timer operation " + string(op) + ".")
		return
	}
	if err != nil {
		l.reject(err.Error())
		return
	}
	if l.state.LastError != "" {
		l.commit(engine.SetError(l.state, ""))
	}
}

// commitPending runs after the clock reports finished. The clock is asked
// again because a reset may have landed in between.
func (l *Lobby) commitPending() {
	if l.clock.Snapshot().Status != timer.StatusFinished {
		return
	}

	if asset := l.state.PendingSelection; asset != "" {
		next := engine.SelectAsset(l.state, asset)
		if next.LastError != "" {
			// Drop the stale selection so the turn can be retried.
			l.logger.Info("pending selection rejected",
				zap.String("asset", asset), zap.String("reason", next.LastError))
			next = engine.SetError(engine.SetPendingSelection(next, ""), next.LastError)
		}
		l.commit(next)
	}
	l.scheduleAdvance()
}

func (l *Lobby) scheduleAdvance() {
	if !l.state.RevealedActions.Has(l.state.ActionNumber) {
		return
	}
	l.advanceGen++
	l.enqueue(task{kind: taskAutoAdvance, forAction: l.state.ActionNumber, gen: l.advanceGen})
}

func (l *Lobby) autoAdvance(t task) {
	s := l.state
	if t.gen != l.advanceGen || t.forAction != s.ActionNumber ||
		!s.RevealedActions.Has(t.forAction) || l.advancedFor == t.forAction {
		l.logger.Debug("stale auto-advance dropped", zap.Int("for_action", t.forAction), zap.Int("action", s.ActionNumber))
		return
	}

	l.advancedFor = t.forAction
	l.commit(engine.AutoAdvanceTurn(s))
	l.clock.Reset(0)
	l.logger.Info("turn advanced",
		zap.Int("from_action", t.forAction),
		zap.Int("action", l.state.ActionNumber),
		zap.String("phase_advance_pending", string(l.state.PhaseAdvancePending)))
}

func (l *Lobby) enqueue(t task) {
	l.tasks = append(l.tasks, t)
}

// runTasks drains the queue, including tasks queued while draining.
func (l *Lobby) runTasks() {
	for len(l.tasks) > 0 {
		t := l.tasks[0]
		l.tasks = l.tasks[1:]

		switch t.kind {
		case taskCommitPending:
			l.commitPending()
		case taskAutoAdvance:
			l.autoAdvance(t)
		}
	}
	l.tasks = nil
}

func (l *Lobby) reject(msg string) {
	l.logger.Info("selection rejected", zap.String("reason", msg), zap.Int("action", l.state.ActionNumber))
	l.commit(engine.SetError(l.state, msg))
}

func (l *Lobby) commit(next engine.State) {
	l.state = next
	l.version++
	l.broadcast(Snapshot{Version: l.version, State: l.state})
}

// shutdown cancels first so a client that sees its outbox close can tell a
// shutdown from being dropped.
func (l *Lobby) shutdown() {
	l.cancel()
	for id, ch := range l.clients {
		close(ch) // Tell client no more snapshots
		delete(l.clients, id)
	}
}

func (l *Lobby) broadcast(snap Snapshot) {
	for id, ch := range l.clients {
		select {
		case ch <- snap:
			//ok
		default:
			// Client is slow/full - drop them.
			l.logger.Warn("dropping slow client", zap.String("client_id", id))
			close(ch)
			delete(l.clients, id)
		}
	}
}

func reply(ch chan Result, r Result) {
	if ch == nil {
		return
	}
	select {
	case ch <- r:
	default:
	}
}
