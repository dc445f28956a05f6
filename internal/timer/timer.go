package timer

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

var ErrInvalidTransition = errors.New("invalid timer transition")

const (
	DefaultSeconds = 30
	DevSeconds     = 3
)

type Status string

const (
	StatusReady    Status = "ready"
	StatusRunning  Status = "running"
	StatusPaused   Status = "paused"
	StatusFinished Status = "finished"
)

type Snapshot struct {
	Status         Status
	Seconds        int
	InitialSeconds int
	TimestampMs    int64
	// Seq increases with every change; subscribers may see notifications out of order.
	Seq uint64
}

// Timer is a per-turn countdown. A running countdown owns one goroutine that
// exits when its stop channel closes or the count reaches zero.
type Timer struct {
	mu             sync.Mutex
	status         Status
	seconds        int
	initialSeconds int
	defaultSeconds int
	tick           time.Duration
	stop           chan struct{}
	seq            uint64

	subs    map[int]func(Snapshot)
	nextSub int

	logger *zap.Logger
}

func New(seconds int, tick time.Duration, logger *zap.Logger) *Timer {
	if seconds <= 0 {
		seconds = DefaultSeconds
	}
	if tick <= 0 {
		tick = time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Timer{
		status:         StatusReady,
		seconds:        seconds,
		initialSeconds: seconds,
		defaultSeconds: seconds,
		tick:           tick,
		subs:           make(map[int]func(Snapshot)),
		logger:         logger,
	}
}

// Subscribe registers fn for every state change. fn runs outside the timer's
// lock and may call back into the timer.
func (t *Timer) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	t.mu.Lock()
	defer t.mu.Unlock()

	id := t.nextSub
	t.nextSub++
	t.subs[id] = fn
	return func() {
		t.mu.Lock()
		delete(t.subs, id)
		t.mu.Unlock()
	}
}

func (t *Timer) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshotLocked()
}

func (t *Timer) Start() (Snapshot, error) {
	t.mu.Lock()
	if t.status != StatusReady && t.status != StatusPaused {
		snap := t.snapshotLocked()
		t.mu.Unlock()
		return snap, fmt.Errorf("%w: cannot start timer while %s", ErrInvalidTransition, snap.Status)
	}

	stop := make(chan struct{})
	t.stop = stop
	t.status = StatusRunning
	if t.seconds <= 0 {
		t.finishLocked()
	}
	t.seq++
	snap := t.snapshotLocked()
	t.mu.Unlock()

	t.logger.Debug("timer started", zap.Int("seconds", snap.Seconds))
	t.notify(snap)
	if snap.Status == StatusRunning {
		go t.run(stop)
	}
	return snap, nil
}

func (t *Timer) Pause() (Snapshot, error) {
	t.mu.Lock()
	if t.status != StatusRunning {
		snap := t.snapshotLocked()
		t.mu.Unlock()
		return snap, fmt.Errorf("%w: cannot pause timer while %s", ErrInvalidTransition, snap.Status)
	}

	t.stopLocked()
	t.status = StatusPaused
	t.seq++
	snap := t.snapshotLocked()
	t.mu.Unlock()

	t.logger.Debug("timer paused", zap.Int("seconds", snap.Seconds))
	t.notify(snap)
	return snap, nil
}

// Reset stops any countdown and returns to ready. seconds <= 0 means the
// default duration.
func (t *Timer) Reset(seconds int) Snapshot {
	t.mu.Lock()
	t.stopLocked()
	if seconds <= 0 {
		seconds = t.defaultSeconds
	}
	t.status = StatusReady
	t.seconds = seconds
	t.initialSeconds = seconds
	t.seq++
	snap := t.snapshotLocked()
	t.mu.Unlock()

	t.notify(snap)
	return snap
}

// SetDefaultSeconds changes the duration used by later resets.
func (t *Timer) SetDefaultSeconds(seconds int) {
	if seconds <= 0 {
		return
	}
	t.mu.Lock()
	t.defaultSeconds = seconds
	t.mu.Unlock()
}

func (t *Timer) run(stop chan struct{}) {
	ticker := time.NewTicker(t.tick)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			t.mu.Lock()
			if t.stop != stop || t.status != StatusRunning {
				t.mu.Unlock()
				return
			}
			t.seconds--
			if t.seconds <= 0 {
				t.finishLocked()
			}
			t.seq++
			snap := t.snapshotLocked()
			t.mu.Unlock()

			t.notify(snap)
			if snap.Status == StatusFinished {
				t.logger.Info("timer finished", zap.Int("initial_seconds", snap.InitialSeconds))
				return
			}
		}
	}
}

func (t *Timer) finishLocked() {
	t.seconds = 0
	t.status = StatusFinished
	t.stopLocked()
}

func (t *Timer) stopLocked() {
	if t.stop != nil {
		close(t.stop)
		t.stop = nil
	}
}

func (t *Timer) snapshotLocked() Snapshot {
	return Snapshot{
		Status:         t.status,
		Seconds:        t.seconds,
		InitialSeconds: t.initialSeconds,
		TimestampMs:    time.Now().UnixMilli(),
		Seq:            t.seq,
	}
}

func (t *Timer) notify(snap Snapshot) {
	t.mu.Lock()
	subs := make([]func(Snapshot), 0, len(t.subs))
	for _, fn := range t.subs {
		subs = append(subs, fn)
	}
	t.mu.Unlock()

	for _, fn := range subs {
		fn(snap)
	}
}
