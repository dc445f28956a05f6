package hub

import (
	"context"

	"go.uber.org/zap"

	"github.com/DoyleJ11/val-draft-backend/internal/engine"
	"github.com/DoyleJ11/val-draft-backend/internal/lobby"
	"github.com/DoyleJ11/val-draft-backend/internal/timer"
	"github.com/DoyleJ11/val-draft-backend/pkg/types"
)

const lobbyClientID = "hub"

// Clock is the part of the timer the hub watches.
type Clock interface {
	Snapshot() timer.Snapshot
	Subscribe(fn func(timer.Snapshot)) (unsubscribe func())
}

// Update is one emission. Frame goes to admin and overlay clients, Player to
// player clients.
type Update struct {
	Frame  types.Frame
	Player types.PlayerView
}

type HubMsg interface{ isHubMsg() }

type Subscribe struct {
	ClientID string
	Outbox   chan Update // receives the latest update immediately
}

type Unsubscribe struct{ ClientID string }

// TimerChanged is sent by the clock subscription.
type TimerChanged struct{ Timer timer.Snapshot }

// Refresh asks the lobby for its state and re-emits it.
type Refresh struct{}

type Latest struct{ Reply chan Update }

type ShutdownHub struct{}

type refreshed struct{ view lobby.View }

func (Subscribe) isHubMsg()    {}
func (Unsubscribe) isHubMsg()  {}
func (TimerChanged) isHubMsg() {}
func (Refresh) isHubMsg()      {}
func (Latest) isHubMsg()       {}
func (ShutdownHub) isHubMsg()  {}
func (refreshed) isHubMsg()    {}

// Hub mirrors the lobby's state and the clock into frames for subscribers.
type Hub struct {
	inbox      chan HubMsg
	lobby      *lobby.Lobby
	feed       chan lobby.Snapshot
	subs       map[string]chan Update
	outboxSize int

	version int
	state   engine.State
	timer   timer.Snapshot
	latest  Update

	unsubscribe func()
	logger      *zap.Logger
	ctx         context.Context
	cancel      context.CancelFunc
}

func NewHub(parent context.Context, lb *lobby.Lobby, clock Clock, logger *zap.Logger, outboxSize int) *Hub {
	ctx, cancel := context.WithCancel(parent)
	if logger == nil {
		logger = zap.NewNop()
	}
	if outboxSize <= 0 {
		outboxSize = 16
	}

	h := &Hub{
		inbox:      make(chan HubMsg, 64),
		lobby:      lb,
		subs:       make(map[string]chan Update),
		outboxSize: outboxSize,
		state:      engine.NewEmptyState(),
		timer:      clock.Snapshot(),
		logger:     logger,
		ctx:        ctx,
		cancel:     cancel,
	}
	h.latest = h.render()
	h.unsubscribe = clock.Subscribe(h.notifyTimer)
	h.join()

	go h.loop()
	return h
}

func (h *Hub) Inbox() chan<- HubMsg { return h.inbox }

func (h *Hub) Done() <-chan struct{} { return h.ctx.Done() }

// OutboxSize is the buffer subscribers should give their outbox.
func (h *Hub) OutboxSize() int { return h.outboxSize }

// Snapshot returns the most recent update.
func (h *Hub) Snapshot(ctx context.Context) (Update, error) {
	reply := make(chan Update, 1)
	select {
	case h.inbox <- Latest{Reply: reply}:
	case <-h.ctx.Done():
		return Update{}, lobby.ErrClosed
	case <-ctx.Done():
		return Update{}, ctx.Err()
	}
	select {
	case u := <-reply:
		return u, nil
	case <-h.ctx.Done():
		return Update{}, lobby.ErrClosed
	case <-ctx.Done():
		return Update{}, ctx.Err()
	}
}

func (h *Hub) notifyTimer(s timer.Snapshot) {
	msg := TimerChanged{Timer: s}
	select {
	case h.inbox <- msg:
	default:
		go func() {
			select {
			case h.inbox <- msg:
			case <-h.ctx.Done():
			}
		}()
	}
}

func (h *Hub) join() {
	h.feed = make(chan lobby.Snapshot, 64)
	select {
	case h.lobby.Inbox() <- lobby.Join{ClientID: lobbyClientID, Outbox: h.feed}:
	case <-h.lobby.Done():
	}
}

func (h *Hub) loop() {
	for {
		select {
		case <-h.ctx.Done():
			h.shutdown()
			return

		case snap, ok := <-h.feed:
			if !ok {
				select {
				case <-h.lobby.Done():
					h.logger.Info("lobby closed, stopping hub")
					h.shutdown()
					return
				default:
				}
				h.logger.Warn("hub fell behind the lobby, rejoining")
				h.join()
				break
			}
			if snap.Version < h.version {
				break
			}
			h.version = snap.Version
			h.state = snap.State
			h.emit()

		case m := <-h.inbox:
			switch msg := m.(type) {
			case Subscribe:
				h.subs[msg.ClientID] = msg.Outbox
				select {
				case msg.Outbox <- h.latest:
				default:
					close(msg.Outbox)
					delete(h.subs, msg.ClientID)
				}

			case Unsubscribe:
				if ch, ok := h.subs[msg.ClientID]; ok {
					close(ch)
					delete(h.subs, msg.ClientID)
				}

			case TimerChanged:
				if msg.Timer.Seq < h.timer.Seq {
					break
				}
				h.timer = msg.Timer
				h.emit()

			case Refresh:
				go func() {
					v, err := h.lobby.Current(h.ctx)
					if err != nil {
						return
					}
					select {
					case h.inbox <- refreshed{view: v}:
					case <-h.ctx.Done():
					}
				}()

			case refreshed:
				if msg.view.Version >= h.version {
					h.version = msg.view.Version
					h.state = msg.view.State
				}
				if msg.view.Timer.Seq >= h.timer.Seq {
					h.timer = msg.view.Timer
				}
				h.emit()

			case Latest:
				msg.Reply <- h.latest

			case ShutdownHub:
				h.shutdown()
				return
			}
		}
	}
}

func (h *Hub) render() Update {
	return Update{
		Frame:  NewFrame(h.version, h.state, h.timer),
		Player: PlayerView(h.state, h.timer),
	}
}

func (h *Hub) emit() {
	h.latest = h.render()
	for id, ch := range h.subs {
		select {
		case ch <- h.latest:
		default:
			h.logger.Warn("dropping slow subscriber", zap.String("client_id", id))
			close(ch)
			delete(h.subs, id)
		}
	}
}

func (h *Hub) shutdown() {
	if h.unsubscribe != nil {
		h.unsubscribe()
		h.unsubscribe = nil
	}
	for id, ch := range h.subs {
		close(ch)
		delete(h.subs, id)
	}
	select {
	case h.lobby.Inbox() <- lobby.Leave{ClientID: lobbyClientID}:
	default:
	}
	h.cancel()
}
