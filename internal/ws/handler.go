package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/DoyleJ11/val-draft-backend/internal/engine"
	"github.com/DoyleJ11/val-draft-backend/internal/hub"
	"github.com/DoyleJ11/val-draft-backend/internal/lobby"
	"github.com/DoyleJ11/val-draft-backend/internal/seats"
	"github.com/DoyleJ11/val-draft-backend/pkg/types"
)

const (
	RoleAdmin   = "admin"
	RoleOverlay = "overlay"
	RolePlayer  = "player"

	CodeRejected = "REJECTED"

	writeTimeout = 3 * time.Second
)

type Deps struct {
	Lobby  *lobby.Lobby
	Hub    *hub.Hub
	Seats  *seats.Manager
	Logger *zap.Logger
	// OriginPatterns is passed to websocket.Accept; empty means same origin.
	OriginPatterns []string
}

type client struct {
	id     string
	role   string
	seat   seats.Seat
	conn   *websocket.Conn
	deps   Deps
	logger *zap.Logger
}

func Handler(d Deps) http.HandlerFunc {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	return func(w http.ResponseWriter, r *http.Request) {
		role := r.URL.Query().Get("role")
		if role == "" {
			role = RoleOverlay
		}
		if role != RoleAdmin && role != RoleOverlay && role != RolePlayer {
			http.Error(w, "unknown role", http.StatusBadRequest)
			return
		}

		c := &client{id: uuid.NewString(), role: role, deps: d}
		c.logger = d.Logger.With(zap.String("client_id", c.id), zap.String("role", role))

		if role == RolePlayer {
			seat, err := d.Seats.Add(r.URL.Query().Get("name"), c.id)
			if err != nil {
				http.Error(w, err.Error(), http.StatusConflict)
				return
			}
			c.seat = seat
			defer d.Seats.Remove(c.id)
		}

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns: d.OriginPatterns,
		})
		if err != nil {
			c.logger.Warn("websocket accept failed", zap.Error(err))
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")
		c.conn = conn

		out := make(chan hub.Update, d.Hub.OutboxSize())
		select {
		case d.Hub.Inbox() <- hub.Subscribe{ClientID: c.id, Outbox: out}:
		case <-d.Hub.Done():
			conn.Close(websocket.StatusGoingAway, "shutting down")
			return
		}
		defer func() {
			select {
			case d.Hub.Inbox() <- hub.Unsubscribe{ClientID: c.id}:
			case <-d.Hub.Done():
			}
		}()

		c.logger.Info("client connected")
		if role == RolePlayer {
			c.write(r.Context(), types.ServerMessage{Type: "player-joined", Player: string(c.seat.Player), Name: c.seat.Name})
		}

		// Writer goroutine
		writeCtx, writeCancel := context.WithCancel(r.Context())
		defer writeCancel()
		go func() {
			for u := range out {
				c.write(writeCtx, c.render(u))
			}
			// Dropped by the hub or the hub stopped.
			conn.Close(websocket.StatusTryAgainLater, "fell behind")
		}()

		// Reader loop
		for {
			_, data, err := conn.Read(r.Context())
			if err != nil {
				switch websocket.CloseStatus(err) {
				case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				default:
					c.logger.Debug("read failed", zap.Error(err))
				}
				c.logger.Info("client disconnected")
				return
			}

			var cm types.ClientMessage
			if err := json.Unmarshal(data, &cm); err != nil {
				c.write(r.Context(), types.ServerMessage{Type: "Error", Error: "bad json"})
				continue
			}
			c.handle(r.Context(), cm)
		}
	}
}

func (c *client) render(u hub.Update) any {
	if c.role == RolePlayer {
		view := u.Player
		return types.ServerMessage{Type: "player-state", Version: u.Frame.Version, State: &view}
	}
	return u.Frame
}

func (c *client) handle(ctx context.Context, cm types.ClientMessage) {
	switch cm.Type {
	case "ping":
		c.write(ctx, types.ServerMessage{Type: "pong"})
		return
	case "RequestSnapshot":
		select {
		case c.deps.Hub.Inbox() <- hub.Refresh{}:
		case <-ctx.Done():
		}
		return
	}

	switch c.role {
	case RoleAdmin:
		c.handleAdmin(ctx, cm)
	case RolePlayer:
		if cm.Type != "player-action" {
			c.write(ctx, types.ServerMessage{Type: "Error", Error: "unknown type"})
			return
		}
		c.write(ctx, c.playerAction(ctx, cm))
	default:
		c.write(ctx, types.ServerMessage{Type: "Error", Error: "unknown type"})
	}
}

func (c *client) handleAdmin(ctx context.Context, cm types.ClientMessage) {
	var (
		res lobby.Result
		err error
	)
	switch cm.Type {
	case "AttemptSelection":
		res, err = c.deps.Lobby.AttemptSelection(ctx, cm.Asset)
	case "TimerStart":
		res, err = c.deps.Lobby.ControlTimer(ctx, lobby.TimerStart, 0)
	case "TimerPause":
		res, err = c.deps.Lobby.ControlTimer(ctx, lobby.TimerPause, 0)
	case "TimerReset":
		res, err = c.deps.Lobby.ControlTimer(ctx, lobby.TimerReset, cm.Seconds)
	default:
		cmd, ok := ToEngineCommand(cm)
		if !ok {
			c.write(ctx, types.ServerMessage{Type: "Error", Error: "unknown type"})
			return
		}
		res, err = c.deps.Lobby.Submit(ctx, cmd)
		if err == nil {
			err = res.Err
		}
	}

	msg := types.ServerMessage{Type: "CommandResult", Version: res.Version, Error: res.State.LastError}
	if err != nil {
		msg.Error = err.Error()
	}
	c.write(ctx, msg)
}

// playerAction validates against the current turn, then hands the selection
// to the lobby's gated flow pinned to the action it was validated for.
func (c *client) playerAction(ctx context.Context, cm types.ClientMessage) types.ActionResult {
	fail := func(code, msg string) types.ActionResult {
		return types.ActionResult{Type: "action-result", Error: msg, Code: code}
	}

	seat, ok := c.deps.Seats.ByClient(c.id)
	if !ok {
		return fail(engine.CodeInvalidPlayer, "No seat is held by this connection.")
	}
	view, err := c.deps.Lobby.Current(ctx)
	if err != nil {
		return fail(CodeRejected, err.Error())
	}
	if verr := engine.ValidatePlayerAction(view.State, seat.Player, cm.Action, cm.Selection); verr != nil {
		c.logger.Info("player action invalid", zap.String("code", verr.Code), zap.String("reason", verr.Message))
		return fail(verr.Code, verr.Message)
	}

	res, err := c.deps.Lobby.AttemptFor(ctx, cm.Selection, view.State.ActionNumber)
	if err != nil {
		return fail(CodeRejected, err.Error())
	}
	if res.State.LastError != "" {
		return fail(CodeRejected, res.State.LastError)
	}
	return types.ActionResult{Type: "action-result", Success: true}
}

func (c *client) write(ctx context.Context, v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		c.logger.Error("marshal failed", zap.Error(err))
		return
	}
	wctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	if err := c.conn.Write(wctx, websocket.MessageText, payload); err != nil && !errors.Is(err, context.Canceled) {
		c.logger.Debug("write failed", zap.Error(err))
	}
}

var engineCommands = map[engine.CommandType]bool{
	engine.CmdStartEvent:          true,
	engine.CmdSelectAsset:         true,
	engine.CmdAutoAdvance:         true,
	engine.CmdAdvancePhase:        true,
	engine.CmdResetTurn:           true,
	engine.CmdUndoLastAction:      true,
	engine.CmdResetTournament:     true,
	engine.CmdSetFirstPlayer:      true,
	engine.CmdSetPlayerName:       true,
	engine.CmdSetPendingSelection: true,
	engine.CmdClearRevealedAction: true,
	engine.CmdSetError:            true,
}

// ToEngineCommand maps an admin message onto an engine command.
func ToEngineCommand(m types.ClientMessage) (engine.Command, bool) {
	t := engine.CommandType(m.Type)
	if !engineCommands[t] {
		return engine.Command{}, false
	}
	return engine.Command{
		Type:         t,
		Player:       engine.Player(m.Player),
		Asset:        m.Asset,
		Name:         m.Name,
		ActionNumber: m.ActionNumber,
		Message:      m.Message,
	}, true
}
