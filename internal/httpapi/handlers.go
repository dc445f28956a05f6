package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/DoyleJ11/val-draft-backend/internal/engine"
	"github.com/DoyleJ11/val-draft-backend/internal/hub"
	"github.com/DoyleJ11/val-draft-backend/internal/lobby"
	"github.com/DoyleJ11/val-draft-backend/internal/ws"
	"github.com/DoyleJ11/val-draft-backend/pkg/types"
)

type commandResponse struct {
	Version int    `json:"version"`
	Error   string `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, commandResponse{Error: msg})
}

// lobbyStatus maps lobby transport errors; business rejections stay 200.
func lobbyStatus(err error) int {
	if errors.Is(err, lobby.ErrClosed) {
		return http.StatusServiceUnavailable
	}
	return http.StatusGatewayTimeout
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func GetSnapshot(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, err := h.Snapshot(r.Context())
		if err != nil {
			writeError(w, http.StatusServiceUnavailable, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, u.Frame)
	}
}

func GetPlayerSnapshot(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, err := h.Snapshot(r.Context())
		if err != nil {
			writeError(w, http.StatusServiceUnavailable, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, u.Player)
	}
}

func PostCommand(lb *lobby.Lobby, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var cm types.ClientMessage
		if err := json.NewDecoder(r.Body).Decode(&cm); err != nil {
			writeError(w, http.StatusBadRequest, "bad json")
			return
		}
		cmd, ok := ws.ToEngineCommand(cm)
		if !ok {
			writeError(w, http.StatusBadRequest, "unknown command type")
			return
		}

		res, err := lb.Submit(r.Context(), cmd)
		if err != nil {
			writeError(w, lobbyStatus(err), err.Error())
			return
		}
		if res.Err != nil {
			logger.Warn("command refused", zap.String("type", cm.Type), zap.Error(res.Err))
			writeError(w, http.StatusBadRequest, res.Err.Error())
			return
		}
		writeJSON(w, http.StatusOK, commandResponse{Version: res.Version, Error: res.State.LastError})
	}
}

func PostSelect(lb *lobby.Lobby) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Asset string `json:"asset"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Asset == "" {
			writeError(w, http.StatusBadRequest, "asset is required")
			return
		}

		res, err := lb.AttemptSelection(r.Context(), body.Asset)
		if err != nil {
			writeError(w, lobbyStatus(err), err.Error())
			return
		}
		writeJSON(w, http.StatusOK, commandResponse{Version: res.Version, Error: res.State.LastError})
	}
}

func PostTimer(lb *lobby.Lobby) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var op lobby.TimerOp
		switch chi.URLParam(r, "op") {
		case "start":
			op = lobby.TimerStart
		case "pause":
			op = lobby.TimerPause
		case "reset":
			op = lobby.TimerReset
		default:
			writeError(w, http.StatusNotFound, "unknown timer operation")
			return
		}

		var body struct {
			Seconds int `json:"seconds"`
		}
		if r.ContentLength > 0 {
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				writeError(w, http.StatusBadRequest, "bad json")
				return
			}
		}

		res, err := lb.ControlTimer(r.Context(), op, body.Seconds)
		if err != nil {
			writeError(w, lobbyStatus(err), err.Error())
			return
		}
		writeJSON(w, http.StatusOK, commandResponse{Version: res.Version, Error: res.State.LastError})
	}
}

type seatResponse struct {
	Player string `json:"player"`
	Name   string `json:"name"`
}

func GetSeats(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out := make([]seatResponse, 0, 2)
		for _, s := range d.Seats.List() {
			out = append(out, seatResponse{Player: string(s.Player), Name: s.Name})
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func GetSeat(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p := engine.Player(chi.URLParam(r, "player"))
		if !p.Valid() {
			writeError(w, http.StatusBadRequest, "player must be P1 or P2")
			return
		}
		s, ok := d.Seats.ByPlayer(p)
		if !ok {
			writeError(w, http.StatusNotFound, "seat is free")
			return
		}
		writeJSON(w, http.StatusOK, seatResponse{Player: string(s.Player), Name: s.Name})
	}
}
