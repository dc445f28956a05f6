package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/DoyleJ11/val-draft-backend/internal/hub"
	"github.com/DoyleJ11/val-draft-backend/internal/lobby"
	"github.com/DoyleJ11/val-draft-backend/internal/seats"
	"github.com/DoyleJ11/val-draft-backend/internal/ws"
)

type Deps struct {
	Lobby          *lobby.Lobby
	Hub            *hub.Hub
	Seats          *seats.Manager
	Logger         *zap.Logger
	OriginPatterns []string
}

func SetupRoutes(d Deps) http.Handler {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(d.Logger.Named("http")))

	// Public routes
	r.Get("/healthz", Healthz)
	r.Get("/snapshot", GetSnapshot(d.Hub))
	r.Get("/snapshot/player", GetPlayerSnapshot(d.Hub))
	r.Get("/seats", GetSeats(d))
	r.Get("/seats/{player}", GetSeat(d))
	r.Get("/ws", ws.Handler(ws.Deps{
		Lobby:          d.Lobby,
		Hub:            d.Hub,
		Seats:          d.Seats,
		Logger:         d.Logger.Named("ws"),
		OriginPatterns: d.OriginPatterns,
	}))

	// Admin routes
	r.Route("/admin", func(r chi.Router) {
		r.Post("/commands", PostCommand(d.Lobby, d.Logger))
		r.Post("/select", PostSelect(d.Lobby))
		r.Post("/timer/{op}", PostTimer(d.Lobby))
	})
	return r
}

func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Debug("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("took", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}
