package service

import (
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/skyward-robotics/offboard-bridge/internal/auth"
)

// Router assembles the full HTTP surface: the six command services,
// get_telemetry, land, and a telemetry websocket stream, all sitting
// behind the same middleware stack and an optional JWT auth split.
type Router struct {
	Auth      *auth.Service
	Commands  *Commands
	Telemetry *Telemetry

	// DebugNoAuth disables JWT validation for local/dev runs — "Running
	// in debug mode. Authentication disabled."
	DebugNoAuth bool
}

func (rt *Router) Build() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.RedirectSlashes)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Post("/login", rt.Auth.Login)

		r.Group(func(r chi.Router) {
			if !rt.DebugNoAuth {
				r.Use(rt.Auth.RequireAuth)
			}

			r.Get("/refresh_token", rt.Auth.Refresh)

			r.Get("/telemetry", func(w http.ResponseWriter, r *http.Request) {
				render.JSON(w, r, rt.Telemetry.Get(r.URL.Query().Get("frame_id")))
			})
			r.Post("/navigate", rt.Commands.Navigate)
			r.Post("/navigate_global", rt.Commands.NavigateGlobal)
			r.Post("/set_position", rt.Commands.SetPosition)
			r.Post("/set_velocity", rt.Commands.SetVelocity)
			r.Post("/set_attitude", rt.Commands.SetAttitude)
			r.Post("/set_rates", rt.Commands.SetRates)
			r.Post("/land", rt.Commands.Land)
		})
	})

	r.Route("/ws", func(r chi.Router) {
		if !rt.DebugNoAuth {
			r.Use(rt.Auth.RequireAuth)
		}
		stream := &TelemetryStream{Telemetry: rt.Telemetry, Rate: 200 * time.Millisecond}
		r.Get("/telemetry", stream.Handler)
	})

	return r
}
