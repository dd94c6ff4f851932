// Package router assembles the HTTP surface of the booking gateway.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mwangaza-health/booking-gateway/internal/config"
	"github.com/mwangaza-health/booking-gateway/internal/http/handlers"
	"github.com/mwangaza-health/booking-gateway/internal/http/middleware"
	"github.com/mwangaza-health/booking-gateway/pkg/logging"
)

// Deps carries everything the router wires together.
type Deps struct {
	Config  *config.Config
	Logger  *logging.Logger
	Booking *handlers.Booking
	Session *handlers.Session
}

// New builds the chi router: health and metrics outside the API group,
// rate limiting and the optional bearer-JWT guard on /api.
func New(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Compress(5))
	r.Use(middleware.CORS(deps.Config.CORSAllowedOrigins))
	r.Use(middleware.RequestLogger(deps.Logger))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Handle("/metrics", promhttp.Handler())

	limiter := middleware.NewRateLimiter(deps.Config.RateLimitPerSec, deps.Config.RateLimitBurst)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.RateLimit(limiter))
		r.Use(middleware.PatientJWT(deps.Config.AuthJWTSecret))

		r.Route("/booking", func(r chi.Router) {
			r.Post("/forms", deps.Booking.CreateForm)
			r.Get("/forms/{formID}", deps.Booking.GetForm)
			r.Patch("/forms/{formID}", deps.Booking.UpdateForm)
			r.Post("/forms/{formID}/submit", deps.Booking.SubmitForm)
			r.Delete("/forms/{formID}", deps.Booking.DeleteForm)
			r.Get("/slots", deps.Booking.Slots)
			r.Get("/specialities", deps.Booking.Specialities)
		})

		r.Route("/session", func(r chi.Router) {
			r.Get("/", deps.Session.Get)
			r.Post("/token", deps.Session.SetToken)
			r.Put("/user", deps.Session.SetUser)
			r.Post("/logout", deps.Session.Logout)
			r.Post("/refresh-profile", deps.Session.RefreshProfile)
		})
	})

	return r
}
