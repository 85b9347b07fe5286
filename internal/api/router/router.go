package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/jcelest/orange-medical-transport/internal/admin"
	"github.com/jcelest/orange-medical-transport/internal/bookings"
	httpmiddleware "github.com/jcelest/orange-medical-transport/internal/http/middleware"
	"github.com/jcelest/orange-medical-transport/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger          *logging.Logger
	BookingsHandler *bookings.Handler
	AdminHandler    *admin.Handler
	AdminSecret     string
	MetricsHandler  http.Handler

	CORSAllowedOrigins []string
	RateLimitRPS       float64
	RateLimitBurst     int
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	// Public endpoints: booking intake and the admin login itself, both
	// rate-limited since they are unauthenticated.
	r.Group(func(public chi.Router) {
		if cfg.RateLimitRPS > 0 {
			public.Use(httpmiddleware.RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst))
		}
		public.Post("/bookings", cfg.BookingsHandler.CreateBooking)
		public.Post("/admin/login", cfg.AdminHandler.Login)
	})

	// Admin endpoints behind the shared-secret gate.
	r.Group(func(protected chi.Router) {
		protected.Use(admin.RequireSecret(cfg.AdminSecret))
		protected.Get("/bookings", cfg.BookingsHandler.ListBookings)
		protected.Patch("/bookings/{id}", cfg.BookingsHandler.UpdateBooking)
		protected.Delete("/bookings/{id}", cfg.BookingsHandler.DeleteBooking)
	})

	return r
}
