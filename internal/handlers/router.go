package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/islandrides/vehicle-rental/internal/middleware"
	"github.com/islandrides/vehicle-rental/internal/models"
)

// NewRouter wires all routes. Public routes sit outside the authenticated
// group; everything else goes through JWT authentication and role checks.
func NewRouter(
	authHandler *AuthHandler,
	vehicleHandler *VehicleHandler,
	bookingHandler *BookingHandler,
	authMw *middleware.AuthMiddleware,
	rateLimiter *middleware.RateLimitMiddleware,
) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(rateLimiter.RateLimit(100, 60))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	})

	r.Route("/api", func(r chi.Router) {
		// Public
		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/login", authHandler.Login)
		r.Get("/vehicles", vehicleHandler.List)
		r.Get("/vehicles/{id}", vehicleHandler.Get)

		// Authenticated
		r.Group(func(r chi.Router) {
			r.Use(authMw.Authenticate)

			r.Get("/bookings/{id}", bookingHandler.Get)
			r.Put("/bookings/{id}/status", bookingHandler.UpdateStatus)

			r.Group(func(r chi.Router) {
				r.Use(authMw.RequireRole(models.RoleTourist))
				r.Post("/bookings", bookingHandler.Create)
				r.Get("/bookings/my", bookingHandler.MyBookings)
			})

			r.Group(func(r chi.Router) {
				r.Use(authMw.RequireRole(models.RoleDriver))
				r.Get("/driver/bookings", bookingHandler.DriverBookings)
			})

			r.Route("/admin", func(r chi.Router) {
				r.Use(authMw.RequireRole(models.RoleAdmin))
				r.Post("/vehicles", vehicleHandler.Create)
				r.Put("/vehicles/{id}", vehicleHandler.Update)
				r.Delete("/vehicles/{id}", vehicleHandler.Delete)
				r.Get("/bookings", bookingHandler.AdminList)
				r.Get("/drivers/available", bookingHandler.AvailableDrivers)
				r.Delete("/drivers/{id}", bookingHandler.DeleteDriver)
			})
		})
	})

	return r
}
