package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/islandrides/vehicle-rental/internal/booking"
	"github.com/islandrides/vehicle-rental/internal/db"
	"github.com/islandrides/vehicle-rental/internal/middleware"
	"github.com/islandrides/vehicle-rental/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// BookingHandler exposes the booking engine over HTTP: tourist booking
// creation, role portals and admin booking management.
type BookingHandler struct {
	engine *booking.Engine
}

// NewBookingHandler creates a new booking handler
func NewBookingHandler(engine *booking.Engine) *BookingHandler {
	return &BookingHandler{engine: engine}
}

// Create handles POST /api/bookings (tourist). The caller identity comes
// from the authenticated claims, never from the payload.
func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		http.Error(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	var raw models.BookingRequest
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	created, err := h.engine.RequestBooking(r.Context(), raw, claims.UserID)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// MyBookings lists the caller's own bookings (tourist portal).
func (h *BookingHandler) MyBookings(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		http.Error(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	touristID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		http.Error(w, "Invalid token subject", http.StatusUnauthorized)
		return
	}

	bookings, err := h.engine.ListBookings(r.Context(), db.BookingFilter{TouristID: &touristID})
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, bookings)
}

// DriverBookings lists the bookings assigned to the calling driver.
func (h *BookingHandler) DriverBookings(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		http.Error(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	driverID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		http.Error(w, "Invalid token subject", http.StatusUnauthorized)
		return
	}

	bookings, err := h.engine.ListBookings(r.Context(), db.BookingFilter{DriverID: &driverID})
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, bookings)
}

// AdminList lists bookings, optionally filtered by status (admin portal).
// This is the single canonical booking read path.
func (h *BookingHandler) AdminList(w http.ResponseWriter, r *http.Request) {
	var filter db.BookingFilter
	if status := r.URL.Query().Get("status"); status != "" {
		s := models.BookingStatus(status)
		if !models.IsValidBookingStatus(s) {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "unknown booking status"})
			return
		}
		filter.Statuses = []models.BookingStatus{s}
	}

	bookings, err := h.engine.ListBookings(r.Context(), filter)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, bookings)
}

// Get returns a single booking. Tourists and drivers only see their own.
func (h *BookingHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		http.Error(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	b, err := h.engine.FindBooking(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeEngineError(w, err)
		return
	}

	switch claims.Role {
	case models.RoleAdmin:
	case models.RoleTourist:
		if b.TouristID.Hex() != claims.UserID {
			writeJSON(w, http.StatusForbidden, errorResponse{Error: "not your booking"})
			return
		}
	case models.RoleDriver:
		if b.DriverID == nil || b.DriverID.Hex() != claims.UserID {
			writeJSON(w, http.StatusForbidden, errorResponse{Error: "not your booking"})
			return
		}
	}
	writeJSON(w, http.StatusOK, b)
}

// statusUpdateRequest is the transition payload. DriverID is only accepted
// when confirming a with-driver booking.
type statusUpdateRequest struct {
	Status   models.BookingStatus `json:"status"`
	DriverID string               `json:"driver_id,omitempty"`
}

// UpdateStatus handles PUT /api/bookings/{id}/status for every role; the
// engine decides what the caller may do.
func (h *BookingHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		http.Error(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	var req statusUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	updated, err := h.engine.TransitionBooking(
		r.Context(),
		chi.URLParam(r, "id"),
		claims.Role,
		claims.UserID,
		req.Status,
		req.DriverID,
	)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// AvailableDrivers handles GET /api/admin/drivers/available. Pickup and
// return are mandatory here; a missing range is a client error.
func (h *BookingHandler) AvailableDrivers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	start := parseRangeParam(q.Get("pickup"))
	end := parseRangeParam(q.Get("return"))
	if start == nil || end == nil {
		writeEngineError(w, booking.ErrDateRangeRequired)
		return
	}

	drivers, err := h.engine.ListAvailableDrivers(r.Context(), *start, *end)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, drivers)
}

// DeleteDriver handles DELETE /api/admin/drivers/{id}; rejected while the
// driver has active bookings.
func (h *BookingHandler) DeleteDriver(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.DeleteDriver(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
