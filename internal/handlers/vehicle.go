package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/islandrides/vehicle-rental/internal/booking"
	"github.com/islandrides/vehicle-rental/internal/db"
	"github.com/islandrides/vehicle-rental/internal/models"
)

// VehicleHandler handles the public vehicle catalogue and admin vehicle CRUD.
type VehicleHandler struct {
	engine   *booking.Engine
	vehicles db.VehicleCollection
}

// NewVehicleHandler creates a new vehicle handler
func NewVehicleHandler(engine *booking.Engine, vehicles db.VehicleCollection) *VehicleHandler {
	return &VehicleHandler{engine: engine, vehicles: vehicles}
}

// parseRangeParam parses an optional date(+time) query parameter. Returns
// nil when absent or unparseable; the listing degrades to show-all then.
func parseRangeParam(value string) *time.Time {
	if value == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04", "2006-01-02"} {
		if t, err := time.Parse(layout, value); err == nil {
			return &t
		}
	}
	return nil
}

// List is the public catalogue: optional type, pickup and return query
// filters, availability resolved against blocked periods.
func (h *VehicleHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	start := parseRangeParam(q.Get("pickup"))
	end := parseRangeParam(q.Get("return"))

	vehicles, err := h.engine.ListAvailableVehicles(r.Context(), q.Get("type"), start, end)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, vehicles)
}

// Get returns a single vehicle.
func (h *VehicleHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	vehicle, err := h.vehicles.FindVehicleByID(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "vehicle not found"})
		return
	}
	writeJSON(w, http.StatusOK, vehicle)
}

// vehiclePayload is the admin create/update body.
type vehiclePayload struct {
	Type         string   `json:"type"`
	Brand        string   `json:"brand"`
	Model        string   `json:"model"`
	Seats        int      `json:"seats"`
	Features     []string `json:"features"`
	PricePerDay  float64  `json:"price_per_day"`
	PricePerHour float64  `json:"price_per_hour"`
	ImageURL     string   `json:"image_url"`
	Available    *bool    `json:"available"`
}

func (p *vehiclePayload) validate() string {
	if !models.IsValidVehicleType(p.Type) {
		return "vehicle type must be one of Car, Van, SUV, Bus, Scooter"
	}
	if p.Brand == "" || p.Model == "" {
		return "brand and model are required"
	}
	if p.Seats < 1 {
		return "seating capacity must be a positive integer"
	}
	if p.PricePerDay < 0 || p.PricePerHour < 0 {
		return "prices cannot be negative"
	}
	return ""
}

// Create adds a vehicle to the fleet (admin).
func (h *VehicleHandler) Create(w http.ResponseWriter, r *http.Request) {
	var payload vehiclePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if msg := payload.validate(); msg != "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: msg})
		return
	}

	available := true
	if payload.Available != nil {
		available = *payload.Available
	}

	vehicle := models.Vehicle{
		Type:           payload.Type,
		Brand:          payload.Brand,
		Model:          payload.Model,
		Seats:          payload.Seats,
		Features:       payload.Features,
		PricePerDay:    payload.PricePerDay,
		PricePerHour:   payload.PricePerHour,
		ImageURL:       payload.ImageURL,
		Available:      available,
		BlockedPeriods: []models.BlockedPeriod{},
	}

	if err := h.vehicles.InsertVehicle(r.Context(), vehicle); err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, vehicle)
}

// Update edits a vehicle (admin). Blocked periods are owned by the booking
// flow and are preserved, never replaced from the payload.
func (h *VehicleHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	existing, err := h.vehicles.FindVehicleByID(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "vehicle not found"})
		return
	}

	var payload vehiclePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if msg := payload.validate(); msg != "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: msg})
		return
	}

	existing.Type = payload.Type
	existing.Brand = payload.Brand
	existing.Model = payload.Model
	existing.Seats = payload.Seats
	existing.Features = payload.Features
	existing.PricePerDay = payload.PricePerDay
	existing.PricePerHour = payload.PricePerHour
	existing.ImageURL = payload.ImageURL
	if payload.Available != nil {
		existing.Available = *payload.Available
	}

	if err := h.vehicles.UpdateVehicle(r.Context(), id, *existing); err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, existing)
}

// Delete removes a vehicle from the fleet (admin).
func (h *VehicleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := h.vehicles.FindVehicleByID(r.Context(), id); err != nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "vehicle not found"})
		return
	}
	if err := h.vehicles.DeleteVehicle(r.Context(), id); err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
