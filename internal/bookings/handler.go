package bookings

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jcelest/orange-medical-transport/pkg/logging"
)

// Handler exposes the booking endpoints over HTTP.
type Handler struct {
	service *Service
	logger  *logging.Logger
}

// NewHandler constructs a Handler.
func NewHandler(service *Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{service: service, logger: logger}
}

// CreateBooking handles POST /bookings. The response reports whether the
// confirmation email went out; notification failures never fail the request.
func (h *Handler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	var req CreateBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]any{"error": "Invalid request body"})
		return
	}

	result, err := h.service.Create(r.Context(), &req)
	if err != nil {
		if errors.Is(err, ErrMissingField) {
			respondJSON(w, http.StatusBadRequest, map[string]any{"error": "Missing required fields"})
			return
		}
		h.logger.Error("create booking failed", "error", err)
		respondJSON(w, http.StatusInternalServerError, map[string]any{"error": "Failed to create booking"})
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"booking": map[string]any{
			"id":     result.Booking.ID,
			"status": result.Booking.Status,
		},
		"emailSent": result.EmailSent,
	})
}

// ListBookings handles GET /bookings with optional status and sort params.
func (h *Handler) ListBookings(w http.ResponseWriter, r *http.Request) {
	filter := ListFilter{
		Status: Status(r.URL.Query().Get("status")),
		Sort:   r.URL.Query().Get("sort"),
	}
	list, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("list bookings failed", "error", err)
		respondJSON(w, http.StatusInternalServerError, map[string]any{"error": "Failed to fetch bookings"})
		return
	}
	respondJSON(w, http.StatusOK, list)
}

// UpdateBooking handles PATCH /bookings/{id}. Only the status may change.
func (h *Handler) UpdateBooking(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req struct {
		Status Status `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]any{"error": "Invalid request body"})
		return
	}
	if req.Status == "" {
		respondJSON(w, http.StatusBadRequest, map[string]any{"error": "Status is required"})
		return
	}

	updated, err := h.service.UpdateStatus(r.Context(), id, req.Status)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidStatus):
			respondJSON(w, http.StatusBadRequest, map[string]any{"error": "Invalid status"})
		case errors.Is(err, ErrIllegalTransition):
			respondJSON(w, http.StatusConflict, map[string]any{"error": "Invalid status transition"})
		case errors.Is(err, ErrNotFound):
			respondJSON(w, http.StatusNotFound, map[string]any{"error": "Booking not found"})
		default:
			h.logger.Error("update booking failed", "booking_id", id, "error", err)
			respondJSON(w, http.StatusInternalServerError, map[string]any{"error": "Failed to update booking"})
		}
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

// DeleteBooking handles DELETE /bookings/{id}.
func (h *Handler) DeleteBooking(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.service.Delete(r.Context(), id); err != nil {
		if errors.Is(err, ErrNotFound) {
			respondJSON(w, http.StatusNotFound, map[string]any{"error": "Booking not found"})
			return
		}
		h.logger.Error("delete booking failed", "booking_id", id, "error", err)
		respondJSON(w, http.StatusInternalServerError, map[string]any{"error": "Failed to delete booking"})
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"success": true})
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
