package bookings

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcelest/orange-medical-transport/internal/notify"
)

func newTestHandler(dispatcher Dispatcher) (*Handler, *Service) {
	svc, _ := newTestService(dispatcher)
	return NewHandler(svc, nil), svc
}

func newTestRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Post("/bookings", h.CreateBooking)
	r.Get("/bookings", h.ListBookings)
	r.Patch("/bookings/{id}", h.UpdateBooking)
	r.Delete("/bookings/{id}", h.DeleteBooking)
	return r
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestCreateBookingSuccess(t *testing.T) {
	fd := &fakeDispatcher{result: notify.Result{EmailSent: true}}
	h, _ := newTestHandler(fd)
	router := newTestRouter(h)

	rec := doJSON(t, router, http.MethodPost, "/bookings", map[string]any{
		"patientName":     "J Doe",
		"patientPhone":    "4075551234",
		"patientEmail":    "jdoe@example.com",
		"pickupAddress":   "100 Main St",
		"dropoffAddress":  "200 Clinic Rd",
		"appointmentDate": "2026-09-15",
		"appointmentTime": "09:00",
		"serviceType":     "ambulatory",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Success bool `json:"success"`
		Booking struct {
			ID     string `json:"id"`
			Status string `json:"status"`
		} `json:"booking"`
		EmailSent bool `json:"emailSent"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.NotEmpty(t, resp.Booking.ID)
	assert.Equal(t, "pending", resp.Booking.Status)
	assert.True(t, resp.EmailSent)
}

func TestCreateBookingMissingFields(t *testing.T) {
	h, _ := newTestHandler(&fakeDispatcher{})
	router := newTestRouter(h)

	rec := doJSON(t, router, http.MethodPost, "/bookings", map[string]any{
		"patientName": "J Doe",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Missing required fields")
}

func TestCreateBookingInvalidJSON(t *testing.T) {
	h, _ := newTestHandler(&fakeDispatcher{})
	router := newTestRouter(h)

	req := httptest.NewRequest(http.MethodPost, "/bookings", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateBookingReportsEmailNotSent(t *testing.T) {
	h, _ := newTestHandler(&fakeDispatcher{result: notify.Result{}})
	router := newTestRouter(h)

	body := validRequest()
	rec := doJSON(t, router, http.MethodPost, "/bookings", body)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["success"])
	assert.Equal(t, false, resp["emailSent"])
}

func TestListBookings(t *testing.T) {
	h, svc := newTestHandler(nil)
	router := newTestRouter(h)

	created, err := svc.Create(context.Background(), validRequest())
	require.NoError(t, err)

	rec := doJSON(t, router, http.MethodGet, "/bookings", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var list []Booking
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, created.Booking.ID, list[0].ID)

	// Filter that matches nothing still returns an array.
	rec = doJSON(t, router, http.MethodGet, "/bookings?status=cancelled", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]", strings.TrimSpace(rec.Body.String()))
}

func TestUpdateBooking(t *testing.T) {
	h, svc := newTestHandler(nil)
	router := newTestRouter(h)

	created, err := svc.Create(context.Background(), validRequest())
	require.NoError(t, err)
	id := created.Booking.ID

	rec := doJSON(t, router, http.MethodPatch, "/bookings/"+id, map[string]string{"status": "confirmed"})
	require.Equal(t, http.StatusOK, rec.Code)

	var updated Booking
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Equal(t, StatusConfirmed, updated.Status)
	assert.Equal(t, "Jane Doe", updated.PatientName)
}

func TestUpdateBookingErrors(t *testing.T) {
	h, svc := newTestHandler(nil)
	router := newTestRouter(h)

	created, err := svc.Create(context.Background(), validRequest())
	require.NoError(t, err)
	id := created.Booking.ID

	tests := []struct {
		name     string
		path     string
		body     map[string]string
		wantCode int
		wantErr  string
	}{
		{"missing status", "/bookings/" + id, map[string]string{}, http.StatusBadRequest, "Status is required"},
		{"unknown status", "/bookings/" + id, map[string]string{"status": "archived"}, http.StatusBadRequest, "Invalid status"},
		{"illegal transition", "/bookings/" + id, map[string]string{"status": "completed"}, http.StatusConflict, "Invalid status transition"},
		{"missing booking", "/bookings/does-not-exist", map[string]string{"status": "confirmed"}, http.StatusNotFound, "Booking not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, router, http.MethodPatch, tt.path, tt.body)
			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantErr)
		})
	}
}

func TestDeleteBooking(t *testing.T) {
	h, svc := newTestHandler(nil)
	router := newTestRouter(h)

	created, err := svc.Create(context.Background(), validRequest())
	require.NoError(t, err)

	rec := doJSON(t, router, http.MethodDelete, "/bookings/"+created.Booking.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"success":true`)

	rec = doJSON(t, router, http.MethodDelete, "/bookings/"+created.Booking.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
