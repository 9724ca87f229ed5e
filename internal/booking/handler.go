// internal/booking/handler.go
package booking

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"gotripviet/internal/auth"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// Routes mounts the booking endpoints.
func (h *Handler) Routes(user, admin, partner, internal func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		r.Use(user)
		r.Post("/", h.handleCreate)
		r.Get("/my", h.handleMine)
		r.Get("/{id}", h.handleGet)
		r.Post("/{id}/cancel", h.handleCancel)
	})

	r.Group(func(r chi.Router) {
		r.Use(admin)
		r.Get("/", h.handleList)
		r.Post("/{id}/admin-cancel", h.handleAdminCancel)
	})

	r.Group(func(r chi.Router) {
		r.Use(partner)
		r.Get("/partner", h.handlePartner)
	})

	r.Group(func(r chi.Router) {
		r.Use(internal)
		r.Post("/internal/confirm-payment", h.handleConfirm)
	})

	return r
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, errors.New("missing identity"))
		return
	}

	var in CreateInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	result, err := h.service.Create(r.Context(), identity.UserID, in)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

func (h *Handler) handleMine(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, errors.New("missing identity"))
		return
	}

	bookings, err := h.service.ListByUser(r.Context(), identity.UserID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, bookings)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFrom(r.Context())
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.New("invalid booking id"))
		return
	}

	b, err := h.service.Get(r.Context(), id, identity.UserID)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (h *Handler) handleCancel(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFrom(r.Context())
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.New("invalid booking id"))
		return
	}

	b, err := h.service.Cancel(r.Context(), id, identity.UserID)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (h *Handler) handleAdminCancel(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.New("invalid booking id"))
		return
	}

	b, err := h.service.AdminCancel(r.Context(), id)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	f := filterFrom(r)
	if raw := r.URL.Query().Get("userId"); raw != "" {
		userID, err := uuid.Parse(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, errors.New("invalid user id"))
			return
		}
		f.UserID = &userID
	}

	result, err := h.service.List(r.Context(), f)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) handlePartner(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, errors.New("missing identity"))
		return
	}

	result, err := h.service.PartnerBookings(r.Context(), identity.UserID, filterFrom(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) handleConfirm(w http.ResponseWriter, r *http.Request) {
	var req struct {
		BookingID   uuid.UUID   `json:"bookingId"`
		PaymentInfo PaymentInfo `json:"paymentInfo"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	b, err := h.service.Confirm(r.Context(), req.BookingID, req.PaymentInfo)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func filterFrom(r *http.Request) ListFilter {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))
	status := q.Get("status")
	if status == "ALL" {
		status = ""
	}
	return ListFilter{Status: status, Page: page, Limit: limit}
}

func statusFor(err error) int {
	var state *StateError
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrNoItems), errors.Is(err, ErrInvalidQuantity):
		return http.StatusBadRequest
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, ErrAlreadyCancelled), errors.As(err, &state):
		return http.StatusConflict
	default:
		return http.StatusBadGateway
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
