// internal/settlement/handler.go
package settlement

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"gotripviet/internal/auth"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// Register adds the settlement endpoints to the payment service's
// router. Distribution is internal only; wallet views and payouts
// belong to the authenticated partner.
func (h *Handler) Register(r chi.Router, user, internal func(http.Handler) http.Handler) {
	r.Group(func(r chi.Router) {
		r.Use(internal)
		r.Post("/internal/distribute-revenue", h.handleDistribute)
	})

	r.Group(func(r chi.Router) {
		r.Use(user)
		r.Get("/wallet", h.handleWallet)
		r.Post("/wallet/payout", h.handlePayout)
	})
}

func (h *Handler) handleDistribute(w http.ResponseWriter, r *http.Request) {
	var in DistributeInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	breakdown, err := h.service.Distribute(r.Context(), in)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, breakdown)
}

func (h *Handler) handleWallet(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, errors.New("missing identity"))
		return
	}

	info, err := h.service.Wallet(r.Context(), identity.UserID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (h *Handler) handlePayout(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, errors.New("missing identity"))
		return
	}

	var req struct {
		Amount float64 `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	withdrawal, err := h.service.RequestPayout(r.Context(), identity.UserID, req.Amount)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusCreated, withdrawal)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrInvalidAmount):
		return http.StatusBadRequest
	case errors.Is(err, ErrInsufficientBalance):
		return http.StatusConflict
	case errors.Is(err, ErrTransactionNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
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
