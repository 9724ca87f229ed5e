// internal/promotion/handler.go
package promotion

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// Routes mounts the promotion ledger endpoints.
func (h *Handler) Routes(admin, internal func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	r.Get("/code/{code}", h.handleGetByCode)

	r.Group(func(r chi.Router) {
		r.Use(admin)
		r.Post("/", h.handleCreate)
		r.Get("/", h.handleList)
		r.Post("/{id}/toggle", h.handleToggle)
	})

	r.Group(func(r chi.Router) {
		r.Use(internal)
		r.Post("/quote", h.handleQuote)
		r.Post("/internal/redeem", h.handleRedeem)
	})

	return r
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var promo Promotion
	if err := json.NewDecoder(r.Body).Decode(&promo); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	created, err := h.service.Create(r.Context(), promo)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	promos, err := h.service.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, promos)
}

func (h *Handler) handleGetByCode(w http.ResponseWriter, r *http.Request) {
	promo, err := h.service.GetByCode(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, promo)
}

func (h *Handler) handleToggle(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.New("invalid promotion id"))
		return
	}

	promo, err := h.service.Toggle(r.Context(), id)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, promo)
}

func (h *Handler) handleQuote(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code     string  `json:"code"`
		Subtotal float64 `json:"subtotal"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	quote, err := h.service.Quote(r.Context(), req.Code, req.Subtotal)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, quote)
}

func (h *Handler) handleRedeem(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID uuid.UUID `json:"id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	if err := h.service.Redeem(r.Context(), req.ID); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func statusFor(err error) int {
	var minSpend *MinSpendError
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrExhausted), errors.Is(err, ErrExpired), errors.Is(err, ErrNotYetValid):
		return http.StatusConflict
	case errors.As(err, &minSpend):
		return http.StatusUnprocessableEntity
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
