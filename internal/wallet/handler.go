// internal/wallet/handler.go
package wallet

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

// Routes mounts the wallet endpoints. The whole surface is
// service-to-service; end users never talk to the wallet directly.
func (h *Handler) Routes(internal func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(internal)
	r.Post("/internal/update", h.handleUpdate)
	r.Get("/internal/{userID}", h.handleGet)
	return r
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID    uuid.UUID `json:"userId"`
		Amount    float64   `json:"amount"`
		Reference string    `json:"reference"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	applied, err := h.service.Update(r.Context(), req.UserID, req.Amount, req.Reference)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, ErrMissingReference) {
			status = http.StatusBadRequest
		}
		http.Error(w, err.Error(), status)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]bool{"applied": applied})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(chi.URLParam(r, "userID"))
	if err != nil {
		http.Error(w, "invalid user id", http.StatusBadRequest)
		return
	}

	account, err := h.service.Get(r.Context(), userID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(account)
}
