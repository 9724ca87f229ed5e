// internal/inventory/handler.go
package inventory

import (
	"context"
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

// Routes mounts the availability ledger endpoints. Admin guards the
// management surface, internal guards the service-to-service surface.
func (h *Handler) Routes(admin, internal func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	r.Get("/product/{productID}", h.handleListForProduct)

	r.Group(func(r chi.Router) {
		r.Use(admin)
		r.Post("/", h.handleCreate)
		r.Patch("/{id}", h.handleUpdate)
		r.Delete("/{id}", h.handleDeactivate)
		r.Post("/events", h.handleCreateEvent)
		r.Post("/events/{id}/toggle", h.handleToggleEvent)
		r.Get("/events", h.handleListEvents)
	})

	r.Group(func(r chi.Router) {
		r.Use(internal)
		r.Get("/internal/{id}", h.handleGetInternal)
		r.Post("/check", h.handleCheck)
		r.Post("/reserve", h.handleReserve)
		r.Post("/release", h.handleRelease)
	})

	return r
}

type linesRequest struct {
	Items []Line `json:"items"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var input CreateItemInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	item, err := h.service.CreateItem(r.Context(), input)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	writeJSON(w, http.StatusCreated, item)
}

func (h *Handler) handleListForProduct(w http.ResponseWriter, r *http.Request) {
	productID, err := uuid.Parse(chi.URLParam(r, "productID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.New("invalid product id"))
		return
	}

	items, err := h.service.ListForProduct(r.Context(), productID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	writeJSON(w, http.StatusOK, items)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.New("invalid inventory id"))
		return
	}

	var input UpdateItemInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	item, err := h.service.UpdateItem(r.Context(), id, input)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}

	writeJSON(w, http.StatusOK, item)
}

func (h *Handler) handleDeactivate(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.New("invalid inventory id"))
		return
	}

	if err := h.service.DeactivateItem(r.Context(), id); err != nil {
		writeError(w, statusFor(err), err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "inventory item deactivated"})
}

func (h *Handler) handleGetInternal(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.New("invalid inventory id"))
		return
	}

	item, err := h.service.GetItem(r.Context(), id)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}

	writeJSON(w, http.StatusOK, item)
}

func (h *Handler) handleCheck(w http.ResponseWriter, r *http.Request) {
	h.handleLines(w, r, h.service.Check)
}

func (h *Handler) handleReserve(w http.ResponseWriter, r *http.Request) {
	h.handleLines(w, r, h.service.Reserve)
}

func (h *Handler) handleRelease(w http.ResponseWriter, r *http.Request) {
	h.handleLines(w, r, h.service.Release)
}

func (h *Handler) handleLines(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, lines []Line) error) {
	var req linesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	if err := op(r.Context(), req.Items); err != nil {
		writeError(w, statusFor(err), err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *Handler) handleCreateEvent(w http.ResponseWriter, r *http.Request) {
	var event PricingEvent
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	created, err := h.service.CreateEvent(r.Context(), event)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

func (h *Handler) handleToggleEvent(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.New("invalid event id"))
		return
	}

	event, err := h.service.ToggleEvent(r.Context(), id)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}

	writeJSON(w, http.StatusOK, event)
}

func (h *Handler) handleListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.service.ListEvents(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

func statusFor(err error) int {
	var insufficient *InsufficientStockError
	switch {
	case errors.Is(err, ErrItemNotFound):
		return http.StatusNotFound
	case errors.As(err, &insufficient):
		return http.StatusConflict
	case errors.Is(err, ErrItemInactive):
		return http.StatusConflict
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
	var insufficient *InsufficientStockError
	body := map[string]interface{}{"error": err.Error()}
	if errors.As(err, &insufficient) {
		body["inventoryId"] = insufficient.InventoryID
		body["available"] = insufficient.Available
		body["requested"] = insufficient.Requested
	}
	writeJSON(w, status, body)
}
