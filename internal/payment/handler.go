// internal/payment/handler.go
package payment

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// Routes mounts the payment adapter endpoints. The gateway return is
// public by necessity; the signature check is its authentication.
func (h *Handler) Routes(admin, internal func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	r.Get("/vnpay-return", h.handleGatewayReturn)

	r.Group(func(r chi.Router) {
		r.Use(internal)
		r.Get("/create-url", h.handleCreateURL)
		r.Post("/refund", h.handleRefund)
	})

	r.Group(func(r chi.Router) {
		r.Use(admin)
		r.Get("/", h.handleList)
		r.Get("/booking/{bookingID}", h.handleListForBooking)
	})

	return r
}

func (h *Handler) handleCreateURL(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	bookingID, err := uuid.Parse(q.Get("bookingId"))
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.New("invalid booking id"))
		return
	}
	amount, err := strconv.ParseFloat(q.Get("amount"), 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.New("invalid amount"))
		return
	}

	paymentURL, err := h.service.CreateURL(r.Context(), CreateURLInput{
		BookingID: bookingID,
		Amount:    amount,
		BankCode:  q.Get("bankCode"),
		Locale:    q.Get("language"),
		ClientIP:  clientIP(r),
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"paymentUrl": paymentURL})
}

func (h *Handler) handleGatewayReturn(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.HandleGatewayReturn(r.Context(), r.URL.Query())
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, ErrInvalidSignature) {
			status = http.StatusBadRequest
		}
		writeError(w, status, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) handleRefund(w http.ResponseWriter, r *http.Request) {
	var req struct {
		BookingID uuid.UUID `json:"bookingId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	refunded, err := h.service.Refund(r.Context(), req.BookingID)
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, ErrNoRefundablePayment):
			status = http.StatusNotFound
		case errors.Is(err, ErrUnsupportedGateway):
			status = http.StatusUnprocessableEntity
		}
		writeError(w, status, err)
		return
	}
	writeJSON(w, http.StatusOK, refunded)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))

	result, err := h.service.List(r.Context(), q.Get("status"), page, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) handleListForBooking(w http.ResponseWriter, r *http.Request) {
	bookingID, err := uuid.Parse(chi.URLParam(r, "bookingID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.New("invalid booking id"))
		return
	}

	payments, err := h.service.ListForBooking(r.Context(), bookingID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, payments)
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return fwd
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
