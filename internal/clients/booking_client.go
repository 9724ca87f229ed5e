// internal/clients/booking_client.go
package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"gotripviet/internal/payment"
)

// BookingClient lets the payment adapter confirm a booking after a
// verified charge.
type BookingClient struct {
	baseURL string
	apiKey  string
}

func NewBookingClient(baseURL, apiKey string) *BookingClient {
	return &BookingClient{baseURL: baseURL, apiKey: apiKey}
}

func (c *BookingClient) ConfirmPayment(ctx context.Context, bookingID uuid.UUID, info payment.Info) error {
	body, err := json.Marshal(struct {
		BookingID   uuid.UUID    `json:"bookingId"`
		PaymentInfo payment.Info `json:"paymentInfo"`
	}{BookingID: bookingID, PaymentInfo: info})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/bookings/internal/confirm-payment", bytes.NewBuffer(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)

	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return responseError(resp)
	}
	return nil
}
