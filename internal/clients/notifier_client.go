// internal/clients/notifier_client.go
package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"net/http"

	"gotripviet/internal/booking"
)

// NotifierClient sends traveller emails through the external
// notification service. A zero baseURL disables sending, which keeps
// local development quiet.
type NotifierClient struct {
	baseURL string
	apiKey  string
}

func NewNotifierClient(baseURL, apiKey string) *NotifierClient {
	return &NotifierClient{baseURL: baseURL, apiKey: apiKey}
}

func (c *NotifierClient) PaymentSucceeded(ctx context.Context, b *booking.Booking) error {
	return c.send(ctx, "/notify/payment-success", b)
}

func (c *NotifierClient) BookingCancelled(ctx context.Context, b *booking.Booking) error {
	return c.send(ctx, "/notify/booking-cancelled", b)
}

func (c *NotifierClient) send(ctx context.Context, path string, b *booking.Booking) error {
	if c.baseURL == "" {
		log.Printf("notifier disabled, skipping %s for booking %s", path, b.ID)
		return nil
	}
	if b.Contact == nil || b.Contact.Email == "" {
		return nil
	}

	body, err := json.Marshal(struct {
		To      string           `json:"to"`
		Booking *booking.Booking `json:"booking"`
	}{To: b.Contact.Email, Booking: b})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewBuffer(body))
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

	if resp.StatusCode >= http.StatusMultipleChoices {
		return responseError(resp)
	}
	return nil
}
