// internal/clients/payment_client.go
package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/google/uuid"
)

// PaymentClient talks to the payment adapter service.
type PaymentClient struct {
	baseURL string
	apiKey  string
}

func NewPaymentClient(baseURL, apiKey string) *PaymentClient {
	return &PaymentClient{baseURL: baseURL, apiKey: apiKey}
}

func (c *PaymentClient) PaymentURL(ctx context.Context, bookingID uuid.UUID, amount float64) (string, error) {
	q := url.Values{}
	q.Set("bookingId", bookingID.String())
	q.Set("amount", fmt.Sprintf("%.0f", amount))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/payment/create-url?"+q.Encode(), nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("x-api-key", c.apiKey)

	resp, err := httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", responseError(resp)
	}

	var result struct {
		PaymentURL string `json:"paymentUrl"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}
	return result.PaymentURL, nil
}

func (c *PaymentClient) Refund(ctx context.Context, bookingID uuid.UUID) error {
	body, err := json.Marshal(struct {
		BookingID uuid.UUID `json:"bookingId"`
	}{BookingID: bookingID})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/payment/refund", bytes.NewBuffer(body))
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
