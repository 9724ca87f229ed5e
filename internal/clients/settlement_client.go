// internal/clients/settlement_client.go
package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
)

// SettlementClient triggers revenue distribution on the payment
// service. Distribution is idempotent server-side; retrying is safe.
type SettlementClient struct {
	baseURL string
	apiKey  string
}

func NewSettlementClient(baseURL, apiKey string) *SettlementClient {
	return &SettlementClient{baseURL: baseURL, apiKey: apiKey}
}

func (c *SettlementClient) Distribute(ctx context.Context, bookingID, partnerID uuid.UUID, gross, discount float64) error {
	body, err := json.Marshal(struct {
		BookingID uuid.UUID `json:"bookingId"`
		PartnerID uuid.UUID `json:"partnerId"`
		Gross     float64   `json:"gross"`
		Discount  float64   `json:"discount"`
	}{BookingID: bookingID, PartnerID: partnerID, Gross: gross, Discount: discount})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/payment/internal/distribute-revenue", bytes.NewBuffer(body))
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
