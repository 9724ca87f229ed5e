// internal/clients/promotion_client.go
package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"gotripviet/internal/booking"
)

// PromotionClient talks to the promotion ledger service.
type PromotionClient struct {
	baseURL string
	apiKey  string
}

func NewPromotionClient(baseURL, apiKey string) *PromotionClient {
	return &PromotionClient{baseURL: baseURL, apiKey: apiKey}
}

func (c *PromotionClient) Quote(ctx context.Context, code string, subtotal float64) (*booking.PromotionQuote, error) {
	body, err := json.Marshal(struct {
		Code     string  `json:"code"`
		Subtotal float64 `json:"subtotal"`
	}{Code: code, Subtotal: subtotal})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/promotions/quote", bytes.NewBuffer(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, responseError(resp)
	}

	var quote struct {
		PromotionID uuid.UUID `json:"promotionId"`
		Discount    float64   `json:"discount"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&quote); err != nil {
		return nil, err
	}
	return &booking.PromotionQuote{PromotionID: quote.PromotionID, Discount: quote.Discount}, nil
}

func (c *PromotionClient) Redeem(ctx context.Context, id uuid.UUID) error {
	body, err := json.Marshal(struct {
		ID uuid.UUID `json:"id"`
	}{ID: id})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/promotions/internal/redeem", bytes.NewBuffer(body))
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
