// internal/clients/inventory_client.go
package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"gotripviet/internal/booking"
)

// InventoryClient talks to the availability ledger service.
type InventoryClient struct {
	baseURL string
	apiKey  string
}

func NewInventoryClient(baseURL, apiKey string) *InventoryClient {
	return &InventoryClient{baseURL: baseURL, apiKey: apiKey}
}

func (c *InventoryClient) Get(ctx context.Context, id uuid.UUID) (*booking.InventoryInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/inventory/internal/%s", c.baseURL, id), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("x-api-key", c.apiKey)

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, responseError(resp)
	}

	var info booking.InventoryInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, err
	}
	return &info, nil
}

func (c *InventoryClient) Check(ctx context.Context, lines []booking.Line) error {
	return c.postLines(ctx, "/inventory/check", lines)
}

func (c *InventoryClient) Reserve(ctx context.Context, lines []booking.Line) error {
	return c.postLines(ctx, "/inventory/reserve", lines)
}

func (c *InventoryClient) Release(ctx context.Context, lines []booking.Line) error {
	return c.postLines(ctx, "/inventory/release", lines)
}

func (c *InventoryClient) postLines(ctx context.Context, path string, lines []booking.Line) error {
	body, err := json.Marshal(struct {
		Items []booking.Line `json:"items"`
	}{Items: lines})
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

	if resp.StatusCode != http.StatusOK {
		return responseError(resp)
	}
	return nil
}
