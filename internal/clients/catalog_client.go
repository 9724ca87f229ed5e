// internal/clients/catalog_client.go
package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"gotripviet/internal/booking"
)

// CatalogClient talks to the external catalog service.
type CatalogClient struct {
	baseURL string
	apiKey  string
}

func NewCatalogClient(baseURL, apiKey string) *CatalogClient {
	return &CatalogClient{baseURL: baseURL, apiKey: apiKey}
}

func (c *CatalogClient) Product(ctx context.Context, id uuid.UUID) (*booking.ProductInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/products/internal/%s", c.baseURL, id), nil)
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

	var product booking.ProductInfo
	if err := json.NewDecoder(resp.Body).Decode(&product); err != nil {
		return nil, err
	}
	return &product, nil
}

func (c *CatalogClient) ProductsByPartner(ctx context.Context, partnerID uuid.UUID) ([]booking.ProductInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/products/partner/%s?limit=200", c.baseURL, partnerID), nil)
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

	var products []booking.ProductInfo
	if err := json.NewDecoder(resp.Body).Decode(&products); err != nil {
		return nil, err
	}
	return products, nil
}
