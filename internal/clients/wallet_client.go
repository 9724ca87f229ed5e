// internal/clients/wallet_client.go
package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"
)

// WalletClient talks to the wallet balance service.
type WalletClient struct {
	baseURL string
	apiKey  string
}

func NewWalletClient(baseURL, apiKey string) *WalletClient {
	return &WalletClient{baseURL: baseURL, apiKey: apiKey}
}

func (c *WalletClient) Update(ctx context.Context, userID uuid.UUID, amount float64, reference string) (bool, error) {
	body, err := json.Marshal(struct {
		UserID    uuid.UUID `json:"userId"`
		Amount    float64   `json:"amount"`
		Reference string    `json:"reference"`
	}{UserID: userID, Amount: amount, Reference: reference})
	if err != nil {
		return false, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/wallet/internal/update", bytes.NewBuffer(body))
	if err != nil {
		return false, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)

	resp, err := httpClient.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, responseError(resp)
	}

	var result struct {
		Applied bool `json:"applied"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return false, err
	}
	return result.Applied, nil
}

func (c *WalletClient) Balance(ctx context.Context, userID uuid.UUID) (float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/wallet/internal/%s", c.baseURL, userID), nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("x-api-key", c.apiKey)

	resp, err := httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, responseError(resp)
	}

	var account struct {
		Balance float64 `json:"balance"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&account); err != nil {
		return 0, err
	}
	return account.Balance, nil
}
