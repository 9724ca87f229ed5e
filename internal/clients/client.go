// internal/clients/client.go
package clients

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// httpClient is shared across all service clients. Cross-service calls
// are local network hops; anything slower than this is already broken.
var httpClient = &http.Client{Timeout: 10 * time.Second}

// responseError surfaces the upstream {"error": "..."} body so callers
// see the real reason, not just a status code.
func responseError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error != "" {
		return fmt.Errorf("upstream returned %d: %s", resp.StatusCode, payload.Error)
	}
	return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
}
