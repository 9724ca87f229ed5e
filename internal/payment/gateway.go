// internal/payment/gateway.go
package payment

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"net/url"
	"sort"
	"strings"
)

// GatewayConfig holds the merchant credentials for the hosted payment
// page. HashSecret signs both the redirect and the return callback.
type GatewayConfig struct {
	TmnCode    string
	HashSecret string
	PayURL     string
	ReturnURL  string
}

// signParams builds the canonical "k=v&k=v" string over the sorted,
// URL-encoded params and signs it with HMAC-SHA512. The gateway
// encodes spaces as '+', which url.QueryEscape matches.
func signParams(params map[string]string, secret string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(k))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(params[k]))
	}

	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write([]byte(b.String()))
	return hex.EncodeToString(mac.Sum(nil))
}

// verifySignature recomputes the signature over the callback params,
// excluding the hash fields themselves, and compares in constant time.
func verifySignature(values url.Values, secret string) bool {
	received := values.Get("vnp_SecureHash")
	if received == "" {
		return false
	}

	params := make(map[string]string, len(values))
	for k := range values {
		if k == "vnp_SecureHash" || k == "vnp_SecureHashType" {
			continue
		}
		params[k] = values.Get(k)
	}

	expected := signParams(params, secret)
	return hmac.Equal([]byte(expected), []byte(strings.ToLower(received)))
}
