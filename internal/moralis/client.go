package moralis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrNotFound is returned when the gateway has no metadata for a mint.
// Callers treat this differently from other failures: it is the signal that
// a deferred retry may pick the token up once the gateway indexes it.
var ErrNotFound = errors.New("token metadata not found")

// Client talks to the Moralis Solana gateway metadata endpoint.
type Client struct {
	BaseURL string
	APIKey  string
	Network string
	HTTP    *http.Client
}

func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = "https://solana-gateway.moralis.io"
	}
	if timeout <= 0 {
		timeout = 12 * time.Second
	}
	return &Client{
		BaseURL: baseURL,
		APIKey:  strings.TrimSpace(apiKey),
		Network: "mainnet",
		HTTP: &http.Client{
			Timeout: timeout,
		},
	}
}

type HTTPError struct {
	StatusCode int
	Body       []byte
}

func (e *HTTPError) Error() string {
	b := strings.TrimSpace(string(e.Body))
	if b == "" {
		return fmt.Sprintf("moralis http %d", e.StatusCode)
	}
	return fmt.Sprintf("moralis http %d: %s", e.StatusCode, b)
}

// TokenMetadata fetches the metadata record for a mint. A 404 maps to
// ErrNotFound; any other non-2xx status maps to HTTPError.
func (c *Client) TokenMetadata(ctx context.Context, mint string) (*TokenMetadata, error) {
	if strings.TrimSpace(mint) == "" {
		return nil, fmt.Errorf("mint is required")
	}

	u := fmt.Sprintf("%s/token/%s/%s/metadata", c.BaseURL, url.PathEscape(c.Network), url.PathEscape(mint))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("accept", "application/json")
	if c.APIKey != "" {
		req.Header.Set("X-API-Key", c.APIKey)
	}

	res, err := c.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	body, _ := io.ReadAll(res.Body)
	if res.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return nil, &HTTPError{StatusCode: res.StatusCode, Body: body}
	}

	var out TokenMetadata
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("failed to decode moralis metadata response: %w", err)
	}
	return &out, nil
}
