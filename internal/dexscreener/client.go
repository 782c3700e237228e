package dexscreener

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client talks to the DexScreener public API: the trading-pairs endpoint and
// the latest token-profiles index.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = "https://api.dexscreener.com"
	}
	if timeout <= 0 {
		timeout = 12 * time.Second
	}
	return &Client{
		BaseURL: baseURL,
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
		return fmt.Sprintf("dexscreener http %d", e.StatusCode)
	}
	return fmt.Sprintf("dexscreener http %d: %s", e.StatusCode, b)
}

// TokenPairs returns the trading pairs for a token address on a chain.
// The first pair is typically the main one.
func (c *Client) TokenPairs(ctx context.Context, chainID, address string) ([]Pair, error) {
	if strings.TrimSpace(chainID) == "" {
		return nil, fmt.Errorf("chainID is required")
	}
	if strings.TrimSpace(address) == "" {
		return nil, fmt.Errorf("address is required")
	}

	u := fmt.Sprintf("%s/tokens/v1/%s/%s", c.BaseURL, url.PathEscape(chainID), url.PathEscape(address))
	var out []Pair
	if err := c.getJSON(ctx, u, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// LatestProfiles returns the most recently updated token profiles.
func (c *Client) LatestProfiles(ctx context.Context) ([]Profile, error) {
	u := c.BaseURL + "/token-profiles/latest/v1"
	var out []Profile
	if err := c.getJSON(ctx, u, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// FindProfile scans the latest profiles for a token address, case-insensitive.
func (c *Client) FindProfile(ctx context.Context, address string) (*Profile, error) {
	profiles, err := c.LatestProfiles(ctx)
	if err != nil {
		return nil, err
	}
	for i := range profiles {
		if strings.EqualFold(profiles[i].TokenAddress, address) {
			return &profiles[i], nil
		}
	}
	return nil, nil
}

func (c *Client) getJSON(ctx context.Context, u string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("accept", "application/json")

	res, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	body, _ := io.ReadAll(res.Body)
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return &HTTPError{StatusCode: res.StatusCode, Body: body}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode dexscreener response: %w", err)
	}
	return nil
}
