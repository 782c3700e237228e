package dexscreener

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenPairs(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{
				"chainId": "solana",
				"dexId": "raydium",
				"pairAddress": "PairAddr111",
				"baseToken": {"address": "Mint111", "name": "Token One", "symbol": "ONE"},
				"quoteToken": {"address": "So11111111111111111111111111111111111111112", "name": "Wrapped SOL", "symbol": "SOL"},
				"priceUsd": "0.0123",
				"volume": {"h24": 45678.9},
				"priceChange": {"h24": -3.2},
				"liquidity": {"usd": 12345.6},
				"fdv": 1000000,
				"marketCap": 900000
			}
		]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	pairs, err := c.TokenPairs(context.Background(), "solana", "Mint111")
	require.NoError(t, err)

	assert.Equal(t, "/tokens/v1/solana/Mint111", gotPath)
	require.Len(t, pairs, 1)

	p := pairs[0]
	assert.Equal(t, "raydium", p.DexID)
	assert.Equal(t, "PairAddr111", p.PairAddress)
	assert.Equal(t, "Mint111", p.BaseToken.Address)
	assert.Equal(t, "0.0123", p.PriceUsd)
	require.NotNil(t, p.Volume)
	assert.InDelta(t, 45678.9, *p.Volume.H24, 0.001)
	require.NotNil(t, p.PriceChange)
	assert.InDelta(t, -3.2, *p.PriceChange.H24, 0.001)
	require.NotNil(t, p.Liquidity)
	assert.InDelta(t, 12345.6, *p.Liquidity.USD, 0.001)
	require.NotNil(t, p.MarketCap)
	assert.InDelta(t, 900000, *p.MarketCap, 0.001)
}

func TestTokenPairsValidation(t *testing.T) {
	c := NewClient("http://localhost:0", time.Second)

	_, err := c.TokenPairs(context.Background(), "", "Mint111")
	assert.Error(t, err)

	_, err = c.TokenPairs(context.Background(), "solana", "")
	assert.Error(t, err)
}

func TestLatestProfiles(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/token-profiles/latest/v1", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"tokenAddress": "Mint111", "name": "Token One", "symbol": "ONE", "icon": "https://img/one.png"},
			{"tokenAddress": "Mint222", "name": "Token Two", "symbol": "TWO"}
		]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	profiles, err := c.LatestProfiles(context.Background())
	require.NoError(t, err)
	require.Len(t, profiles, 2)
	assert.Equal(t, "https://img/one.png", profiles[0].Icon)
}

func TestFindProfileCaseInsensitive(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"tokenAddress": "MiNt111", "name": "Token One"}]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)

	p, err := c.FindProfile(context.Background(), "mint111")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "Token One", p.Name)

	p, err = c.FindProfile(context.Background(), "absent")
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestHTTPErrorSurfacesStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	_, err := c.TokenPairs(context.Background(), "solana", "Mint111")
	require.Error(t, err)

	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusTooManyRequests, httpErr.StatusCode)
}
