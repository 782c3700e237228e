package token

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pulsesignals/contract-relay/internal/dexscreener"
	"github.com/pulsesignals/contract-relay/internal/moralis"
	"github.com/pulsesignals/contract-relay/internal/storage/memory"
)

const testMint = "7xKXtg2CW87d97TXJSDpbD5jBkheTqA83TZRuJosgAsU"

type stubScheduler struct {
	calls   atomic.Int64
	lastKey string
	mint    string
}

func (s *stubScheduler) ScheduleRetry(_ context.Context, mint, cacheKey string) error {
	s.calls.Add(1)
	s.mint = mint
	s.lastKey = cacheKey
	return nil
}

type providerStubs struct {
	pairCalls    atomic.Int64
	profileCalls atomic.Int64
	moralisCalls atomic.Int64

	pairsBody    string
	profilesBody string

	moralisStatus int
	moralisBody   string
}

func (p *providerStubs) servers(t *testing.T) (*dexscreener.Client, *moralis.Client) {
	t.Helper()

	dexSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path == "/token-profiles/latest/v1" {
			p.profileCalls.Add(1)
			_, _ = w.Write([]byte(p.profilesBody))
			return
		}
		p.pairCalls.Add(1)
		_, _ = w.Write([]byte(p.pairsBody))
	}))
	t.Cleanup(dexSrv.Close)

	moralisSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p.moralisCalls.Add(1)
		status := p.moralisStatus
		if status == 0 {
			status = http.StatusOK
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(p.moralisBody))
	}))
	t.Cleanup(moralisSrv.Close)

	return dexscreener.NewClient(dexSrv.URL, time.Second),
		moralis.NewClient(moralisSrv.URL, "", time.Second)
}

func defaultStubs() *providerStubs {
	return &providerStubs{
		pairsBody: fmt.Sprintf(`[{
			"chainId": "solana",
			"dexId": "raydium",
			"pairAddress": "PairAddr111",
			"baseToken": {"address": "%s", "name": "Pair Name", "symbol": "PAIR"},
			"quoteToken": {"address": "QuoteMint", "name": "SOL", "symbol": "SOL"},
			"priceUsd": "0.042",
			"volume": {"h24": 1000},
			"priceChange": {"h24": 5.5},
			"liquidity": {"usd": 2000},
			"fdv": 500000
		}]`, testMint),
		profilesBody: fmt.Sprintf(`[{
			"tokenAddress": "%s",
			"name": "Profile Name",
			"symbol": "PROF",
			"icon": "https://img/profile.png",
			"description": "a token"
		}]`, testMint),
		moralisBody: fmt.Sprintf(`{
			"mint": "%s",
			"name": "Meta Name",
			"symbol": "META",
			"logo": "https://img/logo.png",
			"tokenStandard": "spl-token"
		}`, testMint),
	}
}

func newTestCache(t *testing.T, stubs *providerStubs, sched RetryScheduler) (*Cache, *memory.Store) {
	t.Helper()

	dex, mor := stubs.servers(t)
	kv := memory.NewStore(10)

	cache, err := NewCache(CacheDeps{
		KV:          kv,
		DexScreener: dex,
		Moralis:     mor,
		Retry:       sched,
		TTL:         5 * time.Minute,
	})
	require.NoError(t, err)
	return cache, kv
}

func TestGetMergesProviders(t *testing.T) {
	stubs := defaultStubs()
	cache, _ := newTestCache(t, stubs, nil)

	info, err := cache.Get(context.Background(), testMint)
	require.NoError(t, err)

	// Profile identity wins; market data comes from the best pair.
	assert.Equal(t, "Profile Name", info.Name)
	assert.Equal(t, "PROF", info.Symbol)
	assert.Equal(t, "0.042", info.Price)
	assert.Equal(t, "raydium", info.DexID)
	assert.Equal(t, "PairAddr111", info.PairAddress)
	require.NotNil(t, info.Volume24h)
	assert.InDelta(t, 1000, *info.Volume24h, 0.001)

	// No marketCap upstream, fdv stands in.
	require.NotNil(t, info.MarketCap)
	assert.InDelta(t, 500000, *info.MarketCap, 0.001)

	// Secondary logo beats the profile icon.
	assert.Equal(t, "https://img/logo.png", info.Icon)
	require.NotNil(t, info.Moralis)
	assert.Equal(t, "spl-token", info.Moralis.TokenStandard)
}

func TestGetCacheHitSkipsProviders(t *testing.T) {
	stubs := defaultStubs()
	cache, _ := newTestCache(t, stubs, nil)

	first, err := cache.Get(context.Background(), testMint)
	require.NoError(t, err)

	second, err := cache.Get(context.Background(), testMint)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int64(1), stubs.pairCalls.Load(), "second call must not hit the pairs endpoint")
	assert.Equal(t, int64(1), stubs.profileCalls.Load(), "second call must not hit the profiles endpoint")
	assert.Equal(t, int64(1), stubs.moralisCalls.Load(), "second call must not hit the metadata endpoint")
}

func TestGetExpiredEntryRefetches(t *testing.T) {
	stubs := defaultStubs()
	cache, kv := newTestCache(t, stubs, nil)

	now := time.Now()
	kv.Now = func() time.Time { return now }

	_, err := cache.Get(context.Background(), testMint)
	require.NoError(t, err)

	now = now.Add(6 * time.Minute)

	_, err = cache.Get(context.Background(), testMint)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stubs.pairCalls.Load())
}

func TestGetNormalizesNoisyInput(t *testing.T) {
	stubs := defaultStubs()
	cache, _ := newTestCache(t, stubs, nil)

	info, err := cache.Get(context.Background(), "check out this token: "+testMint+"!!")
	require.NoError(t, err)
	assert.Equal(t, testMint, info.Address)

	// The noisy form and the clean form share one cache entry.
	_, err = cache.Get(context.Background(), testMint)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stubs.pairCalls.Load())
}

func TestGetEmptyAddress(t *testing.T) {
	stubs := defaultStubs()
	cache, _ := newTestCache(t, stubs, nil)

	_, err := cache.Get(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrEmptyAddress)
}

func TestGetSchedulesRetryOnNotFound(t *testing.T) {
	stubs := defaultStubs()
	stubs.moralisStatus = http.StatusNotFound
	stubs.moralisBody = `{"message": "not found"}`

	sched := &stubScheduler{}
	cache, _ := newTestCache(t, stubs, sched)

	info, err := cache.Get(context.Background(), testMint)
	require.NoError(t, err, "not-found from the secondary provider is not an error")
	assert.Nil(t, info.Moralis)
	assert.Equal(t, "https://img/profile.png", info.Icon, "primary icon survives")

	assert.Equal(t, int64(1), sched.calls.Load())
	assert.Equal(t, testMint, sched.mint, "retry keyed by the pair's base token mint")
	assert.Equal(t, CacheKey(testMint), sched.lastKey)
}

func TestGetSecondaryServerErrorNoRetry(t *testing.T) {
	stubs := defaultStubs()
	stubs.moralisStatus = http.StatusBadGateway
	stubs.moralisBody = `boom`

	sched := &stubScheduler{}
	cache, _ := newTestCache(t, stubs, sched)

	info, err := cache.Get(context.Background(), testMint)
	require.NoError(t, err)
	assert.Nil(t, info.Moralis)
	assert.Equal(t, int64(0), sched.calls.Load(), "only not-found schedules a retry")
}

func TestGetDegradesWhenProvidersDown(t *testing.T) {
	stubs := defaultStubs()
	stubs.pairsBody = `[]`
	stubs.profilesBody = `[]`
	stubs.moralisStatus = http.StatusInternalServerError
	stubs.moralisBody = `{}`

	cache, _ := newTestCache(t, stubs, nil)

	info, err := cache.Get(context.Background(), testMint)
	require.NoError(t, err, "provider downtime must not fail the request")
	assert.Equal(t, testMint, info.Address)
	assert.Empty(t, info.Name)
	assert.Nil(t, info.BestPair)
	assert.Empty(t, info.Price)
}

func TestGetDiscardsUndecodableCacheEntry(t *testing.T) {
	stubs := defaultStubs()
	cache, kv := newTestCache(t, stubs, nil)

	require.NoError(t, kv.SetEx(context.Background(), CacheKey(testMint), "{not json", time.Minute))

	info, err := cache.Get(context.Background(), testMint)
	require.NoError(t, err)
	assert.Equal(t, "Profile Name", info.Name)
	assert.Equal(t, int64(1), stubs.pairCalls.Load(), "bad entry triggers a refetch")
}
