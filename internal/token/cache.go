package token

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/pulsesignals/contract-relay/internal/constants"
	"github.com/pulsesignals/contract-relay/internal/dexscreener"
	"github.com/pulsesignals/contract-relay/internal/moralis"
	"github.com/pulsesignals/contract-relay/internal/storage"
)

// ErrEmptyAddress is returned when the caller supplied nothing to look up.
var ErrEmptyAddress = errors.New("token address is required")

// RetryScheduler schedules the one-shot deferred enrichment attempt for a
// mint whose secondary metadata was not found yet.
type RetryScheduler interface {
	ScheduleRetry(ctx context.Context, mint, cacheKey string) error
}

// Cache serves merged token info with a fixed TTL. On a miss both providers
// are queried best-effort; neither one going down fails the request, it just
// thins out the result.
type Cache struct {
	kv      storage.KV
	dex     *dexscreener.Client
	moralis *moralis.Client
	retry   RetryScheduler
	ttl     time.Duration
	logger  *logrus.Logger
}

type CacheDeps struct {
	KV          storage.KV
	DexScreener *dexscreener.Client
	Moralis     *moralis.Client
	Retry       RetryScheduler
	TTL         time.Duration
	Logger      *logrus.Logger
}

func NewCache(deps CacheDeps) (*Cache, error) {
	if deps.KV == nil {
		return nil, fmt.Errorf("kv store is nil")
	}
	if deps.DexScreener == nil {
		return nil, fmt.Errorf("dexscreener client is nil")
	}
	if deps.Moralis == nil {
		return nil, fmt.Errorf("moralis client is nil")
	}
	if deps.TTL <= 0 {
		deps.TTL = constants.TokenInfoTTL
	}
	if deps.Logger == nil {
		deps.Logger = logrus.New()
	}
	return &Cache{
		kv:      deps.KV,
		dex:     deps.DexScreener,
		moralis: deps.Moralis,
		retry:   deps.Retry,
		ttl:     deps.TTL,
		logger:  deps.Logger,
	}, nil
}

// CacheKey returns the cache key for a normalized token address.
func CacheKey(address string) string {
	return constants.RedisKeyTokenInfoPrefix + address
}

// Get returns the merged token info for an address, from cache when fresh.
// A cached entry is returned as-is, no refresh. A cache-store read failure
// degrades to a full re-fetch.
func (c *Cache) Get(ctx context.Context, rawAddress string) (*Info, error) {
	address := NormalizeAddress(rawAddress)
	if address == "" {
		return nil, ErrEmptyAddress
	}
	key := CacheKey(address)

	if cached, err := c.kv.Get(ctx, key); err == nil {
		var info Info
		if err := json.Unmarshal([]byte(cached), &info); err == nil {
			return &info, nil
		}
		c.logger.WithField("key", key).Warn("discarding undecodable cache entry")
	} else if !errors.Is(err, storage.ErrNotFound) {
		c.logger.WithError(err).Warn("cache read failed, refetching")
	}

	info := c.fetch(ctx, address, key)

	if b, err := json.Marshal(info); err == nil {
		if err := c.kv.SetEx(ctx, key, string(b), c.ttl); err != nil {
			c.logger.WithError(err).Warn("cache write failed")
		}
	}

	return info, nil
}

// fetch builds the merged record from both providers. Every upstream call is
// best-effort; failures degrade to absent fields.
func (c *Cache) fetch(ctx context.Context, address, cacheKey string) *Info {
	info := &Info{Address: address, Pairs: []dexscreener.Pair{}}

	profile, err := c.dex.FindProfile(ctx, address)
	if err != nil {
		c.logger.WithError(err).WithField("address", address).Warn("profile lookup failed")
	}
	info.applyProfile(profile)

	pairs, err := c.dex.TokenPairs(ctx, constants.ChainID, address)
	if err != nil {
		c.logger.WithError(err).WithField("address", address).Warn("pairs lookup failed")
	}
	if len(pairs) > 0 {
		info.Pairs = pairs
		info.applyBestPair(&pairs[0])
	}

	c.enrich(ctx, info, cacheKey)
	return info
}

// enrich queries the secondary provider for logo and metadata. A not-found
// answer schedules the one-shot deferred retry; any other failure is logged
// and dropped.
func (c *Cache) enrich(ctx context.Context, info *Info, cacheKey string) {
	mint := info.MintAddress()

	meta, err := c.moralis.TokenMetadata(ctx, mint)
	switch {
	case err == nil:
		ApplyMetadata(info, meta)
		if meta.Logo == "" {
			c.logger.WithField("mint", mint).Warn("secondary provider returned no logo")
		}
	case errors.Is(err, moralis.ErrNotFound):
		if c.retry == nil {
			return
		}
		if err := c.retry.ScheduleRetry(ctx, mint, cacheKey); err != nil {
			c.logger.WithError(err).WithField("mint", mint).Warn("failed to schedule enrichment retry")
		}
	default:
		c.logger.WithError(err).WithField("mint", mint).Warn("secondary metadata fetch failed")
	}
}
