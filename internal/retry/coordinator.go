package retry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/pulsesignals/contract-relay/internal/constants"
	"github.com/pulsesignals/contract-relay/internal/moralis"
	"github.com/pulsesignals/contract-relay/internal/storage"
	"github.com/pulsesignals/contract-relay/internal/token"
)

// Coordinator owns the one-shot deferred enrichment retry. A lock key per
// mint guarantees at most one pending retry inside the cool-down window; the
// lock's own TTL is the backstop when a release is lost or the process dies
// with a retry in flight. There is no retry counting and no backoff.
type Coordinator struct {
	kv       storage.KV
	moralis  *moralis.Client
	delay    time.Duration
	lockTTL  time.Duration
	cacheTTL time.Duration
	logger   *logrus.Logger

	// afterFunc defers execution; tests swap it to run synchronously.
	afterFunc func(d time.Duration, f func())
}

type CoordinatorDeps struct {
	KV       storage.KV
	Moralis  *moralis.Client
	Delay    time.Duration
	LockTTL  time.Duration
	CacheTTL time.Duration
	Logger   *logrus.Logger
}

func NewCoordinator(deps CoordinatorDeps) (*Coordinator, error) {
	if deps.KV == nil {
		return nil, fmt.Errorf("kv store is nil")
	}
	if deps.Moralis == nil {
		return nil, fmt.Errorf("moralis client is nil")
	}
	if deps.Delay <= 0 {
		deps.Delay = constants.RetryDelay
	}
	if deps.LockTTL <= 0 {
		deps.LockTTL = constants.RetryLockTTL
	}
	if deps.CacheTTL <= 0 {
		deps.CacheTTL = constants.TokenInfoTTL
	}
	if deps.Logger == nil {
		deps.Logger = logrus.New()
	}
	return &Coordinator{
		kv:       deps.KV,
		moralis:  deps.Moralis,
		delay:    deps.Delay,
		lockTTL:  deps.LockTTL,
		cacheTTL: deps.CacheTTL,
		logger:   deps.Logger,
		afterFunc: func(d time.Duration, f func()) {
			time.AfterFunc(d, f)
		},
	}, nil
}

var _ token.RetryScheduler = (*Coordinator)(nil)

func lockKey(mint string) string {
	return constants.RedisKeyRetryLockPrefix + mint
}

// ScheduleRetry acquires the per-mint lock and, on success, defers exactly
// one enrichment attempt. A held lock or a lock-store failure makes this a
// silent no-op: the retry simply is not scheduled.
func (c *Coordinator) ScheduleRetry(ctx context.Context, mint, cacheKey string) error {
	ok, err := c.kv.SetNX(ctx, lockKey(mint), "1", c.lockTTL)
	if err != nil {
		c.logger.WithError(err).WithField("mint", mint).Warn("retry lock store unavailable")
		return nil
	}
	if !ok {
		return nil
	}

	c.logger.WithFields(logrus.Fields{"mint": mint, "delay": c.delay}).Info("scheduled enrichment retry")
	c.afterFunc(c.delay, func() {
		c.runRetry(context.Background(), mint, cacheKey)
	})
	return nil
}

// runRetry re-queries the secondary provider and patches the cached entry if
// it is still alive. An entry that expired while the retry was pending is
// left alone. The lock is released best-effort in all outcomes.
func (c *Coordinator) runRetry(ctx context.Context, mint, cacheKey string) {
	defer func() {
		if err := c.kv.Del(ctx, lockKey(mint)); err != nil {
			c.logger.WithError(err).WithField("mint", mint).Warn("retry lock release failed, ttl will expire it")
		}
	}()

	meta, err := c.moralis.TokenMetadata(ctx, mint)
	if err != nil {
		if errors.Is(err, moralis.ErrNotFound) {
			c.logger.WithField("mint", mint).Info("metadata still not indexed, giving up")
		} else {
			c.logger.WithError(err).WithField("mint", mint).Warn("enrichment retry failed")
		}
		return
	}

	cached, err := c.kv.Get(ctx, cacheKey)
	if err != nil {
		// Expired or evicted while we waited; do not resurrect it.
		if !errors.Is(err, storage.ErrNotFound) {
			c.logger.WithError(err).WithField("key", cacheKey).Warn("cache read failed during retry")
		}
		return
	}

	var info token.Info
	if err := json.Unmarshal([]byte(cached), &info); err != nil {
		c.logger.WithError(err).WithField("key", cacheKey).Warn("cached entry undecodable, skipping merge")
		return
	}

	token.ApplyMetadata(&info, meta)

	b, err := json.Marshal(&info)
	if err != nil {
		c.logger.WithError(err).Warn("failed to encode merged entry")
		return
	}
	if err := c.kv.SetEx(ctx, cacheKey, string(b), c.cacheTTL); err != nil {
		c.logger.WithError(err).WithField("key", cacheKey).Warn("failed to store merged entry")
		return
	}
	c.logger.WithFields(logrus.Fields{"mint": mint, "logo": meta.Logo != ""}).Info("enrichment retry merged")
}
