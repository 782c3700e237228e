package license

import (
	"context"
	"errors"
	"time"
)

// Tiers accepted at purchase time. Each maps to a fixed validity window.
const (
	TierMonthly = "monthly"
	TierYearly  = "yearly"
)

const (
	MonthlyDuration = 30 * 24 * time.Hour
	YearlyDuration  = 365 * 24 * time.Hour
)

var (
	ErrNotFound    = errors.New("license not found")
	ErrInvalidTier = errors.New("invalid license tier")
)

// License is one issued key with its validity window.
type License struct {
	Key       string    `json:"licenseKey"`
	Tier      string    `json:"tier"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
	Revoked   bool      `json:"revoked"`
}

// Status is the validity check result for a key. Active is false for
// unknown, expired and revoked keys alike; callers cannot tell which.
type Status struct {
	Active    bool       `json:"active"`
	Tier      string     `json:"tier,omitempty"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

// Store persists issued licenses.
type Store interface {
	// Purchase issues a new key for the given tier.
	Purchase(ctx context.Context, tier string) (*License, error)
	// Status reports whether a key is currently valid.
	Status(ctx context.Context, key string) (*Status, error)
	// RevokeExpired marks every license past its expiry as revoked and
	// returns how many rows changed.
	RevokeExpired(ctx context.Context) (int64, error)
	Close()
}

// DurationForTier maps a tier name to its validity window.
func DurationForTier(tier string) (time.Duration, error) {
	switch tier {
	case TierMonthly:
		return MonthlyDuration, nil
	case TierYearly:
		return YearlyDuration, nil
	default:
		return 0, ErrInvalidTier
	}
}
