package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/pulsesignals/contract-relay/internal/constants"
)

type Config struct {
	// HTTP server
	APIAddr string
	APIKey  string
	DevMode bool

	// Redis settings
	RedisAddr string

	// Postgres (license storage)
	DatabaseURL string

	// Upstream providers
	DexScreenerBaseURL string
	MoralisBaseURL     string
	MoralisAPIKey      string

	// HTTP client settings
	HTTPTimeout time.Duration

	// Enrichment cache
	TokenInfoTTL time.Duration

	// Background retry
	RetryDelay   time.Duration
	RetryLockTTL time.Duration

	// Event log retention
	EventLogMaxLen int64

	// License expiry sweep
	ExpirySweepInterval time.Duration
}

func Load() *Config {
	return &Config{
		// HTTP server
		APIAddr: getEnv("API_ADDR", ":4000"),
		APIKey:  getEnv("API_KEY", ""),
		DevMode: getBoolEnv("DEV_MODE", false),

		// Redis
		RedisAddr: getEnv("REDIS_ADDR", "localhost:6379"),

		// Postgres
		DatabaseURL: getEnv("DATABASE_URL", ""),

		// Providers
		DexScreenerBaseURL: getEnv("DEXSCREENER_BASE_URL", "https://api.dexscreener.com"),
		MoralisBaseURL:     getEnv("MORALIS_BASE_URL", "https://solana-gateway.moralis.io"),
		MoralisAPIKey:      getEnv("MORALIS_API_KEY", ""),

		// HTTP
		HTTPTimeout: getDurationEnv("HTTP_TIMEOUT", 12*time.Second),

		// Cache
		TokenInfoTTL: getDurationEnv("TOKEN_INFO_TTL", constants.TokenInfoTTL),

		// Retry
		RetryDelay:   getDurationEnv("RETRY_DELAY", constants.RetryDelay),
		RetryLockTTL: getDurationEnv("RETRY_LOCK_TTL", constants.RetryLockTTL),

		// Events
		EventLogMaxLen: int64(getIntEnv("EVENT_LOG_MAX_LEN", constants.EventLogMaxLen)),

		// Licensing
		ExpirySweepInterval: getDurationEnv("EXPIRY_SWEEP_INTERVAL", time.Hour),
	}
}

// Validate checks settings that have no sane zero value.
func (c *Config) Validate() error {
	if c.APIAddr == "" {
		return fmt.Errorf("API_ADDR must not be empty")
	}
	if c.RedisAddr == "" {
		return fmt.Errorf("REDIS_ADDR must not be empty")
	}
	if c.DatabaseURL == "" && !c.DevMode {
		return fmt.Errorf("DATABASE_URL is required outside dev mode")
	}
	if c.TokenInfoTTL <= 0 {
		return fmt.Errorf("TOKEN_INFO_TTL must be positive")
	}
	if c.RetryDelay <= 0 {
		return fmt.Errorf("RETRY_DELAY must be positive")
	}
	if c.RetryLockTTL <= 0 {
		return fmt.Errorf("RETRY_LOCK_TTL must be positive")
	}
	if c.EventLogMaxLen <= 0 {
		return fmt.Errorf("EVENT_LOG_MAX_LEN must be positive")
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getIntEnv(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getBoolEnv(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}

func getDurationEnv(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}
