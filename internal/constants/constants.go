package constants

import "time"

// Redis keys
const (
	RedisKeyEventLog        = "contract_events"
	RedisKeyOriginsLegacy   = "contract_origins"
	RedisKeyOriginsPrefix   = "contract_origins:"
	RedisKeyTokenInfoPrefix = "token_info:"
	RedisKeyRetryLockPrefix = "retry-lock:"
)

// Redis Pub/Sub channels
const (
	PubSubChannelContracts = "new_contracts"
)

// Limits
const (
	// EventLogMaxLen caps the ordered contract-event list. The producer keeps
	// prepending; anything past the cap is trimmed oldest-first.
	EventLogMaxLen = 500
)

// TTLs and retry timing
const (
	TokenInfoTTL = 5 * time.Minute
	RetryLockTTL = 5 * time.Minute
	RetryDelay   = 15 * time.Second
)

// Chain identifiers
const (
	ChainID = "solana"
)

// Channel labels
const (
	ChannelBasic   = "basic"
	ChannelPremium = "premium"

	// Legacy labels still present in old producer records; normalized on read.
	ChannelLegacyCalls = "calls"
	ChannelLegacyNitro = "nitro"
)
