package events

import (
	"strings"

	"github.com/pulsesignals/contract-relay/internal/constants"
)

// Event is one contract-discovery record as served to API callers.
// Channels are always in canonical form here; legacy labels never leave the
// read boundary.
type Event struct {
	Address   string `json:"address"`
	Channel   string `json:"channel"`
	Timestamp int64  `json:"timestamp"` // epoch ms
}

// NormalizeChannel maps a raw channel label to its canonical form.
// Empty defaults to basic, legacy calls/nitro map to basic/premium, anything
// else is rejected.
func NormalizeChannel(raw string) (string, bool) {
	ch := strings.ToLower(strings.TrimSpace(raw))
	switch ch {
	case "":
		return constants.ChannelBasic, true
	case constants.ChannelBasic, constants.ChannelPremium:
		return ch, true
	case constants.ChannelLegacyCalls:
		return constants.ChannelBasic, true
	case constants.ChannelLegacyNitro:
		return constants.ChannelPremium, true
	default:
		return "", false
	}
}
