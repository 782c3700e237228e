package token

import (
	"regexp"
	"strings"

	"github.com/mr-tron/base58"
)

// Solana addresses are base58 strings of 32 to 44 characters that decode to
// a 32-byte public key.
var addressRe = regexp.MustCompile(`[1-9A-HJ-NP-Za-km-z]{32,44}`)

// NormalizeAddress extracts a canonical token address from a possibly noisy
// input ("check out this token: <mint>!!"). Candidates are the base58-shaped
// substrings, longest first; the first one that decodes to a 32-byte key
// wins. When nothing decodes, the longest shaped substring is still used,
// and when nothing even matches the shape the trimmed raw input is returned
// so garbage stays a cache key rather than an error.
func NormalizeAddress(raw string) string {
	trimmed := strings.TrimSpace(raw)

	candidates := addressRe.FindAllString(trimmed, -1)
	if len(candidates) == 0 {
		return trimmed
	}

	best := candidates[0]
	for _, c := range candidates {
		if len(c) > len(best) {
			best = c
		}
	}
	for _, c := range candidates {
		if len(c) < len(best) {
			continue
		}
		if b, err := base58.Decode(c); err == nil && len(b) == 32 {
			return c
		}
	}
	for _, c := range candidates {
		if b, err := base58.Decode(c); err == nil && len(b) == 32 {
			return c
		}
	}
	return best
}
