package license

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
)

const keyPrefix = "PLS-"

// GenerateKey produces a key of the form PLS-XXXX-XXXX-XXXX-XXXX-XXXX,
// five groups of four uppercase hex characters from ten random bytes.
func GenerateKey() (string, error) {
	buf := make([]byte, 10)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}

	raw := strings.ToUpper(hex.EncodeToString(buf))
	groups := make([]string, 0, 5)
	for i := 0; i < len(raw); i += 4 {
		groups = append(groups, raw[i:i+4])
	}
	return keyPrefix + strings.Join(groups, "-"), nil
}
