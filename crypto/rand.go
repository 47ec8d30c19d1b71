package crypto

import (
	"crypto/rand"
	"fmt"
)

// Rand20Size is the number of random bytes the session, token and salt
// generators draw from the entropy source before hashing.
const Rand20Size = 20

// Rand20 returns 20 cryptographically random bytes. It returns an error
// rather than panicking so callers issuing a session or token can fail
// the request cleanly if the entropy source underfills.
func Rand20() ([]byte, error) {
	b := make([]byte, Rand20Size)
	n, err := rand.Read(b)
	if err != nil {
		return nil, fmt.Errorf("crypto: failed to read random bytes: %w", err)
	}
	if n != Rand20Size {
		return nil, fmt.Errorf("crypto: short read from entropy source: got %d want %d", n, Rand20Size)
	}
	return b, nil
}
