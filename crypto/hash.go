package crypto

import (
	"crypto/sha1"
	"encoding/hex"
	"regexp"
)

// HexLen is the length in characters of a SHA-1 hex digest, and therefore
// of every session id, token and password salt in this system.
const HexLen = 40

// hexPattern matches the invariant every cookie-borne session id, password
// hash, salt and verification/reset token must satisfy.
var hexPattern = regexp.MustCompile(`^[0-9a-f]{40}$`)

// IsHex40 reports whether s is exactly 40 lowercase hex characters.
func IsHex40(s string) bool {
	return hexPattern.MatchString(s)
}

// Sha1Hex returns the lowercase hex encoding of the SHA-1 digest of b.
// SHA-1 is weak by modern standards but is preserved here for on-disk
// compatibility with the legacy schema this system's hashes and ids live
// in.
func Sha1Hex(b []byte) string {
	sum := sha1.Sum(b)
	return hex.EncodeToString(sum[:])
}

// PasswordHash computes the stored password hash for a given plaintext
// password, per-user salt, and deployment-wide confounder (pepper):
//
//	sha1_hex(password + "-" + confounder + "-" + salt)
//
// It is deterministic given its three inputs, which is required for both
// hash generation at registration/change time and verification at login.
func PasswordHash(password, confounder, salt string) string {
	return Sha1Hex([]byte(password + "-" + confounder + "-" + salt))
}

// NewSalt returns a fresh 40-char hex salt for a new or changed password.
func NewSalt() (string, error) {
	return newHexID()
}

// NewToken returns a fresh 40-char hex verification/reset token.
func NewToken() (string, error) {
	return newHexID()
}

// NewSessionID returns a fresh 40-char hex session id.
func NewSessionID() (string, error) {
	return newHexID()
}

func newHexID() (string, error) {
	b, err := Rand20()
	if err != nil {
		return "", err
	}
	return Sha1Hex(b), nil
}
