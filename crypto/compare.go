package crypto

import "crypto/subtle"

// ConstantTimeEqual reports whether a and b are equal using a comparison
// whose running time does not depend on where the two strings first
// differ. The reference implementation this system is modeled on used an
// ordinary string compare for password hashes; §9 of the specification
// calls that out explicitly as a correctness requirement to fix, not to
// preserve, so every credential comparison in this module goes through
// here instead of ==.
func ConstantTimeEqual(a, b string) bool {
	if len(a) != len(b) {
		// Still run a comparison so callers can't distinguish a length
		// mismatch from a content mismatch by timing.
		subtle.ConstantTimeCompare([]byte(a), []byte(a))
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
