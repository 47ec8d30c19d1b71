package credential

import "errors"

// Sentinel errors returned by Manager operations. httpapi maps each to
// the caller-supplied redirect target for that failure.
var (
	ErrUsernameTaken    = errors.New("credential: username already registered")
	ErrEmailTaken       = errors.New("credential: email already registered")
	ErrAdminUsername    = errors.New("credential: username is reserved for the administrator")
	ErrAuthFailed       = errors.New("credential: authentication failed")
	ErrTokenInvalid     = errors.New("credential: token not found or expired")
	ErrNotInGracePeriod = errors.New("credential: password change requires the current password")
)
