package db

import "context"

// Store is the persistence contract the rest of this module depends on.
// A concrete backend (see db/sqlitestore) must satisfy it. Every
// operation takes a context so callers can bound slow disk I/O; the
// reference implementation this system is modeled on assumed the
// embedded store was always fast, but a context-aware interface costs
// nothing and matches how every other blocking call in this module is
// shaped.
type Store interface {
	// Users

	UserGet(ctx context.Context, username string) (*User, error)
	UserGetByEmail(ctx context.Context, email string) (*User, error)
	// UserGetByToken looks up a user by their active token. When
	// requireVerified is true, only a user with Verified == VerifiedDispatched
	// is returned (used by the registration-confirm flow); when false, the
	// caller is expected to check TokenTime/Verified itself (used by the
	// forgot-password consume flow, which additionally requires
	// Verified == VerifiedAccepted and TokenTime != 0).
	UserGetByToken(ctx context.Context, token string, requireVerified bool) (*User, error)
	UserInsert(ctx context.Context, u *User) error
	UserUpdatePassword(ctx context.Context, username, hash, salt string, pwchangeTime int64) error
	UserUpdateVerified(ctx context.Context, username string, verified int) error
	UserUpdateToken(ctx context.Context, username, token string, tokenTime int64) error
	UserUpdateForgotValidated(ctx context.Context, username string, t int64) error
	UserUpdateLastActivity(ctx context.Context, username string, t int64) error
	// UserDeleteStaleUnverified deletes every user with Verified != VerifiedAccepted
	// and CreationTime <= cutoff, returning the usernames deleted so the
	// caller can also purge any queued email for them.
	UserDeleteStaleUnverified(ctx context.Context, cutoff int64) ([]string, error)
	// UserClearStaleTokens zeros TokenTime for every user whose TokenTime
	// is non-zero and <= cutoff.
	UserClearStaleTokens(ctx context.Context, cutoff int64) error

	// Sessions

	SessionInsert(ctx context.Context, s *Session) error
	SessionGet(ctx context.Context, name string) (*Session, error)
	SessionUpdate(ctx context.Context, name, username string, expire int64) error
	// SessionTouch bumps a session's last_activity without changing its
	// expiry, so the idle-timeout sweep in SessionDeleteExpired can tell
	// an abandoned session from one still in active use.
	SessionTouch(ctx context.Context, name string, t int64) error
	SessionDelete(ctx context.Context, name string) error
	// SessionDeleteExpired deletes every session with Expire <= now, and,
	// when idleCutoff is non-zero, every session whose last recorded
	// activity is older than idleCutoff. It is idempotent: running it
	// twice in a row with no intervening writes leaves the table
	// unchanged the second time.
	SessionDeleteExpired(ctx context.Context, now, idleCutoff int64) error

	// Email queue

	EmailEnqueue(ctx context.Context, username, content string) error
	// EmailPeekOne returns the username of one queued message, or an empty
	// string if the queue is empty.
	EmailPeekOne(ctx context.Context) (string, error)
	EmailGetContent(ctx context.Context, username string) (string, error)
	EmailDelete(ctx context.Context, username string) error

	Close() error
}
