// Package db defines the persistence contract for the session and
// credential subsystem: users, sessions, and the outbound email queue.
package db

// Verified states for User.Verified.
const (
	// VerifiedNew marks a freshly registered user with no email queued yet.
	VerifiedNew = 0
	// VerifiedDispatched marks a user whose verification email has been
	// queued or sent, awaiting the confirmation click.
	VerifiedDispatched = 1
	// VerifiedAccepted marks a user who has clicked their confirmation
	// link. Named to match the reference implementation's
	// LWSGS_VERIFIED_ACCEPTED constant.
	VerifiedAccepted = 100
)

// User is a row of the users table. Username is the primary key.
// CreationTime, PwchangeTime, TokenTime and LastForgotValidated are unix
// seconds; zero means "unset" for the latter two.
type User struct {
	Username            string
	CreationTime        int64
	IP                  string
	Email               string
	Pwhash              string
	Pwsalt              string
	PwchangeTime        int64
	Token               string
	Verified            int
	TokenTime           int64
	LastForgotValidated int64
	LastActivity        int64
}

// Session is a row of the sessions table. Name (the 40-hex session id) is
// the primary key. Username is empty for an anonymous session. Expire is
// the absolute unix-second deadline.
type Session struct {
	Name     string
	Username string
	Expire   int64
}

// EmailQueueEntry is a row of the email_queue table. Username is the
// primary key; at most one queued entry exists per user at a time.
type EmailQueueEntry struct {
	Username string
	Content  string
}
