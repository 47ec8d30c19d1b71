// Package credential implements the register/confirm/login/forgot/change/
// logout state machine (C4): the operations that mutate users.* and drive
// the session manager into an authenticated state.
package credential

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"text/template"
	"time"

	"github.com/lwsgs/lwsgs/crypto"
	"github.com/lwsgs/lwsgs/db"
	"github.com/lwsgs/lwsgs/queue"
)

// Config holds the fixed policy knobs the credential state machine needs.
type Config struct {
	AdminUser         string
	AdminPasswordSha1 string
	ConfirmURL        string
	// Confounder is the per-deployment pepper mixed into every password
	// hash: password_hash = sha1_hex(password + "-" + confounder + "-" + salt).
	Confounder string
	// GracePeriodSecs is the window after a validated forgot-password
	// flow during which Change accepts a new password without the
	// current one. Spec-mandated 300s.
	GracePeriodSecs    int64
	EmailTitle         string
	EmailContactPerson string
}

var registerEmailTmpl = template.Must(template.New("register").Parse(
	`From: {{.ContactPerson}}
Subject: {{.Title}} - confirm your registration

Please confirm your registration by visiting:
{{.ConfirmURL}}/confirm?token={{.Token}}
`))

var forgotEmailTmpl = template.Must(template.New("forgot").Parse(
	`From: {{.ContactPerson}}
Subject: {{.Title}} - password reset requested

Reset your password by visiting:
{{.ConfirmURL}}/forgot?token={{.Token}}&good={{.Good}}&bad={{.Bad}}
`))

// Manager implements the credential operations against a db.Store, a
// queue.Enqueuer for outbound mail, and crypto for hashing/token
// generation. It does not touch HTTP; httpapi calls into it and maps the
// sentinel errors onto redirects.
type Manager struct {
	store db.Store
	mail  queue.Enqueuer
	cfg   Config
	log   *slog.Logger
	nowFn func() int64
}

func NewManager(store db.Store, mail queue.Enqueuer, cfg Config, log *slog.Logger) *Manager {
	if log == nil {
		log = slog.Default()
	}
	return &Manager{store: store, mail: mail, cfg: cfg, log: log, nowFn: func() int64 { return time.Now().Unix() }}
}

func (m *Manager) now() int64 { return m.nowFn() }

// Register creates a new unverified user and enqueues the confirmation
// email. Returns ErrAdminUsername, ErrUsernameTaken or ErrEmailTaken on
// any precondition failure.
func (m *Manager) Register(ctx context.Context, username, password, email, ip string) error {
	if username == m.cfg.AdminUser {
		return ErrAdminUsername
	}
	if existing, err := m.store.UserGet(ctx, username); err != nil {
		return err
	} else if existing != nil {
		return ErrUsernameTaken
	}
	if existing, err := m.store.UserGetByEmail(ctx, email); err != nil {
		return err
	} else if existing != nil {
		return ErrEmailTaken
	}

	salt, err := crypto.NewSalt()
	if err != nil {
		return err
	}
	token, err := crypto.NewToken()
	if err != nil {
		return err
	}
	hash := crypto.PasswordHash(password, m.cfg.Confounder, salt)
	now := m.now()

	u := &db.User{
		Username:     username,
		CreationTime: now,
		IP:           ip,
		Email:        email,
		Pwhash:       hash,
		Pwsalt:       salt,
		PwchangeTime: now,
		Token:        token,
		Verified:     db.VerifiedNew,
		TokenTime:    now,
	}
	if err := m.store.UserInsert(ctx, u); err != nil {
		return err
	}

	var body strings.Builder
	if err := registerEmailTmpl.Execute(&body, struct {
		ContactPerson, Title, ConfirmURL, Token string
	}{m.cfg.EmailContactPerson, m.cfg.EmailTitle, m.cfg.ConfirmURL, token}); err != nil {
		return fmt.Errorf("credential: render register email: %w", err)
	}
	if err := m.mail.EmailEnqueue(ctx, username, body.String()); err != nil {
		return err
	}
	return nil
}

// Confirm resolves a registration token. On success it returns the
// username so the caller can issue an authorized session.
func (m *Manager) Confirm(ctx context.Context, token string) (string, error) {
	u, err := m.store.UserGetByToken(ctx, token, true)
	if err != nil {
		return "", err
	}
	if u == nil {
		return "", ErrTokenInvalid
	}
	if err := m.store.UserUpdateVerified(ctx, u.Username, db.VerifiedAccepted); err != nil {
		return "", err
	}
	return u.Username, nil
}

// Login validates credentials, including the injected, never-persisted
// admin identity. admin is true when the caller matched the admin
// shortcut and the caller should redirect to the admin-specific target.
func (m *Manager) Login(ctx context.Context, username, password string) (admin bool, err error) {
	if username == m.cfg.AdminUser {
		if crypto.ConstantTimeEqual(crypto.Sha1Hex([]byte(password)), m.cfg.AdminPasswordSha1) {
			return true, nil
		}
		return false, ErrAuthFailed
	}

	u, err := m.store.UserGet(ctx, username)
	if err != nil {
		return false, err
	}
	if u == nil {
		return false, ErrAuthFailed
	}
	hash := crypto.PasswordHash(password, m.cfg.Confounder, u.Pwsalt)
	if !crypto.ConstantTimeEqual(hash, u.Pwhash) {
		return false, ErrAuthFailed
	}
	return false, nil
}

// ForgotInitiate resolves a user by username or email (whichever is
// non-empty) and queues a reset email. goodURL/badURL are the onward
// redirect targets embedded in the confirmation link.
func (m *Manager) ForgotInitiate(ctx context.Context, username, email, goodURL, badURL string) error {
	var u *db.User
	var err error
	if username != "" {
		u, err = m.store.UserGet(ctx, username)
	} else {
		u, err = m.store.UserGetByEmail(ctx, email)
	}
	if err != nil {
		return err
	}
	if u == nil {
		return ErrTokenInvalid
	}

	token, err := crypto.NewToken()
	if err != nil {
		return err
	}
	if err := m.store.UserUpdateToken(ctx, u.Username, token, m.now()); err != nil {
		return err
	}

	var body strings.Builder
	if err := forgotEmailTmpl.Execute(&body, struct {
		ContactPerson, Title, ConfirmURL, Token, Good, Bad string
	}{m.cfg.EmailContactPerson, m.cfg.EmailTitle, m.cfg.ConfirmURL, token, goodURL, badURL}); err != nil {
		return fmt.Errorf("credential: render forgot email: %w", err)
	}
	return m.mail.EmailEnqueue(ctx, u.Username, body.String())
}

// ForgotConsume validates a reset token and returns the username on
// success, clearing the token and starting the change-password grace
// period.
func (m *Manager) ForgotConsume(ctx context.Context, token string) (string, error) {
	u, err := m.store.UserGetByToken(ctx, token, false)
	if err != nil {
		return "", err
	}
	if u == nil || u.Verified != db.VerifiedAccepted || u.TokenTime == 0 {
		return "", ErrTokenInvalid
	}
	now := m.now()
	if err := m.store.UserUpdateToken(ctx, u.Username, "", 0); err != nil {
		return "", err
	}
	if err := m.store.UserUpdateForgotValidated(ctx, u.Username, now); err != nil {
		return "", err
	}
	return u.Username, nil
}

// Change updates a user's password. When inGracePeriod is true (caller
// has a valid authorized session and last_forgot_validated is within
// GracePeriodSecs) curpw is not checked.
func (m *Manager) Change(ctx context.Context, username, curpw, newpw string, inGracePeriod bool) error {
	u, err := m.store.UserGet(ctx, username)
	if err != nil {
		return err
	}
	if u == nil {
		return ErrAuthFailed
	}

	if inGracePeriod {
		if u.LastForgotValidated == 0 || m.now()-u.LastForgotValidated > m.cfg.GracePeriodSecs {
			return ErrNotInGracePeriod
		}
	} else {
		hash := crypto.PasswordHash(curpw, m.cfg.Confounder, u.Pwsalt)
		if !crypto.ConstantTimeEqual(hash, u.Pwhash) {
			return ErrAuthFailed
		}
	}

	salt, err := crypto.NewSalt()
	if err != nil {
		return err
	}
	hash := crypto.PasswordHash(newpw, m.cfg.Confounder, salt)
	now := m.now()
	if err := m.store.UserUpdatePassword(ctx, username, hash, salt, now); err != nil {
		return err
	}
	return m.store.UserUpdateForgotValidated(ctx, username, 0)
}

// Check reports whether username or email is already taken.
func (m *Manager) Check(ctx context.Context, username, email string) (taken bool, err error) {
	if username != "" {
		u, err := m.store.UserGet(ctx, username)
		if err != nil {
			return false, err
		}
		return u != nil, nil
	}
	u, err := m.store.UserGetByEmail(ctx, email)
	if err != nil {
		return false, err
	}
	return u != nil, nil
}
