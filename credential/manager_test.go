package credential

import (
	"context"
	"errors"
	"testing"

	"github.com/lwsgs/lwsgs/db/sqlitestore"

	"zombiezen.com/go/sqlite/sqlitex"
)

func newTestManager(t *testing.T) (*Manager, *sqlitestore.Store) {
	t.Helper()
	pool, err := sqlitex.NewPool("file::memory:?cache=shared", sqlitex.PoolOptions{PoolSize: 1})
	if err != nil {
		t.Fatalf("pool: %v", err)
	}
	store, err := sqlitestore.NewWithPool(pool)
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	cfg := Config{
		AdminUser:          "admin",
		AdminPasswordSha1:  "da39a3ee5e6b4b0d3255bfef95601890afd80709", // sha1("")
		ConfirmURL:         "https://example.com",
		Confounder:         "pepper",
		GracePeriodSecs:    300,
		EmailTitle:         "Example",
		EmailContactPerson: "support@example.com",
	}
	return NewManager(store, store, cfg, nil), store
}

func TestRegisterRejectsAdminUsername(t *testing.T) {
	m, _ := newTestManager(t)
	err := m.Register(context.Background(), "admin", "pw", "admin@example.com", "127.0.0.1")
	if !errors.Is(err, ErrAdminUsername) {
		t.Fatalf("expected ErrAdminUsername, got %v", err)
	}
}

func TestRegisterThenConfirm(t *testing.T) {
	ctx := context.Background()
	m, store := newTestManager(t)

	if err := m.Register(ctx, "alice", "hunter2", "alice@example.com", "127.0.0.1"); err != nil {
		t.Fatalf("Register: %v", err)
	}

	u, err := store.UserGet(ctx, "alice")
	if err != nil || u == nil {
		t.Fatalf("UserGet after register: %v %v", u, err)
	}
	if u.Verified != 0 {
		t.Fatalf("expected verified=0 after register, got %d", u.Verified)
	}
	if u.Token == "" {
		t.Fatal("expected a token to be set")
	}

	// second registration with the same username or email must fail
	if err := m.Register(ctx, "alice", "x", "other@example.com", "127.0.0.1"); !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}
	if err := m.Register(ctx, "bob", "x", "alice@example.com", "127.0.0.1"); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}

	// Confirm requires verified==1 (email worker flips it); simulate that.
	if err := store.UserUpdateVerified(ctx, "alice", 1); err != nil {
		t.Fatalf("UserUpdateVerified: %v", err)
	}
	username, err := m.Confirm(ctx, u.Token)
	if err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if username != "alice" {
		t.Fatalf("Confirm returned %q", username)
	}

	got, _ := store.UserGet(ctx, "alice")
	if got.Verified != 100 {
		t.Fatalf("expected verified=100 after confirm, got %d", got.Verified)
	}
}

func TestConfirmRejectsUnknownToken(t *testing.T) {
	m, _ := newTestManager(t)
	_, err := m.Confirm(context.Background(), "0000000000000000000000000000000000000000")
	if !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
}

func TestLoginAdminShortcut(t *testing.T) {
	m, _ := newTestManager(t)
	admin, err := m.Login(context.Background(), "admin", "")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if !admin {
		t.Fatal("expected admin shortcut to match")
	}

	_, err = m.Login(context.Background(), "admin", "wrong")
	if !errors.Is(err, ErrAuthFailed) {
		t.Fatalf("expected ErrAuthFailed for wrong admin password, got %v", err)
	}
}

func TestLoginRegularUser(t *testing.T) {
	ctx := context.Background()
	m, store := newTestManager(t)

	if err := m.Register(ctx, "alice", "hunter2", "alice@example.com", "127.0.0.1"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	store.UserUpdateVerified(ctx, "alice", 100)

	admin, err := m.Login(ctx, "alice", "hunter2")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if admin {
		t.Fatal("did not expect admin shortcut for regular user")
	}

	if _, err := m.Login(ctx, "alice", "wrong"); !errors.Is(err, ErrAuthFailed) {
		t.Fatalf("expected ErrAuthFailed, got %v", err)
	}
}

func TestForgotFlow(t *testing.T) {
	ctx := context.Background()
	m, store := newTestManager(t)

	if err := m.Register(ctx, "alice", "hunter2", "alice@example.com", "127.0.0.1"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	store.UserUpdateVerified(ctx, "alice", 100)

	if err := m.ForgotInitiate(ctx, "alice", "", "/ok", "/bad"); err != nil {
		t.Fatalf("ForgotInitiate: %v", err)
	}
	u, _ := store.UserGet(ctx, "alice")
	if u.Token == "" {
		t.Fatal("expected a reset token")
	}

	username, err := m.ForgotConsume(ctx, u.Token)
	if err != nil {
		t.Fatalf("ForgotConsume: %v", err)
	}
	if username != "alice" {
		t.Fatalf("ForgotConsume returned %q", username)
	}

	got, _ := store.UserGet(ctx, "alice")
	if got.TokenTime != 0 || got.Token != "" {
		t.Fatalf("expected token cleared, got %+v", got)
	}
	if got.LastForgotValidated == 0 {
		t.Fatal("expected last_forgot_validated to be set")
	}
}

func TestChangePasswordGracePeriod(t *testing.T) {
	ctx := context.Background()
	m, store := newTestManager(t)

	if err := m.Register(ctx, "alice", "hunter2", "alice@example.com", "127.0.0.1"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	store.UserUpdateVerified(ctx, "alice", 100)
	store.UserUpdateForgotValidated(ctx, "alice", m.now())

	if err := m.Change(ctx, "alice", "", "newpw", true); err != nil {
		t.Fatalf("Change in grace period: %v", err)
	}

	// old password must no longer work
	if _, err := m.Login(ctx, "alice", "hunter2"); !errors.Is(err, ErrAuthFailed) {
		t.Fatalf("expected old password to fail, got %v", err)
	}
	if _, err := m.Login(ctx, "alice", "newpw"); err != nil {
		t.Fatalf("expected new password to work: %v", err)
	}
}

func TestChangePasswordOutsideGracePeriodRequiresCurrent(t *testing.T) {
	ctx := context.Background()
	m, store := newTestManager(t)

	if err := m.Register(ctx, "alice", "hunter2", "alice@example.com", "127.0.0.1"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	store.UserUpdateVerified(ctx, "alice", 100)

	if err := m.Change(ctx, "alice", "wrongpw", "newpw", false); !errors.Is(err, ErrAuthFailed) {
		t.Fatalf("expected ErrAuthFailed, got %v", err)
	}
	if err := m.Change(ctx, "alice", "hunter2", "newpw", false); err != nil {
		t.Fatalf("Change with correct current password: %v", err)
	}
}

func TestCheckUsernameAndEmail(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t)

	taken, err := m.Check(ctx, "alice", "")
	if err != nil || taken {
		t.Fatalf("expected unused, got taken=%v err=%v", taken, err)
	}

	if err := m.Register(ctx, "alice", "hunter2", "alice@example.com", "127.0.0.1"); err != nil {
		t.Fatalf("Register: %v", err)
	}

	taken, err = m.Check(ctx, "alice", "")
	if err != nil || !taken {
		t.Fatalf("expected taken=true, got taken=%v err=%v", taken, err)
	}
	taken, err = m.Check(ctx, "", "alice@example.com")
	if err != nil || !taken {
		t.Fatalf("expected taken=true by email, got taken=%v err=%v", taken, err)
	}
}
