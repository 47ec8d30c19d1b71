package sqlitestore

import (
	"context"
	"testing"

	"github.com/lwsgs/lwsgs/db"

	"zombiezen.com/go/sqlite/sqlitex"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	pool, err := sqlitex.NewPool("file::memory:?cache=shared", sqlitex.PoolOptions{
		PoolSize: 1,
	})
	if err != nil {
		t.Fatalf("failed to create db pool: %v", err)
	}

	s, err := NewWithPool(pool)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("failed to close store: %v", err)
		}
	})
	return s
}

func TestUserLifecycle(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	u := &db.User{
		Username:     "alice",
		CreationTime: 1000,
		IP:           "127.0.0.1",
		Email:        "alice@example.com",
		Pwhash:       "deadbeef",
		Pwsalt:       "cafebabe",
		Token:        "0123456789012345678901234567890123456789",
		Verified:     db.VerifiedDispatched,
		TokenTime:    1000,
	}
	if err := s.UserInsert(ctx, u); err != nil {
		t.Fatalf("UserInsert: %v", err)
	}

	got, err := s.UserGet(ctx, "alice")
	if err != nil {
		t.Fatalf("UserGet: %v", err)
	}
	if got == nil || got.Email != "alice@example.com" {
		t.Fatalf("UserGet returned %+v", got)
	}

	byEmail, err := s.UserGetByEmail(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("UserGetByEmail: %v", err)
	}
	if byEmail == nil || byEmail.Username != "alice" {
		t.Fatalf("UserGetByEmail returned %+v", byEmail)
	}

	byToken, err := s.UserGetByToken(ctx, u.Token, true)
	if err != nil {
		t.Fatalf("UserGetByToken: %v", err)
	}
	if byToken == nil {
		t.Fatal("UserGetByToken found nothing")
	}

	if err := s.UserUpdateVerified(ctx, "alice", db.VerifiedAccepted); err != nil {
		t.Fatalf("UserUpdateVerified: %v", err)
	}
	// once verified, a requireVerified lookup by the old token must miss
	byToken, err = s.UserGetByToken(ctx, u.Token, true)
	if err != nil {
		t.Fatalf("UserGetByToken after verify: %v", err)
	}
	if byToken != nil {
		t.Fatalf("expected no match after verification, got %+v", byToken)
	}

	if err := s.UserUpdatePassword(ctx, "alice", "newhash", "newsalt", 2000); err != nil {
		t.Fatalf("UserUpdatePassword: %v", err)
	}
	got, err = s.UserGet(ctx, "alice")
	if err != nil {
		t.Fatalf("UserGet after password update: %v", err)
	}
	if got.Pwhash != "newhash" || got.PwchangeTime != 2000 {
		t.Fatalf("password update did not persist: %+v", got)
	}

	if err := s.UserUpdateLastActivity(ctx, "alice", 3000); err != nil {
		t.Fatalf("UserUpdateLastActivity: %v", err)
	}
	got, _ = s.UserGet(ctx, "alice")
	if got.LastActivity != 3000 {
		t.Fatalf("expected last_activity 3000, got %d", got.LastActivity)
	}
}

func TestUserGetMissingReturnsNilNoError(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	got, err := s.UserGet(ctx, "nobody")
	if err != nil {
		t.Fatalf("UserGet: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil for missing user, got %+v", got)
	}
}

func TestUserDeleteStaleUnverified(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	fresh := &db.User{Username: "fresh", CreationTime: 9000, Verified: db.VerifiedNew}
	stale := &db.User{Username: "stale", CreationTime: 100, Verified: db.VerifiedDispatched}
	accepted := &db.User{Username: "accepted", CreationTime: 100, Verified: db.VerifiedAccepted}

	for _, u := range []*db.User{fresh, stale, accepted} {
		if err := s.UserInsert(ctx, u); err != nil {
			t.Fatalf("UserInsert(%s): %v", u.Username, err)
		}
	}

	deleted, err := s.UserDeleteStaleUnverified(ctx, 5000)
	if err != nil {
		t.Fatalf("UserDeleteStaleUnverified: %v", err)
	}
	if len(deleted) != 1 || deleted[0] != "stale" {
		t.Fatalf("expected only 'stale' deleted, got %v", deleted)
	}

	if got, _ := s.UserGet(ctx, "fresh"); got == nil {
		t.Error("fresh user should survive (created after cutoff)")
	}
	if got, _ := s.UserGet(ctx, "accepted"); got == nil {
		t.Error("accepted user should survive regardless of age")
	}
	if got, _ := s.UserGet(ctx, "stale"); got != nil {
		t.Error("stale user should have been deleted")
	}
}

func TestSessionLifecycle(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	sess := &db.Session{Name: "0123456789012345678901234567890123456789", Username: "", Expire: 1000}
	if err := s.SessionInsert(ctx, sess); err != nil {
		t.Fatalf("SessionInsert: %v", err)
	}

	got, err := s.SessionGet(ctx, sess.Name)
	if err != nil {
		t.Fatalf("SessionGet: %v", err)
	}
	if got == nil || got.Expire != 1000 {
		t.Fatalf("SessionGet returned %+v", got)
	}

	if err := s.SessionUpdate(ctx, sess.Name, "alice", 2000); err != nil {
		t.Fatalf("SessionUpdate: %v", err)
	}
	got, _ = s.SessionGet(ctx, sess.Name)
	if got.Username != "alice" || got.Expire != 2000 {
		t.Fatalf("SessionUpdate did not persist: %+v", got)
	}

	if err := s.SessionTouch(ctx, sess.Name, 2500); err != nil {
		t.Fatalf("SessionTouch: %v", err)
	}

	if err := s.SessionDelete(ctx, sess.Name); err != nil {
		t.Fatalf("SessionDelete: %v", err)
	}
	got, _ = s.SessionGet(ctx, sess.Name)
	if got != nil {
		t.Fatalf("expected session gone after delete, got %+v", got)
	}
}

func TestSessionDeleteExpired(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	expired := &db.Session{Name: "1111111111111111111111111111111111111111", Expire: 100}
	active := &db.Session{Name: "2222222222222222222222222222222222222222", Expire: 9999}
	idle := &db.Session{Name: "3333333333333333333333333333333333333333", Expire: 9999}

	for _, sess := range []*db.Session{expired, active, idle} {
		if err := s.SessionInsert(ctx, sess); err != nil {
			t.Fatalf("SessionInsert(%s): %v", sess.Name, err)
		}
	}
	if err := s.SessionTouch(ctx, idle.Name, 50); err != nil {
		t.Fatalf("SessionTouch: %v", err)
	}
	if err := s.SessionTouch(ctx, active.Name, 5000); err != nil {
		t.Fatalf("SessionTouch: %v", err)
	}

	if err := s.SessionDeleteExpired(ctx, 500, 500); err != nil {
		t.Fatalf("SessionDeleteExpired: %v", err)
	}

	if got, _ := s.SessionGet(ctx, expired.Name); got != nil {
		t.Error("expired session should be gone")
	}
	if got, _ := s.SessionGet(ctx, idle.Name); got != nil {
		t.Error("idle session should be gone")
	}
	if got, _ := s.SessionGet(ctx, active.Name); got == nil {
		t.Error("active session should survive")
	}
}

func TestEmailQueueLifecycle(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	if err := s.EmailEnqueue(ctx, "alice", "hello world"); err != nil {
		t.Fatalf("EmailEnqueue: %v", err)
	}

	username, err := s.EmailPeekOne(ctx)
	if err != nil {
		t.Fatalf("EmailPeekOne: %v", err)
	}
	if username != "alice" {
		t.Fatalf("EmailPeekOne = %q, want alice", username)
	}

	content, err := s.EmailGetContent(ctx, "alice")
	if err != nil {
		t.Fatalf("EmailGetContent: %v", err)
	}
	if content != "hello world" {
		t.Fatalf("EmailGetContent = %q", content)
	}

	// re-enqueueing the same user overwrites, not duplicates
	if err := s.EmailEnqueue(ctx, "alice", "updated"); err != nil {
		t.Fatalf("EmailEnqueue overwrite: %v", err)
	}
	content, _ = s.EmailGetContent(ctx, "alice")
	if content != "updated" {
		t.Fatalf("expected overwrite, got %q", content)
	}

	if err := s.EmailDelete(ctx, "alice"); err != nil {
		t.Fatalf("EmailDelete: %v", err)
	}
	username, err = s.EmailPeekOne(ctx)
	if err != nil {
		t.Fatalf("EmailPeekOne after delete: %v", err)
	}
	if username != "" {
		t.Fatalf("expected empty queue, got %q", username)
	}
}
