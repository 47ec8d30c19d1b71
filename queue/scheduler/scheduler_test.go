package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/lwsgs/lwsgs/config"
	"github.com/lwsgs/lwsgs/db"
	"github.com/lwsgs/lwsgs/db/sqlitestore"

	"zombiezen.com/go/sqlite/sqlitex"
)

type fakeMailer struct {
	mu         sync.Mutex
	sent       []string
	shouldFail bool
}

func (f *fakeMailer) Send(ctx context.Context, to, content string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.shouldFail {
		return errors.New("smtp unavailable")
	}
	f.sent = append(f.sent, to)
	return nil
}

func newTestStore(t *testing.T) *sqlitestore.Store {
	t.Helper()
	pool, err := sqlitex.NewPool("file::memory:?cache=shared", sqlitex.PoolOptions{PoolSize: 1})
	if err != nil {
		t.Fatalf("failed to create pool: %v", err)
	}
	store, err := sqlitestore.NewWithPool(pool)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func insertUser(t *testing.T, store *sqlitestore.Store, username, email string, verified int, creationTime int64) {
	t.Helper()
	u := &db.User{
		Username:     username,
		CreationTime: creationTime,
		IP:           "127.0.0.1",
		Email:        email,
		Pwhash:       "0000000000000000000000000000000000000000",
		Pwsalt:       "0000000000000000000000000000000000000000",
		PwchangeTime: creationTime,
		Verified:     verified,
		TokenTime:    0,
	}
	if err := store.UserInsert(context.Background(), u); err != nil {
		t.Fatalf("failed to insert user: %v", err)
	}
}

func newTestScheduler(store *sqlitestore.Store, mail *fakeMailer) *Scheduler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s := New(store, mail, config.Scheduler{IntervalSecs: 5}, 86400, logger)
	s.nowFn = func() int64 { return 1_700_000_000 }
	return s
}

func TestDrainOneSendsAndFlipsVerified(t *testing.T) {
	store := newTestStore(t)
	mail := &fakeMailer{}
	s := newTestScheduler(store, mail)
	ctx := context.Background()

	insertUser(t, store, "alice", "alice@example.com", db.VerifiedNew, s.nowFn())
	if err := store.EmailEnqueue(ctx, "alice", "From: X\nSubject: Confirm\n\nbody"); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	s.ctx = ctx
	s.drainOne()

	if len(mail.sent) != 1 || mail.sent[0] != "alice@example.com" {
		t.Fatalf("expected mail sent to alice@example.com, got %v", mail.sent)
	}
	u, err := store.UserGet(ctx, "alice")
	if err != nil || u == nil {
		t.Fatalf("UserGet: %v", err)
	}
	if u.Verified != db.VerifiedDispatched {
		t.Errorf("expected verified=%d, got %d", db.VerifiedDispatched, u.Verified)
	}
	if content, err := store.EmailGetContent(ctx, "alice"); err != nil || content != "" {
		t.Errorf("expected queue row deleted, got content=%q err=%v", content, err)
	}
}

func TestDrainOneDoesNotDowngradeAcceptedUser(t *testing.T) {
	store := newTestStore(t)
	mail := &fakeMailer{}
	s := newTestScheduler(store, mail)
	ctx := context.Background()
	s.ctx = ctx

	insertUser(t, store, "bob", "bob@example.com", db.VerifiedAccepted, s.nowFn())
	if err := store.EmailEnqueue(ctx, "bob", "From: X\nSubject: Reset\n\nbody"); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	s.drainOne()

	u, err := store.UserGet(ctx, "bob")
	if err != nil || u == nil {
		t.Fatalf("UserGet: %v", err)
	}
	if u.Verified != db.VerifiedAccepted {
		t.Errorf("expected verified to remain %d, got %d", db.VerifiedAccepted, u.Verified)
	}
}

func TestDrainOneLeavesMessageQueuedOnSendFailure(t *testing.T) {
	store := newTestStore(t)
	mail := &fakeMailer{shouldFail: true}
	s := newTestScheduler(store, mail)
	ctx := context.Background()
	s.ctx = ctx

	insertUser(t, store, "carol", "carol@example.com", db.VerifiedNew, s.nowFn())
	if err := store.EmailEnqueue(ctx, "carol", "From: X\nSubject: Confirm\n\nbody"); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	s.drainOne()

	content, err := store.EmailGetContent(ctx, "carol")
	if err != nil {
		t.Fatalf("EmailGetContent: %v", err)
	}
	if content == "" {
		t.Error("expected message to remain queued after send failure")
	}
}

func TestOnNextDeletesStaleUnverifiedAndPurgesQueue(t *testing.T) {
	store := newTestStore(t)
	mail := &fakeMailer{}
	s := newTestScheduler(store, mail)
	ctx := context.Background()
	s.ctx = ctx

	staleCreation := s.nowFn() - 86400 - 1
	insertUser(t, store, "dave", "dave@example.com", db.VerifiedNew, staleCreation)
	if err := store.EmailEnqueue(ctx, "dave", "stale body"); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	s.onNext()

	if u, err := store.UserGet(ctx, "dave"); err != nil {
		t.Fatalf("UserGet: %v", err)
	} else if u != nil {
		t.Error("expected stale unverified user to be deleted")
	}
	if content, err := store.EmailGetContent(ctx, "dave"); err != nil || content != "" {
		t.Errorf("expected orphaned queue row purged, got content=%q err=%v", content, err)
	}
}

func TestCheckWakesTheLoop(t *testing.T) {
	store := newTestStore(t)
	mail := &fakeMailer{}
	s := newTestScheduler(store, mail)
	insertUser(t, store, "erin", "erin@example.com", db.VerifiedNew, s.nowFn())
	if err := store.EmailEnqueue(context.Background(), "erin", "From: X\nSubject: Confirm\n\nbody"); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if err := s.Stop(ctx); err != nil {
			t.Errorf("Stop: %v", err)
		}
	}()

	s.Check()

	deadline := time.Now().Add(500 * time.Millisecond)
	for time.Now().Before(deadline) {
		mail.mu.Lock()
		sent := len(mail.sent)
		mail.mu.Unlock()
		if sent == 1 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("timed out waiting for Check() to trigger a send")
}
