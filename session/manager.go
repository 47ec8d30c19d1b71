// Package session implements the opaque cookie session registry: issuing,
// looking up, refreshing and sweeping session rows, with a cache in front
// of the store for the read path every request takes.
package session

import (
	"context"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/lwsgs/lwsgs/cache"
	"github.com/lwsgs/lwsgs/crypto"
	"github.com/lwsgs/lwsgs/db"
)

// Config holds the absolute/idle TTLs the manager enforces. All values
// are seconds.
type Config struct {
	TimeoutAbsoluteSecs     int64
	TimeoutAnonAbsoluteSecs int64
	TimeoutIdleSecs         int64
}

// Manager owns the session lifecycle: cookie issue/refresh/demote and the
// periodic GC sweep.
type Manager struct {
	store  db.Store
	cache  cache.SessionCache
	cfg    Config
	log   *slog.Logger
	nowFn func() int64
	sweep atomic.Int64 // unix seconds of last sweep
}

// NewManager builds a Manager. cache may be nil, in which case every
// lookup goes straight to the store.
func NewManager(store db.Store, c cache.SessionCache, cfg Config, log *slog.Logger) *Manager {
	if log == nil {
		log = slog.Default()
	}
	return &Manager{store: store, cache: c, cfg: cfg, log: log, nowFn: func() int64 { return time.Now().Unix() }}
}

func (m *Manager) now() int64 {
	if m.nowFn != nil {
		return m.nowFn()
	}
	return time.Now().Unix()
}

// Resolved is the outcome of resolving the session cookie on an incoming
// request.
type Resolved struct {
	ID       string
	Username string
	Expire   int64
	Fresh    bool // true if no valid cookie was presented and a new anonymous session was minted
}

// Lookup resolves the request's session cookie, cache-assisted, falling
// through to the store on a miss. It bumps last_activity on every hit so
// the idle sweep can tell an abandoned session from a live one. When no
// valid cookie is present, or the session has expired / gone idle, Lookup
// mints a fresh anonymous session and the caller is expected to set it on
// the response via SetCookie.
func (m *Manager) Lookup(ctx context.Context, r *http.Request) (*Resolved, error) {
	m.maybeSweep(ctx)

	id, ok := DecodeCookie(r.Header.Get("Cookie"))
	if ok {
		sess, err := m.lookupByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if sess != nil && sess.Expire > m.now() {
			if err := m.store.SessionTouch(ctx, id, m.now()); err != nil {
				m.log.Error("session touch failed", "err", err)
			}
			return &Resolved{ID: id, Username: sess.Username, Expire: sess.Expire}, nil
		}
		// stale: fall through to minting a fresh anonymous session, and
		// make sure the cache doesn't keep serving the dead row.
		m.invalidate(id)
	}

	return m.issueAnonymous(ctx)
}

func (m *Manager) lookupByID(ctx context.Context, id string) (*db.Session, error) {
	if m.cache != nil {
		// A nil tombstone only says the cached row is no longer current;
		// fall through to the store for the live row.
		if sess, found := m.cache.Get(id); found && sess != nil {
			return sess, nil
		}
	}
	sess, err := m.store.SessionGet(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess != nil && m.cache != nil {
		ttl := time.Duration(sess.Expire-m.now()) * time.Second
		if ttl > 0 {
			m.cache.Set(id, sess, ttl)
		}
	}
	return sess, nil
}

func (m *Manager) invalidate(id string) {
	if m.cache != nil {
		m.cache.Invalidate(id)
	}
}

func (m *Manager) issueAnonymous(ctx context.Context) (*Resolved, error) {
	now := m.now()
	id, err := crypto.NewSessionID()
	if err != nil {
		return nil, err
	}
	expire := now + m.cfg.TimeoutAnonAbsoluteSecs
	if err := m.store.SessionInsert(ctx, &db.Session{Name: id, Username: "", Expire: expire}); err != nil {
		return nil, err
	}
	return &Resolved{ID: id, Username: "", Expire: expire, Fresh: true}, nil
}

// Authorize upgrades the session identified by id to an authenticated
// session bound to username, bumping its absolute expiry. It mutates the
// existing row in place (one of the two reference-observed strategies;
// see DESIGN.md).
func (m *Manager) Authorize(ctx context.Context, id, username string) (*Resolved, error) {
	now := m.now()
	expire := now + m.cfg.TimeoutAbsoluteSecs
	if err := m.store.SessionUpdate(ctx, id, username, expire); err != nil {
		return nil, err
	}
	m.invalidate(id)
	return &Resolved{ID: id, Username: username, Expire: expire}, nil
}

// Demote reverts a session to anonymous (logout), keeping the same id.
func (m *Manager) Demote(ctx context.Context, id string) (*Resolved, error) {
	now := m.now()
	expire := now + m.cfg.TimeoutAnonAbsoluteSecs
	if err := m.store.SessionUpdate(ctx, id, "", expire); err != nil {
		return nil, err
	}
	m.invalidate(id)
	return &Resolved{ID: id, Username: "", Expire: expire}, nil
}

// maybeSweep runs the GC sweep at most once per 5 seconds of wall time,
// matching the spec's hysteresis. Races on the "last swept" timestamp are
// benign: the delete statement is idempotent, so two goroutines both
// deciding to sweep just do redundant work.
func (m *Manager) maybeSweep(ctx context.Context) {
	now := m.now()
	last := m.sweep.Load()
	if now-last < 5 {
		return
	}
	if !m.sweep.CompareAndSwap(last, now) {
		return
	}

	var idleCutoff int64
	if m.cfg.TimeoutIdleSecs > 0 {
		idleCutoff = now - m.cfg.TimeoutIdleSecs
	}
	if err := m.store.SessionDeleteExpired(ctx, now, idleCutoff); err != nil {
		m.log.Error("session sweep failed", "err", err)
	}
}
