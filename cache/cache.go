// Package cache defines the read-through cache session.Manager puts in
// front of the session store, so a swap to a different cache backend
// never touches session/manager.go.
package cache

import (
	"time"

	"github.com/lwsgs/lwsgs/db"
)

// SessionCache fronts db.Store's SessionGet on the request path every
// request takes. A cached nil *db.Session is a tombstone: it means "the
// row cached for this id is no longer current", written by Invalidate
// after a mutation or expiry so a stale row can't keep being served.
// session.Manager treats a tombstone like a miss and re-reads the store.
type SessionCache interface {
	// Get reports the cached session for id, and whether any entry
	// (including a tombstone) was found.
	Get(id string) (*db.Session, bool)

	// Set caches sess for id until ttl elapses. ttl <= 0 means cache
	// with no expiry (used for tombstones).
	Set(id string, sess *db.Session, ttl time.Duration) bool

	// Invalidate overwrites whatever is cached for id with a tombstone.
	Invalidate(id string) bool
}
