package httpapi

import (
	"net/http"
	"strconv"

	"github.com/lwsgs/lwsgs/session"
)

// redirect emits the 303-See-Other response shape spec.md's endpoint
// handler requires: Location, Content-Length: 0, and, when sess is
// non-nil, the Set-Cookie pair in delete-before-set order so a client
// that ignores ordering never ends up holding a stale + fresh cookie at
// once.
func redirect(w http.ResponseWriter, to string, sess *session.Resolved, now int64) {
	if sess != nil {
		session.DeleteCookie(w)
		session.SetCookie(w, sess.ID, sess.Expire, now)
	}
	w.Header().Set("Location", to)
	w.Header().Set("Content-Length", "0")
	w.WriteHeader(http.StatusSeeOther)
}

// writeCheckResult writes the single-byte /check response: "1" if taken,
// "0" otherwise.
func writeCheckResult(w http.ResponseWriter, taken bool) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Length", "1")
	body := "0"
	if taken {
		body = "1"
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(body))
}

func badRequest(w http.ResponseWriter) {
	w.Header().Set("Content-Length", strconv.Itoa(len("bad request")))
	w.WriteHeader(http.StatusBadRequest)
	w.Write([]byte("bad request"))
}
