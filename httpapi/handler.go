// Package httpapi implements the six fixed HTTP endpoints (C7):
// /login, /logout, /confirm, /forgot, /change, /check. Handler is a
// plain http.Handler a host mounts directly, or that self-registers
// onto a router.Router for the standalone demo binary.
package httpapi

import (
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/lwsgs/lwsgs/authgate"
	"github.com/lwsgs/lwsgs/credential"
	"github.com/lwsgs/lwsgs/internal/formdecode"
	"github.com/lwsgs/lwsgs/router"
	"github.com/lwsgs/lwsgs/session"
)

// formFields is the 17-field set spec.md §4.7 requires the stateful
// decoder be configured with, shared across /login and /change since
// both are form-encoded POSTs.
var formFields = []string{
	"username", "password", "password2", "email", "register", "good", "bad",
	"reg-good", "reg-bad", "admin", "forgot", "forgot-good", "forgot-bad",
	"forgot-post-good", "forgot-post-bad", "change", "curpw",
}

// Config holds the fixed policy knobs the endpoint handler needs beyond
// what credential.Manager already encapsulates: the confirm/forgot
// onward-page base used to build the fixed post-verify and post-forgot
// redirect targets.
type Config struct {
	ConfirmURL string
}

// Handler wires the credential, session and auth-gate collaborators to
// the endpoint table. nowFn defaults to time.Now().Unix and is only
// overridden in tests.
type Handler struct {
	cred  *credential.Manager
	sess  *session.Manager
	gate  *authgate.Gate
	cfg   Config
	log   *slog.Logger
	nowFn func() int64
}

// New builds a Handler. nowFn may be nil, in which case time.Now().Unix
// is used.
func New(cred *credential.Manager, sess *session.Manager, gate *authgate.Gate, cfg Config, log *slog.Logger, nowFn func() int64) *Handler {
	if log == nil {
		log = slog.Default()
	}
	if nowFn == nil {
		nowFn = func() int64 { return time.Now().Unix() }
	}
	return &Handler{cred: cred, sess: sess, gate: gate, cfg: cfg, log: log, nowFn: nowFn}
}

// Register self-registers all six endpoints onto r, grounded on the
// teacher's router.Router (Get/Post convenience wrappers around
// httprouter.Handler). Each handler is wrapped with the access-log
// middleware.
func (h *Handler) Register(r *router.Router) {
	wrap := func(fn http.HandlerFunc) http.Handler {
		return h.accessLog(fn)
	}
	r.Post("/login", wrap(h.handleLogin))
	r.Post("/logout", wrap(h.handleLogout))
	r.Get("/confirm", wrap(h.handleConfirm))
	r.Get("/forgot", wrap(h.handleForgot))
	r.Post("/change", wrap(h.handleChange))
	r.Get("/check", wrap(h.handleCheck))
}

// ServeHTTP lets Handler be mounted directly by a host that doesn't use
// router.Router, dispatching on method+path itself.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/login":
		h.handleLogin(w, r)
	case r.Method == http.MethodPost && r.URL.Path == "/logout":
		h.handleLogout(w, r)
	case r.Method == http.MethodGet && r.URL.Path == "/confirm":
		h.handleConfirm(w, r)
	case r.Method == http.MethodGet && r.URL.Path == "/forgot":
		h.handleForgot(w, r)
	case r.Method == http.MethodPost && r.URL.Path == "/change":
		h.handleChange(w, r)
	case r.Method == http.MethodGet && r.URL.Path == "/check":
		h.handleCheck(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (h *Handler) now() int64 { return h.nowFn() }

// decodeForm drains the request body through a stateful formdecode.Decoder
// configured with the 17 known field names, matching the HEADERS_PARSED
// to BODY_DONE transition spec.md §4.7 describes rather than buffering
// the whole body with r.ParseForm.
func decodeForm(r *http.Request) (*formdecode.Decoder, error) {
	d := formdecode.New(formFields)
	buf := make([]byte, 4096)
	for {
		n, err := r.Body.Read(buf)
		if n > 0 {
			if werr := writeAll(d, buf[:n]); werr != nil {
				return nil, werr
			}
		}
		if err != nil {
			break
		}
	}
	if err := d.Finish(); err != nil {
		return nil, err
	}
	return d, nil
}

func writeAll(d *formdecode.Decoder, p []byte) error {
	_, err := d.Write(p)
	return err
}

func clientIP(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
