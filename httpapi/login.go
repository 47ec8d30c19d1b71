package httpapi

import (
	"errors"
	"net/http"

	"github.com/lwsgs/lwsgs/credential"
	"github.com/lwsgs/lwsgs/internal/formdecode"
	"github.com/lwsgs/lwsgs/session"
)

// handleLogin dispatches POST /login to register, forgot-initiate or
// plain login depending on which of the register/forgot form fields is
// present, per spec.md §4.4's three sub-states sharing one endpoint.
func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	resolved, err := h.sess.Lookup(ctx, r)
	if err != nil {
		h.log.Error("session lookup failed", "err", err)
		badRequest(w)
		return
	}

	form, err := decodeForm(r)
	if err != nil {
		badRequest(w)
		return
	}

	switch {
	case form.Field("register") != "":
		h.register(w, r, form, resolved)
	case form.Field("forgot") != "":
		h.forgotInitiate(w, r, form, resolved)
	default:
		h.login(w, r, form, resolved)
	}
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request, form *formdecode.Decoder, resolved *session.Resolved) {
	ctx := r.Context()
	username := form.Field("username")
	password := form.Field("password")
	email := form.Field("email")
	regGood := form.Field("reg-good")
	regBad := form.Field("reg-bad")

	err := h.cred.Register(ctx, username, password, email, clientIP(r))

	// §4.4 Register step 6: always clear any existing auth session and
	// issue a fresh anonymous one on the response, regardless of outcome.
	fresh, demoteErr := h.sess.Demote(ctx, resolved.ID)
	if demoteErr != nil {
		h.log.Error("session demote failed", "err", demoteErr)
		badRequest(w)
		return
	}

	if err != nil {
		h.logCredentialError("register", err)
		redirect(w, regBad, fresh, h.now())
		return
	}
	redirect(w, regGood, fresh, h.now())
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request, form *formdecode.Decoder, resolved *session.Resolved) {
	ctx := r.Context()
	username := form.Field("username")
	password := form.Field("password")
	good := form.Field("good")
	bad := form.Field("bad")
	admin := form.Field("admin")

	isAdmin, err := h.cred.Login(ctx, username, password)
	if err != nil {
		h.logCredentialError("login", err)
		redirect(w, bad, nil, h.now())
		return
	}

	authorized, err := h.sess.Authorize(ctx, resolved.ID, username)
	if err != nil {
		h.log.Error("session authorize failed", "err", err)
		badRequest(w)
		return
	}

	target := good
	if isAdmin && admin != "" {
		target = admin
	}
	redirect(w, target, authorized, h.now())
}

func (h *Handler) forgotInitiate(w http.ResponseWriter, r *http.Request, form *formdecode.Decoder, resolved *session.Resolved) {
	ctx := r.Context()
	username := form.Field("username")
	email := form.Field("email")
	forgotGood := form.Field("forgot-good")
	forgotBad := form.Field("forgot-bad")
	forgotPostGood := form.Field("forgot-post-good")
	forgotPostBad := form.Field("forgot-post-bad")

	err := h.cred.ForgotInitiate(ctx, username, email, forgotPostGood, forgotPostBad)
	if err != nil {
		h.logCredentialError("forgot-initiate", err)
		redirect(w, forgotBad, nil, h.now())
		return
	}
	redirect(w, forgotGood, nil, h.now())
}

// logCredentialError logs at Error for genuine store failures and at
// Debug for the expected, user-triggerable sentinel outcomes (bad
// credentials, taken username, etc.) so the two don't share a log
// level, per spec.md §7's BadInput/AuthFailed vs StoreError split.
func (h *Handler) logCredentialError(op string, err error) {
	switch {
	case errors.Is(err, credential.ErrUsernameTaken),
		errors.Is(err, credential.ErrEmailTaken),
		errors.Is(err, credential.ErrAdminUsername),
		errors.Is(err, credential.ErrAuthFailed),
		errors.Is(err, credential.ErrTokenInvalid),
		errors.Is(err, credential.ErrNotInGracePeriod):
		h.log.Debug(op+" rejected", "err", err)
	default:
		h.log.Error(op+" failed", "err", err)
	}
}
