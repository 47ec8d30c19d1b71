package httpapi

import (
	"net/http"

	"github.com/lwsgs/lwsgs/authgate"
)

// handleChange implements POST /change — spec.md §4.4 Change password.
// When the caller already holds an authorized session for the target
// username and is within the forgot-password grace period, the current
// password is not required. Change never mutates the session itself, so
// the response carries no Set-Cookie.
func (h *Handler) handleChange(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	caps, _, sessUser, err := h.gate.Resolve(ctx, r)
	if err != nil {
		h.log.Error("gate resolve failed", "err", err)
		badRequest(w)
		return
	}

	form, err := decodeForm(r)
	if err != nil {
		badRequest(w)
		return
	}
	username := form.Field("username")
	curpw := form.Field("curpw")
	password := form.Field("password")
	good := form.Field("good")
	bad := form.Field("bad")

	inGracePeriod := sessUser != nil && sessUser.Username == username && caps&authgate.ForgotFlow != 0

	if err := h.cred.Change(ctx, username, curpw, password, inGracePeriod); err != nil {
		h.logCredentialError("change", err)
		redirect(w, bad, nil, h.now())
		return
	}
	redirect(w, good, nil, h.now())
}
