package httpapi

import "net/http"

// handleForgot implements GET /forgot?token=...&good=...&bad=... —
// spec.md §4.4 Forgot-password consume: validates the token, starts the
// change-password grace period, and binds a fresh authorized session.
func (h *Handler) handleForgot(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()
	token := q.Get("token")
	good := q.Get("good")
	bad := q.Get("bad")

	resolved, err := h.sess.Lookup(ctx, r)
	if err != nil {
		h.log.Error("session lookup failed", "err", err)
		badRequest(w)
		return
	}

	username, err := h.cred.ForgotConsume(ctx, token)
	if err != nil {
		h.logCredentialError("forgot-consume", err)
		redirect(w, h.cfg.ConfirmURL+"/"+bad, resolved, h.now())
		return
	}

	authorized, err := h.sess.Authorize(ctx, resolved.ID, username)
	if err != nil {
		h.log.Error("session authorize failed", "err", err)
		badRequest(w)
		return
	}
	redirect(w, h.cfg.ConfirmURL+"/"+good, authorized, h.now())
}
