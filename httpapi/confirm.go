package httpapi

import "net/http"

// handleConfirm implements GET /confirm?token=... — spec.md §4.4
// Confirm: on a valid token, flips verified to 100 and binds a fresh
// authorized session; otherwise redirects to the fixed failure page.
func (h *Handler) handleConfirm(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	token := r.URL.Query().Get("token")

	resolved, err := h.sess.Lookup(ctx, r)
	if err != nil {
		h.log.Error("session lookup failed", "err", err)
		badRequest(w)
		return
	}

	username, err := h.cred.Confirm(ctx, token)
	if err != nil {
		h.logCredentialError("confirm", err)
		redirect(w, h.cfg.ConfirmURL+"/post-verify-fail.html", resolved, h.now())
		return
	}

	authorized, err := h.sess.Authorize(ctx, resolved.ID, username)
	if err != nil {
		h.log.Error("session authorize failed", "err", err)
		badRequest(w)
		return
	}
	redirect(w, h.cfg.ConfirmURL+"/post-verify-ok.html", authorized, h.now())
}
