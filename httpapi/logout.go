package httpapi

import "net/http"

// handleLogout implements POST /logout — spec.md §4.4 Logout: requires a
// current session, demotes it to anonymous, redirects to good.
func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
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
	good := form.Field("good")

	demoted, err := h.sess.Demote(ctx, resolved.ID)
	if err != nil {
		h.log.Error("session demote failed", "err", err)
		badRequest(w)
		return
	}
	redirect(w, good, demoted, h.now())
}
