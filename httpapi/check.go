package httpapi

import "net/http"

// handleCheck implements GET /check?username=x|email=x — spec.md §4.4
// /check: single-byte body, "1" if taken, "0" if not.
func (h *Handler) handleCheck(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	username := q.Get("username")
	email := q.Get("email")

	taken, err := h.cred.Check(r.Context(), username, email)
	if err != nil {
		h.log.Error("check failed", "err", err)
		badRequest(w)
		return
	}
	writeCheckResult(w, taken)
}
