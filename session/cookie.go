package session

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/lwsgs/lwsgs/crypto"
)

// CookieName is the single cookie this module ever reads or writes.
const CookieName = "id"

// cookieHeaderValue builds the advisory attributes the spec describes;
// only the leading "id=<40hex>" segment is ever parsed back on read.
// Expires is emitted in RFC 1123 (GMT) rather than the reference's
// "%F %H:%M %Z" — an explicit format upgrade, see DESIGN.md.
func cookieHeaderValue(id string, expire, now int64) string {
	maxAge := expire - now
	if maxAge < 0 {
		maxAge = 0
	}
	expiresAt := time.Unix(expire, 0).UTC()
	var b strings.Builder
	b.WriteString(CookieName)
	b.WriteByte('=')
	b.WriteString(id)
	b.WriteString(";Expires=")
	b.WriteString(expiresAt.Format(http.TimeFormat))
	b.WriteString(";path=/;Max-Age=")
	b.WriteString(strconv.FormatInt(maxAge, 10))
	b.WriteString(";HttpOnly")
	return b.String()
}

// DecodeCookie scans a Cookie header value for the first "id=" and reads
// up to 40 lowercase hex characters after it. It returns ("", false) for
// anything short of an exact 40-hex match, matching the spec's "any
// deviation is treated as no session" rule.
func DecodeCookie(header string) (string, bool) {
	idx := strings.Index(header, "id=")
	if idx < 0 {
		return "", false
	}
	rest := header[idx+len("id="):]
	end := 0
	for end < len(rest) && end < crypto.HexLen && isHexByte(rest[end]) {
		end++
	}
	if end != crypto.HexLen {
		return "", false
	}
	// The next character, if any, must not itself be a hex digit,
	// otherwise we've matched a prefix of a longer, invalid token.
	if end < len(rest) && isHexByte(rest[end]) {
		return "", false
	}
	return rest[:end], true
}

func isHexByte(b byte) bool {
	return (b >= '0' && b <= '9') || (b >= 'a' && b <= 'f')
}

// SetCookie appends a Set-Cookie header for the given session to w.
func SetCookie(w http.ResponseWriter, id string, expire, now int64) {
	w.Header().Add("Set-Cookie", cookieHeaderValue(id, expire, now))
}

// DeleteCookie appends a Set-Cookie header that expires the cookie
// immediately. httpapi emits it ahead of every Set-Cookie for a new or
// changed session, so the client drops the old id first.
func DeleteCookie(w http.ResponseWriter) {
	w.Header().Add("Set-Cookie", CookieName+"=;Expires="+time.Unix(0, 0).UTC().Format(http.TimeFormat)+";path=/;Max-Age=0;HttpOnly")
}
