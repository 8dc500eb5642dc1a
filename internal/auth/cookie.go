// Session transport: how the signed token travels between browser and server.
//
// COOKIE-BASED TOKEN STORAGE (OWASP A05/A07):
// The JWT is stored in an HttpOnly cookie rather than localStorage or a
// response body. HttpOnly means JavaScript cannot read it, so an injected
// script (XSS) cannot exfiltrate the session. SameSite=Lax stops the browser
// from attaching it to cross-site POSTs, which blunts CSRF.
//
// THE SET/CLEAR FLAG CONTRACT:
// Browsers identify a cookie by (name, domain, path) AND treat the security
// attributes as part of the match when overwriting. If logout clears the
// cookie with a different Path or a different Secure flag than login used to
// set it, the browser silently keeps the old cookie and the user stays
// logged in. Attach and Clear therefore build the cookie from one shared
// helper so the flags can never drift apart.
package auth

import (
	"net/http"
	"strings"
)

// SessionCookieName is the name of the session cookie.
const SessionCookieName = "authToken"

// sessionCookie builds the session cookie with the flag set shared by
// AttachSession and ClearSession.
//
// Secure is enabled only in production: local development runs over plain
// HTTP, and a Secure cookie would never be sent back by the browser there.
func sessionCookie(value string, maxAge int, production bool) *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   production,
	}
}

// AttachSession sets the token as the session cookie on the response.
// Max-Age mirrors the token's expiry exactly — the browser drops the cookie
// at the same moment the server would reject the token inside it.
func AttachSession(w http.ResponseWriter, token string, production bool) {
	http.SetCookie(w, sessionCookie(token, int(SessionDuration.Seconds()), production))
}

// ClearSession overwrites the session cookie with an empty value and a
// negative Max-Age (serialized as Max-Age=0, which tells the browser to
// delete the cookie immediately). All other attributes are identical to
// the ones AttachSession used — see the flag contract above.
func ClearSession(w http.ResponseWriter, production bool) {
	http.SetCookie(w, sessionCookie("", -1, production))
}

// ExtractToken reads the session token from the request.
//
// The cookie is the primary transport. For non-browser clients (curl,
// mobile apps) a standard "Authorization: Bearer <token>" header is
// accepted as a fallback. Returns ("", false) if neither is present.
func ExtractToken(r *http.Request) (string, bool) {
	if cookie, err := r.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
		return cookie.Value, true
	}

	if h := r.Header.Get("Authorization"); h != "" {
		if token, ok := strings.CutPrefix(h, "Bearer "); ok && token != "" {
			return token, true
		}
	}

	return "", false
}
