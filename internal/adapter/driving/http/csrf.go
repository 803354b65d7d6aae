package httphandler

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"net/http"
)

const (
	csrfCookieName = "csrf_token"
	csrfHeaderName = "X-CSRF-Token"
	csrfFormField  = "csrf_token"
	csrfTokenBytes = 32
)

// csrfMiddleware issues a double-submit token cookie and rejects state-changing
// requests whose header or form token does not match it.
func csrfMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			ensureCSRFCookie(w, r)
		default:
			if !validateCSRF(r) {
				writeError(w, http.StatusForbidden, "invalid or missing CSRF token")
				return
			}
		}

		next.ServeHTTP(w, r)
	})
}

// ensureCSRFCookie sets the token cookie unless the request already carries
// one. The cookie is readable by app.js, which echoes it in X-CSRF-Token.
func ensureCSRFCookie(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(csrfCookieName); err == nil && cookie.Value != "" {
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     csrfCookieName,
		Value:    generateToken(),
		Path:     "/",
		HttpOnly: false,
		SameSite: http.SameSiteStrictMode,
	})
}

// validateCSRF reports whether the header (or form field) token matches the
// cookie. Both must be non-empty.
func validateCSRF(r *http.Request) bool {
	cookie, err := r.Cookie(csrfCookieName)
	if err != nil || cookie.Value == "" {
		return false
	}

	token := r.Header.Get(csrfHeaderName)
	if token == "" {
		token = r.FormValue(csrfFormField)
	}

	return token != "" && subtle.ConstantTimeCompare([]byte(token), []byte(cookie.Value)) == 1
}

func generateToken() string {
	b := make([]byte, csrfTokenBytes)
	if _, err := rand.Read(b); err != nil {
		panic("csrf: failed to generate random token: " + err.Error())
	}
	return hex.EncodeToString(b)
}
