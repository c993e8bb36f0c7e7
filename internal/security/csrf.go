package security

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/noah-isme/backend-kasir/internal/common"
)

// CSRF protects the cookie-bound session with the double-submit technique.
// Safe requests receive a token cookie; unsafe requests that carry the session
// cookie must echo the token in Header. Clients that identify the session via
// SessionHeader are not exposed to cross-site forgery and pass through.
type CSRF struct {
	Header        string
	SessionCookie string
	SessionHeader string
	Secure        bool
	SameSite      http.SameSite
}

// Middleware enforces the token check.
func (c CSRF) Middleware(next http.Handler) http.Handler {
	headerName := strings.TrimSpace(c.Header)
	if headerName == "" {
		headerName = "X-CSRF-Token"
	}
	cookieName := "csrf_token"

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
			if ck, err := r.Cookie(cookieName); err != nil || ck.Value == "" {
				http.SetCookie(w, &http.Cookie{
					Name:     cookieName,
					Value:    uuid.NewString(),
					Path:     "/",
					Secure:   c.Secure,
					SameSite: c.SameSite,
				})
			}
			next.ServeHTTP(w, r)
			return
		}

		if c.SessionHeader != "" && strings.TrimSpace(r.Header.Get(c.SessionHeader)) != "" {
			next.ServeHTTP(w, r)
			return
		}
		if ck, err := r.Cookie(c.SessionCookie); err != nil || strings.TrimSpace(ck.Value) == "" {
			next.ServeHTTP(w, r)
			return
		}

		token := strings.TrimSpace(r.Header.Get(headerName))
		if token == "" {
			common.JSONError(w, http.StatusForbidden, "CSRF", "missing csrf token", nil)
			return
		}
		cookie, err := r.Cookie(cookieName)
		if err != nil || strings.TrimSpace(cookie.Value) == "" {
			common.JSONError(w, http.StatusForbidden, "CSRF", "missing csrf cookie", nil)
			return
		}
		if subtle.ConstantTimeCompare([]byte(token), []byte(cookie.Value)) != 1 {
			common.JSONError(w, http.StatusForbidden, "CSRF", "invalid csrf token", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}
