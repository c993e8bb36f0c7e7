package security

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func newCSRF() CSRF {
	return CSRF{Header: "X-CSRF-Token", SessionCookie: "kasir_session", SessionHeader: "X-Session-ID"}
}

func TestCSRFIssuesTokenOnSafeRequests(t *testing.T) {
	rr := httptest.NewRecorder()
	newCSRF().Middleware(okHandler(http.StatusOK)).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/catalog", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var found bool
	for _, ck := range rr.Result().Cookies() {
		if ck.Name == "csrf_token" {
			found = ck.Value != ""
		}
	}
	require.True(t, found)
}

func TestCSRFBlocksCookieSessionWithoutToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/session/items", nil)
	req.AddCookie(&http.Cookie{Name: "kasir_session", Value: "s1"})
	rr := httptest.NewRecorder()
	newCSRF().Middleware(okHandler(http.StatusOK)).ServeHTTP(rr, req)
	require.Equal(t, http.StatusForbidden, rr.Code)
}

func TestCSRFAllowsMatchingToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/session/items", nil)
	req.AddCookie(&http.Cookie{Name: "kasir_session", Value: "s1"})
	req.AddCookie(&http.Cookie{Name: "csrf_token", Value: "tok"})
	req.Header.Set("X-CSRF-Token", "tok")
	rr := httptest.NewRecorder()
	newCSRF().Middleware(okHandler(http.StatusOK)).ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	req.Header.Set("X-CSRF-Token", "other")
	rr = httptest.NewRecorder()
	newCSRF().Middleware(okHandler(http.StatusOK)).ServeHTTP(rr, req)
	require.Equal(t, http.StatusForbidden, rr.Code)
}

func TestCSRFSkipsHeaderSessionsAndAnonymousRequests(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/session/items", nil)
	req.Header.Set("X-Session-ID", "s1")
	rr := httptest.NewRecorder()
	newCSRF().Middleware(okHandler(http.StatusAccepted)).ServeHTTP(rr, req)
	require.Equal(t, http.StatusAccepted, rr.Code)

	rr = httptest.NewRecorder()
	newCSRF().Middleware(okHandler(http.StatusCreated)).ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/v1/session", nil))
	require.Equal(t, http.StatusCreated, rr.Code)
}
