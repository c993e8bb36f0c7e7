package cart

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/noah-isme/backend-kasir/internal/common"
)

// SessionHeader carries the session id for clients that do not keep cookies.
const SessionHeader = "X-Session-ID"

// DefaultCookieName is used when Handler.CookieName is empty.
const DefaultCookieName = "kasir_session"

// Handler exposes the checkout counter over HTTP.
type Handler struct {
	Service        *Service
	CookieName     string
	CookieDomain   string
	CookieSecure   bool
	CookieSameSite http.SameSite
	CookieTTL      time.Duration
	NewID          func() string
}

var kindStatus = map[string]int{
	KindInvalidInput:    http.StatusBadRequest,
	KindInvalidQuantity: http.StatusBadRequest,
	KindItemNotFound:    http.StatusNotFound,
	KindSessionInactive: http.StatusConflict,
	KindEmptyCart:       http.StatusConflict,
	KindNoSession:       http.StatusNotFound,
	KindNoInvoice:       http.StatusNotFound,
}

var kindText = map[string]string{
	KindInvalidInput:    "Please enter your name",
	KindInvalidQuantity: "Quantity must be greater than 0",
	KindItemNotFound:    "Sorry, the item you entered is not available",
	KindSessionInactive: "No active session. Please start a new session",
	KindEmptyCart:       "No items in cart to bill",
	KindNoSession:       "No active session",
	KindNoInvoice:       "Invoice has not been generated yet",
}

// sessionView is the JSON form of a session read.
type sessionView struct {
	ID    string `json:"sessionId"`
	State State  `json:"state"`
	*Session
}

func view(id string, s *Session) sessionView {
	return sessionView{ID: id, State: s.State(), Session: s}
}

// ResolveSession reads the session id from the X-Session-ID header or the
// session cookie and stores it on the request context. Only ids with a stored
// session resolve; any other value is ignored so clients cannot pick ids.
func (h *Handler) ResolveSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(SessionHeader))
		if id == "" {
			if c, err := r.Cookie(h.cookieName()); err == nil {
				id = strings.TrimSpace(c.Value)
			}
		}
		if id == "" || h.Service == nil {
			next.ServeHTTP(w, r)
			return
		}
		if _, err := h.Service.Get(r.Context(), id); err != nil {
			if !errors.Is(err, ErrNoSession) {
				h.Service.Logger.Warn().Err(err).Msg("session lookup failed")
			}
			next.ServeHTTP(w, r)
			return
		}
		common.AnnotateSession(w, id)
		next.ServeHTTP(w, r.WithContext(common.WithSessionID(r.Context(), id)))
	})
}

// Start handles POST /api/v1/session. A resolved session is replaced in place;
// otherwise a fresh id is minted.
func (h *Handler) Start(w http.ResponseWriter, r *http.Request) {
	if !h.configured(w) {
		return
	}
	req, err := DecodeStart(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	name, err := ParseCustomerName(req.Name)
	if err != nil {
		h.writeError(w, err)
		return
	}
	id, ok := common.SessionID(r.Context())
	if !ok {
		id = h.newID()
		common.AnnotateSession(w, id)
	}
	sess, err := h.Service.Start(r.Context(), id, name)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.setCookie(w, id)
	w.Header().Set(SessionHeader, id)
	common.JSONResult(w, http.StatusCreated, view(id, sess), &common.Message{
		Category: common.CategorySuccess,
		Text:     fmt.Sprintf("Welcome, %s!", sess.CustomerName),
	})
}

// Get handles GET /api/v1/session.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	if !h.configured(w) {
		return
	}
	id, _ := common.SessionID(r.Context())
	sess, err := h.Service.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSONResult(w, http.StatusOK, view(id, sess), nil)
}

// Reset handles DELETE /api/v1/session. It always succeeds.
func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	if !h.configured(w) {
		return
	}
	if id, ok := common.SessionID(r.Context()); ok {
		h.Service.Reset(r.Context(), id)
	}
	h.clearCookie(w)
	common.JSONResult(w, http.StatusOK, map[string]any{"state": StateNone}, &common.Message{
		Category: common.CategoryInfo,
		Text:     "Session has been reset",
	})
}

// AddItem handles POST /api/v1/session/items.
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	if !h.configured(w) {
		return
	}
	req, err := DecodeAddItem(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	key, qty, err := ValidateAddItem(req)
	if err != nil {
		if errors.Is(err, ErrInvalidQuantity) {
			h.writeErrorText(w, err, "Please enter a valid quantity")
			return
		}
		h.writeError(w, err)
		return
	}
	id, _ := common.SessionID(r.Context())
	res, err := h.Service.AddItem(r.Context(), id, key, qty)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSONResult(w, http.StatusOK, view(id, res.Session), &common.Message{
		Category: common.CategorySuccess,
		Text:     fmt.Sprintf("%s added to cart successfully!", res.Line.Name),
	})
}

// RemoveItem handles DELETE /api/v1/session/items/{index}. An index outside
// the cart is a no-op answered with a warning.
func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	if !h.configured(w) {
		return
	}
	id, _ := common.SessionID(r.Context())
	var res ItemResult
	index, err := ParseIndex(chi.URLParam(r, "index"))
	if err == nil {
		res, err = h.Service.RemoveItem(r.Context(), id, index)
	}
	switch {
	case err == nil:
		common.JSONResult(w, http.StatusOK, view(id, res.Session), &common.Message{
			Category: common.CategoryInfo,
			Text:     fmt.Sprintf("%s removed from cart", res.Line.Name),
		})
		return
	case !errors.Is(err, ErrIndexOutOfRange):
		h.writeError(w, err)
		return
	}
	sess := res.Session
	if sess == nil {
		// the index never reached the cart; report against the stored state
		sess, err = h.Service.Get(r.Context(), id)
		if errors.Is(err, ErrNoSession) {
			err = ErrSessionInactive
		}
		if err != nil {
			h.writeError(w, err)
			return
		}
		if !sess.Active {
			h.writeError(w, ErrSessionInactive)
			return
		}
	}
	common.JSONResult(w, http.StatusOK, view(id, sess), &common.Message{
		Category: common.CategoryWarning,
		Text:     "Invalid item selection",
	})
}

// Finalize handles POST /api/v1/session/invoice.
func (h *Handler) Finalize(w http.ResponseWriter, r *http.Request) {
	if !h.configured(w) {
		return
	}
	id, _ := common.SessionID(r.Context())
	inv, err := h.Service.Finalize(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSONResult(w, http.StatusCreated, inv, &common.Message{
		Category: common.CategorySuccess,
		Text:     fmt.Sprintf("Bill generated for %s", inv.CustomerName),
	})
}

// Invoice handles GET /api/v1/session/invoice.
func (h *Handler) Invoice(w http.ResponseWriter, r *http.Request) {
	if !h.configured(w) {
		return
	}
	id, _ := common.SessionID(r.Context())
	inv, err := h.Service.Invoice(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSONResult(w, http.StatusOK, inv, nil)
}

func (h *Handler) configured(w http.ResponseWriter) bool {
	if h.Service == nil {
		common.JSONError(w, http.StatusInternalServerError, KindInternal, "cart service not configured", nil)
		return false
	}
	return true
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	h.writeErrorText(w, err, "")
}

func (h *Handler) writeErrorText(w http.ResponseWriter, err error, text string) {
	if common.WriteAppError(w, err) {
		return
	}
	kind := Kind(err)
	status, ok := kindStatus[kind]
	if !ok {
		common.JSONError(w, http.StatusInternalServerError, KindInternal, "internal error", nil)
		return
	}
	if text == "" {
		text = kindText[kind]
	}
	common.JSONError(w, status, kind, text, nil)
}

func (h *Handler) cookieName() string {
	if h.CookieName == "" {
		return DefaultCookieName
	}
	return h.CookieName
}

func (h *Handler) newID() string {
	if h.NewID != nil {
		return h.NewID()
	}
	return uuid.NewString()
}

func (h *Handler) setCookie(w http.ResponseWriter, id string) {
	c := &http.Cookie{
		Name:     h.cookieName(),
		Value:    id,
		Domain:   h.CookieDomain,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.CookieSecure,
		SameSite: h.CookieSameSite,
	}
	if h.CookieTTL > 0 {
		c.MaxAge = int(h.CookieTTL / time.Second)
	}
	http.SetCookie(w, c)
}

func (h *Handler) clearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookieName(),
		Value:    "",
		Domain:   h.CookieDomain,
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.CookieSecure,
		SameSite: h.CookieSameSite,
	})
}
