package common

import (
	"context"
	"net/http"
)

type ctxKey string

const sessionIDKey ctxKey = "kasir/session-id"

// WithSessionID stores the resolved shopping session identifier on the context.
func WithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionIDKey, id)
}

// SessionID extracts the shopping session identifier from the context if present.
func SessionID(ctx context.Context) (string, bool) {
	v := ctx.Value(sessionIDKey)
	if v == nil {
		return "", false
	}
	id, ok := v.(string)
	return id, ok && id != ""
}

// SessionAnnotator is implemented by response writers that record the session
// handled by a request, e.g. for access logs written by outer middleware.
type SessionAnnotator interface {
	SetSessionID(id string)
}

// AnnotateSession reports id to the first writer in w's Unwrap chain that
// supports annotation.
func AnnotateSession(w http.ResponseWriter, id string) {
	for w != nil {
		if a, ok := w.(SessionAnnotator); ok {
			a.SetSessionID(id)
			return
		}
		u, ok := w.(interface{ Unwrap() http.ResponseWriter })
		if !ok {
			return
		}
		w = u.Unwrap()
	}
}
