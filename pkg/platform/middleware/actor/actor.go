// Package actor provides middleware that records the acting party and the
// request correlation ID on the context, so every audit entry and emitted
// fact names who triggered it.
package actor

import (
	"net/http"

	"github.com/google/uuid"

	"urithi/pkg/requestcontext"
)

// Header names the client uses to identify the acting party and correlate
// requests.
const (
	HeaderActingParty = "X-Acting-Party"
	HeaderRequestID   = "X-Request-ID"
)

// Middleware copies the acting party and request ID into the context. A
// missing actor falls back to "system" inside requestcontext; a missing
// request ID gets a fresh UUID.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if actor := r.Header.Get(HeaderActingParty); actor != "" {
			ctx = requestcontext.WithActor(ctx, actor)
		}
		requestID := r.Header.Get(HeaderRequestID)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		ctx = requestcontext.WithRequestID(ctx, requestID)
		w.Header().Set(HeaderRequestID, requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
