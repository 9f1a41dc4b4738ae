package testutil

import (
	"net/http"
	"time"

	"urithi/pkg/requestcontext"
)

// WithActor adds an acting party to the request context, simulating the
// actor middleware for handler tests.
func WithActor(req *http.Request, actor string) *http.Request {
	return req.WithContext(requestcontext.WithActor(req.Context(), actor))
}

// WithRequestTime pins the request-scoped time, simulating the requesttime
// middleware so date-driven rules are deterministic in tests.
func WithRequestTime(req *http.Request, t time.Time) *http.Request {
	return req.WithContext(requestcontext.WithTime(req.Context(), t))
}

// WithRequestID adds a correlation ID to the request context.
func WithRequestID(req *http.Request, requestID string) *http.Request {
	return req.WithContext(requestcontext.WithRequestID(req.Context(), requestID))
}
