// Package shield provides the HTTP middleware in front of memeserver:
// security headers, body limits, request tracing, per-IP rate limiting and
// HEAD handling.
//
// Usage:
//
//	r := chi.NewRouter()
//	for _, mw := range shield.DefaultStack(limiter) {
//	    r.Use(mw)
//	}
package shield

import "net/http"

type contextKey string

// LoggerKey is the context key for the per-request structured logger.
const LoggerKey contextKey = "shield_logger"

// maxFormBytes caps urlencoded form bodies (the create form is tiny).
const maxFormBytes = 64 * 1024

// DefaultStack returns the middleware stack in order:
// HeadToGet → SecurityHeaders → MaxFormBody → TraceID → RateLimiter.
// A nil limiter is left out.
func DefaultStack(rl *RateLimiter) []func(http.Handler) http.Handler {
	stack := []func(http.Handler) http.Handler{
		HeadToGet,
		SecurityHeaders(DefaultHeaders()),
		MaxFormBody(maxFormBytes),
		TraceID,
	}
	if rl != nil {
		stack = append(stack, rl.Middleware)
	}
	return stack
}
