package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// RequestIDConfig defines the config for the RequestID middleware.
type RequestIDConfig struct {
	// Skipper defines a function to skip the middleware.
	Skipper Skipper

	// Generator defines a function to generate an ID.
	// Optional. Defaults to UUID v4.
	Generator func() string

	// TargetHeader defines the header name to look for an existing
	// request ID. Optional. Defaults to X-Request-ID.
	TargetHeader string
}

// DefaultRequestIDConfig is the default RequestID middleware config.
var DefaultRequestIDConfig = RequestIDConfig{
	Skipper:      DefaultSkipper,
	Generator:    func() string { return uuid.New().String() },
	TargetHeader: "X-Request-ID",
}

type requestIDKey struct{}

// RequestIDFromRequest returns the request ID attached by the RequestID
// middleware, or "" when the middleware did not run.
func RequestIDFromRequest(r *http.Request) string {
	rid, _ := r.Context().Value(requestIDKey{}).(string)
	return rid
}

// RequestID returns a middleware that attaches a unique ID to each
// request. An incoming ID in the target header is reused; otherwise a new
// one is generated. The ID is echoed in the response header and stored in
// the request context.
func RequestID() Middleware {
	return RequestIDWithConfig(DefaultRequestIDConfig)
}

// RequestIDWithConfig returns a RequestID middleware with config.
func RequestIDWithConfig(config RequestIDConfig) Middleware {
	if config.Skipper == nil {
		config.Skipper = DefaultRequestIDConfig.Skipper
	}
	if config.Generator == nil {
		config.Generator = DefaultRequestIDConfig.Generator
	}
	if config.TargetHeader == "" {
		config.TargetHeader = DefaultRequestIDConfig.TargetHeader
	}

	return func(next HandlerFunc) HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) error {
			if config.Skipper(r) {
				return next(w, r)
			}

			rid := r.Header.Get(config.TargetHeader)
			if rid == "" {
				rid = config.Generator()
			}

			w.Header().Set(config.TargetHeader, rid)
			r = r.WithContext(context.WithValue(r.Context(), requestIDKey{}, rid))
			return next(w, r)
		}
	}
}
