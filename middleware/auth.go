package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// BearerAuthConfig holds bearer-token authentication configuration.
type BearerAuthConfig struct {
	// Secret is the HMAC key tokens are verified with. Required.
	Secret string

	// Issuer, when set, is required to match the token's iss claim.
	Issuer string

	// Skipper defines a function to skip authentication.
	Skipper Skipper
}

type claimsKey struct{}

// ClaimsFromRequest returns the verified token claims attached by
// BearerAuth, or nil when the request was not authenticated.
func ClaimsFromRequest(r *http.Request) *jwt.RegisteredClaims {
	claims, _ := r.Context().Value(claimsKey{}).(*jwt.RegisteredClaims)
	return claims
}

// BearerAuth returns a middleware that verifies a Bearer token in the
// Authorization header. Tokens must be HS256-signed with the configured
// secret; failures are rejected with 401 and the handler never runs.
func BearerAuth(config BearerAuthConfig) Middleware {
	if config.Skipper == nil {
		config.Skipper = DefaultSkipper
	}

	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{"HS256"})}
	if config.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(config.Issuer))
	}

	return func(next HandlerFunc) HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) error {
			if config.Skipper(r) {
				return next(w, r)
			}

			auth := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(auth, "Bearer ")
			if !ok || token == "" {
				w.Header().Set("WWW-Authenticate", "Bearer")
				http.Error(w, "401 unauthorized", http.StatusUnauthorized)
				return nil
			}

			claims := &jwt.RegisteredClaims{}
			_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
				return []byte(config.Secret), nil
			}, opts...)
			if err != nil {
				w.Header().Set("WWW-Authenticate", "Bearer")
				http.Error(w, "401 unauthorized", http.StatusUnauthorized)
				return nil
			}

			r = r.WithContext(context.WithValue(r.Context(), claimsKey{}, claims))
			return next(w, r)
		}
	}
}
