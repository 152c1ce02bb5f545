// Package middleware provides the middleware chain and common middleware
// for fsroute servers.
package middleware

import (
	"net/http"

	"github.com/fsroute/fsroute/router"
)

// HandlerFunc is an alias to router.HandlerFunc for convenience.
type HandlerFunc = router.HandlerFunc

// Middleware wraps a handler with additional behavior.
type Middleware func(HandlerFunc) HandlerFunc

// Skipper decides whether a middleware should pass a request through
// untouched.
type Skipper func(r *http.Request) bool

// DefaultSkipper returns false, processing the middleware for all requests.
func DefaultSkipper(*http.Request) bool {
	return false
}

// Chain represents a middleware chain that can be applied to handlers.
type Chain struct {
	middlewares []Middleware
}

// NewChain creates a new middleware chain.
func NewChain(middlewares ...Middleware) *Chain {
	return &Chain{
		middlewares: append([]Middleware(nil), middlewares...),
	}
}

// Then chains the middleware and returns the final handler.
func (c *Chain) Then(h HandlerFunc) HandlerFunc {
	if h == nil {
		h = func(w http.ResponseWriter, r *http.Request) error {
			return nil
		}
	}
	for i := len(c.middlewares) - 1; i >= 0; i-- {
		h = c.middlewares[i](h)
	}
	return h
}

// Append returns a new chain with additional middleware appended.
func (c *Chain) Append(middlewares ...Middleware) *Chain {
	newChain := &Chain{
		middlewares: make([]Middleware, len(c.middlewares)+len(middlewares)),
	}
	copy(newChain.middlewares, c.middlewares)
	copy(newChain.middlewares[len(c.middlewares):], middlewares)
	return newChain
}

// Len returns the number of middlewares in the chain.
func (c *Chain) Len() int {
	return len(c.middlewares)
}
