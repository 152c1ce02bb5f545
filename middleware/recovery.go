package middleware

import (
	"fmt"
	"net/http"

	"go.uber.org/zap"
)

// Recovery returns a middleware that converts handler panics into 500
// responses. The panic value and stack are logged; the process keeps
// serving.
func Recovery(logger *zap.Logger) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) (err error) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.Error("handler panic",
						zap.Any("panic", rec),
						zap.String("method", r.Method),
						zap.String("path", r.URL.Path),
						zap.Stack("stack"))
					http.Error(w, "500 internal server error", http.StatusInternalServerError)
					err = fmt.Errorf("panic: %v", rec)
				}
			}()
			return next(w, r)
		}
	}
}
