package app

import (
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/fsroute/fsroute/router"
)

// ServeHTTP dispatches a request: paths under the static prefix go to the
// asset guard, everything else is resolved against the current route table
// snapshot.
func (app *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if app.guard != nil {
		p := r.URL.EscapedPath()
		prefix := app.guard.Prefix()
		if p == prefix || strings.HasPrefix(p, prefix+"/") {
			app.guard.ServeHTTP(w, r)
			return
		}
	}
	app.dispatch(w, r)
}

// dispatch resolves the route and runs the handler under the middleware
// chain. A HEAD request without an explicit HEAD handler falls back to the
// GET handler through a body-discarding writer, so status and headers
// match GET exactly while the body stays empty.
func (app *App) dispatch(w http.ResponseWriter, r *http.Request) {
	table := app.table.Load()
	method := strings.ToUpper(r.Method)

	// Matching happens on the escaped path: parameter values are decoded
	// by the matcher itself, one segment at a time.
	h, m, err := table.Resolve(method, r.URL.EscapedPath())

	if errors.Is(err, router.ErrMethodNotAllowed) && method == http.MethodHead {
		if getHandler, ok := m.Entry.Handler(http.MethodGet); ok {
			h, err = getHandler, nil
			w = &discardBodyWriter{ResponseWriter: w}
		}
	}

	switch {
	case errors.Is(err, router.ErrNotFound):
		http.NotFound(w, r)
		return
	case errors.Is(err, router.ErrMethodNotAllowed):
		w.Header().Set("Allow", m.Entry.Allow())
		http.Error(w, "405 method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if m.Params != nil {
		r = router.WithParams(r, m.Params)
	}

	if err := app.chain.Then(h)(w, r); err != nil {
		app.logger.Error("unhandled handler error",
			zap.String("method", method),
			zap.String("path", r.URL.Path),
			zap.Error(err))
	}
}

// discardBodyWriter passes headers and status through and swallows the
// body, for HEAD fallback to GET handlers.
type discardBodyWriter struct {
	http.ResponseWriter
}

func (w *discardBodyWriter) Write(b []byte) (int, error) {
	return len(b), nil
}
