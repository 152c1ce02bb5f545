package router

import (
	"net/http"

	"github.com/a-h/templ"
)

// Kind tags the two registration variants. A route file is bound either to
// a plain handler or to a server-rendered view, chosen explicitly at
// registration time.
type Kind int

const (
	KindHandler Kind = iota
	KindView
)

// ViewFunc produces the component to render for a request. The request is
// passed in so views can read parameters, headers, or context values.
type ViewFunc func(r *http.Request) templ.Component

// Registration binds a route file to its implementation.
type Registration struct {
	Kind    Kind
	Handler HandlerFunc
	View    ViewFunc
}

// Registry maps route-file keys to registrations. A key is the path of the
// route file relative to the scan root with its extension stripped, using
// forward slashes, e.g. "api/users/$id/get". The builder resolves every
// scanned file through the registry; files without a registration are
// skipped with a warning.
type Registry struct {
	entries map[string]Registration
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]Registration)}
}

// Handle registers a plain handler for a route-file key.
func (reg *Registry) Handle(key string, h HandlerFunc) {
	reg.entries[key] = Registration{Kind: KindHandler, Handler: h}
}

// View registers a server-rendered view for a route-file key.
func (reg *Registry) View(key string, v ViewFunc) {
	reg.entries[key] = Registration{Kind: KindView, View: v}
}

// Len returns the number of registrations.
func (reg *Registry) Len() int {
	return len(reg.entries)
}

func (reg *Registry) lookup(key string) (Registration, bool) {
	r, ok := reg.entries[key]
	return r, ok
}

// viewHandler wraps a view into a handler that streams the rendered
// component as HTML, with the request context attached so components can
// read request-scoped values.
func viewHandler(v ViewFunc) HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) error {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		return v(r).Render(r.Context(), w)
	}
}
