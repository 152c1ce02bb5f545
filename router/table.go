// Package router builds HTTP route tables from filesystem conventions and
// matches request paths against them. A table is constructed once from a
// directory scan and is immutable afterward, so it can be shared across
// concurrent request handlers without locking.
package router

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"strings"
)

// HandlerFunc is the signature every route handler implements. Returned
// errors are logged by the dispatch loop; they never abort the process.
type HandlerFunc func(w http.ResponseWriter, r *http.Request) error

// Sentinel errors returned by Table.Resolve.
var (
	// ErrNotFound means no route path matched the request path.
	ErrNotFound = errors.New("router: no matching route")

	// ErrMethodNotAllowed means a route path matched but the entry has no
	// handler for the request method.
	ErrMethodNotAllowed = errors.New("router: method not allowed")
)

// Entry is the method-to-handler mapping registered for one route path.
type Entry struct {
	// Path is the normalized route path, e.g. "/api/users/:id".
	Path string

	handlers map[string]HandlerFunc
	segments []string
}

// Handler returns the handler registered for the given method. The method
// is upper-cased before lookup.
func (e *Entry) Handler(method string) (HandlerFunc, bool) {
	h, ok := e.handlers[strings.ToUpper(method)]
	return h, ok
}

// Methods returns the methods this entry supports, sorted alphabetically.
func (e *Entry) Methods() []string {
	methods := make([]string, 0, len(e.handlers))
	for m := range e.handlers {
		methods = append(methods, m)
	}
	sort.Strings(methods)
	return methods
}

// Allow builds the Allow header value for a 405 response: the supported
// methods sorted alphabetically, with HEAD included whenever GET is
// supported without an explicit HEAD handler.
func (e *Entry) Allow() string {
	methods := e.Methods()
	_, hasGet := e.handlers[http.MethodGet]
	_, hasHead := e.handlers[http.MethodHead]
	if hasGet && !hasHead {
		methods = append(methods, http.MethodHead)
		sort.Strings(methods)
	}
	return strings.Join(methods, ", ")
}

// parameterized reports whether the path contains at least one parameter
// segment.
func (e *Entry) parameterized() bool {
	for _, seg := range e.segments {
		if strings.HasPrefix(seg, ":") {
			return true
		}
	}
	return false
}

// literalCount counts the non-parameter segments, used to order
// parameterized candidates by specificity.
func (e *Entry) literalCount() int {
	n := 0
	for _, seg := range e.segments {
		if !strings.HasPrefix(seg, ":") {
			n++
		}
	}
	return n
}

// Table is an immutable route table: a lookup map keyed by route path plus
// a specificity-ordered slice of parameterized entries.
type Table struct {
	entries       map[string]*Entry
	parameterized []*Entry
}

// newTable finalizes a set of entries into a Table. Parameterized entries
// are ordered by descending literal-segment count, then by path, so that
// candidate iteration is deterministic and more specific routes win.
func newTable(entries map[string]*Entry) *Table {
	t := &Table{entries: entries}
	for _, e := range entries {
		if e.parameterized() {
			t.parameterized = append(t.parameterized, e)
		}
	}
	sort.Slice(t.parameterized, func(i, j int) bool {
		a, b := t.parameterized[i], t.parameterized[j]
		if a.literalCount() != b.literalCount() {
			return a.literalCount() > b.literalCount()
		}
		return a.Path < b.Path
	})
	return t
}

// Len returns the number of route paths in the table.
func (t *Table) Len() int {
	return len(t.entries)
}

// Entries returns all entries sorted by route path.
func (t *Table) Entries() []*Entry {
	out := make([]*Entry, 0, len(t.entries))
	for _, e := range t.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// Match is the transient result of a lookup: the matched entry plus the
// decoded parameter values extracted from the request path.
type Match struct {
	Path   string
	Entry  *Entry
	Params map[string]string
}

type paramsKey struct{}

// WithParams returns a request carrying the matched parameter values in
// its context.
func WithParams(r *http.Request, params map[string]string) *http.Request {
	if len(params) == 0 {
		return r
	}
	return r.WithContext(context.WithValue(r.Context(), paramsKey{}, params))
}

// Params returns the parameter values attached to the request, or nil when
// the matched route has no parameter segments.
func Params(r *http.Request) map[string]string {
	params, _ := r.Context().Value(paramsKey{}).(map[string]string)
	return params
}

// Param returns a single parameter value, or "" when absent.
func Param(r *http.Request, name string) string {
	return Params(r)[name]
}
