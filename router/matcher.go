package router

import (
	"net/url"
	"strings"
)

// normalizePath strips a single trailing slash, leaving the root path
// untouched.
func normalizePath(p string) string {
	if len(p) > 1 && strings.HasSuffix(p, "/") {
		return p[:len(p)-1]
	}
	return p
}

// splitSegments splits a normalized path into its segments without the
// leading slash.
func splitSegments(p string) []string {
	return strings.Split(strings.TrimPrefix(p, "/"), "/")
}

// Match finds the entry for the given request path. Exact path hits always
// win over parameterized candidates; parameterized entries are then tested
// segment-by-segment in specificity order. The request path is expected in
// its escaped form: parameter values are percent-decoded as they bind, and
// a segment that fails to decode simply fails that candidate.
func (t *Table) Match(path string) (*Match, bool) {
	p := normalizePath(path)

	if e, ok := t.entries[p]; ok {
		return &Match{Path: e.Path, Entry: e}, true
	}

	req := splitSegments(p)
	for _, e := range t.parameterized {
		if params, ok := matchSegments(e.segments, req); ok {
			return &Match{Path: e.Path, Entry: e, Params: params}, true
		}
	}
	return nil, false
}

// Resolve is the method-aware variant of Match. It distinguishes "no
// route" (ErrNotFound) from "route exists, method not allowed"
// (ErrMethodNotAllowed, with the Match still returned so the caller can
// build an Allow header).
func (t *Table) Resolve(method, path string) (HandlerFunc, *Match, error) {
	m, ok := t.Match(path)
	if !ok {
		return nil, nil, ErrNotFound
	}
	h, ok := m.Entry.Handler(method)
	if !ok {
		return nil, m, ErrMethodNotAllowed
	}
	return h, m, nil
}

// matchSegments tests a parameterized route against request segments. A
// parameter segment binds exactly one non-empty segment and records its
// decoded value; segment counts must match exactly.
func matchSegments(route, request []string) (map[string]string, bool) {
	if len(route) != len(request) {
		return nil, false
	}

	var params map[string]string
	for i, seg := range route {
		if name, ok := strings.CutPrefix(seg, ":"); ok {
			if request[i] == "" {
				return nil, false
			}
			value, err := url.PathUnescape(request[i])
			if err != nil {
				return nil, false
			}
			if params == nil {
				params = make(map[string]string, len(route))
			}
			params[name] = value
			continue
		}
		if seg != request[i] {
			return nil, false
		}
	}
	return params, true
}
