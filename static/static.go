// Package static serves files from a fixed root directory with layered
// path-traversal defenses. Every rejection is a uniform 404 so responses
// do not leak filesystem structure; only malformed percent-encoding is
// surfaced as 400.
package static

import (
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Config defines the asset guard configuration.
type Config struct {
	// Root is the directory files are served from. Resolved to an
	// absolute, symlink-free path at construction.
	Root string

	// Prefix is the URL prefix assets are served under.
	Prefix string

	// CacheControl is the Cache-Control header value set on every
	// successful response.
	CacheControl string
}

// DefaultConfig returns the default asset guard configuration.
func DefaultConfig() Config {
	return Config{
		Root:         "public",
		Prefix:       "/assets",
		CacheControl: "public, max-age=3600",
	}
}

// Guard resolves request paths under a URL prefix to files inside a fixed
// root directory. Every served file must be a strict descendant of the
// root; the check runs on every request.
type Guard struct {
	root         string
	prefix       string
	cacheControl string
}

// New creates a guard for the given configuration. The root must exist so
// it can be resolved to a canonical absolute path; the descendant check
// relies on that resolution.
func New(cfg Config) (*Guard, error) {
	if cfg.Prefix == "" {
		cfg.Prefix = DefaultConfig().Prefix
	}
	if cfg.CacheControl == "" {
		cfg.CacheControl = DefaultConfig().CacheControl
	}

	abs, err := filepath.Abs(cfg.Root)
	if err != nil {
		return nil, err
	}
	root, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, err
	}

	return &Guard{
		root:         root,
		prefix:       strings.TrimSuffix(cfg.Prefix, "/"),
		cacheControl: cfg.CacheControl,
	}, nil
}

// Prefix returns the URL prefix the guard serves under.
func (g *Guard) Prefix() string {
	return g.prefix
}

// Root returns the resolved assets root directory.
func (g *Guard) Root() string {
	return g.root
}

// ServeHTTP resolves the request path inside the root and streams the file
// back. Decoded segments equal to "." or ".." or containing a separator
// are rejected, every intermediate path component is checked for symlinks,
// and the final path must still be a descendant of the root.
func (g *Guard) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// The escaped form keeps percent-encoding intact so decoding happens
	// exactly once, per segment, in locate.
	target, info, status := g.locate(r.URL.EscapedPath())
	switch status {
	case http.StatusOK:
	case http.StatusBadRequest:
		http.Error(w, "400 bad request", http.StatusBadRequest)
		return
	default:
		http.NotFound(w, r)
		return
	}

	f, err := os.Open(target)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", contentType(filepath.Ext(target)))
	w.Header().Set("Content-Length", strconv.FormatInt(info.Size(), 10))
	w.Header().Set("Cache-Control", g.cacheControl)
	w.Header().Set("Accept-Ranges", "bytes")
	w.WriteHeader(http.StatusOK)

	if r.Method == http.MethodHead {
		return
	}
	io.Copy(w, f)
}

// locate resolves an escaped request path to a regular file inside the
// root. It returns the filesystem path, the file info, and an HTTP status:
// 200 for a servable file, 400 for malformed percent-encoding, 404 for
// everything else.
func (g *Guard) locate(escapedPath string) (string, os.FileInfo, int) {
	var remainder string
	switch {
	case escapedPath == g.prefix:
		remainder = ""
	case strings.HasPrefix(escapedPath, g.prefix+"/"):
		remainder = escapedPath[len(g.prefix)+1:]
	default:
		return "", nil, http.StatusNotFound
	}

	var segments []string
	for _, raw := range strings.Split(remainder, "/") {
		if raw == "" {
			continue
		}
		seg, err := url.PathUnescape(raw)
		if err != nil {
			return "", nil, http.StatusBadRequest
		}
		if seg == "." || seg == ".." || strings.ContainsAny(seg, `/\`) {
			return "", nil, http.StatusNotFound
		}
		segments = append(segments, seg)
	}

	target := g.root
	var info os.FileInfo
	for _, seg := range segments {
		target = filepath.Join(target, seg)
		fi, err := os.Lstat(target)
		if err != nil {
			return "", nil, http.StatusNotFound
		}
		if fi.Mode()&os.ModeSymlink != 0 {
			return "", nil, http.StatusNotFound
		}
		info = fi
	}

	if target != g.root && !strings.HasPrefix(target, g.root+string(os.PathSeparator)) {
		return "", nil, http.StatusNotFound
	}
	if info == nil || !info.Mode().IsRegular() {
		return "", nil, http.StatusNotFound
	}
	return target, info, http.StatusOK
}
