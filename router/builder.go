package router

import (
	"io"
	"io/fs"
	"net/http"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"
)

// BuilderConfig controls the directory scan.
type BuilderConfig struct {
	// Extensions is the set of route-file extensions to scan. Files with
	// any other extension are ignored.
	Extensions []string

	// Logger receives structured warnings for skipped files. Optional.
	Logger *zap.Logger
}

// DefaultBuilderConfig returns the default scan configuration.
func DefaultBuilderConfig() BuilderConfig {
	return BuilderConfig{
		Extensions: []string{".route"},
		Logger:     zap.NewNop(),
	}
}

// methodNames maps recognized route-file base names to HTTP methods. The
// index name is an alias for GET.
var methodNames = map[string]string{
	"index":   http.MethodGet,
	"get":     http.MethodGet,
	"post":    http.MethodPost,
	"put":     http.MethodPut,
	"delete":  http.MethodDelete,
	"patch":   http.MethodPatch,
	"options": http.MethodOptions,
	"head":    http.MethodHead,
}

// RouteFile describes one route file discovered by a scan, before handler
// resolution.
type RouteFile struct {
	// Key identifies the file in a Registry: its path relative to the scan
	// root, extension stripped, forward slashes.
	Key string

	// Path is the route path derived from the containing directory.
	Path string

	// Method is the HTTP method derived from the file base name.
	Method string

	// File is the path of the route file relative to the scan root.
	File string
}

// Scan walks the routes directory and returns the recognized route files
// in lexical walk order. Files prefixed with the exclusion marker, files
// with an unrecognized extension, and files whose base name is not a known
// method are skipped; skips are logged, never fatal. Directory read errors
// skip the directory the same way.
func Scan(root string, cfg BuilderConfig) []RouteFile {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if len(cfg.Extensions) == 0 {
		cfg.Extensions = DefaultBuilderConfig().Extensions
	}

	var files []RouteFile
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			cfg.Logger.Warn("skipping unreadable path",
				zap.String("path", path),
				zap.Error(err))
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}

		name := d.Name()
		if strings.HasPrefix(name, "_") {
			return nil
		}
		ext := filepath.Ext(name)
		if !containsExt(cfg.Extensions, ext) {
			return nil
		}

		method, ok := methodNames[strings.ToLower(strings.TrimSuffix(name, ext))]
		if !ok {
			cfg.Logger.Warn("route file name is not a recognized method, skipping",
				zap.String("file", path))
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			cfg.Logger.Warn("cannot resolve route file against root, skipping",
				zap.String("file", path),
				zap.Error(err))
			return nil
		}
		rel = filepath.ToSlash(rel)

		files = append(files, RouteFile{
			Key:    strings.TrimSuffix(rel, ext),
			Path:   routePathFor(rel),
			Method: method,
			File:   rel,
		})
		return nil
	})
	return files
}

// Build scans the routes directory and resolves every discovered file
// through the registry, producing an immutable table. See BuildWithConfig.
func Build(root string, reg *Registry) *Table {
	return BuildWithConfig(root, reg, DefaultBuilderConfig())
}

// BuildWithConfig builds a route table with explicit scan configuration.
// Any per-file problem (no registration, nil handler) is logged and the
// file skipped; the build itself never fails. A later file for the same
// path and method overwrites the earlier one, with a warning. When the
// scan yields no routes at all the table is seeded with a fixed-text
// GET / handler.
func BuildWithConfig(root string, reg *Registry, cfg BuilderConfig) *Table {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if reg == nil {
		reg = NewRegistry()
	}

	entries := make(map[string]*Entry)
	for _, rf := range Scan(root, cfg) {
		registration, ok := reg.lookup(rf.Key)
		if !ok {
			cfg.Logger.Warn("no registration for route file, skipping",
				zap.String("file", rf.File),
				zap.String("key", rf.Key))
			continue
		}

		var h HandlerFunc
		switch registration.Kind {
		case KindView:
			if registration.View != nil {
				h = viewHandler(registration.View)
			}
		default:
			h = registration.Handler
		}
		if h == nil {
			cfg.Logger.Warn("registration has no handler, skipping",
				zap.String("file", rf.File),
				zap.String("key", rf.Key))
			continue
		}

		e, ok := entries[rf.Path]
		if !ok {
			e = &Entry{
				Path:     rf.Path,
				handlers: make(map[string]HandlerFunc),
				segments: splitSegments(rf.Path),
			}
			entries[rf.Path] = e
		}
		if _, dup := e.handlers[rf.Method]; dup {
			cfg.Logger.Warn("duplicate route, later file overwrites earlier",
				zap.String("path", rf.Path),
				zap.String("method", rf.Method),
				zap.String("file", rf.File))
		}
		e.handlers[rf.Method] = h
	}

	if len(entries) == 0 {
		cfg.Logger.Info("no routes discovered, seeding default route",
			zap.String("root", root))
		entries["/"] = &Entry{
			Path:     "/",
			handlers: map[string]HandlerFunc{http.MethodGet: defaultRootHandler},
			segments: splitSegments("/"),
		}
	}

	table := newTable(entries)
	cfg.Logger.Info("route table built",
		zap.String("root", root),
		zap.Int("routes", table.Len()))
	return table
}

// routePathFor derives the route path from a route file's slash-separated
// relative path: the containing directory's segments, with $name segments
// becoming :name parameters. Files at the scan root map to "/".
func routePathFor(rel string) string {
	dir := strings.TrimSuffix(rel, "/"+filepath.Base(rel))
	if dir == rel || dir == "" || dir == "." {
		return "/"
	}
	segments := strings.Split(dir, "/")
	for i, seg := range segments {
		if len(seg) > 1 && strings.HasPrefix(seg, "$") {
			segments[i] = ":" + seg[1:]
		}
	}
	return "/" + strings.Join(segments, "/")
}

func containsExt(exts []string, ext string) bool {
	for _, e := range exts {
		if strings.EqualFold(e, ext) {
			return true
		}
	}
	return false
}

func defaultRootHandler(w http.ResponseWriter, r *http.Request) error {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, err := io.WriteString(w, "It works!\n")
	return err
}

// MethodNames returns the recognized route-file base names, sorted. Useful
// for tooling that explains the directory convention.
func MethodNames() []string {
	names := make([]string, 0, len(methodNames))
	for n := range methodNames {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
