package app_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/fsroute/fsroute/app"
	"github.com/fsroute/fsroute/config"
	"github.com/fsroute/fsroute/router"
)

type fixture struct {
	app       *app.App
	routesDir string
}

// newFixture builds an app over a temp routes directory and a temp static
// root containing app.css.
func newFixture(t *testing.T, reg *router.Registry, files ...string) *fixture {
	t.Helper()

	routesDir := t.TempDir()
	for _, f := range files {
		full := filepath.Join(routesDir, filepath.FromSlash(f))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, nil, 0o644))
	}

	staticRoot := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(staticRoot, "app.css"), []byte("body{}"), 0o644))

	cfg := config.DefaultConfig()
	cfg.Routes.Dir = routesDir
	cfg.Static.Root = staticRoot

	a, err := app.NewApp(
		app.WithConfig(cfg),
		app.WithLogger(zaptest.NewLogger(t)),
		app.WithRegistry(reg),
	)
	require.NoError(t, err)

	return &fixture{app: a, routesDir: routesDir}
}

func (f *fixture) do(method, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	f.app.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func TestApp_DispatchWithParams(t *testing.T) {
	reg := router.NewRegistry()
	reg.Handle("items/$id/get", func(w http.ResponseWriter, r *http.Request) error {
		_, err := io.WriteString(w, "item "+router.Param(r, "id"))
		return err
	})

	f := newFixture(t, reg, "items/$id/get.route")

	rec := f.do(http.MethodGet, "/items/42")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "item 42", rec.Body.String())
}

func TestApp_NotFound(t *testing.T) {
	f := newFixture(t, router.NewRegistry())

	rec := f.do(http.MethodGet, "/missing")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestApp_MethodNotAllowed(t *testing.T) {
	reg := router.NewRegistry()
	reg.Handle("widgets/get", func(w http.ResponseWriter, r *http.Request) error { return nil })
	reg.Handle("widgets/post", func(w http.ResponseWriter, r *http.Request) error { return nil })

	f := newFixture(t, reg, "widgets/get.route", "widgets/post.route")

	rec := f.do(http.MethodDelete, "/widgets")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "GET, HEAD, POST", rec.Header().Get("Allow"))
}

func TestApp_HeadFallsBackToGet(t *testing.T) {
	reg := router.NewRegistry()
	reg.Handle("docs/get", func(w http.ResponseWriter, r *http.Request) error {
		w.Header().Set("X-Doc-Count", "3")
		_, err := io.WriteString(w, "doc body")
		return err
	})

	f := newFixture(t, reg, "docs/get.route")

	getRec := f.do(http.MethodGet, "/docs")
	headRec := f.do(http.MethodHead, "/docs")

	assert.Equal(t, getRec.Code, headRec.Code)
	assert.Equal(t, "3", headRec.Header().Get("X-Doc-Count"))
	assert.Empty(t, headRec.Body.String())
	assert.Equal(t, "doc body", getRec.Body.String())
}

func TestApp_StaticAndRoutesCoexist(t *testing.T) {
	reg := router.NewRegistry()
	reg.Handle("index", func(w http.ResponseWriter, r *http.Request) error {
		_, err := io.WriteString(w, "home")
		return err
	})

	f := newFixture(t, reg, "index.route")

	rec := f.do(http.MethodGet, "/")
	assert.Equal(t, "home", rec.Body.String())

	rec = f.do(http.MethodGet, "/assets/app.css")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/css; charset=utf-8", rec.Header().Get("Content-Type"))

	// Traversal through the asset prefix stays rejected at the app level.
	rec = f.do(http.MethodGet, "/assets/../secret")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestApp_PanicRecovered(t *testing.T) {
	reg := router.NewRegistry()
	reg.Handle("boom/get", func(w http.ResponseWriter, r *http.Request) error {
		panic("kaboom")
	})

	f := newFixture(t, reg, "boom/get.route")

	rec := f.do(http.MethodGet, "/boom")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestApp_RequestIDHeaderSet(t *testing.T) {
	reg := router.NewRegistry()
	reg.Handle("index", func(w http.ResponseWriter, r *http.Request) error { return nil })

	f := newFixture(t, reg, "index.route")

	rec := f.do(http.MethodGet, "/")
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestApp_Reload(t *testing.T) {
	reg := router.NewRegistry()
	reg.Handle("index", func(w http.ResponseWriter, r *http.Request) error { return nil })
	reg.Handle("late/get", func(w http.ResponseWriter, r *http.Request) error {
		_, err := io.WriteString(w, "late")
		return err
	})

	f := newFixture(t, reg, "index.route")

	rec := f.do(http.MethodGet, "/late")
	require.Equal(t, http.StatusNotFound, rec.Code)

	// A new route file appears; Reload swaps in a fresh table.
	full := filepath.Join(f.routesDir, "late", "get.route")
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, nil, 0o644))
	f.app.Reload()

	rec = f.do(http.MethodGet, "/late")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "late", rec.Body.String())
}

func TestApp_Idempotent(t *testing.T) {
	reg := router.NewRegistry()
	reg.Handle("index", func(w http.ResponseWriter, r *http.Request) error {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, err := io.WriteString(w, "same")
		return err
	})

	f := newFixture(t, reg, "index.route")

	first := f.do(http.MethodGet, "/")
	second := f.do(http.MethodGet, "/")

	assert.Equal(t, first.Code, second.Code)
	assert.Equal(t, first.Header().Get("Content-Type"), second.Header().Get("Content-Type"))
	assert.Equal(t, first.Body.String(), second.Body.String())
}

func TestApp_SeededDefaultRouteWhenEmpty(t *testing.T) {
	f := newFixture(t, router.NewRegistry())

	rec := f.do(http.MethodGet, "/")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "It works!\n", rec.Body.String())
}

func TestApp_ShutdownRunsHooks(t *testing.T) {
	f := newFixture(t, router.NewRegistry())

	var mu sync.Mutex
	var ran []string
	record := func(name string) app.ShutdownHook {
		return func(ctx context.Context) error {
			mu.Lock()
			defer mu.Unlock()
			ran = append(ran, name)
			return nil
		}
	}

	f.app.RegisterShutdownHook(record("first"))
	f.app.OnShutdown(func(ctx context.Context) error {
		mu.Lock()
		defer mu.Unlock()
		ran = append(ran, "second")
		return errShutdownHook
	})
	f.app.RegisterShutdownHook(record("third"))

	err := f.app.Shutdown(context.Background())
	assert.ErrorIs(t, err, errShutdownHook)
	assert.ElementsMatch(t, []string{"first", "second", "third"}, ran)
}

var errShutdownHook = errors.New("hook failed")

func TestApp_ShutdownHookSeesDeadline(t *testing.T) {
	f := newFixture(t, router.NewRegistry())

	var hasDeadline bool
	f.app.OnShutdown(func(ctx context.Context) error {
		_, hasDeadline = ctx.Deadline()
		return nil
	})

	require.NoError(t, f.app.Shutdown(context.Background()))
	assert.True(t, hasDeadline, "hooks run under the shutdown timeout context")
}

// newWatchFixture builds an app with the routes watcher enabled.
func newWatchFixture(t *testing.T, reg *router.Registry, files ...string) *fixture {
	t.Helper()

	routesDir := t.TempDir()
	for _, f := range files {
		full := filepath.Join(routesDir, filepath.FromSlash(f))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, nil, 0o644))
	}

	cfg := config.DefaultConfig()
	cfg.Routes.Dir = routesDir
	cfg.Routes.Watch = true
	cfg.Static.Enabled = false

	a, err := app.NewApp(
		app.WithConfig(cfg),
		app.WithLogger(zaptest.NewLogger(t)),
		app.WithRegistry(reg),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Shutdown(context.Background()) })

	return &fixture{app: a, routesDir: routesDir}
}

func TestApp_WatcherReloadsOnNewRouteFile(t *testing.T) {
	reg := router.NewRegistry()
	reg.Handle("index", func(w http.ResponseWriter, r *http.Request) error { return nil })
	reg.Handle("late/get", func(w http.ResponseWriter, r *http.Request) error {
		_, err := io.WriteString(w, "late")
		return err
	})

	f := newWatchFixture(t, reg, "index.route")

	rec := f.do(http.MethodGet, "/late")
	require.Equal(t, http.StatusNotFound, rec.Code)

	// A created subdirectory plus file must survive the debounce window
	// and show up in a swapped-in table.
	full := filepath.Join(f.routesDir, "late", "get.route")
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, nil, 0o644))

	require.Eventually(t, func() bool {
		return f.do(http.MethodGet, "/late").Code == http.StatusOK
	}, 3*time.Second, 50*time.Millisecond)
	assert.Equal(t, "late", f.do(http.MethodGet, "/late").Body.String())
}

func TestApp_ShutdownIdempotentWithWatcher(t *testing.T) {
	f := newWatchFixture(t, router.NewRegistry())

	require.NoError(t, f.app.Shutdown(context.Background()))
	assert.NotPanics(t, func() {
		_ = f.app.Shutdown(context.Background())
	})
}
