// Package app wires the route table, static asset guard, and middleware
// chain into a runnable HTTP server.
package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/fsroute/fsroute/config"
	"github.com/fsroute/fsroute/middleware"
	"github.com/fsroute/fsroute/router"
	"github.com/fsroute/fsroute/static"
)

// ShutdownHook is a function that gets called during shutdown.
type ShutdownHook func(ctx context.Context) error

// App represents the main application instance. It implements
// http.Handler: requests under the static prefix go to the asset guard,
// everything else is resolved against the route table.
type App struct {
	cfg      *config.Config
	logger   *zap.Logger
	registry *router.Registry
	guard    *static.Guard
	chain    *middleware.Chain
	extra    []middleware.Middleware

	table atomic.Pointer[router.Table]

	srv             *http.Server
	shutdownTimeout time.Duration
	shutdownHooks   []ShutdownHook
	mu              sync.RWMutex

	watcher *routesWatcher
}

// Option defines a functional option for App.
type Option func(*App) error

// NewApp creates a new application instance with the given options. The
// route table is built once here; per-file scan problems are logged and
// skipped, so construction only fails on genuine configuration errors.
func NewApp(opts ...Option) (*App, error) {
	app := &App{
		shutdownHooks: make([]ShutdownHook, 0),
	}

	for _, opt := range opts {
		if err := opt(app); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	if app.cfg == nil {
		app.cfg = config.DefaultConfig()
	}
	if app.logger == nil {
		app.logger = zap.NewNop()
	}
	if app.registry == nil {
		app.registry = router.NewRegistry()
	}
	app.shutdownTimeout = app.cfg.Server.ShutdownTimeout
	if app.shutdownTimeout <= 0 {
		app.shutdownTimeout = 30 * time.Second
	}

	if app.table.Load() == nil {
		app.table.Store(router.BuildWithConfig(app.cfg.Routes.Dir, app.registry, app.builderConfig()))
	}

	if app.guard == nil && app.cfg.Static.Enabled {
		guard, err := static.New(static.Config{
			Root:         app.cfg.Static.Root,
			Prefix:       app.cfg.Static.Prefix,
			CacheControl: app.cfg.Static.CacheControl,
		})
		if err != nil {
			if os.IsNotExist(err) {
				app.logger.Warn("static root missing, static serving disabled",
					zap.String("root", app.cfg.Static.Root))
			} else {
				return nil, fmt.Errorf("static assets: %w", err)
			}
		} else {
			app.guard = guard
		}
	}

	app.chain = app.buildChain()

	if app.cfg.Routes.Watch {
		watcher, err := newRoutesWatcher(app)
		if err != nil {
			return nil, fmt.Errorf("routes watcher: %w", err)
		}
		app.watcher = watcher
	}

	return app, nil
}

// WithConfig sets the application configuration.
func WithConfig(cfg *config.Config) Option {
	return func(app *App) error {
		if cfg == nil {
			return fmt.Errorf("config cannot be nil")
		}
		app.cfg = cfg
		return nil
	}
}

// WithLogger sets the application logger.
func WithLogger(logger *zap.Logger) Option {
	return func(app *App) error {
		if logger == nil {
			return fmt.Errorf("logger cannot be nil")
		}
		app.logger = logger
		return nil
	}
}

// WithRegistry sets the handler registry the route table is resolved
// against.
func WithRegistry(reg *router.Registry) Option {
	return func(app *App) error {
		if reg == nil {
			return fmt.Errorf("registry cannot be nil")
		}
		app.registry = reg
		return nil
	}
}

// WithTable injects a prebuilt route table, skipping the startup scan.
func WithTable(table *router.Table) Option {
	return func(app *App) error {
		if table == nil {
			return fmt.Errorf("table cannot be nil")
		}
		app.table.Store(table)
		return nil
	}
}

// WithStatic injects a preconstructed asset guard.
func WithStatic(guard *static.Guard) Option {
	return func(app *App) error {
		app.guard = guard
		return nil
	}
}

// WithMiddleware appends middleware after the built-in chain.
func WithMiddleware(ms ...middleware.Middleware) Option {
	return func(app *App) error {
		app.extra = append(app.extra, ms...)
		return nil
	}
}

// buildChain assembles the middleware chain from configuration: recovery,
// request IDs, request logging, then the optional rate limiter and bearer
// auth, then user middleware.
func (app *App) buildChain() *middleware.Chain {
	chain := middleware.NewChain()
	if app.cfg.Server.Recovery {
		chain = chain.Append(middleware.Recovery(app.logger))
	}
	chain = chain.Append(middleware.RequestID())
	chain = chain.Append(middleware.RequestLogger(app.logger))
	if app.cfg.RateLimit.Enabled {
		chain = chain.Append(middleware.RateLimit(middleware.RateLimitConfig{
			Rate:  app.cfg.RateLimit.Rate,
			Burst: app.cfg.RateLimit.Burst,
		}))
	}
	if app.cfg.Auth.Enabled {
		chain = chain.Append(middleware.BearerAuth(middleware.BearerAuthConfig{
			Secret: app.cfg.Auth.Secret,
			Issuer: app.cfg.Auth.Issuer,
		}))
	}
	return chain.Append(app.extra...)
}

func (app *App) builderConfig() router.BuilderConfig {
	return router.BuilderConfig{
		Extensions: app.cfg.Routes.Extensions,
		Logger:     app.logger,
	}
}

// Table returns the current route table snapshot.
func (app *App) Table() *router.Table {
	return app.table.Load()
}

// Reload rebuilds the route table from the routes directory and swaps it
// in atomically. The table itself stays immutable; in-flight requests keep
// the snapshot they started with.
func (app *App) Reload() {
	table := router.BuildWithConfig(app.cfg.Routes.Dir, app.registry, app.builderConfig())
	app.table.Store(table)
	app.logger.Info("route table reloaded",
		zap.String("dir", app.cfg.Routes.Dir),
		zap.Int("routes", table.Len()))
}

// Run starts the HTTP server and blocks until it stops.
func (app *App) Run() error {
	app.srv = &http.Server{
		Addr:         app.cfg.Server.Address,
		Handler:      app,
		ReadTimeout:  app.cfg.Server.ReadTimeout,
		WriteTimeout: app.cfg.Server.WriteTimeout,
		IdleTimeout:  app.cfg.Server.IdleTimeout,
	}

	app.logger.Info("starting server",
		zap.String("address", app.cfg.Server.Address),
		zap.Int("routes", app.Table().Len()))

	return app.srv.ListenAndServe()
}

// RegisterShutdownHook registers a function to be called during shutdown.
func (app *App) RegisterShutdownHook(hook ShutdownHook) {
	app.mu.Lock()
	defer app.mu.Unlock()
	app.shutdownHooks = append(app.shutdownHooks, hook)
}

// OnShutdown is a convenience method for registering shutdown hooks.
func (app *App) OnShutdown(fn func(context.Context) error) {
	app.RegisterShutdownHook(ShutdownHook(fn))
}

// Shutdown gracefully shuts down the server: the routes watcher stops,
// shutdown hooks run under the timeout context, then the HTTP server
// drains.
func (app *App) Shutdown(ctx context.Context) error {
	app.logger.Info("starting graceful shutdown")

	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, app.shutdownTimeout)
		defer cancel()
	}

	if app.watcher != nil {
		app.watcher.close()
	}

	var shutdownErr error
	if err := app.runShutdownHooks(ctx); err != nil {
		app.logger.Error("error running shutdown hooks", zap.Error(err))
		shutdownErr = err
	}

	if app.srv != nil {
		if err := app.srv.Shutdown(ctx); err != nil {
			app.logger.Error("error shutting down HTTP server", zap.Error(err))
			return err
		}
	}

	app.logger.Info("graceful shutdown completed")
	return shutdownErr
}

// runShutdownHooks executes all registered shutdown hooks in parallel and
// returns the first error.
func (app *App) runShutdownHooks(ctx context.Context) error {
	app.mu.RLock()
	hooks := make([]ShutdownHook, len(app.shutdownHooks))
	copy(hooks, app.shutdownHooks)
	app.mu.RUnlock()

	if len(hooks) == 0 {
		return nil
	}

	errCh := make(chan error, len(hooks))
	var wg sync.WaitGroup
	for _, hook := range hooks {
		wg.Add(1)
		go func(h ShutdownHook) {
			defer wg.Done()
			if err := h(ctx); err != nil {
				errCh <- err
			}
		}(hook)
	}
	wg.Wait()
	close(errCh)

	return <-errCh
}
