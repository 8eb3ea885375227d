// Package fighting implements a small HTTP framework and, on top of it, a declarative
// JSON API layer: handlers describe their input and output in YAML directive blocks
// and the framework validates requests, serializes responses and renders docs.
package fighting

import (
	"errors"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// Handler is a function that handles an HTTP request.
// It returns an error which can be handled by middlewares or the framework.
type Handler func(*Context) error

// Middleware is a function that wraps a Handler to provide additional functionality.
type Middleware func(next Handler) Handler

// ErrorHandler writes the response for an error returned by a handler.
type ErrorHandler func(c *Context, err error, code int)

// App is the HTTP entry point. It holds the router, global middlewares,
// a context pool and the error handler.
type App struct {
	router       Router
	middlewares  []Middleware
	pool         *sync.Pool
	errorHandler ErrorHandler
	logger       zerolog.Logger
}

// AppOption defines a function to configure the App during initialization.
type AppOption func(*App)

// WithRouter sets the router used to match requests.
func WithRouter(router Router) AppOption {
	return func(app *App) {
		app.router = router
	}
}

// WithErrorHandler replaces the default error handler.
func WithErrorHandler(h ErrorHandler) AppOption {
	return func(app *App) {
		app.errorHandler = h
	}
}

// WithAppLogger sets the logger used for panics and unhandled errors.
func WithAppLogger(logger zerolog.Logger) AppOption {
	return func(app *App) {
		app.logger = logger
	}
}

// NewApp creates a new App. Without WithRouter the App has no router and
// every request is answered with 404.
func NewApp(options ...AppOption) *App {
	app := &App{
		middlewares: make([]Middleware, 0),
		logger:      zerolog.Nop(),
		pool: &sync.Pool{
			New: func() interface{} {
				return NewContext(nil, nil)
			},
		},
	}
	app.errorHandler = app.defaultErrorHandler

	for _, option := range options {
		option(app)
	}

	return app
}

// Logger returns the application logger.
func (a *App) Logger() zerolog.Logger {
	return a.logger
}

// Use adds a global middleware to the application.
// Global middlewares are applied to all routes in the order they are added.
func (a *App) Use(middleware Middleware) {
	a.middlewares = append(a.middlewares, middleware)
}

// GET registers a new GET route with a handler and optional route-specific middlewares.
func (a *App) GET(path string, handler Handler, middlewares ...Middleware) error {
	return a.Add(http.MethodGet, path, handler, middlewares...)
}

func (a *App) POST(path string, handler Handler, middlewares ...Middleware) error {
	return a.Add(http.MethodPost, path, handler, middlewares...)
}

func (a *App) PUT(path string, handler Handler, middlewares ...Middleware) error {
	return a.Add(http.MethodPut, path, handler, middlewares...)
}

func (a *App) DELETE(path string, handler Handler, middlewares ...Middleware) error {
	return a.Add(http.MethodDelete, path, handler, middlewares...)
}

func (a *App) PATCH(path string, handler Handler, middlewares ...Middleware) error {
	return a.Add(http.MethodPatch, path, handler, middlewares...)
}

func (a *App) OPTIONS(path string, handler Handler, middlewares ...Middleware) error {
	return a.Add(http.MethodOptions, path, handler, middlewares...)
}

func (a *App) HEAD(path string, handler Handler, middlewares ...Middleware) error {
	return a.Add(http.MethodHead, path, handler, middlewares...)
}

// Add registers a new route with the specified method, path, handler, and middlewares.
func (a *App) Add(method, path string, handler Handler, middlewares ...Middleware) error {
	if a.router == nil {
		return errors.New("fighting: app has no router")
	}
	return a.router.Add(method, path, handler, middlewares...)
}

// Group returns nil when the app has no router.
func (a *App) Group(prefix string) *Group {
	if a.router == nil {
		return nil
	}
	return a.router.Group(prefix)
}

// Mount serves every method below prefix with a plain http.Handler.
func (a *App) Mount(prefix string, h http.Handler) error {
	handler := func(c *Context) error {
		h.ServeHTTP(c.Writer, c.Request)
		return nil
	}
	prefix = strings.TrimRight(prefix, "/")
	for _, method := range []string{
		http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete,
		http.MethodPatch, http.MethodOptions, http.MethodHead,
	} {
		if err := a.Add(method, prefix, handler); err != nil {
			return err
		}
		if err := a.Add(method, prefix+"/*path", handler); err != nil {
			return err
		}
	}
	return nil
}

func (a *App) StaticFS(pathPrefix string, fsys fs.FS) {
	a.router.StaticFS(pathPrefix, fsys)
}

func (a *App) Find(method, path string) (*Route, error) {
	return a.router.Find(method, path, nil)
}

// Routes lists the registered routes, nil without a router.
func (a *App) Routes() []Route {
	if a.router == nil {
		return nil
	}
	return a.router.Routes()
}

// Run listens on addr and serves the application.
func (a *App) Run(addr string) error {
	if !strings.Contains(addr, ":") {
		addr = ":" + addr
	}
	a.logger.Info().Str("addr", addr).Msg("listening")
	return http.ListenAndServe(addr, a)
}

// Test dispatches req through the application and returns the recorded response.
func (a *App) Test(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	a.ServeHTTP(w, req)
	return w
}

// ServeHTTP runs the global middlewares around route dispatch, so they also
// see requests that match no route.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := a.pool.Get().(*Context)
	ctx.Reset(w, r)
	defer a.pool.Put(ctx)

	if err := Compile(a.dispatch, a.middlewares...)(ctx); err != nil {
		code := http.StatusInternalServerError
		var he *HTTPError
		if errors.As(err, &he) {
			code = he.Code
		}
		a.errorHandler(ctx, err, code)
	}
}

func (a *App) dispatch(c *Context) error {
	if a.router == nil {
		return NewHTTPError(http.StatusNotFound)
	}
	// Pass c to Find so it can populate params without allocation
	route, err := a.router.Find(c.Request.Method, c.Request.URL.Path, c)
	if err != nil {
		code := http.StatusNotFound
		if errors.Is(err, ErrMethodNotAllowed) {
			code = http.StatusMethodNotAllowed
		}
		return NewHTTPError(code).SetInternal(err)
	}
	c.route = route.Path
	// route.Middlewares are already compiled into route.Handler
	return route.Handler(c)
}

func (a *App) defaultErrorHandler(c *Context, err error, code int) {
	if c.Written() {
		return
	}
	var he *HTTPError
	if errors.As(err, &he) {
		if he.Internal != nil && code >= http.StatusInternalServerError {
			a.logger.Error().Err(he.Internal).Str("path", c.Request.URL.Path).Msg("request failed")
		}
		switch code {
		case http.StatusNotFound:
			http.Error(c.Writer, "404 page not found", code)
			return
		case http.StatusMethodNotAllowed:
			http.Error(c.Writer, "405 method not allowed", code)
			return
		}
		_ = c.JSON(code, he.Message)
		return
	}
	a.logger.Error().Err(err).Str("path", c.Request.URL.Path).Msg("request failed")
	_ = c.JSON(code, http.StatusText(code))
}

func Chain(middlewares ...Middleware) Middleware {
	return func(next Handler) Handler {
		for i := len(middlewares) - 1; i >= 0; i-- {
			next = middlewares[i](next)
		}
		return next
	}
}

func Compile(handler Handler, middlewares ...Middleware) Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		handler = middlewares[i](handler)
	}
	return handler
}
