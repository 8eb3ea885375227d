package fighting

import (
	"errors"
	"io/fs"
)

var (
	// ErrRouteNotFound is returned by a Router when no route matches the path.
	ErrRouteNotFound = errors.New("route not found")
	// ErrMethodNotAllowed is returned when the path is known for other methods only.
	ErrMethodNotAllowed = errors.New("method not allowed")
	// ErrRouteExists is returned when a method and path are registered twice.
	ErrRouteExists = errors.New("route already registered")
)

// Route is a registered route. Handler already wraps Middlewares.
type Route struct {
	Method      string
	Path        string
	Handler     Handler
	Middlewares []Middleware
}

// Router matches requests to routes. Paths may hold ":name" or "{name}"
// segments and end with a "*name" segment taking the rest of the path.
type Router interface {
	Add(method, path string, handler Handler, middlewares ...Middleware) error
	Find(method, path string, ctx *Context) (*Route, error)
	Group(prefix string) *Group
	StaticFS(pathPrefix string, fsys fs.FS)
	Routes() []Route
}
