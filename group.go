package fighting

import (
	"net/http"
	"strings"
)

// Group registers routes below a common prefix with shared middlewares.
// The API keeps one Group per resource, so resource middlewares apply to
// both the documentation and the invocation route of every action.
type Group struct {
	prefix      string
	router      Router
	middlewares []Middleware
}

func NewGroup(prefix string, router Router) *Group {
	return &Group{
		prefix: strings.TrimRight(prefix, "/"),
		router: router,
	}
}

// Prefix returns the path every route of g starts with.
func (g *Group) Prefix() string {
	return g.prefix
}

// Use appends middlewares run after the global ones and before route ones.
func (g *Group) Use(middlewares ...Middleware) {
	g.middlewares = append(g.middlewares, middlewares...)
}

func (g *Group) Add(method, path string, handler Handler, middlewares ...Middleware) error {
	if len(g.middlewares) > 0 {
		middlewares = append(append([]Middleware{}, g.middlewares...), middlewares...)
	}
	return g.router.Add(method, g.path(path), handler, middlewares...)
}

func (g *Group) GET(path string, handler Handler, middlewares ...Middleware) error {
	return g.Add(http.MethodGet, path, handler, middlewares...)
}

func (g *Group) POST(path string, handler Handler, middlewares ...Middleware) error {
	return g.Add(http.MethodPost, path, handler, middlewares...)
}

func (g *Group) PUT(path string, handler Handler, middlewares ...Middleware) error {
	return g.Add(http.MethodPut, path, handler, middlewares...)
}

func (g *Group) DELETE(path string, handler Handler, middlewares ...Middleware) error {
	return g.Add(http.MethodDelete, path, handler, middlewares...)
}

// Group returns a sub-group sharing the parent's middlewares.
func (g *Group) Group(prefix string) *Group {
	sub := NewGroup(g.path(prefix), g.router)
	sub.middlewares = append(sub.middlewares, g.middlewares...)
	return sub
}

func (g *Group) Find(method, path string) (*Route, error) {
	return g.router.Find(method, g.path(path), nil)
}

func (g *Group) path(p string) string {
	if p == "" || p == "/" {
		if g.prefix == "" {
			return "/"
		}
		return g.prefix
	}
	if p[0] != '/' {
		p = "/" + p
	}
	return g.prefix + p
}
