// Package routers holds Router implementations.
package routers

import (
	"fmt"
	"io/fs"
	"net/http"
	"sort"
	"strings"

	"github.com/buildwithgo/fighting"
)

type node struct {
	static   map[string]*node
	param    *node
	wildcard *node
	name     string
	route    *fighting.Route
}

func (n *node) staticChild(segment string) *node {
	if n.static == nil {
		n.static = make(map[string]*node)
	}
	child, ok := n.static[segment]
	if !ok {
		child = &node{}
		n.static[segment] = child
	}
	return child
}

func dynamicChild(slot **node, kind, name string) (*node, error) {
	if *slot == nil {
		*slot = &node{name: name}
	}
	if (*slot).name != name {
		return nil, fmt.Errorf("%s name conflict: %s vs %s", kind, (*slot).name, name)
	}
	return *slot, nil
}

// paramName returns the name of a ":name" or "{name}" segment.
func paramName(segment string) (string, bool) {
	switch {
	case segment[0] == ':':
		return segment[1:], true
	case len(segment) > 2 && segment[0] == '{' && segment[len(segment)-1] == '}':
		return segment[1 : len(segment)-1], true
	}
	return "", false
}

// TrieRouter keeps one segment trie per method. A static segment wins over
// a parameter, which wins over a wildcard; a branch that dead-ends falls
// back to the next one. Trailing slashes are ignored.
type TrieRouter struct {
	trees map[string]*node
}

// NewTrieRouter creates an empty TrieRouter.
func NewTrieRouter() *TrieRouter {
	return &TrieRouter{trees: make(map[string]*node)}
}

func (r *TrieRouter) Add(method, path string, handler fighting.Handler, middlewares ...fighting.Middleware) error {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	n, ok := r.trees[method]
	if !ok {
		n = &node{}
		r.trees[method] = n
	}

	segments := strings.Split(strings.Trim(path, "/"), "/")
	for i, segment := range segments {
		if segment == "" {
			continue
		}
		var err error
		if name, ok := paramName(segment); ok {
			n, err = dynamicChild(&n.param, "param", name)
		} else if segment[0] == '*' {
			if i != len(segments)-1 {
				return fmt.Errorf("%s: wildcard must be the last segment", path)
			}
			n, err = dynamicChild(&n.wildcard, "wildcard", segment[1:])
		} else {
			n = n.staticChild(segment)
		}
		if err != nil {
			return err
		}
	}

	if n.route != nil {
		return fmt.Errorf("%w: %s %s", fighting.ErrRouteExists, method, path)
	}
	n.route = &fighting.Route{
		Method:      method,
		Path:        path,
		Handler:     fighting.Compile(handler, middlewares...),
		Middlewares: middlewares,
	}
	return nil
}

func (r *TrieRouter) Find(method, path string, ctx *fighting.Context) (*fighting.Route, error) {
	if route := r.match(method, path, ctx); route != nil {
		return route, nil
	}
	for m := range r.trees {
		if m != method && r.match(m, path, nil) != nil {
			return nil, fighting.ErrMethodNotAllowed
		}
	}
	return nil, fighting.ErrRouteNotFound
}

type capture struct {
	name, value string
}

// match looks path up in the tree of method. Parameters are recorded on
// ctx, when it is not nil, only once a route matched.
func (r *TrieRouter) match(method, path string, ctx *fighting.Context) *fighting.Route {
	n, ok := r.trees[method]
	if !ok {
		return nil
	}
	var buf [8]capture
	route, caps := n.lookup(strings.Trim(path, "/"), buf[:0])
	if route != nil && ctx != nil {
		for _, c := range caps {
			ctx.AddParam(c.name, c.value)
		}
	}
	return route
}

// lookup tries the static child, then the parameter, then the wildcard,
// falling back to the next kind when a branch dead-ends further down.
func (n *node) lookup(rest string, caps []capture) (*fighting.Route, []capture) {
	rest = strings.TrimLeft(rest, "/")
	if rest == "" {
		if n.route != nil {
			return n.route, caps
		}
		if n.wildcard != nil && n.wildcard.route != nil {
			return n.wildcard.route, append(caps, capture{n.wildcard.name, ""})
		}
		return nil, caps
	}

	segment, tail := rest, ""
	if i := strings.IndexByte(rest, '/'); i >= 0 {
		segment, tail = rest[:i], rest[i+1:]
	}
	if child, ok := n.static[segment]; ok {
		if route, c := child.lookup(tail, caps); route != nil {
			return route, c
		}
	}
	if n.param != nil {
		if route, c := n.param.lookup(tail, append(caps, capture{n.param.name, segment})); route != nil {
			return route, c
		}
	}
	if n.wildcard != nil && n.wildcard.route != nil {
		return n.wildcard.route, append(caps, capture{n.wildcard.name, rest})
	}
	return nil, caps
}

// Routes lists every registered route sorted by method and path.
func (r *TrieRouter) Routes() []fighting.Route {
	var routes []fighting.Route
	var walk func(n *node)
	walk = func(n *node) {
		if n == nil {
			return
		}
		if n.route != nil {
			routes = append(routes, *n.route)
		}
		for _, child := range n.static {
			walk(child)
		}
		walk(n.param)
		walk(n.wildcard)
	}
	for _, n := range r.trees {
		walk(n)
	}
	sort.Slice(routes, func(i, j int) bool {
		if routes[i].Method != routes[j].Method {
			return routes[i].Method < routes[j].Method
		}
		return routes[i].Path < routes[j].Path
	})
	return routes
}

// StaticFS serves fsys for GET and HEAD below pathPrefix.
func (r *TrieRouter) StaticFS(pathPrefix string, fsys fs.FS) {
	prefix := strings.TrimRight(pathPrefix, "/")
	handler := fighting.StaticHandler(fighting.StaticConfig{Root: fsys, Prefix: prefix})
	for _, method := range []string{http.MethodGet, http.MethodHead} {
		_ = r.Add(method, prefix+"/*filepath", handler)
	}
}

func (r *TrieRouter) Group(prefix string) *fighting.Group {
	return fighting.NewGroup(prefix, r)
}
