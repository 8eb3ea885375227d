package routers

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/buildwithgo/fighting"
)

func TestTrieRouter_ResourceActions(t *testing.T) {
	r := NewTrieRouter()
	handler := func(c *fighting.Context) error { return nil }

	r.Add(http.MethodGet, "/user/login", handler)
	r.Add(http.MethodPost, "/user/login", handler)
	r.Add(http.MethodPost, "/user/logout", handler)

	route, err := r.Find(http.MethodGet, "/user/login", nil)
	if err != nil {
		t.Fatalf("Expected match, got error: %v", err)
	}
	if route.Path != "/user/login" || route.Method != http.MethodGet {
		t.Errorf("Expected GET /user/login, got %s %s", route.Method, route.Path)
	}

	if _, err := r.Find(http.MethodPost, "/user/login/", nil); err != nil {
		t.Errorf("Expected trailing slash to match, got %v", err)
	}

	_, err = r.Find(http.MethodGet, "/user/logout", nil)
	if !errors.Is(err, fighting.ErrMethodNotAllowed) {
		t.Errorf("Expected ErrMethodNotAllowed for GET /user/logout, got %v", err)
	}

	_, err = r.Find(http.MethodGet, "/user/missing", nil)
	if !errors.Is(err, fighting.ErrRouteNotFound) {
		t.Errorf("Expected ErrRouteNotFound, got %v", err)
	}
}

func TestTrieRouter_Params(t *testing.T) {
	r := NewTrieRouter()
	handler := func(c *fighting.Context) error { return nil }

	r.Add(http.MethodGet, "/docs/:resource/{action}", handler)

	ctx := fighting.NewContext(nil, nil)
	if _, err := r.Find(http.MethodGet, "/docs/user/login", ctx); err != nil {
		t.Fatalf("Failed to find route: %v", err)
	}
	if got := ctx.PathParam("resource"); got != "user" {
		t.Errorf("Expected resource=user, got %s", got)
	}
	if got := ctx.PathParam("action"); got != "login" {
		t.Errorf("Expected action=login, got %s", got)
	}
}

func TestTrieRouter_Wildcard(t *testing.T) {
	r := NewTrieRouter()
	r.Add(http.MethodGet, "/_static/*filepath", func(c *fighting.Context) error { return nil })

	cases := []struct {
		path string
		want string
	}{
		{"/_static/document.css", "document.css"},
		{"/_static/img/logo.png", "img/logo.png"},
		{"/_static", ""},
	}
	for _, tc := range cases {
		ctx := fighting.NewContext(nil, nil)
		if _, err := r.Find(http.MethodGet, tc.path, ctx); err != nil {
			t.Fatalf("Failed to match %s: %v", tc.path, err)
		}
		if got := ctx.PathParam("filepath"); got != tc.want {
			t.Errorf("For path %s, expected filepath=%q, got %q", tc.path, tc.want, got)
		}
	}
}

func TestTrieRouter_StaticBeforeParam(t *testing.T) {
	r := NewTrieRouter()
	r.Add(http.MethodGet, "/user/me", func(c *fighting.Context) error { return fmt.Errorf("static") })
	r.Add(http.MethodGet, "/user/:id", func(c *fighting.Context) error { return fmt.Errorf("param") })

	route, err := r.Find(http.MethodGet, "/user/me", fighting.NewContext(nil, nil))
	if err != nil {
		t.Fatal(err)
	}
	if err := route.Handler(nil); err == nil || err.Error() != "static" {
		t.Errorf("Expected static handler, got %v", err)
	}

	route, err = r.Find(http.MethodGet, "/user/42", fighting.NewContext(nil, nil))
	if err != nil {
		t.Fatal(err)
	}
	if err := route.Handler(nil); err == nil || err.Error() != "param" {
		t.Errorf("Expected param handler, got %v", err)
	}
}

func TestTrieRouter_ConflictDetection(t *testing.T) {
	r := NewTrieRouter()
	handler := func(c *fighting.Context) error { return nil }

	r.Add(http.MethodGet, "/user/:id", handler)
	if err := r.Add(http.MethodGet, "/user/:name", handler); err == nil {
		t.Error("Expected error for conflicting param name, got nil")
	}
	if err := r.Add(http.MethodGet, "/user/{id}/", handler); !errors.Is(err, fighting.ErrRouteExists) {
		t.Errorf("Expected ErrRouteExists, got %v", err)
	}
	if err := r.Add(http.MethodPost, "/user/:id", handler); err != nil {
		t.Errorf("Expected other method to register, got %v", err)
	}
	if err := r.Add(http.MethodGet, "/files/*path/more", handler); err == nil {
		t.Error("Expected error for wildcard before the last segment, got nil")
	}
}

func TestTrieRouter_Routes(t *testing.T) {
	r := NewTrieRouter()
	handler := func(c *fighting.Context) error { return nil }

	r.Add(http.MethodPost, "/user/login", handler)
	r.Add(http.MethodGet, "/user/login", handler)
	r.Add(http.MethodGet, "/", handler)

	routes := r.Routes()
	want := []string{"GET /", "GET /user/login", "POST /user/login"}
	if len(routes) != len(want) {
		t.Fatalf("Expected %d routes, got %d", len(want), len(routes))
	}
	for i, w := range want {
		if got := routes[i].Method + " " + routes[i].Path; got != w {
			t.Errorf("Index %d: expected %s, got %s", i, w, got)
		}
	}
}

func TestTrieRouter_Backtracking(t *testing.T) {
	r := NewTrieRouter()
	named := func(name string) fighting.Handler {
		return func(c *fighting.Context) error { return errors.New(name) }
	}
	r.Add(http.MethodGet, "/a/b/c", named("static"))
	r.Add(http.MethodGet, "/a/:x/d", named("param"))
	r.Add(http.MethodGet, "/a/*rest", named("wildcard"))

	cases := []struct {
		path, handler, param, value string
	}{
		{"/a/b/c", "static", "x", ""},
		{"/a/b/d", "param", "x", "b"},
		{"/a/b/e", "wildcard", "rest", "b/e"},
	}
	for _, tc := range cases {
		ctx := fighting.NewContext(nil, nil)
		route, err := r.Find(http.MethodGet, tc.path, ctx)
		if err != nil {
			t.Fatalf("%s: %v", tc.path, err)
		}
		if got := route.Handler(nil).Error(); got != tc.handler {
			t.Errorf("%s: expected %s handler, got %s", tc.path, tc.handler, got)
		}
		if got := ctx.PathParam(tc.param); got != tc.value {
			t.Errorf("%s: expected %s=%q, got %q", tc.path, tc.param, tc.value, got)
		}
	}
}
