package fighting

import (
	"encoding/json"
	"mime"
	"net/http"
	"strconv"
	"strings"
)

const maxParams = 8

type param struct {
	key   string
	value string
}

// Context carries the request and response of one call through handlers
// and middlewares. Contexts are pooled by the App; do not keep references
// after the handler returns.
type Context struct {
	Request *http.Request
	Writer  http.ResponseWriter

	params []param
	store  map[string]interface{}
	status int
	route  string
}

type ContextOption func(*Context)

// NewContext creates a new context for the request
func NewContext(w http.ResponseWriter, r *http.Request, options ...ContextOption) *Context {
	ctx := &Context{
		Request: r,
		Writer:  w,
		params:  make([]param, 0, maxParams),
	}
	for _, option := range options {
		option(ctx)
	}
	return ctx
}

// Reset prepares a pooled context for a new request.
func (c *Context) Reset(w http.ResponseWriter, r *http.Request) {
	c.Request = r
	c.Writer = w
	c.params = c.params[:0]
	c.store = nil
	c.status = 0
	c.route = ""
}

// RoutePath returns the pattern of the matched route, or "" before routing
// and for requests that matched nothing.
func (c *Context) RoutePath() string {
	return c.route
}

// AddParam records a path parameter. Routers call it while matching.
func (c *Context) AddParam(key, value string) {
	c.params = append(c.params, param{key: key, value: value})
}

// PathParam returns the value of the named path parameter.
func (c *Context) PathParam(key string) string {
	for i := range c.params {
		if c.params[i].key == key {
			return c.params[i].value
		}
	}
	return ""
}

func (c *Context) QueryParam(key string) string {
	return c.Request.URL.Query().Get(key)
}

func (c *Context) GetHeader(key string) string {
	return c.Request.Header.Get(key)
}

func (c *Context) SetHeader(key, value string) {
	c.Writer.Header().Set(key, value)
}

func (c *Context) GetCookie(name string) (*http.Cookie, error) {
	return c.Request.Cookie(name)
}

// Set stores a value for the lifetime of the request.
func (c *Context) Set(key string, value interface{}) {
	if c.store == nil {
		c.store = make(map[string]interface{})
	}
	c.store[key] = value
}

func (c *Context) Get(key string) interface{} {
	return c.store[key]
}

// Status returns the status code written so far, or 0.
func (c *Context) Status() int {
	return c.status
}

// Written reports whether a response status has been sent.
func (c *Context) Written() bool {
	return c.status != 0
}

func (c *Context) writeHeader(code int) {
	c.status = code
	c.Writer.WriteHeader(code)
}

// Blob writes data with the given content type.
func (c *Context) Blob(code int, contentType string, data []byte) error {
	c.SetHeader("Content-Type", contentType)
	c.writeHeader(code)
	_, err := c.Writer.Write(data)
	return err
}

func (c *Context) String(code int, s string) error {
	return c.Blob(code, "text/plain; charset=utf-8", []byte(s))
}

func (c *Context) HTML(code int, html string) error {
	return c.Blob(code, "text/html; charset=utf-8", []byte(html))
}

// JSON writes v as indented JSON without escaping HTML or non-ASCII text.
func (c *Context) JSON(code int, v interface{}) error {
	var b strings.Builder
	enc := json.NewEncoder(&b)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(v); err != nil {
		return err
	}
	return c.Blob(code, "application/json; charset=utf-8", []byte(b.String()))
}

func (c *Context) NoContent(code int) error {
	c.writeHeader(code)
	return nil
}

func (c *Context) Redirect(code int, url string) error {
	http.Redirect(c.Writer, c.Request, url, code)
	c.status = code
	return nil
}

// MediaType returns the request's media type without parameters.
func (c *Context) MediaType() string {
	mt, _, err := mime.ParseMediaType(c.GetHeader("Content-Type"))
	if err != nil {
		return ""
	}
	return mt
}

// AcceptsJSON reports whether the client prefers a JSON response over HTML,
// either through the Accept header or a "json" query parameter.
func (c *Context) AcceptsJSON() bool {
	if _, ok := c.Request.URL.Query()["json"]; ok {
		return true
	}
	best, bestQ := "text/html", -1.0
	for _, part := range strings.Split(c.GetHeader("Accept"), ",") {
		mt, params, err := mime.ParseMediaType(strings.TrimSpace(part))
		if err != nil {
			continue
		}
		q := 1.0
		if v, ok := params["q"]; ok {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				continue
			}
			q = f
		}
		if (mt == "text/html" || mt == "application/json") && q > bestQ {
			best, bestQ = mt, q
		}
	}
	return best == "application/json"
}
