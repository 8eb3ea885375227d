package fighting

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/buildwithgo/fighting/docstring"
	"github.com/buildwithgo/fighting/internal/jsonvalue"
	"github.com/buildwithgo/fighting/schema"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

const defaultMaxBodySize = 10 << 20

// Action handles one resource action. in is the request data, validated
// by the $input directive when the action declares one. The result is
// written as JSON unless the action wrote the response itself.
type Action func(c *Context, in map[string]any) (any, error)

// Directive wraps an action at registration time. meta is the YAML value of
// the "$name" block that triggered it.
type Directive func(next Action, meta *yaml.Node, api *API) (Action, error)

// Endpoint describes a registered resource action. Endpoints are built by
// Res and never change afterwards.
type Endpoint struct {
	Resource   string
	Action     string
	URL        string
	Title      string
	Desc       string
	Directives docstring.Entries
	// Input and Output are the resolved $input and $output schemas, if declared.
	Input  *schema.Schema
	Output *schema.Schema

	action Action
}

// Option configures an API.
type Option func(*API)

// WithValidators adds validators usable in schema expressions.
func WithValidators(factories map[string]schema.Factory) Option {
	return func(a *API) {
		for name, f := range factories {
			a.validators[name] = f
		}
	}
}

// WithDirectives adds directives. A directive named input or output
// replaces the built-in one.
func WithDirectives(directives map[string]Directive) Option {
	return func(a *API) {
		for name, d := range directives {
			a.directives[name] = d
		}
	}
}

// WithResourceMiddlewares adds middlewares to every route of resource,
// documentation included.
func WithResourceMiddlewares(resource string, middlewares ...Middleware) Option {
	return func(a *API) {
		a.resourceMiddlewares[resource] = append(a.resourceMiddlewares[resource], middlewares...)
	}
}

// WithLogger sets the logger used for registration and failed actions.
// It defaults to the App logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(a *API) {
		a.logger = logger
	}
}

// WithSourceDocs reads documentation from the Go doc comments of the package
// in dir: the package comment when New gets an empty doc, and the comment of
// the function named after the action when Res gets an empty doc.
func WithSourceDocs(dir string) Option {
	return func(a *API) {
		a.sourceDir = dir
	}
}

// WithMaxBodySize limits request bodies. The default is 10 MiB.
func WithMaxBodySize(n int64) Option {
	return func(a *API) {
		a.maxBodySize = n
	}
}

// API is the declarative layer over an App. Shared definitions come from the
// application documentation, resource actions are added with Res.
type API struct {
	app         *App
	logger      zerolog.Logger
	desc        string
	shared      docstring.Entries
	parser      *schema.Parser
	validators  map[string]schema.Factory
	directives  map[string]Directive
	sourceDir   string
	source      *docstring.Source
	maxBodySize int64

	endpoints           map[string][]*Endpoint
	resources           map[string]*Group
	resourceMiddlewares map[string][]Middleware
	schemas             map[*yaml.Node]*schema.Schema
}

// New parses the shared definitions in doc and registers the index page at
// GET / and the documentation assets below /_static/.
func New(app *App, doc string, opts ...Option) (*API, error) {
	if app == nil {
		return nil, errors.New("fighting: nil app")
	}
	a := &API{
		app:         app,
		logger:      app.Logger(),
		validators:  make(map[string]schema.Factory),
		directives:  map[string]Directive{"input": InputDirective, "output": OutputDirective},
		maxBodySize: defaultMaxBodySize,
		endpoints:   make(map[string][]*Endpoint),

		resources:           make(map[string]*Group),
		resourceMiddlewares: make(map[string][]Middleware),
		schemas:             make(map[*yaml.Node]*schema.Schema),
	}
	for _, opt := range opts {
		opt(a)
	}

	if a.sourceDir != "" {
		src, err := docstring.FromSource(a.sourceDir)
		if err != nil {
			return nil, fmt.Errorf("fighting: read source docs: %w", err)
		}
		a.source = src
		if doc == "" {
			doc = src.Package
		}
	}

	desc, shared, err := docstring.ParseShared(doc)
	if err != nil {
		return nil, err
	}
	a.desc, a.shared = desc, shared

	defs := make([]schema.Definition, len(shared))
	for i, e := range shared {
		defs[i] = schema.Definition{Name: e.Key, Value: e.Node}
	}
	a.parser, err = schema.NewParser(schema.WithValidators(a.validators), schema.WithShared(defs...))
	if err != nil {
		return nil, err
	}

	if err := app.GET("/", a.index); err != nil {
		return nil, err
	}
	assets := StaticHandler(StaticConfig{Root: staticFS(), Prefix: staticPrefix, MaxAge: time.Hour})
	if err := app.GET(staticPrefix+"/*filepath", assets); err != nil {
		return nil, err
	}
	return a, nil
}

// App returns the underlying App.
func (a *API) App() *App {
	return a.app
}

// Logger returns the API logger.
func (a *API) Logger() zerolog.Logger {
	return a.logger
}

// Parser returns the schema parser holding the shared definitions.
func (a *API) Parser() *schema.Parser {
	return a.parser
}

// Schema parses the schema written at n once. Later calls with the same
// node return the first result.
func (a *API) Schema(n *yaml.Node) (*schema.Schema, error) {
	if s, ok := a.schemas[n]; ok {
		return s, nil
	}
	s, err := a.parser.Parse(n)
	if err != nil {
		return nil, err
	}
	a.schemas[n] = s
	return s, nil
}

// Desc returns the application description.
func (a *API) Desc() string {
	return a.desc
}

// Shared returns the shared definitions in declaration order.
func (a *API) Shared() docstring.Entries {
	return a.shared
}

// Endpoint returns the endpoint registered for resource and action.
func (a *API) Endpoint(resource, action string) (*Endpoint, bool) {
	for _, ep := range a.endpoints[resource] {
		if ep.Action == action {
			return ep, true
		}
	}
	return nil, false
}

// Endpoints lists every endpoint, sorted by resource then registration order.
func (a *API) Endpoints() []*Endpoint {
	names := make([]string, 0, len(a.endpoints))
	for name := range a.endpoints {
		names = append(names, name)
	}
	sort.Strings(names)
	var out []*Endpoint
	for _, name := range names {
		out = append(out, a.endpoints[name]...)
	}
	return out
}

// Res registers fn at /resource/action. GET shows its documentation, POST
// invokes it. The directives in doc are applied in declaration order, so the
// first one wraps fn directly.
func (a *API) Res(resource, action, doc string, fn Action) error {
	endpoint := resource + "." + action
	if !isName(resource) || !isName(action) {
		return &schema.SchemaError{Path: endpoint, Message: "resource and action must be non-empty names"}
	}
	if _, ok := a.Endpoint(resource, action); ok {
		return &schema.SchemaError{Path: endpoint, Message: "already registered"}
	}
	if doc == "" && a.source != nil {
		doc = a.sourceDoc(action)
	}

	desc, directives, err := docstring.ParseDirectives(doc)
	if err != nil {
		return schema.Mark(endpoint, err)
	}
	ep := &Endpoint{
		Resource:   resource,
		Action:     action,
		URL:        "/" + resource + "/" + action,
		Title:      docstring.Title(doc),
		Desc:       desc,
		Directives: directives,
	}

	wrapped := fn
	for _, d := range directives {
		directive, ok := a.directives[d.Key]
		if !ok {
			return &schema.SchemaError{Path: endpoint, Message: "unknown directive $" + d.Key}
		}
		if wrapped, err = directive(wrapped, d.Node, a); err != nil {
			return schema.Mark(endpoint, err)
		}
		switch d.Key {
		case "input":
			if ep.Input, err = a.Schema(d.Node); err != nil {
				return schema.Mark(endpoint+".$input", err)
			}
		case "output":
			if ep.Output, err = a.Schema(d.Node); err != nil {
				return schema.Mark(endpoint+".$output", err)
			}
		}
	}
	ep.action = wrapped

	group, err := a.group(resource)
	if err != nil {
		return fmt.Errorf("fighting: %s: %w", endpoint, err)
	}
	if err := group.GET(action, a.document(ep)); err != nil {
		return fmt.Errorf("fighting: %s: %w", endpoint, err)
	}
	if err := group.POST(action, a.invoke(ep)); err != nil {
		return fmt.Errorf("fighting: %s: %w", endpoint, err)
	}
	a.endpoints[resource] = append(a.endpoints[resource], ep)
	a.logger.Debug().Str("url", ep.URL).Int("directives", len(directives)).Msg("resource registered")
	return nil
}

func (a *API) group(resource string) (*Group, error) {
	if g, ok := a.resources[resource]; ok {
		return g, nil
	}
	g := a.app.Group("/" + resource)
	if g == nil {
		return nil, errors.New("app has no router")
	}
	g.Use(a.resourceMiddlewares[resource]...)
	a.resources[resource] = g
	return g, nil
}

// MustRes is like Res but panics on error. It suits package level setup
// where a broken schema must stop the program.
func (a *API) MustRes(resource, action, doc string, fn Action) {
	if err := a.Res(resource, action, doc, fn); err != nil {
		panic(err)
	}
}

func (a *API) sourceDoc(action string) string {
	if d, ok := a.source.Func(action); ok {
		return d
	}
	if action != "" {
		exported := strings.ToUpper(action[:1]) + action[1:]
		if d, ok := a.source.Func(exported); ok {
			return d
		}
	}
	return ""
}

func (a *API) invoke(ep *Endpoint) Handler {
	return func(c *Context) error {
		in, err := a.requestData(c, ep.Input)
		if err != nil {
			return err
		}
		out, err := ep.action(c, in)
		if err != nil {
			return err
		}
		if c.Written() {
			return nil
		}
		return c.JSON(http.StatusOK, out)
	}
}

// InputDirective validates request data against an object schema before the
// action runs. Invalid data aborts with the validation message.
func InputDirective(next Action, meta *yaml.Node, api *API) (Action, error) {
	s, err := api.Schema(meta)
	if err != nil {
		return nil, schema.Mark("$input", err)
	}
	if s.Kind != schema.KindObject {
		return nil, &schema.SchemaError{Path: "$input", Message: "must be an object schema"}
	}
	return func(c *Context, in map[string]any) (any, error) {
		data, err := s.Validate(in)
		if err != nil {
			return nil, NewHTTPError(http.StatusBadRequest, err.Error()).SetInternal(err)
		}
		m, _ := data.(map[string]any)
		return next(c, m)
	}, nil
}

// OutputDirective converts the action result to plain JSON values and
// validates it. A result that does not match is a server error.
func OutputDirective(next Action, meta *yaml.Node, api *API) (Action, error) {
	s, err := api.Schema(meta)
	if err != nil {
		return nil, schema.Mark("$output", err)
	}
	return func(c *Context, in map[string]any) (any, error) {
		out, err := next(c, in)
		if err != nil || c.Written() {
			return out, err
		}
		v, err := schema.Normalize(out)
		if err == nil {
			v, err = s.Validate(v)
		}
		if err != nil {
			return nil, NewHTTPError(http.StatusInternalServerError).SetInternal(schema.Mark("$output", err))
		}
		return v, nil
	}, nil
}

// requestData reads a JSON object body, or a form body shaped by in.
func (a *API) requestData(c *Context, in *schema.Schema) (map[string]any, error) {
	if a.maxBodySize > 0 && c.Request.Body != nil {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, a.maxBodySize)
	}
	switch c.MediaType() {
	case "application/json":
		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			return nil, tooLarge(err, "Invalid JSON content")
		}
		v, err := jsonvalue.Parse(body)
		if err != nil {
			return nil, Abort("Invalid JSON content")
		}
		m, ok := v.(map[string]any)
		if !ok {
			return nil, Abort("JSON content must be object")
		}
		return m, nil
	case "multipart/form-data":
		if err := c.Request.ParseMultipartForm(a.maxBodySize); err != nil {
			return nil, tooLarge(err, "Invalid form content")
		}
	default:
		if err := c.Request.ParseForm(); err != nil {
			return nil, tooLarge(err, "Invalid form content")
		}
	}
	return schema.FromForm(in, c.Request.PostForm), nil
}

func tooLarge(err error, message string) error {
	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		return NewHTTPError(http.StatusRequestEntityTooLarge, "Request body too large").SetInternal(err)
	}
	return Abort(message)
}

func isName(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r != '_' && r != '-' && !('a' <= r && r <= 'z') && !('A' <= r && r <= 'Z') && !('0' <= r && r <= '9') {
			return false
		}
	}
	return true
}
