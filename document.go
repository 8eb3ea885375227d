package fighting

import (
	"bytes"
	"embed"
	"encoding/json"
	"html/template"
	"io/fs"
	"net/http"

	"github.com/buildwithgo/fighting/docstring"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"
)

const staticPrefix = "/_static"

//go:embed templates
var assets embed.FS

var (
	documentTemplate = template.Must(template.ParseFS(assets, "templates/document.html"))

	markdown = goldmark.New(
		goldmark.WithExtensions(extension.Table),
		goldmark.WithRendererOptions(gmhtml.WithHardWraps()),
	)
)

func staticFS() fs.FS {
	sub, err := fs.Sub(assets, "templates/static")
	if err != nil {
		panic(err)
	}
	return sub
}

type actionLink struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

type resourceLinks struct {
	Name    string
	Actions []actionLink
}

type block struct {
	Name string
	JSON string
}

type page struct {
	Title      string
	URL        string
	Static     string
	Desc       template.HTML
	Resources  []resourceLinks
	Directives []block
	Shared     []block
}

type indexDoc struct {
	Desc      string                  `json:"desc"`
	Resources map[string][]actionLink `json:"resources"`
	Shared    docstring.Entries       `json:"shared"`
}

type endpointDoc struct {
	Desc       string            `json:"desc"`
	Directives docstring.Entries `json:"directives"`
}

// Markdown renders text as HTML with tables and hard line breaks.
func Markdown(text string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(text), &buf); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}

func (a *API) index(c *Context) error {
	resources := make(map[string][]actionLink, len(a.endpoints))
	var links []resourceLinks
	for _, ep := range a.Endpoints() {
		link := actionLink{Title: ep.Title, URL: ep.URL}
		resources[ep.Resource] = append(resources[ep.Resource], link)
		if n := len(links); n == 0 || links[n-1].Name != ep.Resource {
			links = append(links, resourceLinks{Name: ep.Resource})
		}
		last := &links[len(links)-1]
		last.Actions = append(last.Actions, link)
	}
	if c.AcceptsJSON() {
		return c.JSON(http.StatusOK, indexDoc{Desc: a.desc, Resources: resources, Shared: a.shared})
	}

	shared, err := blocks(a.shared)
	if err != nil {
		return err
	}
	return a.render(c, page{
		Title:     docstring.Title(a.desc),
		Resources: links,
		Shared:    shared,
	}, a.desc)
}

func (a *API) document(ep *Endpoint) Handler {
	return func(c *Context) error {
		if c.AcceptsJSON() {
			return c.JSON(http.StatusOK, endpointDoc{Desc: ep.Desc, Directives: ep.Directives})
		}
		directives, err := blocks(ep.Directives)
		if err != nil {
			return err
		}
		return a.render(c, page{
			Title:      ep.Resource + "." + ep.Action,
			URL:        ep.URL,
			Directives: directives,
		}, ep.Desc)
	}
}

func (a *API) render(c *Context, p page, desc string) error {
	html, err := Markdown(desc)
	if err != nil {
		return err
	}
	p.Desc = html
	p.Static = staticPrefix

	var buf bytes.Buffer
	if err := documentTemplate.Execute(&buf, p); err != nil {
		return err
	}
	return c.HTML(http.StatusOK, buf.String())
}

func blocks(entries docstring.Entries) ([]block, error) {
	out := make([]block, len(entries))
	for i, e := range entries {
		raw, err := docstring.NodeJSON(e.Node)
		if err != nil {
			return nil, err
		}
		var buf bytes.Buffer
		if err := json.Indent(&buf, raw, "", "    "); err != nil {
			return nil, err
		}
		out[i] = block{Name: e.Key, JSON: buf.String()}
	}
	return out, nil
}
