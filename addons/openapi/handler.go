package openapi

import (
	"net/http"
	"strings"
	"sync"

	"github.com/buildwithgo/fighting"
	"github.com/getkin/kin-openapi/openapi3"
)

// Register serves the document of api at path and a Scalar reference page
// at path without its extension. The document is built on the first request.
func Register(api *fighting.API, path string, info openapi3.Info) error {
	var (
		once sync.Once
		doc  *openapi3.T
	)
	app := api.App()
	if err := app.GET(path, func(c *fighting.Context) error {
		once.Do(func() { doc = Generate(api, info) })
		return c.JSON(http.StatusOK, doc)
	}); err != nil {
		return err
	}

	page := strings.TrimSuffix(path, ".json")
	if page == path {
		page = path + "/ui"
	}
	return app.GET(page, func(c *fighting.Context) error {
		return c.HTML(http.StatusOK, ScalarHTML(path))
	})
}
