package fighting_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/buildwithgo/fighting"
	"github.com/buildwithgo/fighting/routers"
	"github.com/buildwithgo/fighting/schema"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultErrorHandler(t *testing.T) {
	var logs bytes.Buffer
	app := fighting.NewApp(
		fighting.WithRouter(routers.NewTrieRouter()),
		fighting.WithAppLogger(zerolog.New(&logs)),
	)
	require.NoError(t, app.GET("/plain", func(c *fighting.Context) error {
		return errors.New("something went wrong")
	}))

	tests := []struct {
		method, path string
		code         int
		body         string
	}{
		{"GET", "/not-found", http.StatusNotFound, "404 page not found\n"},
		{"POST", "/plain", http.StatusMethodNotAllowed, "405 method not allowed\n"},
		{"GET", "/plain", http.StatusInternalServerError, "\"Internal Server Error\"\n"},
	}
	for _, tt := range tests {
		w := app.Test(httptest.NewRequest(tt.method, tt.path, nil))
		assert.Equal(t, tt.code, w.Code, tt.path)
		assert.Equal(t, tt.body, w.Body.String(), tt.path)
	}
	assert.Contains(t, logs.String(), "something went wrong")
}

// problem is what the custom handler below writes.
type problem struct {
	Code  int    `json:"code"`
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

func TestCustomErrorHandler(t *testing.T) {
	app := fighting.NewApp(
		fighting.WithRouter(routers.NewTrieRouter()),
		fighting.WithErrorHandler(func(c *fighting.Context, err error, code int) {
			p := problem{Code: code, Error: err.Error()}
			var invalid *schema.Invalid
			if errors.As(err, &invalid) {
				p.Field, p.Error = invalid.Path, invalid.Message
			}
			_ = c.JSON(code, p)
		}),
	)
	api, err := fighting.New(app, "")
	require.NoError(t, err)
	api.MustRes("user", "get", "$input:\n    id?int: id\n", func(c *fighting.Context, in map[string]any) (any, error) {
		return in, nil
	})
	api.MustRes("user", "ban", "", func(c *fighting.Context, in map[string]any) (any, error) {
		return nil, fighting.Abort("not allowed")
	})

	tests := []struct {
		name string
		path string
		want problem
	}{
		{"Validation", "/user/get", problem{Code: 400, Error: "required", Field: "id"}},
		{"Abort", "/user/ban", problem{Code: 400, Error: "code=400, message=not allowed"}},
		{"NotFound", "/user/missing", problem{Code: 404, Error: "code=404, message=Not Found"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := app.Test(httptest.NewRequest("POST", tt.path, nil))
			assert.Equal(t, tt.want.Code, w.Code)

			var got problem
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
			assert.Equal(t, tt.want, got)
		})
	}
}
