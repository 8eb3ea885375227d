package metrics_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/buildwithgo/fighting"
	"github.com/buildwithgo/fighting/metrics"
	"github.com/buildwithgo/fighting/routers"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (*fighting.App, *metrics.Collector) {
	t.Helper()
	reg := prometheus.NewRegistry()
	m := metrics.NewWithRegistry(reg, reg)

	app := fighting.NewApp(fighting.WithRouter(routers.NewTrieRouter()))
	app.Use(m.Middleware())
	api, err := fighting.New(app, "Metrics.")
	require.NoError(t, err)
	api.MustRes("res", "act", "$input:\n    n?int: number\n", func(c *fighting.Context, in map[string]any) (any, error) {
		if in["n"] == 0 {
			return nil, fighting.Abort("zero")
		}
		return in["n"], nil
	})
	require.NoError(t, app.Mount("/metrics", m.Handler()))
	return app, m
}

func post(app *fighting.App, body string) int {
	req := httptest.NewRequest(http.MethodPost, "/res/act", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return app.Test(req).Code
}

func TestMiddleware(t *testing.T) {
	app, m := setup(t)

	assert.Equal(t, http.StatusOK, post(app, `{"n": 3}`))
	assert.Equal(t, http.StatusBadRequest, post(app, `{"n": "x"}`))
	assert.Equal(t, http.StatusBadRequest, post(app, `{"n": 0}`))
	app.Test(httptest.NewRequest(http.MethodGet, "/nowhere", nil))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("POST", "/res/act", "200")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("POST", "/res/act", "400")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("GET", "unmatched", "404")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ValidationFailures.WithLabelValues("/res/act")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Aborts.WithLabelValues("/res/act")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.RequestsInFlight))
}

func TestHandler(t *testing.T) {
	app, _ := setup(t)
	post(app, `{"n": 1}`)

	w := app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `fighting_requests_total{method="POST",route="/res/act",status="200"} 1`)
}
