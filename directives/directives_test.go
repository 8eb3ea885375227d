package directives_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/buildwithgo/fighting"
	"github.com/buildwithgo/fighting/directives"
	"github.com/buildwithgo/fighting/routers"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "s3cret"

func newAPI(t *testing.T, ds map[string]fighting.Directive) *fighting.API {
	t.Helper()
	app := fighting.NewApp(fighting.WithRouter(routers.NewTrieRouter()))
	api, err := fighting.New(app, "Directive tests.", fighting.WithDirectives(ds))
	require.NoError(t, err)
	return api
}

func whoami(c *fighting.Context, in map[string]any) (any, error) {
	claims, _ := c.Get(directives.ClaimsKey).(jwt.MapClaims)
	return map[string]any{"sub": claims["sub"]}, nil
}

func call(api *fighting.API, url, token, remote string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, url, strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if remote != "" {
		req.RemoteAddr = remote
	}
	return api.App().Test(req)
}

func sign(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := directives.Sign(secret, claims)
	require.NoError(t, err)
	return token
}

func TestAuth(t *testing.T) {
	api := newAPI(t, map[string]fighting.Directive{"auth": directives.Auth(secret)})
	require.NoError(t, api.Res("user", "whoami", "Who am I.\n\n$auth: true\n", whoami))
	require.NoError(t, api.Res("user", "admin", "Admins only.\n\n$auth: [admin, root]\n", whoami))

	future := time.Now().Add(time.Hour).Unix()
	admin := sign(t, jwt.MapClaims{"sub": "ann", "role": "admin", "exp": future})
	guest := sign(t, jwt.MapClaims{"sub": "bob", "role": []any{"guest"}, "exp": future})

	tests := []struct {
		name  string
		url   string
		token string
		code  int
	}{
		{"missing token", "/user/whoami", "", http.StatusUnauthorized},
		{"garbage token", "/user/whoami", "abc", http.StatusUnauthorized},
		{"any role", "/user/whoami", guest, http.StatusOK},
		{"role granted", "/user/admin", admin, http.StatusOK},
		{"role denied", "/user/admin", guest, http.StatusForbidden},
		{"expired", "/user/whoami", sign(t, jwt.MapClaims{"sub": "ann", "exp": time.Now().Add(-time.Hour).Unix()}), http.StatusUnauthorized},
		{"wrong secret", "/user/whoami", func() string {
			tok, _ := directives.Sign("other", jwt.MapClaims{"sub": "ann"})
			return tok
		}(), http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := call(api, tt.url, tt.token, "")
			assert.Equal(t, tt.code, w.Code, w.Body.String())
		})
	}

	w := call(api, "/user/admin", admin, "")
	assert.JSONEq(t, `{"sub":"ann"}`, w.Body.String())
}

func TestAuthQueryLookup(t *testing.T) {
	api := newAPI(t, map[string]fighting.Directive{
		"auth": directives.Auth(secret, directives.WithTokenLookup("query:token")),
	})
	require.NoError(t, api.Res("user", "whoami", "$auth: true\n", whoami))

	token := sign(t, jwt.MapClaims{"sub": "ann"})
	req := httptest.NewRequest(http.MethodPost, "/user/whoami?token="+token, nil)
	w := api.App().Test(req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthBadMeta(t *testing.T) {
	api := newAPI(t, map[string]fighting.Directive{"auth": directives.Auth(secret)})
	err := api.Res("user", "whoami", "$auth: {role: admin}\n", whoami)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "$auth")

	err = api.Res("user", "nobody", "$auth: false\n", whoami)
	require.Error(t, err)
}

func TestRateLimit(t *testing.T) {
	now := time.Unix(1000, 0)
	clock := func() time.Time { return now }
	api := newAPI(t, map[string]fighting.Directive{"ratelimit": directives.RateLimit(directives.WithClock(clock))})
	require.NoError(t, api.Res("res", "act", "$ratelimit: {rate: 1, burst: 2}\n", whoami))

	assert.Equal(t, http.StatusOK, call(api, "/res/act", "", "10.0.0.1:1000").Code)
	assert.Equal(t, http.StatusOK, call(api, "/res/act", "", "10.0.0.1:1001").Code)
	assert.Equal(t, http.StatusTooManyRequests, call(api, "/res/act", "", "10.0.0.1:1002").Code)

	// another client has its own bucket
	assert.Equal(t, http.StatusOK, call(api, "/res/act", "", "10.0.0.2:1000").Code)

	now = now.Add(time.Second)
	assert.Equal(t, http.StatusOK, call(api, "/res/act", "", "10.0.0.1:1003").Code)
	assert.Equal(t, http.StatusTooManyRequests, call(api, "/res/act", "", "10.0.0.1:1004").Code)
}

func TestRateLimitBadMeta(t *testing.T) {
	api := newAPI(t, map[string]fighting.Directive{"ratelimit": directives.RateLimit()})
	assert.Error(t, api.Res("res", "zero", "$ratelimit: {rate: 0}\n", whoami))
	assert.Error(t, api.Res("res", "text", "$ratelimit: fast\n", whoami))
	assert.NoError(t, api.Res("res", "burst", "$ratelimit: {rate: 2.5}\n", whoami))
}

func TestLog(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	api := newAPI(t, map[string]fighting.Directive{"log": directives.Log(logger)})
	require.NoError(t, api.Res("res", "act", "Logged.\n\n$input:\n    name?str: who\n$log: greeting requested\n", whoami))

	req := httptest.NewRequest(http.MethodPost, "/res/act", strings.NewReader(`{"name": "kk"}`))
	req.Header.Set("Content-Type", "application/json")
	w := api.App().Test(req)
	require.Equal(t, http.StatusOK, w.Code)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "greeting requested", entry["message"])
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "/res/act", entry["path"])
	assert.Equal(t, []any{"name"}, entry["input"])
}
