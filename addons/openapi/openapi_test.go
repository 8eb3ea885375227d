package openapi_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/buildwithgo/fighting"
	"github.com/buildwithgo/fighting/addons/openapi"
	"github.com/buildwithgo/fighting/routers"
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const appDoc = `
User service.

@user:
    name?str&maxlen=20: user name
    email?email&optional: contact address
    tags:
        - str
`

const createDoc = `
Creates a user.

$input:
    user@user: the user
    role?enum&values="admin guest"&default="guest": role
    age?int&min=0: age in years
$output:
    id?uuid: user id
    user@user&optional: the stored user
`

func newAPI(t *testing.T) *fighting.API {
	t.Helper()
	app := fighting.NewApp(fighting.WithRouter(routers.NewTrieRouter()))
	api, err := fighting.New(app, appDoc)
	require.NoError(t, err)
	require.NoError(t, api.Res("user", "create", createDoc, func(c *fighting.Context, in map[string]any) (any, error) {
		return nil, nil
	}))
	require.NoError(t, api.Res("user", "ping", "Ping.", func(c *fighting.Context, in map[string]any) (any, error) {
		return "pong", nil
	}))
	return api
}

func TestGenerate(t *testing.T) {
	doc := openapi.Generate(newAPI(t), openapi3.Info{Title: "Users", Version: "1.0.0"})

	assert.Equal(t, "User service.", doc.Info.Description)

	user := doc.Components.Schemas["user"]
	require.NotNil(t, user)
	assert.Equal(t, openapi3.TypeObject, user.Value.Type)
	assert.Equal(t, []string{"name", "tags"}, user.Value.Required)
	assert.Equal(t, "email", user.Value.Properties["email"].Value.Format)
	assert.True(t, user.Value.Properties["email"].Value.Nullable)
	assert.Equal(t, uint64(20), *user.Value.Properties["name"].Value.MaxLength)
	assert.Equal(t, openapi3.TypeArray, user.Value.Properties["tags"].Value.Type)

	create := doc.Paths["/user/create"]
	require.NotNil(t, create)
	require.NotNil(t, create.Post)
	assert.Nil(t, create.Get)
	assert.Equal(t, "user.create", create.Post.OperationID)
	assert.Equal(t, []string{"user"}, create.Post.Tags)
	assert.Equal(t, "Creates a user.", create.Post.Description)

	in := create.Post.RequestBody.Value.Content.Get("application/json").Schema.Value
	assert.Equal(t, "#/components/schemas/user", in.Properties["user"].Ref)
	assert.Equal(t, []string{"user", "age"}, in.Required)
	assert.Equal(t, []any{"admin", "guest"}, in.Properties["role"].Value.Enum)
	assert.Equal(t, "guest", in.Properties["role"].Value.Default)
	assert.Equal(t, 0.0, *in.Properties["age"].Value.Min)
	assert.NotNil(t, create.Post.RequestBody.Value.Content.Get("application/x-www-form-urlencoded"))

	out := create.Post.Responses["200"].Value.Content.Get("application/json").Schema.Value
	assert.Equal(t, "uuid", out.Properties["id"].Value.Format)
	assert.Equal(t, []string{"id"}, out.Required)

	ping := doc.Paths["/user/ping"].Post
	assert.Nil(t, ping.RequestBody)
	assert.Nil(t, ping.Responses["200"].Value.Content)
}

func TestRegister(t *testing.T) {
	api := newAPI(t)
	require.NoError(t, openapi.Register(api, "/openapi.json", openapi3.Info{Title: "Users"}))

	w := httptest.NewRecorder()
	api.App().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/openapi.json", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &doc))
	assert.Equal(t, "3.0.3", doc["openapi"])
	assert.Contains(t, doc["paths"], "/user/create")

	w = httptest.NewRecorder()
	api.App().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/openapi", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `data-url="/openapi.json"`)
}
