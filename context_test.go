package fighting

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestAcceptsJSON(t *testing.T) {
	cases := []struct {
		url    string
		accept string
		want   bool
	}{
		{"/", "", false},
		{"/?json", "", true},
		{"/", "application/json", true},
		{"/", "text/html,application/xhtml+xml,*/*;q=0.8", false},
		{"/", "text/html;q=0.5, application/json;q=0.9", true},
		{"/", "application/json;q=0.1, text/html", false},
		{"/", "*/*", false},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, tc.url, nil)
		if tc.accept != "" {
			req.Header.Set("Accept", tc.accept)
		}
		c := NewContext(httptest.NewRecorder(), req)
		if got := c.AcceptsJSON(); got != tc.want {
			t.Errorf("%s Accept=%q: expected %v, got %v", tc.url, tc.accept, tc.want, got)
		}
	}
}

func TestContextJSON(t *testing.T) {
	w := httptest.NewRecorder()
	c := NewContext(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if c.Written() {
		t.Fatal("fresh context must not be written")
	}
	if err := c.JSON(http.StatusCreated, map[string]any{"html": "<b>", "name": "世界"}); err != nil {
		t.Fatal(err)
	}
	if !c.Written() || c.Status() != http.StatusCreated {
		t.Errorf("Expected status 201 recorded, got %d", c.Status())
	}
	want := "{\n    \"html\": \"<b>\",\n    \"name\": \"世界\"\n}\n"
	if w.Body.String() != want {
		t.Errorf("Unexpected body %q", w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json; charset=utf-8" {
		t.Errorf("Unexpected content type %s", ct)
	}
}

func TestContextReset(t *testing.T) {
	c := NewContext(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	c.AddParam("id", "1")
	c.Set("user", "kk")
	_ = c.NoContent(http.StatusNoContent)

	c.Reset(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/x", nil))
	if c.PathParam("id") != "" || c.Get("user") != nil || c.Written() {
		t.Error("Reset must clear params, store and status")
	}
}

func TestMediaType(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	c := NewContext(httptest.NewRecorder(), req)
	if c.MediaType() != "application/json" {
		t.Errorf("Unexpected media type %s", c.MediaType())
	}
}
