package fighting_test

import (
	"io/fs"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"
	"time"

	"github.com/buildwithgo/fighting"
	"github.com/buildwithgo/fighting/routers"
)

func TestStaticFS(t *testing.T) {
	app := fighting.NewApp(fighting.WithRouter(routers.NewTrieRouter()))

	tmpDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(tmpDir, "hello.txt"), []byte("Hello Local"), 0644); err != nil {
		t.Fatal(err)
	}
	app.StaticFS("/files", os.DirFS(tmpDir))

	t.Run("ServeFile", func(t *testing.T) {
		w := app.Test(httptest.NewRequest("GET", "/files/hello.txt", nil))

		if w.Code != http.StatusOK {
			t.Errorf("Expected 200, got %d", w.Code)
		}
		if w.Body.String() != "Hello Local" {
			t.Errorf("Expected 'Hello Local', got '%s'", w.Body.String())
		}
		if cc := w.Header().Get("Cache-Control"); cc != "" {
			t.Errorf("Expected no Cache-Control, got %q", cc)
		}
	})

	t.Run("NotFound", func(t *testing.T) {
		w := app.Test(httptest.NewRequest("GET", "/files/missing.txt", nil))

		if w.Code != http.StatusNotFound {
			t.Errorf("Expected 404, got %d", w.Code)
		}
	})

	mockFS := fstest.MapFS{
		"assets/document.css": &fstest.MapFile{Data: []byte("body {}")},
	}
	subFS, _ := fs.Sub(mockFS, "assets")
	app.StaticFS("/embed", subFS)

	t.Run("ServeEmbed", func(t *testing.T) {
		w := app.Test(httptest.NewRequest("GET", "/embed/document.css", nil))

		if w.Code != http.StatusOK {
			t.Errorf("Expected 200, got %d", w.Code)
		}
		if w.Body.String() != "body {}" {
			t.Errorf("Expected 'body {}', got '%s'", w.Body.String())
		}
	})
}

func TestStaticHandler(t *testing.T) {
	fsys := fstest.MapFS{
		"docs/a.txt": &fstest.MapFile{Data: []byte("a")},
	}
	h := fighting.StaticHandler(fighting.StaticConfig{Root: fsys, Prefix: "files/", MaxAge: time.Minute})

	serve := func(target string) (*httptest.ResponseRecorder, error) {
		w := httptest.NewRecorder()
		return w, h(fighting.NewContext(w, httptest.NewRequest("GET", target, nil)))
	}

	w, err := serve("/files/docs/a.txt")
	if err != nil {
		t.Fatal(err)
	}
	if w.Body.String() != "a" {
		t.Errorf("Expected 'a', got '%s'", w.Body.String())
	}
	if cc := w.Header().Get("Cache-Control"); cc != "public, max-age=60" {
		t.Errorf("Unexpected Cache-Control %q", cc)
	}

	for _, target := range []string{"/files/docs", "/files/", "/files/../docs/a.txt/x"} {
		_, err := serve(target)
		he, ok := err.(*fighting.HTTPError)
		if !ok || he.Code != http.StatusNotFound {
			t.Errorf("%s: expected 404 HTTPError, got %v", target, err)
		}
	}
}
