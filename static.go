package fighting

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"path"
	"strconv"
	"strings"
	"time"
)

// StaticConfig configures StaticHandler.
type StaticConfig struct {
	// Root is the filesystem files are read from.
	Root fs.FS
	// Prefix is stripped from the request path before lookup.
	Prefix string
	// MaxAge sets a public Cache-Control max-age when positive.
	MaxAge time.Duration
}

// StaticHandler serves the regular files of config.Root. Directories and
// missing files are 404s.
func StaticHandler(config StaticConfig) Handler {
	prefix := strings.TrimRight(config.Prefix, "/")
	if prefix != "" && prefix[0] != '/' {
		prefix = "/" + prefix
	}
	cacheControl := ""
	if config.MaxAge > 0 {
		cacheControl = "public, max-age=" + strconv.Itoa(int(config.MaxAge.Seconds()))
	}

	return func(c *Context) error {
		name := strings.TrimPrefix(c.Request.URL.Path, prefix)
		name = strings.TrimPrefix(path.Clean("/"+name), "/")
		if name == "" || !fs.ValidPath(name) {
			return NewHTTPError(http.StatusNotFound)
		}

		f, err := config.Root.Open(name)
		if errors.Is(err, fs.ErrNotExist) {
			return NewHTTPError(http.StatusNotFound).SetInternal(err)
		}
		if err != nil {
			return err
		}
		defer f.Close()

		stat, err := f.Stat()
		if err != nil {
			return err
		}
		if stat.IsDir() {
			return NewHTTPError(http.StatusNotFound)
		}
		rs, ok := f.(io.ReadSeeker)
		if !ok {
			return fmt.Errorf("static: %s is not seekable", name)
		}
		if cacheControl != "" {
			c.SetHeader("Cache-Control", cacheControl)
		}
		http.ServeContent(c.Writer, c.Request, stat.Name(), stat.ModTime(), rs)
		return nil
	}
}
