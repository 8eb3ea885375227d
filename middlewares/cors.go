package middlewares

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/buildwithgo/fighting"
)

// CORSConfig defines the configuration for the CORS middleware.
type CORSConfig struct {
	// AllowOrigins is a list of origins a cross-domain request can be executed from.
	AllowOrigins []string
	// AllowMethods is a list of methods the client is allowed to use with cross-domain requests.
	AllowMethods []string
	// AllowHeaders is a list of non-simple headers the client is allowed to use with cross-domain requests.
	AllowHeaders []string
	// AllowCredentials echoes the request origin instead of "*".
	AllowCredentials bool
	// MaxAge is how long, in seconds, a preflight result may be cached.
	MaxAge int
}

func DefaultCORSConfig() CORSConfig {
	return CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Length", "Content-Type", "Accept", "Authorization", RequestIDHeader},
	}
}

// CORS returns a Cross-Origin Resource Sharing middleware. Preflight requests
// are answered here, so actions only ever see GET and POST.
func CORS(config ...CORSConfig) fighting.Middleware {
	cfg := DefaultCORSConfig()
	if len(config) > 0 {
		cfg = config[0]
	}
	methods := strings.Join(cfg.AllowMethods, ",")
	headers := strings.Join(cfg.AllowHeaders, ",")

	return func(next fighting.Handler) fighting.Handler {
		return func(c *fighting.Context) error {
			origin := c.GetHeader("Origin")
			allowOrigin := ""
			for _, o := range cfg.AllowOrigins {
				if o == "*" || o == origin {
					allowOrigin = o
					break
				}
			}
			if allowOrigin == "*" && cfg.AllowCredentials && origin != "" {
				allowOrigin = origin
			}

			if allowOrigin != "" {
				h := c.Writer.Header()
				h.Set("Access-Control-Allow-Origin", allowOrigin)
				h.Set("Access-Control-Allow-Methods", methods)
				h.Set("Access-Control-Allow-Headers", headers)
				if allowOrigin != "*" {
					h.Add("Vary", "Origin")
				}
				if cfg.AllowCredentials {
					h.Set("Access-Control-Allow-Credentials", "true")
				}
				if cfg.MaxAge > 0 {
					h.Set("Access-Control-Max-Age", strconv.Itoa(cfg.MaxAge))
				}
			}

			if c.Request.Method == http.MethodOptions {
				return c.NoContent(http.StatusNoContent)
			}
			return next(c)
		}
	}
}
