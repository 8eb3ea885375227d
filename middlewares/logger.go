package middlewares

import (
	"time"

	"github.com/buildwithgo/fighting"
	"github.com/rs/zerolog"
)

// Logger writes one log line per request. Server errors log at error level,
// client errors at warn and the rest at info.
func Logger(logger zerolog.Logger) fighting.Middleware {
	return func(next fighting.Handler) fighting.Handler {
		return func(c *fighting.Context) error {
			start := time.Now()
			err := next(c)
			status := fighting.StatusOf(c, err)

			var ev *zerolog.Event
			switch {
			case status >= 500:
				ev = logger.Error().Err(err)
			case status >= 400:
				ev = logger.Warn()
			default:
				ev = logger.Info()
			}
			if rid, ok := c.Get(RequestIDKey).(string); ok {
				ev = ev.Str("request_id", rid)
			}
			ev.Str("method", c.Request.Method).
				Str("path", c.Request.URL.Path).
				Int("status", status).
				Dur("duration", time.Since(start)).
				Msg("http request")
			return err
		}
	}
}
