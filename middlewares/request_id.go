package middlewares

import (
	"github.com/buildwithgo/fighting"
	"github.com/google/uuid"
)

const (
	RequestIDKey    = "request_id"
	RequestIDHeader = "X-Request-ID"
)

// RequestID reuses the incoming X-Request-ID or generates a UUID, and sets it
// on the response and the context.
func RequestID() fighting.Middleware {
	return func(next fighting.Handler) fighting.Handler {
		return func(c *fighting.Context) error {
			rid := c.GetHeader(RequestIDHeader)
			if rid == "" || len(rid) > 128 {
				rid = uuid.NewString()
			}
			c.SetHeader(RequestIDHeader, rid)
			c.Set(RequestIDKey, rid)
			return next(c)
		}
	}
}
