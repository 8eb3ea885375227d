package fighting

import (
	"errors"
	"fmt"
	"net/http"
)

// HTTPError represents an error with an associated HTTP status code.
// Message is written as the JSON response body.
type HTTPError struct {
	Code     int
	Message  interface{}
	Internal error
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("code=%d, message=%v", e.Code, e.Message)
}

// NewHTTPError creates a new HTTPError.
func NewHTTPError(code int, message ...interface{}) *HTTPError {
	he := &HTTPError{Code: code, Message: http.StatusText(code)}
	if len(message) > 0 {
		he.Message = message[0]
	}
	return he
}

// SetInternal sets the internal error.
func (e *HTTPError) SetInternal(err error) *HTTPError {
	e.Internal = err
	return e
}

// Unwrap returns the internal error.
func (e *HTTPError) Unwrap() error {
	return e.Internal
}

// Abort returns a 400 error whose JSON body is message. Handlers return it:
//
//	return nil, fighting.Abort("bad thing")
func Abort(message interface{}) error {
	return NewHTTPError(http.StatusBadRequest, message)
}

// IsAbort reports whether err is a client error produced by Abort or validation.
func IsAbort(err error) bool {
	var he *HTTPError
	return errors.As(err, &he) && he.Code == http.StatusBadRequest
}

// StatusOf returns the status a request ends with when its handler chain
// returned err. Middlewares use it because the error handler writes the
// response only after they return.
func StatusOf(c *Context, err error) int {
	if err != nil {
		var he *HTTPError
		if errors.As(err, &he) {
			return he.Code
		}
		return http.StatusInternalServerError
	}
	if c.Status() == 0 {
		return http.StatusOK
	}
	return c.Status()
}
