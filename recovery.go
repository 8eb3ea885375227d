package fighting

import (
	"fmt"
	"net/http"
	"runtime"
	"strings"

	"github.com/rs/zerolog"
)

// RecoveryOption configures the Recovery middleware.
type RecoveryOption func(*recoveryConfig)

type recoveryConfig struct {
	stackInBody bool
	stackSize   int
	logger      zerolog.Logger
}

// WithStackInBody puts the panic value and stack trace in the response body.
// Development only.
func WithStackInBody(enabled bool) RecoveryOption {
	return func(c *recoveryConfig) {
		c.stackInBody = enabled
	}
}

// WithRecoveryLogger sets the logger that receives panic reports.
func WithRecoveryLogger(logger zerolog.Logger) RecoveryOption {
	return func(c *recoveryConfig) {
		c.logger = logger
	}
}

// PanicReport is the response body written under WithStackInBody.
type PanicReport struct {
	Panic string   `json:"panic"`
	Stack []string `json:"stack"`
}

// Recovery turns a panic below it into a 500 HTTPError, so the error
// handler and outer middlewares see it like any other failure.
func Recovery(opts ...RecoveryOption) Middleware {
	cfg := &recoveryConfig{stackSize: 4 << 10, logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(next Handler) Handler {
		return func(c *Context) (err error) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}
				if r == http.ErrAbortHandler {
					panic(r)
				}
				stack := make([]byte, cfg.stackSize)
				stack = stack[:runtime.Stack(stack, false)]

				cfg.logger.Error().
					Interface("panic", r).
					Str("path", c.Request.URL.Path).
					Bytes("stack", stack).
					Msg("recovered from panic")

				he := NewHTTPError(http.StatusInternalServerError)
				if cfg.stackInBody {
					he.Message = PanicReport{
						Panic: fmt.Sprint(r),
						Stack: strings.Split(strings.TrimSpace(string(stack)), "\n"),
					}
				}
				err = he.SetInternal(fmt.Errorf("panic: %v", r))
			}()
			return next(c)
		}
	}
}
