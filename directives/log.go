package directives

import (
	"fmt"
	"time"

	"github.com/buildwithgo/fighting"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// Log returns the $log directive. It writes one event per call with the
// meta as message, the input keys and the outcome:
//
//	$log: greeting requested
func Log(logger zerolog.Logger) fighting.Directive {
	return func(next fighting.Action, meta *yaml.Node, api *fighting.API) (fighting.Action, error) {
		msg := "action called"
		if meta != nil && meta.Tag != "!!null" {
			if meta.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("$log: expected a message, got %s", meta.Tag)
			}
			msg = meta.Value
		}

		return func(c *fighting.Context, in map[string]any) (any, error) {
			start := time.Now()
			out, err := next(c, in)

			keys := make([]string, 0, len(in))
			for k := range in {
				keys = append(keys, k)
			}
			event := logger.Info()
			if err != nil {
				event = logger.Warn().Err(err)
			}
			event.
				Str("path", c.Request.URL.Path).
				Strs("input", keys).
				Dur("duration", time.Since(start)).
				Msg(msg)
			return out, err
		}, nil
	}
}
