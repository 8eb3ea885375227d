// Package client calls the actions of a remote fighting API.
//
//	res := client.New("http://localhost:8080")
//	out, err := res.Post(ctx, "/resource/action", map[string]any{"name": "kk"})
//	var re *client.ResError
//	if errors.As(err, &re) && re.Status == http.StatusBadRequest {
//		// re.Message is the abort or validation message
//	}
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/buildwithgo/fighting/internal/jsonvalue"
	"github.com/rs/zerolog"
)

const defaultTimeout = 30 * time.Second

// ResError is returned by Post for every failed call. Status is 0 when no
// response was received.
type ResError struct {
	Status  int
	Message any
	Err     error
}

func (e *ResError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("res: %v", e.Message)
	}
	return fmt.Sprintf("res: status=%d, message=%v", e.Status, e.Message)
}

func (e *ResError) Unwrap() error {
	return e.Err
}

// Res posts JSON documents to the actions below URLPrefix.
type Res struct {
	URLPrefix  string
	HTTPClient *http.Client
	Logger     zerolog.Logger
	Header     http.Header
}

// Option configures a Res.
type Option func(*Res)

// WithHTTPClient replaces the default client, which times out after 30s.
func WithHTTPClient(c *http.Client) Option {
	return func(r *Res) {
		r.HTTPClient = c
	}
}

// WithLogger logs every call at debug level.
func WithLogger(logger zerolog.Logger) Option {
	return func(r *Res) {
		r.Logger = logger
	}
}

// WithHeader adds a header to every request, e.g. Authorization.
func WithHeader(key, value string) Option {
	return func(r *Res) {
		r.Header.Add(key, value)
	}
}

// New returns a Res for the API at prefix.
func New(prefix string, opts ...Option) *Res {
	r := &Res{
		URLPrefix:  strings.TrimSuffix(prefix, "/"),
		HTTPClient: &http.Client{Timeout: defaultTimeout},
		Logger:     zerolog.Nop(),
		Header:     make(http.Header),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Post sends data as JSON to URLPrefix+url and returns the decoded response.
func (r *Res) Post(ctx context.Context, url string, data any) (any, error) {
	if data == nil {
		data = map[string]any{}
	}
	body, err := json.Marshal(data)
	if err != nil {
		return nil, &ResError{Message: "request data not serializable", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.URLPrefix+url, bytes.NewReader(body))
	if err != nil {
		return nil, &ResError{Message: err.Error(), Err: err}
	}
	for k, vs := range r.Header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := r.HTTPClient.Do(req)
	if err != nil {
		r.Logger.Debug().Err(err).Str("url", req.URL.String()).Msg("res call failed")
		return nil, &ResError{Message: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	r.Logger.Debug().
		Str("url", req.URL.String()).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("res call")
	if err != nil {
		return nil, &ResError{Status: resp.StatusCode, Message: "reading response: " + err.Error(), Err: err}
	}

	v, perr := jsonvalue.Parse(raw)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if perr != nil {
			return nil, &ResError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		}
		return nil, &ResError{Status: resp.StatusCode, Message: v}
	}
	if perr != nil {
		return nil, &ResError{Status: resp.StatusCode, Message: "response data not valid JSON document", Err: perr}
	}
	return v, nil
}
