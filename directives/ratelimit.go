package directives

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/buildwithgo/fighting"
	"gopkg.in/yaml.v3"
)

const idleClient = 3 * time.Minute

type bucket struct {
	rate      float64 // tokens per second
	burst     int
	tokens    float64
	lastCheck time.Time
}

// allow refills the bucket for the time elapsed since the last check and
// takes one token if available.
func (b *bucket) allow(now time.Time) bool {
	elapsed := now.Sub(b.lastCheck).Seconds()
	b.lastCheck = now

	b.tokens += elapsed * b.rate
	if b.tokens > float64(b.burst) {
		b.tokens = float64(b.burst)
	}

	if b.tokens >= 1.0 {
		b.tokens -= 1.0
		return true
	}
	return false
}

type limit struct {
	Rate  float64 `yaml:"rate"`
	Burst int     `yaml:"burst"`
}

type limiter struct {
	limit
	now func() time.Time

	mu        sync.Mutex
	clients   map[string]*bucket
	lastSweep time.Time
}

func (l *limiter) allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) > time.Minute {
		for k, b := range l.clients {
			if now.Sub(b.lastCheck) > idleClient {
				delete(l.clients, k)
			}
		}
		l.lastSweep = now
	}

	b, ok := l.clients[key]
	if !ok {
		b = &bucket{rate: l.Rate, burst: l.Burst, tokens: float64(l.Burst), lastCheck: now}
		l.clients[key] = b
	}
	return b.allow(now)
}

// RateLimitOption configures the $ratelimit directive.
type RateLimitOption func(*rateLimitConfig)

type rateLimitConfig struct {
	now func() time.Time
	key func(*fighting.Context) string
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) RateLimitOption {
	return func(c *rateLimitConfig) { c.now = now }
}

// WithKey sets how clients are told apart. The default is the remote IP.
func WithKey(key func(*fighting.Context) string) RateLimitOption {
	return func(c *rateLimitConfig) { c.key = key }
}

// RateLimit returns the $ratelimit directive, a token bucket per client
// and endpoint:
//
//	$ratelimit: {rate: 5, burst: 10}
//
// rate is in requests per second. burst defaults to the rate rounded up.
func RateLimit(opts ...RateLimitOption) fighting.Directive {
	config := &rateLimitConfig{now: time.Now, key: remoteIP}
	for _, opt := range opts {
		opt(config)
	}

	return func(next fighting.Action, meta *yaml.Node, api *fighting.API) (fighting.Action, error) {
		if meta == nil {
			return nil, errors.New("$ratelimit: missing rate")
		}
		var lim limit
		if err := meta.Decode(&lim); err != nil {
			return nil, fmt.Errorf("$ratelimit: %w", err)
		}
		if lim.Rate <= 0 {
			return nil, errors.New("$ratelimit: rate must be positive")
		}
		if lim.Burst <= 0 {
			lim.Burst = int(lim.Rate)
			if float64(lim.Burst) < lim.Rate {
				lim.Burst++
			}
		}
		l := &limiter{limit: lim, now: config.now, clients: make(map[string]*bucket), lastSweep: config.now()}

		return func(c *fighting.Context, in map[string]any) (any, error) {
			if !l.allow(config.key(c)) {
				return nil, fighting.NewHTTPError(http.StatusTooManyRequests)
			}
			return next(c, in)
		}, nil
	}
}

func remoteIP(c *fighting.Context) string {
	host, _, err := net.SplitHostPort(c.Request.RemoteAddr)
	if err != nil {
		return c.Request.RemoteAddr
	}
	return host
}
