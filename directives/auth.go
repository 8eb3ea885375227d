package directives

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/buildwithgo/fighting"
	"github.com/golang-jwt/jwt/v5"
	"gopkg.in/yaml.v3"
)

// ClaimsKey is the context key holding the verified jwt.MapClaims.
const ClaimsKey = "claims"

// AuthConfig holds the configuration of the $auth directive.
type AuthConfig struct {
	// Secret key for HMAC signing
	Secret []byte

	// Token lookup configuration
	TokenLookup string // "header:Authorization", "query:token", "cookie:jwt"

	// Auth scheme for header lookup
	AuthScheme string // "Bearer"

	// RoleClaim names the claim holding a role string or a list of roles.
	RoleClaim string

	// Methods lists the accepted signing algorithms.
	Methods []string
}

// AuthOption configures the $auth directive.
type AuthOption func(*AuthConfig)

// WithTokenLookup sets where to look for the token
func WithTokenLookup(lookup string) AuthOption {
	return func(config *AuthConfig) {
		config.TokenLookup = lookup
	}
}

// WithAuthScheme sets the authorization scheme
func WithAuthScheme(scheme string) AuthOption {
	return func(config *AuthConfig) {
		config.AuthScheme = scheme
	}
}

// WithRoleClaim sets the claim checked against the required roles.
func WithRoleClaim(claim string) AuthOption {
	return func(config *AuthConfig) {
		config.RoleClaim = claim
	}
}

// Auth returns the $auth directive. Its meta is a role, a list of roles
// (any of them grants access) or true for any valid token:
//
//	$auth: admin
//	$auth: [admin, editor]
//	$auth: true
func Auth(secret string, opts ...AuthOption) fighting.Directive {
	config := &AuthConfig{
		Secret:      []byte(secret),
		TokenLookup: "header:Authorization",
		AuthScheme:  "Bearer",
		RoleClaim:   "role",
		Methods:     []string{"HS256", "HS384", "HS512"},
	}
	for _, opt := range opts {
		opt(config)
	}

	return func(next fighting.Action, meta *yaml.Node, api *fighting.API) (fighting.Action, error) {
		roles, err := decodeRoles(meta)
		if err != nil {
			return nil, err
		}
		if len(config.Secret) == 0 {
			return nil, errors.New("$auth: empty secret")
		}
		if _, _, ok := strings.Cut(config.TokenLookup, ":"); !ok {
			return nil, fmt.Errorf("$auth: invalid token lookup %q", config.TokenLookup)
		}

		return func(c *fighting.Context, in map[string]any) (any, error) {
			token, err := extractToken(c, config)
			if err != nil {
				return nil, unauthorized(err)
			}
			claims, err := parseToken(token, config)
			if err != nil {
				return nil, unauthorized(err)
			}
			if len(roles) > 0 && !hasRole(claims[config.RoleClaim], roles) {
				return nil, fighting.NewHTTPError(http.StatusForbidden, "forbidden")
			}
			c.Set(ClaimsKey, claims)
			return next(c, in)
		}, nil
	}
}

func unauthorized(err error) error {
	return fighting.NewHTTPError(http.StatusUnauthorized, "unauthorized").SetInternal(err)
}

func decodeRoles(meta *yaml.Node) ([]string, error) {
	if meta == nil {
		return nil, nil
	}
	switch meta.Kind {
	case yaml.ScalarNode:
		if meta.Tag == "!!null" {
			return nil, nil
		}
		if meta.Tag == "!!bool" {
			var on bool
			if err := meta.Decode(&on); err != nil || !on {
				return nil, errors.New("$auth: expected true, a role or a list of roles")
			}
			return nil, nil
		}
		return []string{meta.Value}, nil
	case yaml.SequenceNode:
		var roles []string
		if err := meta.Decode(&roles); err != nil {
			return nil, fmt.Errorf("$auth: %w", err)
		}
		return roles, nil
	}
	return nil, errors.New("$auth: expected true, a role or a list of roles")
}

func hasRole(claim any, roles []string) bool {
	var have []string
	switch v := claim.(type) {
	case string:
		have = []string{v}
	case []any:
		for _, r := range v {
			if s, ok := r.(string); ok {
				have = append(have, s)
			}
		}
	}
	for _, h := range have {
		for _, r := range roles {
			if h == r {
				return true
			}
		}
	}
	return false
}

// extractToken extracts the JWT token from the request
func extractToken(c *fighting.Context, config *AuthConfig) (string, error) {
	method, key, _ := strings.Cut(config.TokenLookup, ":")

	switch method {
	case "header":
		auth := c.GetHeader(key)
		if auth == "" {
			return "", errors.New("missing authorization header")
		}

		if config.AuthScheme != "" {
			prefix := config.AuthScheme + " "
			if !strings.HasPrefix(auth, prefix) {
				return "", fmt.Errorf("invalid authorization scheme, expected %s", config.AuthScheme)
			}
			return strings.TrimPrefix(auth, prefix), nil
		}
		return auth, nil

	case "query":
		token := c.QueryParam(key)
		if token == "" {
			return "", errors.New("missing token in query parameters")
		}
		return token, nil

	case "cookie":
		cookie, err := c.GetCookie(key)
		if err != nil {
			return "", errors.New("missing token in cookie")
		}
		return cookie.Value, nil

	default:
		return "", errors.New("unsupported token lookup method")
	}
}

// parseToken verifies the signature and the exp, nbf and iat claims.
func parseToken(tokenString string, config *AuthConfig) (jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return config.Secret, nil
	}, jwt.WithValidMethods(config.Methods), jwt.WithIssuedAt())
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// Sign creates an HS256 token carrying claims.
func Sign(secret string, claims jwt.MapClaims) (string, error) {
	if secret == "" {
		return "", errors.New("HMAC secret not configured")
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}
