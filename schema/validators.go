package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"math"
	"net"
	"net/mail"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Validator checks and converts one non-nil value. The returned error message
// becomes the Invalid message.
type Validator func(value any) (any, error)

// Factory builds a Validator from expression params.
type Factory func(params Params) (Validator, error)

var rePhone = regexp.MustCompile(`^\+?[1-9]\d{6,14}$`)

func builtinFactories() map[string]Factory {
	return map[string]Factory{
		"any":      anyValidator,
		"str":      strValidator,
		"int":      intValidator,
		"float":    floatValidator,
		"bool":     boolValidator,
		"date":     timeValidator("2006-01-02"),
		"time":     timeValidator("15:04:05"),
		"datetime": timeValidator(time.RFC3339),
		"email":    emailValidator,
		"url":      urlValidator,
		"ipv4":     ipValidator(4),
		"ipv6":     ipValidator(6),
		"phone":    patternValidator(rePhone, "invalid phone number"),
		"uuid":     uuidValidator,
		"enum":     enumValidator,
	}
}

// Builtins lists the names of the built-in validators.
func Builtins() []string {
	names := make([]string, 0, 16)
	for name := range builtinFactories() {
		names = append(names, name)
	}
	return names
}

func anyValidator(Params) (Validator, error) {
	return func(v any) (any, error) { return v, nil }, nil
}

func strValidator(params Params) (Validator, error) {
	minlen, hasMin := params.Int("minlen")
	maxlen, hasMax := params.Int("maxlen")
	if params.Has("minlen") && !hasMin || params.Has("maxlen") && !hasMax {
		return nil, errors.New("minlen and maxlen must be integers")
	}
	var re *regexp.Regexp
	if pattern, ok := params.String("match"); ok {
		var err error
		if re, err = regexp.Compile(pattern); err != nil {
			return nil, fmt.Errorf("invalid match pattern: %w", err)
		}
	}
	strip, escape := params.Bool("strip"), params.Bool("escape")

	return func(v any) (any, error) {
		var s string
		switch t := v.(type) {
		case string:
			s = t
		case int:
			s = strconv.Itoa(t)
		case int64:
			s = strconv.FormatInt(t, 10)
		default:
			return nil, errors.New("must be a string")
		}
		if strip {
			s = strings.TrimSpace(s)
		}
		n := utf8.RuneCountInString(s)
		if hasMin && n < minlen {
			return nil, fmt.Errorf("must be at least %d characters", minlen)
		}
		if hasMax && n > maxlen {
			return nil, fmt.Errorf("must be at most %d characters", maxlen)
		}
		if re != nil && !re.MatchString(s) {
			return nil, fmt.Errorf("must match %s", re.String())
		}
		if escape {
			s = html.EscapeString(s)
		}
		return s, nil
	}, nil
}

func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case int:
		return float64(t), true
	case int32:
		return float64(t), true
	case int64:
		return float64(t), true
	case float32:
		return float64(t), true
	case float64:
		return t, true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil && !math.IsNaN(f) && !math.IsInf(f, 0)
	}
	return 0, false
}

func intValidator(params Params) (Validator, error) {
	min, hasMin := params.Float("min")
	max, hasMax := params.Float("max")
	return func(v any) (any, error) {
		var n int
		switch t := v.(type) {
		case int:
			n = t
		case int64:
			n = int(t)
		case string:
			i, err := strconv.Atoi(strings.TrimSpace(t))
			if err != nil {
				return nil, errors.New("must be an integer")
			}
			n = i
		default:
			f, ok := toFloat(v)
			if !ok || f != math.Trunc(f) {
				return nil, errors.New("must be an integer")
			}
			// float64(math.MaxInt64) rounds up to 2^63, which is already out of range.
			if f < math.MinInt64 || f >= math.MaxInt64 {
				return nil, errors.New("out of integer range")
			}
			n = int(f)
		}
		if hasMin && float64(n) < min {
			return nil, fmt.Errorf("must be >= %v", min)
		}
		if hasMax && float64(n) > max {
			return nil, fmt.Errorf("must be <= %v", max)
		}
		return n, nil
	}, nil
}

func floatValidator(params Params) (Validator, error) {
	min, hasMin := params.Float("min")
	max, hasMax := params.Float("max")
	exmin, exmax := params.Bool("exmin"), params.Bool("exmax")
	return func(v any) (any, error) {
		if _, isBool := v.(bool); isBool {
			return nil, errors.New("must be a number")
		}
		f, ok := toFloat(v)
		if !ok {
			return nil, errors.New("must be a number")
		}
		if hasMin && (f < min || exmin && f == min) {
			if exmin {
				return nil, fmt.Errorf("must be > %v", min)
			}
			return nil, fmt.Errorf("must be >= %v", min)
		}
		if hasMax && (f > max || exmax && f == max) {
			if exmax {
				return nil, fmt.Errorf("must be < %v", max)
			}
			return nil, fmt.Errorf("must be <= %v", max)
		}
		return f, nil
	}, nil
}

func boolValidator(Params) (Validator, error) {
	return func(v any) (any, error) {
		switch t := v.(type) {
		case bool:
			return t, nil
		case int:
			if t == 0 || t == 1 {
				return t == 1, nil
			}
		case string:
			switch strings.ToLower(strings.TrimSpace(t)) {
			case "true", "1", "yes", "y", "on":
				return true, nil
			case "false", "0", "no", "n", "off":
				return false, nil
			}
		}
		return nil, errors.New("must be a boolean")
	}, nil
}

// timeValidator accepts strings in the layout (overridable with &format=)
// and time.Time values, and returns the formatted string.
func timeValidator(defaultLayout string) Factory {
	return func(params Params) (Validator, error) {
		layout := defaultLayout
		if f, ok := params.String("format"); ok {
			layout = f
		}
		return func(v any) (any, error) {
			switch t := v.(type) {
			case time.Time:
				return t.Format(layout), nil
			case string:
				parsed, err := time.Parse(layout, strings.TrimSpace(t))
				if err != nil {
					return nil, fmt.Errorf("must be a time in format %s", layout)
				}
				return parsed.Format(layout), nil
			}
			return nil, fmt.Errorf("must be a time in format %s", layout)
		}, nil
	}
}

func emailValidator(Params) (Validator, error) {
	return func(v any) (any, error) {
		s, ok := v.(string)
		if !ok {
			return nil, errors.New("invalid email address")
		}
		addr, err := mail.ParseAddress(s)
		if err != nil || addr.Address != strings.TrimSpace(s) {
			return nil, errors.New("invalid email address")
		}
		return addr.Address, nil
	}, nil
}

func urlValidator(params Params) (Validator, error) {
	schemes := []string{"http", "https"}
	if s, ok := params.String("schemes"); ok {
		schemes = strings.Fields(s)
	}
	return func(v any) (any, error) {
		s, ok := v.(string)
		if !ok {
			return nil, errors.New("invalid URL")
		}
		u, err := url.ParseRequestURI(strings.TrimSpace(s))
		if err != nil || u.Host == "" {
			return nil, errors.New("invalid URL")
		}
		for _, scheme := range schemes {
			if strings.EqualFold(u.Scheme, scheme) {
				return u.String(), nil
			}
		}
		return nil, fmt.Errorf("URL scheme must be one of: %s", strings.Join(schemes, ", "))
	}, nil
}

func ipValidator(version int) Factory {
	return func(Params) (Validator, error) {
		return func(v any) (any, error) {
			s, _ := v.(string)
			ip := net.ParseIP(strings.TrimSpace(s))
			if ip == nil || (version == 4) != (ip.To4() != nil) {
				return nil, fmt.Errorf("invalid IPv%d address", version)
			}
			return ip.String(), nil
		}, nil
	}
}

func patternValidator(re *regexp.Regexp, message string) Factory {
	return func(Params) (Validator, error) {
		return func(v any) (any, error) {
			s, ok := v.(string)
			if !ok || !re.MatchString(s) {
				return nil, errors.New(message)
			}
			return s, nil
		}, nil
	}
}

func uuidValidator(Params) (Validator, error) {
	return func(v any) (any, error) {
		s, _ := v.(string)
		id, err := uuid.Parse(strings.TrimSpace(s))
		if err != nil {
			return nil, errors.New("invalid UUID")
		}
		return id.String(), nil
	}, nil
}

// enumValidator takes &values="a b c" or &values=["a","b","c"].
func enumValidator(params Params) (Validator, error) {
	var values []string
	switch t := params["values"].(type) {
	case string:
		values = strings.Fields(t)
	case []any:
		for _, v := range t {
			values = append(values, fmt.Sprint(v))
		}
	}
	if len(values) == 0 {
		return nil, errors.New("values is required")
	}
	return func(v any) (any, error) {
		s := fmt.Sprint(v)
		for _, allowed := range values {
			if s == allowed {
				return s, nil
			}
		}
		return nil, fmt.Errorf("must be one of: %s", strings.Join(values, ", "))
	}, nil
}
