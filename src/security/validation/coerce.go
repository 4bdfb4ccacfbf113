package validation

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Payload values arrive as decoded JSON (json.Number when the decoder uses
// UseNumber, float64 otherwise) or as raw strings from form posts. The
// helpers below convert them to typed values or return an error wrapping
// ErrValidationFailed.

// AsFloat accepts numbers and numeric strings.
func AsFloat(v any, field string) (float64, error) {
	switch x := v.(type) {
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return 0, Failf("%s must be a number", field)
		}
		return f, nil
	case float64:
		return x, nil
	case int:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, Failf("%s must be a number", field)
		}
		return f, nil
	}
	return 0, Failf("%s must be a number", field)
}

// AsInt accepts integral numbers and integer strings. Fractional values are rejected.
func AsInt(v any, field string) (int64, error) {
	switch x := v.(type) {
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return i, nil
		}
		f, err := x.Float64()
		if err != nil || !integralInRange(f) {
			return 0, Failf("%s must be an integer", field)
		}
		return int64(f), nil
	case float64:
		if !integralInRange(x) {
			return 0, Failf("%s must be an integer", field)
		}
		return int64(x), nil
	case int:
		return int64(x), nil
	case int64:
		return x, nil
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(x), 10, 64)
		if err != nil {
			return 0, Failf("%s must be an integer", field)
		}
		return i, nil
	}
	return 0, Failf("%s must be an integer", field)
}

// integralInRange reports whether f has no fractional part and converts to
// int64 without wrapping. float64(math.MaxInt64) rounds up to 2^63.
func integralInRange(f float64) bool {
	return f == math.Trunc(f) && f >= math.MinInt64 && f < math.MaxInt64
}

// AsStrictInt accepts only JSON numbers without a fractional part; strings and
// booleans are rejected.
func AsStrictInt(v any, field string) (int64, error) {
	switch v.(type) {
	case json.Number, float64, int, int64:
		return AsInt(v, field)
	}
	return 0, Failf("%s must be an integer", field)
}

// AsString accepts strings; numbers are rendered in their JSON form.
func AsString(v any, field string) (string, error) {
	switch x := v.(type) {
	case string:
		return x, nil
	case json.Number:
		return x.String(), nil
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), nil
	}
	return "", Failf("%s must be a string", field)
}

// AsStrictString accepts only strings.
func AsStrictString(v any, field string) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", Failf("%s must be a string", field)
	}
	return s, nil
}

// AsBool accepts only JSON booleans.
func AsBool(v any, field string) (bool, error) {
	b, ok := v.(bool)
	if !ok {
		return false, Failf("%s must be a boolean", field)
	}
	return b, nil
}

// AsTicket reads a trade identifier, which the dashboard sends either as a
// number or as a numeric string.
func AsTicket(v any, field string) (int64, error) {
	if v == nil {
		return 0, Failf("%s is required", field)
	}
	ticket, err := AsInt(v, field)
	if err != nil {
		return 0, err
	}
	if ticket <= 0 {
		return 0, Failf("%s must be a positive integer", field)
	}
	return ticket, nil
}
