package tools

import (
	"math"

	"github.com/aviro092/servicenow-mcp-server/internal/apierr"
)

const (
	maxShortDescriptionLen = 120
	maxDescriptionLen      = 4000
)

func requiredString(args map[string]interface{}, key string) (string, error) {
	v, ok := args[key]
	if !ok || v == nil {
		return "", apierr.New(apierr.KindValidation, "missing required argument %q", key)
	}
	s, ok := v.(string)
	if !ok {
		return "", apierr.New(apierr.KindValidation, "argument %q must be a string", key)
	}
	if s == "" {
		return "", apierr.New(apierr.KindValidation, "argument %q must not be empty", key)
	}
	return s, nil
}

func optionalString(args map[string]interface{}, key string) (string, bool, error) {
	v, ok := args[key]
	if !ok || v == nil {
		return "", false, nil
	}
	s, ok := v.(string)
	if !ok {
		return "", false, apierr.New(apierr.KindValidation, "argument %q must be a string", key)
	}
	return s, true, nil
}

// optionalInt accepts JSON numbers and rejects fractional values.
func optionalInt(args map[string]interface{}, key string) (int, bool, error) {
	v, ok := args[key]
	if !ok || v == nil {
		return 0, false, nil
	}
	switch n := v.(type) {
	case float64:
		if n != math.Trunc(n) {
			return 0, false, apierr.New(apierr.KindValidation, "argument %q must be an integer", key)
		}
		return int(n), true, nil
	case int:
		return n, true, nil
	default:
		return 0, false, apierr.New(apierr.KindValidation, "argument %q must be an integer", key)
	}
}

func requiredInt(args map[string]interface{}, key string) (int, error) {
	n, ok, err := optionalInt(args, key)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, apierr.New(apierr.KindValidation, "missing required argument %q", key)
	}
	return n, nil
}

func optionalBool(args map[string]interface{}, key string) (bool, bool, error) {
	v, ok := args[key]
	if !ok || v == nil {
		return false, false, nil
	}
	b, ok := v.(bool)
	if !ok {
		return false, false, apierr.New(apierr.KindValidation, "argument %q must be a boolean", key)
	}
	return b, true, nil
}

func checkRange(key string, value, min, max int) error {
	if value < min || value > max {
		return apierr.New(apierr.KindValidation, "argument %q must be between %d and %d, got %d", key, min, max, value)
	}
	return nil
}

func checkMaxLen(key, value string, max int) error {
	if len(value) > max {
		return apierr.New(apierr.KindValidation, "argument %q exceeds %d characters", key, max)
	}
	return nil
}
