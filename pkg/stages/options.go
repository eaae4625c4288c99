package stages

import (
	"fmt"
	"math"
	"strconv"
)

func boolOption(opts map[string]interface{}, key string, def bool) (bool, error) {
	v, ok := opts[key]
	if !ok || v == nil {
		return def, nil
	}
	switch b := v.(type) {
	case bool:
		return b, nil
	case string:
		parsed, err := strconv.ParseBool(b)
		if err != nil {
			return def, fmt.Errorf("option %s: %q is not a boolean", key, b)
		}
		return parsed, nil
	}
	return def, fmt.Errorf("option %s: expected boolean, got %T", key, v)
}

func intOption(opts map[string]interface{}, key string, def int) (int, error) {
	v, ok := opts[key]
	if !ok || v == nil {
		return def, nil
	}
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case uint64:
		return int(n), nil
	case float64:
		if n != math.Trunc(n) {
			return def, fmt.Errorf("option %s: %v is not an integer", key, n)
		}
		return int(n), nil
	case string:
		parsed, err := strconv.Atoi(n)
		if err != nil {
			return def, fmt.Errorf("option %s: %q is not an integer", key, n)
		}
		return parsed, nil
	}
	return def, fmt.Errorf("option %s: expected integer, got %T", key, v)
}

func stringOption(opts map[string]interface{}, key, def string) (string, error) {
	v, ok := opts[key]
	if !ok || v == nil {
		return def, nil
	}
	s, ok := v.(string)
	if !ok {
		return def, fmt.Errorf("option %s: expected string, got %T", key, v)
	}
	return s, nil
}
