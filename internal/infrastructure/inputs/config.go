package inputs

import (
	"fmt"
	"strconv"
)

// Config is a key-value map for input-type-specific configuration.
// The backend passes it when creating an input; implementations interpret it.
type Config map[string]any

// String returns the value for key if it is a string.
func (c Config) String(key string) string {
	s, _ := c[key].(string)
	return s
}

// Int returns the value for key as an int. Missing keys yield def.
func (c Config) Int(key string, def int) (int, error) {
	v, ok := c[key]
	if !ok || v == nil {
		return def, nil
	}
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		return int(n), nil
	case string:
		i, err := strconv.Atoi(n)
		if err != nil {
			return 0, fmt.Errorf("%s: %w", key, err)
		}
		return i, nil
	default:
		return 0, fmt.Errorf("%s: unsupported type %T", key, v)
	}
}
