package tools

import "fmt"

// RequiredString safely extracts a required string parameter from arguments
func RequiredString(args map[string]any, key string) (string, error) {
	value, exists := args[key]
	if !exists {
		return "", fmt.Errorf("missing parameter: %s", key)
	}

	str, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("parameter %s must be a string", key)
	}

	if str == "" {
		return "", fmt.Errorf("parameter %s cannot be empty", key)
	}

	return str, nil
}

// OptionalBool safely extracts an optional boolean parameter
func OptionalBool(args map[string]any, key string, defaultValue bool) bool {
	value, exists := args[key]
	if !exists {
		return defaultValue
	}

	b, ok := value.(bool)
	if !ok {
		return defaultValue
	}

	return b
}

// OptionalInt safely extracts an optional integer parameter. JSON decoding
// delivers numbers as float64, so both forms are accepted.
func OptionalInt(args map[string]any, key string, defaultValue int) int {
	value, exists := args[key]
	if !exists {
		return defaultValue
	}

	switch v := value.(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return defaultValue
	}
}
