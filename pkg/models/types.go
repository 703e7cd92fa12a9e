package models

import (
	"database/sql/driver"
	"encoding/json"
)

// JSON is a custom type for handling JSON fields
type JSON map[string]interface{}

func (j JSON) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

func (j *JSON) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return nil
	}

	return json.Unmarshal(bytes, j)
}

// GetString returns the string value for a key, or the fallback when the key
// is absent or not a string.
func (j JSON) GetString(key, fallback string) string {
	if v, ok := j[key].(string); ok && v != "" {
		return v
	}
	return fallback
}

// GetInt returns the integer value for a key. JSON numbers unmarshal to
// float64, so both forms are accepted.
func (j JSON) GetInt(key string, fallback int) int {
	switch v := j[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return fallback
	}
}

// GetStringMap returns a nested object of string values (e.g. headers).
func (j JSON) GetStringMap(key string) map[string]string {
	result := make(map[string]string)
	if nested, ok := j[key].(map[string]interface{}); ok {
		for k, v := range nested {
			if s, ok := v.(string); ok {
				result[k] = s
			}
		}
	}
	return result
}
