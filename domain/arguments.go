package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Arguments is the opaque structured payload of a chat message: string keys
// mapping to string/number/bool/nested values. The storage layer serializes
// it as JSON text and performs no schema validation.
type Arguments map[string]any

// Value implements driver.Valuer.
func (a Arguments) Value() (driver.Value, error) {
	if a == nil {
		a = Arguments{}
	}
	data, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("failed to encode arguments: %w", err)
	}
	return string(data), nil
}

// Scan implements sql.Scanner.
func (a *Arguments) Scan(src any) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*a = Arguments{}
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into Arguments", src)
	}
	if len(data) == 0 {
		*a = Arguments{}
		return nil
	}
	return json.Unmarshal(data, a)
}
