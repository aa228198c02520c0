package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Structured key/value payload attached to a moderation log entry. Stored as JSON text.
type Details map[string]string

func (d *Details) Scan(v interface{}) error {
	var b []byte
	switch raw := v.(type) {
	case nil:
		*d = Details{}
		return nil
	case []byte:
		b = raw
	case string:
		b = []byte(raw)
	default:
		return fmt.Errorf("log entry details must be text, got %T", v)
	}

	if len(b) == 0 {
		*d = Details{}
		return nil
	}

	out := Details{}
	if err := json.Unmarshal(b, &out); err != nil {
		return fmt.Errorf("decoding log entry details: %w", err)
	}
	*d = out
	return nil
}

func (d Details) Value() (driver.Value, error) {
	if d == nil {
		return "{}", nil
	}
	b, err := json.Marshal(map[string]string(d))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (Details) GormDataType() string {
	return "text"
}
