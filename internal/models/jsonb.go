package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// marshalJSONB encodes v for a JSONB column.
func marshalJSONB(v interface{}, name string) (driver.Value, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", name, err)
	}
	return data, nil
}

// scanJSONB decodes a JSONB column into dest. It reports false for NULL or empty values.
func scanJSONB(value interface{}, dest interface{}, name string) (bool, error) {
	if value == nil {
		return false, nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return false, fmt.Errorf("unsupported type %T for %s", value, name)
	}
	if len(data) == 0 || string(data) == "null" {
		return false, nil
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("unmarshal %s: %w", name, err)
	}
	return true, nil
}

// StringList is a []string persisted as a JSONB array.
type StringList []string

// Value implements driver.Valuer.
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		l = StringList{}
	}
	return marshalJSONB([]string(l), "string list")
}

// Scan implements sql.Scanner.
func (l *StringList) Scan(value interface{}) error {
	var out []string
	ok, err := scanJSONB(value, &out, "string list")
	if err != nil {
		return err
	}
	if !ok {
		out = []string{}
	}
	*l = out
	return nil
}
