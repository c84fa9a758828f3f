package domain

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
)

// JSONValue is a free-form JSON object kept as raw bytes, so documents such
// as working hours round-trip without a fixed schema. The zero value is null.
type JSONValue json.RawMessage

func (v JSONValue) IsNull() bool {
	trimmed := bytes.TrimSpace(v)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

// Validate accepts null or a JSON object.
func (v JSONValue) Validate() error {
	if v.IsNull() {
		return nil
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(v, &obj); err != nil {
		return NewError(KindValidationFailed, "expected a JSON object")
	}
	return nil
}

func (v JSONValue) MarshalJSON() ([]byte, error) {
	if v.IsNull() {
		return []byte("null"), nil
	}
	return v, nil
}

func (v *JSONValue) UnmarshalJSON(data []byte) error {
	if v == nil {
		return errors.New("JSONValue: UnmarshalJSON on nil pointer")
	}
	*v = append((*v)[0:0], data...)
	return nil
}

func (v JSONValue) Value() (driver.Value, error) {
	if v.IsNull() {
		return nil, nil
	}
	return []byte(v), nil
}

func (v *JSONValue) Scan(src any) error {
	switch s := src.(type) {
	case nil:
		*v = nil
	case []byte:
		*v = append(JSONValue(nil), s...)
	case string:
		*v = JSONValue(s)
	default:
		return fmt.Errorf("JSONValue: cannot scan %T", src)
	}
	return nil
}
