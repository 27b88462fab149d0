// Package json_util provides JSON helpers shared by the models.
package json_util

import (
	"database/sql/driver"
	"errors"
	"fmt"
)

// RawMessage holds pre-encoded JSON. It is stored as text and embedded
// verbatim when the owning value is encoded; an empty value encodes as null.
type RawMessage []byte

func (m RawMessage) MarshalJSON() ([]byte, error) {
	if len(m) == 0 {
		return []byte("null"), nil
	}
	return m, nil
}

func (m *RawMessage) UnmarshalJSON(data []byte) error {
	if m == nil {
		return errors.New("json_util.RawMessage: UnmarshalJSON on nil pointer")
	}
	*m = append((*m)[0:0], data...)
	return nil
}

// Value stores the message as text so every SQL driver keeps it readable.
func (m RawMessage) Value() (driver.Value, error) {
	if len(m) == 0 {
		return nil, nil
	}
	return string(m), nil
}

func (m *RawMessage) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*m = nil
	case string:
		*m = RawMessage(v)
	case []byte:
		*m = append((*m)[0:0], v...)
	default:
		return fmt.Errorf("json_util.RawMessage: cannot scan %T", src)
	}
	return nil
}
