package db

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// StringList is a JSON array column. NULL and empty values scan as an empty list.
type StringList []string

func (l *StringList) Scan(value any) error {
	var b []byte
	switch v := value.(type) {
	case nil:
		*l = StringList{}
		return nil
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into StringList", value)
	}

	if len(b) == 0 {
		*l = StringList{}
		return nil
	}

	var out []string
	if err := json.Unmarshal(b, &out); err != nil {
		return err
	}
	if out == nil {
		out = []string{}
	}
	*l = out
	return nil
}

func (l StringList) Value() (driver.Value, error) {
	if len(l) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal([]string(l))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}
