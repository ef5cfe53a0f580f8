package core

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// Key is an identifier the analysis service may emit as either a JSON number
// or a JSON string. The original kind is kept so numeric ids sort numerically.
type Key struct {
	text    string
	num     float64
	numeric bool
}

// StringKey returns a textual key.
func StringKey(s string) Key { return Key{text: s} }

// NumberKey returns a numeric key.
func NumberKey(f float64) Key { return Key{num: f, numeric: true} }

// String formats the key the way it is displayed and searched.
func (k Key) String() string {
	if k.numeric {
		return strconv.FormatFloat(k.num, 'f', -1, 64)
	}
	return k.text
}

// Value returns the key as float64 or string for generic comparison.
func (k Key) Value() any {
	if k.numeric {
		return k.num
	}
	return k.text
}

// IsZero reports whether the key was never set.
func (k Key) IsZero() bool {
	return !k.numeric && k.text == ""
}

func (k *Key) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0 || bytes.Equal(b, []byte("null")):
		*k = Key{}
		return nil
	case b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*k = StringKey(s)
		return nil
	default:
		var f float64
		if err := json.Unmarshal(b, &f); err != nil {
			return err
		}
		*k = NumberKey(f)
		return nil
	}
}

func (k Key) MarshalJSON() ([]byte, error) {
	if k.numeric {
		return json.Marshal(k.num)
	}
	return json.Marshal(k.text)
}
