package scale

import (
	"bytes"
	"encoding/json"
)

// JSONObject is an insertion-ordered JSON object. encoding/json sorts map
// keys alphabetically, which would scramble the field declaration order
// the reference sidecar API preserves, so emitted objects are built with
// this type instead of map[string]any.
type JSONObject struct {
	keys []string
	vals []any
}

// NewJSONObject returns an empty ordered object.
func NewJSONObject() *JSONObject {
	return &JSONObject{}
}

// Set appends a key/value pair. Re-setting an existing key updates its
// value in place without reordering.
func (o *JSONObject) Set(key string, val any) *JSONObject {
	for i, k := range o.keys {
		if k == key {
			o.vals[i] = val
			return o
		}
	}
	o.keys = append(o.keys, key)
	o.vals = append(o.vals, val)
	return o
}

// Len reports the number of keys.
func (o *JSONObject) Len() int { return len(o.keys) }

// MarshalJSON renders the object preserving insertion order.
func (o *JSONObject) MarshalJSON() ([]byte, error) {
	if o == nil {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range o.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := json.Marshal(o.vals[i])
		if err != nil {
			return nil, err
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
