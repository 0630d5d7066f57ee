package geoshape

import (
	"encoding/json"
	"fmt"
)

// Object is a JSON object that remembers key insertion order.
type Object struct {
	keys   []string
	values map[string]Value
}

// NewObject returns an empty Object.
func NewObject() *Object {
	return &Object{values: make(map[string]Value)}
}

// Set stores v under key and returns o. Re-setting a key keeps its
// original position.
func (o *Object) Set(key string, v Value) *Object {
	if o.values == nil {
		o.values = make(map[string]Value)
	}
	if _, exists := o.values[key]; !exists {
		o.keys = append(o.keys, key)
	}
	o.values[key] = v
	return o
}

// Get returns the value stored under key.
func (o *Object) Get(key string) (Value, bool) {
	if o == nil {
		return Null(), false
	}
	v, ok := o.values[key]
	return v, ok
}

// GetObject returns the object stored under key, or nil when the key is
// missing or holds another kind.
func (o *Object) GetObject(key string) *Object {
	v, ok := o.Get(key)
	if !ok {
		return nil
	}
	obj, err := v.AsObject()
	if err != nil {
		return nil
	}
	return obj
}

// GetString returns the string stored under key, or "" when the key is
// missing or holds another kind.
func (o *Object) GetString(key string) string {
	v, ok := o.Get(key)
	if !ok {
		return ""
	}
	s, err := v.AsString()
	if err != nil {
		return ""
	}
	return s
}

// Keys returns the keys in insertion order.
func (o *Object) Keys() []string {
	if o == nil {
		return nil
	}
	out := make([]string, len(o.keys))
	copy(out, o.keys)
	return out
}

// Len returns the number of keys.
func (o *Object) Len() int {
	if o == nil {
		return 0
	}
	return len(o.keys)
}

// Clone returns a shallow copy of o.
func (o *Object) Clone() *Object {
	c := NewObject()
	if o == nil {
		return c
	}
	for _, k := range o.keys {
		c.Set(k, o.values[k])
	}
	return c
}

// Map converts o to a map[string]interface{}.
func (o *Object) Map() map[string]interface{} {
	if o == nil {
		return nil
	}
	m := make(map[string]interface{}, len(o.keys))
	for _, k := range o.keys {
		m[k] = o.values[k].Interface()
	}
	return m
}

// ObjectFromMap converts a generic property map into an Object with keys
// in sorted order.
func ObjectFromMap(m map[string]interface{}) (*Object, error) {
	if m == nil {
		return nil, nil
	}
	v, err := FromInterface(m)
	if err != nil {
		return nil, err
	}
	return v.AsObject()
}

// ParseObject parses a JSON document whose root must be an object.
func ParseObject(data []byte) (*Object, error) {
	v, err := Parse(data)
	if err != nil {
		return nil, err
	}
	obj, err := v.AsObject()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	return obj, nil
}

// Marshal returns the compact JSON encoding of o.
func (o *Object) Marshal() ([]byte, error) {
	return ObjectValue(o).Marshal()
}

// MarshalJSON implements json.Marshaler.
func (o *Object) MarshalJSON() ([]byte, error) {
	if o == nil {
		return []byte("null"), nil
	}
	return o.Marshal()
}

// UnmarshalJSON implements json.Unmarshaler.
func (o *Object) UnmarshalJSON(data []byte) error {
	parsed, err := ParseObject(data)
	if err != nil {
		return err
	}
	*o = *parsed
	return nil
}

var (
	_ json.Marshaler   = (*Object)(nil)
	_ json.Unmarshaler = (*Object)(nil)
	_ json.Marshaler   = Value{}
	_ json.Unmarshaler = (*Value)(nil)
)
