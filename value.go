package geoshape

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"sort"

	jsoniter "github.com/json-iterator/go"
)

// Kind identifies the type held by a Value.
type Kind uint8

// Value kinds.
const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

var kindNames = [...]string{
	KindNull:   "null",
	KindBool:   "bool",
	KindNumber: "number",
	KindString: "string",
	KindArray:  "array",
	KindObject: "object",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// KindError is returned by Value accessors when the held kind differs from
// the requested one.
type KindError struct {
	Want Kind
	Got  Kind
}

func (e *KindError) Error() string {
	return fmt.Sprintf("geoshape: expected %s, got %s", e.Want, e.Got)
}

// Value is a node of a parsed JSON document. The zero Value is null.
type Value struct {
	kind  Kind
	b     bool
	n     float64
	s     string
	items []Value
	obj   *Object
}

// Null returns the JSON null value.
func Null() Value { return Value{} }

// Bool returns a JSON boolean.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Number returns a JSON number.
func Number(f float64) Value { return Value{kind: KindNumber, n: f} }

// String returns a JSON string.
func String(s string) Value { return Value{kind: KindString, s: s} }

// Array returns a JSON array holding items.
func Array(items ...Value) Value {
	if items == nil {
		items = []Value{}
	}
	return Value{kind: KindArray, items: items}
}

// ObjectValue wraps o as a Value. A nil o yields null.
func ObjectValue(o *Object) Value {
	if o == nil {
		return Null()
	}
	return Value{kind: KindObject, obj: o}
}

// Kind returns the kind of v.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// AsBool returns the boolean held by v.
func (v Value) AsBool() (bool, error) {
	if v.kind != KindBool {
		return false, &KindError{Want: KindBool, Got: v.kind}
	}
	return v.b, nil
}

// AsNumber returns the number held by v.
func (v Value) AsNumber() (float64, error) {
	if v.kind != KindNumber {
		return 0, &KindError{Want: KindNumber, Got: v.kind}
	}
	return v.n, nil
}

// AsString returns the string held by v.
func (v Value) AsString() (string, error) {
	if v.kind != KindString {
		return "", &KindError{Want: KindString, Got: v.kind}
	}
	return v.s, nil
}

// AsArray returns the elements held by v.
func (v Value) AsArray() ([]Value, error) {
	if v.kind != KindArray {
		return nil, &KindError{Want: KindArray, Got: v.kind}
	}
	return v.items, nil
}

// AsObject returns the object held by v.
func (v Value) AsObject() (*Object, error) {
	if v.kind != KindObject {
		return nil, &KindError{Want: KindObject, Got: v.kind}
	}
	return v.obj, nil
}

// Interface converts v to the generic form produced by encoding/json:
// nil, bool, float64, string, []interface{} or map[string]interface{}.
func (v Value) Interface() interface{} {
	switch v.kind {
	case KindBool:
		return v.b
	case KindNumber:
		return v.n
	case KindString:
		return v.s
	case KindArray:
		out := make([]interface{}, len(v.items))
		for i, item := range v.items {
			out[i] = item.Interface()
		}
		return out
	case KindObject:
		return v.obj.Map()
	default:
		return nil
	}
}

// FromInterface converts a generic Go value into a Value. Maps are ordered
// by key since Go maps carry no order.
func FromInterface(x interface{}) (Value, error) {
	switch t := x.(type) {
	case nil:
		return Null(), nil
	case Value:
		return t, nil
	case *Object:
		return ObjectValue(t), nil
	case bool:
		return Bool(t), nil
	case string:
		return String(t), nil
	case float64:
		return Number(t), nil
	case float32:
		return Number(float64(t)), nil
	case int:
		return Number(float64(t)), nil
	case int32:
		return Number(float64(t)), nil
	case int64:
		return Number(float64(t)), nil
	case uint:
		return Number(float64(t)), nil
	case uint32:
		return Number(float64(t)), nil
	case uint64:
		return Number(float64(t)), nil
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return Null(), fmt.Errorf("%w: %v", ErrInvalidJSON, err)
		}
		return Number(f), nil
	case []float64:
		items := make([]Value, len(t))
		for i, f := range t {
			items[i] = Number(f)
		}
		return Array(items...), nil
	case []interface{}:
		items := make([]Value, len(t))
		for i, e := range t {
			item, err := FromInterface(e)
			if err != nil {
				return Null(), err
			}
			items[i] = item
		}
		return Array(items...), nil
	case map[string]interface{}:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		obj := NewObject()
		for _, k := range keys {
			item, err := FromInterface(t[k])
			if err != nil {
				return Null(), err
			}
			obj.Set(k, item)
		}
		return ObjectValue(obj), nil
	default:
		return Null(), fmt.Errorf("%w: unsupported Go type %T", ErrInvalidJSON, x)
	}
}

// Parse decodes a JSON document into a Value. Object key order is kept.
func Parse(data []byte) (Value, error) {
	// The iterator reports a document cut off inside a container as a
	// clean io.EOF, so validate the whole input first. Wrapping it keeps a
	// bare scalar from running into the end of input.
	wrapped := make([]byte, 0, len(data)+2)
	wrapped = append(append(append(wrapped, '['), data...), ']')
	if !jsoniter.ConfigCompatibleWithStandardLibrary.Valid(wrapped) {
		return Null(), fmt.Errorf("%w: malformed or truncated document", ErrInvalidJSON)
	}

	iter := jsoniter.ParseBytes(jsoniter.ConfigCompatibleWithStandardLibrary, data)
	v := readValue(iter)
	if iter.Error != nil && iter.Error != io.EOF {
		return Null(), fmt.Errorf("%w: %v", ErrInvalidJSON, iter.Error)
	}

	// Anything but whitespace after the document is an error.
	if iter.WhatIsNext() != jsoniter.InvalidValue || iter.Error == nil {
		return Null(), fmt.Errorf("%w: trailing data after document", ErrInvalidJSON)
	}

	return v, nil
}

func readValue(iter *jsoniter.Iterator) Value {
	switch iter.WhatIsNext() {
	case jsoniter.StringValue:
		return String(iter.ReadString())
	case jsoniter.NumberValue:
		return Number(iter.ReadFloat64())
	case jsoniter.BoolValue:
		return Bool(iter.ReadBool())
	case jsoniter.NilValue:
		iter.ReadNil()
		return Null()
	case jsoniter.ArrayValue:
		items := []Value{}
		iter.ReadArrayCB(func(it *jsoniter.Iterator) bool {
			items = append(items, readValue(it))
			return it.Error == nil
		})
		return Array(items...)
	case jsoniter.ObjectValue:
		obj := NewObject()
		iter.ReadObjectCB(func(it *jsoniter.Iterator, key string) bool {
			obj.Set(key, readValue(it))
			return it.Error == nil
		})
		return ObjectValue(obj)
	default:
		iter.ReportError("geoshape.Parse", "expected a JSON value")
		return Null()
	}
}

// Marshal returns the compact JSON encoding of v.
func (v Value) Marshal() ([]byte, error) {
	stream := jsoniter.NewStream(jsoniter.ConfigCompatibleWithStandardLibrary, nil, 512)
	writeValue(stream, v)
	if stream.Error != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJSON, stream.Error)
	}

	out := make([]byte, len(stream.Buffer()))
	copy(out, stream.Buffer())
	return out, nil
}

func writeValue(stream *jsoniter.Stream, v Value) {
	switch v.kind {
	case KindBool:
		stream.WriteBool(v.b)
	case KindNumber:
		if math.IsNaN(v.n) || math.IsInf(v.n, 0) {
			stream.Error = fmt.Errorf("unsupported number %v", v.n)
			return
		}
		stream.WriteFloat64(v.n)
	case KindString:
		stream.WriteString(v.s)
	case KindArray:
		stream.WriteArrayStart()
		for i, item := range v.items {
			if i > 0 {
				stream.WriteMore()
			}
			writeValue(stream, item)
		}
		stream.WriteArrayEnd()
	case KindObject:
		stream.WriteObjectStart()
		for i, key := range v.obj.keys {
			if i > 0 {
				stream.WriteMore()
			}
			stream.WriteObjectField(key)
			writeValue(stream, v.obj.values[key])
		}
		stream.WriteObjectEnd()
	default:
		stream.WriteNil()
	}
}

// MarshalJSON implements json.Marshaler.
func (v Value) MarshalJSON() ([]byte, error) {
	return v.Marshal()
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *Value) UnmarshalJSON(data []byte) error {
	parsed, err := Parse(data)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}
