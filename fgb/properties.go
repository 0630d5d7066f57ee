package fgb

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/flatgeobuf/flatgeobuf/src/go/flattypes"
	"github.com/flatgeobuf/flatgeobuf/src/go/writer"
	flatbuffers "github.com/google/flatbuffers/go"

	"github.com/tingold/geoshape"
)

// maxExactInteger is the largest integer a float64 holds without rounding.
const maxExactInteger = 1 << 53

// schema is the ordered column layout shared by every feature of a layer.
type schema struct {
	names []string
	types map[string]flattypes.ColumnType
	index map[string]int
}

// inferSchema collects every property name across features, in order of
// first appearance, and picks a column type wide enough for all its values.
func inferSchema(properties []*geoshape.Object) *schema {
	s := &schema{
		types: make(map[string]flattypes.ColumnType),
		index: make(map[string]int),
	}

	nullOnly := make(map[string]bool)
	for _, props := range properties {
		for _, name := range props.Keys() {
			v, _ := props.Get(name)

			existing, seen := s.types[name]
			if !seen {
				s.index[name] = len(s.names)
				s.names = append(s.names, name)
			}

			if v.IsNull() {
				if !seen {
					s.types[name] = flattypes.ColumnTypeJson
					nullOnly[name] = true
				}
				continue
			}

			inferred := inferColumnType(v)
			if !seen || nullOnly[name] {
				s.types[name] = inferred
				delete(nullOnly, name)
				continue
			}
			s.types[name] = promoteColumnType(existing, inferred)
		}
	}

	return s
}

// columns builds the header column definitions for s.
func (s *schema) columns(builder *flatbuffers.Builder) []*writer.Column {
	if len(s.names) == 0 {
		return nil
	}

	columns := make([]*writer.Column, 0, len(s.names))
	for _, name := range s.names {
		col := writer.NewColumn(builder)
		col.SetName(name)
		col.SetTitle(name)
		col.SetType(s.types[name])
		col.SetNullable(true)
		columns = append(columns, col)
	}
	return columns
}

// inferColumnType maps a property value to its narrowest column type.
func inferColumnType(v geoshape.Value) flattypes.ColumnType {
	switch v.Kind() {
	case geoshape.KindBool:
		return flattypes.ColumnTypeBool
	case geoshape.KindNumber:
		n, _ := v.AsNumber()
		if n == math.Trunc(n) && math.Abs(n) <= maxExactInteger {
			return flattypes.ColumnTypeLong
		}
		return flattypes.ColumnTypeDouble
	case geoshape.KindString:
		return flattypes.ColumnTypeString
	default:
		return flattypes.ColumnTypeJson
	}
}

// promoteColumnType returns a type that can hold values of both a and b.
// Integers widen to Double; any other disagreement falls back to Json,
// which stores every value kind.
func promoteColumnType(a, b flattypes.ColumnType) flattypes.ColumnType {
	if a == b {
		return a
	}

	numeric := func(t flattypes.ColumnType) bool {
		return t == flattypes.ColumnTypeLong || t == flattypes.ColumnTypeDouble
	}
	if numeric(a) && numeric(b) {
		return flattypes.ColumnTypeDouble
	}

	return flattypes.ColumnTypeJson
}

// encodeProperties writes props as FlatGeobuf property bytes: for each
// non-null value a little-endian uint16 column index followed by the value.
// Strings and Json are prefixed with their uint32 byte length.
func encodeProperties(props *geoshape.Object, s *schema) ([]byte, error) {
	if props.Len() == 0 || len(s.names) == 0 {
		return nil, nil
	}

	var buf bytes.Buffer
	for _, name := range props.Keys() {
		v, _ := props.Get(name)
		if v.IsNull() {
			continue
		}

		col, ok := s.index[name]
		if !ok {
			continue
		}

		if err := binary.Write(&buf, binary.LittleEndian, uint16(col)); err != nil {
			return nil, err
		}
		if err := writePropertyValue(&buf, v, s.types[name]); err != nil {
			return nil, fmt.Errorf("property %q: %w", name, err)
		}
	}

	return buf.Bytes(), nil
}

func writePropertyValue(buf *bytes.Buffer, v geoshape.Value, colType flattypes.ColumnType) error {
	switch colType {
	case flattypes.ColumnTypeBool:
		b, err := v.AsBool()
		if err != nil {
			return err
		}
		if b {
			return buf.WriteByte(1)
		}
		return buf.WriteByte(0)

	case flattypes.ColumnTypeLong:
		n, err := v.AsNumber()
		if err != nil {
			return err
		}
		return binary.Write(buf, binary.LittleEndian, int64(n))

	case flattypes.ColumnTypeDouble:
		n, err := v.AsNumber()
		if err != nil {
			return err
		}
		return binary.Write(buf, binary.LittleEndian, n)

	case flattypes.ColumnTypeString:
		s, err := v.AsString()
		if err != nil {
			return err
		}
		return writeSized(buf, []byte(s))

	case flattypes.ColumnTypeJson:
		data, err := v.Marshal()
		if err != nil {
			return err
		}
		return writeSized(buf, data)

	default:
		return fmt.Errorf("%w: column type %s", ErrInvalidData, flattypes.EnumNamesColumnType[colType])
	}
}

func writeSized(buf *bytes.Buffer, data []byte) error {
	if err := binary.Write(buf, binary.LittleEndian, uint32(len(data))); err != nil {
		return err
	}
	_, err := buf.Write(data)
	return err
}

// decodeProperties reads FlatGeobuf property bytes using the header's
// column schema. Keys appear in the order they were written.
func decodeProperties(data []byte, header *flattypes.Header) (*geoshape.Object, error) {
	props := geoshape.NewObject()
	if len(data) == 0 || header == nil {
		return props, nil
	}

	offset := 0
	for offset < len(data) {
		if offset+2 > len(data) {
			return nil, fmt.Errorf("%w: truncated column index at byte %d", ErrInvalidData, offset)
		}
		col := int(binary.LittleEndian.Uint16(data[offset:]))
		offset += 2

		var column flattypes.Column
		if col >= header.ColumnsLength() || !header.Columns(&column, col) {
			return nil, fmt.Errorf("%w: column %d out of range", ErrInvalidData, col)
		}

		v, n, err := readPropertyValue(data[offset:], column.Type())
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", column.Name(), err)
		}
		offset += n

		props.Set(string(column.Name()), v)
	}

	return props, nil
}

// readPropertyValue decodes one value and reports how many bytes it used.
func readPropertyValue(data []byte, colType flattypes.ColumnType) (geoshape.Value, int, error) {
	need := func(n int) error {
		if len(data) < n {
			return fmt.Errorf("%w: need %d bytes, have %d", ErrInvalidData, n, len(data))
		}
		return nil
	}

	switch colType {
	case flattypes.ColumnTypeBool:
		if err := need(1); err != nil {
			return geoshape.Value{}, 0, err
		}
		return geoshape.Bool(data[0] != 0), 1, nil

	case flattypes.ColumnTypeByte:
		if err := need(1); err != nil {
			return geoshape.Value{}, 0, err
		}
		return geoshape.Number(float64(int8(data[0]))), 1, nil

	case flattypes.ColumnTypeUByte:
		if err := need(1); err != nil {
			return geoshape.Value{}, 0, err
		}
		return geoshape.Number(float64(data[0])), 1, nil

	case flattypes.ColumnTypeShort:
		if err := need(2); err != nil {
			return geoshape.Value{}, 0, err
		}
		return geoshape.Number(float64(int16(binary.LittleEndian.Uint16(data)))), 2, nil

	case flattypes.ColumnTypeUShort:
		if err := need(2); err != nil {
			return geoshape.Value{}, 0, err
		}
		return geoshape.Number(float64(binary.LittleEndian.Uint16(data))), 2, nil

	case flattypes.ColumnTypeInt:
		if err := need(4); err != nil {
			return geoshape.Value{}, 0, err
		}
		return geoshape.Number(float64(int32(binary.LittleEndian.Uint32(data)))), 4, nil

	case flattypes.ColumnTypeUInt:
		if err := need(4); err != nil {
			return geoshape.Value{}, 0, err
		}
		return geoshape.Number(float64(binary.LittleEndian.Uint32(data))), 4, nil

	case flattypes.ColumnTypeLong:
		if err := need(8); err != nil {
			return geoshape.Value{}, 0, err
		}
		return geoshape.Number(float64(int64(binary.LittleEndian.Uint64(data)))), 8, nil

	case flattypes.ColumnTypeULong:
		if err := need(8); err != nil {
			return geoshape.Value{}, 0, err
		}
		return geoshape.Number(float64(binary.LittleEndian.Uint64(data))), 8, nil

	case flattypes.ColumnTypeFloat:
		if err := need(4); err != nil {
			return geoshape.Value{}, 0, err
		}
		return geoshape.Number(float64(math.Float32frombits(binary.LittleEndian.Uint32(data)))), 4, nil

	case flattypes.ColumnTypeDouble:
		if err := need(8); err != nil {
			return geoshape.Value{}, 0, err
		}
		return geoshape.Number(math.Float64frombits(binary.LittleEndian.Uint64(data))), 8, nil

	case flattypes.ColumnTypeString, flattypes.ColumnTypeDateTime:
		raw, n, err := readSized(data)
		if err != nil {
			return geoshape.Value{}, 0, err
		}
		return geoshape.String(string(raw)), n, nil

	case flattypes.ColumnTypeJson:
		raw, n, err := readSized(data)
		if err != nil {
			return geoshape.Value{}, 0, err
		}
		v, err := geoshape.Parse(raw)
		if err != nil {
			return geoshape.Value{}, 0, err
		}
		return v, n, nil

	case flattypes.ColumnTypeBinary:
		// Binary has no GeoJSON equivalent; surface the bytes as numbers.
		raw, n, err := readSized(data)
		if err != nil {
			return geoshape.Value{}, 0, err
		}
		items := make([]geoshape.Value, len(raw))
		for i, b := range raw {
			items[i] = geoshape.Number(float64(b))
		}
		return geoshape.Array(items...), n, nil

	default:
		return geoshape.Value{}, 0, fmt.Errorf("%w: unknown column type %d", ErrInvalidData, colType)
	}
}

func readSized(data []byte) ([]byte, int, error) {
	if len(data) < 4 {
		return nil, 0, fmt.Errorf("%w: truncated length prefix", ErrInvalidData)
	}
	length := uint64(binary.LittleEndian.Uint32(data))
	if uint64(len(data)-4) < length {
		return nil, 0, fmt.Errorf("%w: value needs %d bytes, have %d", ErrInvalidData, length, len(data)-4)
	}
	size := int(length)
	return data[4 : 4+size], 4 + size, nil
}
