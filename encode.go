package geoshape

import (
	"fmt"
)

// Encoder converts shapes into GeoJSON objects. It holds no mutable state
// and is safe for concurrent use.
type Encoder struct {
	opts Options
}

// NewEncoder returns an Encoder. A nil opts uses DefaultOptions.
func NewEncoder(opts *Options) *Encoder {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &Encoder{opts: *opts}
}

// Feature encodes shape as a GeoJSON Feature carrying properties. A nil
// properties encodes as an empty object.
func (e *Encoder) Feature(shape Shape, properties *Object) (*Object, error) {
	geometry, err := geometryOf(shape)
	if err != nil {
		return nil, err
	}

	if properties == nil {
		properties = NewObject()
	}

	return NewObject().
		Set(keyType, String(TypeFeature)).
		Set(keyGeometry, ObjectValue(geometry)).
		Set(keyProperties, ObjectValue(properties)), nil
}

// FeatureCollection encodes shapes[i] with properties[i]. The two slices
// must have the same length.
func (e *Encoder) FeatureCollection(shapes []Shape, properties []*Object) (*Object, error) {
	if len(shapes) != len(properties) {
		return nil, fmt.Errorf("%w: %d shapes, %d properties", ErrShapeCountMismatch, len(shapes), len(properties))
	}

	results := make([]*Object, len(shapes))
	errs := make([]error, len(shapes))
	forEachIndex(e.opts.Workers, len(shapes), func(i int) {
		results[i], errs[i] = e.Feature(shapes[i], properties[i])
	})

	features := make([]Value, 0, len(shapes))
	for i := range shapes {
		if errs[i] != nil {
			if e.opts.Mode == Strict {
				return nil, fmt.Errorf("shape %d: %w", i, errs[i])
			}
			e.opts.Logger.Warn().
				Err(errs[i]).
				Int("index", i).
				Msg("Dropping unencodable shape")
			continue
		}
		features = append(features, ObjectValue(results[i]))
	}

	return NewObject().
		Set(keyType, String(TypeFeatureCollection)).
		Set(keyFeatures, Array(features...)), nil
}

// Marshal encodes shapes as a FeatureCollection document, using each
// shape's title and subtitle as its properties.
func (e *Encoder) Marshal(shapes []Shape) ([]byte, error) {
	properties := make([]*Object, len(shapes))
	for i, s := range shapes {
		properties[i] = PropertiesOf(s)
	}

	fc, err := e.FeatureCollection(shapes, properties)
	if err != nil {
		return nil, err
	}
	return fc.Marshal()
}

// PropertiesOf returns the title and subtitle of shape as a property
// object. Empty labels are omitted.
func PropertiesOf(shape Shape) *Object {
	properties := NewObject()
	if shape == nil {
		return properties
	}
	if t := shape.Title(); t != "" {
		properties.Set(keyTitle, String(t))
	}
	if s := shape.Subtitle(); s != "" {
		properties.Set(keySubtitle, String(s))
	}
	return properties
}

// Validate reports whether shape can be encoded: a Line needs at least two
// points, and a Polygon's exterior and every interior ring at least three.
func Validate(shape Shape) error {
	switch v := shape.(type) {
	case Point:
		return nil
	case Line:
		if len(v.coordinates) < 2 {
			return fmt.Errorf("%w: line needs at least 2 points, got %d", ErrTooFewPoints, len(v.coordinates))
		}
		return nil
	case Polygon:
		if len(v.coordinates) < 3 {
			return fmt.Errorf("%w: polygon needs at least 3 points, got %d", ErrTooFewPoints, len(v.coordinates))
		}
		for i, hole := range v.interiors {
			if len(hole.coordinates) < 3 {
				return fmt.Errorf("%w: interior %d needs at least 3 points, got %d", ErrTooFewPoints, i, len(hole.coordinates))
			}
		}
		return nil
	default:
		return fmt.Errorf("%w: %T", ErrUnsupportedShape, shape)
	}
}

func geometryOf(shape Shape) (*Object, error) {
	if err := Validate(shape); err != nil {
		return nil, err
	}

	switch v := shape.(type) {
	case Point:
		return NewObject().
			Set(keyType, String(TypePoint)).
			Set(keyCoordinates, encodePair(v.coordinate)), nil

	case Line:
		return NewObject().
			Set(keyType, String(TypeLineString)).
			Set(keyCoordinates, encodeRing(v.coordinates)), nil

	case Polygon:
		rings := make([]Value, 0, len(v.interiors)+1)
		rings = append(rings, encodeRing(v.coordinates))
		for _, hole := range v.interiors {
			rings = append(rings, encodeRing(hole.coordinates))
		}
		return NewObject().
			Set(keyType, String(TypePolygon)).
			Set(keyCoordinates, Array(rings...)), nil
	}
	return nil, fmt.Errorf("%w: %T", ErrUnsupportedShape, shape)
}
