package geoshape

import (
	"fmt"
)

// Keys and type tags recognised on the wire.
const (
	keyType        = "type"
	keyGeometry    = "geometry"
	keyCoordinates = "coordinates"
	keyProperties  = "properties"
	keyFeatures    = "features"
	keyTitle       = "title"
	keySubtitle    = "subtitle"

	TypeFeature           = "Feature"
	TypeFeatureCollection = "FeatureCollection"
	TypePoint             = "Point"
	TypeLineString        = "LineString"
	TypePolygon           = "Polygon"
	TypeMultiPoint        = "MultiPoint"
	TypeMultiLineString   = "MultiLineString"
	TypeMultiPolygon      = "MultiPolygon"
)

// Decoder converts GeoJSON objects into shapes. It holds no mutable state
// and is safe for concurrent use.
type Decoder struct {
	opts Options
}

// NewDecoder returns a Decoder. A nil opts uses DefaultOptions.
func NewDecoder(opts *Options) *Decoder {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &Decoder{opts: *opts}
}

// Shape decodes a Feature or a bare geometry object. Point, LineString and
// Polygon yield exactly one shape; multi-geometries yield one shape per
// element and report multi as true.
func (d *Decoder) Shape(feature *Object) (shapes []Shape, multi bool, err error) {
	if feature == nil {
		return nil, false, fmt.Errorf("%w: nil feature", ErrTypeNotSupported)
	}

	tag := geometryType(feature)
	switch tag {
	case TypePoint:
		p, err := d.point(feature)
		if err != nil {
			return nil, false, err
		}
		return []Shape{p}, false, nil

	case TypeLineString:
		l, err := d.lineString(feature)
		if err != nil {
			return nil, false, err
		}
		return []Shape{l}, false, nil

	case TypePolygon:
		p, err := d.polygon(feature)
		if err != nil {
			return nil, false, err
		}
		return []Shape{p}, false, nil

	case TypeMultiPoint:
		shapes, err := d.multi(feature, TypePoint, ErrNoMultiPointCoordinatesFound)
		return shapes, true, err

	case TypeMultiLineString:
		shapes, err := d.multi(feature, TypeLineString, ErrNoMultiLineCoordinatesFound)
		return shapes, true, err

	case TypeMultiPolygon:
		shapes, err := d.multi(feature, TypePolygon, ErrNoMultiPolygonCoordinatesFound)
		return shapes, true, err

	default:
		return nil, false, fmt.Errorf("%w: %q", ErrTypeNotSupported, tag)
	}
}

// Shapes decodes every feature of a FeatureCollection. Multi-geometries are
// expanded in place, so the output follows input order.
func (d *Decoder) Shapes(collection *Object) ([]Shape, error) {
	if collection.GetString(keyType) != TypeFeatureCollection {
		return nil, ErrNotFeatureCollection
	}

	raw, ok := collection.Get(keyFeatures)
	if !ok {
		return nil, ErrNoFeaturesFound
	}
	items, err := raw.AsArray()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoFeaturesFound, err)
	}

	features := make([]*Object, len(items))
	for i, item := range items {
		f, err := item.AsObject()
		if err != nil {
			return nil, fmt.Errorf("%w: feature %d: %v", ErrNoFeaturesFound, i, err)
		}
		features[i] = f
	}

	results := make([][]Shape, len(features))
	errs := make([]error, len(features))
	forEachIndex(d.opts.Workers, len(features), func(i int) {
		results[i], _, errs[i] = d.Shape(features[i])
	})

	var shapes []Shape
	for i := range features {
		if errs[i] != nil {
			if d.opts.Mode == Strict {
				return nil, fmt.Errorf("feature %d: %w", i, errs[i])
			}
			d.opts.Logger.Warn().
				Err(errs[i]).
				Int("index", i).
				Msg("Skipping undecodable feature")
			continue
		}
		shapes = append(shapes, results[i]...)
	}

	if shapes == nil {
		shapes = []Shape{}
	}
	return shapes, nil
}

// Unmarshal parses data and decodes it as a FeatureCollection, a Feature or
// a bare geometry.
func (d *Decoder) Unmarshal(data []byte) ([]Shape, error) {
	obj, err := ParseObject(data)
	if err != nil {
		return nil, err
	}

	if obj.GetString(keyType) == TypeFeatureCollection {
		return d.Shapes(obj)
	}

	shapes, _, err := d.Shape(obj)
	return shapes, err
}

func (d *Decoder) point(feature *Object) (Point, error) {
	coords, ok := unwrapCoordinates(feature)
	if !ok || coords.Kind() != KindArray {
		return Point{}, ErrNoPointCoordinatesFound
	}

	c, err := decodePair(coords)
	if err != nil {
		return Point{}, err
	}

	title, subtitle := labelsOf(feature)
	return NewPoint(c, title, subtitle), nil
}

func (d *Decoder) lineString(feature *Object) (Line, error) {
	coords, ok := unwrapCoordinates(feature)
	if !ok {
		return Line{}, ErrNoLineCoordinatesFound
	}
	pairs, err := coords.AsArray()
	if err != nil {
		return Line{}, fmt.Errorf("%w: %v", ErrNoLineCoordinatesFound, err)
	}

	line, err := decodeRing(pairs)
	if err != nil {
		return Line{}, err
	}
	if len(line) < 2 {
		return Line{}, fmt.Errorf("%w: line needs at least 2 points, got %d", ErrTooFewPoints, len(line))
	}

	title, subtitle := labelsOf(feature)
	return NewLine(line, title, subtitle), nil
}

func (d *Decoder) polygon(feature *Object) (Polygon, error) {
	coords, ok := unwrapCoordinates(feature)
	if !ok {
		return Polygon{}, ErrNoPolygonCoordinatesFound
	}
	sets, err := coords.AsArray()
	if err != nil {
		return Polygon{}, fmt.Errorf("%w: %v", ErrNoPolygonCoordinatesFound, err)
	}
	if len(sets) == 0 {
		return Polygon{}, ErrPolygonIsEmpty
	}

	title, subtitle := labelsOf(feature)

	rings := make([]Polygon, 0, len(sets))
	for i, set := range sets {
		pairs, err := set.AsArray()
		if err != nil {
			return Polygon{}, fmt.Errorf("%w: ring %d: %v", ErrNoPolygonCoordinatesFound, i, err)
		}
		ring, err := decodeRing(pairs)
		if err != nil {
			return Polygon{}, fmt.Errorf("ring %d: %w", i, err)
		}
		rings = append(rings, NewPolygon(ring, nil, title, subtitle))
	}

	if len(rings) == 1 {
		return rings[0], nil
	}

	return NewPolygon(rings[0].coordinates, rings[1:], title, subtitle), nil
}

// multi decodes each element of a multi-geometry through the singular
// builder for tag by wrapping it in a synthesized Feature.
func (d *Decoder) multi(feature *Object, tag string, missing error) ([]Shape, error) {
	coords, ok := unwrapCoordinates(feature)
	if !ok {
		return nil, missing
	}
	elements, err := coords.AsArray()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", missing, err)
	}

	properties, hasProperties := feature.Get(keyProperties)

	shapes := make([]Shape, 0, len(elements))
	for i, element := range elements {
		geometry := NewObject().
			Set(keyType, String(tag)).
			Set(keyCoordinates, element)
		sub := NewObject().
			Set(keyType, String(TypeFeature)).
			Set(keyGeometry, ObjectValue(geometry))
		if hasProperties {
			sub.Set(keyProperties, properties)
		}

		var s Shape
		switch tag {
		case TypePoint:
			s, err = d.point(sub)
		case TypeLineString:
			s, err = d.lineString(sub)
		default:
			s, err = d.polygon(sub)
		}

		if err != nil {
			if d.opts.Mode == Strict {
				return nil, fmt.Errorf("%s element %d: %w", tag, i, err)
			}
			d.opts.Logger.Warn().
				Err(err).
				Str("type", tag).
				Int("index", i).
				Msg("Skipping undecodable multi-geometry element")
			continue
		}
		shapes = append(shapes, s)
	}

	return shapes, nil
}

// geometryType returns geometry.type, falling back to the object's own type
// for geometries passed without a Feature wrapper.
func geometryType(feature *Object) string {
	if geometry := feature.GetObject(keyGeometry); geometry != nil {
		return geometry.GetString(keyType)
	}
	return feature.GetString(keyType)
}

// unwrapCoordinates returns geometry.coordinates, falling back to the
// object's own coordinates.
func unwrapCoordinates(feature *Object) (Value, bool) {
	if geometry := feature.GetObject(keyGeometry); geometry != nil {
		if coords, ok := geometry.Get(keyCoordinates); ok {
			return coords, true
		}
	}
	return feature.Get(keyCoordinates)
}

func labelsOf(feature *Object) (title, subtitle string) {
	properties := feature.GetObject(keyProperties)
	return properties.GetString(keyTitle), properties.GetString(keySubtitle)
}

func decodeRing(pairs []Value) ([]Coordinate, error) {
	coords := make([]Coordinate, 0, len(pairs))
	for i, pair := range pairs {
		c, err := decodePair(pair)
		if err != nil {
			return nil, fmt.Errorf("pair %d: %w", i, err)
		}
		coords = append(coords, c)
	}
	return coords, nil
}
