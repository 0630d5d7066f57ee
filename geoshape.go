// Package geoshape converts between GeoJSON and a typed geometry model.
// It decodes Feature, FeatureCollection and bare geometry objects into
// Point, Line and Polygon values and encodes them back, including polygon
// holes and multi-geometry expansion.
package geoshape

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

// Common errors returned by this package.
var (
	ErrTypeNotSupported               = errors.New("geoshape: geometry type not supported")
	ErrInvalidCoordinatePair          = errors.New("geoshape: invalid coordinate pair")
	ErrPolygonIsEmpty                 = errors.New("geoshape: polygon has no rings")
	ErrNoFeaturesFound                = errors.New("geoshape: no features found")
	ErrNoPointCoordinatesFound        = errors.New("geoshape: no point coordinates found")
	ErrNoLineCoordinatesFound         = errors.New("geoshape: no line coordinates found")
	ErrNoPolygonCoordinatesFound      = errors.New("geoshape: no polygon coordinates found")
	ErrNoMultiPointCoordinatesFound   = errors.New("geoshape: no multipoint coordinates found")
	ErrNoMultiLineCoordinatesFound    = errors.New("geoshape: no multilinestring coordinates found")
	ErrNoMultiPolygonCoordinatesFound = errors.New("geoshape: no multipolygon coordinates found")

	ErrNotFeatureCollection = errors.New("geoshape: object is not a FeatureCollection")
	ErrTooFewPoints         = errors.New("geoshape: too few points")
	ErrUnsupportedShape     = errors.New("geoshape: unsupported shape")
	ErrShapeCountMismatch   = errors.New("geoshape: shape and properties counts differ")
	ErrInvalidJSON          = errors.New("geoshape: invalid JSON")
)

// Mode selects how collection-level conversions treat failing elements.
type Mode int

const (
	// Lenient logs and skips elements that fail to convert.
	Lenient Mode = iota
	// Strict aborts on the first element that fails to convert.
	Strict
)

// ParseMode parses "lenient" or "strict" (case-insensitive).
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "lenient":
		return Lenient, nil
	case "strict":
		return Strict, nil
	default:
		return Lenient, fmt.Errorf("geoshape: unknown mode %q", s)
	}
}

func (m Mode) String() string {
	if m == Strict {
		return "strict"
	}
	return "lenient"
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Mode) UnmarshalText(text []byte) error {
	mode, err := ParseMode(string(text))
	if err != nil {
		return err
	}
	*m = mode
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// Options configures a Decoder or Encoder.
type Options struct {
	Mode    Mode           // Element failure policy (default: Lenient)
	Workers int            // Per-feature fan-out; values <= 1 run sequentially
	Logger  zerolog.Logger // Receives skipped-element warnings (default: disabled)
}

// DefaultOptions returns lenient, sequential options with logging disabled.
func DefaultOptions() *Options {
	return &Options{
		Mode:    Lenient,
		Workers: 1,
		Logger:  zerolog.Nop(),
	}
}

var (
	defaultDecoder = NewDecoder(nil)
	defaultEncoder = NewEncoder(nil)
)

// Decode decodes a single Feature or bare geometry object with default options.
func Decode(feature *Object) ([]Shape, bool, error) {
	return defaultDecoder.Shape(feature)
}

// Shapes decodes a FeatureCollection with default options.
func Shapes(collection *Object) ([]Shape, error) {
	return defaultDecoder.Shapes(collection)
}

// Feature encodes a single shape as a Feature with default options.
func Feature(shape Shape, properties *Object) (*Object, error) {
	return defaultEncoder.Feature(shape, properties)
}

// FeatureCollection encodes shapes as a FeatureCollection with default options.
func FeatureCollection(shapes []Shape, properties []*Object) (*Object, error) {
	return defaultEncoder.FeatureCollection(shapes, properties)
}

// Unmarshal parses a GeoJSON document and decodes every shape in it.
// The document may be a FeatureCollection, a Feature or a bare geometry.
func Unmarshal(data []byte) ([]Shape, error) {
	return defaultDecoder.Unmarshal(data)
}

// Marshal encodes shapes as a FeatureCollection document. Properties are
// derived from each shape's title and subtitle.
func Marshal(shapes []Shape) ([]byte, error) {
	return defaultEncoder.Marshal(shapes)
}
