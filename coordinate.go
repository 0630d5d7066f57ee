package geoshape

import (
	"fmt"
	"math"
)

// Coordinate is a WGS 84 position. GeoJSON orders it [longitude, latitude].
type Coordinate struct {
	Longitude float64
	Latitude  float64
}

// ToCoordinate converts a [longitude, latitude] pair to a Coordinate.
// Any arity other than two, or a non-finite element, yields
// ErrInvalidCoordinatePair.
func ToCoordinate(pair []float64) (Coordinate, error) {
	if len(pair) != 2 {
		return Coordinate{}, fmt.Errorf("%w: got %d elements", ErrInvalidCoordinatePair, len(pair))
	}
	for _, f := range pair {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return Coordinate{}, fmt.Errorf("%w: non-finite value", ErrInvalidCoordinatePair)
		}
	}
	return Coordinate{Longitude: pair[0], Latitude: pair[1]}, nil
}

// FromCoordinate returns c as a [longitude, latitude] pair.
func FromCoordinate(c Coordinate) []float64 {
	return []float64{c.Longitude, c.Latitude}
}

// decodePair reads a coordinate pair out of a JSON value.
func decodePair(v Value) (Coordinate, error) {
	items, err := v.AsArray()
	if err != nil {
		return Coordinate{}, fmt.Errorf("%w: %v", ErrInvalidCoordinatePair, err)
	}

	pair := make([]float64, len(items))
	for i, item := range items {
		f, err := item.AsNumber()
		if err != nil {
			return Coordinate{}, fmt.Errorf("%w: %v", ErrInvalidCoordinatePair, err)
		}
		pair[i] = f
	}

	return ToCoordinate(pair)
}

// encodePair writes c as a JSON [longitude, latitude] array.
func encodePair(c Coordinate) Value {
	return Array(Number(c.Longitude), Number(c.Latitude))
}

func encodeRing(coords []Coordinate) Value {
	items := make([]Value, len(coords))
	for i, c := range coords {
		items[i] = encodePair(c)
	}
	return Array(items...)
}
