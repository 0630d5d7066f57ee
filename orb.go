package geoshape

import (
	"fmt"

	"github.com/paulmach/orb"
)

// Orb returns c as an orb.Point.
func (c Coordinate) Orb() orb.Point {
	return orb.Point{c.Longitude, c.Latitude}
}

// CoordinateFromOrb returns p as a Coordinate.
func CoordinateFromOrb(p orb.Point) Coordinate {
	return Coordinate{Longitude: p[0], Latitude: p[1]}
}

// ToOrb converts shape to the equivalent orb geometry: orb.Point,
// orb.LineString or orb.Polygon (exterior ring first).
func ToOrb(shape Shape) (orb.Geometry, error) {
	switch v := shape.(type) {
	case Point:
		return v.coordinate.Orb(), nil

	case Line:
		return orb.LineString(toOrbPoints(v.coordinates)), nil

	case Polygon:
		poly := make(orb.Polygon, 0, len(v.interiors)+1)
		poly = append(poly, orb.Ring(toOrbPoints(v.coordinates)))
		for _, hole := range v.interiors {
			poly = append(poly, orb.Ring(toOrbPoints(hole.coordinates)))
		}
		return poly, nil

	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedShape, shape)
	}
}

// Bound returns the bounding box of shape.
func Bound(shape Shape) (orb.Bound, error) {
	g, err := ToOrb(shape)
	if err != nil {
		return orb.Bound{}, err
	}
	return g.Bound(), nil
}

// FromOrb converts an orb geometry into shapes. Multi-geometries and
// collections expand into one shape per element; a Bound becomes a
// rectangular Polygon.
func FromOrb(g orb.Geometry) ([]Shape, error) {
	switch v := g.(type) {
	case orb.Point:
		return []Shape{NewPoint(CoordinateFromOrb(v), "", "")}, nil

	case orb.MultiPoint:
		shapes := make([]Shape, 0, len(v))
		for _, p := range v {
			shapes = append(shapes, NewPoint(CoordinateFromOrb(p), "", ""))
		}
		return shapes, nil

	case orb.LineString:
		return []Shape{NewLine(fromOrbPoints(v), "", "")}, nil

	case orb.MultiLineString:
		shapes := make([]Shape, 0, len(v))
		for _, ls := range v {
			shapes = append(shapes, NewLine(fromOrbPoints(ls), "", ""))
		}
		return shapes, nil

	case orb.Ring:
		return []Shape{NewPolygon(fromOrbPoints(v), nil, "", "")}, nil

	case orb.Polygon:
		p, err := polygonFromOrb(v)
		if err != nil {
			return nil, err
		}
		return []Shape{p}, nil

	case orb.MultiPolygon:
		shapes := make([]Shape, 0, len(v))
		for _, poly := range v {
			p, err := polygonFromOrb(poly)
			if err != nil {
				return nil, err
			}
			shapes = append(shapes, p)
		}
		return shapes, nil

	case orb.Collection:
		var shapes []Shape
		for _, child := range v {
			sub, err := FromOrb(child)
			if err != nil {
				return nil, err
			}
			shapes = append(shapes, sub...)
		}
		return shapes, nil

	case orb.Bound:
		return []Shape{NewPolygon(fromOrbPoints(v.ToRing()), nil, "", "")}, nil

	default:
		return nil, fmt.Errorf("%w: %T", ErrTypeNotSupported, g)
	}
}

func polygonFromOrb(poly orb.Polygon) (Polygon, error) {
	if len(poly) == 0 {
		return Polygon{}, ErrPolygonIsEmpty
	}

	var holes []Polygon
	for _, ring := range poly[1:] {
		holes = append(holes, NewPolygon(fromOrbPoints(ring), nil, "", ""))
	}
	return NewPolygon(fromOrbPoints(poly[0]), holes, "", ""), nil
}

func toOrbPoints(coords []Coordinate) []orb.Point {
	points := make([]orb.Point, len(coords))
	for i, c := range coords {
		points[i] = c.Orb()
	}
	return points
}

func fromOrbPoints(points []orb.Point) []Coordinate {
	coords := make([]Coordinate, len(points))
	for i, p := range points {
		coords[i] = CoordinateFromOrb(p)
	}
	return coords
}
