package fgb

import (
	"fmt"

	"github.com/flatgeobuf/flatgeobuf/src/go/flattypes"
	"github.com/flatgeobuf/flatgeobuf/src/go/writer"
	flatbuffers "github.com/google/flatbuffers/go"

	"github.com/tingold/geoshape"
)

// geometryTypeOf returns the FlatGeobuf geometry type a shape is stored as.
func geometryTypeOf(shape geoshape.Shape) flattypes.GeometryType {
	switch shape.(type) {
	case geoshape.Point:
		return flattypes.GeometryTypePoint
	case geoshape.Line:
		return flattypes.GeometryTypeLineString
	case geoshape.Polygon:
		return flattypes.GeometryTypePolygon
	default:
		return flattypes.GeometryTypeUnknown
	}
}

// layerGeometryType returns the common geometry type of shapes, or Unknown
// when they differ.
func layerGeometryType(shapes []geoshape.Shape) flattypes.GeometryType {
	if len(shapes) == 0 {
		return flattypes.GeometryTypeUnknown
	}

	gt := geometryTypeOf(shapes[0])
	for _, s := range shapes[1:] {
		if geometryTypeOf(s) != gt {
			return flattypes.GeometryTypeUnknown
		}
	}
	return gt
}

// shapeToFGB builds the FlatGeobuf geometry of a validated shape.
func shapeToFGB(shape geoshape.Shape, builder *flatbuffers.Builder) *writer.Geometry {
	g := writer.NewGeometry(builder)

	switch v := shape.(type) {
	case geoshape.Point:
		c := v.Coordinate()
		g.SetType(flattypes.GeometryTypePoint)
		g.SetXY([]float64{c.Longitude, c.Latitude})

	case geoshape.Line:
		g.SetType(flattypes.GeometryTypeLineString)
		g.SetXY(appendXY(nil, v.Coordinates()))

	case geoshape.Polygon:
		g.SetType(flattypes.GeometryTypePolygon)
		xy, ends := polygonToXYEnds(v)
		g.SetXY(xy)
		g.SetEnds(ends)

	default:
		return nil
	}

	return g
}

func appendXY(xy []float64, coords []geoshape.Coordinate) []float64 {
	for _, c := range coords {
		xy = append(xy, c.Longitude, c.Latitude)
	}
	return xy
}

// polygonToXYEnds flattens the exterior ring and holes into one coordinate
// array. ends holds the cumulative point count at the end of each ring.
func polygonToXYEnds(p geoshape.Polygon) ([]float64, []uint32) {
	interiors := p.Interiors()

	total := p.Len()
	for _, hole := range interiors {
		total += hole.Len()
	}

	xy := make([]float64, 0, total*2)
	ends := make([]uint32, 0, len(interiors)+1)

	xy = appendXY(xy, p.Coordinates())
	ends = append(ends, uint32(p.Len()))
	for _, hole := range interiors {
		xy = appendXY(xy, hole.Coordinates())
		ends = append(ends, ends[len(ends)-1]+uint32(hole.Len()))
	}

	return xy, ends
}

// shapesFromFGB converts a stored geometry into shapes labelled with title
// and subtitle. Multi-geometries and collections written by other producers
// expand into one shape per element.
func shapesFromFGB(g *flattypes.Geometry, title, subtitle string) ([]geoshape.Shape, error) {
	if g == nil {
		return nil, fmt.Errorf("%w: feature has no geometry", ErrInvalidData)
	}

	switch g.Type() {
	case flattypes.GeometryTypePoint:
		coords := coordinatesFromXY(g, 0, g.XyLength()/2)
		if len(coords) == 0 {
			return nil, fmt.Errorf("%w: empty point", ErrInvalidData)
		}
		return []geoshape.Shape{geoshape.NewPoint(coords[0], title, subtitle)}, nil

	case flattypes.GeometryTypeMultiPoint:
		coords := coordinatesFromXY(g, 0, g.XyLength()/2)
		shapes := make([]geoshape.Shape, 0, len(coords))
		for _, c := range coords {
			shapes = append(shapes, geoshape.NewPoint(c, title, subtitle))
		}
		return shapes, nil

	case flattypes.GeometryTypeLineString:
		return []geoshape.Shape{
			geoshape.NewLine(coordinatesFromXY(g, 0, g.XyLength()/2), title, subtitle),
		}, nil

	case flattypes.GeometryTypeMultiLineString:
		parts := splitByEnds(g)
		shapes := make([]geoshape.Shape, 0, len(parts))
		for _, part := range parts {
			shapes = append(shapes, geoshape.NewLine(part, title, subtitle))
		}
		return shapes, nil

	case flattypes.GeometryTypePolygon:
		p, err := polygonFromFGB(g, title, subtitle)
		if err != nil {
			return nil, err
		}
		return []geoshape.Shape{p}, nil

	case flattypes.GeometryTypeMultiPolygon:
		shapes := make([]geoshape.Shape, 0, g.PartsLength())
		for i := 0; i < g.PartsLength(); i++ {
			var part flattypes.Geometry
			if !g.Parts(&part, i) {
				continue
			}
			p, err := polygonFromFGB(&part, title, subtitle)
			if err != nil {
				return nil, fmt.Errorf("part %d: %w", i, err)
			}
			shapes = append(shapes, p)
		}
		return shapes, nil

	case flattypes.GeometryTypeGeometryCollection:
		var shapes []geoshape.Shape
		for i := 0; i < g.PartsLength(); i++ {
			var part flattypes.Geometry
			if !g.Parts(&part, i) {
				continue
			}
			sub, err := shapesFromFGB(&part, title, subtitle)
			if err != nil {
				return nil, fmt.Errorf("part %d: %w", i, err)
			}
			shapes = append(shapes, sub...)
		}
		return shapes, nil

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, flattypes.EnumNamesGeometryType[g.Type()])
	}
}

func polygonFromFGB(g *flattypes.Geometry, title, subtitle string) (geoshape.Polygon, error) {
	rings := splitByEnds(g)
	if len(rings) == 0 {
		return geoshape.Polygon{}, geoshape.ErrPolygonIsEmpty
	}

	holes := make([]geoshape.Polygon, 0, len(rings)-1)
	for _, ring := range rings[1:] {
		holes = append(holes, geoshape.NewPolygon(ring, nil, title, subtitle))
	}
	return geoshape.NewPolygon(rings[0], holes, title, subtitle), nil
}

// splitByEnds splits the coordinate array at each cumulative end offset. A
// geometry without ends is a single part.
func splitByEnds(g *flattypes.Geometry) [][]geoshape.Coordinate {
	points := g.XyLength() / 2
	if points == 0 {
		return nil
	}

	if g.EndsLength() == 0 {
		return [][]geoshape.Coordinate{coordinatesFromXY(g, 0, points)}
	}

	parts := make([][]geoshape.Coordinate, 0, g.EndsLength())
	start := 0
	for i := 0; i < g.EndsLength(); i++ {
		end := int(g.Ends(i))
		if end > points {
			end = points
		}
		if end <= start {
			continue
		}
		parts = append(parts, coordinatesFromXY(g, start, end))
		start = end
	}
	return parts
}

// coordinatesFromXY reads points [from, to) of the interleaved xy array.
func coordinatesFromXY(g *flattypes.Geometry, from, to int) []geoshape.Coordinate {
	coords := make([]geoshape.Coordinate, 0, to-from)
	for i := from; i < to; i++ {
		coords = append(coords, geoshape.Coordinate{
			Longitude: g.Xy(2 * i),
			Latitude:  g.Xy(2*i + 1),
		})
	}
	return coords
}
