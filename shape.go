package geoshape

// Shape is implemented by Point, Line and Polygon only.
type Shape interface {
	Title() string
	Subtitle() string

	isShape()
}

// label holds the optional title and subtitle shared by every shape.
// An empty string means the value is absent.
type label struct {
	title    string
	subtitle string
}

func (l label) Title() string    { return l.title }
func (l label) Subtitle() string { return l.subtitle }

// Point is a single position.
type Point struct {
	label
	coordinate Coordinate
}

// NewPoint returns a Point at c.
func NewPoint(c Coordinate, title, subtitle string) Point {
	return Point{label: label{title, subtitle}, coordinate: c}
}

// Coordinate returns the point's position.
func (p Point) Coordinate() Coordinate { return p.coordinate }

func (Point) isShape() {}

// Line is an ordered sequence of positions.
type Line struct {
	label
	coordinates []Coordinate
}

// NewLine returns a Line through coords. The slice is copied.
func NewLine(coords []Coordinate, title, subtitle string) Line {
	return Line{label: label{title, subtitle}, coordinates: copyCoordinates(coords)}
}

// Coordinates returns a copy of the line's positions.
func (l Line) Coordinates() []Coordinate { return copyCoordinates(l.coordinates) }

// Len returns the number of positions.
func (l Line) Len() int { return len(l.coordinates) }

// Points returns each position as an unlabelled Point.
func (l Line) Points() []Point { return pointsOf(l.coordinates) }

func (Line) isShape() {}

// Polygon is an exterior ring with zero or more holes.
type Polygon struct {
	label
	coordinates []Coordinate
	interiors   []Polygon
}

// NewPolygon returns a Polygon bounded by exterior with the given holes.
// GeoJSON rings are flat, so any interiors carried by the holes themselves
// are dropped.
func NewPolygon(exterior []Coordinate, interiors []Polygon, title, subtitle string) Polygon {
	var holes []Polygon
	if len(interiors) > 0 {
		holes = make([]Polygon, len(interiors))
		for i, h := range interiors {
			holes[i] = Polygon{label: h.label, coordinates: copyCoordinates(h.coordinates)}
		}
	}

	return Polygon{
		label:       label{title, subtitle},
		coordinates: copyCoordinates(exterior),
		interiors:   holes,
	}
}

// Coordinates returns a copy of the exterior ring.
func (p Polygon) Coordinates() []Coordinate { return copyCoordinates(p.coordinates) }

// Len returns the number of positions in the exterior ring.
func (p Polygon) Len() int { return len(p.coordinates) }

// Interiors returns the holes. Each hole has no interiors of its own.
func (p Polygon) Interiors() []Polygon {
	if len(p.interiors) == 0 {
		return nil
	}
	out := make([]Polygon, len(p.interiors))
	copy(out, p.interiors)
	return out
}

// Points returns each exterior position as an unlabelled Point.
func (p Polygon) Points() []Point { return pointsOf(p.coordinates) }

func (Polygon) isShape() {}

// withLabel returns s carrying the given title and subtitle.
func withLabel(s Shape, title, subtitle string) Shape {
	l := label{title, subtitle}
	switch v := s.(type) {
	case Point:
		v.label = l
		return v
	case Line:
		v.label = l
		return v
	case Polygon:
		v.label = l
		return v
	default:
		return s
	}
}

func copyCoordinates(coords []Coordinate) []Coordinate {
	if coords == nil {
		return nil
	}
	out := make([]Coordinate, len(coords))
	copy(out, coords)
	return out
}

func pointsOf(coords []Coordinate) []Point {
	points := make([]Point, len(coords))
	for i, c := range coords {
		points[i] = Point{coordinate: c}
	}
	return points
}
