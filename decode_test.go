package geoshape

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustObject(t testing.TB, doc string) *Object {
	t.Helper()
	obj, err := ParseObject([]byte(doc))
	require.NoError(t, err)
	return obj
}

func loadFixture(t testing.TB, name string) *Object {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return mustObject(t, string(data))
}

func strictDecoder() *Decoder {
	opts := DefaultOptions()
	opts.Mode = Strict
	return NewDecoder(opts)
}

func TestShape_PointBare(t *testing.T) {
	shapes, multi, err := Decode(loadFixture(t, "point.geojson"))
	require.NoError(t, err)
	assert.False(t, multi)
	require.Len(t, shapes, 1)

	p, ok := shapes[0].(Point)
	require.True(t, ok, "expected Point, got %T", shapes[0])
	assert.Equal(t, 10.5, p.Coordinate().Longitude)
	assert.Equal(t, 52.3, p.Coordinate().Latitude)
	assert.Empty(t, p.Title())
}

func TestShape_PointInGeometry(t *testing.T) {
	shapes, _, err := Decode(loadFixture(t, "point_in_geometry.geojson"))
	require.NoError(t, err)
	require.Len(t, shapes, 1)

	p := shapes[0].(Point)
	assert.Equal(t, Coordinate{Longitude: 13.404954, Latitude: 52.520008}, p.Coordinate())
	assert.Equal(t, "Berlin", p.Title())
	assert.Equal(t, "Alexanderplatz", p.Subtitle())
}

func TestShape_WrongTypedLabels(t *testing.T) {
	feature := mustObject(t, `{
		"type": "Feature",
		"geometry": {"type": "Point", "coordinates": [1, 2]},
		"properties": {"title": 5, "subtitle": null}
	}`)

	shapes, _, err := Decode(feature)
	require.NoError(t, err)
	assert.Empty(t, shapes[0].Title())
	assert.Empty(t, shapes[0].Subtitle())
}

func TestShape_LineString(t *testing.T) {
	feature := mustObject(t, `{
		"type": "Feature",
		"geometry": {"type": "LineString", "coordinates": [[0, 0], [1, 1], [2, 0.5]]},
		"properties": {"title": "route"}
	}`)

	shapes, multi, err := Decode(feature)
	require.NoError(t, err)
	assert.False(t, multi)

	line, ok := shapes[0].(Line)
	require.True(t, ok)
	assert.Equal(t, []Coordinate{{0, 0}, {1, 1}, {2, 0.5}}, line.Coordinates())
	assert.Equal(t, "route", line.Title())
}

func TestShape_LineStringTooShort(t *testing.T) {
	_, _, err := Decode(mustObject(t, `{"type":"LineString","coordinates":[[0,0]]}`))
	assert.ErrorIs(t, err, ErrTooFewPoints)
}

func TestShape_LineStringPropagatesBadPair(t *testing.T) {
	_, _, err := Decode(mustObject(t, `{"type":"LineString","coordinates":[[0,0],[1],[2,2]]}`))
	assert.ErrorIs(t, err, ErrInvalidCoordinatePair)
}

func TestShape_PolygonWithHole(t *testing.T) {
	shapes, _, err := Decode(mustObject(t, `{
		"type": "Polygon",
		"coordinates": [
			[[0,0],[0,1],[1,1],[0,0]],
			[[0.2,0.2],[0.2,0.4],[0.4,0.4],[0.2,0.2]]
		]
	}`))
	require.NoError(t, err)

	poly, ok := shapes[0].(Polygon)
	require.True(t, ok)
	assert.Equal(t, 4, poly.Len())
	require.Len(t, poly.Interiors(), 1)
	assert.Equal(t, 4, poly.Interiors()[0].Len())
	assert.Equal(t, Coordinate{0.2, 0.4}, poly.Interiors()[0].Coordinates()[1])
}

func TestShape_PolygonFixtureLabels(t *testing.T) {
	shapes, _, err := Decode(loadFixture(t, "polygon_with_holes.geojson"))
	require.NoError(t, err)

	poly := shapes[0].(Polygon)
	assert.Equal(t, "Park", poly.Title())
	assert.Equal(t, "with pond", poly.Subtitle())
	require.Len(t, poly.Interiors(), 1)
	assert.Equal(t, "Park", poly.Interiors()[0].Title())
}

func TestShape_PolygonRingCount(t *testing.T) {
	for n := 1; n <= 4; n++ {
		t.Run(fmt.Sprintf("%d rings", n), func(t *testing.T) {
			rings := make([]string, n)
			for i := range rings {
				o := float64(i) * 0.1
				rings[i] = fmt.Sprintf("[[%g,%g],[%g,%g],[%g,%g],[%g,%g]]", o, o, o, o+1, o+1, o+1, o, o)
			}
			doc := `{"type":"Polygon","coordinates":[` + strings.Join(rings, ",") + `]}`

			shapes, _, err := Decode(mustObject(t, doc))
			require.NoError(t, err)

			poly := shapes[0].(Polygon)
			assert.Len(t, poly.Interiors(), n-1)

			feature, err := Feature(poly, nil)
			require.NoError(t, err)
			coords, _ := feature.GetObject(keyGeometry).Get(keyCoordinates)
			out, err := coords.AsArray()
			require.NoError(t, err)
			require.Len(t, out, n)
			for i, ring := range out {
				pairs, _ := ring.AsArray()
				first, _ := decodePair(pairs[0])
				o := float64(i) * 0.1
				assert.InDelta(t, o, first.Longitude, 1e-12)
			}
		})
	}
}

func TestShape_PolygonEmpty(t *testing.T) {
	_, _, err := Decode(mustObject(t, `{"type":"Polygon","coordinates":[]}`))
	assert.ErrorIs(t, err, ErrPolygonIsEmpty)
}

func TestShape_MultiPoint(t *testing.T) {
	feature := mustObject(t, `{
		"type": "Feature",
		"geometry": {"type": "MultiPoint", "coordinates": [[1, 2], [3, 4], [5, 6]]},
		"properties": {"title": "stops", "subtitle": "line 4"}
	}`)

	shapes, multi, err := Decode(feature)
	require.NoError(t, err)
	assert.True(t, multi)
	require.Len(t, shapes, 3)

	for i, s := range shapes {
		p, ok := s.(Point)
		require.True(t, ok)
		assert.Equal(t, Coordinate{float64(2*i + 1), float64(2*i + 2)}, p.Coordinate())
		assert.Equal(t, "stops", p.Title())
		assert.Equal(t, "line 4", p.Subtitle())
	}
}

func TestShape_MultiLineString(t *testing.T) {
	shapes, multi, err := Decode(mustObject(t, `{
		"type": "MultiLineString",
		"coordinates": [[[0,0],[1,1]], [[2,2],[3,3],[4,4]]]
	}`))
	require.NoError(t, err)
	assert.True(t, multi)
	require.Len(t, shapes, 2)
	assert.Equal(t, 2, shapes[0].(Line).Len())
	assert.Equal(t, 3, shapes[1].(Line).Len())
}

func TestShape_MultiPolygon(t *testing.T) {
	shapes, multi, err := Decode(mustObject(t, `{
		"type": "MultiPolygon",
		"coordinates": [
			[[[0,0],[5,0],[5,5],[0,0]]],
			[[[10,10],[15,10],[15,15],[10,10]], [[11,11],[12,11],[12,12],[11,11]]]
		]
	}`))
	require.NoError(t, err)
	assert.True(t, multi)
	require.Len(t, shapes, 2)
	assert.Empty(t, shapes[0].(Polygon).Interiors())
	assert.Len(t, shapes[1].(Polygon).Interiors(), 1)
}

func TestShape_MultiLenientSkipsElements(t *testing.T) {
	var buf bytes.Buffer
	opts := DefaultOptions()
	opts.Logger = zerolog.New(&buf)
	d := NewDecoder(opts)

	shapes, _, err := d.Shape(mustObject(t, `{"type":"MultiPoint","coordinates":[[1,2],[3],[5,6]]}`))
	require.NoError(t, err)
	require.Len(t, shapes, 2)
	assert.Equal(t, Coordinate{5, 6}, shapes[1].(Point).Coordinate())
	assert.Contains(t, buf.String(), "Skipping undecodable multi-geometry element")
}

func TestShape_MultiStrictFails(t *testing.T) {
	_, _, err := strictDecoder().Shape(mustObject(t, `{"type":"MultiPoint","coordinates":[[1,2],[3],[5,6]]}`))
	assert.ErrorIs(t, err, ErrInvalidCoordinatePair)
}

func TestShape_InvalidPairAnyType(t *testing.T) {
	tests := []struct {
		tag    string
		coords string
	}{
		{TypePoint, `[1, 2, 3]`},
		{TypeLineString, `[[1, 2], [1, 2, 3]]`},
		{TypePolygon, `[[[0, 0], [1, 1, 1], [1, 0], [0, 0]]]`},
		{TypeMultiPoint, `[[1, 2, 3]]`},
		{TypeMultiLineString, `[[[0, 0], [1]]]`},
		{TypeMultiPolygon, `[[[[0, 0], [1], [1, 1], [0, 0]]]]`},
	}

	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			doc := fmt.Sprintf(`{"type":"Feature","geometry":{"type":%q,"coordinates":%s}}`, tt.tag, tt.coords)
			_, _, err := strictDecoder().Shape(mustObject(t, doc))
			assert.ErrorIs(t, err, ErrInvalidCoordinatePair)
		})
	}
}

func TestShape_MissingCoordinates(t *testing.T) {
	tests := []struct {
		tag  string
		want error
	}{
		{TypePoint, ErrNoPointCoordinatesFound},
		{TypeLineString, ErrNoLineCoordinatesFound},
		{TypePolygon, ErrNoPolygonCoordinatesFound},
		{TypeMultiPoint, ErrNoMultiPointCoordinatesFound},
		{TypeMultiLineString, ErrNoMultiLineCoordinatesFound},
		{TypeMultiPolygon, ErrNoMultiPolygonCoordinatesFound},
	}

	for _, tt := range tests {
		t.Run(tt.tag+" missing", func(t *testing.T) {
			_, _, err := Decode(mustObject(t, fmt.Sprintf(`{"type":%q}`, tt.tag)))
			assert.ErrorIs(t, err, tt.want)
		})
		t.Run(tt.tag+" wrong kind", func(t *testing.T) {
			_, _, err := Decode(mustObject(t, fmt.Sprintf(`{"type":%q,"coordinates":"nope"}`, tt.tag)))
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestShape_PolygonRingNotArray(t *testing.T) {
	_, _, err := Decode(mustObject(t, `{"type":"Polygon","coordinates":[5]}`))
	assert.ErrorIs(t, err, ErrNoPolygonCoordinatesFound)
}

func TestShape_CoordinatesFallback(t *testing.T) {
	// Geometry without coordinates falls back to the feature's own.
	shapes, _, err := Decode(mustObject(t, `{
		"type": "Feature",
		"geometry": {"type": "Point"},
		"coordinates": [7, 8]
	}`))
	require.NoError(t, err)
	assert.Equal(t, Coordinate{7, 8}, shapes[0].(Point).Coordinate())
}

func TestShape_Unsupported(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"GeometryCollection", `{"type":"GeometryCollection","geometries":[]}`},
		{"Feature without geometry", `{"type":"Feature","properties":{}}`},
		{"geometry without type", `{"type":"Feature","geometry":{"coordinates":[1,2]}}`},
		{"null geometry", `{"type":"Feature","geometry":null}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Decode(mustObject(t, tt.doc))
			assert.ErrorIs(t, err, ErrTypeNotSupported)
		})
	}

	_, _, err := Decode(nil)
	assert.ErrorIs(t, err, ErrTypeNotSupported)
}

func TestShapes_ExpandsMultiInPlace(t *testing.T) {
	shapes, err := Shapes(loadFixture(t, "feature_collection.geojson"))
	require.NoError(t, err)

	// 4 features, one of which is a MultiPoint of 3 points.
	require.Len(t, shapes, 4-1+3)

	titles := make([]string, len(shapes))
	for i, s := range shapes {
		titles[i] = s.Title()
	}
	assert.Equal(t, []string{"San Francisco", "East Bay", "East Bay", "East Bay", "Bay Bridge", "City limits"}, titles)

	assert.IsType(t, Point{}, shapes[0])
	assert.IsType(t, Point{}, shapes[3])
	assert.IsType(t, Line{}, shapes[4])
	assert.IsType(t, Polygon{}, shapes[5])
	assert.Equal(t, Coordinate{-121.8863, 37.3382}, shapes[3].(Point).Coordinate())
}

const mixedCollection = `{
	"type": "FeatureCollection",
	"features": [
		{"type": "Feature", "geometry": {"type": "Point", "coordinates": [1, 2]}, "properties": {"title": "a"}},
		{"type": "Feature", "geometry": {"type": "Point", "coordinates": [1]}, "properties": {"title": "bad"}},
		{"type": "Feature", "geometry": {"type": "GeometryCollection", "geometries": []}},
		{"type": "Feature", "geometry": {"type": "Point", "coordinates": [3, 4]}, "properties": {"title": "b"}}
	]
}`

func TestShapes_LenientSkipsFeatures(t *testing.T) {
	var buf bytes.Buffer
	opts := DefaultOptions()
	opts.Logger = zerolog.New(&buf)

	shapes, err := NewDecoder(opts).Shapes(mustObject(t, mixedCollection))
	require.NoError(t, err)
	require.Len(t, shapes, 2)
	assert.Equal(t, "a", shapes[0].Title())
	assert.Equal(t, "b", shapes[1].Title())
	assert.Equal(t, 2, strings.Count(buf.String(), "Skipping undecodable feature"))
}

func TestShapes_StrictFailsOnFirst(t *testing.T) {
	_, err := strictDecoder().Shapes(mustObject(t, mixedCollection))
	assert.ErrorIs(t, err, ErrInvalidCoordinatePair)
	assert.Contains(t, err.Error(), "feature 1")
}

func TestShapes_ContractErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want error
	}{
		{"not a collection", `{"type":"Feature","features":[]}`, ErrNotFeatureCollection},
		{"missing features", `{"type":"FeatureCollection"}`, ErrNoFeaturesFound},
		{"features not array", `{"type":"FeatureCollection","features":{}}`, ErrNoFeaturesFound},
		{"feature not object", `{"type":"FeatureCollection","features":[1]}`, ErrNoFeaturesFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Shapes(mustObject(t, tt.doc))
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestShapes_Empty(t *testing.T) {
	shapes, err := Shapes(mustObject(t, `{"type":"FeatureCollection","features":[]}`))
	require.NoError(t, err)
	assert.NotNil(t, shapes)
	assert.Empty(t, shapes)
}

func TestShapes_WorkersPreserveOrder(t *testing.T) {
	features := make([]string, 200)
	for i := range features {
		if i%10 == 0 {
			features[i] = fmt.Sprintf(`{"type":"Feature","geometry":{"type":"MultiPoint","coordinates":[[%d,0],[%d,1]]}}`, i, i)
			continue
		}
		features[i] = fmt.Sprintf(`{"type":"Feature","geometry":{"type":"Point","coordinates":[%d,0]}}`, i)
	}
	doc := mustObject(t, `{"type":"FeatureCollection","features":[`+strings.Join(features, ",")+`]}`)

	sequential, err := Shapes(doc)
	require.NoError(t, err)

	opts := DefaultOptions()
	opts.Workers = 8
	parallel, err := NewDecoder(opts).Shapes(doc)
	require.NoError(t, err)

	assert.Equal(t, sequential, parallel)
	assert.Len(t, parallel, 220)
}

func TestUnmarshal(t *testing.T) {
	tests := []struct {
		file  string
		count int
	}{
		{"point.geojson", 1},
		{"point_in_geometry.geojson", 1},
		{"polygon_with_holes.geojson", 1},
		{"feature_collection.geojson", 6},
	}

	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			data, err := os.ReadFile(filepath.Join("testdata", tt.file))
			require.NoError(t, err)

			shapes, err := Unmarshal(data)
			require.NoError(t, err)
			assert.Len(t, shapes, tt.count)
		})
	}

	_, err := Unmarshal([]byte(`[1,2]`))
	assert.ErrorIs(t, err, ErrInvalidJSON)
}

func TestUnmarshal_Truncated(t *testing.T) {
	doc := `{"type":"FeatureCollection","features":[{"type":"Feature","geometry":{"type":"Point","coordinates":[10.5,52.3]},"properties":{"n":1`

	shapes, err := Unmarshal([]byte(doc))
	assert.ErrorIs(t, err, ErrInvalidJSON)
	assert.Nil(t, shapes)
}
