package geoshape

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToOrb(t *testing.T) {
	tests := []struct {
		name  string
		shape Shape
		want  orb.Geometry
	}{
		{
			name:  "Point",
			shape: NewPoint(Coordinate{1, 2}, "", ""),
			want:  orb.Point{1, 2},
		},
		{
			name:  "Line",
			shape: NewLine([]Coordinate{{0, 0}, {1, 1}}, "", ""),
			want:  orb.LineString{{0, 0}, {1, 1}},
		},
		{
			name: "Polygon with hole",
			shape: NewPolygon(
				[]Coordinate{{0, 0}, {4, 0}, {4, 4}, {0, 0}},
				[]Polygon{NewPolygon([]Coordinate{{1, 1}, {2, 1}, {2, 2}, {1, 1}}, nil, "", "")},
				"", ""),
			want: orb.Polygon{
				{{0, 0}, {4, 0}, {4, 4}, {0, 0}},
				{{1, 1}, {2, 1}, {2, 2}, {1, 1}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ToOrb(tt.shape)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ToOrb(fakeShape{})
	assert.ErrorIs(t, err, ErrUnsupportedShape)
}

func TestBound(t *testing.T) {
	b, err := Bound(NewPolygon(square(2, 3, 4), nil, "", ""))
	require.NoError(t, err)
	assert.Equal(t, orb.Bound{Min: orb.Point{2, 3}, Max: orb.Point{6, 7}}, b)

	b, err = Bound(NewPoint(Coordinate{5, 6}, "", ""))
	require.NoError(t, err)
	assert.Equal(t, orb.Point{5, 6}, b.Min)
	assert.Equal(t, orb.Point{5, 6}, b.Max)
}

func TestFromOrb(t *testing.T) {
	tests := []struct {
		name  string
		geom  orb.Geometry
		count int
	}{
		{"Point", orb.Point{1, 2}, 1},
		{"MultiPoint", orb.MultiPoint{{1, 2}, {3, 4}}, 2},
		{"LineString", orb.LineString{{0, 0}, {1, 1}}, 1},
		{"MultiLineString", orb.MultiLineString{{{0, 0}, {1, 1}}, {{2, 2}, {3, 3}}}, 2},
		{"Ring", orb.Ring{{0, 0}, {1, 0}, {1, 1}, {0, 0}}, 1},
		{"Polygon", orb.Polygon{{{0, 0}, {1, 0}, {1, 1}, {0, 0}}}, 1},
		{"MultiPolygon", orb.MultiPolygon{
			{{{0, 0}, {1, 0}, {1, 1}, {0, 0}}},
			{{{5, 5}, {6, 5}, {6, 6}, {5, 5}}},
		}, 2},
		{"Collection", orb.Collection{orb.Point{1, 2}, orb.MultiPoint{{3, 4}, {5, 6}}}, 3},
		{"Bound", orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{1, 1}}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shapes, err := FromOrb(tt.geom)
			require.NoError(t, err)
			assert.Len(t, shapes, tt.count)
		})
	}
}

func TestFromOrb_PolygonHoles(t *testing.T) {
	shapes, err := FromOrb(orb.Polygon{
		{{0, 0}, {4, 0}, {4, 4}, {0, 0}},
		{{1, 1}, {2, 1}, {2, 2}, {1, 1}},
	})
	require.NoError(t, err)

	poly := shapes[0].(Polygon)
	require.Len(t, poly.Interiors(), 1)
	assert.Equal(t, []Coordinate{{1, 1}, {2, 1}, {2, 2}, {1, 1}}, poly.Interiors()[0].Coordinates())

	back, err := ToOrb(poly)
	require.NoError(t, err)
	assert.Equal(t, orb.Polygon{
		{{0, 0}, {4, 0}, {4, 4}, {0, 0}},
		{{1, 1}, {2, 1}, {2, 2}, {1, 1}},
	}, back)
}

func TestFromOrb_EmptyPolygon(t *testing.T) {
	_, err := FromOrb(orb.Polygon{})
	assert.ErrorIs(t, err, ErrPolygonIsEmpty)
}

func TestGeoJSONFeature(t *testing.T) {
	f := geojson.NewFeature(orb.MultiPoint{{1, 2}, {3, 4}})
	f.Properties["title"] = "stops"
	f.Properties["subtitle"] = "north"

	shapes, err := FromGeoJSONFeature(f)
	require.NoError(t, err)
	require.Len(t, shapes, 2)
	for _, s := range shapes {
		assert.Equal(t, "stops", s.Title())
		assert.Equal(t, "north", s.Subtitle())
	}

	out, err := ToGeoJSONFeature(shapes[1], PropertiesOf(shapes[1]))
	require.NoError(t, err)
	assert.Equal(t, orb.Point{3, 4}, out.Geometry)
	assert.Equal(t, "stops", out.Properties.MustString("title"))

	_, err = FromGeoJSONFeature(&geojson.Feature{})
	assert.ErrorIs(t, err, ErrTypeNotSupported)
}

func TestGeoJSONFeatureCollection(t *testing.T) {
	fc := geojson.NewFeatureCollection()
	fc.Append(geojson.NewFeature(orb.Point{1, 2}))
	fc.Append(geojson.NewFeature(orb.Polygon{}))
	fc.Append(geojson.NewFeature(orb.LineString{{0, 0}, {1, 1}}))

	shapes, err := NewDecoder(nil).FromGeoJSONFeatureCollection(fc)
	require.NoError(t, err)
	assert.Len(t, shapes, 2)

	opts := DefaultOptions()
	opts.Mode = Strict
	_, err = NewDecoder(opts).FromGeoJSONFeatureCollection(fc)
	assert.ErrorIs(t, err, ErrPolygonIsEmpty)

	back, err := NewEncoder(nil).ToGeoJSONFeatureCollection(shapes, nil)
	require.NoError(t, err)
	require.Len(t, back.Features, 2)
	assert.Equal(t, orb.LineString{{0, 0}, {1, 1}}, back.Features[1].Geometry)

	_, err = NewEncoder(nil).ToGeoJSONFeatureCollection(shapes, []*Object{nil})
	assert.ErrorIs(t, err, ErrShapeCountMismatch)
}

func TestGeoJSONFeature_TooFewPoints(t *testing.T) {
	tests := []struct {
		name  string
		shape Shape
	}{
		{"one point line", NewLine([]Coordinate{{1, 2}}, "", "")},
		{"two point polygon", NewPolygon([]Coordinate{{0, 0}, {1, 1}}, nil, "", "")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ToGeoJSONFeature(tt.shape, nil)
			assert.ErrorIs(t, err, ErrTooFewPoints)
		})
	}

	shapes := []Shape{NewPoint(Coordinate{1, 2}, "", ""), tests[0].shape}

	fc, err := NewEncoder(nil).ToGeoJSONFeatureCollection(shapes, nil)
	require.NoError(t, err)
	assert.Len(t, fc.Features, 1)

	opts := DefaultOptions()
	opts.Mode = Strict
	_, err = NewEncoder(opts).ToGeoJSONFeatureCollection(shapes, nil)
	assert.ErrorIs(t, err, ErrTooFewPoints)
}

func TestGeoJSONFeatureCollection_Marshal(t *testing.T) {
	// Documents written by orb/geojson decode with this package.
	fc := geojson.NewFeatureCollection()
	f := geojson.NewFeature(orb.Point{10.5, 52.3})
	f.Properties["title"] = "X"
	fc.Append(f)

	data, err := fc.MarshalJSON()
	require.NoError(t, err)

	shapes, err := Unmarshal(data)
	require.NoError(t, err)
	require.Len(t, shapes, 1)
	assert.Equal(t, "X", shapes[0].Title())
	assert.Equal(t, Coordinate{10.5, 52.3}, shapes[0].(Point).Coordinate())
}
