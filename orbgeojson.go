package geoshape

import (
	"fmt"

	"github.com/paulmach/orb/geojson"
)

// FromGeoJSONFeature converts an orb/geojson Feature into shapes, taking
// the title and subtitle from its properties.
func FromGeoJSONFeature(f *geojson.Feature) ([]Shape, error) {
	if f == nil || f.Geometry == nil {
		return nil, fmt.Errorf("%w: feature has no geometry", ErrTypeNotSupported)
	}

	shapes, err := FromOrb(f.Geometry)
	if err != nil {
		return nil, err
	}

	title := f.Properties.MustString(keyTitle, "")
	subtitle := f.Properties.MustString(keySubtitle, "")
	for i, s := range shapes {
		shapes[i] = withLabel(s, title, subtitle)
	}
	return shapes, nil
}

// FromGeoJSONFeatureCollection converts every feature of fc. Failing
// features follow the decoder's mode.
func (d *Decoder) FromGeoJSONFeatureCollection(fc *geojson.FeatureCollection) ([]Shape, error) {
	if fc == nil {
		return nil, ErrNoFeaturesFound
	}

	shapes := []Shape{}
	for i, f := range fc.Features {
		sub, err := FromGeoJSONFeature(f)
		if err != nil {
			if d.opts.Mode == Strict {
				return nil, fmt.Errorf("feature %d: %w", i, err)
			}
			d.opts.Logger.Warn().
				Err(err).
				Int("index", i).
				Msg("Skipping unconvertible orb feature")
			continue
		}
		shapes = append(shapes, sub...)
	}
	return shapes, nil
}

// ToGeoJSONFeature converts shape into an orb/geojson Feature carrying
// properties. Shapes that Validate rejects are not converted.
func ToGeoJSONFeature(shape Shape, properties *Object) (*geojson.Feature, error) {
	if err := Validate(shape); err != nil {
		return nil, err
	}

	g, err := ToOrb(shape)
	if err != nil {
		return nil, err
	}

	f := geojson.NewFeature(g)
	if properties != nil {
		f.Properties = geojson.Properties(properties.Map())
	}
	return f, nil
}

// ToGeoJSONFeatureCollection converts shapes[i] with properties[i] into an
// orb/geojson FeatureCollection. A nil properties slice labels each feature
// from its shape.
func (e *Encoder) ToGeoJSONFeatureCollection(shapes []Shape, properties []*Object) (*geojson.FeatureCollection, error) {
	if properties == nil {
		properties = make([]*Object, len(shapes))
		for i, s := range shapes {
			properties[i] = PropertiesOf(s)
		}
	}
	if len(shapes) != len(properties) {
		return nil, fmt.Errorf("%w: %d shapes, %d properties", ErrShapeCountMismatch, len(shapes), len(properties))
	}

	fc := geojson.NewFeatureCollection()
	for i, s := range shapes {
		f, err := ToGeoJSONFeature(s, properties[i])
		if err != nil {
			if e.opts.Mode == Strict {
				return nil, fmt.Errorf("shape %d: %w", i, err)
			}
			e.opts.Logger.Warn().
				Err(err).
				Int("index", i).
				Msg("Dropping unconvertible shape")
			continue
		}
		fc.Append(f)
	}
	return fc, nil
}
