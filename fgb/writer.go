package fgb

import (
	"fmt"
	"io"

	"github.com/flatgeobuf/flatgeobuf/src/go/flattypes"
	"github.com/flatgeobuf/flatgeobuf/src/go/writer"
	flatbuffers "github.com/google/flatbuffers/go"

	"github.com/tingold/geoshape"
)

// Write writes shapes[i] with properties[i] as a FlatGeobuf layer. A nil
// properties slice labels each feature with its shape's title and subtitle.
// Shapes that cannot be written are dropped with a warning, or abort the
// write when opts.Mode is Strict.
func Write(w io.Writer, shapes []geoshape.Shape, properties []*geoshape.Object, opts *Options) error {
	if opts == nil {
		opts = DefaultOptions()
	}

	if properties == nil {
		properties = make([]*geoshape.Object, len(shapes))
		for i, s := range shapes {
			properties[i] = geoshape.PropertiesOf(s)
		}
	}
	if len(shapes) != len(properties) {
		return fmt.Errorf("%w: %d shapes, %d properties", geoshape.ErrShapeCountMismatch, len(shapes), len(properties))
	}

	kept := make([]geoshape.Shape, 0, len(shapes))
	keptProps := make([]*geoshape.Object, 0, len(shapes))
	for i, s := range shapes {
		if err := geoshape.Validate(s); err != nil {
			if opts.Mode == geoshape.Strict {
				return fmt.Errorf("shape %d: %w", i, err)
			}
			opts.Logger.Warn().
				Err(err).
				Int("index", i).
				Msg("Dropping unwritable shape")
			continue
		}
		kept = append(kept, s)
		keptProps = append(keptProps, properties[i])
	}

	if len(kept) == 0 {
		return ErrNoShapes
	}

	s := inferSchema(keptProps)

	// Encode properties up front; the writer's generator cannot report errors.
	encoded := make([][]byte, len(kept))
	for i, props := range keptProps {
		data, err := encodeProperties(props, s)
		if err != nil {
			return fmt.Errorf("shape %d: %w", i, err)
		}
		encoded[i] = data
	}

	gen := &shapeFeatureGenerator{
		shapes:     kept,
		properties: encoded,
	}

	return writeLayer(w, gen, layerGeometryType(kept), s, opts)
}

// writeLayer builds the header and streams gen's features to w.
func writeLayer(w io.Writer, gen writer.FeatureGenerator, geomType flattypes.GeometryType, s *schema, opts *Options) error {
	builder := flatbuffers.NewBuilder(4096)

	header := writer.NewHeader(builder)
	header.SetGeometryType(geomType)

	if opts.Name != "" {
		header.SetName(opts.Name)
	}
	if opts.Description != "" {
		header.SetDescription(opts.Description)
	}

	if columns := s.columns(builder); len(columns) > 0 {
		header.SetColumns(columns)
	}

	wgs84 := WGS84()
	crs := writer.NewCrs(builder)
	crs.SetOrg("EPSG")
	crs.SetCode(int32(wgs84.Code))
	crs.SetName(wgs84.Name)
	header.SetCrs(crs)

	fgbWriter := writer.NewWriter(header, opts.IncludeIndex, gen, nil)
	_, err := fgbWriter.Write(w)
	return err
}

// shapeFeatureGenerator yields one FlatGeobuf feature per validated shape.
type shapeFeatureGenerator struct {
	shapes     []geoshape.Shape
	properties [][]byte
	index      int
}

func (g *shapeFeatureGenerator) Generate() *writer.Feature {
	if g.index >= len(g.shapes) {
		return nil
	}

	i := g.index
	g.index++

	builder := flatbuffers.NewBuilder(1024)
	geom := shapeToFGB(g.shapes[i], builder)

	feature := writer.NewFeature(builder)
	feature.SetGeometry(geom)
	if len(g.properties[i]) > 0 {
		feature.SetProperties(g.properties[i])
	}

	return feature
}
