package fgb

import (
	"fmt"

	flatgeobuf "github.com/flatgeobuf/flatgeobuf/src/go"
	"github.com/flatgeobuf/flatgeobuf/src/go/flattypes"
	"github.com/paulmach/orb"

	"github.com/tingold/geoshape"
)

// Reader provides read access to a FlatGeobuf file.
type Reader struct {
	fgb *flatgeobuf.FlatGeoBuf
}

// NewReader opens the FlatGeobuf file at path.
// The file is memory-mapped for efficient access.
func NewReader(path string) (*Reader, error) {
	fgb, err := flatgeobuf.New(path)
	if err != nil {
		return nil, err
	}
	return &Reader{fgb: fgb}, nil
}

// NewReaderFromData creates a reader over an in-memory FlatGeobuf file.
func NewReaderFromData(data []byte) (*Reader, error) {
	fgb, err := flatgeobuf.NewWithData(data)
	if err != nil {
		return nil, err
	}
	return &Reader{fgb: fgb}, nil
}

// Header returns metadata about the file, or nil once the reader is closed.
func (r *Reader) Header() *Header {
	if r.fgb == nil {
		return nil
	}
	h := r.fgb.Header()
	if h == nil {
		return nil
	}

	header := &Header{
		Name:          string(h.Name()),
		Description:   string(h.Description()),
		GeometryType:  flattypes.EnumNamesGeometryType[h.GeometryType()],
		FeaturesCount: h.FeaturesCount(),
		HasIndex:      h.IndexNodeSize() > 0,
	}

	if h.EnvelopeLength() >= 4 {
		for i := range header.Envelope {
			header.Envelope[i] = h.Envelope(i)
		}
	}

	var crs flattypes.Crs
	if h.Crs(&crs) != nil {
		header.CRS = &CRS{
			Code:        int(crs.Code()),
			Name:        string(crs.Name()),
			Description: string(crs.Description()),
		}
	}

	for i := 0; i < h.ColumnsLength(); i++ {
		var col flattypes.Column
		if !h.Columns(&col, i) {
			continue
		}
		header.Columns = append(header.Columns, ColumnInfo{
			Name:     string(col.Name()),
			Type:     flattypes.EnumNamesColumnType[col.Type()],
			Title:    string(col.Title()),
			Nullable: col.Nullable(),
		})
	}

	return header
}

// ReadAll reads every feature. shapes[i] carries properties[i]; a stored
// multi-geometry yields one shape per element, each with the feature's
// properties. Files are walked through their index, so a file written
// without one reads as empty.
func (r *Reader) ReadAll() ([]geoshape.Shape, []*geoshape.Object, error) {
	if r.fgb == nil {
		return nil, nil, ErrClosed
	}
	h := r.fgb.Header()

	if h.FeaturesCount() == 0 || h.IndexNodeSize() == 0 || h.EnvelopeLength() < 4 {
		return []geoshape.Shape{}, []*geoshape.Object{}, nil
	}

	features, err := r.fgb.Search(h.Envelope(0), h.Envelope(1), h.Envelope(2), h.Envelope(3))
	if err != nil {
		return nil, nil, err
	}
	return convertFeatures(features, h)
}

// Search returns the features whose bounding boxes intersect bounds.
func (r *Reader) Search(bounds orb.Bound) ([]geoshape.Shape, []*geoshape.Object, error) {
	if r.fgb == nil {
		return nil, nil, ErrClosed
	}
	h := r.fgb.Header()

	if h.IndexNodeSize() == 0 {
		return nil, nil, ErrNoIndex
	}

	features, err := r.fgb.Search(bounds.Min[0], bounds.Min[1], bounds.Max[0], bounds.Max[1])
	if err != nil {
		return nil, nil, err
	}
	return convertFeatures(features, h)
}

// Close releases the reader. The underlying FlatGeoBuf has no Close of its
// own; dropping the reference lets the mapping be collected.
func (r *Reader) Close() error {
	r.fgb = nil
	return nil
}

func convertFeatures(features []*flattypes.Feature, h *flattypes.Header) ([]geoshape.Shape, []*geoshape.Object, error) {
	shapes := make([]geoshape.Shape, 0, len(features))
	properties := make([]*geoshape.Object, 0, len(features))

	for i, f := range features {
		if f == nil {
			continue
		}

		props, err := decodeProperties(featureProperties(f), h)
		if err != nil {
			return nil, nil, fmt.Errorf("feature %d: %w", i, err)
		}

		var g flattypes.Geometry
		sub, err := shapesFromFGB(f.Geometry(&g), props.GetString("title"), props.GetString("subtitle"))
		if err != nil {
			return nil, nil, fmt.Errorf("feature %d: %w", i, err)
		}

		for j, s := range sub {
			shapes = append(shapes, s)
			if j == 0 {
				properties = append(properties, props)
				continue
			}
			properties = append(properties, props.Clone())
		}
	}

	return shapes, properties, nil
}

func featureProperties(f *flattypes.Feature) []byte {
	n := f.PropertiesLength()
	if n == 0 {
		return nil
	}
	data := make([]byte, n)
	for i := range data {
		data[i] = byte(f.Properties(i))
	}
	return data
}
