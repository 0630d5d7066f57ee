// Package fgb stores geoshape shapes in the FlatGeobuf binary format and
// reads them back, including their properties and the optional packed
// Hilbert R-tree index used for bounding-box search.
package fgb

import (
	"errors"

	"github.com/rs/zerolog"

	"github.com/tingold/geoshape"
)

// Common errors returned by this package.
var (
	ErrNoShapes        = errors.New("fgb: no shapes to write")
	ErrUnsupportedType = errors.New("fgb: unsupported geometry type")
	ErrInvalidData     = errors.New("fgb: invalid data")
	ErrNoIndex         = errors.New("fgb: file has no spatial index")
	ErrClosed          = errors.New("fgb: reader is closed")
)

// CRS represents a coordinate reference system.
type CRS struct {
	Code        int    // EPSG code (e.g., 4326 for WGS84)
	Name        string // CRS name
	Description string // CRS description
}

// WGS84 returns EPSG:4326, the only CRS GeoJSON coordinates may use.
func WGS84() *CRS {
	return &CRS{
		Code: 4326,
		Name: "WGS 84",
	}
}

// Options configures FlatGeobuf writing.
type Options struct {
	Name         string         // Layer name
	Description  string         // Layer description
	IncludeIndex bool           // Include spatial index (default: true)
	Mode         geoshape.Mode  // Policy for shapes that cannot be written
	Logger       zerolog.Logger // Receives dropped-shape warnings
}

// DefaultOptions returns indexed, lenient options with logging disabled.
func DefaultOptions() *Options {
	return &Options{
		IncludeIndex: true,
		Mode:         geoshape.Lenient,
		Logger:       zerolog.Nop(),
	}
}

// ColumnInfo describes a property column in a FlatGeobuf file.
type ColumnInfo struct {
	Name     string // Column name
	Type     string // Column type ("Bool", "Long", "Double", "String", "Json", etc.)
	Title    string
	Nullable bool
}

// Header contains metadata about a FlatGeobuf file.
type Header struct {
	Name          string
	Description   string
	GeometryType  string     // "Point", "LineString", "Polygon" or "Unknown" for mixed layers
	FeaturesCount uint64     // Number of features in the file
	Envelope      [4]float64 // Bounding box [minX, minY, maxX, maxY]
	CRS           *CRS
	HasIndex      bool
	Columns       []ColumnInfo
}
