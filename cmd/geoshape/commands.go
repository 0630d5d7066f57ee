package main

import (
	"fmt"
	"io"
	"os"

	"github.com/paulmach/orb"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/tingold/geoshape"
	"github.com/tingold/geoshape/fgb"
	"github.com/tingold/geoshape/index"
)

func (a *app) decodeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "decode <file.geojson>",
		Short: "Print one summary line per decoded shape",
		Long:  `Decode a GeoJSON document ("-" for stdin) and print the kind, point count and labels of every shape.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			shapes, err := a.readShapes(cmd, args[0])
			if err != nil {
				return err
			}
			for _, s := range shapes {
				fmt.Fprintln(cmd.OutOrStdout(), describe(s))
			}
			return nil
		},
	}
}

func (a *app) encodeCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "encode <file.geojson>",
		Short: "Normalize a GeoJSON document through the shape model",
		Long: `Decode a GeoJSON document and encode the shapes back as a FeatureCollection.
Multi-geometries come out as one feature per element, labelled with title and subtitle.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			shapes, err := a.readShapes(cmd, args[0])
			if err != nil {
				return err
			}

			data, err := geoshape.NewEncoder(a.options()).Marshal(shapes)
			if err != nil {
				return err
			}

			return writeOutput(cmd, output, func(w io.Writer) error {
				_, err := w.Write(append(data, '\n'))
				return err
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default: stdout)")
	return cmd
}

func (a *app) fgbCmd() *cobra.Command {
	var (
		output      string
		name        string
		description string
		noIndex     bool
	)

	cmd := &cobra.Command{
		Use:   "fgb <file.geojson>",
		Short: "Convert a GeoJSON document to FlatGeobuf",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			shapes, err := a.readShapes(cmd, args[0])
			if err != nil {
				return err
			}

			opts := a.cfg.FGBOptions()
			opts.Logger = log.Logger
			if cmd.Flags().Changed("name") {
				opts.Name = name
			}
			if cmd.Flags().Changed("description") {
				opts.Description = description
			}
			if cmd.Flags().Changed("no-index") {
				opts.IncludeIndex = !noIndex
			}

			err = writeOutput(cmd, output, func(w io.Writer) error {
				return fgb.Write(w, shapes, nil, opts)
			})
			if err != nil {
				return err
			}

			log.Info().
				Int("shapes", len(shapes)).
				Str("output", output).
				Bool("index", opts.IncludeIndex).
				Msg("FlatGeobuf written")
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&output, "output", "o", "", "Output file")
	flags.StringVar(&name, "name", "", "Layer name")
	flags.StringVar(&description, "description", "", "Layer description")
	flags.BoolVar(&noIndex, "no-index", false, "Omit the packed R-tree index")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}

func (a *app) searchCmd() *cobra.Command {
	var (
		bbox string
		near []float64
		k    int
	)

	cmd := &cobra.Command{
		Use:   "search <file.geojson>",
		Short: "Query decoded shapes by bounding box or proximity",
		Long: `Index the shapes of a GeoJSON document and print those intersecting --bbox
or the --k nearest to --near.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if (bbox == "") == (len(near) == 0) {
				return fmt.Errorf("exactly one of --bbox or --near is required")
			}

			shapes, err := a.readShapes(cmd, args[0])
			if err != nil {
				return err
			}

			ix := index.New()
			if _, err := ix.Insert(shapes...); err != nil {
				return err
			}

			var results []index.Entry
			if bbox != "" {
				var b orb.Bound
				if b, err = index.ParseBound(bbox); err != nil {
					return err
				}
				if results, err = ix.Search(b); err != nil {
					return err
				}
			} else {
				c, err := geoshape.ToCoordinate(near)
				if err != nil {
					return err
				}
				results = ix.Nearest(c, k)
			}

			for _, e := range results {
				fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\n", e.ID, describe(e.Shape))
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&bbox, "bbox", "", "Bounding box as minLon,minLat,maxLon,maxLat")
	flags.Float64SliceVar(&near, "near", nil, "Query position as lon,lat")
	flags.IntVar(&k, "k", 5, "Number of nearest shapes")
	return cmd
}

// readShapes decodes the GeoJSON document at path, or stdin for "-".
func (a *app) readShapes(cmd *cobra.Command, path string) ([]geoshape.Shape, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, err
	}

	shapes, err := geoshape.NewDecoder(a.options()).Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	log.Debug().
		Str("file", path).
		Int("shapes", len(shapes)).
		Msg("Decoded shapes")
	return shapes, nil
}

// writeOutput runs fn against the named file, or stdout when path is empty.
func writeOutput(cmd *cobra.Command, path string, fn func(io.Writer) error) error {
	if path == "" {
		return fn(cmd.OutOrStdout())
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := fn(file); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}

// describe renders a shape as "kind<TAB>points<TAB>title<TAB>subtitle".
func describe(s geoshape.Shape) string {
	var kind string
	var points int

	switch v := s.(type) {
	case geoshape.Point:
		kind, points = geoshape.TypePoint, 1
	case geoshape.Line:
		kind, points = geoshape.TypeLineString, v.Len()
	case geoshape.Polygon:
		kind, points = geoshape.TypePolygon, v.Len()
		for _, hole := range v.Interiors() {
			points += hole.Len()
		}
	default:
		kind = fmt.Sprintf("%T", s)
	}

	return fmt.Sprintf("%s\t%d\t%s\t%s", kind, points, s.Title(), s.Subtitle())
}
