package main

import (
	"net/http"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/tingold/geoshape"
	"github.com/tingold/geoshape/internal/config"
)

type city struct {
	Name       string
	Country    string
	Longitude  float64
	Latitude   float64
	Population int
	Capital    bool
}

var cities = []city{
	{"Tokyo", "Japan", 139.6917, 35.6895, 13960000, true},
	{"New York", "United States", -73.9857, 40.7484, 8336817, false},
	{"London", "United Kingdom", -0.1276, 51.5074, 8982000, true},
	{"Paris", "France", 2.3522, 48.8566, 2161000, true},
	{"Beijing", "China", 116.4074, 39.9042, 21540000, true},
	{"Moscow", "Russia", 37.6173, 55.7558, 12615000, true},
	{"São Paulo", "Brazil", -46.6333, -23.5505, 12300000, false},
	{"Mumbai", "India", 72.8777, 19.0760, 12400000, false},
	{"Los Angeles", "United States", -118.2437, 34.0522, 3971883, false},
	{"Shanghai", "China", 121.4737, 31.2304, 24870000, false},
	{"Istanbul", "Turkey", 28.9784, 41.0082, 15520000, false},
	{"Buenos Aires", "Argentina", -58.3816, -34.6037, 3075646, true},
	{"Cairo", "Egypt", 31.2357, 30.0444, 10230000, true},
	{"Sydney", "Australia", 151.2093, -33.8688, 5312000, false},
	{"Berlin", "Germany", 13.4050, 52.5200, 3669491, true},
}

// cityLayer returns the built-in cities as labelled points.
func cityLayer() ([]geoshape.Shape, []*geoshape.Object) {
	shapes := make([]geoshape.Shape, len(cities))
	properties := make([]*geoshape.Object, len(cities))

	for i, c := range cities {
		shapes[i] = geoshape.NewPoint(geoshape.Coordinate{Longitude: c.Longitude, Latitude: c.Latitude}, c.Name, c.Country)
		properties[i] = geoshape.NewObject().
			Set("title", geoshape.String(c.Name)).
			Set("subtitle", geoshape.String(c.Country)).
			Set("population", geoshape.Number(float64(c.Population))).
			Set("capital", geoshape.Bool(c.Capital))
	}
	return shapes, properties
}

// fileLayer decodes the GeoJSON document at path.
func fileLayer(path string, opts *geoshape.Options) ([]geoshape.Shape, []*geoshape.Object, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}

	shapes, err := geoshape.NewDecoder(opts).Unmarshal(data)
	if err != nil {
		return nil, nil, err
	}

	properties := make([]*geoshape.Object, len(shapes))
	for i, s := range shapes {
		properties[i] = geoshape.PropertiesOf(s)
	}
	return shapes, properties, nil
}

func main() {
	var (
		configFile string
		addr       string
		file       string
	)

	rootCmd := &cobra.Command{
		Use:   "server",
		Short: "Serve shapes as GeoJSON and FlatGeobuf with bounding box search",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.Default()
			if configFile != "" {
				loaded, err := config.Load(configFile)
				if err != nil {
					return err
				}
				cfg = loaded
			}
			if cmd.Flags().Changed("addr") {
				cfg.Server.Addr = addr
			}
			if cmd.Flags().Changed("file") {
				cfg.Server.File = file
			}

			if err := cfg.Log.Setup(); err != nil {
				return err
			}

			opts := cfg.Options()
			opts.Logger = log.Logger

			var (
				shapes     []geoshape.Shape
				properties []*geoshape.Object
			)
			if cfg.Server.File != "" {
				var err error
				if shapes, properties, err = fileLayer(cfg.Server.File, opts); err != nil {
					log.Fatal().Err(err).Str("file", cfg.Server.File).Msg("Failed to load shapes")
				}
			} else {
				shapes, properties = cityLayer()
				if cfg.FGB.Name == "" {
					cfg.FGB.Name = "world_cities"
					cfg.FGB.Description = "Major world cities"
				}
			}

			fgbOpts := cfg.FGBOptions()
			fgbOpts.Logger = log.Logger

			srv, err := newServer(shapes, properties, opts, fgbOpts)
			if err != nil {
				log.Fatal().Err(err).Msg("Failed to build layer")
			}

			log.Info().
				Str("addr", cfg.Server.Addr).
				Int("shapes", srv.index.Len()).
				Int("fgb_bytes", len(srv.fgbData)).
				Msg("Web server started")

			return http.ListenAndServe(cfg.Server.Addr, RequestLogger(srv.routes()))
		},
	}

	flags := rootCmd.Flags()
	flags.StringVarP(&configFile, "config", "c", "", "Path to YAML configuration file")
	flags.StringVarP(&addr, "addr", "a", "", "Address to listen on (default: localhost:8080)")
	flags.StringVarP(&file, "file", "f", "", "GeoJSON file to serve (default: built-in cities)")

	if err := rootCmd.Execute(); err != nil {
		log.Fatal().Err(err).Msg("Server failed")
	}
}
