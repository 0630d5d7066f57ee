package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/tingold/geoshape"
	"github.com/tingold/geoshape/internal/config"
)

// app carries the resolved configuration into the subcommands.
type app struct {
	configFile string
	mode       string
	workers    int
	logLevel   string
	logFormat  string

	cfg *config.Config
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "geoshape",
		Short: "Convert GeoJSON to typed shapes and back",
		Long: `Decode GeoJSON features into points, lines and polygons, re-encode them,
export them as FlatGeobuf, and query them through an R-tree index.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&a.configFile, "config", "c", "", "Path to YAML configuration file")
	flags.StringVarP(&a.mode, "mode", "m", "", "Element failure policy: lenient or strict")
	flags.IntVarP(&a.workers, "workers", "w", 0, "Number of worker goroutines per collection")
	flags.StringVar(&a.logLevel, "log-level", "", "Log level: trace, debug, info, warn, error")
	flags.StringVar(&a.logFormat, "log-format", "", "Log format: console or json")

	rootCmd.AddCommand(
		a.decodeCmd(),
		a.encodeCmd(),
		a.fgbCmd(),
		a.searchCmd(),
	)
	return rootCmd
}

// setup loads the config file, applies flag overrides and installs the
// global logger.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg := config.Default()
	if a.configFile != "" {
		loaded, err := config.Load(a.configFile)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("mode") {
		mode, err := geoshape.ParseMode(a.mode)
		if err != nil {
			return err
		}
		cfg.Mode = mode
	}
	if flags.Changed("workers") {
		if a.workers < 0 {
			return fmt.Errorf("workers must not be negative, got %d", a.workers)
		}
		cfg.Workers = a.workers
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = a.logLevel
	}
	if flags.Changed("log-format") {
		cfg.Log.Format = a.logFormat
	}

	if err := cfg.Log.SetupWriter(cmd.ErrOrStderr()); err != nil {
		return err
	}

	log.Debug().
		Str("mode", cfg.Mode.String()).
		Int("workers", cfg.Workers).
		Msg("Configuration loaded")

	a.cfg = cfg
	return nil
}

// options returns library options that log through the global logger.
func (a *app) options() *geoshape.Options {
	opts := a.cfg.Options()
	opts.Logger = log.Logger
	return opts
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
