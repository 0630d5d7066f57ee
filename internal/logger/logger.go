// Package logger configures the global zerolog logger used by the command
// line tools.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Logger holds logging settings. It can be embedded in a config file or
// filled from flags.
type Logger struct {
	Level  string `yaml:"level,omitempty"`  // trace, debug, info, warn, error (default: info)
	Format string `yaml:"format,omitempty"` // console or json (default: console)
}

// Setup installs the configured logger as the global logger writing to
// stderr.
func (l Logger) Setup() error {
	return l.SetupWriter(os.Stderr)
}

// SetupWriter installs the configured logger as the global logger writing
// to w.
func (l Logger) SetupWriter(w io.Writer) error {
	level, err := l.level()
	if err != nil {
		return err
	}

	var out io.Writer
	switch strings.ToLower(l.Format) {
	case "", "console":
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	case "json":
		out = w
	default:
		return fmt.Errorf("logger: unknown format %q", l.Format)
	}

	zerolog.SetGlobalLevel(level)
	log.Logger = zerolog.New(out).With().Timestamp().Logger()
	return nil
}

func (l Logger) level() (zerolog.Level, error) {
	if l.Level == "" {
		return zerolog.InfoLevel, nil
	}
	level, err := zerolog.ParseLevel(strings.ToLower(l.Level))
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("logger: %w", err)
	}
	return level, nil
}
