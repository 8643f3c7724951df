// Package logging builds the go-kit logger used by the json2csv command.
package logging

import (
	"io"
	"strings"

	kitlog "github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/pkg/errors"
)

// Config selects the log level and output format.
type Config struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "logfmt" or "json"
}

// Validate reports an unknown level or format.
func (c Config) Validate() error {
	if _, err := levelOption(c.Level); err != nil {
		return err
	}
	switch strings.ToLower(c.Format) {
	case "", "logfmt", "json":
		return nil
	default:
		return errors.Errorf("unknown log format %q (want logfmt or json)", c.Format)
	}
}

// New returns a leveled logger writing to w. Timestamps are UTC.
func New(w io.Writer, cfg Config) (kitlog.Logger, error) {
	opt, err := levelOption(cfg.Level)
	if err != nil {
		return nil, err
	}

	writer := kitlog.NewSyncWriter(w)
	var logger kitlog.Logger
	if strings.ToLower(cfg.Format) == "json" {
		logger = kitlog.NewJSONLogger(writer)
	} else {
		logger = kitlog.NewLogfmtLogger(writer)
	}
	logger = kitlog.With(logger, "ts", kitlog.DefaultTimestampUTC, "caller", kitlog.DefaultCaller)

	// Must put the level filter last for efficiency.
	return level.NewFilter(logger, opt), nil
}

func levelOption(lvl string) (level.Option, error) {
	switch strings.ToLower(lvl) {
	case "debug":
		return level.AllowDebug(), nil
	case "", "info":
		return level.AllowInfo(), nil
	case "warn", "warning":
		return level.AllowWarn(), nil
	case "error":
		return level.AllowError(), nil
	default:
		return nil, errors.Errorf("unknown log level %q", lvl)
	}
}
