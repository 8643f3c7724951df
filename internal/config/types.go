package config

import (
	"github.com/oleg578/jsoncsv/internal/logging"
)

// Config is the complete json2csv configuration. Pointer fields distinguish
// "not set" from an explicit zero value so that every layer can override the
// one below it.
type Config struct {
	Fields        []string    `yaml:"fields"`
	FieldNames    []string    `yaml:"field_names"`
	Delimiter     string      `yaml:"delimiter"`
	EOL           string      `yaml:"eol"`
	Quote         *string     `yaml:"quote"`
	IncludeHeader *bool       `yaml:"include_header"`
	LineBreak     string      `yaml:"line_break"`
	Input         InputConfig `yaml:"input"`

	Log logging.Config `yaml:"log"`
}

// InputConfig controls how input documents are split into records.
type InputConfig struct {
	Format string `yaml:"format"`
}

// DefaultConfig returns the built-in defaults. Conversion options left unset
// fall back to the library defaults.
func DefaultConfig() *Config {
	return &Config{
		LineBreak: LineBreakPlatform,
		Input: InputConfig{
			Format: "auto",
		},
		Log: logging.Config{
			Level:  "info",
			Format: "logfmt",
		},
	}
}
