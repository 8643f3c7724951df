// Package config loads json2csv settings from several sources. The sources
// apply in this order, lowest precedence first:
//  1. Built-in defaults
//  2. YAML configuration file
//  3. JSON2CSV_* environment variables
//  4. Command-line flags (applied by the caller)
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/drone/envsubst"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/oleg578/jsoncsv"
	"github.com/oleg578/jsoncsv/internal/input"
)

// Line break names accepted by line_break and --line-break.
const (
	LineBreakPlatform = "platform"
	LineBreakLF       = "lf"
	LineBreakCRLF     = "crlf"
)

// LoadConfig loads configuration from configPath, or from the first file found
// in the standard locations when configPath is empty:
//   - .json2csv.yaml (current directory)
//   - .json2csv.yml (current directory)
//   - ~/.json2csv/config.yaml
//
// With expandEnv set, ${VAR} references in the file are expanded before parsing.
// Environment overrides are applied last. A missing file in the standard
// locations is not an error.
func LoadConfig(configPath string, expandEnv bool) (*Config, error) {
	cfg := DefaultConfig()

	if configPath != "" {
		if err := loadConfigFile(configPath, expandEnv, cfg); err != nil {
			return nil, errors.Wrap(err, "failed to load config file")
		}
	} else {
		for _, path := range defaultPaths() {
			if _, err := os.Stat(path); err == nil {
				if err := loadConfigFile(path, expandEnv, cfg); err != nil {
					return nil, errors.Wrapf(err, "failed to load config from %s", path)
				}
				break
			}
		}
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

func defaultPaths() []string {
	paths := []string{".json2csv.yaml", ".json2csv.yml"}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".json2csv", "config.yaml"))
	}
	return paths
}

func loadConfigFile(path string, expandEnv bool, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "failed to read config file %s", path)
	}

	if expandEnv {
		s, err := envsubst.EvalEnv(string(data))
		if err != nil {
			return errors.Wrapf(err, "failed to expand env vars in %s", path)
		}
		data = []byte(s)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return errors.Wrapf(err, "failed to parse config file %s", path)
	}
	return nil
}

// applyEnvOverrides applies JSON2CSV_* variables. Lists are comma separated.
func applyEnvOverrides(cfg *Config) {
	if v, ok := os.LookupEnv("JSON2CSV_FIELDS"); ok {
		cfg.Fields = splitList(v)
	}
	if v, ok := os.LookupEnv("JSON2CSV_FIELD_NAMES"); ok {
		cfg.FieldNames = splitList(v)
	}
	if v := os.Getenv("JSON2CSV_DELIMITER"); v != "" {
		cfg.Delimiter = Unescape(v)
	}
	if v, ok := os.LookupEnv("JSON2CSV_EOL"); ok {
		cfg.EOL = Unescape(v)
	}
	if v, ok := os.LookupEnv("JSON2CSV_QUOTE"); ok {
		cfg.Quote = &v
	}
	if v := os.Getenv("JSON2CSV_INCLUDE_HEADER"); v != "" {
		b := parseBool(v)
		cfg.IncludeHeader = &b
	}
	if v := os.Getenv("JSON2CSV_LINE_BREAK"); v != "" {
		cfg.LineBreak = v
	}
	if v := os.Getenv("JSON2CSV_INPUT_FORMAT"); v != "" {
		cfg.Input.Format = v
	}
	if v := os.Getenv("JSON2CSV_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("JSON2CSV_LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
}

// Validate checks the enumerated settings. Field list lengths are left to
// jsoncsv, which reports them as a *jsoncsv.ValidationError.
func (c *Config) Validate() error {
	if _, err := input.ParseFormat(c.Input.Format); err != nil {
		return err
	}
	if err := c.Log.Validate(); err != nil {
		return err
	}
	return nil
}

// Params builds the conversion request for data.
func (c *Config) Params(data any) jsoncsv.Params {
	return jsoncsv.Params{
		Data:          data,
		Fields:        c.Fields,
		FieldNames:    c.FieldNames,
		Delimiter:     c.Delimiter,
		EOL:           c.EOL,
		Quote:         c.Quote,
		IncludeHeader: c.IncludeHeader,
		LineBreak:     ResolveLineBreak(c.LineBreak),
	}
}

// ResolveLineBreak maps a line break name to its byte sequence. Unknown names
// are taken literally after escape processing; "platform" and "" select the
// library default.
func ResolveLineBreak(name string) string {
	switch strings.ToLower(name) {
	case "", LineBreakPlatform:
		return ""
	case LineBreakLF:
		return "\n"
	case LineBreakCRLF:
		return "\r\n"
	default:
		return Unescape(name)
	}
}

// Unescape interprets the \n, \r, \t and \\ escapes that are awkward to pass on a command line.
func Unescape(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	return strings.NewReplacer(`\\`, `\`, `\n`, "\n", `\r`, "\r", `\t`, "\t").Replace(s)
}

func splitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return []string{}
	}
	parts := strings.Split(s, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

// parseBool parses various boolean representations
func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "true" || s == "yes" || s == "1" || s == "on"
}
