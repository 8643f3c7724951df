package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oleg578/jsoncsv"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("HOME", t.TempDir())

	cfg, err := LoadConfig("", false)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
	require.NoError(t, cfg.Validate())
}

func TestLoadConfigFile(t *testing.T) {
	path := writeConfig(t, `
fields: [id, name]
field_names: [ID, Name]
delimiter: ";"
eol: "\n"
quote: "'"
include_header: false
line_break: crlf
input:
  format: ndjson
log:
  level: debug
  format: json
`)

	cfg, err := LoadConfig(path, false)
	require.NoError(t, err)

	assert.Equal(t, []string{"id", "name"}, cfg.Fields)
	assert.Equal(t, []string{"ID", "Name"}, cfg.FieldNames)
	assert.Equal(t, ";", cfg.Delimiter)
	assert.Equal(t, "\n", cfg.EOL)
	require.NotNil(t, cfg.Quote)
	assert.Equal(t, "'", *cfg.Quote)
	require.NotNil(t, cfg.IncludeHeader)
	assert.False(t, *cfg.IncludeHeader)
	assert.Equal(t, "ndjson", cfg.Input.Format)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)

	p := cfg.Params([]any{})
	assert.Equal(t, "\r\n", p.LineBreak)
	assert.Equal(t, []string{"ID", "Name"}, p.FieldNames)
}

func TestLoadConfigEmptyQuoteIsExplicit(t *testing.T) {
	path := writeConfig(t, "quote: \"\"\n")

	cfg, err := LoadConfig(path, false)
	require.NoError(t, err)
	require.NotNil(t, cfg.Quote)
	assert.Equal(t, "", *cfg.Quote)
}

func TestLoadConfigExpandEnv(t *testing.T) {
	t.Setenv("CSV_DELIM", "|")
	path := writeConfig(t, "delimiter: \"${CSV_DELIM}\"\n")

	cfg, err := LoadConfig(path, true)
	require.NoError(t, err)
	assert.Equal(t, "|", cfg.Delimiter)

	cfg, err = LoadConfig(path, false)
	require.NoError(t, err)
	assert.Equal(t, "${CSV_DELIM}", cfg.Delimiter)
}

func TestLoadConfigDiscoversLocalFile(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	t.Setenv("HOME", t.TempDir())
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".json2csv.yml"), []byte("delimiter: \"\\t\"\n"), 0o600))

	cfg, err := LoadConfig("", false)
	require.NoError(t, err)
	assert.Equal(t, "\t", cfg.Delimiter)
}

func TestLoadConfigErrors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"), false)
	assert.Error(t, err)

	_, err = LoadConfig(writeConfig(t, "fields: {not: [a list"), false)
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	path := writeConfig(t, "delimiter: \";\"\nfields: [a]\n")
	t.Setenv("JSON2CSV_FIELDS", "x, y")
	t.Setenv("JSON2CSV_FIELD_NAMES", "X,Y")
	t.Setenv("JSON2CSV_DELIMITER", "|")
	t.Setenv("JSON2CSV_EOL", `\r`)
	t.Setenv("JSON2CSV_QUOTE", "")
	t.Setenv("JSON2CSV_INCLUDE_HEADER", "no")
	t.Setenv("JSON2CSV_LINE_BREAK", "lf")
	t.Setenv("JSON2CSV_INPUT_FORMAT", "json")
	t.Setenv("JSON2CSV_LOG_LEVEL", "error")
	t.Setenv("JSON2CSV_LOG_FORMAT", "json")

	cfg, err := LoadConfig(path, false)
	require.NoError(t, err)

	assert.Equal(t, []string{"x", "y"}, cfg.Fields)
	assert.Equal(t, []string{"X", "Y"}, cfg.FieldNames)
	assert.Equal(t, "|", cfg.Delimiter)
	assert.Equal(t, "\r", cfg.EOL)
	require.NotNil(t, cfg.Quote)
	assert.Equal(t, "", *cfg.Quote)
	require.NotNil(t, cfg.IncludeHeader)
	assert.False(t, *cfg.IncludeHeader)
	assert.Equal(t, "lf", cfg.LineBreak)
	assert.Equal(t, "json", cfg.Input.Format)
	assert.Equal(t, "error", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestEnvDelimiterEscapes(t *testing.T) {
	path := writeConfig(t, "delimiter: \";\"\n")
	t.Setenv("JSON2CSV_DELIMITER", `\t`)

	cfg, err := LoadConfig(path, false)
	require.NoError(t, err)
	assert.Equal(t, "\t", cfg.Delimiter)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.Input.Format = "xml"
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Log.Level = "verbose"
	assert.Error(t, cfg.Validate())
}

func TestResolveLineBreak(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"":         "",
		"platform": "",
		"LF":       "\n",
		"crlf":     "\r\n",
		`\r`:       "\r",
		"<br>":     "<br>",
	}
	for in, want := range tests {
		assert.Equal(t, want, ResolveLineBreak(in), "input %q", in)
	}
}

func TestUnescape(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "a\tb", Unescape(`a\tb`))
	assert.Equal(t, ";\n", Unescape(`;\n`))
	assert.Equal(t, `\n`, Unescape(`\\n`))
	assert.Equal(t, "plain", Unescape("plain"))
}

func TestParamsConvert(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.Fields = []string{"a"}
	cfg.LineBreak = LineBreakLF
	cfg.Quote = jsoncsv.String("'")

	out, err := jsoncsv.Convert(cfg.Params(map[string]any{"a": "x"}))
	require.NoError(t, err)
	assert.Equal(t, "'a'\n'x'", out)
}

// chdir changes the working directory for the duration of the test,
// mirroring testing.T.Chdir (Go 1.24+) on older toolchains.
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
}
