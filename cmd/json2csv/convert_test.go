package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oleg578/jsoncsv"
)

type cliResult struct {
	stdout string
	stderr string
	err    error
}

func runCLI(t *testing.T, stdin string, args ...string) cliResult {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCommand(strings.NewReader(stdin), &stdout, &stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return cliResult{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

// isolate keeps the developer's own config files and JSON2CSV_* variables out of the test.
func isolate(t *testing.T) {
	t.Helper()
	chdir(t, t.TempDir())
	t.Setenv("HOME", t.TempDir())
}

func TestConvertStdin(t *testing.T) {
	isolate(t)

	res := runCLI(t, `[{"a":1,"b":"x"},{},{"b":"y"}]`, "--line-break", "lf")
	require.NoError(t, res.err)
	assert.Equal(t, "\"a\",\"b\"\n1,\"x\"\n,\"y\"", res.stdout)
	assert.Contains(t, res.stderr, "msg=\"converted records\"")
	assert.Contains(t, res.stderr, "records=3")
}

func TestConvertFlags(t *testing.T) {
	isolate(t)

	res := runCLI(t, "{\"a\":\"x\",\"b\":2}\n{\"a\":\"it's\"}\n",
		"--fields", "a,b",
		"--field-names", "A,B",
		"-d", ";",
		"--eol", `;\n`,
		"-q", "'",
		"--line-break", "lf",
		"--input-format", "ndjson",
		"--log.level", "error",
	)
	require.NoError(t, res.err)
	assert.Equal(t, "'A';'B'\n'x';2;\n\n'it''s';;\n", res.stdout)
	assert.Empty(t, res.stderr)
}

func TestConvertNoHeader(t *testing.T) {
	isolate(t)

	res := runCLI(t, `{"a":1}`, "--no-header", "--line-break", "crlf", "--log.level", "warn")
	require.NoError(t, res.err)
	assert.Equal(t, "1", res.stdout)
}

func TestConvertFiles(t *testing.T) {
	isolate(t)

	dir := t.TempDir()
	in := filepath.Join(dir, "in.json")
	out := filepath.Join(dir, "out.csv")
	require.NoError(t, os.WriteFile(in, []byte(`[{"name":"ann","age":30}]`), 0o600))

	res := runCLI(t, "", in, "-o", out, "--line-break", "lf", "--log.format", "json")
	require.NoError(t, res.err)
	assert.Empty(t, res.stdout)
	assert.Contains(t, res.stderr, `"msg":"converted records"`)

	got, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "\"name\",\"age\"\n\"ann\",30", string(got))
}

func TestConvertConfigFile(t *testing.T) {
	isolate(t)

	path := filepath.Join(t.TempDir(), "cfg.yaml")
	require.NoError(t, os.WriteFile(path, []byte("fields: [b]\ndelimiter: \"|\"\nline_break: lf\nlog:\n  level: error\n"), 0o600))

	res := runCLI(t, `[{"a":1,"b":2}]`, "--config.file", path)
	require.NoError(t, res.err)
	assert.Equal(t, "\"b\"\n2", res.stdout)

	// flags win over the file
	res = runCLI(t, `[{"a":1,"b":2}]`, "--config.file", path, "--fields", "a,b")
	require.NoError(t, res.err)
	assert.Equal(t, "\"a\"|\"b\"\n1|2", res.stdout)
}

func TestConvertEnvOverride(t *testing.T) {
	isolate(t)
	t.Setenv("JSON2CSV_DELIMITER", "\t")
	t.Setenv("JSON2CSV_LOG_LEVEL", "error")

	res := runCLI(t, `[{"a":1,"b":2}]`, "--line-break", "lf")
	require.NoError(t, res.err)
	assert.Equal(t, "\"a\"\t\"b\"\n1\t2", res.stdout)

	res = runCLI(t, `[{"a":1,"b":2}]`, "--line-break", "lf", "-d", ",")
	require.NoError(t, res.err)
	assert.Equal(t, "\"a\",\"b\"\n1,2", res.stdout)
}

func TestConvertValidationError(t *testing.T) {
	isolate(t)

	out := filepath.Join(t.TempDir(), "out.csv")
	res := runCLI(t, `[{"a":1,"b":2}]`, "--fields", "a,b", "--field-names", "A", "-o", out)
	require.Error(t, res.err)
	assert.ErrorIs(t, res.err, jsoncsv.ErrFieldNamesLength)
	assert.Equal(t, 2, mapErrorToExitCode(res.err))
	assert.Empty(t, res.stdout)

	_, err := os.Stat(out)
	assert.True(t, os.IsNotExist(err), "no output file should be created")
}

func TestConvertInputErrors(t *testing.T) {
	isolate(t)

	tests := []struct {
		name  string
		stdin string
		args  []string
	}{
		{name: "malformed", stdin: `[{"a":`},
		{name: "trailing", stdin: `{} {}`, args: []string{"--input-format", "json"}},
		{name: "strayBracket", stdin: `{"a":1}]`, args: []string{"--input-format", "json"}},
		{name: "strayBrace", stdin: `{"a":1} }`},
		{name: "onlyBracket", stdin: `]`},
		{name: "missingFile", args: []string{filepath.Join(t.TempDir(), "nope.json")}},
		{name: "badFormat", stdin: `{}`, args: []string{"--input-format", "xml"}},
		{name: "badLogLevel", stdin: `{}`, args: []string{"--log.level", "loud"}},
		{name: "missingConfig", stdin: `{}`, args: []string{"--config.file", filepath.Join(t.TempDir(), "nope.yaml")}},
		{name: "tooManyArgs", args: []string{"a.json", "b.json"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res := runCLI(t, tc.stdin, tc.args...)
			require.Error(t, res.err)
			assert.Equal(t, 1, mapErrorToExitCode(res.err))
		})
	}
}

func TestConvertVersion(t *testing.T) {
	isolate(t)

	res := runCLI(t, "", "--version")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, version)
}

func TestMapErrorToExitCode(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0, mapErrorToExitCode(nil))
	assert.Equal(t, 1, mapErrorToExitCode(errors.New("boom")))
	assert.Equal(t, 2, mapErrorToExitCode(&jsoncsv.ValidationError{Field: "fieldNames", Err: jsoncsv.ErrFieldNamesLength}))
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
