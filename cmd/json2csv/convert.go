package main

import (
	"io"
	"os"

	"github.com/dustin/go-humanize"
	kitlog "github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/multierr"

	"github.com/oleg578/jsoncsv"
	"github.com/oleg578/jsoncsv/internal/config"
	"github.com/oleg578/jsoncsv/internal/input"
	"github.com/oleg578/jsoncsv/internal/logging"
)

// options holds the raw flag values. Only flags the user actually set
// override the loaded configuration.
type options struct {
	configFile string
	expandEnv  bool
	output     string

	fields      []string
	fieldNames  []string
	delimiter   string
	eol         string
	quote       string
	noHeader    bool
	lineBreak   string
	inputFormat string
	logLevel    string
	logFormat   string
}

func newRootCommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "json2csv [flags] [input]",
		Short: "Convert JSON or NDJSON records to CSV",
		Long: `json2csv reads a JSON array, a single JSON object, or newline delimited
JSON objects and writes them as CSV.

Columns are selected with --fields; without it every key found in the input
becomes a column, in the order it first appears. The input defaults to stdin.

Settings are read from a YAML file (--config.file, or .json2csv.yaml in the
current directory), then from JSON2CSV_* environment variables, then from flags.`,
		Args:          cobra.MaximumNArgs(1),
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			src := "-"
			if len(args) == 1 {
				src = args[0]
			}
			return runConvert(cmd.Flags(), opts, src, stdin, stdout, stderr)
		},
	}

	cmd.SetIn(stdin)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	fs := cmd.Flags()
	fs.StringVar(&opts.configFile, "config.file", "", "YAML configuration file")
	fs.BoolVar(&opts.expandEnv, "config.expand-env", false, "Expand ${VAR} references in the configuration file")
	fs.StringVarP(&opts.output, "output", "o", "", "Output file path (default: stdout)")
	fs.StringSliceVarP(&opts.fields, "fields", "f", nil, "Comma separated record keys to emit as columns")
	fs.StringSliceVar(&opts.fieldNames, "field-names", nil, "Comma separated header labels, one per field")
	fs.StringVarP(&opts.delimiter, "delimiter", "d", ",", "Column delimiter")
	fs.StringVar(&opts.eol, "eol", "", `Suffix appended to every data row (\n, \r and \t are interpreted)`)
	fs.StringVarP(&opts.quote, "quote", "q", `"`, "Quote wrapped around strings and nested values; empty disables quoting")
	fs.BoolVar(&opts.noHeader, "no-header", false, "Do not write the header row")
	fs.StringVar(&opts.lineBreak, "line-break", config.LineBreakPlatform, "Line separator: platform, lf, crlf or a literal sequence")
	fs.StringVar(&opts.inputFormat, "input-format", string(input.FormatAuto), "Input format: auto, json or ndjson")
	fs.StringVar(&opts.logLevel, "log.level", "info", "Log level: debug, info, warn or error")
	fs.StringVar(&opts.logFormat, "log.format", "logfmt", "Log format: logfmt or json")

	return cmd
}

func runConvert(fs *pflag.FlagSet, opts *options, src string, stdin io.Reader, stdout, stderr io.Writer) (err error) {
	cfg, err := config.LoadConfig(opts.configFile, opts.expandEnv)
	if err != nil {
		return err
	}
	applyFlags(fs, opts, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := logging.New(stderr, cfg.Log)
	if err != nil {
		return err
	}

	data, err := readInput(src, stdin, cfg.Input.Format)
	if err != nil {
		return err
	}
	level.Debug(logger).Log("msg", "decoded input", "source", src, "records", countRecords(data))

	// Convert before touching the output so a rejected request leaves no file behind.
	csv, err := jsoncsv.Convert(cfg.Params(data))
	if err != nil {
		return err
	}

	dst, closeOutput, err := openOutput(opts.output, stdout)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, closeOutput())
	}()

	n, err := io.WriteString(dst, csv)
	if err != nil {
		return errors.Wrap(err, "failed to write output")
	}

	logConverted(logger, src, opts.output, countRecords(data), n)
	return nil
}

// applyFlags copies explicitly set flags over cfg.
func applyFlags(fs *pflag.FlagSet, opts *options, cfg *config.Config) {
	if fs.Changed("fields") {
		cfg.Fields = opts.fields
	}
	if fs.Changed("field-names") {
		cfg.FieldNames = opts.fieldNames
	}
	if fs.Changed("delimiter") {
		cfg.Delimiter = config.Unescape(opts.delimiter)
	}
	if fs.Changed("eol") {
		cfg.EOL = config.Unescape(opts.eol)
	}
	if fs.Changed("quote") {
		q := opts.quote
		cfg.Quote = &q
	}
	if fs.Changed("no-header") {
		include := !opts.noHeader
		cfg.IncludeHeader = &include
	}
	if fs.Changed("line-break") {
		cfg.LineBreak = opts.lineBreak
	}
	if fs.Changed("input-format") {
		cfg.Input.Format = opts.inputFormat
	}
	if fs.Changed("log.level") {
		cfg.Log.Level = opts.logLevel
	}
	if fs.Changed("log.format") {
		cfg.Log.Format = opts.logFormat
	}
}

func readInput(src string, stdin io.Reader, formatName string) (any, error) {
	format, err := input.ParseFormat(formatName)
	if err != nil {
		return nil, err
	}

	r := stdin
	if src != "-" {
		f, err := os.Open(src)
		if err != nil {
			return nil, errors.Wrap(err, "failed to open input")
		}
		defer f.Close()
		r = f
	}

	data, err := input.Decode(r, format)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", displayName(src))
	}
	return data, nil
}

// openOutput returns the destination and a func that releases it.
func openOutput(path string, stdout io.Writer) (io.Writer, func() error, error) {
	if path == "" || path == "-" {
		return stdout, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to create output file")
	}
	return f, f.Close, nil
}

func logConverted(logger kitlog.Logger, src, dst string, records, written int) {
	level.Info(logger).Log(
		"msg", "converted records",
		"source", displayName(src),
		"output", displayName(dst),
		"records", records,
		"bytes", humanize.Bytes(uint64(written)),
	)
}

func displayName(path string) string {
	if path == "" || path == "-" {
		return "stdio"
	}
	return path
}

func countRecords(data any) int {
	if records, ok := data.([]any); ok {
		return len(records)
	}
	return 1
}
