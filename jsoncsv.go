// # jsoncsv: A Small Record-to-CSV Converter for Go
//
// jsoncsv turns an in-memory collection of records (maps, structs, or any type implementing Accessor) into CSV text in a single synchronous call. It picks the requested fields in column order, renders every value in its canonical JSON form, and rewrites quoting so the output stays valid CSV for any configured quote string.
//
// # Features
//
// - `Convert`, `ConvertFunc`, and `Encode` entry points sharing one validate, title, rows pipeline.
// - Configurable delimiter, quote string, per-row suffix (`EOL`), line break, and optional header row.
// - Display names for header columns, validated against the field list via `ValidationError`.
// - Field discovery from the records themselves when no field list is given.
// - Buffered `Writer` for emitting pre-rendered cells with the same line joining rules.
//
// # Getting Started
//
//	out, err := jsoncsv.Convert(jsoncsv.Params{
//		Data:   []map[string]any{{"a": 1, "b": "x"}},
//		Fields: []string{"a", "b"},
//	})
//
// The command in `cmd/json2csv` wraps the library for JSON and NDJSON files.
package jsoncsv
