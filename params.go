package jsoncsv

import (
	"errors"
	"fmt"
	"reflect"
)

const (
	defaultDelimiter = ","
	defaultQuote     = `"`
)

// ErrFieldNamesLength is returned when FieldNames and Fields differ in length.
var ErrFieldNamesLength = errors.New("fieldNames and fields must be of equal length")

// ValidationError reports a conversion request that cannot be processed.
type ValidationError struct {
	Field string
	Err   error
}

// Error formats the validation failure with the offending parameter name.
func (e *ValidationError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("jsoncsv: invalid %s: %v", e.Field, e.Err)
}

// Unwrap returns the underlying Err so ValidationError participates in errors.Is.
func (e *ValidationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Params describes a single conversion.
type Params struct {
	// Data is a slice or array of records. Any other value is treated as a single record.
	Data any
	// Fields selects the record keys rendered as columns, in column order.
	// When nil, the keys of all records are used in first-seen order.
	Fields []string
	// FieldNames are the header labels. Defaults to Fields; must match its length when set.
	FieldNames []string
	// Delimiter separates columns. Default is ",".
	Delimiter string
	// EOL is appended to every data row. Default is empty.
	EOL string
	// Quote wraps string and nested values. Nil means `"`; an explicit empty string disables quoting.
	Quote *string
	// IncludeHeader emits the title row unless explicitly set to false.
	IncludeHeader *bool
	// LineBreak separates output lines. Default is the platform line break.
	LineBreak string
}

// String returns a pointer to s, for use with Params.Quote.
func String(s string) *string { return &s }

// Bool returns a pointer to b, for use with Params.IncludeHeader.
func Bool(b bool) *bool { return &b }

// request is a fully defaulted Params.
type request struct {
	records       []any
	fields        []string
	fieldNames    []string
	delimiter     string
	eol           string
	quote         string
	lineBreak     string
	includeHeader bool
}

func (p Params) normalize() (*request, error) {
	req := &request{
		records: toRecords(p.Data),
		fields:  p.Fields,
	}
	if req.fields == nil {
		req.fields = discoverFields(req.records)
	}

	if p.FieldNames != nil && len(p.FieldNames) != len(req.fields) {
		return nil, &ValidationError{Field: "fieldNames", Err: ErrFieldNamesLength}
	}
	req.fieldNames = p.FieldNames
	if req.fieldNames == nil {
		req.fieldNames = req.fields
	}

	req.delimiter = p.Delimiter
	if req.delimiter == "" {
		req.delimiter = defaultDelimiter
	}
	req.eol = p.EOL

	req.quote = defaultQuote
	if p.Quote != nil {
		req.quote = *p.Quote
	}

	req.lineBreak = p.LineBreak
	if req.lineBreak == "" {
		req.lineBreak = platformLineBreak
	}

	req.includeHeader = p.IncludeHeader == nil || *p.IncludeHeader
	return req, nil
}

// toRecords expands slices and arrays into their elements and wraps anything else.
func toRecords(data any) []any {
	switch v := data.(type) {
	case []any:
		return v
	case []map[string]any:
		out := make([]any, len(v))
		for i := range v {
			out[i] = v[i]
		}
		return out
	case []byte, string:
		return []any{data}
	}

	rv := reflect.ValueOf(data)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return []any{data}
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out
}

// discoverFields returns the union of record keys in first-seen order.
func discoverFields(records []any) []string {
	fields := []string{}
	seen := make(map[string]struct{})
	for _, rec := range records {
		acc := accessorOf(rec)
		if acc == nil {
			continue
		}
		for _, key := range acc.Keys() {
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			fields = append(fields, key)
		}
	}
	return fields
}
