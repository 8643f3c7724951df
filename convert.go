package jsoncsv

import (
	"io"
	"strings"
)

// Convert renders p as CSV text.
//
// The request is validated first; a *ValidationError stops the conversion
// before any output is produced. Records without properties (nil, empty maps,
// values that are not maps or structs) are skipped. Fields missing from a
// record render as empty cells.
func Convert(p Params) (string, error) {
	var sb strings.Builder
	if err := Encode(&sb, p); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// ConvertFunc is the callback form of Convert. done is invoked exactly once,
// before ConvertFunc returns, with either an error or the CSV text.
func ConvertFunc(p Params, done func(err error, csv string)) {
	out, err := Convert(p)
	if done != nil {
		done(err, out)
	}
}

// Encode writes the CSV rendering of p to w. Nothing is written when p fails validation.
func Encode(w io.Writer, p Params) error {
	req, err := p.normalize()
	if err != nil {
		return err
	}

	cw := NewWriter(w)
	cw.Delimiter = req.delimiter
	cw.EOL = req.eol
	cw.LineBreak = req.lineBreak

	if err := cw.WriteHeader(buildTitle(req)); err != nil {
		return err
	}
	for _, rec := range req.records {
		cells, ok := buildRow(req, rec)
		if !ok {
			continue
		}
		if err := cw.Write(cells); err != nil {
			return err
		}
	}
	return cw.Flush()
}

// buildTitle renders the header cells, or nil when the header is disabled.
func buildTitle(req *request) []string {
	if !req.includeHeader || len(req.fieldNames) == 0 {
		return nil
	}
	cells := make([]string, len(req.fieldNames))
	for i, name := range req.fieldNames {
		cells[i] = renderCell(name, req.quote)
	}
	return cells
}

// buildRow renders one record. ok is false when the record has no properties.
func buildRow(req *request, rec any) (cells []string, ok bool) {
	acc := accessorOf(rec)
	if acc == nil || len(acc.Keys()) == 0 {
		return nil, false
	}
	cells = make([]string, len(req.fields))
	for i, field := range req.fields {
		v, has := acc.Lookup(field)
		if !has {
			continue
		}
		cells[i] = renderCell(v, req.quote)
	}
	return cells, true
}
