// Package input decodes JSON and NDJSON documents into records for jsoncsv.
//
// Top-level objects become *Object values, which keep their keys in document
// order so that field discovery produces columns in the order a reader sees
// them in the file. Nested values decode to map[string]any and []any.
package input

import (
	"bytes"
	"io"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
)

// Format selects how a document is split into records.
type Format string

const (
	// FormatAuto treats a single top-level value as JSON and several as NDJSON.
	FormatAuto Format = "auto"
	// FormatJSON expects exactly one top-level value: an array of records or a single record.
	FormatJSON Format = "json"
	// FormatNDJSON treats every top-level value as one record.
	FormatNDJSON Format = "ndjson"
)

// ErrTrailingData is returned when bytes that do not start a value follow the
// last top-level value, and in FormatJSON mode when more than one top-level
// value is present.
var ErrTrailingData = errors.New("input: unexpected data after top-level value")

var api = jsoniter.ConfigCompatibleWithStandardLibrary

// ParseFormat validates a format name. The empty string selects FormatAuto.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatAuto, nil
	case FormatAuto, FormatJSON, FormatNDJSON:
		return f, nil
	default:
		return "", errors.Errorf("input: unknown format %q (want auto, json or ndjson)", s)
	}
}

// Decode reads r to EOF and returns the records it holds, ready to be used as jsoncsv.Params.Data.
//
// For FormatJSON (and FormatAuto with a single value) the returned value is
// either []any or a single record. For FormatNDJSON it is always []any.
func Decode(r io.Reader, format Format) (any, error) {
	values, err := readValues(r)
	if err != nil {
		return nil, err
	}

	switch format {
	case FormatNDJSON:
		return parseRecords(values)
	case FormatJSON, FormatAuto, "":
		if len(values) == 0 {
			return []any{}, nil
		}
		if len(values) > 1 {
			if format == FormatJSON {
				return nil, ErrTrailingData
			}
			return parseRecords(values)
		}
		return parseDocument(values[0])
	default:
		return nil, errors.Errorf("input: unknown format %q", format)
	}
}

// readValues splits the stream into raw top-level JSON values.
func readValues(r io.Reader) ([]jsoniter.RawMessage, error) {
	dec := api.NewDecoder(r)
	var values []jsoniter.RawMessage
	for dec.More() {
		var raw jsoniter.RawMessage
		if err := dec.Decode(&raw); err != nil {
			if err == io.EOF {
				break
			}
			return nil, errors.Wrapf(err, "input: decoding value %d", len(values)+1)
		}
		// the decoder reports a value cut short by EOF as success
		if !api.Valid(raw) {
			return nil, errors.Errorf("input: malformed value %d", len(values)+1)
		}
		values = append(values, raw)
	}

	// More stops at a stray ']' or '}' as well as at EOF
	rest, err := io.ReadAll(io.MultiReader(dec.Buffered(), r))
	if err != nil {
		return nil, errors.Wrap(err, "input: reading")
	}
	if rest = bytes.TrimSpace(rest); len(rest) > 0 {
		return nil, errors.Wrapf(ErrTrailingData, "unexpected %q after value %d", rest[0], len(values))
	}
	return values, nil
}

func parseRecords(values []jsoniter.RawMessage) ([]any, error) {
	records := make([]any, 0, len(values))
	for i, raw := range values {
		v, err := parseRecord(raw)
		if err != nil {
			return nil, errors.Wrapf(err, "line value %d", i+1)
		}
		records = append(records, v)
	}
	return records, nil
}

// parseDocument handles a single top-level value: arrays are expanded into records.
func parseDocument(raw jsoniter.RawMessage) (any, error) {
	iter := jsoniter.ParseBytes(api, raw)
	if iter.WhatIsNext() != jsoniter.ArrayValue {
		return parseRecord(raw)
	}

	records := []any{}
	iter.ReadArrayCB(func(it *jsoniter.Iterator) bool {
		records = append(records, readRecord(it))
		return it.Error == nil
	})
	if iter.Error != nil && iter.Error != io.EOF {
		return nil, errors.Wrap(iter.Error, "input: decoding array")
	}
	return records, nil
}

func parseRecord(raw jsoniter.RawMessage) (any, error) {
	iter := jsoniter.ParseBytes(api, raw)
	v := readRecord(iter)
	if iter.Error != nil && iter.Error != io.EOF {
		return nil, errors.Wrap(iter.Error, "input: decoding record")
	}
	return v, nil
}

// readRecord reads the next value, keeping key order when it is an object.
func readRecord(iter *jsoniter.Iterator) any {
	if iter.WhatIsNext() != jsoniter.ObjectValue {
		return iter.Read()
	}
	obj := newObject()
	iter.ReadObjectCB(func(it *jsoniter.Iterator, key string) bool {
		obj.set(key, it.Read())
		return it.Error == nil
	})
	return obj
}
