package jsoncsv

import (
	"encoding"
	"encoding/json"
	"math"
	"reflect"
	"strconv"
	"strings"
	"unicode/utf8"
	"unsafe"

	jsoniter "github.com/json-iterator/go"
	"github.com/modern-go/reflect2"
)

// valueJSON renders values the way a JSON encoder would, without HTML escaping.
// Floats and strings nested in maps, slices and structs are rendered exactly
// like top-level cell values.
var valueJSON = newValueAPI()

// stringJSON only ever encodes plain strings for stringEncoder.
var stringJSON = jsoniter.Config{EscapeHTML: false}.Froze()

func newValueAPI() jsoniter.API {
	api := jsoniter.Config{
		EscapeHTML:  false,
		SortMapKeys: true,
	}.Froze()
	api.RegisterExtension(&cellExtension{})
	return api
}

var (
	jsonMarshalerType = reflect.TypeOf((*json.Marshaler)(nil)).Elem()
	textMarshalerType = reflect.TypeOf((*encoding.TextMarshaler)(nil)).Elem()
)

// cellExtension swaps in float and string encoders for every type of those
// kinds that does not carry its own marshaling.
type cellExtension struct {
	jsoniter.DummyExtension
}

func (e *cellExtension) CreateEncoder(typ reflect2.Type) jsoniter.ValEncoder {
	t := typ.Type1()
	if marshalsItself(t) {
		return nil
	}
	switch t.Kind() {
	case reflect.Float64:
		return floatEncoder{bits: 64}
	case reflect.Float32:
		return floatEncoder{bits: 32}
	case reflect.String:
		return stringEncoder{}
	}
	return nil
}

func marshalsItself(t reflect.Type) bool {
	switch t {
	case reflect.TypeOf(json.Number("")), reflect.TypeOf(jsoniter.Number("")):
		return true
	}
	pt := reflect.PointerTo(t)
	return t.Implements(jsonMarshalerType) || t.Implements(textMarshalerType) ||
		pt.Implements(jsonMarshalerType) || pt.Implements(textMarshalerType)
}

type floatEncoder struct {
	bits int
}

func (e floatEncoder) value(ptr unsafe.Pointer) float64 {
	if e.bits == 32 {
		return float64(*(*float32)(ptr))
	}
	return *(*float64)(ptr)
}

func (e floatEncoder) IsEmpty(ptr unsafe.Pointer) bool {
	return e.value(ptr) == 0
}

func (e floatEncoder) Encode(ptr unsafe.Pointer, stream *jsoniter.Stream) {
	stream.WriteRaw(formatFloat(e.value(ptr), e.bits))
}

type stringEncoder struct{}

func (stringEncoder) IsEmpty(ptr unsafe.Pointer) bool {
	return *(*string)(ptr) == ""
}

func (stringEncoder) Encode(ptr unsafe.Pointer, stream *jsoniter.Stream) {
	stream.WriteRaw(encodeString(*(*string)(ptr)))
}

// encodeString returns s as a JSON string literal. Invalid UTF-8 bytes become
// U+FFFD and backspace and form feed use their short escapes.
func encodeString(s string) string {
	enc, err := stringJSON.MarshalToString(toValidUTF8(s))
	if err != nil {
		// plain strings always encode
		return `""`
	}
	return shortEscapes(enc)
}

// toValidUTF8 replaces every invalid byte with U+FFFD.
func toValidUTF8(s string) string {
	if utf8.ValidString(s) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + 8)
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && size == 1 {
			b.WriteRune(utf8.RuneError)
		} else {
			b.WriteString(s[i : i+size])
		}
		i += size
	}
	return b.String()
}

// shortEscapes rewrites \u0008 and \u000c in an encoded string to \b and \f.
func shortEscapes(enc string) string {
	if !strings.Contains(enc, `\u000`) {
		return enc
	}
	var b strings.Builder
	b.Grow(len(enc))
	for i := 0; i < len(enc); i++ {
		if enc[i] != '\\' || i+1 == len(enc) {
			b.WriteByte(enc[i])
			continue
		}
		switch {
		case strings.HasPrefix(enc[i:], `\u0008`):
			b.WriteString(`\b`)
			i += 5
		case strings.HasPrefix(enc[i:], `\u000c`):
			b.WriteString(`\f`)
			i += 5
		default:
			b.WriteString(enc[i : i+2])
			i++
		}
	}
	return b.String()
}

// stringify renders v in its canonical JSON form. quoted reports whether the
// text is string-like and must be wrapped in the quote string.
// ok is false for values the encoder cannot represent.
func stringify(v any) (text string, quoted bool, ok bool) {
	switch x := v.(type) {
	case nil:
		return "null", false, true
	case string:
		return jsonStringBody(encodeString(x)), true, true
	case bool:
		return strconv.FormatBool(x), false, true
	case json.Number:
		return x.String(), false, true
	case float64:
		return formatFloat(x, 64), false, true
	case float32:
		return formatFloat(float64(x), 32), false, true
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		s, err := valueJSON.MarshalToString(x)
		return s, false, err == nil
	}

	s, err := valueJSON.MarshalToString(v)
	if err != nil {
		return "", false, false
	}
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		// Types with custom marshalers such as time.Time encode to JSON strings.
		return jsonStringBody(s), true, true
	}
	switch s {
	case "null", "true", "false":
		return s, false, true
	}
	if s[0] == '{' || s[0] == '[' {
		return s, true, true
	}
	return s, false, true
}

// jsonStringBody strips the surrounding quotes of an encoded JSON string and
// turns `\"` back into `"`. Other escape sequences are kept as encoded.
func jsonStringBody(enc string) string {
	return strings.ReplaceAll(enc[1:len(enc)-1], `\"`, `"`)
}

// formatFloat matches JSON number output; non-finite values become null.
func formatFloat(f float64, bits int) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "null"
	}
	abs := math.Abs(f)
	format := byte('f')
	if abs != 0 && (abs < 1e-6 || abs >= 1e21) {
		format = 'e'
	}
	s := strconv.FormatFloat(f, format, -1, bits)
	if format == 'e' {
		// clean up e-09 to e-9
		n := len(s)
		if n >= 4 && s[n-4] == 'e' && s[n-3] == '-' && s[n-2] == '0' {
			s = s[:n-2] + s[n-1:]
		}
	}
	return s
}

// quoteCell wraps text in quote, doubling every occurrence of quote inside it.
// An empty quote leaves text untouched.
func quoteCell(text, quote string) string {
	if quote == "" {
		return text
	}
	var b strings.Builder
	b.Grow(len(text) + 2*len(quote))
	b.WriteString(quote)
	b.WriteString(strings.ReplaceAll(text, quote, quote+quote))
	b.WriteString(quote)
	return b.String()
}

// renderCell stringifies v and applies quote substitution.
func renderCell(v any, quote string) string {
	text, quoted, ok := stringify(v)
	if !ok {
		return ""
	}
	if quoted {
		return quoteCell(text, quote)
	}
	return text
}
