package jsoncsv

import (
	"reflect"
	"sort"
	"strings"
)

// Accessor resolves the properties of a single record.
type Accessor interface {
	// Keys lists the record's own properties in column discovery order.
	Keys() []string
	// Lookup returns the value stored under key and whether the record has it.
	Lookup(key string) (any, bool)
}

// Record is a map-backed Accessor. Keys are reported in sorted order.
type Record map[string]any

// Keys returns the record keys sorted lexically.
func (r Record) Keys() []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Lookup reports the value stored under key.
func (r Record) Lookup(key string) (any, bool) {
	v, ok := r[key]
	return v, ok
}

// accessorOf adapts rec to an Accessor. It returns nil for values without properties.
func accessorOf(rec any) Accessor {
	switch v := rec.(type) {
	case nil:
		return nil
	case Accessor:
		return v
	case map[string]any:
		return Record(v)
	}

	rv := reflect.ValueOf(rec)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String || rv.IsNil() {
			return nil
		}
		return mapAccessor{rv}
	case reflect.Struct:
		return newStructAccessor(rv)
	default:
		return nil
	}
}

// mapAccessor reads maps whose key kind is string, e.g. map[string]string.
type mapAccessor struct {
	rv reflect.Value
}

func (m mapAccessor) Keys() []string {
	keys := make([]string, 0, m.rv.Len())
	iter := m.rv.MapRange()
	for iter.Next() {
		keys = append(keys, iter.Key().String())
	}
	sort.Strings(keys)
	return keys
}

func (m mapAccessor) Lookup(key string) (any, bool) {
	v := m.rv.MapIndex(reflect.ValueOf(key).Convert(m.rv.Type().Key()))
	if !v.IsValid() {
		return nil, false
	}
	return v.Interface(), true
}

// structAccessor exposes exported struct fields under their csv or json tag name.
type structAccessor struct {
	rv    reflect.Value
	names []string
	index map[string]int
}

func newStructAccessor(rv reflect.Value) *structAccessor {
	rt := rv.Type()
	s := &structAccessor{rv: rv, index: make(map[string]int, rt.NumField())}
	for i := 0; i < rt.NumField(); i++ {
		sf := rt.Field(i)
		if !sf.IsExported() {
			continue
		}
		name, ok := fieldName(sf)
		if !ok {
			continue
		}
		if _, dup := s.index[name]; dup {
			continue
		}
		s.index[name] = i
		s.names = append(s.names, name)
	}
	return s
}

func (s *structAccessor) Keys() []string { return s.names }

func (s *structAccessor) Lookup(key string) (any, bool) {
	i, ok := s.index[key]
	if !ok {
		return nil, false
	}
	return s.rv.Field(i).Interface(), true
}

// fieldName resolves the column key of sf. The csv tag wins over the json tag.
func fieldName(sf reflect.StructField) (string, bool) {
	for _, tagKey := range []string{"csv", "json"} {
		tag, ok := sf.Tag.Lookup(tagKey)
		if !ok {
			continue
		}
		name, _, _ := strings.Cut(tag, ",")
		if name == "-" {
			return "", false
		}
		if name != "" {
			return name, true
		}
	}
	return sf.Name, true
}
