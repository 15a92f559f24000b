package model

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/spf13/cast"

	"github.com/mesh-intelligence/larder/pkg/types"
)

// CastKind selects the encode/decode transform applied to one attribute
// field. Reads decode the storage representation lazily; writes encode the
// rich value eagerly, so the raw attribute store only ever holds storage
// representations for cast fields.
type CastKind string

// Supported cast kinds.
const (
	CastNone     CastKind = ""
	CastDateTime CastKind = "datetime"
	CastJSON     CastKind = "json"
	CastBool     CastKind = "bool"
	CastInt      CastKind = "int"
	CastDouble   CastKind = "double"
)

// TimeFormat is the canonical storage format for datetime-cast fields.
// Write-side casting normalizes every temporal value to this format.
const TimeFormat = time.RFC3339

// timeLayouts are the accepted read-side layouts, tried in order.
var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// castRead decodes a stored value according to kind. Only CastJSON can fail;
// every other kind degrades to best-effort or pass-through.
func castRead(kind CastKind, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	switch kind {
	case CastDateTime:
		return readTime(v), nil
	case CastJSON:
		return readJSON(v)
	case CastBool:
		return readBool(v), nil
	case CastInt:
		if n, err := cast.ToInt64E(v); err == nil {
			return n, nil
		}
		return v, nil
	case CastDouble:
		if f, err := cast.ToFloat64E(v); err == nil {
			return f, nil
		}
		return v, nil
	default:
		return v, nil
	}
}

// castWrite encodes a rich value for storage according to kind. Kinds other
// than datetime and json store values as given.
func castWrite(kind CastKind, v any) any {
	if v == nil {
		return nil
	}
	switch kind {
	case CastDateTime:
		return writeTime(v)
	case CastJSON:
		return writeJSON(v)
	default:
		return v
	}
}

// readTime returns a time.Time for rich temporal values and parseable
// strings, and the raw value otherwise.
func readTime(v any) any {
	switch t := v.(type) {
	case time.Time:
		return t
	case *time.Time:
		if t == nil {
			return nil
		}
		return *t
	case string:
		for _, layout := range timeLayouts {
			if parsed, err := time.Parse(layout, t); err == nil {
				return parsed
			}
		}
		return v
	default:
		return v
	}
}

// writeTime normalizes temporal values to the canonical string format.
// Parseable strings are reformatted; anything else is stored as given.
func writeTime(v any) any {
	switch t := v.(type) {
	case time.Time:
		return t.Format(TimeFormat)
	case *time.Time:
		if t == nil {
			return nil
		}
		return t.Format(TimeFormat)
	case string:
		for _, layout := range timeLayouts {
			if parsed, err := time.Parse(layout, t); err == nil {
				return parsed.Format(TimeFormat)
			}
		}
		return v
	default:
		return v
	}
}

// readJSON decodes a stored JSON string into structured data. Maps and
// slices pass through untouched. Malformed JSON is the one cast failure
// that propagates: it wraps types.ErrDecode.
func readJSON(v any) (any, error) {
	var raw []byte
	switch t := v.(type) {
	case map[string]any, []any:
		return t, nil
	case string:
		raw = []byte(t)
	case []byte:
		raw = t
	default:
		return v, nil
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrDecode, err)
	}
	return out, nil
}

// writeJSON encodes maps and slices to a JSON string immediately so the raw
// store never holds an un-encoded structure for a json-cast field. Strings
// and byte slices are assumed already encoded and pass through.
func writeJSON(v any) any {
	switch v.(type) {
	case string, []byte:
		return v
	}
	switch reflect.ValueOf(v).Kind() {
	case reflect.Map, reflect.Slice, reflect.Array:
		encoded, err := json.Marshal(v)
		if err != nil {
			return v
		}
		return string(encoded)
	default:
		return v
	}
}

// readBool coerces the multi-representation boolean encodings: native bool,
// the integer 1, and the case-insensitive string "true" all read as true.
func readBool(v any) any {
	switch t := v.(type) {
	case bool:
		return t
	case int:
		return t == 1
	case int32:
		return t == 1
	case int64:
		return t == 1
	case float64:
		return t == 1
	case string:
		return strings.EqualFold(t, "true")
	default:
		return v
	}
}
