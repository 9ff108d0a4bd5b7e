// Package jsonvalue provides a tagged union over the JSON primitive kinds,
// used to carry API response payloads through validation and reporting.
package jsonvalue

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Kind is the JSON kind held by a Value.
type Kind int

const (
	KindInvalid Kind = iota
	KindNull
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "invalid"
	}
}

// Value is an immutable JSON value. The zero Value is invalid and is what
// callers get when nothing has been parsed yet.
type Value struct {
	kind   Kind
	b      bool
	num    json.Number
	str    string
	array  []Value
	object map[string]Value
}

func Null() Value { return Value{kind: KindNull} }
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }
func String(s string) Value { return Value{kind: KindString, str: s} }
func Array(vs ...Value) Value { return Value{kind: KindArray, array: append([]Value{}, vs...)} }

// Number returns a number value. NaN and infinities are not representable in JSON
// and become null.
func Number(f float64) Value {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Null()
	}
	return Value{kind: KindNumber, num: json.Number(strconv.FormatFloat(f, 'f', -1, 64))}
}

// Object returns an object value holding a copy of fields.
func Object(fields map[string]Value) Value {
	copied := make(map[string]Value, len(fields))
	for k, v := range fields {
		copied[k] = v
	}
	return Value{kind: KindObject, object: copied}
}

// Parse decodes data as exactly one JSON document.
func Parse(data []byte) (Value, error) {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()

	var raw any
	if err := decoder.Decode(&raw); err != nil {
		return Value{}, fmt.Errorf("decoder.Decode > %w", err)
	}
	if _, err := decoder.Token(); !errors.Is(err, io.EOF) {
		return Value{}, fmt.Errorf("unexpected data after the JSON document")
	}
	return FromAny(raw)
}

// FromAny converts a decoded Go value into a Value. Only JSON-serializable
// shapes are accepted.
func FromAny(raw any) (Value, error) {
	switch v := raw.(type) {
	case nil:
		return Null(), nil
	case Value:
		return v, nil
	case bool:
		return Bool(v), nil
	case string:
		return String(v), nil
	case json.Number:
		if _, err := v.Float64(); err != nil {
			return Value{}, fmt.Errorf("invalid number %q: %w", v, err)
		}
		return Value{kind: KindNumber, num: v}, nil
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Value{}, fmt.Errorf("number %v is not representable in JSON", v)
		}
		return Number(v), nil
	case float32:
		return FromAny(float64(v))
	case int:
		return Value{kind: KindNumber, num: json.Number(strconv.Itoa(v))}, nil
	case int32:
		return Value{kind: KindNumber, num: json.Number(strconv.FormatInt(int64(v), 10))}, nil
	case int64:
		return Value{kind: KindNumber, num: json.Number(strconv.FormatInt(v, 10))}, nil
	case uint64:
		return Value{kind: KindNumber, num: json.Number(strconv.FormatUint(v, 10))}, nil
	case []any:
		items := make([]Value, 0, len(v))
		for i, item := range v {
			converted, err := FromAny(item)
			if err != nil {
				return Value{}, fmt.Errorf("[%d]: %w", i, err)
			}
			items = append(items, converted)
		}
		return Value{kind: KindArray, array: items}, nil
	case map[string]any:
		fields := make(map[string]Value, len(v))
		for key, item := range v {
			converted, err := FromAny(item)
			if err != nil {
				return Value{}, fmt.Errorf("%s: %w", key, err)
			}
			fields[key] = converted
		}
		return Value{kind: KindObject, object: fields}, nil
	default:
		return Value{}, fmt.Errorf("unsupported type %T", raw)
	}
}

func (v Value) Kind() Kind { return v.kind }
func (v Value) IsValid() bool { return v.kind != KindInvalid }
func (v Value) IsNull() bool { return v.kind == KindNull }
func (v Value) IsObject() bool { return v.kind == KindObject }
func (v Value) Bool() bool { return v.b }
func (v Value) Str() string { return v.str }
func (v Value) Items() []Value { return append([]Value{}, v.array...) }

// Float returns the numeric value, or 0 when v is not a number.
func (v Value) Float() float64 {
	f, _ := v.num.Float64()
	return f
}

// Field returns the member called name of an object value.
func (v Value) Field(name string) (Value, bool) {
	if v.kind != KindObject {
		return Value{}, false
	}
	field, ok := v.object[name]
	return field, ok
}

// Keys returns the sorted member names of an object value.
func (v Value) Keys() []string {
	keys := make([]string, 0, len(v.object))
	for k := range v.object {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Len is the number of members of an object or items of an array, otherwise 0.
func (v Value) Len() int {
	switch v.kind {
	case KindObject:
		return len(v.object)
	case KindArray:
		return len(v.array)
	default:
		return 0
	}
}

// Lookup resolves a dotted path such as "address.city" or "items.0.id".
// A path segment addressing an array must be a decimal index. Object keys
// may contain dots themselves: the longest key matching a prefix of the
// remaining path is tried first, so {"user.name": ...} resolves "user.name".
func (v Value) Lookup(path string) (Value, bool) {
	if path == "" {
		return Value{}, false
	}
	switch v.kind {
	case KindObject:
		if field, ok := v.object[path]; ok {
			return field, true
		}
		for i := strings.LastIndexByte(path, '.'); i > 0; i = strings.LastIndexByte(path[:i], '.') {
			field, ok := v.object[path[:i]]
			if !ok {
				continue
			}
			if found, ok := field.Lookup(path[i+1:]); ok {
				return found, true
			}
		}
		return Value{}, false
	case KindArray:
		segment, rest, nested := strings.Cut(path, ".")
		index, err := strconv.Atoi(segment)
		if err != nil || index < 0 || index >= len(v.array) {
			return Value{}, false
		}
		if !nested {
			return v.array[index], true
		}
		return v.array[index].Lookup(rest)
	default:
		return Value{}, false
	}
}

// MissingFields returns the entries of fields that Lookup cannot resolve,
// preserving the order given by the caller.
func (v Value) MissingFields(fields []string) []string {
	var missing []string
	for _, field := range fields {
		if _, ok := v.Lookup(field); !ok {
			missing = append(missing, field)
		}
	}
	return missing
}

// Interface converts v back into plain Go values.
func (v Value) Interface() any {
	switch v.kind {
	case KindBool:
		return v.b
	case KindNumber:
		return v.num
	case KindString:
		return v.str
	case KindArray:
		items := make([]any, 0, len(v.array))
		for _, item := range v.array {
			items = append(items, item.Interface())
		}
		return items
	case KindObject:
		fields := make(map[string]any, len(v.object))
		for k, item := range v.object {
			fields[k] = item.Interface()
		}
		return fields
	default:
		return nil
	}
}

func (v Value) MarshalJSON() ([]byte, error) {
	if v.kind == KindInvalid {
		return []byte("null"), nil
	}
	return json.Marshal(v.Interface())
}

func (v *Value) UnmarshalJSON(data []byte) error {
	parsed, err := Parse(data)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// UnmarshalYAML lets suite files embed JSON-like values.
func (v *Value) UnmarshalYAML(unmarshal func(any) error) error {
	var raw any
	if err := unmarshal(&raw); err != nil {
		return err
	}
	parsed, err := FromAny(normalizeYAML(raw))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// String renders v as compact JSON.
func (v Value) String() string {
	data, err := v.MarshalJSON()
	if err != nil {
		return fmt.Sprintf("<invalid json: %v>", err)
	}
	return string(data)
}

func normalizeYAML(raw any) any {
	switch v := raw.(type) {
	case map[string]any:
		for k, item := range v {
			v[k] = normalizeYAML(item)
		}
		return v
	case map[any]any:
		fields := make(map[string]any, len(v))
		for k, item := range v {
			fields[fmt.Sprint(k)] = normalizeYAML(item)
		}
		return fields
	case []any:
		for i, item := range v {
			v[i] = normalizeYAML(item)
		}
		return v
	default:
		return raw
	}
}
