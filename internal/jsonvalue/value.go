// Package jsonvalue provides a structural JSON value type.
//
// A Value holds exactly one of the six JSON shapes (null, bool, number,
// string, array, object). It replaces type-erased `any` containers at the
// wire boundary so payload handling stays a matter of switching on Kind
// rather than runtime type inspection.
package jsonvalue

import (
	"bytes"
	"encoding/json"
	"fmt"
)

type Kind int

const (
	KindNull Kind = iota
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
	}
	return fmt.Sprintf("unknown(%d)", int(k))
}

// Value is a tagged union over the JSON shapes. The zero value is null.
type Value struct {
	kind Kind

	boolean bool
	// number keeps the original textual representation so round-tripping
	// does not lose precision on large integers.
	number json.Number
	str    string
	array  []Value
	object map[string]Value
}

func Null() Value                       { return Value{kind: KindNull} }
func Bool(b bool) Value                 { return Value{kind: KindBool, boolean: b} }
func Number(n float64) Value            { return Value{kind: KindNumber, number: json.Number(trimFloat(n))} }
func String(s string) Value             { return Value{kind: KindString, str: s} }
func Array(items ...Value) Value        { return Value{kind: KindArray, array: items} }
func Object(fields map[string]Value) Value { return Value{kind: KindObject, object: fields} }

func trimFloat(n float64) string {
	data, _ := json.Marshal(n)
	return string(data)
}

func (v Value) Kind() Kind   { return v.kind }
func (v Value) IsNull() bool { return v.kind == KindNull }

// AsBool returns the boolean payload; the second result reports whether the
// value actually is a bool. The other accessors follow the same shape.
func (v Value) AsBool() (bool, bool) {
	return v.boolean, v.kind == KindBool
}

func (v Value) AsNumber() (float64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	f, err := v.number.Float64()
	if err != nil {
		return 0, false
	}
	return f, true
}

func (v Value) AsString() (string, bool) {
	return v.str, v.kind == KindString
}

func (v Value) AsArray() ([]Value, bool) {
	return v.array, v.kind == KindArray
}

func (v Value) AsObject() (map[string]Value, bool) {
	return v.object, v.kind == KindObject
}

func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNull:
		return []byte("null"), nil
	case KindBool:
		return json.Marshal(v.boolean)
	case KindNumber:
		if v.number == "" {
			return []byte("0"), nil
		}
		return []byte(v.number), nil
	case KindString:
		return json.Marshal(v.str)
	case KindArray:
		if v.array == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.array)
	case KindObject:
		if v.object == nil {
			return []byte("{}"), nil
		}
		return json.Marshal(v.object)
	}
	return nil, fmt.Errorf("cannot marshal value of kind %s", v.kind)
}

func (v *Value) UnmarshalJSON(data []byte) error {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()

	var raw any
	if err := decoder.Decode(&raw); err != nil {
		return err
	}

	value, err := fromAny(raw)
	if err != nil {
		return err
	}
	*v = value
	return nil
}

func fromAny(raw any) (Value, error) {
	switch typed := raw.(type) {
	case nil:
		return Null(), nil
	case bool:
		return Bool(typed), nil
	case json.Number:
		return Value{kind: KindNumber, number: typed}, nil
	case string:
		return String(typed), nil
	case []any:
		items := make([]Value, 0, len(typed))
		for _, item := range typed {
			value, err := fromAny(item)
			if err != nil {
				return Value{}, err
			}
			items = append(items, value)
		}
		return Value{kind: KindArray, array: items}, nil
	case map[string]any:
		fields := make(map[string]Value, len(typed))
		for key, item := range typed {
			value, err := fromAny(item)
			if err != nil {
				return Value{}, err
			}
			fields[key] = value
		}
		return Value{kind: KindObject, object: fields}, nil
	}
	return Value{}, fmt.Errorf("unsupported JSON shape %T", raw)
}
