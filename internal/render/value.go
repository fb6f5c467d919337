// Package render converts manifest JSON documents into human-readable text
// representations and computes per-line fold metadata for collapsible viewers.
package render

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// Kind identifies the variant stored in a Value.
type Kind int

// Value kinds, covering every JSON-compatible shape a manifest may contain.
const (
	KindNull Kind = iota
	KindUndefined
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

// Member is a single key/value entry of an object. Members keep the order in
// which keys appeared in the source document.
type Member struct {
	Key   string
	Value Value
}

// Value is a tagged-variant representation of a JSON-compatible value.
// The zero value is null.
type Value struct {
	kind Kind
	b    bool
	// num holds the literal number text from the source document so that
	// re-encoding preserves the original spelling (e.g. "1.50", "1e3").
	num string
	str string
	arr []Value
	obj []Member
}

// Null returns the null value.
func Null() Value { return Value{kind: KindNull} }

// Undefined returns the undefined value. It never results from parsing JSON
// but can be constructed by callers assembling values programmatically.
func Undefined() Value { return Value{kind: KindUndefined} }

// Bool returns a boolean value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Number returns a numeric value from its literal JSON text.
func Number(literal string) Value { return Value{kind: KindNumber, num: literal} }

// Int returns a numeric value for n.
func Int(n int64) Value { return Number(fmt.Sprintf("%d", n)) }

// String returns a string value.
func String(s string) Value { return Value{kind: KindString, str: s} }

// Array returns an array value with the given elements.
func Array(elems ...Value) Value {
	if elems == nil {
		elems = []Value{}
	}
	return Value{kind: KindArray, arr: elems}
}

// Object returns an object value with the given members, preserving order.
func Object(members ...Member) Value {
	if members == nil {
		members = []Member{}
	}
	return Value{kind: KindObject, obj: members}
}

// Kind returns the variant stored in v.
func (v Value) Kind() Kind { return v.kind }

// IsEmptyContainer reports whether v is an empty array or empty object.
func (v Value) IsEmptyContainer() bool {
	switch v.kind {
	case KindArray:
		return len(v.arr) == 0
	case KindObject:
		return len(v.obj) == 0
	default:
		return false
	}
}

// Members returns the ordered members of an object value, or nil for other kinds.
func (v Value) Members() []Member {
	if v.kind != KindObject {
		return nil
	}
	return v.obj
}

// Elements returns the elements of an array value, or nil for other kinds.
func (v Value) Elements() []Value {
	if v.kind != KindArray {
		return nil
	}
	return v.arr
}

// ParseJSON decodes raw JSON into a Value, preserving object key order and the
// literal text of numbers. It fails on syntax errors and trailing content.
func ParseJSON(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	v, err := decodeValue(dec)
	if err != nil {
		return Value{}, err
	}

	// Reject trailing tokens after the first value.
	if _, err := dec.Token(); err != io.EOF {
		return Value{}, fmt.Errorf("unexpected trailing content in JSON document")
	}

	return v, nil
}

func decodeValue(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return Value{}, fmt.Errorf("failed to decode JSON token: %w", err)
	}
	return decodeFromToken(dec, tok)
}

func decodeFromToken(dec *json.Decoder, tok json.Token) (Value, error) {
	switch t := tok.(type) {
	case nil:
		return Null(), nil
	case bool:
		return Bool(t), nil
	case json.Number:
		return Number(t.String()), nil
	case string:
		return String(t), nil
	case json.Delim:
		switch t {
		case '{':
			return decodeObject(dec)
		case '[':
			return decodeArray(dec)
		default:
			return Value{}, fmt.Errorf("unexpected delimiter %q", t)
		}
	default:
		return Value{}, fmt.Errorf("unexpected JSON token %v", tok)
	}
}

func decodeObject(dec *json.Decoder) (Value, error) {
	members := []Member{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return Value{}, fmt.Errorf("failed to decode object key: %w", err)
		}
		key, ok := keyTok.(string)
		if !ok {
			return Value{}, fmt.Errorf("object key is not a string: %v", keyTok)
		}

		val, err := decodeValue(dec)
		if err != nil {
			return Value{}, err
		}
		members = append(members, Member{Key: key, Value: val})
	}

	// Consume the closing brace.
	if _, err := dec.Token(); err != nil {
		return Value{}, fmt.Errorf("failed to decode object end: %w", err)
	}

	return Object(members...), nil
}

func decodeArray(dec *json.Decoder) (Value, error) {
	elems := []Value{}
	for dec.More() {
		val, err := decodeValue(dec)
		if err != nil {
			return Value{}, err
		}
		elems = append(elems, val)
	}

	// Consume the closing bracket.
	if _, err := dec.Token(); err != nil {
		return Value{}, fmt.Errorf("failed to decode array end: %w", err)
	}

	return Array(elems...), nil
}

// FromAny converts a decoded interface value (as produced by encoding/json
// into any) to a Value. Map key order is not recoverable from Go maps, so
// callers holding raw JSON should prefer ParseJSON; FromAny serializes the
// value and re-parses it.
func FromAny(v any) (Value, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return Value{}, fmt.Errorf("value is not JSON-compatible: %w", err)
	}
	return ParseJSON(data)
}
