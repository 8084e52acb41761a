// Package jsonval is a small tagged-union representation of a JSON document.
//
// Marketplace responses have no stable schema, so instead of decoding into
// map[string]any and type-switching at every call site the services work on
// a Value that is exactly one of null, bool, number, string, array or
// object. Objects keep their key order so walks over a document and
// re-encoding it for debug output are deterministic.
package jsonval

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
)

// Kind identifies which variant a Value holds.
type Kind uint8

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
	default:
		return "unknown"
	}
}

// Member is one key/value pair of an object, in document order.
type Member struct {
	Key   string
	Value Value
}

// Value is a decoded JSON value. The zero Value is null.
type Value struct {
	kind    Kind
	boolean bool
	number  float64
	literal string
	str     string
	array   []Value
	object  []Member
}

// Null returns the null value.
func Null() Value { return Value{} }

func BoolValue(b bool) Value { return Value{kind: KindBool, boolean: b} }

func NumberValue(f float64) Value {
	return Value{kind: KindNumber, number: f, literal: strconv.FormatFloat(f, 'f', -1, 64)}
}

func StringValue(s string) Value { return Value{kind: KindString, str: s} }

func ArrayValue(items ...Value) Value {
	if items == nil {
		items = []Value{}
	}
	return Value{kind: KindArray, array: items}
}

func ObjectValue(members ...Member) Value {
	if members == nil {
		members = []Member{}
	}
	return Value{kind: KindObject, object: members}
}

// Parse decodes a single JSON document. Anything after the top-level value
// other than whitespace is an error.
func Parse(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	v, err := decodeValue(dec)
	if err != nil {
		return Value{}, err
	}

	if _, err := dec.Token(); err != io.EOF {
		if err == nil {
			return Value{}, errors.New("jsonval: unexpected data after top-level value")
		}
		return Value{}, err
	}
	return v, nil
}

func decodeValue(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return Value{}, err
	}

	switch t := tok.(type) {
	case nil:
		return Null(), nil
	case bool:
		return BoolValue(t), nil
	case string:
		return StringValue(t), nil
	case json.Number:
		// Out of range literals become ±Inf; the literal is kept for Text.
		f, err := t.Float64()
		if err != nil && !errors.Is(err, strconv.ErrRange) {
			return Value{}, fmt.Errorf("jsonval: number %q: %w", t.String(), err)
		}
		return Value{kind: KindNumber, number: f, literal: t.String()}, nil
	case json.Delim:
		switch t {
		case '[':
			items := []Value{}
			for dec.More() {
				item, err := decodeValue(dec)
				if err != nil {
					return Value{}, err
				}
				items = append(items, item)
			}
			if _, err := dec.Token(); err != nil {
				return Value{}, err
			}
			return Value{kind: KindArray, array: items}, nil
		case '{':
			members := []Member{}
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return Value{}, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return Value{}, fmt.Errorf("jsonval: object key is %T, not string", keyTok)
				}
				item, err := decodeValue(dec)
				if err != nil {
					return Value{}, err
				}
				members = append(members, Member{Key: key, Value: item})
			}
			if _, err := dec.Token(); err != nil {
				return Value{}, err
			}
			return Value{kind: KindObject, object: members}, nil
		}
	}

	return Value{}, fmt.Errorf("jsonval: unexpected token %v", tok)
}

func (v Value) Kind() Kind { return v.kind }

func (v Value) IsNull() bool { return v.kind == KindNull }

func (v Value) AsBool() (bool, bool) {
	return v.boolean, v.kind == KindBool
}

func (v Value) AsNumber() (float64, bool) {
	return v.number, v.kind == KindNumber
}

func (v Value) AsString() (string, bool) {
	return v.str, v.kind == KindString
}

// AsArray returns the elements of an array value. The slice is shared with
// the Value and must not be modified.
func (v Value) AsArray() ([]Value, bool) {
	return v.array, v.kind == KindArray
}

// AsObject returns the members of an object value in document order. The
// slice is shared with the Value and must not be modified.
func (v Value) AsObject() ([]Member, bool) {
	return v.object, v.kind == KindObject
}

// Get looks up key in an object. With duplicate keys the first one wins.
func (v Value) Get(key string) (Value, bool) {
	if v.kind != KindObject {
		return Value{}, false
	}
	for _, m := range v.object {
		if m.Key == key {
			return m.Value, true
		}
	}
	return Value{}, false
}

// Path follows a chain of object keys, e.g. Path("data", "items").
func (v Value) Path(keys ...string) (Value, bool) {
	cur := v
	for _, k := range keys {
		next, ok := cur.Get(k)
		if !ok {
			return Value{}, false
		}
		cur = next
	}
	return cur, true
}

// Keys returns the object's keys in document order, or nil for non-objects.
func (v Value) Keys() []string {
	if v.kind != KindObject {
		return nil
	}
	keys := make([]string, 0, len(v.object))
	for _, m := range v.object {
		keys = append(keys, m.Key)
	}
	return keys
}

// Len is the number of elements or members; zero for scalars.
func (v Value) Len() int {
	switch v.kind {
	case KindArray:
		return len(v.array)
	case KindObject:
		return len(v.object)
	default:
		return 0
	}
}

// Text renders scalars as plain text: strings as-is, numbers by their
// original literal (so 135232 stays "135232"), booleans as true/false.
// Null, arrays and objects give "".
func (v Value) Text() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		if v.literal != "" {
			return v.literal
		}
		return strconv.FormatFloat(v.number, 'f', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.boolean)
	default:
		return ""
	}
}

// Walk visits v and every nested value depth-first in document order.
// A node is visited before its children. Returning false from fn skips
// the children of that node.
func (v Value) Walk(fn func(Value) bool) {
	if !fn(v) {
		return
	}
	switch v.kind {
	case KindArray:
		for _, item := range v.array {
			item.Walk(fn)
		}
	case KindObject:
		for _, m := range v.object {
			m.Value.Walk(fn)
		}
	}
}

func (v Value) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := v.encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (v *Value) UnmarshalJSON(data []byte) error {
	parsed, err := Parse(data)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

func (v Value) encode(buf *bytes.Buffer) error {
	switch v.kind {
	case KindNull:
		buf.WriteString("null")
	case KindBool:
		buf.WriteString(strconv.FormatBool(v.boolean))
	case KindNumber:
		buf.WriteString(v.Text())
	case KindString:
		b, err := json.Marshal(v.str)
		if err != nil {
			return err
		}
		buf.Write(b)
	case KindArray:
		buf.WriteByte('[')
		for i, item := range v.array {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := item.encode(buf); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case KindObject:
		buf.WriteByte('{')
		for i, m := range v.object {
			if i > 0 {
				buf.WriteByte(',')
			}
			key, err := json.Marshal(m.Key)
			if err != nil {
				return err
			}
			buf.Write(key)
			buf.WriteByte(':')
			if err := m.Value.encode(buf); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	default:
		return fmt.Errorf("jsonval: cannot encode kind %d", v.kind)
	}
	return nil
}
