// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package record

import (
	"bytes"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/DevonJames/oip-arweave-indexer-sub000/fault"
)

// Kind - the element type of a field
type Kind string

// field kinds
const (
	KindString    Kind = "string"
	KindLong      Kind = "long"
	KindFloat     Kind = "float"
	KindBool      Kind = "bool"
	KindEnum      Kind = "enum"
	KindReference Kind = "dref"
)

// Valid - true for a known kind
func (k Kind) Valid() bool {
	switch k {
	case KindString, KindLong, KindFloat, KindBool, KindEnum, KindReference:
		return true
	default:
		return false
	}
}

// EnumValue - selected entry of an enumeration
type EnumValue struct {
	Code  string `json:"code"`
	Label string `json:"label"`
}

// Reference - a DID, optionally with the referenced record inlined
type Reference struct {
	DID    string  `json:"did"`
	Record *Record `json:"record,omitempty"`
}

// Value - one element of a field; only the member matching the
// field's kind is meaningful
type Value struct {
	String    string
	Long      int64
	Float     float64
	Bool      bool
	Enum      EnumValue
	Reference Reference
}

// Field - a named, typed field of a section
//
// single valued fields hold exactly one value
type Field struct {
	Name     string
	Kind     Kind
	Repeated bool
	Values   []Value
}

// Value - the first (or only) value
func (f *Field) Value() Value {
	if 0 == len(f.Values) {
		return Value{}
	}
	return f.Values[0]
}

// Plain - the value as a plain Go value, a slice for repeated fields
func (f *Field) Plain() interface{} {
	if !f.Repeated {
		return plain(f.Kind, f.Value())
	}
	list := make([]interface{}, len(f.Values))
	for i, v := range f.Values {
		list[i] = plain(f.Kind, v)
	}
	return list
}

func plain(kind Kind, v Value) interface{} {
	switch kind {
	case KindString:
		return v.String
	case KindLong:
		return v.Long
	case KindFloat:
		return v.Float
	case KindBool:
		return v.Bool
	case KindEnum:
		return v.Enum.Label
	case KindReference:
		if nil != v.Reference.Record {
			return v.Reference.Record.Expanded()
		}
		return v.Reference.DID
	default:
		return nil
	}
}

// storage form of a field
type fieldJSON struct {
	Name     string          `json:"name"`
	Kind     Kind            `json:"type"`
	Repeated bool            `json:"repeated,omitempty"`
	Value    json.RawMessage `json:"value"`
}

// MarshalJSON - store with the kind so the value can be decoded exactly
func (f Field) MarshalJSON() ([]byte, error) {
	var v interface{}
	if f.Repeated {
		list := make([]interface{}, len(f.Values))
		for i, e := range f.Values {
			list[i] = encodeValue(f.Kind, e)
		}
		v = list
	} else {
		v = encodeValue(f.Kind, f.Value())
	}
	value, err := json.Marshal(v)
	if nil != err {
		return nil, err
	}
	return json.Marshal(fieldJSON{
		Name:     f.Name,
		Kind:     f.Kind,
		Repeated: f.Repeated,
		Value:    value,
	})
}

// UnmarshalJSON - inverse of MarshalJSON
func (f *Field) UnmarshalJSON(data []byte) error {
	var fj fieldJSON
	err := json.Unmarshal(data, &fj)
	if nil != err {
		return err
	}
	if !fj.Kind.Valid() {
		return fmt.Errorf("field: %q kind: %q: %w", fj.Name, fj.Kind, fault.ErrFieldTypeUnknown)
	}

	f.Name = fj.Name
	f.Kind = fj.Kind
	f.Repeated = fj.Repeated

	if !fj.Repeated {
		v, err := decodeValue(fj.Kind, fj.Value)
		if nil != err {
			return fmt.Errorf("field: %q: %w", fj.Name, err)
		}
		f.Values = []Value{v}
		return nil
	}

	var raw []json.RawMessage
	err = json.Unmarshal(fj.Value, &raw)
	if nil != err {
		return fmt.Errorf("field: %q: %w", fj.Name, fault.ErrFieldTypeMismatch)
	}
	f.Values = make([]Value, len(raw))
	for i, r := range raw {
		v, err := decodeValue(fj.Kind, r)
		if nil != err {
			return fmt.Errorf("field: %q[%d]: %w", fj.Name, i, err)
		}
		f.Values[i] = v
	}
	return nil
}

func encodeValue(kind Kind, v Value) interface{} {
	switch kind {
	case KindString:
		return v.String
	case KindLong:
		return v.Long
	case KindFloat:
		return v.Float
	case KindBool:
		return v.Bool
	case KindEnum:
		return v.Enum
	case KindReference:
		if nil == v.Reference.Record {
			return v.Reference.DID
		}
		return v.Reference
	default:
		return nil
	}
}

func decodeValue(kind Kind, data json.RawMessage) (Value, error) {
	v := Value{}
	var err error
	switch kind {
	case KindString:
		err = json.Unmarshal(data, &v.String)
	case KindLong:
		err = json.Unmarshal(data, &v.Long)
	case KindFloat:
		err = json.Unmarshal(data, &v.Float)
	case KindBool:
		err = json.Unmarshal(data, &v.Bool)
	case KindEnum:
		err = json.Unmarshal(data, &v.Enum)
	case KindReference:
		data = bytes.TrimLeft(data, " \t\r\n")
		if len(data) > 0 && '"' == data[0] {
			err = json.Unmarshal(data, &v.Reference.DID)
		} else {
			err = json.Unmarshal(data, &v.Reference)
		}
	default:
		return v, fault.ErrFieldTypeUnknown
	}
	if nil != err {
		return v, fault.ErrFieldTypeMismatch
	}
	return v, nil
}
