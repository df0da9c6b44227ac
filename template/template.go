// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package template - record schemas published on the ledger
//
// a record payload carries field values keyed by the field's index in
// its template; the template supplies the field names, the types and
// the enumeration code maps needed to expand it
package template

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"github.com/DevonJames/oip-arweave-indexer-sub000/fault"
	"github.com/DevonJames/oip-arweave-indexer-sub000/record"
)

const repeatedPrefix = "repeated "

// Field - one field definition
type Field struct {
	Name     string             `json:"name"`
	Index    int                `json:"index"`
	Kind     record.Kind        `json:"-"`
	Repeated bool               `json:"-"`
	Required bool               `json:"required,omitempty"`
	Values   []record.EnumValue `json:"values,omitempty"`
}

// Template - a confirmed schema
type Template struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Creator     string  `json:"creator,omitempty"`
	BlockHeight uint64  `json:"block,omitempty"`
	Fields      []Field `json:"fields"`

	byIndex map[int]*Field
}

// DID - identifier of the template
func (t *Template) DID() string {
	return record.ArweaveDID(t.ID)
}

// FieldAt - find the field definition for a payload index
func (t *Template) FieldAt(index int) (*Field, bool) {
	f, ok := t.byIndex[index]
	return f, ok
}

// Enum - find the entry for a code, falling back to a position in the
// value list when the code is numeric and not a declared code
func (f *Field) Enum(code string) (record.EnumValue, bool) {
	for _, v := range f.Values {
		if code == v.Code {
			return v, true
		}
	}
	if n, err := strconv.Atoi(code); nil == err && n >= 0 && n < len(f.Values) {
		return f.Values[n], true
	}
	return record.EnumValue{}, false
}

// TypeName - the type as written in a template
func (f *Field) TypeName() string {
	if f.Repeated {
		return repeatedPrefix + string(f.Kind)
	}
	return string(f.Kind)
}

// MarshalJSON - keep the combined type name
func (f Field) MarshalJSON() ([]byte, error) {
	type plain Field
	return json.Marshal(struct {
		plain
		Type string `json:"type"`
	}{
		plain: plain(f),
		Type:  f.TypeName(),
	})
}

// explicit template form
type explicitTemplate struct {
	ID      string          `json:"id"`
	Name    string          `json:"name"`
	Creator string          `json:"creator"`
	Block   uint64          `json:"block"`
	Fields  json.RawMessage `json:"fields"`
}

type explicitField struct {
	Name     string            `json:"name"`
	Type     string            `json:"type"`
	Index    *int              `json:"index"`
	Required bool              `json:"required"`
	Values   []json.RawMessage `json:"values"`
}

// Parse - decode a template published as ledger data
//
// two layouts are accepted:
//   explicit: {"name": "post", "fields": [{"name": "title", "type": "string", "index": 0}]}
//   flat:     {"name": "post", "fields": {"title": "string", "index_title": 0}}
// in both, enum values may be {"code", "label"|"name"} objects or plain labels
func Parse(id string, data []byte) (*Template, error) {
	var et explicitTemplate
	err := json.Unmarshal(data, &et)
	if nil != err {
		return nil, fmt.Errorf("template: %s: %v: %w", id, err, fault.ErrInvalidTemplate)
	}

	t := &Template{
		ID:          id,
		Name:        et.Name,
		Creator:     et.Creator,
		BlockHeight: et.Block,
	}
	if "" == t.ID {
		t.ID = et.ID
	}

	fields := strings.TrimSpace(string(et.Fields))
	switch {
	case strings.HasPrefix(fields, "["):
		err = t.parseExplicit(et.Fields)
	case strings.HasPrefix(fields, "{"):
		err = t.parseFlat(et.Fields)
	default:
		err = fmt.Errorf("template: %s: no fields: %w", id, fault.ErrInvalidTemplate)
	}
	if nil != err {
		return nil, err
	}

	if err := t.build(); nil != err {
		return nil, err
	}
	return t, nil
}

func (t *Template) parseExplicit(data json.RawMessage) error {
	var efs []explicitField
	err := json.Unmarshal(data, &efs)
	if nil != err {
		return fmt.Errorf("template: %s: %v: %w", t.ID, err, fault.ErrInvalidTemplate)
	}
	for i, ef := range efs {
		kind, repeated, err := parseType(ef.Type)
		if nil != err {
			return fmt.Errorf("template: %s field: %q: %w", t.ID, ef.Name, err)
		}
		index := i
		if nil != ef.Index {
			index = *ef.Index
		}
		values, err := parseEnumValues(ef.Values)
		if nil != err {
			return fmt.Errorf("template: %s field: %q: %w", t.ID, ef.Name, err)
		}
		t.Fields = append(t.Fields, Field{
			Name:     ef.Name,
			Index:    index,
			Kind:     kind,
			Repeated: repeated,
			Required: ef.Required,
			Values:   values,
		})
	}
	return nil
}

const (
	flatIndexPrefix  = "index_"
	flatValuesSuffix = "Values"
)

func (t *Template) parseFlat(data json.RawMessage) error {
	var flat map[string]json.RawMessage
	err := json.Unmarshal(data, &flat)
	if nil != err {
		return fmt.Errorf("template: %s: %v: %w", t.ID, err, fault.ErrInvalidTemplate)
	}

	for key, raw := range flat {
		if strings.HasPrefix(key, flatIndexPrefix) {
			continue
		}
		var typeName string
		if err := json.Unmarshal(raw, &typeName); nil != err {
			// values lists and other non string entries
			continue
		}

		kind, repeated, err := parseType(typeName)
		if nil != err {
			return fmt.Errorf("template: %s field: %q: %w", t.ID, key, err)
		}

		rawIndex, ok := flat[flatIndexPrefix+key]
		if !ok {
			return fmt.Errorf("template: %s field: %q has no index: %w", t.ID, key, fault.ErrInvalidTemplate)
		}
		var index int
		if err := json.Unmarshal(rawIndex, &index); nil != err {
			return fmt.Errorf("template: %s field: %q index: %v: %w", t.ID, key, err, fault.ErrInvalidTemplate)
		}

		var values []record.EnumValue
		if rawValues, ok := flat[key+flatValuesSuffix]; ok {
			var list []json.RawMessage
			if err := json.Unmarshal(rawValues, &list); nil != err {
				return fmt.Errorf("template: %s field: %q values: %v: %w", t.ID, key, err, fault.ErrInvalidTemplate)
			}
			values, err = parseEnumValues(list)
			if nil != err {
				return fmt.Errorf("template: %s field: %q: %w", t.ID, key, err)
			}
		}

		t.Fields = append(t.Fields, Field{
			Name:     key,
			Index:    index,
			Kind:     kind,
			Repeated: repeated,
			Values:   values,
		})
	}

	sort.Slice(t.Fields, func(i, j int) bool {
		return t.Fields[i].Index < t.Fields[j].Index
	})
	return nil
}

// enum values are either objects or bare labels (code is the position)
func parseEnumValues(list []json.RawMessage) ([]record.EnumValue, error) {
	if 0 == len(list) {
		return nil, nil
	}
	values := make([]record.EnumValue, len(list))
	for i, raw := range list {
		var label string
		if err := json.Unmarshal(raw, &label); nil == err {
			values[i] = record.EnumValue{Code: strconv.Itoa(i), Label: label}
			continue
		}
		var entry struct {
			Code  string `json:"code"`
			Label string `json:"label"`
			Name  string `json:"name"`
		}
		if err := json.Unmarshal(raw, &entry); nil != err {
			return nil, fault.ErrInvalidTemplate
		}
		if "" == entry.Label {
			entry.Label = entry.Name
		}
		if "" == entry.Code {
			entry.Code = strconv.Itoa(i)
		}
		values[i] = record.EnumValue{Code: entry.Code, Label: entry.Label}
	}
	return values, nil
}

// parseType - map a template type name to a kind
func parseType(s string) (record.Kind, bool, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	repeated := false
	if strings.HasPrefix(s, repeatedPrefix) {
		repeated = true
		s = strings.TrimSpace(s[len(repeatedPrefix):])
	}
	switch s {
	case "string":
		return record.KindString, repeated, nil
	case "long", "int", "int32", "int64", "uint32", "uint64":
		return record.KindLong, repeated, nil
	case "float", "double":
		return record.KindFloat, repeated, nil
	case "bool", "boolean":
		return record.KindBool, repeated, nil
	case "enum":
		return record.KindEnum, repeated, nil
	case "dref":
		return record.KindReference, repeated, nil
	default:
		return "", false, fmt.Errorf("type: %q: %w", s, fault.ErrFieldTypeUnknown)
	}
}

// validate and build the index lookup
func (t *Template) build() error {
	if "" == t.ID {
		return fmt.Errorf("template without id: %w", fault.ErrInvalidTemplate)
	}
	if "" == t.Name {
		return fmt.Errorf("template: %s without name: %w", t.ID, fault.ErrInvalidTemplate)
	}
	t.byIndex = make(map[int]*Field, len(t.Fields))
	names := make(map[string]struct{}, len(t.Fields))
	for i := range t.Fields {
		f := &t.Fields[i]
		if "" == f.Name {
			return fmt.Errorf("template: %s field %d without name: %w", t.ID, i, fault.ErrInvalidTemplate)
		}
		if _, dup := t.byIndex[f.Index]; dup {
			return fmt.Errorf("template: %s duplicate index: %d: %w", t.ID, f.Index, fault.ErrInvalidTemplate)
		}
		if _, dup := names[f.Name]; dup {
			return fmt.Errorf("template: %s duplicate field: %q: %w", t.ID, f.Name, fault.ErrInvalidTemplate)
		}
		if record.KindEnum == f.Kind && 0 == len(f.Values) {
			return fmt.Errorf("template: %s enum: %q has no values: %w", t.ID, f.Name, fault.ErrInvalidTemplate)
		}
		t.byIndex[f.Index] = f
		names[f.Name] = struct{}{}
	}
	return nil
}

// Pack - storage form
func (t *Template) Pack() ([]byte, error) {
	return json.Marshal(t)
}

// Unpack - decode the storage form
func Unpack(buffer []byte) (*Template, error) {
	return Parse("", buffer)
}
