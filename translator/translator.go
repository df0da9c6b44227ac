// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package translator - expand compressed record payloads into typed
// records using their templates
package translator

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"github.com/bitmark-inc/logger"

	"github.com/DevonJames/oip-arweave-indexer-sub000/fault"
	"github.com/DevonJames/oip-arweave-indexer-sub000/record"
	"github.com/DevonJames/oip-arweave-indexer-sub000/template"
)

const (
	translatorLogName = "translator"
	templateKey       = "t"
)

// Lookup - find an indexed record, nil, nil when absent
type Lookup interface {
	GetByDID(did string) (*record.Record, error)
}

// Raw - an untranslated record
//
// the payload is a JSON list of sections (or a single section), each
// {"t": "<template id>", "0": value, "1": value, ...}
type Raw struct {
	DID        string
	RecordType string
	Payload    []byte
	Envelope   record.Envelope
}

// Translator - stateless apart from the lookup used for references
type Translator struct {
	log    *logger.L
	lookup Lookup
}

// New - create a translator
func New(lookup Lookup) *Translator {
	return &Translator{
		log:    logger.New(translatorLogName),
		lookup: lookup,
	}
}

type rawSection map[string]json.RawMessage

// split the payload into sections
func sections(payload []byte) ([]rawSection, error) {
	payload = bytes.TrimSpace(payload)
	if 0 == len(payload) {
		return nil, fault.ErrInvalidPayload
	}

	var list []rawSection
	if '[' == payload[0] {
		if err := json.Unmarshal(payload, &list); nil != err {
			return nil, fmt.Errorf("%v: %w", err, fault.ErrInvalidPayload)
		}
	} else {
		var one rawSection
		if err := json.Unmarshal(payload, &one); nil != err {
			return nil, fmt.Errorf("%v: %w", err, fault.ErrInvalidPayload)
		}
		list = []rawSection{one}
	}
	if 0 == len(list) {
		return nil, fault.ErrInvalidPayload
	}
	return list, nil
}

func (s rawSection) templateID() (string, error) {
	raw, ok := s[templateKey]
	if !ok {
		return "", fmt.Errorf("section without template: %w", fault.ErrInvalidPayload)
	}
	var id string
	if err := json.Unmarshal(raw, &id); nil != err || "" == strings.TrimSpace(id) {
		return "", fmt.Errorf("section template reference: %w", fault.ErrInvalidPayload)
	}
	return template.ID(id), nil
}

// TemplateIDs - the templates a payload needs, in first use order
func TemplateIDs(payload []byte) ([]string, error) {
	list, err := sections(payload)
	if nil != err {
		return nil, err
	}
	ids := make([]string, 0, len(list))
	seen := make(map[string]struct{}, len(list))
	for _, s := range list {
		id, err := s.templateID()
		if nil != err {
			return nil, err
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids, nil
}

// Translate - expand a raw record with the given templates keyed by
// template id, then inline references to resolveDepth levels
//
// a missing template gives ErrTemplateNotFound, any problem with the
// values gives a translation error
func (t *Translator) Translate(raw *Raw, fieldMaps map[string]*template.Template, resolveDepth int) (*record.Record, error) {
	list, err := sections(raw.Payload)
	if nil != err {
		return nil, fmt.Errorf("record: %s: %w", raw.DID, err)
	}

	r := &record.Record{
		DID:        raw.DID,
		RecordType: raw.RecordType,
		Data:       make([]record.Section, 0, len(list)),
		OIP:        raw.Envelope,
	}
	r.OIP.Templates = nil

	for _, s := range list {
		id, err := s.templateID()
		if nil != err {
			return nil, fmt.Errorf("record: %s: %w", raw.DID, err)
		}
		tmpl, ok := fieldMaps[id]
		if !ok || nil == tmpl {
			return nil, fmt.Errorf("record: %s template: %s: %w", raw.DID, id, fault.ErrTemplateNotFound)
		}

		section, err := t.section(raw.DID, s, tmpl)
		if nil != err {
			return nil, err
		}
		r.Data = append(r.Data, section)
		r.OIP.Templates = append(r.OIP.Templates, tmpl.ID)
	}

	if "" == r.RecordType && 1 == len(r.Data) {
		r.RecordType = r.Data[0].Name
	}

	if resolveDepth <= 0 {
		return r, nil
	}
	return t.Expand(r, resolveDepth)
}

func (t *Translator) section(did string, s rawSection, tmpl *template.Template) (record.Section, error) {
	section := record.Section{
		Name:     tmpl.Name,
		Template: tmpl.DID(),
		Fields:   make([]record.Field, 0, len(tmpl.Fields)),
	}

	used := map[string]struct{}{templateKey: {}}
	for i := range tmpl.Fields {
		def := &tmpl.Fields[i]

		key := strconv.Itoa(def.Index)
		value, ok := s[key]
		if !ok {
			key = def.Name
			value, ok = s[key]
		}
		if ok && "null" == string(bytes.TrimSpace(value)) {
			ok = false
		}
		if !ok {
			if def.Required {
				return section, fmt.Errorf("record: %s field: %s.%s: %w", did, tmpl.Name, def.Name, fault.ErrMissingRequiredField)
			}
			continue
		}
		used[key] = struct{}{}

		field, err := decodeField(def, value)
		if nil != err {
			return section, fmt.Errorf("record: %s field: %s.%s: %w", did, tmpl.Name, def.Name, err)
		}
		section.Fields = append(section.Fields, field)
	}

	if len(used) != len(s) {
		unknown := make([]string, 0, len(s))
		for k := range s {
			if _, ok := used[k]; !ok {
				unknown = append(unknown, k)
			}
		}
		sort.Strings(unknown)
		t.log.Debugf("record: %s template: %s ignoring keys: %v", did, tmpl.ID, unknown)
	}
	return section, nil
}

func decodeField(def *template.Field, data json.RawMessage) (record.Field, error) {
	f := record.Field{
		Name:     def.Name,
		Kind:     def.Kind,
		Repeated: def.Repeated,
	}

	v, err := decodeAny(data)
	if nil != err {
		return f, fault.ErrFieldTypeMismatch
	}

	items := []interface{}{v}
	if list, isList := v.([]interface{}); isList {
		if !def.Repeated {
			return f, fault.ErrFieldTypeMismatch
		}
		items = list
	}

	f.Values = make([]record.Value, 0, len(items))
	for _, item := range items {
		value, err := decodeValue(def, item)
		if nil != err {
			return f, err
		}
		f.Values = append(f.Values, value)
	}
	return f, nil
}

func decodeAny(data json.RawMessage) (interface{}, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v interface{}
	err := dec.Decode(&v)
	return v, err
}

func decodeValue(def *template.Field, item interface{}) (record.Value, error) {
	v := record.Value{}
	switch def.Kind {

	case record.KindString:
		switch x := item.(type) {
		case string:
			v.String = x
		case json.Number:
			v.String = x.String()
		case bool:
			v.String = strconv.FormatBool(x)
		default:
			return v, fault.ErrFieldTypeMismatch
		}

	case record.KindLong:
		s, ok := scalar(item)
		if !ok {
			return v, fault.ErrFieldTypeMismatch
		}
		n, err := strconv.ParseInt(s, 10, 64)
		if nil != err {
			return v, fault.ErrFieldTypeMismatch
		}
		v.Long = n

	case record.KindFloat:
		s, ok := scalar(item)
		if !ok {
			return v, fault.ErrFieldTypeMismatch
		}
		n, err := strconv.ParseFloat(s, 64)
		if nil != err {
			return v, fault.ErrFieldTypeMismatch
		}
		v.Float = n

	case record.KindBool:
		switch x := item.(type) {
		case bool:
			v.Bool = x
		case string:
			b, err := strconv.ParseBool(x)
			if nil != err {
				return v, fault.ErrFieldTypeMismatch
			}
			v.Bool = b
		default:
			return v, fault.ErrFieldTypeMismatch
		}

	case record.KindEnum:
		code, ok := scalar(item)
		if !ok {
			return v, fault.ErrFieldTypeMismatch
		}
		e, ok := def.Enum(code)
		if !ok {
			return v, fmt.Errorf("code: %q: %w", code, fault.ErrEnumCodeUnknown)
		}
		v.Enum = e

	case record.KindReference:
		s, ok := item.(string)
		if !ok {
			return v, fault.ErrFieldTypeMismatch
		}
		did, err := record.NormaliseDID(s)
		if nil != err {
			return v, fault.ErrFieldTypeMismatch
		}
		v.Reference.DID = did

	default:
		return v, fault.ErrFieldTypeUnknown
	}
	return v, nil
}

// numbers and strings as text
func scalar(item interface{}) (string, bool) {
	switch x := item.(type) {
	case json.Number:
		return x.String(), true
	case string:
		return strings.TrimSpace(x), true
	default:
		return "", false
	}
}
