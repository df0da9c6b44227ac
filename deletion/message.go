// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package deletion

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/goccy/go-json"

	"github.com/DevonJames/oip-arweave-indexer-sub000/fault"
	"github.com/DevonJames/oip-arweave-indexer-sub000/record"
)

// Kind - what a deletion message removes
type Kind int

// kinds of deletion
const (
	KindRecord Kind = iota
	KindTemplate
)

func (k Kind) String() string {
	switch k {
	case KindRecord:
		return "delete"
	case KindTemplate:
		return "deleteTemplate"
	default:
		return "*unknown*"
	}
}

// RecordType - the record type a message of this kind is indexed as
func (k Kind) RecordType() string {
	if KindTemplate == k {
		return record.TypeDeleteTemplate
	}
	return record.TypeDeleteMessage
}

// Message - a parsed deletion request
type Message struct {
	Kind   Kind
	Target string // normalised DID
}

type targetJSON struct {
	DID   string `json:"did"`
	DIDTx string `json:"didTx"`
}

type messageJSON struct {
	Delete         *targetJSON `json:"delete"`
	DeleteTemplate *targetJSON `json:"deleteTemplate"`
}

// Parse - decode {"delete":{"did"|"didTx":X}} or {"deleteTemplate":{...}}
//
// a payload wrapped in a single element list is accepted
func Parse(data []byte) (*Message, error) {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && '[' == data[0] {
		var list []json.RawMessage
		if err := json.Unmarshal(data, &list); nil != err || 1 != len(list) {
			return nil, fault.ErrInvalidDeletionMessage
		}
		data = list[0]
	}

	var m messageJSON
	if err := json.Unmarshal(data, &m); nil != err {
		return nil, fmt.Errorf("%v: %w", err, fault.ErrInvalidDeletionMessage)
	}

	switch {
	case nil != m.Delete && nil == m.DeleteTemplate:
		return newMessage(KindRecord, m.Delete.DID, m.Delete.DIDTx)
	case nil == m.Delete && nil != m.DeleteTemplate:
		return newMessage(KindTemplate, m.DeleteTemplate.DID, m.DeleteTemplate.DIDTx)
	default:
		return nil, fault.ErrInvalidDeletionMessage
	}
}

// FromRecord - the message carried by an indexed deletion record
func FromRecord(r *record.Record) (*Message, error) {
	kind := KindRecord
	switch r.RecordType {
	case record.TypeDeleteMessage:
	case record.TypeDeleteTemplate:
		kind = KindTemplate
	default:
		return nil, fault.ErrInvalidDeletionMessage
	}

	section, ok := r.Section(kind.String())
	if !ok {
		return nil, fault.ErrInvalidDeletionMessage
	}
	did, didTx := "", ""
	if f, ok := section.Field("did"); ok && len(f.Values) > 0 {
		did = f.Values[0].String
	}
	if f, ok := section.Field("didTx"); ok && len(f.Values) > 0 {
		didTx = f.Values[0].String
	}
	return newMessage(kind, did, didTx)
}

func newMessage(kind Kind, did string, didTx string) (*Message, error) {
	target := strings.TrimSpace(did)
	if "" == target {
		target = strings.TrimSpace(didTx)
	}
	if "" == target {
		return nil, fmt.Errorf("no target: %w", fault.ErrInvalidDeletionMessage)
	}
	normalised, err := record.NormaliseDID(target)
	if nil != err {
		return nil, err
	}
	return &Message{
		Kind:   kind,
		Target: normalised,
	}, nil
}

// Record - the message as a record that can be published
func (m *Message) Record(did string, envelope record.Envelope) *record.Record {
	return &record.Record{
		DID:        did,
		RecordType: m.Kind.RecordType(),
		Data: []record.Section{{
			Name: m.Kind.String(),
			Fields: []record.Field{
				{
					Name:   "did",
					Kind:   record.KindString,
					Values: []record.Value{{String: m.Target}},
				},
			},
		}},
		OIP: envelope,
	}
}

// AuditRecord - the record retained for a message with the outcome of
// applying it
func (m *Message) AuditRecord(did string, envelope record.Envelope, outcome Outcome) *record.Record {
	r := m.Record(did, envelope)
	r.Data[0].Fields = append(r.Data[0].Fields, record.Field{
		Name:   "outcome",
		Kind:   record.KindString,
		Values: []record.Value{{String: outcome.String()}},
	})
	return r
}

// Recorded - the outcome stored in an audit record
func Recorded(r *record.Record) string {
	for _, s := range r.Data {
		if f, ok := s.Field("outcome"); ok && len(f.Values) > 0 {
			return f.Values[0].String
		}
	}
	return ""
}
