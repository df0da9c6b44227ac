// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package record - the expanded, typed form of an indexed record
//
// a record is identified by a DID which never changes, carries one data
// section per template it was written with and an envelope describing
// where and when it was published
package record

import (
	"time"

	"github.com/goccy/go-json"
)

// Origin - which store published a record
type Origin string

// known origins
const (
	OriginArweave Origin = "arweave"
	OriginGun     Origin = "gun"
)

// Status - ledger confirmation state
type Status string

// record states
const (
	StatusPending   Status = "pending confirmation"
	StatusConfirmed Status = "confirmed"
)

// record types with special handling
const (
	TypeDeleteMessage  = "deleteMessage"
	TypeDeleteTemplate = "deleteTemplate"
	TypeOrganization   = "organization"
	TypeTemplate       = "template"
)

// Envelope - system metadata attached to every record
type Envelope struct {
	Creator          string    `json:"creator"`
	CreatorPublicKey string    `json:"creatorPublicKey,omitempty"`
	Signature        string    `json:"signature,omitempty"`
	IndexedAt        time.Time `json:"indexedAt"`
	InArweaveBlock   uint64    `json:"inArweaveBlock,omitempty"`
	RecordStatus     Status    `json:"recordStatus"`
	Storage          Origin    `json:"storage"`
	Version          string    `json:"ver,omitempty"`
	Templates        []string  `json:"templates,omitempty"`
	Timestamp        int64     `json:"timestamp,omitempty"` // peer store state, milliseconds
}

// Section - the fields written with one template
type Section struct {
	Name     string  `json:"name"`
	Template string  `json:"template,omitempty"`
	Fields   []Field `json:"fields"`
}

// Record - an indexed record
type Record struct {
	DID        string    `json:"did"`
	RecordType string    `json:"recordType"`
	Data       []Section `json:"data"`
	OIP        Envelope  `json:"oip"`
}

// Confirmed - true if the record has been seen in a ledger block
func (r *Record) Confirmed() bool {
	return StatusConfirmed == r.OIP.RecordStatus
}

// IsDeletion - true for both kinds of deletion message
func (r *Record) IsDeletion() bool {
	return TypeDeleteMessage == r.RecordType || TypeDeleteTemplate == r.RecordType
}

// Section - find a data section by template name
func (r *Record) Section(name string) (*Section, bool) {
	for i := range r.Data {
		if name == r.Data[i].Name {
			return &r.Data[i], true
		}
	}
	return nil, false
}

// Field - find a field by name
func (s *Section) Field(name string) (*Field, bool) {
	for i := range s.Fields {
		if name == s.Fields[i].Name {
			return &s.Fields[i], true
		}
	}
	return nil, false
}

// Map - plain name to value form of a section
func (s *Section) Map() map[string]interface{} {
	m := make(map[string]interface{}, len(s.Fields))
	for _, f := range s.Fields {
		m[f.Name] = f.Plain()
	}
	return m
}

// Expanded - plain form of all sections keyed by section name
func (r *Record) Expanded() map[string]interface{} {
	m := make(map[string]interface{}, len(r.Data))
	for i := range r.Data {
		m[r.Data[i].Name] = r.Data[i].Map()
	}
	return m
}

// References - every DID referenced from this record's own fields
func (r *Record) References() []string {
	refs := []string{}
	for _, s := range r.Data {
		for _, f := range s.Fields {
			if KindReference != f.Kind {
				continue
			}
			for _, v := range f.Values {
				refs = append(refs, v.Reference.DID)
			}
		}
	}
	return refs
}

// Clone - deep copy
func (r *Record) Clone() (*Record, error) {
	buffer, err := json.Marshal(r)
	if nil != err {
		return nil, err
	}
	c := &Record{}
	err = json.Unmarshal(buffer, c)
	if nil != err {
		return nil, err
	}
	return c, nil
}

// Pack - storage form
func (r *Record) Pack() ([]byte, error) {
	return json.Marshal(r)
}

// Unpack - decode the storage form
func Unpack(buffer []byte) (*Record, error) {
	r := &Record{}
	err := json.Unmarshal(buffer, r)
	if nil != err {
		return nil, err
	}
	return r, nil
}
