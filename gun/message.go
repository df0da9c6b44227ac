// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package gun

import (
	"bytes"

	"github.com/goccy/go-json"
)

// wire form of a relay message
//
//   put: {"#": id, "put": {soul: {"_": {"#": soul, ">": {field: state}}, field: value}}}
//   get: {"#": id, "get": {"#": soul}}
//   ack: {"#": id, "@": request id, "ok": ..., "err": ..., "put": ...}
type message struct {
	ID   string          `json:"#,omitempty"`
	Ack  string          `json:"@,omitempty"`
	Put  map[string]node `json:"put,omitempty"`
	Get  *getRequest     `json:"get,omitempty"`
	OK   json.RawMessage `json:"ok,omitempty"`
	Err  string          `json:"err,omitempty"`
}

type getRequest struct {
	Soul  string `json:"#"`
	Field string `json:".,omitempty"`
}

// node metadata key
const metaKey = "_"

type meta struct {
	Soul  string             `json:"#"`
	State map[string]float64 `json:">"`
}

// a graph node as sent on the wire, field values are kept raw
type node map[string]json.RawMessage

// Field - a node field with its conflict state
type Field struct {
	Value json.RawMessage
	State int64 // milliseconds
}

func newNode(soul string, fields map[string]Field) (node, error) {
	m := meta{
		Soul:  soul,
		State: make(map[string]float64, len(fields)),
	}
	n := make(node, len(fields)+1)
	for name, f := range fields {
		n[name] = f.Value
		m.State[name] = float64(f.State)
	}
	buffer, err := json.Marshal(m)
	if nil != err {
		return nil, err
	}
	n[metaKey] = buffer
	return n, nil
}

// split a wire node into fields
func (n node) fields() (map[string]Field, error) {
	var m meta
	if raw, ok := n[metaKey]; ok {
		if err := json.Unmarshal(raw, &m); nil != err {
			return nil, err
		}
	}
	fields := make(map[string]Field, len(n))
	for name, value := range n {
		if metaKey == name {
			continue
		}
		fields[name] = Field{
			Value: value,
			State: int64(m.State[name]),
		}
	}
	return fields, nil
}

// merge b into a, last writer wins per field; equal states are decided
// by the larger value so every replica picks the same winner
func merge(a map[string]Field, b map[string]Field) {
	for name, f := range b {
		current, ok := a[name]
		if !ok || wins(f, current) {
			a[name] = f
		}
	}
}

func wins(candidate Field, current Field) bool {
	if candidate.State != current.State {
		return candidate.State > current.State
	}
	return bytes.Compare(candidate.Value, current.Value) > 0
}

// relays may batch messages in a JSON list
func decodeMessages(data []byte) ([]message, error) {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && '[' == data[0] {
		var list []message
		err := json.Unmarshal(data, &list)
		return list, err
	}
	var m message
	err := json.Unmarshal(data, &m)
	return []message{m}, err
}
