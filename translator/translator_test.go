// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package translator_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DevonJames/oip-arweave-indexer-sub000/fault"
	"github.com/DevonJames/oip-arweave-indexer-sub000/record"
	"github.com/DevonJames/oip-arweave-indexer-sub000/template"
	"github.com/DevonJames/oip-arweave-indexer-sub000/translator"
)

const postTemplate = `{
  "name": "post",
  "fields": [
    {"name": "title", "type": "string", "index": 0},
    {"name": "body", "type": "string", "index": 1}
  ]
}`

const richTemplate = `{
  "name": "rich",
  "fields": [
    {"name": "title", "type": "string", "index": 0, "required": true},
    {"name": "views", "type": "long", "index": 1},
    {"name": "rating", "type": "float", "index": 2},
    {"name": "draft", "type": "bool", "index": 3},
    {"name": "colour", "type": "enum", "index": 4, "values": [{"code": "r", "label": "Red"}, {"code": "g", "label": "Green"}]},
    {"name": "tags", "type": "repeated string", "index": 5},
    {"name": "image", "type": "dref", "index": 6},
    {"name": "related", "type": "repeated dref", "index": 7}
  ]
}`

func parse(t *testing.T, id string, data string) *template.Template {
	tmpl, err := template.Parse(id, []byte(data))
	require.Nil(t, err, "template parse")
	return tmpl
}

func TestTranslatePost(t *testing.T) {
	post := parse(t, "T1", postTemplate)
	tr := translator.New(lookup{})

	raw := &translator.Raw{
		DID:     "did:arweave:R1",
		Payload: []byte(`[{"0": "Hello", "1": "World", "t": "T1"}]`),
		Envelope: record.Envelope{
			Creator:        "creator-1",
			InArweaveBlock: 101,
			RecordStatus:   record.StatusConfirmed,
			Storage:        record.OriginArweave,
		},
	}

	r, err := tr.Translate(raw, map[string]*template.Template{"T1": post}, 0)
	require.Nil(t, err, "translate")

	assert.Equal(t, "did:arweave:R1", r.DID, "wrong did")
	assert.Equal(t, "post", r.RecordType, "record type not taken from template")
	assert.Equal(t, map[string]interface{}{"post": map[string]interface{}{"title": "Hello", "body": "World"}}, r.Expanded(), "wrong data")
	assert.Equal(t, []string{"T1"}, r.OIP.Templates, "wrong templates")
	assert.Equal(t, uint64(101), r.OIP.InArweaveBlock, "envelope lost")
}

func TestTranslateAllKinds(t *testing.T) {
	rich := parse(t, "T2", richTemplate)
	tr := translator.New(lookup{})

	raw := &translator.Raw{
		DID:        "did:arweave:R2",
		RecordType: "rich",
		Payload: []byte(`{"t": "did:arweave:T2", "0": "Hi", "1": "42", "2": 4.5, "3": "true", "4": 1,
			"5": ["a", "b"], "6": "img1", "7": ["did:arweave:x", "y"], "99": "ignored"}`),
	}

	r, err := tr.Translate(raw, map[string]*template.Template{"T2": rich}, 0)
	require.Nil(t, err, "translate")

	m := r.Expanded()["rich"].(map[string]interface{})
	assert.Equal(t, "Hi", m["title"], "wrong string")
	assert.Equal(t, int64(42), m["views"], "wrong long")
	assert.Equal(t, 4.5, m["rating"], "wrong float")
	assert.Equal(t, true, m["draft"], "wrong bool")
	assert.Equal(t, "Green", m["colour"], "wrong enum")
	assert.Equal(t, []interface{}{"a", "b"}, m["tags"], "wrong repeated")
	assert.Equal(t, "did:arweave:img1", m["image"], "bare id not promoted")
	assert.Equal(t, []interface{}{"did:arweave:x", "did:arweave:y"}, m["related"], "wrong repeated reference")
}

func TestTranslateErrors(t *testing.T) {
	rich := parse(t, "T2", richTemplate)
	fieldMaps := map[string]*template.Template{"T2": rich}
	tr := translator.New(lookup{})

	items := []struct {
		payload  string
		expected error
	}{
		{`{"t": "T2", "1": 5}`, fault.ErrMissingRequiredField},
		{`{"t": "T2", "0": "x", "4": "blue"}`, fault.ErrEnumCodeUnknown},
		{`{"t": "T2", "0": "x", "1": "many"}`, fault.ErrFieldTypeMismatch},
		{`{"t": "T2", "0": "x", "1": 1.5}`, fault.ErrFieldTypeMismatch},
		{`{"t": "T2", "0": ["x", "y"]}`, fault.ErrFieldTypeMismatch},
		{`{"t": "T2", "0": "x", "6": "not a did!"}`, fault.ErrFieldTypeMismatch},
		{`{"0": "x"}`, fault.ErrInvalidPayload},
		{`[]`, fault.ErrInvalidPayload},
		{`nonsense`, fault.ErrInvalidPayload},
	}

	for i, item := range items {
		_, err := tr.Translate(&translator.Raw{DID: "did:arweave:bad", Payload: []byte(item.payload)}, fieldMaps, 0)
		assert.True(t, fault.IsErrTranslation(err), "%d: not a translation error: %v", i, err)
		assert.True(t, errors.Is(err, item.expected), "%d: wrong error: %v", i, err)
	}
}

func TestTranslateMissingTemplate(t *testing.T) {
	tr := translator.New(lookup{})
	_, err := tr.Translate(&translator.Raw{DID: "did:arweave:R3", Payload: []byte(`{"t": "T9", "0": "x"}`)}, nil, 0)
	assert.True(t, fault.IsErrTemplate(err), "wrong error: %v", err)
}

func TestTemplateIDs(t *testing.T) {
	ids, err := translator.TemplateIDs([]byte(`[{"t": "A", "0": 1}, {"t": "did:arweave:B"}, {"t": "A"}]`))
	assert.Nil(t, err, "template ids")
	assert.Equal(t, []string{"A", "B"}, ids, "wrong ids")
}

func TestTranslateExpandsReferences(t *testing.T) {
	rich := parse(t, "T2", richTemplate)
	image := &record.Record{
		DID:        "did:arweave:img1",
		RecordType: "image",
		Data: []record.Section{{
			Name:   "image",
			Fields: []record.Field{{Name: "width", Kind: record.KindLong, Values: []record.Value{{Long: 640}}}},
		}},
	}
	tr := translator.New(lookup{image.DID: image})

	raw := &translator.Raw{
		DID:     "did:arweave:R4",
		Payload: []byte(`{"t": "T2", "0": "x", "6": "did:arweave:img1", "7": ["did:arweave:gone"]}`),
	}

	r, err := tr.Translate(raw, map[string]*template.Template{"T2": rich}, 1)
	require.Nil(t, err, "translate")

	m := r.Expanded()["rich"].(map[string]interface{})
	assert.Equal(t, map[string]interface{}{"image": map[string]interface{}{"width": int64(640)}}, m["image"], "reference not inlined")
	assert.Equal(t, []interface{}{"did:arweave:gone"}, m["related"], "missing target not left bare")
}
