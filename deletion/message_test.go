// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package deletion_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/DevonJames/oip-arweave-indexer-sub000/deletion"
	"github.com/DevonJames/oip-arweave-indexer-sub000/fault"
	"github.com/DevonJames/oip-arweave-indexer-sub000/record"
)

func TestParse(t *testing.T) {
	tests := []struct {
		data   string
		kind   deletion.Kind
		target string
	}{
		{`{"delete":{"did":"did:arweave:abc"}}`, deletion.KindRecord, "did:arweave:abc"},
		{`{"delete":{"didTx":"abc"}}`, deletion.KindRecord, "did:arweave:abc"},
		{`{"delete":{"did":"did:gun:647f79c2a338:post1"}}`, deletion.KindRecord, "did:gun:647f79c2a338:post1"},
		{`[{"deleteTemplate":{"didTx":"tmpl_1"}}]`, deletion.KindTemplate, "did:arweave:tmpl_1"},
	}

	for i, item := range tests {
		m, err := deletion.Parse([]byte(item.data))
		assert.Nil(t, err, "%d: error", i)
		assert.Equal(t, item.kind, m.Kind, "%d: kind", i)
		assert.Equal(t, item.target, m.Target, "%d: target", i)
	}
}

func TestParseInvalid(t *testing.T) {
	tests := []string{
		``,
		`{}`,
		`{"delete":{}}`,
		`{"delete":{"did":"  "}}`,
		`{"delete":{"did":"x"},"deleteTemplate":{"did":"y"}}`,
		`[{"delete":{"did":"x"}},{"delete":{"did":"y"}}]`,
		`{"delete":{"did":"did:other:abc"}}`,
	}

	for i, data := range tests {
		_, err := deletion.Parse([]byte(data))
		assert.True(t, fault.IsErrInvalid(err), "%d: expected invalid, got: %v", i, err)
	}
}

func TestRecordRoundTrip(t *testing.T) {
	m := &deletion.Message{Kind: deletion.KindTemplate, Target: "did:arweave:tmpl"}
	r := m.AuditRecord("did:arweave:msg", record.Envelope{Creator: "X"}, deletion.OutcomeAccessDenied)

	assert.Equal(t, record.TypeDeleteTemplate, r.RecordType, "record type")
	assert.True(t, r.IsDeletion(), "is deletion")
	assert.Equal(t, "access denied", deletion.Recorded(r), "recorded outcome")

	parsed, err := deletion.FromRecord(r)
	assert.Nil(t, err, "error")
	assert.Equal(t, m, parsed, "message")
}

func TestPolicy(t *testing.T) {
	p := deletion.NewPolicy([]string{"admin"}, func(signer string, creator string) bool {
		return "org-" + creator == signer
	})

	assert.True(t, p.Authorised("X", "X"), "creator")
	assert.True(t, p.Authorised("admin", "X"), "privileged")
	assert.True(t, p.Authorised("org-X", "X"), "predicate")
	assert.False(t, p.Authorised("Z", "X"), "other")
	assert.False(t, p.Authorised("", ""), "empty signer")
}
