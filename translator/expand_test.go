// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package translator_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DevonJames/oip-arweave-indexer-sub000/translator"
)

func TestExpandCycle(t *testing.T) {
	a := linked("did:arweave:A", "did:arweave:B")
	b := linked("did:arweave:B", "did:arweave:A")
	tr := translator.New(lookup{a.DID: a, b.DID: b})

	r, err := tr.Expand(a, 3)
	require.Nil(t, err, "expand")

	next := r.Data[0].Fields[0].Value().Reference
	require.NotNil(t, next.Record, "B not inlined")
	assert.Equal(t, "did:arweave:B", next.Record.DID, "wrong inlined record")

	back := next.Record.Data[0].Fields[0].Value().Reference
	assert.Equal(t, "did:arweave:A", back.DID, "wrong back reference")
	assert.Nil(t, back.Record, "cycle was expanded")

	// the stored record is untouched
	assert.Nil(t, a.Data[0].Fields[0].Value().Reference.Record, "input modified")
}

func TestExpandSelfReference(t *testing.T) {
	a := linked("did:arweave:A", "did:arweave:A")
	tr := translator.New(lookup{a.DID: a})

	r, err := tr.Expand(a, 5)
	require.Nil(t, err, "expand")
	assert.Nil(t, r.Data[0].Fields[0].Value().Reference.Record, "self reference expanded")
}

func TestExpandDepth(t *testing.T) {
	a := linked("did:arweave:A", "did:arweave:B")
	b := linked("did:arweave:B", "did:arweave:C")
	c := linked("did:arweave:C", "did:arweave:D")
	tr := translator.New(lookup{a.DID: a, b.DID: b, c.DID: c})

	r, err := tr.Expand(a, 0)
	require.Nil(t, err, "expand depth 0")
	assert.Equal(t, "did:arweave:B", r.Expanded()["node"].(map[string]interface{})["next"], "depth 0 not bare")

	r, err = tr.Expand(a, 2)
	require.Nil(t, err, "expand depth 2")

	bRef := r.Data[0].Fields[0].Value().Reference
	require.NotNil(t, bRef.Record, "B not inlined")
	cRef := bRef.Record.Data[0].Fields[0].Value().Reference
	require.NotNil(t, cRef.Record, "C not inlined")
	dRef := cRef.Record.Data[0].Fields[0].Value().Reference
	assert.Equal(t, "did:arweave:D", dRef.DID, "wrong leaf")
	assert.Nil(t, dRef.Record, "expanded past depth")
}
