// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DevonJames/oip-arweave-indexer-sub000/record"
	"github.com/DevonJames/oip-arweave-indexer-sub000/storage"
)

func TestUpsertIsIdempotent(t *testing.T) {
	s, teardown := setup(t)
	defer teardown()

	r := makeRecord("R1", "post", "alice", 101)
	require.Nil(t, s.Upsert(r), "first upsert")
	require.Nil(t, s.Upsert(r), "second upsert")

	n, err := s.Count()
	assert.Nil(t, err, "count")
	assert.Equal(t, 1, n, "duplicate record")

	got, err := s.GetByDID(r.DID)
	require.Nil(t, err, "get")
	require.NotNil(t, got, "missing record")
	assert.Equal(t, r.Expanded(), got.Expanded(), "wrong data")
	assert.Equal(t, uint64(101), got.OIP.InArweaveBlock, "wrong block")

	list, err := s.Query(storage.Filter{RecordType: "post"})
	assert.Nil(t, err, "query")
	assert.Equal(t, []string{r.DID}, dids(list), "duplicate index entries")
}

func TestGetMissing(t *testing.T) {
	s, teardown := setup(t)
	defer teardown()

	got, err := s.GetByDID("did:arweave:nothing")
	assert.Nil(t, err, "get error")
	assert.Nil(t, got, "unexpected record")
}

func TestUpsertReplacesIndexes(t *testing.T) {
	s, teardown := setup(t)
	defer teardown()

	r := makeRecord("R1", "post", "alice", 101)
	require.Nil(t, s.Upsert(r), "upsert")

	r.RecordType = "article"
	r.OIP.Creator = "bob"
	require.Nil(t, s.Upsert(r), "replace")

	list, err := s.Query(storage.Filter{RecordType: "post"})
	assert.Nil(t, err, "query old type")
	assert.Equal(t, 0, len(list), "stale type index")

	list, err = s.Query(storage.Filter{Creator: "alice"})
	assert.Nil(t, err, "query old creator")
	assert.Equal(t, 0, len(list), "stale creator index")

	list, err = s.Query(storage.Filter{RecordType: "article", Creator: "bob"})
	assert.Nil(t, err, "query new")
	assert.Equal(t, []string{r.DID}, dids(list), "new index missing")
}

func TestPayloadKept(t *testing.T) {
	s, teardown := setup(t)
	defer teardown()

	r := makeRecord("R1", "post", "alice", 101)
	require.Nil(t, s.UpsertWithPayload(r, []byte(`{"t":"tmpl-post","0":"x"}`)), "upsert")
	require.Nil(t, s.Upsert(r), "upsert without payload")

	p, err := s.Payload(r.DID)
	assert.Nil(t, err, "payload")
	assert.Equal(t, `{"t":"tmpl-post","0":"x"}`, string(p), "payload lost")
}

func TestDeleteRemovesFromAllIndices(t *testing.T) {
	s, teardown := setup(t)
	defer teardown()

	org := makeRecord("ORG", record.TypeOrganization, "alice", 5)
	post := makeRecord("P", "post", "alice", 6)
	require.Nil(t, s.Upsert(org), "upsert organization")
	require.Nil(t, s.Upsert(post), "upsert post")

	o, err := s.Organization(org.DID)
	assert.Nil(t, err, "organization")
	assert.NotNil(t, o, "organization not in secondary index")

	deleted, err := s.DeleteByDID(org.DID)
	assert.Nil(t, err, "delete")
	assert.True(t, deleted, "not deleted")

	o, err = s.Organization(org.DID)
	assert.Nil(t, err, "organization after delete")
	assert.Nil(t, o, "organization survived")

	got, err := s.GetByDID(org.DID)
	assert.Nil(t, err, "get after delete")
	assert.Nil(t, got, "record survived")

	list, err := s.Query(storage.Filter{Creator: "alice"})
	assert.Nil(t, err, "query")
	assert.Equal(t, []string{post.DID}, dids(list), "index entry survived")

	deleted, err = s.DeleteByDID(org.DID)
	assert.Nil(t, err, "second delete")
	assert.False(t, deleted, "deleted twice")

	tombstone, err := s.IsDeleted(org.DID)
	assert.Nil(t, err, "tombstone")
	assert.True(t, tombstone, "no tombstone for deleted record")

	tombstone, err = s.IsDeleted(post.DID)
	assert.Nil(t, err, "tombstone")
	assert.False(t, tombstone, "tombstone for live record")
}
