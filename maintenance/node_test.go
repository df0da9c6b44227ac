// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package maintenance_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DevonJames/oip-arweave-indexer-sub000/deletion"
	"github.com/DevonJames/oip-arweave-indexer-sub000/fault"
	"github.com/DevonJames/oip-arweave-indexer-sub000/fixtures"
	"github.com/DevonJames/oip-arweave-indexer-sub000/maintenance"
	"github.com/DevonJames/oip-arweave-indexer-sub000/record"
	"github.com/DevonJames/oip-arweave-indexer-sub000/storage"
)

func TestLocalDeleter(t *testing.T) {
	dir := fixtures.TempDir("maintenance")
	defer os.RemoveAll(dir)

	store, err := storage.Open(filepath.Join(dir, "index.leveldb"), storage.Options{})
	require.Nil(t, err, "storage")
	defer store.Close()

	did := record.ArweaveDID("tx-00000000000000000000000000000000000000001")
	require.Nil(t, store.Upsert(&record.Record{
		DID:        did,
		RecordType: "post",
		OIP: record.Envelope{
			Creator:        "someone",
			InArweaveBlock: 10,
			RecordStatus:   record.StatusConfirmed,
			Storage:        record.OriginArweave,
			IndexedAt:      time.Now(),
		},
	}), "upsert")

	stranger := maintenance.LocalDeleter{
		Applier: deletion.New(store, nil, nil),
		Signer:  "operator",
	}
	outcome, err := stranger.Delete(context.Background(), did)
	assert.Nil(t, err, "delete")
	assert.Equal(t, deletion.OutcomeAccessDenied, outcome, "unprivileged operator")

	operator := maintenance.LocalDeleter{
		Applier: deletion.New(store, nil, deletion.NewPolicy([]string{"operator"}, nil)),
		Signer:  "operator",
	}
	outcome, err = operator.Delete(context.Background(), did)
	assert.Nil(t, err, "delete")
	assert.Equal(t, deletion.OutcomeDeleted, outcome, "privileged operator")

	r, err := store.GetByDID(did)
	assert.Nil(t, err, "get")
	assert.Nil(t, r, "record still present")

	_, err = operator.Delete(context.Background(), "not a did")
	assert.True(t, fault.IsErrInvalid(err), "invalid did: %v", err)
}
