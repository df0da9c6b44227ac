// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package gunsync

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/DevonJames/oip-arweave-indexer-sub000/deletion"
	"github.com/DevonJames/oip-arweave-indexer-sub000/fault"
	"github.com/DevonJames/oip-arweave-indexer-sub000/gun"
	"github.com/DevonJames/oip-arweave-indexer-sub000/metrics"
	"github.com/DevonJames/oip-arweave-indexer-sub000/record"
)

// Publish - sign a record as this node, put it under this node's soul
// for localID and index it; returns the record's DID
//
// the timestamp always moves past the indexed copy so a republished
// record wins everywhere
func (o *Orchestrator) Publish(ctx context.Context, localID string, r *record.Record, encrypt bool) (string, error) {
	localID = strings.TrimSpace(localID)
	if "" == localID || strings.ContainsAny(localID, " /") {
		return "", fault.ErrInvalidDID
	}
	soul := o.identity.Soul(localID)

	r.DID = record.GunDID(soul)
	r.OIP.Storage = record.OriginGun
	r.OIP.InArweaveBlock = 0
	r.OIP.RecordStatus = ""
	r.OIP.Timestamp = time.Now().UnixNano() / int64(time.Millisecond)

	existing, err := o.store.GetByDID(r.DID)
	if nil != err {
		return "", err
	}
	if nil != existing && existing.OIP.Timestamp >= r.OIP.Timestamp {
		r.OIP.Timestamp = existing.OIP.Timestamp + 1
	}

	if err := o.identity.SignRecord(r); nil != err {
		return "", err
	}
	payload, err := r.Pack()
	if nil != err {
		return "", err
	}

	state, err := o.peers.Put(ctx, soul, payload, gun.PutOptions{Encrypt: encrypt})
	if nil != err {
		return "", err
	}

	r.OIP.IndexedAt = time.Now()
	if err := o.store.Upsert(r); nil != err {
		return "", err
	}
	o.pools.Published.Put(soul, state)
	o.pools.Ingested.Put(soul, state)
	metrics.PeerRecords.WithLabelValues("published").Inc()
	o.log.Infof("published: %s type: %s state: %d encrypted: %t", r.DID, r.RecordType, state, encrypt)
	return r.DID, nil
}

// Delete - apply a deletion of target signed by this node and, for a
// peer store record, publish the message so every peer applies it
func (o *Orchestrator) Delete(ctx context.Context, target string) (deletion.Outcome, error) {
	did, err := record.NormaliseDID(target)
	if nil != err {
		return deletion.OutcomeNotFound, err
	}
	m := &deletion.Message{
		Kind:   deletion.KindRecord,
		Target: did,
	}

	outcome, err := o.deletions.Apply(m, o.identity.ID(), 0)
	if nil != err {
		return outcome, err
	}
	metrics.Deletions.WithLabelValues("operator", outcome.String()).Inc()
	if deletion.OutcomeDeleted != outcome {
		o.log.Warnf("delete: %s outcome: %s", did, outcome)
		return outcome, nil
	}
	o.log.Infof("delete: %s", did)

	if origin, _, _ := record.ParseDID(did); record.OriginGun != origin {
		return outcome, nil
	}

	r := m.Record("", record.Envelope{})
	r.OIP.Creator = o.identity.ID()
	_, err = o.Publish(ctx, "delete-"+uuid.New().String(), r, false)
	if nil != err {
		// deleted here, peers will not hear of it until republished
		o.log.Errorf("delete: %s publish message: %s", did, err)
		return outcome, err
	}
	return outcome, nil
}
