// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package gunsync

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/DevonJames/oip-arweave-indexer-sub000/deletion"
	"github.com/DevonJames/oip-arweave-indexer-sub000/fault"
	"github.com/DevonJames/oip-arweave-indexer-sub000/gun"
	"github.com/DevonJames/oip-arweave-indexer-sub000/metrics"
	"github.com/DevonJames/oip-arweave-indexer-sub000/record"
)

// Outcome - what an ingest did to the index
type Outcome int

// ingest outcomes
const (
	Indexed   Outcome = iota // new record
	Updated                  // newer copy replaced the indexed one
	Unchanged                // indexed copy is as new or newer
	Tombstoned               // record was deleted here before
	Applied                  // deletion message applied and retained
)

func (o Outcome) String() string {
	switch o {
	case Indexed:
		return "indexed"
	case Updated:
		return "updated"
	case Unchanged:
		return "unchanged"
	case Tombstoned:
		return "tombstoned"
	case Applied:
		return "applied"
	default:
		return "*unknown*"
	}
}

// Ingest - read a soul from the peer store and bring the index in line
// with it
func (o *Orchestrator) Ingest(ctx context.Context, soul string) (Outcome, error) {
	v, err := o.peers.Get(ctx, soul)
	if nil != err {
		metrics.PeerRecords.WithLabelValues("failed").Inc()
		return Unchanged, err
	}
	return o.ingest(soul, v)
}

func (o *Orchestrator) ingest(soul string, v *gun.Value) (Outcome, error) {
	if state, ok := o.pools.Ingested.Get(soul); ok && state.(int64) >= v.State {
		metrics.PeerRecords.WithLabelValues(Unchanged.String()).Inc()
		return Unchanged, nil
	}

	r, err := o.verify(soul, v)
	if nil != err {
		o.log.Warnf("soul: %s rejected: %s", soul, err)
		metrics.PeerRecords.WithLabelValues("rejected").Inc()
		return Unchanged, err
	}

	outcome, err := o.index(r)
	if nil != err {
		metrics.PeerRecords.WithLabelValues("failed").Inc()
		return outcome, err
	}
	o.pools.Ingested.Put(soul, v.State)
	metrics.PeerRecords.WithLabelValues(outcome.String()).Inc()
	o.log.Debugf("soul: %s state: %d outcome: %s", soul, v.State, outcome)
	return outcome, nil
}

// verify - decode a peer store value and check it belongs to its soul
func (o *Orchestrator) verify(soul string, v *gun.Value) (*record.Record, error) {
	r, err := record.Unpack(v.Payload)
	if nil != err {
		return nil, fmt.Errorf("%v: %w", err, fault.ErrInvalidPayload)
	}
	if record.GunDID(soul) != r.DID {
		return nil, fmt.Errorf("did: %s under soul: %s: %w", r.DID, soul, fault.ErrInvalidPayload)
	}
	if err := gun.VerifyRecord(r); nil != err {
		return nil, err
	}

	// only the key owner writes under its own soul prefix
	n := strings.IndexByte(soul, ':')
	if n <= 0 || !strings.HasPrefix(r.OIP.Creator, soul[:n]) {
		return nil, fmt.Errorf("soul: %s creator: %s: %w", soul, r.OIP.Creator, fault.ErrAccessDenied)
	}

	if 0 == r.OIP.Timestamp {
		r.OIP.Timestamp = v.State
	}
	r.OIP.Storage = record.OriginGun
	r.OIP.InArweaveBlock = 0
	r.OIP.RecordStatus = ""
	return r, nil
}

// index - last writer wins against the indexed copy
func (o *Orchestrator) index(r *record.Record) (Outcome, error) {
	deleted, err := o.store.IsDeleted(r.DID)
	if nil != err {
		return Unchanged, err
	}
	if deleted {
		return Tombstoned, nil
	}

	existing, err := o.store.GetByDID(r.DID)
	if nil != err {
		return Unchanged, err
	}

	if r.IsDeletion() {
		if nil != existing {
			return Unchanged, nil
		}
		return o.applyDeletion(r)
	}

	outcome := Indexed
	if nil != existing {
		if existing.OIP.Timestamp >= r.OIP.Timestamp {
			return Unchanged, nil
		}
		outcome = Updated
	}

	r.OIP.IndexedAt = time.Now()
	if err := o.store.Upsert(r); nil != err {
		return Unchanged, err
	}
	return outcome, nil
}

// applyDeletion - a deletion message from the peer store; it is never
// bound to a ledger height
func (o *Orchestrator) applyDeletion(r *record.Record) (Outcome, error) {
	m, err := deletion.FromRecord(r)
	if nil != err {
		return Unchanged, err
	}

	outcome, err := o.deletions.Apply(m, r.OIP.Creator, 0)
	if nil != err {
		return Unchanged, err
	}
	metrics.Deletions.WithLabelValues(string(record.OriginGun), outcome.String()).Inc()
	if deletion.OutcomeDeleted != outcome {
		o.log.Warnf("deletion: %s of: %s by: %s outcome: %s", r.DID, m.Target, r.OIP.Creator, outcome)
	} else {
		o.log.Infof("deletion: %s of: %s by: %s", r.DID, m.Target, r.OIP.Creator)
	}

	envelope := r.OIP
	envelope.IndexedAt = time.Now()
	audit := m.AuditRecord(r.DID, envelope, outcome)
	if err := o.store.Upsert(audit); nil != err {
		return Unchanged, err
	}
	return Applied, nil
}
