// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package gunsync

import (
	"context"
	"time"

	"github.com/DevonJames/oip-arweave-indexer-sub000/announce"
	"github.com/DevonJames/oip-arweave-indexer-sub000/gun"
)

// Push - copy a soul from the local relays to a peer's relay
func (o *Orchestrator) Push(ctx context.Context, soul string, peer announce.Peer) error {
	v, err := o.peers.Get(ctx, soul)
	if nil != err {
		return err
	}
	remote, err := o.remote(peer.Address)
	if nil != err {
		return err
	}
	_, err = remote.Put(ctx, soul, v.Payload, gun.PutOptions{Encrypt: v.Encrypted})
	return err
}

// Pull - copy a soul from a peer's relay to the local relays and
// ingest it
func (o *Orchestrator) Pull(ctx context.Context, soul string, peer announce.Peer) error {
	remote, err := o.remote(peer.Address)
	if nil != err {
		return err
	}
	v, err := remote.Get(ctx, soul)
	if nil != err {
		return err
	}

	// reject before spreading it any further
	if _, err := o.verify(soul, v); nil != err {
		return err
	}
	state, err := o.peers.Put(ctx, soul, v.Payload, gun.PutOptions{Encrypt: v.Encrypted})
	if nil != err {
		return err
	}
	v.State = state
	_, err = o.ingest(soul, v)
	return err
}

type replicator struct {
	o *Orchestrator
}

// Run - background process interface
func (r *replicator) Run(args interface{}, shutdown <-chan struct{}) {
	o := r.o
	log := o.log

	log.Info("replication starting…")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	timer := time.NewTimer(o.options.ReplicationInterval)
	defer timer.Stop()

loop:
	for {
		select {
		case <-shutdown:
			break loop
		case <-timer.C:
			if err := o.Replicate(ctx); nil != err {
				log.Warnf("replicate: %s", err)
			}
			timer.Reset(o.options.ReplicationInterval)
		}
	}

	log.Info("replication stopped")
}

// Replicate - plan jobs against the active peers' holdings and run
// the due ones
func (o *Orchestrator) Replicate(ctx context.Context) error {
	held, err := o.held()
	if nil != err {
		return err
	}
	seeded, err := o.seeded()
	if nil != err {
		return err
	}

	holdings := make(map[string]map[string]int64)
	for id, v := range o.pools.Holdings.Items() {
		if h, ok := v.(map[string]int64); ok {
			holdings[id] = h
		}
	}

	_, planErr := o.replication.Plan(seeded, held, o.registry.Active(), holdings)
	if nil != planErr {
		// jobs already planned still run
		o.log.Warnf("plan: %s", planErr)
	}
	n := o.replication.Dispatch(ctx)
	if n > 0 {
		o.log.Infof("replicated: %d  open jobs: %d", n, o.replication.Len())
	}
	return planErr
}
