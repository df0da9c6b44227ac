// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package gunsync

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/goccy/go-json"

	"github.com/DevonJames/oip-arweave-indexer-sub000/fault"
	"github.com/DevonJames/oip-arweave-indexer-sub000/record"
	"github.com/DevonJames/oip-arweave-indexer-sub000/storage"
)

// heartbeat - one field of the registry node, stored as a JSON string
type heartbeat struct {
	Address  string           `json:"address"`
	At       int64            `json:"at"` // milliseconds
	Holdings map[string]int64 `json:"holdings,omitempty"`
}

type heartbeater struct {
	o *Orchestrator
}

// Run - background process interface
func (h *heartbeater) Run(args interface{}, shutdown <-chan struct{}) {
	o := h.o
	log := o.log

	log.Info("heartbeat starting…")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	timer := time.NewTimer(0)
	defer timer.Stop()

loop:
	for {
		select {
		case <-shutdown:
			break loop
		case <-timer.C:
			if err := o.Heartbeat(ctx); nil != err {
				log.Warnf("heartbeat: %s", err)
			}
			timer.Reset(o.options.HeartbeatInterval)
		}
	}

	log.Info("heartbeat shutting down…")
	if "" != o.options.PeerFile {
		if err := o.registry.Backup(o.options.PeerFile); nil != err {
			log.Errorf("peer backup: %s", err)
		}
	}
	log.Info("heartbeat stopped")
}

// Heartbeat - publish this node's heartbeat, read every peer's and
// sweep the registry
func (o *Orchestrator) Heartbeat(ctx context.Context) error {
	held, err := o.held()
	if nil != err {
		return err
	}
	advertised := held
	if len(held) > o.options.MaxAdvertised {
		advertised = newest(held, o.options.MaxAdvertised)
	}

	if "" != o.options.Address {
		hb := heartbeat{
			Address:  o.options.Address,
			At:       time.Now().UnixNano() / int64(time.Millisecond),
			Holdings: advertised,
		}
		buffer, err := json.Marshal(hb)
		if nil != err {
			return err
		}
		_, err = o.peers.PutFields(ctx, o.options.RegistrySoul, map[string]interface{}{
			o.identity.ID(): string(buffer),
		})
		if nil != err {
			// still read the others
			o.log.Warnf("publish heartbeat: %s", err)
		}
	}

	fields, err := o.peers.GetFields(ctx, o.options.RegistrySoul)
	if nil != err && !fault.IsErrNotFound(err) {
		return err
	}
	for id, f := range fields {
		if id == o.identity.ID() {
			continue
		}
		hb, err := decodeHeartbeat(f.Value)
		if nil != err {
			o.log.Debugf("peer: %s bad heartbeat: %s", id, err)
			continue
		}
		at := time.Unix(0, hb.At*int64(time.Millisecond))
		state, err := o.registry.Heartbeat(id, hb.Address, at)
		if nil != err {
			o.log.Debugf("peer: %s heartbeat: %s", id, err)
			continue
		}
		if hb.Holdings != nil {
			o.pools.Holdings.Put(id, hb.Holdings)
		}
		o.log.Tracef("peer: %s state: %s holdings: %d", id, state, len(hb.Holdings))
	}

	for _, id := range o.registry.Sweep() {
		o.pools.Holdings.Delete(id)
	}
	return nil
}

func decodeHeartbeat(value json.RawMessage) (*heartbeat, error) {
	var text string
	if err := json.Unmarshal(value, &text); nil != err {
		return nil, fmt.Errorf("%v: %w", err, fault.ErrInvalidHeartbeat)
	}
	hb := &heartbeat{}
	if err := json.Unmarshal([]byte(text), hb); nil != err {
		return nil, fmt.Errorf("%v: %w", err, fault.ErrInvalidHeartbeat)
	}
	if "" == hb.Address || hb.At <= 0 {
		return nil, fault.ErrInvalidHeartbeat
	}
	return hb, nil
}

// held - soul to timestamp of every peer store record in the index
func (o *Orchestrator) held() (map[string]int64, error) {
	list, err := o.store.Query(storage.Filter{Storage: record.OriginGun})
	if nil != err {
		return nil, err
	}
	held := make(map[string]int64, len(list))
	for _, r := range list {
		if soul, ok := soulOf(r.DID); ok {
			held[soul] = r.OIP.Timestamp
		}
	}
	return held, nil
}

// seeded - the held records published by this node
func (o *Orchestrator) seeded() (map[string]int64, error) {
	list, err := o.store.Query(storage.Filter{Storage: record.OriginGun, Creator: o.identity.ID()})
	if nil != err {
		return nil, err
	}
	seeded := make(map[string]int64, len(list))
	for _, r := range list {
		if soul, ok := soulOf(r.DID); ok {
			seeded[soul] = r.OIP.Timestamp
		}
	}
	return seeded, nil
}

// the most recently written n entries
func newest(m map[string]int64, n int) map[string]int64 {
	souls := make([]string, 0, len(m))
	for soul := range m {
		souls = append(souls, soul)
	}
	sort.Slice(souls, func(i, j int) bool {
		if m[souls[i]] == m[souls[j]] {
			return souls[i] < souls[j]
		}
		return m[souls[i]] > m[souls[j]]
	})
	result := make(map[string]int64, n)
	for _, soul := range souls[:n] {
		result[soul] = m[soul]
	}
	return result
}

func soulOf(did string) (string, bool) {
	origin, id, err := record.ParseDID(did)
	if nil != err || record.OriginGun != origin {
		return "", false
	}
	return id, true
}
