// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package maintenance

import (
	"context"
	"time"

	"github.com/bitmark-inc/logger"

	"github.com/DevonJames/oip-arweave-indexer-sub000/deletion"
	"github.com/DevonJames/oip-arweave-indexer-sub000/gunsync"
	"github.com/DevonJames/oip-arweave-indexer-sub000/ledgersync"
	"github.com/DevonJames/oip-arweave-indexer-sub000/metrics"
	"github.com/DevonJames/oip-arweave-indexer-sub000/record"
)

// Index - the parts of the index store used here
type Index interface {
	ClearCache()
	Count() (int, error)
}

// Templates - the template resolver cache
type Templates interface {
	Purge()
	Len() int
}

// Syncer - the ledger synchroniser
type Syncer interface {
	Status() ledgersync.Status
	RequestRefresh()
	RequestRemap(templateIDs ...string)
}

// Peers - the peer store synchroniser
type Peers interface {
	Status() gunsync.Status
	ClearCaches() map[string]int
}

// Deleter - operator deletion of a single record
type Deleter interface {
	Delete(ctx context.Context, did string) (deletion.Outcome, error)
}

// Node - the running daemon as seen by the maintenance surface
//
// Peers is nil when no peer store is configured
type Node struct {
	Log       *logger.L
	Version   string
	Start     time.Time
	Index     Index
	Templates Templates
	Ledger    Syncer
	Peers     Peers
	Deleter   Deleter
}

// ClearCaches - empty every in-memory cache, returns the number of
// items dropped per cache
func (n *Node) ClearCaches(trigger string) map[string]int {
	counts := map[string]int{
		"templates": n.Templates.Len(),
	}
	n.Index.ClearCache()
	n.Templates.Purge()
	if nil != n.Peers {
		for name, count := range n.Peers.ClearCaches() {
			counts[name] = count
		}
	}
	metrics.CacheClears.WithLabelValues(trigger).Inc()
	if nil != n.Log {
		n.Log.Infof("caches cleared by: %s  counts: %v", trigger, counts)
	}
	return counts
}

// LocalDeleter - deletion in the index only, for a node without a peer
// store
type LocalDeleter struct {
	Applier *deletion.Applier
	Signer  string
}

// Delete - apply a deletion of did signed by the configured signer
func (d LocalDeleter) Delete(_ context.Context, did string) (deletion.Outcome, error) {
	normalised, err := record.NormaliseDID(did)
	if nil != err {
		return deletion.OutcomeNotFound, err
	}
	m := &deletion.Message{
		Kind:   deletion.KindRecord,
		Target: normalised,
	}
	outcome, err := d.Applier.Apply(m, d.Signer, 0)
	if nil == err {
		metrics.Deletions.WithLabelValues("operator", outcome.String()).Inc()
	}
	return outcome, err
}
