// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package gunsync - keep the index in step with the peer store
//
// three processes share one lifecycle: heartbeat (advertise this node
// and its holdings, read the other peers, sweep the registry),
// replication (plan and dispatch transfers) and a cleaner for the
// bounded pools. None of them shares a lock with the ledger
// synchroniser, both only meet at the index store.
package gunsync

import (
	"context"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru"

	"github.com/bitmark-inc/logger"

	"github.com/DevonJames/oip-arweave-indexer-sub000/announce"
	"github.com/DevonJames/oip-arweave-indexer-sub000/background"
	"github.com/DevonJames/oip-arweave-indexer-sub000/cache"
	"github.com/DevonJames/oip-arweave-indexer-sub000/deletion"
	"github.com/DevonJames/oip-arweave-indexer-sub000/gun"
	"github.com/DevonJames/oip-arweave-indexer-sub000/replication"
	"github.com/DevonJames/oip-arweave-indexer-sub000/storage"
)

const (
	gunsyncLogName = "gunsync"

	defaultRegistrySoul        = "oip:registry"
	defaultHeartbeatInterval   = 30 * time.Second
	defaultReplicationInterval = time.Minute
	defaultCacheInterval       = time.Minute
	defaultMaxAdvertised       = 1000
	defaultRemotes             = 32
)

// PeerStore - the operations used on a peer store
type PeerStore interface {
	Put(ctx context.Context, soul string, payload []byte, options gun.PutOptions) (int64, error)
	Get(ctx context.Context, soul string) (*gun.Value, error)
	PutFields(ctx context.Context, soul string, values map[string]interface{}) (int64, error)
	GetFields(ctx context.Context, soul string) (map[string]gun.Field, error)
}

// Dialer - open a peer store on a single peer's relay
type Dialer func(address string) (PeerStore, error)

// Options - orchestrator settings, zero values take defaults
type Options struct {
	Address             string // relay address advertised to peers
	RegistrySoul        string
	HeartbeatInterval   time.Duration
	ReplicationInterval time.Duration
	CacheInterval       time.Duration
	MaxAdvertised       int    // holdings per heartbeat
	PeerFile            string // registry backup, empty to disable
}

// Orchestrator - peer store synchroniser
type Orchestrator struct {
	sync.Mutex // protects processes

	log         *logger.L
	store       *storage.Store
	peers       PeerStore
	dial        Dialer
	remotes     *lru.Cache
	identity    *gun.Identity
	registry    *announce.Registry
	replication *replication.Manager
	deletions   *deletion.Applier
	pools       *cache.Pools
	options     Options

	processes *background.T
}

// New - create an orchestrator
func New(
	store *storage.Store,
	peers PeerStore,
	dial Dialer,
	identity *gun.Identity,
	registry *announce.Registry,
	deletions *deletion.Applier,
	replicationOptions replication.Options,
	options Options,
) (*Orchestrator, error) {
	if "" == options.RegistrySoul {
		options.RegistrySoul = defaultRegistrySoul
	}
	if options.HeartbeatInterval <= 0 {
		options.HeartbeatInterval = defaultHeartbeatInterval
	}
	if options.ReplicationInterval <= 0 {
		options.ReplicationInterval = defaultReplicationInterval
	}
	if options.CacheInterval <= 0 {
		options.CacheInterval = defaultCacheInterval
	}
	if options.MaxAdvertised <= 0 {
		options.MaxAdvertised = defaultMaxAdvertised
	}

	pools, err := cache.New()
	if nil != err {
		return nil, err
	}

	log := logger.New(gunsyncLogName)
	remotes, err := lru.NewWithEvict(defaultRemotes, func(key interface{}, value interface{}) {
		if c, ok := value.(interface{ Close() }); ok {
			log.Debugf("close remote: %v", key)
			c.Close()
		}
	})
	if nil != err {
		return nil, err
	}

	o := &Orchestrator{
		log:       log,
		store:     store,
		peers:     peers,
		dial:      dial,
		remotes:   remotes,
		identity:  identity,
		registry:  registry,
		deletions: deletions,
		pools:     pools,
		options:   options,
	}
	o.replication = replication.New(o, replicationOptions)
	return o, nil
}

// Start - run the heartbeat, replication and cleaner processes
func (o *Orchestrator) Start() {
	o.Lock()
	defer o.Unlock()

	if nil != o.processes {
		return
	}
	processes := background.Processes{
		&heartbeater{o: o},
		&replicator{o: o},
		&cache.Cleaner{
			Pools:    o.pools,
			Interval: o.options.CacheInterval,
			Log:      o.log,
		},
	}
	o.processes = background.Start(processes, nil)
}

// Stop - wait for the current heartbeat and transfers to finish, then
// close the remote connections
func (o *Orchestrator) Stop() {
	o.Lock()
	p := o.processes
	o.processes = nil
	o.Unlock()

	p.Stop()
	o.remotes.Purge()
}

// Registry - the peer registry
func (o *Orchestrator) Registry() *announce.Registry {
	return o.registry
}

// Replication - the job table
func (o *Orchestrator) Replication() *replication.Manager {
	return o.replication
}

// ClearCaches - empty the bounded pools, returns the counts dropped
func (o *Orchestrator) ClearCaches() map[string]int {
	counts := o.pools.Clear()
	o.log.Infof("cleared pools: %v", counts)
	return counts
}

// CacheSizes - items held per pool
func (o *Orchestrator) CacheSizes() map[string]int {
	return o.pools.Sizes()
}

func (o *Orchestrator) remote(address string) (PeerStore, error) {
	if v, ok := o.remotes.Get(address); ok {
		return v.(PeerStore), nil
	}
	ps, err := o.dial(address)
	if nil != err {
		return nil, err
	}
	o.remotes.Add(address, ps)
	return ps, nil
}
