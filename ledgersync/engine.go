// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package ledgersync - keep the index up to date with the ledger
//
// each cycle reads the confirmed transactions above the cursor, indexes
// templates first, then translates records in parallel, then applies
// deletion messages one at a time in height order and only then moves
// the cursor
package ledgersync

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bitmark-inc/logger"

	"github.com/DevonJames/oip-arweave-indexer-sub000/deletion"
	"github.com/DevonJames/oip-arweave-indexer-sub000/fault"
	"github.com/DevonJames/oip-arweave-indexer-sub000/ledger"
	"github.com/DevonJames/oip-arweave-indexer-sub000/metrics"
	"github.com/DevonJames/oip-arweave-indexer-sub000/storage"
	"github.com/DevonJames/oip-arweave-indexer-sub000/template"
	"github.com/DevonJames/oip-arweave-indexer-sub000/translator"
)

const (
	ledgersyncLogName = "ledgersync"

	defaultInterval           = 30 * time.Second
	defaultWorkers            = 4
	defaultForceRefreshCycles = 10
	defaultDeferredLimit      = 100
)

// Options - engine tuning
type Options struct {
	Interval           time.Duration // between cycles
	StartBlock         uint64        // first height to read on an empty index
	Workers            int           // parallel translations
	ResolveDepth       int           // reference expansion stored with records
	ForceRefreshCycles int           // fresh broad scan every N cycles
	DeferredLimit      int           // deferred records retried per cycle
}

// State - engine state
type State int32

// engine states
const (
	StateIdle State = iota
	StateRunning
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	default:
		return "*unknown*"
	}
}

// Engine - the ledger synchroniser
type Engine struct {
	sync.Mutex // protects status and remap

	log        *logger.L
	client     ledger.Client
	store      *storage.Store
	resolver   *template.Resolver
	translator *translator.Translator
	deletions  *deletion.Applier
	options    Options

	state   int32 // State
	cycles  uint64
	refresh int32

	remap  []string
	status Status
}

// New - create an engine
func New(
	client ledger.Client,
	store *storage.Store,
	resolver *template.Resolver,
	deletions *deletion.Applier,
	options Options,
) *Engine {
	if options.Interval <= 0 {
		options.Interval = defaultInterval
	}
	if options.Workers <= 0 {
		options.Workers = defaultWorkers
	}
	if options.ForceRefreshCycles <= 0 {
		options.ForceRefreshCycles = defaultForceRefreshCycles
	}
	if options.DeferredLimit <= 0 {
		options.DeferredLimit = defaultDeferredLimit
	}
	if options.ResolveDepth < 0 {
		options.ResolveDepth = 0
	}

	return &Engine{
		log:        logger.New(ledgersyncLogName),
		client:     client,
		store:      store,
		resolver:   resolver,
		translator: translator.New(store),
		deletions:  deletions,
		options:    options,
	}
}

// RunCycle - apply all confirmed transactions above cursor, returns the
// new cursor
//
// only one cycle runs at a time, a call made while a cycle is running
// returns ErrCycleInProgress and the cursor unchanged; on any error that
// aborts the cycle the cursor is returned unchanged
func (e *Engine) RunCycle(ctx context.Context, cursor uint64) (uint64, error) {
	if !atomic.CompareAndSwapInt32(&e.state, int32(StateIdle), int32(StateRunning)) {
		e.log.Debug("cycle in progress: skip")
		return cursor, fault.ErrCycleInProgress
	}
	defer atomic.StoreInt32(&e.state, int32(StateIdle))

	start := time.Now()
	c := newCycle(e, cursor)
	newCursor, err := c.run(ctx)
	e.finish(start, newCursor, c.counts, err)

	if nil != err {
		metrics.SyncCycles.WithLabelValues("failed").Inc()
		return cursor, err
	}
	metrics.SyncCycles.WithLabelValues("ok").Inc()
	metrics.SyncCursor.Set(float64(newCursor))
	metrics.CycleDuration.Observe(time.Since(start).Seconds())
	return newCursor, nil
}

// State - current engine state
func (e *Engine) State() State {
	return State(atomic.LoadInt32(&e.state))
}

// RequestRefresh - take a fresh broad scan at the start of the next cycle
func (e *Engine) RequestRefresh() {
	atomic.StoreInt32(&e.refresh, 1)
}

// RequestRemap - re-translate records written with the given templates
// at the start of the next cycle
func (e *Engine) RequestRemap(templateIDs ...string) {
	e.Lock()
	defer e.Unlock()

	for _, id := range templateIDs {
		id = template.ID(id)
		if "" != id {
			e.remap = append(e.remap, id)
		}
	}
}

// take the pending remap list
func (e *Engine) takeRemap() []string {
	e.Lock()
	defer e.Unlock()

	ids := e.remap
	e.remap = nil
	return ids
}

// decide if this cycle starts with a fresh broad scan
func (e *Engine) forceRefresh() bool {
	n := atomic.AddUint64(&e.cycles, 1)
	requested := 1 == atomic.SwapInt32(&e.refresh, 0)
	return requested || 0 == n%uint64(e.options.ForceRefreshCycles)
}
