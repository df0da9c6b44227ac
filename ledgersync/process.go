// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package ledgersync

import (
	"context"
	"errors"
	"time"

	"github.com/DevonJames/oip-arweave-indexer-sub000/fault"
	"github.com/DevonJames/oip-arweave-indexer-sub000/metrics"
)

// Run - background process: a cycle every interval until shutdown
//
// shutdown is only seen between cycles so a running cycle always
// completes or fails on its own per-call timeouts
func (e *Engine) Run(args interface{}, shutdown <-chan struct{}) {
	log := e.log

	log.Info("starting…")

	cursor, err := e.InitialCursor()
	if nil != err {
		log.Criticalf("initial cursor error: %s", err)
		return
	}
	e.setCursor(cursor)
	log.Infof("cursor: %d", cursor)

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
			cursor = e.tick(ctx, cursor)
			timer.Reset(e.options.Interval)
		}
	}

	log.Info("shutting down…")
	log.Info("stopped")
}

func (e *Engine) tick(ctx context.Context, cursor uint64) uint64 {
	height, err := e.client.Height(ctx)
	if nil == err {
		e.setLedgerHeight(height)
		metrics.LedgerHeight.Set(float64(height))
	} else {
		e.log.Warnf("ledger height: %s", err)
	}

	newCursor, err := e.RunCycle(ctx, cursor)
	if nil != err && !errors.Is(err, fault.ErrCycleInProgress) {
		e.log.Warnf("cycle aborted, retry next interval: %s", err)
	}
	return newCursor
}

// InitialCursor - resume from the index; an empty index starts just
// below the configured start block
func (e *Engine) InitialCursor() (uint64, error) {
	cursor, err := e.store.MaxConfirmedBlock()
	if nil != err {
		return 0, err
	}
	if e.options.StartBlock > 0 && cursor < e.options.StartBlock-1 {
		cursor = e.options.StartBlock - 1
	}
	return cursor, nil
}
