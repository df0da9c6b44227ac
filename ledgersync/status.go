// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package ledgersync

import (
	"time"
)

// Counts - transaction outcomes
type Counts struct {
	Templates uint64 `json:"templates"`
	Indexed   uint64 `json:"indexed"`
	Upgraded  uint64 `json:"upgraded"`
	Skipped   uint64 `json:"skipped"`
	Deferred  uint64 `json:"deferred"`
	Failed    uint64 `json:"failed"`
	Deletions uint64 `json:"deletions"`
	Remapped  uint64 `json:"remapped"`
}

func (c *Counts) add(other Counts) {
	c.Templates += other.Templates
	c.Indexed += other.Indexed
	c.Upgraded += other.Upgraded
	c.Skipped += other.Skipped
	c.Deferred += other.Deferred
	c.Failed += other.Failed
	c.Deletions += other.Deletions
	c.Remapped += other.Remapped
}

// Status - summary for the maintenance endpoint
type Status struct {
	State        string    `json:"state"`
	Cursor       uint64    `json:"cursor"`
	LedgerHeight uint64    `json:"ledgerHeight"`
	Cycles       uint64    `json:"cycles"`
	LastCycle    time.Time `json:"lastCycle"`
	LastDuration string    `json:"lastDuration"`
	LastError    string    `json:"lastError,omitempty"`
	LastCounts   Counts    `json:"lastCycleCounts"`
	Totals       Counts    `json:"totals"`
	PendingRemap []string  `json:"pendingRemap,omitempty"`
}

// Status - snapshot of the engine status
func (e *Engine) Status() Status {
	e.Lock()
	defer e.Unlock()

	s := e.status
	s.State = e.State().String()
	if len(e.remap) > 0 {
		s.PendingRemap = append([]string{}, e.remap...)
	}
	return s
}

func (e *Engine) finish(start time.Time, cursor uint64, counts Counts, err error) {
	e.Lock()
	defer e.Unlock()

	e.status.Cycles += 1
	e.status.LastCycle = start
	e.status.LastDuration = time.Since(start).String()
	e.status.LastCounts = counts
	e.status.Totals.add(counts)
	if nil != err {
		e.status.LastError = err.Error()
		e.log.Errorf("cycle from: %d failed: %s", cursor, err)
		return
	}
	e.status.LastError = ""
	e.status.Cursor = cursor
	e.log.Infof("cycle done  cursor: %d  indexed: %d  templates: %d  deletions: %d  deferred: %d  failed: %d",
		cursor, counts.Indexed, counts.Templates, counts.Deletions, counts.Deferred, counts.Failed)
}

func (e *Engine) setLedgerHeight(height uint64) {
	e.Lock()
	e.status.LedgerHeight = height
	e.Unlock()
}

func (e *Engine) setCursor(cursor uint64) {
	e.Lock()
	e.status.Cursor = cursor
	e.Unlock()
}
