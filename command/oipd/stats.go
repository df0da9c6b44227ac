// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"runtime"
	"time"

	"github.com/goccy/go-json"

	"github.com/bitmark-inc/logger"
)

const (
	statsDelay = 60 * time.Second
	mega       = 1048576
)

type memorySummary struct {
	AllocatedMB  uint64 `json:"allocatedMB"`
	CumulativeMB uint64 `json:"cumulativeMB"`
	SystemMB     uint64 `json:"systemMB"`
	HeapObjects  uint64 `json:"heapObjects"`
	GCRuns       uint32 `json:"gcRuns"`
	Goroutines   int    `json:"goroutines"`
}

// periodic memory and goroutine usage, for spotting cache growth
// during long ledger catch-ups
func memstats() {

	log := logger.New("memory")

	for {
		var m runtime.MemStats
		runtime.ReadMemStats(&m)

		summary := memorySummary{
			AllocatedMB:  m.Alloc / mega,
			CumulativeMB: m.TotalAlloc / mega,
			SystemMB:     m.Sys / mega,
			HeapObjects:  m.HeapObjects,
			GCRuns:       m.NumGC,
			Goroutines:   runtime.NumGoroutine(),
		}

		text, err := json.Marshal(summary)
		if nil != err {
			log.Errorf("marshal error: %s", err)
		} else {
			log.Infof("stats: %s", text)
		}

		time.Sleep(statsDelay)
	}
}
