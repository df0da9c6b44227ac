// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package background_test

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/DevonJames/oip-arweave-indexer-sub000/background"
)

// poller counts ticks until shutdown
type poller struct {
	name    string
	ticks   int64
	stopped int32
}

func (p *poller) Run(args interface{}, shutdown <-chan struct{}) {
	ticker := time.NewTicker(time.Millisecond)
	defer ticker.Stop()

loop:
	for {
		select {
		case <-shutdown:
			break loop
		case <-ticker.C:
			atomic.AddInt64(&p.ticks, 1)
		}
	}

	atomic.StoreInt32(&p.stopped, 1)
}

func Example() {
	ledger := &poller{name: "ledger"}
	peers := &poller{name: "peers"}

	// both loops share one shutdown
	processes := background.Processes{
		ledger,
		peers,
	}

	p := background.Start(processes, nil)
	time.Sleep(20 * time.Millisecond)
	p.Stop()
	p.Stop()

	for _, proc := range []*poller{ledger, peers} {
		fmt.Printf("%s stopped: %t ticked: %t\n", proc.name, 1 == atomic.LoadInt32(&proc.stopped), atomic.LoadInt64(&proc.ticks) > 0)
	}

	// a process set that was never started
	var none *background.T
	none.Stop()
	fmt.Println("nil stop: ok")

	// Output:
	// ledger stopped: true ticked: true
	// peers stopped: true ticked: true
	// nil stop: ok
}
