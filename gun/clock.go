// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package gun

import (
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru"
)

const defaultClockSouls = 10000

// per soul logical clock, a state is never less than the wall clock
// and always greater than the last state written for the soul
type clock struct {
	sync.Mutex
	last *lru.Cache
	now  func() time.Time
}

func newClock(size int) (*clock, error) {
	if size <= 0 {
		size = defaultClockSouls
	}
	last, err := lru.New(size)
	if nil != err {
		return nil, err
	}
	return &clock{
		last: last,
		now:  time.Now,
	}, nil
}

// next state for a soul
func (c *clock) next(soul string) int64 {
	c.Lock()
	defer c.Unlock()

	state := c.now().UnixNano() / int64(time.Millisecond)
	if v, ok := c.last.Get(soul); ok {
		if last := v.(int64); state <= last {
			state = last + 1
		}
	}
	c.last.Add(soul, state)
	return state
}

// record a state seen from a relay
func (c *clock) observe(soul string, state int64) {
	c.Lock()
	defer c.Unlock()

	if v, ok := c.last.Get(soul); ok && v.(int64) >= state {
		return
	}
	c.last.Add(soul, state)
}
