// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package cache

import (
	"time"

	"github.com/bitmark-inc/logger"
)

const expirationCheckInterval = time.Minute

// Cleaner - background process removing expired items
type Cleaner struct {
	Pools    *Pools
	Interval time.Duration
	Log      *logger.L // optional
}

// Run - background process interface
func (c *Cleaner) Run(args interface{}, shutdown <-chan struct{}) {
	interval := c.Interval
	if interval <= 0 {
		interval = expirationCheckInterval
	}
	ticker := time.NewTicker(interval)
	for {
		select {
		case <-ticker.C:
			n := c.Pools.DeleteExpired()
			if nil != c.Log && n > 0 {
				c.Log.Infof("expired: %d  sizes: %v", n, c.Pools.Sizes())
			}
		case <-shutdown:
			ticker.Stop()
			return
		}
	}
}

// DeleteExpired - drop expired items from every pool, returns the count
func (pools *Pools) DeleteExpired() int {
	now := time.Now()
	n := 0
	pools.each(func(p *PoolData) {
		p.Lock()
		for key, item := range p.items {
			if expired(item.expiresAt, now) {
				delete(p.items, key)
				n += 1
			}
		}
		p.Unlock()
	})
	return n
}

func expired(exp time.Time, now time.Time) bool {
	return !exp.IsZero() && now.After(exp)
}
