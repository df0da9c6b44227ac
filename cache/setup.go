// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package cache

import (
	"fmt"
	"reflect"
	"strconv"
	"sync"
	"time"
)

type item struct {
	object    interface{}
	storedAt  time.Time
	expiresAt time.Time
}

// PoolData - one bounded pool
type PoolData struct {
	sync.RWMutex
	name         string
	items        map[string]item
	expiresAfter time.Duration
	maximum      int
}

// Pools - all pools, built from the struct tags
type Pools struct {
	Ingested  *PoolData `exp:"10m" max:"10000"`
	Holdings  *PoolData `exp:"30m" max:"1000"`
	Published *PoolData `exp:"1h" max:"10000"`
}

// New - create the pools
func New() (*Pools, error) {
	pools := &Pools{}
	poolType := reflect.TypeOf(pools).Elem()
	poolValue := reflect.ValueOf(pools).Elem()

	for i := 0; i < poolType.NumField(); i++ {
		var exp time.Duration
		maximum := 0

		fieldInfo := poolType.Field(i)
		expTag := fieldInfo.Tag.Get("exp")
		if len(expTag) > 0 {
			d, err := time.ParseDuration(expTag)
			if err != nil {
				return nil, fmt.Errorf("invalid time duration: %s", expTag)
			}
			exp = d
		}
		maxTag := fieldInfo.Tag.Get("max")
		if len(maxTag) > 0 {
			n, err := strconv.Atoi(maxTag)
			if nil != err || n <= 0 {
				return nil, fmt.Errorf("invalid maximum size: %s", maxTag)
			}
			maximum = n
		}

		p := &PoolData{
			name:         fieldInfo.Name,
			items:        make(map[string]item),
			expiresAfter: exp,
			maximum:      maximum,
		}
		poolValue.Field(i).Set(reflect.ValueOf(p))
	}

	return pools, nil
}

// each - apply f to every pool
func (pools *Pools) each(f func(p *PoolData)) {
	poolValue := reflect.ValueOf(pools).Elem()
	for i := 0; i < poolValue.NumField(); i++ {
		f(poolValue.Field(i).Interface().(*PoolData))
	}
}

// Clear - empty every pool, returns the number of items dropped per pool
func (pools *Pools) Clear() map[string]int {
	counts := make(map[string]int)
	pools.each(func(p *PoolData) {
		counts[p.name] = p.Clear()
	})
	return counts
}

// Sizes - number of items per pool
func (pools *Pools) Sizes() map[string]int {
	sizes := make(map[string]int)
	pools.each(func(p *PoolData) {
		sizes[p.name] = p.Size()
	})
	return sizes
}

// Put - add or replace an item, evicting the oldest item when full
func (p *PoolData) Put(key string, value interface{}) {
	p.Lock()
	defer p.Unlock()

	now := time.Now()
	val := item{object: value, storedAt: now}
	if p.expiresAfter > 0 {
		val.expiresAt = now.Add(p.expiresAfter)
	}

	if _, ok := p.items[key]; !ok && p.maximum > 0 && len(p.items) >= p.maximum {
		p.evict(now)
	}
	p.items[key] = val
}

// caller holds the write lock
func (p *PoolData) evict(now time.Time) {
	oldestKey := ""
	var oldest time.Time
	for key, item := range p.items {
		if expired(item.expiresAt, now) {
			delete(p.items, key)
			continue
		}
		if "" == oldestKey || item.storedAt.Before(oldest) {
			oldestKey = key
			oldest = item.storedAt
		}
	}
	if len(p.items) >= p.maximum && "" != oldestKey {
		delete(p.items, oldestKey)
	}
}

// Get - read an item, expired items are not returned
func (p *PoolData) Get(key string) (interface{}, bool) {
	p.RLock()
	defer p.RUnlock()

	item, ok := p.items[key]
	if !ok || expired(item.expiresAt, time.Now()) {
		return nil, false
	}
	return item.object, true
}

// Delete - remove an item
func (p *PoolData) Delete(key string) {
	p.Lock()
	defer p.Unlock()

	delete(p.items, key)
}

// Items - copy of the unexpired items
func (p *PoolData) Items() map[string]interface{} {
	p.RLock()
	defer p.RUnlock()

	now := time.Now()
	m := make(map[string]interface{}, len(p.items))
	for k, v := range p.items {
		if !expired(v.expiresAt, now) {
			m[k] = v.object
		}
	}
	return m
}

// Size - number of items held, including expired ones not yet removed
func (p *PoolData) Size() int {
	p.RLock()
	defer p.RUnlock()

	return len(p.items)
}

// Clear - remove all items, returns the number removed
func (p *PoolData) Clear() int {
	p.Lock()
	defer p.Unlock()

	n := len(p.items)
	p.items = make(map[string]item)
	return n
}
