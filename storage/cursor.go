// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage

import (
	"encoding/binary"
	"fmt"

	"github.com/syndtr/goleveldb/leveldb"

	"github.com/DevonJames/oip-arweave-indexer-sub000/fault"
)

var cursorKey = []byte("cursor")

// Cursor - the persisted sync cursor, false if never set
func (s *Store) Cursor() (uint64, bool, error) {
	s.RLock()
	defer s.RUnlock()

	if nil == s.db {
		return 0, false, fault.ErrNotInitialised
	}
	return s.cursor()
}

func (s *Store) cursor() (uint64, bool, error) {
	buffer, err := s.pool.Meta.get(cursorKey)
	if nil != err || nil == buffer {
		return 0, false, err
	}
	if 8 != len(buffer) {
		return 0, false, fmt.Errorf("cursor length: %d: %w", len(buffer), fault.ErrInvalidCount)
	}
	return binary.BigEndian.Uint64(buffer), true, nil
}

// SetCursor - persist the sync cursor, which can never decrease
func (s *Store) SetCursor(height uint64) error {
	s.Lock()
	defer s.Unlock()

	if nil == s.db {
		return fault.ErrNotInitialised
	}

	current, ok, err := s.cursor()
	if nil != err {
		return err
	}
	if ok && height < current {
		return fmt.Errorf("cursor: %d -> %d: %w", current, height, fault.ErrCursorDecrease)
	}
	if ok && height == current {
		return nil
	}

	batch := new(leveldb.Batch)
	s.pool.Meta.put(batch, cursorKey, uint64Key(height))
	return s.db.Write(batch, nil)
}

// MaxConfirmedBlock - the highest ledger height reflected in the index
//
// the persisted cursor if set, otherwise the highest block of any
// indexed ledger record
func (s *Store) MaxConfirmedBlock() (uint64, error) {
	s.RLock()
	defer s.RUnlock()

	if nil == s.db {
		return 0, fault.ErrNotInitialised
	}

	height, ok, err := s.cursor()
	if nil != err || ok {
		return height, err
	}

	last, found, err := s.pool.Blocks.lastElement()
	if nil != err || !found {
		return 0, err
	}
	return binary.BigEndian.Uint64(last.Key[:8]), nil
}

// PutDeferred - keep a transaction that cannot be translated yet
func (s *Store) PutDeferred(id string, data []byte) error {
	s.Lock()
	defer s.Unlock()

	if nil == s.db {
		return fault.ErrNotInitialised
	}
	batch := new(leveldb.Batch)
	s.pool.Deferred.put(batch, []byte(id), data)
	return s.db.Write(batch, nil)
}

// Deferred - up to count deferred transactions in id order
func (s *Store) Deferred(count int) ([]Element, error) {
	if count <= 0 {
		return nil, fault.ErrInvalidCount
	}

	s.RLock()
	defer s.RUnlock()

	if nil == s.db {
		return nil, fault.ErrNotInitialised
	}

	results := make([]Element, 0, count)
	p := s.pool.Deferred
	err := p.mapRange(p.keyRange(nil, nil), func(key []byte, value []byte) (bool, error) {
		results = append(results, Element{Key: key, Value: value})
		return len(results) < count, nil
	})
	return results, err
}

// DeleteDeferred - drop a deferred transaction
func (s *Store) DeleteDeferred(id string) error {
	s.Lock()
	defer s.Unlock()

	if nil == s.db {
		return fault.ErrNotInitialised
	}
	batch := new(leveldb.Batch)
	s.pool.Deferred.remove(batch, []byte(id))
	return s.db.Write(batch, nil)
}
