// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage

import (
	"bytes"
	"sort"
	"time"

	ldb_util "github.com/syndtr/goleveldb/leveldb/util"

	"github.com/DevonJames/oip-arweave-indexer-sub000/fault"
	"github.com/DevonJames/oip-arweave-indexer-sub000/record"
)

const broadKey = "broad"

// Filter - selection of records, zero values do not restrict
//
// block and time ranges are inclusive
type Filter struct {
	RecordType    string
	Creator       string
	Storage       record.Origin
	MinBlock      uint64
	MaxBlock      uint64
	IndexedAfter  time.Time
	IndexedBefore time.Time
	Offset        int
	Limit         int
}

// IsBroad - true if the filter selects every record
func (f Filter) IsBroad() bool {
	return "" == f.RecordType &&
		"" == f.Creator &&
		"" == f.Storage &&
		0 == f.MinBlock &&
		0 == f.MaxBlock &&
		f.IndexedAfter.IsZero() &&
		f.IndexedBefore.IsZero()
}

// Match - test a single record
func (f Filter) Match(r *record.Record) bool {
	if "" != f.RecordType && f.RecordType != r.RecordType {
		return false
	}
	if "" != f.Creator && f.Creator != r.OIP.Creator {
		return false
	}
	if "" != f.Storage && f.Storage != r.OIP.Storage {
		return false
	}
	if f.MinBlock > 0 && r.OIP.InArweaveBlock < f.MinBlock {
		return false
	}
	if f.MaxBlock > 0 && (0 == r.OIP.InArweaveBlock || r.OIP.InArweaveBlock > f.MaxBlock) {
		return false
	}
	if !f.IndexedAfter.IsZero() && r.OIP.IndexedAt.Before(f.IndexedAfter) {
		return false
	}
	if !f.IndexedBefore.IsZero() && r.OIP.IndexedAt.After(f.IndexedBefore) {
		return false
	}
	return true
}

// Query - records matching a filter ordered by ledger height then DID
//
// the unfiltered scan is served from a short lived cache and may not
// include changes made since it was taken; ClearCache forces a fresh
// scan.  Returned records are shared and must not be modified.
func (s *Store) Query(f Filter) ([]*record.Record, error) {
	if f.IsBroad() {
		return s.broadScan(f)
	}

	s.RLock()
	defer s.RUnlock()

	if nil == s.db {
		return nil, fault.ErrNotInitialised
	}
	list, err := s.scan(f)
	if nil != err {
		return nil, err
	}
	return page(list, f.Offset, f.Limit), nil
}

// ClearCache - drop the cached unfiltered scan
func (s *Store) ClearCache() {
	s.broad.Flush()
	s.log.Info("cache cleared")
}

// DeleteByQuery - remove all records matching a non empty filter
func (s *Store) DeleteByQuery(f Filter) (int, error) {
	if f.IsBroad() {
		return 0, fault.ErrMissingParameters
	}

	s.Lock()
	defer s.Unlock()

	if nil == s.db {
		return 0, fault.ErrNotInitialised
	}
	list, err := s.scan(f)
	if nil != err {
		return 0, err
	}
	list = page(list, f.Offset, f.Limit)

	n := 0
	for _, r := range list {
		deleted, err := s.deleteRecord(r.DID)
		if nil != err {
			return n, err
		}
		if deleted {
			n += 1
		}
	}
	return n, nil
}

// Count - number of indexed records
func (s *Store) Count() (int, error) {
	s.RLock()
	defer s.RUnlock()

	if nil == s.db {
		return 0, fault.ErrNotInitialised
	}
	n := 0
	err := s.pool.Records.mapRange(s.pool.Records.keyRange(nil, nil), func(_ []byte, _ []byte) (bool, error) {
		n += 1
		return true, nil
	})
	return n, err
}

func (s *Store) broadScan(f Filter) ([]*record.Record, error) {
	if cached, ok := s.broad.Get(broadKey); ok {
		return page(cached.([]*record.Record), f.Offset, f.Limit), nil
	}

	s.RLock()
	if nil == s.db {
		s.RUnlock()
		return nil, fault.ErrNotInitialised
	}
	list, err := s.scan(Filter{Limit: s.broadLimit})
	s.RUnlock()
	if nil != err {
		return nil, err
	}
	if len(list) > s.broadLimit {
		list = list[:s.broadLimit]
	}

	s.broad.SetDefault(broadKey, list)
	s.log.Debugf("broad scan: %d records", len(list))
	return page(list, f.Offset, f.Limit), nil
}

// caller holds a lock
//
// walks the narrowest index the filter allows then tests each record
func (s *Store) scan(f Filter) ([]*record.Record, error) {
	var pool *PoolHandle
	var r *ldb_util.Range
	keyToDID := func(key []byte) string {
		return string(key[bytes.IndexByte(key, 0x00)+1:])
	}

	switch {
	case "" != f.RecordType:
		pool = s.pool.Types
		r = pool.prefixRange(compoundPrefix(f.RecordType))
	case "" != f.Creator:
		pool = s.pool.Creators
		r = pool.prefixRange(compoundPrefix(f.Creator))
	case f.MinBlock > 0 || f.MaxBlock > 0:
		pool = s.pool.Blocks
		var limit []byte
		if f.MaxBlock > 0 {
			limit = uint64Key(f.MaxBlock + 1)
		}
		r = pool.keyRange(uint64Key(f.MinBlock), limit)
		keyToDID = func(key []byte) string { return string(key[8:]) }
	case "" != f.Storage:
		pool = s.pool.Origins
		r = pool.prefixRange(compoundPrefix(string(f.Storage)))
	default:
		pool = s.pool.Records
		r = pool.keyRange(nil, nil)
		keyToDID = nil
	}

	list := make([]*record.Record, 0)
	err := pool.mapRange(r, func(key []byte, value []byte) (bool, error) {
		var rec *record.Record
		var err error
		if nil == keyToDID {
			rec, err = record.Unpack(value)
		} else {
			rec, err = s.getRecord(keyToDID(key))
		}
		if nil != err {
			return false, err
		}
		if nil == rec {
			s.log.Warnf("index entry without record: %q", key)
			return true, nil
		}
		if f.Match(rec) {
			list = append(list, rec)
		}
		return true, nil
	})
	if nil != err {
		return nil, err
	}

	sort.SliceStable(list, func(i, j int) bool {
		if list[i].OIP.InArweaveBlock != list[j].OIP.InArweaveBlock {
			return list[i].OIP.InArweaveBlock < list[j].OIP.InArweaveBlock
		}
		return list[i].DID < list[j].DID
	})
	return list, nil
}

// apply offset and limit, a zero limit means no limit
func page(list []*record.Record, offset int, limit int) []*record.Record {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(list) {
		return []*record.Record{}
	}
	end := len(list)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	result := make([]*record.Record, end-offset)
	copy(result, list[offset:end])
	return result
}
