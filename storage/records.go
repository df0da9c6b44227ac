// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage

import (
	"fmt"
	"time"

	"github.com/syndtr/goleveldb/leveldb"

	"github.com/DevonJames/oip-arweave-indexer-sub000/fault"
	"github.com/DevonJames/oip-arweave-indexer-sub000/record"
)

// Upsert - insert or replace a record by DID
func (s *Store) Upsert(r *record.Record) error {
	return s.UpsertWithPayload(r, nil)
}

// UpsertWithPayload - insert or replace a record and keep the payload
// it was translated from; a nil payload keeps any stored payload
func (s *Store) UpsertWithPayload(r *record.Record, payload []byte) error {
	if "" == r.DID {
		return fault.ErrInvalidDID
	}

	packed, err := r.Pack()
	if nil != err {
		return err
	}

	s.Lock()
	defer s.Unlock()

	if nil == s.db {
		return fault.ErrNotInitialised
	}

	old, err := s.getRecord(r.DID)
	if nil != err {
		return err
	}

	batch := new(leveldb.Batch)
	if nil != old {
		s.removeIndexes(batch, old)
	}
	s.addIndexes(batch, r)

	key := []byte(r.DID)
	s.pool.Records.put(batch, key, packed)
	if record.TypeOrganization == r.RecordType {
		s.pool.Organizations.put(batch, key, packed)
	}
	if nil != payload {
		s.pool.Raw.put(batch, key, payload)
	}

	err = s.db.Write(batch, nil)
	if nil != err {
		return err
	}

	if nil == old {
		s.log.Debugf("insert: %s", r.DID)
	} else {
		s.log.Debugf("update: %s", r.DID)
	}
	return nil
}

// GetByDID - read a record, nil if not present
func (s *Store) GetByDID(did string) (*record.Record, error) {
	s.RLock()
	defer s.RUnlock()

	if nil == s.db {
		return nil, fault.ErrNotInitialised
	}
	return s.getRecord(did)
}

// Payload - the raw payload a record was translated from, nil if none
func (s *Store) Payload(did string) ([]byte, error) {
	s.RLock()
	defer s.RUnlock()

	if nil == s.db {
		return nil, fault.ErrNotInitialised
	}
	return s.pool.Raw.get([]byte(did))
}

// Organization - read a record from the organizations index
func (s *Store) Organization(did string) (*record.Record, error) {
	s.RLock()
	defer s.RUnlock()

	if nil == s.db {
		return nil, fault.ErrNotInitialised
	}
	buffer, err := s.pool.Organizations.get([]byte(did))
	if nil != err || nil == buffer {
		return nil, err
	}
	return record.Unpack(buffer)
}

// DeleteByDID - remove a record from every pool that holds it
//
// returns false if the record was not present
func (s *Store) DeleteByDID(did string) (bool, error) {
	s.Lock()
	defer s.Unlock()

	if nil == s.db {
		return false, fault.ErrNotInitialised
	}
	return s.deleteRecord(did)
}

// caller holds the write lock
func (s *Store) deleteRecord(did string) (bool, error) {
	old, err := s.getRecord(did)
	if nil != err {
		return false, err
	}

	key := []byte(did)
	batch := new(leveldb.Batch)
	if nil != old {
		s.removeIndexes(batch, old)
	}

	// secondary index entries are removed even if the primary was lost
	org, err := s.pool.Organizations.get(key)
	if nil != err {
		return false, err
	}
	if nil == old && nil == org {
		return false, nil
	}

	s.pool.Records.remove(batch, key)
	s.pool.Organizations.remove(batch, key)
	s.pool.Raw.remove(batch, key)
	s.pool.Tombstones.put(batch, key, uint64Key(uint64(time.Now().UnixNano())))

	err = s.db.Write(batch, nil)
	if nil != err {
		return false, err
	}
	s.log.Infof("deleted: %s", did)
	return true, nil
}

// IsDeleted - true if a record with the DID was deleted
func (s *Store) IsDeleted(did string) (bool, error) {
	s.RLock()
	defer s.RUnlock()

	if nil == s.db {
		return false, fault.ErrNotInitialised
	}
	value, err := s.pool.Tombstones.get([]byte(did))
	return nil != value, err
}

// caller holds a lock
func (s *Store) getRecord(did string) (*record.Record, error) {
	buffer, err := s.pool.Records.get([]byte(did))
	if nil != err {
		return nil, err
	}
	if nil == buffer {
		return nil, nil
	}
	r, err := record.Unpack(buffer)
	if nil != err {
		return nil, fmt.Errorf("record: %s corrupt: %w", did, err)
	}
	return r, nil
}

// the index keys for a record
func (s *Store) recordIndexes(r *record.Record) []indexEntry {
	did := r.DID
	entries := []indexEntry{
		{s.pool.Types, compoundKey(r.RecordType, did)},
		{s.pool.Indexed, append(uint64Key(uint64(r.OIP.IndexedAt.UnixNano())), did...)},
		{s.pool.Origins, compoundKey(string(r.OIP.Storage), did)},
	}
	if "" != r.OIP.Creator {
		entries = append(entries, indexEntry{s.pool.Creators, compoundKey(r.OIP.Creator, did)})
	}
	if r.OIP.InArweaveBlock > 0 {
		entries = append(entries, indexEntry{s.pool.Blocks, append(uint64Key(r.OIP.InArweaveBlock), did...)})
	}
	for _, t := range r.OIP.Templates {
		entries = append(entries, indexEntry{s.pool.TemplateUse, compoundKey(t, did)})
	}
	return entries
}

type indexEntry struct {
	pool *PoolHandle
	key  []byte
}

func (s *Store) addIndexes(batch *leveldb.Batch, r *record.Record) {
	for _, e := range s.recordIndexes(r) {
		e.pool.put(batch, e.key, []byte{})
	}
}

func (s *Store) removeIndexes(batch *leveldb.Batch, r *record.Record) {
	for _, e := range s.recordIndexes(r) {
		e.pool.remove(batch, e.key)
	}
}
