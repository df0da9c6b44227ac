// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage

import (
	"encoding/binary"

	"github.com/syndtr/goleveldb/leveldb"
	ldb_util "github.com/syndtr/goleveldb/leveldb/util"
)

// PoolHandle - one prefixed table of the database
type PoolHandle struct {
	prefix   byte
	limit    []byte
	database *leveldb.DB
}

// Element - a binary data item
type Element struct {
	Key   []byte
	Value []byte
}

// prepend the prefix onto the key
func (p *PoolHandle) prefixKey(key []byte) []byte {
	prefixedKey := make([]byte, 1, len(key)+1)
	prefixedKey[0] = p.prefix
	return append(prefixedKey, key...)
}

// queue a put in a batch
func (p *PoolHandle) put(batch *leveldb.Batch, key []byte, value []byte) {
	batch.Put(p.prefixKey(key), value)
}

// queue a delete in a batch
func (p *PoolHandle) remove(batch *leveldb.Batch, key []byte) {
	batch.Delete(p.prefixKey(key))
}

// read a value for a given key, nil if not found
func (p *PoolHandle) get(key []byte) ([]byte, error) {
	value, err := p.database.Get(p.prefixKey(key), nil)
	if leveldb.ErrNotFound == err {
		return nil, nil
	}
	return value, err
}

// check if any key starts with a given sub-prefix
func (p *PoolHandle) hasPrefix(subPrefix []byte) (bool, error) {
	iter := p.database.NewIterator(p.prefixRange(subPrefix), nil)
	found := iter.Next()
	iter.Release()
	return found, iter.Error()
}

// the range of all keys in this pool starting with subPrefix
func (p *PoolHandle) prefixRange(subPrefix []byte) *ldb_util.Range {
	r := ldb_util.BytesPrefix(p.prefixKey(subPrefix))
	return r
}

// the range of keys from start (included) to limit (excluded), a nil
// limit extends to the end of the pool
func (p *PoolHandle) keyRange(start []byte, limit []byte) *ldb_util.Range {
	r := &ldb_util.Range{
		Start: p.prefixKey(start),
		Limit: p.limit,
	}
	if nil != limit {
		r.Limit = p.prefixKey(limit)
	}
	return r
}

// Map - run a function on all elements in the range; the key passed
// has the pool prefix removed and both slices are copies
func (p *PoolHandle) mapRange(r *ldb_util.Range, f func(key []byte, value []byte) (bool, error)) error {
	iter := p.database.NewIterator(r, nil)

	var err error
iterating:
	for iter.Next() {

		// contents of the returned slice must not be modified, and are
		// only valid until the next call to Next
		key := iter.Key()
		value := iter.Value()

		dataKey := make([]byte, len(key)-1) // strip the prefix
		copy(dataKey, key[1:])              // ...

		dataValue := make([]byte, len(value))
		copy(dataValue, value)

		more, e := f(dataKey, dataValue)
		if nil != e {
			err = e
			break iterating
		}
		if !more {
			break iterating
		}
	}
	iter.Release()
	if nil == err {
		err = iter.Error()
	}
	return err
}

// get the last element in a pool
func (p *PoolHandle) lastElement() (Element, bool, error) {
	maxRange := ldb_util.Range{
		Start: []byte{p.prefix}, // Start of key range, included in the range
		Limit: p.limit,          // Limit of key range, excluded from the range
	}

	iter := p.database.NewIterator(&maxRange, nil)

	found := false
	result := Element{}
	if iter.Last() {
		key := iter.Key()
		value := iter.Value()

		result.Key = make([]byte, len(key)-1)
		copy(result.Key, key[1:])

		result.Value = make([]byte, len(value))
		copy(result.Value, value)
		found = true
	}
	iter.Release()
	return result, found, iter.Error()
}

// big endian number as a key component
func uint64Key(n uint64) []byte {
	buffer := make([]byte, 8)
	binary.BigEndian.PutUint64(buffer, n)
	return buffer
}

// name ++ 00 ++ id
func compoundKey(name string, id string) []byte {
	key := make([]byte, 0, len(name)+1+len(id))
	key = append(key, name...)
	key = append(key, 0x00)
	return append(key, id...)
}

// name ++ 00
func compoundPrefix(name string) []byte {
	key := make([]byte, 0, len(name)+1)
	key = append(key, name...)
	return append(key, 0x00)
}
