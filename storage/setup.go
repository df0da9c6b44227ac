// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage

import (
	"encoding/binary"
	"fmt"
	"reflect"
	"sync"
	"time"

	"github.com/bitmark-inc/logger"
	cache "github.com/patrickmn/go-cache"
	"github.com/syndtr/goleveldb/leveldb"
	ldb_opt "github.com/syndtr/goleveldb/leveldb/opt"

	"github.com/DevonJames/oip-arweave-indexer-sub000/fault"
)

// exported storage pools
//
// note all must be exported (i.e. initial capital) or initialisation will panic
type pools struct {
	Records       *PoolHandle `prefix:"R"`
	Raw           *PoolHandle `prefix:"W"`
	Organizations *PoolHandle `prefix:"G"`
	Creators      *PoolHandle `prefix:"C"`
	Types         *PoolHandle `prefix:"T"`
	Blocks        *PoolHandle `prefix:"B"`
	Indexed       *PoolHandle `prefix:"I"`
	Origins       *PoolHandle `prefix:"O"`
	TemplateUse   *PoolHandle `prefix:"U"`
	Templates     *PoolHandle `prefix:"P"`
	TemplateNames *PoolHandle `prefix:"N"`
	Deferred      *PoolHandle `prefix:"D"`
	Tombstones    *PoolHandle `prefix:"X"`
	Meta          *PoolHandle `prefix:"M"`
}

// for database version
var versionKey = []byte{0x00, 'V', 'E', 'R', 'S', 'I', 'O', 'N'}

const (
	storageLogName        = "storage"
	currentIndexDBVersion = 0x100

	defaultBroadCacheTTL  = 30 * time.Second
	defaultBroadScanLimit = 10000
)

// Options - tuning for an open store
type Options struct {
	ReadOnly       bool
	BroadCacheTTL  time.Duration // lifetime of the cached unfiltered scan
	BroadScanLimit int           // maximum records returned by an unfiltered scan
}

// Store - a LevelDB backed index
//
// every record operation is applied as a single batch under the store
// lock so the record and all of its index entries change together
type Store struct {
	sync.RWMutex
	log        *logger.L
	db         *leveldb.DB
	pool       pools
	broad      *cache.Cache
	broadLimit int
}

// Open - open up the database, creating it if necessary
func Open(database string, options Options) (*Store, error) {
	log := logger.New(storageLogName)

	if options.BroadCacheTTL <= 0 {
		options.BroadCacheTTL = defaultBroadCacheTTL
	}
	if options.BroadScanLimit <= 0 {
		options.BroadScanLimit = defaultBroadScanLimit
	}

	db, version, err := getDB(database, options.ReadOnly)
	if nil != err {
		return nil, err
	}

	// ensure no database downgrade
	if version > currentIndexDBVersion {
		db.Close()
		log.Criticalf("index database version: %d > current version: %d", version, currentIndexDBVersion)
		return nil, fmt.Errorf("index database version: %d > current version: %d", version, currentIndexDBVersion)
	}
	if 0 == version && !options.ReadOnly {
		if err := putVersion(db, currentIndexDBVersion); nil != err {
			db.Close()
			return nil, err
		}
	}

	s := &Store{
		log:        log,
		db:         db,
		broad:      cache.New(options.BroadCacheTTL, 2*options.BroadCacheTTL),
		broadLimit: options.BroadScanLimit,
	}

	if err := s.setupPools(); nil != err {
		db.Close()
		return nil, err
	}

	log.Infof("opened: %q  version: %d", database, currentIndexDBVersion)
	return s, nil
}

// scan each field of the pools struct and assign a handle from its tag
func (s *Store) setupPools() error {

	// this will be a struct type
	poolType := reflect.TypeOf(s.pool)

	// get write access by using pointer + Elem()
	poolValue := reflect.ValueOf(&s.pool).Elem()

	seen := make(map[byte]string)
	for i := 0; i < poolType.NumField(); i += 1 {

		fieldInfo := poolType.Field(i)

		prefixTag := fieldInfo.Tag.Get("prefix")
		if 1 != len(prefixTag) {
			return fmt.Errorf("pool: %s prefix: %q: %w", fieldInfo.Name, prefixTag, fault.ErrInvalidPrefix)
		}

		prefix := prefixTag[0]
		if other, ok := seen[prefix]; ok {
			return fmt.Errorf("pool: %s prefix: %q already used by: %s: %w", fieldInfo.Name, prefixTag, other, fault.ErrInvalidPrefix)
		}
		seen[prefix] = fieldInfo.Name

		limit := []byte(nil)
		if prefix < 255 {
			limit = []byte{prefix + 1}
		}

		p := &PoolHandle{
			prefix:   prefix,
			limit:    limit,
			database: s.db,
		}
		poolValue.Field(i).Set(reflect.ValueOf(p))
	}
	return nil
}

// Close - close the database connection
func (s *Store) Close() error {
	s.Lock()
	defer s.Unlock()

	s.broad.Flush()
	if nil == s.db {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// return:
//   database handle
//   version number
func getDB(name string, readOnly bool) (*leveldb.DB, int, error) {
	opt := &ldb_opt.Options{
		ErrorIfExist:   false,
		ErrorIfMissing: readOnly,
		ReadOnly:       readOnly,
	}

	db, err := leveldb.OpenFile(name, opt)
	if nil != err {
		return nil, 0, err
	}

	versionValue, err := db.Get(versionKey, nil)
	if leveldb.ErrNotFound == err {
		return db, 0, nil
	} else if nil != err {
		db.Close()
		return nil, 0, err
	}

	if 4 != len(versionValue) {
		db.Close()
		return nil, 0, fmt.Errorf("incompatible database version length: expected: %d  actual: %d", 4, len(versionValue))
	}

	version := int(binary.BigEndian.Uint32(versionValue))
	return db, version, nil
}

func putVersion(db *leveldb.DB, version int) error {
	currentVersion := make([]byte, 4)
	binary.BigEndian.PutUint32(currentVersion, uint32(version))

	return db.Put(versionKey, currentVersion, nil)
}
