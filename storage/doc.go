// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package storage - the local index of records and templates
//
// maintain separate pools of a number of elements in key->value form
//
// This maintains a LevelDB database split into a series of tables.
// Each table is defined by a prefix byte that is obtained from the
// prefix tag in the struct defining the available tables.
//
// Notes:
// 1. each separate pool has a single byte prefix
// 2. ++           = concatenation of byte data
// 3. height, time = big endian uint64 (8 bytes), time in unix nanoseconds
// 4. 00           = single zero byte separator
// 5. did          = full DID string e.g. did:arweave:<txid>
//
// Records:
//
//   R ++ did                   - record in JSON form
//   W ++ did                   - raw payload as published (for remapping)
//   G ++ did                   - organization records (secondary index)
//   X ++ did                   - time: record was deleted, never indexed again
//
// Record indexes (no data):
//
//   C ++ creator ++ 00 ++ did
//   T ++ record type ++ 00 ++ did
//   B ++ height ++ did         - ledger records only
//   I ++ time ++ did           - indexed at
//   O ++ origin ++ 00 ++ did
//   U ++ template id ++ 00 ++ did
//
// Templates:
//
//   P ++ template id           - template in JSON form
//   N ++ name ++ 00 ++ template id
//
// Synchronisation:
//
//   D ++ transaction id        - ledger transaction waiting for a template
//   M ++ "cursor"              - height: last fully applied ledger height
package storage
