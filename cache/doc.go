// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package cache maintains the bounded memory pools of the peer store
// synchroniser
//
//  ***** Data Structure *****
//
//  Pool             Key             Value                    ExpiresAfter  Max
//  |___ Ingested    soul            record timestamp (int64) 10m           10000
//  |___ Holdings    peer id         []string (souls)         30m           1000
//  |___ Published   soul            record timestamp (int64) 1h            10000
//
//  ***** Purpose *****
//
//  Ingested:
//    souls already read from the peer store at a known state, so an
//    unchanged node is not fetched and verified again every heartbeat
//
//  Holdings:
//    the souls each active peer advertised in its last heartbeat, the
//    input to replication planning
//
//  Published:
//    souls this node has put, with the state written
//
// every pool has an expiry and a maximum size; the cleaner removes
// expired items and the synchroniser periodically clears all pools
package cache
