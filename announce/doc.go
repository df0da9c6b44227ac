// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package announce - registry of peer nodes seen on the peer store
//
// each node publishes a heartbeat into a shared registry node; a peer
// moves through these states as its heartbeat ages
//
//  unknown  ->  active   first heartbeat (a seed has none yet)
//  active   ->  stale    no heartbeat for stale_after
//  stale    ->  evicted  no heartbeat for evict_after, then forgotten
//
// seed peers come from DNS TXT records, see the domain sub-package
package announce
