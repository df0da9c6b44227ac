// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package replication - keep peer store records held by enough peers
//
// records seeded by this node are pushed to active peers until
// replication_factor of them hold a copy; records advertised by a peer
// and missing here are pulled. Failed transfers are retried with an
// exponential backoff and abandoned after max_attempts.
package replication
