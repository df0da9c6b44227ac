// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package fault - error instances
//
// Provides a single instance of errors to allow easy comparison
// without having to resort to partial string matches.  Detail is
// added by wrapping with fmt.Errorf("…: %w", fault.ErrX) and the
// class is still detected by the IsErrX functions.
package fault
