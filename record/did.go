// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package record

import (
	"fmt"
	"strings"

	"github.com/DevonJames/oip-arweave-indexer-sub000/fault"
)

const (
	didPrefix        = "did:"
	arweaveDIDPrefix = didPrefix + string(OriginArweave) + ":"
	gunDIDPrefix     = didPrefix + string(OriginGun) + ":"
)

// ArweaveDID - identifier of a ledger transaction
func ArweaveDID(txID string) string {
	return arweaveDIDPrefix + txID
}

// GunDID - identifier of a peer store node
func GunDID(soul string) string {
	return gunDIDPrefix + soul
}

// ParseDID - split a DID into its origin and origin specific id
func ParseDID(did string) (Origin, string, error) {
	switch {
	case strings.HasPrefix(did, arweaveDIDPrefix):
		id := did[len(arweaveDIDPrefix):]
		if !validID(id) {
			return "", "", fmt.Errorf("%q: %w", did, fault.ErrInvalidDID)
		}
		return OriginArweave, id, nil

	case strings.HasPrefix(did, gunDIDPrefix):
		id := did[len(gunDIDPrefix):]
		if "" == id || strings.ContainsAny(id, " \t\r\n") {
			return "", "", fmt.Errorf("%q: %w", did, fault.ErrInvalidDID)
		}
		return OriginGun, id, nil

	default:
		return "", "", fmt.Errorf("%q: %w", did, fault.ErrInvalidDID)
	}
}

// NormaliseDID - accept a full DID or a bare ledger transaction id
func NormaliseDID(s string) (string, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, didPrefix) {
		if _, _, err := ParseDID(s); nil != err {
			return "", err
		}
		return s, nil
	}
	if !validID(s) {
		return "", fmt.Errorf("%q: %w", s, fault.ErrInvalidDID)
	}
	return ArweaveDID(s), nil
}

// ledger ids are base64url, no separators allowed
func validID(id string) bool {
	if "" == id {
		return false
	}
	for _, c := range id {
		switch {
		case c >= 'a' && c <= 'z':
		case c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9':
		case c == '-' || c == '_':
		default:
			return false
		}
	}
	return true
}
