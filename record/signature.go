// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package record

import (
	"fmt"

	"github.com/mr-tron/base58"
	"golang.org/x/crypto/ed25519"
	"golang.org/x/crypto/sha3"

	"github.com/DevonJames/oip-arweave-indexer-sub000/fault"
)

// CreatorID - identity derived from a public key
func CreatorID(publicKey []byte) string {
	digest := sha3.Sum256(publicKey)
	return base58.Encode(digest[:])
}

// VerifySignature - check that signature is the creator's signature of
// message and that creator is derived from the base58 public key
func VerifySignature(creator string, publicKey string, signature string, message []byte) error {
	key, err := base58.Decode(publicKey)
	if nil != err || ed25519.PublicKeySize != len(key) {
		return fmt.Errorf("public key: %w", fault.ErrInvalidSignature)
	}
	if CreatorID(key) != creator {
		return fmt.Errorf("creator does not match key: %w", fault.ErrInvalidSignature)
	}
	sig, err := base58.Decode(signature)
	if nil != err || ed25519.SignatureSize != len(sig) {
		return fmt.Errorf("signature encoding: %w", fault.ErrInvalidSignature)
	}
	if !ed25519.Verify(key, message, sig) {
		return fault.ErrInvalidSignature
	}
	return nil
}
