// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package gun

import (
	"crypto/rand"
	"fmt"
	"io/ioutil"
	"os"
	"strings"

	"github.com/goccy/go-json"
	"github.com/mr-tron/base58"
	"golang.org/x/crypto/ed25519"

	"github.com/DevonJames/oip-arweave-indexer-sub000/fault"
	"github.com/DevonJames/oip-arweave-indexer-sub000/record"
)

const soulPrefixLength = 12

// Identity - signing key pair of this node
type Identity struct {
	PublicKey  ed25519.PublicKey
	PrivateKey ed25519.PrivateKey
}

// NewIdentity - key pair from a 32 byte seed, a nil seed generates one
func NewIdentity(seed []byte) (*Identity, error) {
	if nil == seed {
		seed = make([]byte, ed25519.SeedSize)
		if _, err := rand.Read(seed); nil != err {
			return nil, err
		}
	}
	if ed25519.SeedSize != len(seed) {
		return nil, fault.ErrInvalidCount
	}
	private := ed25519.NewKeyFromSeed(seed)
	return &Identity{
		PublicKey:  private.Public().(ed25519.PublicKey),
		PrivateKey: private,
	}, nil
}

// LoadIdentity - read a base58 seed from a file, creating the file with
// a new seed if it does not exist
func LoadIdentity(fileName string) (*Identity, error) {
	data, err := ioutil.ReadFile(fileName)
	if os.IsNotExist(err) {
		id, err := NewIdentity(nil)
		if nil != err {
			return nil, err
		}
		text := base58.Encode(id.PrivateKey.Seed()) + "\n"
		if err := ioutil.WriteFile(fileName, []byte(text), 0600); nil != err {
			return nil, err
		}
		return id, nil
	}
	if nil != err {
		return nil, err
	}

	seed, err := base58.Decode(strings.TrimSpace(string(data)))
	if nil != err {
		return nil, fmt.Errorf("identity file: %q: %v", fileName, err)
	}
	return NewIdentity(seed)
}

// ID - public identity of this node
func (id *Identity) ID() string {
	return CreatorID(id.PublicKey)
}

// Soul - soul of one of this node's records
func (id *Identity) Soul(localID string) string {
	return Soul(id.PublicKey, localID)
}

// CreatorID - identity derived from a public key
func CreatorID(publicKey []byte) string {
	return record.CreatorID(publicKey)
}

// Soul - content addressed key of a record: the first characters of
// the creator id then the publisher's local id
func Soul(publicKey []byte, localID string) string {
	id := CreatorID(publicKey)
	if len(id) > soulPrefixLength {
		id = id[:soulPrefixLength]
	}
	return id + ":" + localID
}

// the signed form of a record, local index state excluded
type signedRecord struct {
	DID              string           `json:"did"`
	RecordType       string           `json:"recordType"`
	Data             []record.Section `json:"data"`
	Creator          string           `json:"creator"`
	CreatorPublicKey string           `json:"creatorPublicKey"`
	Timestamp        int64            `json:"timestamp"`
}

func canonical(r *record.Record) ([]byte, error) {
	return json.Marshal(signedRecord{
		DID:              r.DID,
		RecordType:       r.RecordType,
		Data:             r.Data,
		Creator:          r.OIP.Creator,
		CreatorPublicKey: r.OIP.CreatorPublicKey,
		Timestamp:        r.OIP.Timestamp,
	})
}

// SignRecord - set the creator fields of a record and sign it
func (id *Identity) SignRecord(r *record.Record) error {
	r.OIP.Creator = id.ID()
	r.OIP.CreatorPublicKey = base58.Encode(id.PublicKey)
	r.OIP.Signature = ""

	message, err := canonical(r)
	if nil != err {
		return err
	}
	r.OIP.Signature = base58.Encode(ed25519.Sign(id.PrivateKey, message))
	return nil
}

// VerifyRecord - check the signature and that the creator is the owner
// of the signing key
func VerifyRecord(r *record.Record) error {
	message, err := canonical(r)
	if nil != err {
		return err
	}
	return record.VerifySignature(r.OIP.Creator, r.OIP.CreatorPublicKey, r.OIP.Signature, message)
}
