// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package ledger

import (
	"fmt"
	"sort"

	"github.com/goccy/go-json"

	"github.com/DevonJames/oip-arweave-indexer-sub000/fault"
	"github.com/DevonJames/oip-arweave-indexer-sub000/record"
)

// tag names written by publishers
const (
	TagIndexMethod      = "Index-Method"
	TagVersion          = "Ver"
	TagType             = "Type"
	TagRecordType       = "RecordType"
	TagCreator          = "Creator"
	TagCreatorSig       = "CreatorSig"
	TagCreatorPublicKey = "CreatorPublicKey"
	TagTemplateName     = "TemplateName"
	TagContentType      = "Content-Type"
)

// tag values
const (
	IndexMethodOIP   = "OIP"
	TypeRecord       = "Record"
	TypeTemplate     = "Template"
	defaultRecordVer = "0.8.0"
)

// Tag - a name/value pair attached to a transaction
type Tag struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Transaction - a confirmed ledger transaction (data fetched separately)
type Transaction struct {
	ID          string `json:"id"`
	Owner       string `json:"owner"`
	OwnerKey    string `json:"ownerKey,omitempty"`
	BlockHeight uint64 `json:"height"`
	Timestamp   int64  `json:"timestamp"` // block time, unix seconds
	Tags        []Tag  `json:"tags"`
}

// Tag - value of the first tag with a name, "" if absent
func (t *Transaction) Tag(name string) string {
	for _, tag := range t.Tags {
		if name == tag.Name {
			return tag.Value
		}
	}
	return ""
}

// IsTemplate - true for a template publication
func (t *Transaction) IsTemplate() bool {
	return TypeTemplate == t.Tag(TagType)
}

// RecordType - declared record type
func (t *Transaction) RecordType() string {
	return t.Tag(TagRecordType)
}

// Signer - the publishing identity of a transaction whose data is given
//
// without a creator tag this is the ledger owner, whose wallet signed
// the transaction itself; a creator tag is only accepted with a
// CreatorSig over the data made by CreatorPublicKey, from which the
// creator must be derived
func (t *Transaction) Signer(data []byte) (string, error) {
	creator := t.Tag(TagCreator)
	if "" == creator {
		if "" == t.Owner {
			return "", fmt.Errorf("transaction: %s has no owner: %w", t.ID, fault.ErrInvalidSignature)
		}
		return t.Owner, nil
	}
	err := record.VerifySignature(creator, t.Tag(TagCreatorPublicKey), t.Tag(TagCreatorSig), data)
	if nil != err {
		return "", fmt.Errorf("transaction: %s creator: %s: %w", t.ID, creator, err)
	}
	return creator, nil
}

// Version - record format version
func (t *Transaction) Version() string {
	if v := t.Tag(TagVersion); "" != v {
		return v
	}
	return defaultRecordVer
}

// Pack - storage form, used for deferred transactions
func (t *Transaction) Pack() ([]byte, error) {
	return json.Marshal(t)
}

// Unpack - decode the storage form
func Unpack(buffer []byte) (*Transaction, error) {
	t := &Transaction{}
	err := json.Unmarshal(buffer, t)
	if nil != err {
		return nil, err
	}
	return t, nil
}

// Sort - order by height then id
func Sort(list []Transaction) {
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].BlockHeight != list[j].BlockHeight {
			return list[i].BlockHeight < list[j].BlockHeight
		}
		return list[i].ID < list[j].ID
	})
}
