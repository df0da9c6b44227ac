// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package deletion

import (
	"github.com/DevonJames/oip-arweave-indexer-sub000/record"
)

// Predicate - extra privilege rule, true allows signer to delete a
// target it did not create
type Predicate func(signer string, creator string) bool

// Policy - who may delete what
//
// the creator of a target may always delete it; so may any configured
// privileged identity or any signer accepted by the predicate
type Policy struct {
	privileged map[string]struct{}
	predicate  Predicate
}

// NewPolicy - create a policy, predicate may be nil
func NewPolicy(privileged []string, predicate Predicate) *Policy {
	p := &Policy{
		privileged: make(map[string]struct{}, len(privileged)),
		predicate:  predicate,
	}
	for _, id := range privileged {
		if "" != id {
			p.privileged[id] = struct{}{}
		}
	}
	return p
}

// Authorised - can signer remove something created by creator
func (p *Policy) Authorised(signer string, creator string) bool {
	if "" == signer {
		return false
	}
	if signer == creator {
		return true
	}
	if _, ok := p.privileged[signer]; ok {
		return true
	}
	if nil != p.predicate {
		return p.predicate(signer, creator)
	}
	return false
}

// Privileged - the configured privileged identities
func (p *Policy) Privileged() []string {
	list := make([]string, 0, len(p.privileged))
	for id := range p.privileged {
		list = append(list, id)
	}
	return list
}

func creatorOf(r *record.Record) string {
	return r.OIP.Creator
}
