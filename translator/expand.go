// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package translator

import (
	"github.com/DevonJames/oip-arweave-indexer-sub000/record"
)

// Expand - copy of r with references inlined to depth levels
//
// a reference to a record already being expanded further up the chain
// is left as a bare DID, as is a reference to a record not indexed
func (t *Translator) Expand(r *record.Record, depth int) (*record.Record, error) {
	c, err := r.Clone()
	if nil != err {
		return nil, err
	}

	inProgress := map[string]struct{}{
		c.DID: {},
	}
	err = t.expand(c, depth, inProgress)
	if nil != err {
		return nil, err
	}
	return c, nil
}

func (t *Translator) expand(r *record.Record, depth int, inProgress map[string]struct{}) error {
	for si := range r.Data {
		fields := r.Data[si].Fields
		for fi := range fields {
			if record.KindReference != fields[fi].Kind {
				continue
			}
			values := fields[fi].Values
			for vi := range values {
				ref := &values[vi].Reference
				ref.Record = nil

				if depth <= 0 {
					continue
				}
				if _, busy := inProgress[ref.DID]; busy {
					t.log.Debugf("record: %s reference cycle at: %s", r.DID, ref.DID)
					continue
				}

				target, err := t.lookup.GetByDID(ref.DID)
				if nil != err {
					return err
				}
				if nil == target {
					continue
				}
				inner, err := target.Clone()
				if nil != err {
					return err
				}

				inProgress[ref.DID] = struct{}{}
				err = t.expand(inner, depth-1, inProgress)
				delete(inProgress, ref.DID)
				if nil != err {
					return err
				}
				ref.Record = inner
			}
		}
	}
	return nil
}
