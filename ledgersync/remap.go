// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package ledgersync

import (
	"fmt"

	"github.com/DevonJames/oip-arweave-indexer-sub000/template"
	"github.com/DevonJames/oip-arweave-indexer-sub000/translator"
)

// re-translate the stored payloads of every record written with the
// templates, keeping each record's envelope; returns the number of
// records rewritten
func (e *Engine) remapTemplates(ids []string) (int, error) {
	n := 0
	for _, id := range ids {
		e.resolver.Remove(id)

		users, err := e.store.TemplateUsers(id)
		if nil != err {
			return n, err
		}
		e.log.Infof("remap: template: %s  records: %d", id, len(users))

		for _, did := range users {
			err := e.remapRecord(did)
			if nil != err {
				e.log.Warnf("remap: %s: %s", did, err)
				continue
			}
			n += 1
		}
	}
	if n > 0 {
		e.store.ClearCache()
	}
	return n, nil
}

func (e *Engine) remapRecord(did string) error {
	existing, err := e.store.GetByDID(did)
	if nil != err {
		return err
	}
	if nil == existing {
		return nil
	}
	payload, err := e.store.Payload(did)
	if nil != err {
		return err
	}
	if nil == payload {
		return fmt.Errorf("no stored payload")
	}

	ids, err := translator.TemplateIDs(payload)
	if nil != err {
		return err
	}
	fieldMaps := make(map[string]*template.Template, len(ids))
	for _, id := range ids {
		t, err := e.resolver.Resolve(id)
		if nil != err {
			return err
		}
		fieldMaps[id] = t
	}

	r, err := e.translator.Translate(&translator.Raw{
		DID:        existing.DID,
		RecordType: existing.RecordType,
		Payload:    payload,
		Envelope:   existing.OIP,
	}, fieldMaps, e.options.ResolveDepth)
	if nil != err {
		return err
	}
	return e.store.Upsert(r)
}
