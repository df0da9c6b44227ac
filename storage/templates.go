// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage

import (
	"fmt"

	"github.com/syndtr/goleveldb/leveldb"

	"github.com/DevonJames/oip-arweave-indexer-sub000/fault"
	"github.com/DevonJames/oip-arweave-indexer-sub000/template"
)

// PutTemplate - index a template; templates are immutable so a second
// put of the same id is ignored
func (s *Store) PutTemplate(t *template.Template) error {
	packed, err := t.Pack()
	if nil != err {
		return err
	}

	s.Lock()
	defer s.Unlock()

	if nil == s.db {
		return fault.ErrNotInitialised
	}

	key := []byte(t.ID)
	existing, err := s.pool.Templates.get(key)
	if nil != err {
		return err
	}
	if nil != existing {
		s.log.Debugf("template: %s already indexed", t.ID)
		return nil
	}

	batch := new(leveldb.Batch)
	s.pool.Templates.put(batch, key, packed)
	s.pool.TemplateNames.put(batch, compoundKey(t.Name, t.ID), []byte{})
	err = s.db.Write(batch, nil)
	if nil != err {
		return err
	}
	s.log.Infof("template: %s name: %q indexed", t.ID, t.Name)
	return nil
}

// GetTemplate - read a template, nil if not indexed
func (s *Store) GetTemplate(id string) (*template.Template, error) {
	s.RLock()
	defer s.RUnlock()

	if nil == s.db {
		return nil, fault.ErrNotInitialised
	}
	return s.getTemplate(id)
}

func (s *Store) getTemplate(id string) (*template.Template, error) {
	buffer, err := s.pool.Templates.get([]byte(id))
	if nil != err || nil == buffer {
		return nil, err
	}
	t, err := template.Unpack(buffer)
	if nil != err {
		return nil, fmt.Errorf("template: %s corrupt: %w", id, err)
	}
	return t, nil
}

// TemplatesByName - ids of all templates published with a name
func (s *Store) TemplatesByName(name string) ([]string, error) {
	s.RLock()
	defer s.RUnlock()

	if nil == s.db {
		return nil, fault.ErrNotInitialised
	}
	ids := make([]string, 0)
	p := s.pool.TemplateNames
	err := p.mapRange(p.prefixRange(compoundPrefix(name)), func(key []byte, _ []byte) (bool, error) {
		ids = append(ids, string(key[len(name)+1:]))
		return true, nil
	})
	return ids, err
}

// TemplateInUse - true if any indexed record was written with the template
func (s *Store) TemplateInUse(id string) (bool, error) {
	s.RLock()
	defer s.RUnlock()

	if nil == s.db {
		return false, fault.ErrNotInitialised
	}
	return s.pool.TemplateUse.hasPrefix(compoundPrefix(id))
}

// TemplateUsers - DIDs of records written with the template
func (s *Store) TemplateUsers(id string) ([]string, error) {
	s.RLock()
	defer s.RUnlock()

	if nil == s.db {
		return nil, fault.ErrNotInitialised
	}
	dids := make([]string, 0)
	p := s.pool.TemplateUse
	err := p.mapRange(p.prefixRange(compoundPrefix(id)), func(key []byte, _ []byte) (bool, error) {
		dids = append(dids, string(key[len(id)+1:]))
		return true, nil
	})
	return dids, err
}

// DeleteTemplate - remove a template; false if it was not indexed
func (s *Store) DeleteTemplate(id string) (bool, error) {
	s.Lock()
	defer s.Unlock()

	if nil == s.db {
		return false, fault.ErrNotInitialised
	}

	t, err := s.getTemplate(id)
	if nil != err {
		return false, err
	}
	if nil == t {
		return false, nil
	}

	batch := new(leveldb.Batch)
	s.pool.Templates.remove(batch, []byte(id))
	s.pool.TemplateNames.remove(batch, compoundKey(t.Name, t.ID))
	err = s.db.Write(batch, nil)
	if nil != err {
		return false, err
	}
	s.log.Infof("template: %s deleted", id)
	return true, nil
}
