// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package template

import (
	"fmt"
	"strings"

	lru "github.com/hashicorp/golang-lru"

	"github.com/bitmark-inc/logger"

	"github.com/DevonJames/oip-arweave-indexer-sub000/fault"
	"github.com/DevonJames/oip-arweave-indexer-sub000/record"
)

const (
	resolverLogName    = "template"
	defaultCacheLength = 1024
)

// Source - durable lookup of indexed templates
//
// GetTemplate returns nil, nil when the template is not indexed
type Source interface {
	GetTemplate(id string) (*Template, error)
}

// Resolver - maps a template reference to a template, in front of the
// index store
//
// confirmed templates never change so a cached entry is only dropped
// by size pressure or an authorised template deletion
type Resolver struct {
	log    *logger.L
	source Source
	cache  *lru.Cache
}

// NewResolver - create a resolver holding at most size templates in memory
func NewResolver(source Source, size int) (*Resolver, error) {
	if size <= 0 {
		size = defaultCacheLength
	}
	cache, err := lru.New(size)
	if nil != err {
		return nil, err
	}
	return &Resolver{
		log:    logger.New(resolverLogName),
		source: source,
		cache:  cache,
	}, nil
}

// ID - template id from either a bare id or a DID
func ID(reference string) string {
	return strings.TrimPrefix(strings.TrimSpace(reference), "did:"+string(record.OriginArweave)+":")
}

// Resolve - find a template, ErrTemplateNotFound if not yet indexed
func (r *Resolver) Resolve(reference string) (*Template, error) {
	id := ID(reference)
	if "" == id {
		return nil, fault.ErrTemplateNotFound
	}

	if t, ok := r.cache.Get(id); ok {
		return t.(*Template), nil
	}

	t, err := r.source.GetTemplate(id)
	if nil != err {
		return nil, err
	}
	if nil == t {
		r.log.Debugf("template: %s not indexed", id)
		return nil, fmt.Errorf("template: %s: %w", id, fault.ErrTemplateNotFound)
	}

	r.cache.Add(id, t)
	return t, nil
}

// Add - cache a template just indexed
func (r *Resolver) Add(t *Template) {
	r.cache.Add(t.ID, t)
}

// Remove - drop a deleted template
func (r *Resolver) Remove(reference string) {
	r.cache.Remove(ID(reference))
}

// Purge - empty the cache
func (r *Resolver) Purge() {
	r.cache.Purge()
}

// Len - number of cached templates
func (r *Resolver) Len() int {
	return r.cache.Len()
}
