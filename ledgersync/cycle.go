// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package ledgersync

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/DevonJames/oip-arweave-indexer-sub000/deletion"
	"github.com/DevonJames/oip-arweave-indexer-sub000/fault"
	"github.com/DevonJames/oip-arweave-indexer-sub000/ledger"
	"github.com/DevonJames/oip-arweave-indexer-sub000/metrics"
	"github.com/DevonJames/oip-arweave-indexer-sub000/record"
	"github.com/DevonJames/oip-arweave-indexer-sub000/storage"
	"github.com/DevonJames/oip-arweave-indexer-sub000/template"
	"github.com/DevonJames/oip-arweave-indexer-sub000/translator"
)

// one run over a batch
type cycle struct {
	e      *Engine
	cursor uint64
	counts Counts

	known map[string]*record.Record
}

// a translated transaction
type result struct {
	tx      ledger.Transaction
	record  *record.Record
	payload []byte
	err     error
}

func newCycle(e *Engine, cursor uint64) *cycle {
	return &cycle{
		e:      e,
		cursor: cursor,
	}
}

func (c *cycle) run(ctx context.Context) (uint64, error) {
	e := c.e

	if e.forceRefresh() {
		e.store.ClearCache()
	}

	if ids := e.takeRemap(); len(ids) > 0 {
		n, err := e.remapTemplates(ids)
		c.counts.Remapped += uint64(n)
		if nil != err {
			e.log.Errorf("remap: %v error: %s", ids, err)
		}
	}

	txs, err := e.client.TransactionsSince(ctx, c.cursor)
	if nil != err {
		return c.cursor, err
	}

	templates, records, deletions := partition(txs)

	for _, tx := range templates {
		if err := c.indexTemplate(ctx, tx); nil != err {
			return c.cursor, err
		}
	}

	if err := c.retryDeferred(ctx); nil != err {
		return c.cursor, err
	}

	if err := c.loadKnown(); nil != err {
		return c.cursor, err
	}

	work := make([]ledger.Transaction, 0, len(records))
	for _, tx := range records {
		skip, err := c.indexed(record.ArweaveDID(tx.ID))
		if nil != err {
			return c.cursor, err
		}
		if skip {
			c.counts.Skipped += 1
			continue
		}
		work = append(work, tx)
	}

	for _, r := range c.translateAll(ctx, work) {
		if err := c.apply(r); nil != err {
			return c.cursor, err
		}
	}

	// each audit record is stored before the next message is applied so
	// a retried batch never records an applied deletion as not found
	for _, tx := range deletions {
		r, err := c.applyDeletion(ctx, tx)
		if nil != err {
			return c.cursor, err
		}
		if nil == r {
			continue
		}
		if err := e.store.Upsert(r); nil != err {
			return c.cursor, err
		}
	}

	newCursor := c.cursor
	for _, tx := range txs {
		if tx.BlockHeight > newCursor {
			newCursor = tx.BlockHeight
		}
	}
	if newCursor > c.cursor {
		if err := e.store.SetCursor(newCursor); nil != err {
			return c.cursor, fmt.Errorf("persist cursor: %d: %w", newCursor, err)
		}
	}
	return newCursor, nil
}

// split a batch, order within each part is kept
func partition(txs []ledger.Transaction) (templates []ledger.Transaction, records []ledger.Transaction, deletions []ledger.Transaction) {
	for _, tx := range txs {
		switch {
		case tx.IsTemplate():
			templates = append(templates, tx)
		case record.TypeDeleteMessage == tx.RecordType() || record.TypeDeleteTemplate == tx.RecordType():
			deletions = append(deletions, tx)
		default:
			records = append(records, tx)
		}
	}
	return
}

// errors that abort the whole cycle
func fatal(err error) bool {
	return fault.IsErrUnavailable(err) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func (c *cycle) indexTemplate(ctx context.Context, tx ledger.Transaction) error {
	e := c.e

	existing, err := e.store.GetTemplate(tx.ID)
	if nil != err {
		return err
	}
	if nil != existing {
		e.resolver.Add(existing)
		return nil
	}

	data, err := e.client.TransactionData(ctx, tx.ID)
	if nil != err {
		if fatal(err) {
			return err
		}
		c.reject("template", tx.ID, err)
		return nil
	}

	creator, err := tx.Signer(data)
	if nil != err {
		c.reject("template", tx.ID, err)
		return nil
	}

	t, err := template.Parse(tx.ID, data)
	if nil != err {
		e.log.Warnf("template: %s skipped: %s", tx.ID, err)
		c.counts.Failed += 1
		metrics.SyncRecords.WithLabelValues("failed").Inc()
		return nil
	}
	if "" == t.Name {
		t.Name = tx.Tag(ledger.TagTemplateName)
	}
	t.Creator = creator
	t.BlockHeight = tx.BlockHeight

	if err := e.store.PutTemplate(t); nil != err {
		return err
	}
	e.resolver.Add(t)
	c.counts.Templates += 1
	metrics.SyncRecords.WithLabelValues("template").Inc()
	return nil
}

// records waiting for a template are retried once the cycle's templates
// are indexed
func (c *cycle) retryDeferred(ctx context.Context) error {
	e := c.e

	elements, err := e.store.Deferred(e.options.DeferredLimit)
	if nil != err {
		return err
	}
	if 0 == len(elements) {
		return nil
	}

	txs := make([]ledger.Transaction, 0, len(elements))
	for _, element := range elements {
		tx, err := ledger.Unpack(element.Value)
		if nil != err {
			e.log.Errorf("deferred: %s corrupt: %s", element.Key, err)
			if err := e.store.DeleteDeferred(string(element.Key)); nil != err {
				return err
			}
			continue
		}
		txs = append(txs, *tx)
	}

	for _, r := range c.translateAll(ctx, txs) {
		if fault.IsErrTemplate(r.err) {
			continue // still waiting
		}
		if fatal(r.err) {
			return r.err
		}
		if nil == r.err {
			if err := e.store.UpsertWithPayload(r.record, r.payload); nil != err {
				return err
			}
			c.counts.Indexed += 1
			metrics.SyncRecords.WithLabelValues("indexed").Inc()
			e.log.Infof("deferred: %s indexed", r.tx.ID)
		} else {
			c.counts.Failed += 1
			metrics.SyncRecords.WithLabelValues("failed").Inc()
			e.log.Warnf("deferred: %s dropped: %s", r.tx.ID, r.err)
		}
		if err := e.store.DeleteDeferred(r.tx.ID); nil != err {
			return err
		}
	}
	return nil
}

// the broad scan, possibly from cache
func (c *cycle) loadKnown() error {
	list, err := c.e.store.Query(storage.Filter{})
	if nil != err {
		return err
	}
	c.known = make(map[string]*record.Record, len(list))
	for _, r := range list {
		c.known[r.DID] = r
	}
	return nil
}

// an indexed record; the broad scan may be stale or truncated so a miss
// is checked against the store
func (c *cycle) lookup(did string) (*record.Record, error) {
	if r, ok := c.known[did]; ok {
		return r, nil
	}
	return c.e.store.GetByDID(did)
}

// true if a record is confirmed in the index or was deleted
func (c *cycle) indexed(did string) (bool, error) {
	existing, err := c.lookup(did)
	if nil != err {
		return false, err
	}
	if nil != existing && existing.Confirmed() {
		return true, nil
	}
	return c.e.store.IsDeleted(did)
}

// translate transactions with a bounded number of workers, results are
// in the same order as the input
func (c *cycle) translateAll(ctx context.Context, txs []ledger.Transaction) []result {
	results := make([]result, len(txs))
	if 0 == len(txs) {
		return results
	}

	workers := c.e.options.Workers
	if workers > len(txs) {
		workers = len(txs)
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w += 1 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = c.e.translate(ctx, txs[i])
			}
		}()
	}
	for i := range txs {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return results
}

// fetch, resolve templates and translate one transaction
func (e *Engine) translate(ctx context.Context, tx ledger.Transaction) result {
	r := result{tx: tx}

	data, err := e.client.TransactionData(ctx, tx.ID)
	if nil != err {
		r.err = err
		return r
	}
	r.payload = data

	creator, err := tx.Signer(data)
	if nil != err {
		r.err = err
		return r
	}

	ids, err := translator.TemplateIDs(data)
	if nil != err {
		r.err = fmt.Errorf("record: %s: %w", tx.ID, err)
		return r
	}
	fieldMaps := make(map[string]*template.Template, len(ids))
	for _, id := range ids {
		t, err := e.resolver.Resolve(id)
		if nil != err {
			r.err = err
			return r
		}
		fieldMaps[id] = t
	}

	r.record, r.err = e.translator.Translate(&translator.Raw{
		DID:        record.ArweaveDID(tx.ID),
		RecordType: tx.RecordType(),
		Payload:    data,
		Envelope:   envelope(tx, creator),
	}, fieldMaps, e.options.ResolveDepth)
	return r
}

func envelope(tx ledger.Transaction, creator string) record.Envelope {
	return record.Envelope{
		Creator:          creator,
		CreatorPublicKey: tx.Tag(ledger.TagCreatorPublicKey),
		Signature:        tx.Tag(ledger.TagCreatorSig),
		IndexedAt:        time.Now().UTC(),
		InArweaveBlock:   tx.BlockHeight,
		RecordStatus:     record.StatusConfirmed,
		Storage:          record.OriginArweave,
		Version:          tx.Version(),
		Timestamp:        tx.Timestamp * 1000,
	}
}

// store one translation result; only storage and ledger failures are
// returned, everything else is counted and logged
func (c *cycle) apply(r result) error {
	e := c.e

	switch {
	case nil == r.err:
		existing, err := c.lookup(r.record.DID)
		if nil != err {
			return err
		}
		if err := e.store.UpsertWithPayload(r.record, r.payload); nil != err {
			return err
		}
		if nil != existing && !existing.Confirmed() {
			c.counts.Upgraded += 1
			metrics.SyncRecords.WithLabelValues("upgraded").Inc()
			e.log.Infof("record: %s confirmed at: %d", r.record.DID, r.tx.BlockHeight)
		} else {
			c.counts.Indexed += 1
			metrics.SyncRecords.WithLabelValues("indexed").Inc()
		}

	case fatal(r.err):
		return r.err

	case fault.IsErrTemplate(r.err):
		packed, err := r.tx.Pack()
		if nil != err {
			return err
		}
		if err := e.store.PutDeferred(r.tx.ID, packed); nil != err {
			return err
		}
		c.counts.Deferred += 1
		metrics.SyncRecords.WithLabelValues("deferred").Inc()
		e.log.Infof("record: %s deferred: %s", r.tx.ID, r.err)

	default:
		c.reject("record", r.tx.ID, r.err)
	}
	return nil
}

// count and log a transaction that will not be indexed
func (c *cycle) reject(kind string, id string, err error) {
	c.counts.Failed += 1
	switch {
	case errors.Is(err, fault.ErrDataTooLarge):
		metrics.SyncRecords.WithLabelValues("too_large").Inc()
		c.e.log.Warnf("%s: %s too large: %s", kind, id, err)
	case fault.IsErrAuthorisation(err):
		metrics.SyncRecords.WithLabelValues("rejected").Inc()
		c.e.log.Warnf("%s: %s signer rejected: %s", kind, id, err)
	default:
		metrics.SyncRecords.WithLabelValues("failed").Inc()
		c.e.log.Warnf("%s: %s skipped: %s", kind, id, err)
	}
}

// apply a deletion message and return its audit record, nil if the
// message was already indexed or is malformed
func (c *cycle) applyDeletion(ctx context.Context, tx ledger.Transaction) (*record.Record, error) {
	e := c.e
	did := record.ArweaveDID(tx.ID)

	existing, err := e.store.GetByDID(did)
	if nil != err {
		return nil, err
	}
	if nil != existing {
		c.counts.Skipped += 1
		return nil, nil
	}

	data, err := e.client.TransactionData(ctx, tx.ID)
	if nil != err {
		if fatal(err) {
			return nil, err
		}
		c.reject("deletion", tx.ID, err)
		return nil, nil
	}

	m, err := deletion.Parse(data)
	if nil != err {
		c.reject("deletion", tx.ID, err)
		return nil, nil
	}

	// an unverifiable creator tag is kept on record as the ledger owner
	// and never deletes anything
	creator, err := tx.Signer(data)
	outcome := deletion.OutcomeAccessDenied
	if nil != err {
		e.log.Warnf("deletion: %s of: %s signer rejected: %s", tx.ID, m.Target, err)
		creator = tx.Owner
	} else {
		outcome, err = e.deletions.Apply(m, creator, tx.BlockHeight)
		if nil != err {
			return nil, err
		}
	}
	if deletion.OutcomeDeleted == outcome && deletion.KindRecord == m.Kind {
		delete(c.known, m.Target)
	}
	c.counts.Deletions += 1
	metrics.Deletions.WithLabelValues(string(record.OriginArweave), outcome.String()).Inc()

	return m.AuditRecord(did, envelope(tx, creator), outcome), nil
}
