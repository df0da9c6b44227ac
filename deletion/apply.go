// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package deletion - parse, authorise and apply deletion messages
package deletion

import (
	"fmt"

	"github.com/bitmark-inc/logger"

	"github.com/DevonJames/oip-arweave-indexer-sub000/fault"
	"github.com/DevonJames/oip-arweave-indexer-sub000/record"
	"github.com/DevonJames/oip-arweave-indexer-sub000/template"
)

const deletionLogName = "deletion"

// Outcome - result of applying a message
type Outcome int

// possible outcomes
const (
	OutcomeDeleted Outcome = iota
	OutcomeAccessDenied
	OutcomeNotFound
	OutcomeInUse
)

func (o Outcome) String() string {
	switch o {
	case OutcomeDeleted:
		return "deleted"
	case OutcomeAccessDenied:
		return "access denied"
	case OutcomeNotFound:
		return "not found"
	case OutcomeInUse:
		return "in use"
	default:
		return "*unknown*"
	}
}

// Err - error equivalent of an outcome, nil for deleted
func (o Outcome) Err() error {
	switch o {
	case OutcomeDeleted:
		return nil
	case OutcomeAccessDenied:
		return fault.ErrAccessDenied
	case OutcomeInUse:
		return fault.ErrTemplateInUse
	default:
		return fault.ErrRecordNotFound
	}
}

// Store - the index operations a deletion needs
type Store interface {
	GetByDID(did string) (*record.Record, error)
	DeleteByDID(did string) (bool, error)
	GetTemplate(id string) (*template.Template, error)
	TemplateInUse(id string) (bool, error)
	DeleteTemplate(id string) (bool, error)
}

// TemplateCache - forget a deleted template
type TemplateCache interface {
	Remove(reference string)
}

// Applier - applies messages against the index
type Applier struct {
	log       *logger.L
	store     Store
	templates TemplateCache
	policy    *Policy
}

// New - create an applier; templates may be nil
func New(store Store, templates TemplateCache, policy *Policy) *Applier {
	if nil == policy {
		policy = NewPolicy(nil, nil)
	}
	return &Applier{
		log:       logger.New(deletionLogName),
		store:     store,
		templates: templates,
		policy:    policy,
	}
}

// Policy - the authorisation policy in use
func (a *Applier) Policy() *Policy {
	return a.policy
}

// Apply - authorise and perform a deletion
//
// height is the confirmation height of the message, zero for messages
// from the peer store; a target confirmed above the message height did
// not exist when the message was written and is reported not found
//
// the error is only for storage failures, refusals are outcomes
func (a *Applier) Apply(m *Message, signer string, height uint64) (Outcome, error) {
	switch m.Kind {
	case KindRecord:
		return a.deleteRecord(m.Target, signer, height)
	case KindTemplate:
		return a.deleteTemplate(m.Target, signer, height)
	default:
		return OutcomeNotFound, fault.ErrInvalidDeletionMessage
	}
}

func (a *Applier) deleteRecord(did string, signer string, height uint64) (Outcome, error) {
	target, err := a.store.GetByDID(did)
	if nil != err {
		return OutcomeNotFound, err
	}
	if nil == target || (height > 0 && target.OIP.InArweaveBlock > height) {
		a.log.Infof("delete: %s signer: %s: not found", did, signer)
		return OutcomeNotFound, nil
	}
	if target.IsDeletion() {
		a.log.Warnf("delete: %s signer: %s: audit records cannot be deleted", did, signer)
		return OutcomeAccessDenied, nil
	}

	if !a.policy.Authorised(signer, creatorOf(target)) {
		a.log.Warnf("delete: %s signer: %s creator: %s: access denied", did, signer, creatorOf(target))
		return OutcomeAccessDenied, nil
	}

	deleted, err := a.store.DeleteByDID(did)
	if nil != err {
		return OutcomeNotFound, fmt.Errorf("delete: %s: %w", did, err)
	}
	if !deleted {
		return OutcomeNotFound, nil
	}
	a.log.Infof("delete: %s signer: %s: deleted", did, signer)
	return OutcomeDeleted, nil
}

func (a *Applier) deleteTemplate(did string, signer string, height uint64) (Outcome, error) {
	id := template.ID(did)
	tmpl, err := a.store.GetTemplate(id)
	if nil != err {
		return OutcomeNotFound, err
	}
	if nil == tmpl || (height > 0 && tmpl.BlockHeight > height) {
		a.log.Infof("delete template: %s signer: %s: not found", id, signer)
		return OutcomeNotFound, nil
	}

	if !a.policy.Authorised(signer, tmpl.Creator) {
		a.log.Warnf("delete template: %s signer: %s creator: %s: access denied", id, signer, tmpl.Creator)
		return OutcomeAccessDenied, nil
	}

	inUse, err := a.store.TemplateInUse(id)
	if nil != err {
		return OutcomeNotFound, err
	}
	if inUse {
		a.log.Warnf("delete template: %s signer: %s: still in use", id, signer)
		return OutcomeInUse, nil
	}

	deleted, err := a.store.DeleteTemplate(id)
	if nil != err {
		return OutcomeNotFound, fmt.Errorf("delete template: %s: %w", id, err)
	}
	if !deleted {
		return OutcomeNotFound, nil
	}
	if nil != a.templates {
		a.templates.Remove(id)
	}
	a.log.Infof("delete template: %s signer: %s: deleted", id, signer)
	return OutcomeDeleted, nil
}
