// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package fault

import (
	"errors"
)

// GenericError - error base
type GenericError string

// to allow for different classes of errors
type AuthorisationError GenericError
type ExistsError GenericError
type InvalidError GenericError
type NotFoundError GenericError
type ProcessError GenericError
type TemplateError GenericError
type TimeoutError GenericError
type TranslationError GenericError
type UnavailableError GenericError

// common errors - keep in alphabetic order
var (
	ErrAccessDenied             = AuthorisationError("access denied")
	ErrAlreadyInitialised       = ExistsError("already initialised")
	ErrCursorDecrease           = InvalidError("sync cursor cannot decrease")
	ErrCycleInProgress          = ProcessError("sync cycle already in progress")
	ErrDataTooLarge             = InvalidError("transaction data too large")
	ErrEnumCodeUnknown          = TranslationError("enum code not in template")
	ErrFieldTypeMismatch        = TranslationError("field value does not match type")
	ErrFieldTypeUnknown         = TranslationError("unknown field type")
	ErrInvalidCount             = InvalidError("invalid count")
	ErrInvalidDID               = InvalidError("invalid did")
	ErrInvalidDeletionMessage   = InvalidError("invalid deletion message")
	ErrInvalidDnsTxtRecord      = InvalidError("invalid dns txt record")
	ErrInvalidHeartbeat         = InvalidError("invalid heartbeat")
	ErrInvalidNodeDomain        = InvalidError("invalid node domain")
	ErrInvalidPayload           = TranslationError("invalid record payload")
	ErrInvalidPrefix            = InvalidError("invalid pool prefix")
	ErrInvalidSignature         = AuthorisationError("invalid signature")
	ErrInvalidTemplate          = TranslationError("invalid template")
	ErrInvalidURL               = InvalidError("invalid url")
	ErrLedgerUnavailable        = UnavailableError("ledger unavailable")
	ErrMissingParameters        = InvalidError("missing parameters")
	ErrMissingRequiredField     = TranslationError("missing required field")
	ErrNotInitialised           = NotFoundError("not initialised")
	ErrPeerNotFound             = NotFoundError("peer not found")
	ErrPeerStoreTimeout         = TimeoutError("peer store timeout")
	ErrPeerStoreUnavailable     = UnavailableError("peer store unavailable")
	ErrRateLimiting             = ProcessError("rate limiting")
	ErrRecordNotFound           = NotFoundError("record not found")
	ErrSoulNotFound             = NotFoundError("soul not found")
	ErrTemplateInUse            = ExistsError("template in use")
	ErrTemplateNotFound         = TemplateError("template not found")
	ErrTooManyJobs              = ProcessError("too many replication jobs")
	ErrUnsupportedDecryptionKey = InvalidError("no decryption key configured")
)

// the error interface methods
func (e GenericError) Error() string       { return string(e) }
func (e AuthorisationError) Error() string { return string(e) }
func (e ExistsError) Error() string        { return string(e) }
func (e InvalidError) Error() string       { return string(e) }
func (e NotFoundError) Error() string      { return string(e) }
func (e ProcessError) Error() string       { return string(e) }
func (e TemplateError) Error() string      { return string(e) }
func (e TimeoutError) Error() string       { return string(e) }
func (e TranslationError) Error() string   { return string(e) }
func (e UnavailableError) Error() string   { return string(e) }

// determine the class of an error, looking through any wrapping
func IsErrAuthorisation(e error) bool { var x AuthorisationError; return errors.As(e, &x) }
func IsErrExists(e error) bool        { var x ExistsError; return errors.As(e, &x) }
func IsErrInvalid(e error) bool       { var x InvalidError; return errors.As(e, &x) }
func IsErrNotFound(e error) bool      { var x NotFoundError; return errors.As(e, &x) }
func IsErrProcess(e error) bool       { var x ProcessError; return errors.As(e, &x) }
func IsErrTemplate(e error) bool      { var x TemplateError; return errors.As(e, &x) }
func IsErrTimeout(e error) bool       { var x TimeoutError; return errors.As(e, &x) }
func IsErrTranslation(e error) bool   { var x TranslationError; return errors.As(e, &x) }
func IsErrUnavailable(e error) bool   { var x UnavailableError; return errors.As(e, &x) }
