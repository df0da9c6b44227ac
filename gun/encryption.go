// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package gun

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"github.com/goccy/go-json"
	"golang.org/x/crypto/argon2"

	"github.com/DevonJames/oip-arweave-indexer-sub000/fault"
)

// key derivation parameters
const (
	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
	keyLength    = 32
)

const envelopeVersion = 1

// encrypted payload as stored in the peer store
type envelope struct {
	Version    int    `json:"enc"`
	IV         string `json:"iv"`
	CipherText string `json:"ct"`
}

// Encryptor - symmetric payload encryption, the key stays in process
type Encryptor struct {
	aead cipher.AEAD
}

// NewEncryptor - derive an AES-256-GCM key from a passphrase
func NewEncryptor(passphrase string, salt string) (*Encryptor, error) {
	if "" == passphrase || "" == salt {
		return nil, fault.ErrMissingParameters
	}
	key := argon2.IDKey([]byte(passphrase), []byte(salt), argonTime, argonMemory, argonThreads, keyLength)

	block, err := aes.NewCipher(key)
	if nil != err {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if nil != err {
		return nil, err
	}
	return &Encryptor{aead: aead}, nil
}

// Seal - encrypt a payload into an envelope
func (e *Encryptor) Seal(plaintext []byte) ([]byte, error) {
	iv := make([]byte, e.aead.NonceSize())
	if _, err := rand.Read(iv); nil != err {
		return nil, err
	}
	ct := e.aead.Seal(nil, iv, plaintext, nil)
	return json.Marshal(envelope{
		Version:    envelopeVersion,
		IV:         base64.StdEncoding.EncodeToString(iv),
		CipherText: base64.StdEncoding.EncodeToString(ct),
	})
}

// Open - decrypt an envelope
func (e *Encryptor) Open(data []byte) ([]byte, error) {
	env, ok := parseEnvelope(data)
	if !ok {
		return nil, fmt.Errorf("not an encrypted payload: %w", fault.ErrInvalidPayload)
	}
	iv, err := base64.StdEncoding.DecodeString(env.IV)
	if nil != err || len(iv) != e.aead.NonceSize() {
		return nil, fmt.Errorf("bad iv: %w", fault.ErrInvalidPayload)
	}
	ct, err := base64.StdEncoding.DecodeString(env.CipherText)
	if nil != err {
		return nil, fmt.Errorf("bad cipher text: %w", fault.ErrInvalidPayload)
	}
	plaintext, err := e.aead.Open(nil, iv, ct, nil)
	if nil != err {
		return nil, fmt.Errorf("decrypt: %v: %w", err, fault.ErrInvalidPayload)
	}
	return plaintext, nil
}

// IsEncrypted - true if data is an encryption envelope
func IsEncrypted(data []byte) bool {
	_, ok := parseEnvelope(data)
	return ok
}

func parseEnvelope(data []byte) (*envelope, bool) {
	data = bytes.TrimSpace(data)
	if 0 == len(data) || '{' != data[0] {
		return nil, false
	}
	var env envelope
	if err := json.Unmarshal(data, &env); nil != err {
		return nil, false
	}
	if envelopeVersion != env.Version || "" == env.IV || "" == env.CipherText {
		return nil, false
	}
	return &env, true
}
