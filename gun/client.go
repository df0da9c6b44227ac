// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package gun - client for a GUN peer graph store reached through one
// or more websocket relays
//
// nodes are addressed by soul; each field carries a state and the
// highest state wins, so concurrent writers are never merged
package gun

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/bitmark-inc/logger"

	"github.com/DevonJames/oip-arweave-indexer-sub000/fault"
)

const (
	gunLogName = "gun"

	// the field holding a record payload
	dataField = "data"

	defaultCallTimeout = 10 * time.Second
)

// PutOptions - per put settings
type PutOptions struct {
	Encrypt bool
}

// Value - a payload read back from the store
type Value struct {
	Payload   []byte
	State     int64
	Encrypted bool
}

// Client - peer store access through a set of relays
type Client struct {
	log       *logger.L
	relays    []*relay
	clock     *clock
	encryptor *Encryptor
	timeout   time.Duration
}

// Option - configure a client
type Option func(*Client)

// WithCallTimeout - bound on each put or get
func WithCallTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithEncryptor - enable encrypted puts and transparent decryption
func WithEncryptor(e *Encryptor) Option {
	return func(c *Client) {
		c.encryptor = e
	}
}

// New - create a client, relays are dialled on first use
func New(urls []string, options ...Option) (*Client, error) {
	if 0 == len(urls) {
		return nil, fault.ErrMissingParameters
	}

	clk, err := newClock(defaultClockSouls)
	if nil != err {
		return nil, err
	}

	log := logger.New(gunLogName)
	c := &Client{
		log:     log,
		clock:   clk,
		timeout: defaultCallTimeout,
	}
	dialer := &websocket.Dialer{
		HandshakeTimeout: defaultCallTimeout,
	}
	for _, url := range urls {
		url = strings.TrimSpace(url)
		if "" == url {
			continue
		}
		c.relays = append(c.relays, newRelay(url, dialer, log))
	}
	if 0 == len(c.relays) {
		return nil, fault.ErrMissingParameters
	}

	for _, option := range options {
		option(c)
	}
	return c, nil
}

// Close - drop all relay connections
func (c *Client) Close() {
	for _, r := range c.relays {
		r.close()
	}
}

// Connected - number of relays with a live connection
func (c *Client) Connected() int {
	n := 0
	for _, r := range c.relays {
		if r.isConnected() {
			n += 1
		}
	}
	return n
}

// Put - write a payload under a soul, returns the state written
func (c *Client) Put(ctx context.Context, soul string, payload []byte, options PutOptions) (int64, error) {
	if options.Encrypt {
		if nil == c.encryptor {
			return 0, fault.ErrUnsupportedDecryptionKey
		}
		sealed, err := c.encryptor.Seal(payload)
		if nil != err {
			return 0, err
		}
		payload = sealed
	}

	value, err := json.Marshal(string(payload))
	if nil != err {
		return 0, err
	}
	return c.put(ctx, soul, map[string]json.RawMessage{dataField: value})
}

// Get - read the payload under a soul, ErrSoulNotFound if absent
func (c *Client) Get(ctx context.Context, soul string) (*Value, error) {
	fields, err := c.GetFields(ctx, soul)
	if nil != err {
		return nil, err
	}
	f, ok := fields[dataField]
	if !ok || "null" == string(f.Value) {
		return nil, fmt.Errorf("soul: %s: %w", soul, fault.ErrSoulNotFound)
	}

	var text string
	if err := json.Unmarshal(f.Value, &text); nil != err {
		return nil, fmt.Errorf("soul: %s: %v: %w", soul, err, fault.ErrInvalidPayload)
	}
	v := &Value{
		Payload: []byte(text),
		State:   f.State,
	}
	if IsEncrypted(v.Payload) {
		if nil == c.encryptor {
			return nil, fault.ErrUnsupportedDecryptionKey
		}
		plaintext, err := c.encryptor.Open(v.Payload)
		if nil != err {
			return nil, err
		}
		v.Payload = plaintext
		v.Encrypted = true
	}
	return v, nil
}

// PutFields - write several fields of a node with one state
func (c *Client) PutFields(ctx context.Context, soul string, values map[string]interface{}) (int64, error) {
	raw := make(map[string]json.RawMessage, len(values))
	for name, value := range values {
		buffer, err := json.Marshal(value)
		if nil != err {
			return 0, err
		}
		raw[name] = buffer
	}
	return c.put(ctx, soul, raw)
}

// GetFields - all fields of a node merged across relays
func (c *Client) GetFields(ctx context.Context, soul string) (map[string]Field, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	replies, errs := c.broadcast(ctx, message{Get: &getRequest{Soul: soul}})
	if 0 == len(replies) {
		return nil, c.failure("get", soul, errs)
	}

	merged := make(map[string]Field)
	for _, m := range replies {
		if "" != m.Err {
			c.log.Debugf("get: %s relay error: %s", soul, m.Err)
			continue
		}
		n, ok := m.Put[soul]
		if !ok || nil == n {
			continue
		}
		fields, err := n.fields()
		if nil != err {
			c.log.Warnf("get: %s bad node: %s", soul, err)
			continue
		}
		merge(merged, fields)
	}
	if 0 == len(merged) {
		return nil, fmt.Errorf("soul: %s: %w", soul, fault.ErrSoulNotFound)
	}

	for _, f := range merged {
		c.clock.observe(soul, f.State)
	}
	return merged, nil
}

func (c *Client) put(ctx context.Context, soul string, values map[string]json.RawMessage) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	state := c.clock.next(soul)
	fields := make(map[string]Field, len(values))
	for name, value := range values {
		fields[name] = Field{Value: value, State: state}
	}
	n, err := newNode(soul, fields)
	if nil != err {
		return 0, err
	}

	replies, errs := c.broadcast(ctx, message{Put: map[string]node{soul: n}})
	acked := 0
	for _, m := range replies {
		if "" == m.Err {
			acked += 1
		} else {
			errs = append(errs, fmt.Errorf("relay refused: %s: %w", m.Err, fault.ErrPeerStoreUnavailable))
		}
	}
	if 0 == acked {
		return 0, c.failure("put", soul, errs)
	}
	c.log.Debugf("put: %s state: %d acks: %d/%d", soul, state, acked, len(c.relays))
	return state, nil
}

// send to every relay in parallel and collect the replies
func (c *Client) broadcast(ctx context.Context, m message) ([]message, []error) {
	var lock sync.Mutex
	var wg sync.WaitGroup
	replies := make([]message, 0, len(c.relays))
	errs := make([]error, 0)

	for _, r := range c.relays {
		wg.Add(1)
		go func(r *relay) {
			defer wg.Done()
			reply, err := r.request(ctx, m)
			lock.Lock()
			defer lock.Unlock()
			if nil != err {
				errs = append(errs, err)
				return
			}
			replies = append(replies, reply)
		}(r)
	}
	wg.Wait()
	return replies, errs
}

// a timeout only if every relay timed out
func (c *Client) failure(operation string, soul string, errs []error) error {
	if 0 == len(errs) {
		return fmt.Errorf("%s: %s: %w", operation, soul, fault.ErrPeerStoreUnavailable)
	}
	for _, err := range errs {
		if !fault.IsErrTimeout(err) {
			c.log.Warnf("%s: %s: %s", operation, soul, err)
			return fmt.Errorf("%s: %s: %w", operation, soul, err)
		}
	}
	c.log.Warnf("%s: %s: timeout", operation, soul)
	return fmt.Errorf("%s: %s: %w", operation, soul, fault.ErrPeerStoreTimeout)
}
