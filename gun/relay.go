// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package gun

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/bitmark-inc/logger"

	"github.com/DevonJames/oip-arweave-indexer-sub000/fault"
)

const writeTimeout = 10 * time.Second

// reply to a request, or the error that ended the connection
type reply struct {
	m   message
	err error
}

// one relay connection, dialled on demand and re-dialled after failure
type relay struct {
	sync.Mutex
	log     *logger.L
	url     string
	dialer  *websocket.Dialer
	conn    *websocket.Conn
	writer  sync.Mutex
	pending map[string]chan reply
}

func newRelay(url string, dialer *websocket.Dialer, log *logger.L) *relay {
	return &relay{
		log:     log,
		url:     url,
		dialer:  dialer,
		pending: make(map[string]chan reply),
	}
}

// connected - the current connection, dialling if necessary
func (r *relay) connected(ctx context.Context) (*websocket.Conn, error) {
	r.Lock()
	defer r.Unlock()

	if nil != r.conn {
		return r.conn, nil
	}

	conn, _, err := r.dialer.DialContext(ctx, r.url, nil)
	if nil != err {
		return nil, fmt.Errorf("relay: %s: %v: %w", r.url, err, fault.ErrPeerStoreUnavailable)
	}
	r.log.Infof("connected to relay: %s", r.url)
	r.conn = conn
	go r.reader(conn)
	return conn, nil
}

// request - send a message and wait for its acknowledgement
func (r *relay) request(ctx context.Context, m message) (message, error) {
	conn, err := r.connected(ctx)
	if nil != err {
		return message{}, err
	}

	m.ID = uuid.New().String()
	ch := make(chan reply, 1)

	r.Lock()
	r.pending[m.ID] = ch
	r.Unlock()
	defer func() {
		r.Lock()
		delete(r.pending, m.ID)
		r.Unlock()
	}()

	buffer, err := json.Marshal(m)
	if nil != err {
		return message{}, err
	}

	r.writer.Lock()
	deadline := time.Now().Add(writeTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	conn.SetWriteDeadline(deadline)
	err = conn.WriteMessage(websocket.TextMessage, buffer)
	r.writer.Unlock()
	if nil != err {
		r.drop(conn, err)
		return message{}, fmt.Errorf("relay: %s write: %v: %w", r.url, err, fault.ErrPeerStoreUnavailable)
	}

	select {
	case rep := <-ch:
		if nil != rep.err {
			return message{}, rep.err
		}
		return rep.m, nil
	case <-ctx.Done():
		return message{}, fmt.Errorf("relay: %s: %v: %w", r.url, ctx.Err(), fault.ErrPeerStoreTimeout)
	}
}

// reader - deliver acknowledgements until the connection fails
func (r *relay) reader(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if nil != err {
			r.drop(conn, err)
			return
		}
		list, err := decodeMessages(data)
		if nil != err {
			r.log.Warnf("relay: %s bad message: %s", r.url, err)
			continue
		}
		for _, m := range list {
			if "" == m.Ack {
				continue // unsolicited broadcast
			}
			r.Lock()
			ch, ok := r.pending[m.Ack]
			r.Unlock()
			if ok {
				select {
				case ch <- reply{m: m}:
				default: // already answered
				}
			}
		}
	}
}

// drop - forget a failed connection and fail its waiting requests
func (r *relay) drop(conn *websocket.Conn, cause error) {
	r.Lock()
	defer r.Unlock()

	if conn != r.conn {
		return
	}
	r.conn = nil
	conn.Close()
	r.log.Warnf("relay: %s disconnected: %s", r.url, cause)

	err := fmt.Errorf("relay: %s: %v: %w", r.url, cause, fault.ErrPeerStoreUnavailable)
	for _, ch := range r.pending {
		select {
		case ch <- reply{err: err}:
		default:
		}
	}
}

func (r *relay) close() {
	r.Lock()
	conn := r.conn
	r.conn = nil
	r.Unlock()

	if nil != conn {
		conn.Close()
	}
}

// connected state for status reports
func (r *relay) isConnected() bool {
	r.Lock()
	defer r.Unlock()
	return nil != r.conn
}
