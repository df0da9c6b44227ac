// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/DevonJames/oip-arweave-indexer-sub000/announce/domain"
	"github.com/DevonJames/oip-arweave-indexer-sub000/fault"
)

func TestParse(t *testing.T) {
	tests := []struct {
		txt     string
		id      string
		address string
		err     error
	}{
		{"oip=v1 id=node1 a=wss://relay.example.com/gun", "node1", "wss://relay.example.com/gun", nil},
		{"oip=v1  a=ws://127.0.0.1:8765/gun   id=node2 ", "node2", "ws://127.0.0.1:8765/gun", nil},
		{"bitmark=v3 id=node1 a=wss://relay.example.com/gun", "", "", fault.ErrInvalidDnsTxtRecord},
		{"oip=v1 id=node1", "", "", fault.ErrInvalidDnsTxtRecord},
		{"oip=v1 a=wss://relay.example.com/gun", "", "", fault.ErrInvalidDnsTxtRecord},
		{"oip=v1 id=node1 a=https://relay.example.com/gun", "", "", fault.ErrInvalidDnsTxtRecord},
		{"oip=v1 id=node1 id=node2 a=wss://relay.example.com/gun", "", "", fault.ErrInvalidDnsTxtRecord},
		{"oip=v1 id=node1 a=wss://relay.example.com/gun x=1", "", "", fault.ErrInvalidDnsTxtRecord},
		{"oip=v1 id= a=wss://relay.example.com/gun", "", "", fault.ErrInvalidDnsTxtRecord},
	}

	for i, item := range tests {
		txt, err := domain.Parse(item.txt)
		assert.Equal(t, item.err, err, "%d: wrong error", i)
		if nil != err {
			continue
		}
		assert.Equal(t, item.id, txt.ID, "%d: wrong id", i)
		assert.Equal(t, item.address, txt.Address, "%d: wrong address", i)
	}
}

func TestFormat(t *testing.T) {
	txt := domain.Format("node3", "ws://10.0.0.1:8765/gun")
	assert.Equal(t, "oip=v1 id=node3 a=ws://10.0.0.1:8765/gun", txt, "wrong text")

	decoded, err := domain.Parse(txt)
	assert.Nil(t, err, "parse error")
	assert.Equal(t, "node3", decoded.ID, "wrong id")
	assert.Equal(t, "ws://10.0.0.1:8765/gun", decoded.Address, "wrong address")
}
