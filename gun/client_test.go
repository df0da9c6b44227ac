// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package gun_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DevonJames/oip-arweave-indexer-sub000/fault"
	"github.com/DevonJames/oip-arweave-indexer-sub000/gun"
)

func TestPutGet(t *testing.T) {
	relay := newFakeRelay(false)
	defer relay.close()

	c, err := gun.New([]string{relay.url()})
	require.Nil(t, err, "new")
	defer c.Close()

	ctx := context.Background()
	state1, err := c.Put(ctx, "abc:post1", []byte(`{"title":"Hello"}`), gun.PutOptions{})
	require.Nil(t, err, "put")

	v, err := c.Get(ctx, "abc:post1")
	require.Nil(t, err, "get")
	assert.Equal(t, `{"title":"Hello"}`, string(v.Payload), "payload")
	assert.Equal(t, state1, v.State, "state")
	assert.False(t, v.Encrypted, "encrypted")

	// later put wins even within the same millisecond
	state2, err := c.Put(ctx, "abc:post1", []byte(`{"title":"World"}`), gun.PutOptions{})
	require.Nil(t, err, "second put")
	assert.True(t, state2 > state1, "state did not increase")

	v, err = c.Get(ctx, "abc:post1")
	require.Nil(t, err, "get")
	assert.Equal(t, `{"title":"World"}`, string(v.Payload), "last writer")
	assert.Equal(t, 1, c.Connected(), "connected relays")
}

func TestGetMissing(t *testing.T) {
	relay := newFakeRelay(false)
	defer relay.close()

	c, err := gun.New([]string{relay.url()})
	require.Nil(t, err, "new")
	defer c.Close()

	_, err = c.Get(context.Background(), "nobody:here")
	assert.True(t, errors.Is(err, fault.ErrSoulNotFound), "error: %v", err)
}

func TestLastWriterWinsAcrossRelays(t *testing.T) {
	relay1 := newFakeRelay(false)
	defer relay1.close()
	relay2 := newFakeRelay(false)
	defer relay2.close()

	relay1.set("abc:x", "data", "older", 1000)
	relay2.set("abc:x", "data", "newer", 2000)
	relay1.set("abc:x", "other", "only-on-1", 500)

	c, err := gun.New([]string{relay1.url(), relay2.url()})
	require.Nil(t, err, "new")
	defer c.Close()

	v, err := c.Get(context.Background(), "abc:x")
	require.Nil(t, err, "get")
	assert.Equal(t, "newer", string(v.Payload), "winner")
	assert.Equal(t, int64(2000), v.State, "state")

	fields, err := c.GetFields(context.Background(), "abc:x")
	require.Nil(t, err, "get fields")
	assert.Equal(t, 2, len(fields), "merged fields")

	// the next local write must beat the observed state
	state, err := c.Put(context.Background(), "abc:x", []byte("mine"), gun.PutOptions{})
	require.Nil(t, err, "put")
	assert.True(t, state > 2000, "state: %d", state)
}

func TestPutOneRelayDown(t *testing.T) {
	relay := newFakeRelay(false)
	defer relay.close()
	down := newFakeRelay(false)
	downURL := down.url()
	down.close()

	c, err := gun.New([]string{downURL, relay.url()})
	require.Nil(t, err, "new")
	defer c.Close()

	_, err = c.Put(context.Background(), "abc:y", []byte("v"), gun.PutOptions{})
	assert.Nil(t, err, "put with one live relay")
	assert.Equal(t, 1, relay.putCount(), "puts at live relay")
}

func TestTimeout(t *testing.T) {
	relay := newFakeRelay(true)
	defer relay.close()

	c, err := gun.New([]string{relay.url()}, gun.WithCallTimeout(50*time.Millisecond))
	require.Nil(t, err, "new")
	defer c.Close()

	_, err = c.Put(context.Background(), "abc:z", []byte("v"), gun.PutOptions{})
	assert.True(t, errors.Is(err, fault.ErrPeerStoreTimeout), "put error: %v", err)

	_, err = c.Get(context.Background(), "abc:z")
	assert.True(t, fault.IsErrTimeout(err), "get error: %v", err)
}

func TestEncryptedPut(t *testing.T) {
	relay := newFakeRelay(false)
	defer relay.close()

	e, err := gun.NewEncryptor("passphrase", "salt-for-tests")
	require.Nil(t, err, "encryptor")

	c, err := gun.New([]string{relay.url()}, gun.WithEncryptor(e))
	require.Nil(t, err, "new")
	defer c.Close()

	_, err = c.Put(context.Background(), "abc:secret", []byte("plain text"), gun.PutOptions{Encrypt: true})
	require.Nil(t, err, "put")

	// the relay only holds cipher text
	relay.Lock()
	stored := relay.graph["abc:secret"]["data"].value
	relay.Unlock()
	var text string
	require.Nil(t, json.Unmarshal(stored, &text), "stored value")
	assert.True(t, gun.IsEncrypted([]byte(text)), "stored value not encrypted")
	assert.NotContains(t, text, "plain text", "plain text leaked")

	v, err := c.Get(context.Background(), "abc:secret")
	require.Nil(t, err, "get")
	assert.Equal(t, "plain text", string(v.Payload), "decrypted")
	assert.True(t, v.Encrypted, "encrypted flag")

	// a client without the key cannot read it
	other, err := gun.New([]string{relay.url()})
	require.Nil(t, err, "new")
	defer other.Close()
	_, err = other.Get(context.Background(), "abc:secret")
	assert.True(t, errors.Is(err, fault.ErrUnsupportedDecryptionKey), "error: %v", err)

	_, err = other.Put(context.Background(), "abc:secret2", []byte("x"), gun.PutOptions{Encrypt: true})
	assert.True(t, errors.Is(err, fault.ErrUnsupportedDecryptionKey), "error: %v", err)
}

func TestPutFields(t *testing.T) {
	relay := newFakeRelay(false)
	defer relay.close()

	c, err := gun.New([]string{relay.url()})
	require.Nil(t, err, "new")
	defer c.Close()

	_, err = c.PutFields(context.Background(), "oip:peers", map[string]interface{}{
		"peer1": map[string]string{"address": "wss://a"},
		"peer2": 42,
	})
	require.Nil(t, err, "put fields")

	fields, err := c.GetFields(context.Background(), "oip:peers")
	require.Nil(t, err, "get fields")
	assert.Equal(t, `{"address":"wss://a"}`, string(fields["peer1"].Value), "peer1")
	assert.Equal(t, `42`, string(fields["peer2"].Value), "peer2")
}

func TestNewWithoutRelays(t *testing.T) {
	_, err := gun.New([]string{" "})
	assert.True(t, errors.Is(err, fault.ErrMissingParameters), "error: %v", err)
}
