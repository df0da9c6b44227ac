// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package gunsync_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DevonJames/oip-arweave-indexer-sub000/announce"
	"github.com/DevonJames/oip-arweave-indexer-sub000/deletion"
	"github.com/DevonJames/oip-arweave-indexer-sub000/fault"
	"github.com/DevonJames/oip-arweave-indexer-sub000/fixtures"
	"github.com/DevonJames/oip-arweave-indexer-sub000/gun"
	"github.com/DevonJames/oip-arweave-indexer-sub000/gunsync"
	"github.com/DevonJames/oip-arweave-indexer-sub000/gunsync/mocks"
	"github.com/DevonJames/oip-arweave-indexer-sub000/record"
	"github.com/DevonJames/oip-arweave-indexer-sub000/replication"
	"github.com/DevonJames/oip-arweave-indexer-sub000/storage"
)

func soulOf(t *testing.T, did string) string {
	origin, id, err := record.ParseDID(did)
	require.Nil(t, err, "did")
	require.Equal(t, record.OriginGun, origin, "origin")
	return id
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "indexed", gunsync.Indexed.String(), "indexed")
	assert.Equal(t, "tombstoned", gunsync.Tombstoned.String(), "tombstoned")
	assert.Equal(t, "*unknown*", gunsync.Outcome(42).String(), "unknown")
}

func TestPublishThenIngest(t *testing.T) {
	net := newNetwork()
	a, teardownA := newNode(t, 1, "wss://a/gun", net, gunsync.Options{})
	defer teardownA()
	b, teardownB := newNode(t, 2, "wss://b/gun", net, gunsync.Options{})
	defer teardownB()
	ctx := context.Background()

	did, err := a.orchestrator.Publish(ctx, "post-1", post("first"), false)
	require.Nil(t, err, "publish")
	assert.True(t, strings.HasPrefix(did, "did:gun:"), "did: %s", did)

	local, err := a.store.GetByDID(did)
	require.Nil(t, err, "local get")
	require.NotNil(t, local, "not indexed locally")
	assert.Equal(t, a.identity.ID(), local.OIP.Creator, "creator")
	assert.Equal(t, record.OriginGun, local.OIP.Storage, "origin")

	soul := soulOf(t, did)
	outcome, err := b.orchestrator.Ingest(ctx, soul)
	require.Nil(t, err, "ingest")
	assert.Equal(t, gunsync.Indexed, outcome, "first ingest")

	remote, err := b.store.GetByDID(did)
	require.Nil(t, err, "remote get")
	require.NotNil(t, remote, "not ingested")
	assert.Equal(t, "first", title(remote), "title")
	assert.Equal(t, local.OIP.Timestamp, remote.OIP.Timestamp, "timestamp")

	outcome, err = b.orchestrator.Ingest(ctx, soul)
	require.Nil(t, err, "ingest again")
	assert.Equal(t, gunsync.Unchanged, outcome, "second ingest")

	// last writer wins
	_, err = a.orchestrator.Publish(ctx, "post-1", post("second"), false)
	require.Nil(t, err, "republish")
	outcome, err = b.orchestrator.Ingest(ctx, soul)
	require.Nil(t, err, "ingest update")
	assert.Equal(t, gunsync.Updated, outcome, "update")

	remote, err = b.store.GetByDID(did)
	require.Nil(t, err, "remote get")
	assert.Equal(t, "second", title(remote), "title after update")
}

func TestIngestOlderCopyIgnored(t *testing.T) {
	net := newNetwork()
	a, teardownA := newNode(t, 1, "", net, gunsync.Options{})
	defer teardownA()
	b, teardownB := newNode(t, 2, "", net, gunsync.Options{})
	defer teardownB()
	ctx := context.Background()

	did, err := a.orchestrator.Publish(ctx, "post-1", post("old"), false)
	require.Nil(t, err, "publish")
	soul := soulOf(t, did)
	old, err := net.Get(ctx, soul)
	require.Nil(t, err, "old copy")

	_, err = a.orchestrator.Publish(ctx, "post-1", post("new"), false)
	require.Nil(t, err, "republish")
	_, err = b.orchestrator.Ingest(ctx, soul)
	require.Nil(t, err, "ingest new")

	// a relay replays the older copy with a higher state
	net.set(soul, old.Payload)
	outcome, err := b.orchestrator.Ingest(ctx, soul)
	require.Nil(t, err, "ingest old")
	assert.Equal(t, gunsync.Unchanged, outcome, "older copy applied")

	r, err := b.store.GetByDID(did)
	require.Nil(t, err, "get")
	assert.Equal(t, "new", title(r), "title")
}

func TestIngestRejectsForgery(t *testing.T) {
	net := newNetwork()
	a, teardownA := newNode(t, 1, "", net, gunsync.Options{})
	defer teardownA()
	b, teardownB := newNode(t, 2, "", net, gunsync.Options{})
	defer teardownB()
	ctx := context.Background()

	did, err := a.orchestrator.Publish(ctx, "post-1", post("genuine"), false)
	require.Nil(t, err, "publish")
	soul := soulOf(t, did)

	v, err := net.Get(ctx, soul)
	require.Nil(t, err, "get")
	net.set(soul, []byte(strings.Replace(string(v.Payload), "genuine", "forged", 1)))

	_, err = b.orchestrator.Ingest(ctx, soul)
	assert.True(t, fault.IsErrAuthorisation(err), "tampered payload: %v", err)

	// a valid signature by b under a's soul
	r := post("squatter")
	r.DID = record.GunDID(soul)
	r.OIP.Timestamp = time.Now().UnixNano() / int64(time.Millisecond)
	require.Nil(t, b.identity.SignRecord(r), "sign")
	payload, err := r.Pack()
	require.Nil(t, err, "pack")
	net.set(soul, payload)

	_, err = b.orchestrator.Ingest(ctx, soul)
	assert.True(t, errors.Is(err, fault.ErrAccessDenied), "foreign soul: %v", err)

	got, err := b.store.GetByDID(did)
	assert.Nil(t, err, "get")
	assert.Nil(t, got, "rejected record indexed")

	net.set("abc:junk", []byte("not json"))
	_, err = b.orchestrator.Ingest(ctx, "abc:junk")
	assert.True(t, fault.IsErrTranslation(err), "junk payload: %v", err)
}

func TestDeletionThroughPeerStore(t *testing.T) {
	net := newNetwork()
	a, teardownA := newNode(t, 1, "", net, gunsync.Options{})
	defer teardownA()
	b, teardownB := newNode(t, 2, "", net, gunsync.Options{})
	defer teardownB()
	ctx := context.Background()

	did, err := a.orchestrator.Publish(ctx, "post-1", post("doomed"), false)
	require.Nil(t, err, "publish")
	soul := soulOf(t, did)
	_, err = b.orchestrator.Ingest(ctx, soul)
	require.Nil(t, err, "ingest")

	outcome, err := a.orchestrator.Delete(ctx, did)
	require.Nil(t, err, "delete")
	assert.Equal(t, deletion.OutcomeDeleted, outcome, "local outcome")

	messages := net.souls(":delete-")
	require.Equal(t, 1, len(messages), "deletion message not published")

	result, err := b.orchestrator.Ingest(ctx, messages[0])
	require.Nil(t, err, "ingest deletion")
	assert.Equal(t, gunsync.Applied, result, "deletion outcome")

	got, err := b.store.GetByDID(did)
	assert.Nil(t, err, "get")
	assert.Nil(t, got, "record survived deletion")

	audit, err := b.store.GetByDID(record.GunDID(messages[0]))
	require.Nil(t, err, "audit get")
	require.NotNil(t, audit, "audit record missing")
	assert.Equal(t, deletion.OutcomeDeleted.String(), deletion.Recorded(audit), "audit outcome")

	// a relay replays the deleted copy
	v, err := net.Get(ctx, soul)
	require.Nil(t, err, "old copy")
	net.set(soul, v.Payload)
	result, err = b.orchestrator.Ingest(ctx, soul)
	require.Nil(t, err, "ingest deleted")
	assert.Equal(t, gunsync.Tombstoned, result, "deleted record came back")
}

func TestDeletionByStrangerDenied(t *testing.T) {
	net := newNetwork()
	a, teardownA := newNode(t, 1, "", net, gunsync.Options{})
	defer teardownA()
	b, teardownB := newNode(t, 2, "", net, gunsync.Options{})
	defer teardownB()
	c, teardownC := newNode(t, 3, "", net, gunsync.Options{})
	defer teardownC()
	ctx := context.Background()

	did, err := a.orchestrator.Publish(ctx, "post-1", post("keep"), false)
	require.Nil(t, err, "publish")
	_, err = b.orchestrator.Ingest(ctx, soulOf(t, did))
	require.Nil(t, err, "ingest")

	m := &deletion.Message{Kind: deletion.KindRecord, Target: did}
	messageDID, err := c.orchestrator.Publish(ctx, "delete-1", m.Record("", record.Envelope{}), false)
	require.Nil(t, err, "publish deletion")

	result, err := b.orchestrator.Ingest(ctx, soulOf(t, messageDID))
	require.Nil(t, err, "ingest deletion")
	assert.Equal(t, gunsync.Applied, result, "deletion outcome")

	got, err := b.store.GetByDID(did)
	assert.Nil(t, err, "get")
	assert.NotNil(t, got, "record deleted by stranger")

	audit, err := b.store.GetByDID(messageDID)
	require.Nil(t, err, "audit get")
	assert.Equal(t, deletion.OutcomeAccessDenied.String(), deletion.Recorded(audit), "audit outcome")
}

func TestHeartbeatAndReplicate(t *testing.T) {
	net := newNetwork()
	a, teardownA := newNode(t, 1, "wss://a/gun", net, gunsync.Options{})
	defer teardownA()
	b, teardownB := newNode(t, 2, "wss://b/gun", net, gunsync.Options{})
	defer teardownB()
	ctx := context.Background()

	did, err := a.orchestrator.Publish(ctx, "post-1", post("spread"), false)
	require.Nil(t, err, "publish")

	require.Nil(t, b.orchestrator.Heartbeat(ctx), "b heartbeat")
	require.Nil(t, a.orchestrator.Heartbeat(ctx), "a heartbeat")
	require.Nil(t, b.orchestrator.Heartbeat(ctx), "b heartbeat again")

	assert.Equal(t, announce.StateActive, a.registry.State(b.identity.ID()), "b seen by a")
	assert.Equal(t, announce.StateActive, b.registry.State(a.identity.ID()), "a seen by b")
	peer, err := b.registry.Get(a.identity.ID())
	require.Nil(t, err, "peer")
	assert.Equal(t, "wss://a/gun", peer.Address, "address")

	// b pulls what a advertises
	require.Nil(t, b.orchestrator.Replicate(ctx), "b replicate")
	got, err := b.store.GetByDID(did)
	require.Nil(t, err, "get")
	require.NotNil(t, got, "not pulled")
	assert.Equal(t, "spread", title(got), "title")
	assert.Equal(t, 0, b.orchestrator.Replication().Len(), "open jobs on b")

	// a pushes to b which has not advertised a copy yet
	before := net.putCount()
	require.Nil(t, a.orchestrator.Replicate(ctx), "a replicate")
	assert.True(t, net.putCount() > before, "nothing pushed")
	assert.Equal(t, 0, a.orchestrator.Replication().Len(), "open jobs on a")

	// once b advertises its copy no more pushes are planned
	require.Nil(t, b.orchestrator.Heartbeat(ctx), "b heartbeat")
	require.Nil(t, a.orchestrator.Heartbeat(ctx), "a heartbeat")
	before = net.putCount()
	require.Nil(t, a.orchestrator.Replicate(ctx), "a replicate again")
	assert.Equal(t, before, net.putCount(), "unexpected transfers")
}

func TestIngestTimeout(t *testing.T) {
	ctl := gomock.NewController(t)
	defer ctl.Finish()

	dir := fixtures.TempDir("gunsync")
	defer os.RemoveAll(dir)
	store, err := storage.Open(filepath.Join(dir, "index.leveldb"), storage.Options{})
	require.Nil(t, err, "storage")
	defer store.Close()

	identity, err := gun.NewIdentity(nil)
	require.Nil(t, err, "identity")

	peers := mocks.NewMockPeerStore(ctl)
	peers.EXPECT().Get(gomock.Any(), "abc:x").Return(nil, fault.ErrPeerStoreTimeout).Times(1)

	o, err := gunsync.New(store, peers, nil, identity, announce.New(identity.ID(), 0, 0),
		deletion.New(store, nil, nil), replication.Options{}, gunsync.Options{})
	require.Nil(t, err, "orchestrator")

	_, err = o.Ingest(context.Background(), "abc:x")
	assert.True(t, fault.IsErrTimeout(err), "error: %v", err)
}

func TestStartStop(t *testing.T) {
	ctl := gomock.NewController(t)
	defer ctl.Finish()

	dir := fixtures.TempDir("gunsync")
	defer os.RemoveAll(dir)
	store, err := storage.Open(filepath.Join(dir, "index.leveldb"), storage.Options{})
	require.Nil(t, err, "storage")
	defer store.Close()

	identity, err := gun.NewIdentity(nil)
	require.Nil(t, err, "identity")

	registry := announce.New(identity.ID(), time.Minute, 5*time.Minute)
	_, err = registry.Heartbeat("peer1", "wss://peer1/gun", time.Now())
	require.Nil(t, err, "heartbeat")

	peers := mocks.NewMockPeerStore(ctl)
	peers.EXPECT().PutFields(gomock.Any(), "oip:registry", gomock.Any()).Return(int64(1), nil).MinTimes(1)
	peers.EXPECT().GetFields(gomock.Any(), "oip:registry").Return(nil, fault.ErrSoulNotFound).MinTimes(1)

	peerFile := filepath.Join(dir, "peers.json")
	o, err := gunsync.New(store, peers, nil, identity, registry,
		deletion.New(store, nil, nil), replication.Options{}, gunsync.Options{
			Address:             "wss://self/gun",
			HeartbeatInterval:   10 * time.Millisecond,
			ReplicationInterval: 10 * time.Millisecond,
			CacheInterval:       10 * time.Millisecond,
			PeerFile:            peerFile,
		})
	require.Nil(t, err, "orchestrator")

	o.Start()
	o.Start()
	time.Sleep(50 * time.Millisecond)
	o.Stop()
	o.Stop()

	restored := announce.New(identity.ID(), time.Minute, 5*time.Minute)
	require.Nil(t, restored.Restore(peerFile), "restore")
	assert.Equal(t, announce.StateActive, restored.State("peer1"), "peer not backed up")
}

func TestStatus(t *testing.T) {
	net := newNetwork()
	a, teardown := newNode(t, 1, "wss://a/gun", net, gunsync.Options{})
	defer teardown()

	s := a.orchestrator.Status()
	assert.Equal(t, a.identity.ID(), s.Identity, "identity")
	assert.Equal(t, "wss://a/gun", s.Address, "address")
	assert.False(t, s.Running, "running before start")
	assert.Equal(t, 0, s.Jobs, "jobs")
	assert.Equal(t, 0, s.Peers["active"], "active peers")
}
