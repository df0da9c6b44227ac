// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package maintenance_test

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"

	"github.com/DevonJames/oip-arweave-indexer-sub000/background"
	"github.com/DevonJames/oip-arweave-indexer-sub000/fixtures"
	"github.com/DevonJames/oip-arweave-indexer-sub000/maintenance"
)

func TestTrigger(t *testing.T) {
	ctl := gomock.NewController(t)
	defer ctl.Finish()

	dir := fixtures.TempDir("trigger")
	defer os.RemoveAll(dir)

	node, m := newNode(ctl, false)

	cleared := make(chan struct{}, 4)
	m.templates.EXPECT().Len().Return(0).MinTimes(1)
	m.index.EXPECT().ClearCache().MinTimes(1)
	m.templates.EXPECT().Purge().Do(func() {
		cleared <- struct{}{}
	}).MinTimes(1)

	trigger, err := maintenance.NewTrigger(dir, node.Log, node)
	assert.Nil(t, err, "new trigger")

	p := background.Start(background.Processes{trigger}, nil)
	defer p.Stop()

	// let the watcher settle
	time.Sleep(50 * time.Millisecond)

	fileName := filepath.Join(dir, maintenance.TriggerFileName)
	assert.Nil(t, ioutil.WriteFile(fileName, []byte{}, 0600), "write trigger")

	select {
	case <-cleared:
	case <-time.After(3 * time.Second):
		t.Fatal("caches not cleared")
	}

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if _, err := os.Stat(fileName); os.IsNotExist(err) {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	_, err = os.Stat(fileName)
	assert.True(t, os.IsNotExist(err), "trigger file not removed")
}

func TestTriggerFileLeftBehind(t *testing.T) {
	ctl := gomock.NewController(t)
	defer ctl.Finish()

	dir := fixtures.TempDir("trigger")
	defer os.RemoveAll(dir)

	fileName := filepath.Join(dir, maintenance.TriggerFileName)
	assert.Nil(t, ioutil.WriteFile(fileName, []byte{}, 0600), "write trigger")

	node, m := newNode(ctl, false)
	m.templates.EXPECT().Len().Return(0).Times(1)
	m.index.EXPECT().ClearCache().Times(1)
	m.templates.EXPECT().Purge().Times(1)

	trigger, err := maintenance.NewTrigger(dir, node.Log, node)
	assert.Nil(t, err, "new trigger")

	p := background.Start(background.Processes{trigger}, nil)
	time.Sleep(100 * time.Millisecond)
	p.Stop()

	_, err = os.Stat(fileName)
	assert.True(t, os.IsNotExist(err), "trigger file not removed")
}

func TestTriggerMissingDirectory(t *testing.T) {
	ctl := gomock.NewController(t)
	defer ctl.Finish()

	node, _ := newNode(ctl, false)
	_, err := maintenance.NewTrigger("/no/such/directory", node.Log, node)
	assert.NotNil(t, err, "missing directory")
}
