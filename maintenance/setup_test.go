// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package maintenance_test

import (
	"net"
	"os"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"golang.org/x/time/rate"

	"github.com/bitmark-inc/logger"

	"github.com/DevonJames/oip-arweave-indexer-sub000/fixtures"
	"github.com/DevonJames/oip-arweave-indexer-sub000/maintenance"
	"github.com/DevonJames/oip-arweave-indexer-sub000/maintenance/mocks"
)

// httptest.NewRequest uses 192.0.2.1 as the caller
const testNetwork = "192.0.2.0/24"

func TestMain(m *testing.M) {
	fixtures.SetupTestLogger()
	result := m.Run()
	fixtures.TeardownTestLogger()
	os.Exit(result)
}

type nodeMocks struct {
	index     *mocks.MockIndex
	templates *mocks.MockTemplates
	ledger    *mocks.MockSyncer
	peers     *mocks.MockPeers
	deleter   *mocks.MockDeleter
}

func newNode(ctl *gomock.Controller, withPeers bool) (*maintenance.Node, nodeMocks) {
	m := nodeMocks{
		index:     mocks.NewMockIndex(ctl),
		templates: mocks.NewMockTemplates(ctl),
		ledger:    mocks.NewMockSyncer(ctl),
		peers:     mocks.NewMockPeers(ctl),
		deleter:   mocks.NewMockDeleter(ctl),
	}
	node := &maintenance.Node{
		Log:       logger.New(fixtures.LogCategory),
		Version:   "1.0",
		Start:     time.Now(),
		Index:     m.index,
		Templates: m.templates,
		Ledger:    m.ledger,
		Deleter:   m.deleter,
	}
	if withPeers {
		node.Peers = m.peers
	}
	return node, m
}

func newHandler(t *testing.T, node *maintenance.Node, limiter *rate.Limiter) *maintenance.Handler {
	allow, err := maintenance.ParseAllow(map[string][]string{
		maintenance.EndpointStatus:  {testNetwork},
		maintenance.EndpointCache:   {testNetwork},
		maintenance.EndpointSync:    {testNetwork},
		maintenance.EndpointRecords: {testNetwork},
		maintenance.EndpointMetrics: {testNetwork, "::1/128"},
	})
	if nil != err {
		t.Fatalf("parse allow error: %s", err)
	}
	_, local, _ := net.ParseCIDR("127.0.0.1/32")
	allow[maintenance.EndpointStatus] = append(allow[maintenance.EndpointStatus], local)

	return maintenance.NewHandler(logger.New(fixtures.LogCategory), node, allow, limiter, nil)
}
