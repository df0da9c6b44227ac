// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package ledger_test

import (
	"context"
	"errors"
	"fmt"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"

	"github.com/DevonJames/oip-arweave-indexer-sub000/fault"
	"github.com/DevonJames/oip-arweave-indexer-sub000/ledger"
)

type edge struct {
	id     string
	height uint64 // 0 => pending
}

// gateway fake serving fixed pages of edges
func gateway(t *testing.T, pages [][]edge) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case "/graphql" == r.URL.Path:
			body, _ := ioutil.ReadAll(r.Body)
			var request struct {
				Variables struct {
					After string `json:"after"`
				} `json:"variables"`
			}
			if err := json.Unmarshal(body, &request); nil != err {
				t.Errorf("bad request: %s", err)
			}
			n := 0
			if "" != request.Variables.After {
				fmt.Sscanf(request.Variables.After, "page-%d", &n)
			}
			writePage(w, pages, n)

		case "/info" == r.URL.Path:
			fmt.Fprint(w, `{"network":"arweave.N.1","height":1234}`)

		case strings.HasPrefix(r.URL.Path, "/missing"):
			w.WriteHeader(http.StatusNotFound)

		default:
			fmt.Fprintf(w, `[{"t":"x","0":"%s"}]`, strings.TrimPrefix(r.URL.Path, "/"))
		}
	}))
}

func writePage(w http.ResponseWriter, pages [][]edge, n int) {
	edges := make([]string, 0, len(pages[n]))
	for _, e := range pages[n] {
		block := "null"
		if e.height > 0 {
			block = fmt.Sprintf(`{"height":%d,"timestamp":%d}`, e.height, 1700000000+e.height)
		}
		edges = append(edges, fmt.Sprintf(
			`{"cursor":"page-%d","node":{"id":"%s","owner":{"address":"owner","key":"k"},"tags":[{"name":"Index-Method","value":"OIP"}],"block":%s}}`,
			n+1, e.id, block))
	}
	fmt.Fprintf(w, `{"data":{"transactions":{"pageInfo":{"hasNextPage":%t},"edges":[%s]}}}`,
		n+1 < len(pages), strings.Join(edges, ","))
}

func TestTransactionsSince(t *testing.T) {
	pages := [][]edge{
		{{"b", 11}, {"a", 11}, {"p", 0}},
		{{"c", 12}},
	}
	server := gateway(t, pages)
	defer server.Close()

	client := ledger.NewArweave(server.URL, ledger.WithRateLimit(1000))
	txs, err := client.TransactionsSince(context.Background(), 10)
	assert.Nil(t, err, "error")

	ids := make([]string, len(txs))
	for i, tx := range txs {
		ids[i] = tx.ID
	}
	assert.Equal(t, []string{"a", "b", "c"}, ids, "pending skipped and sorted")
	assert.Equal(t, uint64(11), txs[0].BlockHeight, "height")
	assert.Equal(t, "owner", txs[0].Owner, "owner")
	assert.Equal(t, int64(1700000011), txs[0].Timestamp, "timestamp")
}

func TestTransactionsSinceCompleteHeights(t *testing.T) {
	pages := [][]edge{
		{{"a", 11}, {"b", 11}},
		{{"c", 11}, {"d", 12}},
		{{"e", 13}},
	}
	server := gateway(t, pages)
	defer server.Close()

	client := ledger.NewArweave(server.URL,
		ledger.WithRateLimit(1000),
		ledger.WithMaximumTransactions(2),
	)
	txs, err := client.TransactionsSince(context.Background(), 10)
	assert.Nil(t, err, "error")
	assert.Equal(t, 3, len(txs), "whole of height 11 only")
	for _, tx := range txs {
		assert.Equal(t, uint64(11), tx.BlockHeight, "height")
	}
}

func TestTransactionData(t *testing.T) {
	server := gateway(t, [][]edge{{}})
	defer server.Close()

	client := ledger.NewArweave(server.URL, ledger.WithRateLimit(1000))
	data, err := client.TransactionData(context.Background(), "tx-1")
	assert.Nil(t, err, "error")
	assert.Equal(t, `[{"t":"x","0":"tx-1"}]`, string(data), "data")

	_, err = client.TransactionData(context.Background(), "missing-1")
	assert.True(t, errors.Is(err, fault.ErrRecordNotFound), "not found: %v", err)

	height, err := client.Height(context.Background())
	assert.Nil(t, err, "height error")
	assert.Equal(t, uint64(1234), height, "height")
}

func TestTransactionDataTooLarge(t *testing.T) {
	body := `[{"t":"x","0":"tx-1"}]`
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		fmt.Fprint(w, body)
	}))
	defer server.Close()

	exact := ledger.NewArweave(server.URL, ledger.WithRateLimit(1000), ledger.WithMaximumDataSize(int64(len(body))))
	data, err := exact.TransactionData(context.Background(), "tx-1")
	assert.Nil(t, err, "error at the size bound")
	assert.Equal(t, body, string(data), "data")

	small := ledger.NewArweave(server.URL,
		ledger.WithRateLimit(1000),
		ledger.WithRetries(3),
		ledger.WithMaximumDataSize(int64(len(body)-1)),
	)
	data, err = small.TransactionData(context.Background(), "tx-1")
	assert.True(t, errors.Is(err, fault.ErrDataTooLarge), "too large: %v", err)
	assert.False(t, fault.IsErrUnavailable(err), "oversized data is not an outage")
	assert.Nil(t, data, "truncated data returned")
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls), "oversized body retried")
}

func TestRetryThenSucceed(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, `{"height":7}`)
	}))
	defer server.Close()

	client := ledger.NewArweave(server.URL, ledger.WithRateLimit(1000), ledger.WithRetries(3))
	height, err := client.Height(context.Background())
	assert.Nil(t, err, "error")
	assert.Equal(t, uint64(7), height, "height")
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls), "calls")
}

func TestUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := ledger.NewArweave(server.URL, ledger.WithRateLimit(1000), ledger.WithRetries(2))
	_, err := client.TransactionsSince(context.Background(), 0)
	assert.True(t, errors.Is(err, fault.ErrLedgerUnavailable), "unavailable: %v", err)
}

func TestCallTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		fmt.Fprint(w, `{"height":7}`)
	}))
	defer server.Close()

	client := ledger.NewArweave(server.URL,
		ledger.WithRateLimit(1000),
		ledger.WithRetries(1),
		ledger.WithCallTimeout(20*time.Millisecond),
	)
	_, err := client.Height(context.Background())
	assert.True(t, errors.Is(err, fault.ErrLedgerUnavailable), "unavailable: %v", err)
}

func TestGraphQLError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"errors":[{"message":"bad query"}]}`)
	}))
	defer server.Close()

	client := ledger.NewArweave(server.URL, ledger.WithRateLimit(1000), ledger.WithRetries(1))
	_, err := client.TransactionsSince(context.Background(), 0)
	assert.True(t, errors.Is(err, fault.ErrLedgerUnavailable), "unavailable: %v", err)
	assert.Contains(t, err.Error(), "bad query", "message")
}
