// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package ledger - read confirmed OIP transactions from an Arweave gateway
package ledger

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/bitmark-inc/logger"

	"github.com/DevonJames/oip-arweave-indexer-sub000/fault"
)

const (
	ledgerLogName = "ledger"

	defaultCallTimeout       = 30 * time.Second
	defaultRequestsPerSecond = 5
	defaultRetries           = 4
	defaultPageSize          = 100
	defaultMaxTransactions   = 1000
	defaultMaxDataSize       = 10 * 1024 * 1024
	initialBackoff           = 500 * time.Millisecond
)

// Client - read access to the ledger
type Client interface {
	// confirmed OIP transactions above a height ordered by height then
	// id; a batch always ends on a complete height
	TransactionsSince(ctx context.Context, height uint64) ([]Transaction, error)

	// the data published with a transaction
	TransactionData(ctx context.Context, id string) ([]byte, error)

	// current ledger height
	Height(ctx context.Context) (uint64, error)
}

// Arweave - gateway backed ledger client
type Arweave struct {
	log             *logger.L
	gateway         string
	httpClient      *http.Client
	limiter         *rate.Limiter
	callTimeout     time.Duration
	retries         int
	pageSize        int
	maxTransactions int
	maxDataSize     int64
}

// Option - configure an Arweave client
type Option func(*Arweave)

// WithCallTimeout - bound on each gateway request
func WithCallTimeout(d time.Duration) Option {
	return func(a *Arweave) {
		if d > 0 {
			a.callTimeout = d
		}
	}
}

// WithRateLimit - steady request rate with a burst of the same size
func WithRateLimit(requestsPerSecond int) Option {
	return func(a *Arweave) {
		if requestsPerSecond > 0 {
			a.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
		}
	}
}

// WithRetries - attempts per request before the ledger is unavailable
func WithRetries(n int) Option {
	return func(a *Arweave) {
		if n > 0 {
			a.retries = n
		}
	}
}

// WithPageSize - transactions per GraphQL page
func WithPageSize(n int) Option {
	return func(a *Arweave) {
		if n > 0 {
			a.pageSize = n
		}
	}
}

// WithMaximumTransactions - soft bound on a single batch
func WithMaximumTransactions(n int) Option {
	return func(a *Arweave) {
		if n > 0 {
			a.maxTransactions = n
		}
	}
}

// WithMaximumDataSize - largest transaction body accepted, in bytes
func WithMaximumDataSize(n int64) Option {
	return func(a *Arweave) {
		if n > 0 {
			a.maxDataSize = n
		}
	}
}

// WithHTTPClient - replace the transport
func WithHTTPClient(c *http.Client) Option {
	return func(a *Arweave) {
		if nil != c {
			a.httpClient = c
		}
	}
}

// NewArweave - create a client for a gateway base URL
func NewArweave(gateway string, options ...Option) *Arweave {
	a := &Arweave{
		log:             logger.New(ledgerLogName),
		gateway:         strings.TrimRight(gateway, "/"),
		httpClient:      &http.Client{},
		limiter:         rate.NewLimiter(rate.Limit(defaultRequestsPerSecond), defaultRequestsPerSecond),
		callTimeout:     defaultCallTimeout,
		retries:         defaultRetries,
		pageSize:        defaultPageSize,
		maxTransactions: defaultMaxTransactions,
		maxDataSize:     defaultMaxDataSize,
	}
	for _, option := range options {
		option(a)
	}
	return a
}

const transactionsQuery = `query($min: Int, $first: Int, $after: String) {
  transactions(
    tags: [{name: "Index-Method", values: ["OIP"]}]
    block: {min: $min}
    sort: HEIGHT_ASC
    first: $first
    after: $after
  ) {
    pageInfo { hasNextPage }
    edges {
      cursor
      node {
        id
        owner { address key }
        tags { name value }
        block { height timestamp }
      }
    }
  }
}`

type graphQLRequest struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables"`
}

type graphQLResponse struct {
	Data struct {
		Transactions struct {
			PageInfo struct {
				HasNextPage bool `json:"hasNextPage"`
			} `json:"pageInfo"`
			Edges []struct {
				Cursor string `json:"cursor"`
				Node   struct {
					ID    string `json:"id"`
					Owner struct {
						Address string `json:"address"`
						Key     string `json:"key"`
					} `json:"owner"`
					Tags  []Tag `json:"tags"`
					Block *struct {
						Height    uint64 `json:"height"`
						Timestamp int64  `json:"timestamp"`
					} `json:"block"`
				} `json:"node"`
			} `json:"edges"`
		} `json:"transactions"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// TransactionsSince - see Client
func (a *Arweave) TransactionsSince(ctx context.Context, height uint64) ([]Transaction, error) {
	result := make([]Transaction, 0, a.pageSize)
	after := ""

pages:
	for {
		page, err := a.fetchPage(ctx, height+1, after)
		if nil != err {
			return nil, err
		}

		edges := page.Data.Transactions.Edges
		for _, edge := range edges {
			node := edge.Node
			after = edge.Cursor
			if nil == node.Block {
				continue // not yet confirmed
			}
			if node.Block.Height <= height {
				continue
			}

			// only stop at a height boundary
			if len(result) >= a.maxTransactions && node.Block.Height != result[len(result)-1].BlockHeight {
				a.log.Debugf("batch limit reached at height: %d", result[len(result)-1].BlockHeight)
				break pages
			}

			result = append(result, Transaction{
				ID:          node.ID,
				Owner:       node.Owner.Address,
				OwnerKey:    node.Owner.Key,
				BlockHeight: node.Block.Height,
				Timestamp:   node.Block.Timestamp,
				Tags:        node.Tags,
			})
		}

		if !page.Data.Transactions.PageInfo.HasNextPage || 0 == len(edges) {
			break pages
		}
	}

	Sort(result)
	a.log.Debugf("transactions since: %d  count: %d", height, len(result))
	return result, nil
}

func (a *Arweave) fetchPage(ctx context.Context, min uint64, after string) (*graphQLResponse, error) {
	variables := map[string]interface{}{
		"min":   min,
		"first": a.pageSize,
	}
	if "" != after {
		variables["after"] = after
	}
	body, err := json.Marshal(graphQLRequest{
		Query:     transactionsQuery,
		Variables: variables,
	})
	if nil != err {
		return nil, err
	}

	data, err := a.do(ctx, http.MethodPost, a.gateway+"/graphql", body)
	if nil != err {
		return nil, err
	}

	var response graphQLResponse
	if err := json.Unmarshal(data, &response); nil != err {
		return nil, fmt.Errorf("graphql response: %v: %w", err, fault.ErrLedgerUnavailable)
	}
	if len(response.Errors) > 0 {
		return nil, fmt.Errorf("graphql error: %s: %w", response.Errors[0].Message, fault.ErrLedgerUnavailable)
	}
	return &response, nil
}

// TransactionData - see Client
func (a *Arweave) TransactionData(ctx context.Context, id string) ([]byte, error) {
	return a.do(ctx, http.MethodGet, a.gateway+"/"+id, nil)
}

// Height - see Client
func (a *Arweave) Height(ctx context.Context) (uint64, error) {
	data, err := a.do(ctx, http.MethodGet, a.gateway+"/info", nil)
	if nil != err {
		return 0, err
	}
	var info struct {
		Height uint64 `json:"height"`
	}
	if err := json.Unmarshal(data, &info); nil != err {
		return 0, fmt.Errorf("info response: %v: %w", err, fault.ErrLedgerUnavailable)
	}
	return info.Height, nil
}

// errors that must not be retried
type permanentError struct {
	err error
}

func (e permanentError) Error() string { return e.err.Error() }

// do - one request with rate limiting, per-call timeout and retry with
// exponential backoff; a 429 waits for Retry-After when given
func (a *Arweave) do(ctx context.Context, method string, url string, body []byte) ([]byte, error) {
	var lastErr error
	backoff := initialBackoff

	for attempt := 1; attempt <= a.retries; attempt += 1 {
		if err := a.limiter.Wait(ctx); nil != err {
			return nil, fmt.Errorf("%s %s: %v: %w", method, url, err, fault.ErrLedgerUnavailable)
		}

		data, retryAfter, err := a.doOnce(ctx, method, url, body)
		if nil == err {
			return data, nil
		}
		if p, ok := err.(permanentError); ok {
			return nil, p.err
		}
		lastErr = err

		wait := backoff
		if retryAfter > 0 {
			wait = retryAfter
		}
		if attempt < a.retries {
			a.log.Warnf("%s %s: attempt %d/%d failed: %s  retry in: %v", method, url, attempt, a.retries, err, wait)
			select {
			case <-time.After(wait):
				backoff *= 2
			case <-ctx.Done():
				return nil, fmt.Errorf("%s %s: %v: %w", method, url, ctx.Err(), fault.ErrLedgerUnavailable)
			}
		}
	}

	a.log.Errorf("%s %s: failed after %d attempts: %s", method, url, a.retries, lastErr)
	return nil, fmt.Errorf("%s %s: %v: %w", method, url, lastErr, fault.ErrLedgerUnavailable)
}

func (a *Arweave) doOnce(ctx context.Context, method string, url string, body []byte) ([]byte, time.Duration, error) {
	ctx, cancel := context.WithTimeout(ctx, a.callTimeout)
	defer cancel()

	var reader io.Reader
	if nil != body {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if nil != err {
		return nil, 0, permanentError{err}
	}
	if nil != body {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.httpClient.Do(req)
	if nil != err {
		return nil, 0, err
	}
	defer resp.Body.Close()

	switch {
	case http.StatusTooManyRequests == resp.StatusCode:
		return nil, parseRetryAfter(resp), fmt.Errorf("rate limited (429)")
	case http.StatusNotFound == resp.StatusCode:
		return nil, 0, permanentError{fmt.Errorf("%s: %w", url, fault.ErrRecordNotFound)}
	case http.StatusOK != resp.StatusCode:
		return nil, 0, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	data, err := ioutil.ReadAll(io.LimitReader(resp.Body, a.maxDataSize+1))
	if nil != err {
		return nil, 0, err
	}
	if int64(len(data)) > a.maxDataSize {
		return nil, 0, permanentError{fmt.Errorf("%s: over %d bytes: %w", url, a.maxDataSize, fault.ErrDataTooLarge)}
	}
	return data, 0, nil
}

func parseRetryAfter(resp *http.Response) time.Duration {
	header := resp.Header.Get("Retry-After")
	if "" == header {
		return 0
	}
	if seconds, err := strconv.Atoi(header); nil == err && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	if t, err := http.ParseTime(header); nil == err {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}
