// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package calls_test

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DevonJames/oip-arweave-indexer-sub000/command/oip-cli/calls"
	"github.com/DevonJames/oip-arweave-indexer-sub000/fault"
)

type seen struct {
	method string
	path   string
	query  map[string][]string
}

func newServer(t *testing.T, code int, body string, s *seen) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if nil != s {
			s.method = r.Method
			s.path = r.URL.Path
			s.query = r.URL.Query()
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_, _ = w.Write([]byte(body))
	}))
}

func newClient(t *testing.T, url string) *calls.Client {
	client, err := calls.NewClient(url, false, 5*time.Second, false, nil)
	require.Nil(t, err, "new client")
	return client
}

func TestNewClientBadURL(t *testing.T) {
	for _, u := range []string{"", "127.0.0.1:2180", "ftp://127.0.0.1", "http://"} {
		_, err := calls.NewClient(u, false, time.Second, false, nil)
		assert.NotNil(t, err, "%q: expected error", u)
	}

	_, err := calls.NewClient("tcp://127.0.0.1:2180", false, time.Second, false, nil)
	assert.Equal(t, fault.ErrInvalidURL, err, "wrong error")
}

func TestStatus(t *testing.T) {
	s := &seen{}
	server := newServer(t, http.StatusOK, `{"version":"1.2","index":{"records":7}}`, s)
	defer server.Close()

	client := newClient(t, server.URL)
	defer client.Close()

	reply, err := client.Status()
	assert.Nil(t, err, "status error")
	assert.Equal(t, "1.2", reply["version"], "wrong version")
	assert.Equal(t, http.MethodGet, s.method, "wrong method")
	assert.Equal(t, "/status", s.path, "wrong path")
}

func TestBasePath(t *testing.T) {
	s := &seen{}
	server := newServer(t, http.StatusOK, `{"requested":true}`, s)
	defer server.Close()

	client := newClient(t, server.URL+"/oipd/")
	reply, err := client.Refresh()
	assert.Nil(t, err, "refresh error")
	assert.True(t, reply.Requested, "not requested")
	assert.Equal(t, http.MethodPost, s.method, "wrong method")
	assert.Equal(t, "/oipd/sync/refresh", s.path, "wrong path")
}

func TestClearCaches(t *testing.T) {
	s := &seen{}
	server := newServer(t, http.StatusOK, `{"cleared":{"templates":4,"remotes":1}}`, s)
	defer server.Close()

	reply, err := newClient(t, server.URL).ClearCaches()
	assert.Nil(t, err, "clear error")
	assert.Equal(t, map[string]int{"templates": 4, "remotes": 1}, reply.Cleared, "wrong counts")
	assert.Equal(t, "/cache/clear", s.path, "wrong path")
}

func TestRemap(t *testing.T) {
	s := &seen{}
	server := newServer(t, http.StatusOK, `{"templates":["did:arweave:a","did:arweave:b"]}`, s)
	defer server.Close()

	reply, err := newClient(t, server.URL).Remap([]string{"did:arweave:a", " ", "did:arweave:b"})
	assert.Nil(t, err, "remap error")
	assert.Equal(t, []string{"did:arweave:a", "did:arweave:b"}, reply.Templates, "wrong templates")
	assert.Equal(t, []string{"did:arweave:a", "did:arweave:b"}, s.query["template"], "wrong query")
}

func TestDelete(t *testing.T) {
	tests := []struct {
		code    int
		body    string
		outcome string
		err     bool
	}{
		{http.StatusOK, `{"did":"did:gun:x","outcome":"deleted"}`, "deleted", false},
		{http.StatusAccepted, `{"did":"did:gun:x","outcome":"deleted","error":"peer store timeout"}`, "deleted", false},
		{http.StatusForbidden, `{"did":"did:gun:x","outcome":"access denied"}`, "access denied", false},
		{http.StatusNotFound, `{"did":"did:gun:x","outcome":"not found"}`, "not found", false},
		{http.StatusConflict, `{"did":"did:gun:x","outcome":"in use"}`, "in use", false},
		{http.StatusForbidden, `{"code":403,"error":"forbidden"}`, "", true},
		{http.StatusInternalServerError, `{"code":500,"error":"internal server error"}`, "", true},
	}

	for i, item := range tests {
		s := &seen{}
		server := newServer(t, item.code, item.body, s)

		reply, err := newClient(t, server.URL).Delete("did:gun:x")
		server.Close()

		assert.Equal(t, []string{"did:gun:x"}, s.query["did"], "%d: wrong query", i)
		if item.err {
			assert.NotNil(t, err, "%d: expected error", i)
			continue
		}
		assert.Nil(t, err, "%d: delete error", i)
		assert.Equal(t, item.outcome, reply.Outcome, "%d: wrong outcome", i)
	}
}

func TestRemoteError(t *testing.T) {
	server := newServer(t, http.StatusTooManyRequests, `{"code":429,"error":"rate limiting"}`, nil)
	defer server.Close()

	_, err := newClient(t, server.URL).ClearCaches()
	require.NotNil(t, err, "expected error")

	var remote *calls.RemoteError
	assert.True(t, errors.As(err, &remote), "not a remote error")
	assert.Equal(t, http.StatusTooManyRequests, remote.Code, "wrong code")
	assert.Equal(t, "rate limiting", remote.Message, "wrong message")
}

func TestRemoteErrorWithoutBody(t *testing.T) {
	server := newServer(t, http.StatusBadGateway, `<html></html>`, nil)
	defer server.Close()

	_, err := newClient(t, server.URL).Status()
	require.NotNil(t, err, "expected error")
	assert.Equal(t, "502: Bad Gateway", err.Error(), "wrong error")
}

func TestMetrics(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("oipd_ledger_height 12\n"))
	}))
	defer server.Close()

	text, err := newClient(t, server.URL).Metrics()
	assert.Nil(t, err, "metrics error")
	assert.Equal(t, "oipd_ledger_height 12\n", text, "wrong text")
}

func TestVerbose(t *testing.T) {
	server := newServer(t, http.StatusOK, `{"requested":true}`, nil)
	defer server.Close()

	buffer := &bytes.Buffer{}
	client, err := calls.NewClient(server.URL, false, time.Second, true, buffer)
	require.Nil(t, err, "new client")

	_, err = client.Refresh()
	assert.Nil(t, err, "refresh error")
	assert.Contains(t, buffer.String(), "POST "+server.URL+"/sync/refresh", "missing request")
	assert.Contains(t, buffer.String(), "status: 200", "missing status")
}
