// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DevonJames/oip-arweave-indexer-sub000/maintenance"
)

func writeConfiguration(t *testing.T, body string) (string, string) {
	dir, err := ioutil.TempDir("", "oipd-configuration")
	require.Nil(t, err, "temp dir")

	fileName := filepath.Join(dir, "oipd.conf")
	require.Nil(t, ioutil.WriteFile(fileName, []byte(body), 0600), "write configuration")
	return dir, fileName
}

func TestGetConfigurationDefaults(t *testing.T) {
	dir, fileName := writeConfiguration(t, `
local M = {}
M.data_directory = "."
return M
`)
	defer os.RemoveAll(dir)

	options, err := getConfiguration(fileName)
	require.Nil(t, err, "configuration error")

	assert.Equal(t, filepath.Clean(dir), filepath.Clean(options.DataDirectory), "wrong data directory")
	assert.Equal(t, filepath.Join(dir, defaultIdentityFile), options.IdentityFile, "wrong identity file")
	assert.Equal(t, filepath.Join(dir, defaultPeerFile), options.PeerFile, "wrong peer file")
	assert.Equal(t, filepath.Join(dir, defaultLevelDBDirectory, defaultIndexDatabase), options.Database.Name, "wrong database")
	assert.Equal(t, filepath.Clean(dir), options.Maintenance.TriggerDirectory, "wrong trigger directory")
	assert.Equal(t, defaultGateway, options.Ledger.Gateway, "wrong gateway")
	assert.Equal(t, []string{defaultMaintenance}, options.Maintenance.Listen, "wrong maintenance listen")
	assert.Equal(t, defaultLocalAllow, options.Maintenance.Allow[maintenance.EndpointRecords], "wrong allow")
	assert.Equal(t, "none", options.Peering.Nodes, "wrong nodes")
	assert.Equal(t, 0, len(options.Gun.Relays), "unexpected relays")

	_, err = os.Stat(filepath.Join(dir, defaultLevelDBDirectory))
	assert.Nil(t, err, "database directory not created")
	_, err = os.Stat(filepath.Join(dir, defaultLogDirectory))
	assert.Nil(t, err, "log directory not created")
}

func TestGetConfigurationOverrides(t *testing.T) {
	dir, fileName := writeConfiguration(t, `
local M = {}
M.data_directory = var.config_directory
M.identity_file = "/etc/oipd/node.identity"
M.gun = {
    relays = { "ws://127.0.0.1:8765/gun" },
    call_timeout = "3s",
}
M.deletion = {
    privileged = { "node-a", "node-b" },
}
M.sync = {
    interval = "90s",
    workers = 3,
}
return M
`)
	defer os.RemoveAll(dir)

	options, err := getConfiguration(fileName)
	require.Nil(t, err, "configuration error")

	assert.Equal(t, "/etc/oipd/node.identity", options.IdentityFile, "wrong identity file")
	assert.Equal(t, []string{"ws://127.0.0.1:8765/gun"}, options.Gun.Relays, "wrong relays")
	assert.Equal(t, []string{"node-a", "node-b"}, options.Deletion.Privileged, "wrong privileged")
	assert.Equal(t, 3, options.Sync.Workers, "wrong workers")
	assert.Equal(t, 90*time.Second, mustDuration(options.Sync.Interval), "wrong interval")
	assert.Equal(t, 3*time.Second, mustDuration(options.Gun.CallTimeout), "wrong call timeout")
}

func TestGetConfigurationErrors(t *testing.T) {
	tests := []string{
		// blank data directory
		`return {}`,
		// missing data directory
		`return { data_directory = "/no/such/directory/for/oipd" }`,
		// bad duration
		`return { data_directory = ".", sync = { interval = "soon" } }`,
		// bad network
		`return { data_directory = ".", maintenance = { allow = { status = { "localhost" } } } }`,
		// database name with a path
		`return { data_directory = ".", database = { name = "sub/oip.leveldb" } }`,
		// blank gateway
		`return { data_directory = ".", ledger = { gateway = "" } }`,
	}

	for i, body := range tests {
		dir, fileName := writeConfiguration(t, body)
		_, err := getConfiguration(fileName)
		assert.NotNil(t, err, "%d: expected error", i)
		os.RemoveAll(dir)
	}
}

func TestParseDuration(t *testing.T) {
	d, err := parseDuration("")
	assert.Nil(t, err, "blank error")
	assert.Equal(t, time.Duration(0), d, "blank is not zero")

	d, err = parseDuration("2m30s")
	assert.Nil(t, err, "parse error")
	assert.Equal(t, 150*time.Second, d, "wrong duration")

	_, err = parseDuration("2 minutes")
	assert.NotNil(t, err, "expected error")
}
