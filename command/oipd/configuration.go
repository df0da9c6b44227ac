// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bitmark-inc/logger"

	"github.com/DevonJames/oip-arweave-indexer-sub000/configuration"
	"github.com/DevonJames/oip-arweave-indexer-sub000/maintenance"
)

// basic defaults (directories and files are relative to the "DataDirectory" from Configuration file)
const (
	defaultDataDirectory = "" // this will error; use "." for the same directory as the config file

	defaultIdentityFile = "node.identity"
	defaultPeerFile     = "peers.json"

	defaultLevelDBDirectory = "data"
	defaultIndexDatabase    = "oip.leveldb"

	defaultLogDirectory = "log"
	defaultLogFile      = "oipd.log"
	defaultLogCount     = 10          //  number of log files retained
	defaultLogSize      = 1024 * 1024 // rotate when <logfile> exceeds this size

	defaultGateway     = "https://arweave.net"
	defaultMaintenance = "127.0.0.1:2180"
)

// to hold log levels
type LoglevelMap map[string]string

// path expanded or calculated defaults
var (
	defaultLogLevels = LoglevelMap{
		logger.DefaultTag: "critical",
	}

	defaultLocalAllow = []string{"127.0.0.1/32", "::1/128"}
)

// DatabaseType - the index store
type DatabaseType struct {
	Directory      string `gluamapper:"directory" json:"directory"`
	Name           string `gluamapper:"name" json:"name"`
	BroadCacheTTL  string `gluamapper:"broad_cache_ttl" json:"broad_cache_ttl"`
	BroadScanLimit int    `gluamapper:"broad_scan_limit" json:"broad_scan_limit"`
}

// LedgerType - the Arweave gateway
type LedgerType struct {
	Gateway             string `gluamapper:"gateway" json:"gateway"`
	CallTimeout         string `gluamapper:"call_timeout" json:"call_timeout"`
	RequestsPerSecond   int    `gluamapper:"requests_per_second" json:"requests_per_second"`
	Retries             int    `gluamapper:"retries" json:"retries"`
	PageSize            int    `gluamapper:"page_size" json:"page_size"`
	MaximumTransactions int    `gluamapper:"maximum_transactions" json:"maximum_transactions"`
	MaximumDataSize     int64  `gluamapper:"maximum_data_size" json:"maximum_data_size"`
}

// SyncType - the ledger synchroniser
type SyncType struct {
	Interval           string `gluamapper:"interval" json:"interval"`
	StartBlock         uint64 `gluamapper:"start_block" json:"start_block"`
	Workers            int    `gluamapper:"workers" json:"workers"`
	ResolveDepth       int    `gluamapper:"resolve_depth" json:"resolve_depth"`
	ForceRefreshCycles int    `gluamapper:"force_refresh_cycles" json:"force_refresh_cycles"`
	DeferredLimit      int    `gluamapper:"deferred_limit" json:"deferred_limit"`
	TemplateCacheSize  int    `gluamapper:"template_cache_size" json:"template_cache_size"`
}

// DeletionType - who may delete records created by others
type DeletionType struct {
	Privileged []string `gluamapper:"privileged" json:"privileged"`
}

// GunType - the peer store relays
type GunType struct {
	Relays               []string `gluamapper:"relays" json:"relays"`
	CallTimeout          string   `gluamapper:"call_timeout" json:"call_timeout"`
	EncryptionPassphrase string   `gluamapper:"encryption_passphrase" json:"-"`
	EncryptionSalt       string   `gluamapper:"encryption_salt" json:"encryption_salt"`
}

// PeeringType - the peer registry and its heartbeats
type PeeringType struct {
	Address           string `gluamapper:"address" json:"address"`
	Nodes             string `gluamapper:"nodes" json:"nodes"`
	RegistrySoul      string `gluamapper:"registry_soul" json:"registry_soul"`
	HeartbeatInterval string `gluamapper:"heartbeat_interval" json:"heartbeat_interval"`
	StaleAfter        string `gluamapper:"stale_after" json:"stale_after"`
	EvictAfter        string `gluamapper:"evict_after" json:"evict_after"`
	MaxAdvertised     int    `gluamapper:"max_advertised" json:"max_advertised"`
	CacheInterval     string `gluamapper:"cache_interval" json:"cache_interval"`
}

// ReplicationType - the replication manager
type ReplicationType struct {
	Interval          string `gluamapper:"interval" json:"interval"`
	ReplicationFactor int    `gluamapper:"replication_factor" json:"replication_factor"`
	MaxTransfers      int    `gluamapper:"max_transfers" json:"max_transfers"`
	MaxAttempts       int    `gluamapper:"max_attempts" json:"max_attempts"`
	MaxJobs           int    `gluamapper:"max_jobs" json:"max_jobs"`
	Backoff           string `gluamapper:"backoff" json:"backoff"`
	MaxBackoff        string `gluamapper:"max_backoff" json:"max_backoff"`
}

// Configuration - the whole configuration file
type Configuration struct {
	DataDirectory string `gluamapper:"data_directory" json:"data_directory"`
	PidFile       string `gluamapper:"pidfile" json:"pidfile"`
	IdentityFile  string `gluamapper:"identity_file" json:"identity_file"`
	PeerFile      string `gluamapper:"peer_file" json:"peer_file"`
	ProfileHTTP   string `gluamapper:"profile_http" json:"profile_http"`

	Database    DatabaseType              `gluamapper:"database" json:"database"`
	Ledger      LedgerType                `gluamapper:"ledger" json:"ledger"`
	Sync        SyncType                  `gluamapper:"sync" json:"sync"`
	Deletion    DeletionType              `gluamapper:"deletion" json:"deletion"`
	Gun         GunType                   `gluamapper:"gun" json:"gun"`
	Peering     PeeringType               `gluamapper:"peering" json:"peering"`
	Replication ReplicationType           `gluamapper:"replication" json:"replication"`
	Maintenance maintenance.Configuration `gluamapper:"maintenance" json:"maintenance"`
	Logging     logger.Configuration      `gluamapper:"logging" json:"logging"`
}

// will read decode and verify the configuration
func getConfiguration(configurationFileName string) (*Configuration, error) {

	configurationFileName, err := filepath.Abs(filepath.Clean(configurationFileName))
	if nil != err {
		return nil, err
	}

	// absolute path to the main directory
	dataDirectory, _ := filepath.Split(configurationFileName)

	options := &Configuration{

		DataDirectory: defaultDataDirectory,
		PidFile:       "", // no PidFile by default
		IdentityFile:  defaultIdentityFile,
		PeerFile:      defaultPeerFile,

		Database: DatabaseType{
			Directory:     defaultLevelDBDirectory,
			Name:          defaultIndexDatabase,
			BroadCacheTTL: "30s",
		},

		Ledger: LedgerType{
			Gateway:     defaultGateway,
			CallTimeout: "30s",
		},

		Sync: SyncType{
			Interval: "1m",
		},

		Gun: GunType{
			CallTimeout: "10s",
		},

		Peering: PeeringType{
			Nodes:             "none",
			HeartbeatInterval: "30s",
			StaleAfter:        "2m",
			EvictAfter:        "12m",
			CacheInterval:     "1m",
		},

		Replication: ReplicationType{
			Interval:   "1m",
			Backoff:    "10s",
			MaxBackoff: "10m",
		},

		Maintenance: maintenance.Configuration{
			Listen:            []string{defaultMaintenance},
			RequestsPerSecond: 5,
			Allow: map[string][]string{
				maintenance.EndpointStatus:  defaultLocalAllow,
				maintenance.EndpointCache:   defaultLocalAllow,
				maintenance.EndpointSync:    defaultLocalAllow,
				maintenance.EndpointRecords: defaultLocalAllow,
				maintenance.EndpointMetrics: defaultLocalAllow,
			},
		},

		Logging: logger.Configuration{
			Directory: defaultLogDirectory,
			File:      defaultLogFile,
			Size:      defaultLogSize,
			Count:     defaultLogCount,
			Levels:    defaultLogLevels,
		},
	}

	variables := map[string]string{
		"config_directory": dataDirectory,
	}
	if err := configuration.ParseConfigurationFile(configurationFileName, options, variables); err != nil {
		return nil, err
	}

	// ensure absolute data directory
	if "" == options.DataDirectory || "~" == options.DataDirectory {
		return nil, fmt.Errorf("Path: %q is not a valid directory", options.DataDirectory)
	} else if "." == options.DataDirectory {
		options.DataDirectory = dataDirectory // same directory as the configuration file
	} else {
		options.DataDirectory = filepath.Clean(options.DataDirectory)
	}

	// this directory must exist - i.e. must be created prior to running
	if fileInfo, err := os.Stat(options.DataDirectory); nil != err {
		return nil, err
	} else if !fileInfo.IsDir() {
		return nil, fmt.Errorf("Path: %q is not a directory", options.DataDirectory)
	}

	if "" == options.Ledger.Gateway {
		return nil, fmt.Errorf("ledger gateway cannot be blank")
	}

	// all durations must parse
	for name, value := range map[string]string{
		"database.broad_cache_ttl":   options.Database.BroadCacheTTL,
		"ledger.call_timeout":        options.Ledger.CallTimeout,
		"sync.interval":              options.Sync.Interval,
		"gun.call_timeout":           options.Gun.CallTimeout,
		"peering.heartbeat_interval": options.Peering.HeartbeatInterval,
		"peering.stale_after":        options.Peering.StaleAfter,
		"peering.evict_after":        options.Peering.EvictAfter,
		"peering.cache_interval":     options.Peering.CacheInterval,
		"replication.interval":       options.Replication.Interval,
		"replication.backoff":        options.Replication.Backoff,
		"replication.max_backoff":    options.Replication.MaxBackoff,
	} {
		if _, err := parseDuration(value); nil != err {
			return nil, fmt.Errorf("%s: %q: %s", name, value, err)
		}
	}

	if _, err := maintenance.ParseAllow(options.Maintenance.Allow); nil != err {
		return nil, fmt.Errorf("maintenance.allow: %s", err)
	}
	if "" == options.Maintenance.TriggerDirectory {
		options.Maintenance.TriggerDirectory = options.DataDirectory
	}

	// force all relevant items to be absolute paths
	// if not, assign them to the data directory
	mustBeAbsolute := []*string{
		&options.IdentityFile,
		&options.PeerFile,
		&options.Database.Directory,
		&options.Maintenance.TriggerDirectory,
		&options.Logging.Directory,
	}
	for _, f := range mustBeAbsolute {
		*f = ensureAbsolute(options.DataDirectory, *f)
	}

	// optional absolute paths i.e. blank or an absolute path
	optionalAbsolute := []*string{
		&options.PidFile,
		&options.Maintenance.Certificate,
		&options.Maintenance.PrivateKey,
	}
	for _, f := range optionalAbsolute {
		if "" != *f {
			*f = ensureAbsolute(options.DataDirectory, *f)
		}
	}

	// fail if any of these are not simple file names i.e. must
	// not contain path seperator, then add the correct directory
	// prefix, file item is first and corresponding directory is
	// second (or nil if no prefix can be added)
	mustNotBePaths := [][2]*string{
		{&options.Database.Name, &options.Database.Directory},
		{&options.Logging.File, nil},
	}
	for _, f := range mustNotBePaths {
		switch filepath.Dir(*f[0]) {
		case "", ".":
			if nil != f[1] {
				*f[0] = ensureAbsolute(*f[1], *f[0])
			}
		default:
			return nil, fmt.Errorf("Files: %q is not plain name", *f[0])
		}
	}

	// make absolute and create directories if they do not already exist
	for _, d := range []*string{
		&options.Database.Directory,
		&options.Logging.Directory,
	} {
		*d = ensureAbsolute(options.DataDirectory, *d)
		if err := os.MkdirAll(*d, 0700); nil != err {
			return nil, err
		}
	}

	// done
	return options, nil
}

// ensureAbsolute - if a path is not absolute then prefix the directory
func ensureAbsolute(directory string, filePath string) string {
	if !filepath.IsAbs(filePath) {
		filePath = filepath.Join(directory, filePath)
	}
	return filepath.Clean(filePath)
}

// blank is zero, which selects the component default
func parseDuration(s string) (time.Duration, error) {
	if "" == s {
		return 0, nil
	}
	return time.ParseDuration(s)
}

// only called after getConfiguration has checked every value
func mustDuration(s string) time.Duration {
	d, _ := parseDuration(s)
	return d
}
