// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"net"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/bitmark-inc/exitwithstatus"
	"github.com/bitmark-inc/getoptions"
	"github.com/bitmark-inc/logger"

	"github.com/DevonJames/oip-arweave-indexer-sub000/announce"
	"github.com/DevonJames/oip-arweave-indexer-sub000/announce/domain"
	"github.com/DevonJames/oip-arweave-indexer-sub000/background"
	"github.com/DevonJames/oip-arweave-indexer-sub000/deletion"
	"github.com/DevonJames/oip-arweave-indexer-sub000/gun"
	"github.com/DevonJames/oip-arweave-indexer-sub000/gunsync"
	"github.com/DevonJames/oip-arweave-indexer-sub000/ledger"
	"github.com/DevonJames/oip-arweave-indexer-sub000/ledgersync"
	"github.com/DevonJames/oip-arweave-indexer-sub000/maintenance"
	"github.com/DevonJames/oip-arweave-indexer-sub000/metrics"
	"github.com/DevonJames/oip-arweave-indexer-sub000/replication"
	"github.com/DevonJames/oip-arweave-indexer-sub000/storage"
	"github.com/DevonJames/oip-arweave-indexer-sub000/template"
)

// set by the linker: go build -ldflags "-X main.version=M.N" ./...
var version = "zero" // do not change this value

// main program
func main() {
	// ensure exit handler is first
	defer exitwithstatus.Handler()

	flags := []getoptions.Option{
		{Long: "help", HasArg: getoptions.NO_ARGUMENT, Short: 'h'},
		{Long: "verbose", HasArg: getoptions.NO_ARGUMENT, Short: 'v'},
		{Long: "quiet", HasArg: getoptions.NO_ARGUMENT, Short: 'q'},
		{Long: "version", HasArg: getoptions.NO_ARGUMENT, Short: 'V'},
		{Long: "config-file", HasArg: getoptions.REQUIRED_ARGUMENT, Short: 'c'},
		{Long: "memory-stats", HasArg: getoptions.NO_ARGUMENT, Short: 'm'},
	}

	program, options, arguments, err := getoptions.GetOS(flags)
	if nil != err {
		exitwithstatus.Message("%s: getoptions error: %s", program, err)
	}

	if len(options["version"]) > 0 {
		processSetupCommand(program, []string{"version"})
		return
	}

	if len(options["help"]) > 0 {
		processSetupCommand(program, []string{"help"})
		return
	}

	// these commands do not require the configuration
	if len(arguments) > 0 && processSetupCommand(program, arguments) {
		return
	}

	if 1 != len(options["config-file"]) {
		exitwithstatus.Message("%s: only one config-file option is required, %d were detected", program, len(options["config-file"]))
	}

	// read options and parse the configuration file
	configurationFile := options["config-file"][0]
	theConfiguration, err := getConfiguration(configurationFile)
	if nil != err {
		exitwithstatus.Message("%s: failed to read configuration from: %q  error: %s", program, configurationFile, err)
	}

	// these commands require the configuration and
	// perform enquiries on the configuration
	if len(arguments) > 0 && processConfigCommand(arguments, theConfiguration) {
		return
	}

	// start logging
	if err = logger.Initialise(theConfiguration.Logging); nil != err {
		exitwithstatus.Message("%s: logger setup failed with error: %s", program, err)
	}
	defer logger.Finalise()

	// create a logger channel for the main program
	log := logger.New("main")
	defer log.Info("finished")
	log.Info("starting…")
	log.Infof("version: %s", version)
	log.Debugf("theConfiguration: %v", theConfiguration)

	// ------------------
	// start of real main
	// ------------------

	// optional PID file
	// use if not running under a supervisor program like daemon(8)
	if "" != theConfiguration.PidFile {
		lockFile, err := os.OpenFile(theConfiguration.PidFile, os.O_WRONLY|os.O_EXCL|os.O_CREATE, os.ModeExclusive|0600)
		if err != nil {
			if os.IsExist(err) {
				exitwithstatus.Message("%s: another instance is already running", program)
			}
			exitwithstatus.Message("%s: PID file: %q creation failed, error: %s", program, theConfiguration.PidFile, err)
		}
		fmt.Fprintf(lockFile, "%d\n", os.Getpid())
		lockFile.Close()
		defer os.Remove(theConfiguration.PidFile)
	}

	// start a profiling http server
	// this uses the default builtin HTTP handler
	// and is not associated with the maintenance server
	if "" != theConfiguration.ProfileHTTP {
		go func() {
			log.Warnf("profile listener on: %s", theConfiguration.ProfileHTTP)
			err := http.ListenAndServe(theConfiguration.ProfileHTTP, nil)
			exitwithstatus.Message("profile error: %s", err)
		}()
	}

	log.Infof("database: %q", theConfiguration.Database.Name)
	log.Infof("gateway: %q", theConfiguration.Ledger.Gateway)
	log.Debugf("%s = %#v", "Sync", theConfiguration.Sync)
	log.Debugf("%s = %#v", "Peering", theConfiguration.Peering)
	log.Debugf("%s = %#v", "Replication", theConfiguration.Replication)

	if err := metrics.Register(prometheus.DefaultRegisterer); nil != err {
		log.Criticalf("metrics register error: %s", err)
		exitwithstatus.Message("metrics register error: %s", err)
	}

	// start the index store
	log.Info("initialise storage")
	store, err := storage.Open(theConfiguration.Database.Name, storage.Options{
		BroadCacheTTL:  mustDuration(theConfiguration.Database.BroadCacheTTL),
		BroadScanLimit: theConfiguration.Database.BroadScanLimit,
	})
	if nil != err {
		log.Criticalf("storage initialise error: %s", err)
		exitwithstatus.Message("storage initialise error: %s", err)
	}
	defer store.Close()

	resolver, err := template.NewResolver(store, theConfiguration.Sync.TemplateCacheSize)
	if nil != err {
		log.Criticalf("template resolver error: %s", err)
		exitwithstatus.Message("template resolver error: %s", err)
	}

	identity, err := gun.LoadIdentity(theConfiguration.IdentityFile)
	if nil != err {
		log.Criticalf("identity: %q error: %s", theConfiguration.IdentityFile, err)
		exitwithstatus.Message("identity: %q error: %s", theConfiguration.IdentityFile, err)
	}
	log.Infof("identity: %s", identity.ID())

	policy := deletion.NewPolicy(theConfiguration.Deletion.Privileged, nil)
	deletions := deletion.New(store, resolver, policy)

	// ledger synchroniser
	l := theConfiguration.Ledger
	client := ledger.NewArweave(
		l.Gateway,
		ledger.WithCallTimeout(mustDuration(l.CallTimeout)),
		ledger.WithRateLimit(l.RequestsPerSecond),
		ledger.WithRetries(l.Retries),
		ledger.WithPageSize(l.PageSize),
		ledger.WithMaximumTransactions(l.MaximumTransactions),
		ledger.WithMaximumDataSize(l.MaximumDataSize),
	)
	s := theConfiguration.Sync
	engine := ledgersync.New(client, store, resolver, deletions, ledgersync.Options{
		Interval:           mustDuration(s.Interval),
		StartBlock:         s.StartBlock,
		Workers:            s.Workers,
		ResolveDepth:       s.ResolveDepth,
		ForceRefreshCycles: s.ForceRefreshCycles,
		DeferredLimit:      s.DeferredLimit,
	})

	processes := background.Processes{engine}

	node := &maintenance.Node{
		Log:       logger.New("maintenance"),
		Version:   version,
		Start:     time.Now(),
		Index:     store,
		Templates: resolver,
		Ledger:    engine,
		Deleter: maintenance.LocalDeleter{
			Applier: deletions,
			Signer:  identity.ID(),
		},
	}

	// peer store synchroniser, only with relays configured
	if 0 == len(theConfiguration.Gun.Relays) {
		log.Warn("no gun relays configured: peer store disabled")
	} else {
		orchestrator := initialisePeerStore(log, theConfiguration, store, identity, deletions)
		defer orchestrator.Stop()

		node.Peers = orchestrator
		node.Deleter = orchestrator

		if p := initialiseDomain(log, theConfiguration.Peering.Nodes, orchestrator.Registry()); nil != p {
			processes = append(processes, p)
		}
		orchestrator.Start()
	}

	// maintenance surface
	allow, err := maintenance.ParseAllow(theConfiguration.Maintenance.Allow)
	if nil != err {
		log.Criticalf("maintenance allow error: %s", err)
		exitwithstatus.Message("maintenance allow error: %s", err)
	}
	var limiter *rate.Limiter
	if rps := theConfiguration.Maintenance.RequestsPerSecond; rps > 0 {
		limiter = rate.NewLimiter(rate.Limit(rps), int(rps)+1)
	}
	handler := maintenance.NewHandler(node.Log, node, allow, limiter, prometheus.DefaultGatherer)

	server, err := maintenance.NewServer(&theConfiguration.Maintenance, node.Log, handler)
	if nil != err {
		log.Criticalf("maintenance server error: %s", err)
		exitwithstatus.Message("maintenance server error: %s", err)
	}
	if nil != server {
		processes = append(processes, server)
	}

	trigger, err := maintenance.NewTrigger(theConfiguration.Maintenance.TriggerDirectory, node.Log, node)
	if nil != err {
		log.Criticalf("maintenance trigger error: %s", err)
		exitwithstatus.Message("maintenance trigger error: %s", err)
	}
	processes = append(processes, trigger)

	// stopped before the deferred store close
	p := background.Start(processes, nil)
	defer p.Stop()

	// if memory logging enabled
	if len(options["memory-stats"]) > 0 {
		go memstats()
	}

	// wait for CTRL-C before shutting down to allow manual testing
	if 0 == len(options["quiet"]) {
		fmt.Printf("\n\nWaiting for CTRL-C (SIGINT) or 'kill <pid>' (SIGTERM)…")
	}

	// turn Signals into channel messages
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	sig := <-ch
	log.Infof("received signal: %v", sig)
	if 0 == len(options["quiet"]) {
		fmt.Printf("\nreceived signal: %v\n", sig)
		fmt.Printf("\nshutting down…\n")
	}

	log.Info("shutting down…")
}

// create the peer store client, restore the registry and build the
// orchestrator; exits on any error
func initialisePeerStore(log *logger.L, theConfiguration *Configuration, store *storage.Store, identity *gun.Identity, deletions *deletion.Applier) *gunsync.Orchestrator {
	g := theConfiguration.Gun
	callTimeout := mustDuration(g.CallTimeout)

	gunOptions := []gun.Option{gun.WithCallTimeout(callTimeout)}
	if "" != g.EncryptionPassphrase {
		encryptor, err := gun.NewEncryptor(g.EncryptionPassphrase, g.EncryptionSalt)
		if nil != err {
			log.Criticalf("gun encryption error: %s", err)
			exitwithstatus.Message("gun encryption error: %s", err)
		}
		gunOptions = append(gunOptions, gun.WithEncryptor(encryptor))
	}

	peers, err := gun.New(g.Relays, gunOptions...)
	if nil != err {
		log.Criticalf("gun initialise error: %s", err)
		exitwithstatus.Message("gun initialise error: %s", err)
	}

	// remote relays only carry already signed payloads
	dial := func(address string) (gunsync.PeerStore, error) {
		return gun.New([]string{address}, gun.WithCallTimeout(callTimeout))
	}

	pc := theConfiguration.Peering
	registry := announce.New(identity.ID(), mustDuration(pc.StaleAfter), mustDuration(pc.EvictAfter))
	if err := registry.Restore(theConfiguration.PeerFile); nil != err {
		log.Warnf("peer file: %q restore error: %s", theConfiguration.PeerFile, err)
	}

	rc := theConfiguration.Replication
	orchestrator, err := gunsync.New(store, peers, dial, identity, registry, deletions,
		replication.Options{
			ReplicationFactor: rc.ReplicationFactor,
			MaxTransfers:      rc.MaxTransfers,
			MaxAttempts:       rc.MaxAttempts,
			MaxJobs:           rc.MaxJobs,
			Backoff:           mustDuration(rc.Backoff),
			MaxBackoff:        mustDuration(rc.MaxBackoff),
		},
		gunsync.Options{
			Address:             pc.Address,
			RegistrySoul:        pc.RegistrySoul,
			HeartbeatInterval:   mustDuration(pc.HeartbeatInterval),
			ReplicationInterval: mustDuration(rc.Interval),
			CacheInterval:       mustDuration(pc.CacheInterval),
			MaxAdvertised:       pc.MaxAdvertised,
			PeerFile:            theConfiguration.PeerFile,
		})
	if nil != err {
		log.Criticalf("gunsync initialise error: %s", err)
		exitwithstatus.Message("gunsync initialise error: %s", err)
	}
	return orchestrator
}

// DNS seeding of the peer registry, nil when disabled
func initialiseDomain(log *logger.L, nodes string, registry *announce.Registry) background.Process {
	switch nodes {
	case "", "none":
		log.Info("node domain disabled")
		return nil
	}

	// domain names are complex to validate so just rely on
	// trying to fetch the TXT records for validation
	p, err := domain.New(logger.New("domain"), nodes, registry, net.LookupTXT)
	if nil != err {
		log.Criticalf("node domain: %q error: %s", nodes, err)
		exitwithstatus.Message("node domain: %q error: %s", nodes, err)
	}
	return p
}
