// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package metrics - prometheus collectors shared by the synchronisers
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "oipd"

// ledger synchronisation
var (
	SyncCycles = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "ledgersync",
		Name:      "cycles_total",
		Help:      "sync cycles by result",
	}, []string{"result"})

	SyncRecords = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "ledgersync",
		Name:      "records_total",
		Help:      "ledger transactions by outcome",
	}, []string{"outcome"})

	SyncCursor = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "ledgersync",
		Name:      "cursor",
		Help:      "highest ledger height applied to the index",
	})

	LedgerHeight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "ledgersync",
		Name:      "ledger_height",
		Help:      "last seen ledger height",
	})

	CycleDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "ledgersync",
		Name:      "cycle_seconds",
		Help:      "duration of completed sync cycles",
		Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
	})
)

// deletions from both stores
var Deletions = prometheus.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Name:      "deletions_total",
	Help:      "deletion messages by origin and outcome",
}, []string{"origin", "outcome"})

// peer store synchronisation
var (
	Peers = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "gunsync",
		Name:      "peers",
		Help:      "registered peers by state",
	}, []string{"state"})

	PeerRecords = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "gunsync",
		Name:      "records_total",
		Help:      "peer store records by outcome",
	}, []string{"outcome"})

	ReplicationJobs = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "replication",
		Name:      "jobs_total",
		Help:      "replication jobs by direction and result",
	}, []string{"direction", "result"})

	ReplicationInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "replication",
		Name:      "in_flight",
		Help:      "transfers currently running",
	})

	CacheClears = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cache_clears_total",
		Help:      "cache clears by trigger",
	}, []string{"trigger"})
)

// maintenance endpoint
var MaintenanceRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "maintenance",
	Name:      "requests_total",
	Help:      "maintenance requests by endpoint and status code",
}, []string{"endpoint", "code"})

// Collectors - everything above
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		SyncCycles,
		SyncRecords,
		SyncCursor,
		LedgerHeight,
		CycleDuration,
		Deletions,
		Peers,
		PeerRecords,
		ReplicationJobs,
		ReplicationInFlight,
		CacheClears,
		MaintenanceRequests,
	}
}

// Register - add all collectors to a registry
func Register(registerer prometheus.Registerer) error {
	for _, c := range Collectors() {
		if err := registerer.Register(c); nil != err {
			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				continue
			}
			return err
		}
	}
	return nil
}
