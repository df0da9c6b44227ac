// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package replication

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bitmark-inc/logger"

	"github.com/DevonJames/oip-arweave-indexer-sub000/announce"
	"github.com/DevonJames/oip-arweave-indexer-sub000/fault"
	"github.com/DevonJames/oip-arweave-indexer-sub000/metrics"
)

const (
	replicationLogName = "replication"

	defaultReplicationFactor = 3
	defaultMaxTransfers      = 4
	defaultMaxAttempts       = 5
	defaultMaxJobs           = 1000
	defaultBackoff           = 10 * time.Second
	defaultMaxBackoff        = 10 * time.Minute
)

// Transfer - moves one record between this node and a peer
type Transfer interface {
	Push(ctx context.Context, soul string, peer announce.Peer) error
	Pull(ctx context.Context, soul string, peer announce.Peer) error
}

// Options - replication limits, zero values take defaults
type Options struct {
	ReplicationFactor int
	MaxTransfers      int
	MaxAttempts       int
	MaxJobs           int
	Backoff           time.Duration
	MaxBackoff        time.Duration
}

// Manager - the job table
type Manager struct {
	sync.Mutex
	log      *logger.L
	transfer Transfer
	options  Options
	jobs     map[string]*Job
	now      func() time.Time
}

// New - create a manager
func New(transfer Transfer, options Options) *Manager {
	if options.ReplicationFactor <= 0 {
		options.ReplicationFactor = defaultReplicationFactor
	}
	if options.MaxTransfers <= 0 {
		options.MaxTransfers = defaultMaxTransfers
	}
	if options.MaxAttempts <= 0 {
		options.MaxAttempts = defaultMaxAttempts
	}
	if options.MaxJobs <= 0 {
		options.MaxJobs = defaultMaxJobs
	}
	if options.Backoff <= 0 {
		options.Backoff = defaultBackoff
	}
	if options.MaxBackoff < options.Backoff {
		options.MaxBackoff = defaultMaxBackoff
		if options.MaxBackoff < options.Backoff {
			options.MaxBackoff = options.Backoff
		}
	}
	return &Manager{
		log:      logger.New(replicationLogName),
		transfer: transfer,
		options:  options,
		jobs:     make(map[string]*Job),
		now:      time.Now,
	}
}

// Plan - add the jobs needed to bring records to the replication factor
//
// each map is soul to record timestamp (milliseconds)
//
//   seeded:   records published by this node
//   held:     every record present locally
//   active:   active peers, most recent heartbeat first
//   holdings: records advertised by each peer id
//
// a peer holds a seeded record only if its copy is at least as new; a
// record is pulled when it is missing here or a peer has a newer copy
//
// returns the number of jobs added; when the table is full the jobs
// added so far are kept and ErrTooManyJobs is returned
func (m *Manager) Plan(seeded map[string]int64, held map[string]int64, active []announce.Peer, holdings map[string]map[string]int64) (int, error) {
	m.Lock()
	defer m.Unlock()

	m.pruneLocked(active)

	added := 0
	now := m.now()

	holds := func(peerID string, soul string, timestamp int64) bool {
		t, ok := holdings[peerID][soul]
		return ok && t >= timestamp
	}

	for _, soul := range sortedKeys(seeded) {
		timestamp := seeded[soul]
		count := 0
		for _, peer := range active {
			if holds(peer.ID, soul, timestamp) {
				count += 1
			} else if _, ok := m.jobs[jobKey(Push, soul, peer.ID)]; ok {
				count += 1
			}
		}

	peers:
		for _, peer := range active {
			if count >= m.options.ReplicationFactor {
				break peers
			}
			if holds(peer.ID, soul, timestamp) {
				continue peers
			}
			if _, ok := m.jobs[jobKey(Push, soul, peer.ID)]; ok {
				continue peers
			}
			if err := m.addLocked(Push, soul, peer, now); nil != err {
				return added, err
			}
			added += 1
			count += 1
		}
	}

	for _, peer := range active {
		advertised := holdings[peer.ID]
		for _, soul := range sortedKeys(advertised) {
			if t, ok := held[soul]; ok && t >= advertised[soul] {
				continue
			}
			if _, ok := m.jobs[jobKey(Pull, soul, peer.ID)]; ok {
				continue
			}
			if err := m.addLocked(Pull, soul, peer, now); nil != err {
				return added, err
			}
			added += 1
		}
	}

	if added > 0 {
		m.log.Infof("planned %d jobs, table: %d", added, len(m.jobs))
	}
	return added, nil
}

func sortedKeys(m map[string]int64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (m *Manager) addLocked(direction Direction, soul string, peer announce.Peer, now time.Time) error {
	if len(m.jobs) >= m.options.MaxJobs {
		m.log.Warnf("job table full: %d", len(m.jobs))
		return fmt.Errorf("limit: %d: %w", m.options.MaxJobs, fault.ErrTooManyJobs)
	}
	j := &Job{
		ID:          uuid.New().String(),
		Direction:   direction,
		Soul:        soul,
		PeerID:      peer.ID,
		Address:     peer.Address,
		State:       JobPending,
		Created:     now,
		NextAttempt: now,
	}
	m.jobs[j.key()] = j
	m.log.Debugf("job: %s %s %s peer: %s", j.ID, direction, soul, peer.ID)
	return nil
}

// drop pending jobs whose peer is no longer active
func (m *Manager) pruneLocked(active []announce.Peer) {
	live := make(map[string]struct{}, len(active))
	for _, peer := range active {
		live[peer.ID] = struct{}{}
	}
	for key, j := range m.jobs {
		if JobPending != j.State {
			continue
		}
		if _, ok := live[j.PeerID]; ok {
			continue
		}
		delete(m.jobs, key)
		metrics.ReplicationJobs.WithLabelValues(j.Direction.String(), "dropped").Inc()
		m.log.Debugf("job: %s dropped: peer: %s not active", j.ID, j.PeerID)
	}
}

// Dispatch - run every due job, at most max_transfers at a time, and
// return the number that succeeded
func (m *Manager) Dispatch(ctx context.Context) int {
	due := m.due()
	if 0 == len(due) {
		return 0
	}

	var wg sync.WaitGroup
	var lock sync.Mutex
	succeeded := 0
	slots := make(chan struct{}, m.options.MaxTransfers)

loop:
	for _, j := range due {
		select {
		case slots <- struct{}{}:
		case <-ctx.Done():
			m.release(j)
			continue loop
		}

		wg.Add(1)
		go func(j *Job) {
			defer wg.Done()
			defer func() { <-slots }()

			metrics.ReplicationInFlight.Inc()
			err := m.run(ctx, j)
			metrics.ReplicationInFlight.Dec()

			if m.finish(j, err) {
				lock.Lock()
				succeeded += 1
				lock.Unlock()
			}
		}(j)
	}
	wg.Wait()
	return succeeded
}

func (m *Manager) run(ctx context.Context, j *Job) error {
	peer := announce.Peer{
		ID:      j.PeerID,
		Address: j.Address,
	}
	switch j.Direction {
	case Push:
		return m.transfer.Push(ctx, j.Soul, peer)
	case Pull:
		return m.transfer.Pull(ctx, j.Soul, peer)
	default:
		return fault.ErrInvalidCount
	}
}

// take the due jobs, oldest first, and mark them running
func (m *Manager) due() []*Job {
	m.Lock()
	defer m.Unlock()

	now := m.now()
	list := []*Job{}
	for _, j := range m.jobs {
		if JobPending == j.State && !j.NextAttempt.After(now) {
			list = append(list, j)
		}
	}
	sort.Slice(list, func(i, k int) bool {
		if list[i].Created.Equal(list[k].Created) {
			return list[i].key() < list[k].key()
		}
		return list[i].Created.Before(list[k].Created)
	})
	for _, j := range list {
		j.State = JobRunning
	}
	return list
}

func (m *Manager) release(j *Job) {
	m.Lock()
	defer m.Unlock()
	j.State = JobPending
}

// record a result, returns true on success
func (m *Manager) finish(j *Job, err error) bool {
	m.Lock()
	defer m.Unlock()

	direction := j.Direction.String()
	if nil == err {
		delete(m.jobs, j.key())
		metrics.ReplicationJobs.WithLabelValues(direction, "done").Inc()
		m.log.Debugf("job: %s %s %s peer: %s done", j.ID, direction, j.Soul, j.PeerID)
		return true
	}

	j.Attempts += 1
	j.LastError = err.Error()
	if j.Attempts >= m.options.MaxAttempts {
		delete(m.jobs, j.key())
		metrics.ReplicationJobs.WithLabelValues(direction, "abandoned").Inc()
		m.log.Warnf("job: %s %s %s peer: %s abandoned after %d attempts: %s", j.ID, direction, j.Soul, j.PeerID, j.Attempts, err)
		return false
	}

	j.State = JobPending
	j.NextAttempt = m.now().Add(m.backoff(j.Attempts))
	metrics.ReplicationJobs.WithLabelValues(direction, "retry").Inc()
	m.log.Debugf("job: %s attempt: %d failed: %s", j.ID, j.Attempts, err)
	return false
}

// delay before the next attempt, doubling per failure
func (m *Manager) backoff(attempts int) time.Duration {
	d := m.options.Backoff
	for i := 1; i < attempts; i += 1 {
		d *= 2
		if d >= m.options.MaxBackoff {
			return m.options.MaxBackoff
		}
	}
	return d
}

// Jobs - copy of the job table, oldest first
func (m *Manager) Jobs() []Job {
	m.Lock()
	defer m.Unlock()

	list := make([]Job, 0, len(m.jobs))
	for _, j := range m.jobs {
		list = append(list, *j)
	}
	sort.Slice(list, func(i, k int) bool {
		if list[i].Created.Equal(list[k].Created) {
			return list[i].key() < list[k].key()
		}
		return list[i].Created.Before(list[k].Created)
	})
	return list
}

// Len - number of open jobs
func (m *Manager) Len() int {
	m.Lock()
	defer m.Unlock()
	return len(m.jobs)
}
