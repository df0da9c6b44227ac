// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package announce

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bitmark-inc/logger"

	"github.com/DevonJames/oip-arweave-indexer-sub000/fault"
	"github.com/DevonJames/oip-arweave-indexer-sub000/metrics"
)

const (
	announceLogName = "announce"

	defaultStaleAfter = 2 * time.Minute
	defaultEvictAfter = 10 * time.Minute
)

// State - liveness of a peer
type State int

// peer states
const (
	StateUnknown State = iota
	StateActive
	StateStale
	StateEvicted
)

func (s State) String() string {
	switch s {
	case StateUnknown:
		return "unknown"
	case StateActive:
		return "active"
	case StateStale:
		return "stale"
	case StateEvicted:
		return "evicted"
	default:
		return "*unknown*"
	}
}

// Peer - one registered node
type Peer struct {
	ID       string    `json:"id"`
	Address  string    `json:"address"`
	LastSeen time.Time `json:"lastSeen"`
	Seed     bool      `json:"seed,omitempty"`
	State    State     `json:"-"`
}

// Registry - peers keyed by id
type Registry struct {
	sync.RWMutex
	log        *logger.L
	self       string
	staleAfter time.Duration
	evictAfter time.Duration
	peers      map[string]*Peer
	now        func() time.Time
}

// New - create a registry, heartbeats from self are ignored
func New(self string, staleAfter time.Duration, evictAfter time.Duration) *Registry {
	if staleAfter <= 0 {
		staleAfter = defaultStaleAfter
	}
	if evictAfter <= staleAfter {
		evictAfter = staleAfter + defaultEvictAfter
	}
	return &Registry{
		log:        logger.New(announceLogName),
		self:       self,
		staleAfter: staleAfter,
		evictAfter: evictAfter,
		peers:      make(map[string]*Peer),
		now:        time.Now,
	}
}

// Self - id of this node
func (r *Registry) Self() string {
	return r.self
}

func (r *Registry) stateFor(lastSeen time.Time, now time.Time) State {
	age := now.Sub(lastSeen)
	switch {
	case age < r.staleAfter:
		return StateActive
	case age < r.evictAfter:
		return StateStale
	default:
		return StateEvicted
	}
}

// Heartbeat - record a heartbeat published at a given time
//
// a heartbeat no newer than the one held changes nothing; one older
// than evict_after from an unregistered peer is ignored
func (r *Registry) Heartbeat(id string, address string, at time.Time) (State, error) {
	id = strings.TrimSpace(id)
	address = strings.TrimSpace(address)
	if "" == id || "" == address || at.IsZero() {
		return StateUnknown, fault.ErrInvalidHeartbeat
	}
	if id == r.self {
		return StateActive, nil
	}

	r.Lock()
	defer r.Unlock()

	state := r.stateFor(at, r.now())

	p, ok := r.peers[id]
	if !ok {
		if StateEvicted == state {
			return StateUnknown, nil
		}
		r.peers[id] = &Peer{
			ID:       id,
			Address:  address,
			LastSeen: at,
			State:    state,
		}
		r.log.Infof("new peer: %s at: %s state: %s", id, address, state)
		return state, nil
	}

	if at.After(p.LastSeen) {
		if p.State != state {
			r.log.Debugf("peer: %s state: %s -> %s", id, p.State, state)
		}
		p.LastSeen = at
		p.Address = address
		p.State = state
	}
	return p.State, nil
}

// AddSeed - a peer known only by address, it stays unknown until its
// first heartbeat and is never swept while unknown
func (r *Registry) AddSeed(id string, address string) {
	if "" == id || "" == address || id == r.self {
		return
	}

	r.Lock()
	defer r.Unlock()

	if _, ok := r.peers[id]; ok {
		return
	}
	r.peers[id] = &Peer{
		ID:      id,
		Address: address,
		Seed:    true,
		State:   StateUnknown,
	}
	r.log.Infof("seed peer: %s at: %s", id, address)
}

// Sweep - age every peer, returns the ids forgotten by this sweep
func (r *Registry) Sweep() []string {
	r.Lock()
	defer r.Unlock()

	now := r.now()
	evicted := []string{}
	for id, p := range r.peers {
		if StateUnknown == p.State {
			continue
		}
		state := r.stateFor(p.LastSeen, now)
		if state == p.State {
			continue
		}
		r.log.Debugf("peer: %s state: %s -> %s", id, p.State, state)
		p.State = state
		if StateEvicted == state {
			delete(r.peers, id)
			evicted = append(evicted, id)
			r.log.Infof("evicted peer: %s last seen: %s", id, p.LastSeen.Format(time.RFC3339))
		}
	}
	r.countsLocked()
	sort.Strings(evicted)
	return evicted
}

// Active - active peers, most recent heartbeat first
func (r *Registry) Active() []Peer {
	r.RLock()
	defer r.RUnlock()

	list := make([]Peer, 0, len(r.peers))
	for _, p := range r.peers {
		if StateActive == p.State {
			list = append(list, *p)
		}
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].LastSeen.Equal(list[j].LastSeen) {
			return list[i].ID < list[j].ID
		}
		return list[i].LastSeen.After(list[j].LastSeen)
	})
	return list
}

// State - state of a peer, unknown if not registered
func (r *Registry) State(id string) State {
	r.RLock()
	defer r.RUnlock()

	p, ok := r.peers[id]
	if !ok {
		return StateUnknown
	}
	return p.State
}

// Get - a copy of a registered peer
func (r *Registry) Get(id string) (Peer, error) {
	r.RLock()
	defer r.RUnlock()

	p, ok := r.peers[id]
	if !ok {
		return Peer{}, fmt.Errorf("peer: %s: %w", id, fault.ErrPeerNotFound)
	}
	return *p, nil
}

// Addresses - distinct relay addresses of active and seed peers
func (r *Registry) Addresses() []string {
	r.RLock()
	defer r.RUnlock()

	seen := make(map[string]struct{})
	list := []string{}
	for _, p := range r.peers {
		if StateActive != p.State && StateUnknown != p.State {
			continue
		}
		if _, ok := seen[p.Address]; ok {
			continue
		}
		seen[p.Address] = struct{}{}
		list = append(list, p.Address)
	}
	sort.Strings(list)
	return list
}

// Counts - number of peers in each state
func (r *Registry) Counts() map[string]int {
	r.RLock()
	defer r.RUnlock()

	return r.countsLocked()
}

func (r *Registry) countsLocked() map[string]int {
	counts := map[string]int{
		StateUnknown.String(): 0,
		StateActive.String():  0,
		StateStale.String():   0,
	}
	for _, p := range r.peers {
		counts[p.State.String()] += 1
	}
	for state, n := range counts {
		metrics.Peers.WithLabelValues(state).Set(float64(n))
	}
	return counts
}
