// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package gunsync

// Status - summary for the maintenance endpoint
type Status struct {
	Identity string         `json:"identity"`
	Address  string         `json:"address,omitempty"`
	Running  bool           `json:"running"`
	Peers    map[string]int `json:"peers"`
	Jobs     int            `json:"replicationJobs"`
	Pools    map[string]int `json:"pools"`
}

// Status - snapshot of the registry, job table and pools
func (o *Orchestrator) Status() Status {
	o.Lock()
	running := nil != o.processes
	o.Unlock()

	return Status{
		Identity: o.identity.ID(),
		Address:  o.options.Address,
		Running:  running,
		Peers:    o.registry.Counts(),
		Jobs:     o.replication.Len(),
		Pools:    o.pools.Sizes(),
	}
}
