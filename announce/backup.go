// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package announce

import (
	"io/ioutil"
	"os"
	"sort"

	"github.com/goccy/go-json"
)

// Backup - store all peers into a peer file
func (r *Registry) Backup(peerFile string) error {
	r.RLock()
	list := make([]Peer, 0, len(r.peers))
	for _, p := range r.peers {
		list = append(list, *p)
	}
	r.RUnlock()

	if 0 == len(list) {
		r.log.Info("no need to backup: no peers")
		return nil
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].ID < list[j].ID
	})

	data, err := json.MarshalIndent(list, "", "  ")
	if nil != err {
		return err
	}
	err = ioutil.WriteFile(peerFile, data, 0600)
	if nil != err {
		r.log.Errorf("failed to write peers to: %q  error: %s", peerFile, err)
		return err
	}
	r.log.Infof("backed up %d peers to: %q", len(list), peerFile)
	return nil
}

// Restore - add peers from a peer file, a missing file is not an error
//
// heartbeat times are kept so peers that went away while this node was
// down are swept normally
func (r *Registry) Restore(peerFile string) error {
	data, err := ioutil.ReadFile(peerFile)
	if nil != err {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	var list []Peer
	err = json.Unmarshal(data, &list)
	if nil != err {
		return err
	}

	n := 0
	for _, p := range list {
		if p.LastSeen.IsZero() {
			r.AddSeed(p.ID, p.Address)
			n += 1
			continue
		}
		state, err := r.Heartbeat(p.ID, p.Address, p.LastSeen)
		if nil != err {
			r.log.Debugf("restore: ignore peer: %q  error: %s", p.ID, err)
			continue
		}
		if StateUnknown != state {
			n += 1
		}
	}
	r.log.Infof("restored %d of %d peers from: %q", n, len(list), peerFile)
	return nil
}
