// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package replication

import (
	"time"
)

// Direction - which way a record moves
type Direction int

// directions
const (
	Push Direction = iota
	Pull
)

func (d Direction) String() string {
	switch d {
	case Push:
		return "push"
	case Pull:
		return "pull"
	default:
		return "*unknown*"
	}
}

// JobState - progress of a job
type JobState int

// job states, finished jobs leave the table
const (
	JobPending JobState = iota
	JobRunning
)

func (s JobState) String() string {
	switch s {
	case JobPending:
		return "pending"
	case JobRunning:
		return "running"
	default:
		return "*unknown*"
	}
}

// Job - one record transfer with one peer
type Job struct {
	ID          string
	Direction   Direction
	Soul        string
	PeerID      string
	Address     string
	State       JobState
	Attempts    int
	Created     time.Time
	NextAttempt time.Time
	LastError   string
}

func (j *Job) key() string {
	return jobKey(j.Direction, j.Soul, j.PeerID)
}

// a pull is wanted once whichever peer serves it
func jobKey(d Direction, soul string, peerID string) string {
	if Pull == d {
		return "pull:" + soul
	}
	return "push:" + soul + ":" + peerID
}
