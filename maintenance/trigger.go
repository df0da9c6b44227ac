// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package maintenance

import (
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/bitmark-inc/logger"
)

// TriggerFileName - creating or writing this file in the watched
// directory clears all caches; the file is removed afterwards
const TriggerFileName = "clear-cache"

// Trigger - background process watching for the trigger file
type Trigger struct {
	log      *logger.L
	node     *Node
	watcher  *fsnotify.Watcher
	filePath string
}

// NewTrigger - watch directory for the trigger file
func NewTrigger(directory string, log *logger.L, node *Node) (*Trigger, error) {
	directory, err := filepath.Abs(filepath.Clean(directory))
	if nil != err {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if nil != err {
		log.Errorf("new watcher error: %s", err)
		return nil, err
	}
	if err := watcher.Add(directory); nil != err {
		log.Errorf("watch: %q error: %s", directory, err)
		watcher.Close()
		return nil, err
	}

	return &Trigger{
		log:      log,
		node:     node,
		watcher:  watcher,
		filePath: filepath.Join(directory, TriggerFileName),
	}, nil
}

// Run - background process interface
func (t *Trigger) Run(args interface{}, shutdown <-chan struct{}) {
	log := t.log
	defer t.watcher.Close()

	log.Infof("watching for: %q", t.filePath)

	// left behind while stopped
	if _, err := os.Stat(t.filePath); nil == err {
		t.fire()
	}

loop:
	for {
		select {
		case <-shutdown:
			break loop
		case event, ok := <-t.watcher.Events:
			if !ok {
				break loop
			}
			if filepath.Clean(event.Name) != t.filePath {
				continue loop
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				log.Debugf("file event: %v", event)
				t.fire()
			}
		case err, ok := <-t.watcher.Errors:
			if !ok {
				break loop
			}
			log.Warnf("watcher error: %s", err)
		}
	}

	log.Info("trigger stopped")
}

func (t *Trigger) fire() {
	if err := os.Remove(t.filePath); nil != err {
		// already handled by an earlier event
		if os.IsNotExist(err) {
			return
		}
		t.log.Warnf("remove: %q error: %s", t.filePath, err)
	}
	t.node.ClearCaches("trigger")
}
