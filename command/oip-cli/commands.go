// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"strings"

	"github.com/urfave/cli"

	"github.com/DevonJames/oip-arweave-indexer-sub000/deletion"
	"github.com/DevonJames/oip-arweave-indexer-sub000/fault"
)

func runStatus(c *cli.Context) error {
	m := c.App.Metadata["config"].(*metadata)

	reply, err := m.client.Status()
	if nil != err {
		return err
	}
	return printJson(m.w, reply)
}

func runClearCache(c *cli.Context) error {
	m := c.App.Metadata["config"].(*metadata)

	reply, err := m.client.ClearCaches()
	if nil != err {
		return err
	}
	return printJson(m.w, reply)
}

func runRefresh(c *cli.Context) error {
	m := c.App.Metadata["config"].(*metadata)

	reply, err := m.client.Refresh()
	if nil != err {
		return err
	}
	return printJson(m.w, reply)
}

func runRemap(c *cli.Context) error {
	m := c.App.Metadata["config"].(*metadata)

	templates := []string{}
	for _, t := range c.StringSlice("template") {
		for _, id := range strings.Split(t, ",") {
			if id = strings.TrimSpace(id); "" != id {
				templates = append(templates, id)
			}
		}
	}
	if 0 == len(templates) {
		return fmt.Errorf("template: %s", fault.ErrMissingParameters)
	}

	if m.verbose {
		fmt.Fprintf(m.e, "templates: %v\n", templates)
	}

	reply, err := m.client.Remap(templates)
	if nil != err {
		return err
	}
	return printJson(m.w, reply)
}

func runDelete(c *cli.Context) error {
	m := c.App.Metadata["config"].(*metadata)

	did := strings.TrimSpace(c.String("did"))
	if "" == did {
		return fmt.Errorf("did: %s", fault.ErrMissingParameters)
	}

	reply, err := m.client.Delete(did)
	if nil != err {
		return err
	}
	if err := printJson(m.w, reply); nil != err {
		return err
	}

	if deletion.OutcomeDeleted.String() != reply.Outcome {
		return fmt.Errorf("record: %s not deleted: %s", did, reply.Outcome)
	}
	return nil
}

func runMetrics(c *cli.Context) error {
	m := c.App.Metadata["config"].(*metadata)

	text, err := m.client.Metrics()
	if nil != err {
		return err
	}
	fmt.Fprint(m.w, text)
	return nil
}
