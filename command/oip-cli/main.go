// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/urfave/cli"

	"github.com/DevonJames/oip-arweave-indexer-sub000/command/oip-cli/calls"
)

type metadata struct {
	client  *calls.Client
	verbose bool
	e       io.Writer
	w       io.Writer
}

// set by the linker: go build -ldflags "-X main.version=M.N" ./...
var version = "zero" // do not change this value

const (
	defaultURL     = "http://127.0.0.1:2180"
	defaultTimeout = 40 * time.Second
)

func main() {
	app := newApp(os.Stdout, os.Stderr)

	err := app.Run(os.Args)
	if nil != err {
		fmt.Fprintf(app.ErrWriter, "terminated with error: %s\n", err)
		os.Exit(1)
	}
}

func newApp(w io.Writer, e io.Writer) *cli.App {

	app := cli.NewApp()
	app.Name = "oip-cli"
	app.Usage = "maintenance commands for a running oipd"
	app.Version = version
	app.HideVersion = true

	app.Writer = w
	app.ErrWriter = e

	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "verbose, v",
			Usage: " verbose result",
		},
		cli.StringFlag{
			Name:   "url, u",
			Value:  defaultURL,
			EnvVar: "OIPD_MAINTENANCE_URL",
			Usage:  " oipd maintenance endpoint `URL`",
		},
		cli.BoolFlag{
			Name:  "insecure, k",
			Usage: " do not verify the TLS certificate of the endpoint",
		},
		cli.DurationFlag{
			Name:  "timeout, t",
			Value: defaultTimeout,
			Usage: " request timeout `DURATION`",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:   "status",
			Usage:  "display oipd status",
			Action: runStatus,
		},
		{
			Name:   "clear-cache",
			Usage:  "clear the template, query and peer caches",
			Action: runClearCache,
		},
		{
			Name:   "refresh",
			Usage:  "start the next ledger cycle with a full rescan",
			Action: runRefresh,
		},
		{
			Name:      "remap",
			Usage:     "re-translate every record created from the templates",
			ArgsUsage: "\n   (* = required)",
			Flags: []cli.Flag{
				cli.StringSliceFlag{
					Name:  "template, T",
					Usage: "*template did or transaction id `ID` [repeatable]",
				},
			},
			Action: runRemap,
		},
		{
			Name:      "delete",
			Usage:     "delete a record as the node identity",
			ArgsUsage: "\n   (* = required)",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "did, d",
					Value: "",
					Usage: "*record `DID`",
				},
			},
			Action: runDelete,
		},
		{
			Name:   "metrics",
			Usage:  "display the prometheus metrics",
			Action: runMetrics,
		},
		{
			Name:  "version",
			Usage: "display oip-cli version",
			Action: func(c *cli.Context) error {
				fmt.Fprintf(c.App.Writer, "%s\n", version)
				return nil
			},
		},
	}

	// connect to the endpoint
	app.Before = func(c *cli.Context) error {

		e := c.App.ErrWriter
		w := c.App.Writer
		verbose := c.GlobalBool("verbose")

		// to suppress connection if certain commands
		command := c.Args().Get(0)
		if "version" == command || "help" == command || "" == command {
			return nil
		}

		endpoint := c.GlobalString("url")
		if verbose {
			fmt.Fprintf(e, "endpoint: %q\n", endpoint)
		}

		client, err := calls.NewClient(endpoint, c.GlobalBool("insecure"), c.GlobalDuration("timeout"), verbose, e)
		if nil != err {
			return fmt.Errorf("url: %q  error: %s", endpoint, err)
		}

		c.App.Metadata["config"] = &metadata{
			client:  client,
			verbose: verbose,
			e:       e,
			w:       w,
		}
		return nil
	}

	app.After = func(c *cli.Context) error {
		m, ok := c.App.Metadata["config"].(*metadata)
		if !ok {
			return nil
		}
		m.client.Close()
		return nil
	}

	return app
}
