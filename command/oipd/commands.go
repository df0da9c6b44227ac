// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"

	"github.com/bitmark-inc/exitwithstatus"

	"github.com/DevonJames/oip-arweave-indexer-sub000/announce/domain"
	"github.com/DevonJames/oip-arweave-indexer-sub000/gun"
)

// setup command handler
//
// commands that run to create the identity file; these commands
// cannot access any internal database or states or the configuration
// file
func processSetupCommand(program string, arguments []string) bool {

	command := "help"
	if len(arguments) > 0 {
		command = arguments[0]
		arguments = arguments[1:]
	}

	switch command {
	case "gen-identity", "identity":
		fileName := getFilenameWithDirectory(arguments, defaultIdentityFile)

		if _, err := os.Stat(fileName); nil == err {
			fmt.Printf("generate identity: %q error: file already exists\n", fileName)
			exitwithstatus.Exit(1)
		}

		identity, err := gun.LoadIdentity(fileName)
		if nil != err {
			fmt.Printf("generate identity: %q error: %s\n", fileName, err)
			exitwithstatus.Exit(1)
		}
		fmt.Printf("generated identity: %q\n", fileName)
		fmt.Printf("node id: %s\n", identity.ID())

	case "dns-txt", "txt":
		return false // defer processing until configuration is read

	case "start", "run":
		return false // continue processing

	case "config-test", "cfg":
		return false

	case "version", "v":
		fmt.Printf("%s\n", version)
		return true

	default:
		switch command {
		case "help", "h", "?":
		case "", " ":
			fmt.Printf("error: missing command\n")
		default:
			fmt.Printf("error: no such command: %q\n", command)
		}
		fmt.Printf("usage: %s [--help] [--verbose] [--quiet] --config-file=FILE [[command|help] arguments...]\n", program)

		fmt.Printf("supported commands:\n\n")
		fmt.Printf("  help                       (h)        - display this message\n\n")
		fmt.Printf("  version                    (v)        - display version string\n\n")

		fmt.Printf("  gen-identity [DIR]         (identity) - create node identity in: %q\n", "DIR/"+defaultIdentityFile)
		fmt.Printf("\n")

		fmt.Printf("  dns-txt                    (txt)      - display the data to put in a dns TXT record\n")
		fmt.Printf("\n")

		fmt.Printf("  start                      (run)      - just run the program, same as no arguments\n")
		fmt.Printf("                                          for convenience when passing script arguments\n")
		fmt.Printf("\n")

		fmt.Printf("  config-test                (cfg)      - just check the configuration file\n")
		fmt.Printf("\n")

		exitwithstatus.Exit(1)
	}

	// indicate processing complete and preform normal exit from main
	return true
}

// configuration file enquiry commands
// have configuration file read and decoded, but nothing else
func processConfigCommand(arguments []string, options *Configuration) bool {

	command := "help"
	if len(arguments) > 0 {
		command = arguments[0]
	}

	switch command {
	case "dns-txt", "txt":
		dnsTXT(options)

	case "config-test", "cfg":
		b, err := json.MarshalIndent(options, "", "  ")
		if err != nil {
			exitwithstatus.Message("error: %s", err)
		}
		os.Stdout.Write(b)
		os.Stdout.WriteString("\n")

	default: // unknown commands fall through to the daemon
		return false
	}

	// indicate processing complete and perform normal exit from main
	return true
}

// print the TXT record announcing this node in a node domain
func dnsTXT(options *Configuration) {
	if "" == options.Peering.Address {
		exitwithstatus.Message("error: no peering address configured")
	}

	identity, err := gun.LoadIdentity(options.IdentityFile)
	if nil != err {
		exitwithstatus.Message("error: identity: %q  error: %s", options.IdentityFile, err)
	}

	txt := domain.Format(identity.ID(), options.Peering.Address)
	if _, err := domain.Parse(txt); nil != err {
		exitwithstatus.Message("error: address: %q  error: %s", options.Peering.Address, err)
	}

	fmt.Printf("node id:  %s\n", identity.ID())
	fmt.Printf("address:  %s\n", options.Peering.Address)
	fmt.Printf("TXT:      %q\n", txt)
}

// get the working directory; if not set in the arguments
// it's set to the current directory
func getFilenameWithDirectory(arguments []string, name string) string {
	dir := "."
	if len(arguments) >= 1 {
		dir = arguments[0]
	}

	return filepath.Join(dir, name)
}
