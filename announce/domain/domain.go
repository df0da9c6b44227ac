// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package domain - seed peers published as DNS TXT records
package domain

import (
	"net"
	"time"

	"github.com/miekg/dns"

	"github.com/bitmark-inc/logger"

	"github.com/DevonJames/oip-arweave-indexer-sub000/background"
)

const (
	timeInterval = 1 * time.Hour // time interval for re-fetching nodes domain
	configFile   = "/etc/resolv.conf"
)

// Seeder - where seeds are added
type Seeder interface {
	AddSeed(id string, address string)
}

type domain struct {
	log        *logger.L
	domainName string
	seeder     Seeder
	lookuper   Lookuper
}

// Run - background processing interface
func (d *domain) Run(_ interface{}, shutdown <-chan struct{}) {
	d.log.Info("starting…")
	timer := time.After(interval(d.domainName, d.log))

loop:
	for {
		select {
		case <-timer:
			timer = time.After(interval(d.domainName, d.log))
			txts, err := d.lookuper.Lookup(d.domainName)
			if nil != err {
				continue loop
			}

			addTXTs(txts, d.log, d.seeder)

		case <-shutdown:
			break loop
		}
	}
	d.log.Info("stopped")
}

// get interval time for lookup node domain txt record
func interval(domain string, log *logger.L) time.Duration {
	t := timeInterval
	var servers []string // dns name server

	// reading default configuration file
	conf, err := dns.ClientConfigFromFile(configFile)

	if nil != err {
		log.Warnf("reading %s error: %s", configFile, err)
		goto done
	}

	if 0 == len(conf.Servers) {
		log.Warnf("cannot get dns name server")
		goto done
	}

	servers = conf.Servers
	// limit the nameservers to lookup
	// https://www.freebsd.org/cgi/man.cgi?resolv.conf
	if len(servers) > 3 {
		servers = servers[:3]
	}

loop:
	for _, server := range servers {

		s := net.JoinHostPort(server, conf.Port)
		c := dns.Client{}
		msg := dns.Msg{}
		msg.SetQuestion(dns.Fqdn(domain), dns.TypeSOA)

		r, _, err := c.Exchange(&msg, s)
		if nil != err {
			log.Debugf("exchange with dns server %q error: %s", s, err)
			continue loop
		}

		if 0 == len(r.Ns) && 0 == len(r.Answer) && 0 == len(r.Extra) {
			log.Debugf("no resource record found by dns server %q", s)
			continue loop
		}

		sections := [][]dns.RR{r.Answer, r.Ns, r.Extra}

		for _, section := range sections {
			ttl := ttl(section)
			if 0 < ttl {
				log.Infof("got TTL record from server %q value %d", s, ttl)
				ttlSec := time.Duration(ttl) * time.Second
				if timeInterval > ttlSec {
					t = ttlSec
					break loop
				}
			}
		}
	}

done:
	log.Infof("time to re-fetching node domain: %v", t)
	return t
}

// get TTL record from a resource record, SOA preferred
func ttl(rrs []dns.RR) uint32 {
	if 0 == len(rrs) {
		return 0
	}
	for _, rr := range rrs {
		if soa, ok := rr.(*dns.SOA); ok {
			return soa.Hdr.Ttl
		}
	}
	return rrs[0].Header().Ttl
}

// New - look up the seeds once and return the refresh process
func New(log *logger.L, domainName string, seeder Seeder, f func(string) ([]string, error)) (background.Process, error) {
	log.Info("initialising…")

	d := &domain{
		log:        log,
		domainName: domainName,
		seeder:     seeder,
		lookuper:   NewLookuper(log, f),
	}

	txts, err := d.lookuper.Lookup(d.domainName)
	if nil != err {
		return nil, err
	}

	addTXTs(txts, log, seeder)

	return d, nil
}

func addTXTs(txts []DnsTXT, log *logger.L, seeder Seeder) {
	for i, t := range txts {
		log.Infof("result[%d]: adding: %s at: %s", i, t.ID, t.Address)
		seeder.AddSeed(t.ID, t.Address)
	}
}
