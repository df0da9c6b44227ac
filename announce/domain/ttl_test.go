// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package domain

import (
	"testing"

	"github.com/miekg/dns"
	"github.com/stretchr/testify/assert"
)

func TestTTL(t *testing.T) {
	txt := &dns.TXT{Hdr: dns.RR_Header{Name: "seeds.example.com.", Rrtype: dns.TypeTXT, Ttl: 600}}
	soa := &dns.SOA{Hdr: dns.RR_Header{Name: "example.com.", Rrtype: dns.TypeSOA, Ttl: 300}}

	assert.Equal(t, uint32(0), ttl(nil), "empty section")
	assert.Equal(t, uint32(600), ttl([]dns.RR{txt}), "record ttl")
	assert.Equal(t, uint32(300), ttl([]dns.RR{txt, soa}), "soa preferred")
}
