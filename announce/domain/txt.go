// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package domain

import (
	"net/url"
	"strings"

	"github.com/DevonJames/oip-arweave-indexer-sub000/fault"
)

var supportedTags = map[string]struct{}{
	"oip=v1": {},
}

const maximumIDLength = 64

// DnsTXT - a decoded seed record
type DnsTXT struct {
	ID      string
	Address string
}

// Parse - decode DNS TXT records of this form
//
//   <TAG> id=<NODE-ID> a=<ws://HOST:PORT/gun or wss://...>
//
// other combinations or extraneous items are rejected
func Parse(s string) (*DnsTXT, error) {

	t := &DnsTXT{}

	countA := 0
	countID := 0

words:
	for i, w := range strings.Split(strings.TrimSpace(s), " ") {

		if 0 == i {
			if _, ok := supportedTags[w]; ok {
				continue words
			}
			return nil, fault.ErrInvalidDnsTxtRecord
		}

		// ignore empty
		if "" == w {
			continue words
		}

		n := strings.IndexByte(w, '=')
		if n < 1 || n == len(w)-1 {
			return nil, fault.ErrInvalidDnsTxtRecord
		}

		parameter := w[n+1:]
		switch w[:n] {
		case "a":
			u, err := url.Parse(parameter)
			if nil != err || "" == u.Host || ("ws" != u.Scheme && "wss" != u.Scheme) {
				return nil, fault.ErrInvalidDnsTxtRecord
			}
			t.Address = parameter
			countA += 1
		case "id":
			if len(parameter) > maximumIDLength {
				return nil, fault.ErrInvalidDnsTxtRecord
			}
			t.ID = parameter
			countID += 1
		default:
			return nil, fault.ErrInvalidDnsTxtRecord
		}
	}

	// ensure that there is only one each of the required items
	if 1 != countA || 1 != countID {
		return nil, fault.ErrInvalidDnsTxtRecord
	}

	return t, nil
}

// Format - encode a TXT record that Parse accepts
func Format(id string, address string) string {
	return "oip=v1 id=" + id + " a=" + address
}
