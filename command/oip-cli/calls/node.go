// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package calls

import (
	"net/http"
	"net/url"
	"strings"
)

// StatusReply - node status, kept generic so that newer daemons
// can add fields
type StatusReply map[string]interface{}

// ClearReply - number of entries removed from each cache
type ClearReply struct {
	Cleared map[string]int `json:"cleared"`
}

// RefreshReply - refresh accepted
type RefreshReply struct {
	Requested bool `json:"requested"`
}

// RemapReply - templates queued for remapping
type RemapReply struct {
	Templates []string `json:"templates"`
}

// DeleteReply - result of a delete request
type DeleteReply struct {
	DID     string `json:"did"`
	Outcome string `json:"outcome"`
	Error   string `json:"error,omitempty"`
}

// Status - request status from oipd
func (c *Client) Status() (StatusReply, error) {
	body, code, err := c.call(http.MethodGet, "/status", nil)
	if nil != err {
		return nil, err
	}
	var reply StatusReply
	if err := decode(body, code, []int{http.StatusOK}, &reply); nil != err {
		return nil, err
	}
	return reply, nil
}

// ClearCaches - empty every cache of the daemon
func (c *Client) ClearCaches() (*ClearReply, error) {
	body, code, err := c.call(http.MethodPost, "/cache/clear", nil)
	if nil != err {
		return nil, err
	}
	var reply ClearReply
	if err := decode(body, code, []int{http.StatusOK}, &reply); nil != err {
		return nil, err
	}
	return &reply, nil
}

// Refresh - ask for a full rescan on the next ledger cycle
func (c *Client) Refresh() (*RefreshReply, error) {
	body, code, err := c.call(http.MethodPost, "/sync/refresh", nil)
	if nil != err {
		return nil, err
	}
	var reply RefreshReply
	if err := decode(body, code, []int{http.StatusOK}, &reply); nil != err {
		return nil, err
	}
	return &reply, nil
}

// Remap - re-translate every record of the templates
func (c *Client) Remap(templates []string) (*RemapReply, error) {
	parameters := url.Values{}
	for _, t := range templates {
		if t = strings.TrimSpace(t); "" != t {
			parameters.Add("template", t)
		}
	}

	body, code, err := c.call(http.MethodPost, "/sync/remap", parameters)
	if nil != err {
		return nil, err
	}
	var reply RemapReply
	if err := decode(body, code, []int{http.StatusOK}, &reply); nil != err {
		return nil, err
	}
	return &reply, nil
}

// Delete - delete a record as the daemon's node identity
//
// refusals are returned as a reply with their outcome, not as errors
func (c *Client) Delete(did string) (*DeleteReply, error) {
	parameters := url.Values{}
	parameters.Set("did", did)

	body, code, err := c.call(http.MethodPost, "/records/delete", parameters)
	if nil != err {
		return nil, err
	}
	accept := []int{
		http.StatusOK,
		http.StatusAccepted,
		http.StatusForbidden,
		http.StatusNotFound,
		http.StatusConflict,
	}
	var reply DeleteReply
	if err := decode(body, code, accept, &reply); nil != err {
		return nil, err
	}
	// a plain 403 or 404 from the endpoint itself carries no outcome
	if "" == reply.Outcome {
		return nil, decode(body, code, nil, nil)
	}
	return &reply, nil
}

// Metrics - the raw prometheus exposition text
func (c *Client) Metrics() (string, error) {
	body, code, err := c.call(http.MethodGet, "/metrics", nil)
	if nil != err {
		return "", err
	}
	if http.StatusOK != code {
		return "", decode(body, code, nil, nil)
	}
	return string(body), nil
}
