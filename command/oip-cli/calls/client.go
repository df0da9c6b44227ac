// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package calls

import (
	"crypto/tls"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/DevonJames/oip-arweave-indexer-sub000/fault"
)

// Client - to hold the maintenance endpoint connection
type Client struct {
	base    *url.URL
	client  *http.Client
	verbose bool
	handle  io.Writer // if verbose is set output items here
}

// RemoteError - error body returned by the daemon
type RemoteError struct {
	Code    int    `json:"code"`
	Message string `json:"error"`
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("%d: %s", e.Code, e.Message)
}

// NewClient - create a client for the maintenance endpoint of an oipd
func NewClient(endpoint string, insecure bool, timeout time.Duration, verbose bool, handle io.Writer) (*Client, error) {
	base, err := url.Parse(endpoint)
	if nil != err {
		return nil, err
	}
	if ("http" != base.Scheme && "https" != base.Scheme) || "" == base.Host {
		return nil, fault.ErrInvalidURL
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if insecure {
		transport.TLSClientConfig = &tls.Config{
			InsecureSkipVerify: true,
		}
	}

	c := &Client{
		base: base,
		client: &http.Client{
			Transport: transport,
			Timeout:   timeout,
		},
		verbose: verbose,
		handle:  handle,
	}
	return c, nil
}

// Close - release idle connections
func (c *Client) Close() {
	c.client.CloseIdleConnections()
}

// send a request and return the response body and status code
func (c *Client) call(method string, path string, parameters url.Values) ([]byte, int, error) {
	u := *c.base
	u.Path = strings.TrimSuffix(u.Path, "/") + path
	if nil != parameters {
		u.RawQuery = parameters.Encode()
	}

	if c.verbose {
		fmt.Fprintf(c.handle, "%s %s\n", method, u.String())
	}

	request, err := http.NewRequest(method, u.String(), nil)
	if nil != err {
		return nil, 0, err
	}
	response, err := c.client.Do(request)
	if nil != err {
		return nil, 0, err
	}
	defer response.Body.Close()

	body, err := ioutil.ReadAll(response.Body)
	if nil != err {
		return nil, 0, err
	}

	if c.verbose {
		fmt.Fprintf(c.handle, "status: %d\n", response.StatusCode)
	}
	return body, response.StatusCode, nil
}

// decode a successful reply, or the error body
func decode(body []byte, code int, accept []int, reply interface{}) error {
	for _, a := range accept {
		if a == code {
			return json.Unmarshal(body, reply)
		}
	}

	e := &RemoteError{}
	if err := json.Unmarshal(body, e); nil != err || "" == e.Message {
		return &RemoteError{
			Code:    code,
			Message: http.StatusText(code),
		}
	}
	return e
}
