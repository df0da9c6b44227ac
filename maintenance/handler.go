// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package maintenance

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/bitmark-inc/logger"

	"github.com/DevonJames/oip-arweave-indexer-sub000/deletion"
	"github.com/DevonJames/oip-arweave-indexer-sub000/fault"
	"github.com/DevonJames/oip-arweave-indexer-sub000/gunsync"
	"github.com/DevonJames/oip-arweave-indexer-sub000/ledgersync"
	"github.com/DevonJames/oip-arweave-indexer-sub000/metrics"
)

// endpoint names used in the allow lists
const (
	EndpointStatus  = "status"
	EndpointCache   = "cache"
	EndpointSync    = "sync"
	EndpointRecords = "records"
	EndpointMetrics = "metrics"
)

const (
	deleteTimeout = 30 * time.Second
)

// Handler - the maintenance endpoints
type Handler struct {
	log      *logger.L
	node     *Node
	allow    map[string][]*net.IPNet
	limiter  *rate.Limiter
	gatherer prometheus.Gatherer
	mux      *http.ServeMux
}

// NewHandler - create the handler, allow maps an endpoint name to the
// networks that may call it; an endpoint with no entry is closed
func NewHandler(log *logger.L, node *Node, allow map[string][]*net.IPNet, limiter *rate.Limiter, gatherer prometheus.Gatherer) *Handler {
	if nil == gatherer {
		gatherer = prometheus.DefaultGatherer
	}
	h := &Handler{
		log:      log,
		node:     node,
		allow:    allow,
		limiter:  limiter,
		gatherer: gatherer,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/status", h.status)
	mux.HandleFunc("/cache/clear", h.clearCache)
	mux.HandleFunc("/sync/refresh", h.refresh)
	mux.HandleFunc("/sync/remap", h.remap)
	mux.HandleFunc("/records/delete", h.delete)
	mux.HandleFunc("/metrics", h.metrics)
	mux.HandleFunc("/", h.root)
	h.mux = mux

	return h
}

// ServeHTTP - http.Handler interface
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// ParseAllow - convert configured CIDR strings
func ParseAllow(allow map[string][]string) (map[string][]*net.IPNet, error) {
	result := make(map[string][]*net.IPNet)
	for endpoint, addresses := range allow {
		set := make([]*net.IPNet, len(addresses))
		for i, ip := range addresses {
			_, cidr, err := net.ParseCIDR(strings.TrimSpace(ip))
			if nil != err {
				return nil, err
			}
			set[i] = cidr
		}
		result[endpoint] = set
	}
	return result, nil
}

// this matches anything not matched and returns error
func (h *Handler) root(w http.ResponseWriter, r *http.Request) {
	sendNotFound(w, "root")
}

// GET summary of both synchronisers and the caches
func (h *Handler) status(w http.ResponseWriter, r *http.Request) {
	if !h.accept(w, r, EndpointStatus, http.MethodGet) {
		return
	}

	type caches struct {
		Templates int `json:"templates"`
	}
	type index struct {
		Records int `json:"records"`
	}
	type reply struct {
		Version string            `json:"version"`
		Uptime  string            `json:"uptime"`
		Index   index             `json:"index"`
		Caches  caches            `json:"caches"`
		Ledger  ledgersync.Status `json:"ledger"`
		Peers   *gunsync.Status   `json:"peers,omitempty"`
	}

	n := h.node
	count, err := n.Index.Count()
	if nil != err {
		h.log.Errorf("record count: %s", err)
		sendInternalServerError(w, EndpointStatus)
		return
	}

	info := reply{
		Version: n.Version,
		Uptime:  time.Since(n.Start).Truncate(time.Second).String(),
		Index:   index{Records: count},
		Caches:  caches{Templates: n.Templates.Len()},
		Ledger:  n.Ledger.Status(),
	}
	if nil != n.Peers {
		s := n.Peers.Status()
		info.Peers = &s
	}

	sendReply(w, EndpointStatus, info)
}

// POST clear every cache
func (h *Handler) clearCache(w http.ResponseWriter, r *http.Request) {
	if !h.accept(w, r, EndpointCache, http.MethodPost) || !h.limit(w, EndpointCache) {
		return
	}

	type reply struct {
		Cleared map[string]int `json:"cleared"`
	}
	sendReply(w, EndpointCache, reply{
		Cleared: h.node.ClearCaches("request"),
	})
}

// POST next ledger cycle starts with a fresh scan of the index
func (h *Handler) refresh(w http.ResponseWriter, r *http.Request) {
	if !h.accept(w, r, EndpointSync, http.MethodPost) || !h.limit(w, EndpointSync) {
		return
	}

	h.node.Ledger.RequestRefresh()
	h.log.Info("refresh requested")

	type reply struct {
		Requested bool `json:"requested"`
	}
	sendReply(w, EndpointSync, reply{Requested: true})
}

// POST re-translate records of templates
//
// query parameters:
//   template=<did or txid>    [repeatable or comma separated]
func (h *Handler) remap(w http.ResponseWriter, r *http.Request) {
	if !h.accept(w, r, EndpointSync, http.MethodPost) || !h.limit(w, EndpointSync) {
		return
	}

	_ = r.ParseForm()
	ids := []string{}
	for _, value := range r.Form["template"] {
		for _, id := range strings.Split(value, ",") {
			if id = strings.TrimSpace(id); "" != id {
				ids = append(ids, id)
			}
		}
	}
	if 0 == len(ids) {
		sendBadRequest(w, EndpointSync, fault.ErrMissingParameters.Error())
		return
	}

	h.node.Ledger.RequestRemap(ids...)
	h.log.Infof("remap requested: %v", ids)

	type reply struct {
		Templates []string `json:"templates"`
	}
	sendReply(w, EndpointSync, reply{Templates: ids})
}

// POST delete one record as this node
//
// query parameters:
//   did=<did>
func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	if !h.accept(w, r, EndpointRecords, http.MethodPost) || !h.limit(w, EndpointRecords) {
		return
	}

	_ = r.ParseForm()
	did := strings.TrimSpace(r.Form.Get("did"))
	if "" == did {
		sendBadRequest(w, EndpointRecords, fault.ErrMissingParameters.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), deleteTimeout)
	defer cancel()

	outcome, err := h.node.Deleter.Delete(ctx, did)
	if nil != err && fault.IsErrInvalid(err) {
		sendBadRequest(w, EndpointRecords, err.Error())
		return
	}

	type reply struct {
		DID     string `json:"did"`
		Outcome string `json:"outcome"`
		Error   string `json:"error,omitempty"`
	}
	info := reply{
		DID:     did,
		Outcome: outcome.String(),
	}

	code := http.StatusOK
	switch {
	case nil != err && deletion.OutcomeDeleted == outcome:
		// deleted here but not published to the peers
		info.Error = err.Error()
		code = http.StatusAccepted
	case nil != err:
		h.log.Errorf("delete: %s error: %s", did, err)
		sendInternalServerError(w, EndpointRecords)
		return
	case deletion.OutcomeAccessDenied == outcome:
		code = http.StatusForbidden
	case deletion.OutcomeNotFound == outcome:
		code = http.StatusNotFound
	case deletion.OutcomeInUse == outcome:
		code = http.StatusConflict
	}
	sendJSON(w, EndpointRecords, code, info)
}

// GET prometheus exposition
func (h *Handler) metrics(w http.ResponseWriter, r *http.Request) {
	if !h.accept(w, r, EndpointMetrics, http.MethodGet) {
		return
	}
	promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{}).ServeHTTP(w, r)
	metrics.MaintenanceRequests.WithLabelValues(EndpointMetrics, strconv.Itoa(http.StatusOK)).Inc()
}

// check method and caller address; on refusal the error is sent
func (h *Handler) accept(w http.ResponseWriter, r *http.Request, endpoint string, method string) bool {
	if method != r.Method {
		sendMethodNotAllowed(w, endpoint)
		return false
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if nil == err {
		ip := net.ParseIP(host)
		for _, cidr := range h.allow[endpoint] {
			if nil != ip && cidr.Contains(ip) {
				return true
			}
		}
	}
	h.log.Warnf("deny access to: %s from: %q", endpoint, r.RemoteAddr)
	sendForbidden(w, endpoint)
	return false
}

// mutating requests share a single limiter
func (h *Handler) limit(w http.ResponseWriter, endpoint string) bool {
	if nil == h.limiter || h.limiter.Allow() {
		return true
	}
	sendError(w, endpoint, fault.ErrRateLimiting.Error(), http.StatusTooManyRequests)
	return false
}

// send an JSON encoded reply
func sendReply(w http.ResponseWriter, endpoint string, data interface{}) {
	sendJSON(w, endpoint, http.StatusOK, data)
}

func sendJSON(w http.ResponseWriter, endpoint string, code int, data interface{}) {
	text, err := json.Marshal(data)
	if nil != err {
		sendInternalServerError(w, endpoint)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(code)
	_, _ = w.Write(text)
	metrics.MaintenanceRequests.WithLabelValues(endpoint, strconv.Itoa(code)).Inc()
}

// selected errors as required above
func sendNotFound(w http.ResponseWriter, endpoint string) {
	sendError(w, endpoint, "not found", http.StatusNotFound)
}
func sendBadRequest(w http.ResponseWriter, endpoint string, message string) {
	sendError(w, endpoint, message, http.StatusBadRequest)
}
func sendMethodNotAllowed(w http.ResponseWriter, endpoint string) {
	sendError(w, endpoint, "method not allowed", http.StatusMethodNotAllowed)
}
func sendForbidden(w http.ResponseWriter, endpoint string) {
	sendError(w, endpoint, "forbidden", http.StatusForbidden)
}
func sendInternalServerError(w http.ResponseWriter, endpoint string) {
	sendError(w, endpoint, "internal server error", http.StatusInternalServerError)
}

// to compose JSON error messages
type eType struct {
	Code  int    `json:"code"`
	Error string `json:"error"`
}

// output an error with a JSON body
func sendError(w http.ResponseWriter, endpoint string, message string, code int) {
	metrics.MaintenanceRequests.WithLabelValues(endpoint, strconv.Itoa(code)).Inc()

	text, err := json.Marshal(eType{
		Code:  code,
		Error: message,
	})
	if nil != err {
		// manually composed error just incase JSON fails
		http.Error(w, `{"code":500,"error":"Internal Server Error"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(code)
	_, _ = w.Write(text)
}
