// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package maintenance

import (
	"context"
	"crypto/tls"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/bitmark-inc/logger"

	"github.com/DevonJames/oip-arweave-indexer-sub000/fault"
)

const (
	readWriteTimeout = 10 * time.Second
	shutdownTimeout  = 5 * time.Second
)

// Configuration - configuration file data for the maintenance listener
type Configuration struct {
	Listen            []string            `gluamapper:"listen" json:"listen"`
	Certificate       string              `gluamapper:"certificate" json:"certificate"`
	PrivateKey        string              `gluamapper:"private_key" json:"private_key"`
	Allow             map[string][]string `gluamapper:"allow" json:"allow"`
	RequestsPerSecond float64             `gluamapper:"requests_per_second" json:"requests_per_second"`
	TriggerDirectory  string              `gluamapper:"trigger_directory" json:"trigger_directory"`
}

// Server - background process serving the handler on every listen
// address
type Server struct {
	log       *logger.L
	listen    []string
	handler   http.Handler
	tlsConfig *tls.Config
}

// NewServer - nil server when nothing is to be listened on
func NewServer(configuration *Configuration, log *logger.L, handler http.Handler) (*Server, error) {
	if 0 == len(configuration.Listen) {
		log.Info("disable: maintenance listener")
		return nil, nil
	}

	s := &Server{
		log:     log,
		listen:  configuration.Listen,
		handler: handler,
	}

	if "" != configuration.Certificate || "" != configuration.PrivateKey {
		if "" == configuration.Certificate || "" == configuration.PrivateKey {
			return nil, fault.ErrMissingParameters
		}
		tlsConfig, fingerprint, err := Certificate(log, configuration.Certificate, configuration.PrivateKey)
		if nil != err {
			return nil, err
		}
		log.Infof("SHA3-256 fingerprint: %x", fingerprint)
		s.tlsConfig = tlsConfig
	}
	return s, nil
}

// Run - background process interface
func (s *Server) Run(args interface{}, shutdown <-chan struct{}) {
	log := s.log

	log.Info("starting…")

	servers := make([]*http.Server, 0, len(s.listen))
	var wg sync.WaitGroup

	for _, listen := range s.listen {
		if '*' == listen[0] {
			// change "*:PORT" to "[::]:PORT"
			// on the assumption that this will listen on tcp4 and tcp6
			listen = "[::]" + ":" + strings.Split(listen, ":")[1]
		}

		ln, err := net.Listen("tcp", listen)
		if nil != err {
			log.Errorf("listen: %q error: %s", listen, err)
			continue
		}
		if nil != s.tlsConfig {
			cfg := s.tlsConfig.Clone()
			cfg.NextProtos = []string{"http/1.1"}
			ln = tls.NewListener(ln, cfg)
		}

		server := &http.Server{
			Handler:        s.handler,
			ReadTimeout:    readWriteTimeout,
			WriteTimeout:   readWriteTimeout,
			MaxHeaderBytes: 1 << 20,
		}
		servers = append(servers, server)

		log.Infof("serving on: %q  tls: %t", listen, nil != s.tlsConfig)
		wg.Add(1)
		go func(ln net.Listener) {
			defer wg.Done()
			if err := server.Serve(ln); nil != err && http.ErrServerClosed != err {
				log.Errorf("serve: %s", err)
			}
		}(ln)
	}

	<-shutdown
	log.Info("shutting down…")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	for _, server := range servers {
		_ = server.Shutdown(ctx)
	}
	wg.Wait()

	log.Info("stopped")
}
