// Copyright 2024-2025 The Streamdial Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package streamdial

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"time"
)

// Dialer establishes a single connection of one stream kind to one
// endpoint. Implementations perform no retries; failover across
// endpoints is the Connector's responsibility.
type Dialer interface {
	// DialEndpoint connects to hostPort within the lifetime of ctx and
	// returns the resulting session, or a transport error.
	DialEndpoint(ctx context.Context, hostPort string) (Session, error)
}

// dialerForKind maps a stream kind to its dialer. The hostname is used
// by TLS-based kinds for identity verification and by HTTP kinds as the
// default Host header.
func dialerForKind(kind StreamKind, hostname string, opts *connectorOptions) (Dialer, error) {
	switch kind {
	case TCP, UDP:
		return &netDialer{kind: kind, opTimeout: opts.operationTimeout}, nil
	case TLS:
		return &tlsDialer{
			kind:       TLS,
			serverName: hostname,
			config:     opts.tlsConfig,
			opTimeout:  opts.operationTimeout,
		}, nil
	case HTTP:
		return &httpDialer{
			base: &netDialer{kind: HTTP, opTimeout: opts.operationTimeout},
			host: hostname,
		}, nil
	case HTTPS:
		return &httpDialer{
			base: &tlsDialer{
				kind:       HTTPS,
				serverName: hostname,
				config:     opts.tlsConfig,
				opTimeout:  opts.operationTimeout,
			},
			host: hostname,
		}, nil
	default:
		return nil, fmt.Errorf("unknown stream kind %d", kind)
	}
}

// netDialer establishes plain TCP or connected UDP sessions.
type netDialer struct {
	kind      StreamKind
	opTimeout time.Duration
}

func (d *netDialer) DialEndpoint(ctx context.Context, hostPort string) (Session, error) {
	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, d.kind.network(), hostPort)
	if err != nil {
		return nil, err
	}
	return &timedConn{Conn: conn, kind: d.kind, opTimeout: d.opTimeout}, nil
}

// tlsDialer establishes TLS sessions, completing the handshake before
// the session is handed out so a returned session is ready for I/O.
type tlsDialer struct {
	kind       StreamKind
	serverName string
	config     *tls.Config
	opTimeout  time.Duration
}

func (d *tlsDialer) DialEndpoint(ctx context.Context, hostPort string) (Session, error) {
	config := d.config
	if config == nil {
		config = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	config = config.Clone()
	if config.ServerName == "" {
		config.ServerName = d.serverName
	}
	dialer := &tls.Dialer{Config: config}
	conn, err := dialer.DialContext(ctx, "tcp", hostPort)
	if err != nil {
		return nil, err
	}
	return &timedConn{Conn: conn, kind: d.kind, opTimeout: d.opTimeout}, nil
}
