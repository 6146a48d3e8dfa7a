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
	"net"
	"time"
)

// StreamKind identifies the transport protocol of sessions produced by a
// Connector. It selects the dialer used for every connect attempt.
type StreamKind int

const (
	// TCP produces plain TCP stream sessions.
	TCP StreamKind = iota
	// UDP produces connected UDP datagram sessions.
	UDP
	// TLS produces TLS stream sessions, verified against the target
	// hostname unless overridden via WithTLSConfig.
	TLS
	// HTTP produces TCP sessions that can also perform HTTP round trips
	// over their single underlying connection.
	HTTP
	// HTTPS is like HTTP but over TLS.
	HTTPS
)

func (k StreamKind) String() string {
	switch k {
	case TCP:
		return "tcp"
	case UDP:
		return "udp"
	case TLS:
		return "tls"
	case HTTP:
		return "http"
	case HTTPS:
		return "https"
	default:
		return "unknown"
	}
}

// network returns the net package network name used to dial this kind.
func (k StreamKind) network() string {
	if k == UDP {
		return "udp"
	}
	return "tcp"
}

// Session is a live connection handle returned by a successful
// [Connector.NewSession] call. Ownership transfers fully to the caller;
// the connector holds no reference to it after return, and the caller is
// responsible for closing it.
//
// Sessions established by a connector configured with a per-operation
// timeout apply that timeout as a fresh deadline on every read and
// write.
type Session interface {
	net.Conn

	// Kind reports the stream kind this session was established with.
	Kind() StreamKind
}

// timedConn wraps a net.Conn so each read and write is bounded by the
// connector's per-operation timeout.
type timedConn struct {
	net.Conn
	kind      StreamKind
	opTimeout time.Duration
}

var _ Session = (*timedConn)(nil)

func (c *timedConn) Kind() StreamKind {
	return c.kind
}

func (c *timedConn) Read(data []byte) (int, error) {
	if c.opTimeout > 0 {
		if err := c.Conn.SetReadDeadline(time.Now().Add(c.opTimeout)); err != nil {
			return 0, err
		}
	}
	return c.Conn.Read(data)
}

func (c *timedConn) Write(data []byte) (int, error) {
	if c.opTimeout > 0 {
		if err := c.Conn.SetWriteDeadline(time.Now().Add(c.opTimeout)); err != nil {
			return 0, err
		}
	}
	return c.Conn.Write(data)
}
