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

package resolver

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/miekg/dns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// startLocalDNS runs a miekg/dns server on a loopback UDP port answering
// from the given records, keyed by question type.
func startLocalDNS(t *testing.T, records map[uint16][]string, rcode int) string {
	t.Helper()
	packetConn, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)

	answers := make(map[uint16][]dns.RR, len(records))
	for qtype, texts := range records {
		for _, text := range texts {
			rr, err := dns.NewRR(text)
			require.NoError(t, err)
			answers[qtype] = append(answers[qtype], rr)
		}
	}

	mux := dns.NewServeMux()
	mux.HandleFunc(".", func(writer dns.ResponseWriter, req *dns.Msg) {
		reply := new(dns.Msg)
		reply.SetReply(req)
		reply.Rcode = rcode
		reply.Answer = append(reply.Answer, answers[req.Question[0].Qtype]...)
		_ = writer.WriteMsg(reply)
	})
	server := &dns.Server{PacketConn: packetConn, Handler: mux}
	go func() {
		_ = server.ActivateAndServe()
	}()
	t.Cleanup(func() {
		_ = server.Shutdown()
	})
	return packetConn.LocalAddr().String()
}

func TestClientResolver(t *testing.T) {
	t.Parallel()

	server := startLocalDNS(t, map[uint16][]string{
		dns.TypeA: {
			"example.com. 60 IN A 10.0.0.1",
			"example.com. 60 IN A 10.0.0.2",
		},
		dns.TypeAAAA: {
			"example.com. 60 IN AAAA fe80::1",
		},
	}, dns.RcodeSuccess)

	res, err := NewClientResolver(server, "udp", "example.com", "443")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	addresses, err := res.Resolve(ctx)
	require.NoError(t, err)
	hostPorts := make([]string, len(addresses))
	for i, address := range addresses {
		hostPorts[i] = address.HostPort
	}
	assert.ElementsMatch(t, []string{"10.0.0.1:443", "10.0.0.2:443", "[fe80::1]:443"}, hostPorts)
}

func TestClientResolverRequireIPv4QueriesAOnly(t *testing.T) {
	t.Parallel()

	server := startLocalDNS(t, map[uint16][]string{
		dns.TypeA: {"example.com. 60 IN A 10.0.0.1"},
		// An AAAA answer that must never be requested.
		dns.TypeAAAA: {"example.com. 60 IN AAAA fe80::1"},
	}, dns.RcodeSuccess)

	res, err := NewClientResolver(server, "udp", "example.com", "80",
		WithAffinity(RequireIPv4))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	addresses, err := res.Resolve(ctx)
	require.NoError(t, err)
	require.Len(t, addresses, 1)
	assert.Equal(t, "10.0.0.1:80", addresses[0].HostPort)
}

func TestClientResolverSurfacesServerFailure(t *testing.T) {
	t.Parallel()

	server := startLocalDNS(t, nil, dns.RcodeServerFailure)

	res, err := NewClientResolver(server, "udp", "example.com", "80")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err = res.Resolve(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SERVFAIL")
}

func TestClientResolverLiteralHost(t *testing.T) {
	t.Parallel()

	// A literal host never queries the server at all, so a bogus server
	// address is fine.
	res, err := NewClientResolver("192.0.2.1:53", "udp", "10.0.0.9", "80")
	require.NoError(t, err)
	addresses, err := res.Resolve(context.Background())
	require.NoError(t, err)
	require.Len(t, addresses, 1)
	assert.Equal(t, "10.0.0.9:80", addresses[0].HostPort)
}

func TestClientResolverValidation(t *testing.T) {
	t.Parallel()

	_, err := NewClientResolver("127.0.0.1:53", "sctp", "example.com", "80")
	require.Error(t, err)
	_, err = NewClientResolver("127.0.0.1:53", "udp", "example.com", "bad")
	require.Error(t, err)
}
