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
	"net/netip"

	"github.com/miekg/dns"
	"github.com/pkg/errors"
)

// ClientResolver resolves a host and port against an explicitly
// configured DNS server using plain DNS over UDP or TCP, bypassing the
// system resolver. A and AAAA records are queried according to the
// configured address family affinity.
type ClientResolver struct {
	server   string
	client   *dns.Client
	fqdn     string
	port     string
	affinity AddressFamilyAffinity
	literal  []Address
}

var _ Resolver = (*ClientResolver)(nil)

// NewClientResolver creates a resolver that queries the DNS server at
// server ("ip:port") over the given network, "udp" or "tcp". Construction
// validates the target but performs no I/O.
func NewClientResolver(server, network, host, port string, opts ...Option) (*ClientResolver, error) {
	var resolverOpts options
	for _, opt := range opts {
		opt.apply(&resolverOpts)
	}
	if network != "udp" && network != "tcp" {
		return nil, errors.Errorf("unsupported network %q, must be udp or tcp", network)
	}
	if err := validateTarget(host, port); err != nil {
		return nil, errors.Wrap(err, "dns client resolver")
	}
	res := &ClientResolver{
		server:   server,
		client:   &dns.Client{Net: network},
		fqdn:     dns.Fqdn(host),
		port:     port,
		affinity: resolverOpts.affinity,
	}
	if addr, err := netip.ParseAddr(host); err == nil {
		res.literal = joinAddresses(filterByFamily([]netip.Addr{addr}, resolverOpts.affinity), port)
	} else if resolverOpts.flags&FlagNumericHost != 0 {
		return nil, errors.Errorf("numeric host flag set but %q is not an IP literal", host)
	}
	return res, nil
}

// Resolve implements Resolver.
func (r *ClientResolver) Resolve(ctx context.Context) ([]Address, error) {
	if r.literal != nil {
		result := make([]Address, len(r.literal))
		copy(result, r.literal)
		return result, nil
	}
	var addresses []netip.Addr
	for _, qtype := range r.questionTypes() {
		q := new(dns.Msg)
		q.SetQuestion(r.fqdn, qtype)
		in, _, err := r.client.ExchangeContext(ctx, q, r.server)
		if err != nil {
			return nil, errors.Wrapf(err, "%s query for %s against %s", dns.TypeToString[qtype], r.fqdn, r.server)
		}
		if in.Rcode != dns.RcodeSuccess && in.Rcode != dns.RcodeNameError {
			return nil, errors.Errorf("%s query for %s: %s", dns.TypeToString[qtype], r.fqdn, dns.RcodeToString[in.Rcode])
		}
		for _, rr := range in.Answer {
			var addr netip.Addr
			var ok bool
			switch record := rr.(type) {
			case *dns.A:
				addr, ok = netip.AddrFromSlice(record.A)
			case *dns.AAAA:
				addr, ok = netip.AddrFromSlice(record.AAAA)
			default:
				continue
			}
			if ok {
				addresses = append(addresses, addr)
			}
		}
	}
	return joinAddresses(filterByFamily(addresses, r.affinity), r.port), nil
}

// questionTypes reports which record types are worth querying given the
// affinity. Require affinities skip the query whose answers would be
// filtered out anyway.
func (r *ClientResolver) questionTypes() []uint16 {
	switch r.affinity {
	case RequireIPv4:
		return []uint16{dns.TypeA}
	case RequireIPv6:
		return []uint16{dns.TypeAAAA}
	default:
		return []uint16{dns.TypeA, dns.TypeAAAA}
	}
}
