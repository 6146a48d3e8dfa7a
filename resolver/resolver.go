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
	"fmt"
	"net"
	"net/netip"
	"strconv"
)

// Address contains a single resolved transport address for a target, in
// "host:port" form.
type Address struct {
	// HostPort stores the host:port pair of the resolved address.
	HostPort string
}

// Resolver is an interface for single-shot name resolution. The
// connector's resolution loop invokes Resolve repeatedly, once per
// refresh cycle, always from the same goroutine. Implementations
// therefore need not be safe for concurrent use with themselves.
type Resolver interface {
	// Resolve performs one blocking resolution of the configured target,
	// bounded by ctx. A successful call returns the full, ordered set of
	// addresses known at that moment; it may legitimately be empty.
	Resolve(ctx context.Context) ([]Address, error)
}

// AddressFamilyAffinity is an option that allows control over the
// preference for which addresses to use, based on their address family.
type AddressFamilyAffinity int

const (
	// UseBothIPv4AndIPv6 will result in all addresses being used,
	// regardless of their address family.
	UseBothIPv4AndIPv6 AddressFamilyAffinity = iota

	// PreferIPv4 will result in only IPv4 addresses being used, if any
	// IPv4 addresses are present. If no IPv4 addresses are resolved,
	// then all addresses will be used.
	PreferIPv4

	// PreferIPv6 will result in only IPv6 addresses being used, if any
	// IPv6 addresses are present. If no IPv6 addresses are resolved,
	// then all addresses will be used.
	PreferIPv6

	// RequireIPv4 will result in only IPv4 addresses being used. If no
	// IPv4 addresses are present, resolution yields an empty set.
	RequireIPv4

	// RequireIPv6 will result in only IPv6 addresses being used. If no
	// IPv6 addresses are present, resolution yields an empty set.
	RequireIPv6
)

// Flags alter how name resolution is performed.
type Flags int

const (
	// FlagNumericHost requires the configured host to be a literal IP
	// address. Resolution then never performs DNS I/O; it fails at
	// construction time if the host does not parse.
	FlagNumericHost Flags = 1 << iota
)

// Option is an option used to customize the behavior of a resolver
// created by this package.
type Option interface {
	apply(*options)
}

// WithAffinity sets the address family affinity applied to resolution
// results. The default is UseBothIPv4AndIPv6.
func WithAffinity(affinity AddressFamilyAffinity) Option {
	return optionFunc(func(opts *options) {
		opts.affinity = affinity
	})
}

// WithFlags sets the resolution flags.
func WithFlags(flags Flags) Option {
	return optionFunc(func(opts *options) {
		opts.flags = flags
	})
}

// WithNetResolver configures NewDNSResolver to resolve through the given
// net.Resolver instead of net.DefaultResolver.
func WithNetResolver(netResolver *net.Resolver) Option {
	return optionFunc(func(opts *options) {
		opts.netResolver = netResolver
	})
}

type optionFunc func(*options)

func (f optionFunc) apply(opts *options) {
	f(opts)
}

type options struct {
	affinity    AddressFamilyAffinity
	flags       Flags
	netResolver *net.Resolver
}

// DNSResolver resolves a host and port through the standard library's
// net.Resolver.
type DNSResolver struct {
	host     string
	port     string
	resolver *net.Resolver
	affinity AddressFamilyAffinity

	// literal holds the precomputed result when the host is an IP
	// literal, so Resolve never performs network I/O for it.
	literal []Address
}

var _ Resolver = (*DNSResolver)(nil)

// NewDNSResolver creates a resolver for the given host and port backed by
// the standard library's resolver. Construction validates the target but
// performs no I/O. The port must be numeric.
func NewDNSResolver(host, port string, opts ...Option) (*DNSResolver, error) {
	var resolverOpts options
	for _, opt := range opts {
		opt.apply(&resolverOpts)
	}
	if err := validateTarget(host, port); err != nil {
		return nil, err
	}
	netResolver := resolverOpts.netResolver
	if netResolver == nil {
		netResolver = net.DefaultResolver
	}
	res := &DNSResolver{
		host:     host,
		port:     port,
		resolver: netResolver,
		affinity: resolverOpts.affinity,
	}
	if addr, err := netip.ParseAddr(host); err == nil {
		res.literal = joinAddresses(filterByFamily([]netip.Addr{addr}, resolverOpts.affinity), port)
	} else if resolverOpts.flags&FlagNumericHost != 0 {
		return nil, fmt.Errorf("numeric host flag set but %q is not an IP literal", host)
	}
	return res, nil
}

// Resolve implements Resolver.
func (r *DNSResolver) Resolve(ctx context.Context) ([]Address, error) {
	if r.literal != nil {
		result := make([]Address, len(r.literal))
		copy(result, r.literal)
		return result, nil
	}
	addresses, err := r.resolver.LookupNetIP(ctx, "ip", r.host)
	if err != nil {
		return nil, err
	}
	return joinAddresses(filterByFamily(addresses, r.affinity), r.port), nil
}

func validateTarget(host, port string) error {
	if host == "" {
		return fmt.Errorf("host must not be empty")
	}
	portNum, err := strconv.Atoi(port)
	if err != nil || portNum < 0 || portNum > 65535 {
		return fmt.Errorf("invalid port %q", port)
	}
	return nil
}

// filterByFamily narrows a resolved address set according to the given
// affinity. An IPv4 address mapped into IPv6 counts as IPv4, since Go's
// resolver reports v4 addresses in mapped form in some configurations.
func filterByFamily(addresses []netip.Addr, affinity AddressFamilyAffinity) []netip.Addr {
	switch affinity {
	case UseBothIPv4AndIPv6:
		return addresses
	case PreferIPv4, RequireIPv4:
		ip4Addresses := make([]netip.Addr, 0, len(addresses))
		for _, address := range addresses {
			if address.Is4() || address.Is4In6() {
				ip4Addresses = append(ip4Addresses, address)
			}
		}
		if len(ip4Addresses) > 0 || affinity == RequireIPv4 {
			return ip4Addresses
		}
	case PreferIPv6, RequireIPv6:
		ip6Addresses := make([]netip.Addr, 0, len(addresses))
		for _, address := range addresses {
			if address.Is6() && !address.Is4In6() {
				ip6Addresses = append(ip6Addresses, address)
			}
		}
		if len(ip6Addresses) > 0 || affinity == RequireIPv6 {
			return ip6Addresses
		}
	}
	return addresses
}

func joinAddresses(addresses []netip.Addr, port string) []Address {
	result := make([]Address, len(addresses))
	for i, address := range addresses {
		result[i].HostPort = net.JoinHostPort(address.Unmap().String(), port)
	}
	return result
}
