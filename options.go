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
	"crypto/tls"
	"math/rand"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/streamdial/streamdial/internal"
	"github.com/streamdial/streamdial/resolver"
)

const (
	defaultResolveTimeout = 5 * time.Second
	defaultConnectTimeout = 30 * time.Second
	defaultPollInterval   = 100 * time.Millisecond
)

// Option is an option used to customize the behavior of a Connector.
type Option interface {
	apply(*connectorOptions)
}

// WithStreamKind selects the transport kind of sessions the Connector
// produces. The default is TCP.
func WithStreamKind(kind StreamKind) Option {
	return optionFunc(func(opts *connectorOptions) {
		opts.streamKind = kind
	})
}

// WithResolveTimeout bounds each resolution cycle performed by the
// background loop. If zero or no WithResolveTimeout option is used, a
// default of 5 seconds applies.
func WithResolveTimeout(duration time.Duration) Option {
	return optionFunc(func(opts *connectorOptions) {
		opts.resolveTimeout = duration
	})
}

// WithConnectTimeout sets the overall deadline applied to NewSession
// calls whose context carries no deadline of its own. If zero or no
// WithConnectTimeout option is used, a default of 30 seconds applies.
func WithConnectTimeout(duration time.Duration) Option {
	return optionFunc(func(opts *connectorOptions) {
		opts.connectTimeout = duration
	})
}

// WithOperationTimeout bounds each individual read and write on sessions
// handed out by the Connector. Zero, the default, leaves session I/O
// unbounded.
func WithOperationTimeout(duration time.Duration) Option {
	return optionFunc(func(opts *connectorOptions) {
		opts.operationTimeout = duration
	})
}

// WithPollInterval sets the interval on which the resolution loop wakes
// to check for teardown, and the delay before a failed resolution cycle
// is retried. Teardown latency is bounded by a small multiple of this
// interval. If zero or no WithPollInterval option is used, a default of
// 100 milliseconds applies.
func WithPollInterval(duration time.Duration) Option {
	return optionFunc(func(opts *connectorOptions) {
		opts.pollInterval = duration
	})
}

// WithAddressFamily sets the address family affinity used by the default
// DNS resolver. It has no effect when WithResolver is also used.
func WithAddressFamily(affinity resolver.AddressFamilyAffinity) Option {
	return optionFunc(func(opts *connectorOptions) {
		opts.family = affinity
	})
}

// WithResolveFlags sets the resolution flags used by the default DNS
// resolver. It has no effect when WithResolver is also used.
func WithResolveFlags(flags resolver.Flags) Option {
	return optionFunc(func(opts *connectorOptions) {
		opts.flags = flags
	})
}

// WithResolver replaces the default DNS resolver with the given one. The
// resolver is only ever invoked from the Connector's single background
// loop, so it need not be safe for concurrent use with itself.
func WithResolver(res resolver.Resolver) Option {
	return optionFunc(func(opts *connectorOptions) {
		opts.res = res
	})
}

// WithDialer replaces the stream-kind dialer with the given one. When
// this option is used, WithStreamKind and WithTLSConfig only affect
// bookkeeping, not how connections are established.
func WithDialer(dialer Dialer) Option {
	return optionFunc(func(opts *connectorOptions) {
		opts.dialer = dialer
	})
}

// WithTLSConfig adds custom TLS configuration for the TLS and HTTPS
// stream kinds. A nil ServerName is filled in with the Connector's
// target hostname.
func WithTLSConfig(config *tls.Config) Option {
	return optionFunc(func(opts *connectorOptions) {
		opts.tlsConfig = config
	})
}

// WithRand replaces the randomness source used to shuffle endpoint
// snapshots, which is useful for deterministic tests. The Connector
// synchronizes access to it, so the value need not be safe for
// concurrent use. If no WithRand option is used, a seeded process-local
// generator applies.
func WithRand(rnd *rand.Rand) Option {
	return optionFunc(func(opts *connectorOptions) {
		opts.rand = rnd
	})
}

// WithLogger enables structured logging of resolution cycles and connect
// failures through the given logger. Without this option the Connector
// is silent.
func WithLogger(logger *logrus.Logger) Option {
	return optionFunc(func(opts *connectorOptions) {
		opts.logger = logger
	})
}

type optionFunc func(*connectorOptions)

func (f optionFunc) apply(opts *connectorOptions) {
	f(opts)
}

type connectorOptions struct {
	streamKind       StreamKind
	resolveTimeout   time.Duration
	connectTimeout   time.Duration
	operationTimeout time.Duration
	pollInterval     time.Duration
	family           resolver.AddressFamilyAffinity
	flags            resolver.Flags
	tlsConfig        *tls.Config
	res              resolver.Resolver
	dialer           Dialer
	rand             *rand.Rand
	logger           *logrus.Logger
	clock            internal.Clock
}

func (opts *connectorOptions) applyDefaults() {
	if opts.resolveTimeout == 0 {
		opts.resolveTimeout = defaultResolveTimeout
	}
	if opts.connectTimeout == 0 {
		opts.connectTimeout = defaultConnectTimeout
	}
	if opts.pollInterval == 0 {
		opts.pollInterval = defaultPollInterval
	}
	if opts.rand == nil {
		opts.rand = internal.NewRand()
	}
	if opts.clock == nil {
		opts.clock = internal.NewRealClock()
	}
}
