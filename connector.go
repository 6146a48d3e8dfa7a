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
	"math/rand"
	"net"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/streamdial/streamdial/internal"
	"github.com/streamdial/streamdial/resolver"
)

// Connector hands out new sessions to a single host:port target while a
// background loop keeps the target's resolved endpoint set fresh. Every
// successful NewSession call produces a new, independent session; the
// Connector does no pooling or reuse.
//
// A Connector is safe for concurrent use. Once closed it must not be
// used to create new sessions, though sessions already handed out are
// unaffected.
type Connector struct {
	host string
	port string

	resolveTimeout   time.Duration
	connectTimeout   time.Duration
	operationTimeout time.Duration
	pollInterval     time.Duration

	res    resolver.Resolver
	dialer Dialer
	clock  internal.Clock
	logger *logrus.Logger

	randMu sync.Mutex
	rand   *rand.Rand

	// refreshCh is the refresh-requested signal: capacity one, armed
	// with a non-blocking send. It is deliberately separate from the
	// store mutex below so a caller waiting on resolution can never
	// block the loop from accepting new refresh requests.
	refreshCh chan struct{}

	// mu guards the endpoint store. Endpoints and resolveErr are only
	// ever written by the resolution loop; ready is closed by the loop
	// after the first successful resolution and never reopened, so a
	// later failed cycle leaves stale-but-valid endpoints usable.
	mu         sync.Mutex
	endpoints  []resolver.Address
	resolveErr error
	ready      chan struct{}
	published  bool

	// cancel tears down the loop's context, which also aborts any
	// in-flight resolution so Close never waits out a resolve timeout.
	cancel context.CancelFunc
	doneCh chan struct{}
}

// New creates a Connector for the given host and port and starts its
// background resolution loop, pre-armed with a refresh request. No
// network I/O happens synchronously; the first resolution cycle runs on
// the loop. New fails only if an option is invalid or the resolver
// cannot be constructed for the target.
func New(host, port string, opts ...Option) (*Connector, error) {
	var options connectorOptions
	for _, opt := range opts {
		opt.apply(&options)
	}
	options.applyDefaults()

	res := options.res
	if res == nil {
		var err error
		res, err = resolver.NewDNSResolver(host, port,
			resolver.WithAffinity(options.family),
			resolver.WithFlags(options.flags),
		)
		if err != nil {
			return nil, err
		}
	}
	dialer := options.dialer
	if dialer == nil {
		var err error
		dialer, err = dialerForKind(options.streamKind, host, &options)
		if err != nil {
			return nil, err
		}
	}

	loopCtx, cancel := context.WithCancel(context.Background())
	c := &Connector{
		host:             host,
		port:             port,
		resolveTimeout:   options.resolveTimeout,
		connectTimeout:   options.connectTimeout,
		operationTimeout: options.operationTimeout,
		pollInterval:     options.pollInterval,
		res:              res,
		dialer:           dialer,
		clock:            options.clock,
		logger:           options.logger,
		rand:             options.rand,
		refreshCh:        make(chan struct{}, 1),
		ready:            make(chan struct{}),
		cancel:           cancel,
		doneCh:           make(chan struct{}),
	}
	c.requestRefresh()
	go c.run(loopCtx)
	return c, nil
}

// Host returns the target hostname.
func (c *Connector) Host() string {
	return c.host
}

// Port returns the target port.
func (c *Connector) Port() string {
	return c.port
}

// Target returns the target in "host:port" form.
func (c *Connector) Target() string {
	return net.JoinHostPort(c.host, c.port)
}

// ResolveTimeout returns the timeout applied to each resolution cycle.
func (c *Connector) ResolveTimeout() time.Duration {
	return c.resolveTimeout
}

// ConnectTimeout returns the overall timeout applied to NewSession calls
// whose context has no deadline.
func (c *Connector) ConnectTimeout() time.Duration {
	return c.connectTimeout
}

// OperationTimeout returns the per-read/write timeout applied to
// sessions handed out by this Connector.
func (c *Connector) OperationTimeout() time.Duration {
	return c.operationTimeout
}

// NewSession establishes and returns a new session of the configured
// stream kind. The context's deadline bounds the entire call, including
// the wait for the first resolution to complete; if the context carries
// no deadline the connect timeout from construction applies.
//
// The endpoint snapshot is shuffled uniformly at random and endpoints
// are tried in that order until one connects, each attempt bounded by
// the time remaining. Regardless of outcome, a refresh of the endpoint
// set is requested before returning, so stale entries self-heal under
// steady traffic rather than only after failures.
func (c *Connector) NewSession(ctx context.Context) (Session, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.connectTimeout)
		defer cancel()
	}
	defer c.requestRefresh()

	select {
	case <-c.ready:
	case <-ctx.Done():
		if _, resolveErr := c.snapshot(); resolveErr != nil {
			return nil, &ResolutionError{Target: c.Target(), Cause: resolveErr}
		}
		return nil, &TimeoutError{Target: c.Target(), Phase: "awaiting resolution of"}
	}

	endpoints, resolveErr := c.snapshot()
	c.shuffle(endpoints)

	var lastErr *ConnectError
	attempts := 0
	for _, endpoint := range endpoints {
		if ctx.Err() != nil {
			break
		}
		attempts++
		session, err := c.dialer.DialEndpoint(ctx, endpoint.HostPort)
		if err == nil {
			return session, nil
		}
		lastErr = &ConnectError{Endpoint: endpoint.HostPort, Cause: err}
		if c.logger != nil {
			c.logger.WithFields(logrus.Fields{
				"target":   c.Target(),
				"endpoint": endpoint.HostPort,
			}).WithError(err).Debug("connect attempt failed")
		}
	}

	switch {
	case lastErr != nil:
		return nil, &ExhaustedError{Target: c.Target(), Attempts: attempts, Last: lastErr}
	case ctx.Err() != nil && len(endpoints) > 0:
		// Deadline expired before any attempt could be made.
		return nil, &TimeoutError{Target: c.Target(), Phase: "connecting to"}
	case resolveErr != nil:
		return nil, &ExhaustedError{
			Target: c.Target(),
			Last:   &ResolutionError{Target: c.Target(), Cause: resolveErr},
		}
	default:
		return nil, &ExhaustedError{Target: c.Target(), Last: ErrNoEndpoints}
	}
}

// Close stops the resolution loop and waits for it to exit. The wait is
// bounded by a small multiple of the poll interval; an in-flight
// resolution is aborted rather than waited out. The endpoint store
// stays readable afterwards, frozen at its last published state, so
// in-flight NewSession calls finish cleanly.
func (c *Connector) Close() error {
	c.cancel()
	<-c.doneCh
	return nil
}

// requestRefresh arms the refresh-requested signal. Non-blocking: a
// pending request already covers this one.
func (c *Connector) requestRefresh() {
	select {
	case c.refreshCh <- struct{}{}:
	default:
	}
}

// run is the resolution loop. It waits for a refresh request, invokes
// the resolver, and publishes the result to the endpoint store. The wait
// is capped by the poll interval so a stop signal set at any time is
// observed promptly, independent of resolver behavior.
func (c *Connector) run(loopCtx context.Context) {
	defer close(c.doneCh)
	for {
		select {
		case <-loopCtx.Done():
			return
		case <-c.refreshCh:
		case <-c.clock.After(c.pollInterval):
			continue
		}

		ctx, cancel := context.WithTimeout(loopCtx, c.resolveTimeout)
		started := c.clock.Now()
		endpoints, err := c.res.Resolve(ctx)
		cancel()
		if loopCtx.Err() != nil {
			return
		}

		if err != nil {
			c.publishError(err)
			// Wait one poll interval before re-arming, so a resolver
			// that fails instantly does not turn the loop into a hot
			// spin. Stop still wins immediately.
			select {
			case <-loopCtx.Done():
				return
			case <-c.clock.After(c.pollInterval):
			}
			c.requestRefresh()
			continue
		}
		c.publish(endpoints)
		if c.logger != nil {
			c.logger.WithFields(logrus.Fields{
				"target":    c.Target(),
				"endpoints": len(endpoints),
				"elapsed":   c.clock.Since(started),
			}).Debug("resolution updated")
		}
	}
}

// publish replaces the endpoint set, clears any recorded resolution
// error, and marks resolution available to waiters.
func (c *Connector) publish(endpoints []resolver.Address) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.endpoints = endpoints
	c.resolveErr = nil
	if !c.published {
		c.published = true
		close(c.ready)
	}
}

// publishError records a failed resolution cycle. A previously published
// endpoint set is left untouched so stale-but-valid addresses remain
// usable.
func (c *Connector) publishError(err error) {
	c.mu.Lock()
	c.resolveErr = err
	c.mu.Unlock()
	if c.logger != nil {
		c.logger.WithField("target", c.Target()).WithError(err).Warn("resolution failed")
	}
}

// snapshot returns a copy of the current endpoint set along with the
// last recorded resolution error, if any.
func (c *Connector) snapshot() ([]resolver.Address, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	endpoints := make([]resolver.Address, len(c.endpoints))
	copy(endpoints, c.endpoints)
	return endpoints, c.resolveErr
}

// shuffle randomizes endpoint order in place, spreading load across
// equally-preferred addresses.
func (c *Connector) shuffle(endpoints []resolver.Address) {
	c.randMu.Lock()
	defer c.randMu.Unlock()
	c.rand.Shuffle(len(endpoints), func(i, j int) {
		endpoints[i], endpoints[j] = endpoints[j], endpoints[i]
	})
}
