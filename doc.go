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

// Package streamdial hands out ready-to-use client connections to a
// host:port target whose resolved addresses are kept continuously fresh
// by a background resolution loop.
//
// To create a new connector use the [New] function. It accepts numerous
// options for configuring timeouts, the transport kind of the sessions
// produced ([WithStreamKind]), the name resolution behavior
// ([WithAddressFamily], [WithResolver]) and the connection establishment
// itself ([WithDialer], [WithTLSConfig]).
//
// A [Connector] starts resolving immediately upon construction, in the
// background. Each call to [Connector.NewSession] waits (bounded by the
// caller's deadline) until at least one resolution has completed, then
// tries the resolved endpoints in uniformly shuffled order until one of
// them yields a connection. Endpoint ordering is randomized fairness,
// not latency- or health-weighted. Failing to obtain a connection, or
// even succeeding, re-arms the background refresh, so the endpoint set
// self-heals under steady traffic.
//
// The connector also has a notion of "closing", via its Close method.
// This stops the background resolution loop and waits for it to exit;
// the wait is bounded by a small multiple of the loop's poll interval.
// Sessions already handed out are fully owned by their callers and
// remain usable after the connector is closed.
//
// Five stream kinds are supported: plain TCP, connected UDP, TLS
// (verified against the target hostname), and HTTP/HTTPS, whose
// sessions can additionally perform round trips over their single
// underlying connection. Every successful NewSession call produces a
// new, independent session: this package deliberately does no
// connection pooling or reuse, and no retrying after a session has been
// handed out.
package streamdial
