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
	"bufio"
	"context"
	"net/http"
)

// HTTPSession is a Session that can also perform HTTP/1.1 round trips
// over its single underlying connection. It does no connection pooling
// or reuse beyond that one connection: requests are written directly to
// the established stream and responses are read back off it, in order.
//
// HTTPSession is not safe for concurrent use. A response body must be
// fully consumed or closed before the next call to Do.
type HTTPSession struct {
	Session
	reader *bufio.Reader
	host   string
}

// Do sends req over the session's connection and returns the response.
// If the request carries no Host, the connector's target hostname is
// used. The per-operation timeout configured on the connector bounds
// each read and write performed on the wire.
func (s *HTTPSession) Do(req *http.Request) (*http.Response, error) {
	if req.Host == "" && req.URL.Host == "" {
		req.Host = s.host
	}
	if err := req.Write(s.Session); err != nil {
		return nil, err
	}
	return http.ReadResponse(s.reader, req)
}

// httpDialer establishes the underlying stream via base (plain TCP for
// HTTP, TLS for HTTPS) and wraps it into an HTTPSession.
type httpDialer struct {
	base Dialer
	host string
}

func (d *httpDialer) DialEndpoint(ctx context.Context, hostPort string) (Session, error) {
	session, err := d.base.DialEndpoint(ctx, hostPort)
	if err != nil {
		return nil, err
	}
	return &HTTPSession{
		Session: session,
		reader:  bufio.NewReader(session),
		host:    d.host,
	}, nil
}
