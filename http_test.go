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
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHTTPServer(t *testing.T, tlsConfig *tls.Config) net.Addr {
	t.Helper()
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	if tlsConfig != nil {
		listener = tls.NewListener(listener, tlsConfig)
	}
	server := &http.Server{
		Handler: http.HandlerFunc(func(writer http.ResponseWriter, req *http.Request) {
			if req.URL.Path != "/hello" {
				http.NotFound(writer, req)
				return
			}
			writer.Header().Set("Content-Type", "text/plain")
			_, _ = io.WriteString(writer, "hello, "+req.Host)
		}),
		ReadHeaderTimeout: time.Second,
	}
	go func() {
		_ = server.Serve(listener)
	}()
	t.Cleanup(func() {
		_ = server.Close()
	})
	return listener.Addr()
}

func roundTrip(t *testing.T, session Session, path string) *http.Response {
	t.Helper()
	httpSession, ok := session.(*HTTPSession)
	require.True(t, ok)
	req, err := http.NewRequest(http.MethodGet, path, nil)
	require.NoError(t, err)
	resp, err := httpSession.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = resp.Body.Close()
	})
	return resp
}

func TestHTTPSessionRoundTrips(t *testing.T) {
	t.Parallel()

	addr := startHTTPServer(t, nil)
	connector := hostPortConnector(t, addr.String(),
		WithStreamKind(HTTP),
		WithOperationTimeout(time.Second),
	)

	session, err := connector.NewSession(sessionContext(t))
	require.NoError(t, err)
	defer session.Close()
	assert.Equal(t, HTTP, session.Kind())

	resp := roundTrip(t, session, "/hello")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "hello, 127.0.0.1", string(body))

	// The same session serves subsequent requests over the same
	// connection, in order.
	resp = roundTrip(t, session, "/missing")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	_, err = io.Copy(io.Discard, resp.Body)
	require.NoError(t, err)
}

func TestHTTPSSessionRoundTrips(t *testing.T) {
	t.Parallel()

	serverConfig, clientConfig := localhostTLSConfigs(t)
	addr := startHTTPServer(t, serverConfig)
	connector := hostPortConnector(t, addr.String(),
		WithStreamKind(HTTPS),
		WithTLSConfig(clientConfig),
		WithOperationTimeout(time.Second),
	)

	session, err := connector.NewSession(sessionContext(t))
	require.NoError(t, err)
	defer session.Close()
	assert.Equal(t, HTTPS, session.Kind())

	resp := roundTrip(t, session, "/hello")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "hello, 127.0.0.1", string(body))
}
