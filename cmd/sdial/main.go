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

// sdial is a small diagnostic tool: it resolves a target, establishes
// one session of the requested kind, and reports what it connected to
// and how long that took. HTTP kinds additionally issue a GET request
// and report the status line.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	flag "github.com/spf13/pflag"

	"github.com/streamdial/streamdial"
	"github.com/streamdial/streamdial/resolver"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "sdial: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("sdial", flag.ContinueOnError)

	kindName := fs.StringP("kind", "k", "tcp", "Stream kind: tcp, udp, tls, http or https")
	connectTimeout := fs.DurationP("timeout", "w", 10*time.Second, "Overall connect deadline")
	resolveTimeout := fs.Duration("resolve-timeout", 5*time.Second, "Per-cycle resolve timeout")
	opTimeout := fs.Duration("op-timeout", 10*time.Second, "Per-read/write timeout on the session")
	family := fs.String("family", "any", "Address family: any, prefer4, prefer6, require4 or require6")
	dnsServer := fs.String("dns-server", "", "Resolve via this DNS server (ip:port) instead of the system resolver")
	path := fs.StringP("path", "P", "/", "Request path for http/https kinds")
	verbose := fs.BoolP("verbose", "v", false, "Log resolution cycles and connect attempts")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 2 {
		fmt.Fprintf(os.Stderr, "usage: sdial [options] <host> <port>\n")
		fs.PrintDefaults()
		return fmt.Errorf("expected host and port arguments")
	}
	host, port := fs.Arg(0), fs.Arg(1)

	kind, err := parseKind(*kindName)
	if err != nil {
		return err
	}
	affinity, err := parseFamily(*family)
	if err != nil {
		return err
	}

	opts := []streamdial.Option{
		streamdial.WithStreamKind(kind),
		streamdial.WithConnectTimeout(*connectTimeout),
		streamdial.WithResolveTimeout(*resolveTimeout),
		streamdial.WithOperationTimeout(*opTimeout),
		streamdial.WithAddressFamily(affinity),
	}
	if *verbose {
		logger := logrus.New()
		logger.SetLevel(logrus.DebugLevel)
		opts = append(opts, streamdial.WithLogger(logger))
	}
	if *dnsServer != "" {
		res, err := resolver.NewClientResolver(*dnsServer, "udp", host, port,
			resolver.WithAffinity(affinity))
		if err != nil {
			return err
		}
		opts = append(opts, streamdial.WithResolver(res))
	}

	connector, err := streamdial.New(host, port, opts...)
	if err != nil {
		return err
	}
	defer connector.Close()

	started := time.Now()
	session, err := connector.NewSession(ctx)
	if err != nil {
		return err
	}
	defer session.Close()
	fmt.Printf("connected %s -> %s (%s) in %s\n",
		connector.Target(), session.RemoteAddr(), session.Kind(), time.Since(started).Round(time.Millisecond))

	if httpSession, ok := session.(*streamdial.HTTPSession); ok {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, *path, nil)
		if err != nil {
			return err
		}
		resp, err := httpSession.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		fmt.Printf("GET %s: %s\n", *path, resp.Status)
	}
	return nil
}

func parseKind(name string) (streamdial.StreamKind, error) {
	switch name {
	case "tcp":
		return streamdial.TCP, nil
	case "udp":
		return streamdial.UDP, nil
	case "tls":
		return streamdial.TLS, nil
	case "http":
		return streamdial.HTTP, nil
	case "https":
		return streamdial.HTTPS, nil
	default:
		return 0, fmt.Errorf("unknown stream kind %q", name)
	}
}

func parseFamily(name string) (resolver.AddressFamilyAffinity, error) {
	switch name {
	case "any":
		return resolver.UseBothIPv4AndIPv6, nil
	case "prefer4":
		return resolver.PreferIPv4, nil
	case "prefer6":
		return resolver.PreferIPv6, nil
	case "require4":
		return resolver.RequireIPv4, nil
	case "require6":
		return resolver.RequireIPv6, nil
	default:
		return 0, fmt.Errorf("unknown address family %q", name)
	}
}
