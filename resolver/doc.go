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

// Package resolver provides the name resolution interface used by the
// [github.com/streamdial/streamdial] package and its default
// implementations.
//
// A [Resolver] performs a single blocking resolution; the connector's
// background loop invokes it repeatedly whenever a refresh has been
// requested. [NewDNSResolver] resolves through the standard library's
// net.Resolver. [NewClientResolver] resolves through an explicitly
// configured DNS server, which is useful when the system resolver must
// be bypassed.
package resolver
