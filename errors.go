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
	"errors"
	"fmt"
)

// ErrNoEndpoints is reported when resolution succeeded but produced an
// empty endpoint set, so there was nothing to connect to.
var ErrNoEndpoints = errors.New("resolution produced no endpoints")

// ResolutionError indicates that name resolution for the target failed
// and no usable endpoint set exists. The cause is available via
// errors.Unwrap.
type ResolutionError struct {
	Target string
	Cause  error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("resolve %s: %v", e.Target, e.Cause)
}

func (e *ResolutionError) Unwrap() error {
	return e.Cause
}

// TimeoutError indicates that the caller's deadline expired, either
// while waiting for the first resolution to complete or before any
// connect attempt could finish. It matches context.DeadlineExceeded
// under errors.Is.
type TimeoutError struct {
	Target string
	Phase  string
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Phase, e.Target, context.DeadlineExceeded)
}

func (e *TimeoutError) Unwrap() error {
	return context.DeadlineExceeded
}

// ConnectError indicates that the transport handshake to one specific
// endpoint failed. The underlying transport error is available via
// errors.Unwrap.
type ConnectError struct {
	Endpoint string
	Cause    error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("connect %s: %v", e.Endpoint, e.Cause)
}

func (e *ConnectError) Unwrap() error {
	return e.Cause
}

// ExhaustedError indicates that every known endpoint was tried without
// producing a session. Last holds the most recent *ConnectError, or the
// *ResolutionError (or ErrNoEndpoints) when no endpoints were available
// to try.
type ExhaustedError struct {
	Target   string
	Attempts int
	Last     error
}

func (e *ExhaustedError) Error() string {
	if e.Attempts == 0 {
		return fmt.Sprintf("no endpoints for %s: %v", e.Target, e.Last)
	}
	return fmt.Sprintf("all %d endpoints for %s failed, last: %v", e.Attempts, e.Target, e.Last)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Last
}
