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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorTaxonomy(t *testing.T) {
	t.Parallel()

	cause := errors.New("boom")

	resolutionErr := &ResolutionError{Target: "example.com:80", Cause: cause}
	require.ErrorIs(t, resolutionErr, cause)
	assert.Contains(t, resolutionErr.Error(), "example.com:80")

	timeoutErr := &TimeoutError{Target: "example.com:80", Phase: "connecting to"}
	require.ErrorIs(t, timeoutErr, context.DeadlineExceeded)

	connectErr := &ConnectError{Endpoint: "10.0.0.1:80", Cause: cause}
	require.ErrorIs(t, connectErr, cause)
	assert.Contains(t, connectErr.Error(), "10.0.0.1:80")

	// Exhaustion preserves the full chain: callers can still pull out
	// the endpoint-level failure and its transport cause.
	exhaustedErr := &ExhaustedError{Target: "example.com:80", Attempts: 3, Last: connectErr}
	require.ErrorIs(t, exhaustedErr, cause)
	var unwrapped *ConnectError
	require.ErrorAs(t, exhaustedErr, &unwrapped)
	assert.Equal(t, "10.0.0.1:80", unwrapped.Endpoint)

	emptyErr := &ExhaustedError{Target: "example.com:80", Last: ErrNoEndpoints}
	require.ErrorIs(t, emptyErr, ErrNoEndpoints)
	assert.Contains(t, emptyErr.Error(), "no endpoints")
}
