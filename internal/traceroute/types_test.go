// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package traceroute

import (
	"encoding/json"
	"net/netip"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var addrComparer = cmp.Comparer(func(a, b netip.Addr) bool { return a == b })

func TestOptions_withDefaults(t *testing.T) {
	tests := []struct {
		name string
		opts *Options
		want Options
	}{
		{
			name: "nil options",
			opts: nil,
			want: Options{MaxTTL: DefaultMaxTTL, Timeout: DefaultTimeout, Attempts: DefaultAttempts},
		},
		{
			name: "negative values",
			opts: &Options{MaxTTL: -1, Timeout: -time.Second, Attempts: -3},
			want: Options{MaxTTL: DefaultMaxTTL, Timeout: DefaultTimeout, Attempts: DefaultAttempts},
		},
		{
			name: "set values are kept",
			opts: &Options{MaxTTL: 5, Timeout: time.Second, Attempts: 1, Resolve: true},
			want: Options{MaxTTL: 5, Timeout: time.Second, Attempts: 1, Resolve: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.opts.withDefaults())
		})
	}
}

func TestHop_String(t *testing.T) {
	tests := []struct {
		name     string
		hop      Hop
		contains []string
	}{
		{
			name:     "silent hop",
			hop:      Hop{TTL: 3},
			contains: []string{"3", "*"},
		},
		{
			name:     "address without name",
			hop:      Hop{TTL: 1, Addr: routerA, Latency: 1500 * time.Microsecond},
			contains: []string{"192.0.2.1", "1.5ms"},
		},
		{
			name:     "named target",
			hop:      Hop{TTL: 7, Addr: target, Name: "example.com", Reached: true},
			contains: []string{"example.com", "(reached)"},
		},
		{
			name:     "overlong name falls back to address",
			hop:      Hop{TTL: 2, Addr: routerB, Name: strings.Repeat("a", 50)},
			contains: []string{"198.51.100.1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := tt.hop.String()
			for _, c := range tt.contains {
				assert.Contains(t, s, c)
			}
		})
	}
}

func TestHop_MarshalJSON(t *testing.T) {
	b, err := json.Marshal(Hop{TTL: 2, Addr: routerA, Name: "r1.example.net", Latency: 2 * time.Millisecond})
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(b, &got))
	assert.Equal(t, "2ms", got["latency"])
	assert.Equal(t, "192.0.2.1", got["addr"])
	assert.Equal(t, "r1.example.net", got["name"])
	assert.InDelta(t, 2, got["ttl"], 0)
	assert.NotContains(t, got, "gateway")
}

func TestIsFatal(t *testing.T) {
	assert.True(t, isFatal("permission-denied"))
	assert.True(t, isFatal("send-failed"))
	assert.False(t, isFatal("ttl-exceeded"))
	assert.False(t, isFatal("canceled"))
	assert.False(t, isFatal("port-unreachable"))
}

func TestErrors(t *testing.T) {
	assert.EqualError(t, &ErrExhausted{Target: "example.com", MaxTTL: 30}, "target example.com not reached within 30 hops")
	assert.EqualError(t, &ErrProbe{TTL: 4, Reason: "send-failed"}, "probe with ttl 4 failed: send-failed")

	inner := &ErrProbe{TTL: 1, Reason: "permission-denied"}
	err := &ErrDiscovery{Target: "example.com", Err: inner}
	var perr *ErrProbe
	assert.ErrorAs(t, err, &perr)
	assert.Contains(t, err.Error(), "discovery of example.com failed")
}
