// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package traceroute

import (
	"context"
	"errors"
	"net"
	"net/netip"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/telekom/pathmon/internal/helper"
	"github.com/telekom/pathmon/internal/probe"
	"github.com/telekom/pathmon/internal/resolver"
)

func newNames(t *testing.T) *resolver.Cache {
	t.Helper()
	r := &resolver.ResolverMock{
		LookupHostFunc: func(_ context.Context, host string) ([]string, error) {
			if host == "example.com" {
				return []string{target.String()}, nil
			}
			return nil, &net.DNSError{Err: "no such host", Name: host, IsNotFound: true}
		},
		LookupAddrFunc: func(_ context.Context, addr string) ([]string, error) {
			switch addr {
			case routerA.String():
				return []string{"gw.example.net."}, nil
			case target.String():
				return []string{"example.com."}, nil
			}
			return nil, &net.DNSError{Err: "no such host", Name: addr, IsNotFound: true}
		},
	}
	return resolver.NewCache(r, time.Minute, helper.RetryConfig{})
}

func TestDiscoverer_Discover(t *testing.T) {
	silent := netip.Addr{}
	tests := []struct {
		name     string
		target   string
		path     []netip.Addr
		opts     *Options
		gateway  net.IP
		want     []Hop
		wantErr  any
		wantCall int
	}{
		{
			name:   "reached with names and gateway",
			target: "example.com",
			path:   []netip.Addr{routerA, routerB, target},
			opts:   &Options{MaxTTL: 5, Attempts: 1, Timeout: time.Millisecond, Resolve: true},
			gateway: net.ParseIP(
				routerA.String(),
			),
			want: []Hop{
				{TTL: 1, Addr: routerA, Name: "gw.example.net", Gateway: true},
				{TTL: 2, Addr: routerB},
				{TTL: 3, Addr: target, Name: "example.com", Reached: true},
			},
		},
		{
			name:   "silent hop stays in place",
			target: target.String(),
			path:   []netip.Addr{routerA, silent, target},
			opts:   &Options{MaxTTL: 4, Attempts: 2, Timeout: time.Millisecond},
			want: []Hop{
				{TTL: 1, Addr: routerA},
				{TTL: 2},
				{TTL: 3, Addr: target, Reached: true},
			},
		},
		{
			name:   "routing loop keeps duplicates",
			target: target.String(),
			path:   []netip.Addr{routerA, routerA, target},
			opts:   &Options{MaxTTL: 3, Attempts: 1, Timeout: time.Millisecond},
			want: []Hop{
				{TTL: 1, Addr: routerA},
				{TTL: 2, Addr: routerA},
				{TTL: 3, Addr: target, Reached: true},
			},
		},
		{
			name:    "target not reached within budget",
			target:  target.String(),
			path:    []netip.Addr{routerA, routerB, routerA, routerB, target},
			opts:    &Options{MaxTTL: 3, Attempts: 1, Timeout: time.Millisecond},
			wantErr: &ErrExhausted{},
		},
		{
			name:    "unresolvable target",
			target:  "invalid.example",
			path:    []netip.Addr{target},
			opts:    &Options{MaxTTL: 3, Attempts: 1, Timeout: time.Millisecond},
			wantErr: &ErrDiscovery{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := &discoverer{
				prober: pathProber(tt.path...),
				names:  newNames(t),
				gateway: func() (net.IP, error) {
					if tt.gateway == nil {
						return nil, errors.New("no gateway")
					}
					return tt.gateway, nil
				},
			}

			got, err := d.Discover(t.Context(), tt.target, tt.opts)
			switch want := tt.wantErr.(type) {
			case *ErrExhausted:
				require.ErrorAs(t, err, &want)
				assert.Equal(t, tt.opts.MaxTTL, want.MaxTTL)
				return
			case *ErrDiscovery:
				require.ErrorAs(t, err, &want)
				assert.Equal(t, tt.target, want.Target)
				return
			}

			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, got, addrComparer, cmpopts.IgnoreFields(Hop{}, "Latency")); diff != "" {
				t.Errorf("Discover() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDiscoverer_Discover_permissionDenied(t *testing.T) {
	d := &discoverer{
		prober: &probe.ProberMock{
			ProbeFunc: func(context.Context, netip.Addr, int, time.Duration) probe.Result {
				return probe.Result{Outcome: probe.Failure(probe.ReasonPermissionDenied)}
			},
		},
		names: newNames(t),
	}

	_, err := d.Discover(t.Context(), target.String(), &Options{MaxTTL: 3, Attempts: 1})
	var derr *ErrDiscovery
	require.ErrorAs(t, err, &derr)
	var perr *ErrProbe
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, probe.ReasonPermissionDenied, perr.Reason)
}
