// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"context"
	"errors"
	"net/netip"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/telekom/pathmon/internal/probe"
	"github.com/telekom/pathmon/internal/traceroute"
	"github.com/telekom/pathmon/pkg/stats"
)

var (
	target = netip.MustParseAddr("203.0.113.10")
	path   = []traceroute.Hop{
		{TTL: 1, Addr: netip.MustParseAddr("192.0.2.1"), Name: "gw.example.net", Gateway: true},
		{TTL: 2},
		{TTL: 3, Addr: target, Name: "example.com", Reached: true},
	}
)

const waitFor = 3 * time.Second

func discovererFor(hops []traceroute.Hop, err error) *traceroute.DiscovererMock {
	return &traceroute.DiscovererMock{
		DiscoverFunc: func(context.Context, string, *traceroute.Options) ([]traceroute.Hop, error) {
			return hops, err
		},
	}
}

func successProber() *probe.ProberMock {
	return &probe.ProberMock{
		ProbeFunc: func(_ context.Context, addr netip.Addr, _ int, _ time.Duration) probe.Result {
			return probe.Result{Time: time.Now(), Outcome: probe.Success(2 * time.Millisecond), From: addr}
		},
	}
}

// allSampled reports whether every hop of the snapshot has at least n samples.
func allSampled(c *Controller, n uint64) func() bool {
	return func() bool {
		s := c.Snapshot()
		if len(s.Statistics) == 0 {
			return false
		}
		for _, st := range s.Statistics {
			if st.SampleCount < n {
				return false
			}
		}
		return true
	}
}

func sampleCounts(s Snapshot) map[int]uint64 {
	counts := map[int]uint64{}
	for i, st := range s.Statistics {
		counts[i] = st.SampleCount
	}
	return counts
}

func TestController_Start(t *testing.T) {
	d := discovererFor(path, nil)
	p := successProber()
	c := NewController(d, p, Config{Discovery: traceroute.Options{MaxTTL: 10}}, nil)

	require.NoError(t, c.Start(t.Context(), "example.com", MinInterval))
	defer func() { _ = c.Stop() }()

	require.Eventually(t, allSampled(c, 1), waitFor, 5*time.Millisecond)
	s := c.Snapshot()
	assert.Equal(t, StateRunning, s.State)
	assert.Equal(t, "example.com", s.Target)
	assert.Equal(t, target, s.Address)
	assert.Equal(t, MinInterval, s.Interval)
	require.Len(t, s.Hops, 3)
	require.Len(t, s.Statistics, 3)
	for i, h := range s.Hops {
		assert.Equal(t, i+1, h.Index)
	}
	assert.Equal(t, "gw.example.net", s.Hops[0].DisplayName)
	assert.True(t, s.Hops[0].Gateway)
	assert.False(t, s.Hops[1].Reachable)
	assert.True(t, s.Hops[2].Reachable)
	assert.InDelta(t, 100, s.Statistics[2].RollingLossPct, 0)

	calls := d.DiscoverCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, "example.com", calls[0].Target)
	assert.Equal(t, 10, calls[0].Opts.MaxTTL)

	assert.ErrorIs(t, c.Start(t.Context(), "example.com", MinInterval), ErrInvalidTransition)
}

func TestController_Start_invalidArguments(t *testing.T) {
	tests := []struct {
		name     string
		target   string
		interval time.Duration
		wantErr  error
	}{
		{name: "empty target", target: "", interval: MinInterval, wantErr: ErrInvalidTarget},
		{name: "interval too short", target: "example.com", interval: 500 * time.Millisecond, wantErr: ErrInvalidInterval},
		{name: "interval too long", target: "example.com", interval: 11 * time.Second, wantErr: ErrInvalidInterval},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := discovererFor(path, nil)
			c := NewController(d, successProber(), Config{}, nil)

			assert.ErrorIs(t, c.Start(t.Context(), tt.target, tt.interval), tt.wantErr)
			assert.Equal(t, StateIdle, c.State())
			assert.Empty(t, d.DiscoverCalls())
		})
	}
}

func TestController_Start_discoveryFailure(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{name: "exhausted", err: &traceroute.ErrExhausted{Target: "example.com", MaxTTL: 30}},
		{name: "discovery error", err: &traceroute.ErrDiscovery{Target: "example.com", Err: errors.New("permission denied")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &probe.ProberMock{}
			c := NewController(discovererFor(nil, tt.err), p, Config{}, nil)

			err := c.Start(t.Context(), "example.com", DefaultInterval)
			assert.ErrorIs(t, err, tt.err)

			s := c.Snapshot()
			assert.Equal(t, StateFailed, s.State)
			assert.Equal(t, tt.err.Error(), s.Error)
			assert.Empty(t, s.Hops)
			assert.Empty(t, s.Statistics)
			assert.Empty(t, p.ProbeCalls())

			assert.ErrorIs(t, c.Pause(), ErrInvalidTransition)
			assert.ErrorIs(t, c.Stop(), ErrInvalidTransition)

			// A failed session can be started again.
			c.discoverer = discovererFor(path, nil)
			c.prober = successProber()
			require.NoError(t, c.Start(t.Context(), "example.com", DefaultInterval))
			assert.Empty(t, c.Snapshot().Error)
			require.NoError(t, c.Stop())
		})
	}
}

func TestController_pauseResume(t *testing.T) {
	c := NewController(discovererFor(path, nil), successProber(), Config{}, nil)
	require.NoError(t, c.Start(t.Context(), "example.com", MinInterval))
	defer func() { _ = c.Stop() }()
	require.Eventually(t, allSampled(c, 1), waitFor, 5*time.Millisecond)

	require.NoError(t, c.Pause())
	assert.Equal(t, StatePaused, c.State())
	assert.ErrorIs(t, c.Pause(), ErrInvalidTransition)

	before := sampleCounts(c.Snapshot())
	time.Sleep(MinInterval + 200*time.Millisecond)
	assert.Equal(t, before, sampleCounts(c.Snapshot()))

	require.NoError(t, c.Resume())
	assert.Equal(t, StateRunning, c.State())
	assert.ErrorIs(t, c.Resume(), ErrInvalidTransition)
	require.Eventually(t, func() bool {
		for i, n := range sampleCounts(c.Snapshot()) {
			if n <= before[i] {
				return false
			}
		}
		return true
	}, waitFor, 5*time.Millisecond)
}

func TestController_Stop(t *testing.T) {
	p := successProber()
	c := NewController(discovererFor(path, nil), p, Config{}, NewMetrics())
	require.NoError(t, c.Start(t.Context(), "example.com", MinInterval))
	require.Eventually(t, allSampled(c, 1), waitFor, 5*time.Millisecond)

	require.NoError(t, c.Stop())
	assert.Equal(t, StateStopped, c.State())
	assert.Nil(t, c.monitors)

	s := c.Snapshot()
	assert.Equal(t, StateStopped, s.State)
	assert.Len(t, s.Hops, 3)
	calls := len(p.ProbeCalls())
	time.Sleep(MinInterval + 200*time.Millisecond)
	assert.Len(t, p.ProbeCalls(), calls)
	assert.Equal(t, sampleCounts(s), sampleCounts(c.Snapshot()))

	assert.ErrorIs(t, c.Stop(), ErrInvalidTransition)
	assert.ErrorIs(t, c.Resume(), ErrInvalidTransition)

	// A new start creates a fresh session.
	require.NoError(t, c.Start(t.Context(), "example.com", MinInterval))
	defer func() { _ = c.Stop() }()
	assert.True(t, c.Snapshot().CreatedAt.After(s.CreatedAt))
}

func TestController_Stop_duringDiscovery(t *testing.T) {
	started := make(chan struct{})
	d := &traceroute.DiscovererMock{
		DiscoverFunc: func(ctx context.Context, target string, _ *traceroute.Options) ([]traceroute.Hop, error) {
			close(started)
			<-ctx.Done()
			return nil, &traceroute.ErrDiscovery{Target: target, Err: ctx.Err()}
		},
	}
	c := NewController(d, &probe.ProberMock{}, Config{}, nil)

	errCh := make(chan error, 1)
	go func() { errCh <- c.Start(context.Background(), "example.com", MinInterval) }()
	<-started
	assert.Equal(t, StateDiscovering, c.State())
	assert.ErrorIs(t, c.Pause(), ErrInvalidTransition)

	require.NoError(t, c.Stop())
	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, ErrAborted)
	case <-time.After(waitFor):
		t.Fatal("Start did not return")
	}
	assert.Equal(t, StateStopped, c.State())
	assert.Empty(t, c.Snapshot().Hops)
}

func TestController_Start_afterAbortedDiscovery(t *testing.T) {
	oldPath := []traceroute.Hop{
		{TTL: 1, Addr: netip.MustParseAddr("198.51.100.1")},
		{TTL: 2, Addr: netip.MustParseAddr("198.51.100.20"), Reached: true},
	}
	tests := []struct {
		name     string
		oldHops  []traceroute.Hop
		oldError bool
	}{
		{name: "aborted discovery fails late", oldError: true},
		{name: "aborted discovery returns hops late", oldHops: oldPath},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var (
				oldStarted = make(chan struct{})
				newStarted = make(chan struct{})
				oldDone    = make(chan struct{})
			)
			d := &traceroute.DiscovererMock{
				DiscoverFunc: func(ctx context.Context, target string, _ *traceroute.Options) ([]traceroute.Hop, error) {
					if target == "old.example" {
						close(oldStarted)
						<-ctx.Done()
						// Returns only once the next session is discovering.
						<-newStarted
						if tt.oldError {
							return nil, &traceroute.ErrDiscovery{Target: target, Err: ctx.Err()}
						}
						return tt.oldHops, nil
					}
					close(newStarted)
					<-oldDone
					return path, nil
				},
			}
			c := NewController(d, successProber(), Config{}, nil)
			defer func() { _ = c.Stop() }()

			oldErr := make(chan error, 1)
			go func() {
				oldErr <- c.Start(context.Background(), "old.example", MinInterval)
				close(oldDone)
			}()
			<-oldStarted
			require.NoError(t, c.Stop())

			newErr := make(chan error, 1)
			go func() { newErr <- c.Start(context.Background(), "new.example", MinInterval) }()

			for _, ch := range []chan error{oldErr, newErr} {
				select {
				case err := <-ch:
					if ch == oldErr {
						assert.ErrorIs(t, err, ErrAborted)
					} else {
						assert.NoError(t, err)
					}
				case <-time.After(waitFor):
					t.Fatal("Start did not return")
				}
			}

			s := c.Snapshot()
			assert.Equal(t, StateRunning, s.State)
			assert.Equal(t, "new.example", s.Target)
			assert.Empty(t, s.Error)
			require.Len(t, s.Hops, len(path))
			assert.Equal(t, target, s.Address)
		})
	}
}

func TestController_Restore(t *testing.T) {
	c := NewController(discovererFor(path, nil), successProber(), Config{}, nil)
	saved := &Snapshot{
		State:     StateRunning,
		Target:    "example.com",
		Address:   target,
		CreatedAt: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
		Interval:  2 * time.Second,
		Hops:      []Hop{{Index: 1, Address: target, DisplayName: "example.com", Reachable: true}},
		Statistics: map[int]stats.Statistics{
			1: {SampleCount: 1, SuccessCount: 1},
		},
	}

	require.NoError(t, c.Restore(saved))
	s := c.Snapshot()
	assert.Equal(t, StateStopped, s.State)
	assert.Equal(t, saved.Hops, s.Hops)
	assert.Equal(t, saved.Statistics, s.Statistics)
	assert.Equal(t, StateRunning, saved.State, "restore must not modify its argument")

	require.NoError(t, c.Start(t.Context(), "example.com", MinInterval))
	defer func() { _ = c.Stop() }()
	assert.ErrorIs(t, c.Restore(saved), ErrInvalidTransition)
}

func TestController_SubscribeRun(t *testing.T) {
	c := NewController(discovererFor(path, nil), successProber(), Config{}, nil)

	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()
	subCtx, unsubscribe := context.WithCancel(ctx)
	ch := c.Subscribe(subCtx)

	var runErr atomic.Value
	go func() { runErr.Store(c.Run(ctx)) }()

	select {
	case s := <-ch:
		assert.Equal(t, StateIdle, s.State)
	case <-time.After(waitFor):
		t.Fatal("no snapshot published")
	}

	unsubscribe()
	require.Eventually(t, func() bool {
		_, ok := <-ch
		return !ok
	}, waitFor, time.Millisecond)

	cancel()
	require.Eventually(t, func() bool { return runErr.Load() != nil }, waitFor, time.Millisecond)
	assert.ErrorIs(t, runErr.Load().(error), context.Canceled)
}
