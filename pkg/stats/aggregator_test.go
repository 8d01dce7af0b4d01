// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package stats

import (
	"math/rand/v2"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/telekom/pathmon/internal/probe"
)

var t0 = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func ms(v float64) time.Duration {
	return time.Duration(v * float64(time.Millisecond))
}

func ptr(v float64) *float64 {
	return &v
}

// results builds probe results one second apart. A negative latency is a timeout.
func results(latencies ...float64) []probe.Result {
	res := make([]probe.Result, 0, len(latencies))
	for i, l := range latencies {
		r := probe.Result{Time: t0.Add(time.Duration(i) * time.Second)}
		if l < 0 {
			r.Outcome = probe.Timeout()
		} else {
			r.Outcome = probe.Success(ms(l))
		}
		res = append(res, r)
	}
	return res
}

func fold(a *Aggregator, res []probe.Result) {
	for _, r := range res {
		a.Fold(r)
	}
}

func TestAggregator_Fold(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		results []probe.Result
		want    Statistics
	}{
		{
			name: "no results",
			want: Statistics{TimeSeries: []Point{}},
		},
		{
			name:    "success then timeout",
			results: results(10, -1),
			want: Statistics{
				CurrentLatencyMs: ptr(10),
				MinLatencyMs:     ptr(10),
				MaxLatencyMs:     ptr(10),
				RollingAvgMs:     ptr(10),
				RollingLossPct:   50,
				SessionAvgMs:     ptr(10),
				SessionLossPct:   50,
				SampleCount:      2,
				SuccessCount:     1,
				LossCount:        1,
				TimeSeries: []Point{
					{Time: t0, LatencyMs: 10},
					{Time: t0.Add(time.Second), Lost: true},
				},
			},
		},
		{
			name:    "jitter skips lost probes",
			results: results(10, 12, -1, 9),
			want: Statistics{
				CurrentLatencyMs: ptr(9),
				MinLatencyMs:     ptr(9),
				MaxLatencyMs:     ptr(12),
				RollingAvgMs:     ptr(31.0 / 3),
				RollingJitterMs:  ptr(2.5),
				RollingLossPct:   25,
				SessionAvgMs:     ptr(31.0 / 3),
				SessionLossPct:   25,
				SampleCount:      4,
				SuccessCount:     3,
				LossCount:        1,
				TimeSeries: []Point{
					{Time: t0, LatencyMs: 10},
					{Time: t0.Add(time.Second), LatencyMs: 12},
					{Time: t0.Add(2 * time.Second), Lost: true},
					{Time: t0.Add(3 * time.Second), LatencyMs: 9},
				},
			},
		},
		{
			name:    "rolling window only covers the last probes",
			cfg:     Config{Window: 2, Retention: 3},
			results: results(-1, -1, 20, 30),
			want: Statistics{
				CurrentLatencyMs: ptr(30),
				MinLatencyMs:     ptr(20),
				MaxLatencyMs:     ptr(30),
				RollingAvgMs:     ptr(25),
				RollingJitterMs:  ptr(10),
				RollingLossPct:   0,
				SessionAvgMs:     ptr(25),
				SessionLossPct:   50,
				SampleCount:      4,
				SuccessCount:     2,
				LossCount:        2,
				TimeSeries: []Point{
					{Time: t0.Add(time.Second), Lost: true},
					{Time: t0.Add(2 * time.Second), LatencyMs: 20},
					{Time: t0.Add(3 * time.Second), LatencyMs: 30},
				},
			},
		},
		{
			name:    "unreachable hop keeps the last known latency",
			cfg:     Config{Window: 3},
			results: results(5, -1, -1, -1),
			want: Statistics{
				CurrentLatencyMs: ptr(5),
				MinLatencyMs:     ptr(5),
				MaxLatencyMs:     ptr(5),
				RollingLossPct:   100,
				SessionAvgMs:     ptr(5),
				SessionLossPct:   75,
				SampleCount:      4,
				SuccessCount:     1,
				LossCount:        3,
				TimeSeries: []Point{
					{Time: t0, LatencyMs: 5},
					{Time: t0.Add(time.Second), Lost: true},
					{Time: t0.Add(2 * time.Second), Lost: true},
					{Time: t0.Add(3 * time.Second), Lost: true},
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := New(tt.cfg)
			fold(a, tt.results)

			got := a.Snapshot()
			if diff := cmp.Diff(tt.want, got, cmpFloat); diff != "" {
				t.Errorf("Snapshot() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

var cmpFloat = cmp.Comparer(func(a, b float64) bool {
	const eps = 1e-9
	d := a - b
	return d < eps && d > -eps
})

func TestAggregator_Fold_errorReason(t *testing.T) {
	a := New(Config{})
	a.Fold(probe.Result{Time: t0, Outcome: probe.Failure(probe.ReasonHostUnreachable)})
	a.Fold(probe.Result{Time: t0.Add(time.Second), Outcome: probe.Timeout()})

	s := a.Snapshot()
	assert.Equal(t, probe.ReasonHostUnreachable, s.LastError)
	assert.Nil(t, s.CurrentLatencyMs)
	assert.Equal(t, uint64(2), s.LossCount)
	assert.InDelta(t, 100, s.RollingLossPct, 0)
}

func TestAggregator_properties(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	for _, window := range []int{1, 5, 20} {
		a := New(Config{Window: window, Retention: 50})

		var (
			outcomes  []bool
			latencies []float64
		)
		for i := range 500 {
			lost := rng.IntN(4) == 0
			l := float64(rng.IntN(2000)) / 10
			r := probe.Result{Time: t0.Add(time.Duration(i) * time.Second), Outcome: probe.Success(ms(l))}
			if lost {
				r.Outcome = probe.Timeout()
			} else {
				latencies = append(latencies, l)
			}
			outcomes = append(outcomes, lost)
			a.Fold(r)

			s := a.Snapshot()
			n := len(outcomes)
			require.Equal(t, uint64(n), s.SampleCount)

			w := min(window, n)
			losses := 0
			for _, lost := range outcomes[n-w:] {
				if lost {
					losses++
				}
			}
			require.InDelta(t, 100*float64(losses)/float64(w), s.RollingLossPct, 1e-9)
			require.GreaterOrEqual(t, s.RollingLossPct, 0.0)
			require.LessOrEqual(t, s.SessionLossPct, 100.0)

			if len(latencies) > 0 {
				var sum float64
				for _, l := range latencies {
					sum += l
				}
				require.NotNil(t, s.SessionAvgMs)
				require.InDelta(t, sum/float64(len(latencies)), *s.SessionAvgMs, 1e-9)
			}

			require.LessOrEqual(t, len(s.TimeSeries), 50)
			require.True(t, slices.IsSortedFunc(s.TimeSeries, func(a, b Point) int {
				return a.Time.Compare(b.Time)
			}))
		}
	}
}

func TestAggregator_retention(t *testing.T) {
	a := New(Config{Window: 2, Retention: 5})
	lat := make([]float64, 12)
	for i := range lat {
		lat[i] = float64(i)
	}
	fold(a, results(lat...))

	s := a.Snapshot()
	require.Len(t, s.TimeSeries, 5)
	for i, p := range s.TimeSeries {
		assert.Equal(t, t0.Add(time.Duration(7+i)*time.Second), p.Time)
		assert.InDelta(t, float64(7+i), p.LatencyMs, 0)
	}
	assert.Equal(t, uint64(12), s.SampleCount)
}

func TestAggregator_nudgesTimestamps(t *testing.T) {
	a := New(Config{})
	a.Fold(probe.Result{Time: t0, Outcome: probe.Success(time.Millisecond)})
	a.Fold(probe.Result{Time: t0, Outcome: probe.Timeout()})
	a.Fold(probe.Result{Time: t0.Add(-time.Second), Outcome: probe.Timeout()})

	ts := a.Snapshot().TimeSeries
	require.Len(t, ts, 3)
	assert.Equal(t, t0.Add(time.Nanosecond), ts[1].Time)
	assert.Equal(t, t0.Add(2*time.Nanosecond), ts[2].Time)
}

func TestAggregator_snapshotIsImmutable(t *testing.T) {
	a := New(Config{Window: 2, Retention: 3})
	fold(a, results(1, 2, 3))

	before := a.Snapshot()
	want := slices.Clone(before.TimeSeries)

	lat := make([]float64, 20)
	for i := range lat {
		lat[i] = float64(100 + i)
	}
	for i, r := range results(lat...) {
		r.Time = r.Time.Add(time.Hour + time.Duration(i))
		a.Fold(r)
	}

	assert.Equal(t, want, before.TimeSeries)
	assert.Equal(t, uint64(3), before.SampleCount)
	assert.Equal(t, len(before.TimeSeries), cap(before.TimeSeries))
}

func TestAggregator_concurrentSnapshots(t *testing.T) {
	a := New(Config{Window: 10, Retention: 64})
	stop := make(chan struct{})

	var wg sync.WaitGroup
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				s := a.Snapshot()
				if s.SampleCount != s.SuccessCount+s.LossCount {
					t.Errorf("torn snapshot: %d != %d + %d", s.SampleCount, s.SuccessCount, s.LossCount)
					return
				}
				if uint64(len(s.TimeSeries)) > s.SampleCount {
					t.Errorf("time series longer than sample count: %d > %d", len(s.TimeSeries), s.SampleCount)
					return
				}
			}
		}()
	}

	for i := range 2000 {
		r := probe.Result{Time: t0.Add(time.Duration(i) * time.Millisecond), Outcome: probe.Success(time.Millisecond)}
		if i%3 == 0 {
			r.Outcome = probe.Timeout()
		}
		a.Fold(r)
	}
	close(stop)
	wg.Wait()

	assert.Equal(t, uint64(2000), a.Snapshot().SampleCount)
}

func TestAggregator_Restore(t *testing.T) {
	cfg := Config{Window: 4, Retention: 10}
	src := New(cfg)
	fold(src, results(10, -1, 12, 14, -1, 11))
	want := src.Snapshot()

	dst := New(cfg)
	dst.Restore(want.Counters(), slices.Clone(want.TimeSeries))

	got := dst.Snapshot()
	if diff := cmp.Diff(want.WithoutSeries(), got.WithoutSeries(), cmpFloat); diff != "" {
		t.Errorf("Restore() mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, want.TimeSeries, got.TimeSeries)

	// Folding continues from the restored state.
	dst.Fold(probe.Result{Time: t0.Add(time.Minute), Outcome: probe.Success(ms(13))})
	assert.Equal(t, uint64(7), dst.Snapshot().SampleCount)
	assert.InDelta(t, 12, *dst.Snapshot().SessionAvgMs, 1e-9)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{name: "defaults", cfg: Config{}},
		{name: "valid", cfg: Config{Window: 20, Retention: 3600}},
		{name: "negative window", cfg: Config{Window: -1}, wantErr: true},
		{name: "negative retention", cfg: Config{Retention: -1}, wantErr: true},
		{name: "retention below window", cfg: Config{Window: 20, Retention: 10}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidConfig)
				return
			}
			assert.NoError(t, err)
		})
	}
}
