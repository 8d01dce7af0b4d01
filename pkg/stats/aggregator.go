// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

// Package stats aggregates the probe results of a hop into rolling and
// session-wide latency, jitter and loss statistics.
package stats

import (
	"math"
	"sync/atomic"
	"time"

	"github.com/telekom/pathmon/internal/probe"
)

// Aggregator folds probe results of one hop into running statistics.
//
// Fold must only be called from a single goroutine. Snapshot may be
// called concurrently from any number of goroutines; it never observes
// a partially folded result.
type Aggregator struct {
	cfg Config

	// The fields below are owned by the folding goroutine.
	window   []sample
	next     int
	filled   int
	counters Counters
	lastErr  probe.Reason
	series   *series

	snap atomic.Pointer[Statistics]
}

// sample is one entry of the rolling window.
type sample struct {
	latency float64
	lost    bool
}

// New creates an aggregator. Zero config values are replaced by the defaults.
func New(cfg Config) *Aggregator {
	cfg = cfg.withDefaults()
	a := &Aggregator{
		cfg:    cfg,
		window: make([]sample, cfg.Window),
		series: newSeries(cfg.Retention),
	}
	a.publish()
	return a
}

// Config returns the effective configuration.
func (a *Aggregator) Config() Config {
	return a.cfg
}

// Fold adds a probe result to the statistics and publishes a new snapshot.
func (a *Aggregator) Fold(res probe.Result) {
	t := res.Time
	if t.IsZero() {
		t = time.Now()
	}

	a.counters.SampleCount++
	switch res.Outcome.Kind {
	case probe.KindSuccess:
		ms := res.Outcome.Milliseconds()
		a.counters.SuccessCount++
		a.counters.MeanMs += (ms - a.counters.MeanMs) / float64(a.counters.SuccessCount)
		a.counters.CurrentMs = &ms
		if a.counters.MinMs == nil || ms < *a.counters.MinMs {
			a.counters.MinMs = &ms
		}
		if a.counters.MaxMs == nil || ms > *a.counters.MaxMs {
			a.counters.MaxMs = &ms
		}
		a.push(sample{latency: ms})
		a.series.add(Point{Time: t, LatencyMs: ms})
	default:
		a.counters.LossCount++
		if res.Outcome.Kind == probe.KindError {
			a.lastErr = res.Outcome.Reason
		}
		a.push(sample{lost: true})
		a.series.add(Point{Time: t, Lost: true})
	}

	a.publish()
}

// Snapshot returns the statistics as of the last completed fold.
func (a *Aggregator) Snapshot() Statistics {
	return *a.snap.Load()
}

// Restore replaces the state of the aggregator with persisted counters
// and time series, e.g. when a saved session is loaded. The rolling
// window is rebuilt from the tail of the series. Restore must not be
// called concurrently with Fold.
func (a *Aggregator) Restore(c Counters, points []Point) {
	a.counters = c
	a.lastErr = ""
	a.series = newSeries(a.cfg.Retention)
	for _, p := range points {
		a.series.add(p)
	}

	a.next, a.filled = 0, 0
	start := max(0, len(points)-a.cfg.Window)
	for _, p := range points[start:] {
		a.push(sample{latency: p.LatencyMs, lost: p.Lost})
	}
	a.publish()
}

// push adds a sample to the rolling window, overwriting the oldest one.
func (a *Aggregator) push(s sample) {
	a.window[a.next] = s
	a.next = (a.next + 1) % len(a.window)
	if a.filled < len(a.window) {
		a.filled++
	}
}

// publish computes a new immutable snapshot and swaps it in.
func (a *Aggregator) publish() {
	s := &Statistics{
		CurrentLatencyMs: a.counters.CurrentMs,
		MinLatencyMs:     a.counters.MinMs,
		MaxLatencyMs:     a.counters.MaxMs,
		SampleCount:      a.counters.SampleCount,
		SuccessCount:     a.counters.SuccessCount,
		LossCount:        a.counters.LossCount,
		LastError:        a.lastErr,
		TimeSeries:       a.series.view(),
	}
	if a.counters.SuccessCount > 0 {
		mean := a.counters.MeanMs
		s.SessionAvgMs = &mean
	}
	if a.counters.SampleCount > 0 {
		s.SessionLossPct = percent(a.counters.LossCount, a.counters.SampleCount)
	}
	s.RollingAvgMs, s.RollingJitterMs, s.RollingLossPct = a.rolling()
	a.snap.Store(s)
}

// rolling computes the window statistics in chronological order.
func (a *Aggregator) rolling() (avg, jitter *float64, lossPct float64) {
	if a.filled == 0 {
		return nil, nil, 0
	}

	var (
		losses, n  uint64
		sum, diffs float64
		prev       float64
		hasPrev    bool
		diffCount  int
	)
	oldest := (a.next - a.filled + len(a.window)) % len(a.window)
	for i := range a.filled {
		s := a.window[(oldest+i)%len(a.window)]
		if s.lost {
			losses++
			continue
		}
		n++
		sum += s.latency
		if hasPrev {
			diffs += math.Abs(s.latency - prev)
			diffCount++
		}
		prev, hasPrev = s.latency, true
	}

	lossPct = percent(losses, uint64(a.filled))
	if n > 0 {
		v := sum / float64(n)
		avg = &v
	}
	if diffCount > 0 {
		v := diffs / float64(diffCount)
		jitter = &v
	}
	return avg, jitter, lossPct
}

func percent(part, total uint64) float64 {
	return float64(part) / float64(total) * 100
}
