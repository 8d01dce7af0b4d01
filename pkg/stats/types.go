// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package stats

import (
	"encoding/json"
	"slices"
	"time"

	"github.com/telekom/pathmon/internal/probe"
)

// Point is one entry of a hop's time series.
type Point struct {
	Time time.Time

	// LatencyMs is the round-trip time in milliseconds. It is meaningless if Lost is set.
	LatencyMs float64

	// Lost marks a probe that timed out or failed.
	Lost bool
}

type jsonPoint struct {
	Time      time.Time `json:"timestamp"`
	LatencyMs *float64  `json:"latencyMs"`
}

// MarshalJSON encodes lost points with a null latency.
func (p Point) MarshalJSON() ([]byte, error) {
	jp := jsonPoint{Time: p.Time}
	if !p.Lost {
		jp.LatencyMs = &p.LatencyMs
	}
	return json.Marshal(jp)
}

func (p *Point) UnmarshalJSON(b []byte) error {
	var jp jsonPoint
	if err := json.Unmarshal(b, &jp); err != nil {
		return err
	}
	*p = Point{Time: jp.Time, Lost: jp.LatencyMs == nil}
	if jp.LatencyMs != nil {
		p.LatencyMs = *jp.LatencyMs
	}
	return nil
}

// Latency returns the latency of the point and whether there is one.
func (p Point) Latency() (float64, bool) {
	return p.LatencyMs, !p.Lost
}

// Counters are the cumulative, unbounded counters of a hop.
// They are sufficient to continue the session-wide statistics
// without the full history.
type Counters struct {
	SampleCount  uint64 `json:"sampleCount" yaml:"sampleCount"`
	SuccessCount uint64 `json:"successCount" yaml:"successCount"`
	LossCount    uint64 `json:"lossCount" yaml:"lossCount"`

	// MeanMs is the incremental mean of all successful latencies.
	MeanMs    float64  `json:"meanMs" yaml:"meanMs"`
	MinMs     *float64 `json:"minMs" yaml:"minMs"`
	MaxMs     *float64 `json:"maxMs" yaml:"maxMs"`
	CurrentMs *float64 `json:"currentMs" yaml:"currentMs"`
}

// Statistics is an immutable point-in-time view of a hop's statistics.
// Latency values are nil while there is nothing to compute them from.
type Statistics struct {
	// CurrentLatencyMs is the latency of the last successful probe.
	// It is kept when later probes are lost.
	CurrentLatencyMs *float64 `json:"currentLatencyMs"`
	MinLatencyMs     *float64 `json:"minLatencyMs"`
	MaxLatencyMs     *float64 `json:"maxLatencyMs"`
	RollingAvgMs     *float64 `json:"rollingAvgMs"`
	RollingJitterMs  *float64 `json:"rollingJitterMs"`
	RollingLossPct   float64  `json:"rollingLossPct"`
	SessionAvgMs     *float64 `json:"sessionAvgMs"`
	SessionLossPct   float64  `json:"sessionLossPct"`
	SampleCount      uint64   `json:"sampleCount"`
	SuccessCount     uint64   `json:"successCount"`
	LossCount        uint64   `json:"lossCount"`

	// LastError is the reason of the most recent error outcome.
	LastError probe.Reason `json:"lastError,omitempty"`

	// TimeSeries is ordered by strictly increasing time. It must not be modified.
	TimeSeries []Point `json:"timeSeries"`
}

// Since returns the points of the time series at or after t.
func (s Statistics) Since(t time.Time) []Point {
	i, _ := slices.BinarySearchFunc(s.TimeSeries, t, func(p Point, t time.Time) int {
		return p.Time.Compare(t)
	})
	return s.TimeSeries[i:]
}

// WithoutSeries returns a copy of the statistics without the time series.
func (s Statistics) WithoutSeries() Statistics {
	s.TimeSeries = nil
	return s
}

// Counters returns the cumulative counters the statistics were computed from.
func (s Statistics) Counters() Counters {
	c := Counters{
		SampleCount:  s.SampleCount,
		SuccessCount: s.SuccessCount,
		LossCount:    s.LossCount,
		MinMs:        s.MinLatencyMs,
		MaxMs:        s.MaxLatencyMs,
		CurrentMs:    s.CurrentLatencyMs,
	}
	if s.SessionAvgMs != nil {
		c.MeanMs = *s.SessionAvgMs
	}
	return c
}
