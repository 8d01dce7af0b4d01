// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

// Package store persists monitoring sessions as JSON or YAML documents
// and exports them to flat tabular formats.
package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/netip"
	"strings"
	"time"

	"github.com/telekom/pathmon/pkg/session"
	"github.com/telekom/pathmon/pkg/stats"
	"gopkg.in/yaml.v3"
)

// Version is the version of the document format.
const Version = 1

// Format is the encoding of a session document.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat parses a document format. An empty string means JSON.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "", "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// Ext returns the file extension of the format.
func (f Format) Ext() string {
	if f == FormatYAML {
		return ".yaml"
	}
	return ".json"
}

// Document is the persisted form of a session.
type Document struct {
	Version         int                    `json:"version" yaml:"version"`
	Target          string                 `json:"target" yaml:"target"`
	Address         string                 `json:"address" yaml:"address"`
	CreatedAt       time.Time              `json:"createdAt" yaml:"createdAt"`
	SavedAt         time.Time              `json:"savedAt" yaml:"savedAt"`
	IntervalSeconds float64                `json:"intervalSeconds" yaml:"intervalSeconds"`
	Hops            []DocumentHop          `json:"hops" yaml:"hops"`
	TimeSeries      map[int][]Sample       `json:"timeSeries" yaml:"timeSeries"`
	Counters        map[int]stats.Counters `json:"counters" yaml:"counters"`
}

// DocumentHop is a hop of a persisted session.
type DocumentHop struct {
	Index       int    `json:"index" yaml:"index"`
	Address     string `json:"address" yaml:"address"`
	DisplayName string `json:"displayName" yaml:"displayName"`
	Reachable   bool   `json:"reachable" yaml:"reachable"`
	Gateway     bool   `json:"gateway,omitempty" yaml:"gateway,omitempty"`
}

// Sample is a point of a persisted time series. Lost probes have no latency.
type Sample struct {
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
	LatencyMs *float64  `json:"latencyMs" yaml:"latencyMs"`
}

// now is replaced in tests.
var now = time.Now

// Save serializes a session in the given format.
func Save(s *session.Snapshot, f Format) ([]byte, error) {
	doc := NewDocument(s)
	switch f {
	case FormatJSON, "":
		return json.MarshalIndent(doc, "", "  ")
	case FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return nil, fmt.Errorf("failed to encode session: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("failed to encode session: %w", err)
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, f)
	}
}

// NewDocument converts a session snapshot into its persisted form.
func NewDocument(s *session.Snapshot) *Document {
	doc := &Document{
		Version:         Version,
		Target:          s.Target,
		CreatedAt:       s.CreatedAt,
		SavedAt:         now(),
		IntervalSeconds: s.Interval.Seconds(),
		Hops:            make([]DocumentHop, 0, len(s.Hops)),
		TimeSeries:      make(map[int][]Sample, len(s.Hops)),
		Counters:        make(map[int]stats.Counters, len(s.Hops)),
	}
	if s.Address.IsValid() {
		doc.Address = s.Address.String()
	}

	for _, h := range s.Hops {
		dh := DocumentHop{
			Index:       h.Index,
			DisplayName: h.DisplayName,
			Reachable:   h.Reachable,
			Gateway:     h.Gateway,
		}
		if h.Address.IsValid() {
			dh.Address = h.Address.String()
		}
		doc.Hops = append(doc.Hops, dh)

		st := s.Statistics[h.Index]
		samples := make([]Sample, 0, len(st.TimeSeries))
		for _, p := range st.TimeSeries {
			sample := Sample{Timestamp: p.Time}
			if l, ok := p.Latency(); ok {
				sample.LatencyMs = &l
			}
			samples = append(samples, sample)
		}
		doc.TimeSeries[h.Index] = samples
		doc.Counters[h.Index] = st.Counters()
	}
	return doc
}

// Load deserializes and validates a session document. The session is
// returned in [session.StateStopped]. Rolling statistics are rebuilt
// from the tail of each time series.
//
// Any decoding or validation failure is an [ErrPersistence] and no
// session is returned.
func Load(b []byte, f Format) (*session.Snapshot, error) {
	var doc Document
	switch f {
	case FormatJSON, "":
		if err := json.Unmarshal(b, &doc); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
		}
	case FormatYAML:
		if err := yaml.Unmarshal(b, &doc); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, f)
	}
	return doc.Snapshot()
}

// Snapshot validates the document and converts it into a stopped session.
func (d *Document) Snapshot() (*session.Snapshot, error) {
	if err := d.validate(); err != nil {
		return nil, err
	}

	s := &session.Snapshot{
		State:      session.StateStopped,
		Target:     d.Target,
		CreatedAt:  d.CreatedAt,
		Interval:   time.Duration(d.IntervalSeconds * float64(time.Second)),
		Hops:       make([]session.Hop, 0, len(d.Hops)),
		Statistics: make(map[int]stats.Statistics, len(d.Hops)),
		Taken:      d.SavedAt,
	}
	if d.Address != "" {
		s.Address = netip.MustParseAddr(d.Address)
	}

	for _, h := range d.Hops {
		hop := session.Hop{
			Index:       h.Index,
			DisplayName: h.DisplayName,
			Reachable:   h.Reachable,
			Gateway:     h.Gateway,
		}
		if h.Address != "" {
			hop.Address = netip.MustParseAddr(h.Address)
		}
		s.Hops = append(s.Hops, hop)

		samples := d.TimeSeries[h.Index]
		points := make([]stats.Point, 0, len(samples))
		for _, sample := range samples {
			p := stats.Point{Time: sample.Timestamp, Lost: sample.LatencyMs == nil}
			if sample.LatencyMs != nil {
				p.LatencyMs = *sample.LatencyMs
			}
			points = append(points, p)
		}

		agg := stats.New(stats.Config{Retention: max(stats.DefaultRetention, len(points))})
		agg.Restore(d.Counters[h.Index], points)
		s.Statistics[h.Index] = agg.Snapshot()
	}
	return s, nil
}

// validate checks the structural invariants of the document.
func (d *Document) validate() error {
	if d.Version < 1 || d.Version > Version {
		return persistenceError("unsupported version %d", d.Version)
	}
	if d.Target == "" {
		return persistenceError("missing target")
	}
	if d.IntervalSeconds <= 0 {
		return persistenceError("interval must be positive, got %v", d.IntervalSeconds)
	}
	if d.Address != "" {
		if _, err := netip.ParseAddr(d.Address); err != nil {
			return persistenceError("invalid address %q", d.Address)
		}
	}

	indices := make(map[int]bool, len(d.Hops))
	for i, h := range d.Hops {
		if h.Index != i+1 {
			return persistenceError("hop indices must be contiguous from 1, got %d at position %d", h.Index, i+1)
		}
		if h.Address != "" {
			if _, err := netip.ParseAddr(h.Address); err != nil {
				return persistenceError("invalid address %q of hop %d", h.Address, h.Index)
			}
		}
		indices[h.Index] = true
	}

	for idx, samples := range d.TimeSeries {
		if !indices[idx] {
			return persistenceError("time series of unknown hop %d", idx)
		}
		for i := 1; i < len(samples); i++ {
			if !samples[i].Timestamp.After(samples[i-1].Timestamp) {
				return persistenceError("time series of hop %d is not strictly increasing at sample %d", idx, i)
			}
		}
	}

	for idx := range d.Counters {
		if !indices[idx] {
			return persistenceError("counters of unknown hop %d", idx)
		}
	}
	for _, h := range d.Hops {
		if err := validateCounters(d.Counters[h.Index], len(d.TimeSeries[h.Index])); err != nil {
			return persistenceError("counters of hop %d: %v", h.Index, err)
		}
	}
	return nil
}

func validateCounters(c stats.Counters, samples int) error {
	switch {
	case c.SampleCount != c.SuccessCount+c.LossCount:
		return fmt.Errorf("sample count %d does not match %d successes and %d losses", c.SampleCount, c.SuccessCount, c.LossCount)
	case c.SampleCount < uint64(samples):
		return fmt.Errorf("sample count %d is smaller than the time series length %d", c.SampleCount, samples)
	case c.SuccessCount > 0 && (c.MinMs == nil || c.MaxMs == nil || c.CurrentMs == nil):
		return fmt.Errorf("latency bounds missing for %d successes", c.SuccessCount)
	case c.SuccessCount == 0 && (c.MinMs != nil || c.MaxMs != nil || c.CurrentMs != nil):
		return errors.New("latency bounds without successes")
	case c.MinMs != nil && c.MaxMs != nil && *c.MinMs > *c.MaxMs:
		return fmt.Errorf("minimum %v exceeds maximum %v", *c.MinMs, *c.MaxMs)
	case c.MeanMs < 0:
		return fmt.Errorf("negative mean %v", c.MeanMs)
	}
	return nil
}
