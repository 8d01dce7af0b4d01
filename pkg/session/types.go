// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"encoding/json"
	"net/netip"
	"time"

	"github.com/telekom/pathmon/internal/traceroute"
	"github.com/telekom/pathmon/pkg/stats"
)

// State is the lifecycle state of a session.
type State string

const (
	StateIdle        State = "idle"
	StateDiscovering State = "discovering"
	StateRunning     State = "running"
	StatePaused      State = "paused"
	StateStopped     State = "stopped"
	// StateFailed is entered when the discovery of a session failed.
	StateFailed State = "failed"
)

// Live reports whether the state has monitors attached.
func (s State) Live() bool {
	return s == StateRunning || s == StatePaused
}

// Hop is a hop of a session's path.
type Hop struct {
	// Index is the position on the path, starting at 1.
	Index int `json:"index" yaml:"index"`
	// Address is invalid for hops that never answered.
	Address     netip.Addr `json:"address" yaml:"address"`
	DisplayName string     `json:"displayName" yaml:"displayName"`
	// Reachable reports whether the last probe to the hop succeeded.
	Reachable bool `json:"reachable" yaml:"reachable"`
	Gateway   bool `json:"gateway,omitempty" yaml:"gateway,omitempty"`
}

// NewHop converts a discovered hop. The display name is the reverse DNS
// name if there is one and the literal address otherwise.
func NewHop(h traceroute.Hop) Hop {
	name := h.Name
	if name == "" && h.Responded() {
		name = h.Addr.String()
	}
	return Hop{
		Index:       h.TTL,
		Address:     h.Addr,
		DisplayName: name,
		Reachable:   h.Responded(),
		Gateway:     h.Gateway,
	}
}

// Snapshot is a consistent view of a session: its state, its ordered
// hops and the statistics of every hop, keyed by hop index.
type Snapshot struct {
	State     State      `json:"state"`
	Target    string     `json:"target,omitempty"`
	Address   netip.Addr `json:"address"`
	CreatedAt time.Time  `json:"createdAt"`
	// Interval is the time between two probes of a hop.
	Interval   time.Duration            `json:"-"`
	Hops       []Hop                    `json:"hops"`
	Statistics map[int]stats.Statistics `json:"statistics"`
	// Error is the reason of a failed discovery.
	Error string    `json:"error,omitempty"`
	Taken time.Time `json:"taken"`
}

// IntervalSeconds returns the probe interval in seconds.
func (s *Snapshot) IntervalSeconds() float64 {
	return s.Interval.Seconds()
}

func (s Snapshot) MarshalJSON() ([]byte, error) {
	type alias Snapshot
	return json.Marshal(&struct {
		IntervalSeconds float64 `json:"intervalSeconds"`
		alias
	}{
		IntervalSeconds: s.Interval.Seconds(),
		alias:           alias(s),
	})
}

func (s *Snapshot) UnmarshalJSON(b []byte) error {
	type alias Snapshot
	aux := &struct {
		IntervalSeconds float64 `json:"intervalSeconds"`
		*alias
	}{alias: (*alias)(s)}
	if err := json.Unmarshal(b, aux); err != nil {
		return err
	}
	s.Interval = time.Duration(aux.IntervalSeconds * float64(time.Second))
	return nil
}

// Since returns a copy of the snapshot whose time series only contain
// the points at or after t.
func (s Snapshot) Since(t time.Time) Snapshot {
	hs := make(map[int]stats.Statistics, len(s.Statistics))
	for i, st := range s.Statistics {
		st.TimeSeries = st.Since(t)
		hs[i] = st
	}
	s.Statistics = hs
	return s
}

// Summary returns a copy of the snapshot without time series.
func (s Snapshot) Summary() Snapshot {
	hs := make(map[int]stats.Statistics, len(s.Statistics))
	for i, st := range s.Statistics {
		hs[i] = st.WithoutSeries()
	}
	s.Statistics = hs
	return s
}
