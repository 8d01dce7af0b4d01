// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

// Package monitor continuously probes a single hop of a path and folds
// the results into the hop's statistics.
package monitor

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/telekom/pathmon/internal/logger"
	"github.com/telekom/pathmon/internal/probe"
	"github.com/telekom/pathmon/internal/traceroute"
	"github.com/telekom/pathmon/pkg/stats"
)

// Observer is called after every folded probe result.
// It runs on the monitor's goroutine and must not block.
type Observer func(hop traceroute.Hop, res probe.Result, s stats.Statistics)

// Option configures a [Monitor].
type Option func(*Monitor)

// WithObserver registers an observer for folded probe results.
func WithObserver(o Observer) Option {
	return func(m *Monitor) {
		m.observers = append(m.observers, o)
	}
}

// Monitor owns the continuous probing of one hop.
// Every monitor runs on its own goroutine with its own ticker,
// so a slow or silent hop never delays another one.
type Monitor struct {
	hop       traceroute.Hop
	prober    probe.Prober
	cfg       Config
	agg       *stats.Aggregator
	observers []Observer

	// mu serializes lifecycle transitions and folds. It is never held while probing.
	mu        sync.Mutex
	state     atomic.Uint32
	reachable atomic.Bool
	wake      chan struct{}
	cancel    context.CancelFunc
	done      chan struct{}

	newTicker func(time.Duration) ticker
}

// New creates an idle monitor for the given hop.
// It returns [ErrInvalidConfig] if cfg is invalid.
func New(hop traceroute.Hop, p probe.Prober, cfg Config, opts ...Option) (*Monitor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()
	m := &Monitor{
		hop:       hop,
		prober:    p,
		cfg:       cfg,
		agg:       stats.New(cfg.Stats),
		wake:      make(chan struct{}, 1),
		done:      make(chan struct{}),
		newTicker: newTimeTicker,
	}
	m.reachable.Store(hop.Responded())
	for _, o := range opts {
		o(m)
	}
	return m, nil
}

// Hop returns the hop the monitor probes.
func (m *Monitor) Hop() traceroute.Hop {
	return m.hop
}

// State returns the current lifecycle state.
func (m *Monitor) State() State {
	return State(m.state.Load())
}

// Reachable reports whether the last probe succeeded.
// Before the first probe it reports whether the hop answered during discovery.
func (m *Monitor) Reachable() bool {
	return m.reachable.Load()
}

// Statistics returns the latest statistics snapshot of the hop.
func (m *Monitor) Statistics() stats.Statistics {
	return m.agg.Snapshot()
}

// Start starts probing. The first probe is sent immediately.
func (m *Monitor) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s := m.State(); s != StateIdle {
		return transitionError(s, StateActive)
	}

	ctx, m.cancel = context.WithCancel(ctx)
	m.state.Store(uint32(StateActive))
	go m.run(ctx)
	return nil
}

// Pause suspends probing before the next scheduled probe.
// The result of a probe in flight is discarded. Statistics are kept.
func (m *Monitor) Pause() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s := m.State(); s != StateActive {
		return transitionError(s, StatePaused)
	}
	m.state.Store(uint32(StatePaused))
	return nil
}

// Resume continues probing with a fresh schedule, starting with an immediate probe.
func (m *Monitor) Resume() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s := m.State(); s != StatePaused {
		return transitionError(s, StateActive)
	}
	m.state.Store(uint32(StateActive))
	select {
	case m.wake <- struct{}{}:
	default:
	}
	return nil
}

// Stop stops the monitor for good and waits for its goroutine to exit.
// A probe in flight is abandoned and its result discarded.
// Stop is idempotent.
func (m *Monitor) Stop() {
	m.mu.Lock()
	m.state.Store(uint32(StateStopped))
	cancel := m.cancel
	m.mu.Unlock()

	if cancel != nil {
		cancel()
		<-m.done
	}
}

func (m *Monitor) run(ctx context.Context) {
	defer close(m.done)
	log := logger.FromContext(ctx).With("hop", m.hop.TTL, "address", m.hop.Addr)
	ctx = logger.IntoContext(ctx, log)
	log.DebugContext(ctx, "Starting hop monitor", "interval", m.cfg.Interval.String())

	t := m.newTicker(m.cfg.Interval)
	defer t.Stop()

	var lastErr probe.Reason
	m.cycle(ctx, &lastErr)
	for {
		select {
		case <-ctx.Done():
			log.DebugContext(ctx, "Hop monitor stopped")
			return
		case <-m.wake:
			t.Reset(m.cfg.Interval)
			m.cycle(ctx, &lastErr)
		case <-t.C():
			m.cycle(ctx, &lastErr)
		}
	}
}

// cycle sends one probe if the monitor is active and folds its result.
func (m *Monitor) cycle(ctx context.Context, lastErr *probe.Reason) {
	if m.State() != StateActive {
		return
	}

	res := m.probeHop(ctx)
	if ctx.Err() != nil {
		return
	}

	m.mu.Lock()
	if m.State() != StateActive {
		// Paused or stopped while probing.
		m.mu.Unlock()
		return
	}
	m.agg.Fold(res)
	m.reachable.Store(res.Outcome.Kind == probe.KindSuccess)
	m.mu.Unlock()

	if res.Outcome.Kind == probe.KindError && res.Outcome.Reason != *lastErr {
		logger.FromContext(ctx).WarnContext(ctx, "Probe failed", "reason", res.Outcome.Reason)
	}
	*lastErr = res.Outcome.Reason
	if len(m.observers) == 0 {
		return
	}
	s := m.agg.Snapshot()
	for _, o := range m.observers {
		o(m.hop, res, s)
	}
}

// probeHop probes the hop. A hop that never answered during discovery has
// no address to probe and is recorded as lost.
func (m *Monitor) probeHop(ctx context.Context) probe.Result {
	if !m.hop.Responded() {
		return probe.Result{Time: time.Now(), Outcome: probe.Timeout()}
	}

	res := m.prober.Probe(ctx, m.hop.Addr, m.cfg.TTL, m.cfg.Timeout)
	if res.Expired {
		// The probe did not make it to the hop.
		res.Outcome = probe.Failure(probe.ReasonTTLExceeded)
		res.Expired = false
	}
	return res
}

type ticker interface {
	C() <-chan time.Time
	Reset(d time.Duration)
	Stop()
}

type timeTicker struct {
	t *time.Ticker
}

func newTimeTicker(d time.Duration) ticker {
	return timeTicker{t: time.NewTicker(d)}
}

func (t timeTicker) C() <-chan time.Time   { return t.t.C }
func (t timeTicker) Reset(d time.Duration) { t.t.Reset(d) }
func (t timeTicker) Stop()                 { t.t.Stop() }
