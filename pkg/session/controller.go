// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

// Package session owns the monitoring session of a target: the path
// discovery, one monitor per discovered hop, the pause/resume/stop
// lifecycle and the snapshots handed to the presentation layer.
package session

import (
	"context"
	"errors"
	"fmt"
	"net/netip"
	"sync"
	"time"

	"github.com/telekom/pathmon/internal/logger"
	"github.com/telekom/pathmon/internal/probe"
	"github.com/telekom/pathmon/internal/traceroute"
	"github.com/telekom/pathmon/pkg/monitor"
	"github.com/telekom/pathmon/pkg/stats"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

var _ Manager = (*Controller)(nil)

// Manager controls the lifecycle of a monitoring session and hands out its snapshots.
//
//go:generate go tool moq -out manager_moq.go . Manager
type Manager interface {
	// Start discovers the path to target and starts monitoring it.
	Start(ctx context.Context, target string, interval time.Duration) error
	// Pause suspends probing of every hop.
	Pause() error
	// Resume continues probing of every hop.
	Resume() error
	// Stop ends the session for good.
	Stop() error
	// Restore makes a saved session available for review.
	Restore(s *Snapshot) error
	// Snapshot returns a consistent view of the session.
	Snapshot() Snapshot
	// Subscribe returns a channel receiving a snapshot per tick.
	Subscribe(ctx context.Context) <-chan Snapshot
}

// Controller owns the current session and its hop monitors.
// All methods are safe for concurrent use.
type Controller struct {
	discoverer traceroute.Discoverer
	prober     probe.Prober
	cfg        Config
	metrics    *Metrics

	mu       sync.RWMutex
	state    State
	target   string
	address  netip.Addr
	created  time.Time
	interval time.Duration
	err      string
	monitors []*monitor.Monitor
	// final holds the last snapshot of a stopped or restored session.
	final *Snapshot
	// abort cancels a running discovery.
	abort context.CancelFunc
	// gen identifies the latest Start. A Start whose generation is
	// outdated after discovery must not touch the session.
	gen uint64

	subMu sync.Mutex
	subs  map[chan Snapshot]struct{}
}

// NewController creates an idle controller. metrics may be nil.
func NewController(d traceroute.Discoverer, p probe.Prober, cfg Config, m *Metrics) *Controller {
	return &Controller{
		discoverer: d,
		prober:     p,
		cfg:        cfg,
		metrics:    m,
		state:      StateIdle,
		subs:       map[chan Snapshot]struct{}{},
	}
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Start discovers the path to target and starts monitoring every hop
// with the given interval. It blocks until the discovery finished.
// The monitors outlive ctx and run until Stop is called.
//
// On discovery failure the session enters [StateFailed], keeps the error
// and creates no monitors.
func (c *Controller) Start(ctx context.Context, target string, interval time.Duration) error {
	if target == "" {
		return fmt.Errorf("%w: target must not be empty", ErrInvalidTarget)
	}
	if err := ValidateInterval(interval); err != nil {
		return err
	}

	c.mu.Lock()
	if c.state.Live() || c.state == StateDiscovering {
		c.mu.Unlock()
		return transitionError(c.state, "start")
	}
	dctx, cancel := context.WithCancel(ctx)
	c.state = StateDiscovering
	c.target = target
	c.address = netip.Addr{}
	c.created = time.Now()
	c.interval = interval
	c.err = ""
	c.final = nil
	c.abort = cancel
	c.gen++
	gen := c.gen
	c.mu.Unlock()
	defer cancel()

	dctx, span := otel.Tracer("session.controller").Start(dctx, "Start", trace.WithAttributes(
		attribute.String("session.target", target),
		attribute.Stringer("session.interval", interval),
	))
	defer span.End()

	log := logger.FromContext(ctx).With("target", target)
	log.InfoContext(ctx, "Starting session", "interval", interval.String())
	opts := c.cfg.Discovery
	hops, err := c.discoverer.Discover(dctx, target, &opts)

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen || c.state != StateDiscovering {
		log.InfoContext(ctx, "Session stopped during discovery")
		return ErrAborted
	}
	c.abort = nil
	if err != nil {
		log.ErrorContext(ctx, "Failed to discover path", "error", err)
		c.state = StateFailed
		c.err = err.Error()
		return err
	}

	mctx := context.WithoutCancel(ctx)
	cfg := monitor.Config{
		Interval: interval,
		Timeout:  c.cfg.probeTimeout(),
		TTL:      c.cfg.TTL,
		Stats:    c.cfg.Stats,
	}
	var opt []monitor.Option
	if c.metrics != nil {
		opt = append(opt, monitor.WithObserver(func(h traceroute.Hop, res probe.Result, s stats.Statistics) {
			c.metrics.Set(target, h, res, s)
		}))
	}

	monitors := make([]*monitor.Monitor, 0, len(hops))
	for _, h := range hops {
		m, err := monitor.New(h, c.prober, cfg, opt...)
		if err != nil {
			log.ErrorContext(ctx, "Failed to create hop monitor", "hop", h.TTL, "error", err)
			c.state = StateFailed
			c.err = err.Error()
			return err
		}
		monitors = append(monitors, m)
	}
	c.monitors = monitors
	if n := len(hops); n > 0 {
		c.address = hops[n-1].Addr
	}
	for _, m := range c.monitors {
		// A fresh monitor is always idle.
		_ = m.Start(mctx)
	}
	c.state = StateRunning
	log.InfoContext(ctx, "Session running", "hops", len(hops), "address", c.address)
	return nil
}

// Pause suspends probing of every hop. Statistics are kept.
func (c *Controller) Pause() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateRunning {
		return transitionError(c.state, "pause")
	}

	var errs []error
	for _, m := range c.monitors {
		errs = append(errs, m.Pause())
	}
	c.state = StatePaused
	return errors.Join(errs...)
}

// Resume continues probing of every hop.
func (c *Controller) Resume() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StatePaused {
		return transitionError(c.state, "resume")
	}

	var errs []error
	for _, m := range c.monitors {
		errs = append(errs, m.Resume())
	}
	c.state = StateRunning
	return errors.Join(errs...)
}

// Stop ends the session for good. Every monitor is stopped and dropped,
// the statistics stay available through Snapshot until the next Start.
// Stopping during discovery aborts the discovery.
func (c *Controller) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch {
	case c.state == StateDiscovering:
		c.abort()
		c.state = StateStopped
		snap := c.snapshotLocked()
		c.final = &snap
		return nil
	case !c.state.Live():
		return transitionError(c.state, "stop")
	}

	var g errgroup.Group
	for _, m := range c.monitors {
		g.Go(func() error {
			m.Stop()
			return nil
		})
	}
	_ = g.Wait()

	c.state = StateStopped
	snap := c.snapshotLocked()
	c.final = &snap
	c.monitors = nil
	if c.metrics != nil {
		// Nothing is registered if no probe finished before the stop.
		_ = c.metrics.Remove(c.target)
	}
	return nil
}

// Restore makes a saved session available for review. The session
// is always restored in [StateStopped].
func (c *Controller) Restore(s *Snapshot) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Live() || c.state == StateDiscovering {
		return transitionError(c.state, "restore")
	}

	snap := *s
	snap.State = StateStopped
	c.state = StateStopped
	c.target = snap.Target
	c.address = snap.Address
	c.created = snap.CreatedAt
	c.interval = snap.Interval
	c.err = ""
	c.final = &snap
	return nil
}

// Snapshot returns a consistent view of the session. The statistics of
// every hop are taken from its last completed fold.
func (c *Controller) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() Snapshot {
	if c.final != nil && c.state == StateStopped {
		s := *c.final
		s.Taken = time.Now()
		return s
	}

	s := Snapshot{
		State:      c.state,
		Target:     c.target,
		Address:    c.address,
		CreatedAt:  c.created,
		Interval:   c.interval,
		Hops:       make([]Hop, 0, len(c.monitors)),
		Statistics: make(map[int]stats.Statistics, len(c.monitors)),
		Error:      c.err,
		Taken:      time.Now(),
	}
	for _, m := range c.monitors {
		h := NewHop(m.Hop())
		h.Reachable = m.Reachable()
		s.Hops = append(s.Hops, h)
		s.Statistics[h.Index] = m.Statistics()
	}
	return s
}

// Subscribe returns a channel receiving a snapshot on every tick of Run.
// The channel is closed when ctx is done. A subscriber that does not keep
// up misses ticks.
func (c *Controller) Subscribe(ctx context.Context) <-chan Snapshot {
	ch := make(chan Snapshot, 1)
	c.subMu.Lock()
	c.subs[ch] = struct{}{}
	c.subMu.Unlock()

	context.AfterFunc(ctx, func() {
		c.subMu.Lock()
		defer c.subMu.Unlock()
		delete(c.subs, ch)
		close(ch)
	})
	return ch
}

// Run publishes a snapshot to all subscribers once per tick until ctx is done.
// The tick is the probe interval of the live session, or one second otherwise.
func (c *Controller) Run(ctx context.Context) error {
	log := logger.FromContext(ctx)
	log.InfoContext(ctx, "Starting session publisher")

	t := time.NewTimer(c.tick())
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			log.InfoContext(ctx, "Session publisher stopped")
			return ctx.Err()
		case <-t.C:
			c.publish(c.Snapshot())
			t.Reset(c.tick())
		}
	}
}

func (c *Controller) tick() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.state.Live() && c.interval > 0 {
		return c.interval
	}
	return idleTick
}

func (c *Controller) publish(s Snapshot) {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	for ch := range c.subs {
		select {
		case ch <- s:
		default:
		}
	}
}
