// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package pathmon

import (
	"context"
	"errors"
	"net/netip"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/telekom/pathmon/internal/probe"
	"github.com/telekom/pathmon/pkg/api"
	"github.com/telekom/pathmon/pkg/config"
	"github.com/telekom/pathmon/pkg/pathmon/metrics"
	"github.com/telekom/pathmon/pkg/session"
	"github.com/telekom/pathmon/pkg/stats"
	"github.com/telekom/pathmon/pkg/store"
)

var t0 = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

// fakeController is a session manager whose publisher blocks until ctx is done.
type fakeController struct {
	*session.ManagerMock
}

func (f *fakeController) Run(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}

// liveController simulates a session that runs once started and stops on Stop.
func liveController() (*fakeController, <-chan string) {
	var (
		mu    sync.Mutex
		state = session.StateIdle
	)
	started := make(chan string, 1)
	m := &session.ManagerMock{
		StartFunc: func(_ context.Context, target string, _ time.Duration) error {
			mu.Lock()
			state = session.StateRunning
			mu.Unlock()
			started <- target
			return nil
		},
		StopFunc: func() error {
			mu.Lock()
			defer mu.Unlock()
			state = session.StateStopped
			return nil
		},
		SnapshotFunc: func() session.Snapshot {
			mu.Lock()
			defer mu.Unlock()
			if state == session.StateIdle {
				return session.Snapshot{State: state}
			}
			return runningSnapshot(state)
		},
	}
	return &fakeController{m}, started
}

func runningSnapshot(state session.State) session.Snapshot {
	addr := netip.MustParseAddr("203.0.113.10")
	agg := stats.New(stats.Config{})
	agg.Fold(probe.Result{Time: t0, Outcome: probe.Success(10 * time.Millisecond)})
	return session.Snapshot{
		State:      state,
		Target:     "example.com",
		Address:    addr,
		CreatedAt:  t0,
		Interval:   time.Second,
		Hops:       []session.Hop{{Index: 1, Address: addr, DisplayName: "example.com", Reachable: true}},
		Statistics: map[int]stats.Statistics{1: agg.Snapshot()},
		Taken:      t0.Add(time.Second),
	}
}

func blockingAPI(runErr error) *api.APIMock {
	return &api.APIMock{
		RegisterRoutesFunc: func(context.Context, ...api.Route) error { return nil },
		RunFunc: func(ctx context.Context) error {
			if runErr != nil {
				return runErr
			}
			<-ctx.Done()
			return nil
		},
		ShutdownFunc: func(context.Context) error { return nil },
	}
}

func nopMetrics() *metrics.ProviderMock {
	reg := prometheus.NewRegistry()
	return &metrics.ProviderMock{
		GetRegistryFunc: func() *prometheus.Registry { return reg },
		InitTracingFunc: func(context.Context) error { return nil },
		ShutdownFunc:    func(context.Context) error { return nil },
	}
}

func newTestPathmon(t *testing.T, cfg *config.Config, c controller, a api.API, m metrics.Provider) (*Pathmon, *store.FileStore) {
	t.Helper()
	fs, err := store.NewFileStore(t.Context(), t.TempDir(), store.FormatJSON)
	require.NoError(t, err)
	return &Pathmon{
		config:     cfg,
		api:        a,
		metrics:    m,
		controller: c,
		store:      fs,
		cErr:       make(chan error, 1),
		cDone:      make(chan struct{}, 1),
	}, fs
}

func runAsync(ctx context.Context, p *Pathmon) <-chan error {
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()
	return done
}

func waitDone(t *testing.T, done <-chan error) error {
	t.Helper()
	select {
	case err := <-done:
		return err
	case <-time.After(5 * time.Second):
		t.Fatal("pathmon did not shut down")
		return nil
	}
}

// TestPathmon_Run_contextCancel tests that the configured target is started and
// that canceling the context stops and saves the session before shutting down.
func TestPathmon_Run_contextCancel(t *testing.T) {
	cfg := &config.Config{Monitor: config.MonitorConfig{Target: "example.com", Interval: 2 * time.Second}}
	c, started := liveController()
	a, m := blockingAPI(nil), nopMetrics()
	p, fs := newTestPathmon(t, cfg, c, a, m)

	ctx, cancel := context.WithCancel(t.Context())
	done := runAsync(ctx, p)
	select {
	case target := <-started:
		assert.Equal(t, "example.com", target)
	case <-time.After(5 * time.Second):
		t.Fatal("session was not started")
	}

	cancel()
	require.ErrorIs(t, waitDone(t, done), ErrFinalShutdown)

	require.Len(t, c.StartCalls(), 1)
	assert.Equal(t, 2*time.Second, c.StartCalls()[0].Interval)
	assert.Len(t, c.StopCalls(), 1)
	assert.Len(t, a.RegisterRoutesCalls(), 1)
	assert.Len(t, a.ShutdownCalls(), 1)
	assert.Len(t, m.InitTracingCalls(), 1)
	assert.Len(t, m.ShutdownCalls(), 1)

	saved, err := fs.LoadAutoSave(t.Context())
	require.NoError(t, err)
	assert.Equal(t, "example.com", saved.Target)
	assert.Equal(t, session.StateStopped, saved.State)
}

// TestPathmon_Run_apiFailure tests that a failing API shuts pathmon down.
func TestPathmon_Run_apiFailure(t *testing.T) {
	c := &fakeController{&session.ManagerMock{
		SnapshotFunc: func() session.Snapshot { return session.Snapshot{State: session.StateIdle} },
	}}
	a := blockingAPI(errors.New("address already in use"))
	p, _ := newTestPathmon(t, &config.Config{}, c, a, nopMetrics())

	require.ErrorIs(t, waitDone(t, runAsync(t.Context(), p)), ErrFinalShutdown)
	assert.Len(t, a.ShutdownCalls(), 1)
	assert.Empty(t, c.StopCalls(), "an idle session is not stopped")
}

// TestPathmon_Run_routesBeforeShutdown tests that the API routes are
// registered even if the context is already canceled when Run starts.
func TestPathmon_Run_routesBeforeShutdown(t *testing.T) {
	for range 20 {
		c := &fakeController{&session.ManagerMock{
			SnapshotFunc: func() session.Snapshot { return session.Snapshot{State: session.StateIdle} },
		}}
		a, m := blockingAPI(nil), nopMetrics()
		p, _ := newTestPathmon(t, &config.Config{}, c, a, m)

		ctx, cancel := context.WithCancel(t.Context())
		cancel()
		require.ErrorIs(t, p.Run(ctx), ErrFinalShutdown)

		assert.Len(t, a.RegisterRoutesCalls(), 1)
		assert.Len(t, a.ShutdownCalls(), 1)
		assert.Len(t, m.ShutdownCalls(), 1)
	}
}

// TestPathmon_Run_routesFailure tests that nothing is served if the routes
// cannot be registered.
func TestPathmon_Run_routesFailure(t *testing.T) {
	m := nopMetrics()
	a := blockingAPI(nil)
	a.RegisterRoutesFunc = func(context.Context, ...api.Route) error {
		return &api.ErrInvalidRoute{}
	}
	c := &fakeController{&session.ManagerMock{}}
	p, _ := newTestPathmon(t, &config.Config{Monitor: config.MonitorConfig{Target: "example.com"}}, c, a, m)

	err := p.Run(t.Context())
	var rerr *api.ErrInvalidRoute
	require.ErrorAs(t, err, &rerr)
	assert.NotErrorIs(t, err, ErrFinalShutdown)
	assert.Empty(t, a.RunCalls())
	assert.Empty(t, c.StartCalls())
	assert.Len(t, m.ShutdownCalls(), 1)
}

// TestPathmon_Run_tracingFailure tests that nothing is started without tracing.
func TestPathmon_Run_tracingFailure(t *testing.T) {
	m := nopMetrics()
	m.InitTracingFunc = func(context.Context) error { return errors.New("collector down") }
	a := blockingAPI(nil)
	p, _ := newTestPathmon(t, &config.Config{}, &fakeController{&session.ManagerMock{}}, a, m)

	err := p.Run(t.Context())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrFinalShutdown)
	assert.Empty(t, a.RunCalls())
}

// TestPathmon_Run_restoresAutoSave tests that the last auto-saved session is
// restored when no target is configured.
func TestPathmon_Run_restoresAutoSave(t *testing.T) {
	restored := make(chan *session.Snapshot, 1)
	c := &fakeController{&session.ManagerMock{
		RestoreFunc: func(s *session.Snapshot) error {
			restored <- s
			return nil
		},
		SnapshotFunc: func() session.Snapshot { return runningSnapshot(session.StateStopped) },
	}}
	p, fs := newTestPathmon(t, &config.Config{}, c, blockingAPI(nil), nopMetrics())
	s := runningSnapshot(session.StateStopped)
	require.NoError(t, fs.AutoSave(t.Context(), &s))

	ctx, cancel := context.WithCancel(t.Context())
	done := runAsync(ctx, p)
	select {
	case s := <-restored:
		assert.Equal(t, "example.com", s.Target)
		require.Len(t, s.Hops, 1)
	case <-time.After(5 * time.Second):
		t.Fatal("auto-saved session was not restored")
	}
	cancel()
	require.ErrorIs(t, waitDone(t, done), ErrFinalShutdown)
	assert.Empty(t, c.StartCalls())
	assert.Empty(t, c.StopCalls(), "a stopped session is not stopped again")
}

func TestPathmon_autoSave(t *testing.T) {
	c, _ := liveController()
	cfg := &config.Config{Store: config.StoreConfig{AutoSaveInterval: 10 * time.Millisecond}}
	p, fs := newTestPathmon(t, cfg, c, blockingAPI(nil), nopMetrics())

	require.NoError(t, p.saveCurrent(t.Context()), "idle sessions are skipped")
	_, err := fs.LoadAutoSave(t.Context())
	require.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, c.Start(t.Context(), "example.com", time.Second))
	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()
	go p.autoSave(ctx)

	require.Eventually(t, func() bool {
		_, err := fs.LoadAutoSave(t.Context())
		return err == nil
	}, 5*time.Second, 10*time.Millisecond)
}

func TestNew(t *testing.T) {
	t.Run("wires all components", func(t *testing.T) {
		cfg := &config.Config{
			Name:     "pathmon.example.com",
			Metadata: config.Metadata{Platform: "edge-fra1"},
			Api:      api.Config{ListeningAddress: ":0"},
			Store:    config.StoreConfig{Path: t.TempDir(), Format: store.FormatYAML},
		}
		p, err := New(t.Context(), cfg)
		require.NoError(t, err)
		require.NotNil(t, p.controller)
		require.NotNil(t, p.names)

		mfs, err := p.metrics.GetRegistry().Gather()
		require.NoError(t, err)
		var found bool
		for _, mf := range mfs {
			found = found || mf.GetName() == "pathmon_instance_info"
		}
		assert.True(t, found, "instance info metric not registered")
	})

	t.Run("unknown store format", func(t *testing.T) {
		cfg := &config.Config{Store: config.StoreConfig{Path: t.TempDir(), Format: "xml"}}
		_, err := New(t.Context(), cfg)
		assert.ErrorIs(t, err, store.ErrUnknownFormat)
	})
}

func TestErrShutdown(t *testing.T) {
	assert.False(t, ErrShutdown{}.HasError())

	errAPI := errors.New("api")
	e := ErrShutdown{errAPI: errAPI}
	assert.True(t, e.HasError())
	assert.ErrorIs(t, e, errAPI)
}
