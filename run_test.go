package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tonimelisma/wirebug-go/internal/config"
	"github.com/tonimelisma/wirebug-go/internal/monitor"
	"github.com/tonimelisma/wirebug-go/internal/store"
)

type daemonHarness struct {
	d      *daemon
	cfg    *config.Config
	toggle *fakeToggle
	wl     *fakeWakeLock
	hup    chan os.Signal
}

func newDaemonHarness(t *testing.T) *daemonHarness {
	t.Helper()

	dir := t.TempDir()

	cfg := config.DefaultConfig()
	cfg.StayAwake = true
	cfg.PollInterval = "1h"
	cfg.StateDB = filepath.Join(dir, "state.db")
	cfg.EventListenAddr = ""

	h := &daemonHarness{
		cfg:    cfg,
		toggle: &fakeToggle{enabled: true},
		wl:     &fakeWakeLock{},
		hup:    make(chan os.Signal, 1),
	}

	h.d = &daemon{
		holder: config.NewHolder(cfg, filepath.Join(dir, "config.toml")),
		deps: daemonDeps{
			Toggle:   h.toggle,
			Lock:     fakeLock{},
			Network:  fakeNetwork{info: monitor.Connected("192.168.1.5", "HomeNet")},
			WakeLock: h.wl,
		},
		logger: discardLogger(),
		hup:    h.hup,
	}

	return h
}

func TestDaemonRun_TicksTriggersAndStops(t *testing.T) {
	t.Parallel()

	h := newDaemonHarness(t)

	var (
		sessionID string
		events    <-chan monitor.StatusChangedEvent
	)

	h.d.started = func(id string, _ *monitor.Scheduler, bus *monitor.Bus) {
		sessionID = id
		events, _ = bus.Subscribe(4)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)

	go func() { done <- h.d.run(ctx) }()

	require.Eventually(t, func() bool { return h.toggle.probeCount() >= 1 }, 10*time.Second, 10*time.Millisecond)

	select {
	case ev := <-events:
		assert.True(t, ev.Enabled)
	case <-time.After(10 * time.Second):
		t.Fatal("no status change emitted")
	}

	assert.Eventually(t, h.wl.isHeld, 5*time.Second, 10*time.Millisecond)

	// SIGHUP forces a tick long before the one-hour alarm.
	h.hup <- os.Interrupt
	require.Eventually(t, func() bool { return h.toggle.probeCount() >= 2 }, 10*time.Second, 10*time.Millisecond)

	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("daemon did not stop after cancel")
	}

	assert.False(t, h.wl.isHeld(), "wake lock released on shutdown")

	st, err := store.Open(context.Background(), h.cfg.StateDB, discardLogger())
	require.NoError(t, err)

	defer st.Close()

	sess, err := st.LatestSession(context.Background())
	require.NoError(t, err)
	assert.Equal(t, sessionID, sess.ID)
	assert.Equal(t, store.SessionStopped, sess.State)
	assert.GreaterOrEqual(t, sess.TickCount, int64(2))
	assert.True(t, sess.LastEnabled)

	n, found, err := st.Notification(context.Background(), monitor.StatusNotificationID)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "Connected to HomeNet at 192.168.1.5", n.Body)
}

func TestDaemonRun_ConfigReloadReachesReconciler(t *testing.T) {
	t.Parallel()

	h := newDaemonHarness(t)
	cfgPath := h.d.holder.Path()

	var sched *monitor.Scheduler

	started := make(chan struct{})
	h.d.started = func(_ string, s *monitor.Scheduler, _ *monitor.Bus) {
		sched = s
		close(started)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)

	go func() { done <- h.d.run(ctx) }()

	<-started
	require.Eventually(t, h.wl.isHeld, 10*time.Second, 10*time.Millisecond)

	// Turning stay_awake off in the file releases the lock on the next tick.
	// The write is repeated until the watcher, which starts concurrently,
	// has seen it.
	require.Eventually(t, func() bool {
		assert.NoError(t, config.SetKey(cfgPath, "stay_awake", "false"))

		return !h.d.holder.Config().StayAwake
	}, 10*time.Second, 500*time.Millisecond)

	sched.Trigger()
	require.Eventually(t, func() bool { return !h.wl.isHeld() }, 10*time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}

func TestDaemonRun_StoreOpenFailure(t *testing.T) {
	t.Parallel()

	h := newDaemonHarness(t)

	// A directory where the database file should be.
	require.NoError(t, os.MkdirAll(h.cfg.StateDB, 0o755))

	err := h.d.run(context.Background())
	require.Error(t, err)
}

func TestForwardTriggers_StopsOnCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := forwardTriggers(ctx, make(chan os.Signal), nil, discardLogger())
	assert.NoError(t, err)
}
