package monitor

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var errFake = errors.New("collaborator unavailable")

func testLogger(t *testing.T) *slog.Logger {
	t.Helper()

	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

type fakeToggle struct {
	enabled  bool
	probeErr error
	setErr   error
	setCalls []bool
}

func (f *fakeToggle) Enabled(context.Context) (bool, error) {
	if f.probeErr != nil {
		return false, f.probeErr
	}

	return f.enabled, nil
}

func (f *fakeToggle) SetEnabled(_ context.Context, enabled bool) error {
	f.setCalls = append(f.setCalls, enabled)

	return f.setErr
}

type fakeLock struct {
	locked bool
	err    error
}

func (f *fakeLock) Locked(context.Context) (bool, error) {
	return f.locked, f.err
}

type fakeNetwork struct {
	info ConnectivityInfo
	err  error
}

func (f *fakeNetwork) Connectivity(context.Context) (ConnectivityInfo, error) {
	return f.info, f.err
}

type fakePrefs map[string]bool

func (p fakePrefs) Bool(key string, def bool) bool {
	if v, ok := p[key]; ok {
		return v
	}

	return def
}

type recordingEmitter struct {
	events []StatusChangedEvent
}

func (e *recordingEmitter) Emit(ev StatusChangedEvent) {
	e.events = append(e.events, ev)
}

type fakeNotifier struct {
	shown   map[int]Notification
	posts   int
	cancels int
	postErr error
	cancErr error
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{shown: make(map[int]Notification)}
}

func (n *fakeNotifier) Post(_ context.Context, id int, content Notification) error {
	n.posts++
	if n.postErr != nil {
		return n.postErr
	}

	n.shown[id] = content

	return nil
}

func (n *fakeNotifier) Cancel(_ context.Context, id int) error {
	n.cancels++
	if n.cancErr != nil {
		return n.cancErr
	}

	delete(n.shown, id)

	return nil
}

type fakeWakeLock struct {
	acquires   int
	releases   int
	acquireErr error
	releaseErr error
}

func (w *fakeWakeLock) Acquire(context.Context) error {
	w.acquires++

	return w.acquireErr
}

func (w *fakeWakeLock) Release(context.Context) error {
	w.releases++

	return w.releaseErr
}

// harness bundles a Reconciler with its fakes.
type harness struct {
	toggle   *fakeToggle
	lock     *fakeLock
	network  *fakeNetwork
	prefs    fakePrefs
	emitter  *recordingEmitter
	notifier *fakeNotifier
	wl       *fakeWakeLock
	guard    *WakeLockGuard
	rec      *Reconciler
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	h := &harness{
		toggle:   &fakeToggle{},
		lock:     &fakeLock{},
		network:  &fakeNetwork{info: NotConnected()},
		prefs:    fakePrefs{},
		emitter:  &recordingEmitter{},
		notifier: newFakeNotifier(),
		wl:       &fakeWakeLock{},
	}

	logger := testLogger(t)
	h.guard = NewWakeLockGuard(h.wl, logger)

	rec, err := NewReconciler(&ReconcilerConfig{
		Toggle:   h.toggle,
		Lock:     h.lock,
		Network:  h.network,
		Prefs:    h.prefs,
		Emitter:  h.emitter,
		Notifier: h.notifier,
		WakeLock: h.guard,
		Logger:   logger,
		NowFunc:  func() time.Time { return time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC) },
	})
	require.NoError(t, err)

	h.rec = rec

	return h
}

// fakeAlarm fires only when the test pushes into fire.
type fakeAlarm struct {
	fire    chan time.Time
	armed   []time.Duration
	armErr  error
	armErrN int // fail on this Arm call (1-based); 0 = never
	stopped bool
}

func newFakeAlarm() *fakeAlarm {
	return &fakeAlarm{fire: make(chan time.Time, 1)}
}

func (a *fakeAlarm) Arm(d time.Duration) error {
	a.armed = append(a.armed, d)

	if a.armErr != nil && len(a.armed) >= a.armErrN {
		return a.armErr
	}

	return nil
}

func (a *fakeAlarm) C() <-chan time.Time { return a.fire }

func (a *fakeAlarm) Stop() { a.stopped = true }
