package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/tonimelisma/wirebug-go/internal/monitor"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeToggle struct {
	mu       sync.Mutex
	enabled  bool
	probes   int
	probeErr error
	setErr   error
}

func (f *fakeToggle) Enabled(context.Context) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.probes++

	return f.enabled, f.probeErr
}

func (f *fakeToggle) SetEnabled(_ context.Context, enabled bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.setErr != nil {
		return f.setErr
	}

	f.enabled = enabled

	return nil
}

func (f *fakeToggle) probeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.probes
}

type fakeLock struct{}

func (fakeLock) Locked(context.Context) (bool, error) { return false, nil }

type fakeNetwork struct {
	info monitor.ConnectivityInfo
}

func (f fakeNetwork) Connectivity(context.Context) (monitor.ConnectivityInfo, error) {
	return f.info, nil
}

type fakeWakeLock struct {
	mu       sync.Mutex
	held     bool
	acquires int
	releases int
}

func (f *fakeWakeLock) Acquire(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.held = true
	f.acquires++

	return nil
}

func (f *fakeWakeLock) Release(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.held = false
	f.releases++

	return nil
}

func (f *fakeWakeLock) isHeld() bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.held
}

// syncBuffer is a bytes.Buffer safe for one writer and a polling reader.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.buf.String()
}

func (b *syncBuffer) lines() int {
	return strings.Count(b.String(), "\n")
}
