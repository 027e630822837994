package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
)

const (
	pidFilePermissions = 0o644
	pidDirPermissions  = 0o755
)

// errNoDaemon reports that no live monitor process owns the PID file.
var errNoDaemon = errors.New("monitor is not running")

// writePIDFile records this process as the monitor and holds an exclusive
// flock on the file for the life of the process. The returned cleanup
// removes the file and drops the lock.
func writePIDFile(path string) (cleanup func(), err error) {
	if path == "" {
		return nil, errors.New("PID file path is empty, cannot determine data directory")
	}

	if err := os.MkdirAll(filepath.Dir(path), pidDirPermissions); err != nil {
		return nil, fmt.Errorf("creating PID file directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, pidFilePermissions)
	if err != nil {
		return nil, fmt.Errorf("opening PID file: %w", err)
	}

	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		f.Close()

		return nil, fmt.Errorf("another wirebug daemon is already running (could not lock %s)", path)
	}

	if err := writePID(f); err != nil {
		f.Close()

		return nil, err
	}

	return func() {
		os.Remove(path)
		f.Close()
	}, nil
}

func writePID(f *os.File) error {
	if err := f.Truncate(0); err != nil {
		return fmt.Errorf("truncating PID file: %w", err)
	}

	if _, err := fmt.Fprintf(f, "%d\n", os.Getpid()); err != nil {
		return fmt.Errorf("writing PID file: %w", err)
	}

	// Readers (tick, status) must see the PID as soon as run is up.
	if err := f.Sync(); err != nil {
		return fmt.Errorf("syncing PID file: %w", err)
	}

	return nil
}

// readPIDFile reads the PID stored at path.
func readPIDFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("reading PID file: %w", err)
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("invalid PID in %s: %w", path, err)
	}

	return pid, nil
}

// findDaemon returns the live monitor process named by the PID file. A PID
// file whose process is gone is removed and reported as errNoDaemon.
func findDaemon(pidPath string) (*os.Process, int, error) {
	pid, err := readPIDFile(pidPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, 0, fmt.Errorf("%w (no PID file at %s)", errNoDaemon, pidPath)
	}

	if err != nil {
		return nil, 0, err
	}

	proc, err := os.FindProcess(pid)
	if err != nil {
		return nil, pid, fmt.Errorf("finding process %d: %w", pid, err)
	}

	if err := proc.Signal(syscall.Signal(0)); err != nil {
		os.Remove(pidPath)

		return nil, pid, fmt.Errorf("%w (PID %d is gone, stale PID file removed)", errNoDaemon, pid)
	}

	return proc, pid, nil
}

// daemonAlive reports the monitor's PID and whether it is running.
func daemonAlive(pidPath string) (int, bool) {
	_, pid, err := findDaemon(pidPath)

	return pid, err == nil
}

// sendSIGHUP asks the running monitor for an immediate status check.
func sendSIGHUP(pidPath string) error {
	proc, pid, err := findDaemon(pidPath)
	if err != nil {
		return err
	}

	if err := proc.Signal(syscall.SIGHUP); err != nil {
		return fmt.Errorf("sending SIGHUP to daemon (PID %d): %w", pid, err)
	}

	return nil
}
