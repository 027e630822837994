package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/tonimelisma/wirebug-go/internal/config"
	"github.com/tonimelisma/wirebug-go/internal/monitor"
	"github.com/tonimelisma/wirebug-go/internal/store"
)

// probeTimeout bounds the live toggle read in status.
const probeTimeout = 5 * time.Second

// Debugging state strings.
const (
	debugEnabled  = "enabled"
	debugDisabled = "disabled"
	debugUnknown  = "unknown"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show debugging state, monitor health, and the status notification",
		Long: `Display the live wireless debugging state, whether the monitor daemon is
running, what its latest session last observed, and the notification it is
currently showing.`,
		RunE: runStatus,
	}
}

// statusReport is the JSON shape of `wirebug status --json`.
type statusReport struct {
	Debugging    string              `json:"debugging"`
	ProbeError   string              `json:"probe_error,omitempty"`
	DaemonPID    int                 `json:"daemon_pid,omitempty"`
	Running      bool                `json:"running"`
	Session      *statusSession      `json:"session,omitempty"`
	Notification *statusNotification `json:"notification,omitempty"`
}

type statusSession struct {
	ID          string     `json:"id"`
	State       string     `json:"state"`
	StartedAt   time.Time  `json:"started_at"`
	LastTickAt  *time.Time `json:"last_tick_at,omitempty"`
	Ticks       int64      `json:"ticks"`
	LastEnabled bool       `json:"last_enabled"`
	LastError   string     `json:"last_error,omitempty"`
	Failure     string     `json:"failure,omitempty"`
}

type statusNotification struct {
	Title    string    `json:"title"`
	Body     string    `json:"body"`
	PostedAt time.Time `json:"posted_at"`
}

func runStatus(cmd *cobra.Command, _ []string) error {
	cc := mustCLIContext(cmd.Context())

	report := buildStatusReport(cmd.Context(), cc.Cfg.StatePath(), config.PIDFilePath(), newToggle(cc.Cfg), cc.Logger)

	if cc.Flags.JSON {
		return printStatusJSON(os.Stdout, report)
	}

	return printStatusText(os.Stdout, report, time.Now())
}

func buildStatusReport(
	ctx context.Context, statePath, pidPath string, toggle monitor.FeatureToggle, logger *slog.Logger,
) *statusReport {
	report := &statusReport{Debugging: debugUnknown}

	probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	if enabled, err := toggle.Enabled(probeCtx); err != nil {
		report.ProbeError = err.Error()
	} else if enabled {
		report.Debugging = debugEnabled
	} else {
		report.Debugging = debugDisabled
	}

	report.DaemonPID, report.Running = daemonAlive(pidPath)

	if _, err := os.Stat(statePath); err != nil {
		// No state database yet: the daemon has never run.
		return report
	}

	st, err := store.Open(ctx, statePath, logger)
	if err != nil {
		logger.Warn("opening state database", slog.String("error", err.Error()))

		return report
	}
	defer st.Close()

	sess, err := st.LatestSession(ctx)
	switch {
	case errors.Is(err, store.ErrNoSession):
	case err != nil:
		logger.Warn("reading session", slog.String("error", err.Error()))
	default:
		report.Session = newStatusSession(sess)
	}

	n, found, err := st.Notification(ctx, monitor.StatusNotificationID)
	if err != nil {
		logger.Warn("reading notification", slog.String("error", err.Error()))
	} else if found {
		report.Notification = &statusNotification{Title: n.Title, Body: n.Body, PostedAt: n.PostedAt}
	}

	return report
}

func newStatusSession(s *store.Session) *statusSession {
	out := &statusSession{
		ID:          s.ID,
		State:       s.State,
		StartedAt:   s.StartedAt,
		Ticks:       s.TickCount,
		LastEnabled: s.LastEnabled,
		LastError:   s.LastError,
		Failure:     s.Failure,
	}

	if !s.LastTickAt.IsZero() {
		t := s.LastTickAt
		out.LastTickAt = &t
	}

	return out
}

func printStatusJSON(w io.Writer, report *statusReport) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("encoding status: %w", err)
	}

	return nil
}

func printStatusText(w io.Writer, r *statusReport, now time.Time) error {
	ew := &errWriter{w: w}

	debugging := r.Debugging
	if r.ProbeError != "" {
		debugging += " (" + r.ProbeError + ")"
	}

	ew.printf("Wireless debugging: %s\n", debugging)

	if r.Running {
		ew.printf("Monitor:            running (PID %d)\n", r.DaemonPID)
	} else {
		ew.printf("Monitor:            not running\n")
	}

	if s := r.Session; s != nil {
		ew.printf("Session:            %s (%s, started %s)\n", s.ID, s.State, formatTime(s.StartedAt))

		if s.LastTickAt != nil {
			ew.printf("Last check:         %s, %d checks\n", formatAge(now.Sub(*s.LastTickAt)), s.Ticks)
		}

		if s.LastError != "" {
			ew.printf("Last error:         %s\n", s.LastError)
		}

		if s.Failure != "" {
			ew.printf("Failure:            %s\n", s.Failure)
		}
	}

	if n := r.Notification; n != nil {
		ew.printf("Notification:       %s: %s\n", n.Title, n.Body)
	} else {
		ew.printf("Notification:       (none)\n")
	}

	return ew.err
}
