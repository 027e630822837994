package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/tonimelisma/wirebug-go/internal/broadcast"
	"github.com/tonimelisma/wirebug-go/internal/config"
	"github.com/tonimelisma/wirebug-go/internal/monitor"
	"github.com/tonimelisma/wirebug-go/internal/store"
)

// releaseTimeout bounds the wake-lock release on shutdown.
const releaseTimeout = 5 * time.Second

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the status monitor in the foreground",
		Long: `Run the wireless debugging monitor until interrupted.

Every poll_interval the monitor reads the debugging state, announces changes
to event listeners, keeps the status notification up to date, applies the
disable_on_lock and stay_awake options, and records its health in the state
database. SIGHUP (sent by 'wirebug tick', 'enable' and 'disable') runs a check
immediately. Edits to the config file are picked up without a restart.`,
		RunE: runDaemon,
	}

	cmd.Flags().String("interval", "", "override poll_interval for this run (e.g. 2s)")

	return cmd
}

func runDaemon(cmd *cobra.Command, _ []string) error {
	cc := mustCLIContext(cmd.Context())

	logger, closeLog, err := buildDaemonLogger(cc)
	if err != nil {
		return err
	}
	defer closeLog()

	cleanup, err := writePIDFile(config.PIDFilePath())
	if err != nil {
		return err
	}
	defer cleanup()

	deps, err := newSystemDeps(cc.Cfg)
	if err != nil {
		return err
	}

	hup, stopHangup := notifyHangup()
	defer stopHangup()

	ctx := shutdownContext(cmd.Context(), logger)

	d := &daemon{
		holder: config.NewHolder(cc.Cfg, cc.CfgPath),
		env:    cc.Env,
		cli:    cc.CLI,
		deps:   deps,
		logger: logger,
		hup:    hup,
	}

	return d.run(ctx)
}

// daemon assembles one monitoring session: state store, reconciler,
// scheduler, config watcher and event server.
type daemon struct {
	holder *config.Holder
	env    config.EnvOverrides
	cli    config.CLIOverrides
	deps   daemonDeps
	logger *slog.Logger
	hup    <-chan os.Signal

	// started, when set, is called once the session is assembled.
	started func(sessionID string, sched *monitor.Scheduler, bus *monitor.Bus)
}

func (d *daemon) run(ctx context.Context) error {
	cfg := d.holder.Config()

	st, err := store.Open(ctx, cfg.StatePath(), d.logger)
	if err != nil {
		return err
	}
	defer st.Close()

	bus := monitor.NewBus()
	guard := monitor.NewWakeLockGuard(d.deps.WakeLock, d.logger)

	rec, err := monitor.NewReconciler(&monitor.ReconcilerConfig{
		Toggle:   d.deps.Toggle,
		Lock:     d.deps.Lock,
		Network:  d.deps.Network,
		Prefs:    d.holder,
		Emitter:  bus,
		Notifier: st,
		WakeLock: guard,
		Logger:   d.logger,
		Timeout:  cfg.Timeout(),
	})
	if err != nil {
		return err
	}

	sessionID := uuid.NewString()
	logger := d.logger.With(slog.String("session_id", sessionID))

	sched, err := monitor.NewScheduler(&monitor.SchedulerConfig{
		Reconciler: rec,
		Interval:   cfg.Interval(),
		Alarm:      d.deps.Alarm,
		Health:     st,
		SessionID:  sessionID,
		Logger:     logger,
	})
	if err != nil {
		return err
	}

	watcher := config.NewWatcher(d.holder, d.env, d.cli, logger, func(next *config.Config) {
		if next.Interval() != cfg.Interval() || next.EventListenAddr != cfg.EventListenAddr {
			logger.Warn("poll_interval and event_listen_addr changes take effect after restart")
		}
	})

	logger.Info("monitor starting",
		slog.Duration("interval", cfg.Interval()),
		slog.String("state_db", cfg.StatePath()),
		slog.String("version", version),
	)

	if d.started != nil {
		d.started(sessionID, sched, bus)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error { return sched.Run(gctx) })
	g.Go(func() error { return watcher.Run(gctx) })
	g.Go(func() error { return forwardTriggers(gctx, d.hup, sched, logger) })

	if cfg.EventListenAddr != "" {
		srv := broadcast.NewServer(bus, logger)
		g.Go(func() error { return srv.ListenAndServe(gctx, cfg.EventListenAddr) })
	}

	runErr := g.Wait()

	releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), releaseTimeout)
	defer cancel()

	guard.Shutdown(releaseCtx)

	if runErr != nil {
		return fmt.Errorf("monitor session %s: %w", sessionID, runErr)
	}

	if err := st.SessionStopped(releaseCtx, sessionID, time.Now()); err != nil {
		logger.Warn("recording session stop", slog.String("error", err.Error()))
	}

	logger.Info("monitor stopped")

	return nil
}

// forwardTriggers turns each SIGHUP into an immediate tick.
func forwardTriggers(ctx context.Context, hup <-chan os.Signal, sched *monitor.Scheduler, logger *slog.Logger) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-hup:
			if !ok {
				return nil
			}

			logger.Debug("status check requested")
			sched.Trigger()
		}
	}
}
