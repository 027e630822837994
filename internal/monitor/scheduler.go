package monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// Alarm is a one-shot timer. Arm cancels any pending fire and schedules a
// new one d from now, so at most one fire is ever pending.
type Alarm interface {
	Arm(d time.Duration) error
	C() <-chan time.Time
	Stop()
}

// timerAlarm is the production Alarm backed by a time.Timer.
type timerAlarm struct {
	t *time.Timer
}

// NewTimerAlarm returns an Alarm that is not armed yet.
func NewTimerAlarm() Alarm {
	t := time.NewTimer(time.Hour)
	t.Stop()

	return &timerAlarm{t: t}
}

func (a *timerAlarm) Arm(d time.Duration) error {
	if d <= 0 {
		return fmt.Errorf("monitor: alarm interval must be > 0, got %s", d)
	}

	// Since Go 1.23 Stop+Reset discards any stale fire, no drain needed.
	a.t.Stop()
	a.t.Reset(d)

	return nil
}

func (a *timerAlarm) C() <-chan time.Time {
	return a.t.C
}

func (a *timerAlarm) Stop() {
	a.t.Stop()
}

// ticker is what the Scheduler drives. Implemented by *Reconciler.
type ticker interface {
	Tick(ctx context.Context) *TickReport
}

// SchedulerConfig holds the inputs for a Scheduler.
type SchedulerConfig struct {
	Reconciler *Reconciler
	Interval   time.Duration
	Alarm      Alarm          // nil uses NewTimerAlarm
	Health     HealthRecorder // optional
	SessionID  string
	Logger     *slog.Logger
	NowFunc    func() time.Time // injectable for tests; nil uses time.Now
}

// Scheduler runs reconciliation ticks on a self-rearming one-shot alarm.
// All ticks execute on the goroutine that called Run.
type Scheduler struct {
	rec       ticker
	interval  time.Duration
	alarm     Alarm
	health    HealthRecorder
	sessionID string
	trigger   chan struct{}
	logger    *slog.Logger
	nowFunc   func() time.Time
}

// NewScheduler validates cfg and returns an idle Scheduler.
func NewScheduler(cfg *SchedulerConfig) (*Scheduler, error) {
	if cfg.Reconciler == nil {
		return nil, errors.New("monitor: reconciler is required")
	}

	return newScheduler(cfg.Reconciler, cfg)
}

func newScheduler(rec ticker, cfg *SchedulerConfig) (*Scheduler, error) {
	interval := cfg.Interval
	if interval == 0 {
		interval = DefaultInterval
	}

	if interval < 0 {
		return nil, fmt.Errorf("monitor: interval must be > 0, got %s", interval)
	}

	if cfg.Logger == nil {
		return nil, errors.New("monitor: logger is required")
	}

	alarm := cfg.Alarm
	if alarm == nil {
		alarm = NewTimerAlarm()
	}

	now := cfg.NowFunc
	if now == nil {
		now = time.Now
	}

	return &Scheduler{
		rec:       rec,
		interval:  interval,
		alarm:     alarm,
		health:    cfg.Health,
		sessionID: cfg.SessionID,
		trigger:   make(chan struct{}, 1),
		logger:    cfg.Logger,
		nowFunc:   now,
	}, nil
}

// Trigger requests an immediate tick followed by a re-arm. Requests that
// arrive while one is already pending collapse into it. Safe to call from
// any goroutine, including signal handlers.
func (s *Scheduler) Trigger() {
	select {
	case s.trigger <- struct{}{}:
	default:
	}
}

// Run (re)starts a monitoring session: one tick right away, then a tick on
// every alarm fire or Trigger, re-arming after each. It returns nil when ctx
// is canceled and an error when the alarm cannot be re-armed, which ends the
// session.
func (s *Scheduler) Run(ctx context.Context) error {
	defer s.alarm.Stop()

	s.logger.Info("monitoring session starting",
		slog.String("session", s.sessionID),
		slog.Duration("interval", s.interval),
	)

	s.recordStart(ctx)

	for {
		s.runTick(ctx)

		if err := s.alarm.Arm(s.interval); err != nil {
			return s.fail(ctx, fmt.Errorf("monitor: re-arming alarm: %w", err))
		}

		select {
		case <-ctx.Done():
			s.logger.Info("monitoring session stopped", slog.String("session", s.sessionID))

			return nil

		case <-s.alarm.C():

		case <-s.trigger:
			s.logger.Debug("external tick requested", slog.String("action", ActionUpdateStatus))
		}
	}
}

// runTick performs one tick with panic recovery so a misbehaving
// collaborator cannot take down the loop.
func (s *Scheduler) runTick(ctx context.Context) {
	var report *TickReport

	func() {
		defer func() {
			if r := recover(); r != nil {
				report = &TickReport{
					At:  s.nowFunc(),
					Err: fmt.Errorf("monitor: panic in tick: %v", r),
				}
			}
		}()

		report = s.rec.Tick(ctx)
	}()

	if report.Err != nil {
		s.logger.Warn("tick completed with errors",
			slog.String("error", report.Err.Error()),
		)
	}

	if s.health == nil {
		return
	}

	if err := s.health.TickCompleted(ctx, s.sessionID, report); err != nil {
		s.logger.Debug("recording tick failed", slog.String("error", err.Error()))
	}
}

func (s *Scheduler) recordStart(ctx context.Context) {
	if s.health == nil {
		return
	}

	if err := s.health.SessionStarted(ctx, s.sessionID, s.nowFunc()); err != nil {
		s.logger.Warn("recording session start failed", slog.String("error", err.Error()))
	}
}

func (s *Scheduler) fail(ctx context.Context, cause error) error {
	s.logger.Error("monitoring session failed",
		slog.String("session", s.sessionID),
		slog.String("error", cause.Error()),
	)

	if s.health != nil {
		if err := s.health.SessionFailed(context.WithoutCancel(ctx), s.sessionID, s.nowFunc(), cause); err != nil {
			s.logger.Warn("recording session failure failed", slog.String("error", err.Error()))
		}
	}

	return cause
}
