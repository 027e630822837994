package monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// ReconcilerConfig holds the collaborators of a Reconciler. All fields except
// Timeout and NowFunc are required.
type ReconcilerConfig struct {
	Toggle   FeatureToggle
	Lock     LockDetector
	Network  NetworkInfoProvider
	Prefs    Preferences
	Emitter  Emitter
	Notifier Notifier
	WakeLock *WakeLockGuard
	Logger   *slog.Logger

	// Timeout bounds each collaborator call. Zero means no bound; a stuck
	// call then stalls the loop.
	Timeout time.Duration

	NowFunc func() time.Time // injectable for tests; nil uses time.Now
}

// TickReport summarizes one tick. Probed is false when the toggle could not
// be read; in that case Enabled carries the previous known value.
type TickReport struct {
	At       time.Time
	Probed   bool
	Enabled  bool
	Changed  bool
	Disabled bool // disable-on-lock fired during this tick
	Err      error
}

// Reconciler runs the poll-reconcile-notify sequence. It owns the last
// known status, which starts false and changes only at the end of a tick
// whose probe succeeded. A Reconciler is not safe for concurrent Tick calls;
// the Scheduler serializes them.
type Reconciler struct {
	toggle    FeatureToggle
	lock      LockDetector
	network   NetworkInfoProvider
	prefs     Preferences
	emitter   Emitter
	presenter *NotificationPresenter
	wakeLock  *WakeLockGuard
	logger    *slog.Logger
	timeout   time.Duration
	nowFunc   func() time.Time

	previous bool
}

// NewReconciler validates cfg and returns a Reconciler with status false.
func NewReconciler(cfg *ReconcilerConfig) (*Reconciler, error) {
	switch {
	case cfg.Toggle == nil:
		return nil, errors.New("monitor: feature toggle is required")
	case cfg.Lock == nil:
		return nil, errors.New("monitor: lock detector is required")
	case cfg.Network == nil:
		return nil, errors.New("monitor: network info provider is required")
	case cfg.Prefs == nil:
		return nil, errors.New("monitor: preferences are required")
	case cfg.Emitter == nil:
		return nil, errors.New("monitor: emitter is required")
	case cfg.Notifier == nil:
		return nil, errors.New("monitor: notifier is required")
	case cfg.WakeLock == nil:
		return nil, errors.New("monitor: wake lock guard is required")
	case cfg.Logger == nil:
		return nil, errors.New("monitor: logger is required")
	case cfg.Timeout < 0:
		return nil, fmt.Errorf("monitor: timeout must be >= 0, got %s", cfg.Timeout)
	}

	now := cfg.NowFunc
	if now == nil {
		now = time.Now
	}

	return &Reconciler{
		toggle:    cfg.Toggle,
		lock:      cfg.Lock,
		network:   cfg.Network,
		prefs:     cfg.Prefs,
		emitter:   cfg.Emitter,
		presenter: NewNotificationPresenter(cfg.Notifier),
		wakeLock:  cfg.WakeLock,
		logger:    cfg.Logger,
		timeout:   cfg.Timeout,
		nowFunc:   now,
	}, nil
}

// Enabled returns the status recorded by the last successful tick.
func (r *Reconciler) Enabled() bool {
	return r.previous
}

// Tick performs one reconciliation. It never panics on collaborator errors
// and never returns early past the point where the probed value is
// recorded. Errors from individual steps are joined into report.Err.
func (r *Reconciler) Tick(ctx context.Context) *TickReport {
	report := &TickReport{At: r.nowFunc(), Enabled: r.previous}

	r.logger.Info("performing a status update")

	isEnabled, probeErr := r.probe(ctx)

	var errs []error

	if probeErr != nil {
		r.logger.Warn("could not determine debugging status, leaving state unchanged",
			slog.String("error", probeErr.Error()),
		)

		errs = append(errs, probeErr)
	} else {
		report.Probed = true
		report.Enabled = isEnabled
		report.Changed = r.emitIfChanged(isEnabled)
	}

	disabled, err := r.applyLockPolicy(ctx)
	report.Disabled = disabled

	if err != nil {
		errs = append(errs, err)
	}

	if report.Probed {
		if err := r.reconcileNotification(ctx, isEnabled); err != nil {
			errs = append(errs, err)
		}

		if err := r.reconcileWakeLock(ctx, isEnabled); err != nil {
			errs = append(errs, err)
		}

		r.previous = isEnabled
	}

	report.Err = errors.Join(errs...)

	return report
}

func (r *Reconciler) probe(ctx context.Context) (bool, error) {
	cctx, cancel := r.callContext(ctx)
	defer cancel()

	enabled, err := r.toggle.Enabled(cctx)
	if err != nil {
		return false, fmt.Errorf("monitor: probing debugging status: %w", err)
	}

	return enabled, nil
}

// emitIfChanged emits a StatusChangedEvent when isEnabled differs from the
// previous status and reports whether it did.
func (r *Reconciler) emitIfChanged(isEnabled bool) bool {
	if isEnabled == r.previous {
		r.logger.Info("status is unchanged")

		return false
	}

	r.logger.Info("status has changed",
		slog.String("status", statusString(isEnabled)),
	)

	r.emitter.Emit(StatusChangedEvent{Enabled: isEnabled})

	return true
}

// applyLockPolicy turns debugging off when the device is locked and
// disable_on_lock is set. The result does not feed back into this tick's
// notification and wake-lock decisions; the next probe observes it.
func (r *Reconciler) applyLockPolicy(ctx context.Context) (bool, error) {
	if !r.prefs.Bool(OptionDisableOnLock, false) {
		return false, nil
	}

	lctx, lcancel := r.callContext(ctx)
	locked, err := r.lock.Locked(lctx)
	lcancel()

	if err != nil {
		return false, fmt.Errorf("monitor: reading lock state: %w", err)
	}

	if !locked {
		return false, nil
	}

	r.logger.Info("disabling debugging because disable_on_lock is true")

	sctx, scancel := r.callContext(ctx)
	defer scancel()

	if err := r.toggle.SetEnabled(sctx, false); err != nil {
		return false, fmt.Errorf("monitor: disabling debugging on lock: %w", err)
	}

	return true, nil
}

func (r *Reconciler) reconcileNotification(ctx context.Context, isEnabled bool) error {
	if !isEnabled {
		r.logger.Debug("canceling the notification")

		cctx, cancel := r.callContext(ctx)
		defer cancel()

		return r.presenter.Hide(cctx)
	}

	info := r.connectivity(ctx)

	r.logger.Debug("connectivity resolved",
		slog.Bool("connected", info.Connected),
		slog.String("address", info.Address),
		slog.String("label", info.Label),
	)

	cctx, cancel := r.callContext(ctx)
	defer cancel()

	return r.presenter.Show(cctx, BuildNotification(info))
}

// connectivity resolves network info, degrading to NotConnected on error.
func (r *Reconciler) connectivity(ctx context.Context) ConnectivityInfo {
	cctx, cancel := r.callContext(ctx)
	defer cancel()

	info, err := r.network.Connectivity(cctx)
	if err != nil {
		r.logger.Warn("connectivity lookup failed",
			slog.String("error", err.Error()),
		)

		return NotConnected()
	}

	return info
}

func (r *Reconciler) reconcileWakeLock(ctx context.Context, isEnabled bool) error {
	cctx, cancel := r.callContext(ctx)
	defer cancel()

	if isEnabled && r.prefs.Bool(OptionStayAwake, false) {
		return r.wakeLock.Acquire(cctx)
	}

	return r.wakeLock.Release(cctx)
}

// callContext derives the context for a single collaborator call.
func (r *Reconciler) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.timeout <= 0 {
		return ctx, func() {}
	}

	return context.WithTimeout(ctx, r.timeout)
}

func statusString(enabled bool) string {
	if enabled {
		return "enabled"
	}

	return "disabled"
}
