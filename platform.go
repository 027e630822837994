package main

import (
	"github.com/tonimelisma/wirebug-go/internal/config"
	"github.com/tonimelisma/wirebug-go/internal/monitor"
	"github.com/tonimelisma/wirebug-go/internal/platform"
)

// daemonDeps are the platform capabilities the daemon drives. Production
// values come from newSystemDeps; tests substitute fakes.
type daemonDeps struct {
	Toggle   monitor.FeatureToggle
	Lock     monitor.LockDetector
	Network  monitor.NetworkInfoProvider
	WakeLock monitor.WakeLock
	Alarm    monitor.Alarm // nil uses a timer alarm
}

// newToggle builds the ADB-over-TCP toggle from config.
func newToggle(cfg *config.Config) *platform.ADBToggle {
	return platform.NewADBToggle(platform.ExecRunner{}, cfg.ADBPort, cfg.SuCommand)
}

// newSystemDeps wires the real device implementations.
func newSystemDeps(cfg *config.Config) (daemonDeps, error) {
	runner := platform.ExecRunner{}

	wl, err := platform.NewSysfsWakeLock(cfg.WakeLockDir, cfg.WakeLockName)
	if err != nil {
		return daemonDeps{}, err
	}

	return daemonDeps{
		Toggle:   newToggle(cfg),
		Lock:     platform.NewKeyguardDetector(runner),
		Network:  platform.NewWifiInfo(cfg.WifiInterface, runner),
		WakeLock: wl,
	}, nil
}
