package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/tonimelisma/wirebug-go/internal/config"
)

// version is set at build time via ldflags.
var version = "dev"

// Global persistent flags, bound in newRootCmd().
var (
	flagConfigPath string
	flagJSON       bool
	flagVerbose    bool
	flagQuiet      bool
)

// skipConfigAnnotation marks commands that must run even when the config
// file is broken (config set is how users fix it).
const skipConfigAnnotation = "wirebug.skip-config"

// logFilePermissions: owner read/write only.
const logFilePermissions = 0o600

// CLIFlags is a snapshot of the global flags.
type CLIFlags struct {
	ConfigPath string
	JSON       bool
	Verbose    bool
	Quiet      bool
}

// CLIContext carries everything a subcommand needs. It is built once in
// PersistentPreRunE and stored in the command's context.
type CLIContext struct {
	Flags   CLIFlags
	Env     config.EnvOverrides
	CLI     config.CLIOverrides
	Cfg     *config.Config // nil for skip-config commands
	CfgPath string
	Logger  *slog.Logger
}

// Statusf prints a status message to stderr unless quiet mode is set.
func (cc *CLIContext) Statusf(format string, args ...any) {
	statusf(cc.Flags.Quiet, format, args...)
}

type cliContextKey struct{}

func withCLIContext(ctx context.Context, cc *CLIContext) context.Context {
	return context.WithValue(ctx, cliContextKey{}, cc)
}

// mustCLIContext returns the CLIContext set by PersistentPreRunE. A missing
// context is a programming error.
func mustCLIContext(ctx context.Context) *CLIContext {
	cc, ok := ctx.Value(cliContextKey{}).(*CLIContext)
	if !ok || cc == nil {
		panic("wirebug: command context has no CLIContext")
	}

	return cc
}

// newRootCmd builds and returns the fully-assembled root command with all
// subcommands registered. Called once from main().
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wirebug",
		Short: "Wireless debugging status monitor",
		Long: `wirebug keeps an eye on ADB-over-Wi-Fi: it reports when wireless debugging
is switched on or off, shows where to connect, can turn debugging off when the
device locks, and can keep the device awake while debugging is on.`,
		Version: version,
		// Silence Cobra's default error/usage printing; main handles it.
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return loadCLIContext(cmd)
		},
	}

	cmd.PersistentFlags().StringVar(&flagConfigPath, "config", "", "config file path")
	cmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "output in JSON format")
	cmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")
	cmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "suppress informational output")
	cmd.MarkFlagsMutuallyExclusive("verbose", "quiet")

	cmd.AddCommand(newRunCmd())
	cmd.AddCommand(newTickCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newEnableCmd())
	cmd.AddCommand(newDisableCmd())
	cmd.AddCommand(newWatchCmd())
	cmd.AddCommand(newConfigCmd())

	return cmd
}

// loadCLIContext resolves configuration through the override chain and
// stores the CLIContext on cmd.
func loadCLIContext(cmd *cobra.Command) error {
	flags := CLIFlags{
		ConfigPath: flagConfigPath,
		JSON:       flagJSON,
		Verbose:    flagVerbose,
		Quiet:      flagQuiet,
	}

	cc := &CLIContext{
		Flags: flags,
		Env:   config.ReadEnvOverrides(),
		CLI:   config.CLIOverrides{ConfigPath: flags.ConfigPath},
	}

	if f := cmd.Flags().Lookup("interval"); f != nil && f.Changed {
		interval := f.Value.String()
		cc.CLI.PollInterval = &interval
	}

	if cmd.Annotations[skipConfigAnnotation] == "" {
		cfg, path, err := config.Resolve(cc.Env, cc.CLI)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		cc.Cfg = cfg
		cc.CfgPath = path
	} else {
		cc.CfgPath = config.ResolveConfigPath(cc.Env, cc.CLI)
	}

	cc.Logger = buildLogger(cc.Cfg, flags)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cmd.SetContext(withCLIContext(ctx, cc))

	return nil
}

// logLevel picks the level: config log_level is the baseline; --verbose
// and --quiet override it because CLI flags always win.
func logLevel(cfg *config.Config, flags CLIFlags) slog.Level {
	level := slog.LevelInfo

	if cfg != nil {
		switch cfg.LogLevel {
		case "debug":
			level = slog.LevelDebug
		case "warn":
			level = slog.LevelWarn
		case "error":
			level = slog.LevelError
		}
	}

	if flags.Verbose {
		level = slog.LevelDebug
	}

	if flags.Quiet {
		level = slog.LevelError
	}

	return level
}

// buildLogger creates the stderr logger for CLI commands.
func buildLogger(cfg *config.Config, flags CLIFlags) *slog.Logger {
	return slog.New(newLogHandler(os.Stderr, logFormat(cfg, os.Stderr), logLevel(cfg, flags)))
}

// logFormat resolves "auto": text on a terminal, JSON otherwise.
func logFormat(cfg *config.Config, out *os.File) string {
	format := "auto"
	if cfg != nil {
		format = cfg.LogFormat
	}

	if format != "auto" {
		return format
	}

	if isatty.IsTerminal(out.Fd()) || isatty.IsCygwinTerminal(out.Fd()) {
		return "text"
	}

	return "json"
}

func newLogHandler(w io.Writer, format string, level slog.Level) slog.Handler {
	opts := &slog.HandlerOptions{Level: level}

	if format == "json" {
		return slog.NewJSONHandler(w, opts)
	}

	return slog.NewTextHandler(w, opts)
}

// buildDaemonLogger extends the CLI logger with log_file output. The file
// always gets JSON so it stays machine-readable. The returned func closes
// the file.
func buildDaemonLogger(cc *CLIContext) (*slog.Logger, func(), error) {
	path := cc.Cfg.LogPath()
	if path == "" {
		return cc.Logger, func() {}, nil
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermissions)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}

	level := logLevel(cc.Cfg, cc.Flags)
	handler := fanoutHandler{
		cc.Logger.Handler(),
		slog.NewJSONHandler(f, &slog.HandlerOptions{Level: level}),
	}

	return slog.New(handler), func() { f.Close() }, nil
}

// fanoutHandler sends each record to every handler that accepts its level.
type fanoutHandler []slog.Handler

func (h fanoutHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, inner := range h {
		if inner.Enabled(ctx, level) {
			return true
		}
	}

	return false
}

func (h fanoutHandler) Handle(ctx context.Context, r slog.Record) error {
	var errs []error

	for _, inner := range h {
		if inner.Enabled(ctx, r.Level) {
			errs = append(errs, inner.Handle(ctx, r.Clone()))
		}
	}

	return errors.Join(errs...)
}

func (h fanoutHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(fanoutHandler, len(h))
	for i, inner := range h {
		out[i] = inner.WithAttrs(attrs)
	}

	return out
}

func (h fanoutHandler) WithGroup(name string) slog.Handler {
	out := make(fanoutHandler, len(h))
	for i, inner := range h {
		out[i] = inner.WithGroup(name)
	}

	return out
}

// exitOnError prints a user-friendly error message to stderr and exits.
func exitOnError(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
