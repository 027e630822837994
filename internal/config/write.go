package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

// configFilePermissions is the standard permission mode for config files.
// Owner read/write, group and others read-only.
const configFilePermissions = 0o644

// configDirPermissions is the standard permission mode for config directories.
const configDirPermissions = 0o755

// integerKeys are written bare; every other non-boolean value is quoted.
var integerKeys = map[string]bool{
	"adb_port": true,
}

// configTemplate is the config file written by the first `config set` when
// no file exists. Every setting is present as a commented-out default so
// users can discover options without reading docs. SetKey uncomments a
// template line in place when it sets that key.
const configTemplate = `# wirebug configuration

# Turn wireless debugging off whenever the device locks.
# disable_on_lock = false

# Hold a wake lock while wireless debugging is enabled.
# stay_awake = false

# How often the daemon checks the debugging state.
# poll_interval = "5s"

# Per-call timeout for platform commands; "0" disables.
# collaborator_timeout = "0"

# Port adbd listens on when wireless debugging is enabled.
# adb_port = 5555

# Privilege helper used for setprop and restarting adbd.
# su_command = "su"

# Interface inspected for the device's address and network name.
# wifi_interface = "wlan0"

# Kernel wake-lock interface and the lock's name.
# wake_lock_dir = "/sys/power"
# wake_lock_name = "wirebug"

# Websocket endpoint for status-change events; "" disables.
# event_listen_addr = "127.0.0.1:8765"

# State database (default: platform data directory).
# state_db = ""

# Log verbosity: debug, info, warn, error
# log_level = "info"

# Log format: auto, text, json
# log_format = "auto"

# Log file path (default: stderr only)
# log_file = ""
`

// SetKey sets a single top-level key in the config file at path, creating
// the file from the template if it does not exist. The edit is text-level
// so comments and layout survive, and the result is validated before it
// replaces the file.
func SetKey(path, key, value string) error {
	if !IsKnownKey(key) {
		return unknownKeyError(key)
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		data = []byte(configTemplate)
	} else if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}

	formatted, err := formatTOMLValue(key, value)
	if err != nil {
		return err
	}

	lines := strings.Split(string(data), "\n")
	lines = setTopLevelKey(lines, key, key+" = "+formatted)
	out := []byte(strings.Join(lines, "\n"))

	if err := validateContent(out); err != nil {
		return fmt.Errorf("config set %s: %w", key, err)
	}

	return atomicWriteFile(path, out)
}

// validateContent decodes data the same way Load does and rejects anything
// Load would reject.
func validateContent(data []byte) error {
	cfg := DefaultConfig()

	md, err := toml.Decode(string(data), cfg)
	if err != nil {
		return fmt.Errorf("parsing result: %w", err)
	}

	if err := checkUnknownKeys(&md); err != nil {
		return err
	}

	return Validate(cfg)
}

// setTopLevelKey replaces an existing assignment of key in the top-level
// table, else uncomments its template line, else inserts the line before
// the first table header (or at the end).
func setTopLevelKey(lines []string, key, newLine string) []string {
	end := len(lines)

	for i, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "[") {
			end = i

			break
		}
	}

	for i := range end {
		if isAssignment(strings.TrimSpace(lines[i]), key) {
			lines[i] = newLine

			return lines
		}
	}

	for i := range end {
		trimmed := strings.TrimSpace(lines[i])
		if rest, ok := strings.CutPrefix(trimmed, "#"); ok && isAssignment(strings.TrimSpace(rest), key) {
			lines[i] = newLine

			return lines
		}
	}

	// Insert before trailing blank lines of the top-level table.
	at := end
	for at > 0 && strings.TrimSpace(lines[at-1]) == "" {
		at--
	}

	inserted := make([]string, 0, len(lines)+1)
	inserted = append(inserted, lines[:at]...)
	inserted = append(inserted, newLine)
	inserted = append(inserted, lines[at:]...)

	return inserted
}

func isAssignment(line, key string) bool {
	rest, ok := strings.CutPrefix(line, key)
	if !ok {
		return false
	}

	return strings.HasPrefix(strings.TrimSpace(rest), "=")
}

// formatTOMLValue formats a value for TOML output. Booleans are written
// bare (true/false), integer keys bare, all other values as quoted strings.
func formatTOMLValue(key, value string) (string, error) {
	if value == "true" || value == "false" {
		return value, nil
	}

	if integerKeys[key] {
		n, err := strconv.Atoi(value)
		if err != nil {
			return "", fmt.Errorf("%s: must be an integer, got %q", key, value)
		}

		return strconv.Itoa(n), nil
	}

	return strconv.Quote(value), nil
}

// atomicWriteFile writes data to a temporary file in the same directory as
// path, then renames it to the target path, so a crash never leaves a
// partially written config. Parent directories are created as needed.
func atomicWriteFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, configDirPermissions); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	f, err := os.CreateTemp(dir, ".config-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}

	tempPath := f.Name()

	succeeded := false
	defer func() {
		if !succeeded {
			os.Remove(tempPath)
		}
	}()

	if _, err := f.Write(data); err != nil {
		f.Close()

		return fmt.Errorf("writing temp file: %w", err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}

	if err := os.Chmod(tempPath, configFilePermissions); err != nil {
		return fmt.Errorf("setting file permissions: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		return fmt.Errorf("renaming temp file: %w", err)
	}

	succeeded = true

	return nil
}
