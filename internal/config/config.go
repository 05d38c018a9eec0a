// Package config loads and parses the clipstack configuration file, a
// line-oriented `option = value` format.
package config

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.klb.dev/clipstack/internal/hotkey"
)

// DefaultText is the configuration written when no file exists yet.
const DefaultText = `# clipstack configuration.
#
# Keybindings take zero or more of the modifiers Alt, Control, Shift and
# Win joined by "+", followed by a key name. The literal None disables an
# option; max_stack_size = None removes the history bound.

max_stack_size = 100
show_tray_icon = true
pop_keybinding = Control + Shift + C
swap_keybinding = None
clear_keybinding = None
prevent_duplicate_push = false
`

// Config is one immutable configuration snapshot. A reload builds a new
// Config rather than mutating the current one.
type Config struct {
	// MaxStackSize bounds the history; zero means unbounded.
	MaxStackSize int
	ShowTrayIcon bool
	// Bindings are nil when the hotkey is disabled.
	PopBinding           *hotkey.Binding
	SwapBinding          *hotkey.Binding
	ClearBinding         *hotkey.Binding
	PreventDuplicatePush bool
}

// Default returns the built-in configuration, matching DefaultText.
func Default() *Config {
	return &Config{
		MaxStackSize: 100,
		ShowTrayIcon: true,
		PopBinding:   &hotkey.Binding{Mods: hotkey.ModControl | hotkey.ModShift, Key: "c"},
	}
}

// ErrMalformed reports a line that is not `option = value`.
var ErrMalformed = errors.New("line must be an option, followed by an equals sign, followed by a value")

// LineError locates a parse failure on its 1-based line.
type LineError struct {
	Line int
	Err  error
}

func (e *LineError) Error() string { return fmt.Sprintf("line %d: %v", e.Line, e.Err) }
func (e *LineError) Unwrap() error { return e.Err }

// UnknownOptionError reports an unrecognized option name.
type UnknownOptionError struct {
	Option string
}

func (e *UnknownOptionError) Error() string {
	return fmt.Sprintf("unknown option %q", e.Option)
}

// BoolError reports a value that is neither true nor false.
type BoolError struct {
	Value string
}

func (e *BoolError) Error() string {
	return fmt.Sprintf("expected value to be one of true or false, got %q", e.Value)
}

// IntError reports a stack size that is not a positive integer.
type IntError struct {
	Value string
	Err   error
}

func (e *IntError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("expected a positive integer, but failed to parse %q: %v", e.Value, e.Err)
	}
	return fmt.Sprintf("expected a positive integer, got %q", e.Value)
}

func (e *IntError) Unwrap() error { return e.Err }

// Parse reads a configuration. Unset options keep their defaults. Blank
// lines and #-comments are skipped; any other problem fails with a
// LineError carrying the line number.
func Parse(r io.Reader) (*Config, error) {
	cfg := Default()
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		pieces := strings.Split(text, "=")
		if len(pieces) != 2 {
			return nil, &LineError{Line: line, Err: ErrMalformed}
		}
		option := strings.TrimSpace(pieces[0])
		value := strings.TrimSpace(pieces[1])

		var err error
		switch option {
		case "max_stack_size":
			cfg.MaxStackSize, err = parseStackSize(value)
		case "show_tray_icon":
			cfg.ShowTrayIcon, err = parseBool(value)
		case "prevent_duplicate_push":
			cfg.PreventDuplicatePush, err = parseBool(value)
		case "pop_keybinding":
			cfg.PopBinding, err = hotkey.Parse(value)
		case "swap_keybinding":
			cfg.SwapBinding, err = hotkey.Parse(value)
		case "clear_keybinding":
			cfg.ClearBinding, err = hotkey.Parse(value)
		default:
			err = &UnknownOptionError{Option: option}
		}
		if err != nil {
			return nil, &LineError{Line: line, Err: err}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return cfg, nil
}

func parseStackSize(value string) (int, error) {
	if strings.EqualFold(value, hotkey.None) {
		return 0, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, &IntError{Value: value, Err: err}
	}
	if n < 1 {
		return 0, &IntError{Value: value}
	}
	return n, nil
}

func parseBool(value string) (bool, error) {
	switch value {
	case "true":
		return true, nil
	case "false":
		return false, nil
	}
	return false, &BoolError{Value: value}
}

// DefaultPath returns the per-user configuration file location,
// <user config dir>/clipstack/clipstack.conf.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate config dir: %w", err)
	}
	return filepath.Join(dir, "clipstack", "clipstack.conf"), nil
}

// Load parses the file at path. The file must exist.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()
	cfg, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// LoadOrCreate loads the configuration at path, resolving the default
// location when path is empty. A missing file is materialized from
// DefaultText. Failures to locate or write the file degrade to the
// defaults with a warning; only a present-but-invalid file is an error.
func LoadOrCreate(path string) (*Config, error) {
	if path == "" {
		var err error
		path, err = DefaultPath()
		if err != nil {
			slog.Warn("cannot determine config dir, using default configuration", "err", err)
			return Default(), nil
		}
	}

	f, err := os.Open(path)
	if err == nil {
		defer f.Close()
		cfg, perr := Parse(f)
		if perr != nil {
			return nil, fmt.Errorf("parse %s: %w", path, perr)
		}
		slog.Info("read configuration", "path", path)
		return cfg, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("cannot open config, using default configuration", "path", path, "err", err)
		return Default(), nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		slog.Warn("cannot create config dir, using default configuration", "path", path, "err", err)
		return Default(), nil
	}
	if err := os.WriteFile(path, []byte(DefaultText), 0o644); err != nil {
		slog.Warn("cannot write default config", "path", path, "err", err)
	} else {
		slog.Info("wrote default configuration", "path", path)
	}
	return Default(), nil
}
