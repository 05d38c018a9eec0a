//go:build !(windows || ((linux || darwin) && cgo))

// Package tray shows the clipstack system tray icon and its context menu.
// This build has no tray support; every operation is a no-op.
package tray

import "log/slog"

type Tray struct {
	log      *slog.Logger
	commands chan string
}

func New(log *slog.Logger, visible bool) *Tray {
	if log == nil {
		log = slog.Default()
	}
	if visible {
		log.Warn("tray icon not supported on this build")
	}
	return &Tray{log: log, commands: make(chan string)}
}

// Commands never delivers on this build.
func (t *Tray) Commands() <-chan string { return t.commands }

// Run executes loop; there is no icon to show beside it.
func (t *Tray) Run(loop func() error) error { return loop() }

func (t *Tray) SetVisible(v bool) {
	if v {
		t.log.Warn("tray icon not supported on this build")
	}
}

func (t *Tray) Stop() {}
