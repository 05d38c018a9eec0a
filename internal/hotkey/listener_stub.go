//go:build !(cgo && (windows || linux || darwin))

package hotkey

import (
	"log/slog"
	"sync"
)

// Listener on this build parses and accepts bindings but never fires them:
// the OS key hook needs cgo.
type Listener struct {
	log    *slog.Logger
	events chan string
	warn   sync.Once
}

// NewListener returns a Listener with no bindings.
func NewListener(log *slog.Logger) *Listener {
	if log == nil {
		log = slog.Default()
	}
	return &Listener{log: log, events: make(chan string)}
}

// Rebind accepts the binding set and warns once when any binding would
// have been active.
func (l *Listener) Rebind(bindings map[string]*Binding) {
	for _, b := range bindings {
		if b != nil {
			l.warn.Do(func() {
				l.log.Warn("global hotkeys need a cgo build, keybindings are inactive")
			})
			return
		}
	}
}

// Events returns a channel that never delivers on this build.
func (l *Listener) Events() <-chan string { return l.events }

func (l *Listener) Start() {}

func (l *Listener) Stop() {}
