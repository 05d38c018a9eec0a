//go:build windows || ((linux || darwin) && cgo)

// Package tray shows the clipstack system tray icon and its context menu.
// Menu clicks surface as command names on Commands.
package tray

import (
	"log/slog"
	"sync"

	"github.com/getlantern/systray"
)

// Tray owns the tray icon lifecycle. The toolkit's menu loop must run on
// the main goroutine (the darwin backend drives AppKit, which is
// main-thread-only), so Run occupies the caller's goroutine while the icon
// is up, and the icon cannot be created later in the same process: showing
// it after the daemon has started requires a restart.
type Tray struct {
	log      *slog.Logger
	commands chan string
	done     chan struct{}
	exit     sync.Once
	quit     sync.Once

	mu      sync.Mutex
	visible bool
	started bool
}

func New(log *slog.Logger, visible bool) *Tray {
	if log == nil {
		log = slog.Default()
	}
	return &Tray{
		log:      log,
		commands: make(chan string, 4),
		done:     make(chan struct{}),
		visible:  visible,
	}
}

// Commands delivers one command name per menu click: "pop", "swap",
// "clear", "reload" or "exit".
func (t *Tray) Commands() <-chan string { return t.commands }

// Run executes loop, showing the tray icon beside it when configured
// visible. With the icon enabled the menu loop takes over the calling
// goroutine, which must be the main one, and loop moves to its own; the
// icon is torn down once loop returns. Without the icon, loop runs
// directly. Either way Run returns loop's error.
func (t *Tray) Run(loop func() error) error {
	t.mu.Lock()
	if !t.visible {
		t.mu.Unlock()
		return loop()
	}
	t.started = true
	t.mu.Unlock()

	errc := make(chan error, 1)
	go func() {
		errc <- loop()
		t.Stop()
	}()
	systray.Run(t.onReady, t.onExit)
	return <-errc
}

// SetVisible hides or shows the icon. Hiding tears the icon down; the
// menu loop only starts with the daemon, so showing the icon at runtime
// requires a restart.
func (t *Tray) SetVisible(v bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if v == t.visible {
		return
	}
	t.visible = v
	if !v {
		if t.started {
			t.quit.Do(systray.Quit)
			t.log.Info("tray icon hidden")
		}
		return
	}
	t.log.Warn("tray icon cannot be created at runtime, restart to show it")
}

// Stop tears the icon down.
func (t *Tray) Stop() {
	t.mu.Lock()
	started := t.started
	t.mu.Unlock()
	if started {
		t.quit.Do(systray.Quit)
	}
}

func (t *Tray) onReady() {
	systray.SetIcon(icon())
	systray.SetTitle("clipstack")
	systray.SetTooltip("clipstack clipboard history")

	pop := systray.AddMenuItem("Pop", "Pop the most recent entry back onto the clipboard")
	swap := systray.AddMenuItem("Swap", "Swap the two most recent entries")
	clear := systray.AddMenuItem("Clear", "Clear the clipboard history")
	systray.AddSeparator()
	reload := systray.AddMenuItem("Reload Configuration", "Re-read the configuration file")
	exit := systray.AddMenuItem("Exit", "Stop clipstack")

	t.log.Debug("tray icon ready")

	go func() {
		for {
			var name string
			select {
			case <-pop.ClickedCh:
				name = "pop"
			case <-swap.ClickedCh:
				name = "swap"
			case <-clear.ClickedCh:
				name = "clear"
			case <-reload.ClickedCh:
				name = "reload"
			case <-exit.ClickedCh:
				name = "exit"
			case <-t.done:
				return
			}
			select {
			case t.commands <- name:
			case <-t.done:
				return
			}
		}
	}()
}

func (t *Tray) onExit() {
	t.exit.Do(func() { close(t.done) })
}
