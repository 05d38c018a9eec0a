//go:build (linux || darwin) && !cgo

package clip

import (
	"log/slog"
	"sync"
	"time"

	"github.com/atotto/clipboard"
)

const fallbackPollInterval = 500 * time.Millisecond

// fallbackDevice shells out to xclip/xsel (Linux) or pbcopy/pbpaste (macOS)
// through github.com/atotto/clipboard, for builds without cgo. External
// changes are detected by polling; spawning a reader twice a second is the
// price of the pure-Go build. There is no contention signal, so Open never
// reports ErrBusy.
type fallbackDevice struct {
	watchCh chan struct{}
	done    chan struct{}

	mu        sync.Mutex
	suspended bool
	last      string
}

// New returns the shell-out clipboard backend, or the headless no-op backend
// when no clipboard utility is installed.
func New() Device {
	if clipboard.Unsupported {
		slog.Warn("no clipboard utility found, running headless")
		return newHeadless()
	}
	d := &fallbackDevice{
		watchCh: make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	d.last, _ = clipboard.ReadAll()
	go d.poll()
	return d
}

func (d *fallbackDevice) Name() string { return "shell-out clipboard (xclip/pbpaste)" }

func (d *fallbackDevice) poll() {
	t := time.NewTicker(fallbackPollInterval)
	defer t.Stop()
	for {
		select {
		case <-d.done:
			return
		case <-t.C:
			d.tick()
		}
	}
}

func (d *fallbackDevice) tick() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.suspended {
		return
	}
	// A read error here usually means the selection is empty; treat it
	// as empty content rather than a change.
	text, err := clipboard.ReadAll()
	if err != nil {
		text = ""
	}
	if text == d.last {
		return
	}
	d.last = text
	select {
	case d.watchCh <- struct{}{}:
	default:
	}
}

func (d *fallbackDevice) Open() (Session, error) {
	return &fallbackSession{dev: d}, nil
}

func (d *fallbackDevice) HasText() bool {
	text, err := clipboard.ReadAll()
	return err == nil && text != ""
}

func (d *fallbackDevice) Watch() <-chan struct{} { return d.watchCh }

func (d *fallbackDevice) Suspend() {
	d.mu.Lock()
	d.suspended = true
	d.mu.Unlock()
}

func (d *fallbackDevice) Resume() {
	d.mu.Lock()
	if text, err := clipboard.ReadAll(); err == nil {
		d.last = text
	}
	d.suspended = false
	d.mu.Unlock()
}

func (d *fallbackDevice) Close() { close(d.done) }

type fallbackSession struct {
	dev    *fallbackDevice
	closed bool
}

func (s *fallbackSession) Read() ([]byte, bool) {
	text, err := clipboard.ReadAll()
	if err != nil || text == "" {
		return nil, false
	}
	return []byte(text), true
}

func (s *fallbackSession) Clear() error {
	return clipboard.WriteAll("")
}

func (s *fallbackSession) Write(text []byte) error {
	return clipboard.WriteAll(string(text))
}

func (s *fallbackSession) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.dev.mu.Lock()
	if text, err := clipboard.ReadAll(); err == nil {
		s.dev.last = text
	}
	s.dev.mu.Unlock()
	return nil
}
