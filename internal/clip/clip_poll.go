//go:build (linux || darwin) && cgo

package clip

import (
	"bytes"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"golang.design/x/clipboard"
)

const pollInterval = 250 * time.Millisecond

// pollDevice drives golang.design/x/clipboard, detecting external changes by
// polling and comparing text content. X11/Wayland and the macOS pasteboard
// expose no cross-process lock, so Open never reports ErrBusy; claiming the
// clipboard means becoming the selection owner via a write.
type pollDevice struct {
	watchCh chan struct{}
	done    chan struct{}

	mu        sync.Mutex
	suspended bool
	last      []byte
}

// New returns the polling clipboard backend, or the headless no-op backend
// when the display environment is unavailable. clipboard.Init is called here
// rather than in init() so that control sub-commands (pop, status, ...)
// never touch the display.
func New() Device {
	if err := clipboard.Init(); err != nil {
		slog.Warn("clipboard unavailable, running headless", "err", err)
		return newHeadless()
	}
	d := &pollDevice{
		watchCh: make(chan struct{}, 1),
		done:    make(chan struct{}),
		last:    clipboard.Read(clipboard.FmtText),
	}
	go d.poll()
	return d
}

func (d *pollDevice) Name() string {
	if runtime.GOOS == "darwin" {
		return "macOS pasteboard (poll)"
	}
	return "X11/Wayland clipboard (poll)"
}

func (d *pollDevice) poll() {
	t := time.NewTicker(pollInterval)
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

func (d *pollDevice) tick() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.suspended {
		return
	}
	text := clipboard.Read(clipboard.FmtText)
	if bytes.Equal(text, d.last) {
		return
	}
	d.last = text
	select {
	case d.watchCh <- struct{}{}:
	default:
	}
}

func (d *pollDevice) Open() (Session, error) {
	return &pollSession{dev: d}, nil
}

func (d *pollDevice) HasText() bool {
	return len(clipboard.Read(clipboard.FmtText)) > 0
}

func (d *pollDevice) Watch() <-chan struct{} { return d.watchCh }

func (d *pollDevice) Suspend() {
	d.mu.Lock()
	d.suspended = true
	d.mu.Unlock()
}

// Resume rebaselines against the current content before re-enabling the
// watcher, so writes made during the suspension are never reported.
func (d *pollDevice) Resume() {
	d.mu.Lock()
	d.last = clipboard.Read(clipboard.FmtText)
	d.suspended = false
	d.mu.Unlock()
}

func (d *pollDevice) Close() { close(d.done) }

type pollSession struct {
	dev    *pollDevice
	closed bool
}

func (s *pollSession) Read() ([]byte, bool) {
	text := clipboard.Read(clipboard.FmtText)
	if len(text) == 0 {
		return nil, false
	}
	return text, true
}

func (s *pollSession) Clear() error {
	clipboard.Write(clipboard.FmtText, nil)
	return nil
}

func (s *pollSession) Write(text []byte) error {
	clipboard.Write(clipboard.FmtText, text)
	return nil
}

// Close rebaselines the watcher so the session's writes are not mistaken
// for an external change.
func (s *pollSession) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.dev.mu.Lock()
	s.dev.last = clipboard.Read(clipboard.FmtText)
	s.dev.mu.Unlock()
	return nil
}
