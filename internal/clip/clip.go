// Package clip provides exclusive, session-scoped access to the system
// clipboard across platforms. Build constraints select the implementation:
//
//	clip_windows.go   — native clipboard sessions + AddClipboardFormatListener (cgo)
//	clip_poll.go      — Linux/macOS via golang.design/x/clipboard, polling watcher
//	clip_fallback.go  — cgo-less Linux/macOS via xclip/xsel/pbcopy shell-outs
//	clip_other.go     — headless / container stub
package clip

import "errors"

// ErrBusy reports that another process currently holds the clipboard. It is
// transient; callers acquire under retry with backoff. Backends without a
// distinguishable contention signal never return it.
var ErrBusy = errors.New("clipboard busy")

// Session is an exclusive hold on the clipboard, obtained from Device.Open
// and released by Close. A session is used from a single goroutine.
type Session interface {
	// Read returns the current text content. ok is false when the
	// clipboard holds no text.
	Read() (text []byte, ok bool)

	// Clear empties the clipboard, claiming the resource for this
	// process.
	Clear() error

	// Write replaces the clipboard content with text.
	Write(text []byte) error

	// Close releases the hold. Call exactly once; the session is dead
	// afterward.
	Close() error
}

// Device is the platform clipboard.
type Device interface {
	// Name returns a human-readable name for the backend.
	Name() string

	// Open acquires exclusive access to the clipboard. It fails with an
	// error matching ErrBusy while another process holds it; any other
	// error is not retryable.
	Open() (Session, error)

	// HasText reports whether the clipboard currently holds text content,
	// without opening a session.
	HasText() bool

	// Watch returns a channel that receives one signal per external
	// clipboard change. The channel is never closed. On platforms without
	// native change notification this is implemented via polling.
	Watch() <-chan struct{}

	// Suspend stops change delivery so the caller's own writes are not
	// reported. Balanced by Resume.
	Suspend()

	// Resume re-enables change delivery. Writes made between Suspend and
	// Resume never surface on Watch.
	Resume()

	// Close stops the watcher and releases platform resources.
	Close()
}
