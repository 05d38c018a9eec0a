//go:build cgo && (windows || linux || darwin)

package hotkey

import (
	"log/slog"
	"sync"
	"unicode"

	hook "github.com/robotn/gohook"
	"github.com/vcaesar/keycode"
)

// Modifier masks used by gohook events; each modifier has a left and a
// right bit.
const (
	maskShift = 0x0001 | 0x0010
	maskCtrl  = 0x0002 | 0x0020
	maskMeta  = 0x0004 | 0x0040
	maskAlt   = 0x0008 | 0x0080
)

// Listener captures OS-global key events and reports which registered
// binding fired, by label. The binding set swaps atomically with Rebind, so
// a configuration reload never restarts the hook.
type Listener struct {
	log    *slog.Logger
	events chan string
	done   chan struct{}

	mu       sync.Mutex
	bindings map[string]*Binding
	started  bool
}

// NewListener returns a Listener with no bindings.
func NewListener(log *slog.Logger) *Listener {
	if log == nil {
		log = slog.Default()
	}
	return &Listener{
		log:      log,
		events:   make(chan string, 4),
		done:     make(chan struct{}),
		bindings: map[string]*Binding{},
	}
}

// Rebind replaces the active binding set. Nil bindings are skipped, so a
// disabled hotkey can keep its label in the map.
func (l *Listener) Rebind(bindings map[string]*Binding) {
	next := make(map[string]*Binding, len(bindings))
	for label, b := range bindings {
		if b != nil {
			next[label] = b
		}
	}
	l.mu.Lock()
	l.bindings = next
	l.mu.Unlock()
}

// Events returns the channel delivering fired binding labels. Never closed.
func (l *Listener) Events() <-chan string { return l.events }

// Start begins capturing key events. Safe to call once.
func (l *Listener) Start() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.started {
		return
	}
	l.started = true
	go l.run()
}

// Stop ends the capture. The Events channel stays open but goes silent.
func (l *Listener) Stop() {
	close(l.done)
}

func (l *Listener) run() {
	ch := hook.Start()
	defer hook.End()
	for {
		select {
		case <-l.done:
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			if ev.Kind != hook.KeyDown {
				continue
			}
			if label := l.match(ev); label != "" {
				l.log.Debug("hotkey fired", "binding", label)
				select {
				case l.events <- label:
				case <-l.done:
					return
				}
			}
		}
	}
}

func (l *Listener) match(ev hook.Event) string {
	mods := modsFromMask(ev.Mask)
	l.mu.Lock()
	defer l.mu.Unlock()
	for label, b := range l.bindings {
		if b.Mods == mods && keyMatches(b.Key, ev) {
			return label
		}
	}
	return ""
}

func modsFromMask(mask uint16) Modifiers {
	var m Modifiers
	if mask&maskShift != 0 {
		m |= ModShift
	}
	if mask&maskCtrl != 0 {
		m |= ModControl
	}
	if mask&maskAlt != 0 {
		m |= ModAlt
	}
	if mask&maskMeta != 0 {
		m |= ModSuper
	}
	return m
}

// rawcodeNames maps canonical key names to their spelling in the keycode
// table where the two differ.
var rawcodeNames = map[Key]string{
	"escape": "esc",
}

// keyMatches reports whether the event is a press of k. Printable keys
// match on the translated character, named keys on the raw keycode.
func keyMatches(k Key, ev hook.Event) bool {
	if len(k) == 1 && unicode.ToLower(ev.Keychar) == rune(k[0]) {
		return true
	}
	name := string(k)
	if n, ok := rawcodeNames[k]; ok {
		name = n
	}
	if code, ok := keycode.Keycode[name]; ok && ev.Rawcode == code {
		return true
	}
	return false
}
