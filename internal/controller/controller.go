// Package controller implements the clipboard-history state machine. A
// single goroutine consumes events — external clipboard changes, user
// commands, status queries — and owns the history stack plus the flag
// tracking whether the current clipboard content is under management.
//
// Every clipboard mutation runs inside a fixed bracket: change delivery
// is suspended, the clipboard is acquired under exponential backoff, the
// content is replaced, and then both are undone in reverse order. The
// bracket keeps the process from reacting to its own writes and bounds
// how long it fights other processes for the clipboard.
package controller

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"

	"go.klb.dev/clipstack/internal/clip"
	"go.klb.dev/clipstack/internal/config"
	"go.klb.dev/clipstack/internal/hotkey"
	"go.klb.dev/clipstack/internal/stack"
)

const (
	defaultBackoffInitial = time.Millisecond
	defaultBackoffCeiling = 500 * time.Millisecond
)

// Rebinder swaps the active hotkey bindings. *hotkey.Listener implements
// it.
type Rebinder interface {
	Rebind(map[string]*hotkey.Binding)
}

// TrayToggler shows or hides the tray icon.
type TrayToggler interface {
	SetVisible(bool)
}

// Params configures a Controller. Device and Config are required.
type Params struct {
	Log    *slog.Logger
	Device clip.Device
	Config *config.Config

	// Reload produces the next configuration on a reload command. When
	// nil, reload commands are refused.
	Reload func() (*config.Config, error)

	// Keys, when set, receives the new bindings after a successful
	// reload.
	Keys Rebinder

	// Tray, when set, is toggled when a reload flips show_tray_icon.
	Tray TrayToggler
}

// Controller owns the history stack and the ownership flag. All methods
// run on the event-loop goroutine; nothing here is safe for concurrent
// use. Query it through a KindStatus event instead.
type Controller struct {
	log   *slog.Logger
	dev   clip.Device
	stack *stack.Stack
	cfg   *config.Config

	// managing is true while the current clipboard content is known to
	// the controller, making pop and swap safe to act on it.
	managing bool

	reload func() (*config.Config, error)
	keys   Rebinder
	tray   TrayToggler

	backoffInitial time.Duration
	backoffCeiling time.Duration
}

func New(p Params) *Controller {
	if p.Log == nil {
		p.Log = slog.Default()
	}
	if p.Config == nil {
		p.Config = config.Default()
	}
	return &Controller{
		log:            p.Log,
		dev:            p.Device,
		stack:          stack.New(p.Config.MaxStackSize),
		cfg:            p.Config,
		reload:         p.Reload,
		keys:           p.Keys,
		tray:           p.Tray,
		backoffInitial: defaultBackoffInitial,
		backoffCeiling: defaultBackoffCeiling,
	}
}

// Run consumes events until ctx is canceled, events is closed, or an exit
// command arrives.
func (c *Controller) Run(ctx context.Context, events <-chan Event) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if c.Dispatch(ev) {
				return nil
			}
		}
	}
}

// Dispatch handles one event and reports whether the loop should stop.
func (c *Controller) Dispatch(ev Event) bool {
	switch ev.Kind {
	case KindClipboardChanged:
		c.clipboardChanged()
	case KindCommand:
		return c.command(ev.Cmd)
	case KindStatus:
		if ev.Reply != nil {
			ev.Reply <- c.status()
		}
	default:
		c.log.Debug("ignoring unrecognized event", "kind", int(ev.Kind))
	}
	return false
}

func (c *Controller) command(cmd Command) bool {
	switch cmd {
	case CmdPop:
		c.pop()
	case CmdSwap:
		c.swap()
	case CmdClear:
		c.clear()
	case CmdReload:
		c.reloadConfig()
	case CmdExit:
		c.log.Info("exit requested")
		return true
	default:
		c.log.Debug("ignoring unrecognized command", "command", int(cmd))
	}
	return false
}

// withClipboard runs fn inside the mutation bracket. Change delivery is
// suspended and the clipboard acquired under backoff; release and resume
// happen in reverse order on every path out, including failures.
func (c *Controller) withClipboard(fn func(clip.Session) error) error {
	c.dev.Suspend()
	defer c.dev.Resume()

	sess, err := c.acquire()
	if err != nil {
		return err
	}
	defer sess.Close()
	return fn(sess)
}

// acquire opens a clipboard session, retrying busy failures with delays
// that double from backoffInitial. It gives up once the next delay would
// pass backoffCeiling; any other failure aborts immediately.
func (c *Controller) acquire() (clip.Session, error) {
	var sess clip.Session
	op := func() error {
		s, err := c.dev.Open()
		if err != nil {
			if errors.Is(err, clip.ErrBusy) {
				return err
			}
			return backoff.Permanent(err)
		}
		sess = s
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.backoffInitial
	b.RandomizationFactor = 0
	b.Multiplier = 2
	b.MaxInterval = c.backoffCeiling
	b.MaxElapsedTime = 0

	if err := backoff.Retry(op, backoff.WithMaxRetries(b, c.maxRetries())); err != nil {
		return nil, fmt.Errorf("acquire clipboard: %w", err)
	}
	return sess, nil
}

func (c *Controller) maxRetries() uint64 {
	var n uint64
	for d := c.backoffInitial; d <= c.backoffCeiling; d *= 2 {
		n++
	}
	return n
}

// clipboardChanged captures new external text content. Inside the bracket
// the text is read, the clipboard emptied, and the same text written back,
// leaving the visible content unchanged but owned by this process so a
// later pop or swap may replace it.
func (c *Controller) clipboardChanged() {
	if !c.dev.HasText() {
		c.managing = false
		c.log.Debug("clipboard changed to non-text content")
		return
	}

	var text []byte
	err := c.withClipboard(func(sess clip.Session) error {
		t, ok := sess.Read()
		if err := sess.Clear(); err != nil {
			return err
		}
		if !ok {
			return nil
		}
		if err := sess.Write(t); err != nil {
			return err
		}
		text = bytes.Clone(t)
		return nil
	})
	if err != nil {
		c.fail("capture clipboard", err)
		return
	}
	if text == nil {
		c.managing = false
		c.log.Debug("clipboard text gone before capture")
		return
	}

	if c.cfg.PreventDuplicatePush {
		if top, ok := c.stack.Peek(); ok && bytes.Equal(top, text) {
			c.managing = true
			c.log.Debug("ignoring duplicate push")
			return
		}
	}
	c.stack.Push(text)
	c.managing = true
	c.log.Debug("pushed clipboard text", "bytes", len(text), "depth", c.stack.Len())
}

// pop removes the entry matching the current clipboard content and
// restores the one underneath. When the clipboard is not under management
// the stack is left alone and its top is written out instead. The write
// target is chosen before the bracket and the stack mutated only after it
// succeeds, so a failure leaves the history untouched.
func (c *Controller) pop() {
	writeBack, hasWrite := c.stack.Peek()
	if c.managing {
		writeBack, hasWrite = c.stack.At(1)
	}

	err := c.withClipboard(func(sess clip.Session) error {
		if err := sess.Clear(); err != nil {
			return err
		}
		if !hasWrite {
			return nil
		}
		return sess.Write(writeBack)
	})
	if err != nil {
		c.fail("pop", err)
		return
	}

	popped := false
	if c.managing {
		_, popped = c.stack.Pop()
	}
	c.managing = true

	switch {
	case popped && hasWrite:
		c.log.Info("popped stack, previous entry restored", "depth", c.stack.Len())
	case popped:
		c.log.Info("popped last entry, clipboard emptied")
	case hasWrite:
		c.log.Info("clipboard was not under management, top of stack restored", "depth", c.stack.Len())
	default:
		c.log.Info("pop with empty stack, clipboard claimed")
	}
}

// swap exchanges the two most recent entries and writes the new top to the
// clipboard. Declined when the clipboard is not under management or fewer
// than two entries exist.
func (c *Controller) swap() {
	if !c.managing {
		c.log.Info("cannot swap: clipboard not under management")
		return
	}
	if c.stack.Len() < 2 {
		c.log.Info("stack too small to swap", "depth", c.stack.Len())
		return
	}

	next, _ := c.stack.At(1)
	err := c.withClipboard(func(sess clip.Session) error {
		if err := sess.Clear(); err != nil {
			return err
		}
		return sess.Write(next)
	})
	if err != nil {
		c.fail("swap", err)
		return
	}

	c.stack.Swap()
	c.managing = true
	c.log.Info("swapped top two entries", "depth", c.stack.Len())
}

// clear drops all history and empties the clipboard.
func (c *Controller) clear() {
	err := c.withClipboard(func(sess clip.Session) error {
		return sess.Clear()
	})
	if err != nil {
		c.fail("clear", err)
		return
	}
	c.stack.Clear()
	c.managing = true
	c.log.Info("cleared stack and clipboard")
}

// reloadConfig swaps in a freshly loaded configuration. The new config is
// loaded before anything is replaced; on failure the previous one stays
// active. The stack keeps its entries, shedding any excess over a lowered
// limit on the next push.
func (c *Controller) reloadConfig() {
	if c.reload == nil {
		c.log.Warn("configuration reload not available")
		return
	}
	next, err := c.reload()
	if err != nil {
		c.log.Error("config reload failed, keeping previous configuration", "err", err)
		return
	}

	prev := c.cfg
	c.cfg = next
	c.stack.SetLimit(next.MaxStackSize)
	if c.keys != nil {
		c.keys.Rebind(BindingMap(next))
	}
	if c.tray != nil && prev.ShowTrayIcon != next.ShowTrayIcon {
		c.tray.SetVisible(next.ShowTrayIcon)
	}
	c.log.Info("configuration reloaded", "max_stack_size", next.MaxStackSize, "tray", next.ShowTrayIcon)
}

// fail records a failed clipboard bracket. The stack is never mutated on
// failure, and management is surrendered: the clipboard state is unknown
// afterward, so pop and swap must not act on it.
func (c *Controller) fail(op string, err error) {
	c.managing = false
	c.log.Error("clipboard operation failed", "op", op, "err", err)
}

func (c *Controller) status() Status {
	bindings := make(map[string]string)
	for name, b := range BindingMap(c.cfg) {
		bindings[name] = b.String()
	}
	return Status{
		Depth:    c.stack.Len(),
		Limit:    c.stack.Limit(),
		Managing: c.managing,
		Dedup:    c.cfg.PreventDuplicatePush,
		Tray:     c.cfg.ShowTrayIcon,
		Bindings: bindings,
	}
}

// BindingMap renders cfg's hotkey bindings keyed by command name, in the
// shape hotkey.Listener.Rebind consumes. Disabled bindings are absent.
func BindingMap(cfg *config.Config) map[string]*hotkey.Binding {
	m := make(map[string]*hotkey.Binding)
	if cfg.PopBinding != nil {
		m[CmdPop.String()] = cfg.PopBinding
	}
	if cfg.SwapBinding != nil {
		m[CmdSwap.String()] = cfg.SwapBinding
	}
	if cfg.ClearBinding != nil {
		m[CmdClear.String()] = cfg.ClearBinding
	}
	return m
}
