package controller

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.klb.dev/clipstack/internal/clip"
	"go.klb.dev/clipstack/internal/config"
	"go.klb.dev/clipstack/internal/hotkey"
)

// fakeDevice scripts clipboard behavior and records every call in trace.
type fakeDevice struct {
	content  []byte
	hasText  bool
	busyLeft int
	openErr  error
	writeErr error
	opens    int
	trace    []string
	watch    chan struct{}
}

func newFakeDevice() *fakeDevice {
	return &fakeDevice{watch: make(chan struct{}, 1)}
}

func (d *fakeDevice) setText(s string) {
	d.content = []byte(s)
	d.hasText = true
}

func (d *fakeDevice) Name() string { return "fake" }

func (d *fakeDevice) Open() (clip.Session, error) {
	d.opens++
	if d.busyLeft > 0 {
		d.busyLeft--
		return nil, fmt.Errorf("open clipboard: %w", clip.ErrBusy)
	}
	if d.openErr != nil {
		return nil, d.openErr
	}
	d.trace = append(d.trace, "open")
	return &fakeSession{dev: d}, nil
}

func (d *fakeDevice) HasText() bool          { return d.hasText }
func (d *fakeDevice) Watch() <-chan struct{} { return d.watch }
func (d *fakeDevice) Suspend()               { d.trace = append(d.trace, "suspend") }
func (d *fakeDevice) Resume()                { d.trace = append(d.trace, "resume") }
func (d *fakeDevice) Close()                 {}

type fakeSession struct{ dev *fakeDevice }

func (s *fakeSession) Read() ([]byte, bool) {
	s.dev.trace = append(s.dev.trace, "read")
	if s.dev.content == nil {
		return nil, false
	}
	return append([]byte(nil), s.dev.content...), true
}

func (s *fakeSession) Clear() error {
	s.dev.trace = append(s.dev.trace, "clear")
	s.dev.content = nil
	s.dev.hasText = false
	return nil
}

func (s *fakeSession) Write(text []byte) error {
	if s.dev.writeErr != nil {
		return s.dev.writeErr
	}
	s.dev.trace = append(s.dev.trace, "write")
	s.dev.content = append([]byte(nil), text...)
	s.dev.hasText = true
	return nil
}

func (s *fakeSession) Close() error {
	s.dev.trace = append(s.dev.trace, "close")
	return nil
}

func newTestController(dev *fakeDevice, cfg *config.Config) *Controller {
	return New(Params{
		Log:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		Device: dev,
		Config: cfg,
	})
}

func change(c *Controller, d *fakeDevice, text string) {
	d.setText(text)
	c.Dispatch(Event{Kind: KindClipboardChanged})
}

func command(c *Controller, cmd Command) {
	c.Dispatch(Event{Kind: KindCommand, Cmd: cmd})
}

// history returns the stack contents oldest first.
func history(c *Controller) []string {
	var out []string
	for i := c.stack.Len() - 1; i >= 0; i-- {
		v, _ := c.stack.At(i)
		out = append(out, string(v))
	}
	return out
}

func TestBasicHistoryAndPop(t *testing.T) {
	dev := newFakeDevice()
	cfg := config.Default()
	cfg.MaxStackSize = 3
	c := newTestController(dev, cfg)

	for _, s := range []string{"a", "b", "c", "d"} {
		change(c, dev, s)
	}
	assert.Equal(t, []string{"b", "c", "d"}, history(c))
	assert.True(t, c.managing)

	command(c, CmdPop)
	assert.Equal(t, []string{"b", "c"}, history(c))
	assert.Equal(t, "c", string(dev.content))
	assert.True(t, c.managing)
}

func TestPopWithoutManagementRestoresTop(t *testing.T) {
	dev := newFakeDevice()
	c := newTestController(dev, config.Default())

	change(c, dev, "a")
	change(c, dev, "b")
	dev.hasText = false
	c.Dispatch(Event{Kind: KindClipboardChanged})
	require.False(t, c.managing)

	command(c, CmdPop)
	assert.Equal(t, []string{"a", "b"}, history(c), "nothing removed, the top was only restored")
	assert.Equal(t, "b", string(dev.content))
	assert.True(t, c.managing)
}

func TestPopEmptyStackClaimsClipboard(t *testing.T) {
	dev := newFakeDevice()
	c := newTestController(dev, config.Default())

	command(c, CmdPop)
	assert.Equal(t, []string{"suspend", "open", "clear", "close", "resume"}, dev.trace)
	assert.True(t, c.managing)
	assert.Empty(t, dev.content)
}

func TestSwap(t *testing.T) {
	dev := newFakeDevice()
	c := newTestController(dev, config.Default())

	change(c, dev, "x")
	change(c, dev, "y")

	command(c, CmdSwap)
	assert.Equal(t, []string{"y", "x"}, history(c))
	assert.Equal(t, "x", string(dev.content))

	command(c, CmdSwap)
	assert.Equal(t, []string{"x", "y"}, history(c), "swapping twice restores the order")
	assert.Equal(t, "y", string(dev.content))
}

func TestSwapDeclinedWithoutManagement(t *testing.T) {
	dev := newFakeDevice()
	c := newTestController(dev, config.Default())

	change(c, dev, "x")
	change(c, dev, "y")
	dev.hasText = false
	c.Dispatch(Event{Kind: KindClipboardChanged})
	require.False(t, c.managing)

	before := len(dev.trace)
	command(c, CmdSwap)
	assert.Equal(t, []string{"x", "y"}, history(c))
	assert.Equal(t, before, len(dev.trace), "declined swap must not touch the clipboard")
}

func TestSwapDeclinedWhenTooSmall(t *testing.T) {
	dev := newFakeDevice()
	c := newTestController(dev, config.Default())

	change(c, dev, "only")
	before := len(dev.trace)
	command(c, CmdSwap)
	assert.Equal(t, []string{"only"}, history(c))
	assert.Equal(t, before, len(dev.trace))
}

func TestClearThenPush(t *testing.T) {
	dev := newFakeDevice()
	c := newTestController(dev, config.Default())

	change(c, dev, "a")
	change(c, dev, "b")

	command(c, CmdClear)
	assert.Empty(t, history(c))
	assert.Empty(t, dev.content)
	assert.True(t, c.managing)

	change(c, dev, "z")
	assert.Equal(t, []string{"z"}, history(c))
}

func TestDuplicateSuppression(t *testing.T) {
	dev := newFakeDevice()
	cfg := config.Default()
	cfg.PreventDuplicatePush = true
	c := newTestController(dev, cfg)

	change(c, dev, "a")
	change(c, dev, "a")
	assert.Equal(t, []string{"a"}, history(c))
	assert.True(t, c.managing)

	change(c, dev, "b")
	change(c, dev, "a")
	assert.Equal(t, []string{"a", "b", "a"}, history(c), "only the top entry suppresses")
}

func TestPushBracketOrdering(t *testing.T) {
	dev := newFakeDevice()
	c := newTestController(dev, config.Default())

	change(c, dev, "hi")
	assert.Equal(t, []string{"suspend", "open", "read", "clear", "write", "close", "resume"}, dev.trace)
	assert.Equal(t, "hi", string(dev.content), "content is unchanged after the claim")
}

func TestNonTextChangeDropsManagement(t *testing.T) {
	dev := newFakeDevice()
	c := newTestController(dev, config.Default())

	change(c, dev, "a")
	require.True(t, c.managing)

	dev.hasText = false
	before := len(dev.trace)
	c.Dispatch(Event{Kind: KindClipboardChanged})
	assert.False(t, c.managing)
	assert.Equal(t, before, len(dev.trace), "non-text content is left alone")
	assert.Equal(t, []string{"a"}, history(c))
}

func TestBusyRecovered(t *testing.T) {
	dev := newFakeDevice()
	c := newTestController(dev, config.Default())
	c.backoffInitial = time.Millisecond
	c.backoffCeiling = 8 * time.Millisecond

	dev.busyLeft = 2
	change(c, dev, "a")
	assert.Equal(t, 3, dev.opens)
	assert.Equal(t, []string{"a"}, history(c))
	assert.True(t, c.managing)
}

func TestBusyExhaustion(t *testing.T) {
	dev := newFakeDevice()
	c := newTestController(dev, config.Default())
	c.backoffInitial = time.Millisecond
	c.backoffCeiling = 8 * time.Millisecond

	dev.busyLeft = 100
	start := time.Now()
	err := c.withClipboard(func(clip.Session) error { return nil })
	elapsed := time.Since(start)

	require.Error(t, err)
	assert.ErrorIs(t, err, clip.ErrBusy)
	assert.Equal(t, 5, dev.opens, "initial attempt plus retries at 1, 2, 4 and 8ms")
	assert.GreaterOrEqual(t, elapsed, 15*time.Millisecond)
	assert.Equal(t, []string{"suspend", "resume"}, dev.trace, "gate restored even when acquisition fails")
}

func TestBusyExhaustionLeavesStack(t *testing.T) {
	dev := newFakeDevice()
	c := newTestController(dev, config.Default())
	c.backoffInitial = time.Millisecond
	c.backoffCeiling = 4 * time.Millisecond

	change(c, dev, "a")
	change(c, dev, "b")

	dev.busyLeft = 100
	command(c, CmdPop)
	assert.Equal(t, []string{"a", "b"}, history(c))
	assert.Equal(t, "b", string(dev.content))
	assert.False(t, c.managing)
}

func TestOpenErrorNotRetried(t *testing.T) {
	dev := newFakeDevice()
	c := newTestController(dev, config.Default())

	change(c, dev, "a")
	dev.opens = 0
	dev.openErr = errors.New("window station locked")

	command(c, CmdClear)
	assert.Equal(t, 1, dev.opens)
	assert.Equal(t, []string{"a"}, history(c))
	assert.False(t, c.managing)
}

func TestWriteFailureLeavesStack(t *testing.T) {
	dev := newFakeDevice()
	c := newTestController(dev, config.Default())

	change(c, dev, "x")
	change(c, dev, "y")

	dev.writeErr = errors.New("no memory for clipboard data")
	command(c, CmdSwap)
	assert.Equal(t, []string{"x", "y"}, history(c))
	assert.False(t, c.managing)

	n := len(dev.trace)
	require.GreaterOrEqual(t, n, 2)
	assert.Equal(t, []string{"close", "resume"}, dev.trace[n-2:], "session released and gate restored on failure")
}

func TestReloadConfig(t *testing.T) {
	dev := newFakeDevice()
	next := &config.Config{
		MaxStackSize: 2,
		SwapBinding:  &hotkey.Binding{Mods: hotkey.ModControl, Key: "s"},
	}
	keys := &fakeRebinder{}
	tray := &fakeTray{}
	c := New(Params{
		Log:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		Device: dev,
		Config: config.Default(),
		Reload: func() (*config.Config, error) { return next, nil },
		Keys:   keys,
		Tray:   tray,
	})

	change(c, dev, "a")
	change(c, dev, "b")
	change(c, dev, "c")

	command(c, CmdReload)
	assert.Same(t, next, c.cfg)
	assert.Equal(t, 2, c.stack.Limit())
	assert.Equal(t, []string{"a", "b", "c"}, history(c), "shrinking the limit defers eviction")
	require.NotNil(t, keys.got)
	assert.Contains(t, keys.got, "swap")
	assert.NotContains(t, keys.got, "pop")
	assert.Equal(t, []bool{false}, tray.visible, "default config shows the tray, reload hides it")

	change(c, dev, "d")
	assert.Equal(t, []string{"c", "d"}, history(c), "next push applies the new limit")
}

func TestReloadFailureKeepsConfig(t *testing.T) {
	dev := newFakeDevice()
	orig := config.Default()
	keys := &fakeRebinder{}
	tray := &fakeTray{}
	c := New(Params{
		Log:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		Device: dev,
		Config: orig,
		Reload: func() (*config.Config, error) { return nil, errors.New("parse error") },
		Keys:   keys,
		Tray:   tray,
	})

	command(c, CmdReload)
	assert.Same(t, orig, c.cfg)
	assert.Nil(t, keys.got)
	assert.Empty(t, tray.visible)
}

type fakeRebinder struct {
	got map[string]*hotkey.Binding
}

func (r *fakeRebinder) Rebind(m map[string]*hotkey.Binding) { r.got = m }

type fakeTray struct {
	visible []bool
}

func (f *fakeTray) SetVisible(v bool) { f.visible = append(f.visible, v) }

func TestStatus(t *testing.T) {
	dev := newFakeDevice()
	c := newTestController(dev, config.Default())

	change(c, dev, "a")
	change(c, dev, "b")

	reply := make(chan Status, 1)
	c.Dispatch(Event{Kind: KindStatus, Reply: reply})
	st := <-reply

	assert.Equal(t, 2, st.Depth)
	assert.Equal(t, 100, st.Limit)
	assert.True(t, st.Managing)
	assert.False(t, st.Dedup)
	assert.True(t, st.Tray)
	assert.Equal(t, map[string]string{"pop": "Control + Shift + C"}, st.Bindings)
}

func TestRunStopsOnExit(t *testing.T) {
	dev := newFakeDevice()
	c := newTestController(dev, config.Default())

	events := make(chan Event, 1)
	events <- Event{Kind: KindCommand, Cmd: CmdExit}
	require.NoError(t, c.Run(context.Background(), events))
}

func TestRunStopsOnCancel(t *testing.T) {
	dev := newFakeDevice()
	c := newTestController(dev, config.Default())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, c.Run(ctx, make(chan Event)), context.Canceled)
}

func TestMaxRetries(t *testing.T) {
	dev := newFakeDevice()
	c := newTestController(dev, config.Default())
	assert.Equal(t, uint64(9), c.maxRetries(), "1ms doubling under a 500ms ceiling")

	c.backoffInitial = time.Millisecond
	c.backoffCeiling = 8 * time.Millisecond
	assert.Equal(t, uint64(4), c.maxRetries())

	c.backoffCeiling = 0
	assert.Equal(t, uint64(0), c.maxRetries())
}

func TestParseCommand(t *testing.T) {
	for in, want := range map[string]Command{
		"pop":    CmdPop,
		"swap":   CmdSwap,
		"clear":  CmdClear,
		"reload": CmdReload,
		"exit":   CmdExit,
		"stop":   CmdExit,
		"POP":    CmdPop,
	} {
		got, ok := ParseCommand(in)
		require.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}

	_, ok := ParseCommand("bogus")
	assert.False(t, ok)
}

func TestBindingMap(t *testing.T) {
	cfg := config.Default()
	cfg.ClearBinding = &hotkey.Binding{Mods: hotkey.ModAlt, Key: "k"}
	m := BindingMap(cfg)
	assert.Contains(t, m, "pop")
	assert.Contains(t, m, "clear")
	assert.NotContains(t, m, "swap")
}
