package clip

// headlessDevice is a no-op clipboard for environments without a display
// server (headless Linux servers, containers, CI). It never produces Watch
// events, never reports text, and discards writes, so the daemon keeps its
// hotkey and control surfaces without a clipboard behind them.
type headlessDevice struct {
	watchCh chan struct{}
}

func newHeadless() *headlessDevice {
	return &headlessDevice{watchCh: make(chan struct{})}
}

func (d *headlessDevice) Name() string          { return "headless (no-op)" }
func (d *headlessDevice) Open() (Session, error) { return headlessSession{}, nil }
func (d *headlessDevice) HasText() bool          { return false }
func (d *headlessDevice) Watch() <-chan struct{} { return d.watchCh }
func (d *headlessDevice) Suspend()               {}
func (d *headlessDevice) Resume()                {}
func (d *headlessDevice) Close()                 {}

type headlessSession struct{}

func (headlessSession) Read() ([]byte, bool)  { return nil, false }
func (headlessSession) Clear() error          { return nil }
func (headlessSession) Write(_ []byte) error  { return nil }
func (headlessSession) Close() error          { return nil }
