package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/clipstack/internal/clip"
	"go.klb.dev/clipstack/internal/config"
	"go.klb.dev/clipstack/internal/controller"
	"go.klb.dev/clipstack/internal/hotkey"
	"go.klb.dev/clipstack/internal/ipc"
	"go.klb.dev/clipstack/internal/logging"
	"go.klb.dev/clipstack/internal/message"
	"go.klb.dev/clipstack/internal/tray"
	"go.klb.dev/clipstack/internal/wire"
)

func newRunCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the clipboard history daemon",
		Long: `Starts the clipstack daemon: it watches the system clipboard, keeps a
bounded history of text snapshots, and restores prior entries on pop and
swap.

Commands arrive from global hotkeys, the tray menu, and the control socket
the other clipstack subcommands use. Only one instance runs per user.

Precedence (lowest → highest): defaults → CLIPSTACK_* env vars → flags`,
		Args:    cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE:    func(_ *cobra.Command, _ []string) error { return runDaemon(v) },
	}

	f := cmd.Flags()
	f.String("config", "", "path to clipstack.conf (default: <user config dir>/clipstack/clipstack.conf)")
	addLoggingFlags(cmd)

	return cmd
}

func runDaemon(v *viper.Viper) error {
	setupLogging(v)

	if ipc.IsRunning() {
		return fmt.Errorf("another clipstack instance is already running (socket %s)", ipc.SocketPath())
	}

	cfgPath := v.GetString("config")
	if cfgPath == "" {
		if p, err := config.DefaultPath(); err == nil {
			cfgPath = p
		}
	}
	cfg, err := config.LoadOrCreate(cfgPath)
	if err != nil {
		return err
	}

	dev := clip.New()
	defer dev.Close()

	keys := hotkey.NewListener(logging.Component("hotkey"))
	keys.Rebind(controller.BindingMap(cfg))
	keys.Start()
	defer keys.Stop()

	tr := tray.New(logging.Component("tray"), cfg.ShowTrayIcon)
	defer tr.Stop()

	ctrl := controller.New(controller.Params{
		Log:    logging.Component("controller"),
		Device: dev,
		Config: cfg,
		Reload: func() (*config.Config, error) { return config.Load(cfgPath) },
		Keys:   keys,
		Tray:   tr,
	})

	events := make(chan controller.Event, 8)

	if ln, err := ipc.Listen(); err != nil {
		slog.Warn("control socket unavailable", "err", err)
	} else {
		defer ln.Close()
		slog.Info("control socket listening", "path", ipc.SocketPath())
		go serveControl(ln, dev, events)
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	go pumpEvents(dev, keys, tr, sig, events)

	slog.Info("clipstack running",
		"version", versionString(),
		"backend", dev.Name(),
		"max_stack_size", cfg.MaxStackSize,
		"tray", cfg.ShowTrayIcon,
	)

	// The tray menu loop must own the main goroutine when the icon is up;
	// the controller loop runs beside it.
	return tr.Run(func() error {
		return ctrl.Run(context.Background(), events)
	})
}

// pumpEvents serialises every input source into the controller's event
// channel: clipboard change notifications, hotkeys, tray menu clicks, and
// termination signals.
func pumpEvents(dev clip.Device, keys *hotkey.Listener, tr *tray.Tray, sig <-chan os.Signal, events chan<- controller.Event) {
	for {
		select {
		case <-dev.Watch():
			events <- controller.Event{Kind: controller.KindClipboardChanged}
		case label := <-keys.Events():
			if cmd, ok := controller.ParseCommand(label); ok {
				events <- controller.Event{Kind: controller.KindCommand, Cmd: cmd}
			}
		case name := <-tr.Commands():
			if cmd, ok := controller.ParseCommand(name); ok {
				events <- controller.Event{Kind: controller.KindCommand, Cmd: cmd}
			}
		case s := <-sig:
			slog.Info("signal received, shutting down", "signal", s.String())
			events <- controller.Event{Kind: controller.KindCommand, Cmd: controller.CmdExit}
		}
	}
}

func serveControl(ln net.Listener, dev clip.Device, events chan<- controller.Event) {
	for {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		go handleControlConn(conn, dev, events)
	}
}

func handleControlConn(conn net.Conn, dev clip.Device, events chan<- controller.Event) {
	defer conn.Close()
	wc := wire.New(conn)
	wc.SetReadDeadline(5 * time.Second)

	msg, err := wc.ReadMsg()
	if err != nil {
		return
	}

	switch msg.Type {
	case message.TypeCommand:
		cmd, ok := controller.ParseCommand(msg.Command)
		if !ok {
			_ = wc.WriteMsg(message.Errorf("unknown command %q", msg.Command))
			return
		}
		// Reply first: an exit command can tear the daemon down before a
		// later write would land.
		_ = wc.WriteMsg(message.OK())
		events <- controller.Event{Kind: controller.KindCommand, Cmd: cmd}
		slog.Debug("control: command queued", "command", cmd.String())

	case message.TypeStatus:
		reply := make(chan controller.Status, 1)
		events <- controller.Event{Kind: controller.KindStatus, Reply: reply}
		select {
		case st := <-reply:
			_ = wc.WriteMsg(&message.Message{
				Type: message.TypeStatusResponse,
				Status: &message.StatusInfo{
					PID:      os.Getpid(),
					Backend:  dev.Name(),
					Depth:    st.Depth,
					Limit:    st.Limit,
					Managing: st.Managing,
					Dedup:    st.Dedup,
					Tray:     st.Tray,
					Bindings: st.Bindings,
				},
			})
		case <-time.After(5 * time.Second):
			_ = wc.WriteMsg(message.Errorf("status request timed out"))
		}

	default:
		_ = wc.WriteMsg(message.Errorf("unknown message type %q", msg.Type))
	}
}
