package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"go.klb.dev/clipstack/internal/ipc"
	"go.klb.dev/clipstack/internal/message"
	"go.klb.dev/clipstack/internal/wire"
)

func newPopCmd() *cobra.Command {
	return controlCmd("pop", "Pop the most recent history entry back onto the clipboard")
}

func newSwapCmd() *cobra.Command {
	return controlCmd("swap", "Swap the two most recent history entries")
}

func newClearCmd() *cobra.Command {
	return controlCmd("clear", "Clear the clipboard history")
}

func newReloadCmd() *cobra.Command {
	return controlCmd("reload", "Reload the daemon's configuration file")
}

func newStopCmd() *cobra.Command {
	return controlCmd("stop", "Stop the running daemon")
}

// controlCmd builds a subcommand that sends one command to the running
// daemon over the control socket.
func controlCmd(name, short string) *cobra.Command {
	return &cobra.Command{
		Use:   name,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return sendCommand(name)
		},
	}
}

func sendCommand(name string) error {
	if !ipc.IsRunning() {
		return fmt.Errorf("no clipstack daemon running (socket %s)", ipc.SocketPath())
	}
	conn, err := ipc.Dial()
	if err != nil {
		return fmt.Errorf("connect control socket: %w", err)
	}
	defer conn.Close()

	wc := wire.New(conn)
	if err := wc.WriteMsg(message.NewCommand(name)); err != nil {
		return fmt.Errorf("send %s: %w", name, err)
	}

	wc.SetReadDeadline(5 * time.Second)
	resp, err := wc.ReadMsg()
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	switch resp.Type {
	case message.TypeOK:
		return nil
	case message.TypeError:
		return errors.New(resp.Error)
	default:
		return fmt.Errorf("unexpected response type %q", resp.Type)
	}
}
