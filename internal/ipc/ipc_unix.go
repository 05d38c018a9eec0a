//go:build !windows

package ipc

import (
	"net"
	"os"
	"path/filepath"
)

func socketPath() string {
	// Linux: prefer XDG_RUNTIME_DIR
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return filepath.Join(dir, "clipstack.sock")
	}
	// macOS / fallback
	return filepath.Join(os.TempDir(), "clipstack.sock")
}

func listenIPC(path string) (net.Listener, error) {
	// Remove a stale socket from a previous (crashed) run. A live daemon
	// is excluded by the IsRunning probe before we get here.
	_ = os.Remove(path)
	return net.Listen("unix", path)
}

func dialIPC(path string) (net.Conn, error) {
	return net.Dial("unix", path)
}
