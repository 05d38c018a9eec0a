// Package ipc provides the local control channel a running clipstack daemon
// listens on and the CLI sub-commands (pop, swap, clear, reload, status,
// stop) dial.
//
// The channel is a Unix domain socket on Linux/macOS and a named pipe on
// Windows, carrying newline-delimited JSON (internal/message framed by
// internal/wire). It also doubles as the single-instance guard: a second
// daemon refuses to start while the socket answers.
package ipc

import (
	"net"
	"os"
)

// SocketPath returns the control socket location: $CLIPSTACK_SOCKET when
// set, otherwise the platform default.
func SocketPath() string {
	if s := os.Getenv("CLIPSTACK_SOCKET"); s != "" {
		return s
	}
	return socketPath()
}

// IsRunning reports whether a daemon appears to be listening on the control
// socket. It does a cheap dial-and-close; no data is exchanged.
func IsRunning() bool {
	c, err := Dial()
	if err != nil {
		return false
	}
	_ = c.Close()
	return true
}

// Listen binds the control socket, clearing any stale socket file left by a
// crashed run first.
func Listen() (net.Listener, error) {
	return listenIPC(SocketPath())
}

// Dial connects to the control socket of a running daemon.
func Dial() (net.Conn, error) {
	return dialIPC(SocketPath())
}
