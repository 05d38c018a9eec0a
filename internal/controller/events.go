package controller

import (
	"fmt"
	"strings"
)

// Command identifies one user-initiated operation, whether it arrived via
// hotkey, tray menu, or control socket.
type Command int

const (
	CmdPop Command = iota
	CmdSwap
	CmdClear
	CmdReload
	CmdExit
)

func (c Command) String() string {
	switch c {
	case CmdPop:
		return "pop"
	case CmdSwap:
		return "swap"
	case CmdClear:
		return "clear"
	case CmdReload:
		return "reload"
	case CmdExit:
		return "exit"
	}
	return fmt.Sprintf("Command(%d)", int(c))
}

// ParseCommand maps the wire spelling of a command to its Command. "stop"
// is accepted as an alias for exit.
func ParseCommand(s string) (Command, bool) {
	switch strings.ToLower(s) {
	case "pop":
		return CmdPop, true
	case "swap":
		return CmdSwap, true
	case "clear":
		return CmdClear, true
	case "reload":
		return CmdReload, true
	case "exit", "stop":
		return CmdExit, true
	}
	return 0, false
}

// Kind discriminates events.
type Kind int

const (
	// KindClipboardChanged signals one external clipboard mutation.
	KindClipboardChanged Kind = iota
	// KindCommand carries a Command.
	KindCommand
	// KindStatus asks for a state snapshot on the Reply channel.
	KindStatus
)

// Event is one unit of work for the controller loop.
type Event struct {
	Kind  Kind
	Cmd   Command       // set for KindCommand
	Reply chan<- Status // set for KindStatus
}

// Status is a point-in-time view of the controller state, served through
// the event loop so no lock guards the underlying fields.
type Status struct {
	Depth    int
	Limit    int
	Managing bool
	Dedup    bool
	Tray     bool
	// Bindings maps command names to rendered hotkeys; disabled hotkeys
	// are absent.
	Bindings map[string]string
}
