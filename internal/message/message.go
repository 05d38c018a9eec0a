// Package message defines the clipstack control protocol.
//
// All messages are newline-delimited JSON; each message is exactly one line:
// <json>\n. A control client sends a single request over the local socket
// and reads a single response.
package message

import (
	"encoding/json"
	"fmt"
)

// Type identifies the kind of message.
type Type string

const (
	// Requests.
	TypeCommand Type = "COMMAND"
	TypeStatus  Type = "STATUS"

	// Responses.
	TypeOK             Type = "OK"
	TypeStatusResponse Type = "STATUS_RESPONSE"
	TypeError          Type = "ERROR"
)

// StatusInfo is the daemon state reported to `clipstack status`.
type StatusInfo struct {
	PID      int    `json:"pid"`
	Backend  string `json:"backend"`
	Depth    int    `json:"depth"`
	Limit    int    `json:"limit"` // 0 = unbounded
	Managing bool   `json:"managing"`
	Dedup    bool   `json:"dedup"`
	Tray     bool   `json:"tray"`
	// Bindings maps command names to their rendered hotkey, e.g.
	// "pop" -> "Control + Shift + C". Disabled hotkeys are absent.
	Bindings map[string]string `json:"bindings,omitempty"`
}

// Message is the top-level wire envelope.
type Message struct {
	Type Type `json:"type"`

	// COMMAND — one of pop, swap, clear, reload, exit.
	Command string `json:"command,omitempty"`

	// STATUS_RESPONSE
	Status *StatusInfo `json:"status,omitempty"`

	// ERROR
	Error string `json:"error,omitempty"`
}

// NewCommand builds a COMMAND request.
func NewCommand(cmd string) *Message {
	return &Message{Type: TypeCommand, Command: cmd}
}

// NewStatusRequest builds a STATUS request.
func NewStatusRequest() *Message {
	return &Message{Type: TypeStatus}
}

// OK builds the empty success response.
func OK() *Message {
	return &Message{Type: TypeOK}
}

// Errorf builds an ERROR response.
func Errorf(format string, args ...any) *Message {
	return &Message{Type: TypeError, Error: fmt.Sprintf(format, args...)}
}

// Encode serialises the message to JSON without a trailing newline.
func (m *Message) Encode() ([]byte, error) {
	return json.Marshal(m)
}

// Decode deserialises a message from raw JSON bytes.
func Decode(b []byte) (*Message, error) {
	var m Message
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("message decode: %w", err)
	}
	return &m, nil
}
